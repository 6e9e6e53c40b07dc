package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/crewcal/internal/persistence"
)

type inviteRepoStub struct {
	byToken map[string]persistence.InviteDetails
	byID    map[string]persistence.Invite

	created *persistence.Invite

	acceptedToken string
	acceptedUser  string
	declinedToken string
	revokedID     string

	acceptErr  error
	declineErr error
}

func newInviteRepoStub() *inviteRepoStub {
	return &inviteRepoStub{
		byToken: make(map[string]persistence.InviteDetails),
		byID:    make(map[string]persistence.Invite),
	}
}

func (s *inviteRepoStub) add(details persistence.InviteDetails) {
	s.byToken[details.Token] = details
	s.byID[details.ID] = details.Invite
}

func (s *inviteRepoStub) CreateInvite(ctx context.Context, invite persistence.Invite) error {
	s.created = &invite
	s.add(persistence.InviteDetails{Invite: invite})
	return nil
}

func (s *inviteRepoStub) GetInvite(ctx context.Context, id string) (persistence.Invite, error) {
	invite, ok := s.byID[id]
	if !ok {
		return persistence.Invite{}, persistence.ErrNotFound
	}
	return invite, nil
}

func (s *inviteRepoStub) GetInviteByToken(ctx context.Context, token string) (persistence.InviteDetails, error) {
	details, ok := s.byToken[token]
	if !ok {
		return persistence.InviteDetails{}, persistence.ErrNotFound
	}
	return details, nil
}

func (s *inviteRepoStub) ListPendingInvites(ctx context.Context, calendarID string) ([]persistence.Invite, error) {
	var invites []persistence.Invite
	for _, details := range s.byToken {
		if details.CalendarID == calendarID && details.Status == persistence.StatusPending {
			invites = append(invites, details.Invite)
		}
	}
	return invites, nil
}

func (s *inviteRepoStub) AcceptInvite(ctx context.Context, token, userID string) error {
	if s.acceptErr != nil {
		return s.acceptErr
	}
	details, ok := s.byToken[token]
	if !ok || details.Status != persistence.StatusPending {
		return persistence.ErrNotFound
	}
	details.Status = persistence.StatusAccepted
	s.byToken[token] = details
	s.acceptedToken = token
	s.acceptedUser = userID
	return nil
}

func (s *inviteRepoStub) DeclineInvite(ctx context.Context, token string) error {
	if s.declineErr != nil {
		return s.declineErr
	}
	details, ok := s.byToken[token]
	if !ok || details.Status != persistence.StatusPending {
		return persistence.ErrNotFound
	}
	details.Status = persistence.StatusDeclined
	s.byToken[token] = details
	s.declinedToken = token
	return nil
}

func (s *inviteRepoStub) RevokeInvite(ctx context.Context, id string) error {
	invite, ok := s.byID[id]
	if ok && invite.Status == persistence.StatusPending {
		invite.Status = persistence.StatusRevoked
		s.byID[id] = invite
	}
	s.revokedID = id
	return nil
}

type notifierStub struct {
	calls int
	to    string
	token string
	err   error
}

func (n *notifierStub) SendInvite(ctx context.Context, toEmail, calendarName, inviterEmail string, role Role, token string) error {
	n.calls++
	n.to = toEmail
	n.token = token
	return n.err
}

func newInviteService(calendars *calendarRepoStub, invites *inviteRepoStub, notifier *notifierStub) *InviteService {
	return NewInviteService(
		calendars,
		invites,
		notifier,
		sequenceIDs("invite"),
		sequenceIDs("tok"),
		nowFunc(),
		7*24*time.Hour,
		nil,
	)
}

func pendingInvite(calendarID, email string, expiresAt time.Time) persistence.InviteDetails {
	return persistence.InviteDetails{
		Invite: persistence.Invite{
			ID:           "invite-1",
			CalendarID:   calendarID,
			InviteeEmail: email,
			Role:         "EDITOR",
			Status:       persistence.StatusPending,
			Token:        "tok-1",
			InvitedBy:    "user-1",
			CreatedAt:    fixedNow().Add(-time.Hour),
			ExpiresAt:    expiresAt,
		},
		CalendarName: "Team",
		InviterEmail: "owner@example.com",
	}
}

func TestInviteService_Issue(t *testing.T) {
	t.Run("rejects non-owners", func(t *testing.T) {
		calendars := newCalendarRepoStub()
		calendars.addCalendar(persistence.Calendar{ID: "cal-1"}, map[string]string{"user-2": "EDITOR"})
		svc := newInviteService(calendars, newInviteRepoStub(), &notifierStub{})

		_, err := svc.Issue(context.Background(), Principal{UserID: "user-2"}, "cal-1", "new@example.com", RoleEditor)
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("validates email and role", func(t *testing.T) {
		calendars := newCalendarRepoStub()
		calendars.addCalendar(persistence.Calendar{ID: "cal-1"}, map[string]string{"user-1": "OWNER"})
		svc := newInviteService(calendars, newInviteRepoStub(), &notifierStub{})

		_, err := svc.Issue(context.Background(), Principal{UserID: "user-1"}, "cal-1", "not-an-email", "ADMIN")
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["email"]; !ok {
			t.Fatalf("expected email error, got %v", vErr.FieldErrors)
		}
		if _, ok := vErr.FieldErrors["role"]; !ok {
			t.Fatalf("expected role error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("creates a pending invite and notifies the invitee", func(t *testing.T) {
		calendars := newCalendarRepoStub()
		calendars.addCalendar(persistence.Calendar{ID: "cal-1", Name: "Team"}, map[string]string{"user-1": "OWNER"})
		invites := newInviteRepoStub()
		notifier := &notifierStub{}
		svc := newInviteService(calendars, invites, notifier)

		invite, err := svc.Issue(context.Background(), Principal{UserID: "user-1", Email: "owner@example.com"}, "cal-1", "new@example.com", RoleFreeBusy)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if invite.Status != persistence.StatusPending {
			t.Fatalf("expected PENDING, got %s", invite.Status)
		}
		if want := fixedNow().Add(7 * 24 * time.Hour); !invite.ExpiresAt.Equal(want) {
			t.Fatalf("expected expiry %v, got %v", want, invite.ExpiresAt)
		}
		if notifier.calls != 1 || notifier.to != "new@example.com" {
			t.Fatalf("expected one notification to the invitee, got %d to %q", notifier.calls, notifier.to)
		}
		if notifier.token != invites.created.Token {
			t.Fatal("notification must carry the invite token")
		}
	})

	t.Run("tolerates notification failures", func(t *testing.T) {
		calendars := newCalendarRepoStub()
		calendars.addCalendar(persistence.Calendar{ID: "cal-1", Name: "Team"}, map[string]string{"user-1": "OWNER"})
		notifier := &notifierStub{err: errors.New("smtp down")}
		svc := newInviteService(calendars, newInviteRepoStub(), notifier)

		if _, err := svc.Issue(context.Background(), Principal{UserID: "user-1"}, "cal-1", "new@example.com", RoleEditor); err != nil {
			t.Fatalf("issue must not fail on mail errors, got %v", err)
		}
	})
}

func TestInviteService_Accept(t *testing.T) {
	setup := func(expiresAt time.Time) (*InviteService, *inviteRepoStub) {
		calendars := newCalendarRepoStub()
		calendars.addCalendar(persistence.Calendar{ID: "cal-1", Name: "Team"}, map[string]string{"user-1": "OWNER"})
		invites := newInviteRepoStub()
		invites.add(pendingInvite("cal-1", "invitee@example.com", expiresAt))
		return newInviteService(calendars, invites, &notifierStub{}), invites
	}

	principal := Principal{UserID: "user-9", Email: "invitee@example.com"}

	t.Run("requires authentication", func(t *testing.T) {
		svc, _ := setup(fixedNow().Add(time.Hour))
		if _, err := svc.Accept(context.Background(), Principal{}, "tok-1"); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})

	t.Run("grants the offered role to a matching principal", func(t *testing.T) {
		svc, invites := setup(fixedNow().Add(time.Hour))

		entry, err := svc.Accept(context.Background(), principal, "tok-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if entry.ID != "cal-1" || entry.Role != RoleEditor {
			t.Fatalf("expected cal-1 as EDITOR, got %s as %s", entry.ID, entry.Role)
		}
		if invites.acceptedToken != "tok-1" || invites.acceptedUser != "user-9" {
			t.Fatal("expected repository accept with token and user")
		}
	})

	t.Run("matches the invitee email case-insensitively", func(t *testing.T) {
		svc, _ := setup(fixedNow().Add(time.Hour))

		upper := Principal{UserID: "user-9", Email: "Invitee@Example.COM"}
		if _, err := svc.Accept(context.Background(), upper, "tok-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("rejects a mismatched email", func(t *testing.T) {
		svc, _ := setup(fixedNow().Add(time.Hour))

		other := Principal{UserID: "user-9", Email: "other@example.com"}
		if _, err := svc.Accept(context.Background(), other, "tok-1"); !errors.Is(err, ErrInviteEmailMismatch) {
			t.Fatalf("expected ErrInviteEmailMismatch, got %v", err)
		}
	})

	t.Run("rejects an expired invite", func(t *testing.T) {
		svc, _ := setup(fixedNow().Add(-time.Minute))

		if _, err := svc.Accept(context.Background(), principal, "tok-1"); !errors.Is(err, ErrInviteExpired) {
			t.Fatalf("expected ErrInviteExpired, got %v", err)
		}
	})

	t.Run("rejects a resolved invite", func(t *testing.T) {
		svc, invites := setup(fixedNow().Add(time.Hour))
		details := invites.byToken["tok-1"]
		details.Status = persistence.StatusDeclined
		invites.byToken["tok-1"] = details

		if _, err := svc.Accept(context.Background(), principal, "tok-1"); !errors.Is(err, ErrInviteNotPending) {
			t.Fatalf("expected ErrInviteNotPending, got %v", err)
		}
	})

	t.Run("treats a lost race as not pending", func(t *testing.T) {
		svc, invites := setup(fixedNow().Add(time.Hour))
		invites.acceptErr = persistence.ErrNotFound

		if _, err := svc.Accept(context.Background(), principal, "tok-1"); !errors.Is(err, ErrInviteNotPending) {
			t.Fatalf("expected ErrInviteNotPending, got %v", err)
		}
	})

	t.Run("returns not found for an unknown token", func(t *testing.T) {
		svc, _ := setup(fixedNow().Add(time.Hour))

		if _, err := svc.Accept(context.Background(), principal, "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestInviteService_Decline(t *testing.T) {
	calendars := newCalendarRepoStub()
	calendars.addCalendar(persistence.Calendar{ID: "cal-1"}, map[string]string{"user-1": "OWNER"})
	invites := newInviteRepoStub()
	invites.add(pendingInvite("cal-1", "invitee@example.com", fixedNow().Add(time.Hour)))
	svc := newInviteService(calendars, invites, &notifierStub{})

	principal := Principal{UserID: "user-9", Email: "invitee@example.com"}
	if err := svc.Decline(context.Background(), principal, "tok-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if invites.declinedToken != "tok-1" {
		t.Fatal("expected repository decline")
	}

	// Declining again hits the status guard.
	if err := svc.Decline(context.Background(), principal, "tok-1"); !errors.Is(err, ErrInviteNotPending) {
		t.Fatalf("expected ErrInviteNotPending, got %v", err)
	}
}

func TestInviteService_Revoke(t *testing.T) {
	setup := func() (*InviteService, *inviteRepoStub) {
		calendars := newCalendarRepoStub()
		calendars.addCalendar(persistence.Calendar{ID: "cal-1"}, map[string]string{"user-1": "OWNER", "user-2": "EDITOR"})
		invites := newInviteRepoStub()
		invites.add(pendingInvite("cal-1", "invitee@example.com", fixedNow().Add(time.Hour)))
		return newInviteService(calendars, invites, &notifierStub{}), invites
	}

	t.Run("rejects non-owners", func(t *testing.T) {
		svc, _ := setup()
		if err := svc.Revoke(context.Background(), Principal{UserID: "user-2"}, "cal-1", "invite-1"); !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("revokes a pending invite and is idempotent", func(t *testing.T) {
		svc, invites := setup()
		owner := Principal{UserID: "user-1"}

		if err := svc.Revoke(context.Background(), owner, "cal-1", "invite-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if invites.byID["invite-1"].Status != persistence.StatusRevoked {
			t.Fatal("expected invite revoked")
		}

		// A second revoke of the same invite is a no-op, not an error.
		if err := svc.Revoke(context.Background(), owner, "cal-1", "invite-1"); err != nil {
			t.Fatalf("expected idempotent revoke, got %v", err)
		}
	})

	t.Run("rejects an invite belonging to another calendar", func(t *testing.T) {
		svc, invites := setup()
		foreign := pendingInvite("cal-2", "x@example.com", fixedNow().Add(time.Hour))
		foreign.ID = "invite-2"
		foreign.Token = "tok-2"
		invites.add(foreign)

		if err := svc.Revoke(context.Background(), Principal{UserID: "user-1"}, "cal-1", "invite-2"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
