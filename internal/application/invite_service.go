package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/crewcal/internal/persistence"
)

// InviteNotifier delivers the invitation message to the invitee. Delivery
// failures never fail the issuing operation; they are logged and dropped.
type InviteNotifier interface {
	SendInvite(ctx context.Context, toEmail, calendarName, inviterEmail string, role Role, token string) error
}

// InviteService implements the invite lifecycle: issue, lookup, accept,
// decline, and revoke.
type InviteService struct {
	calendars      persistence.CalendarRepository
	invites        persistence.InviteRepository
	notifier       InviteNotifier
	idGenerator    func() string
	tokenGenerator func() string
	now            func() time.Time
	ttl            time.Duration
	logger         *slog.Logger
}

// NewInviteService wires an InviteService with its dependencies. ttl is how
// long an issued invite stays acceptable.
func NewInviteService(
	calendars persistence.CalendarRepository,
	invites persistence.InviteRepository,
	notifier InviteNotifier,
	idGenerator func() string,
	tokenGenerator func() string,
	now func() time.Time,
	ttl time.Duration,
	logger *slog.Logger,
) *InviteService {
	return &InviteService{
		calendars:      calendars,
		invites:        invites,
		notifier:       notifier,
		idGenerator:    idGenerator,
		tokenGenerator: tokenGenerator,
		now:            now,
		ttl:            ttl,
		logger:         defaultLogger(logger),
	}
}

// Issue creates a PENDING invite addressed to email and mails the invitee a
// link carrying the token. Owner only.
func (s *InviteService) Issue(ctx context.Context, principal Principal, calendarID, email string, role Role) (Invite, error) {
	logger := serviceLogger(ctx, s.logger, "invite", "issue")

	if _, err := requireRole(ctx, s.calendars, principal, calendarID, ActionIssueInvite); err != nil {
		return Invite{}, err
	}

	vErr := &ValidationError{}
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		vErr.add("email", "a valid email address is required")
	}
	if _, ok := ParseRole(string(role)); !ok {
		vErr.add("role", "role must be OWNER, EDITOR, or FREEBUSY")
	}
	if vErr.HasErrors() {
		return Invite{}, vErr
	}

	calendar, err := s.calendars.GetCalendar(ctx, calendarID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Invite{}, ErrNotFound
		}
		return Invite{}, fmt.Errorf("load calendar: %w", err)
	}

	now := s.now()
	invite := persistence.Invite{
		ID:           s.idGenerator(),
		CalendarID:   calendarID,
		InviteeEmail: email,
		Role:         string(role),
		Status:       persistence.StatusPending,
		Token:        s.tokenGenerator(),
		InvitedBy:    principal.UserID,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.ttl),
	}
	if err := s.invites.CreateInvite(ctx, invite); err != nil {
		return Invite{}, fmt.Errorf("create invite: %w", err)
	}

	logger.InfoContext(ctx, "invite issued",
		"calendar_id", calendarID, "invite_id", invite.ID, "role", invite.Role)

	if s.notifier != nil {
		if err := s.notifier.SendInvite(ctx, email, calendar.Name, principal.Email, role, invite.Token); err != nil {
			logger.WarnContext(ctx, "invite email not delivered",
				"invite_id", invite.ID, "error", err)
		}
	}
	return toInvite(invite), nil
}

// ListInvites returns the calendar's PENDING invites, newest first. Owner only.
func (s *InviteService) ListInvites(ctx context.Context, principal Principal, calendarID string) ([]Invite, error) {
	if _, err := requireRole(ctx, s.calendars, principal, calendarID, ActionListInvites); err != nil {
		return nil, err
	}

	invites, err := s.invites.ListPendingInvites(ctx, calendarID)
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}

	result := make([]Invite, 0, len(invites))
	for _, invite := range invites {
		result = append(result, toInvite(invite))
	}
	return result, nil
}

// Lookup resolves an invite by its token for the pre-acceptance preview. It
// requires no authentication; the token itself is the capability.
func (s *InviteService) Lookup(ctx context.Context, token string) (InviteDetails, error) {
	details, err := s.invites.GetInviteByToken(ctx, token)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return InviteDetails{}, ErrNotFound
		}
		return InviteDetails{}, fmt.Errorf("lookup invite: %w", err)
	}
	return InviteDetails{
		Invite:       toInvite(details.Invite),
		CalendarName: details.CalendarName,
		InviterEmail: details.InviterEmail,
	}, nil
}

// Accept turns the invite into a membership for the principal and marks it
// ACCEPTED. The principal's email must match the invitee email. If the
// principal is already a member, the invite's role replaces the current one.
func (s *InviteService) Accept(ctx context.Context, principal Principal, token string) (CalendarEntry, error) {
	logger := serviceLogger(ctx, s.logger, "invite", "accept")

	details, err := s.checkActionable(ctx, principal, token)
	if err != nil {
		return CalendarEntry{}, err
	}

	if err := s.invites.AcceptInvite(ctx, token, principal.UserID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			// Lost a race with a concurrent accept, decline, or revoke.
			return CalendarEntry{}, ErrInviteNotPending
		}
		return CalendarEntry{}, fmt.Errorf("accept invite: %w", err)
	}

	logger.InfoContext(ctx, "invite accepted",
		"calendar_id", details.CalendarID, "invite_id", details.ID, "user_id", principal.UserID)

	calendar, err := s.calendars.GetCalendar(ctx, details.CalendarID)
	if err != nil {
		return CalendarEntry{}, fmt.Errorf("load calendar: %w", err)
	}
	return CalendarEntry{Calendar: toCalendar(calendar), Role: Role(details.Role)}, nil
}

// Decline marks the invite DECLINED. Same guards as Accept.
func (s *InviteService) Decline(ctx context.Context, principal Principal, token string) error {
	logger := serviceLogger(ctx, s.logger, "invite", "decline")

	details, err := s.checkActionable(ctx, principal, token)
	if err != nil {
		return err
	}

	if err := s.invites.DeclineInvite(ctx, token); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrInviteNotPending
		}
		return fmt.Errorf("decline invite: %w", err)
	}

	logger.InfoContext(ctx, "invite declined",
		"calendar_id", details.CalendarID, "invite_id", details.ID)
	return nil
}

// Revoke withdraws a PENDING invite. Revoking an invite that already left the
// PENDING state is a no-op, so Revoke is safe to repeat. Owner only.
func (s *InviteService) Revoke(ctx context.Context, principal Principal, calendarID, inviteID string) error {
	logger := serviceLogger(ctx, s.logger, "invite", "revoke")

	if _, err := requireRole(ctx, s.calendars, principal, calendarID, ActionRevokeInvite); err != nil {
		return err
	}

	invite, err := s.invites.GetInvite(ctx, inviteID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("load invite: %w", err)
	}
	if invite.CalendarID != calendarID {
		return ErrNotFound
	}

	if err := s.invites.RevokeInvite(ctx, inviteID); err != nil {
		return fmt.Errorf("revoke invite: %w", err)
	}

	logger.InfoContext(ctx, "invite revoked", "calendar_id", calendarID, "invite_id", inviteID)
	return nil
}

// checkActionable loads the invite and verifies the principal may act on it:
// authenticated, invite still PENDING, not past expiry, and addressed to the
// principal's email (case-insensitive).
func (s *InviteService) checkActionable(ctx context.Context, principal Principal, token string) (persistence.InviteDetails, error) {
	if !principal.Authenticated() {
		return persistence.InviteDetails{}, ErrUnauthenticated
	}

	details, err := s.invites.GetInviteByToken(ctx, token)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.InviteDetails{}, ErrNotFound
		}
		return persistence.InviteDetails{}, fmt.Errorf("lookup invite: %w", err)
	}
	if details.Status != persistence.StatusPending {
		return persistence.InviteDetails{}, ErrInviteNotPending
	}
	if !s.now().Before(details.ExpiresAt) {
		return persistence.InviteDetails{}, ErrInviteExpired
	}
	if !strings.EqualFold(principal.Email, details.InviteeEmail) {
		return persistence.InviteDetails{}, ErrInviteEmailMismatch
	}
	return details, nil
}

func toInvite(invite persistence.Invite) Invite {
	return Invite{
		ID:           invite.ID,
		CalendarID:   invite.CalendarID,
		InviteeEmail: invite.InviteeEmail,
		Role:         Role(invite.Role),
		Status:       invite.Status,
		Token:        invite.Token,
		CreatedAt:    invite.CreatedAt,
		ExpiresAt:    invite.ExpiresAt,
	}
}
