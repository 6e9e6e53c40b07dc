package persistence

import (
	"context"
	"time"
)

// UserRepository exposes account lookup and creation for the auth flows.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	// UpsertGoogleUser links a federated login to an account. An existing row
	// (matched by email) is switched to the GOOGLE provider and its password
	// hash nulled; otherwise a new GOOGLE user is created with the given id.
	UpsertGoogleUser(ctx context.Context, id, email, displayName, providerID string, now time.Time) (User, error)
}

// CalendarRepository stores calendars and their membership sets. Calendar
// deletion cascades to memberships, invites, and events.
type CalendarRepository interface {
	// CreateCalendar inserts the calendar and its creator's OWNER membership
	// as one atomic unit.
	CreateCalendar(ctx context.Context, calendar Calendar) error
	GetCalendar(ctx context.Context, id string) (Calendar, error)
	ListCalendarsForUser(ctx context.Context, userID string) ([]CalendarEntry, error)
	UpdateCalendar(ctx context.Context, calendar Calendar) error
	DeleteCalendar(ctx context.Context, id string) error

	// RoleOf returns the role the user holds on the calendar, or ErrNotFound
	// when the user is not a member.
	RoleOf(ctx context.Context, calendarID, userID string) (string, error)
	ListMembers(ctx context.Context, calendarID string) ([]Member, error)
	SetMemberRole(ctx context.Context, calendarID, userID, role string) error
	RemoveMember(ctx context.Context, calendarID, userID string) error
	CountMembersWithRole(ctx context.Context, calendarID, role string) (int, error)
}

// InviteRepository stores invites and drives their status transitions.
type InviteRepository interface {
	CreateInvite(ctx context.Context, invite Invite) error
	GetInvite(ctx context.Context, id string) (Invite, error)
	GetInviteByToken(ctx context.Context, token string) (InviteDetails, error)
	ListPendingInvites(ctx context.Context, calendarID string) ([]Invite, error)

	// AcceptInvite upserts the invitee's membership with the invite's role and
	// flips the invite to ACCEPTED, in a single transaction. Returns
	// ErrNotFound when no PENDING invite matches the token.
	AcceptInvite(ctx context.Context, token, userID string) error
	// DeclineInvite flips a PENDING invite to DECLINED. Returns ErrNotFound
	// when no PENDING invite matches the token.
	DeclineInvite(ctx context.Context, token string) error
	// RevokeInvite flips the invite to REVOKED if it is still PENDING and is
	// a no-op otherwise.
	RevokeInvite(ctx context.Context, id string) error
}

// EventRepository stores events and their optional reminders.
type EventRepository interface {
	// CreateEvent inserts the event and, when reminderMinutes is non-nil, its
	// reminder, as one atomic unit.
	CreateEvent(ctx context.Context, event Event, reminderMinutes *int) error
	// GetEvent returns a live (not soft-deleted) event.
	GetEvent(ctx context.Context, id string) (Event, error)
	// UpdateEvent rewrites the event row and replaces its reminder; a nil
	// reminderMinutes removes any existing reminder.
	UpdateEvent(ctx context.Context, event Event, reminderMinutes *int) error
	// SoftDeleteEvent marks the event deleted and removes its reminder.
	SoftDeleteEvent(ctx context.Context, id, userID string, now time.Time) error
	// ListEvents returns live events on the calendar overlapping the half-open
	// window [from, to), ordered by start time ascending.
	ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]Event, error)
	GetReminderMinutes(ctx context.Context, eventID string) (*int, error)
}
