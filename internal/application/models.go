package application

import "time"

// Principal is the authenticated identity attached to an incoming request.
// The zero value means "unauthenticated".
type Principal struct {
	UserID string
	Email  string
}

// Authenticated reports whether the principal carries a resolved identity.
func (p Principal) Authenticated() bool {
	return p.UserID != ""
}

// User is an account as exposed by the application services.
type User struct {
	ID          string
	Email       string
	DisplayName string
	Provider    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Calendar is a named, colored container of events.
type Calendar struct {
	ID        string
	Name      string
	Color     string
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CalendarEntry pairs a calendar with the caller's role on it.
type CalendarEntry struct {
	Calendar
	Role Role
}

// Member is one row of a calendar's membership listing.
type Member struct {
	UserID      string
	Email       string
	DisplayName string
	Role        Role
}

// Invite is a role offer addressed to an email, identified by its token.
type Invite struct {
	ID           string
	CalendarID   string
	InviteeEmail string
	Role         Role
	Status       string
	Token        string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// InviteDetails is the public preview of an invite returned by token lookup.
type InviteDetails struct {
	Invite
	CalendarName string
	InviterEmail string
}

// EventView is an event as disclosed to a particular caller. For FREEBUSY
// members the title reads "Busy" and Note and ReminderMinutesBefore are absent.
type EventView struct {
	ID                    string
	CalendarID            string
	Title                 string
	StartAt               time.Time
	EndAt                 time.Time
	AllDay                bool
	Note                  *string
	ReminderMinutesBefore *int
}

// SignupParams captures the data required to create an email/password account.
type SignupParams struct {
	Email       string
	Password    string
	DisplayName string
}

// LoginParams captures the data required for a password login.
type LoginParams struct {
	Email    string
	Password string
}

// AuthResult is the outcome of a successful signup, login, or account link.
type AuthResult struct {
	Token  string
	UserID string
	Email  string
}

// CalendarInput captures caller provided calendar fields.
type CalendarInput struct {
	Name  string
	Color string
}

// CalendarPatch carries partial calendar updates; nil fields keep the current
// value.
type CalendarPatch struct {
	Name  *string
	Color *string
}

// EventInput captures caller provided event fields on creation.
type EventInput struct {
	CalendarID            string
	Title                 string
	StartAt               time.Time
	EndAt                 time.Time
	AllDay                bool
	Note                  *string
	ReminderMinutesBefore *int
}

// EventPatch carries partial event updates; nil fields keep the current value.
// ReminderMinutesBefore is applied unconditionally: nil removes the reminder.
type EventPatch struct {
	Title                 *string
	StartAt               *time.Time
	EndAt                 *time.Time
	AllDay                *bool
	Note                  *string
	ReminderMinutesBefore *int
}
