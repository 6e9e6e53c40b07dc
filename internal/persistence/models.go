package persistence

import "time"

// Provider values distinguish how a user authenticates. Switching a user to
// ProviderGoogle nulls the password hash and is not reversed by this layer.
const (
	ProviderEmail  = "EMAIL"
	ProviderGoogle = "GOOGLE"
)

// Invite status values. StatusPending is the only non-terminal state.
const (
	StatusPending  = "PENDING"
	StatusAccepted = "ACCEPTED"
	StatusDeclined = "DECLINED"
	StatusRevoked  = "REVOKED"
)

// User is an account identified by a unique email address.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	Provider     string
	ProviderID   *string
	PasswordHash *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Calendar is a named, colored container of events with exactly one creator.
type Calendar struct {
	ID        string
	Name      string
	Color     string
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CalendarEntry pairs a calendar with the role the querying user holds on it.
type CalendarEntry struct {
	Calendar
	Role string
}

// Membership relates a user to a calendar under a single role. The
// (CalendarID, UserID) pair is unique.
type Membership struct {
	CalendarID string
	UserID     string
	Role       string
}

// Member is a membership row joined with the member's user record.
type Member struct {
	UserID      string
	Email       string
	DisplayName string
	Role        string
}

// Invite is a token-addressed offer of a role on a calendar. Everything but
// Status is immutable once issued.
type Invite struct {
	ID           string
	CalendarID   string
	InviteeEmail string
	Role         string
	Status       string
	Token        string
	InvitedBy    string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// InviteDetails is an invite joined with its calendar name and inviter email,
// as disclosed by the public token lookup.
type InviteDetails struct {
	Invite
	CalendarName string
	InviterEmail string
}

// Event belongs to exactly one calendar and covers the half-open interval
// [StartAt, EndAt). Deleted events keep their row with DeletedAt set.
type Event struct {
	ID         string
	CalendarID string
	Title      string
	StartAt    time.Time
	EndAt      time.Time
	AllDay     bool
	Note       *string
	CreatedBy  string
	UpdatedBy  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  *time.Time
}
