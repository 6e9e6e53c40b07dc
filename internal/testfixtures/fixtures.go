package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/crewcal/internal/persistence"
)

var (
	userCounter     uint64
	calendarCounter uint64
	inviteCounter   uint64
	eventCounter    uint64
)

var referenceTime = time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// UserOption configures a generated user fixture.
type UserOption func(*persistence.User)

// WithEmail overrides the fixture email.
func WithEmail(email string) UserOption {
	return func(u *persistence.User) { u.Email = email }
}

// WithPasswordHash sets the stored password hash.
func WithPasswordHash(hash string) UserOption {
	return func(u *persistence.User) { u.PasswordHash = &hash }
}

// NewUser returns a deterministic user record with optional overrides.
func NewUser(opts ...UserOption) persistence.User {
	idx := atomic.AddUint64(&userCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	hash := fmt.Sprintf("hash-%03d", idx)
	user := persistence.User{
		ID:           fmt.Sprintf("user-%03d", idx),
		Email:        fmt.Sprintf("user%03d@example.com", idx),
		DisplayName:  fmt.Sprintf("User %03d", idx),
		Provider:     persistence.ProviderEmail,
		PasswordHash: &hash,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// CalendarOption configures a generated calendar fixture.
type CalendarOption func(*persistence.Calendar)

// WithCreator sets the calendar creator.
func WithCreator(userID string) CalendarOption {
	return func(c *persistence.Calendar) { c.CreatedBy = userID }
}

// NewCalendar returns a deterministic calendar record with optional overrides.
func NewCalendar(opts ...CalendarOption) persistence.Calendar {
	idx := atomic.AddUint64(&calendarCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	calendar := persistence.Calendar{
		ID:        fmt.Sprintf("cal-%03d", idx),
		Name:      fmt.Sprintf("Calendar %03d", idx),
		Color:     "#4f46e5",
		CreatedBy: fmt.Sprintf("user-%03d", idx),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&calendar)
	}
	return calendar
}

// InviteOption configures a generated invite fixture.
type InviteOption func(*persistence.Invite)

// ForCalendar sets the target calendar.
func ForCalendar(calendarID string) InviteOption {
	return func(i *persistence.Invite) { i.CalendarID = calendarID }
}

// ToEmail sets the invitee email.
func ToEmail(email string) InviteOption {
	return func(i *persistence.Invite) { i.InviteeEmail = email }
}

// WithRole sets the offered role.
func WithRole(role string) InviteOption {
	return func(i *persistence.Invite) { i.Role = role }
}

// ExpiringAt sets the expiry instant.
func ExpiringAt(t time.Time) InviteOption {
	return func(i *persistence.Invite) { i.ExpiresAt = t }
}

// NewInvite returns a deterministic PENDING invite with optional overrides.
func NewInvite(opts ...InviteOption) persistence.Invite {
	idx := atomic.AddUint64(&inviteCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	invite := persistence.Invite{
		ID:           fmt.Sprintf("invite-%03d", idx),
		CalendarID:   fmt.Sprintf("cal-%03d", idx),
		InviteeEmail: fmt.Sprintf("invitee%03d@example.com", idx),
		Role:         "EDITOR",
		Status:       persistence.StatusPending,
		Token:        fmt.Sprintf("token%032d", idx),
		InvitedBy:    fmt.Sprintf("user-%03d", idx),
		CreatedAt:    created,
		ExpiresAt:    created.Add(7 * 24 * time.Hour),
	}
	for _, opt := range opts {
		opt(&invite)
	}
	return invite
}

// EventOption configures a generated event fixture.
type EventOption func(*persistence.Event)

// OnCalendar sets the owning calendar.
func OnCalendar(calendarID string) EventOption {
	return func(e *persistence.Event) { e.CalendarID = calendarID }
}

// Between sets the event interval.
func Between(start, end time.Time) EventOption {
	return func(e *persistence.Event) {
		e.StartAt = start
		e.EndAt = end
	}
}

// CreatedBy sets the author fields.
func CreatedBy(userID string) EventOption {
	return func(e *persistence.Event) {
		e.CreatedBy = userID
		e.UpdatedBy = userID
	}
}

// NewEvent returns a deterministic one-hour event with optional overrides.
func NewEvent(opts ...EventOption) persistence.Event {
	idx := atomic.AddUint64(&eventCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	start := referenceTime.Add(time.Duration(idx) * time.Hour)
	event := persistence.Event{
		ID:         fmt.Sprintf("event-%03d", idx),
		CalendarID: fmt.Sprintf("cal-%03d", idx),
		Title:      fmt.Sprintf("Event %03d", idx),
		StartAt:    start,
		EndAt:      start.Add(time.Hour),
		CreatedBy:  fmt.Sprintf("user-%03d", idx),
		UpdatedBy:  fmt.Sprintf("user-%03d", idx),
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	for _, opt := range opts {
		opt(&event)
	}
	return event
}
