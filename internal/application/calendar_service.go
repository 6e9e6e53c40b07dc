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

// DefaultCalendarColor is applied when a calendar is created without a color.
const DefaultCalendarColor = "#4f46e5"

// CalendarService implements calendar CRUD and membership administration.
type CalendarService struct {
	calendars   persistence.CalendarRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewCalendarService wires a CalendarService with its dependencies.
func NewCalendarService(calendars persistence.CalendarRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *CalendarService {
	return &CalendarService{
		calendars:   calendars,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// ListCalendars returns every calendar the principal is a member of, with the
// role held on each.
func (s *CalendarService) ListCalendars(ctx context.Context, principal Principal) ([]CalendarEntry, error) {
	if !principal.Authenticated() {
		return nil, ErrUnauthenticated
	}

	entries, err := s.calendars.ListCalendarsForUser(ctx, principal.UserID)
	if err != nil {
		return nil, fmt.Errorf("list calendars: %w", err)
	}

	result := make([]CalendarEntry, 0, len(entries))
	for _, entry := range entries {
		result = append(result, CalendarEntry{
			Calendar: toCalendar(entry.Calendar),
			Role:     Role(entry.Role),
		})
	}
	return result, nil
}

// CreateCalendar creates a calendar owned by the principal.
func (s *CalendarService) CreateCalendar(ctx context.Context, principal Principal, input CalendarInput) (CalendarEntry, error) {
	logger := serviceLogger(ctx, s.logger, "calendar", "create")

	if !principal.Authenticated() {
		return CalendarEntry{}, ErrUnauthenticated
	}

	vErr := &ValidationError{}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		vErr.add("name", "name is required")
	}
	color := strings.TrimSpace(input.Color)
	if color == "" {
		color = DefaultCalendarColor
	}
	if vErr.HasErrors() {
		return CalendarEntry{}, vErr
	}

	now := s.now()
	calendar := persistence.Calendar{
		ID:        s.idGenerator(),
		Name:      name,
		Color:     color,
		CreatedBy: principal.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.calendars.CreateCalendar(ctx, calendar); err != nil {
		return CalendarEntry{}, fmt.Errorf("create calendar: %w", err)
	}

	logger.InfoContext(ctx, "calendar created", "calendar_id", calendar.ID, "user_id", principal.UserID)
	return CalendarEntry{Calendar: toCalendar(calendar), Role: RoleOwner}, nil
}

// UpdateCalendar applies a partial update. Only owners may rename or recolor.
func (s *CalendarService) UpdateCalendar(ctx context.Context, principal Principal, calendarID string, patch CalendarPatch) (Calendar, error) {
	if _, err := requireRole(ctx, s.calendars, principal, calendarID, ActionUpdateCalendar); err != nil {
		return Calendar{}, err
	}

	calendar, err := s.calendars.GetCalendar(ctx, calendarID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Calendar{}, ErrNotFound
		}
		return Calendar{}, fmt.Errorf("load calendar: %w", err)
	}

	vErr := &ValidationError{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			vErr.add("name", "name is required")
		}
		calendar.Name = name
	}
	if patch.Color != nil {
		color := strings.TrimSpace(*patch.Color)
		if color == "" {
			vErr.add("color", "color must not be blank")
		}
		calendar.Color = color
	}
	if vErr.HasErrors() {
		return Calendar{}, vErr
	}

	calendar.UpdatedAt = s.now()
	if err := s.calendars.UpdateCalendar(ctx, calendar); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Calendar{}, ErrNotFound
		}
		return Calendar{}, fmt.Errorf("update calendar: %w", err)
	}
	return toCalendar(calendar), nil
}

// DeleteCalendar removes the calendar and, through cascade, its memberships,
// invites, and events. Owner only.
func (s *CalendarService) DeleteCalendar(ctx context.Context, principal Principal, calendarID string) error {
	logger := serviceLogger(ctx, s.logger, "calendar", "delete")

	if _, err := requireRole(ctx, s.calendars, principal, calendarID, ActionDeleteCalendar); err != nil {
		return err
	}
	if err := s.calendars.DeleteCalendar(ctx, calendarID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete calendar: %w", err)
	}

	logger.InfoContext(ctx, "calendar deleted", "calendar_id", calendarID, "user_id", principal.UserID)
	return nil
}

// ListMembers returns the calendar's membership ordered by role then email.
// Owner only.
func (s *CalendarService) ListMembers(ctx context.Context, principal Principal, calendarID string) ([]Member, error) {
	if _, err := requireRole(ctx, s.calendars, principal, calendarID, ActionListMembers); err != nil {
		return nil, err
	}

	members, err := s.calendars.ListMembers(ctx, calendarID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	result := make([]Member, 0, len(members))
	for _, member := range members {
		result = append(result, Member{
			UserID:      member.UserID,
			Email:       member.Email,
			DisplayName: member.DisplayName,
			Role:        Role(member.Role),
		})
	}
	return result, nil
}

// ChangeRole assigns a new role to an existing member. Demoting the last
// remaining OWNER is rejected with ErrLastOwner.
func (s *CalendarService) ChangeRole(ctx context.Context, principal Principal, calendarID, userID string, newRole Role) error {
	logger := serviceLogger(ctx, s.logger, "calendar", "change_role")

	if _, err := requireRole(ctx, s.calendars, principal, calendarID, ActionChangeRole); err != nil {
		return err
	}
	if _, ok := ParseRole(string(newRole)); !ok {
		vErr := &ValidationError{}
		vErr.add("role", "role must be OWNER, EDITOR, or FREEBUSY")
		return vErr
	}

	current, err := s.calendars.RoleOf(ctx, calendarID, userID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("resolve member role: %w", err)
	}
	if Role(current) == newRole {
		return nil
	}
	if Role(current) == RoleOwner {
		if err := s.ensureNotLastOwner(ctx, calendarID); err != nil {
			return err
		}
	}

	if err := s.calendars.SetMemberRole(ctx, calendarID, userID, string(newRole)); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("set member role: %w", err)
	}

	logger.InfoContext(ctx, "member role changed",
		"calendar_id", calendarID, "target_user_id", userID, "role", string(newRole))
	return nil
}

// RemoveMember removes a member from the calendar. Removing the last remaining
// OWNER is rejected with ErrLastOwner.
func (s *CalendarService) RemoveMember(ctx context.Context, principal Principal, calendarID, userID string) error {
	logger := serviceLogger(ctx, s.logger, "calendar", "remove_member")

	if _, err := requireRole(ctx, s.calendars, principal, calendarID, ActionRemoveMember); err != nil {
		return err
	}

	current, err := s.calendars.RoleOf(ctx, calendarID, userID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("resolve member role: %w", err)
	}
	if Role(current) == RoleOwner {
		if err := s.ensureNotLastOwner(ctx, calendarID); err != nil {
			return err
		}
	}

	if err := s.calendars.RemoveMember(ctx, calendarID, userID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("remove member: %w", err)
	}

	logger.InfoContext(ctx, "member removed", "calendar_id", calendarID, "target_user_id", userID)
	return nil
}

func (s *CalendarService) ensureNotLastOwner(ctx context.Context, calendarID string) error {
	owners, err := s.calendars.CountMembersWithRole(ctx, calendarID, string(RoleOwner))
	if err != nil {
		return fmt.Errorf("count owners: %w", err)
	}
	if owners <= 1 {
		return ErrLastOwner
	}
	return nil
}

func toCalendar(calendar persistence.Calendar) Calendar {
	return Calendar{
		ID:        calendar.ID,
		Name:      calendar.Name,
		Color:     calendar.Color,
		CreatedBy: calendar.CreatedBy,
		CreatedAt: calendar.CreatedAt,
		UpdatedAt: calendar.UpdatedAt,
	}
}
