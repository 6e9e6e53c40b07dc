package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/crewcal/internal/persistence"
)

// EventService implements event CRUD with role-aware disclosure.
type EventService struct {
	calendars   persistence.CalendarRepository
	events      persistence.EventRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewEventService wires an EventService with its dependencies.
func NewEventService(calendars persistence.CalendarRepository, events persistence.EventRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *EventService {
	return &EventService{
		calendars:   calendars,
		events:      events,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// List returns the events on the requested calendars overlapping [from, to),
// redacted per the principal's role on each calendar. Calendars the principal
// is not a member of are skipped without error. The merged result is ordered
// by start time.
func (s *EventService) List(ctx context.Context, principal Principal, calendarIDs []string, from, to time.Time) ([]EventView, error) {
	if !principal.Authenticated() {
		return nil, ErrUnauthenticated
	}
	if !from.Before(to) {
		vErr := &ValidationError{}
		vErr.add("from", "from must be before to")
		return nil, vErr
	}

	views := make([]EventView, 0)
	for _, calendarID := range calendarIDs {
		stored, err := s.calendars.RoleOf(ctx, calendarID, principal.UserID)
		if err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("resolve role: %w", err)
		}
		role := Role(stored)

		rendered, err := s.listForCalendar(ctx, calendarID, role, from, to)
		if err != nil {
			return nil, err
		}
		views = append(views, rendered...)
	}

	sort.Slice(views, func(i, j int) bool {
		if !views[i].StartAt.Equal(views[j].StartAt) {
			return views[i].StartAt.Before(views[j].StartAt)
		}
		return views[i].ID < views[j].ID
	})
	return views, nil
}

// CalendarEvents returns one calendar plus its events overlapping [from, to),
// redacted per the principal's role. Unlike List, a non-member gets
// ErrForbidden; this feeds the single-calendar export.
func (s *EventService) CalendarEvents(ctx context.Context, principal Principal, calendarID string, from, to time.Time) (Calendar, []EventView, error) {
	role, err := requireRole(ctx, s.calendars, principal, calendarID, ActionListEvents)
	if err != nil {
		return Calendar{}, nil, err
	}

	calendar, err := s.calendars.GetCalendar(ctx, calendarID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Calendar{}, nil, ErrNotFound
		}
		return Calendar{}, nil, fmt.Errorf("load calendar: %w", err)
	}

	views, err := s.listForCalendar(ctx, calendarID, role, from, to)
	if err != nil {
		return Calendar{}, nil, err
	}
	return toCalendar(calendar), views, nil
}

// Create adds an event to a calendar the principal can write to.
func (s *EventService) Create(ctx context.Context, principal Principal, input EventInput) (EventView, error) {
	logger := serviceLogger(ctx, s.logger, "event", "create")

	role, err := requireRole(ctx, s.calendars, principal, input.CalendarID, ActionWriteEvent)
	if err != nil {
		return EventView{}, err
	}

	vErr := &ValidationError{}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		vErr.add("title", "title is required")
	}
	if !input.EndAt.After(input.StartAt) {
		vErr.add("endAt", "end must be after start")
	}
	if input.ReminderMinutesBefore != nil && *input.ReminderMinutesBefore < 0 {
		vErr.add("reminderMinutesBefore", "reminder must not be negative")
	}
	if vErr.HasErrors() {
		return EventView{}, vErr
	}

	now := s.now()
	event := persistence.Event{
		ID:         s.idGenerator(),
		CalendarID: input.CalendarID,
		Title:      title,
		StartAt:    input.StartAt,
		EndAt:      input.EndAt,
		AllDay:     input.AllDay,
		Note:       input.Note,
		CreatedBy:  principal.UserID,
		UpdatedBy:  principal.UserID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.events.CreateEvent(ctx, event, input.ReminderMinutesBefore); err != nil {
		return EventView{}, fmt.Errorf("create event: %w", err)
	}

	logger.InfoContext(ctx, "event created",
		"calendar_id", event.CalendarID, "event_id", event.ID, "user_id", principal.UserID)
	return renderEvent(role, event, input.ReminderMinutesBefore), nil
}

// Update applies a partial update to an event. Nil patch fields keep the
// current value, except the reminder, which is replaced by the patch as given.
func (s *EventService) Update(ctx context.Context, principal Principal, eventID string, patch EventPatch) (EventView, error) {
	logger := serviceLogger(ctx, s.logger, "event", "update")

	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return EventView{}, ErrNotFound
		}
		return EventView{}, fmt.Errorf("load event: %w", err)
	}

	role, err := requireRole(ctx, s.calendars, principal, event.CalendarID, ActionWriteEvent)
	if err != nil {
		return EventView{}, err
	}

	if patch.Title != nil {
		event.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.StartAt != nil {
		event.StartAt = *patch.StartAt
	}
	if patch.EndAt != nil {
		event.EndAt = *patch.EndAt
	}
	if patch.AllDay != nil {
		event.AllDay = *patch.AllDay
	}
	if patch.Note != nil {
		event.Note = patch.Note
	}

	vErr := &ValidationError{}
	if event.Title == "" {
		vErr.add("title", "title is required")
	}
	if !event.EndAt.After(event.StartAt) {
		vErr.add("endAt", "end must be after start")
	}
	if patch.ReminderMinutesBefore != nil && *patch.ReminderMinutesBefore < 0 {
		vErr.add("reminderMinutesBefore", "reminder must not be negative")
	}
	if vErr.HasErrors() {
		return EventView{}, vErr
	}

	event.UpdatedBy = principal.UserID
	event.UpdatedAt = s.now()
	if err := s.events.UpdateEvent(ctx, event, patch.ReminderMinutesBefore); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return EventView{}, ErrNotFound
		}
		return EventView{}, fmt.Errorf("update event: %w", err)
	}

	logger.InfoContext(ctx, "event updated",
		"calendar_id", event.CalendarID, "event_id", event.ID, "user_id", principal.UserID)
	return renderEvent(role, event, patch.ReminderMinutesBefore), nil
}

// Delete soft-deletes an event and drops its reminder.
func (s *EventService) Delete(ctx context.Context, principal Principal, eventID string) error {
	logger := serviceLogger(ctx, s.logger, "event", "delete")

	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("load event: %w", err)
	}
	if _, err := requireRole(ctx, s.calendars, principal, event.CalendarID, ActionWriteEvent); err != nil {
		return err
	}

	if err := s.events.SoftDeleteEvent(ctx, eventID, principal.UserID, s.now()); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}

	logger.InfoContext(ctx, "event deleted",
		"calendar_id", event.CalendarID, "event_id", eventID, "user_id", principal.UserID)
	return nil
}

func (s *EventService) listForCalendar(ctx context.Context, calendarID string, role Role, from, to time.Time) ([]EventView, error) {
	events, err := s.events.ListEvents(ctx, calendarID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	views := make([]EventView, 0, len(events))
	for _, event := range events {
		var reminder *int
		if role != RoleFreeBusy {
			reminder, err = s.events.GetReminderMinutes(ctx, event.ID)
			if err != nil {
				return nil, fmt.Errorf("load reminder: %w", err)
			}
		}
		views = append(views, renderEvent(role, event, reminder))
	}
	return views, nil
}
