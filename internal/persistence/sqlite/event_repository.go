package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/crewcal/internal/persistence"
)

// EventRepository implements persistence.EventRepository using SQLite.
type EventRepository struct {
	pool *ConnectionPool
}

// NewEventRepository creates a new SQLite event repository.
func NewEventRepository(pool *ConnectionPool) *EventRepository {
	return &EventRepository{pool: pool}
}

const eventColumns = "id, calendar_id, title, start_at, end_at, all_day, note, created_by, updated_by, created_at, updated_at, deleted_at"

// CreateEvent inserts the event and, when reminderMinutes is non-nil, its
// reminder in a single transaction.
func (r *EventRepository) CreateEvent(ctx context.Context, event persistence.Event, reminderMinutes *int) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			`INSERT INTO events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			event.ID,
			event.CalendarID,
			event.Title,
			encodeTime(event.StartAt),
			encodeTime(event.EndAt),
			boolToInt(event.AllDay),
			nullableString(event.Note),
			event.CreatedBy,
			event.UpdatedBy,
			encodeTime(event.CreatedAt),
			encodeTime(event.UpdatedAt),
			encodeNullableTime(event.DeletedAt),
		); err != nil {
			return mapError(err)
		}
		return upsertReminder(tx, event.ID, reminderMinutes)
	})
}

// GetEvent retrieves a live event by id; soft-deleted events are not found.
func (r *EventRepository) GetEvent(ctx context.Context, id string) (persistence.Event, error) {
	row := r.pool.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ? AND deleted_at IS NULL`, id)
	return scanEvent(row)
}

// UpdateEvent rewrites the event row and replaces its reminder; a nil
// reminderMinutes removes any existing reminder.
func (r *EventRepository) UpdateEvent(ctx context.Context, event persistence.Event, reminderMinutes *int) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(
			`UPDATE events SET title = ?, start_at = ?, end_at = ?, all_day = ?, note = ?, updated_by = ?, updated_at = ?
			WHERE id = ? AND deleted_at IS NULL`,
			event.Title,
			encodeTime(event.StartAt),
			encodeTime(event.EndAt),
			boolToInt(event.AllDay),
			nullableString(event.Note),
			event.UpdatedBy,
			encodeTime(event.UpdatedAt),
			event.ID,
		)
		if err != nil {
			return mapError(err)
		}
		if err := requireRowAffected(result); err != nil {
			return err
		}
		return upsertReminder(tx, event.ID, reminderMinutes)
	})
}

// SoftDeleteEvent marks the event deleted and removes its reminder. The row is
// kept; it just becomes invisible to reads.
func (r *EventRepository) SoftDeleteEvent(ctx context.Context, id, userID string, now time.Time) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(
			`UPDATE events SET deleted_at = ?, updated_by = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
			encodeTime(now), userID, encodeTime(now), id,
		)
		if err != nil {
			return mapError(err)
		}
		if err := requireRowAffected(result); err != nil {
			return err
		}
		return upsertReminder(tx, id, nil)
	})
}

// ListEvents returns live events on the calendar overlapping the half-open
// window [from, to), ordered by start time ascending. Overlap uses open
// interval semantics: start < to AND end > from.
func (r *EventRepository) ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]persistence.Event, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events
		WHERE calendar_id = ? AND deleted_at IS NULL AND start_at < ? AND end_at > ?
		ORDER BY start_at ASC, id ASC`,
		calendarID, encodeTime(to), encodeTime(from),
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var events []persistence.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// GetReminderMinutes returns the event's reminder offset, or nil when no
// reminder is set.
func (r *EventRepository) GetReminderMinutes(ctx context.Context, eventID string) (*int, error) {
	var minutes int
	err := r.pool.db.QueryRowContext(ctx,
		`SELECT minutes_before FROM event_reminders WHERE event_id = ?`, eventID,
	).Scan(&minutes)
	if err != nil {
		if errors.Is(mapError(err), persistence.ErrNotFound) {
			return nil, nil
		}
		return nil, mapError(err)
	}
	return &minutes, nil
}

func upsertReminder(tx *sql.Tx, eventID string, minutes *int) error {
	if minutes == nil {
		_, err := tx.Exec(`DELETE FROM event_reminders WHERE event_id = ?`, eventID)
		return mapError(err)
	}
	_, err := tx.Exec(`
		INSERT INTO event_reminders (event_id, minutes_before) VALUES (?, ?)
		ON CONFLICT (event_id) DO UPDATE SET minutes_before = excluded.minutes_before`,
		eventID, *minutes,
	)
	return mapError(err)
}

func scanEvent(row rowScanner) (persistence.Event, error) {
	var (
		event                persistence.Event
		allDay               int
		note, deletedAt      sql.NullString
		startAt, endAt       string
		createdAt, updatedAt string
	)
	err := row.Scan(
		&event.ID, &event.CalendarID, &event.Title, &startAt, &endAt, &allDay, &note,
		&event.CreatedBy, &event.UpdatedBy, &createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		return persistence.Event{}, mapError(err)
	}
	event.AllDay = allDay != 0
	event.Note = stringPtr(note)

	if event.StartAt, err = decodeTime(startAt); err != nil {
		return persistence.Event{}, err
	}
	if event.EndAt, err = decodeTime(endAt); err != nil {
		return persistence.Event{}, err
	}
	if event.CreatedAt, err = decodeTime(createdAt); err != nil {
		return persistence.Event{}, err
	}
	if event.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return persistence.Event{}, err
	}
	if deletedAt.Valid {
		ts, err := decodeTime(deletedAt.String)
		if err != nil {
			return persistence.Event{}, err
		}
		event.DeletedAt = &ts
	}
	return event, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
