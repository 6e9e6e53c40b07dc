package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/crewcal/internal/persistence"
)

// CalendarRepository implements persistence.CalendarRepository using SQLite.
type CalendarRepository struct {
	pool *ConnectionPool
}

// NewCalendarRepository creates a new SQLite calendar repository.
func NewCalendarRepository(pool *ConnectionPool) *CalendarRepository {
	return &CalendarRepository{pool: pool}
}

// CreateCalendar inserts the calendar and its creator's OWNER membership in a
// single transaction.
func (r *CalendarRepository) CreateCalendar(ctx context.Context, calendar persistence.Calendar) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			`INSERT INTO calendars (id, name, color, created_by, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			calendar.ID,
			calendar.Name,
			calendar.Color,
			calendar.CreatedBy,
			encodeTime(calendar.CreatedAt),
			encodeTime(calendar.UpdatedAt),
		); err != nil {
			return mapError(err)
		}
		if _, err := tx.Exec(
			`INSERT INTO calendar_members (calendar_id, user_id, role) VALUES (?, ?, 'OWNER')`,
			calendar.ID,
			calendar.CreatedBy,
		); err != nil {
			return mapError(err)
		}
		return nil
	})
}

// GetCalendar retrieves a calendar by id.
func (r *CalendarRepository) GetCalendar(ctx context.Context, id string) (persistence.Calendar, error) {
	row := r.pool.db.QueryRowContext(ctx,
		`SELECT id, name, color, created_by, created_at, updated_at FROM calendars WHERE id = ?`, id)
	return scanCalendar(row)
}

// ListCalendarsForUser returns the calendars the user is a member of together
// with the user's role on each, ordered by creation time.
func (r *CalendarRepository) ListCalendarsForUser(ctx context.Context, userID string) ([]persistence.CalendarEntry, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.color, c.created_by, c.created_at, c.updated_at, cm.role
		FROM calendars c
		JOIN calendar_members cm ON cm.calendar_id = c.id
		WHERE cm.user_id = ?
		ORDER BY c.created_at ASC, c.id ASC`,
		userID,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var entries []persistence.CalendarEntry
	for rows.Next() {
		var (
			entry                persistence.CalendarEntry
			createdAt, updatedAt string
		)
		if err := rows.Scan(&entry.ID, &entry.Name, &entry.Color, &entry.CreatedBy, &createdAt, &updatedAt, &entry.Role); err != nil {
			return nil, mapError(err)
		}
		if entry.CreatedAt, err = decodeTime(createdAt); err != nil {
			return nil, err
		}
		if entry.UpdatedAt, err = decodeTime(updatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// UpdateCalendar rewrites the calendar's mutable fields.
func (r *CalendarRepository) UpdateCalendar(ctx context.Context, calendar persistence.Calendar) error {
	result, err := r.pool.db.ExecContext(ctx,
		`UPDATE calendars SET name = ?, color = ?, updated_at = ? WHERE id = ?`,
		calendar.Name,
		calendar.Color,
		encodeTime(calendar.UpdatedAt),
		calendar.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// DeleteCalendar removes the calendar; memberships, invites, events, and
// reminders go with it via foreign key cascades.
func (r *CalendarRepository) DeleteCalendar(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM calendars WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// RoleOf returns the user's role on the calendar, or persistence.ErrNotFound
// when the user is not a member.
func (r *CalendarRepository) RoleOf(ctx context.Context, calendarID, userID string) (string, error) {
	var role string
	err := r.pool.db.QueryRowContext(ctx,
		`SELECT role FROM calendar_members WHERE calendar_id = ? AND user_id = ?`,
		calendarID, userID,
	).Scan(&role)
	if err != nil {
		return "", mapError(err)
	}
	return role, nil
}

// ListMembers returns the calendar's memberships joined with user details,
// ordered by role then email.
func (r *CalendarRepository) ListMembers(ctx context.Context, calendarID string) ([]persistence.Member, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT cm.user_id, u.email, u.display_name, cm.role
		FROM calendar_members cm
		JOIN users u ON u.id = cm.user_id
		WHERE cm.calendar_id = ?
		ORDER BY cm.role ASC, u.email ASC`,
		calendarID,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var members []persistence.Member
	for rows.Next() {
		var member persistence.Member
		if err := rows.Scan(&member.UserID, &member.Email, &member.DisplayName, &member.Role); err != nil {
			return nil, mapError(err)
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

// SetMemberRole overwrites the member's role on the calendar.
func (r *CalendarRepository) SetMemberRole(ctx context.Context, calendarID, userID, role string) error {
	result, err := r.pool.db.ExecContext(ctx,
		`UPDATE calendar_members SET role = ? WHERE calendar_id = ? AND user_id = ?`,
		role, calendarID, userID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// RemoveMember deletes the (calendar, user) membership row.
func (r *CalendarRepository) RemoveMember(ctx context.Context, calendarID, userID string) error {
	result, err := r.pool.db.ExecContext(ctx,
		`DELETE FROM calendar_members WHERE calendar_id = ? AND user_id = ?`,
		calendarID, userID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// CountMembersWithRole counts members holding the given role on the calendar.
func (r *CalendarRepository) CountMembersWithRole(ctx context.Context, calendarID, role string) (int, error) {
	var count int
	err := r.pool.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM calendar_members WHERE calendar_id = ? AND role = ?`,
		calendarID, role,
	).Scan(&count)
	if err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

func scanCalendar(row rowScanner) (persistence.Calendar, error) {
	var (
		calendar             persistence.Calendar
		createdAt, updatedAt string
	)
	if err := row.Scan(&calendar.ID, &calendar.Name, &calendar.Color, &calendar.CreatedBy, &createdAt, &updatedAt); err != nil {
		return persistence.Calendar{}, mapError(err)
	}
	var err error
	if calendar.CreatedAt, err = decodeTime(createdAt); err != nil {
		return persistence.Calendar{}, err
	}
	if calendar.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return persistence.Calendar{}, err
	}
	return calendar, nil
}

func requireRowAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
