package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/crewcal/internal/persistence"
)

// InviteRepository implements persistence.InviteRepository using SQLite.
type InviteRepository struct {
	pool *ConnectionPool
}

// NewInviteRepository creates a new SQLite invite repository.
func NewInviteRepository(pool *ConnectionPool) *InviteRepository {
	return &InviteRepository{pool: pool}
}

const inviteColumns = "id, calendar_id, invitee_email, role, status, token, invited_by, created_at, expires_at"

// CreateInvite inserts a new invite row.
func (r *InviteRepository) CreateInvite(ctx context.Context, invite persistence.Invite) error {
	_, err := r.pool.db.ExecContext(ctx,
		`INSERT INTO calendar_invites (`+inviteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		invite.ID,
		invite.CalendarID,
		invite.InviteeEmail,
		invite.Role,
		invite.Status,
		invite.Token,
		invite.InvitedBy,
		encodeTime(invite.CreatedAt),
		encodeTime(invite.ExpiresAt),
	)
	return mapError(err)
}

// GetInvite retrieves an invite by id.
func (r *InviteRepository) GetInvite(ctx context.Context, id string) (persistence.Invite, error) {
	row := r.pool.db.QueryRowContext(ctx,
		`SELECT `+inviteColumns+` FROM calendar_invites WHERE id = ?`, id)
	return scanInvite(row)
}

// GetInviteByToken retrieves an invite by its token, joined with the calendar
// name and inviter email for the public preview.
func (r *InviteRepository) GetInviteByToken(ctx context.Context, token string) (persistence.InviteDetails, error) {
	row := r.pool.db.QueryRowContext(ctx, `
		SELECT i.id, i.calendar_id, i.invitee_email, i.role, i.status, i.token, i.invited_by, i.created_at, i.expires_at,
		       c.name, u.email
		FROM calendar_invites i
		JOIN calendars c ON c.id = i.calendar_id
		JOIN users u ON u.id = i.invited_by
		WHERE i.token = ?`,
		token,
	)

	var (
		details              persistence.InviteDetails
		createdAt, expiresAt string
	)
	err := row.Scan(
		&details.ID, &details.CalendarID, &details.InviteeEmail, &details.Role, &details.Status,
		&details.Token, &details.InvitedBy, &createdAt, &expiresAt,
		&details.CalendarName, &details.InviterEmail,
	)
	if err != nil {
		return persistence.InviteDetails{}, mapError(err)
	}
	if details.CreatedAt, err = decodeTime(createdAt); err != nil {
		return persistence.InviteDetails{}, err
	}
	if details.ExpiresAt, err = decodeTime(expiresAt); err != nil {
		return persistence.InviteDetails{}, err
	}
	return details, nil
}

// ListPendingInvites returns the calendar's PENDING invites, newest first.
func (r *InviteRepository) ListPendingInvites(ctx context.Context, calendarID string) ([]persistence.Invite, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT `+inviteColumns+` FROM calendar_invites
		WHERE calendar_id = ? AND status = 'PENDING'
		ORDER BY created_at DESC, id ASC`,
		calendarID,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var invites []persistence.Invite
	for rows.Next() {
		invite, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		invites = append(invites, invite)
	}
	return invites, rows.Err()
}

// AcceptInvite upserts the invitee's membership with the invite's role and
// flips the invite to ACCEPTED. Both writes happen in one transaction so a
// crash cannot leave a membership without an accepted invite or vice versa.
// Returns persistence.ErrNotFound when no PENDING invite matches the token.
func (r *InviteRepository) AcceptInvite(ctx context.Context, token, userID string) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(
			`UPDATE calendar_invites SET status = 'ACCEPTED' WHERE token = ? AND status = 'PENDING'`,
			token,
		)
		if err != nil {
			return mapError(err)
		}
		if err := requireRowAffected(result); err != nil {
			return err
		}

		// Last accepted invite wins: an existing membership's role is
		// overwritten by the invite's role.
		_, err = tx.Exec(`
			INSERT INTO calendar_members (calendar_id, user_id, role)
			SELECT calendar_id, ?, role FROM calendar_invites WHERE token = ?
			ON CONFLICT (calendar_id, user_id) DO UPDATE SET role = excluded.role`,
			userID, token,
		)
		return mapError(err)
	})
}

// DeclineInvite flips a PENDING invite to DECLINED. Returns
// persistence.ErrNotFound when no PENDING invite matches the token.
func (r *InviteRepository) DeclineInvite(ctx context.Context, token string) error {
	result, err := r.pool.db.ExecContext(ctx,
		`UPDATE calendar_invites SET status = 'DECLINED' WHERE token = ? AND status = 'PENDING'`,
		token,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// RevokeInvite flips a PENDING invite to REVOKED. Revoking a non-pending
// invite is a no-op, keeping revocation idempotent.
func (r *InviteRepository) RevokeInvite(ctx context.Context, id string) error {
	_, err := r.pool.db.ExecContext(ctx,
		`UPDATE calendar_invites SET status = 'REVOKED' WHERE id = ? AND status = 'PENDING'`,
		id,
	)
	return mapError(err)
}

func scanInvite(row rowScanner) (persistence.Invite, error) {
	var (
		invite               persistence.Invite
		createdAt, expiresAt string
	)
	err := row.Scan(
		&invite.ID, &invite.CalendarID, &invite.InviteeEmail, &invite.Role, &invite.Status,
		&invite.Token, &invite.InvitedBy, &createdAt, &expiresAt,
	)
	if err != nil {
		return persistence.Invite{}, mapError(err)
	}
	if invite.CreatedAt, err = decodeTime(createdAt); err != nil {
		return persistence.Invite{}, err
	}
	if invite.ExpiresAt, err = decodeTime(expiresAt); err != nil {
		return persistence.Invite{}, err
	}
	return invite, nil
}
