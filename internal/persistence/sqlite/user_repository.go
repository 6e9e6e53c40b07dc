package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/crewcal/internal/persistence"
)

// UserRepository implements persistence.UserRepository using SQLite.
type UserRepository struct {
	pool *ConnectionPool
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = "id, email, display_name, provider, provider_id, password_hash, created_at, updated_at"

// CreateUser inserts a new user row.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	_, err := r.pool.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.DisplayName,
		user.Provider,
		nullableString(user.ProviderID),
		nullableString(user.PasswordHash),
		encodeTime(user.CreatedAt),
		encodeTime(user.UpdatedAt),
	)
	return mapError(err)
}

// GetUser retrieves a user by id.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	row := r.pool.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByEmail retrieves a user by email, matched case-insensitively.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	row := r.pool.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? COLLATE NOCASE`, email)
	return scanUser(row)
}

// UpsertGoogleUser links a federated login to an account keyed by email. An
// existing row switches to the GOOGLE provider and loses its password hash.
func (r *UserRepository) UpsertGoogleUser(ctx context.Context, id, email, displayName, providerID string, now time.Time) (persistence.User, error) {
	ts := encodeTime(now)
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO users (id, email, display_name, provider, provider_id, password_hash, created_at, updated_at)
			VALUES (?, ?, ?, 'GOOGLE', ?, NULL, ?, ?)
			ON CONFLICT (email) DO UPDATE SET
				provider      = 'GOOGLE',
				provider_id   = excluded.provider_id,
				display_name  = CASE WHEN excluded.display_name <> '' THEN excluded.display_name ELSE users.display_name END,
				password_hash = NULL,
				updated_at    = excluded.updated_at`,
			id, email, displayName, providerID, ts, ts,
		)
		return mapError(err)
	})
	if err != nil {
		return persistence.User{}, err
	}
	return r.GetUserByEmail(ctx, email)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (persistence.User, error) {
	var (
		user                 persistence.User
		providerID, hash     sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&user.ID, &user.Email, &user.DisplayName, &user.Provider, &providerID, &hash, &createdAt, &updatedAt); err != nil {
		return persistence.User{}, mapError(err)
	}
	user.ProviderID = stringPtr(providerID)
	user.PasswordHash = stringPtr(hash)

	var err error
	if user.CreatedAt, err = decodeTime(createdAt); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}
