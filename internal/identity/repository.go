package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound indicates no user matches the given key.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicate indicates a user already holds the e-mail. Callers
	// racing on first contact treat it as "fetch the winner".
	ErrDuplicate = errors.New("user exists")
)

// Repository persists users.
type Repository interface {
	Create(ctx context.Context, user User) error
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	UpdateTwoFactor(ctx context.Context, id string, tf TwoFactor) error
	Count(ctx context.Context) (int, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed user repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user. A concurrent insert for the same e-mail is
// reported as ErrDuplicate instead of a constraint violation.
func (r *PostgresRepository) Create(ctx context.Context, user User) error {
	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return err
	}
	cmd, err := r.db.Exec(ctx, `INSERT INTO users (id, email, role, totp_secret, totp_enabled, created_at)
        VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (email) DO NOTHING`,
		userID, user.Email, user.Role, user.TwoFactor.Secret, user.TwoFactor.Enabled, user.CreatedAt.UTC())
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrDuplicate
	}
	return nil
}

// FindByEmail fetches a user by normalized e-mail.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	return r.scanOne(r.db.QueryRow(ctx, `SELECT id, email, role, totp_secret, totp_enabled, created_at
        FROM users WHERE email = $1`, email))
}

// FindByID fetches a user by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	return r.scanOne(r.db.QueryRow(ctx, `SELECT id, email, role, totp_secret, totp_enabled, created_at
        FROM users WHERE id = $1`, userID))
}

// UpdateTwoFactor stores the user's TOTP enrollment state.
func (r *PostgresRepository) UpdateTwoFactor(ctx context.Context, id string, tf TwoFactor) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE users SET totp_secret = $1, totp_enabled = $2 WHERE id = $3`,
		tf.Secret, tf.Enabled, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of registered users.
func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *PostgresRepository) scanOne(row pgx.Row) (User, error) {
	var (
		id        uuid.UUID
		createdAt time.Time
		user      User
	)
	if err := row.Scan(&id, &user.Email, &user.Role, &user.TwoFactor.Secret, &user.TwoFactor.Enabled, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user.ID = id.String()
	user.CreatedAt = createdAt.UTC()
	return user, nil
}
