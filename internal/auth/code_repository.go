package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CodeRepository persists one-time login codes. There is no delete path;
// stale codes simply stop matching once expired or consumed. Consume is
// conditional so concurrent redeems of the same code cannot both win.
type CodeRepository interface {
	Create(ctx context.Context, code OneTimeCode) error
	ActiveByEmail(ctx context.Context, email string, now time.Time) ([]OneTimeCode, error)
	Consume(ctx context.Context, id string) (bool, error)
}

// PostgresCodeRepository stores one-time codes in PostgreSQL.
type PostgresCodeRepository struct {
	db *pgxpool.Pool
}

// NewPostgresCodeRepository builds a Postgres-backed code repository.
func NewPostgresCodeRepository(db *pgxpool.Pool) *PostgresCodeRepository {
	return &PostgresCodeRepository{db: db}
}

// Create inserts a one-time code record.
func (r *PostgresCodeRepository) Create(ctx context.Context, code OneTimeCode) error {
	codeID, err := uuid.Parse(code.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO one_time_codes (id, email, code_hash, expires_at, consumed, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		codeID, code.Email, code.CodeHash, code.ExpiresAt.UTC(), code.Consumed, code.CreatedAt.UTC())
	return err
}

// ActiveByEmail returns unconsumed, unexpired codes for the e-mail.
func (r *PostgresCodeRepository) ActiveByEmail(ctx context.Context, email string, now time.Time) ([]OneTimeCode, error) {
	rows, err := r.db.Query(ctx, `SELECT id, email, code_hash, expires_at, consumed, created_at
        FROM one_time_codes WHERE email = $1 AND consumed = FALSE AND expires_at >= $2`, email, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []OneTimeCode
	for rows.Next() {
		var (
			id        uuid.UUID
			code      OneTimeCode
			expiresAt time.Time
			createdAt time.Time
		)
		if err := rows.Scan(&id, &code.Email, &code.CodeHash, &expiresAt, &code.Consumed, &createdAt); err != nil {
			return nil, err
		}
		code.ID = id.String()
		code.ExpiresAt = expiresAt.UTC()
		code.CreatedAt = createdAt.UTC()
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// Consume flags a matched code so it can never validate again, reporting
// whether this call was the one that consumed it. The consumed = FALSE
// guard makes the check and the write one statement, so of two racing
// redeems exactly one sees an affected row.
func (r *PostgresCodeRepository) Consume(ctx context.Context, id string) (bool, error) {
	codeID, err := uuid.Parse(id)
	if err != nil {
		return false, err
	}
	cmd, err := r.db.Exec(ctx, `UPDATE one_time_codes SET consumed = TRUE WHERE id = $1 AND consumed = FALSE`, codeID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}
