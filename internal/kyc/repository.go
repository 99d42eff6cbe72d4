package kyc

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists KYC records keyed by user.
type Repository interface {
	Replace(ctx context.Context, record Record) error
	Approve(ctx context.Context, email string) error
	FindByEmail(ctx context.Context, email string) ([]Record, error)
	List(ctx context.Context) ([]Record, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed KYC repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Replace removes any existing record for the user and inserts the new one.
func (r *PostgresRepository) Replace(ctx context.Context, record Record) error {
	userID, err := uuid.Parse(record.UserID)
	if err != nil {
		return err
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM kyc_records WHERE user_id = $1`, userID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO kyc_records (user_id, email, full_name, country, doc_type, doc_id_hash, status, submitted_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		userID, record.Email, record.FullName, record.Country, record.DocType, record.DocIDHash, record.Status, record.SubmittedAt.UTC()); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Approve flips every record matching the e-mail to approved.
func (r *PostgresRepository) Approve(ctx context.Context, email string) error {
	_, err := r.db.Exec(ctx, `UPDATE kyc_records SET status = $1 WHERE email = $2`, StatusApproved, email)
	return err
}

// FindByEmail returns the records for an e-mail.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) ([]Record, error) {
	rows, err := r.db.Query(ctx, `SELECT user_id, email, full_name, country, doc_type, doc_id_hash, status, submitted_at
        FROM kyc_records WHERE email = $1`, email)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// List returns every record.
func (r *PostgresRepository) List(ctx context.Context) ([]Record, error) {
	rows, err := r.db.Query(ctx, `SELECT user_id, email, full_name, country, doc_type, doc_id_hash, status, submitted_at FROM kyc_records`)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func collect(rows pgx.Rows) ([]Record, error) {
	defer rows.Close()
	var records []Record
	for rows.Next() {
		var (
			userID    uuid.UUID
			submitted time.Time
			rec       Record
		)
		if err := rows.Scan(&userID, &rec.Email, &rec.FullName, &rec.Country, &rec.DocType, &rec.DocIDHash, &rec.Status, &submitted); err != nil {
			return nil, err
		}
		rec.UserID = userID.String()
		rec.SubmittedAt = submitted.UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}
