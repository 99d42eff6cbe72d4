package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the append-only audit log. No update or delete method
// exists on purpose.
type Repository interface {
	Append(ctx context.Context, entry Entry) error
	List(ctx context.Context) ([]Entry, error)
}

// PostgresRepository stores audit entries in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed audit log.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Append inserts one entry.
func (r *PostgresRepository) Append(ctx context.Context, entry Entry) error {
	entryID, err := uuid.Parse(entry.ID)
	if err != nil {
		return err
	}
	meta, err := json.Marshal(entry.Metadata)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO audit_log (id, ts, event, ip_hash, metadata)
        VALUES ($1, $2, $3, $4, $5)`,
		entryID, entry.Timestamp.UTC(), entry.Event, entry.IPHash, meta)
	return err
}

// List returns entries oldest first.
func (r *PostgresRepository) List(ctx context.Context) ([]Entry, error) {
	rows, err := r.db.Query(ctx, `SELECT id, ts, event, ip_hash, metadata FROM audit_log ORDER BY ts`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			id   uuid.UUID
			ts   time.Time
			meta []byte
			e    Entry
		)
		if err := rows.Scan(&id, &ts, &e.Event, &e.IPHash, &meta); err != nil {
			return nil, err
		}
		e.ID = id.String()
		e.Timestamp = ts.UTC()
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &e.Metadata); err != nil {
				return nil, err
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
