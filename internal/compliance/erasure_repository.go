package compliance

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErasureRepository is the append-only erasure queue.
type ErasureRepository interface {
	Append(ctx context.Context, req ErasureRequest) error
	List(ctx context.Context) ([]ErasureRequest, error)
}

// PostgresErasureRepository stores erasure requests in PostgreSQL.
type PostgresErasureRepository struct {
	db *pgxpool.Pool
}

// NewPostgresErasureRepository builds a Postgres-backed erasure queue.
func NewPostgresErasureRepository(db *pgxpool.Pool) *PostgresErasureRepository {
	return &PostgresErasureRepository{db: db}
}

// Append inserts one erasure intent.
func (r *PostgresErasureRepository) Append(ctx context.Context, req ErasureRequest) error {
	reqID, err := uuid.Parse(req.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO erasure_requests (id, email_hash, requested_at, status)
        VALUES ($1, $2, $3, $4)`, reqID, req.EmailHash, req.RequestedAt.UTC(), req.Status)
	return err
}

// List returns the queue oldest first.
func (r *PostgresErasureRepository) List(ctx context.Context) ([]ErasureRequest, error) {
	rows, err := r.db.Query(ctx, `SELECT id, email_hash, requested_at, status FROM erasure_requests ORDER BY requested_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []ErasureRequest
	for rows.Next() {
		var (
			id        uuid.UUID
			requested time.Time
			req       ErasureRequest
		)
		if err := rows.Scan(&id, &req.EmailHash, &requested, &req.Status); err != nil {
			return nil, err
		}
		req.ID = id.String()
		req.RequestedAt = requested.UTC()
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

type memoryErasureRepository struct {
	mu       sync.RWMutex
	requests []ErasureRequest
}

// NewMemoryErasureRepository builds an in-memory erasure queue for dev mode and testing.
func NewMemoryErasureRepository() ErasureRepository {
	return &memoryErasureRepository{}
}

func (r *memoryErasureRepository) Append(_ context.Context, req ErasureRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	return nil
}

func (r *memoryErasureRepository) List(_ context.Context) ([]ErasureRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ErasureRequest, len(r.requests))
	copy(out, r.requests)
	return out, nil
}
