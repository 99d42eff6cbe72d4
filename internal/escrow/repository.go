package escrow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrUnknownEscrow indicates no escrow matches the id.
	ErrUnknownEscrow = errors.New("unknown escrow")
	// ErrInvalidTransition indicates the requested state is not reachable
	// from the current one.
	ErrInvalidTransition = errors.New("invalid escrow transition")
)

// Repository persists escrows. Transition is the only write after Create
// and checks the transition table atomically with the state change, so
// concurrent callers cannot both move the same escrow.
type Repository interface {
	Create(ctx context.Context, e Escrow) error
	Get(ctx context.Context, id string) (Escrow, error)
	Transition(ctx context.Context, id string, to State) (Escrow, error)
	List(ctx context.Context) ([]Escrow, error)
}

// PostgresRepository implements Repository using PostgreSQL, with history
// rows in a separate append-only table.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed escrow repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the escrow and its creation history entry.
func (r *PostgresRepository) Create(ctx context.Context, e Escrow) error {
	escrowID, err := uuid.Parse(e.ID)
	if err != nil {
		return err
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `INSERT INTO escrows (id, tender_id, payer_email, payee_name, amount, state)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		escrowID, e.TenderID, e.PayerEmail, e.PayeeName, e.Amount, string(e.State))
	if err != nil {
		return err
	}
	for _, entry := range e.History {
		if _, err := tx.Exec(ctx, `INSERT INTO escrow_history (escrow_id, ts, event) VALUES ($1, $2, $3)`,
			escrowID, entry.Timestamp.UTC(), entry.Event); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// Get fetches an escrow with its full history, oldest entry first.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Escrow, error) {
	escrowID, err := uuid.Parse(id)
	if err != nil {
		return Escrow{}, ErrUnknownEscrow
	}
	row := r.db.QueryRow(ctx, `SELECT id, tender_id, payer_email, payee_name, amount, state FROM escrows WHERE id = $1`, escrowID)
	e, err := scanEscrow(row)
	if err != nil {
		return Escrow{}, err
	}

	rows, err := r.db.Query(ctx, `SELECT ts, event FROM escrow_history WHERE escrow_id = $1 ORDER BY ts, event`, escrowID)
	if err != nil {
		return Escrow{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			ts    time.Time
			entry HistoryEntry
		)
		if err := rows.Scan(&ts, &entry.Event); err != nil {
			return Escrow{}, err
		}
		entry.Timestamp = ts.UTC()
		e.History = append(e.History, entry)
	}
	return e, rows.Err()
}

// Transition moves the escrow to the target state and appends one history
// entry, as a single transaction conditioned on the current state.
func (r *PostgresRepository) Transition(ctx context.Context, id string, to State) (Escrow, error) {
	escrowID, err := uuid.Parse(id)
	if err != nil {
		return Escrow{}, ErrUnknownEscrow
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Escrow{}, err
	}
	defer tx.Rollback(ctx)

	var current string
	err = tx.QueryRow(ctx, `SELECT state FROM escrows WHERE id = $1 FOR UPDATE`, escrowID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return Escrow{}, ErrUnknownEscrow
	}
	if err != nil {
		return Escrow{}, err
	}
	if !CanTransition(State(current), to) {
		return Escrow{}, ErrInvalidTransition
	}

	if _, err := tx.Exec(ctx, `UPDATE escrows SET state = $1 WHERE id = $2`, string(to), escrowID); err != nil {
		return Escrow{}, err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO escrow_history (escrow_id, ts, event) VALUES ($1, $2, $3)`,
		escrowID, time.Now().UTC(), string(to)); err != nil {
		return Escrow{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Escrow{}, err
	}
	return r.Get(ctx, id)
}

// List returns every escrow, history included.
func (r *PostgresRepository) List(ctx context.Context) ([]Escrow, error) {
	rows, err := r.db.Query(ctx, `SELECT id, tender_id, payer_email, payee_name, amount, state FROM escrows`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var escrows []Escrow
	for rows.Next() {
		e, err := scanEscrow(rows)
		if err != nil {
			return nil, err
		}
		escrows = append(escrows, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range escrows {
		full, err := r.Get(ctx, escrows[i].ID)
		if err != nil {
			return nil, err
		}
		escrows[i] = full
	}
	return escrows, nil
}

func scanEscrow(row pgx.Row) (Escrow, error) {
	var (
		id    uuid.UUID
		state string
		e     Escrow
	)
	if err := row.Scan(&id, &e.TenderID, &e.PayerEmail, &e.PayeeName, &e.Amount, &state); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Escrow{}, ErrUnknownEscrow
		}
		return Escrow{}, err
	}
	e.ID = id.String()
	e.State = State(state)
	return e, nil
}
