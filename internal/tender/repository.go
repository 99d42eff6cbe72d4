package tender

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrUnknownTender indicates no tender matches the id.
	ErrUnknownTender = errors.New("unknown tender")
	// ErrUnknownMilestone indicates no milestone matches the id.
	ErrUnknownMilestone = errors.New("unknown milestone")
)

// Repository persists tenders, their bids and milestones. Bids have no
// update or delete method: the collection is append-only.
type Repository interface {
	CreateTender(ctx context.Context, t Tender) error
	GetTender(ctx context.Context, id string) (Tender, error)
	UpdateTender(ctx context.Context, t Tender) error
	ListTenders(ctx context.Context) ([]Tender, error)

	CreateBid(ctx context.Context, b Bid) error
	ListBids(ctx context.Context) ([]Bid, error)

	CreateMilestone(ctx context.Context, m Milestone) error
	GetMilestone(ctx context.Context, id string) (Milestone, error)
	UpdateMilestone(ctx context.Context, m Milestone) error
	ListMilestones(ctx context.Context, tenderID string) ([]Milestone, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed tender repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateTender inserts a tender.
func (r *PostgresRepository) CreateTender(ctx context.Context, t Tender) error {
	tenderID, err := uuid.Parse(t.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO tenders (id, title, description, profession, budget, deadline, owner_email, status, awarded_to, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		tenderID, t.Title, t.Description, t.Profession, t.Budget, t.Deadline, t.OwnerEmail, string(t.Status), t.AwardedTo, t.CreatedAt.UTC())
	return err
}

// GetTender fetches one tender by id.
func (r *PostgresRepository) GetTender(ctx context.Context, id string) (Tender, error) {
	tenderID, err := uuid.Parse(id)
	if err != nil {
		return Tender{}, ErrUnknownTender
	}
	row := r.db.QueryRow(ctx, `SELECT id, title, description, profession, budget, deadline, owner_email, status, awarded_to, created_at
        FROM tenders WHERE id = $1`, tenderID)
	return scanTender(row)
}

// UpdateTender rewrites one tender row keyed by id.
func (r *PostgresRepository) UpdateTender(ctx context.Context, t Tender) error {
	tenderID, err := uuid.Parse(t.ID)
	if err != nil {
		return ErrUnknownTender
	}
	cmd, err := r.db.Exec(ctx, `UPDATE tenders SET status = $1, awarded_to = $2 WHERE id = $3`,
		string(t.Status), t.AwardedTo, tenderID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUnknownTender
	}
	return nil
}

// ListTenders returns tenders oldest first.
func (r *PostgresRepository) ListTenders(ctx context.Context) ([]Tender, error) {
	rows, err := r.db.Query(ctx, `SELECT id, title, description, profession, budget, deadline, owner_email, status, awarded_to, created_at
        FROM tenders ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenders []Tender
	for rows.Next() {
		t, err := scanTender(rows)
		if err != nil {
			return nil, err
		}
		tenders = append(tenders, t)
	}
	return tenders, rows.Err()
}

// CreateBid appends a bid.
func (r *PostgresRepository) CreateBid(ctx context.Context, b Bid) error {
	bidID, err := uuid.Parse(b.ID)
	if err != nil {
		return err
	}
	tenderID, err := uuid.Parse(b.TenderID)
	if err != nil {
		return ErrUnknownTender
	}
	_, err = r.db.Exec(ctx, `INSERT INTO bids (id, tender_id, bidder_name, amount, message, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		bidID, tenderID, b.BidderName, b.Amount, b.Message, b.CreatedAt.UTC())
	return err
}

// ListBids returns all bids oldest first.
func (r *PostgresRepository) ListBids(ctx context.Context) ([]Bid, error) {
	rows, err := r.db.Query(ctx, `SELECT id, tender_id, bidder_name, amount, message, created_at FROM bids ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []Bid
	for rows.Next() {
		var (
			id       uuid.UUID
			tenderID uuid.UUID
			created  time.Time
			b        Bid
		)
		if err := rows.Scan(&id, &tenderID, &b.BidderName, &b.Amount, &b.Message, &created); err != nil {
			return nil, err
		}
		b.ID = id.String()
		b.TenderID = tenderID.String()
		b.CreatedAt = created.UTC()
		bids = append(bids, b)
	}
	return bids, rows.Err()
}

// CreateMilestone inserts a milestone.
func (r *PostgresRepository) CreateMilestone(ctx context.Context, m Milestone) error {
	milestoneID, err := uuid.Parse(m.ID)
	if err != nil {
		return err
	}
	tenderID, err := uuid.Parse(m.TenderID)
	if err != nil {
		return ErrUnknownTender
	}
	_, err = r.db.Exec(ctx, `INSERT INTO milestones (id, tender_id, title, amount, due_date, status)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		milestoneID, tenderID, m.Title, m.Amount, m.DueDate, string(m.Status))
	return err
}

// GetMilestone fetches one milestone by id.
func (r *PostgresRepository) GetMilestone(ctx context.Context, id string) (Milestone, error) {
	milestoneID, err := uuid.Parse(id)
	if err != nil {
		return Milestone{}, ErrUnknownMilestone
	}
	row := r.db.QueryRow(ctx, `SELECT id, tender_id, title, amount, due_date, status FROM milestones WHERE id = $1`, milestoneID)
	return scanMilestone(row)
}

// UpdateMilestone rewrites one milestone row keyed by id.
func (r *PostgresRepository) UpdateMilestone(ctx context.Context, m Milestone) error {
	milestoneID, err := uuid.Parse(m.ID)
	if err != nil {
		return ErrUnknownMilestone
	}
	cmd, err := r.db.Exec(ctx, `UPDATE milestones SET status = $1 WHERE id = $2`, string(m.Status), milestoneID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUnknownMilestone
	}
	return nil
}

// ListMilestones returns the milestones for one tender.
func (r *PostgresRepository) ListMilestones(ctx context.Context, tenderID string) ([]Milestone, error) {
	tid, err := uuid.Parse(tenderID)
	if err != nil {
		return nil, ErrUnknownTender
	}
	rows, err := r.db.Query(ctx, `SELECT id, tender_id, title, amount, due_date, status FROM milestones WHERE tender_id = $1`, tid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var milestones []Milestone
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, err
		}
		milestones = append(milestones, m)
	}
	return milestones, rows.Err()
}

func scanTender(row pgx.Row) (Tender, error) {
	var (
		id      uuid.UUID
		created time.Time
		status  string
		t       Tender
	)
	if err := row.Scan(&id, &t.Title, &t.Description, &t.Profession, &t.Budget, &t.Deadline, &t.OwnerEmail, &status, &t.AwardedTo, &created); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tender{}, ErrUnknownTender
		}
		return Tender{}, err
	}
	t.ID = id.String()
	t.Status = Status(status)
	t.CreatedAt = created.UTC()
	return t, nil
}

func scanMilestone(row pgx.Row) (Milestone, error) {
	var (
		id       uuid.UUID
		tenderID uuid.UUID
		status   string
		m        Milestone
	)
	if err := row.Scan(&id, &tenderID, &m.Title, &m.Amount, &m.DueDate, &status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Milestone{}, ErrUnknownMilestone
		}
		return Milestone{}, err
	}
	m.ID = id.String()
	m.TenderID = tenderID.String()
	m.Status = MilestoneStatus(status)
	return m, nil
}
