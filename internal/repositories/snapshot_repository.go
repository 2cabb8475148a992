package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mystiq-app/waitlist-backend/internal/models"
)

// SnapshotRepository stores the periodic waitlist snapshots. Reads return
// newest first.
type SnapshotRepository interface {
	CreateSnapshot(ctx context.Context, snapshot *models.WaitlistSnapshot) error
	GetLatestSnapshot(ctx context.Context) (*models.WaitlistSnapshot, error)
	GetSnapshots(ctx context.Context, limit int) ([]*models.WaitlistSnapshot, error)
	GetSnapshotsByDateRange(ctx context.Context, start, end time.Time) ([]*models.WaitlistSnapshot, error)
}

const snapshotColumns = `id, taken_at, total_users, pending_users, approved_users, rejected_users,
	referred_users, avg_priority_score`

type snapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *sql.DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

func (r *snapshotRepository) CreateSnapshot(ctx context.Context, snapshot *models.WaitlistSnapshot) error {
	query := `
		INSERT INTO waitlist_snapshots (taken_at, total_users, pending_users, approved_users,
			rejected_users, referred_users, avg_priority_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		snapshot.Timestamp, snapshot.TotalUsers, snapshot.PendingUsers, snapshot.ApprovedUsers,
		snapshot.RejectedUsers, snapshot.ReferredUsers, snapshot.AvgPriorityScore,
	).Scan(&snapshot.ID)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}

	return nil
}

func (r *snapshotRepository) GetLatestSnapshot(ctx context.Context) (*models.WaitlistSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM waitlist_snapshots ORDER BY taken_at DESC, id DESC LIMIT 1`

	snapshot, err := scanSnapshot(r.db.QueryRowContext(ctx, query))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}

	return snapshot, nil
}

func (r *snapshotRepository) GetSnapshots(ctx context.Context, limit int) ([]*models.WaitlistSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM waitlist_snapshots ORDER BY taken_at DESC, id DESC LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

func (r *snapshotRepository) GetSnapshotsByDateRange(ctx context.Context, start, end time.Time) ([]*models.WaitlistSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM waitlist_snapshots
		WHERE taken_at >= $1 AND taken_at <= $2
		ORDER BY taken_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query snapshots by date range: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

func scanSnapshot(row rowScanner) (*models.WaitlistSnapshot, error) {
	snapshot := &models.WaitlistSnapshot{}
	err := row.Scan(
		&snapshot.ID, &snapshot.Timestamp, &snapshot.TotalUsers, &snapshot.PendingUsers,
		&snapshot.ApprovedUsers, &snapshot.RejectedUsers, &snapshot.ReferredUsers,
		&snapshot.AvgPriorityScore,
	)
	if err != nil {
		return nil, err
	}
	snapshot.Timestamp = snapshot.Timestamp.UTC()
	return snapshot, nil
}

// Helper function to scan multiple snapshots
func scanSnapshots(rows *sql.Rows) ([]*models.WaitlistSnapshot, error) {
	snapshots := make([]*models.WaitlistSnapshot, 0)

	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return snapshots, nil
}
