package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/mystiq-app/waitlist-backend/internal/models"
	"github.com/mystiq-app/waitlist-backend/internal/ranking"
	apperrors "github.com/mystiq-app/waitlist-backend/pkg/errors"
)

const (
	uniqueViolation = "23505"

	registrantsEmailKey        = "registrants_email_key"
	registrantsReferralCodeKey = "registrants_referral_code_key"

	registrantColumns = `id, email, college_name, age, city, instagram, teaser_answer, referral_code,
		referred_by, referral_count, priority_score, created_at, status`
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type postgresRegistrantRepository struct {
	db *sql.DB
}

// NewPostgresRegistrantRepository creates a new registrant repository
func NewPostgresRegistrantRepository(db *sql.DB) RegistrantRepository {
	return &postgresRegistrantRepository{db: db}
}

func (r *postgresRegistrantRepository) Insert(ctx context.Context, registrant *models.Registrant) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin insert registrant: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO registrants (email, college_name, age, city, instagram, teaser_answer,
			referral_code, referred_by, referral_count, priority_score, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, $10)
		RETURNING id, created_at
	`

	// Credit runs before the new row exists so a registrant never credits itself.
	// A failed insert rolls the credit back with the transaction.
	credited := false
	if registrant.ReferredBy != "" {
		credited, err = incrementReferral(ctx, tx, registrant.ReferredBy, ranking.ReferralReward)
		if err != nil {
			return false, err
		}
	}

	err = tx.QueryRowContext(ctx, query,
		registrant.Email, registrant.CollegeName, registrant.Age, registrant.City,
		registrant.Instagram, registrant.TeaserAnswer, registrant.ReferralCode,
		registrant.ReferredBy, registrant.PriorityScore, registrant.Status,
	).Scan(&registrant.ID, &registrant.CreatedAt)
	if err != nil {
		return false, translateInsertError(err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit insert registrant: %w", err)
	}

	registrant.ReferralCount = 0
	registrant.CreatedAt = registrant.CreatedAt.UTC()
	return credited, nil
}

func translateInsertError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		switch pqErr.Constraint {
		case registrantsEmailKey:
			return fmt.Errorf("insert registrant: %w", apperrors.ErrDuplicateEmail)
		case registrantsReferralCodeKey:
			return fmt.Errorf("insert registrant: %w", apperrors.ErrDuplicateReferralCode)
		}
		return fmt.Errorf("insert registrant: %w", apperrors.ErrConflict)
	}
	return fmt.Errorf("insert registrant: %w", err)
}

func (r *postgresRegistrantRepository) FindByEmail(ctx context.Context, email string) (*models.Registrant, error) {
	query := `SELECT ` + registrantColumns + ` FROM registrants WHERE email = $1`

	registrant, err := scanRegistrant(r.db.QueryRowContext(ctx, query, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get registrant by email: %w", err)
	}
	return registrant, nil
}

func (r *postgresRegistrantRepository) FindByReferralCode(ctx context.Context, code string) (*models.Registrant, error) {
	query := `SELECT ` + registrantColumns + ` FROM registrants WHERE referral_code = $1`

	registrant, err := scanRegistrant(r.db.QueryRowContext(ctx, query, code))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get registrant by referral code: %w", err)
	}
	return registrant, nil
}

func (r *postgresRegistrantRepository) IncrementReferral(ctx context.Context, code string, scoreDelta int) (bool, error) {
	return incrementReferral(ctx, r.db, code, scoreDelta)
}

func incrementReferral(ctx context.Context, db execer, code string, scoreDelta int) (bool, error) {
	query := `
		UPDATE registrants SET
			referral_count = referral_count + 1,
			priority_score = priority_score + $1
		WHERE referral_code = $2
	`

	res, err := db.ExecContext(ctx, query, scoreDelta, code)
	if err != nil {
		return false, fmt.Errorf("increment referral: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("increment referral rows: %w", err)
	}
	return n > 0, nil
}

func (r *postgresRegistrantRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM registrants`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count registrants: %w", err)
	}
	return count, nil
}

func (r *postgresRegistrantRepository) All(ctx context.Context) ([]*models.Registrant, error) {
	query := `SELECT ` + registrantColumns + ` FROM registrants ORDER BY priority_score DESC, created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all registrants: %w", err)
	}
	defer rows.Close()

	return scanRegistrants(rows)
}

// Position counts registrants ahead of email using the queue index
func (r *postgresRegistrantRepository) Position(ctx context.Context, email string) (int, error) {
	query := `
		WITH target AS (
			SELECT priority_score, created_at, id FROM registrants WHERE email = $1
		)
		SELECT
			(SELECT COUNT(*) FROM target),
			(SELECT COUNT(*) FROM registrants r, target t
				WHERE (-r.priority_score, r.created_at, r.id) < (-t.priority_score, t.created_at, t.id))
	`

	var found, ahead int
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&found, &ahead); err != nil {
		return 0, fmt.Errorf("queue position: %w", err)
	}
	if found == 0 {
		return 0, apperrors.Wrapf(apperrors.ErrNotFound, "registrant %s", email)
	}
	return ahead + 1, nil
}

func (r *postgresRegistrantRepository) UpdateStatus(ctx context.Context, email, status string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE registrants SET status = $1 WHERE email = $2`, status, email)
	if err != nil {
		return false, fmt.Errorf("update registrant status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update registrant status rows: %w", err)
	}
	return n > 0, nil
}

func (r *postgresRegistrantRepository) UpdateStatusBulk(ctx context.Context, emails []string, status string) (int, error) {
	query := `UPDATE registrants SET status = $1 WHERE email = ANY($2)`
	return r.execAffected(ctx, "bulk update status", query, status, pq.Array(dedupe(emails)))
}

func (r *postgresRegistrantRepository) AddPriority(ctx context.Context, emails []string, delta int) (int, error) {
	query := `UPDATE registrants SET priority_score = priority_score + $1 WHERE email = ANY($2)`
	return r.execAffected(ctx, "bulk priority boost", query, delta, pq.Array(dedupe(emails)))
}

func (r *postgresRegistrantRepository) DeleteByEmails(ctx context.Context, emails []string) (int, error) {
	query := `DELETE FROM registrants WHERE email = ANY($1)`
	return r.execAffected(ctx, "bulk delete", query, pq.Array(dedupe(emails)))
}

func (r *postgresRegistrantRepository) Clear(ctx context.Context) (int, error) {
	return r.execAffected(ctx, "clear registrants", `DELETE FROM registrants`)
}

// Ping checks the database connection
func (r *postgresRegistrantRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *postgresRegistrantRepository) execAffected(ctx context.Context, op, query string, args ...interface{}) (int, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s rows: %w", op, err)
	}
	return int(n), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRegistrant(row rowScanner) (*models.Registrant, error) {
	registrant := &models.Registrant{}
	err := row.Scan(
		&registrant.ID, &registrant.Email, &registrant.CollegeName, &registrant.Age,
		&registrant.City, &registrant.Instagram, &registrant.TeaserAnswer, &registrant.ReferralCode,
		&registrant.ReferredBy, &registrant.ReferralCount, &registrant.PriorityScore,
		&registrant.CreatedAt, &registrant.Status,
	)
	if err != nil {
		return nil, err
	}
	registrant.CreatedAt = registrant.CreatedAt.UTC()
	return registrant, nil
}

// Helper function to scan multiple registrants
func scanRegistrants(rows *sql.Rows) ([]*models.Registrant, error) {
	var registrants []*models.Registrant

	for rows.Next() {
		registrant, err := scanRegistrant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registrant: %w", err)
		}
		registrants = append(registrants, registrant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return registrants, nil
}
