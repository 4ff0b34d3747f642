package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/chalkak/chalkak-server/internal/domain"
	"github.com/chalkak/chalkak-server/pkg/database"
	apperrors "github.com/chalkak/chalkak-server/pkg/errors"
)

const reviewColumns = `id, booth_id, user_id, rating, content, created_at, updated_at`

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	db database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(db database.DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a new review. The (booth_id, user_id) unique constraint
// enforces one review per user per booth.
func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	query := `
		INSERT INTO reviews (id, booth_id, user_id, rating, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		rv.ID, rv.BoothID, rv.UserID, rv.Rating, rv.Content, rv.CreatedAt, rv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("user has already reviewed this booth")
		}
		return fmt.Errorf("insert review: %w", err)
	}

	return nil
}

// GetByID retrieves a review by its ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	var rv domain.Review
	err := r.db.QueryRow(ctx, query, id).Scan(
		&rv.ID, &rv.BoothID, &rv.UserID, &rv.Rating, &rv.Content, &rv.CreatedAt, &rv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}

	return &rv, nil
}

// ListByBooth returns a paginated list of reviews for the booth, newest
// first, and the total count.
func (r *ReviewRepository) ListByBooth(ctx context.Context, boothID string, page, perPage int) ([]domain.Review, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE booth_id = $1`, boothID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE booth_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, boothID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(
			&rv.ID, &rv.BoothID, &rv.UserID, &rv.Rating, &rv.Content, &rv.CreatedAt, &rv.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	if reviews == nil {
		reviews = []domain.Review{}
	}

	return reviews, total, nil
}

// Update modifies an existing review in the database.
func (r *ReviewRepository) Update(ctx context.Context, rv *domain.Review) error {
	rv.UpdatedAt = time.Now().UTC()

	query := `UPDATE reviews SET rating = $1, content = $2, updated_at = $3 WHERE id = $4`

	ct, err := r.db.Exec(ctx, query, rv.Rating, rv.Content, rv.UpdatedAt, rv.ID)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", rv.ID)
	}

	return nil
}

// Delete removes a review from the database by its ID.
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", id)
	}

	return nil
}

// Stats returns the review count and average rating for the booth. A booth
// with no reviews gets zero values, not an error.
func (r *ReviewRepository) Stats(ctx context.Context, boothID string) (*domain.RatingStats, error) {
	query := `SELECT COUNT(*), COALESCE(AVG(rating), 0) FROM reviews WHERE booth_id = $1`

	var stats domain.RatingStats
	if err := r.db.QueryRow(ctx, query, boothID).Scan(&stats.Count, &stats.Average); err != nil {
		return nil, fmt.Errorf("review stats: %w", err)
	}

	return &stats, nil
}

// Count returns the total number of reviews.
func (r *ReviewRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reviews`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count reviews: %w", err)
	}
	return count, nil
}
