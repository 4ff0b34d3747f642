package postgres

import (
	"context"
	"fmt"

	"github.com/chalkak/chalkak-server/internal/domain"
	"github.com/chalkak/chalkak-server/pkg/database"
	apperrors "github.com/chalkak/chalkak-server/pkg/errors"
)

// FavoriteRepository implements repository.FavoriteRepository using PostgreSQL.
type FavoriteRepository struct {
	db database.DBTX
}

// NewFavoriteRepository creates a new PostgreSQL-backed favorite repository.
func NewFavoriteRepository(db database.DBTX) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Add inserts a booth into the user's favorites.
// Uses ON CONFLICT DO NOTHING for idempotent behavior.
func (r *FavoriteRepository) Add(ctx context.Context, userID, boothID string) error {
	query := `
		INSERT INTO favorites (user_id, booth_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, booth_id) DO NOTHING`

	_, err := r.db.Exec(ctx, query, userID, boothID)
	if err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}

	return nil
}

// Remove deletes a booth from the user's favorites.
func (r *FavoriteRepository) Remove(ctx context.Context, userID, boothID string) error {
	query := `DELETE FROM favorites WHERE user_id = $1 AND booth_id = $2`

	ct, err := r.db.Exec(ctx, query, userID, boothID)
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("favorite", boothID)
	}

	return nil
}

// List returns a paginated list of the user's favorites and the total count.
func (r *FavoriteRepository) List(ctx context.Context, userID string, page, perPage int) ([]*domain.Favorite, int, error) {
	countQuery := `SELECT COUNT(*) FROM favorites WHERE user_id = $1`

	var total int
	if err := r.db.QueryRow(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count favorites: %w", err)
	}

	offset := (page - 1) * perPage
	query := `
		SELECT user_id, booth_id, created_at
		FROM favorites
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, userID, perPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	var items []*domain.Favorite
	for rows.Next() {
		var item domain.Favorite
		if err := rows.Scan(&item.UserID, &item.BoothID, &item.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan favorite: %w", err)
		}
		items = append(items, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate favorite rows: %w", err)
	}

	if items == nil {
		items = []*domain.Favorite{}
	}

	return items, total, nil
}

// Exists checks whether a booth is in the user's favorites.
func (r *FavoriteRepository) Exists(ctx context.Context, userID, boothID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM favorites WHERE user_id = $1 AND booth_id = $2)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, boothID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check favorite exists: %w", err)
	}

	return exists, nil
}
