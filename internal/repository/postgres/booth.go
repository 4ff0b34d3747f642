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

const boothColumns = `id, name, brand, address, latitude, longitude, created_at, updated_at`

// BoothRepository implements repository.BoothRepository using PostgreSQL.
type BoothRepository struct {
	db database.DBTX
}

// NewBoothRepository creates a new PostgreSQL-backed booth repository.
func NewBoothRepository(db database.DBTX) *BoothRepository {
	return &BoothRepository{db: db}
}

// Create inserts a new booth into the database.
func (r *BoothRepository) Create(ctx context.Context, b *domain.Booth) error {
	query := `
		INSERT INTO booths (id, name, brand, address, latitude, longitude, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		b.ID,
		b.Name,
		b.Brand,
		b.Address,
		b.Latitude,
		b.Longitude,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("booth", "name and address", b.Name)
		}
		return fmt.Errorf("insert booth: %w", err)
	}

	return nil
}

// GetByID retrieves a booth by its ID.
func (r *BoothRepository) GetByID(ctx context.Context, id string) (*domain.Booth, error) {
	query := `SELECT ` + boothColumns + ` FROM booths WHERE id = $1`

	var b domain.Booth
	err := r.db.QueryRow(ctx, query, id).Scan(
		&b.ID,
		&b.Name,
		&b.Brand,
		&b.Address,
		&b.Latitude,
		&b.Longitude,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan booth: %w", err)
	}

	return &b, nil
}

// List returns a paginated list of booths, optionally filtered by brand, and
// the total count.
func (r *BoothRepository) List(ctx context.Context, brand string, page, perPage int) ([]domain.Booth, int, error) {
	var (
		total int
		err   error
	)
	if brand != "" {
		err = r.db.QueryRow(ctx, `SELECT COUNT(*) FROM booths WHERE brand = $1`, brand).Scan(&total)
	} else {
		err = r.db.QueryRow(ctx, `SELECT COUNT(*) FROM booths`).Scan(&total)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("count booths: %w", err)
	}

	var rows pgx.Rows
	if brand != "" {
		rows, err = r.db.Query(ctx,
			`SELECT `+boothColumns+` FROM booths WHERE brand = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
			brand, perPage, (page-1)*perPage,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT `+boothColumns+` FROM booths ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
			perPage, (page-1)*perPage,
		)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("list booths: %w", err)
	}
	defer rows.Close()

	var booths []domain.Booth
	for rows.Next() {
		var b domain.Booth
		if err := rows.Scan(
			&b.ID, &b.Name, &b.Brand, &b.Address, &b.Latitude, &b.Longitude, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan booth row: %w", err)
		}
		booths = append(booths, b)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate booth rows: %w", err)
	}

	if booths == nil {
		booths = []domain.Booth{}
	}

	return booths, total, nil
}

// Nearby returns booths within radiusMeters of the given point using the
// haversine formula, nearest first.
func (r *BoothRepository) Nearby(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]domain.BoothWithDistance, error) {
	// 6371000 is the Earth radius in meters.
	query := `
		SELECT ` + boothColumns + `, distance_meters FROM (
			SELECT ` + boothColumns + `,
				6371000 * acos(
					least(1.0, cos(radians($1)) * cos(radians(latitude)) *
					cos(radians(longitude) - radians($2)) +
					sin(radians($1)) * sin(radians(latitude)))
				) AS distance_meters
			FROM booths
		) AS nearby
		WHERE distance_meters <= $3
		ORDER BY distance_meters
		LIMIT $4`

	rows, err := r.db.Query(ctx, query, lat, lng, radiusMeters, limit)
	if err != nil {
		return nil, fmt.Errorf("query nearby booths: %w", err)
	}
	defer rows.Close()

	var booths []domain.BoothWithDistance
	for rows.Next() {
		var b domain.BoothWithDistance
		if err := rows.Scan(
			&b.ID, &b.Name, &b.Brand, &b.Address, &b.Latitude, &b.Longitude,
			&b.CreatedAt, &b.UpdatedAt, &b.DistanceMeters,
		); err != nil {
			return nil, fmt.Errorf("scan nearby booth row: %w", err)
		}
		booths = append(booths, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nearby booth rows: %w", err)
	}

	if booths == nil {
		booths = []domain.BoothWithDistance{}
	}

	return booths, nil
}

// Update modifies an existing booth in the database.
func (r *BoothRepository) Update(ctx context.Context, b *domain.Booth) error {
	b.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE booths
		SET name = $1, brand = $2, address = $3, latitude = $4, longitude = $5, updated_at = $6
		WHERE id = $7`

	ct, err := r.db.Exec(ctx, query,
		b.Name, b.Brand, b.Address, b.Latitude, b.Longitude, b.UpdatedAt, b.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("booth", "name and address", b.Name)
		}
		return fmt.Errorf("update booth: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("booth", b.ID)
	}

	return nil
}

// Delete removes a booth from the database by its ID.
func (r *BoothRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM booths WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete booth: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("booth", id)
	}

	return nil
}

// Count returns the total number of booths.
func (r *BoothRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM booths`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count booths: %w", err)
	}
	return count, nil
}
