package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/chalkak/chalkak-server/internal/domain"
	"github.com/chalkak/chalkak-server/internal/event"
	"github.com/chalkak/chalkak-server/internal/repository"
	apperrors "github.com/chalkak/chalkak-server/pkg/errors"
)

// Nearby search bounds.
const (
	defaultNearbyRadiusMeters = 1000.0
	maxNearbyRadiusMeters     = 10000.0
	defaultNearbyLimit        = 50
	maxNearbyLimit            = 200
)

// BoothLocationCache answers nearby queries from a warm location index.
type BoothLocationCache interface {
	Add(ctx context.Context, booth *domain.Booth) error
	Remove(ctx context.Context, boothID string) error
	Warm(ctx context.Context, booths []domain.Booth) error
	Nearby(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]domain.BoothWithDistance, bool, error)
}

// BoothService implements booth directory operations.
type BoothService struct {
	boothRepo repository.BoothRepository
	cache     BoothLocationCache
	producer  *event.Producer
	logger    *slog.Logger
}

// NewBoothService creates a new booth service. cache may be nil, in which
// case nearby queries always go to the database. producer may be nil when
// event publishing is disabled.
func NewBoothService(
	boothRepo repository.BoothRepository,
	cache BoothLocationCache,
	producer *event.Producer,
	logger *slog.Logger,
) *BoothService {
	return &BoothService{
		boothRepo: boothRepo,
		cache:     cache,
		producer:  producer,
		logger:    logger,
	}
}

// CreateBoothInput holds the parameters for registering a booth.
type CreateBoothInput struct {
	Name      string
	Brand     string
	Address   string
	Latitude  float64
	Longitude float64
}

// UpdateBoothInput holds the parameters for updating a booth.
type UpdateBoothInput struct {
	Name      *string
	Brand     *string
	Address   *string
	Latitude  *float64
	Longitude *float64
}

// Create registers a new booth.
func (s *BoothService) Create(ctx context.Context, input CreateBoothInput) (*domain.Booth, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if input.Address == "" {
		return nil, apperrors.InvalidInput("address is required")
	}
	if err := validateCoordinates(input.Latitude, input.Longitude); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	booth := &domain.Booth{
		ID:        uuid.New().String(),
		Name:      input.Name,
		Brand:     input.Brand,
		Address:   input.Address,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.boothRepo.Create(ctx, booth); err != nil {
		return nil, fmt.Errorf("create booth: %w", err)
	}

	s.cacheAdd(ctx, booth)

	s.logger.InfoContext(ctx, "booth created",
		slog.String("booth_id", booth.ID),
		slog.String("name", booth.Name),
	)

	return booth, nil
}

// Get retrieves a booth by ID.
func (s *BoothService) Get(ctx context.Context, boothID string) (*domain.Booth, error) {
	booth, err := s.boothRepo.GetByID(ctx, boothID)
	if err != nil {
		return nil, fmt.Errorf("get booth: %w", err)
	}
	return booth, nil
}

// List returns booths with optional brand filtering and pagination.
func (s *BoothService) List(ctx context.Context, brand string, page, perPage int) ([]domain.Booth, int, error) {
	page, perPage = normalizePage(page, perPage)
	booths, total, err := s.boothRepo.List(ctx, brand, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list booths: %w", err)
	}
	return booths, total, nil
}

// Nearby returns booths within the radius of the given point, closest first.
// The location cache is consulted first; a cold cache falls back to the
// database and warms itself for the next query.
func (s *BoothService) Nearby(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]domain.BoothWithDistance, error) {
	if err := validateCoordinates(lat, lng); err != nil {
		return nil, err
	}
	if radiusMeters <= 0 {
		radiusMeters = defaultNearbyRadiusMeters
	}
	if radiusMeters > maxNearbyRadiusMeters {
		radiusMeters = maxNearbyRadiusMeters
	}
	if limit <= 0 {
		limit = defaultNearbyLimit
	}
	if limit > maxNearbyLimit {
		limit = maxNearbyLimit
	}

	if s.cache != nil {
		booths, ok, err := s.cache.Nearby(ctx, lat, lng, radiusMeters, limit)
		if err != nil {
			s.logger.WarnContext(ctx, "booth cache lookup failed",
				slog.String("error", err.Error()),
			)
		} else if ok {
			return booths, nil
		}
	}

	booths, err := s.boothRepo.Nearby(ctx, lat, lng, radiusMeters, limit)
	if err != nil {
		return nil, fmt.Errorf("nearby booths: %w", err)
	}

	if s.cache != nil {
		s.warmCache(ctx)
	}

	return booths, nil
}

// Update modifies an existing booth.
func (s *BoothService) Update(ctx context.Context, boothID string, input UpdateBoothInput) (*domain.Booth, error) {
	booth, err := s.boothRepo.GetByID(ctx, boothID)
	if err != nil {
		return nil, fmt.Errorf("get booth for update: %w", err)
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperrors.InvalidInput("name must not be empty")
		}
		booth.Name = *input.Name
	}
	if input.Brand != nil {
		booth.Brand = *input.Brand
	}
	if input.Address != nil {
		if *input.Address == "" {
			return nil, apperrors.InvalidInput("address must not be empty")
		}
		booth.Address = *input.Address
	}
	if input.Latitude != nil {
		booth.Latitude = *input.Latitude
	}
	if input.Longitude != nil {
		booth.Longitude = *input.Longitude
	}
	if err := validateCoordinates(booth.Latitude, booth.Longitude); err != nil {
		return nil, err
	}

	if err := s.boothRepo.Update(ctx, booth); err != nil {
		return nil, fmt.Errorf("update booth: %w", err)
	}

	s.cacheAdd(ctx, booth)

	s.logger.InfoContext(ctx, "booth updated",
		slog.String("booth_id", booth.ID),
	)

	return booth, nil
}

// Delete removes a booth.
func (s *BoothService) Delete(ctx context.Context, boothID string) error {
	if err := s.boothRepo.Delete(ctx, boothID); err != nil {
		return fmt.Errorf("delete booth: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Remove(ctx, boothID); err != nil {
			s.logger.WarnContext(ctx, "failed to evict booth from cache",
				slog.String("booth_id", boothID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "booth deleted",
		slog.String("booth_id", boothID),
	)

	return nil
}

// ReportBoothInput holds a user-submitted suggestion for a booth that is not
// in the directory yet.
type ReportBoothInput struct {
	Name          string
	Brand         string
	Address       string
	Latitude      float64
	Longitude     float64
	Description   string
	ReporterName  string
	ReporterEmail string
}

// Report accepts a booth suggestion and hands it to admins via a
// booth.reported event. It returns the report id.
func (s *BoothService) Report(ctx context.Context, input ReportBoothInput) (string, error) {
	if input.Name == "" {
		return "", apperrors.InvalidInput("name is required")
	}
	if input.Address == "" {
		return "", apperrors.InvalidInput("address is required")
	}
	if err := validateCoordinates(input.Latitude, input.Longitude); err != nil {
		return "", err
	}

	reportID := uuid.New().String()

	if s.producer != nil {
		err := s.producer.PublishBoothReported(ctx, event.BoothReportedData{
			ReportID:      reportID,
			Name:          input.Name,
			Brand:         input.Brand,
			Address:       input.Address,
			Latitude:      input.Latitude,
			Longitude:     input.Longitude,
			Description:   input.Description,
			ReporterName:  input.ReporterName,
			ReporterEmail: input.ReporterEmail,
		})
		if err != nil {
			// Unlike review events the report has no other persistence, so a
			// failed publish loses it.
			return "", fmt.Errorf("publish booth report: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "booth reported",
		slog.String("report_id", reportID),
		slog.String("name", input.Name),
		slog.String("address", input.Address),
	)

	return reportID, nil
}

// WarmCache loads every booth into the location cache.
func (s *BoothService) WarmCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}

	total, err := s.boothRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("count booths: %w", err)
	}
	if total == 0 {
		return nil
	}

	booths, _, err := s.boothRepo.List(ctx, "", 1, total)
	if err != nil {
		return fmt.Errorf("load booths for cache warm: %w", err)
	}

	if err := s.cache.Warm(ctx, booths); err != nil {
		return fmt.Errorf("warm booth cache: %w", err)
	}

	s.logger.InfoContext(ctx, "booth cache warmed",
		slog.Int("booths", len(booths)),
	)

	return nil
}

func (s *BoothService) cacheAdd(ctx context.Context, booth *domain.Booth) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Add(ctx, booth); err != nil {
		s.logger.WarnContext(ctx, "failed to cache booth",
			slog.String("booth_id", booth.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *BoothService) warmCache(ctx context.Context) {
	if err := s.WarmCache(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to warm booth cache",
			slog.String("error", err.Error()),
		)
	}
}

func validateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return apperrors.InvalidInput("latitude must be between -90 and 90")
	}
	if lng < -180 || lng > 180 {
		return apperrors.InvalidInput("longitude must be between -180 and 180")
	}
	return nil
}

func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}
