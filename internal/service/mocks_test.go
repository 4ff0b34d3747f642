package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/chalkak/chalkak-server/internal/auth"
	"github.com/chalkak/chalkak-server/internal/domain"
	"github.com/chalkak/chalkak-server/internal/identity"
)

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByProvider(ctx context.Context, provider, providerID string) (*domain.User, error) {
	args := m.Called(ctx, provider, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) UpdateRole(ctx context.Context, id, role string) error {
	args := m.Called(ctx, id, role)
	return args.Error(0)
}

func (m *mockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockUserRepository) List(ctx context.Context, page, perPage int) ([]domain.User, int, error) {
	args := m.Called(ctx, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.User), args.Int(1), args.Error(2)
}

func (m *mockUserRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// --- Mock Refresh Token Repository ---

type mockRefreshTokenRepository struct {
	mock.Mock
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *mockRefreshTokenRepository) GetByDigest(ctx context.Context, digest string) (*domain.RefreshToken, error) {
	args := m.Called(ctx, digest)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefreshToken), args.Error(1)
}

func (m *mockRefreshTokenRepository) Rotate(ctx context.Context, oldDigest string, successor *domain.RefreshToken) error {
	args := m.Called(ctx, oldDigest, successor)
	return args.Error(0)
}

func (m *mockRefreshTokenRepository) DeleteByDigest(ctx context.Context, digest string) error {
	args := m.Called(ctx, digest)
	return args.Error(0)
}

func (m *mockRefreshTokenRepository) DeleteAllByUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockRefreshTokenRepository) DeleteAllByFamily(ctx context.Context, familyID string) error {
	args := m.Called(ctx, familyID)
	return args.Error(0)
}

func (m *mockRefreshTokenRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRefreshTokenRepository) DeleteUsedCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRefreshTokenRepository) CountActive(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

// --- Mock Booth Repository ---

type mockBoothRepository struct {
	mock.Mock
}

func (m *mockBoothRepository) Create(ctx context.Context, booth *domain.Booth) error {
	args := m.Called(ctx, booth)
	return args.Error(0)
}

func (m *mockBoothRepository) GetByID(ctx context.Context, id string) (*domain.Booth, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booth), args.Error(1)
}

func (m *mockBoothRepository) List(ctx context.Context, brand string, page, perPage int) ([]domain.Booth, int, error) {
	args := m.Called(ctx, brand, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Booth), args.Int(1), args.Error(2)
}

func (m *mockBoothRepository) Nearby(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]domain.BoothWithDistance, error) {
	args := m.Called(ctx, lat, lng, radiusMeters, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BoothWithDistance), args.Error(1)
}

func (m *mockBoothRepository) Update(ctx context.Context, booth *domain.Booth) error {
	args := m.Called(ctx, booth)
	return args.Error(0)
}

func (m *mockBoothRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockBoothRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// --- Mock Review Repository ---

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) ListByBooth(ctx context.Context, boothID string, page, perPage int) ([]domain.Review, int, error) {
	args := m.Called(ctx, boothID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func (m *mockReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockReviewRepository) Stats(ctx context.Context, boothID string) (*domain.RatingStats, error) {
	args := m.Called(ctx, boothID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RatingStats), args.Error(1)
}

func (m *mockReviewRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// --- Mock Favorite Repository ---

type mockFavoriteRepository struct {
	mock.Mock
}

func (m *mockFavoriteRepository) Add(ctx context.Context, userID, boothID string) error {
	args := m.Called(ctx, userID, boothID)
	return args.Error(0)
}

func (m *mockFavoriteRepository) Remove(ctx context.Context, userID, boothID string) error {
	args := m.Called(ctx, userID, boothID)
	return args.Error(0)
}

func (m *mockFavoriteRepository) List(ctx context.Context, userID string, page, perPage int) ([]*domain.Favorite, int, error) {
	args := m.Called(ctx, userID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*domain.Favorite), args.Int(1), args.Error(2)
}

func (m *mockFavoriteRepository) Exists(ctx context.Context, userID, boothID string) (bool, error) {
	args := m.Called(ctx, userID, boothID)
	return args.Bool(0), args.Error(1)
}

// --- Mock Booth Location Cache ---

type mockBoothCache struct {
	mock.Mock
}

func (m *mockBoothCache) Add(ctx context.Context, booth *domain.Booth) error {
	args := m.Called(ctx, booth)
	return args.Error(0)
}

func (m *mockBoothCache) Remove(ctx context.Context, boothID string) error {
	args := m.Called(ctx, boothID)
	return args.Error(0)
}

func (m *mockBoothCache) Warm(ctx context.Context, booths []domain.Booth) error {
	args := m.Called(ctx, booths)
	return args.Error(0)
}

func (m *mockBoothCache) Nearby(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]domain.BoothWithDistance, bool, error) {
	args := m.Called(ctx, lat, lng, radiusMeters, limit)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]domain.BoothWithDistance), args.Bool(1), args.Error(2)
}

// --- Mock Identity Resolver ---

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(ctx context.Context, credential string) (*identity.UserInfo, error) {
	args := m.Called(ctx, credential)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.UserInfo), args.Error(1)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestJWTManager() *auth.JWTManager {
	mgr, err := auth.NewJWTManager("test-secret-key-with-32-bytes-ok!!", time.Hour, 336*time.Hour)
	if err != nil {
		panic(err)
	}
	return mgr
}

func strPtr(s string) *string {
	return &s
}

func intPtr(i int) *int {
	return &i
}
