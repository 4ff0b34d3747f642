package repository

import (
	"context"
	"errors"
	"time"

	"github.com/chalkak/chalkak-server/internal/domain"
)

// ErrTokenConsumed is returned by Rotate when the token was already marked
// used, meaning a concurrent rotation won the race.
var ErrTokenConsumed = errors.New("refresh token already consumed")

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByProvider retrieves a user by their (provider, provider id) pair.
	GetByProvider(ctx context.Context, provider, providerID string) (*domain.User, error)

	// Update modifies an existing user in the store.
	Update(ctx context.Context, user *domain.User) error

	// UpdateRole changes a user's role.
	UpdateRole(ctx context.Context, id, role string) error

	// Delete removes a user from the store by their identifier.
	Delete(ctx context.Context, id string) error

	// List returns a paginated list of users and the total count.
	List(ctx context.Context, page, perPage int) ([]domain.User, int, error)

	// Count returns the total number of users.
	Count(ctx context.Context) (int, error)
}

// RefreshTokenRepository defines the interface for refresh token persistence
// operations.
type RefreshTokenRepository interface {
	// Create stores a new refresh token record.
	Create(ctx context.Context, token *domain.RefreshToken) error

	// GetByDigest retrieves a refresh token record by its SHA-256 digest.
	GetByDigest(ctx context.Context, digest string) (*domain.RefreshToken, error)

	// Rotate atomically marks the old token as used and inserts its successor.
	// Returns ErrTokenConsumed when the old token was already used.
	Rotate(ctx context.Context, oldDigest string, successor *domain.RefreshToken) error

	// DeleteByDigest removes a single token record. Missing records are not an error.
	DeleteByDigest(ctx context.Context, digest string) error

	// DeleteAllByUser removes every token record belonging to the user.
	DeleteAllByUser(ctx context.Context, userID string) error

	// DeleteAllByFamily removes every token record in the rotation family.
	DeleteAllByFamily(ctx context.Context, familyID string) error

	// DeleteExpiredBefore removes records whose expiry is before the cutoff
	// and returns how many were removed.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// DeleteUsedCreatedBefore removes used records created before the cutoff
	// and returns how many were removed.
	DeleteUsedCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// CountActive returns the number of unused, unexpired token records.
	CountActive(ctx context.Context, now time.Time) (int, error)
}

// BoothRepository defines the interface for booth persistence operations.
type BoothRepository interface {
	// Create inserts a new booth into the store.
	Create(ctx context.Context, booth *domain.Booth) error

	// GetByID retrieves a booth by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Booth, error)

	// List returns a paginated list of booths, optionally filtered by brand,
	// and the total count.
	List(ctx context.Context, brand string, page, perPage int) ([]domain.Booth, int, error)

	// Nearby returns booths within radiusMeters of the given point, nearest
	// first, capped at limit.
	Nearby(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]domain.BoothWithDistance, error)

	// Update modifies an existing booth in the store.
	Update(ctx context.Context, booth *domain.Booth) error

	// Delete removes a booth from the store by its identifier.
	Delete(ctx context.Context, id string) error

	// Count returns the total number of booths.
	Count(ctx context.Context) (int, error)
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Create inserts a new review into the store.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// ListByBooth returns a paginated list of reviews for the booth and the
	// total count.
	ListByBooth(ctx context.Context, boothID string, page, perPage int) ([]domain.Review, int, error)

	// Update modifies an existing review in the store.
	Update(ctx context.Context, review *domain.Review) error

	// Delete removes a review from the store by its identifier.
	Delete(ctx context.Context, id string) error

	// Stats returns the review count and average rating for the booth.
	Stats(ctx context.Context, boothID string) (*domain.RatingStats, error)

	// Count returns the total number of reviews.
	Count(ctx context.Context) (int, error)
}

// FavoriteRepository defines the interface for favorite persistence operations.
type FavoriteRepository interface {
	// Add inserts a booth into the user's favorites (idempotent).
	Add(ctx context.Context, userID, boothID string) error

	// Remove deletes a booth from the user's favorites.
	Remove(ctx context.Context, userID, boothID string) error

	// List returns a paginated list of the user's favorites and the total count.
	List(ctx context.Context, userID string, page, perPage int) ([]*domain.Favorite, int, error)

	// Exists checks whether a booth is in the user's favorites.
	Exists(ctx context.Context, userID, boothID string) (bool, error)
}
