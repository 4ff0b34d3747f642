package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chalkak/chalkak-server/internal/domain"
	"github.com/chalkak/chalkak-server/internal/repository"
)

// FavoriteService implements booth bookmarking for users.
type FavoriteService struct {
	favoriteRepo repository.FavoriteRepository
	boothRepo    repository.BoothRepository
	logger       *slog.Logger
}

// NewFavoriteService creates a new favorite service.
func NewFavoriteService(
	favoriteRepo repository.FavoriteRepository,
	boothRepo repository.BoothRepository,
	logger *slog.Logger,
) *FavoriteService {
	return &FavoriteService{
		favoriteRepo: favoriteRepo,
		boothRepo:    boothRepo,
		logger:       logger,
	}
}

// Add bookmarks a booth for the user. Adding an existing favorite is a no-op.
func (s *FavoriteService) Add(ctx context.Context, userID, boothID string) error {
	// Favorites against unknown booths are rejected up front.
	if _, err := s.boothRepo.GetByID(ctx, boothID); err != nil {
		return fmt.Errorf("get booth for favorite: %w", err)
	}

	if err := s.favoriteRepo.Add(ctx, userID, boothID); err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}

	s.logger.InfoContext(ctx, "favorite added",
		slog.String("user_id", userID),
		slog.String("booth_id", boothID),
	)

	return nil
}

// Remove deletes a bookmark.
func (s *FavoriteService) Remove(ctx context.Context, userID, boothID string) error {
	if err := s.favoriteRepo.Remove(ctx, userID, boothID); err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}

	s.logger.InfoContext(ctx, "favorite removed",
		slog.String("user_id", userID),
		slog.String("booth_id", boothID),
	)

	return nil
}

// List returns the user's bookmarked booths, newest first.
func (s *FavoriteService) List(ctx context.Context, userID string, page, perPage int) ([]*domain.Favorite, int, error) {
	page, perPage = normalizePage(page, perPage)

	favorites, total, err := s.favoriteRepo.List(ctx, userID, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list favorites: %w", err)
	}

	return favorites, total, nil
}

// Exists reports whether the user has bookmarked the booth.
func (s *FavoriteService) Exists(ctx context.Context, userID, boothID string) (bool, error) {
	exists, err := s.favoriteRepo.Exists(ctx, userID, boothID)
	if err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return exists, nil
}
