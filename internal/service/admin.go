package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chalkak/chalkak-server/internal/domain"
	"github.com/chalkak/chalkak-server/internal/repository"
	apperrors "github.com/chalkak/chalkak-server/pkg/errors"
)

// AdminService implements operator-facing management operations.
type AdminService struct {
	userRepo         repository.UserRepository
	boothRepo        repository.BoothRepository
	reviewRepo       repository.ReviewRepository
	refreshTokenRepo repository.RefreshTokenRepository
	logger           *slog.Logger
	now              func() time.Time
}

// NewAdminService creates a new admin service.
func NewAdminService(
	userRepo repository.UserRepository,
	boothRepo repository.BoothRepository,
	reviewRepo repository.ReviewRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		userRepo:         userRepo,
		boothRepo:        boothRepo,
		reviewRepo:       reviewRepo,
		refreshTokenRepo: refreshTokenRepo,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// Stats summarizes the service's data for the admin dashboard.
type Stats struct {
	Users          int `json:"users"`
	Booths         int `json:"booths"`
	Reviews        int `json:"reviews"`
	ActiveSessions int `json:"active_sessions"`
}

// Stats returns aggregate counts across the service.
func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	users, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	booths, err := s.boothRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count booths: %w", err)
	}

	reviews, err := s.reviewRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}

	sessions, err := s.refreshTokenRepo.CountActive(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("count active sessions: %w", err)
	}

	return &Stats{
		Users:          users,
		Booths:         booths,
		Reviews:        reviews,
		ActiveSessions: sessions,
	}, nil
}

// ListUsers returns users with pagination, newest first.
func (s *AdminService) ListUsers(ctx context.Context, page, perPage int) ([]domain.User, int, error) {
	page, perPage = normalizePage(page, perPage)

	users, total, err := s.userRepo.List(ctx, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

// UpdateUserRole changes a user's role and revokes their active sessions so
// the new role takes effect at the next login.
func (s *AdminService) UpdateUserRole(ctx context.Context, userID, role string) error {
	if !domain.IsValidRole(role) {
		return apperrors.InvalidInput(fmt.Sprintf("invalid role %q", role))
	}

	if err := s.userRepo.UpdateRole(ctx, userID, role); err != nil {
		return fmt.Errorf("update user role: %w", err)
	}

	if err := s.refreshTokenRepo.DeleteAllByUser(ctx, userID); err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke sessions after role change",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user role updated",
		slog.String("user_id", userID),
		slog.String("role", role),
	)

	return nil
}
