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

// maxReviewContentLength bounds the review body.
const maxReviewContentLength = 2000

// ReviewService implements booth review operations.
type ReviewService struct {
	reviewRepo repository.ReviewRepository
	boothRepo  repository.BoothRepository
	producer   *event.Producer
	logger     *slog.Logger
}

// NewReviewService creates a new review service. producer may be nil when
// event publishing is disabled.
func NewReviewService(
	reviewRepo repository.ReviewRepository,
	boothRepo repository.BoothRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviewRepo: reviewRepo,
		boothRepo:  boothRepo,
		producer:   producer,
		logger:     logger,
	}
}

// CreateReviewInput holds the parameters for posting a review.
type CreateReviewInput struct {
	BoothID string
	UserID  string
	Rating  int
	Content string
}

// UpdateReviewInput holds the parameters for editing a review.
type UpdateReviewInput struct {
	Rating  *int
	Content *string
}

// BoothReviews bundles a booth's reviews with its rating aggregate.
type BoothReviews struct {
	Reviews []domain.Review
	Total   int
	Stats   *domain.RatingStats
}

// Create posts a review for a booth. Each user may review a booth once.
func (s *ReviewService) Create(ctx context.Context, input CreateReviewInput) (*domain.Review, error) {
	if err := validateRating(input.Rating); err != nil {
		return nil, err
	}
	if len(input.Content) > maxReviewContentLength {
		return nil, apperrors.InvalidInput(fmt.Sprintf("content must not exceed %d characters", maxReviewContentLength))
	}

	// Reviews against unknown booths are rejected up front.
	if _, err := s.boothRepo.GetByID(ctx, input.BoothID); err != nil {
		return nil, fmt.Errorf("get booth for review: %w", err)
	}

	now := time.Now().UTC()
	review := &domain.Review{
		ID:        uuid.New().String(),
		BoothID:   input.BoothID,
		UserID:    input.UserID,
		Rating:    input.Rating,
		Content:   input.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	if s.producer != nil {
		if err := s.producer.PublishReviewCreated(ctx, review); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish review.created event",
				slog.String("review_id", review.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("booth_id", review.BoothID),
		slog.Int("rating", review.Rating),
	)

	return review, nil
}

// ListByBooth returns a booth's reviews alongside its rating aggregate.
func (s *ReviewService) ListByBooth(ctx context.Context, boothID string, page, perPage int) (*BoothReviews, error) {
	page, perPage = normalizePage(page, perPage)

	reviews, total, err := s.reviewRepo.ListByBooth(ctx, boothID, page, perPage)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	stats, err := s.reviewRepo.Stats(ctx, boothID)
	if err != nil {
		return nil, fmt.Errorf("review stats: %w", err)
	}

	return &BoothReviews{
		Reviews: reviews,
		Total:   total,
		Stats:   stats,
	}, nil
}

// Update edits a review. Only the author may edit it.
func (s *ReviewService) Update(ctx context.Context, reviewID, userID string, input UpdateReviewInput) (*domain.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("get review for update: %w", err)
	}

	if review.UserID != userID {
		return nil, apperrors.Forbidden("only the author can edit this review")
	}

	if input.Rating != nil {
		if err := validateRating(*input.Rating); err != nil {
			return nil, err
		}
		review.Rating = *input.Rating
	}
	if input.Content != nil {
		if len(*input.Content) > maxReviewContentLength {
			return nil, apperrors.InvalidInput(fmt.Sprintf("content must not exceed %d characters", maxReviewContentLength))
		}
		review.Content = *input.Content
	}

	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	s.logger.InfoContext(ctx, "review updated",
		slog.String("review_id", review.ID),
	)

	return review, nil
}

// Delete removes a review. The author or an admin may delete it.
func (s *ReviewService) Delete(ctx context.Context, reviewID, userID, role string) error {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return fmt.Errorf("get review for delete: %w", err)
	}

	if review.UserID != userID && role != domain.RoleAdmin {
		return apperrors.Forbidden("only the author or an admin can delete this review")
	}

	if err := s.reviewRepo.Delete(ctx, reviewID); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", reviewID),
		slog.String("deleted_by", userID),
	)

	return nil
}

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return apperrors.InvalidInput("rating must be between 1 and 5")
	}
	return nil
}
