package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chalkak/chalkak-server/internal/domain"
	pkgkafka "github.com/chalkak/chalkak-server/pkg/kafka"
)

// Kafka topics for chalkak domain events.
var (
	TopicUserRegistered = pkgkafka.Topic("user", "registered")
	TopicUserDeleted    = pkgkafka.Topic("user", "deleted")
	TopicReviewCreated  = pkgkafka.Topic("review", "created")
	TopicBoothReported  = pkgkafka.Topic("booth", "reported")
)

// Aggregate type constants.
const (
	AggregateTypeUser   = "user"
	AggregateTypeReview = "review"
	AggregateTypeBooth  = "booth"
)

// Source identifier for events originating from this server.
const SourceChalkakServer = "chalkak-server"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
	Email    string `json:"email,omitempty"`
	Nickname string `json:"nickname,omitempty"`
	Role     string `json:"role"`
}

// UserDeletedData is the payload for a user.deleted event.
type UserDeletedData struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
}

// ReviewCreatedData is the payload for a review.created event.
type ReviewCreatedData struct {
	ID      string `json:"id"`
	BoothID string `json:"booth_id"`
	UserID  string `json:"user_id"`
	Rating  int    `json:"rating"`
}

// BoothReportedData is the payload for a booth.reported event. It carries a
// user-submitted suggestion for a booth not yet in the directory.
type BoothReportedData struct {
	ReportID      string  `json:"report_id"`
	Name          string  `json:"name"`
	Brand         string  `json:"brand,omitempty"`
	Address       string  `json:"address"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Description   string  `json:"description,omitempty"`
	ReporterName  string  `json:"reporter_name,omitempty"`
	ReporterEmail string  `json:"reporter_email,omitempty"`
}

// Producer publishes chalkak domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		ID:       user.ID,
		Provider: user.Provider,
		Email:    user.Email,
		Nickname: user.Nickname,
		Role:     user.Role,
	}

	event, err := pkgkafka.NewEvent(TopicUserRegistered, user.ID, AggregateTypeUser, SourceChalkakServer, data)
	if err != nil {
		return fmt.Errorf("create user.registered event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserRegistered, event); err != nil {
		return fmt.Errorf("publish user.registered event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.registered event",
		slog.String("user_id", user.ID),
		slog.String("provider", user.Provider),
	)

	return nil
}

// PublishUserDeleted publishes a user.deleted event.
func (p *Producer) PublishUserDeleted(ctx context.Context, user *domain.User) error {
	data := UserDeletedData{
		ID:       user.ID,
		Provider: user.Provider,
	}

	event, err := pkgkafka.NewEvent(TopicUserDeleted, user.ID, AggregateTypeUser, SourceChalkakServer, data)
	if err != nil {
		return fmt.Errorf("create user.deleted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicUserDeleted, event); err != nil {
		return fmt.Errorf("publish user.deleted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published user.deleted event",
		slog.String("user_id", user.ID),
	)

	return nil
}

// PublishBoothReported publishes a booth.reported event. Downstream
// consumers turn these into admin notifications.
func (p *Producer) PublishBoothReported(ctx context.Context, data BoothReportedData) error {
	event, err := pkgkafka.NewEvent(TopicBoothReported, data.ReportID, AggregateTypeBooth, SourceChalkakServer, data)
	if err != nil {
		return fmt.Errorf("create booth.reported event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicBoothReported, event); err != nil {
		return fmt.Errorf("publish booth.reported event: %w", err)
	}

	p.logger.DebugContext(ctx, "published booth.reported event",
		slog.String("report_id", data.ReportID),
		slog.String("name", data.Name),
	)

	return nil
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	data := ReviewCreatedData{
		ID:      review.ID,
		BoothID: review.BoothID,
		UserID:  review.UserID,
		Rating:  review.Rating,
	}

	event, err := pkgkafka.NewEvent(TopicReviewCreated, review.ID, AggregateTypeReview, SourceChalkakServer, data)
	if err != nil {
		return fmt.Errorf("create review.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewCreated, event); err != nil {
		return fmt.Errorf("publish review.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.created event",
		slog.String("review_id", review.ID),
		slog.String("booth_id", review.BoothID),
	)

	return nil
}
