package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/chalkak/chalkak-server/internal/repository"
)

// TokenJanitor periodically removes refresh tokens that no longer grant
// access: expired rows and consumed rows past their retention window.
type TokenJanitor struct {
	repo      repository.RefreshTokenRepository
	interval  time.Duration
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewTokenJanitor creates a janitor that sweeps every interval and keeps
// used tokens around for retention before deleting them.
func NewTokenJanitor(
	repo repository.RefreshTokenRepository,
	interval time.Duration,
	retention time.Duration,
	logger *slog.Logger,
) *TokenJanitor {
	return &TokenJanitor{
		repo:      repo,
		interval:  interval,
		retention: retention,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run sweeps on a ticker until the context is cancelled.
func (j *TokenJanitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.Info("token janitor started",
		slog.Duration("interval", j.interval),
		slog.Duration("used_token_retention", j.retention),
	)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("token janitor stopped")
			return
		case <-ticker.C:
			j.Sweep(ctx)
		}
	}
}

// Sweep performs a single cleanup pass. Failures are logged, not fatal; the
// next tick retries.
func (j *TokenJanitor) Sweep(ctx context.Context) {
	now := j.now()

	expired, err := j.repo.DeleteExpiredBefore(ctx, now)
	if err != nil {
		j.logger.ErrorContext(ctx, "failed to delete expired refresh tokens",
			slog.String("error", err.Error()),
		)
	}

	used, err := j.repo.DeleteUsedCreatedBefore(ctx, now.Add(-j.retention))
	if err != nil {
		j.logger.ErrorContext(ctx, "failed to delete consumed refresh tokens",
			slog.String("error", err.Error()),
		)
	}

	if expired > 0 || used > 0 {
		j.logger.InfoContext(ctx, "token sweep completed",
			slog.Int64("expired_deleted", expired),
			slog.Int64("used_deleted", used),
		)
	}
}
