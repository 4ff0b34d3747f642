package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/chalkak/chalkak-server/internal/domain"
	"github.com/chalkak/chalkak-server/internal/repository"
	"github.com/chalkak/chalkak-server/pkg/database"
	apperrors "github.com/chalkak/chalkak-server/pkg/errors"
)

// RefreshTokenRepository implements repository.RefreshTokenRepository using PostgreSQL.
type RefreshTokenRepository struct {
	db database.DBTX
}

// NewRefreshTokenRepository creates a new PostgreSQL-backed refresh token repository.
func NewRefreshTokenRepository(db database.DBTX) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// Create stores a new refresh token record.
func (r *RefreshTokenRepository) Create(ctx context.Context, t *domain.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token_digest, device_info, family_id, expires_at, used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		t.ID,
		t.UserID,
		t.TokenDigest,
		t.DeviceInfo,
		t.FamilyID,
		t.ExpiresAt,
		t.Used,
		t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}

	return nil
}

// GetByDigest retrieves a refresh token record by its SHA-256 digest.
func (r *RefreshTokenRepository) GetByDigest(ctx context.Context, digest string) (*domain.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_digest, device_info, family_id, expires_at, used, created_at
		FROM refresh_tokens
		WHERE token_digest = $1`

	var t domain.RefreshToken
	err := r.db.QueryRow(ctx, query, digest).Scan(
		&t.ID,
		&t.UserID,
		&t.TokenDigest,
		&t.DeviceInfo,
		&t.FamilyID,
		&t.ExpiresAt,
		&t.Used,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan refresh token: %w", err)
	}

	return &t, nil
}

// Rotate atomically marks the old token as used and inserts its successor in
// one transaction. The conditional UPDATE guarantees that concurrent
// rotations of the same token cannot both succeed: the loser sees zero
// affected rows and gets ErrTokenConsumed.
func (r *RefreshTokenRepository) Rotate(ctx context.Context, oldDigest string, successor *domain.RefreshToken) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx,
		`UPDATE refresh_tokens SET used = true WHERE token_digest = $1 AND used = false`,
		oldDigest,
	)
	if err != nil {
		return fmt.Errorf("mark refresh token used: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrTokenConsumed
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token_digest, device_info, family_id, expires_at, used, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		successor.ID,
		successor.UserID,
		successor.TokenDigest,
		successor.DeviceInfo,
		successor.FamilyID,
		successor.ExpiresAt,
		successor.Used,
		successor.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert successor token: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// DeleteByDigest removes a single token record. Deleting a missing record is
// not an error, which makes logout idempotent.
func (r *RefreshTokenRepository) DeleteByDigest(ctx context.Context, digest string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE token_digest = $1`, digest)
	if err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

// DeleteAllByUser removes every token record belonging to the user.
func (r *RefreshTokenRepository) DeleteAllByUser(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete refresh tokens by user: %w", err)
	}
	return nil
}

// DeleteAllByFamily removes every token record in the rotation family.
func (r *RefreshTokenRepository) DeleteAllByFamily(ctx context.Context, familyID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE family_id = $1`, familyID)
	if err != nil {
		return fmt.Errorf("delete refresh tokens by family: %w", err)
	}
	return nil
}

// DeleteExpiredBefore removes records whose expiry is before the cutoff.
func (r *RefreshTokenRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ct, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	return ct.RowsAffected(), nil
}

// DeleteUsedCreatedBefore removes used records created before the cutoff.
func (r *RefreshTokenRepository) DeleteUsedCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ct, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE used = true AND created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete used refresh tokens: %w", err)
	}
	return ct.RowsAffected(), nil
}

// CountActive returns the number of unused, unexpired token records.
func (r *RefreshTokenRepository) CountActive(ctx context.Context, now time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM refresh_tokens WHERE used = false AND expires_at > $1`, now,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active refresh tokens: %w", err)
	}
	return count, nil
}
