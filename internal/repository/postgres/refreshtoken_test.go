package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chalkak/chalkak-server/internal/domain"
	"github.com/chalkak/chalkak-server/internal/repository"
	apperrors "github.com/chalkak/chalkak-server/pkg/errors"
)

func newTokenTestFixture(t *testing.T) (*RefreshTokenRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := NewRefreshTokenRepository(mock)
	return repo, mock
}

func sampleToken() *domain.RefreshToken {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.RefreshToken{
		ID:          "rt-1",
		UserID:      "u-1234",
		TokenDigest: "digest-aaa",
		DeviceInfo:  "iPhone 15",
		FamilyID:    "fam-1",
		ExpiresAt:   now.Add(336 * time.Hour),
		Used:        false,
		CreatedAt:   now,
	}
}

func tokenColumns() []string {
	return []string{
		"id", "user_id", "token_digest", "device_info",
		"family_id", "expires_at", "used", "created_at",
	}
}

func tokenRow(rt *domain.RefreshToken) *pgxmock.Rows {
	return pgxmock.NewRows(tokenColumns()).AddRow(
		rt.ID, rt.UserID, rt.TokenDigest, rt.DeviceInfo,
		rt.FamilyID, rt.ExpiresAt, rt.Used, rt.CreatedAt,
	)
}

// ---------------------------------------------------------------------------
// Create / GetByDigest
// ---------------------------------------------------------------------------

func TestRefreshTokenRepository_Create_Success(t *testing.T) {
	repo, mock := newTokenTestFixture(t)
	defer mock.Close()

	rt := sampleToken()

	mock.ExpectExec("INSERT INTO refresh_tokens").
		WithArgs(
			rt.ID, rt.UserID, rt.TokenDigest, rt.DeviceInfo,
			rt.FamilyID, rt.ExpiresAt, rt.Used, rt.CreatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), rt)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_GetByDigest_Success(t *testing.T) {
	repo, mock := newTokenTestFixture(t)
	defer mock.Close()

	rt := sampleToken()

	mock.ExpectQuery("SELECT .+ FROM refresh_tokens WHERE token_digest =").
		WithArgs(rt.TokenDigest).
		WillReturnRows(tokenRow(rt))

	got, err := repo.GetByDigest(context.Background(), rt.TokenDigest)
	require.NoError(t, err)
	assert.Equal(t, rt.UserID, got.UserID)
	assert.Equal(t, rt.FamilyID, got.FamilyID)
	assert.False(t, got.Used)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_GetByDigest_NotFound(t *testing.T) {
	repo, mock := newTokenTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM refresh_tokens WHERE token_digest =").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetByDigest(context.Background(), "missing")
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Rotate
// ---------------------------------------------------------------------------

func TestRefreshTokenRepository_Rotate_Success(t *testing.T) {
	repo, mock := newTokenTestFixture(t)
	defer mock.Close()

	successor := sampleToken()
	successor.ID = "rt-2"
	successor.TokenDigest = "digest-bbb"

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE refresh_tokens SET used = true WHERE token_digest = .+ AND used = false").
		WithArgs("digest-aaa").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO refresh_tokens").
		WithArgs(
			successor.ID, successor.UserID, successor.TokenDigest, successor.DeviceInfo,
			successor.FamilyID, successor.ExpiresAt, successor.Used, successor.CreatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := repo.Rotate(context.Background(), "digest-aaa", successor)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_Rotate_AlreadyConsumed(t *testing.T) {
	repo, mock := newTokenTestFixture(t)
	defer mock.Close()

	successor := sampleToken()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE refresh_tokens SET used = true WHERE token_digest = .+ AND used = false").
		WithArgs("digest-aaa").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := repo.Rotate(context.Background(), "digest-aaa", successor)
	require.Error(t, err)
	assert.True(t, errors.Is(err, repository.ErrTokenConsumed), "expected ErrTokenConsumed, got: %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_Rotate_InsertFails_RollsBack(t *testing.T) {
	repo, mock := newTokenTestFixture(t)
	defer mock.Close()

	successor := sampleToken()
	successor.ID = "rt-2"
	successor.TokenDigest = "digest-bbb"

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE refresh_tokens SET used = true").
		WithArgs("digest-aaa").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO refresh_tokens").
		WithArgs(
			successor.ID, successor.UserID, successor.TokenDigest, successor.DeviceInfo,
			successor.FamilyID, successor.ExpiresAt, successor.Used, successor.CreatedAt,
		).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.Rotate(context.Background(), "digest-aaa", successor)
	require.Error(t, err)
	assert.False(t, errors.Is(err, repository.ErrTokenConsumed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Deletes
// ---------------------------------------------------------------------------

func TestRefreshTokenRepository_DeleteByDigest_MissingIsNotError(t *testing.T) {
	repo, mock := newTokenTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM refresh_tokens WHERE token_digest =").
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.DeleteByDigest(context.Background(), "missing")
	assert.NoError(t, err, "deleting an absent token must be idempotent")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_DeleteAllByUser(t *testing.T) {
	repo, mock := newTokenTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM refresh_tokens WHERE user_id =").
		WithArgs("u-1234").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	err := repo.DeleteAllByUser(context.Background(), "u-1234")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_DeleteAllByFamily(t *testing.T) {
	repo, mock := newTokenTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM refresh_tokens WHERE family_id =").
		WithArgs("fam-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 5))

	err := repo.DeleteAllByFamily(context.Background(), "fam-1")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_DeleteExpiredBefore(t *testing.T) {
	repo, mock := newTokenTestFixture(t)
	defer mock.Close()

	cutoff := time.Now().UTC()

	mock.ExpectExec("DELETE FROM refresh_tokens WHERE expires_at <").
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 7))

	n, err := repo.DeleteExpiredBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_DeleteUsedCreatedBefore(t *testing.T) {
	repo, mock := newTokenTestFixture(t)
	defer mock.Close()

	cutoff := time.Now().UTC().Add(-24 * time.Hour)

	mock.ExpectExec("DELETE FROM refresh_tokens WHERE used = true AND created_at <").
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	n, err := repo.DeleteUsedCreatedBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_CountActive(t *testing.T) {
	repo, mock := newTokenTestFixture(t)
	defer mock.Close()

	now := time.Now().UTC()

	mock.ExpectQuery("SELECT COUNT.+ FROM refresh_tokens WHERE used = false AND expires_at >").
		WithArgs(now).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(11))

	count, err := repo.CountActive(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 11, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
