package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chalkak/chalkak-server/internal/domain"
	apperrors "github.com/chalkak/chalkak-server/pkg/errors"
)

func sampleServiceBooth() *domain.Booth {
	now := time.Now().UTC()
	return &domain.Booth{
		ID:        "b-1",
		Name:      "Photoism Hongdae",
		Brand:     "photoism",
		Address:   "Seoul, Mapo-gu",
		Latitude:  37.5563,
		Longitude: 126.9220,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestBoothService_Create_Success(t *testing.T) {
	boothRepo := new(mockBoothRepository)
	boothCache := new(mockBoothCache)
	svc := NewBoothService(boothRepo, boothCache, nil, newTestLogger())
	ctx := context.Background()

	boothRepo.On("Create", ctx, mock.MatchedBy(func(b *domain.Booth) bool {
		return b.ID != "" && b.Name == "Photoism Hongdae"
	})).Return(nil)
	boothCache.On("Add", ctx, mock.AnythingOfType("*domain.Booth")).Return(nil)

	booth, err := svc.Create(ctx, CreateBoothInput{
		Name:      "Photoism Hongdae",
		Brand:     "photoism",
		Address:   "Seoul, Mapo-gu",
		Latitude:  37.5563,
		Longitude: 126.9220,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, booth.ID)
	boothRepo.AssertExpectations(t)
	boothCache.AssertExpectations(t)
}

func TestBoothService_Create_InvalidLatitude(t *testing.T) {
	svc := NewBoothService(new(mockBoothRepository), nil, nil, newTestLogger())

	_, err := svc.Create(context.Background(), CreateBoothInput{
		Name:      "Somewhere",
		Address:   "Nowhere",
		Latitude:  91.0,
		Longitude: 0,
	})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestBoothService_Create_MissingName(t *testing.T) {
	svc := NewBoothService(new(mockBoothRepository), nil, nil, newTestLogger())

	_, err := svc.Create(context.Background(), CreateBoothInput{Address: "Seoul"})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestBoothService_Report_ReturnsReportID(t *testing.T) {
	svc := NewBoothService(new(mockBoothRepository), nil, nil, newTestLogger())

	reportID, err := svc.Report(context.Background(), ReportBoothInput{
		Name:          "Photo Signature Gangnam",
		Address:       "Seoul, Gangnam-gu",
		Latitude:      37.4979,
		Longitude:     127.0276,
		ReporterEmail: "bob@example.com",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, reportID)
}

func TestBoothService_Report_MissingName(t *testing.T) {
	svc := NewBoothService(new(mockBoothRepository), nil, nil, newTestLogger())

	_, err := svc.Report(context.Background(), ReportBoothInput{Address: "Seoul"})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestBoothService_Report_InvalidCoordinates(t *testing.T) {
	svc := NewBoothService(new(mockBoothRepository), nil, nil, newTestLogger())

	_, err := svc.Report(context.Background(), ReportBoothInput{
		Name:      "Somewhere",
		Address:   "Nowhere",
		Latitude:  0,
		Longitude: 181.0,
	})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestBoothService_Nearby_CacheHit(t *testing.T) {
	boothRepo := new(mockBoothRepository)
	boothCache := new(mockBoothCache)
	svc := NewBoothService(boothRepo, boothCache, nil, newTestLogger())
	ctx := context.Background()

	cached := []domain.BoothWithDistance{
		{Booth: *sampleServiceBooth(), DistanceMeters: 42.0},
	}
	boothCache.On("Nearby", ctx, 37.5563, 126.9220, 1000.0, 50).Return(cached, true, nil)

	booths, err := svc.Nearby(ctx, 37.5563, 126.9220, 0, 0)

	require.NoError(t, err)
	require.Len(t, booths, 1)
	assert.InDelta(t, 42.0, booths[0].DistanceMeters, 0.01)
	boothRepo.AssertNotCalled(t, "Nearby", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBoothService_Nearby_ColdCacheFallsBackAndWarms(t *testing.T) {
	boothRepo := new(mockBoothRepository)
	boothCache := new(mockBoothCache)
	svc := NewBoothService(boothRepo, boothCache, nil, newTestLogger())
	ctx := context.Background()

	fromDB := []domain.BoothWithDistance{
		{Booth: *sampleServiceBooth(), DistanceMeters: 128.5},
	}
	all := []domain.Booth{*sampleServiceBooth()}

	boothCache.On("Nearby", ctx, 37.5563, 126.9220, 1000.0, 50).Return(nil, false, nil)
	boothRepo.On("Nearby", ctx, 37.5563, 126.9220, 1000.0, 50).Return(fromDB, nil)
	boothRepo.On("Count", ctx).Return(1, nil)
	boothRepo.On("List", ctx, "", 1, 1).Return(all, 1, nil)
	boothCache.On("Warm", ctx, all).Return(nil)

	booths, err := svc.Nearby(ctx, 37.5563, 126.9220, 0, 0)

	require.NoError(t, err)
	require.Len(t, booths, 1)
	boothCache.AssertExpectations(t)
	boothRepo.AssertExpectations(t)
}

func TestBoothService_Nearby_NoCache(t *testing.T) {
	boothRepo := new(mockBoothRepository)
	svc := NewBoothService(boothRepo, nil, nil, newTestLogger())
	ctx := context.Background()

	boothRepo.On("Nearby", ctx, 37.5563, 126.9220, 500.0, 10).
		Return([]domain.BoothWithDistance{}, nil)

	booths, err := svc.Nearby(ctx, 37.5563, 126.9220, 500.0, 10)

	require.NoError(t, err)
	assert.Empty(t, booths)
}

func TestBoothService_Nearby_RadiusAndLimitClamped(t *testing.T) {
	boothRepo := new(mockBoothRepository)
	svc := NewBoothService(boothRepo, nil, nil, newTestLogger())
	ctx := context.Background()

	boothRepo.On("Nearby", ctx, 0.0, 0.0, maxNearbyRadiusMeters, maxNearbyLimit).
		Return([]domain.BoothWithDistance{}, nil)

	_, err := svc.Nearby(ctx, 0, 0, 99999, 5000)

	require.NoError(t, err)
	boothRepo.AssertExpectations(t)
}

func TestBoothService_Nearby_InvalidCoordinates(t *testing.T) {
	svc := NewBoothService(new(mockBoothRepository), nil, nil, newTestLogger())

	_, err := svc.Nearby(context.Background(), 37.5, 181.0, 1000, 50)

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestBoothService_Update_Success(t *testing.T) {
	boothRepo := new(mockBoothRepository)
	boothCache := new(mockBoothCache)
	svc := NewBoothService(boothRepo, boothCache, nil, newTestLogger())
	ctx := context.Background()

	boothRepo.On("GetByID", ctx, "b-1").Return(sampleServiceBooth(), nil)
	boothRepo.On("Update", ctx, mock.MatchedBy(func(b *domain.Booth) bool {
		return b.Name == "Photoism Hapjeong"
	})).Return(nil)
	boothCache.On("Add", ctx, mock.AnythingOfType("*domain.Booth")).Return(nil)

	booth, err := svc.Update(ctx, "b-1", UpdateBoothInput{Name: strPtr("Photoism Hapjeong")})

	require.NoError(t, err)
	assert.Equal(t, "Photoism Hapjeong", booth.Name)
}

func TestBoothService_Update_NotFound(t *testing.T) {
	boothRepo := new(mockBoothRepository)
	svc := NewBoothService(boothRepo, nil, nil, newTestLogger())
	ctx := context.Background()

	boothRepo.On("GetByID", ctx, "missing").Return(nil, apperrors.NotFound("booth", "missing"))

	_, err := svc.Update(ctx, "missing", UpdateBoothInput{})

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestBoothService_Delete_EvictsCache(t *testing.T) {
	boothRepo := new(mockBoothRepository)
	boothCache := new(mockBoothCache)
	svc := NewBoothService(boothRepo, boothCache, nil, newTestLogger())
	ctx := context.Background()

	boothRepo.On("Delete", ctx, "b-1").Return(nil)
	boothCache.On("Remove", ctx, "b-1").Return(nil)

	err := svc.Delete(ctx, "b-1")

	require.NoError(t, err)
	boothCache.AssertExpectations(t)
}
