package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

type MockURLRepository struct {
	mock.Mock
}

func (r *MockURLRepository) Save(ctx context.Context, url *entity.URL) (*entity.URL, error) {
	args := r.Called(ctx, url)
	res, _ := args.Get(0).(*entity.URL)
	return res, args.Error(1)
}

func (r *MockURLRepository) ExistsShortID(ctx context.Context, shortID string) (bool, error) {
	args := r.Called(ctx, shortID)
	return args.Bool(0), args.Error(1)
}

func (r *MockURLRepository) RetrieveByShortID(ctx context.Context, shortID string) (*entity.URL, error) {
	args := r.Called(ctx, shortID)
	url, _ := args.Get(0).(*entity.URL)
	return url, args.Error(1)
}

func (r *MockURLRepository) RetrieveByOwner(ctx context.Context, originalURL, userID string) (*entity.URL, error) {
	args := r.Called(ctx, originalURL, userID)
	url, _ := args.Get(0).(*entity.URL)
	return url, args.Error(1)
}

func (r *MockURLRepository) RetrieveAndUpdateStats(ctx context.Context, shortID string) (*entity.URL, error) {
	args := r.Called(ctx, shortID)
	url, _ := args.Get(0).(*entity.URL)
	return url, args.Error(1)
}

func (r *MockURLRepository) ListBySession(ctx context.Context, userID string, limit, offset int) ([]entity.URL, int64, error) {
	args := r.Called(ctx, userID, limit, offset)
	urls, _ := args.Get(0).([]entity.URL)
	return urls, args.Get(1).(int64), args.Error(2)
}

func (r *MockURLRepository) ListByOwner(ctx context.Context, userID string, limit, offset int) ([]entity.URL, int64, error) {
	args := r.Called(ctx, userID, limit, offset)
	urls, _ := args.Get(0).([]entity.URL)
	return urls, args.Get(1).(int64), args.Error(2)
}

func (r *MockURLRepository) RemoveOwned(ctx context.Context, shortID, userID string) error {
	args := r.Called(ctx, shortID, userID)
	return args.Error(0)
}

type MockShortIDGenerator struct {
	mock.Mock
}

func (g *MockShortIDGenerator) Generate() (string, error) {
	args := g.Called()
	return args.String(0), args.Error(1)
}

type MockRetentionRepository struct {
	mock.Mock
}

func (r *MockRetentionRepository) PurgeUnusedURLs(ctx context.Context, createdBefore time.Time) (int64, error) {
	args := r.Called(ctx, createdBefore)
	return args.Get(0).(int64), args.Error(1)
}

func (r *MockRetentionRepository) PurgeInactiveSessions(ctx context.Context, activeBefore time.Time) (int64, error) {
	args := r.Called(ctx, activeBefore)
	return args.Get(0).(int64), args.Error(1)
}
