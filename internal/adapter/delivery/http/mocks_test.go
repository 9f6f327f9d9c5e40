package http

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

type MockURLUseCase struct {
	mock.Mock
}

func (m *MockURLUseCase) ShortenURL(ctx context.Context, originalURL, userID, clientIP string) (*entity.URL, bool, error) {
	args := m.Called(ctx, originalURL, userID, clientIP)
	url, _ := args.Get(0).(*entity.URL)
	return url, args.Bool(1), args.Error(2)
}

func (m *MockURLUseCase) ResolveShortID(ctx context.Context, shortID string) (*entity.URL, error) {
	args := m.Called(ctx, shortID)
	url, _ := args.Get(0).(*entity.URL)
	return url, args.Error(1)
}

func (m *MockURLUseCase) GetUserHistory(ctx context.Context, userID string, page, limit int) (*entity.Page, error) {
	args := m.Called(ctx, userID, page, limit)
	res, _ := args.Get(0).(*entity.Page)
	return res, args.Error(1)
}

func (m *MockURLUseCase) GetURLStats(ctx context.Context, shortID string) (*entity.URL, error) {
	args := m.Called(ctx, shortID)
	url, _ := args.Get(0).(*entity.URL)
	return url, args.Error(1)
}

func (m *MockURLUseCase) DeleteURL(ctx context.Context, shortID, userID string) error {
	args := m.Called(ctx, shortID, userID)
	return args.Error(0)
}

type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) PingContext(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
