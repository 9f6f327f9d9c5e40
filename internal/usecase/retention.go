package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

const (
	DefaultUnusedURLTTL = 90 * 24 * time.Hour
	DefaultSessionTTL   = 30 * 24 * time.Hour
)

type retentionRepository interface {
	PurgeUnusedURLs(ctx context.Context, createdBefore time.Time) (int64, error)
	PurgeInactiveSessions(ctx context.Context, activeBefore time.Time) (int64, error)
}

// RetentionUseCase expires URLs that were never visited and sessions that
// have been inactive for longer than their retention window.
type RetentionUseCase struct {
	repo         retentionRepository
	unusedURLTTL time.Duration
	sessionTTL   time.Duration
	nowFunc      func() time.Time
}

func NewRetentionUseCase(repo retentionRepository, unusedURLTTL, sessionTTL time.Duration) *RetentionUseCase {
	if unusedURLTTL <= 0 {
		unusedURLTTL = DefaultUnusedURLTTL
	}
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}

	return &RetentionUseCase{
		repo:         repo,
		unusedURLTTL: unusedURLTTL,
		sessionTTL:   sessionTTL,
		nowFunc:      time.Now,
	}
}

// Sweep deletes expired records and reports how many were removed.
func (uc *RetentionUseCase) Sweep(ctx context.Context) (entity.SweepResult, error) {
	const op = "usecase.RetentionUseCase.Sweep"

	var res entity.SweepResult
	now := uc.nowFunc()

	n, err := uc.repo.PurgeUnusedURLs(ctx, now.Add(-uc.unusedURLTTL))
	if err != nil {
		return res, fmt.Errorf("%s: failed to purge unused urls: %w", op, err)
	}
	res.URLs = n

	n, err = uc.repo.PurgeInactiveSessions(ctx, now.Add(-uc.sessionTTL))
	if err != nil {
		return res, fmt.Errorf("%s: failed to purge inactive sessions: %w", op, err)
	}
	res.Sessions = n

	return res, nil
}
