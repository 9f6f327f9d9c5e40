package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// RetentionRepository deletes records whose retention window has passed.
type RetentionRepository struct {
	db *sqlx.DB
}

func NewRetentionRepository(db *sqlx.DB) *RetentionRepository {
	return &RetentionRepository{db: db}
}

// PurgeUnusedURLs deletes URLs that were never visited and were created before createdBefore.
func (r *RetentionRepository) PurgeUnusedURLs(ctx context.Context, createdBefore time.Time) (int64, error) {
	const op = "adapter.repository.postgres.RetentionRepository.PurgeUnusedURLs"
	const query = `DELETE FROM urls WHERE clicks = 0 AND created_at < $1`

	n, err := r.exec(ctx, query, createdBefore)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

// PurgeInactiveSessions deletes sessions with no activity since activeBefore.
func (r *RetentionRepository) PurgeInactiveSessions(ctx context.Context, activeBefore time.Time) (int64, error) {
	const op = "adapter.repository.postgres.RetentionRepository.PurgeInactiveSessions"
	const query = `DELETE FROM user_sessions WHERE last_activity < $1`

	n, err := r.exec(ctx, query, activeBefore)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

func (r *RetentionRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete rows: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get number of affected rows: %w", err)
	}

	return n, nil
}
