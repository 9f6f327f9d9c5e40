package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

type sweeper interface {
	Sweep(ctx context.Context) (entity.SweepResult, error)
}

// runSweeper calls s.Sweep every interval until ctx is done. A failed pass
// is logged and retried on the next tick.
func runSweeper(ctx context.Context, logger *slog.Logger, s sweeper, interval time.Duration) {
	const op = "app.runSweeper"

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := s.Sweep(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Error("retention sweep failed", slog.Group(op, slog.Any("err", err)))
				continue
			}

			logger.Info("retention sweep finished",
				slog.Int64("urls", res.URLs),
				slog.Int64("sessions", res.Sessions),
			)
		}
	}
}
