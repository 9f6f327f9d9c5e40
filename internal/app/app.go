// Package app wires the configuration, database, use cases and HTTP
// delivery layer into a running service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/shortlink/internal/adapter/repository/postgres"
	"github.com/vadimbarashkov/shortlink/internal/config"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/usecase"
	"github.com/vadimbarashkov/shortlink/pkg/shortid"
	"golang.org/x/sync/errgroup"

	deliveryHTTP "github.com/vadimbarashkov/shortlink/internal/adapter/delivery/http"
	pgPkg "github.com/vadimbarashkov/shortlink/pkg/postgres"
)

const shutdownTimeout = 10 * time.Second

// Run connects to the database, applies migrations and serves HTTP until
// ctx is cancelled. The retention sweep runs in the background meanwhile.
func Run(ctx context.Context, cfg *config.Config, logger *httplog.Logger) error {
	const op = "app.Run"

	startedAt := time.Now()

	db, err := connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer db.Close()

	if err := pgPkg.RunMigrations(cfg.MigrationsPath, cfg.Postgres.DSN()); err != nil {
		return fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	gen, err := shortid.New(cfg.ShortID.Generator, cfg.ShortID.Length, cfg.ShortID.SnowflakeNode)
	if err != nil {
		return fmt.Errorf("%s: failed to create short id generator: %w", op, err)
	}

	urlRepo := postgres.NewURLRepository(db)
	urlUseCase := usecase.NewURLUseCase(urlRepo, gen, cfg.BaseURL, cfg.ShortID.MaxAttempts)
	retentionUseCase := usecase.NewRetentionUseCase(
		postgres.NewRetentionRepository(db),
		cfg.Retention.UnusedURLTTL,
		cfg.Retention.SessionTTL,
	)

	router := deliveryHTTP.NewRouter(logger, urlUseCase, db,
		deliveryHTTP.WithRateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window),
		deliveryHTTP.WithSwaggerFile(cfg.SwaggerFile),
		deliveryHTTP.WithStartTime(startedAt),
	)

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        router,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", "addr", server.Addr, "env", cfg.Env, "base_url", cfg.BaseURL)

		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		logger.Info("server stopped")

		return nil
	})

	g.Go(func() error {
		runSweeper(ctx, logger.Logger, retentionUseCase, cfg.Retention.SweepInterval)
		return nil
	})

	return g.Wait()
}

// Sweep runs a single retention pass against the configured database.
func Sweep(ctx context.Context, cfg *config.Config) (entity.SweepResult, error) {
	const op = "app.Sweep"

	db, err := connect(ctx, cfg)
	if err != nil {
		return entity.SweepResult{}, fmt.Errorf("%s: %w", op, err)
	}
	defer db.Close()

	uc := usecase.NewRetentionUseCase(
		postgres.NewRetentionRepository(db),
		cfg.Retention.UnusedURLTTL,
		cfg.Retention.SessionTTL,
	)

	res, err := uc.Sweep(ctx)
	if err != nil {
		return res, fmt.Errorf("%s: %w", op, err)
	}

	return res, nil
}

func connect(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	db, err := pgPkg.New(
		ctx,
		cfg.Postgres.DSN(),
		pgPkg.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
		pgPkg.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
		pgPkg.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
		pgPkg.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
		pgPkg.WithConnectRetry(cfg.Postgres.ConnectAttempts, cfg.Postgres.ConnectBackoff),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}
