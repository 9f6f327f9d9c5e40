// Package postgres opens pooled PostgreSQL connections through the pgx
// driver and applies schema migrations.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	defaultConnMaxIdleTime = 5 * time.Minute
	defaultConnMaxLifetime = 30 * time.Minute
	defaultMaxIdleConns    = 5
	defaultMaxOpenConns    = 25
	defaultConnectAttempts = 1
	defaultConnectBackoff  = time.Second
)

type options struct {
	connMaxIdleTime time.Duration
	connMaxLifetime time.Duration
	maxIdleConns    int
	maxOpenConns    int
	connectAttempts int
	connectBackoff  time.Duration
}

func defaultOptions() options {
	return options{
		connMaxIdleTime: defaultConnMaxIdleTime,
		connMaxLifetime: defaultConnMaxLifetime,
		maxIdleConns:    defaultMaxIdleConns,
		maxOpenConns:    defaultMaxOpenConns,
		connectAttempts: defaultConnectAttempts,
		connectBackoff:  defaultConnectBackoff,
	}
}

type Option func(*options)

func WithConnMaxIdleTime(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.connMaxIdleTime = d
		}
	}
}

func WithConnMaxLifetime(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.connMaxLifetime = d
		}
	}
}

func WithMaxIdleConns(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxIdleConns = n
		}
	}
}

func WithMaxOpenConns(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxOpenConns = n
		}
	}
}

// WithConnectRetry makes New try to reach the server up to attempts times,
// waiting interval between tries. Useful when the database starts alongside the service.
func WithConnectRetry(attempts int, interval time.Duration) Option {
	return func(o *options) {
		if attempts > 0 {
			o.connectAttempts = attempts
		}
		if interval > 0 {
			o.connectBackoff = interval
		}
	}
}

func New(ctx context.Context, dsn string, opts ...Option) (*sqlx.DB, error) {
	const op = "postgres.New"

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	dial := func(ctx context.Context) (*sqlx.DB, error) {
		return sqlx.ConnectContext(ctx, "pgx", dsn)
	}

	db, err := connect(ctx, dial, o.connectAttempts, o.connectBackoff)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}

	db.SetConnMaxIdleTime(o.connMaxIdleTime)
	db.SetConnMaxLifetime(o.connMaxLifetime)
	db.SetMaxIdleConns(o.maxIdleConns)
	db.SetMaxOpenConns(o.maxOpenConns)

	return db, nil
}

type dialFunc func(ctx context.Context) (*sqlx.DB, error)

// connect calls dial until it succeeds, attempts tries have failed or ctx is done.
func connect(ctx context.Context, dial dialFunc, attempts int, interval time.Duration) (*sqlx.DB, error) {
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(interval), uint64(attempts-1)),
		ctx,
	)

	return backoff.RetryWithData(func() (*sqlx.DB, error) {
		return dial(ctx)
	}, b)
}
