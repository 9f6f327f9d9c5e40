// Package postgres implements the persistence layer on PostgreSQL.
// Short links live in the urls table; the user_sessions table associates
// each opaque user token with the set of short ids it created.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

const uniqueViolationErrCode = "23505"

const (
	shortIDConstraint  = "urls_short_id_key"
	ownerURLConstraint = "urls_created_by_original_url_key"
)

// uniqueViolation returns the name of the violated constraint, if err is a unique violation.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.SQLState() == uniqueViolationErrCode {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// inTx runs fn inside a transaction, rolling back if fn or the commit fails.
func inTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	const op = "adapter.repository.postgres.inTx"

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("%s: failed to rollback transaction: %w", op, rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return nil
}
