package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// addSessionShortID upserts the user's session and adds shortID to its set.
// The conflict update runs under the row lock, so concurrent calls for one
// user neither duplicate nor drop entries.
func addSessionShortID(ctx context.Context, tx sqlx.ExecerContext, userID, shortID string, ip *string) error {
	const query = `INSERT INTO user_sessions(user_id, ip_address, short_ids, last_activity)
		VALUES ($1, $2, ARRAY[$3::text], now())
		ON CONFLICT (user_id) DO UPDATE SET
			short_ids = CASE
				WHEN $3::text = ANY(user_sessions.short_ids) THEN user_sessions.short_ids
				ELSE array_append(user_sessions.short_ids, $3::text)
			END,
			ip_address = COALESCE(EXCLUDED.ip_address, user_sessions.ip_address),
			last_activity = now()`

	if _, err := tx.ExecContext(ctx, query, userID, ip, shortID); err != nil {
		return fmt.Errorf("failed to upsert user session: %w", err)
	}

	return nil
}

// removeSessionShortID drops shortID from the user's session, if there is one.
func removeSessionShortID(ctx context.Context, tx sqlx.ExecerContext, userID, shortID string) error {
	const query = `UPDATE user_sessions
		SET short_ids = array_remove(short_ids, $2::text), last_activity = now()
		WHERE user_id = $1`

	if _, err := tx.ExecContext(ctx, query, userID, shortID); err != nil {
		return fmt.Errorf("failed to update user session: %w", err)
	}

	return nil
}
