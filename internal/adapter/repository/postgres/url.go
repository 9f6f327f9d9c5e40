package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

type urlDB struct {
	ID           int64      `db:"id"`
	ShortID      string     `db:"short_id"`
	OriginalURL  string     `db:"original_url"`
	ShortURL     string     `db:"short_url"`
	Clicks       int64      `db:"clicks"`
	CreatedBy    string     `db:"created_by"`
	IPAddress    *string    `db:"ip_address"`
	LastAccessed *time.Time `db:"last_accessed"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

func (u *urlDB) toEntity() *entity.URL {
	return &entity.URL{
		ID:          u.ID,
		ShortID:     u.ShortID,
		OriginalURL: u.OriginalURL,
		ShortURL:    u.ShortURL,
		CreatedBy:   u.CreatedBy,
		IPAddress:   u.IPAddress,
		URLStats: entity.URLStats{
			Clicks:       u.Clicks,
			LastAccessed: u.LastAccessed,
		},
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toEntities(rows []urlDB) []entity.URL {
	urls := make([]entity.URL, 0, len(rows))
	for i := range rows {
		urls = append(urls, *rows[i].toEntity())
	}
	return urls
}

type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{db: db}
}

// Save inserts url and adds its short id to the creator's session in one transaction.
func (r *URLRepository) Save(ctx context.Context, url *entity.URL) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.Save"
	const query = `INSERT INTO urls(short_id, original_url, short_url, created_by, ip_address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING *`

	var rec urlDB

	err := inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &rec, query, url.ShortID, url.OriginalURL, url.ShortURL, url.CreatedBy, url.IPAddress)
		if err != nil {
			if constraint, ok := uniqueViolation(err); ok {
				switch constraint {
				case shortIDConstraint:
					return entity.ErrShortIDExists
				case ownerURLConstraint:
					return entity.ErrURLExists
				}
			}
			return fmt.Errorf("failed to insert into urls table: %w", err)
		}

		return addSessionShortID(ctx, tx, url.CreatedBy, url.ShortID, url.IPAddress)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return rec.toEntity(), nil
}

func (r *URLRepository) ExistsShortID(ctx context.Context, shortID string) (bool, error) {
	const op = "adapter.repository.postgres.URLRepository.ExistsShortID"
	const query = `SELECT EXISTS(SELECT 1 FROM urls WHERE short_id = $1)`

	var exists bool

	if err := r.db.GetContext(ctx, &exists, query, shortID); err != nil {
		return false, fmt.Errorf("%s: failed to query urls table: %w", op, err)
	}

	return exists, nil
}

func (r *URLRepository) RetrieveByShortID(ctx context.Context, shortID string) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.RetrieveByShortID"
	const query = `SELECT * FROM urls WHERE short_id = $1`

	var url urlDB

	if err := r.db.GetContext(ctx, &url, query, shortID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from urls table: %w", op, err)
	}

	return url.toEntity(), nil
}

func (r *URLRepository) RetrieveByOwner(ctx context.Context, originalURL, userID string) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.RetrieveByOwner"
	const query = `SELECT * FROM urls
		WHERE created_by = $1 AND md5(original_url) = md5($2) AND original_url = $2`

	var url urlDB

	if err := r.db.GetContext(ctx, &url, query, userID, originalURL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from urls table: %w", op, err)
	}

	return url.toEntity(), nil
}

// RetrieveAndUpdateStats increments the click counter in the same statement
// that looks the row up, so concurrent redirects never lose an update.
func (r *URLRepository) RetrieveAndUpdateStats(ctx context.Context, shortID string) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.RetrieveAndUpdateStats"
	const query = `UPDATE urls
		SET clicks = clicks + 1, last_accessed = now()
		WHERE short_id = $1
		RETURNING *`

	var url urlDB

	if err := r.db.GetContext(ctx, &url, query, shortID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get and update urls table row: %w", op, err)
	}

	return url.toEntity(), nil
}

// ListBySession returns a page of the URLs referenced by the user's session, newest first,
// together with the total number of such URLs.
func (r *URLRepository) ListBySession(ctx context.Context, userID string, limit, offset int) ([]entity.URL, int64, error) {
	const op = "adapter.repository.postgres.URLRepository.ListBySession"
	const countQuery = `SELECT count(*) FROM urls u
		JOIN user_sessions s ON u.short_id = ANY(s.short_ids)
		WHERE s.user_id = $1`
	const listQuery = `SELECT u.* FROM urls u
		JOIN user_sessions s ON u.short_id = ANY(s.short_ids)
		WHERE s.user_id = $1
		ORDER BY u.created_at DESC, u.id DESC
		LIMIT $2 OFFSET $3`

	urls, total, err := r.list(ctx, countQuery, listQuery, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return urls, total, nil
}

// ListByOwner returns a page of the URLs created by userID, newest first,
// together with the total number of such URLs.
func (r *URLRepository) ListByOwner(ctx context.Context, userID string, limit, offset int) ([]entity.URL, int64, error) {
	const op = "adapter.repository.postgres.URLRepository.ListByOwner"
	const countQuery = `SELECT count(*) FROM urls WHERE created_by = $1`
	const listQuery = `SELECT * FROM urls
		WHERE created_by = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	urls, total, err := r.list(ctx, countQuery, listQuery, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return urls, total, nil
}

func (r *URLRepository) list(ctx context.Context, countQuery, listQuery, userID string, limit, offset int) ([]entity.URL, int64, error) {
	var total int64

	if err := r.db.GetContext(ctx, &total, countQuery, userID); err != nil {
		return nil, 0, fmt.Errorf("failed to count urls: %w", err)
	}

	if total == 0 {
		return []entity.URL{}, 0, nil
	}

	var rows []urlDB

	if err := r.db.SelectContext(ctx, &rows, listQuery, userID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to select urls: %w", err)
	}

	return toEntities(rows), total, nil
}

// RemoveOwned deletes the URL only when it was created by userID and drops
// its short id from the user's session.
func (r *URLRepository) RemoveOwned(ctx context.Context, shortID, userID string) error {
	const op = "adapter.repository.postgres.URLRepository.RemoveOwned"
	const query = `DELETE FROM urls WHERE short_id = $1 AND created_by = $2`

	err := inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, query, shortID, userID)
		if err != nil {
			return fmt.Errorf("failed to delete from urls table: %w", err)
		}

		rowsAffected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get number of affected rows: %w", err)
		}

		if rowsAffected != 1 {
			return entity.ErrURLNotFound
		}

		return removeSessionShortID(ctx, tx, userID, shortID)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
