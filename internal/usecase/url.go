package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

const (
	DefaultPage        = 1
	DefaultLimit       = 10
	MaxLimit           = 100
	DefaultMaxAttempts = 10

	maxPage = math.MaxInt32
)

type urlRepository interface {
	Save(ctx context.Context, url *entity.URL) (*entity.URL, error)
	ExistsShortID(ctx context.Context, shortID string) (bool, error)
	RetrieveByShortID(ctx context.Context, shortID string) (*entity.URL, error)
	RetrieveByOwner(ctx context.Context, originalURL, userID string) (*entity.URL, error)
	RetrieveAndUpdateStats(ctx context.Context, shortID string) (*entity.URL, error)
	ListBySession(ctx context.Context, userID string, limit, offset int) ([]entity.URL, int64, error)
	ListByOwner(ctx context.Context, userID string, limit, offset int) ([]entity.URL, int64, error)
	RemoveOwned(ctx context.Context, shortID, userID string) error
}

type shortIDGenerator interface {
	Generate() (string, error)
}

// URLUseCase implements short id allocation and the lifecycle of shortened URLs.
type URLUseCase struct {
	urlRepo     urlRepository
	gen         shortIDGenerator
	baseURL     string
	maxAttempts int
}

// NewURLUseCase creates a URLUseCase. Short links are built as baseURL + "/" + shortID.
// A non-positive maxAttempts falls back to DefaultMaxAttempts.
func NewURLUseCase(urlRepo urlRepository, gen shortIDGenerator, baseURL string, maxAttempts int) *URLUseCase {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	return &URLUseCase{
		urlRepo:     urlRepo,
		gen:         gen,
		baseURL:     strings.TrimRight(baseURL, "/"),
		maxAttempts: maxAttempts,
	}
}

// ShortenURL returns the user's short link for originalURL, creating it if needed.
// The returned bool is true when a new record was created and false when the
// user had already shortened the same URL.
func (uc *URLUseCase) ShortenURL(ctx context.Context, originalURL, userID, clientIP string) (*entity.URL, bool, error) {
	const op = "usecase.URLUseCase.ShortenURL"

	if userID == "" {
		return nil, false, fmt.Errorf("%s: %w", op, entity.ErrMissingUserID)
	}

	url, err := uc.urlRepo.RetrieveByOwner(ctx, originalURL, userID)
	if err == nil {
		return url, false, nil
	}
	if !errors.Is(err, entity.ErrURLNotFound) {
		return nil, false, fmt.Errorf("%s: failed to look up existing url: %w", op, err)
	}

	var ip *string
	if clientIP != "" {
		ip = &clientIP
	}

	for i := 0; i < uc.maxAttempts; i++ {
		shortID, err := uc.gen.Generate()
		if err != nil {
			return nil, false, fmt.Errorf("%s: failed to generate short id: %w", op, err)
		}

		exists, err := uc.urlRepo.ExistsShortID(ctx, shortID)
		if err != nil {
			return nil, false, fmt.Errorf("%s: failed to check short id: %w", op, err)
		}
		if exists {
			continue
		}

		url, err := uc.urlRepo.Save(ctx, &entity.URL{
			ShortID:     shortID,
			OriginalURL: originalURL,
			ShortURL:    uc.baseURL + "/" + shortID,
			CreatedBy:   userID,
			IPAddress:   ip,
		})
		if err != nil {
			if errors.Is(err, entity.ErrShortIDExists) {
				continue
			}

			// A concurrent request by the same user won the insert.
			if errors.Is(err, entity.ErrURLExists) {
				url, err := uc.urlRepo.RetrieveByOwner(ctx, originalURL, userID)
				if err != nil {
					return nil, false, fmt.Errorf("%s: failed to get existing url: %w", op, err)
				}
				return url, false, nil
			}

			return nil, false, fmt.Errorf("%s: failed to shorten url: %w", op, err)
		}

		return url, true, nil
	}

	return nil, false, fmt.Errorf("%s: %w", op, entity.ErrAllocationExhausted)
}

// ResolveShortID returns the URL for shortID and records one click against it.
func (uc *URLUseCase) ResolveShortID(ctx context.Context, shortID string) (*entity.URL, error) {
	const op = "usecase.URLUseCase.ResolveShortID"

	url, err := uc.urlRepo.RetrieveAndUpdateStats(ctx, shortID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve short id: %w", op, err)
	}

	return url, nil
}

// GetUserHistory returns one page of the URLs created by userID, newest first.
// An empty userID yields an empty page.
func (uc *URLUseCase) GetUserHistory(ctx context.Context, userID string, page, limit int) (*entity.Page, error) {
	const op = "usecase.URLUseCase.GetUserHistory"

	page, limit = normalizePaging(page, limit)
	res := &entity.Page{
		URLs:        []entity.URL{},
		CurrentPage: page,
		Limit:       limit,
	}

	if userID == "" {
		return res, nil
	}

	offset := (page - 1) * limit

	urls, total, err := uc.urlRepo.ListBySession(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list urls by session: %w", op, err)
	}

	// Sessions expire independently of the links they reference.
	if total == 0 {
		urls, total, err = uc.urlRepo.ListByOwner(ctx, userID, limit, offset)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to list urls by owner: %w", op, err)
		}
	}

	if urls != nil {
		res.URLs = urls
	}
	res.TotalCount = total
	res.TotalPages = int((total + int64(limit) - 1) / int64(limit))

	return res, nil
}

// GetURLStats returns the URL for shortID without changing its statistics.
func (uc *URLUseCase) GetURLStats(ctx context.Context, shortID string) (*entity.URL, error) {
	const op = "usecase.URLUseCase.GetURLStats"

	url, err := uc.urlRepo.RetrieveByShortID(ctx, shortID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url stats: %w", op, err)
	}

	return url, nil
}

// DeleteURL removes shortID if it was created by userID. Absent and foreign
// links both yield entity.ErrURLNotFound.
func (uc *URLUseCase) DeleteURL(ctx context.Context, shortID, userID string) error {
	const op = "usecase.URLUseCase.DeleteURL"

	if userID == "" {
		return fmt.Errorf("%s: %w", op, entity.ErrMissingUserID)
	}

	if err := uc.urlRepo.RemoveOwned(ctx, shortID, userID); err != nil {
		return fmt.Errorf("%s: failed to delete url: %w", op, err)
	}

	return nil
}

func normalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if page > maxPage {
		page = maxPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}
