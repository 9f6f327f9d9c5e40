// Package entity defines the entities and errors used in the application.
// It includes the URL struct, which represents a shortened URL, the paging
// types returned by history queries and the error values shared by the use case
// and adapter layers.
package entity

import (
	"errors"
	"time"
)

var (
	// ErrMissingUserID is returned when an operation that requires the caller's
	// user token is invoked without one.
	ErrMissingUserID = errors.New("user id missing")
	// ErrShortIDExists is returned when attempting to create a URL with a short id that already exists.
	ErrShortIDExists = errors.New("short id exists")
	// ErrURLExists is returned when the user has already shortened the same original URL.
	ErrURLExists = errors.New("url already shortened by user")
	// ErrURLNotFound is returned when a URL with the specified short id cannot be found,
	// or when it exists but is not owned by the requesting user.
	ErrURLNotFound = errors.New("url not found")
	// ErrAllocationExhausted is returned when no unused short id could be
	// generated within the configured number of attempts.
	ErrAllocationExhausted = errors.New("unable to generate unique short id")
)

// URL represents a shortened URL.
type URL struct {
	ID          int64     // ID is the unique identifier of the URL in the database.
	ShortID     string    // ShortID is the generated identifier used as the short link path segment.
	OriginalURL string    // OriginalURL is the full URL that the short id redirects to.
	ShortURL    string    // ShortURL is the precomputed full short link (base url + "/" + short id).
	CreatedBy   string    // CreatedBy is the opaque token of the user who created the link.
	IPAddress   *string   // IPAddress is the client address captured at creation time.
	URLStats              // URLStats contains statistics about the URL.
	CreatedAt   time.Time // CreatedAt is the timestamp when the URL was created.
	UpdatedAt   time.Time // UpdatedAt is the timestamp when the URL was last updated.
}

// URLStats contains statistics related to a shortened URL.
type URLStats struct {
	Clicks       int64      // Clicks is the number of redirects served for the short id.
	LastAccessed *time.Time // LastAccessed is the time of the last redirect, nil until the first one.
}

// Page is a single page of a user's URL history.
type Page struct {
	URLs        []URL
	TotalCount  int64
	TotalPages  int
	CurrentPage int
	Limit       int
}

// SweepResult reports how many records a retention sweep removed.
type SweepResult struct {
	URLs     int64
	Sessions int64
}
