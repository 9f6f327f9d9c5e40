package http

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/pkg/response"
)

// shortenRequest is the body of POST /api/shorten.
type shortenRequest struct {
	URL string `json:"url" validate:"required,http_url,max=2048"`
}

// shortenResponse is returned for both new and existing links. Clicks is only
// set when the user had already shortened the same URL.
type shortenResponse struct {
	ID          string    `json:"id"`
	OriginalURL string    `json:"originalUrl"`
	ShortURL    string    `json:"shortUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	Clicks      *int64    `json:"clicks,omitempty"`
}

func toShortenResponse(url *entity.URL, created bool) shortenResponse {
	resp := shortenResponse{
		ID:          url.ShortID,
		OriginalURL: url.OriginalURL,
		ShortURL:    url.ShortURL,
		CreatedAt:   url.CreatedAt,
	}

	if !created {
		clicks := url.Clicks
		resp.Clicks = &clicks
	}

	return resp
}

// urlStatsResponse is used by the stats endpoint and for every history item.
type urlStatsResponse struct {
	ID           string     `json:"id"`
	OriginalURL  string     `json:"originalUrl"`
	ShortURL     string     `json:"shortUrl"`
	CreatedAt    time.Time  `json:"createdAt"`
	Clicks       int64      `json:"clicks"`
	LastAccessed *time.Time `json:"lastAccessed"`
}

func toURLStatsResponse(url *entity.URL) urlStatsResponse {
	return urlStatsResponse{
		ID:           url.ShortID,
		OriginalURL:  url.OriginalURL,
		ShortURL:     url.ShortURL,
		CreatedAt:    url.CreatedAt,
		Clicks:       url.Clicks,
		LastAccessed: url.LastAccessed,
	}
}

func toHistoryResponse(page *entity.Page) response.PageResponse {
	items := make([]urlStatsResponse, 0, len(page.URLs))
	for i := range page.URLs {
		items = append(items, toURLStatsResponse(&page.URLs[i]))
	}

	return response.NewPageResponse(items, page.TotalCount, page.TotalPages, page.CurrentPage)
}

// healthResponse is the body of GET /health.
type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    float64   `json:"uptime"`
	Database  string    `json:"database"`
}

// Messages returned to clients.
const (
	msgURLRequired        = "URL is required"
	msgURLNotString       = "URL must be a string"
	msgURLTooLong         = "URL is too long (maximum 2048 characters)"
	msgURLInvalid         = "Please provide a valid URL with http:// or https://"
	msgUserIDMissing      = "User ID missing"
	msgURLNotFound        = "URL not found"
	msgURLNotOwned        = "URL not found or you do not have permission to delete it"
	msgURLDeleted         = "URL deleted successfully"
	msgURLExists          = "URL already shortened"
	msgAllocationFailed   = "Unable to generate unique short ID"
	msgInvalidQRSize      = "QR code size must be an integer between 64 and 1024"
	msgTooManyRequests    = "Too many requests from this IP, please try again later."
	msgMethodNotAllowed   = "Method not allowed"
	msgNotFoundPathPrefix = "Not found - "
)

// messageForTag returns a user-facing message for a failed validation tag on the url field.
func messageForTag(tag string) string {
	switch tag {
	case "required":
		return msgURLRequired
	case "max":
		return msgURLTooLong
	default:
		return msgURLInvalid
	}
}

// validationMessage returns the message of the first validation failure in err.
func validationMessage(err error) string {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		return messageForTag(errs[0].Tag())
	}
	return msgURLInvalid
}
