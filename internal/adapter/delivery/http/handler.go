package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/pkg/response"
)

// userIDHeader carries the caller's opaque user token. It is a correlation
// hint chosen by the client, not an authenticated identity.
const userIDHeader = "X-User-Id"

type urlUseCase interface {
	ShortenURL(ctx context.Context, originalURL, userID, clientIP string) (*entity.URL, bool, error)
	ResolveShortID(ctx context.Context, shortID string) (*entity.URL, error)
	GetUserHistory(ctx context.Context, userID string, page, limit int) (*entity.Page, error)
	GetURLStats(ctx context.Context, shortID string) (*entity.URL, error)
	DeleteURL(ctx context.Context, shortID, userID string) error
}

type urlHandler struct {
	useCase  urlUseCase
	validate *validator.Validate
}

func newURLHandler(useCase urlUseCase, validate *validator.Validate) *urlHandler {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &urlHandler{
		useCase:  useCase,
		validate: validate,
	}
}

func userID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(userIDHeader))
}

// clientIP returns the host part of RemoteAddr, which middleware.RealIP
// has already replaced with the forwarded address when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, response.ErrorResponse(msg))
}

func writeServerError(w http.ResponseWriter, r *http.Request, err error) {
	httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, response.ServerErrorResponse)
}

func (h *urlHandler) shortenURL(w http.ResponseWriter, r *http.Request) {
	var req shortenRequest

	if err := render.DecodeJSON(r.Body, &req); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, r, http.StatusBadRequest, msgURLRequired)
			return
		}

		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, http.StatusRequestEntityTooLarge, msgURLTooLong)
			return
		}

		writeError(w, r, http.StatusBadRequest, msgURLNotString)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, validationMessage(err))
		return
	}

	uid := userID(r)
	if uid == "" {
		writeError(w, r, http.StatusBadRequest, msgUserIDMissing)
		return
	}

	url, created, err := h.useCase.ShortenURL(r.Context(), req.URL, uid, clientIP(r))
	if err != nil {
		if errors.Is(err, entity.ErrAllocationExhausted) {
			httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))
			writeError(w, r, http.StatusInternalServerError, msgAllocationFailed)
			return
		}

		writeServerError(w, r, err)
		return
	}

	if !created {
		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(msgURLExists, toShortenResponse(url, false)))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.SuccessResponse("", toShortenResponse(url, true)))
}

func (h *urlHandler) redirect(w http.ResponseWriter, r *http.Request) {
	shortID := chi.URLParam(r, "shortId")

	url, err := h.useCase.ResolveShortID(r.Context(), shortID)
	if err != nil {
		if errors.Is(err, entity.ErrURLNotFound) {
			writeError(w, r, http.StatusNotFound, msgURLNotFound)
			return
		}

		writeServerError(w, r, err)
		return
	}

	// Browsers cache permanent redirects; ask them to come back so every visit is counted.
	w.Header().Set("Cache-Control", "private, max-age=0")
	http.Redirect(w, r, url.OriginalURL, http.StatusMovedPermanently)
}

func (h *urlHandler) getUserHistory(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page")
	limit := queryInt(r, "limit")

	res, err := h.useCase.GetUserHistory(r.Context(), userID(r), page, limit)
	if err != nil {
		writeServerError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toHistoryResponse(res))
}

// queryInt parses an integer query parameter, returning 0 when it is absent or malformed.
func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}

func (h *urlHandler) getURLStats(w http.ResponseWriter, r *http.Request) {
	shortID := chi.URLParam(r, "shortId")

	url, err := h.useCase.GetURLStats(r.Context(), shortID)
	if err != nil {
		if errors.Is(err, entity.ErrURLNotFound) {
			writeError(w, r, http.StatusNotFound, msgURLNotFound)
			return
		}

		writeServerError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response.SuccessResponse("", toURLStatsResponse(url)))
}

func (h *urlHandler) deleteURL(w http.ResponseWriter, r *http.Request) {
	shortID := chi.URLParam(r, "shortId")

	err := h.useCase.DeleteURL(r.Context(), shortID, userID(r))
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrMissingUserID):
			writeError(w, r, http.StatusBadRequest, msgUserIDMissing)
		case errors.Is(err, entity.ErrURLNotFound):
			writeError(w, r, http.StatusNotFound, msgURLNotOwned)
		default:
			writeServerError(w, r, err)
		}
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response.SuccessResponse(msgURLDeleted))
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, msgNotFoundPathPrefix+r.URL.Path)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusMethodNotAllowed, msgMethodNotAllowed)
}

func tooManyRequests(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusTooManyRequests, msgTooManyRequests)
}
