package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

const (
	defaultQRSize = 256
	minQRSize     = 64
	maxQRSize     = 1024
)

// qrCode renders the short link of a record as a PNG QR code. Looking the
// record up does not count as a visit.
func (h *urlHandler) qrCode(w http.ResponseWriter, r *http.Request) {
	size := defaultQRSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < minQRSize || n > maxQRSize {
			writeError(w, r, http.StatusBadRequest, msgInvalidQRSize)
			return
		}
		size = n
	}

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

	png, err := qrcode.Encode(url.ShortURL, qrcode.Medium, size)
	if err != nil {
		writeServerError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
