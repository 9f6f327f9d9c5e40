// Package recoverer provides a middleware that turns handler panics into
// JSON 500 responses.
package recoverer

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/render"
	"github.com/vadimbarashkov/shortlink/pkg/response"
)

// New returns a middleware that recovers from panics, logs them with the
// stack trace and replies with the standard server error envelope.
// http.ErrAbortHandler is re-raised so the server can abort the connection.
func New(logger *slog.Logger) func(http.Handler) http.Handler {
	const op = "middleware.recoverer.New"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				logger.Error(
					"panic recovered",
					slog.Group(op,
						slog.Any("panic", rvr),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.String("stack", string(debug.Stack())),
					),
				)

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
