package webhook

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/m3rciful/residentbot/core/logger"
)

const maxBodyBytes = 1 << 20

// ServeHTTP wraps the request body into an Envelope and writes the Response.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var env Envelope
	if r.Body != nil && r.Body != http.NoBody {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			logger.Warn(r.Context(), "webhook", "body.read.failed", slog.String("err", err.Error()))
			writeResponse(w, errorResponse(http.StatusBadRequest, MsgInvalidJSON))
			return
		}
		env = NewEnvelope(string(body))
	}
	writeResponse(w, h.Handle(r.Context(), env))
}

// NewRouter exposes the handler at POST path and a health check at GET /healthz.
func NewRouter(h *Handler, path string) http.Handler {
	if path == "" {
		path = "/webhook"
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeResponse(w, jsonResponse(http.StatusOK, "status", "ok"))
	})
	r.Post(path, h.ServeHTTP)
	return r
}

func writeResponse(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	_, _ = io.WriteString(w, resp.Body)
}
