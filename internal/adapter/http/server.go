package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/quakeseq/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SequenceRenderer produces the sequence lines for the current query window.
type SequenceRenderer interface {
	sharedobs.ReadinessChecker
	Render(ctx context.Context) ([]string, error)
}

// Server exposes the rendered sequence along with health, readiness, and
// metrics endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /sequence, /healthz, /readyz, and
// /metrics routes.
func NewServer(addr string, renderer SequenceRenderer, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /sequence", s.handleSequence(renderer))
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(renderer))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleSequence renders one sequence per request. An upstream status failure
// is reported as 502 with the error line as the body.
func (s *Server) handleSequence(renderer SequenceRenderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lines, err := renderer.Render(r.Context())

		status := http.StatusOK
		if err != nil {
			var fetchErr *domain.FetchError
			if !errors.As(err, &fetchErr) {
				s.logger.Error("render sequence", "error", err)
				http.Error(w, "earthquake data unavailable", http.StatusInternalServerError)
				return
			}
			status = http.StatusBadGateway
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		if len(lines) == 0 {
			return
		}
		_, _ = w.Write([]byte(strings.Join(lines, "\n") + "\n"))
	}
}
