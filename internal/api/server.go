// Package api exposes the scanner over the /api/v2 REST surface.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/headscore/headscore/internal/scanner"
	"github.com/headscore/headscore/internal/store"
)

// Config tunes the API layer.
type Config struct {
	// Listen is the bind address.
	Listen string
	// BaseURL builds the details_url field of responses; empty disables it.
	BaseURL string
	// Cooldown is the POST-path cache window.
	Cooldown time.Duration
	// CacheTimeForGet is the GET-path cache window.
	CacheTimeForGet time.Duration
	// ShutdownGrace bounds graceful shutdown.
	ShutdownGrace time.Duration
}

// Server wires the handlers to a scanner and the persisted corpus.
type Server struct {
	cfg     Config
	scanner *scanner.Scanner
	store   store.Store
	logger  *slog.Logger
	router  *mux.Router
}

// New builds the API server. The store may be nil, which disables the
// history and stats surfaces.
func New(cfg Config, sc *scanner.Scanner, st store.Store, logger *slog.Logger) *Server {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = scanner.DefaultCooldown
	}
	if cfg.CacheTimeForGet <= 0 {
		cfg.CacheTimeForGet = scanner.DefaultGetCacheAge
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{cfg: cfg, scanner: sc, store: st, logger: logger}

	router := mux.NewRouter()
	api := router.PathPrefix("/api/v2").Subrouter()
	api.Use(s.loggingMiddleware)
	api.HandleFunc("/scan", s.handleScan).Methods(http.MethodPost)
	api.HandleFunc("/scanFullDetails", s.handleScanFullDetails).Methods(http.MethodPost)
	api.HandleFunc("/analyze", s.handleAnalyzeGet).Methods(http.MethodGet)
	api.HandleFunc("/analyze", s.handleAnalyzePost).Methods(http.MethodPost)
	api.HandleFunc("/scanBatchFullDetails", s.handleScanBatch).Methods(http.MethodPost)
	api.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	s.router = router

	return s
}

// Handler exposes the router; tests drive it through httptest.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe blocks until ctx is done, then shuts the listener down
// within the configured grace period.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", "addr", s.cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
