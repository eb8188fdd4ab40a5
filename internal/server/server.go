package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spigell/internship-matcher/internal/catalog"
	"github.com/spigell/internship-matcher/internal/matching"
)

const (
	DefaultAddress     = ":8000"
	DefaultMaxUploadMB = 10

	shutdownTimeout = 10 * time.Second
)

type Config struct {
	Address     string
	MaxUploadMB int
	// Metrics exposes the Prometheus registry on /metrics.
	Metrics bool
	// DefaultLimit applies when a match request carries no limit.
	DefaultLimit int
}

// Server exposes résumé upload and matching over HTTP.
type Server struct {
	cfg      Config
	ranker   *matching.Ranker
	postings []catalog.Posting
	logger   *zap.Logger
}

func New(cfg Config, ranker *matching.Ranker, postings []catalog.Posting, logger *zap.Logger) *Server {
	if cfg.Address == "" {
		cfg.Address = DefaultAddress
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = DefaultMaxUploadMB
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = matching.DefaultLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Server{
		cfg:      cfg,
		ranker:   ranker,
		postings: postings,
		logger:   logger,
	}
}

// Handler returns the routed handler with CORS and request accounting applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload_resume", s.handleUpload)
	mux.HandleFunc("POST /match", s.handleMatch)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.cfg.Metrics {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	return withCORS(s.withAccounting(mux))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Address, err)
	}
	return s.Serve(ctx, listener)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(s.logger),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server started",
			zap.String("address", listener.Addr().String()),
			zap.Int("postings", len(s.postings)),
			zap.Bool("metrics", s.cfg.Metrics),
		)
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutdown signal received, stopping http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	s.logger.Info("http server stopped")
	return nil
}
