// Package server exposes the matcher over HTTP.
//
// Routes:
//
//	GET  /api/health    service status
//	POST /api/validate  check a base64 workbook
//	POST /api/process   run the matcher and download the report workbook
//	POST /api/match     run the matcher and return the ranked candidates
//	POST /api/rerank    forward one DE record to the re-ranking service
//	GET  /metrics       Prometheus metrics
package server

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"depara/internal/config"
	"depara/internal/engine"
	"depara/internal/metrics"
	"depara/internal/rerank"
)

const shutdownTimeout = 10 * time.Second

var routes = []string{"/api/health", "/api/validate", "/api/process", "/api/match", "/api/rerank", "/metrics"}

// Server is the HTTP backend.
type Server struct {
	cfg      config.Config
	enricher engine.Enricher
	reranker *rerank.Client
	logger   *zap.Logger
	mux      *http.ServeMux
}

// New creates a Server. enricher and reranker may be nil.
func New(cfg config.Config, enricher engine.Enricher, reranker *rerank.Client, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.Server.MaxBodyBytes <= 0 {
		cfg.Server.MaxBodyBytes = config.DefaultMaxBodyBytes
	}

	s := &Server{
		cfg:      cfg,
		enricher: enricher,
		reranker: reranker,
		logger:   logger,
		mux:      http.NewServeMux(),
	}
	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc(routes[0], s.handleHealth)
	s.mux.HandleFunc(routes[1], s.handleValidate)
	s.mux.HandleFunc(routes[2], s.handleProcess)
	s.mux.HandleFunc(routes[3], s.handleMatch)
	s.mux.HandleFunc(routes[4], s.handleRerank)
	s.mux.Handle(routes[5], promhttp.Handler())
}

// routeLabel keeps the metric label set bounded.
func routeLabel(path string) string {
	if slices.Contains(routes, path) {
		return path
	}

	return "other"
}

// Handler returns the routes wrapped with request logging.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("server shutting down")

	return srv.Shutdown(shutdownCtx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		metrics.HTTPRequests.WithLabelValues(routeLabel(r.URL.Path), strconv.Itoa(rec.status)).Inc()
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
