// Package api exposes the manual resync trigger, health and metrics over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"agreementIndexer/internal/contracts"
)

const shutdownTimeout = 10 * time.Second

// Syncer runs a per-contract sync.
type Syncer interface {
	Sync(ctx context.Context, address common.Address, kind contracts.Kind) (int, error)
}

// Server is the HTTP surface of the indexer.
type Server struct {
	logger *zap.Logger
	syncer Syncer
	router *chi.Mux
	server *http.Server
}

func NewServer(addr string, syncer Syncer, logger *zap.Logger) (*Server, error) {
	if syncer == nil {
		return nil, fmt.Errorf("syncer is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		logger: logger,
		syncer: syncer,
		router: chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.server.Addr))
		errCh <- s.server.ListenAndServe()
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
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())
	s.router.Post("/api/contracts/{address}/sync", s.handleSync)
}

type syncRequest struct {
	Kind string `json:"kind"`
}

// SyncResponse is returned by a successful resync.
type SyncResponse struct {
	Address   string `json:"address"`
	Kind      string `json:"kind"`
	Processed int    `json:"processed"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "address")
	if !common.IsHexAddress(raw) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid contract address"})
		return
	}
	address := common.HexToAddress(raw)

	var req syncRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	kind, err := contracts.ParseKind(req.Kind)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	processed, err := s.syncer.Sync(r.Context(), address, kind)
	if err != nil {
		s.logger.Error("manual sync failed",
			zap.String("address", contracts.FormatAddress(address)),
			zap.Stringer("kind", kind),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "sync failed"})
		return
	}

	writeJSON(w, http.StatusOK, SyncResponse{
		Address:   contracts.FormatAddress(address),
		Kind:      kind.String(),
		Processed: processed,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// requestLogger logs every request, at Warn for 4xx and Error for 5xx.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			}
			switch {
			case status >= 500:
				logger.Error("http request", fields...)
			case status >= 400:
				logger.Warn("http request", fields...)
			case strings.HasPrefix(r.URL.Path, "/metrics"), r.URL.Path == "/health":
				logger.Debug("http request", fields...)
			default:
				logger.Info("http request", fields...)
			}
		})
	}
}
