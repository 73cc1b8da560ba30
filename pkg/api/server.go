// Package api exposes the allocation engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jakechorley/relief-allocator/internal/config"
	"github.com/jakechorley/relief-allocator/pkg/cache"
	"github.com/jakechorley/relief-allocator/pkg/core/model"
	"github.com/jakechorley/relief-allocator/pkg/core/optimizer"
	"github.com/jakechorley/relief-allocator/pkg/core/services"
	"github.com/jakechorley/relief-allocator/pkg/db"
	"github.com/jakechorley/relief-allocator/pkg/metrics"
)

const maxBodyBytes = 1 << 20

// Engine is the allocation capability served over HTTP
type Engine interface {
	services.Engine
	ModelInfo(fairnessWeight float64) model.ModelInfo
}

// Options configures a Server
type Options struct {
	Engine                Engine
	Store                 cache.Store
	Runs                  db.RunStore
	Logger                *zap.Logger
	DefaultFairnessWeight float64
	BudgetOverrides       []config.BudgetOverride
	Now                   func() time.Time
}

// Server is the HTTP façade over the allocation services
type Server struct {
	opts Options
	mux  *http.ServeMux
}

// allocateRequest distinguishes an absent fairness weight from an explicit zero
type allocateRequest struct {
	Zones               []model.Zone   `json:"zones"`
	AvailableVolunteers *int           `json:"available_volunteers"`
	FairnessWeight      *float64       `json:"fairness_weight"`
	ExtraConstraints    map[string]any `json:"extra_constraints"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// NewServer creates a Server and registers its routes
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Store == nil {
		opts.Store = cache.NoopStore{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{opts: opts, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /model-info", s.handleModelInfo)
	s.mux.HandleFunc("POST /allocate", s.handleAllocate)
	s.mux.HandleFunc("GET /runs", s.handleRuns)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	return s
}

// ServeHTTP implements http.Handler, counting every request by route and status code
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)

	_, pattern := s.mux.Handler(r)
	if pattern == "" {
		pattern = "unmatched"
	}
	metrics.HTTPRequestsTotal.WithLabelValues(pattern, strconv.Itoa(rec.status)).Inc()
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.opts.Logger.Info("HTTP server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	s.opts.Logger.Info("HTTP server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":        "ok",
		"model_version": optimizer.ModelVersion,
	})
}

func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.opts.Engine.ModelInfo(s.opts.DefaultFairnessWeight))
}

func (s *Server) handleAllocate(w http.ResponseWriter, r *http.Request) {
	var body allocateRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(&body); err != nil {
		s.writeError(w, fmt.Errorf("%w: malformed JSON body: %v", optimizer.ErrInvalidInput, err))
		return
	}

	req, err := s.toRequest(body)
	if err != nil {
		s.writeError(w, err)
		return
	}

	date := s.opts.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		date, err = time.Parse("2006-01-02", raw)
		if err != nil {
			s.writeError(w, fmt.Errorf("%w: date must be YYYY-MM-DD", optimizer.ErrInvalidInput))
			return
		}
	}

	req, _, err = services.ResolveBudget(req, s.opts.BudgetOverrides, date, s.opts.Logger)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp, err := services.AllocateVolunteers(r.Context(), s.opts.Engine, s.opts.Store, s.opts.Runs, s.opts.Logger, req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.opts.Runs == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "run history is not enabled", Status: http.StatusNotFound})
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, fmt.Errorf("%w: limit must be a non-negative integer", optimizer.ErrInvalidInput))
			return
		}
		limit = n
	}

	runs, err := services.ViewRuns(r.Context(), s.opts.Runs, s.opts.Logger, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

// toRequest performs shape validation before the request reaches the core
func (s *Server) toRequest(body allocateRequest) (model.AllocationRequest, error) {
	if len(body.Zones) == 0 {
		return model.AllocationRequest{}, fmt.Errorf("%w: zones must be a non-empty list", optimizer.ErrInvalidInput)
	}
	if body.AvailableVolunteers == nil {
		return model.AllocationRequest{}, fmt.Errorf("%w: available_volunteers is required", optimizer.ErrInvalidInput)
	}
	if *body.AvailableVolunteers < 0 {
		return model.AllocationRequest{}, fmt.Errorf("%w: available_volunteers must be non-negative", optimizer.ErrInvalidInput)
	}

	req := model.AllocationRequest{
		Zones:               body.Zones,
		AvailableVolunteers: *body.AvailableVolunteers,
		FairnessWeight:      s.opts.DefaultFairnessWeight,
		ExtraConstraints:    body.ExtraConstraints,
	}
	if body.FairnessWeight != nil {
		req.FairnessWeight = *body.FairnessWeight
	}
	return req, nil
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := StatusCode(err)
	if status >= http.StatusInternalServerError {
		s.opts.Logger.Error("Allocation request failed", zap.Int("status", status), zap.Error(err))
	} else {
		s.opts.Logger.Debug("Allocation request rejected", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Status: status})
}

// StatusCode maps an allocation error to its HTTP status code
func StatusCode(err error) int {
	switch {
	case errors.Is(err, optimizer.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, optimizer.ErrInfeasible), errors.Is(err, optimizer.ErrUnbounded):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
