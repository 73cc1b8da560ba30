package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/relief-allocator/pkg/cache"
	"github.com/jakechorley/relief-allocator/pkg/core/model"
	"github.com/jakechorley/relief-allocator/pkg/core/optimizer"
	"github.com/jakechorley/relief-allocator/pkg/db"
	"github.com/jakechorley/relief-allocator/pkg/metrics"
)

// Source reports where a served plan came from
type Source string

const (
	SourceCache Source = "cache"
	SourceLive  Source = "live"
)

// Engine is the optimization capability the services drive
type Engine interface {
	Allocate(ctx context.Context, req model.AllocationRequest) (*model.AllocationResult, error)
}

// AllocationResponse is a served allocation. RunID, Timestamp and Source
// describe this call and are kept out of the result itself.
type AllocationResponse struct {
	*model.AllocationResult
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
	Source    Source    `json:"source"`
}

// AllocateVolunteers serves an allocation request, consulting the result cache
// before solving. Cache and run log failures are logged and bypassed; they
// never fail the request. runs may be nil.
func AllocateVolunteers(
	ctx context.Context,
	engine Engine,
	store cache.Store,
	runs db.RunStore,
	logger *zap.Logger,
	req model.AllocationRequest,
) (*AllocationResponse, error) {
	if err := optimizer.ValidateRequest(req); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	logger = logger.With(zap.String("run_id", runID))

	key, err := cache.Fingerprint(req)
	if err != nil {
		logger.Warn("Failed to fingerprint request, skipping cache", zap.Error(err))
	}

	result, source := lookupCached(ctx, store, key, logger), SourceCache
	if result == nil {
		source = SourceLive
		result, err = engine.Allocate(ctx, req)
		if err != nil {
			logger.Debug("Allocation failed", zap.Error(err))
			return nil, err
		}
		storeResult(ctx, store, key, result, logger)
	}

	resp := &AllocationResponse{
		AllocationResult: result,
		RunID:            runID,
		Timestamp:        time.Now().UTC(),
		Source:           source,
	}

	if runs != nil {
		if err := runs.InsertRun(ctx, newRun(resp, key, req)); err != nil {
			logger.Warn("Failed to record allocation run", zap.Error(err))
		}
	}

	logger.Info("Allocation served",
		zap.String("source", string(source)),
		zap.Int("zones", len(req.Zones)),
		zap.Int("allocated", result.TotalAllocated()),
		zap.Int("remaining_volunteers", result.Metadata.RemainingVolunteers))

	return resp, nil
}

func lookupCached(ctx context.Context, store cache.Store, key string, logger *zap.Logger) *model.AllocationResult {
	if store == nil || key == "" {
		return nil
	}

	cached, err := store.Get(ctx, key)
	if err != nil {
		metrics.CacheErrorsTotal.WithLabelValues("get").Inc()
		logger.Warn("Cache lookup failed, solving live", zap.Error(err))
		return nil
	}
	if cached == nil {
		metrics.CacheRequestsTotal.WithLabelValues(metrics.CacheMiss).Inc()
		return nil
	}

	metrics.CacheRequestsTotal.WithLabelValues(metrics.CacheHit).Inc()
	logger.Debug("Cache hit", zap.String("fingerprint", key))
	return cached
}

func storeResult(ctx context.Context, store cache.Store, key string, result *model.AllocationResult, logger *zap.Logger) {
	if store == nil || key == "" {
		return
	}
	if err := store.Put(ctx, key, result); err != nil {
		metrics.CacheErrorsTotal.WithLabelValues("put").Inc()
		logger.Warn("Failed to cache allocation", zap.Error(err))
	}
}

func newRun(resp *AllocationResponse, key string, req model.AllocationRequest) db.Run {
	return db.Run{
		RunID:               resp.RunID,
		Fingerprint:         key,
		Source:              string(resp.Source),
		Zones:               len(req.Zones),
		AvailableVolunteers: req.AvailableVolunteers,
		TotalAllocated:      resp.TotalAllocated(),
		ObjectiveValue:      resp.Metadata.ObjectiveValue,
		SolverStatus:        resp.Metadata.SolverStatusName,
		CreatedAt:           resp.Timestamp,
	}
}
