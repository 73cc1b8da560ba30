package services

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jakechorley/relief-allocator/pkg/cache"
	"github.com/jakechorley/relief-allocator/pkg/db"
	"github.com/jakechorley/relief-allocator/pkg/scenarios"
)

// ScenarioOutcome is the result of one scenario in a batch. Exactly one of
// Response and Err is set.
type ScenarioOutcome struct {
	Scenario scenarios.Scenario
	Response *AllocationResponse
	Err      error
}

// AllocateScenarios solves every scenario on a pool of at most workers
// goroutines. Outcomes are returned in input order and a failed scenario does
// not stop the others.
func AllocateScenarios(
	ctx context.Context,
	engine Engine,
	store cache.Store,
	runs db.RunStore,
	logger *zap.Logger,
	batch []scenarios.Scenario,
	workers int,
) []ScenarioOutcome {
	if workers < 1 {
		workers = 1
	}
	logger.Debug("Starting scenario batch", zap.Int("scenarios", len(batch)), zap.Int("workers", workers))

	outcomes := make([]ScenarioOutcome, len(batch))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, sc := range batch {
		g.Go(func() error {
			scLogger := logger.With(zap.String("scenario_id", sc.ID))
			resp, err := AllocateVolunteers(gctx, engine, store, runs, scLogger, sc.Request)
			if err != nil {
				scLogger.Warn("Scenario failed", zap.Error(err))
			}
			outcomes[i] = ScenarioOutcome{Scenario: sc, Response: resp, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	logger.Info("Scenario batch complete",
		zap.Int("scenarios", len(batch)),
		zap.Int("succeeded", len(batch)-failed),
		zap.Int("failed", failed))

	return outcomes
}
