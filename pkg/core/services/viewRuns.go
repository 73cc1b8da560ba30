package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/relief-allocator/pkg/db"
)

// ViewRuns returns the most recent served allocations, newest first
func ViewRuns(ctx context.Context, runs db.RunStore, logger *zap.Logger, limit int) ([]db.Run, error) {
	if limit < 0 {
		return nil, fmt.Errorf("limit must not be negative, got %d", limit)
	}

	logger.Debug("Fetching allocation runs", zap.Int("limit", limit))
	result, err := runs.GetRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch allocation runs: %w", err)
	}

	logger.Debug("Fetched allocation runs", zap.Int("count", len(result)))
	return result, nil
}
