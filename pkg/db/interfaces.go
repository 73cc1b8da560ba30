package db

import (
	"context"
	"time"

	"github.com/jakechorley/relief-allocator/pkg/cache"
)

// Run is the audit record of one served allocation
type Run struct {
	RunID               string    `json:"run_id"`
	Fingerprint         string    `json:"fingerprint"`
	Source              string    `json:"source"`
	Zones               int       `json:"zones"`
	AvailableVolunteers int       `json:"available_volunteers"`
	TotalAllocated      int       `json:"total_allocated"`
	ObjectiveValue      float64   `json:"objective_value"`
	SolverStatus        string    `json:"solver_status"`
	CreatedAt           time.Time `json:"created_at"`
}

// RunStore records and lists served allocations
type RunStore interface {
	InsertRun(ctx context.Context, run Run) error
	GetRuns(ctx context.Context, limit int) ([]Run, error)
}

// Database defines the interface for all database operations.
// postgres.DB implements this interface.
type Database interface {
	cache.Store
	RunStore
}
