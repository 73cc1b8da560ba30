package db

import (
	"context"
	"sort"
	"sync"
)

// MemoryRunLog keeps run records in process memory, newest first on read
type MemoryRunLog struct {
	mu   sync.Mutex
	runs []Run
	max  int
}

// NewMemoryRunLog creates a run log retaining at most max records (0 means unbounded)
func NewMemoryRunLog(max int) *MemoryRunLog {
	return &MemoryRunLog{max: max}
}

// InsertRun implements RunStore
func (l *MemoryRunLog) InsertRun(_ context.Context, run Run) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.runs = append(l.runs, run)
	if l.max > 0 && len(l.runs) > l.max {
		l.runs = l.runs[len(l.runs)-l.max:]
	}
	return nil
}

// GetRuns implements RunStore
func (l *MemoryRunLog) GetRuns(_ context.Context, limit int) ([]Run, error) {
	l.mu.Lock()
	runs := make([]Run, len(l.runs))
	copy(runs, l.runs)
	l.mu.Unlock()

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}
