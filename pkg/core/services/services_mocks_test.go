package services

import (
	"context"
	"sync"

	"github.com/jakechorley/relief-allocator/pkg/core/model"
	"github.com/jakechorley/relief-allocator/pkg/db"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

// mockEngine returns a fixed plan or fails for requests it is told to fail
type mockEngine struct {
	mu       sync.Mutex
	calls    int
	result   *model.AllocationResult
	err      error
	failWhen func(model.AllocationRequest) error
}

func (m *mockEngine) Allocate(ctx context.Context, req model.AllocationRequest) (*model.AllocationResult, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.failWhen != nil {
		if err := m.failWhen(req); err != nil {
			return nil, err
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result.Clone(), nil
	}

	plan := make([]model.ZoneAllocation, len(req.Zones))
	for i, z := range req.Zones {
		plan[i] = model.ZoneAllocation{ZoneID: z.ID, Severity: z.Severity}
	}
	return &model.AllocationResult{
		AllocationPlan: plan,
		Metadata: model.OptimizationMetadata{
			SolverStatus:        1,
			SolverStatusName:    "Optimal",
			RemainingVolunteers: req.AvailableVolunteers,
		},
	}, nil
}

func (m *mockEngine) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockStore is a map-backed cache store with injectable failures
type mockStore struct {
	mu      sync.Mutex
	entries map[string]*model.AllocationResult
	getErr  error
	putErr  error
	puts    int
}

func newMockStore() *mockStore {
	return &mockStore{entries: make(map[string]*model.AllocationResult)}
}

func (m *mockStore) Get(ctx context.Context, key string) (*model.AllocationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.entries[key], nil
}

func (m *mockStore) Put(ctx context.Context, key string, result *model.AllocationResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	m.entries[key] = result
	return nil
}

// mockRunStore records inserted runs
type mockRunStore struct {
	mu        sync.Mutex
	runs      []db.Run
	insertErr error
	getErr    error
}

func (m *mockRunStore) InsertRun(ctx context.Context, run db.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.runs = append(m.runs, run)
	return nil
}

func (m *mockRunStore) GetRuns(ctx context.Context, limit int) ([]db.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	if limit > 0 && len(m.runs) > limit {
		return m.runs[:limit], nil
	}
	return m.runs, nil
}
