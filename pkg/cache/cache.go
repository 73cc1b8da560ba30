// Package cache memoizes allocation results keyed on the exact request input.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/jakechorley/relief-allocator/pkg/core/model"
)

// Store is a memoization layer for allocation results. Get reports a miss
// with a nil result and a nil error.
type Store interface {
	Get(ctx context.Context, key string) (*model.AllocationResult, error)
	Put(ctx context.Context, key string, result *model.AllocationResult) error
}

// fingerprintInput is the canonical form of the fields that determine a plan.
// Extra constraints do not affect the plan and are left out.
type fingerprintInput struct {
	Zones               []model.Zone `json:"zones"`
	AvailableVolunteers int          `json:"available_volunteers"`
	FairnessWeight      float64      `json:"fairness_weight"`
}

// Fingerprint returns a stable key for the request's zones, budget and
// fairness weight. Zone order is significant because plans are aligned to it.
func Fingerprint(req model.AllocationRequest) (string, error) {
	data, err := json.Marshal(fingerprintInput{
		Zones:               req.Zones,
		AvailableVolunteers: req.AvailableVolunteers,
		FairnessWeight:      req.FairnessWeight,
	})
	if err != nil {
		return "", fmt.Errorf("failed to serialize request: %w", err)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// MemoryStore is an in-process LRU store
type MemoryStore struct {
	cache *lru.Cache
}

// NewMemoryStore creates an LRU store holding up to size results
func NewMemoryStore(size int) (*MemoryStore, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru cache: %w", err)
	}
	return &MemoryStore{cache: c}, nil
}

// Get implements Store
func (m *MemoryStore) Get(_ context.Context, key string) (*model.AllocationResult, error) {
	v, ok := m.cache.Get(key)
	if !ok {
		return nil, nil
	}
	return v.(*model.AllocationResult).Clone(), nil
}

// Put implements Store
func (m *MemoryStore) Put(_ context.Context, key string, result *model.AllocationResult) error {
	m.cache.Add(key, result.Clone())
	return nil
}

// Len returns the number of cached results
func (m *MemoryStore) Len() int {
	return m.cache.Len()
}

// NoopStore never caches
type NoopStore struct{}

// Get implements Store
func (NoopStore) Get(context.Context, string) (*model.AllocationResult, error) { return nil, nil }

// Put implements Store
func (NoopStore) Put(context.Context, string, *model.AllocationResult) error { return nil }
