package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/relief-allocator/pkg/core/model"
)

// Get retrieves a cached allocation result by fingerprint
func (d *DB) Get(ctx context.Context, key string) (*model.AllocationResult, error) {
	var raw []byte
	err := d.pool.QueryRow(ctx, `
		SELECT result FROM allocation_cache WHERE fingerprint = $1
	`, key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cached allocation: %w", err)
	}

	var result model.AllocationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode cached allocation: %w", err)
	}
	return &result, nil
}

// Put stores an allocation result, replacing any previous entry for the fingerprint
func (d *DB) Put(ctx context.Context, key string, result *model.AllocationResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode allocation: %w", err)
	}

	_, err = d.pool.Exec(ctx, `
		INSERT INTO allocation_cache (fingerprint, result)
		VALUES ($1, $2)
		ON CONFLICT (fingerprint) DO UPDATE SET result = EXCLUDED.result, created_at = NOW()
	`, key, raw)
	if err != nil {
		return fmt.Errorf("failed to insert cached allocation: %w", err)
	}
	return nil
}

// PurgeCache removes every cached allocation and returns how many were removed
func (d *DB) PurgeCache(ctx context.Context) (int64, error) {
	tag, err := d.pool.Exec(ctx, `DELETE FROM allocation_cache`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge allocation cache: %w", err)
	}
	return tag.RowsAffected(), nil
}
