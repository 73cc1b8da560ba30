package postgres

import (
	"context"
	"fmt"

	"github.com/jakechorley/relief-allocator/pkg/db"
)

// InsertRun records a served allocation
func (d *DB) InsertRun(ctx context.Context, run db.Run) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO allocation_run (run_id, fingerprint, source, zones, available_volunteers,
			total_allocated, objective_value, solver_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, run.RunID, run.Fingerprint, run.Source, run.Zones, run.AvailableVolunteers,
		run.TotalAllocated, run.ObjectiveValue, run.SolverStatus, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert allocation run: %w", err)
	}
	return nil
}

// GetRuns retrieves the most recent runs, newest first. A limit of 0 returns all runs.
func (d *DB) GetRuns(ctx context.Context, limit int) ([]db.Run, error) {
	query := `
		SELECT run_id::text, fingerprint, source, zones, available_volunteers,
			total_allocated, objective_value, solver_status, created_at
		FROM allocation_run
		ORDER BY created_at DESC
	`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocation runs: %w", err)
	}
	defer rows.Close()

	var runs []db.Run
	for rows.Next() {
		var r db.Run
		if err := rows.Scan(&r.RunID, &r.Fingerprint, &r.Source, &r.Zones, &r.AvailableVolunteers,
			&r.TotalAllocated, &r.ObjectiveValue, &r.SolverStatus, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan allocation run: %w", err)
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allocation runs: %w", err)
	}

	return runs, nil
}
