package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/relief-allocator/pkg/core/model"
	"github.com/jakechorley/relief-allocator/pkg/db"
)

const testDatabaseEnv = "RELIEF_ALLOCATOR_TEST_DATABASE_URL"

var _ db.Database = (*DB)(nil)

func TestMigrationFiles_Ordered(t *testing.T) {
	files, err := MigrationFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"001_create_allocation_cache.sql", "002_create_allocation_run.sql"}, files)
}

func newTestDB(t *testing.T) *DB {
	t.Helper()
	connString := os.Getenv(testDatabaseEnv)
	if connString == "" {
		t.Skipf("%s not set", testDatabaseEnv)
	}

	ctx := context.Background()
	database, err := NewDB(ctx, connString)
	require.NoError(t, err)
	t.Cleanup(database.Close)

	_, err = database.RunMigrations(ctx)
	require.NoError(t, err)
	return database
}

func TestDB_CacheRoundTrip(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	capacity := 6
	key := "test-" + uuid.NewString()

	miss, err := database.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, miss)

	result := &model.AllocationResult{
		AllocationPlan: []model.ZoneAllocation{{ZoneID: "Z1", Severity: 8, Required: 10, Capacity: &capacity, Allocated: 6, SatisfactionPct: 60}},
		Metadata: model.OptimizationMetadata{
			ObjectiveValue:   48,
			ModelType:        model.ModelType,
			SolverStatus:     1,
			SolverStatusName: "Optimal",
		},
	}
	require.NoError(t, database.Put(ctx, key, result))
	require.NoError(t, database.Put(ctx, key, result))

	got, err := database.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, result, got)
}

func TestDB_Runs(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	run := db.Run{
		RunID:               uuid.NewString(),
		Fingerprint:         "abc",
		Source:              "live",
		Zones:               3,
		AvailableVolunteers: 12,
		TotalAllocated:      12,
		ObjectiveValue:      90,
		SolverStatus:        "Optimal",
		CreatedAt:           time.Now().Add(time.Hour).UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, database.InsertRun(ctx, run))

	runs, err := database.GetRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.RunID, runs[0].RunID)
	assert.Equal(t, run.TotalAllocated, runs[0].TotalAllocated)
	assert.True(t, run.CreatedAt.Equal(runs[0].CreatedAt))
}

func TestDB_PurgeCache(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	key := "purge-" + uuid.NewString()

	require.NoError(t, database.Put(ctx, key, &model.AllocationResult{}))

	removed, err := database.PurgeCache(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, removed, int64(1))

	got, err := database.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)
}
