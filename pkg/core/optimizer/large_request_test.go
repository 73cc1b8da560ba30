package optimizer

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/relief-allocator/pkg/core/model"
)

// largeRequest builds n zones with capacities, requirements and fractional
// resource rates, and a budget of 12 volunteers per zone.
func largeRequest(n int, fairnessWeight float64, seed int64) model.AllocationRequest {
	rng := rand.New(rand.NewSource(seed))
	rates := []float64{0.5, 1.5, 2.5, 3.3}

	zones := make([]model.Zone, n)
	for i := range zones {
		rate := rates[rng.Intn(len(rates))]
		zones[i] = model.Zone{
			ID:                       fmt.Sprintf("Z%03d", i),
			Severity:                 1 + rng.Intn(10),
			RequiredVolunteers:       intPtr(10 + rng.Intn(21)),
			Capacity:                 intPtr(8 + rng.Intn(18)),
			ResourcesAvailable:       floatPtr(rate*float64(8+rng.Intn(23)) + 0.6),
			MinResourcesPerVolunteer: floatPtr(rate),
		}
	}

	return model.AllocationRequest{
		Zones:               zones,
		AvailableVolunteers: 12 * n,
		FairnessWeight:      fairnessWeight,
	}
}

// greedyObjective is the optimum for unit-weight zones: fill the integer
// floors, then spend what is left on the most severe zones first.
func greedyObjective(req model.AllocationRequest) int {
	floors := FairnessFloors(req)
	lower := make([]int, len(req.Zones))
	upper := make([]int, len(req.Zones))
	remaining := req.AvailableVolunteers

	for i, zone := range req.Zones {
		upper[i] = UpperBound(zone, req.AvailableVolunteers)
		if zone.HasResourceCoupling() {
			byResources := int(math.Floor(*zone.ResourcesAvailable / *zone.MinResourcesPerVolunteer + 1e-6))
			upper[i] = min(upper[i], byResources)
		}
		if floors != nil {
			lower[i] = int(math.Ceil(floors[i] - 1e-6))
		}
		remaining -= lower[i]
	}

	order := make([]int, len(req.Zones))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return req.Zones[order[a]].Severity > req.Zones[order[b]].Severity
	})

	total := 0
	for i, zone := range req.Zones {
		total += zone.Severity * lower[i]
	}
	for _, i := range order {
		extra := min(upper[i]-lower[i], remaining)
		total += req.Zones[i].Severity * extra
		remaining -= extra
	}
	return total
}

func TestAllocate_LargeRequestsSolveWithinTimeout(t *testing.T) {
	const timeout = 20 * time.Second

	for _, n := range []int{60, 100} {
		for _, weight := range []float64{0, 0.3} {
			t.Run(fmt.Sprintf("%d zones weight %.1f", n, weight), func(t *testing.T) {
				req := largeRequest(n, weight, int64(n))
				opt := New(Config{Timeout: timeout, Logger: zap.NewNop()})

				start := time.Now()
				result, err := opt.Allocate(context.Background(), req)
				require.NoError(t, err)
				assert.Less(t, time.Since(start), timeout)

				assert.Equal(t, "Optimal", result.Metadata.SolverStatusName)
				assert.Equal(t, float64(greedyObjective(req)), result.Metadata.ObjectiveValue)
				assert.LessOrEqual(t, result.TotalAllocated(), req.AvailableVolunteers)

				floors := FairnessFloors(req)
				for i, row := range result.AllocationPlan {
					assert.LessOrEqual(t, row.Allocated, *req.Zones[i].Capacity)
					if floors != nil {
						assert.GreaterOrEqual(t, float64(row.Allocated), floors[i]-1e-6, "zone %s", row.ZoneID)
					}
				}
			})
		}
	}
}
