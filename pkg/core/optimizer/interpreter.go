package optimizer

import (
	"math"
	"time"

	"github.com/jakechorley/relief-allocator/pkg/core/milp"
	"github.com/jakechorley/relief-allocator/pkg/core/model"
)

// Interpret converts a solved assignment into an allocation plan aligned with
// the request's zone order, plus run metadata. Solved values are rounded to
// the nearest integer here to discard solver floating-point residue.
func Interpret(req model.AllocationRequest, sol *milp.Solution, elapsed time.Duration) *model.AllocationResult {
	plan := make([]model.ZoneAllocation, len(req.Zones))
	allocations := make([]int, len(req.Zones))
	total := 0

	for i, zone := range req.Zones {
		allocated := int(math.Round(sol.Values[i]))
		if allocated < 0 {
			allocated = 0
		}
		allocations[i] = allocated
		total += allocated

		row := model.ZoneAllocation{
			ZoneID:    zone.ID,
			Severity:  zone.Severity,
			Required:  zone.Required(),
			Allocated: allocated,
		}

		if required := zone.Required(); required > 0 {
			row.SatisfactionPct = round(float64(allocated)/float64(required)*100, 1)
		}

		if zone.Capacity != nil {
			capacity := *zone.Capacity
			row.Capacity = &capacity
			used := 0.0
			if capacity > 0 {
				used = round(float64(allocated)/float64(capacity)*100, 1)
			}
			row.CapacityUsedPct = &used
		}

		if zone.MinResourcesPerVolunteer != nil {
			resourcesUsed := float64(allocated) * *zone.MinResourcesPerVolunteer
			rounded := round(resourcesUsed, 1)
			row.ResourcesUsed = &rounded

			if zone.ResourcesAvailable != nil {
				pct := 0.0
				if *zone.ResourcesAvailable > 0 {
					pct = round(resourcesUsed/(*zone.ResourcesAvailable)*100, 1)
				}
				row.ResourcesUsedPct = &pct
			}
		}

		plan[i] = row
	}

	return &model.AllocationResult{
		AllocationPlan: plan,
		Metadata: model.OptimizationMetadata{
			ObjectiveValue:      round(sol.Objective, 2),
			SolveTimeSeconds:    round(elapsed.Seconds(), 4),
			ModelType:           model.ModelType,
			SolverStatus:        int(sol.Status),
			SolverStatusName:    sol.Status.String(),
			RemainingVolunteers: req.AvailableVolunteers - total,
			FairnessWeight:      req.FairnessWeight,
			FairnessMetrics:     ComputeFairnessMetrics(allocations),
		},
	}
}

// ComputeFairnessMetrics returns the mean, population variance, population
// standard deviation and coefficient of variation (as a percentage) of the
// realized allocations. The coefficient of variation is 0 when the mean is 0.
func ComputeFairnessMetrics(allocations []int) model.FairnessMetrics {
	if len(allocations) == 0 {
		return model.FairnessMetrics{}
	}

	n := float64(len(allocations))
	sum := 0.0
	for _, a := range allocations {
		sum += float64(a)
	}
	mean := sum / n

	variance := 0.0
	for _, a := range allocations {
		d := float64(a) - mean
		variance += d * d
	}
	variance /= n
	std := math.Sqrt(variance)

	cv := 0.0
	if mean > 0 {
		cv = std / mean * 100
	}

	return model.FairnessMetrics{
		MeanAllocation:         round(mean, 2),
		Variance:               round(variance, 2),
		StdDeviation:           round(std, 2),
		CoefficientOfVariation: round(cv, 2),
	}
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
