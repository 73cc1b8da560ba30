package optimizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/relief-allocator/pkg/core/milp"
	"github.com/jakechorley/relief-allocator/pkg/core/model"
)

func TestInterpret_PlanRows(t *testing.T) {
	req := model.AllocationRequest{
		Zones: []model.Zone{
			{ID: "full", Severity: 9, RequiredVolunteers: intPtr(8), Capacity: intPtr(10),
				ResourcesAvailable: floatPtr(40), MinResourcesPerVolunteer: floatPtr(2.5)},
			{ID: "bare", Severity: 2},
			{ID: "rate-only", Severity: 4, RequiredVolunteers: intPtr(3), MinResourcesPerVolunteer: floatPtr(1.5)},
			{ID: "zero-cap", Severity: 1, Capacity: intPtr(0), ResourcesAvailable: floatPtr(0), MinResourcesPerVolunteer: floatPtr(1)},
		},
		AvailableVolunteers: 20,
	}
	sol := &milp.Solution{
		Status:    milp.StatusOptimal,
		Values:    []float64{6.0000000001, 0, 2.9999999997, 0},
		Objective: 66,
	}

	result := Interpret(req, sol, 1234567*time.Microsecond)
	require.Len(t, result.AllocationPlan, 4)

	full := result.AllocationPlan[0]
	assert.Equal(t, "full", full.ZoneID)
	assert.Equal(t, 9, full.Severity)
	assert.Equal(t, 8, full.Required)
	assert.Equal(t, 6, full.Allocated)
	assert.Equal(t, 75.0, full.SatisfactionPct)
	require.NotNil(t, full.Capacity)
	assert.Equal(t, 10, *full.Capacity)
	require.NotNil(t, full.CapacityUsedPct)
	assert.Equal(t, 60.0, *full.CapacityUsedPct)
	require.NotNil(t, full.ResourcesUsed)
	assert.Equal(t, 15.0, *full.ResourcesUsed)
	require.NotNil(t, full.ResourcesUsedPct)
	assert.Equal(t, 37.5, *full.ResourcesUsedPct)

	bare := result.AllocationPlan[1]
	assert.Equal(t, 0, bare.Required)
	assert.Equal(t, 0.0, bare.SatisfactionPct)
	assert.Nil(t, bare.Capacity)
	assert.Nil(t, bare.CapacityUsedPct)
	assert.Nil(t, bare.ResourcesUsed)
	assert.Nil(t, bare.ResourcesUsedPct)

	rateOnly := result.AllocationPlan[2]
	assert.Equal(t, 3, rateOnly.Allocated)
	assert.Equal(t, 100.0, rateOnly.SatisfactionPct)
	require.NotNil(t, rateOnly.ResourcesUsed)
	assert.Equal(t, 4.5, *rateOnly.ResourcesUsed)
	assert.Nil(t, rateOnly.ResourcesUsedPct, "percentage needs resources_available")

	zeroCap := result.AllocationPlan[3]
	require.NotNil(t, zeroCap.CapacityUsedPct)
	assert.Equal(t, 0.0, *zeroCap.CapacityUsedPct)
	require.NotNil(t, zeroCap.ResourcesUsedPct)
	assert.Equal(t, 0.0, *zeroCap.ResourcesUsedPct)

	md := result.Metadata
	assert.Equal(t, 66.0, md.ObjectiveValue)
	assert.Equal(t, 1.2346, md.SolveTimeSeconds)
	assert.Equal(t, model.ModelType, md.ModelType)
	assert.Equal(t, int(milp.StatusOptimal), md.SolverStatus)
	assert.Equal(t, "Optimal", md.SolverStatusName)
	assert.Equal(t, 11, md.RemainingVolunteers)
	assert.Equal(t, 9, result.TotalAllocated())
}

func TestInterpret_RoundsPercentagesToOneDecimal(t *testing.T) {
	req := model.AllocationRequest{
		Zones:               []model.Zone{{ID: "a", Severity: 1, RequiredVolunteers: intPtr(3), Capacity: intPtr(7)}},
		AvailableVolunteers: 5,
	}
	sol := &milp.Solution{Status: milp.StatusOptimal, Values: []float64{1}, Objective: 1}

	row := Interpret(req, sol, 0).AllocationPlan[0]

	assert.Equal(t, 33.3, row.SatisfactionPct)
	assert.Equal(t, 14.3, *row.CapacityUsedPct)
}

func TestComputeFairnessMetrics(t *testing.T) {
	tests := []struct {
		name        string
		allocations []int
		expected    model.FairnessMetrics
	}{
		{
			name:        "empty",
			allocations: nil,
			expected:    model.FairnessMetrics{},
		},
		{
			name:        "all zero guards coefficient of variation",
			allocations: []int{0, 0, 0},
			expected:    model.FairnessMetrics{},
		},
		{
			name:        "uniform",
			allocations: []int{4, 4, 4, 4},
			expected:    model.FairnessMetrics{MeanAllocation: 4},
		},
		{
			name:        "population statistics",
			allocations: []int{10, 2},
			expected: model.FairnessMetrics{
				MeanAllocation:         6,
				Variance:               16,
				StdDeviation:           4,
				CoefficientOfVariation: 66.67,
			},
		},
		{
			name:        "three zones",
			allocations: []int{10, 1, 1},
			expected: model.FairnessMetrics{
				MeanAllocation:         4,
				Variance:               18,
				StdDeviation:           4.24,
				CoefficientOfVariation: 106.07,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ComputeFairnessMetrics(tt.allocations))
		})
	}
}
