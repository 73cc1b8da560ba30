package model

// ModelType is the classification reported for every allocation run
const ModelType = "Integer Program"

// Zone represents one disaster-affected area requiring volunteers.
// Optional attributes are nil when the caller did not supply them; a constraint
// involving an attribute is only active when that attribute is present.
type Zone struct {
	ID                       string   `json:"id" yaml:"id" validate:"required"`
	Severity                 int      `json:"severity" yaml:"severity" validate:"min=0"`
	RequiredVolunteers       *int     `json:"required_volunteers,omitempty" yaml:"required_volunteers,omitempty" validate:"omitempty,min=0"`
	Capacity                 *int     `json:"capacity,omitempty" yaml:"capacity,omitempty" validate:"omitempty,min=0"`
	ResourcesAvailable       *float64 `json:"resources_available,omitempty" yaml:"resources_available,omitempty" validate:"omitempty,min=0"`
	MinResourcesPerVolunteer *float64 `json:"min_resources_per_volunteer,omitempty" yaml:"min_resources_per_volunteer,omitempty" validate:"omitempty,min=0"`
}

// Required returns the zone's desired headcount, or 0 when not set
func (z Zone) Required() int {
	if z.RequiredVolunteers == nil {
		return 0
	}
	return *z.RequiredVolunteers
}

// HasResourceCoupling reports whether both resource attributes are set
func (z Zone) HasResourceCoupling() bool {
	return z.ResourcesAvailable != nil && z.MinResourcesPerVolunteer != nil
}

// AllocationRequest is the input to a single optimization run.
// It is never mutated by the engine.
type AllocationRequest struct {
	Zones               []Zone  `json:"zones" yaml:"zones" validate:"required,min=1,dive"`
	AvailableVolunteers int     `json:"available_volunteers" yaml:"available_volunteers" validate:"min=0"`
	FairnessWeight      float64 `json:"fairness_weight" yaml:"fairness_weight" validate:"min=0"`

	// ExtraConstraints is reserved for future constraint extensions and is ignored
	ExtraConstraints map[string]any `json:"extra_constraints,omitempty" yaml:"extra_constraints,omitempty"`
}

// ZoneAllocation is one row of the allocation plan
type ZoneAllocation struct {
	ZoneID           string   `json:"zone_id"`
	Severity         int      `json:"severity"`
	Required         int      `json:"required"`
	Capacity         *int     `json:"capacity"`
	Allocated        int      `json:"allocated"`
	SatisfactionPct  float64  `json:"satisfaction_pct"`
	CapacityUsedPct  *float64 `json:"capacity_used_pct"`
	ResourcesUsed    *float64 `json:"resources_used"`
	ResourcesUsedPct *float64 `json:"resources_used_pct"`
}

// FairnessMetrics describes the dispersion of the realized allocation vector
type FairnessMetrics struct {
	MeanAllocation         float64 `json:"mean_allocation"`
	Variance               float64 `json:"variance"`
	StdDeviation           float64 `json:"std_deviation"`
	CoefficientOfVariation float64 `json:"coefficient_of_variation"`
}

// OptimizationMetadata describes how a plan was produced
type OptimizationMetadata struct {
	ObjectiveValue      float64         `json:"objective_value"`
	SolveTimeSeconds    float64         `json:"solve_time_seconds"`
	ModelType           string          `json:"model_type"`
	SolverStatus        int             `json:"solver_status"`
	SolverStatusName    string          `json:"solver_status_name"`
	RemainingVolunteers int             `json:"remaining_volunteers"`
	FairnessWeight      float64         `json:"fairness_weight"`
	FairnessMetrics     FairnessMetrics `json:"fairness_metrics"`
}

// AllocationResult is the output of a successful optimization run.
// AllocationPlan is aligned with the order of the request's zones.
type AllocationResult struct {
	AllocationPlan []ZoneAllocation     `json:"allocation_plan"`
	Metadata       OptimizationMetadata `json:"metadata"`
}

// TotalAllocated sums the allocations across the plan
func (r *AllocationResult) TotalAllocated() int {
	total := 0
	for _, row := range r.AllocationPlan {
		total += row.Allocated
	}
	return total
}

// Clone returns a deep copy of the result so cached plans cannot be mutated by callers
func (r *AllocationResult) Clone() *AllocationResult {
	if r == nil {
		return nil
	}
	out := &AllocationResult{
		AllocationPlan: make([]ZoneAllocation, len(r.AllocationPlan)),
		Metadata:       r.Metadata,
	}
	for i, row := range r.AllocationPlan {
		row.Capacity = cloneInt(row.Capacity)
		row.CapacityUsedPct = cloneFloat(row.CapacityUsedPct)
		row.ResourcesUsed = cloneFloat(row.ResourcesUsed)
		row.ResourcesUsedPct = cloneFloat(row.ResourcesUsedPct)
		out.AllocationPlan[i] = row
	}
	return out
}

// ModelFeatures lists which parts of the model are active
type ModelFeatures struct {
	SeverityOptimization bool `json:"severity_optimization"`
	CapacityConstraints  bool `json:"capacity_constraints"`
	ResourceCoupling     bool `json:"resource_coupling"`
	FairnessFloor        bool `json:"fairness_floor"`
	IntegerVariables     bool `json:"integer_variables"`
}

// ModelInfo describes the optimization model
type ModelInfo struct {
	Version        string        `json:"version"`
	FairnessWeight float64       `json:"fairness_weight"`
	Solver         string        `json:"solver"`
	Features       ModelFeatures `json:"features"`
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
