package optimizer

import (
	"github.com/jakechorley/relief-allocator/pkg/core/milp"
	"github.com/jakechorley/relief-allocator/pkg/core/model"
)

// Constraint and model names
const (
	ModelName                = "Disaster_Volunteer_Allocation"
	BudgetConstraint         = "Total_Volunteer_Budget"
	fairnessConstraintPrefix = "Fairness_Minimum_"
	capacityConstraintPrefix = "Capacity_Limit_"
	resourceConstraintPrefix = "Resource_Coupling_"
)

// FairnessConstraintName returns the name of a zone's fairness floor constraint
func FairnessConstraintName(zoneID string) string { return fairnessConstraintPrefix + zoneID }

// CapacityConstraintName returns the name of a zone's capacity constraint
func CapacityConstraintName(zoneID string) string { return capacityConstraintPrefix + zoneID }

// ResourceConstraintName returns the name of a zone's resource coupling constraint
func ResourceConstraintName(zoneID string) string { return resourceConstraintPrefix + zoneID }

// VariableName returns the name of a zone's decision variable
func VariableName(zoneID string) string { return "x_" + zoneID }

// BuildModel translates a request into an integer program with one variable
// per zone, in request order. The objective maximises severity-weighted
// allocation. Constraints are the volunteer budget, the fairness floors (when
// the fairness weight and total severity are both positive), capacity limits,
// and resource coupling, each present only when the zone supplies the
// attributes it depends on.
func BuildModel(req model.AllocationRequest) *milp.Problem {
	p := milp.NewProblem(ModelName, milp.Maximize)

	budgetTerms := make([]milp.Term, 0, len(req.Zones))
	for _, zone := range req.Zones {
		idx := p.AddVariable(milp.Variable{
			Name:    VariableName(zone.ID),
			Lower:   0,
			Upper:   float64(UpperBound(zone, req.AvailableVolunteers)),
			Integer: true,
		})
		p.SetObjective(idx, float64(zone.Severity))
		budgetTerms = append(budgetTerms, milp.Term{Var: idx, Coeff: 1})
	}

	p.AddConstraint(milp.Constraint{
		Name:  BudgetConstraint,
		Terms: budgetTerms,
		Op:    milp.LessEq,
		RHS:   float64(req.AvailableVolunteers),
	})

	for i, floor := range FairnessFloors(req) {
		p.AddConstraint(milp.Constraint{
			Name:  FairnessConstraintName(req.Zones[i].ID),
			Terms: []milp.Term{{Var: i, Coeff: 1}},
			Op:    milp.GreaterEq,
			RHS:   floor,
		})
	}

	for i, zone := range req.Zones {
		if zone.Capacity != nil {
			p.AddConstraint(milp.Constraint{
				Name:  CapacityConstraintName(zone.ID),
				Terms: []milp.Term{{Var: i, Coeff: 1}},
				Op:    milp.LessEq,
				RHS:   float64(*zone.Capacity),
			})
		}
	}

	for i, zone := range req.Zones {
		if zone.HasResourceCoupling() {
			p.AddConstraint(milp.Constraint{
				Name:  ResourceConstraintName(zone.ID),
				Terms: []milp.Term{{Var: i, Coeff: *zone.MinResourcesPerVolunteer}},
				Op:    milp.LessEq,
				RHS:   *zone.ResourcesAvailable,
			})
		}
	}

	return p
}

// UpperBound is the tightest of the zone's capacity, its required headcount
// and the total budget. It only narrows the search; the constraints enforce
// the real limits.
func UpperBound(zone model.Zone, budget int) int {
	bound := budget
	if zone.Capacity != nil && *zone.Capacity < bound {
		bound = *zone.Capacity
	}
	if zone.RequiredVolunteers != nil && *zone.RequiredVolunteers < bound {
		bound = *zone.RequiredVolunteers
	}
	return bound
}

// FairnessFloors returns each zone's minimum allocation: its severity share of
// AvailableVolunteers * FairnessWeight. It returns nil when the fairness
// weight or the total severity is zero. Floors are not capped, so weights at
// or above 1 can demand more than the budget and make the model infeasible.
func FairnessFloors(req model.AllocationRequest) []float64 {
	if req.FairnessWeight <= 0 {
		return nil
	}

	totalSeverity := 0
	for _, zone := range req.Zones {
		totalSeverity += zone.Severity
	}
	if totalSeverity <= 0 {
		return nil
	}

	reserved := float64(req.AvailableVolunteers) * req.FairnessWeight
	floors := make([]float64, len(req.Zones))
	for i, zone := range req.Zones {
		floors[i] = float64(zone.Severity) / float64(totalSeverity) * reserved
	}
	return floors
}
