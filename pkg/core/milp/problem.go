// Package milp defines the solver capability used by the allocation engine:
// a small linear problem representation, solver statuses, and a default
// branch-and-bound backend built on gonum's simplex.
package milp

import (
	"context"
	"fmt"
	"math"
)

// Status is the outcome reported by a solver. The numeric codes follow the
// convention used by common MILP front ends so they can be reported verbatim.
type Status int

const (
	StatusNotSolved  Status = 0
	StatusOptimal    Status = 1
	StatusFeasible   Status = 2
	StatusInfeasible Status = -1
	StatusUnbounded  Status = -2
	StatusUndefined  Status = -3
)

func (s Status) String() string {
	switch s {
	case StatusNotSolved:
		return "Not Solved"
	case StatusOptimal:
		return "Optimal"
	case StatusFeasible:
		return "Feasible"
	case StatusInfeasible:
		return "Infeasible"
	case StatusUnbounded:
		return "Unbounded"
	case StatusUndefined:
		return "Undefined"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// HasSolution reports whether a status carries a usable assignment
func (s Status) HasSolution() bool {
	return s == StatusOptimal || s == StatusFeasible
}

// Sense is the optimization direction
type Sense int

const (
	Maximize Sense = iota
	Minimize
)

// Op is the relational operator of a constraint
type Op int

const (
	LessEq Op = iota
	GreaterEq
	Equal
)

func (o Op) String() string {
	switch o {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	default:
		return "=="
	}
}

// Variable is a decision variable. Upper may be +Inf.
type Variable struct {
	Name    string
	Lower   float64
	Upper   float64
	Integer bool
}

// Term is a coefficient applied to the variable at index Var
type Term struct {
	Var   int
	Coeff float64
}

// Constraint is a named linear inequality or equality
type Constraint struct {
	Name  string
	Terms []Term
	Op    Op
	RHS   float64
}

// Problem is a linear (mixed-integer) program
type Problem struct {
	Name        string
	Sense       Sense
	Variables   []Variable
	Objective   []float64
	Constraints []Constraint
}

// NewProblem creates an empty problem with the given name and sense
func NewProblem(name string, sense Sense) *Problem {
	return &Problem{Name: name, Sense: sense}
}

// AddVariable appends a variable with a zero objective coefficient and returns its index
func (p *Problem) AddVariable(v Variable) int {
	p.Variables = append(p.Variables, v)
	p.Objective = append(p.Objective, 0)
	return len(p.Variables) - 1
}

// SetObjective sets the objective coefficient of a variable
func (p *Problem) SetObjective(idx int, coeff float64) {
	p.Objective[idx] = coeff
}

// AddConstraint appends a constraint
func (p *Problem) AddConstraint(c Constraint) {
	p.Constraints = append(p.Constraints, c)
}

// Constraint returns the constraint with the given name
func (p *Problem) Constraint(name string) (Constraint, bool) {
	for _, c := range p.Constraints {
		if c.Name == name {
			return c, true
		}
	}
	return Constraint{}, false
}

// Validate checks the problem is well formed
func (p *Problem) Validate() error {
	if len(p.Objective) != len(p.Variables) {
		return fmt.Errorf("objective has %d coefficients for %d variables", len(p.Objective), len(p.Variables))
	}
	for i, v := range p.Variables {
		if math.IsNaN(v.Lower) || math.IsInf(v.Lower, 0) {
			return fmt.Errorf("variable %q (%d) has invalid lower bound %v", v.Name, i, v.Lower)
		}
		if math.IsNaN(v.Upper) {
			return fmt.Errorf("variable %q (%d) has invalid upper bound", v.Name, i)
		}
	}
	for _, c := range p.Constraints {
		if math.IsNaN(c.RHS) || math.IsInf(c.RHS, 0) {
			return fmt.Errorf("constraint %q has invalid right-hand side %v", c.Name, c.RHS)
		}
		for _, t := range c.Terms {
			if t.Var < 0 || t.Var >= len(p.Variables) {
				return fmt.Errorf("constraint %q references unknown variable %d", c.Name, t.Var)
			}
		}
	}
	return nil
}

// Evaluate returns the objective value of an assignment
func (p *Problem) Evaluate(values []float64) float64 {
	total := 0.0
	for i, coeff := range p.Objective {
		total += coeff * values[i]
	}
	return total
}

// Solution is the raw result of a solve
type Solution struct {
	Status    Status
	Values    []float64
	Objective float64

	// Nodes is the number of branch-and-bound nodes explored
	Nodes int
}

// Solver solves a Problem. Infeasible and unbounded problems are reported via
// Solution.Status with a nil error; the error is reserved for backend failures
// such as cancellation, timeouts and numerical breakdown.
type Solver interface {
	Solve(ctx context.Context, p *Problem) (*Solution, error)
}
