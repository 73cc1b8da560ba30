package milp

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// DefaultMaxNodes bounds the search tree when no limit is configured
const DefaultMaxNodes = 100000

const (
	integralityTol = 1e-6
	feasibilityTol = 1e-9
	simplexTol     = 1e-10
)

// ErrNodeLimit is returned when the node limit is exhausted before any integer solution is found
var ErrNodeLimit = errors.New("node limit reached without an integer solution")

// BranchAndBound is a depth-first branch-and-bound MILP solver. Constraints on
// a single variable are folded into that variable's bounds before the search.
// Each node's LP relaxation is converted to standard form and solved with
// gonum's simplex. It never prints; callers see only the returned Solution.
type BranchAndBound struct {
	// MaxNodes caps the number of LP relaxations solved. Zero means DefaultMaxNodes.
	MaxNodes int
}

// NewBranchAndBound creates a solver with the given node limit
func NewBranchAndBound(maxNodes int) *BranchAndBound {
	return &BranchAndBound{MaxNodes: maxNodes}
}

// Name identifies the backend in model info output
func (b *BranchAndBound) Name() string {
	return "branch-and-bound (gonum simplex)"
}

type node struct {
	lower []float64
	upper []float64
}

func (n node) clone() node {
	return node{
		lower: append([]float64(nil), n.lower...),
		upper: append([]float64(nil), n.upper...),
	}
}

// Solve implements Solver
func (b *BranchAndBound) Solve(ctx context.Context, p *Problem) (*Solution, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid problem: %w", err)
	}

	maxNodes := b.MaxNodes
	if maxNodes <= 0 {
		maxNodes = DefaultMaxNodes
	}

	// Work internally as a minimisation
	cost := make([]float64, len(p.Objective))
	for i, c := range p.Objective {
		if p.Sense == Maximize {
			cost[i] = -c
		} else {
			cost[i] = c
		}
	}

	root := node{
		lower: make([]float64, len(p.Variables)),
		upper: make([]float64, len(p.Variables)),
	}
	for i, v := range p.Variables {
		root.lower[i], root.upper[i] = v.Lower, v.Upper
		if v.Integer {
			root.lower[i] = math.Ceil(v.Lower - integralityTol)
			if !math.IsInf(v.Upper, 1) {
				root.upper[i] = math.Floor(v.Upper + integralityTol)
			}
		}
	}

	constraints, ok := presolve(p, root.lower, root.upper)
	if !ok {
		return &Solution{Status: StatusInfeasible}, nil
	}
	integralCost := hasIntegralCost(p, cost)

	var (
		best     []float64
		bestCost = math.Inf(1)
		nodes    int
		stack    = []node{root}
	)

	for len(stack) > 0 && nodes < maxNodes {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("solve interrupted after %d nodes: %w", nodes, err)
		}

		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		x, value, status, err := solveRelaxation(p, constraints, cost, current.lower, current.upper)
		if err != nil {
			return nil, err
		}
		switch status {
		case StatusInfeasible:
			continue
		case StatusUnbounded:
			return &Solution{Status: StatusUnbounded, Nodes: nodes}, nil
		}

		// Bound: this subtree cannot beat the incumbent. With integral costs
		// on integer variables no integer point lies strictly between the LP
		// value and the next integer.
		bound := value
		if integralCost {
			bound = math.Ceil(value - integralityTol)
		}
		if best != nil && bound >= bestCost-feasibilityTol*math.Max(1, math.Abs(bestCost)) {
			continue
		}

		j := mostFractional(p, x)
		if j < 0 {
			roundIntegers(p, x)
			best, bestCost = x, dot(cost, x)
			continue
		}

		down := current.clone()
		down.upper[j] = math.Floor(x[j])
		up := current.clone()
		up.lower[j] = math.Ceil(x[j])

		// The child pushed last is explored first
		if x[j]-math.Floor(x[j]) >= 0.5 {
			stack = append(stack, down, up)
		} else {
			stack = append(stack, up, down)
		}
	}

	limitHit := len(stack) > 0
	if best == nil {
		if limitHit {
			return nil, fmt.Errorf("%w (%d nodes)", ErrNodeLimit, nodes)
		}
		return &Solution{Status: StatusInfeasible, Nodes: nodes}, nil
	}

	status := StatusOptimal
	if limitHit {
		status = StatusFeasible
	}

	return &Solution{
		Status:    status,
		Values:    best,
		Objective: p.Evaluate(best),
		Nodes:     nodes,
	}, nil
}

// presolve folds every constraint that involves a single variable into that
// variable's bounds, rounding inward for integer variables. It returns the
// constraints left for the relaxation, or false when some bounds cross.
func presolve(p *Problem, lower, upper []float64) ([]Constraint, bool) {
	rest := make([]Constraint, 0, len(p.Constraints))
	for _, c := range p.Constraints {
		j, coeff, ok := singleVariable(c)
		if !ok {
			rest = append(rest, c)
			continue
		}

		op := c.Op
		if coeff < 0 {
			switch op {
			case LessEq:
				op = GreaterEq
			case GreaterEq:
				op = LessEq
			}
		}
		limit := c.RHS / coeff
		integer := p.Variables[j].Integer

		if op == LessEq || op == Equal {
			hi := limit
			if integer {
				hi = math.Floor(limit + integralityTol)
			}
			upper[j] = math.Min(upper[j], hi)
		}
		if op == GreaterEq || op == Equal {
			lo := limit
			if integer {
				lo = math.Ceil(limit - integralityTol)
			}
			lower[j] = math.Max(lower[j], lo)
		}

		if upper[j] < lower[j]-feasibilityTol {
			return nil, false
		}
	}
	return rest, true
}

// singleVariable reports the variable and summed coefficient of a constraint
// whose terms all reference one variable with a non-zero total coefficient
func singleVariable(c Constraint) (int, float64, bool) {
	j := -1
	coeff := 0.0
	for _, t := range c.Terms {
		if j >= 0 && t.Var != j {
			return 0, 0, false
		}
		j = t.Var
		coeff += t.Coeff
	}
	if j < 0 || coeff == 0 {
		return 0, 0, false
	}
	return j, coeff, true
}

// hasIntegralCost reports whether every costed variable is an integer with an
// integral cost coefficient
func hasIntegralCost(p *Problem, cost []float64) bool {
	for i, c := range cost {
		if c == 0 {
			continue
		}
		if !p.Variables[i].Integer || c != math.Trunc(c) {
			return false
		}
	}
	return true
}

func roundIntegers(p *Problem, x []float64) {
	for i, v := range p.Variables {
		if v.Integer {
			x[i] = math.Round(x[i])
		}
	}
}

// mostFractional returns the integer variable furthest from integrality, or -1
func mostFractional(p *Problem, x []float64) int {
	idx := -1
	worst := integralityTol
	for i, v := range p.Variables {
		if !v.Integer {
			continue
		}
		frac := x[i] - math.Floor(x[i])
		dist := math.Min(frac, 1-frac)
		if dist > worst {
			worst = dist
			idx = i
		}
	}
	return idx
}

type stdRow struct {
	coeffs []float64
	op     Op
	rhs    float64
}

// solveRelaxation solves the LP relaxation of p over constraints with the given variable bounds.
// Variables are shifted so that x = lower + y with y >= 0, finite upper bounds
// become rows, and every inequality row receives its own slack column, which
// keeps the standard-form matrix at full row rank.
func solveRelaxation(p *Problem, constraints []Constraint, cost, lower, upper []float64) ([]float64, float64, Status, error) {
	n := len(p.Variables)

	for j := 0; j < n; j++ {
		if upper[j] < lower[j]-feasibilityTol {
			return nil, 0, StatusInfeasible, nil
		}
	}

	// Variables whose bounds have collapsed are constants at their lower bound
	fixed := make([]bool, n)
	for j := 0; j < n; j++ {
		fixed[j] = upper[j]-lower[j] <= feasibilityTol
	}

	rows := make([]stdRow, 0, len(constraints)+n)
	for _, c := range constraints {
		coeffs := make([]float64, n)
		rhs := c.RHS
		for _, t := range c.Terms {
			rhs -= t.Coeff * lower[t.Var]
			if !fixed[t.Var] {
				coeffs[t.Var] += t.Coeff
			}
		}
		rows = append(rows, stdRow{coeffs: coeffs, op: c.Op, rhs: rhs})
	}
	for j := 0; j < n; j++ {
		if fixed[j] || math.IsInf(upper[j], 1) {
			continue
		}
		coeffs := make([]float64, n)
		coeffs[j] = 1
		rows = append(rows, stdRow{coeffs: coeffs, op: LessEq, rhs: upper[j] - lower[j]})
	}

	// Rows with no coefficients are either trivially satisfied or prove infeasibility
	active := rows[:0]
	for _, r := range rows {
		if isZero(r.coeffs) {
			if !trivialRowHolds(r) {
				return nil, 0, StatusInfeasible, nil
			}
			continue
		}
		active = append(active, r)
	}
	rows = active

	// Columns absent from every row are free in y >= 0
	columns := make([]int, 0, n)
	for j := 0; j < n; j++ {
		if fixed[j] {
			continue
		}
		used := false
		for _, r := range rows {
			if r.coeffs[j] != 0 {
				used = true
				break
			}
		}
		if used {
			columns = append(columns, j)
			continue
		}
		if cost[j] < 0 {
			return nil, 0, StatusUnbounded, nil
		}
	}

	x := append([]float64(nil), lower...)

	if len(rows) == 0 {
		return x, dot(cost, x), StatusOptimal, nil
	}

	slacks := 0
	for _, r := range rows {
		if r.op != Equal {
			slacks++
		}
	}

	m := len(rows)
	cols := len(columns) + slacks
	if m > cols {
		return nil, 0, StatusUndefined, fmt.Errorf("relaxation has %d rows but only %d columns", m, cols)
	}

	A := mat.NewDense(m, cols, nil)
	b := make([]float64, m)
	c := make([]float64, cols)
	for k, j := range columns {
		c[k] = cost[j]
	}

	slack := len(columns)
	for i, r := range rows {
		for k, j := range columns {
			A.Set(i, k, r.coeffs[j])
		}
		switch r.op {
		case LessEq:
			A.Set(i, slack, 1)
			slack++
		case GreaterEq:
			A.Set(i, slack, -1)
			slack++
		}
		b[i] = r.rhs

		// Keep the right-hand side non-negative
		if b[i] < 0 {
			b[i] = -b[i]
			for k := 0; k < cols; k++ {
				A.Set(i, k, -A.At(i, k))
			}
		}
	}

	_, y, err := lp.Simplex(c, A, b, simplexTol, nil)
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return nil, 0, StatusInfeasible, nil
	case errors.Is(err, lp.ErrUnbounded):
		return nil, 0, StatusUnbounded, nil
	case err != nil:
		return nil, 0, StatusUndefined, fmt.Errorf("simplex failed: %w", err)
	}

	for k, j := range columns {
		x[j] = lower[j] + y[k]
	}

	return x, dot(cost, x), StatusOptimal, nil
}

func trivialRowHolds(r stdRow) bool {
	switch r.op {
	case LessEq:
		return r.rhs >= -feasibilityTol
	case GreaterEq:
		return r.rhs <= feasibilityTol
	default:
		return math.Abs(r.rhs) <= feasibilityTol
	}
}

func isZero(v []float64) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

func dot(a, b []float64) float64 {
	total := 0.0
	for i := range a {
		total += a[i] * b[i]
	}
	return total
}
