package optimizer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/relief-allocator/pkg/core/milp"
	"github.com/jakechorley/relief-allocator/pkg/core/model"
	"github.com/jakechorley/relief-allocator/pkg/metrics"
)

// ModelVersion identifies the formulation built by BuildModel
const ModelVersion = "0.2.0"

// DefaultFairnessWeight is the recommended fairness weight when none is configured
const DefaultFairnessWeight = 0.6

// Config contains the configuration for creating a new Optimizer
type Config struct {
	// Solver is the MILP backend. Defaults to a BranchAndBound with the default node limit.
	Solver milp.Solver

	// Timeout bounds each solve. Zero means no timeout beyond the caller's context.
	Timeout time.Duration

	Logger *zap.Logger
}

// Optimizer turns allocation requests into allocation plans. It holds no
// per-call state and is safe for concurrent use if its Solver is.
type Optimizer struct {
	solver  milp.Solver
	timeout time.Duration
	logger  *zap.Logger
}

// New creates an Optimizer
func New(cfg Config) *Optimizer {
	o := &Optimizer{
		solver:  cfg.Solver,
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
	}
	if o.solver == nil {
		o.solver = milp.NewBranchAndBound(0)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// Allocate validates the request, builds and solves the model, and interprets
// the result. Infeasible, unbounded and failed solves are returned as
// *StatusError; no fallback plan is ever synthesised.
func (o *Optimizer) Allocate(ctx context.Context, req model.AllocationRequest) (*model.AllocationResult, error) {
	if err := ValidateRequest(req); err != nil {
		metrics.InvalidRequestsTotal.Inc()
		o.logger.Debug("Rejected allocation request", zap.Error(err))
		return nil, err
	}

	if len(req.ExtraConstraints) > 0 {
		o.logger.Debug("Ignoring extra constraints", zap.Int("count", len(req.ExtraConstraints)))
	}

	problem := BuildModel(req)
	metrics.ZonesPerRequest.Observe(float64(len(req.Zones)))

	o.logger.Debug("Built allocation model",
		zap.Int("zones", len(req.Zones)),
		zap.Int("constraints", len(problem.Constraints)),
		zap.Int("available_volunteers", req.AvailableVolunteers),
		zap.Float64("fairness_weight", req.FairnessWeight))

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	start := time.Now()
	sol, err := o.solver.Solve(ctx, problem)
	elapsed := time.Since(start)
	metrics.SolveDurationSeconds.Observe(elapsed.Seconds())

	if err != nil {
		metrics.SolvesTotal.WithLabelValues(milp.StatusUndefined.String()).Inc()
		o.logger.Warn("Solver failed", zap.Duration("elapsed", elapsed), zap.Error(err))
		return nil, &StatusError{Status: milp.StatusUndefined, Err: ErrSolverFailure, Cause: err}
	}

	metrics.SolvesTotal.WithLabelValues(sol.Status.String()).Inc()
	metrics.SolverNodes.Observe(float64(sol.Nodes))

	switch {
	case sol.Status.HasSolution():
	case sol.Status == milp.StatusInfeasible:
		o.logger.Info("Allocation model is infeasible", zap.Float64("fairness_weight", req.FairnessWeight))
		return nil, &StatusError{Status: sol.Status, Err: ErrInfeasible}
	case sol.Status == milp.StatusUnbounded:
		return nil, &StatusError{Status: sol.Status, Err: ErrUnbounded}
	default:
		return nil, &StatusError{Status: sol.Status, Err: ErrSolverFailure}
	}

	result := Interpret(req, sol, elapsed)
	metrics.RemainingVolunteers.Set(float64(result.Metadata.RemainingVolunteers))

	o.logger.Debug("Allocation solved",
		zap.String("status", sol.Status.String()),
		zap.Int("nodes", sol.Nodes),
		zap.Float64("objective", result.Metadata.ObjectiveValue),
		zap.Int("remaining_volunteers", result.Metadata.RemainingVolunteers),
		zap.Duration("elapsed", elapsed))

	return result, nil
}

// ModelInfo describes the model that would be built for the given fairness weight
func (o *Optimizer) ModelInfo(fairnessWeight float64) model.ModelInfo {
	solverName := "custom"
	if named, ok := o.solver.(interface{ Name() string }); ok {
		solverName = named.Name()
	}

	return model.ModelInfo{
		Version:        ModelVersion,
		FairnessWeight: fairnessWeight,
		Solver:         solverName,
		Features: model.ModelFeatures{
			SeverityOptimization: true,
			CapacityConstraints:  true,
			ResourceCoupling:     true,
			FairnessFloor:        fairnessWeight > 0,
			IntegerVariables:     true,
		},
	}
}
