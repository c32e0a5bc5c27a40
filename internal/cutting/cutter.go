package cutting

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/rollcut/internal/solver"
)

// DefaultMaxModelVariables bounds the integer and boolean variables of a
// single model.
const DefaultMaxModelVariables = 100000

// Option customises a Cutter.
type Option func(*Cutter)

// WithVariants overrides the fallback order. An empty list is ignored.
func WithVariants(variants ...Variant) Option {
	return func(c *Cutter) {
		if len(variants) > 0 {
			c.variants = append([]Variant(nil), variants...)
		}
	}
}

// WithCombinedObjective also maximizes the waste of adjacent slot pairs.
func WithCombinedObjective(enabled bool) Option {
	return func(c *Cutter) {
		if enabled {
			c.objective = ObjectiveCombined
		} else {
			c.objective = ObjectiveRollCount
		}
	}
}

// WithMaxModelVariables rejects problems whose models would declare more
// than n variables. Zero disables the check.
func WithMaxModelVariables(n int) Option {
	return func(c *Cutter) {
		if n >= 0 {
			c.maxModelVars = n
		}
	}
}

// WithLogger sets the logger used for attempt reporting.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cutter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Cutter plans cuts by trying model variants in order until one solves.
// It holds no per-call state and is safe for concurrent use when the
// underlying solver is.
type Cutter struct {
	solver    solver.Solver
	variants  []Variant
	objective Objective
	logger    *zap.Logger

	maxModelVars int
}

// New creates a Cutter backed by the given solver.
func New(s solver.Solver, opts ...Option) *Cutter {
	c := &Cutter{
		solver:       s,
		variants:     DefaultVariants,
		logger:       zap.NewNop(),
		maxModelVars: DefaultMaxModelVariables,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CutRolls returns the plan of the first variant that solves. Every attempt
// builds a fresh model; attempts never run concurrently.
func (c *Cutter) CutRolls(demands []Demand, stockLength int) (Result, error) {
	start := time.Now()

	bounds, err := EstimateBounds(demands, stockLength)
	if err != nil {
		return Result{}, err
	}
	if size := ModelSize(len(demands), bounds); c.maxModelVars > 0 && size > c.maxModelVars {
		c.logger.Warn("cutting problem too large",
			zap.Int("demands", len(demands)),
			zap.Int("max_rolls", bounds.MaxRolls),
			zap.Int("model_variables", size),
			zap.Int("limit", c.maxModelVars),
		)
		return Result{}, fmt.Errorf("%w: %d demands over %d slots need %d variables, limit %d",
			ErrProblemTooLarge, len(demands), bounds.MaxRolls, size, c.maxModelVars)
	}

	failures := make([]error, 0, len(c.variants))
	for n, variant := range c.variants {
		attemptStart := time.Now()
		result, err := c.attempt(demands, stockLength, bounds, variant)
		if err != nil {
			c.logger.Warn("variant failed, falling back",
				zap.Stringer("variant", variant),
				zap.Duration("duration", time.Since(attemptStart)),
				zap.Error(err),
			)
			failures = append(failures, &AttemptError{Variant: variant, Err: err})
			continue
		}

		result.Bounds = bounds
		result.Attempts = n + 1
		result.WallTime = time.Since(start)
		c.logger.Info("cutting plan computed",
			zap.Stringer("variant", variant),
			zap.Stringer("status", result.Status),
			zap.Int("rolls", result.NumRollsUsed),
			zap.Int("attempts", result.Attempts),
			zap.Duration("duration", result.WallTime),
		)
		return result, nil
	}

	return Result{}, fmt.Errorf("%w: %w", ErrAllVariantsExhausted, errors.Join(failures...))
}

func (c *Cutter) attempt(demands []Demand, stockLength int, bounds Bounds, variant Variant) (Result, error) {
	f, err := BuildModel(demands, stockLength, bounds, variant, c.objective)
	if err != nil {
		return Result{}, err
	}

	resp, err := c.solver.Solve(f.Model)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrSolveUnknown, err)
	}
	c.logger.Debug("variant solved",
		zap.Stringer("variant", variant),
		zap.Stringer("status", resp.Status),
		zap.Duration("solve_time", resp.WallTime),
	)

	switch resp.Status {
	case solver.StatusOptimal, solver.StatusFeasible:
		return f.decode(resp, demands), nil
	case solver.StatusInfeasible:
		return Result{}, ErrVariantInfeasible
	default:
		return Result{}, fmt.Errorf("%w: status %s", ErrSolveUnknown, resp.Status)
	}
}
