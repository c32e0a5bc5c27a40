package solver

import (
	"runtime"
	"time"

	gsolver "github.com/crillab/gophersat/solver"
	"go.uber.org/zap"

	"github.com/eugenenazirov/rollcut/internal/model"
)

const (
	// DefaultTimeLimit bounds a single Solve call.
	DefaultTimeLimit = 10 * time.Second
	// DefaultMaxVariables caps the number of boolean variables of an encoding.
	DefaultMaxVariables = 200000
)

// Option customises a PBSolver.
type Option func(*PBSolver)

// WithTimeLimit bounds each Solve call. Zero or negative disables the limit.
func WithTimeLimit(limit time.Duration) Option {
	return func(s *PBSolver) {
		s.timeLimit = limit
	}
}

// WithMaxVariables rejects models whose encoding needs more boolean
// variables than n. Zero disables the guard.
func WithMaxVariables(n int) Option {
	return func(s *PBSolver) {
		if n >= 0 {
			s.maxVariables = n
		}
	}
}

// WithMaxSearches caps the number of CDCL searches running at once across
// all Solve calls on the solver. A search abandoned at the time limit keeps
// its slot until it actually returns. Zero removes the cap.
func WithMaxSearches(n int) Option {
	return func(s *PBSolver) {
		switch {
		case n == 0:
			s.slots = nil
		case n > 0:
			s.slots = make(chan struct{}, n)
		}
	}
}

// WithLogger sets the logger used for search progress.
func WithLogger(logger *zap.Logger) Option {
	return func(s *PBSolver) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// PBSolver solves models by encoding them as pseudo-boolean constraints
// and running a CDCL search. Optimization proceeds by repeatedly asking
// for a strictly cheaper solution until none exists or time runs out.
type PBSolver struct {
	timeLimit    time.Duration
	maxVariables int
	logger       *zap.Logger
	slots        chan struct{}
}

// NewPB returns a pseudo-boolean solver.
func NewPB(opts ...Option) *PBSolver {
	s := &PBSolver{
		timeLimit:    DefaultTimeLimit,
		maxVariables: DefaultMaxVariables,
		logger:       zap.NewNop(),
		slots:        make(chan struct{}, runtime.NumCPU()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solve implements Solver.
func (s *PBSolver) Solve(m *model.Model) (Response, error) {
	start := time.Now()

	enc, err := encode(m, s.maxVariables)
	if err != nil {
		return Response{Status: StatusError, WallTime: time.Since(start)}, err
	}
	s.logger.Debug("model encoded",
		zap.Int("model_vars", len(m.Vars)),
		zap.Int("model_constraints", len(m.Constraints)),
		zap.Int("bool_vars", enc.numVars),
		zap.Int("pb_constraints", len(enc.constrs)),
	)
	if enc.infeasible {
		return Response{Status: StatusInfeasible, WallTime: time.Since(start)}, nil
	}

	var deadline time.Time
	if s.timeLimit > 0 {
		deadline = start.Add(s.timeLimit)
	}

	search := gsolver.New(gsolver.ParsePBConstrs(enc.constrs))
	run := func() (gsolver.Status, []bool) {
		status := search.Solve()
		if status != gsolver.Sat {
			return status, nil
		}
		return status, append([]bool(nil), search.Model()...)
	}

	var (
		best     []bool
		bestCost int64
		status   = StatusUnknown
	)
	for iteration := 1; ; iteration++ {
		outcome, assignment, finished := s.solveUntil(run, deadline)
		if !finished {
			s.logger.Debug("time limit reached",
				zap.Int("iteration", iteration),
				zap.Int("active_searches", s.ActiveSearches()),
			)
			if best != nil {
				status = StatusFeasible
			}
			break
		}
		if outcome == gsolver.Unsat {
			if best == nil {
				status = StatusInfeasible
			} else {
				status = StatusOptimal
			}
			break
		}
		if outcome != gsolver.Sat {
			if best != nil {
				status = StatusFeasible
			}
			break
		}

		best = assignment
		bestCost = enc.cost(assignment)
		s.logger.Debug("solution found",
			zap.Int("iteration", iteration),
			zap.Int64("objective", enc.objConst+bestCost),
		)
		if len(enc.objLits) == 0 || bestCost == 0 {
			status = StatusOptimal
			break
		}
		search.AppendClause(enc.improvement(bestCost))
	}

	resp := Response{Status: status, WallTime: time.Since(start)}
	if status.Succeeded() {
		resp.Values = enc.values(best)
		if m.Objective != nil {
			resp.Objective = m.Objective.Evaluate(resp.Values)
		}
	}
	return resp, nil
}

// ActiveSearches reports how many searches currently hold a slot,
// including abandoned ones that have not returned yet.
func (s *PBSolver) ActiveSearches() int {
	return len(s.slots)
}

type searchOutcome struct {
	status     gsolver.Status
	assignment []bool
}

// solveUntil waits for a search slot and runs one search in it. gophersat
// cannot interrupt a running search: when the deadline passes first the
// search is abandoned, keeps running and holds its slot until it returns.
// An abandoned search must not be reused.
func (s *PBSolver) solveUntil(search func() (gsolver.Status, []bool), deadline time.Time) (gsolver.Status, []bool, bool) {
	var timeout <-chan time.Time
	if !deadline.IsZero() {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return gsolver.Indet, nil, false
		}
		timer := time.NewTimer(remaining)
		defer timer.Stop()
		timeout = timer.C
	}

	if s.slots != nil {
		select {
		case s.slots <- struct{}{}:
		case <-timeout:
			s.logger.Debug("no search slot before the time limit", zap.Int("slots", cap(s.slots)))
			return gsolver.Indet, nil, false
		}
	}

	done := make(chan searchOutcome, 1)
	go func() {
		status, assignment := search()
		if s.slots != nil {
			<-s.slots
		}
		done <- searchOutcome{status: status, assignment: assignment}
	}()

	select {
	case out := <-done:
		return out.status, out.assignment, true
	case <-timeout:
		return gsolver.Indet, nil, false
	}
}
