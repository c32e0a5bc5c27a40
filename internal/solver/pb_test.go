package solver

import (
	"testing"
	"time"

	gsolver "github.com/crillab/gophersat/solver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/rollcut/internal/model"
)

func newTestSolver(t *testing.T, opts ...Option) *PBSolver {
	t.Helper()
	base := []Option{WithTimeLimit(5 * time.Second), WithLogger(zaptest.NewLogger(t))}
	return NewPB(append(base, opts...)...)
}

func TestPBSolverMinimizesLinearObjective(t *testing.T) {
	t.Parallel()

	b := model.NewBuilder()
	x := b.NewIntVar(0, 7)
	y := b.NewIntVar(0, 7)
	b.AddGreaterOrEqual(model.NewLinearExpr().AddSum(x, y), model.NewConstant(5))
	b.Minimize(model.NewLinearExpr().AddTerm(x, 2).AddTerm(y, 3))

	m, err := b.Model()
	require.NoError(t, err)

	resp, err := newTestSolver(t).Solve(m)
	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, resp.Status)
	assert.Equal(t, int64(5), resp.Value(x))
	assert.Equal(t, int64(0), resp.Value(y))
	assert.Equal(t, int64(10), resp.Objective)
}

func TestPBSolverMaximizesOverOffsetDomain(t *testing.T) {
	t.Parallel()

	b := model.NewBuilder()
	x := b.NewIntVar(3, 9)
	b.Maximize(x)
	m, err := b.Model()
	require.NoError(t, err)

	resp, err := newTestSolver(t).Solve(m)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, resp.Status)
	assert.Equal(t, int64(9), resp.Value(x))
	assert.Equal(t, int64(-9), resp.Objective)

	b = model.NewBuilder()
	x = b.NewIntVar(3, 9)
	b.Minimize(x)
	m, err = b.Model()
	require.NoError(t, err)

	resp, err = newTestSolver(t).Solve(m)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, resp.Status)
	assert.Equal(t, int64(3), resp.Value(x))
}

func TestPBSolverHonoursEnforcementLiterals(t *testing.T) {
	t.Parallel()

	b := model.NewBuilder()
	x := b.NewIntVar(0, 10)
	high := b.NewBoolVar()
	b.AddGreaterOrEqual(x, model.NewConstant(7)).OnlyEnforceIf(high)
	b.AddLessOrEqual(x, model.NewConstant(2)).OnlyEnforceIf(high.Not())
	b.AddLessOrEqual(x, model.NewConstant(5))
	b.Maximize(x)

	m, err := b.Model()
	require.NoError(t, err)

	resp, err := newTestSolver(t).Solve(m)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, resp.Status)
	assert.Equal(t, int64(2), resp.Value(x))
	assert.False(t, resp.BoolValue(high))
	assert.True(t, resp.BoolValue(high.Not()))
}

func TestPBSolverNegativeCoefficients(t *testing.T) {
	t.Parallel()

	b := model.NewBuilder()
	x := b.NewIntVar(0, 5)
	y := b.NewIntVar(0, 5)
	b.AddEquality(model.NewLinearExpr().Add(x).AddTerm(y, -1), model.NewConstant(3))
	b.Minimize(x)

	m, err := b.Model()
	require.NoError(t, err)

	resp, err := newTestSolver(t).Solve(m)
	require.NoError(t, err)
	require.Equal(t, StatusOptimal, resp.Status)
	assert.Equal(t, int64(3), resp.Value(x))
	assert.Equal(t, int64(0), resp.Value(y))
}

func TestPBSolverInfeasible(t *testing.T) {
	t.Parallel()

	t.Run("trivially", func(t *testing.T) {
		b := model.NewBuilder()
		x := b.NewIntVar(0, 3)
		b.AddGreaterOrEqual(x, model.NewConstant(5))
		m, err := b.Model()
		require.NoError(t, err)

		resp, err := newTestSolver(t).Solve(m)
		require.NoError(t, err)
		assert.Equal(t, StatusInfeasible, resp.Status)
		assert.Nil(t, resp.Values)
	})

	t.Run("by search", func(t *testing.T) {
		b := model.NewBuilder()
		p := b.NewBoolVar()
		q := b.NewBoolVar()
		b.AddEquality(model.NewLinearExpr().AddSum(p, q), model.NewConstant(1))
		b.AddEquality(p, q)
		m, err := b.Model()
		require.NoError(t, err)

		resp, err := newTestSolver(t).Solve(m)
		require.NoError(t, err)
		assert.Equal(t, StatusInfeasible, resp.Status)
	})
}

func TestPBSolverDecisionProblemIsOptimal(t *testing.T) {
	t.Parallel()

	b := model.NewBuilder()
	x := b.NewIntVar(0, 4)
	b.AddEquality(x, model.NewConstant(4))
	m, err := b.Model()
	require.NoError(t, err)

	resp, err := newTestSolver(t).Solve(m)
	require.NoError(t, err)
	assert.Equal(t, StatusOptimal, resp.Status)
	assert.Equal(t, int64(4), resp.Value(x))
}

func TestPBSolverRejectsOversizedModels(t *testing.T) {
	t.Parallel()

	b := model.NewBuilder()
	b.NewIntVar(0, 100)
	m, err := b.Model()
	require.NoError(t, err)

	resp, err := newTestSolver(t, WithMaxVariables(2)).Solve(m)
	require.ErrorIs(t, err, ErrModelTooLarge)
	assert.Equal(t, StatusError, resp.Status)
}

func TestStatusString(t *testing.T) {
	t.Parallel()

	tests := map[Status]string{
		StatusOptimal:    "OPTIMAL",
		StatusFeasible:   "FEASIBLE",
		StatusInfeasible: "INFEASIBLE",
		StatusError:      "ERROR",
		StatusUnknown:    "UNKNOWN",
		Status(42):       "UNKNOWN",
	}
	for status, want := range tests {
		assert.Equal(t, want, status.String())
	}
	assert.True(t, StatusFeasible.Succeeded())
	assert.False(t, StatusUnknown.Succeeded())
}

func TestSolveUntilHoldsSlotUntilAbandonedSearchReturns(t *testing.T) {
	t.Parallel()

	s := newTestSolver(t, WithMaxSearches(1))
	release := make(chan struct{})
	blocking := func() (gsolver.Status, []bool) {
		<-release
		return gsolver.Unsat, nil
	}

	_, _, finished := s.solveUntil(blocking, time.Now().Add(20*time.Millisecond))
	require.False(t, finished)
	assert.Equal(t, 1, s.ActiveSearches(), "abandoned search keeps its slot")

	var ran bool
	quick := func() (gsolver.Status, []bool) {
		ran = true
		return gsolver.Sat, []bool{true}
	}
	_, _, finished = s.solveUntil(quick, time.Now().Add(20*time.Millisecond))
	assert.False(t, finished)
	assert.False(t, ran, "no new search starts while the cap is reached")

	close(release)
	require.Eventually(t, func() bool { return s.ActiveSearches() == 0 }, time.Second, time.Millisecond)

	status, assignment, finished := s.solveUntil(quick, time.Now().Add(time.Second))
	require.True(t, finished)
	assert.True(t, ran)
	assert.Equal(t, gsolver.Sat, status)
	assert.Equal(t, []bool{true}, assignment)
	assert.Zero(t, s.ActiveSearches())
}

func TestSolveUntilWithoutSearchCap(t *testing.T) {
	t.Parallel()

	s := newTestSolver(t, WithMaxSearches(0))
	status, _, finished := s.solveUntil(func() (gsolver.Status, []bool) {
		return gsolver.Unsat, nil
	}, time.Time{})
	require.True(t, finished)
	assert.Equal(t, gsolver.Unsat, status)
	assert.Zero(t, s.ActiveSearches())
}
