package model

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLinearExprNegatedLiteral(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	x := b.NewIntVar(0, 10)
	lit := b.NewBoolVar()

	expr := NewLinearExpr().AddTerm(x, 3).AddTerm(lit.Not(), 5).AddConstant(2)

	want := []Term{{Index: x.Index(), Coeff: 3}, {Index: lit.Index(), Coeff: -5}}
	if diff := cmp.Diff(want, expr.Terms()); diff != "" {
		t.Fatalf("unexpected terms (-want +got):\n%s", diff)
	}
	if got := expr.Offset(); got != 7 {
		t.Fatalf("expected offset 7, got %d", got)
	}

	values := []int64{4, 1}
	if got := expr.Evaluate(values); got != 14 {
		t.Fatalf("expected 14 for x=4, lit=1, got %d", got)
	}
	values[lit.Index()] = 0
	if got := expr.Evaluate(values); got != 19 {
		t.Fatalf("expected 19 for x=4, lit=0, got %d", got)
	}
}

func TestComparisonsNormaliseToRanges(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	x := b.NewIntVar(0, 5)
	y := b.NewIntVar(0, 5)

	tests := []struct {
		name   string
		add    func() *Constraint
		lo, hi int64
	}{
		{"eq", func() *Constraint { return b.AddEquality(x, y) }, 0, 0},
		{"le", func() *Constraint { return b.AddLessOrEqual(x, y) }, NoLowerBound, 0},
		{"lt", func() *Constraint { return b.AddLessThan(x, y) }, NoLowerBound, -1},
		{"ge", func() *Constraint { return b.AddGreaterOrEqual(x, y) }, 0, NoUpperBound},
		{"gt", func() *Constraint { return b.AddGreaterThan(x, y) }, 1, NoUpperBound},
	}

	for _, tc := range tests {
		c := tc.add()
		if c.Lo != tc.lo || c.Hi != tc.hi {
			t.Fatalf("%s: expected range [%d, %d], got [%d, %d]", tc.name, tc.lo, tc.hi, c.Lo, c.Hi)
		}
		want := []Term{{Index: x.Index(), Coeff: 1}, {Index: y.Index(), Coeff: -1}}
		if diff := cmp.Diff(want, c.Expr.Terms()); diff != "" {
			t.Fatalf("%s: unexpected terms (-want +got):\n%s", tc.name, diff)
		}
	}
}

func TestModelSnapshotIsIndependent(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	x := b.NewIntVar(0, 3).WithName("x")
	on := b.NewBoolVar().WithName("on")
	b.AddLessOrEqual(x, NewConstant(2)).OnlyEnforceIf(on.Not())
	b.Minimize(NewLinearExpr().Add(x))
	b.Maximize(NewLinearExpr().Add(on))

	m, err := b.Model()
	if err != nil {
		t.Fatalf("Model returned error: %v", err)
	}

	b.NewIntVar(0, 1)
	b.AddEquality(x, NewConstant(1))

	if len(m.Vars) != 2 || len(m.Constraints) != 1 {
		t.Fatalf("snapshot changed after builder mutation: %d vars, %d constraints", len(m.Vars), len(m.Constraints))
	}
	if m.Vars[0].Name != "x" || !m.Vars[1].Bool {
		t.Fatalf("unexpected vars: %+v", m.Vars)
	}
	if lits := m.Constraints[0].Enforcement; len(lits) != 1 || !lits[0].Negated() {
		t.Fatalf("expected one negated enforcement literal, got %+v", lits)
	}

	wantObjective := []Term{{Index: x.Index(), Coeff: 1}, {Index: on.Index(), Coeff: -1}}
	if diff := cmp.Diff(wantObjective, m.Objective.Terms()); diff != "" {
		t.Fatalf("unexpected objective (-want +got):\n%s", diff)
	}
}

func TestModelRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	t.Run("empty domain", func(t *testing.T) {
		b := NewBuilder()
		b.NewIntVar(3, 1)
		if _, err := b.Model(); !errors.Is(err, ErrInvalidModel) {
			t.Fatalf("expected ErrInvalidModel, got %v", err)
		}
	})

	t.Run("empty range", func(t *testing.T) {
		b := NewBuilder()
		x := b.NewIntVar(0, 1)
		b.AddLinearConstraint(x, 2, 1)
		if _, err := b.Model(); !errors.Is(err, ErrInvalidModel) {
			t.Fatalf("expected ErrInvalidModel, got %v", err)
		}
	})

	t.Run("foreign variable", func(t *testing.T) {
		other := NewBuilder()
		other.NewIntVar(0, 1)
		foreign := other.NewIntVar(0, 1)

		b := NewBuilder()
		b.AddEquality(foreign, NewConstant(0))
		if _, err := b.Model(); !errors.Is(err, ErrInvalidModel) {
			t.Fatalf("expected ErrInvalidModel, got %v", err)
		}
	})
}
