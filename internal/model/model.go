package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidModel is returned by Builder.Model when the accumulated
// variables or constraints are inconsistent.
var ErrInvalidModel = errors.New("invalid model")

// Unbounded sides of a linear constraint.
const (
	NoLowerBound = math.MinInt64
	NoUpperBound = math.MaxInt64
)

// Var describes a declared decision variable.
type Var struct {
	Name string
	Lo   int64
	Hi   int64
	Bool bool
}

// Constraint is lo <= Expr <= hi, active only when every enforcement
// literal holds.
type Constraint struct {
	Expr        LinearExpr
	Lo          int64
	Hi          int64
	Enforcement []BoolVar
}

// OnlyEnforceIf makes the constraint conditional on the given literals.
// Use BoolVar.Not to condition on the negative polarity.
func (c *Constraint) OnlyEnforceIf(lits ...BoolVar) *Constraint {
	c.Enforcement = append(c.Enforcement, lits...)
	return c
}

// Builder accumulates a constraint model. It is not safe for concurrent use.
type Builder struct {
	vars        []Var
	constraints []*Constraint
	minimize    *LinearExpr
	maximize    *LinearExpr
}

// NewBuilder returns an empty model builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// NewIntVar declares an integer variable with domain [lo, hi].
func (b *Builder) NewIntVar(lo, hi int64) IntVar {
	b.vars = append(b.vars, Var{Lo: lo, Hi: hi})
	return IntVar{index: len(b.vars) - 1, builder: b}
}

// NewBoolVar declares a boolean variable.
func (b *Builder) NewBoolVar() BoolVar {
	b.vars = append(b.vars, Var{Lo: 0, Hi: 1, Bool: true})
	return BoolVar{index: len(b.vars) - 1, builder: b}
}

// AddLinearConstraint adds lo <= expr <= hi.
func (b *Builder) AddLinearConstraint(expr LinearArgument, lo, hi int64) *Constraint {
	e := NewLinearExpr().Add(expr)
	c := &Constraint{Expr: *e, Lo: lo, Hi: hi}
	b.constraints = append(b.constraints, c)
	return c
}

// AddEquality adds lhs == rhs.
func (b *Builder) AddEquality(lhs, rhs LinearArgument) *Constraint {
	return b.AddLinearConstraint(difference(lhs, rhs), 0, 0)
}

// AddLessOrEqual adds lhs <= rhs.
func (b *Builder) AddLessOrEqual(lhs, rhs LinearArgument) *Constraint {
	return b.AddLinearConstraint(difference(lhs, rhs), NoLowerBound, 0)
}

// AddLessThan adds lhs < rhs.
func (b *Builder) AddLessThan(lhs, rhs LinearArgument) *Constraint {
	return b.AddLinearConstraint(difference(lhs, rhs), NoLowerBound, -1)
}

// AddGreaterOrEqual adds lhs >= rhs.
func (b *Builder) AddGreaterOrEqual(lhs, rhs LinearArgument) *Constraint {
	return b.AddLinearConstraint(difference(lhs, rhs), 0, NoUpperBound)
}

// AddGreaterThan adds lhs > rhs.
func (b *Builder) AddGreaterThan(lhs, rhs LinearArgument) *Constraint {
	return b.AddLinearConstraint(difference(lhs, rhs), 1, NoUpperBound)
}

// Minimize sets the expression to minimize. It can be combined with
// Maximize; the resulting objective minimizes the difference of both.
func (b *Builder) Minimize(expr LinearArgument) {
	b.minimize = NewLinearExpr().Add(expr)
}

// Maximize sets the expression to maximize.
func (b *Builder) Maximize(expr LinearArgument) {
	b.maximize = NewLinearExpr().Add(expr)
}

// NumVars returns the number of declared variables.
func (b *Builder) NumVars() int {
	return len(b.vars)
}

// Model validates the builder and returns an immutable snapshot.
func (b *Builder) Model() (*Model, error) {
	m := &Model{
		Vars:        make([]Var, len(b.vars)),
		Constraints: make([]Constraint, 0, len(b.constraints)),
	}
	copy(m.Vars, b.vars)

	for i, v := range m.Vars {
		if v.Lo > v.Hi {
			return nil, fmt.Errorf("%w: variable %d has empty domain [%d, %d]", ErrInvalidModel, i, v.Lo, v.Hi)
		}
	}

	for i, c := range b.constraints {
		if c.Lo > c.Hi {
			return nil, fmt.Errorf("%w: constraint %d has empty range [%d, %d]", ErrInvalidModel, i, c.Lo, c.Hi)
		}
		if err := m.checkExpr(&c.Expr); err != nil {
			return nil, fmt.Errorf("%w: constraint %d: %v", ErrInvalidModel, i, err)
		}
		for _, lit := range c.Enforcement {
			if lit.index < 0 || lit.index >= len(m.Vars) || !m.Vars[lit.index].Bool {
				return nil, fmt.Errorf("%w: constraint %d: enforcement literal %d is not a boolean variable", ErrInvalidModel, i, lit.index)
			}
		}
		m.Constraints = append(m.Constraints, Constraint{
			Expr:        c.Expr.clone(),
			Lo:          c.Lo,
			Hi:          c.Hi,
			Enforcement: append([]BoolVar(nil), c.Enforcement...),
		})
	}

	if b.minimize != nil || b.maximize != nil {
		obj := NewLinearExpr()
		if b.minimize != nil {
			obj.Add(b.minimize)
		}
		if b.maximize != nil {
			obj.AddTerm(b.maximize, -1)
		}
		if err := m.checkExpr(obj); err != nil {
			return nil, fmt.Errorf("%w: objective: %v", ErrInvalidModel, err)
		}
		m.Objective = obj
	}

	return m, nil
}

// Model is a validated, immutable constraint model. The objective, when
// present, is always in minimization form.
type Model struct {
	Vars        []Var
	Constraints []Constraint
	Objective   *LinearExpr
}

func (m *Model) checkExpr(e *LinearExpr) error {
	for _, t := range e.terms {
		if t.Index < 0 || t.Index >= len(m.Vars) {
			return fmt.Errorf("unknown variable %d", t.Index)
		}
	}
	return nil
}

func difference(lhs, rhs LinearArgument) *LinearExpr {
	return NewLinearExpr().Add(lhs).AddTerm(rhs, -1)
}
