package model

// LinearArgument is anything that can appear in a linear expression.
type LinearArgument interface {
	addToLinearExpr(e *LinearExpr, coeff int64)
}

// IntVar is a handle to an integer variable of a Builder.
type IntVar struct {
	index   int
	builder *Builder
}

// Index returns the position of the variable in Model.Vars.
func (v IntVar) Index() int { return v.index }

// WithName attaches a debug name to the variable.
func (v IntVar) WithName(name string) IntVar {
	v.builder.vars[v.index].Name = name
	return v
}

// Name returns the debug name of the variable.
func (v IntVar) Name() string { return v.builder.vars[v.index].Name }

func (v IntVar) addToLinearExpr(e *LinearExpr, coeff int64) {
	e.terms = append(e.terms, Term{Index: v.index, Coeff: coeff})
}

// BoolVar is a literal: a boolean variable or its negation.
type BoolVar struct {
	index   int
	negated bool
	builder *Builder
}

// Index returns the position of the underlying variable in Model.Vars.
func (b BoolVar) Index() int { return b.index }

// Negated reports whether the literal is the negation of its variable.
func (b BoolVar) Negated() bool { return b.negated }

// Not returns the negated literal.
func (b BoolVar) Not() BoolVar {
	b.negated = !b.negated
	return b
}

// WithName attaches a debug name to the underlying variable.
func (b BoolVar) WithName(name string) BoolVar {
	b.builder.vars[b.index].Name = name
	return b
}

// Name returns the debug name of the underlying variable.
func (b BoolVar) Name() string { return b.builder.vars[b.index].Name }

func (b BoolVar) addToLinearExpr(e *LinearExpr, coeff int64) {
	if b.negated {
		// coeff * (1 - b)
		e.offset += coeff
		e.terms = append(e.terms, Term{Index: b.index, Coeff: -coeff})
		return
	}
	e.terms = append(e.terms, Term{Index: b.index, Coeff: coeff})
}

// Term is coeff * Vars[Index].
type Term struct {
	Index int
	Coeff int64
}

// LinearExpr is a sum of terms plus a constant offset.
type LinearExpr struct {
	terms  []Term
	offset int64
}

// NewLinearExpr returns the empty expression.
func NewLinearExpr() *LinearExpr {
	return &LinearExpr{}
}

// NewConstant returns an expression holding only a constant.
func NewConstant(c int64) *LinearExpr {
	return &LinearExpr{offset: c}
}

// Add appends arg with coefficient 1.
func (e *LinearExpr) Add(arg LinearArgument) *LinearExpr {
	return e.AddTerm(arg, 1)
}

// AddTerm appends coeff * arg.
func (e *LinearExpr) AddTerm(arg LinearArgument, coeff int64) *LinearExpr {
	arg.addToLinearExpr(e, coeff)
	return e
}

// AddSum appends every argument with coefficient 1.
func (e *LinearExpr) AddSum(args ...LinearArgument) *LinearExpr {
	for _, a := range args {
		e.AddTerm(a, 1)
	}
	return e
}

// AddConstant adds c to the offset.
func (e *LinearExpr) AddConstant(c int64) *LinearExpr {
	e.offset += c
	return e
}

// Terms returns a copy of the terms.
func (e *LinearExpr) Terms() []Term {
	out := make([]Term, len(e.terms))
	copy(out, e.terms)
	return out
}

// Offset returns the constant part.
func (e *LinearExpr) Offset() int64 { return e.offset }

// Evaluate computes the expression for values indexed like Model.Vars.
func (e *LinearExpr) Evaluate(values []int64) int64 {
	total := e.offset
	for _, t := range e.terms {
		total += t.Coeff * values[t.Index]
	}
	return total
}

func (e *LinearExpr) addToLinearExpr(other *LinearExpr, coeff int64) {
	for _, t := range e.terms {
		other.terms = append(other.terms, Term{Index: t.Index, Coeff: t.Coeff * coeff})
	}
	other.offset += e.offset * coeff
}

func (e *LinearExpr) clone() LinearExpr {
	return LinearExpr{terms: e.Terms(), offset: e.offset}
}
