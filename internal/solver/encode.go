package solver

import (
	"fmt"
	"math/bits"
	"sort"

	gsolver "github.com/crillab/gophersat/solver"

	"github.com/eugenenazirov/rollcut/internal/model"
)

// encodedVar maps an integer variable onto SAT variables:
// value = offset + sum(2^k for every true bits[k]).
type encodedVar struct {
	offset int64
	bits   []int
}

// encoding is a model rewritten as pseudo-boolean constraints.
type encoding struct {
	vars       []encodedVar
	constrs    []gsolver.PBConstr
	numVars    int
	infeasible bool

	objLits    []int
	objWeights []int64
	objConst   int64
}

func encode(m *model.Model, maxVars int) (*encoding, error) {
	enc := &encoding{vars: make([]encodedVar, len(m.Vars))}

	next := 1
	for i, v := range m.Vars {
		span := uint64(v.Hi - v.Lo)
		width := bits.Len64(span)
		ev := encodedVar{offset: v.Lo, bits: make([]int, width)}
		for k := range ev.bits {
			ev.bits[k] = next
			next++
		}
		enc.vars[i] = ev
		if maxVars > 0 && next-1 > maxVars {
			return nil, fmt.Errorf("%w: more than %d boolean variables", ErrModelTooLarge, maxVars)
		}
		if width > 0 && span != 1<<width-1 {
			upper := newPBSum()
			upper.addVar(encodedVar{bits: ev.bits}, 1)
			enc.addAtLeast(upper.negated(), -int64(span), nil)
		}
	}

	for _, c := range m.Constraints {
		sum := newPBSum()
		for _, t := range c.Expr.Terms() {
			sum.addVar(enc.vars[t.Index], t.Coeff)
		}
		sum.constant += c.Expr.Offset()

		enforcement := make([]int, 0, len(c.Enforcement))
		for _, lit := range c.Enforcement {
			enforcement = append(enforcement, enc.literal(lit))
		}

		if c.Lo != model.NoLowerBound {
			enc.addAtLeast(sum, c.Lo, enforcement)
		}
		if c.Hi != model.NoUpperBound {
			enc.addAtLeast(sum.negated(), -c.Hi, enforcement)
		}
	}

	if m.Objective != nil {
		obj := newPBSum()
		for _, t := range m.Objective.Terms() {
			obj.addVar(enc.vars[t.Index], t.Coeff)
		}
		obj.constant += m.Objective.Offset()
		enc.objLits, enc.objWeights, enc.objConst = obj.positive()
	}

	// The anchor is the highest SAT variable and is forced true, so the
	// solver allocates every variable even if some only occur in the
	// objective.
	anchor := next
	enc.constrs = append(enc.constrs, gsolver.PBConstr{Lits: []int{anchor}, Weights: []int{1}, AtLeast: 1})
	enc.numVars = anchor

	return enc, nil
}

func (enc *encoding) literal(lit model.BoolVar) int {
	v := enc.vars[lit.Index()].bits[0]
	if lit.Negated() {
		return -v
	}
	return v
}

// addAtLeast adds sum >= bound, relaxed by any false enforcement literal.
func (enc *encoding) addAtLeast(sum *pbSum, bound int64, enforcement []int) {
	lits, weights, card := sum.normalize(bound)
	if card <= 0 {
		return
	}
	if len(enforcement) > 0 {
		guarded := newPBSum()
		for i, lit := range lits {
			guarded.addLit(lit, weights[i])
		}
		for _, lit := range enforcement {
			guarded.addLit(-lit, card)
		}
		lits, weights, card = guarded.normalize(card)
		if card <= 0 {
			return
		}
	}

	var total int64
	out := make([]int, len(weights))
	for i, w := range weights {
		if w > card {
			w = card
		}
		out[i] = int(w)
		total += w
	}
	if total < card {
		enc.infeasible = true
		return
	}
	enc.constrs = append(enc.constrs, gsolver.PBConstr{Lits: lits, Weights: out, AtLeast: int(card)})
}

// values decodes a SAT assignment (indexed by variable-1) into model values.
func (enc *encoding) values(assignment []bool) []int64 {
	out := make([]int64, len(enc.vars))
	for i, ev := range enc.vars {
		value := ev.offset
		for k, v := range ev.bits {
			if v-1 < len(assignment) && assignment[v-1] {
				value += 1 << k
			}
		}
		out[i] = value
	}
	return out
}

// cost returns the weighted objective part of an assignment, excluding objConst.
func (enc *encoding) cost(assignment []bool) int64 {
	var total int64
	for i, lit := range enc.objLits {
		if litTrue(assignment, lit) {
			total += enc.objWeights[i]
		}
	}
	return total
}

// improvement returns the clause requiring a weighted cost below current.
func (enc *encoding) improvement(current int64) *gsolver.Clause {
	var sum int64
	lits := make([]gsolver.Lit, len(enc.objLits))
	weights := make([]int, len(enc.objWeights))
	for i, lit := range enc.objLits {
		lits[i] = gsolver.IntToLit(int32(-lit))
		weights[i] = int(enc.objWeights[i])
		sum += enc.objWeights[i]
	}
	return gsolver.NewPBClause(lits, weights, int(sum-current+1))
}

func litTrue(assignment []bool, lit int) bool {
	v := lit
	if v < 0 {
		v = -v
	}
	if v-1 >= len(assignment) {
		return lit < 0
	}
	return assignment[v-1] == (lit > 0)
}

// pbSum is constant + sum(coeffs[v] * v) over positive SAT variables.
type pbSum struct {
	coeffs   map[int]int64
	constant int64
}

func newPBSum() *pbSum {
	return &pbSum{coeffs: make(map[int]int64)}
}

func (s *pbSum) addVar(ev encodedVar, coeff int64) {
	s.constant += coeff * ev.offset
	for k, v := range ev.bits {
		s.coeffs[v] += coeff << k
	}
}

func (s *pbSum) addLit(lit int, coeff int64) {
	if lit > 0 {
		s.coeffs[lit] += coeff
		return
	}
	// coeff * not(v) = coeff - coeff * v
	s.constant += coeff
	s.coeffs[-lit] -= coeff
}

func (s *pbSum) negated() *pbSum {
	out := &pbSum{coeffs: make(map[int]int64, len(s.coeffs)), constant: -s.constant}
	for v, c := range s.coeffs {
		out.coeffs[v] = -c
	}
	return out
}

// positive rewrites the sum with positive weights only:
// constant + sum(weights[i] * lits[i]).
func (s *pbSum) positive() (lits []int, weights []int64, constant int64) {
	constant = s.constant
	for _, v := range s.sortedVars() {
		c := s.coeffs[v]
		switch {
		case c > 0:
			lits = append(lits, v)
			weights = append(weights, c)
		case c < 0:
			// c * v = c + |c| * not(v)
			constant += c
			lits = append(lits, -v)
			weights = append(weights, -c)
		}
	}
	return lits, weights, constant
}

// normalize rewrites sum >= bound as sum(weights[i] * lits[i]) >= card.
func (s *pbSum) normalize(bound int64) (lits []int, weights []int64, card int64) {
	lits, weights, constant := s.positive()
	return lits, weights, bound - constant
}

func (s *pbSum) sortedVars() []int {
	vars := make([]int, 0, len(s.coeffs))
	for v := range s.coeffs {
		vars = append(vars, v)
	}
	sort.Ints(vars)
	return vars
}
