package cutting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eugenenazirov/rollcut/internal/model"
)

var mixedOrders = []Demand{{10, 12}, {4, 14}, {20, 35}}

func buildMixed(t *testing.T, variant Variant, objective Objective) *Formulation {
	t.Helper()
	bounds, err := EstimateBounds(mixedOrders, 60)
	require.NoError(t, err)
	f, err := BuildModel(mixedOrders, 60, bounds, variant, objective)
	require.NoError(t, err)
	return f
}

func TestBuildModelDeclaresVariables(t *testing.T) {
	t.Parallel()

	f := buildMixed(t, VariantUnbucketed, ObjectiveRollCount)
	m := f.Model

	require.Len(t, f.Vars.X, 3)
	require.Len(t, f.Vars.Y, 23)
	require.Len(t, f.Vars.W, 23)
	assert.Nil(t, f.Vars.LowWaste)
	assert.Len(t, m.Vars, 23+3*23+23+1)

	caps := []int64{5, 4, 1}
	for i, row := range f.Vars.X {
		require.Len(t, row, 23)
		for _, x := range row {
			assert.Equal(t, model.Var{Name: x.Name(), Lo: 0, Hi: caps[i]}, m.Vars[x.Index()])
		}
	}
	for _, w := range f.Vars.W {
		assert.Equal(t, int64(60), m.Vars[w.Index()].Hi)
	}
	for _, y := range f.Vars.Y {
		assert.True(t, m.Vars[y.Index()].Bool)
	}
	nb := m.Vars[f.Vars.NB.Index()]
	assert.Equal(t, int64(15), nb.Lo)
	assert.Equal(t, int64(23), nb.Hi)

	// demand + (capacity, waste) per slot + symmetry between slots + roll count
	assert.Len(t, m.Constraints, 3+2*23+22+1)

	require.NotNil(t, m.Objective)
	for _, term := range m.Objective.Terms() {
		assert.True(t, m.Vars[term.Index].Bool, "roll-count objective only weighs slot usage")
	}
}

func TestBuildModelVariantThresholds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		variant Variant
		lo, hi  int64
	}{
		{VariantWideBand, 23, 47},
		{VariantNarrowBand, 23, 35},
		{VariantLongestSplit, 35, 35},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.variant.String(), func(t *testing.T) {
			t.Parallel()

			f := buildMixed(t, tc.variant, ObjectiveRollCount)
			require.Len(t, f.Vars.LowWaste, 23)

			low := f.Vars.LowWaste[0]
			var upper, lower *model.Constraint
			for i := range f.Model.Constraints {
				c := &f.Model.Constraints[i]
				if len(c.Enforcement) != 1 || c.Enforcement[0].Index() != low.Index() {
					continue
				}
				if c.Enforcement[0].Negated() {
					lower = c
				} else {
					upper = c
				}
			}
			require.NotNil(t, upper, "waste <= lo when the indicator holds")
			require.NotNil(t, lower, "waste >= hi when it does not")

			// w - lo <= 0
			assert.Equal(t, -tc.lo, upper.Expr.Offset())
			assert.Equal(t, int64(model.NoLowerBound), upper.Lo)
			assert.Equal(t, int64(0), upper.Hi)
			// w - hi >= 0
			assert.Equal(t, -tc.hi, lower.Expr.Offset())
			assert.Equal(t, int64(0), lower.Lo)
			assert.Equal(t, int64(model.NoUpperBound), lower.Hi)

			for _, c := range []*model.Constraint{upper, lower} {
				terms := c.Expr.Terms()
				require.Len(t, terms, 1)
				assert.Equal(t, f.Vars.W[0].Index(), terms[0].Index)
			}
		})
	}
}

func TestBuildModelCombinedObjective(t *testing.T) {
	t.Parallel()

	single := buildMixed(t, VariantUnbucketed, ObjectiveRollCount)
	combined := buildMixed(t, VariantUnbucketed, ObjectiveCombined)

	assert.Len(t, single.Model.Objective.Terms(), 23)
	// weighted roll count plus both waste terms of every adjacent pair
	assert.Len(t, combined.Model.Objective.Terms(), 23+2*22)

	weight := int64(2*60*22 + 1)
	for _, term := range combined.Model.Objective.Terms() {
		v := combined.Model.Vars[term.Index]
		if v.Bool {
			assert.Zero(t, term.Coeff%weight, "slot usage keeps the dominant weight")
			assert.Positive(t, term.Coeff)
		} else {
			assert.Equal(t, int64(-1), term.Coeff, "waste is maximized")
		}
	}
}

func TestBuildModelRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	bounds, err := EstimateBounds(mixedOrders, 60)
	require.NoError(t, err)

	_, err = BuildModel(nil, 60, bounds, VariantWideBand, ObjectiveRollCount)
	assert.ErrorIs(t, err, ErrInvalidDemand)

	_, err = BuildModel([]Demand{{1, 70}}, 60, Bounds{MinRolls: 1, MaxRolls: 1, PerOrderCap: []int{0}}, VariantWideBand, ObjectiveRollCount)
	assert.ErrorIs(t, err, ErrInvalidDemand)

	_, err = BuildModel(mixedOrders, 60, bounds, Variant(9), ObjectiveRollCount)
	assert.ErrorIs(t, err, ErrUnknownVariant)

	_, err = BuildModel(mixedOrders, 60, Bounds{MinRolls: 1, MaxRolls: 2, PerOrderCap: []int{1}}, VariantWideBand, ObjectiveRollCount)
	assert.ErrorIs(t, err, ErrInvalidBounds)
}

func TestBuildModelReturnsFreshModels(t *testing.T) {
	t.Parallel()

	first := buildMixed(t, VariantWideBand, ObjectiveRollCount)
	second := buildMixed(t, VariantWideBand, ObjectiveRollCount)

	assert.NotSame(t, first.Model, second.Model)
	assert.Equal(t, len(first.Model.Vars), len(second.Model.Vars))
}

func TestParseVariant(t *testing.T) {
	t.Parallel()

	for _, v := range DefaultVariants {
		got, err := ParseVariant(v.String())
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}

	got, err := ParseVariant(" 3 ")
	require.NoError(t, err)
	assert.Equal(t, VariantLongestSplit, got)

	_, err = ParseVariant("7")
	assert.ErrorIs(t, err, ErrUnknownVariant)
	_, err = ParseVariant("greedy")
	assert.ErrorIs(t, err, ErrUnknownVariant)
}

func TestModelSizeCoversEveryVariant(t *testing.T) {
	t.Parallel()

	bounds, err := EstimateBounds(mixedOrders, 60)
	require.NoError(t, err)
	size := ModelSize(len(mixedOrders), bounds)
	assert.Equal(t, 6*23+1, size)

	for _, v := range DefaultVariants {
		f := buildMixed(t, v, ObjectiveCombined)
		assert.LessOrEqual(t, len(f.Model.Vars), size, v.String())
	}
	assert.Len(t, buildMixed(t, VariantWideBand, ObjectiveRollCount).Model.Vars, size)
}
