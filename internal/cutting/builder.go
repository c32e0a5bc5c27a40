package cutting

import (
	"fmt"

	"github.com/eugenenazirov/rollcut/internal/model"
)

// Objective selects what a cutting model optimizes.
type Objective int

const (
	// ObjectiveRollCount minimizes the position-weighted number of used slots.
	ObjectiveRollCount Objective = iota
	// ObjectiveCombined also maximizes the waste of adjacent slot pairs.
	// The roll count stays lexicographically dominant.
	ObjectiveCombined
)

// Variables holds the handles needed to decode a solved Formulation.
type Variables struct {
	X        [][]model.IntVar
	Y        []model.BoolVar
	W        []model.IntVar
	NB       model.IntVar
	LowWaste []model.BoolVar
}

// Formulation is one freshly built cutting model. It must be solved at
// most once and never reused for another variant.
type Formulation struct {
	Model   *model.Model
	Vars    Variables
	Variant Variant
}

// ModelSize is the largest number of variables BuildModel declares for
// numDemands orders over bounds.MaxRolls slots, across all variants:
// one count per order and slot, usage, waste and indicator per slot, and NB.
func ModelSize(numDemands int, bounds Bounds) int {
	return (numDemands+3)*bounds.MaxRolls + 1
}

// BuildModel formulates the cutting-stock problem over bounds.MaxRolls slots
// with the auxiliary constraints of the given variant.
func BuildModel(demands []Demand, stockLength int, bounds Bounds, variant Variant, objective Objective) (*Formulation, error) {
	if err := validateDemands(demands, stockLength); err != nil {
		return nil, err
	}
	strategy, ok := variantStrategies[variant]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, variant)
	}
	if len(bounds.PerOrderCap) != len(demands) || bounds.MaxRolls < 1 || bounds.MinRolls > bounds.MaxRolls {
		return nil, fmt.Errorf("%w: %d caps for %d demands, rolls [%d, %d]",
			ErrInvalidBounds, len(bounds.PerOrderCap), len(demands), bounds.MinRolls, bounds.MaxRolls)
	}

	slots := bounds.MaxRolls
	stock := int64(stockLength)
	b := model.NewBuilder()

	vars := Variables{
		X: make([][]model.IntVar, len(demands)),
		Y: make([]model.BoolVar, slots),
		W: make([]model.IntVar, slots),
	}
	for j := range vars.Y {
		vars.Y[j] = b.NewBoolVar().WithName(fmt.Sprintf("y_%d", j))
	}
	for i := range demands {
		vars.X[i] = make([]model.IntVar, slots)
		for j := range vars.X[i] {
			vars.X[i][j] = b.NewIntVar(0, int64(bounds.PerOrderCap[i])).WithName(fmt.Sprintf("x_%d_%d", i, j))
		}
	}
	for j := range vars.W {
		vars.W[j] = b.NewIntVar(0, stock).WithName(fmt.Sprintf("w_%d", j))
	}
	vars.NB = b.NewIntVar(int64(bounds.MinRolls), int64(bounds.MaxRolls)).WithName("nb")

	for i, d := range demands {
		placed := model.NewLinearExpr()
		for _, x := range vars.X[i] {
			placed.Add(x)
		}
		b.AddEquality(placed, model.NewConstant(int64(d.Quantity)))
	}

	for j := 0; j < slots; j++ {
		load := model.NewLinearExpr()
		for i, d := range demands {
			load.AddTerm(vars.X[i][j], int64(d.Length))
		}
		capacity := model.NewLinearExpr().AddTerm(vars.Y[j], stock)

		b.AddLessOrEqual(load, capacity)
		b.AddEquality(model.NewLinearExpr().Add(capacity).AddTerm(load, -1), vars.W[j])

		if j < slots-1 {
			b.AddGreaterOrEqual(slotFill(vars.X, j), slotFill(vars.X, j+1))
		}
	}

	used := model.NewLinearExpr()
	cost := model.NewLinearExpr()
	for j, y := range vars.Y {
		used.Add(y)
		cost.AddTerm(y, int64(j+1))
	}
	b.AddEquality(vars.NB, used)

	minLen, maxLen := lengthRange(demands)
	vars.LowWaste = strategy(b, vars.W, minLen, maxLen)

	switch objective {
	case ObjectiveCombined:
		spread := model.NewLinearExpr()
		for j := 0; j < slots-1; j++ {
			spread.AddSum(vars.W[j], vars.W[j+1])
		}
		weight := 2*stock*int64(slots-1) + 1
		b.Minimize(model.NewLinearExpr().AddTerm(cost, weight))
		b.Maximize(spread)
	default:
		b.Minimize(cost)
	}

	m, err := b.Model()
	if err != nil {
		return nil, fmt.Errorf("build %s model: %w", variant, err)
	}

	return &Formulation{Model: m, Vars: vars, Variant: variant}, nil
}

func slotFill(x [][]model.IntVar, j int) *model.LinearExpr {
	fill := model.NewLinearExpr()
	for i := range x {
		fill.Add(x[i][j])
	}
	return fill
}

func lengthRange(demands []Demand) (minLen, maxLen int64) {
	minLen, maxLen = int64(demands[0].Length), int64(demands[0].Length)
	for _, d := range demands[1:] {
		minLen = min(minLen, int64(d.Length))
		maxLen = max(maxLen, int64(d.Length))
	}
	return minLen, maxLen
}
