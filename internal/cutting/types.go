package cutting

import (
	"time"

	"github.com/eugenenazirov/rollcut/internal/solver"
)

// Demand asks for Quantity pieces of the given Length.
type Demand struct {
	Quantity int `json:"quantity"`
	Length   int `json:"length"`
}

// Bounds sizes the search space of a cutting model. MinRolls is a volume
// relaxation and may be below the true optimum; it is only used as a domain
// bound.
type Bounds struct {
	MinRolls    int
	MaxRolls    int
	PerOrderCap []int
}

// Roll is one stock roll of a plan: the pieces cut from it in order and the
// waste reported by the solver.
type Roll struct {
	Pieces []int `json:"pieces"`
	Waste  int   `json:"waste"`
}

// Used returns the total length of the pieces cut from the roll.
func (r Roll) Used() int {
	total := 0
	for _, p := range r.Pieces {
		total += p
	}
	return total
}

// Plan lists the non-empty rolls of a solution in slot order.
type Plan struct {
	Rolls []Roll `json:"rolls"`
}

// TotalWaste sums the waste of every roll.
func (p Plan) TotalWaste() int {
	total := 0
	for _, r := range p.Rolls {
		total += r.Waste
	}
	return total
}

// Result is the outcome of a successful CutRolls call.
type Result struct {
	Status       solver.Status
	NumRollsUsed int
	Plan         Plan
	Bounds       Bounds
	Variant      Variant
	Attempts     int
	WallTime     time.Duration
}

// Planner describes the behaviour required from a cutting planner.
type Planner interface {
	CutRolls(demands []Demand, stockLength int) (Result, error)
}
