package cutting

import "github.com/eugenenazirov/rollcut/internal/solver"

// DecodeRolls expands solved per-slot counts into piece lengths. Slots are
// kept in index order, including empty ones; pieces follow demand order.
func DecodeRolls(solvedX [][]int, demands []Demand) [][]int {
	if len(solvedX) == 0 {
		return nil
	}

	rolls := make([][]int, len(solvedX[0]))
	for j := range rolls {
		pieces := []int{}
		for i, d := range demands {
			for n := 0; n < solvedX[i][j]; n++ {
				pieces = append(pieces, d.Length)
			}
		}
		rolls[j] = pieces
	}
	return rolls
}

// assemblePlan drops empty slots and attaches the solver's waste values.
func assemblePlan(rolls [][]int, waste []int) Plan {
	plan := Plan{Rolls: make([]Roll, 0, len(rolls))}
	for j, pieces := range rolls {
		if len(pieces) == 0 {
			continue
		}
		plan.Rolls = append(plan.Rolls, Roll{Pieces: pieces, Waste: waste[j]})
	}
	return plan
}

// decode reads a solved response back into a Result.
func (f *Formulation) decode(resp solver.Response, demands []Demand) Result {
	solvedX := make([][]int, len(f.Vars.X))
	for i, row := range f.Vars.X {
		solvedX[i] = make([]int, len(row))
		for j, x := range row {
			solvedX[i][j] = int(resp.Value(x))
		}
	}
	waste := make([]int, len(f.Vars.W))
	for j, w := range f.Vars.W {
		waste[j] = int(resp.Value(w))
	}

	return Result{
		Status:       resp.Status,
		NumRollsUsed: int(resp.Value(f.Vars.NB)),
		Plan:         assemblePlan(DecodeRolls(solvedX, demands), waste),
		Variant:      f.Variant,
	}
}
