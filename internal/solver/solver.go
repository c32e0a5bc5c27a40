package solver

import (
	"errors"
	"time"

	"github.com/eugenenazirov/rollcut/internal/model"
)

// ErrModelTooLarge is returned when a model exceeds the configured size guard.
var ErrModelTooLarge = errors.New("model exceeds the solver size limit")

// Status is the outcome class of a solve.
type Status int

const (
	StatusUnknown Status = iota
	StatusOptimal
	StatusFeasible
	StatusInfeasible
	StatusError
)

var statusNames = map[Status]string{
	StatusUnknown:    "UNKNOWN",
	StatusOptimal:    "OPTIMAL",
	StatusFeasible:   "FEASIBLE",
	StatusInfeasible: "INFEASIBLE",
	StatusError:      "ERROR",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// MarshalText renders the status name in JSON payloads.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Succeeded reports whether the response carries a usable assignment.
func (s Status) Succeeded() bool {
	return s == StatusOptimal || s == StatusFeasible
}

// Response is the result of Solver.Solve. Values is indexed like
// model.Model.Vars and is only meaningful when Status.Succeeded().
type Response struct {
	Status    Status
	Values    []int64
	Objective int64
	WallTime  time.Duration
}

// Value returns the assigned value of v.
func (r Response) Value(v model.IntVar) int64 {
	if v.Index() < 0 || v.Index() >= len(r.Values) {
		return 0
	}
	return r.Values[v.Index()]
}

// BoolValue returns the truth value of the literal.
func (r Response) BoolValue(lit model.BoolVar) bool {
	if lit.Index() < 0 || lit.Index() >= len(r.Values) {
		return false
	}
	value := r.Values[lit.Index()] != 0
	if lit.Negated() {
		return !value
	}
	return value
}

// Solver solves constraint models. Implementations own the model for the
// duration of the call and never retain it afterwards.
type Solver interface {
	Solve(m *model.Model) (Response, error)
}
