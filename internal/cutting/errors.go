package cutting

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDemand is returned when the demand list or stock length cannot be modelled.
	ErrInvalidDemand = errors.New("demands must be non-empty with positive quantities and lengths not exceeding the stock length")
	// ErrInvalidBounds is returned when bounds do not match the demands they are used with.
	ErrInvalidBounds = errors.New("bounds do not match the demands")
	// ErrProblemTooLarge is returned before any model is built when the
	// estimated model size exceeds the configured budget.
	ErrProblemTooLarge = errors.New("cutting problem exceeds the model size budget")
	// ErrUnknownVariant is returned for a variant without a registered strategy.
	ErrUnknownVariant = errors.New("unknown model variant")
	// ErrVariantInfeasible is returned when a variant's constraints admit no solution.
	ErrVariantInfeasible = errors.New("model variant is infeasible")
	// ErrSolveUnknown is returned when the solver fails or gives up without a solution.
	ErrSolveUnknown = errors.New("solver returned no solution")
	// ErrAllVariantsExhausted is returned when every configured variant failed.
	ErrAllVariantsExhausted = errors.New("all model variants failed")
)

// AttemptError records why a single variant attempt failed.
type AttemptError struct {
	Variant Variant
	Err     error
}

func (e *AttemptError) Error() string {
	return fmt.Sprintf("variant %s: %v", e.Variant, e.Err)
}

func (e *AttemptError) Unwrap() error {
	return e.Err
}
