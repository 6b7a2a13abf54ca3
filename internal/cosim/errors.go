package cosim

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig indicates an unusable horizon/step combination,
	// detected at driver construction before any stepping.
	ErrInvalidConfig = errors.New("cosim: invalid configuration")

	// ErrMissingOutput indicates the Advancer did not report a variable
	// the driver was configured to read.
	ErrMissingOutput = errors.New("cosim: advancer output missing required variable")
)

// StepError wraps a failure of the optimizer or the advancer with the step
// context needed to diagnose it.
type StepError struct {
	Step    int
	Time    float64
	Glucose float64
	Ethanol float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f, G=%.6g, E=%.6g): %v",
		e.Step, e.Time, e.Glucose, e.Ethanol, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
