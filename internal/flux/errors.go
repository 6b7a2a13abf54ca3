package flux

import "errors"

var (
	// ErrInfeasible indicates the LP has no feasible point under the
	// current bounds. Retrying with identical inputs cannot help.
	ErrInfeasible = errors.New("flux: no feasible flux assignment")

	// ErrUnbounded indicates a malformed model with an unbounded
	// objective; cannot occur with non-negative capacity bounds.
	ErrUnbounded = errors.New("flux: objective unbounded")
)
