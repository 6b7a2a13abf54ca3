package cosim

// Advancer is the narrow interface of the external continuous-time
// simulator (an FMU or the built-in reactor). The driver never looks inside
// it: parameters and outputs are addressed by name only.
type Advancer interface {
	// SetParameters sets the named parameters for the next advance.
	SetParameters(params map[string]float64)

	// Advance moves the simulation forward by deltaT. With continueFrom
	// true the run continues from the current internal state; with false
	// it starts over from the initial state.
	Advance(deltaT float64, continueFrom bool) error

	// LastOutput returns the named variable series recorded over the most
	// recent advance interval. The driver uses the last value of each
	// series.
	LastOutput() map[string][]float64

	// Reset restores the initial state and clears parameters.
	Reset()
}
