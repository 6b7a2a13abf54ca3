package reactor

import "math"

// State is the mass vector of the batch reactor: broth volume V followed by
// the component masses VX (biomass), VG (glucose), VE (ethanol).
type State []float64

// Indices into State.
const (
	IV  = 0
	IVX = 1
	IVG = 2
	IVE = 3
)

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// System is a set of mass-balance ODEs dX/dt = f(X, t) with the rate
// parameters already bound.
type System interface {
	Derive(x State, t float64) State
	Dim() int
}

// Integrator advances a System by one internal step.
type Integrator interface {
	Step(sys System, x State, t, dt float64) State
}

// AdaptiveIntegrator additionally supports error-controlled stepping.
type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(sys System, x State, t, dt, tol float64) (State, float64, error)
}
