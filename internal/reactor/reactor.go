// Package reactor implements the batch bioreactor that the co-simulation
// driver advances between optimization steps. It stands in for a compiled
// FMU: parameters and outputs are addressed by name, the internal mass
// balances are opaque to the driver.
package reactor

import (
	"errors"
	"fmt"
)

// Parameter names accepted by SetParameters. The culture rates are held
// constant over each advance interval (direct approach).
const (
	ParamMu  = "mum" // specific growth rate
	ParamQGr = "qGr" // glucose uptake flux
	ParamQEr = "qEr" // ethanol uptake flux
	ParamQO2 = "qO2" // oxygen uptake, carried through to the outputs
)

// Output series names produced by Advance.
const (
	OutTime    = "time"
	OutGlucose = "G"
	OutEthanol = "E"
	OutBiomass = "X"
	OutVolume  = "V"
	OutMu      = "mu"
	OutQO2     = "qO2"
)

// ErrDiverged indicates the integration produced NaN or Inf.
var ErrDiverged = errors.New("reactor: state diverged (NaN or Inf)")

// InitialState holds the initial broth volume and component masses,
// mirroring the V_0, VX_0, VG_0, VE_0 parameters of the original model.
type InitialState struct {
	V  float64 // broth volume [L]
	VX float64 // biomass mass [g]
	VG float64 // glucose mass [g]
	VE float64 // ethanol mass [g]
}

// Options configures the numerical solution of the mass balances. The
// driver passes these through opaquely at construction time.
type Options struct {
	Integrator Integrator
	// NCP is the number of communication points per advance interval;
	// internal integration steps align with them.
	NCP int
	// Tolerance is used when the integrator is adaptive.
	Tolerance float64
}

// Batch is a stirred batch reactor with a yeast culture whose rates are set
// externally per interval. It keeps continuous state across Advance calls
// until Reset.
type Batch struct {
	init   InitialState
	integ  Integrator
	ncp    int
	tol    float64
	x      State
	t      float64
	params map[string]float64
	last   map[string][]float64
}

func New(init InitialState, opts Options) (*Batch, error) {
	if init.V <= 0 {
		return nil, fmt.Errorf("reactor: initial volume must be positive, got %g", init.V)
	}
	if init.VX < 0 || init.VG < 0 || init.VE < 0 {
		return nil, fmt.Errorf("reactor: initial masses must be non-negative (VX=%g, VG=%g, VE=%g)",
			init.VX, init.VG, init.VE)
	}
	if opts.Integrator == nil {
		return nil, fmt.Errorf("reactor: integrator required")
	}
	if opts.NCP <= 0 {
		opts.NCP = 10
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = 1e-6
	}

	b := &Batch{
		init:  init,
		integ: opts.Integrator,
		ncp:   opts.NCP,
		tol:   opts.Tolerance,
	}
	b.Reset()
	return b, nil
}

// SetParameters sets the named culture rates, overwriting any previous
// values for the given names.
func (b *Batch) SetParameters(p map[string]float64) {
	for k, v := range p {
		b.params[k] = v
	}
}

// Reset restores the initial state, zeroes all rate parameters and rewinds
// time. The last output becomes a single-point series of the initial state.
func (b *Batch) Reset() {
	b.x = State{b.init.V, b.init.VX, b.init.VG, b.init.VE}
	b.t = 0
	b.params = map[string]float64{ParamMu: 0, ParamQGr: 0, ParamQEr: 0, ParamQO2: 0}
	b.last = b.newOutput(1)
	b.appendOutput()
}

// Time returns the current internal simulation time.
func (b *Batch) Time() float64 { return b.t }

// Advance integrates the mass balances over deltaT with the current
// parameters held constant. With continueFrom false the reactor first
// rewinds to its initial state (parameters are kept); with true it
// continues from the state reached by the previous call.
func (b *Batch) Advance(deltaT float64, continueFrom bool) error {
	if deltaT <= 0 {
		return fmt.Errorf("reactor: advance interval must be positive, got %g", deltaT)
	}
	if !continueFrom {
		params := b.params
		b.Reset()
		b.params = params
	}

	sys := &balances{
		mu:  b.params[ParamMu],
		qGr: b.params[ParamQGr],
		qEr: b.params[ParamQEr],
	}

	h := deltaT / float64(b.ncp)
	b.last = b.newOutput(b.ncp + 1)
	b.appendOutput()

	for i := 0; i < b.ncp; i++ {
		var next State
		if adaptive, ok := b.integ.(AdaptiveIntegrator); ok {
			var err error
			next, _, err = adaptive.StepAdaptive(sys, b.x, b.t, h, b.tol)
			if err != nil {
				return fmt.Errorf("reactor: advance at t=%.4f: %w", b.t, err)
			}
		} else {
			next = b.integ.Step(sys, b.x, b.t, h)
		}
		if !next.IsValid() {
			return fmt.Errorf("reactor: advance at t=%.4f: %w", b.t, ErrDiverged)
		}
		b.x = next
		b.t += h
		b.appendOutput()
	}
	return nil
}

// LastOutput returns the named series recorded over the most recent advance
// interval. Callers interested in the current state read the last value of
// each series.
func (b *Batch) LastOutput() map[string][]float64 {
	return b.last
}

func (b *Batch) newOutput(capacity int) map[string][]float64 {
	out := make(map[string][]float64, 7)
	for _, name := range []string{OutTime, OutGlucose, OutEthanol, OutBiomass, OutVolume, OutMu, OutQO2} {
		out[name] = make([]float64, 0, capacity)
	}
	return out
}

// appendOutput samples the current state into the output series.
// Concentrations are reported raw: near depletion the integrator may
// produce small negative values, and consumers decide how to treat them.
func (b *Batch) appendOutput() {
	v := b.x[IV]
	b.last[OutTime] = append(b.last[OutTime], b.t)
	b.last[OutGlucose] = append(b.last[OutGlucose], b.x[IVG]/v)
	b.last[OutEthanol] = append(b.last[OutEthanol], b.x[IVE]/v)
	b.last[OutBiomass] = append(b.last[OutBiomass], b.x[IVX]/v)
	b.last[OutVolume] = append(b.last[OutVolume], v)
	b.last[OutMu] = append(b.last[OutMu], b.params[ParamMu])
	b.last[OutQO2] = append(b.last[OutQO2], b.params[ParamQO2])
}

// balances holds the batch mass balances with rates fixed per interval:
//
//	dV/dt  = 0
//	dVX/dt = mu * VX
//	dVG/dt = -qGr * VX
//	dVE/dt = -qEr * VX
type balances struct {
	mu, qGr, qEr float64
}

func (s *balances) Dim() int { return 4 }

func (s *balances) Derive(x State, t float64) State {
	vx := x[IVX]
	return State{0, s.mu * vx, -s.qGr * vx, -s.qEr * vx}
}
