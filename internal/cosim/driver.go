// Package cosim implements the direct-approach co-simulation loop: at every
// sample interval a static flux optimization is solved for the current
// substrate concentrations and the optimal rates are pushed back into the
// continuous-time simulator before it advances to the next sample.
//
// Driver instances are not safe for concurrent use; each run executes on a
// single control goroutine and every step depends on the previous one.
package cosim

import (
	"context"
	"fmt"
	"time"

	"github.com/janpeter19/cobsim/internal/flux"
	"github.com/janpeter19/cobsim/internal/reactor"
)

// Driver coordinates the fixed-step loop between the flux optimizer and the
// dynamic state advancer.
type Driver struct {
	adv       Advancer
	opt       flux.Optimizer
	cfg       Config
	metrics   []Metric
	observers []Observer
}

func NewDriver(adv Advancer, opt flux.Optimizer, cfg Config) (*Driver, error) {
	if cfg.Dt <= 0 {
		return nil, fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidConfig, cfg.Dt)
	}
	if cfg.Horizon <= 0 {
		return nil, fmt.Errorf("%w: horizon must be positive, got %g", ErrInvalidConfig, cfg.Horizon)
	}
	if cfg.Dt > cfg.Horizon {
		return nil, fmt.Errorf("%w: dt %g exceeds horizon %g", ErrInvalidConfig, cfg.Dt, cfg.Horizon)
	}
	if cfg.GlucoseVar == "" {
		cfg.GlucoseVar = reactor.OutGlucose
	}
	if cfg.EthanolVar == "" {
		cfg.EthanolVar = reactor.OutEthanol
	}
	if cfg.BiomassVar == "" {
		cfg.BiomassVar = reactor.OutBiomass
	}
	return &Driver{adv: adv, opt: opt, cfg: cfg}, nil
}

func (d *Driver) AddMetric(m Metric)     { d.metrics = append(d.metrics, m) }
func (d *Driver) AddObserver(o Observer) { d.observers = append(d.observers, o) }

// Run executes the loop over the configured horizon. Each step performs
// exactly one optimization and one advance, strictly in sequence:
//
//  1. read G, E from the advancer's last output
//  2. solve the flux LP for (G, E)
//  3. push {mum, qGr, qEr, qO2} as parameters (overwrite)
//  4. advance by Dt, continuing from the current state
//  5. append the sample to the trajectory
//
// The returned Result always carries the trajectory accumulated so far,
// also on error. Errors are never retried here; retrying is caller policy.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	steps := int(d.cfg.Horizon / d.cfg.Dt)

	res := &Result{
		Trajectory: make(Trajectory, 0, steps+1),
		Metrics:    make(map[string]float64),
	}

	for _, m := range d.metrics {
		m.Reset()
	}

	d.adv.Reset()

	state, biomass, err := d.readState()
	if err != nil {
		res.Status = StatusFailed
		return res, err
	}

	initial := Record{Time: 0, State: state, Biomass: biomass}
	res.Trajectory = append(res.Trajectory, initial)
	d.observe(initial)

	start := time.Now()

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			res.Status = StatusCancelled
			res.Elapsed = time.Since(start)
			d.collect(res)
			return res, ctx.Err()
		default:
		}

		if d.cfg.MaxSteps > 0 && i >= d.cfg.MaxSteps {
			res.Status = StatusCancelled
			res.Elapsed = time.Since(start)
			d.collect(res)
			return res, nil
		}
		if d.cfg.MaxWall > 0 && time.Since(start) > d.cfg.MaxWall {
			res.Status = StatusCancelled
			res.Elapsed = time.Since(start)
			d.collect(res)
			return res, nil
		}

		t := float64(i) * d.cfg.Dt

		sol, err := d.opt.Solve(state.Glucose, state.Ethanol)
		if err != nil {
			res.Status = StatusFailed
			res.Elapsed = time.Since(start)
			d.collect(res)
			return res, &StepError{Step: i, Time: t, Glucose: state.Glucose, Ethanol: state.Ethanol, Wrapped: err}
		}

		d.adv.SetParameters(map[string]float64{
			reactor.ParamMu:  sol.Mu,
			reactor.ParamQGr: sol.QGr,
			reactor.ParamQEr: sol.QEr,
			reactor.ParamQO2: sol.QO2,
		})

		if err := d.adv.Advance(d.cfg.Dt, i > 0); err != nil {
			res.Status = StatusFailed
			res.Elapsed = time.Since(start)
			d.collect(res)
			return res, &StepError{Step: i, Time: t, Glucose: state.Glucose, Ethanol: state.Ethanol, Wrapped: err}
		}

		state, biomass, err = d.readState()
		if err != nil {
			res.Status = StatusFailed
			res.Elapsed = time.Since(start)
			d.collect(res)
			return res, &StepError{Step: i, Time: t, Glucose: state.Glucose, Ethanol: state.Ethanol, Wrapped: err}
		}

		rec := Record{
			Time:    float64(i+1) * d.cfg.Dt,
			State:   state,
			Biomass: biomass,
			Flux:    sol,
		}
		res.Trajectory = append(res.Trajectory, rec)
		res.Steps++
		d.observe(rec)
	}

	res.Status = StatusCompleted
	res.Elapsed = time.Since(start)
	d.collect(res)
	return res, nil
}

// readState pulls the last value of each configured output series.
func (d *Driver) readState() (SubstrateState, float64, error) {
	out := d.adv.LastOutput()

	g, err := lastOf(out, d.cfg.GlucoseVar)
	if err != nil {
		return SubstrateState{}, 0, err
	}
	e, err := lastOf(out, d.cfg.EthanolVar)
	if err != nil {
		return SubstrateState{}, 0, err
	}
	x, err := lastOf(out, d.cfg.BiomassVar)
	if err != nil {
		return SubstrateState{}, 0, err
	}
	return SubstrateState{Glucose: g, Ethanol: e}, x, nil
}

func lastOf(out map[string][]float64, name string) (float64, error) {
	series, ok := out[name]
	if !ok || len(series) == 0 {
		return 0, fmt.Errorf("%w: %q", ErrMissingOutput, name)
	}
	return series[len(series)-1], nil
}

func (d *Driver) observe(rec Record) {
	for _, m := range d.metrics {
		m.Observe(rec)
	}
	for _, o := range d.observers {
		o.OnStep(rec)
	}
}

func (d *Driver) collect(res *Result) {
	for _, m := range d.metrics {
		res.Metrics[m.Name()] = m.Value()
	}
}
