// Package experiment wires a run configuration into a ready co-simulation.
package experiment

import (
	"context"
	"fmt"

	"github.com/janpeter19/cobsim/internal/config"
	"github.com/janpeter19/cobsim/internal/cosim"
	"github.com/janpeter19/cobsim/internal/reactor"
)

type Experiment struct {
	cfg    *config.Config
	driver *cosim.Driver
}

// New builds the reactor, optimizer and driver described by cfg and attaches
// the default metrics.
func New(cfg *config.Config) (*Experiment, error) {
	registry := NewRegistry()

	params := cfg.FluxParams()
	if err := params.Validate(); err != nil {
		return nil, err
	}

	opt, err := registry.GetOptimizer(cfg.Optimizer, params)
	if err != nil {
		return nil, err
	}

	integ, err := registry.GetIntegrator(cfg.Integrator)
	if err != nil {
		return nil, err
	}

	batch, err := reactor.New(cfg.InitialState(), reactor.Options{
		Integrator: integ,
		NCP:        cfg.NCP,
	})
	if err != nil {
		return nil, err
	}

	driver, err := cosim.NewDriver(batch, opt, cfg.DriverConfig())
	if err != nil {
		return nil, err
	}

	for _, m := range registry.DefaultMetrics(params) {
		driver.AddMetric(m)
	}

	return &Experiment{cfg: cfg, driver: driver}, nil
}

func (e *Experiment) Run(ctx context.Context) (*cosim.Result, error) {
	if e.driver == nil {
		return nil, fmt.Errorf("experiment not set up")
	}
	return e.driver.Run(ctx)
}

// Driver exposes the underlying driver for adding observers.
func (e *Experiment) Driver() *cosim.Driver {
	return e.driver
}
