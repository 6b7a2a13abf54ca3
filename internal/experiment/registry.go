package experiment

import (
	"fmt"

	"github.com/janpeter19/cobsim/internal/cosim"
	"github.com/janpeter19/cobsim/internal/flux"
	"github.com/janpeter19/cobsim/internal/integrators"
	"github.com/janpeter19/cobsim/internal/metrics"
	"github.com/janpeter19/cobsim/internal/reactor"
)

type Registry struct {
	optimizers  map[string]func(flux.Params) flux.Optimizer
	integrators map[string]func() reactor.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		optimizers:  make(map[string]func(flux.Params) flux.Optimizer),
		integrators: make(map[string]func() reactor.Integrator),
	}

	r.optimizers["simplex"] = func(p flux.Params) flux.Optimizer { return flux.NewSimplex(p) }
	r.optimizers["vertex"] = func(p flux.Params) flux.Optimizer { return flux.NewVertex(p) }

	r.integrators["euler"] = func() reactor.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() reactor.Integrator { return integrators.NewRK4() }
	r.integrators["rk45"] = func() reactor.Integrator { return integrators.NewRK45() }

	return r
}

func (r *Registry) GetOptimizer(name string, p flux.Params) (flux.Optimizer, error) {
	fn, ok := r.optimizers[name]
	if !ok {
		return nil, fmt.Errorf("unknown optimizer: %s", name)
	}
	return fn(p), nil
}

func (r *Registry) GetIntegrator(name string) (reactor.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListOptimizers() []string {
	names := make([]string, 0, len(r.optimizers))
	for name := range r.optimizers {
		names = append(names, name)
	}
	return names
}

func (r *Registry) DefaultMetrics(p flux.Params) []cosim.Metric {
	return []cosim.Metric{
		metrics.NewFinalBiomass(),
		metrics.NewOxygenUtilization(p.QO2Max),
		metrics.NewDepletionTime(1e-3),
	}
}
