package metrics

import (
	"math"
	"testing"

	"github.com/janpeter19/cobsim/internal/cosim"
	"github.com/janpeter19/cobsim/internal/flux"
)

func record(t, g, x, qO2 float64) cosim.Record {
	return cosim.Record{
		Time:    t,
		State:   cosim.SubstrateState{Glucose: g},
		Biomass: x,
		Flux:    flux.Solution{QO2: qO2},
	}
}

func TestFinalBiomass(t *testing.T) {
	m := NewFinalBiomass()

	if m.Value() != 0 {
		t.Error("expected 0 before any observation")
	}

	m.Observe(record(0, 10, 0.22, 0))
	m.Observe(record(1, 9, 0.25, 0))
	m.Observe(record(2, 8, 0.31, 0))

	if m.Value() != 0.31 {
		t.Errorf("final biomass = %g, want 0.31", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("reset did not clear value")
	}
}

func TestOxygenUtilization(t *testing.T) {
	capacity := 6.9e-3
	m := NewOxygenUtilization(capacity)

	// the initial sample must not count
	m.Observe(record(0, 10, 0.22, 0))
	m.Observe(record(1, 9, 0.25, capacity))
	m.Observe(record(2, 8, 0.31, capacity/2))

	want := (1.0 + 0.5) / 2
	if math.Abs(m.Value()-want) > 1e-12 {
		t.Errorf("utilization = %g, want %g", m.Value(), want)
	}
}

func TestDepletionTime(t *testing.T) {
	m := NewDepletionTime(0.01)

	m.Observe(record(0, 10, 0.22, 0))
	m.Observe(record(1, 0.5, 0.25, 0))
	if m.Value() != -1 {
		t.Error("should not report depletion yet")
	}

	m.Observe(record(2, 0.005, 0.31, 0))
	m.Observe(record(3, 0.001, 0.32, 0))

	if m.Value() != 2 {
		t.Errorf("depletion time = %g, want 2 (first crossing)", m.Value())
	}
}
