package reactor_test

import (
	"errors"
	"math"
	"testing"

	"github.com/janpeter19/cobsim/internal/integrators"
	. "github.com/janpeter19/cobsim/internal/reactor"
)

func newBatch(t *testing.T) *Batch {
	t.Helper()
	b, err := New(InitialState{V: 4.5, VX: 1.0, VG: 10.0, VE: 0.0}, Options{
		Integrator: integrators.NewRK4(),
		NCP:        10,
	})
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	return b
}

func lastOf(series []float64) float64 {
	return series[len(series)-1]
}

func TestNewValidation(t *testing.T) {
	integ := integrators.NewRK4()

	tests := []struct {
		name string
		init InitialState
		opts Options
	}{
		{"zero volume", InitialState{V: 0, VX: 1}, Options{Integrator: integ}},
		{"negative biomass", InitialState{V: 4.5, VX: -1}, Options{Integrator: integ}},
		{"missing integrator", InitialState{V: 4.5, VX: 1}, Options{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.init, tt.opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestVolumeConstant(t *testing.T) {
	b := newBatch(t)
	b.SetParameters(map[string]float64{ParamMu: 0.01, ParamQGr: 3e-3})

	if err := b.Advance(1.0, true); err != nil {
		t.Fatalf("advance failed: %v", err)
	}

	for _, v := range b.LastOutput()[OutVolume] {
		if math.Abs(v-4.5) > 1e-12 {
			t.Fatalf("volume drifted to %g", v)
		}
	}
}

func TestBiomassGrowsExponentially(t *testing.T) {
	b := newBatch(t)
	mu := 0.1
	b.SetParameters(map[string]float64{ParamMu: mu})

	if err := b.Advance(2.0, true); err != nil {
		t.Fatalf("advance failed: %v", err)
	}

	x0 := 1.0 / 4.5
	got := lastOf(b.LastOutput()[OutBiomass])
	want := x0 * math.Exp(mu*2.0)
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("biomass after 2h = %g, want %g", got, want)
	}
}

func TestGlucoseDeclines(t *testing.T) {
	b := newBatch(t)
	b.SetParameters(map[string]float64{ParamMu: 1.05e-2, ParamQGr: 3e-3})

	if err := b.Advance(1.0, true); err != nil {
		t.Fatalf("advance failed: %v", err)
	}

	g := b.LastOutput()[OutGlucose]
	for i := 1; i < len(g); i++ {
		if g[i] >= g[i-1] {
			t.Fatalf("glucose not declining: g[%d]=%g >= g[%d]=%g", i, g[i], i-1, g[i-1])
		}
	}
}

func TestAdvanceContinues(t *testing.T) {
	b := newBatch(t)
	b.SetParameters(map[string]float64{ParamMu: 0.1})

	if err := b.Advance(1.0, true); err != nil {
		t.Fatalf("first advance failed: %v", err)
	}
	mid := lastOf(b.LastOutput()[OutBiomass])

	if err := b.Advance(1.0, true); err != nil {
		t.Fatalf("second advance failed: %v", err)
	}
	end := lastOf(b.LastOutput()[OutBiomass])

	if end <= mid {
		t.Errorf("biomass did not keep growing: %g -> %g", mid, end)
	}
	if math.Abs(b.Time()-2.0) > 1e-12 {
		t.Errorf("time = %g, want 2.0", b.Time())
	}
}

func TestAdvanceRestartsWhenNotContinuing(t *testing.T) {
	b := newBatch(t)
	b.SetParameters(map[string]float64{ParamMu: 0.1})

	if err := b.Advance(1.0, true); err != nil {
		t.Fatalf("first advance failed: %v", err)
	}
	first := lastOf(b.LastOutput()[OutBiomass])

	// continueFrom=false rewinds state but keeps the parameters
	if err := b.Advance(1.0, false); err != nil {
		t.Fatalf("restart advance failed: %v", err)
	}
	second := lastOf(b.LastOutput()[OutBiomass])

	if math.Abs(first-second) > 1e-12 {
		t.Errorf("restarted run differs: %g vs %g", first, second)
	}
	if math.Abs(b.Time()-1.0) > 1e-12 {
		t.Errorf("time after restart = %g, want 1.0", b.Time())
	}
}

func TestResetRestoresInitialState(t *testing.T) {
	b := newBatch(t)
	b.SetParameters(map[string]float64{ParamMu: 0.1, ParamQGr: 3e-3})

	if err := b.Advance(1.0, true); err != nil {
		t.Fatalf("advance failed: %v", err)
	}

	b.Reset()

	out := b.LastOutput()
	if len(out[OutTime]) != 1 {
		t.Fatalf("output after reset has %d points, want 1", len(out[OutTime]))
	}
	if got := out[OutGlucose][0]; math.Abs(got-10.0/4.5) > 1e-12 {
		t.Errorf("glucose after reset = %g, want %g", got, 10.0/4.5)
	}
	if got := out[OutMu][0]; got != 0 {
		t.Errorf("mu after reset = %g, want 0", got)
	}
	if b.Time() != 0 {
		t.Errorf("time after reset = %g, want 0", b.Time())
	}
}

func TestOutputSeriesLength(t *testing.T) {
	b := newBatch(t)

	if err := b.Advance(0.5, true); err != nil {
		t.Fatalf("advance failed: %v", err)
	}

	out := b.LastOutput()
	for _, name := range []string{OutTime, OutGlucose, OutEthanol, OutBiomass, OutVolume, OutMu, OutQO2} {
		if len(out[name]) != 11 {
			t.Errorf("series %q has %d points, want 11", name, len(out[name]))
		}
	}
	if got := lastOf(out[OutTime]); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("last time point = %g, want 0.5", got)
	}
}

func TestAdvanceRejectsNonPositiveInterval(t *testing.T) {
	b := newBatch(t)
	if err := b.Advance(0, true); err == nil {
		t.Error("expected error for zero interval")
	}
	if err := b.Advance(-0.1, true); err == nil {
		t.Error("expected error for negative interval")
	}
}

func TestDivergenceDetected(t *testing.T) {
	b := newBatch(t)
	b.SetParameters(map[string]float64{ParamMu: math.Inf(1)})

	err := b.Advance(0.1, true)
	if err == nil {
		t.Fatal("expected divergence error")
	}
	if !errors.Is(err, ErrDiverged) {
		t.Errorf("error = %v, want ErrDiverged", err)
	}
}

func TestAdaptiveIntegrator(t *testing.T) {
	b, err := New(InitialState{V: 4.5, VX: 1.0, VG: 10.0, VE: 0.0}, Options{
		Integrator: integrators.NewRK45(),
		NCP:        10,
		Tolerance:  1e-8,
	})
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	b.SetParameters(map[string]float64{ParamMu: 0.1})

	if err := b.Advance(1.0, true); err != nil {
		t.Fatalf("advance failed: %v", err)
	}

	x0 := 1.0 / 4.5
	got := lastOf(b.LastOutput()[OutBiomass])
	want := x0 * math.Exp(0.1)
	if math.Abs(got-want) > 1e-7 {
		t.Errorf("biomass = %g, want %g", got, want)
	}
}
