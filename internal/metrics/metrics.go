// Package metrics provides trajectory reductions reported alongside a run.
package metrics

import (
	"github.com/janpeter19/cobsim/internal/cosim"
)

// FinalBiomass reports the biomass concentration of the last sample.
type FinalBiomass struct {
	value float64
	seen  bool
}

func NewFinalBiomass() *FinalBiomass { return &FinalBiomass{} }

func (f *FinalBiomass) Name() string { return "final_biomass" }

func (f *FinalBiomass) Observe(rec cosim.Record) {
	f.value = rec.Biomass
	f.seen = true
}

func (f *FinalBiomass) Value() float64 {
	if !f.seen {
		return 0
	}
	return f.value
}

func (f *FinalBiomass) Reset() {
	f.value = 0
	f.seen = false
}

// OxygenUtilization reports the mean fraction of the oxygen capacity used
// by the optimized fluxes. A value near 1 means the oxygen constraint was
// binding for most of the run.
type OxygenUtilization struct {
	capacity float64
	sum      float64
	samples  int
}

func NewOxygenUtilization(qO2Max float64) *OxygenUtilization {
	return &OxygenUtilization{capacity: qO2Max}
}

func (o *OxygenUtilization) Name() string { return "oxygen_utilization" }

func (o *OxygenUtilization) Observe(rec cosim.Record) {
	if rec.Time == 0 {
		// initial sample carries no applied flux
		return
	}
	o.sum += rec.Flux.QO2
	o.samples++
}

func (o *OxygenUtilization) Value() float64 {
	if o.samples == 0 || o.capacity <= 0 {
		return 0
	}
	return o.sum / (float64(o.samples) * o.capacity)
}

func (o *OxygenUtilization) Reset() {
	o.sum = 0
	o.samples = 0
}

// DepletionTime reports the first sample time at which glucose fell below
// the threshold, or -1 if it never did.
type DepletionTime struct {
	threshold float64
	time      float64
	found     bool
}

func NewDepletionTime(threshold float64) *DepletionTime {
	if threshold <= 0 {
		threshold = 1e-3
	}
	return &DepletionTime{threshold: threshold, time: -1}
}

func (d *DepletionTime) Name() string { return "glucose_depletion_time" }

func (d *DepletionTime) Observe(rec cosim.Record) {
	if d.found {
		return
	}
	if rec.State.Glucose < d.threshold {
		d.time = rec.Time
		d.found = true
	}
}

func (d *DepletionTime) Value() float64 { return d.time }

func (d *DepletionTime) Reset() {
	d.time = -1
	d.found = false
}
