package cosim

import (
	"time"

	"github.com/janpeter19/cobsim/internal/flux"
	"github.com/janpeter19/cobsim/internal/reactor"
)

// SubstrateState is one raw reading of the substrate concentrations. Values
// near depletion may be slightly negative due to integration noise; they
// are stored as read and only clamped where a non-negative bound is needed.
type SubstrateState struct {
	Glucose float64
	Ethanol float64
}

// Record is one trajectory sample: the substrate state observed at Time and
// the flux solution that was (or will be) applied from that state on. The
// initial record carries a zero flux since no optimization has been applied
// yet.
type Record struct {
	Time    float64
	State   SubstrateState
	Biomass float64
	Flux    flux.Solution
}

// Trajectory is the append-only sequence of samples accumulated over a run.
type Trajectory []Record

type Status int

const (
	StatusCompleted Status = iota
	StatusFailed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Config describes one co-simulation run. The step count is
// floor(Horizon/Dt); a non-dividing remainder is dropped rather than run as
// a partial step.
type Config struct {
	Horizon float64 // total simulated time [h]
	Dt      float64 // sample interval between optimizations [h]

	// MaxSteps and MaxWall are safety caps. Exceeding either ends the run
	// with StatusCancelled and the partial trajectory; zero disables.
	MaxSteps int
	MaxWall  time.Duration

	// Output variable names read from the Advancer each step.
	GlucoseVar string
	EthanolVar string
	BiomassVar string
}

func DefaultConfig() Config {
	return Config{
		Horizon:    12.0,
		Dt:         0.1,
		GlucoseVar: reactor.OutGlucose,
		EthanolVar: reactor.OutEthanol,
		BiomassVar: reactor.OutBiomass,
	}
}

// Result holds the trajectory and run outcome. On failure the trajectory
// contains the samples recorded up to the failing step.
type Result struct {
	Trajectory Trajectory
	Status     Status
	Steps      int
	Elapsed    time.Duration
	Metrics    map[string]float64
}

// Metric observes each trajectory record and reduces to a single value,
// reported in Result.Metrics under Name.
type Metric interface {
	Name() string
	Observe(rec Record)
	Value() float64
	Reset()
}

// Observer is notified after every completed step.
type Observer interface {
	OnStep(rec Record)
}
