package cosim_test

import (
	"context"
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/janpeter19/cobsim/internal/cosim"
	"github.com/janpeter19/cobsim/internal/flux"
	"github.com/janpeter19/cobsim/internal/integrators"
	"github.com/janpeter19/cobsim/internal/reactor"
)

// stubAdvancer drains glucose at a fixed rate per advance, ignoring the
// pushed fluxes. failAt >= 0 makes the advance with that index fail,
// imitating numerical non-convergence in the external solver.
type stubAdvancer struct {
	g0, e0, x0 float64
	drain      float64
	failAt     int

	g, e, x  float64
	advances int
	lastSet  map[string]float64
}

func newStubAdvancer(g, e, x float64) *stubAdvancer {
	s := &stubAdvancer{g0: g, e0: e, x0: x, drain: 0.5, failAt: -1}
	s.Reset()
	return s
}

func (s *stubAdvancer) SetParameters(p map[string]float64) {
	s.lastSet = make(map[string]float64, len(p))
	for k, v := range p {
		s.lastSet[k] = v
	}
}

func (s *stubAdvancer) Advance(deltaT float64, continueFrom bool) error {
	if s.failAt >= 0 && s.advances == s.failAt {
		return errors.New("CVode failed to converge")
	}
	if !continueFrom {
		s.g, s.e, s.x = s.g0, s.e0, s.x0
	}
	s.advances++
	s.g -= s.drain * deltaT
	return nil
}

func (s *stubAdvancer) LastOutput() map[string][]float64 {
	return map[string][]float64{
		"G": {s.g},
		"E": {s.e},
		"X": {s.x},
	}
}

func (s *stubAdvancer) Reset() {
	s.g, s.e, s.x = s.g0, s.e0, s.x0
	s.advances = 0
	s.lastSet = nil
}

// countingOptimizer counts Solve calls around a real optimizer.
type countingOptimizer struct {
	inner  flux.Optimizer
	solves int
}

func (c *countingOptimizer) Name() string { return c.inner.Name() }

func (c *countingOptimizer) Solve(g, e float64) (flux.Solution, error) {
	c.solves++
	return c.inner.Solve(g, e)
}

var _ = Describe("Driver", func() {
	var (
		adv *stubAdvancer
		opt *countingOptimizer
		cfg cosim.Config
	)

	BeforeEach(func() {
		adv = newStubAdvancer(10, 3, 1)
		opt = &countingOptimizer{inner: flux.NewVertex(flux.DefaultParams())}
		cfg = cosim.Config{Horizon: 1.0, Dt: 0.1}
	})

	Describe("construction", func() {
		It("rejects non-positive dt", func() {
			_, err := cosim.NewDriver(adv, opt, cosim.Config{Horizon: 1, Dt: 0})
			Expect(errors.Is(err, cosim.ErrInvalidConfig)).To(BeTrue())

			_, err = cosim.NewDriver(adv, opt, cosim.Config{Horizon: 1, Dt: -0.1})
			Expect(errors.Is(err, cosim.ErrInvalidConfig)).To(BeTrue())
		})

		It("rejects non-positive horizon", func() {
			_, err := cosim.NewDriver(adv, opt, cosim.Config{Horizon: 0, Dt: 0.1})
			Expect(errors.Is(err, cosim.ErrInvalidConfig)).To(BeTrue())
		})

		It("rejects dt exceeding the horizon", func() {
			_, err := cosim.NewDriver(adv, opt, cosim.Config{Horizon: 1, Dt: 2})
			Expect(errors.Is(err, cosim.ErrInvalidConfig)).To(BeTrue())
		})
	})

	Describe("a nominal run", func() {
		It("records N+1 samples including the initial state", func() {
			d, err := cosim.NewDriver(adv, opt, cfg)
			Expect(err).NotTo(HaveOccurred())

			res, err := d.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Status).To(Equal(cosim.StatusCompleted))
			Expect(res.Trajectory).To(HaveLen(11))
			Expect(res.Steps).To(Equal(10))

			Expect(res.Trajectory[0].Time).To(BeNumerically("~", 0, 1e-12))
			Expect(res.Trajectory[0].State.Glucose).To(BeNumerically("~", 10, 1e-12))
			Expect(res.Trajectory[0].Flux).To(Equal(flux.Solution{}))
			Expect(res.Trajectory[10].Time).To(BeNumerically("~", 1.0, 1e-9))
		})

		It("optimizes and advances exactly once per step", func() {
			d, _ := cosim.NewDriver(adv, opt, cfg)
			_, err := d.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())

			Expect(opt.solves).To(Equal(10))
			Expect(adv.advances).To(Equal(10))
		})

		It("pushes all four rates as parameters every step", func() {
			d, _ := cosim.NewDriver(adv, opt, cfg)
			_, err := d.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())

			Expect(adv.lastSet).To(HaveKey(reactor.ParamMu))
			Expect(adv.lastSet).To(HaveKey(reactor.ParamQGr))
			Expect(adv.lastSet).To(HaveKey(reactor.ParamQEr))
			Expect(adv.lastSet).To(HaveKey(reactor.ParamQO2))
		})

		It("is repeatable after the advancer is reset", func() {
			d, _ := cosim.NewDriver(adv, opt, cfg)
			first, err := d.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			second, err := d.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(second.Trajectory).To(Equal(first.Trajectory))
		})
	})

	Describe("advancer failure", func() {
		It("fails fast with step context and keeps the partial trajectory", func() {
			adv.failAt = 4
			d, _ := cosim.NewDriver(adv, opt, cfg)

			res, err := d.Run(context.Background())
			Expect(err).To(HaveOccurred())
			Expect(res.Status).To(Equal(cosim.StatusFailed))

			var stepErr *cosim.StepError
			Expect(errors.As(err, &stepErr)).To(BeTrue())
			Expect(stepErr.Step).To(Equal(4))

			// initial sample plus the 4 completed steps
			Expect(res.Trajectory).To(HaveLen(5))
			Expect(res.Steps).To(Equal(4))
		})
	})

	Describe("infeasible optimization", func() {
		It("aborts with the offending step and inputs", func() {
			broken := flux.DefaultParams()
			broken.QO2Max = -1
			d, _ := cosim.NewDriver(adv, flux.NewVertex(broken), cfg)

			res, err := d.Run(context.Background())
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, flux.ErrInfeasible)).To(BeTrue())
			Expect(res.Status).To(Equal(cosim.StatusFailed))

			var stepErr *cosim.StepError
			Expect(errors.As(err, &stepErr)).To(BeTrue())
			Expect(stepErr.Step).To(Equal(0))
			Expect(stepErr.Glucose).To(BeNumerically("~", 10, 1e-12))
			Expect(stepErr.Ethanol).To(BeNumerically("~", 3, 1e-12))
		})
	})

	Describe("missing advancer outputs", func() {
		It("surfaces the missing variable name", func() {
			c := cfg
			c.GlucoseVar = "bioreactor.c[2]"
			d, _ := cosim.NewDriver(adv, opt, c)

			_, err := d.Run(context.Background())
			Expect(errors.Is(err, cosim.ErrMissingOutput)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("bioreactor.c[2]"))
		})
	})

	Describe("safety caps", func() {
		It("stops at MaxSteps with a cancelled status and no error", func() {
			c := cfg
			c.MaxSteps = 3
			d, _ := cosim.NewDriver(adv, opt, c)

			res, err := d.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Status).To(Equal(cosim.StatusCancelled))
			Expect(res.Steps).To(Equal(3))
			Expect(res.Trajectory).To(HaveLen(4))
		})

		It("honors context cancellation", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			d, _ := cosim.NewDriver(adv, opt, cfg)
			res, err := d.Run(ctx)
			Expect(err).To(MatchError(context.Canceled))
			Expect(res.Status).To(Equal(cosim.StatusCancelled))
		})
	})

	Describe("with the built-in reactor", func() {
		It("runs a batch to completion with consistent mass balances", func() {
			batch, err := reactor.New(
				reactor.InitialState{V: 4.5, VX: 1.0, VG: 10.0, VE: 0.0},
				reactor.Options{Integrator: integrators.NewRK4(), NCP: 10},
			)
			Expect(err).NotTo(HaveOccurred())

			c := cosim.DefaultConfig()
			c.Horizon = 12.0
			c.Dt = 0.5

			d, err := cosim.NewDriver(batch, flux.NewSimplex(flux.DefaultParams()), c)
			Expect(err).NotTo(HaveOccurred())

			res, err := d.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Status).To(Equal(cosim.StatusCompleted))
			Expect(res.Trajectory).To(HaveLen(25))

			first := res.Trajectory[0]
			last := res.Trajectory[len(res.Trajectory)-1]

			Expect(first.State.Glucose).To(BeNumerically("~", 10.0/4.5, 1e-9))
			Expect(last.State.Glucose).To(BeNumerically("<", first.State.Glucose))
			Expect(last.Biomass).To(BeNumerically(">", first.Biomass))

			// glucose readings stay raw but cannot run far negative while
			// the uptake bound scales with G
			for _, rec := range res.Trajectory {
				Expect(rec.State.Glucose).To(BeNumerically(">", -1e-3),
					fmt.Sprintf("t=%.2f", rec.Time))
			}
		})
	})
})
