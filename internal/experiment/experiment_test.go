package experiment

import (
	"context"
	"testing"

	"github.com/janpeter19/cobsim/internal/config"
	"github.com/janpeter19/cobsim/internal/cosim"
)

func TestExperimentRun(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Horizon = 1.0
	cfg.Dt = 0.1

	exp, err := New(cfg)
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if res.Status != cosim.StatusCompleted {
		t.Errorf("status = %v, want completed", res.Status)
	}
	if len(res.Trajectory) != 11 {
		t.Errorf("trajectory length = %d, want 11", len(res.Trajectory))
	}
	if _, ok := res.Metrics["final_biomass"]; !ok {
		t.Error("default metrics missing final_biomass")
	}
}

func TestExperimentUnknownOptimizer(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Optimizer = "quantum"

	if _, err := New(cfg); err == nil {
		t.Error("expected error for unknown optimizer")
	}
}

func TestExperimentInvalidKinetics(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Kinetics.Kog = -1

	if _, err := New(cfg); err == nil {
		t.Error("expected error for invalid kinetics")
	}
}

func TestRegistryLists(t *testing.T) {
	r := NewRegistry()

	if len(r.ListOptimizers()) != 2 {
		t.Errorf("expected 2 optimizers, got %d", len(r.ListOptimizers()))
	}
	if _, err := r.GetIntegrator("rk4"); err != nil {
		t.Errorf("rk4 should be registered: %v", err)
	}
	if _, err := r.GetIntegrator("leapfrog"); err == nil {
		t.Error("expected error for unknown integrator")
	}
}
