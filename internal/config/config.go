package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/janpeter19/cobsim/internal/cosim"
	"github.com/janpeter19/cobsim/internal/flux"
	"github.com/janpeter19/cobsim/internal/reactor"
)

const (
	DefaultHorizon = 12.0
	DefaultDt      = 0.1
	DefaultNCP     = 10
)

type Config struct {
	Horizon    float64        `yaml:"horizon"`
	Dt         float64        `yaml:"dt"`
	Optimizer  string         `yaml:"optimizer"`
	Integrator string         `yaml:"integrator"`
	NCP        int            `yaml:"ncp"`
	MaxSteps   int            `yaml:"max_steps"`
	Init       InitConfig     `yaml:"init"`
	Kinetics   KineticsConfig `yaml:"kinetics"`
}

// InitConfig mirrors the initial-value parameters of the reactor model:
// broth volume and component masses.
type InitConfig struct {
	V  float64 `yaml:"v_0"`
	VX float64 `yaml:"vx_0"`
	VG float64 `yaml:"vg_0"`
	VE float64 `yaml:"ve_0"`
}

type KineticsConfig struct {
	QO2Max float64 `yaml:"qo2max"`
	Kog    float64 `yaml:"kog"`
	Koe    float64 `yaml:"koe"`
	YGr    float64 `yaml:"ygr"`
	YEr    float64 `yaml:"yer"`
	Alpha  float64 `yaml:"alpha"`
	Beta   float64 `yaml:"beta"`
}

func DefaultConfig() *Config {
	k := flux.DefaultParams()
	return &Config{
		Horizon:    DefaultHorizon,
		Dt:         DefaultDt,
		Optimizer:  "simplex",
		Integrator: "rk4",
		NCP:        DefaultNCP,
		Init: InitConfig{
			V:  4.5,
			VX: 1.0,
			VG: 10.0,
			VE: 0.0,
		},
		Kinetics: KineticsConfig{
			QO2Max: k.QO2Max,
			Kog:    k.Kog,
			Koe:    k.Koe,
			YGr:    k.YGr,
			YEr:    k.YEr,
			Alpha:  k.Alpha,
			Beta:   k.Beta,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// FluxParams maps the kinetics section onto optimizer parameters.
func (c *Config) FluxParams() flux.Params {
	return flux.Params{
		QO2Max: c.Kinetics.QO2Max,
		Kog:    c.Kinetics.Kog,
		Koe:    c.Kinetics.Koe,
		YGr:    c.Kinetics.YGr,
		YEr:    c.Kinetics.YEr,
		Alpha:  c.Kinetics.Alpha,
		Beta:   c.Kinetics.Beta,
	}
}

// InitialState maps the init section onto the reactor's initial masses.
func (c *Config) InitialState() reactor.InitialState {
	return reactor.InitialState{
		V:  c.Init.V,
		VX: c.Init.VX,
		VG: c.Init.VG,
		VE: c.Init.VE,
	}
}

// DriverConfig maps the run section onto the co-simulation driver config.
func (c *Config) DriverConfig() cosim.Config {
	dc := cosim.DefaultConfig()
	dc.Horizon = c.Horizon
	dc.Dt = c.Dt
	dc.MaxSteps = c.MaxSteps
	return dc
}
