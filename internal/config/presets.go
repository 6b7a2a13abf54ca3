package config

// Presets are ready-made scenarios. "batch" reproduces the original
// glucose-only batch; the others vary the feed composition and oxygen
// transfer.
var Presets = map[string]*Config{
	"batch": {
		Horizon: 12.0, Dt: 0.1, Optimizer: "simplex", Integrator: "rk4", NCP: 10,
		Init:     InitConfig{V: 4.5, VX: 1.0, VG: 10.0, VE: 0.0},
		Kinetics: DefaultConfig().Kinetics,
	},
	"coutilization": {
		Horizon: 12.0, Dt: 0.1, Optimizer: "simplex", Integrator: "rk4", NCP: 10,
		// ethanol charged up front: E_0 = 3 g/L at V_0 = 4.5 L
		Init:     InitConfig{V: 4.5, VX: 1.0, VG: 10.0, VE: 13.5},
		Kinetics: DefaultConfig().Kinetics,
	},
	"oxygen-rich": {
		Horizon: 12.0, Dt: 0.1, Optimizer: "simplex", Integrator: "rk4", NCP: 10,
		Init: InitConfig{V: 4.5, VX: 1.0, VG: 10.0, VE: 0.0},
		Kinetics: KineticsConfig{
			QO2Max: 6.9e-2, // 10x transfer capacity: substrate bounds dominate
			Kog:    2.3, Koe: 1.6, YGr: 3.5, YEr: 1.32, Alpha: 0.01, Beta: 1.0,
		},
	},
	"fine": {
		Horizon: 12.0, Dt: 0.02, Optimizer: "vertex", Integrator: "rk45", NCP: 20,
		Init:     InitConfig{V: 4.5, VX: 1.0, VG: 10.0, VE: 0.0},
		Kinetics: DefaultConfig().Kinetics,
	},
}

func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
