package flux

import "fmt"

// Params holds the kinetic and stoichiometric constants of the
// constraint-based culture model. Units follow the Bioprocess Library
// convention: fluxes in mole/(g*h), yields in g/mole, concentrations in g/L.
type Params struct {
	QO2Max float64 // maximum oxygen uptake capacity
	Kog    float64 // oxygen cost per unit glucose flux
	Koe    float64 // oxygen cost per unit ethanol flux
	YGr    float64 // growth yield on glucose flux
	YEr    float64 // growth yield on ethanol flux
	Alpha  float64 // glucose uptake limit coefficient
	Beta   float64 // ethanol uptake limit coefficient
}

// DefaultParams returns the nominal parameter set for S. cerevisiae
// glucose/ethanol co-utilization.
func DefaultParams() Params {
	return Params{
		QO2Max: 6.9e-3,
		Kog:    2.3,
		Koe:    1.6,
		YGr:    3.5,
		YEr:    1.32,
		Alpha:  0.01,
		Beta:   1.0,
	}
}

func (p Params) Validate() error {
	if p.Kog <= 0 || p.Koe <= 0 {
		return fmt.Errorf("flux: oxygen cost coefficients must be positive (kog=%g, koe=%g)", p.Kog, p.Koe)
	}
	if p.YGr <= 0 || p.YEr <= 0 {
		return fmt.Errorf("flux: yield coefficients must be positive (YGr=%g, YEr=%g)", p.YGr, p.YEr)
	}
	if p.Alpha < 0 || p.Beta < 0 {
		return fmt.Errorf("flux: uptake coefficients must be non-negative (alpha=%g, beta=%g)", p.Alpha, p.Beta)
	}
	return nil
}

// Solution is the result of one optimization step.
type Solution struct {
	Mu  float64 // specific growth rate, the objective value
	QGr float64 // glucose-driven growth flux
	QEr float64 // ethanol-driven growth flux
	QO2 float64 // realized oxygen uptake at the optimum
}

// Optimizer computes the optimal flux distribution for the current
// substrate concentrations. Implementations must be stateless between
// calls: identical inputs yield identical outputs.
type Optimizer interface {
	Name() string
	Solve(glucose, ethanol float64) (Solution, error)
}

// solution assembles a Solution from the two primal values.
func (p Params) solution(qGr, qEr float64) Solution {
	return Solution{
		Mu:  p.YGr*qGr + p.YEr*qEr,
		QGr: qGr,
		QEr: qEr,
		QO2: p.Kog*qGr + p.Koe*qEr,
	}
}

// clampNonNeg treats negative concentration readings as zero when forming
// bounds. The raw reading is preserved by the caller; substrate availability
// cannot be negative.
func clampNonNeg(c float64) float64 {
	if c < 0 {
		return 0
	}
	return c
}
