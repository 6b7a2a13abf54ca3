package flux

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// Simplex solves the flux allocation problem with gonum's LP simplex.
// The 2-variable problem is small enough to solve in closed form, but the
// general solve keeps the door open for larger stoichiometric networks
// without touching the driver.
type Simplex struct {
	params Params
	tol    float64
}

func NewSimplex(p Params) *Simplex {
	return &Simplex{params: p, tol: 1e-10}
}

func (s *Simplex) Name() string { return "simplex" }

// Solve maximizes YGr*qGr + YEr*qEr subject to the oxygen capacity and
// substrate availability constraints. The problem is converted to standard
// form (minimize, equality constraints, slack variables s1..s3):
//
//	kog*qGr + koe*qEr + s1 = qO2max
//	qGr            + s2 = alpha*max(0, G)
//	qEr            + s3 = beta*max(0, E)
//
// On ties gonum's pivot rule selects the vertex; in the nominal regime the
// optimum is unique (see the scenario tests for the pinned vertex).
func (s *Simplex) Solve(glucose, ethanol float64) (Solution, error) {
	p := s.params

	c := []float64{-p.YGr, -p.YEr, 0, 0, 0}
	a := mat.NewDense(3, 5, []float64{
		p.Kog, p.Koe, 1, 0, 0,
		1, 0, 0, 1, 0,
		0, 1, 0, 0, 1,
	})
	b := []float64{
		p.QO2Max,
		p.Alpha * clampNonNeg(glucose),
		p.Beta * clampNonNeg(ethanol),
	}

	_, x, err := lp.Simplex(c, a, b, s.tol, nil)
	if err != nil {
		if errors.Is(err, lp.ErrInfeasible) {
			return Solution{}, fmt.Errorf("solve(G=%g, E=%g): %w", glucose, ethanol, ErrInfeasible)
		}
		if errors.Is(err, lp.ErrUnbounded) {
			return Solution{}, fmt.Errorf("solve(G=%g, E=%g): %w", glucose, ethanol, ErrUnbounded)
		}
		return Solution{}, fmt.Errorf("solve(G=%g, E=%g): %w", glucose, ethanol, err)
	}

	return p.solution(x[0], x[1]), nil
}
