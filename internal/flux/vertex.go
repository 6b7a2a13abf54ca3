package flux

import "fmt"

// feasTol absorbs floating-point noise when checking vertex feasibility.
const feasTol = 1e-12

// Vertex solves the flux allocation problem by enumerating the vertices of
// the 2-dimensional feasible polytope. With two decision variables and three
// upper bounds there are at most eight candidates; the optimum of a linear
// objective lies on one of them. Serves as an exact cross-check oracle for
// the LP solver and as a dependency-free fallback.
//
// Tie-break: candidates are enumerated glucose-heavy first, and a later
// candidate replaces the incumbent only on a strict improvement, so ties
// resolve to the glucose-favoring vertex.
type Vertex struct {
	params Params
}

func NewVertex(p Params) *Vertex {
	return &Vertex{params: p}
}

func (v *Vertex) Name() string { return "vertex" }

func (v *Vertex) Solve(glucose, ethanol float64) (Solution, error) {
	p := v.params

	gMax := p.Alpha * clampNonNeg(glucose)
	eMax := p.Beta * clampNonNeg(ethanol)

	type point struct{ qGr, qEr float64 }
	candidates := []point{
		{gMax, (p.QO2Max - p.Kog*gMax) / p.Koe}, // glucose bound + oxygen binding
		{gMax, eMax},                            // both substrate bounds
		{p.QO2Max / p.Kog, 0},                   // oxygen binding, glucose only
		{gMax, 0},
		{(p.QO2Max - p.Koe*eMax) / p.Kog, eMax}, // ethanol bound + oxygen binding
		{0, eMax},
		{0, p.QO2Max / p.Koe}, // oxygen binding, ethanol only
		{0, 0},
	}

	feasible := func(pt point) bool {
		if pt.qGr < -feasTol || pt.qEr < -feasTol {
			return false
		}
		if pt.qGr > gMax+feasTol || pt.qEr > eMax+feasTol {
			return false
		}
		return p.Kog*pt.qGr+p.Koe*pt.qEr <= p.QO2Max+feasTol
	}

	found := false
	var best point
	var bestMu float64
	for _, pt := range candidates {
		if !feasible(pt) {
			continue
		}
		mu := p.YGr*pt.qGr + p.YEr*pt.qEr
		if !found || mu > bestMu {
			found = true
			best = pt
			bestMu = mu
		}
	}

	if !found {
		// Only reachable with broken parameters, e.g. qO2max < 0.
		return Solution{}, fmt.Errorf("solve(G=%g, E=%g): %w", glucose, ethanol, ErrInfeasible)
	}

	return p.solution(clampNonNeg(best.qGr), clampNonNeg(best.qEr)), nil
}
