package integrators

import "github.com/janpeter19/cobsim/internal/reactor"

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys reactor.System, x reactor.State, t, dt float64) reactor.State {
	dx := sys.Derive(x, t)
	result := make(reactor.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}
