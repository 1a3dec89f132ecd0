package integrators

import (
	"github.com/san-kum/decaylab/internal/autodiff"
	"github.com/san-kum/decaylab/internal/dynamo"
)

// GraphSystem is a scalar system whose derivative is recorded on a tape.
type GraphSystem interface {
	DeriveVar(tape *autodiff.Tape, x *autodiff.Var, t float64) *autodiff.Var
}

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, t float64, dt float64) dynamo.State {
	dx := dyn.Derive(x, t)
	result := make(dynamo.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}

// StepVar records x + dt*f(x) on the tape, with the same operation order as Step.
func (e *Euler) StepVar(tape *autodiff.Tape, dyn GraphSystem, x *autodiff.Var, t float64, dt float64) *autodiff.Var {
	dx := dyn.DeriveVar(tape, x, t)
	return tape.Add(x, tape.Mul(tape.Const(dt), dx))
}
