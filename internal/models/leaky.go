package models

import (
	"context"
	"math"

	"github.com/san-kum/decaylab/internal/autodiff"
	"github.com/san-kum/decaylab/internal/dynamo"
	"github.com/san-kum/decaylab/internal/integrators"
)

// Leaky is the first-order decay dx/dt = -(W/Tau) x.
type Leaky struct {
	W   float64
	Tau float64
}

func NewLeaky(w, tau float64) *Leaky {
	return &Leaky{W: w, Tau: tau}
}

func (l *Leaky) StateDim() int {
	return 1
}

func (l *Leaky) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{-(l.W / l.Tau) * x[0]}
}

// LeakyGraph is Leaky with W held on a tape so gradients reach it.
type LeakyGraph struct {
	W   *autodiff.Var
	Tau float64
}

func (l *LeakyGraph) DeriveVar(tape *autodiff.Tape, x *autodiff.Var, t float64) *autodiff.Var {
	rate := tape.Neg(tape.Div(l.W, tape.Const(l.Tau)))
	return tape.Mul(rate, x)
}

// Simulate returns the Euler trajectory of length cfg.Steps()+1 starting at x0.
func Simulate(x0, w float64, cfg dynamo.Config) (dynamo.Trajectory, error) {
	sim := dynamo.New(NewLeaky(w, cfg.Tau), integrators.NewEuler())
	result, err := sim.Run(context.Background(), dynamo.State{x0}, cfg)
	if err != nil {
		return nil, err
	}
	return result.Component(0), nil
}

// SimulateGraph unrolls the same recurrence as Simulate on the tape, so every
// element stays differentiable with respect to x0 and w.
func SimulateGraph(tape *autodiff.Tape, x0, w *autodiff.Var, cfg dynamo.Config) ([]*autodiff.Var, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	steps := cfg.Steps()
	integ := integrators.NewEuler()
	dyn := &LeakyGraph{W: w, Tau: cfg.Tau}

	xs := make([]*autodiff.Var, 0, steps+1)
	xs = append(xs, x0)
	x := x0
	for i := 0; i < steps; i++ {
		x = integ.StepVar(tape, dyn, x, float64(i)*cfg.Dt, cfg.Dt)
		xs = append(xs, x)
	}
	return xs, nil
}

// EulerCurve is the pure decay dx/dt = -x/tau sampled at the first
// int(totalTime/dt) steps, times i*dt.
func EulerCurve(tau, dt, totalTime, x0 float64) (dynamo.Trajectory, error) {
	cfg := dynamo.Config{Dt: dt, Duration: totalTime, Tau: tau}
	traj, err := Simulate(x0, 1, cfg)
	if err != nil {
		return nil, err
	}
	return traj[:cfg.Steps()], nil
}

// Analytic is the exact solution x0*exp(-t/tau).
func Analytic(x0, tau, t float64) float64 {
	return x0 * math.Exp(-t/tau)
}
