package dynamo

import "fmt"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

// Trajectory is a scalar state sequence indexed by discrete time step.
// Callers treat it as read-only once produced.
type Trajectory []float64

// Times returns the sample time of every entry, i*dt.
func (tr Trajectory) Times(dt float64) []float64 {
	times := make([]float64, len(tr))
	for i := range tr {
		times[i] = float64(i) * dt
	}
	return times
}

type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

type Integrator interface {
	Step(dyn System, x State, t float64, dt float64) State
}

// Config holds the scalar inputs of a single simulation call.
type Config struct {
	Dt       float64
	Duration float64
	Tau      float64
}

func DefaultConfig() Config {
	return Config{
		Dt:       0.1,
		Duration: 10.0,
		Tau:      10.0,
	}
}

// Steps is the number of Euler updates, truncating Duration/Dt toward zero.
func (c Config) Steps() int {
	return int(c.Duration / c.Dt)
}

func (c Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %f", ErrInvalidConfig, c.Duration)
	}
	if c.Tau <= 0 {
		return fmt.Errorf("%w: tau must be positive, got %f", ErrInvalidConfig, c.Tau)
	}
	return nil
}

type Result struct {
	States     []State
	Times      []float64
	StepsTaken int
}

// Component extracts state index i of every step as a Trajectory.
func (r *Result) Component(i int) Trajectory {
	tr := make(Trajectory, len(r.States))
	for k, s := range r.States {
		if i < len(s) {
			tr[k] = s[i]
		}
	}
	return tr
}
