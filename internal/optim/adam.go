package optim

import (
	"math"

	"github.com/san-kum/decaylab/internal/autodiff"
)

const (
	DefaultLearningRate = 0.05
	DefaultBeta1        = 0.9
	DefaultBeta2        = 0.999
	DefaultEpsilon      = 1e-8
)

// Optimizer updates parameters in place from their accumulated gradients.
type Optimizer interface {
	Step()
	ZeroGrad()
}

// Adam is adaptive moment estimation with bias-corrected first and second
// moment estimates.
type Adam struct {
	params []*autodiff.Param
	lr     float64
	beta1  float64
	beta2  float64
	eps    float64
	m      []float64
	v      []float64
	step   int
}

func NewAdam(params []*autodiff.Param, lr float64) *Adam {
	return &Adam{
		params: params,
		lr:     lr,
		beta1:  DefaultBeta1,
		beta2:  DefaultBeta2,
		eps:    DefaultEpsilon,
		m:      make([]float64, len(params)),
		v:      make([]float64, len(params)),
	}
}

func (a *Adam) Step() {
	a.step++
	bc1 := 1 - math.Pow(a.beta1, float64(a.step))
	bc2 := 1 - math.Pow(a.beta2, float64(a.step))

	for i, p := range a.params {
		g := p.Grad
		a.m[i] = a.beta1*a.m[i] + (1-a.beta1)*g
		a.v[i] = a.beta2*a.v[i] + (1-a.beta2)*g*g

		mHat := a.m[i] / bc1
		vHat := a.v[i] / bc2
		p.Value -= a.lr * mHat / (math.Sqrt(vHat) + a.eps)
	}
}

func (a *Adam) ZeroGrad() {
	for _, p := range a.params {
		p.ZeroGrad()
	}
}
