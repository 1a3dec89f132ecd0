package optim_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/decaylab/internal/autodiff"
	"github.com/san-kum/decaylab/internal/optim"
)

var _ = Describe("Adam", func() {
	var (
		p   *autodiff.Param
		q   *autodiff.Param
		opt *optim.Adam
	)

	BeforeEach(func() {
		p = autodiff.NewParam("p", 1.0)
		q = autodiff.NewParam("q", -2.0)
		opt = optim.NewAdam([]*autodiff.Param{p, q}, optim.DefaultLearningRate)
	})

	It("moves each parameter by the learning rate against the gradient sign on the first step", func() {
		p.Grad = 123.0
		q.Grad = -0.004

		opt.Step()

		Expect(p.Value).To(BeNumerically("~", 1.0-0.05, 1e-6))
		Expect(q.Value).To(BeNumerically("~", -2.0+0.05, 1e-6))
	})

	It("leaves a parameter with zero gradient in place", func() {
		q.Grad = 1.0
		opt.Step()

		Expect(p.Value).To(Equal(1.0))
	})

	It("clears accumulated gradients", func() {
		p.Grad = 3
		q.Grad = 4
		opt.ZeroGrad()

		Expect(p.Grad).To(BeZero())
		Expect(q.Grad).To(BeZero())
	})

	It("minimizes a quadratic recorded on a tape", func() {
		tape := autodiff.NewTape()
		target := 3.0

		for i := 0; i < 2000; i++ {
			tape.Reset()
			loss := tape.Square(tape.Sub(tape.Leaf(p), tape.Const(target)))
			opt.ZeroGrad()
			tape.Backward(loss)
			opt.Step()
		}

		Expect(p.Value).To(BeNumerically("~", target, 1e-2))
	})

	It("keeps bias-corrected steps at the learning rate under a constant gradient", func() {
		for i := 0; i < 3; i++ {
			p.Grad = 2
			opt.Step()
		}

		Expect(p.Value).To(BeNumerically("~", 1.0-3*0.05, 1e-6))
	})
})
