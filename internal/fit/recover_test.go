package fit_test

import (
	"bytes"
	"context"
	"io"
	"math/rand"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/decaylab/internal/config"
	"github.com/san-kum/decaylab/internal/dynamo"
	"github.com/san-kum/decaylab/internal/fit"
	"github.com/san-kum/decaylab/internal/metrics"
	"github.com/san-kum/decaylab/internal/models"
)

type recordingObserver struct {
	seen []fit.Progress
}

func (r *recordingObserver) OnProgress(p fit.Progress) { r.seen = append(r.seen, p) }

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func optionsWithGuess(epochs int, guess float64) fit.Options {
	opts := fit.DefaultOptions()
	opts.Epochs = epochs
	opts.InitialGuess = &guess
	return opts
}

func expectNonIncreasing(samples []metrics.Sample) {
	for i := 1; i < len(samples); i++ {
		Expect(samples[i].Loss).To(BeNumerically("<=", samples[i-1].Loss+1e-6),
			"loss rose at epoch %d", samples[i].Epoch)
	}
}

func targetFor(sc config.Scenario) dynamo.Trajectory {
	traj, err := models.Simulate(sc.X0, sc.W, sc.SimConfig())
	Expect(err).NotTo(HaveOccurred())
	return traj
}

var _ = Describe("Recoverer", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Context("with the baseline scenario", func() {
		var (
			sc  config.Scenario
			res *fit.Result
			obs *recordingObserver
		)

		BeforeEach(func() {
			var ok bool
			sc, ok = config.GetPreset("baseline")
			Expect(ok).To(BeTrue())

			obs = &recordingObserver{}
			rec := fit.New(sc.SimConfig(), optionsWithGuess(sc.Epochs, 0.5))
			rec.AddObserver(obs)

			var err error
			res, err = rec.Run(ctx, targetFor(sc))
			Expect(err).NotTo(HaveOccurred())
		})

		It("recovers x0 and W", func() {
			Expect(res.X0).To(BeNumerically("~", 1.0, 0.05))
			Expect(res.W).To(BeNumerically("~", 2.0, 0.05))
		})

		It("ends with a lower loss than it started", func() {
			Expect(res.Losses).To(HaveLen(1000))
			Expect(res.Losses[999]).To(BeNumerically("<", res.Losses[0]))
			Expect(res.FinalLoss).To(Equal(res.Losses[999]))
		})

		It("reports progress every 200 epochs starting at 0", func() {
			epochs := make([]int, 0, len(obs.seen))
			for _, p := range obs.seen {
				epochs = append(epochs, p.Epoch)
			}
			Expect(epochs).To(Equal([]int{0, 200, 400, 600, 800}))
			Expect(res.Samples).To(HaveLen(len(obs.seen)))
			for i, s := range res.Samples {
				Expect(s.Epoch).To(Equal(obs.seen[i].Epoch))
				Expect(s.Loss).To(Equal(obs.seen[i].Loss))
			}
			Expect(obs.seen[0].Loss).To(Equal(res.Losses[0]))
		})

		It("scores the first epoch with the sum of squared errors of the initial guess", func() {
			initial, err := models.Simulate(0.5, 0.5, sc.SimConfig())
			Expect(err).NotTo(HaveOccurred())
			sse, err := metrics.SumSquaredError(initial, targetFor(sc))
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Losses[0]).To(BeNumerically("~", sse, 1e-9))
			Expect(res.InitialGuess).To(Equal(0.5))
		})
	})

	Context("with the large initial condition scenarios", func() {
		It("samples a non-increasing loss over 1000 epochs", func() {
			sc, _ := config.GetPreset("large-x0")
			res, err := fit.New(sc.SimConfig(), optionsWithGuess(sc.Epochs, 0.5)).Run(ctx, targetFor(sc))
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Samples).To(HaveLen(5))
			expectNonIncreasing(res.Samples)
		})

		It("samples a non-increasing loss and converges with 2000 epochs", func() {
			sc, _ := config.GetPreset("large-x0-long")
			res, err := fit.New(sc.SimConfig(), optionsWithGuess(sc.Epochs, 0.5)).Run(ctx, targetFor(sc))
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Samples).To(HaveLen(10))
			expectNonIncreasing(res.Samples)
			Expect(res.X0).To(BeNumerically("~", 20.0, 0.05))
			Expect(res.W).To(BeNumerically("~", 10.0, 0.05))
		})
	})

	Context("with the fast decay scenario", func() {
		It("reduces the loss steadily towards the true parameters", func() {
			sc, ok := config.GetPreset("fast-decay")
			Expect(ok).To(BeTrue())

			res, err := fit.New(sc.SimConfig(), optionsWithGuess(sc.Epochs, 0.5)).Run(ctx, targetFor(sc))
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Samples).To(HaveLen(5))
			expectNonIncreasing(res.Samples)
			Expect(res.FinalLoss).To(BeNumerically("<", res.Losses[0]/100))
			Expect(res.X0).To(BeNumerically("~", 10.0, 0.5))
			Expect(res.W).To(BeNumerically("~", 20.0, 2.0))
		})
	})

	It("draws the same initial guess for both parameters from the seed", func() {
		sc, _ := config.GetPreset("baseline")
		opts := fit.DefaultOptions()
		opts.Epochs = 10
		opts.Seed = 7

		a, err := fit.New(sc.SimConfig(), opts).Run(ctx, targetFor(sc))
		Expect(err).NotTo(HaveOccurred())
		b, err := fit.New(sc.SimConfig(), opts).Run(ctx, targetFor(sc))
		Expect(err).NotTo(HaveOccurred())

		Expect(a.InitialGuess).To(Equal(rand.New(rand.NewSource(7)).NormFloat64()))
		Expect(a.Losses).To(Equal(b.Losses))
		Expect(a.X0).To(Equal(b.X0))
		Expect(a.W).To(Equal(b.W))
	})

	It("draws a fresh initial guess per run from a shared source", func() {
		sc, _ := config.GetPreset("baseline")
		opts := fit.DefaultOptions()
		opts.Epochs = 1
		opts.Rand = rand.New(rand.NewSource(7))

		a, err := fit.New(sc.SimConfig(), opts).Run(ctx, targetFor(sc))
		Expect(err).NotTo(HaveOccurred())
		b, err := fit.New(sc.SimConfig(), opts).Run(ctx, targetFor(sc))
		Expect(err).NotTo(HaveOccurred())

		want := rand.New(rand.NewSource(7))
		Expect(a.InitialGuess).To(Equal(want.NormFloat64()))
		Expect(b.InitialGuess).To(Equal(want.NormFloat64()))
		Expect(a.InitialGuess).NotTo(Equal(b.InitialGuess))
	})

	It("collects registered metrics", func() {
		sc, _ := config.GetPreset("baseline")
		rec := fit.New(sc.SimConfig(), optionsWithGuess(50, 0.5))
		best := metrics.NewBestLoss()
		rec.AddMetric(best)

		res, err := rec.Run(ctx, targetFor(sc))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Metrics).To(HaveKeyWithValue("best_loss", best.Value()))
		Expect(best.Value()).To(BeNumerically("<=", res.Losses[0]))
	})

	It("returns the initial guess untouched for zero epochs", func() {
		sc, _ := config.GetPreset("baseline")
		res, err := fit.New(sc.SimConfig(), optionsWithGuess(0, 0.25)).Run(ctx, targetFor(sc))
		Expect(err).NotTo(HaveOccurred())

		Expect(res.X0).To(Equal(0.25))
		Expect(res.W).To(Equal(0.25))
		Expect(res.Losses).To(BeEmpty())
	})

	It("rejects a target of the wrong length", func() {
		sc, _ := config.GetPreset("baseline")
		_, err := fit.New(sc.SimConfig(), optionsWithGuess(10, 0.5)).Run(ctx, dynamo.Trajectory{1, 2, 3})
		Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
	})

	It("rejects invalid options", func() {
		sc, _ := config.GetPreset("baseline")
		opts := optionsWithGuess(10, 0.5)
		opts.LearningRate = 0

		_, err := fit.New(sc.SimConfig(), opts).Run(ctx, targetFor(sc))
		Expect(err).To(MatchError(fit.ErrInvalidOptions))
	})

	It("rejects an invalid simulation config", func() {
		_, err := fit.New(dynamo.Config{Dt: 0.1, Duration: 1, Tau: 0}, optionsWithGuess(10, 0.5)).Run(ctx, nil)
		Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
	})

	It("stops when the context is canceled", func() {
		sc, _ := config.GetPreset("baseline")
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := fit.New(sc.SimConfig(), optionsWithGuess(10, 0.5)).Run(canceled, targetFor(sc))
		Expect(err).To(MatchError(dynamo.ErrContextCanceled))
	})
})

var _ = Describe("RunScenario", func() {
	It("prints progress lines and the recovered parameters", func() {
		sc, _ := config.GetPreset("baseline")
		var out bytes.Buffer

		sr, err := fit.RunScenario(context.Background(), sc, optionsWithGuess(sc.Epochs, 0.5), &out, quietLogger())
		Expect(err).NotTo(HaveOccurred())

		lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
		Expect(lines).To(HaveLen(9))
		Expect(lines[0]).To(MatchRegexp(`^Epoch 0: Loss: \d+\.\d{6} x0: -?\d+\.\d{4}, W: -?\d+\.\d{4}$`))
		Expect(lines[5]).To(BeEmpty())
		Expect(lines[6]).To(Equal("Recovered parameters:"))
		Expect(lines[7]).To(HavePrefix("x0: "))
		Expect(lines[7]).To(HaveSuffix(" vs target 1"))
		Expect(lines[8]).To(HavePrefix("W : "))
		Expect(lines[8]).To(HaveSuffix(" vs target 2"))

		Expect(sr.Result.Samples).To(HaveLen(5))
		Expect(sr.Target).To(HaveLen(101))
		Expect(sr.Recovered).To(HaveLen(101))
		Expect(sr.Result.Metrics).To(HaveKey("fit_sse"))
		Expect(sr.Result.Metrics["fit_sse"]).To(BeNumerically("<", 1e-3))
	})

	It("rejects an invalid scenario", func() {
		sc := config.Scenario{Name: "broken", X0: 1, W: 1, Dt: -1, Tau: 1, TotalTime: 1, Epochs: 1}
		_, err := fit.RunScenario(context.Background(), sc, fit.DefaultOptions(), io.Discard, quietLogger())
		Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
	})
})
