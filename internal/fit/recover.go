package fit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/decaylab/internal/autodiff"
	"github.com/san-kum/decaylab/internal/dynamo"
	"github.com/san-kum/decaylab/internal/metrics"
	"github.com/san-kum/decaylab/internal/models"
	"github.com/san-kum/decaylab/internal/optim"
)

var ErrInvalidOptions = errors.New("fit: invalid options")

const DefaultLogEvery = 200

type Options struct {
	Epochs       int
	LearningRate float64
	LogEvery     int
	Seed         int64
	// Rand, when set, supplies the standard-normal draw instead of a fresh
	// source seeded from Seed. Sharing one Rand across runs gives each run
	// its own draw.
	Rand *rand.Rand
	// InitialGuess, when set, starts both parameters at this value.
	InitialGuess *float64
}

func DefaultOptions() Options {
	return Options{
		Epochs:       1000,
		LearningRate: optim.DefaultLearningRate,
		LogEvery:     DefaultLogEvery,
	}
}

func (o Options) Validate() error {
	if o.Epochs < 0 {
		return fmt.Errorf("%w: epochs must be non-negative, got %d", ErrInvalidOptions, o.Epochs)
	}
	if o.LearningRate <= 0 {
		return fmt.Errorf("%w: learning rate must be positive, got %f", ErrInvalidOptions, o.LearningRate)
	}
	if o.LogEvery <= 0 {
		return fmt.Errorf("%w: log interval must be positive, got %d", ErrInvalidOptions, o.LogEvery)
	}
	return nil
}

func (o Options) initialGuess() float64 {
	if o.InitialGuess != nil {
		return *o.InitialGuess
	}
	if o.Rand != nil {
		return o.Rand.NormFloat64()
	}
	return rand.New(rand.NewSource(o.Seed)).NormFloat64()
}

// Progress is the periodic training observation.
type Progress struct {
	Epoch int
	Loss  float64
	X0    float64
	W     float64
}

type Observer interface {
	OnProgress(p Progress)
}

type Result struct {
	X0           float64
	W            float64
	InitialGuess float64
	// Losses holds the loss of every epoch, measured before that epoch's update.
	Losses []float64
	// Samples holds the losses taken every LogEvery epochs.
	Samples   []metrics.Sample
	FinalLoss float64
	Metrics   map[string]float64
}

type Recoverer struct {
	cfg       dynamo.Config
	opts      Options
	observers []Observer
	metrics   []metrics.Metric
	log       *logrus.Entry
}

func New(cfg dynamo.Config, opts Options) *Recoverer {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	return &Recoverer{
		cfg:       cfg,
		opts:      opts,
		observers: make([]Observer, 0),
		metrics:   make([]metrics.Metric, 0),
		log:       logrus.NewEntry(discard),
	}
}

func (r *Recoverer) WithLogger(log *logrus.Entry) *Recoverer {
	if log != nil {
		r.log = log
	}
	return r
}

func (r *Recoverer) AddObserver(o Observer)     { r.observers = append(r.observers, o) }
func (r *Recoverer) AddMetric(m metrics.Metric) { r.metrics = append(r.metrics, m) }

// Run fits x0 and W so the simulated trajectory matches target, which must
// have cfg.Steps()+1 samples.
func (r *Recoverer) Run(ctx context.Context, target dynamo.Trajectory) (*Result, error) {
	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}
	if err := r.opts.Validate(); err != nil {
		return nil, err
	}
	if want := r.cfg.Steps() + 1; len(target) != want {
		return nil, fmt.Errorf("%w: target has %d samples, want %d", dynamo.ErrDimensionMismatch, len(target), want)
	}

	guess := r.opts.initialGuess()
	x0 := autodiff.NewParam("x0", guess)
	w := autodiff.NewParam("W", guess)
	opt := optim.NewAdam([]*autodiff.Param{x0, w}, r.opts.LearningRate)

	history := metrics.NewLossHistory(r.opts.LogEvery)
	for _, m := range r.metrics {
		m.Reset()
	}

	r.log.WithFields(logrus.Fields{
		"initial_guess": guess,
		"epochs":        r.opts.Epochs,
		"steps":         r.cfg.Steps(),
	}).Debug("starting parameter recovery")

	res := &Result{
		InitialGuess: guess,
		Metrics:      make(map[string]float64),
	}

	tape := autodiff.NewTape()
	for epoch := 0; epoch < r.opts.Epochs; epoch++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("epoch %d: %w: %v", epoch, dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		tape.Reset()
		pred, err := models.SimulateGraph(tape, tape.Leaf(x0), tape.Leaf(w), r.cfg)
		if err != nil {
			return nil, err
		}
		loss := squaredError(tape, pred, target)
		lossVal := loss.Value()

		opt.ZeroGrad()
		tape.Backward(loss)
		opt.Step()

		history.Observe(epoch, lossVal)
		for _, m := range r.metrics {
			m.Observe(epoch, lossVal)
		}

		if epoch%r.opts.LogEvery == 0 {
			p := Progress{Epoch: epoch, Loss: lossVal, X0: x0.Value, W: w.Value}
			for _, o := range r.observers {
				o.OnProgress(p)
			}
		}
	}

	res.X0 = x0.Value
	res.W = w.Value
	res.Losses = history.Losses()
	res.Samples = history.Samples()
	res.FinalLoss = history.Value()
	for _, m := range r.metrics {
		res.Metrics[m.Name()] = m.Value()
	}

	r.log.WithFields(logrus.Fields{
		"x0":         res.X0,
		"w":          res.W,
		"final_loss": res.FinalLoss,
		"monotone":   history.NonIncreasing(0),
	}).Debug("parameter recovery finished")

	return res, nil
}

func squaredError(tape *autodiff.Tape, pred []*autodiff.Var, target dynamo.Trajectory) *autodiff.Var {
	terms := make([]*autodiff.Var, len(pred))
	for i, p := range pred {
		terms[i] = tape.Square(tape.Sub(p, tape.Const(target[i])))
	}
	return tape.Sum(terms)
}
