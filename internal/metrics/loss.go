package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Metric observes the loss of every training epoch.
type Metric interface {
	Name() string
	Observe(epoch int, loss float64)
	Value() float64
	Reset()
}

// SumSquaredError is sum_i (pred[i]-target[i])^2.
func SumSquaredError(pred, target []float64) (float64, error) {
	if len(pred) != len(target) {
		return 0, fmt.Errorf("length mismatch: pred %d, target %d", len(pred), len(target))
	}
	if len(pred) == 0 {
		return 0, nil
	}
	diff := make([]float64, len(pred))
	floats.SubTo(diff, pred, target)
	return floats.Dot(diff, diff), nil
}

// Sample is a loss value recorded at a given epoch.
type Sample struct {
	Epoch int
	Loss  float64
}

// LossHistory keeps every epoch's loss plus the subset taken every `every` epochs.
type LossHistory struct {
	every   int
	losses  []float64
	samples []Sample
}

func NewLossHistory(every int) *LossHistory {
	if every <= 0 {
		every = 1
	}
	return &LossHistory{every: every}
}

func (h *LossHistory) Name() string { return "loss" }

func (h *LossHistory) Observe(epoch int, loss float64) {
	h.losses = append(h.losses, loss)
	if epoch%h.every == 0 {
		h.samples = append(h.samples, Sample{Epoch: epoch, Loss: loss})
	}
}

// Value is the most recent loss, or NaN before any observation.
func (h *LossHistory) Value() float64 {
	if len(h.losses) == 0 {
		return math.NaN()
	}
	return h.losses[len(h.losses)-1]
}

func (h *LossHistory) Reset() {
	h.losses = h.losses[:0]
	h.samples = h.samples[:0]
}

func (h *LossHistory) Losses() []float64 {
	out := make([]float64, len(h.losses))
	copy(out, h.losses)
	return out
}

func (h *LossHistory) Samples() []Sample {
	out := make([]Sample, len(h.samples))
	copy(out, h.samples)
	return out
}

// NonIncreasing reports whether every sampled loss is at most the previous
// one plus tol.
func (h *LossHistory) NonIncreasing(tol float64) bool {
	for i := 1; i < len(h.samples); i++ {
		if h.samples[i].Loss > h.samples[i-1].Loss+tol {
			return false
		}
	}
	return true
}

// BestLoss tracks the lowest loss seen.
type BestLoss struct {
	best  float64
	epoch int
	seen  bool
}

func NewBestLoss() *BestLoss {
	return &BestLoss{}
}

func (b *BestLoss) Name() string { return "best_loss" }

func (b *BestLoss) Observe(epoch int, loss float64) {
	if !b.seen || loss < b.best {
		b.best = loss
		b.epoch = epoch
		b.seen = true
	}
}

func (b *BestLoss) Value() float64 {
	if !b.seen {
		return math.NaN()
	}
	return b.best
}

func (b *BestLoss) Epoch() int { return b.epoch }

func (b *BestLoss) Reset() {
	b.best = 0
	b.epoch = 0
	b.seen = false
}
