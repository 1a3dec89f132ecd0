package fit

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// TextReporter prints progress lines and the final comparison.
type TextReporter struct {
	w io.Writer
}

func NewTextReporter(w io.Writer) *TextReporter {
	return &TextReporter{w: w}
}

func (r *TextReporter) OnProgress(p Progress) {
	fmt.Fprintf(r.w, "Epoch %d: Loss: %.6f x0: %.4f, W: %.4f\n", p.Epoch, p.Loss, p.X0, p.W)
}

func (r *TextReporter) Summary(res *Result, trueX0, trueW float64) {
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "Recovered parameters:")
	fmt.Fprintln(r.w, "x0:", res.X0, "vs target", trueX0)
	fmt.Fprintln(r.w, "W :", res.W, "vs target", trueW)
}

// LogObserver forwards progress to a structured logger at debug level.
type LogObserver struct {
	log *logrus.Entry
}

func NewLogObserver(log *logrus.Entry) *LogObserver {
	return &LogObserver{log: log}
}

func (l *LogObserver) OnProgress(p Progress) {
	l.log.WithFields(logrus.Fields{
		"epoch": p.Epoch,
		"loss":  p.Loss,
		"x0":    p.X0,
		"w":     p.W,
	}).Debug("epoch")
}
