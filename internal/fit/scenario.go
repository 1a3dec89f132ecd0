package fit

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/decaylab/internal/config"
	"github.com/san-kum/decaylab/internal/dynamo"
	"github.com/san-kum/decaylab/internal/metrics"
	"github.com/san-kum/decaylab/internal/models"
)

// ScenarioResult pairs a recovery with the trajectories it was scored on.
type ScenarioResult struct {
	Scenario  config.Scenario
	Result    *Result
	Target    dynamo.Trajectory
	Recovered dynamo.Trajectory
}

// RunScenario simulates the scenario's target trajectory, recovers its
// parameters, and writes progress plus the final comparison to out.
// opts.Epochs is taken from the scenario.
func RunScenario(ctx context.Context, sc config.Scenario, opts Options, out io.Writer, log *logrus.Entry) (*ScenarioResult, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	cfg := sc.SimConfig()

	target, err := models.Simulate(sc.X0, sc.W, cfg)
	if err != nil {
		return nil, err
	}

	opts.Epochs = sc.Epochs
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("scenario", sc.Name)

	reporter := NewTextReporter(out)
	rec := New(cfg, opts).WithLogger(log)
	rec.AddObserver(reporter)
	rec.AddObserver(NewLogObserver(log))
	best := metrics.NewBestLoss()
	rec.AddMetric(best)

	log.WithField("epochs", sc.Epochs).Info("running parameter recovery")

	res, err := rec.Run(ctx, target)
	if err != nil {
		return nil, err
	}

	recovered, err := models.Simulate(res.X0, res.W, cfg)
	if err != nil {
		return nil, err
	}
	sse, err := metrics.SumSquaredError(recovered, target)
	if err != nil {
		return nil, err
	}
	res.Metrics["fit_sse"] = sse

	log.WithFields(logrus.Fields{
		"best_loss":  best.Value(),
		"best_epoch": best.Epoch(),
		"fit_sse":    sse,
	}).Info("parameter recovery finished")

	reporter.Summary(res, sc.X0, sc.W)

	return &ScenarioResult{
		Scenario:  sc,
		Result:    res,
		Target:    target,
		Recovered: recovered,
	}, nil
}
