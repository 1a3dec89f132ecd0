package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/decaylab/internal/config"
	"github.com/san-kum/decaylab/internal/fit"
	"github.com/san-kum/decaylab/internal/models"
	"github.com/san-kum/decaylab/internal/viz"
)

var (
	configFile string
	logLevel   string

	// fit flags
	x0      float64
	w       float64
	dt      float64
	tau     float64
	total   float64
	epochs  int
	lr      float64
	seed    int64
	init0   float64
	preset  string
	showFit bool

	// plot flags
	plotTau   float64
	plotDt    float64
	plotTotal float64
	plotX0    float64
	plotOut   string
	plotW     float64
	plotH     float64
	reference bool

	configOut string
)

// main registers the decaylab commands. Without a subcommand it runs the
// reference recovery scenarios followed by the reference decay plot, drawn
// on the terminal only.
func main() {
	rootCmd := &cobra.Command{
		Use:          "decaylab",
		Short:        "leaky integrator parameter recovery and euler decay plots",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runScenarios(cmd, args); err != nil {
				return err
			}
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			pc := cfg.Plot
			pc.Output = ""
			return drawPlot(pc, false, os.Stdout, log)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	fitCmd := &cobra.Command{
		Use:   "fit",
		Short: "recover x0 and W of a single decay trajectory",
		Args:  cobra.NoArgs,
		RunE:  runFit,
	}
	fitCmd.Flags().Float64Var(&x0, "x0", 1, "true initial condition")
	fitCmd.Flags().Float64Var(&w, "w", 2, "true decay coefficient")
	fitCmd.Flags().Float64Var(&dt, "dt", 0.1, "timestep")
	fitCmd.Flags().Float64Var(&tau, "tau", 10, "time constant")
	fitCmd.Flags().Float64Var(&total, "time", 10, "total time")
	fitCmd.Flags().IntVar(&epochs, "epochs", 1000, "training epochs")
	fitCmd.Flags().Float64Var(&lr, "lr", config.DefaultLearningRate, "adam learning rate")
	fitCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed for the initial guess")
	fitCmd.Flags().Float64Var(&init0, "init", 0, "initial guess for both parameters (default: random normal)")
	fitCmd.Flags().StringVar(&preset, "preset", "", "use a preset scenario")
	fitCmd.Flags().BoolVar(&showFit, "plot", false, "plot target vs recovered trajectory")

	scenariosCmd := &cobra.Command{
		Use:   "scenarios",
		Short: "run every configured recovery scenario in order",
		Args:  cobra.NoArgs,
		RunE:  runScenarios,
	}

	plotCmd := &cobra.Command{
		Use:   "plot",
		Short: "plot the euler trajectory of dx/dt = -x/tau",
		Args:  cobra.NoArgs,
		RunE:  runPlot,
	}
	plotCmd.Flags().Float64Var(&plotTau, "tau", config.DefaultPlotTau, "time constant")
	plotCmd.Flags().Float64Var(&plotDt, "dt", config.DefaultPlotDt, "timestep")
	plotCmd.Flags().Float64Var(&plotTotal, "time", config.DefaultPlotTotalTime, "total time")
	plotCmd.Flags().Float64Var(&plotX0, "x0", config.DefaultPlotX0, "initial condition")
	plotCmd.Flags().StringVar(&plotOut, "out", config.DefaultPlotOutput, "image output path (png, svg, pdf)")
	plotCmd.Flags().Float64Var(&plotW, "width", config.DefaultPlotWidth, "image width in inches")
	plotCmd.Flags().Float64Var(&plotH, "height", config.DefaultPlotHeight, "image height in inches")
	plotCmd.Flags().BoolVar(&reference, "reference", false, "overlay the exact solution")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available scenario presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("presets:")
			for _, name := range config.ListPresets() {
				s, _ := config.GetPreset(name)
				fmt.Printf("  %-14s x0=%g W=%g dt=%g tau=%g time=%g epochs=%d\n",
					name, s.X0, s.W, s.Dt, s.Tau, s.TotalTime, s.Epochs)
			}
			return nil
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "print the effective configuration as yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			return writeConfig(cfg, configOut, os.Stdout)
		},
	}
	configCmd.Flags().StringVarP(&configOut, "out", "o", "", "write to this file instead of stdout")

	rootCmd.AddCommand(fitCmd, scenariosCmd, plotCmd, presetsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	log, err := newLogger(cfg.LogLevel, os.Stderr)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func newLogger(level string, out io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log, nil
}

func fitOptions(cfg *config.Config) fit.Options {
	opts := fit.DefaultOptions()
	opts.LearningRate = cfg.LearningRate
	opts.LogEvery = cfg.LogEvery
	opts.Seed = cfg.Seed
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	return opts
}

func runFit(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	sc := config.Scenario{Name: "custom", X0: x0, W: w, Dt: dt, Tau: tau, TotalTime: total, Epochs: epochs}
	if preset != "" {
		p, ok := config.GetPreset(preset)
		if !ok {
			return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		sc = p
		if cmd.Flags().Changed("epochs") {
			sc.Epochs = epochs
		}
	}

	opts := fitOptions(cfg)
	if cmd.Flags().Changed("lr") {
		opts.LearningRate = lr
	}
	if cmd.Flags().Changed("seed") || cfg.Seed == 0 {
		opts.Seed = seed
	}
	if cmd.Flags().Changed("init") {
		guess := init0
		opts.InitialGuess = &guess
	}

	sr, err := fit.RunScenario(context.Background(), sc, opts, os.Stdout, logrus.NewEntry(log))
	if err != nil {
		return err
	}

	if showFit {
		fmt.Println()
		fmt.Println(viz.RenderComparison(sr.Target, sr.Recovered, sc.Name))
	}
	return nil
}

func runScenarios(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	_, err = runScenarioList(context.Background(), cfg, fitOptions(cfg), os.Stdout, logrus.NewEntry(log))
	return err
}

// runScenarioList runs every configured scenario in order. All runs share one
// random source seeded from opts.Seed, so each draws its own initial guess.
func runScenarioList(ctx context.Context, cfg *config.Config, opts fit.Options, out io.Writer, log *logrus.Entry) ([]*fit.ScenarioResult, error) {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(opts.Seed))
	}

	results := make([]*fit.ScenarioResult, 0, len(cfg.Scenarios))
	for i, sc := range cfg.Scenarios {
		if i > 0 {
			fmt.Fprintln(out)
		}
		sr, err := fit.RunScenario(ctx, sc, opts, out, log)
		if err != nil {
			return results, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
		results = append(results, sr)
	}
	return results, nil
}

func runPlot(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	pc := cfg.Plot
	flags := cmd.Flags()
	if flags.Changed("tau") {
		pc.Tau = plotTau
	}
	if flags.Changed("dt") {
		pc.Dt = plotDt
	}
	if flags.Changed("time") {
		pc.TotalTime = plotTotal
	}
	if flags.Changed("x0") {
		pc.X0 = plotX0
	}
	if flags.Changed("out") {
		pc.Output = plotOut
	}
	if flags.Changed("width") {
		pc.Width = plotW
	}
	if flags.Changed("height") {
		pc.Height = plotH
	}

	return drawPlot(pc, reference, os.Stdout, log)
}

// drawPlot renders the Euler curve on out and, when pc.Output is set, saves
// it as an image.
func drawPlot(pc config.PlotConfig, withReference bool, out io.Writer, log *logrus.Logger) error {
	curve, err := models.EulerCurve(pc.Tau, pc.Dt, pc.TotalTime, pc.X0)
	if err != nil {
		return err
	}
	times := curve.Times(pc.Dt)

	fmt.Fprintln(out, viz.Render(curve, "x(t), exponential decay: tau dx/dt = -x"))

	if pc.Output == "" {
		return nil
	}

	opts := viz.DefaultImageOptions()
	opts.Width = pc.Width
	opts.Height = pc.Height
	if withReference {
		exact := make([]float64, len(times))
		for i, t := range times {
			exact[i] = models.Analytic(pc.X0, pc.Tau, t)
		}
		opts.Reference = exact
	}

	if err := viz.SaveImage(pc.Output, times, curve, opts); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"path":   pc.Output,
		"points": len(curve),
	}).Info("saved plot")
	return nil
}

func writeConfig(cfg *config.Config, path string, out io.Writer) error {
	if path == "" {
		return config.Write(out, cfg)
	}
	if err := config.Save(path, cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Fprintf(out, "wrote %s\n", path)
	return nil
}
