package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/decaylab/internal/dynamo"
)

const (
	DefaultLearningRate = 0.05
	DefaultLogEvery     = 200
	DefaultLogLevel     = "info"

	DefaultPlotTau       = 10.0
	DefaultPlotDt        = 0.1
	DefaultPlotTotalTime = 100.0
	DefaultPlotX0        = 1.0
	DefaultPlotOutput    = "euler_decay.png"
	DefaultPlotWidth     = 6.0
	DefaultPlotHeight    = 4.0

	EnvPrefix = "DECAYLAB"
)

type Config struct {
	LogLevel     string     `mapstructure:"log_level" yaml:"log_level"`
	LearningRate float64    `mapstructure:"learning_rate" yaml:"learning_rate"`
	LogEvery     int        `mapstructure:"log_every" yaml:"log_every"`
	Seed         int64      `mapstructure:"seed" yaml:"seed"`
	Scenarios    []Scenario `mapstructure:"scenarios" yaml:"scenarios"`
	Plot         PlotConfig `mapstructure:"plot" yaml:"plot"`
}

// Scenario is one parameter-recovery run: the true parameters that generate
// the target trajectory plus the simulation and training lengths.
type Scenario struct {
	Name      string  `mapstructure:"name" yaml:"name"`
	X0        float64 `mapstructure:"x0" yaml:"x0"`
	W         float64 `mapstructure:"w" yaml:"w"`
	Dt        float64 `mapstructure:"dt" yaml:"dt"`
	Tau       float64 `mapstructure:"tau" yaml:"tau"`
	TotalTime float64 `mapstructure:"total_time" yaml:"total_time"`
	Epochs    int     `mapstructure:"epochs" yaml:"epochs"`
}

func (s Scenario) SimConfig() dynamo.Config {
	return dynamo.Config{Dt: s.Dt, Duration: s.TotalTime, Tau: s.Tau}
}

func (s Scenario) Validate() error {
	if err := s.SimConfig().Validate(); err != nil {
		return fmt.Errorf("scenario %q: %w", s.Name, err)
	}
	if s.Epochs < 0 {
		return fmt.Errorf("scenario %q: epochs must be non-negative, got %d", s.Name, s.Epochs)
	}
	return nil
}

type PlotConfig struct {
	Tau       float64 `mapstructure:"tau" yaml:"tau"`
	Dt        float64 `mapstructure:"dt" yaml:"dt"`
	TotalTime float64 `mapstructure:"total_time" yaml:"total_time"`
	X0        float64 `mapstructure:"x0" yaml:"x0"`
	Output    string  `mapstructure:"output" yaml:"output"`
	Width     float64 `mapstructure:"width" yaml:"width"`
	Height    float64 `mapstructure:"height" yaml:"height"`
}

func DefaultPlotConfig() PlotConfig {
	return PlotConfig{
		Tau:       DefaultPlotTau,
		Dt:        DefaultPlotDt,
		TotalTime: DefaultPlotTotalTime,
		X0:        DefaultPlotX0,
		Output:    DefaultPlotOutput,
		Width:     DefaultPlotWidth,
		Height:    DefaultPlotHeight,
	}
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel:     DefaultLogLevel,
		LearningRate: DefaultLearningRate,
		LogEvery:     DefaultLogEvery,
		Scenarios:    DefaultScenarios(),
		Plot:         DefaultPlotConfig(),
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("learning_rate", d.LearningRate)
	v.SetDefault("log_every", d.LogEvery)
	v.SetDefault("seed", d.Seed)
	v.SetDefault("plot.tau", d.Plot.Tau)
	v.SetDefault("plot.dt", d.Plot.Dt)
	v.SetDefault("plot.total_time", d.Plot.TotalTime)
	v.SetDefault("plot.x0", d.Plot.X0)
	v.SetDefault("plot.output", d.Plot.Output)
	v.SetDefault("plot.width", d.Plot.Width)
	v.SetDefault("plot.height", d.Plot.Height)
}

// Load reads a yaml config. An empty path yields the defaults, still
// subject to DECAYLAB_* environment overrides. A config without a
// scenarios list keeps the default scenarios.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if len(cfg.Scenarios) == 0 {
		cfg.Scenarios = DefaultScenarios()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Write encodes cfg as yaml in the layout Load reads.
func Write(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

func Save(path string, cfg *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, cfg); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (c *Config) Validate() error {
	var errs []error
	if c.LearningRate <= 0 {
		errs = append(errs, fmt.Errorf("learning_rate must be positive, got %f", c.LearningRate))
	}
	if c.LogEvery <= 0 {
		errs = append(errs, fmt.Errorf("log_every must be positive, got %d", c.LogEvery))
	}
	for _, s := range c.Scenarios {
		if err := s.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
