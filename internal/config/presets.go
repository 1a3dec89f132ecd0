package config

import "sort"

// Presets are the four reference recovery runs.
var Presets = map[string]Scenario{
	"baseline": {
		Name: "baseline", X0: 1, W: 2, Dt: 0.1, Tau: 10, TotalTime: 10, Epochs: 1000,
	},
	"fast-decay": {
		Name: "fast-decay", X0: 10, W: 20, Dt: 0.1, Tau: 10, TotalTime: 10, Epochs: 1000,
	},
	"large-x0": {
		Name: "large-x0", X0: 20, W: 10, Dt: 0.1, Tau: 10, TotalTime: 10, Epochs: 1000,
	},
	"large-x0-long": {
		Name: "large-x0-long", X0: 20, W: 10, Dt: 0.1, Tau: 10, TotalTime: 10, Epochs: 2000,
	},
}

var presetOrder = []string{"baseline", "fast-decay", "large-x0", "large-x0-long"}

// DefaultScenarios returns the presets in their reference order.
func DefaultScenarios() []Scenario {
	out := make([]Scenario, 0, len(presetOrder))
	for _, name := range presetOrder {
		out = append(out, Presets[name])
	}
	return out
}

func GetPreset(name string) (Scenario, bool) {
	s, ok := Presets[name]
	return s, ok
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
