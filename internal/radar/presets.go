package radar

import (
	"fmt"
	"sort"
)

// Preset is a saved scan configuration modeled on the flow-feed filters
// traders actually keep pinned.
type Preset struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Settings    ScanSettings `json:"settings"`
}

var presets = map[string]Preset{
	"clean_ask_side_opening_flow": {
		Name:        "clean_ask_side_opening_flow",
		Description: "Ask-side opening transactions with premium behind them",
		Settings: ScanSettings{
			Sensitivity:     7,
			MinConfidence:   75,
			AlertTypes:      []string{AlertSweep, AlertFlowImbalance},
			MinPremium:      100_000,
			MaxTimeToExpiry: 60,
			MaxAlerts:       50,
		},
	},
	"otm_call_buyers_500k": {
		Name:        "otm_call_buyers_500k",
		Description: "Single name $500K+ call buyers for swing ideas",
		Settings: ScanSettings{
			Sensitivity:     6,
			MinConfidence:   70,
			AlertTypes:      []string{AlertSweep, AlertFlowImbalance},
			MinPremium:      500_000,
			MaxTimeToExpiry: 183,
			MaxAlerts:       25,
		},
	},
	"single_leg_high_volume": {
		Name:        "single_leg_high_volume",
		Description: "Contracts trading well above open interest",
		Settings: ScanSettings{
			Sensitivity:     7,
			MinConfidence:   70,
			AlertTypes:      []string{AlertUnusualVolume},
			MinPremium:      2_000,
			MaxTimeToExpiry: 60,
			MaxAlerts:       50,
		},
	},
	"momentum_breakouts": {
		Name:        "momentum_breakouts",
		Description: "Price-momentum breakouts in short-dated contracts",
		Settings: ScanSettings{
			Sensitivity:     8,
			MinConfidence:   70,
			AlertTypes:      []string{AlertMomentum},
			MinPremium:      100_000,
			MaxTimeToExpiry: 30,
			MaxAlerts:       30,
		},
	},
	"combined_high_conviction": {
		Name:        "combined_high_conviction",
		Description: "High-probability sweeps under a month out",
		Settings: ScanSettings{
			Sensitivity:     8,
			MinConfidence:   80,
			AlertTypes:      []string{AlertSweep, AlertFlowImbalance},
			MinPremium:      500_000,
			MaxTimeToExpiry: 28,
			MaxAlerts:       20,
		},
	},
}

// PresetByName returns the named preset.
func PresetByName(name string) (Preset, error) {
	p, ok := presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("unknown preset %q (valid: %s)", name, presetNamesList())
	}
	return p, nil
}

// Presets returns all presets sorted by name.
func Presets() []Preset {
	out := make([]Preset, 0, len(presets))
	for _, p := range presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func presetNamesList() string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}
