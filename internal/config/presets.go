package config

import "sort"

var Presets = map[string]*Config{
	// Default control panel values.
	"baseline": {I0: 0.00001, Beta: 2.0, Gamma: 1.0, Step: 1.0, Horizon: 50},
	// No transmission: S stays put while I decays into R.
	"no-transmission": {I0: 0.5, Beta: 0.0, Gamma: 1.0, Step: 1.0, Horizon: 10},
	// Zero recovery rate, R0 falls back to 0.
	"no-recovery": {I0: 0.001, Beta: 1.0, Gamma: 0.0, Step: 1.0, Horizon: 30},
	"subcritical": {I0: 0.01, Beta: 0.8, Gamma: 1.0, Step: 1.0, Horizon: 50},
	"influenza":   {I0: 0.0001, Beta: 0.5, Gamma: 1.0 / 3.0, Step: 1.0, Horizon: 150},
	"measles":     {I0: 0.00001, Beta: 1.875, Gamma: 0.125, Step: 1.0, Horizon: 100},
}

// GetPreset returns a copy of the named preset with unset fields filled from
// DefaultConfig, or nil if there is no such preset.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.I0, cfg.Beta, cfg.Gamma = p.I0, p.Beta, p.Gamma
	if p.Step > 0 {
		cfg.Step = p.Step
	}
	if p.Horizon > 0 {
		cfg.Horizon = p.Horizon
	}
	if p.Integrator != "" {
		cfg.Integrator = p.Integrator
	}
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
