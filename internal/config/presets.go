package config

import "sort"

// Presets maps a name to an adjustment of the default configuration.
var Presets = map[string]func(*Config){
	"default": func(c *Config) {},
	"heavy": func(c *Config) {
		c.Rocket.Mass = 15
		c.Rocket.Thrust = 180
	},
	"lunar": func(c *Config) {
		c.Rocket.Gravity = 1.62
		c.Rocket.Thrust = 30
		c.Rollout.MaxSteps = 800
	},
	"twitchy": func(c *Config) {
		c.Rocket.TrimRate = 4
		c.Rocket.TrimMax = 0.785398163
	},
	"smoke": func(c *Config) {
		c.Replay.Capacity = 512
		c.Replay.Warmup = 32
		c.Rollout.Episodes = 5
		c.Rollout.MaxSteps = 100
	},
}

// GetPreset returns a fresh configuration for name, or nil when unknown.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
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
