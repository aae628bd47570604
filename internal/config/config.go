package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/rocketrl/internal/rocket"
)

const (
	DefaultCapacity  = 10000
	DefaultBatchSize = 64
	DefaultWarmup    = 256
	DefaultEpisodes  = 50
	DefaultMaxSteps  = 400
)

type Config struct {
	Seed    uint64        `yaml:"seed"`
	Replay  ReplayConfig  `yaml:"replay"`
	Rollout RolloutConfig `yaml:"rollout"`
	Rocket  rocket.Params `yaml:"rocket"`
}

type ReplayConfig struct {
	Capacity  int `yaml:"capacity"`
	BatchSize int `yaml:"batch_size"`
	Warmup    int `yaml:"warmup"`
}

type RolloutConfig struct {
	Episodes int `yaml:"episodes"`
	MaxSteps int `yaml:"max_steps"`
}

func DefaultConfig() *Config {
	return &Config{
		Replay: ReplayConfig{
			Capacity:  DefaultCapacity,
			BatchSize: DefaultBatchSize,
			Warmup:    DefaultWarmup,
		},
		Rollout: RolloutConfig{
			Episodes: DefaultEpisodes,
			MaxSteps: DefaultMaxSteps,
		},
		Rocket: rocket.DefaultParams(),
	}
}

// LoadInto overlays the keys present in a YAML file onto cfg; keys absent
// from the file keep their current values.
func LoadInto(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Replay.Capacity <= 0 {
		return fmt.Errorf("replay.capacity must be positive, got %d", c.Replay.Capacity)
	}
	if c.Replay.BatchSize <= 0 {
		return fmt.Errorf("replay.batch_size must be positive, got %d", c.Replay.BatchSize)
	}
	if c.Replay.Warmup < 0 {
		return fmt.Errorf("replay.warmup cannot be negative, got %d", c.Replay.Warmup)
	}
	if c.Replay.Warmup > c.Replay.Capacity {
		return fmt.Errorf("replay.warmup %d exceeds replay.capacity %d", c.Replay.Warmup, c.Replay.Capacity)
	}
	if c.Rollout.Episodes <= 0 {
		return fmt.Errorf("rollout.episodes must be positive, got %d", c.Rollout.Episodes)
	}
	if c.Rollout.MaxSteps <= 0 {
		return fmt.Errorf("rollout.max_steps must be positive, got %d", c.Rollout.MaxSteps)
	}
	return c.Rocket.Validate()
}
