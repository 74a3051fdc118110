// Package config loads the YAML configuration for a disruptorctl
// instance: ring geometry, producer topology and the wait strategy
// consumers block on.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ProducerType selects which Sequencer variant backs the ring.
type ProducerType string

const (
	ProducerSingle ProducerType = "single"
	ProducerMulti  ProducerType = "multi"
)

// WaitStrategyKind selects which disruptor.WaitStrategy consumers use.
type WaitStrategyKind string

const (
	WaitBlocking  WaitStrategyKind = "blocking"
	WaitYielding  WaitStrategyKind = "yielding"
	WaitBusySpin  WaitStrategyKind = "busyspin"
	WaitSleeping  WaitStrategyKind = "sleeping"
)

// Config is the top-level disruptorctl configuration document.
type Config struct {
	BufferSize   int64            `yaml:"bufferSize"`
	Producer     ProducerType     `yaml:"producer"`
	WaitStrategy WaitStrategyKind `yaml:"waitStrategy"`
	Workers      int              `yaml:"workers"`
	Events       int              `yaml:"events"`
}

// Validate checks that every field holds a value the rest of the
// program can act on without further checking.
func (c *Config) Validate() error {
	if c.BufferSize <= 0 || (c.BufferSize&(c.BufferSize-1)) != 0 {
		return fmt.Errorf("bufferSize must be a positive power of two, got %d", c.BufferSize)
	}
	switch c.Producer {
	case ProducerSingle, ProducerMulti:
	default:
		return fmt.Errorf("producer must be %q or %q, got %q", ProducerSingle, ProducerMulti, c.Producer)
	}
	switch c.WaitStrategy {
	case WaitBlocking, WaitYielding, WaitBusySpin, WaitSleeping:
	default:
		return fmt.Errorf("waitStrategy must be one of blocking/yielding/busyspin/sleeping, got %q", c.WaitStrategy)
	}
	if c.Workers <= 0 {
		return errors.New("workers must be positive")
	}
	if c.Events <= 0 {
		return errors.New("events must be positive")
	}
	return nil
}

// Default returns a Config with reasonable values for local
// experimentation.
func Default() *Config {
	return &Config{
		BufferSize:   1024,
		Producer:     ProducerMulti,
		WaitStrategy: WaitYielding,
		Workers:      4,
		Events:       10000,
	}
}

// Load reads and validates a YAML config document from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}
