package config

import (
	"errors"
	"time"

	"go.uber.org/multierr"

	"github.com/benz9527/xrbmap/observability"
	"github.com/benz9527/xrbmap/xlog"
)

const (
	DefaultLogLevel          = "INFO"
	DefaultLogEncoder        = "json"
	DefaultLoadKeys          = 10_000
	DefaultLoadEraseRatio    = 0.3
	DefaultLoadWorkers       = 4
	DefaultLoadRounds        = 8
	DefaultLoadValidateEvery = 1_000
	DefaultLoadSeed          = uint64(0)
	DefaultMetricsExporter   = "none"
	DefaultMetricsInterval   = 10 * time.Second
	DefaultMetricsListen     = "127.0.0.1:9464"
)

var (
	ErrInvalidLoadKeys          = errors.New("load.keys must be positive")
	ErrInvalidLoadEraseRatio    = errors.New("load.erase_ratio must be between 0 and 1")
	ErrInvalidLoadWorkers       = errors.New("load.workers must be positive")
	ErrInvalidLoadRounds        = errors.New("load.rounds must be positive")
	ErrInvalidLoadValidateEvery = errors.New("load.validate_every must be non-negative")
	ErrInvalidMetricsInterval   = errors.New("metrics.interval must be positive")
)

// Config is the top-level configuration of the xrbmap CLI.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Log     LogConfig      `mapstructure:"log"`
	Load    WorkloadConfig `mapstructure:"load"`
	Metrics MetricsConfig  `mapstructure:"metrics"`
}

type LogConfig struct {
	Level   string `mapstructure:"level"`
	Encoder string `mapstructure:"encoder"`
}

// WorkloadConfig drives the randomized insert and erase rounds.
type WorkloadConfig struct {
	// Key space of every round, keys are drawn from [0, Keys).
	Keys       int     `mapstructure:"keys"`
	EraseRatio float64 `mapstructure:"erase_ratio"`
	Workers    int     `mapstructure:"workers"`
	Rounds     int     `mapstructure:"rounds"`
	// Full invariant validation period in operations, 0 validates only
	// at the end of a round.
	ValidateEvery int `mapstructure:"validate_every"`
	// 0 seeds from the clock.
	Seed uint64 `mapstructure:"seed"`
}

type MetricsConfig struct {
	Exporter string        `mapstructure:"exporter"`
	Interval time.Duration `mapstructure:"interval"`
	Listen   string        `mapstructure:"listen"`
}

// Validate reports all the invalid fields at once.
func (c *Config) Validate() error {
	var err error
	if _, lvlErr := xlog.ParseLogLevel(c.Log.Level); lvlErr != nil {
		err = multierr.Append(err, lvlErr)
	}
	if _, encErr := xlog.ParseLogEncoder(c.Log.Encoder); encErr != nil {
		err = multierr.Append(err, encErr)
	}
	if c.Load.Keys <= 0 {
		err = multierr.Append(err, ErrInvalidLoadKeys)
	}
	if c.Load.EraseRatio < 0 || c.Load.EraseRatio > 1 {
		err = multierr.Append(err, ErrInvalidLoadEraseRatio)
	}
	if c.Load.Workers <= 0 {
		err = multierr.Append(err, ErrInvalidLoadWorkers)
	}
	if c.Load.Rounds <= 0 {
		err = multierr.Append(err, ErrInvalidLoadRounds)
	}
	if c.Load.ValidateEvery < 0 {
		err = multierr.Append(err, ErrInvalidLoadValidateEvery)
	}
	if _, expErr := observability.ParseExporterKind(c.Metrics.Exporter); expErr != nil {
		err = multierr.Append(err, expErr)
	}
	if c.Metrics.Interval <= 0 {
		err = multierr.Append(err, ErrInvalidMetricsInterval)
	}
	return err
}

// MetricsExporter is only valid after Validate.
func (c *Config) MetricsExporter() observability.MetricsConfig {
	kind, _ := observability.ParseExporterKind(c.Metrics.Exporter)
	return observability.MetricsConfig{
		Exporter: kind,
		Interval: c.Metrics.Interval,
		Listen:   c.Metrics.Listen,
	}
}
