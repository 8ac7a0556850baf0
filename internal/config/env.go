package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvConfig holds PACSTUDY_* environment overrides. Nil means unset.
type EnvConfig struct {
	TimeLimitMinutes *int    `env:"PACSTUDY_TIME_LIMIT"`
	CountdownSeconds *int    `env:"PACSTUDY_COUNTDOWN"`
	FreezeModeFirst  *bool   `env:"PACSTUDY_FREEZE_FIRST"`
	AdviceFrequency  *int    `env:"PACSTUDY_ADVICE_FREQUENCY"`
	ModelPath        *string `env:"PACSTUDY_MODEL"`
	Seed             *uint64 `env:"PACSTUDY_SEED"`
	SnapshotDir      *string `env:"PACSTUDY_SNAPSHOT_DIR"`
}

// LoadEnv parses environment overrides.
func LoadEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return EnvConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Overlay applies set environment values on top of the file session config.
func (e EnvConfig) Overlay(s SessionConfig) SessionConfig {
	if e.TimeLimitMinutes != nil {
		s.TimeLimitMinutes = e.TimeLimitMinutes
	}
	if e.CountdownSeconds != nil {
		s.CountdownSeconds = e.CountdownSeconds
	}
	if e.FreezeModeFirst != nil {
		s.FreezeModeFirst = e.FreezeModeFirst
	}
	if e.AdviceFrequency != nil {
		s.AdviceFrequency = e.AdviceFrequency
	}
	if e.ModelPath != nil {
		s.ModelPath = e.ModelPath
	}
	if e.Seed != nil {
		s.Seed = e.Seed
	}
	if e.SnapshotDir != nil {
		s.SnapshotDir = e.SnapshotDir
	}
	return s
}
