// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Session SessionConfig `toml:"session"`
	Train   TrainConfig   `toml:"train"`
}

// SessionConfig maps play-session settings. Nil means unset.
type SessionConfig struct {
	TimeLimitMinutes *int    `toml:"time-limit"`
	CountdownSeconds *int    `toml:"countdown"`
	FreezeModeFirst  *bool   `toml:"freeze-first"`
	AdviceFrequency  *int    `toml:"advice-frequency"`
	ModelPath        *string `toml:"model"`
	AgentFPS         *int    `toml:"agent-fps"`
	HumanFPS         *int    `toml:"human-fps"`
	Seed             *uint64 `toml:"seed"`
	SnapshotDir      *string `toml:"snapshot-dir"`
}

// TrainConfig maps trainer settings.
type TrainConfig struct {
	Iterations *int     `toml:"iterations"`
	Population *int     `toml:"population"`
	EliteFrac  *float64 `toml:"elite-frac"`
	Episodes   *int     `toml:"episodes"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
