package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// WarmConfig holds configuration for the warm command.
type WarmConfig struct {
	Config
	PoolsOut string
	Persist  bool
}

// LoadWarm merges config file, environment variables, and flags into WarmConfig.
func LoadWarm(cfgFile string, flags *pflag.FlagSet) (WarmConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"routes-out": "./data/routes.jsonl",
		"persist":    false,
	})
	if err != nil {
		return WarmConfig{}, err
	}

	cfg := WarmConfig{
		Config:   shared(v),
		PoolsOut: v.GetString("pools-out"),
		Persist:  v.GetBool("persist"),
	}
	if err := cfg.Validate(); err != nil {
		return WarmConfig{}, err
	}
	if cfg.Persist && cfg.PGDSN == "" {
		return WarmConfig{}, fmt.Errorf("pg-dsn is required with --persist")
	}
	return cfg, nil
}
