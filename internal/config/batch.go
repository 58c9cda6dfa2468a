package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// BatchConfig holds configuration for the batch command.
type BatchConfig struct {
	Config
	TokensIn  []string
	AmountsIn []string
	TokenOut  string
	Raw       bool
}

// LoadBatch merges config file, environment variables, and flags into BatchConfig.
func LoadBatch(cfgFile string, flags *pflag.FlagSet) (BatchConfig, error) {
	v, err := load(cfgFile, flags, nil)
	if err != nil {
		return BatchConfig{}, err
	}

	cfg := BatchConfig{
		Config:    shared(v),
		TokensIn:  getStringSlice(v, "tokens-in"),
		AmountsIn: getStringSlice(v, "amounts-in"),
		TokenOut:  v.GetString("token-out"),
		Raw:       v.GetBool("raw"),
	}
	if err := cfg.Validate(); err != nil {
		return BatchConfig{}, err
	}
	if cfg.RPCURL == "" {
		return BatchConfig{}, fmt.Errorf("rpc is required")
	}
	if len(cfg.TokensIn) == 0 {
		return BatchConfig{}, fmt.Errorf("tokens-in is required")
	}
	if len(cfg.TokensIn) != len(cfg.AmountsIn) {
		return BatchConfig{}, fmt.Errorf("got %d tokens-in and %d amounts-in", len(cfg.TokensIn), len(cfg.AmountsIn))
	}
	if cfg.TokenOut == "" {
		return BatchConfig{}, fmt.Errorf("token-out is required")
	}
	return cfg, nil
}
