package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// QueryConfig holds configuration for the query command.
type QueryConfig struct {
	Config
	Taker       string
	Maker       string
	Amount      string
	Kind        string
	Raw         bool
	SlippageBps uint
}

// LoadQuery merges config file, environment variables, and flags into QueryConfig.
func LoadQuery(cfgFile string, flags *pflag.FlagSet) (QueryConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"kind":         "in",
		"slippage-bps": uint(100),
	})
	if err != nil {
		return QueryConfig{}, err
	}

	cfg := QueryConfig{
		Config:      shared(v),
		Taker:       v.GetString("taker"),
		Maker:       v.GetString("maker"),
		Amount:      v.GetString("amount"),
		Kind:        v.GetString("kind"),
		Raw:         v.GetBool("raw"),
		SlippageBps: v.GetUint("slippage-bps"),
	}
	if err := cfg.Validate(); err != nil {
		return QueryConfig{}, err
	}
	if cfg.RPCURL == "" {
		return QueryConfig{}, fmt.Errorf("rpc is required")
	}
	if cfg.Taker == "" || cfg.Maker == "" {
		return QueryConfig{}, fmt.Errorf("taker and maker are required")
	}
	if cfg.Amount == "" {
		return QueryConfig{}, fmt.Errorf("amount is required")
	}
	if cfg.SlippageBps > 10000 {
		return QueryConfig{}, fmt.Errorf("slippage-bps must be at most 10000")
	}
	return cfg, nil
}
