package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "SWAPSCOPE"

// Pool source names accepted by --pool-source.
const (
	PoolSourceSubgraph = "subgraph"
	PoolSourceFile     = "file"
	PoolSourcePostgres = "postgres"
)

// Config holds the settings shared by every command.
type Config struct {
	RPCURL       string
	ChainID      uint64
	Vault        string
	PoolSource   string
	SubgraphURL  string
	PoolsFile    string
	PGDSN        string
	RoutesIn     string
	RoutesOut    string
	TTL          time.Duration
	MaxPools     int
	TopRoutes    int
	MaxEntries   int
	HopTokens    []string
	MaxRetries   int
	RetryBackoff time.Duration
	MetricsAddr  string
	LogLevel     string
}

// Validate checks the shared settings.
func (c Config) Validate() error {
	switch c.PoolSource {
	case PoolSourceSubgraph:
	case PoolSourceFile:
		if c.PoolsFile == "" {
			return fmt.Errorf("pools-file is required for the file pool source")
		}
	case PoolSourcePostgres:
		if c.PGDSN == "" {
			return fmt.Errorf("pg-dsn is required for the postgres pool source")
		}
	default:
		return fmt.Errorf("unknown pool source: %s", c.PoolSource)
	}
	if c.TTL <= 0 {
		return fmt.Errorf("ttl must be positive")
	}
	if _, err := ParseAddresses(c.HopTokens); err != nil {
		return fmt.Errorf("hop tokens: %w", err)
	}
	if c.Vault != "" {
		if _, err := ParseAddress(c.Vault); err != nil {
			return fmt.Errorf("vault: %w", err)
		}
	}
	return nil
}

// load merges config file, environment variables, and flags.
func load(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("chain-id", uint64(1))
	v.SetDefault("ttl", 30*time.Minute)
	v.SetDefault("max-pools", 4)
	v.SetDefault("top-routes", 3)
	v.SetDefault("max-entries", 100000)
	v.SetDefault("max-retries", 3)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}

func shared(v *viper.Viper) Config {
	poolSource := strings.ToLower(strings.TrimSpace(v.GetString("pool-source")))
	if poolSource == "" {
		poolSource = PoolSourceSubgraph
		if v.GetString("pools-file") != "" {
			poolSource = PoolSourceFile
		}
	}
	return Config{
		RPCURL:       v.GetString("rpc"),
		ChainID:      v.GetUint64("chain-id"),
		Vault:        v.GetString("vault"),
		PoolSource:   poolSource,
		SubgraphURL:  v.GetString("subgraph"),
		PoolsFile:    v.GetString("pools-file"),
		PGDSN:        v.GetString("pg-dsn"),
		RoutesIn:     v.GetString("routes-in"),
		RoutesOut:    v.GetString("routes-out"),
		TTL:          v.GetDuration("ttl"),
		MaxPools:     v.GetInt("max-pools"),
		TopRoutes:    v.GetInt("top-routes"),
		MaxEntries:   v.GetInt("max-entries"),
		HopTokens:    getStringSlice(v, "hop-tokens"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		MetricsAddr:  v.GetString("metrics-addr"),
		LogLevel:     v.GetString("log-level"),
	}
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
