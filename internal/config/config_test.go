package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func flagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	for _, name := range []string{
		"rpc", "vault", "pool-source", "subgraph", "pools-file", "pg-dsn", "routes-in", "routes-out",
		"pools-out", "taker", "maker", "amount", "kind", "token-out", "metrics-addr", "log-level",
	} {
		flags.String(name, "", "")
	}
	flags.StringSlice("hop-tokens", nil, "")
	flags.StringSlice("tokens-in", nil, "")
	flags.StringSlice("amounts-in", nil, "")
	flags.Bool("persist", false, "")
	flags.Bool("raw", false, "")
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestLoadWarmDefaults(t *testing.T) {
	cfg, err := LoadWarm("", flagSet(t, "--pools-file", "pools.jsonl"))
	require.NoError(t, err)

	require.Equal(t, PoolSourceFile, cfg.PoolSource)
	require.Equal(t, "pools.jsonl", cfg.PoolsFile)
	require.Equal(t, 30*time.Minute, cfg.TTL)
	require.Equal(t, 4, cfg.MaxPools)
	require.Equal(t, 3, cfg.TopRoutes)
	require.Equal(t, 100000, cfg.MaxEntries)
	require.EqualValues(t, 1, cfg.ChainID)
	require.Equal(t, "./data/routes.jsonl", cfg.RoutesOut)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoadWarmFromEnv(t *testing.T) {
	t.Setenv("SWAPSCOPE_HOP_TOKENS", "0x6B175474E89094C44Da98b954EedeAC495271d0F, 0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	t.Setenv("SWAPSCOPE_TTL", "5m")
	t.Setenv("SWAPSCOPE_CHAIN_ID", "137")

	cfg, err := LoadWarm("", nil)
	require.NoError(t, err)
	require.Equal(t, PoolSourceSubgraph, cfg.PoolSource)
	require.Len(t, cfg.HopTokens, 2)
	require.Equal(t, 5*time.Minute, cfg.TTL)
	require.EqualValues(t, 137, cfg.ChainID)
}

func TestLoadWarmRejectsBadSettings(t *testing.T) {
	_, err := LoadWarm("", flagSet(t, "--pool-source", "redis"))
	require.Error(t, err)

	_, err = LoadWarm("", flagSet(t, "--pool-source", "postgres"))
	require.Error(t, err)

	_, err = LoadWarm("", flagSet(t, "--persist"))
	require.Error(t, err)

	_, err = LoadWarm("", flagSet(t, "--hop-tokens", "nope"))
	require.Error(t, err)
}

func TestLoadQuery(t *testing.T) {
	cfg, err := LoadQuery("", flagSet(t,
		"--rpc", "http://localhost:8545",
		"--taker", "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
		"--maker", "0xba100000625a3754423978a60c9317c58a424e3D",
		"--amount", "1.5",
	))
	require.NoError(t, err)
	require.Equal(t, "in", cfg.Kind)
	require.EqualValues(t, 100, cfg.SlippageBps)
	require.Equal(t, "1.5", cfg.Amount)

	_, err = LoadQuery("", flagSet(t, "--taker", "0x01", "--maker", "0x02", "--amount", "1"))
	require.ErrorContains(t, err, "rpc")
}

func TestLoadBatch(t *testing.T) {
	cfg, err := LoadBatch("", flagSet(t,
		"--rpc", "http://localhost:8545",
		"--tokens-in", "0x6B175474E89094C44Da98b954EedeAC495271d0F,0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		"--amounts-in", "100,250",
		"--token-out", "0xba100000625a3754423978a60c9317c58a424e3D",
	))
	require.NoError(t, err)
	require.Len(t, cfg.TokensIn, 2)
	require.Equal(t, []string{"100", "250"}, cfg.AmountsIn)

	_, err = LoadBatch("", flagSet(t,
		"--rpc", "http://localhost:8545",
		"--tokens-in", "0x6B175474E89094C44Da98b954EedeAC495271d0F",
		"--amounts-in", "1,2",
		"--token-out", "0xba100000625a3754423978a60c9317c58a424e3D",
	))
	require.Error(t, err)
}

func TestParseAddresses(t *testing.T) {
	addresses, err := ParseAddresses([]string{" 0xba100000625a3754423978a60c9317c58a424e3d ", ""})
	require.NoError(t, err)
	require.Len(t, addresses, 1)
	require.Equal(t, "0xba100000625a3754423978a60c9317c58a424e3D", addresses[0].Hex())

	_, err = ParseAddresses([]string{"0x123"})
	require.Error(t, err)
}
