package sor

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"swapScope/internal/model"
)

var (
	weth = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	bal  = common.HexToAddress("0xba100000625a3754423978a60c9317c58a424e3D")
	dai  = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	usdc = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
)

func pool(id string, balances map[common.Address]string) model.Pool {
	p := model.Pool{ID: id, PoolType: "Weighted"}
	for _, token := range []common.Address{weth, bal, dai, usdc} {
		balance, ok := balances[token]
		if !ok {
			continue
		}
		p.Tokens = append(p.Tokens, model.PoolToken{Address: token, Balance: decimal.RequireFromString(balance), Decimals: 18})
		p.TokensList = append(p.TokensList, token)
	}
	return p
}

func TestCandidatePathsDirectAndTwoHop(t *testing.T) {
	graph := NewPoolGraph([]model.Pool{
		pool("0x01", map[common.Address]string{weth: "100", bal: "5000"}),
		pool("0x02", map[common.Address]string{weth: "100", dai: "300000"}),
		pool("0x03", map[common.Address]string{dai: "100000", bal: "9000"}),
	})

	paths, err := HopProposer{}.CandidatePaths(weth, bal, graph, 4)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	// the two-hop path ends in the deeper BAL pool, so it ranks first
	require.Equal(t, "0x020x03", paths[0].ID)
	require.Len(t, paths[0].Hops, 2)
	require.Equal(t, dai, paths[0].Hops[0].TokenOut)
	require.Equal(t, "0x01", paths[1].ID)
}

func TestCandidatePathsCapsAtMaxPools(t *testing.T) {
	var pools []model.Pool
	for i, id := range []string{"0x01", "0x02", "0x03", "0x04", "0x05"} {
		balance := decimal.NewFromInt(int64(1000 * (i + 1))).String()
		pools = append(pools, pool(id, map[common.Address]string{weth: "10", bal: balance}))
	}

	paths, err := HopProposer{}.CandidatePaths(weth, bal, NewPoolGraph(pools), 4)
	require.NoError(t, err)
	require.Len(t, paths, 4)
	require.Equal(t, "0x05", paths[0].ID)
	require.Equal(t, "0x02", paths[3].ID)
}

func TestCandidatePathsHopTokenFilter(t *testing.T) {
	graph := NewPoolGraph([]model.Pool{
		pool("0x02", map[common.Address]string{weth: "100", dai: "300000"}),
		pool("0x03", map[common.Address]string{dai: "100000", bal: "9000"}),
		pool("0x04", map[common.Address]string{weth: "100", usdc: "300000"}),
		pool("0x05", map[common.Address]string{usdc: "100000", bal: "8000"}),
	})

	paths, err := HopProposer{HopTokens: []common.Address{usdc}}.CandidatePaths(weth, bal, graph, 4)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	require.Equal(t, usdc, paths[0].Hops[0].TokenOut)
}

func TestCandidatePathsRejectsSameToken(t *testing.T) {
	_, err := HopProposer{}.CandidatePaths(weth, weth, NewPoolGraph(nil), 4)
	require.Error(t, err)
}

func TestNormalizedLiquidityWeighted(t *testing.T) {
	w80 := decimal.RequireFromString("0.8")
	w20 := decimal.RequireFromString("0.2")
	p := model.Pool{
		ID: "0x01",
		Tokens: []model.PoolToken{
			{Address: bal, Balance: decimal.RequireFromString("1000"), Weight: &w80},
			{Address: weth, Balance: decimal.RequireFromString("50"), Weight: &w20},
		},
	}

	got := NormalizedLiquidity(p, bal, weth)
	require.True(t, got.Equal(decimal.RequireFromString("40")), got.String())
	require.True(t, NormalizedLiquidity(p, bal, dai).IsZero())
}

func TestFormatPath(t *testing.T) {
	path := newPath([]Hop{
		{PoolID: "0xaa", TokenIn: weth, TokenOut: dai},
		{PoolID: "0xbb", TokenIn: dai, TokenOut: bal},
	}, decimal.Zero)

	route := FormatPath(path)
	require.Equal(t, []common.Address{weth, dai, bal}, route.Assets)
	require.Equal(t, []model.SwapStep{
		{PoolID: "0xaa", AssetInIndex: 0, AssetOutIndex: 1, Amount: "0", UserData: "0x"},
		{PoolID: "0xbb", AssetInIndex: 1, AssetOutIndex: 2, Amount: "0", UserData: "0x"},
	}, route.Steps)
	require.NoError(t, route.Validate())
}

func TestPoolGraphSkipsUnroutablePools(t *testing.T) {
	graph := NewPoolGraph([]model.Pool{
		pool("0x01", map[common.Address]string{weth: "1"}),
		pool("0x02", map[common.Address]string{weth: "1", bal: "1"}),
		pool("0x02", map[common.Address]string{weth: "1", dai: "1"}),
	})
	require.Equal(t, 1, graph.Len())
	require.Equal(t, []string{"0x02"}, graph.PoolsWithPair(weth, bal))
	require.Empty(t, graph.PoolsWithPair(weth, dai))
}
