package quote

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"swapScope/internal/vault"
)

type stubPools struct {
	pools map[string]vault.PoolTokens
	err   map[string]error
	reads map[string]int
}

func (s *stubPools) GetPoolTokens(ctx context.Context, poolID string) (vault.PoolTokens, error) {
	if s.reads == nil {
		s.reads = make(map[string]int)
	}
	s.reads[poolID]++
	if err, ok := s.err[poolID]; ok {
		return vault.PoolTokens{}, err
	}
	return s.pools[poolID], nil
}

func poolTokens(tokens []common.Address, balances ...int64) vault.PoolTokens {
	out := vault.PoolTokens{Tokens: tokens}
	for _, b := range balances {
		out.Balances = append(out.Balances, big.NewInt(b))
	}
	return out
}

func TestCheckRoutePools(t *testing.T) {
	reader := &stubPools{pools: map[string]vault.PoolTokens{
		"p2": poolTokens([]common.Address{weth, dai}, 100, 300000),
		"p3": poolTokens([]common.Address{dai, bal}, 100000, 9000),
	}}

	balances, err := CheckRoutePools(context.Background(), reader, twoHopRoute("p2", "p3", weth, dai, bal))
	require.NoError(t, err)
	require.Len(t, balances, 2)
	require.Equal(t, "p2", balances[0].PoolID)

	balance, ok := balances[1].BalanceOf(bal)
	require.True(t, ok)
	require.Equal(t, int64(9000), balance.Int64())

	_, ok = balances[1].BalanceOf(weth)
	require.False(t, ok)
}

func TestCheckRoutePoolsReadsEachPoolOnce(t *testing.T) {
	reader := &stubPools{pools: map[string]vault.PoolTokens{
		"p1": poolTokens([]common.Address{weth, dai, bal}, 1, 2, 3),
	}}

	balances, err := CheckRoutePools(context.Background(), reader, twoHopRoute("p1", "p1", weth, dai, bal))
	require.NoError(t, err)
	require.Len(t, balances, 1)
	require.Equal(t, 1, reader.reads["p1"])
}

func TestCheckRoutePoolsFailures(t *testing.T) {
	cases := []struct {
		name   string
		reader *stubPools
	}{
		{
			name:   "unregistered",
			reader: &stubPools{pools: map[string]vault.PoolTokens{}},
		},
		{
			name: "missing token",
			reader: &stubPools{pools: map[string]vault.PoolTokens{
				"p1": poolTokens([]common.Address{weth, dai}, 1, 1),
			}},
		},
		{
			name: "empty balance",
			reader: &stubPools{pools: map[string]vault.PoolTokens{
				"p1": poolTokens([]common.Address{weth, bal}, 10, 0),
			}},
		},
		{
			name:   "rpc error",
			reader: &stubPools{err: map[string]error{"p1": errors.New("execution reverted")}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := CheckRoutePools(context.Background(), tc.reader, directRoute("p1", weth, bal))
			require.Error(t, err)
		})
	}
}
