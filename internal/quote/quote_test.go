package quote

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swapScope/internal/batch"
	"swapScope/internal/model"
)

var (
	weth = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	dai  = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	bal  = common.HexToAddress("0xba100000625a3754423978a60c9317c58a424e3D")
	usdc = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
)

type stubResolver map[model.PairKey][]model.Route

func (r stubResolver) Resolve(ctx context.Context, taker, maker common.Address) []model.Route {
	return model.CloneRoutes(r[model.PairKey{Taker: taker, Maker: maker}])
}

type simCall struct {
	kind   model.SwapKind
	steps  []model.SwapStep
	assets []common.Address
}

// stubSim charges every non-zero step amount to its input asset and pays half of the
// total out of the last step's output asset.
type stubSim struct {
	calls []simCall
	fail  map[string]error
}

func (s *stubSim) QueryBatchSwap(ctx context.Context, kind model.SwapKind, steps []model.SwapStep, assets []common.Address, funds model.FundManagement) ([]*big.Int, error) {
	s.calls = append(s.calls, simCall{kind: kind, steps: steps, assets: assets})
	if err, ok := s.fail[steps[0].PoolID]; ok {
		return nil, err
	}
	deltas := make([]*big.Int, len(assets))
	for i := range deltas {
		deltas[i] = new(big.Int)
	}
	total := new(big.Int)
	for _, step := range steps {
		amount, _ := new(big.Int).SetString(step.Amount, 10)
		if amount.Sign() == 0 {
			continue
		}
		deltas[step.AssetInIndex].Add(deltas[step.AssetInIndex], amount)
		total.Add(total, amount)
	}
	exit := steps[len(steps)-1].AssetOutIndex
	deltas[exit].Sub(deltas[exit], new(big.Int).Quo(total, big.NewInt(2)))
	return deltas, nil
}

func directRoute(pool string, in, out common.Address) model.Route {
	return model.Route{
		Assets: []common.Address{in, out},
		Steps:  []model.SwapStep{{PoolID: pool, AssetInIndex: 0, AssetOutIndex: 1, Amount: "0", UserData: "0x"}},
	}
}

func twoHopRoute(p1, p2 string, in, mid, out common.Address) model.Route {
	return model.Route{
		Assets: []common.Address{in, mid, out},
		Steps: []model.SwapStep{
			{PoolID: p1, AssetInIndex: 0, AssetOutIndex: 1, Amount: "0", UserData: "0x"},
			{PoolID: p2, AssetInIndex: 1, AssetOutIndex: 2, Amount: "0", UserData: "0x"},
		},
	}
}

func TestQueryPairSimulatesEveryRoute(t *testing.T) {
	resolver := stubResolver{
		{Taker: weth, Maker: bal}: {
			twoHopRoute("p2", "p3", weth, dai, bal),
			directRoute("p1", weth, bal),
		},
	}
	sim := &stubSim{fail: map[string]error{"p1": errors.New("BAL#304")}}
	svc, err := NewService(resolver, sim, nil)
	require.NoError(t, err)

	quotes, err := svc.QueryPair(context.Background(), weth, bal, model.GivenIn, big.NewInt(1000))
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	require.Len(t, sim.calls, 2)

	require.NoError(t, quotes[0].Err)
	assert.Equal(t, "1000", quotes[0].Route.Steps[0].Amount)
	assert.Equal(t, "0", quotes[0].Route.Steps[1].Amount)
	assert.Equal(t, int64(1000), quotes[0].AmountIn.Int64())
	assert.Equal(t, int64(500), quotes[0].AmountOut.Int64())

	require.Error(t, quotes[1].Err)

	best, ok := Best(model.GivenIn, quotes)
	require.True(t, ok)
	assert.Equal(t, "p2", best.Route.Steps[0].PoolID)

	// cached routes stay at zero amounts
	assert.Equal(t, "0", resolver[model.PairKey{Taker: weth, Maker: bal}][0].Steps[0].Amount)
}

func TestQueryPairNoRoute(t *testing.T) {
	svc, err := NewService(stubResolver{}, &stubSim{}, nil)
	require.NoError(t, err)

	_, err = svc.QueryPair(context.Background(), weth, bal, model.GivenIn, big.NewInt(1))
	require.ErrorIs(t, err, ErrNoRoute)

	_, err = svc.QueryPair(context.Background(), weth, bal, model.GivenIn, big.NewInt(0))
	require.Error(t, err)
}

func TestPrepareRouteGivenOutReversesSteps(t *testing.T) {
	route := twoHopRoute("p2", "p3", weth, dai, bal)

	prepared, err := PrepareRoute(route, model.GivenOut, big.NewInt(77))
	require.NoError(t, err)
	require.Equal(t, "p3", prepared.Steps[0].PoolID)
	require.Equal(t, "77", prepared.Steps[0].Amount)
	require.Equal(t, "p2", prepared.Steps[1].PoolID)
	require.Equal(t, "0", prepared.Steps[1].Amount)
	require.Equal(t, route.Assets, prepared.Assets)

	require.Equal(t, "p2", route.Steps[0].PoolID)

	_, err = PrepareRoute(model.Route{}, model.GivenIn, big.NewInt(1))
	require.Error(t, err)
}

func TestQueryTokensIn(t *testing.T) {
	resolver := stubResolver{
		{Taker: dai, Maker: bal}:  {directRoute("p1", dai, bal)},
		{Taker: usdc, Maker: bal}: {directRoute("p2", usdc, bal), directRoute("p9", usdc, bal)},
	}
	sim := &stubSim{}
	svc, err := NewService(resolver, sim, nil)
	require.NoError(t, err)

	q, err := svc.QueryTokensIn(context.Background(),
		[]common.Address{dai, usdc},
		[]*big.Int{big.NewInt(100), big.NewInt(300)},
		bal,
	)
	require.NoError(t, err)
	require.Len(t, sim.calls, 1)
	require.Equal(t, []common.Address{dai, bal, usdc}, q.Batch.Assets)
	require.Len(t, q.Batch.Steps, 2)
	require.Equal(t, "100", q.Batch.Steps[0].Amount)
	require.Equal(t, "300", q.Batch.Steps[1].Amount)
	require.Equal(t, 2, q.Batch.Steps[1].AssetInIndex)
	require.Equal(t, 1, q.Batch.Steps[1].AssetOutIndex)
	require.Equal(t, model.GivenIn, sim.calls[0].kind)

	require.Equal(t, int64(200), q.AmountOut.Int64())
	require.Equal(t, int64(-200), q.Deltas[1].Int64())
}

func TestQueryTokensInErrors(t *testing.T) {
	svc, err := NewService(stubResolver{}, &stubSim{}, nil)
	require.NoError(t, err)

	_, err = svc.QueryTokensIn(context.Background(), nil, nil, bal)
	require.Error(t, err)
	_, err = svc.QueryTokensIn(context.Background(), []common.Address{dai}, nil, bal)
	require.Error(t, err)
	_, err = svc.QueryTokensIn(context.Background(), []common.Address{dai}, []*big.Int{big.NewInt(1)}, bal)
	require.ErrorIs(t, err, ErrNoRoute)
}

func TestRequoteKeepsRouting(t *testing.T) {
	sim := &stubSim{}
	svc, err := NewService(stubResolver{}, sim, nil)
	require.NoError(t, err)

	batched := model.BatchedRoute{
		Assets: []common.Address{dai, usdc, bal},
		Steps: []model.SwapStep{
			{PoolID: "p1", AssetInIndex: 0, AssetOutIndex: 2, Amount: "100", UserData: "0x"},
			{PoolID: "p2", AssetInIndex: 1, AssetOutIndex: 2, Amount: "300", UserData: "0x"},
		},
	}

	q, err := svc.Requote(context.Background(), batched, []batch.TokenAmount{{Token: usdc, Amount: big.NewInt(500)}}, bal)
	require.NoError(t, err)
	require.Equal(t, "100", q.Batch.Steps[0].Amount)
	require.Equal(t, "500", q.Batch.Steps[1].Amount)
	require.Equal(t, batched.Assets, q.Batch.Assets)
	require.Equal(t, int64(300), q.AmountOut.Int64())
	require.Equal(t, "300", batched.Steps[1].Amount)
}

func TestBestGivenOut(t *testing.T) {
	quotes := []RouteQuote{
		{AmountIn: big.NewInt(10), AmountOut: big.NewInt(5)},
		{AmountIn: big.NewInt(8), AmountOut: big.NewInt(5)},
		{Err: errors.New("failed")},
	}
	best, ok := Best(model.GivenOut, quotes)
	require.True(t, ok)
	require.Equal(t, int64(8), best.AmountIn.Int64())

	_, ok = Best(model.GivenIn, nil)
	require.False(t, ok)
}
