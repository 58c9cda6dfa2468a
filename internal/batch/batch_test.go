package batch

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"swapScope/internal/model"
)

var (
	tokenX = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	tokenY = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	tokenZ = common.HexToAddress("0x00000000000000000000000000000000000000cc")
)

func step(pool string, in, out int) model.SwapStep {
	return model.SwapStep{PoolID: pool, AssetInIndex: in, AssetOutIndex: out, Amount: "0", UserData: "0x"}
}

func TestMergeRemapsIndices(t *testing.T) {
	r1 := model.Route{Assets: []common.Address{tokenX, tokenY}, Steps: []model.SwapStep{step("p1", 0, 1)}}
	r2 := model.Route{Assets: []common.Address{tokenY, tokenZ}, Steps: []model.SwapStep{step("p2", 0, 1)}}

	batched, err := Merge([]model.Route{r1, r2})
	require.NoError(t, err)
	require.Equal(t, []common.Address{tokenX, tokenY, tokenZ}, batched.Assets)
	require.Equal(t, []model.SwapStep{step("p1", 0, 1), step("p2", 1, 2)}, batched.Steps)
	require.NoError(t, AsRoute(batched).Validate())

	// inputs untouched
	require.Equal(t, 0, r2.Steps[0].AssetInIndex)
	require.Equal(t, 1, r2.Steps[0].AssetOutIndex)
}

func TestMergeOrderIndependentAssetSet(t *testing.T) {
	r1 := model.Route{Assets: []common.Address{tokenX, tokenY}, Steps: []model.SwapStep{step("p1", 0, 1)}}
	r2 := model.Route{Assets: []common.Address{tokenZ, tokenY}, Steps: []model.SwapStep{step("p2", 0, 1)}}

	a, err := Merge([]model.Route{r1, r2})
	require.NoError(t, err)
	b, err := Merge([]model.Route{r2, r1})
	require.NoError(t, err)

	require.ElementsMatch(t, a.Assets, b.Assets)
	require.Len(t, a.Assets, 3)

	// every step still points at the same tokens
	for _, batched := range []model.BatchedRoute{a, b} {
		for _, s := range batched.Steps {
			switch s.PoolID {
			case "p1":
				require.Equal(t, tokenX, batched.Assets[s.AssetInIndex])
				require.Equal(t, tokenY, batched.Assets[s.AssetOutIndex])
			case "p2":
				require.Equal(t, tokenZ, batched.Assets[s.AssetInIndex])
				require.Equal(t, tokenY, batched.Assets[s.AssetOutIndex])
			}
		}
	}
}

func TestMergeEmptyAndInvalid(t *testing.T) {
	batched, err := Merge(nil)
	require.NoError(t, err)
	require.Empty(t, batched.Assets)
	require.Empty(t, batched.Steps)

	bad := model.Route{Assets: []common.Address{tokenX}, Steps: []model.SwapStep{step("p1", 0, 3)}}
	_, err = Merge([]model.Route{bad})
	require.Error(t, err)
}

func TestUpdateAmounts(t *testing.T) {
	batched := model.BatchedRoute{
		Assets: []common.Address{tokenX, tokenY, tokenZ},
		Steps: []model.SwapStep{
			step("p1", 0, 1),
			step("p2", 1, 2),
		},
	}

	updated := UpdateAmounts(batched, []TokenAmount{
		{Token: tokenX, Amount: big.NewInt(1000)},
		{Token: common.HexToAddress("0x01"), Amount: big.NewInt(7)},
	})

	require.Equal(t, "1000", updated.Steps[0].Amount)
	require.Equal(t, "0", updated.Steps[1].Amount)
	require.Equal(t, batched.Assets, updated.Assets)
	for i := range batched.Steps {
		require.Equal(t, batched.Steps[i].PoolID, updated.Steps[i].PoolID)
		require.Equal(t, batched.Steps[i].AssetInIndex, updated.Steps[i].AssetInIndex)
		require.Equal(t, batched.Steps[i].AssetOutIndex, updated.Steps[i].AssetOutIndex)
		require.Equal(t, batched.Steps[i].UserData, updated.Steps[i].UserData)
	}

	// original is a separate copy
	require.Equal(t, "0", batched.Steps[0].Amount)
}

func TestUpdateAmountsLaterEntryWins(t *testing.T) {
	batched := model.BatchedRoute{
		Assets: []common.Address{tokenX, tokenY},
		Steps:  []model.SwapStep{step("p1", 0, 1)},
	}

	updated := UpdateAmounts(batched, []TokenAmount{
		{Token: tokenX, Amount: big.NewInt(1)},
		{Token: tokenY, Amount: big.NewInt(2)},
	})
	require.Equal(t, "2", updated.Steps[0].Amount)
}

func TestAssetDelta(t *testing.T) {
	batched := model.BatchedRoute{Assets: []common.Address{tokenX, tokenY}}
	deltas := []*big.Int{big.NewInt(100), big.NewInt(-95)}

	delta, err := AssetDelta(batched, deltas, tokenY)
	require.NoError(t, err)
	require.Equal(t, int64(-95), delta.Int64())

	_, err = AssetDelta(batched, deltas, tokenZ)
	require.Error(t, err)
	_, err = AssetDelta(batched, deltas[:1], tokenY)
	require.Error(t, err)
}
