package postgres

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"swapScope/internal/model"
)

func TestPoolRowRoundTrip(t *testing.T) {
	amp := decimal.RequireFromString("200")
	rate := decimal.RequireFromString("1.02")
	pool := model.Pool{
		ID:          "0x06DF3B2BBB68ADC8B0E302443692037ED9F91B42000000000000000000000063",
		Address:     common.HexToAddress("0x06df3b2bbb68adc8b0e302443692037ed9f91b42"),
		PoolType:    "Stable",
		SwapFee:     decimal.RequireFromString("0.0001"),
		Amp:         &amp,
		TotalShares: decimal.RequireFromString("1000000.5"),
		Tokens: []model.PoolToken{
			{Address: common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"), Balance: decimal.RequireFromString("500000"), Decimals: 18, PriceRate: &rate},
			{Address: common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), Balance: decimal.RequireFromString("500000"), Decimals: 6},
		},
		TokensList: []common.Address{
			common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"),
			common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"),
		},
	}

	row, err := encodePool(pool)
	require.NoError(t, err)
	require.Equal(t, "0x06df3b2bbb68adc8b0e302443692037ed9f91b42000000000000000000000063", row.PoolID)
	require.NotNil(t, row.Amp)
	require.Equal(t, "200", *row.Amp)

	decoded, err := decodePool(row)
	require.NoError(t, err)
	require.Equal(t, row.PoolID, decoded.ID)
	require.Equal(t, pool.Address, decoded.Address)
	require.True(t, pool.SwapFee.Equal(decoded.SwapFee))
	require.True(t, pool.Amp.Equal(*decoded.Amp))
	require.Equal(t, pool.TokensList, decoded.TokensList)
	require.Len(t, decoded.Tokens, 2)
	require.True(t, decoded.Tokens[0].PriceRate.Equal(rate))
	require.Nil(t, decoded.Tokens[1].Weight)
}

func TestDecodePoolRejectsBadDecimals(t *testing.T) {
	_, err := decodePool(poolRow{PoolID: "0x01", SwapFee: "x", TotalShares: "1"})
	require.Error(t, err)
	_, err = decodePool(poolRow{PoolID: "0x01", SwapFee: "0.1", TotalShares: "1", Tokens: []byte("{")})
	require.Error(t, err)
}
