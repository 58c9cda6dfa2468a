package token

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"swapScope/internal/model"
)

var mkr = common.HexToAddress("0x9f8F72aA9304c8B593d555F12eF6589cC3A579A2")

// fakeERC20 answers decimals/symbol/name; with bytes32 set the string calls revert.
type fakeERC20 struct {
	decimals uint8
	symbol   string
	bytes32  bool
	calls    int
}

func (f *fakeERC20) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	f.calls++
	strABI, _ := stringABI()
	b32ABI, _ := bytes32ABI()
	selector := string(msg.Data[:4])

	switch selector {
	case string(strABI.Methods["decimals"].ID):
		return strABI.Methods["decimals"].Outputs.Pack(f.decimals)
	case string(strABI.Methods["symbol"].ID), string(strABI.Methods["name"].ID):
		if f.bytes32 {
			var raw [32]byte
			copy(raw[:], f.symbol)
			method := b32ABI.Methods["symbol"]
			return method.Outputs.Pack(raw)
		}
		return strABI.Methods["symbol"].Outputs.Pack(f.symbol)
	}
	return nil, errors.New("execution reverted")
}

func TestFetchStringMetadata(t *testing.T) {
	caller := &fakeERC20{decimals: 6, symbol: "USDC"}
	meta, err := Fetch(context.Background(), caller, common.HexToAddress("0x01"), nil)
	require.NoError(t, err)
	require.Equal(t, uint8(6), meta.Decimals)
	require.Equal(t, "USDC", meta.Symbol)
	require.Equal(t, "USDC", meta.Label())
}

func TestFetchBytes32Metadata(t *testing.T) {
	caller := &fakeERC20{decimals: 18, symbol: "MKR", bytes32: true}
	meta, err := Fetch(context.Background(), caller, mkr, nil)
	require.NoError(t, err)
	require.Equal(t, "MKR", meta.Symbol)
}

func TestRegistryCachesLookups(t *testing.T) {
	caller := &fakeERC20{decimals: 18, symbol: "BAL"}
	registry := NewRegistry(caller, nil)

	_, err := registry.Lookup(context.Background(), mkr)
	require.NoError(t, err)
	calls := caller.calls

	meta, err := registry.Lookup(context.Background(), mkr)
	require.NoError(t, err)
	require.Equal(t, "BAL", meta.Symbol)
	require.Equal(t, calls, caller.calls)
}

func TestRegistrySeedWithoutCaller(t *testing.T) {
	registry := NewRegistry(nil, nil)
	added := registry.Seed([]model.Pool{{
		ID: "0x01",
		Tokens: []model.PoolToken{
			{Address: mkr, Decimals: 18, Balance: decimal.Zero},
			{Address: common.HexToAddress("0x02"), Decimals: 6, Balance: decimal.Zero},
		},
	}})
	require.Equal(t, 2, added)

	meta, err := registry.Lookup(context.Background(), common.HexToAddress("0x02"))
	require.NoError(t, err)
	require.Equal(t, uint8(6), meta.Decimals)
	require.Equal(t, common.HexToAddress("0x02").Hex(), meta.Label())

	_, err = registry.Lookup(context.Background(), common.HexToAddress("0x03"))
	require.Error(t, err)
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		value    *big.Int
		decimals uint8
		want     string
	}{
		{big.NewInt(1_500_000), 6, "1.5"},
		{big.NewInt(-42), 2, "-0.42"},
		{big.NewInt(7), 0, "7"},
		{nil, 18, "0"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, FormatAmount(tc.value, tc.decimals))
	}
}

func TestParseAmount(t *testing.T) {
	value, err := ParseAmount("1.5", 18)
	require.NoError(t, err)
	require.Equal(t, "1500000000000000000", value.String())

	value, err = ParseAmount("250", 6)
	require.NoError(t, err)
	require.Equal(t, "250000000", value.String())

	_, err = ParseAmount("0.0000001", 6)
	require.Error(t, err)
	_, err = ParseAmount("abc", 6)
	require.Error(t, err)
	_, err = ParseAmount("", 6)
	require.Error(t, err)
}
