// Package vault previews Balancer V2 swaps with read-only calls to the Vault.
package vault

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"swapScope/internal/model"
	"swapScope/internal/telemetry"
)

// DefaultSlippageBps is the 1% buffer applied to the receive limit.
const DefaultSlippageBps = 100

// Caller runs eth_call. *chain.Client satisfies it.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// batchSwapStep and fundManagement mirror the ABI tuples; field names must match.
type batchSwapStep struct {
	PoolId        [32]byte
	AssetInIndex  *big.Int
	AssetOutIndex *big.Int
	Amount        *big.Int
	UserData      []byte
}

type fundManagement struct {
	Sender              common.Address
	FromInternalBalance bool
	Recipient           common.Address
	ToInternalBalance   bool
}

// PoolTokens is the result of Vault.getPoolTokens.
type PoolTokens struct {
	Tokens          []common.Address
	Balances        []*big.Int
	LastChangeBlock uint64
}

// Simulator calls queryBatchSwap and getPoolTokens on the Vault.
type Simulator struct {
	caller  Caller
	address common.Address
	logger  *zap.Logger
}

// NewSimulator builds a simulator. A zero address selects DefaultAddress.
func NewSimulator(caller Caller, address common.Address, logger *zap.Logger) (*Simulator, error) {
	if caller == nil {
		return nil, fmt.Errorf("caller is nil")
	}
	if address == (common.Address{}) {
		address = DefaultAddress
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{caller: caller, address: address, logger: logger}, nil
}

// Address returns the Vault address in use.
func (s *Simulator) Address() common.Address {
	return s.address
}

// PreviewFunds returns the funds struct used for previews: zero sender and recipient,
// no internal balances.
func PreviewFunds() model.FundManagement {
	return model.FundManagement{}
}

// QueryBatchSwap simulates a batch swap and returns one signed delta per asset.
// Positive deltas are paid into the Vault, negative ones are paid out.
func (s *Simulator) QueryBatchSwap(ctx context.Context, kind model.SwapKind, steps []model.SwapStep, assets []common.Address, funds model.FundManagement) ([]*big.Int, error) {
	deltas, err := s.queryBatchSwap(ctx, kind, steps, assets, funds)
	if err != nil {
		telemetry.SimulationErrors.Inc()
		return nil, &SimulationError{Assets: append([]common.Address(nil), assets...), Cause: err}
	}
	return deltas, nil
}

func (s *Simulator) queryBatchSwap(ctx context.Context, kind model.SwapKind, steps []model.SwapStep, assets []common.Address, funds model.FundManagement) ([]*big.Int, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("no swap steps")
	}
	if err := (model.Route{Assets: assets, Steps: steps}).Validate(); err != nil {
		return nil, err
	}

	swaps, err := encodeSteps(steps)
	if err != nil {
		return nil, err
	}

	parsed, err := ABI()
	if err != nil {
		return nil, fmt.Errorf("parse vault abi: %w", err)
	}
	data, err := parsed.Pack("queryBatchSwap", uint8(kind), swaps, assets, fundManagement{
		Sender:              funds.Sender,
		FromInternalBalance: funds.FromInternalBalance,
		Recipient:           funds.Recipient,
		ToInternalBalance:   funds.ToInternalBalance,
	})
	if err != nil {
		return nil, fmt.Errorf("pack queryBatchSwap: %w", err)
	}

	resp, err := s.caller.CallContract(ctx, ethereum.CallMsg{To: &s.address, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call queryBatchSwap: %w", err)
	}
	values, err := parsed.Unpack("queryBatchSwap", resp)
	if err != nil {
		return nil, fmt.Errorf("unpack queryBatchSwap: %w", err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unpack queryBatchSwap: got %d values", len(values))
	}
	deltas, ok := values[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("unpack queryBatchSwap: unexpected type %T", values[0])
	}
	if len(deltas) != len(assets) {
		return nil, fmt.Errorf("got %d deltas for %d assets", len(deltas), len(assets))
	}

	s.logger.Debug("queryBatchSwap",
		zap.Stringer("kind", kind),
		zap.Int("steps", len(steps)),
		zap.Int("assets", len(assets)),
	)
	return deltas, nil
}

// GetPoolTokens reads the registered tokens and balances of a pool.
func (s *Simulator) GetPoolTokens(ctx context.Context, poolID string) (PoolTokens, error) {
	id, err := parsePoolID(poolID)
	if err != nil {
		return PoolTokens{}, err
	}
	parsed, err := ABI()
	if err != nil {
		return PoolTokens{}, fmt.Errorf("parse vault abi: %w", err)
	}
	data, err := parsed.Pack("getPoolTokens", id)
	if err != nil {
		return PoolTokens{}, fmt.Errorf("pack getPoolTokens: %w", err)
	}
	resp, err := s.caller.CallContract(ctx, ethereum.CallMsg{To: &s.address, Data: data}, nil)
	if err != nil {
		return PoolTokens{}, fmt.Errorf("call getPoolTokens: %w", err)
	}
	values, err := parsed.Unpack("getPoolTokens", resp)
	if err != nil {
		return PoolTokens{}, fmt.Errorf("unpack getPoolTokens: %w", err)
	}
	if len(values) != 3 {
		return PoolTokens{}, fmt.Errorf("unpack getPoolTokens: got %d values", len(values))
	}

	tokens, ok := values[0].([]common.Address)
	if !ok {
		return PoolTokens{}, fmt.Errorf("tokens: unexpected type %T", values[0])
	}
	balances, ok := values[1].([]*big.Int)
	if !ok {
		return PoolTokens{}, fmt.Errorf("balances: unexpected type %T", values[1])
	}
	lastChange, ok := values[2].(*big.Int)
	if !ok {
		return PoolTokens{}, fmt.Errorf("last change block: unexpected type %T", values[2])
	}

	return PoolTokens{Tokens: tokens, Balances: balances, LastChangeBlock: lastChange.Uint64()}, nil
}

// Limits builds batchSwap limits: the entry token may send up to the in amount, the
// exit token must receive at least the out amount less slippage, everything else is 0.
func Limits(kind model.SwapKind, assets []common.Address, tokenIn, tokenOut common.Address, swapAmount, returnAmount *big.Int, slippageBps uint) []*big.Int {
	amountIn, amountOut := swapAmount, returnAmount
	if kind == model.GivenOut {
		amountIn, amountOut = returnAmount, swapAmount
	}
	if slippageBps > 10_000 {
		slippageBps = 10_000
	}

	limits := make([]*big.Int, len(assets))
	for i, asset := range assets {
		switch {
		case asset == tokenIn && amountIn != nil:
			limits[i] = new(big.Int).Set(amountIn)
		case asset == tokenOut && amountOut != nil:
			floor := new(big.Int).Mul(amountOut, big.NewInt(int64(10_000-slippageBps)))
			floor.Quo(floor, big.NewInt(10_000))
			limits[i] = floor.Neg(floor)
		default:
			limits[i] = new(big.Int)
		}
	}
	return limits
}

func encodeSteps(steps []model.SwapStep) ([]batchSwapStep, error) {
	out := make([]batchSwapStep, 0, len(steps))
	for i, step := range steps {
		id, err := parsePoolID(step.PoolID)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		amount, err := parseAmount(step.Amount)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		userData := step.UserData
		if userData == "" {
			userData = model.DefaultUserData
		}
		data, err := hexutil.Decode(userData)
		if err != nil {
			return nil, fmt.Errorf("step %d user data: %w", i, err)
		}
		out = append(out, batchSwapStep{
			PoolId:        id,
			AssetInIndex:  big.NewInt(int64(step.AssetInIndex)),
			AssetOutIndex: big.NewInt(int64(step.AssetOutIndex)),
			Amount:        amount,
			UserData:      data,
		})
	}
	return out, nil
}

func parsePoolID(poolID string) ([32]byte, error) {
	raw, err := hexutil.Decode(strings.TrimSpace(poolID))
	if err != nil {
		return [32]byte{}, fmt.Errorf("pool id %q: %w", poolID, err)
	}
	if len(raw) != 32 {
		return [32]byte{}, fmt.Errorf("pool id %q: want 32 bytes, got %d", poolID, len(raw))
	}
	var id [32]byte
	copy(id[:], raw)
	return id, nil
}

func parseAmount(amount string) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return new(big.Int), nil
	}
	value, ok := new(big.Int).SetString(amount, 10)
	if !ok || value.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", amount)
	}
	return value, nil
}
