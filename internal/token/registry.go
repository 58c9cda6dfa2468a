// Package token resolves ERC20 metadata and converts between display and base units.
package token

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapScope/internal/model"
)

// Caller runs eth_call. *chain.Client satisfies it.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Registry caches token metadata by address. Each token is fetched from the chain at
// most once; decimals seeded from pool data cover tokens whose calls fail.
type Registry struct {
	caller Caller
	logger *zap.Logger

	mu      sync.RWMutex
	data    map[common.Address]model.TokenMeta
	fetched map[common.Address]bool
}

// NewRegistry builds a registry. caller may be nil when only seeded data is needed.
func NewRegistry(caller Caller, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		caller:  caller,
		logger:  logger,
		data:    make(map[common.Address]model.TokenMeta),
		fetched: make(map[common.Address]bool),
	}
}

func (r *Registry) Get(address common.Address) (model.TokenMeta, bool) {
	r.mu.RLock()
	meta, ok := r.data[address]
	r.mu.RUnlock()
	return meta, ok
}

// Set stores complete metadata; Lookup will not refetch it.
func (r *Registry) Set(meta model.TokenMeta) {
	r.mu.Lock()
	r.data[meta.Address] = meta
	r.fetched[meta.Address] = true
	r.mu.Unlock()
}

// Seed records token decimals reported by pool data.
func (r *Registry) Seed(pools []model.Pool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	added := 0
	for _, pool := range pools {
		for _, t := range pool.Tokens {
			if _, ok := r.data[t.Address]; ok {
				continue
			}
			r.data[t.Address] = model.TokenMeta{Address: t.Address, Decimals: t.Decimals}
			added++
		}
	}
	return added
}

// Lookup returns cached metadata or fetches it from the chain.
func (r *Registry) Lookup(ctx context.Context, address common.Address) (model.TokenMeta, error) {
	r.mu.RLock()
	seeded, hasSeed := r.data[address]
	fetched := r.fetched[address]
	r.mu.RUnlock()
	if fetched {
		return seeded, nil
	}
	if r.caller == nil {
		if hasSeed {
			return seeded, nil
		}
		return model.TokenMeta{}, fmt.Errorf("no metadata for %s and no chain client", address.Hex())
	}

	meta, err := Fetch(ctx, r.caller, address, r.logger)
	if err != nil {
		if hasSeed {
			r.logger.Debug("token metadata fetch failed, using seed", zap.String("token", address.Hex()), zap.Error(err))
			r.Set(seeded)
			return seeded, nil
		}
		return meta, err
	}
	r.Set(meta)
	return meta, nil
}

// Fetch loads token metadata via ERC20 calls. Decimals are required; symbol and name
// are best effort.
func Fetch(ctx context.Context, caller Caller, address common.Address, logger *zap.Logger) (model.TokenMeta, error) {
	meta := model.TokenMeta{Address: address}
	if caller == nil {
		return meta, fmt.Errorf("chain client is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	strABI, err := stringABI()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	b32ABI, err := bytes32ABI()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	call := func(method string, parsed abi.ABI) ([]interface{}, error) {
		data, err := parsed.Pack(method)
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", method, err)
		}
		resp, err := caller.CallContract(ctx, ethereum.CallMsg{To: &address, Data: data}, nil)
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", method, err)
		}
		values, err := parsed.Unpack(method, resp)
		if err != nil {
			return nil, fmt.Errorf("unpack %s: %w", method, err)
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("unpack %s: empty result", method)
		}
		return values, nil
	}

	values, err := call("decimals", strABI)
	if err != nil {
		return meta, err
	}
	decimals, ok := values[0].(uint8)
	if !ok {
		return meta, fmt.Errorf("decimals: unexpected type %T", values[0])
	}
	meta.Decimals = decimals

	text := func(method string) string {
		if values, err := call(method, strABI); err == nil {
			if s, ok := values[0].(string); ok {
				return s
			}
		}
		values, err := call(method, b32ABI)
		if err != nil {
			logger.Debug(method+" call failed", zap.String("token", address.Hex()), zap.Error(err))
			return ""
		}
		if raw, ok := values[0].([32]byte); ok {
			return string(bytes.TrimRight(raw[:], "\x00"))
		}
		return ""
	}
	meta.Symbol = text("symbol")
	meta.Name = text("name")

	return meta, nil
}
