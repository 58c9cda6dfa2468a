// Package quote previews swaps by resolving cached routes and simulating them on the Vault.
package quote

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapScope/internal/batch"
	"swapScope/internal/model"
	"swapScope/internal/vault"
)

// ErrNoRoute is returned when the cache has no route for a pair.
var ErrNoRoute = errors.New("no route")

// RouteResolver returns fresh routes for a pair. *swapinfo.Cache satisfies it.
type RouteResolver interface {
	Resolve(ctx context.Context, taker, maker common.Address) []model.Route
}

// BatchSimulator runs queryBatchSwap. *vault.Simulator satisfies it.
type BatchSimulator interface {
	QueryBatchSwap(ctx context.Context, kind model.SwapKind, steps []model.SwapStep, assets []common.Address, funds model.FundManagement) ([]*big.Int, error)
}

// RouteQuote is the preview of one route. Err is set when the simulation failed.
type RouteQuote struct {
	Route     model.Route
	Deltas    []*big.Int
	AmountIn  *big.Int
	AmountOut *big.Int
	Err       error
}

// BatchQuote is the preview of a merged batch towards one exit token.
type BatchQuote struct {
	Batch     model.BatchedRoute
	Deltas    []*big.Int
	AmountOut *big.Int
}

// Service combines route lookup, batching and simulation.
type Service struct {
	routes RouteResolver
	sim    BatchSimulator
	logger *zap.Logger
}

// NewService builds a Service over a route resolver and a batch simulator.
func NewService(routes RouteResolver, sim BatchSimulator, logger *zap.Logger) (*Service, error) {
	if routes == nil {
		return nil, fmt.Errorf("route resolver is nil")
	}
	if sim == nil {
		return nil, fmt.Errorf("simulator is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{routes: routes, sim: sim, logger: logger}, nil
}

// QueryPair simulates every cached route for taker>maker with the given trade size.
// A failed simulation is recorded on its quote and does not stop the others.
func (s *Service) QueryPair(ctx context.Context, taker, maker common.Address, kind model.SwapKind, amount *big.Int) ([]RouteQuote, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	routes := s.routes.Resolve(ctx, taker, maker)
	if len(routes) == 0 {
		return nil, fmt.Errorf("%s>%s: %w", taker.Hex(), maker.Hex(), ErrNoRoute)
	}

	quotes := make([]RouteQuote, 0, len(routes))
	for i, route := range routes {
		prepared, err := PrepareRoute(route, kind, amount)
		if err != nil {
			quotes = append(quotes, RouteQuote{Route: route, Err: err})
			continue
		}

		quote := RouteQuote{Route: prepared}
		deltas, err := s.sim.QueryBatchSwap(ctx, kind, prepared.Steps, prepared.Assets, vault.PreviewFunds())
		if err != nil {
			s.logger.Warn("route simulation failed",
				zap.Int("route", i),
				zap.String("taker", taker.Hex()),
				zap.String("maker", maker.Hex()),
				zap.Error(err),
			)
			quote.Err = err
			quotes = append(quotes, quote)
			continue
		}
		quote.Deltas = deltas
		quote.AmountIn, quote.AmountOut = flows(prepared, deltas, taker, maker)
		quotes = append(quotes, quote)
	}
	return quotes, nil
}

// PrepareRoute copies route and sets the trade size. Given-in swaps put the amount on
// the first step. Given-out swaps walk the steps backwards from the exit token, so the
// order is reversed and the amount goes on the step producing the exit token.
func PrepareRoute(route model.Route, kind model.SwapKind, amount *big.Int) (model.Route, error) {
	if len(route.Steps) == 0 {
		return model.Route{}, fmt.Errorf("route has no steps")
	}
	out := route.Clone()
	if kind == model.GivenOut {
		for i, j := 0, len(out.Steps)-1; i < j; i, j = i+1, j-1 {
			out.Steps[i], out.Steps[j] = out.Steps[j], out.Steps[i]
		}
	}
	for i := range out.Steps {
		out.Steps[i].Amount = "0"
	}
	out.Steps[0].Amount = amount.String()
	return out, nil
}

// Best picks the quote with the largest output for given-in swaps, or the smallest
// input for given-out swaps. Failed quotes are skipped.
func Best(kind model.SwapKind, quotes []RouteQuote) (RouteQuote, bool) {
	var (
		best  RouteQuote
		found bool
	)
	for _, q := range quotes {
		if q.Err != nil || q.AmountIn == nil || q.AmountOut == nil {
			continue
		}
		if !found {
			best, found = q, true
			continue
		}
		if kind == model.GivenOut {
			if q.AmountIn.Cmp(best.AmountIn) < 0 {
				best = q
			}
		} else if q.AmountOut.Cmp(best.AmountOut) > 0 {
			best = q
		}
	}
	return best, found
}

// QueryTokensIn routes each token in to tokenOut, merges the top routes into one batch
// and simulates it once.
func (s *Service) QueryTokensIn(ctx context.Context, tokensIn []common.Address, amountsIn []*big.Int, tokenOut common.Address) (BatchQuote, error) {
	if len(tokensIn) == 0 {
		return BatchQuote{}, fmt.Errorf("no tokens in")
	}
	if len(tokensIn) != len(amountsIn) {
		return BatchQuote{}, fmt.Errorf("got %d tokens and %d amounts", len(tokensIn), len(amountsIn))
	}

	routes := make([]model.Route, 0, len(tokensIn))
	amounts := make([]batch.TokenAmount, 0, len(tokensIn))
	for i, tokenIn := range tokensIn {
		found := s.routes.Resolve(ctx, tokenIn, tokenOut)
		if len(found) == 0 {
			return BatchQuote{}, fmt.Errorf("%s>%s: %w", tokenIn.Hex(), tokenOut.Hex(), ErrNoRoute)
		}
		routes = append(routes, found[0])
		amounts = append(amounts, batch.TokenAmount{Token: tokenIn, Amount: amountsIn[i]})
	}

	merged, err := batch.Merge(routes)
	if err != nil {
		return BatchQuote{}, fmt.Errorf("merge routes: %w", err)
	}
	return s.simulateBatch(ctx, batch.UpdateAmounts(merged, amounts), tokenOut)
}

// Requote changes the trade sizes of an existing batch and simulates it again without
// looking up routes.
func (s *Service) Requote(ctx context.Context, batched model.BatchedRoute, amounts []batch.TokenAmount, tokenOut common.Address) (BatchQuote, error) {
	return s.simulateBatch(ctx, batch.UpdateAmounts(batched, amounts), tokenOut)
}

func (s *Service) simulateBatch(ctx context.Context, batched model.BatchedRoute, tokenOut common.Address) (BatchQuote, error) {
	deltas, err := s.sim.QueryBatchSwap(ctx, model.GivenIn, batched.Steps, batched.Assets, vault.PreviewFunds())
	if err != nil {
		return BatchQuote{Batch: batched}, err
	}
	delta, err := batch.AssetDelta(batched, deltas, tokenOut)
	if err != nil {
		return BatchQuote{Batch: batched, Deltas: deltas}, err
	}
	return BatchQuote{
		Batch:     batched,
		Deltas:    deltas,
		AmountOut: delta.Neg(delta),
	}, nil
}

func flows(route model.Route, deltas []*big.Int, taker, maker common.Address) (*big.Int, *big.Int) {
	amountIn, amountOut := new(big.Int), new(big.Int)
	for i, asset := range route.Assets {
		if i >= len(deltas) || deltas[i] == nil {
			continue
		}
		switch asset {
		case taker:
			amountIn.Set(deltas[i])
		case maker:
			amountOut.Neg(deltas[i])
		}
	}
	return amountIn, amountOut
}
