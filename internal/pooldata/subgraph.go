// Package pooldata loads Balancer V2 pool snapshots for route discovery.
package pooldata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"swapScope/internal/model"
)

const defaultPageSize = 1000

// SubgraphURLByChain lists the hosted Balancer V2 subgraphs.
var SubgraphURLByChain = map[uint64]string{
	1:   "https://api.thegraph.com/subgraphs/name/balancer-labs/balancer-v2",
	137: "https://api.thegraph.com/subgraphs/name/balancer-labs/balancer-polygon-v2",
}

const poolsQuery = `query pools($first: Int!, $lastId: String!) {
  pools(
    first: $first
    orderBy: id
    orderDirection: asc
    where: { id_gt: $lastId, totalShares_gt: "0.000000000001", swapEnabled: true }
  ) {
    id
    address
    poolType
    swapFee
    amp
    totalShares
    tokensList
    tokens {
      address
      balance
      decimals
      weight
      priceRate
    }
  }
}`

// Subgraph fetches pools from a Balancer subgraph, paging by pool id.
type Subgraph struct {
	url      string
	client   *http.Client
	pageSize int
	retry    RetryPolicy
	logger   *zap.Logger
}

// SubgraphOptions tunes a Subgraph source. Zero values select defaults.
type SubgraphOptions struct {
	HTTPClient *http.Client
	PageSize   int
	Retry      RetryPolicy
}

// NewSubgraph builds a paged pool source for the subgraph at url.
func NewSubgraph(url string, opts SubgraphOptions, logger *zap.Logger) (*Subgraph, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("subgraph url is required")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Subgraph{
		url:      url,
		client:   opts.HTTPClient,
		pageSize: opts.PageSize,
		retry:    opts.Retry,
		logger:   logger,
	}, nil
}

type graphRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type graphError struct {
	Message string `json:"message"`
}

type graphResponse struct {
	Data struct {
		Pools []subgraphPool `json:"pools"`
	} `json:"data"`
	Errors []graphError `json:"errors"`
}

type subgraphToken struct {
	Address   string  `json:"address"`
	Balance   string  `json:"balance"`
	Decimals  uint8   `json:"decimals"`
	Weight    *string `json:"weight"`
	PriceRate *string `json:"priceRate"`
}

type subgraphPool struct {
	ID          string          `json:"id"`
	Address     string          `json:"address"`
	PoolType    string          `json:"poolType"`
	SwapFee     string          `json:"swapFee"`
	Amp         *string         `json:"amp"`
	TotalShares string          `json:"totalShares"`
	TokensList  []string        `json:"tokensList"`
	Tokens      []subgraphToken `json:"tokens"`
}

// GetPools pages through every swappable pool.
func (s *Subgraph) GetPools(ctx context.Context) ([]model.Pool, error) {
	started := time.Now()
	var (
		pools  []model.Pool
		lastID string
	)
	for page := 0; ; page++ {
		var batch []subgraphPool
		err := s.retry.do(ctx, func(ctx context.Context) error {
			var err error
			batch, err = s.fetchPage(ctx, lastID)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("subgraph page %d: %w", page, err)
		}

		for _, raw := range batch {
			pool, err := raw.toModel()
			if err != nil {
				s.logger.Warn("skip malformed pool", zap.String("pool", raw.ID), zap.Error(err))
				continue
			}
			pools = append(pools, pool)
		}

		if len(batch) < s.pageSize {
			break
		}
		lastID = batch[len(batch)-1].ID
	}

	s.logger.Debug("subgraph pools loaded", zap.Int("pools", len(pools)), zap.Duration("took", time.Since(started)))
	return pools, nil
}

func (s *Subgraph) fetchPage(ctx context.Context, lastID string) ([]subgraphPool, error) {
	body, err := json.Marshal(graphRequest{
		Query: poolsQuery,
		Variables: map[string]interface{}{
			"first":  s.pageSize,
			"lastId": lastID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post query: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("subgraph status %d: %s", resp.StatusCode, truncate(string(payload), 200))
	}

	var decoded graphResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Errors) > 0 {
		messages := make([]string, 0, len(decoded.Errors))
		for _, e := range decoded.Errors {
			messages = append(messages, e.Message)
		}
		return nil, fmt.Errorf("subgraph errors: %s", strings.Join(messages, "; "))
	}
	return decoded.Data.Pools, nil
}

func (p subgraphPool) toModel() (model.Pool, error) {
	if !common.IsHexAddress(p.Address) {
		return model.Pool{}, fmt.Errorf("invalid pool address %q", p.Address)
	}
	swapFee, err := parseDecimal(p.SwapFee)
	if err != nil {
		return model.Pool{}, fmt.Errorf("swap fee: %w", err)
	}
	totalShares, err := parseDecimal(p.TotalShares)
	if err != nil {
		return model.Pool{}, fmt.Errorf("total shares: %w", err)
	}
	amp, err := parseOptionalDecimal(p.Amp)
	if err != nil {
		return model.Pool{}, fmt.Errorf("amp: %w", err)
	}

	pool := model.Pool{
		ID:          strings.ToLower(p.ID),
		Address:     common.HexToAddress(p.Address),
		PoolType:    p.PoolType,
		SwapFee:     swapFee,
		Amp:         amp,
		TotalShares: totalShares,
	}
	for _, token := range p.TokensList {
		if !common.IsHexAddress(token) {
			return model.Pool{}, fmt.Errorf("invalid token %q", token)
		}
		pool.TokensList = append(pool.TokensList, common.HexToAddress(token))
	}
	for _, token := range p.Tokens {
		if !common.IsHexAddress(token.Address) {
			return model.Pool{}, fmt.Errorf("invalid token %q", token.Address)
		}
		balance, err := parseDecimal(token.Balance)
		if err != nil {
			return model.Pool{}, fmt.Errorf("token %s balance: %w", token.Address, err)
		}
		weight, err := parseOptionalDecimal(token.Weight)
		if err != nil {
			return model.Pool{}, fmt.Errorf("token %s weight: %w", token.Address, err)
		}
		priceRate, err := parseOptionalDecimal(token.PriceRate)
		if err != nil {
			return model.Pool{}, fmt.Errorf("token %s price rate: %w", token.Address, err)
		}
		pool.Tokens = append(pool.Tokens, model.PoolToken{
			Address:   common.HexToAddress(token.Address),
			Balance:   balance,
			Decimals:  token.Decimals,
			Weight:    weight,
			PriceRate: priceRate,
		})
	}
	return pool, nil
}

func parseDecimal(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(value)
}

func parseOptionalDecimal(value *string) (*decimal.Decimal, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(*value))
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit] + "..."
}
