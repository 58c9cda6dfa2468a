package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"swapScope/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS balancer_pools (
	chain_id     BIGINT NOT NULL,
	pool_id      TEXT NOT NULL,
	pool_address TEXT NOT NULL,
	pool_type    TEXT NOT NULL,
	swap_fee     TEXT NOT NULL,
	amp          TEXT,
	total_shares TEXT NOT NULL,
	tokens_list  TEXT[] NOT NULL,
	tokens       JSONB NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (chain_id, pool_id)
);
CREATE TABLE IF NOT EXISTS pair_routes (
	chain_id    BIGINT NOT NULL,
	taker_token TEXT NOT NULL,
	maker_token TEXT NOT NULL,
	expires_at  TIMESTAMPTZ NOT NULL,
	routes      JSONB NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (chain_id, taker_token, maker_token)
);
`

// Store persists pool snapshots and cached pair routes.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

type poolRow struct {
	PoolID      string
	Address     string
	PoolType    string
	SwapFee     string
	Amp         *string
	TotalShares string
	TokensList  []string
	Tokens      []byte
}

func encodePool(pool model.Pool) (poolRow, error) {
	tokens, err := json.Marshal(pool.Tokens)
	if err != nil {
		return poolRow{}, fmt.Errorf("marshal tokens of %s: %w", pool.ID, err)
	}
	row := poolRow{
		PoolID:      strings.ToLower(pool.ID),
		Address:     pool.Address.Hex(),
		PoolType:    pool.PoolType,
		SwapFee:     pool.SwapFee.String(),
		TotalShares: pool.TotalShares.String(),
		TokensList:  make([]string, 0, len(pool.TokensList)),
		Tokens:      tokens,
	}
	if pool.Amp != nil {
		amp := pool.Amp.String()
		row.Amp = &amp
	}
	for _, token := range pool.TokensList {
		row.TokensList = append(row.TokensList, token.Hex())
	}
	return row, nil
}

func decodePool(row poolRow) (model.Pool, error) {
	swapFee, err := decimal.NewFromString(row.SwapFee)
	if err != nil {
		return model.Pool{}, fmt.Errorf("swap fee of %s: %w", row.PoolID, err)
	}
	totalShares, err := decimal.NewFromString(row.TotalShares)
	if err != nil {
		return model.Pool{}, fmt.Errorf("total shares of %s: %w", row.PoolID, err)
	}
	pool := model.Pool{
		ID:          row.PoolID,
		Address:     common.HexToAddress(row.Address),
		PoolType:    row.PoolType,
		SwapFee:     swapFee,
		TotalShares: totalShares,
	}
	if row.Amp != nil {
		amp, err := decimal.NewFromString(*row.Amp)
		if err != nil {
			return model.Pool{}, fmt.Errorf("amp of %s: %w", row.PoolID, err)
		}
		pool.Amp = &amp
	}
	for _, token := range row.TokensList {
		pool.TokensList = append(pool.TokensList, common.HexToAddress(token))
	}
	if len(row.Tokens) > 0 {
		if err := json.Unmarshal(row.Tokens, &pool.Tokens); err != nil {
			return model.Pool{}, fmt.Errorf("tokens of %s: %w", row.PoolID, err)
		}
	}
	return pool, nil
}

// UpsertPools inserts or refreshes a pool snapshot.
func (s *Store) UpsertPools(ctx context.Context, chainID uint64, pools []model.Pool) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pool := range pools {
		row, err := encodePool(pool)
		if err != nil {
			return err
		}
		batch.Queue(`
			INSERT INTO balancer_pools (
				chain_id, pool_id, pool_address, pool_type, swap_fee, amp, total_shares, tokens_list, tokens, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
			ON CONFLICT (chain_id, pool_id)
			DO UPDATE SET
				pool_address = EXCLUDED.pool_address,
				pool_type = EXCLUDED.pool_type,
				swap_fee = EXCLUDED.swap_fee,
				amp = EXCLUDED.amp,
				total_shares = EXCLUDED.total_shares,
				tokens_list = EXCLUDED.tokens_list,
				tokens = EXCLUDED.tokens,
				updated_at = now()
		`,
			int64(chainID),
			row.PoolID,
			row.Address,
			row.PoolType,
			row.SwapFee,
			row.Amp,
			row.TotalShares,
			row.TokensList,
			row.Tokens,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range pools {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadPools returns the stored snapshot for a chain.
func (s *Store) LoadPools(ctx context.Context, chainID uint64) ([]model.Pool, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT pool_id, pool_address, pool_type, swap_fee, amp, total_shares, tokens_list, tokens
		FROM balancer_pools
		WHERE chain_id = $1
		ORDER BY pool_id
	`, int64(chainID))
	if err != nil {
		return nil, fmt.Errorf("query pools: %w", err)
	}
	defer rows.Close()

	var pools []model.Pool
	for rows.Next() {
		var row poolRow
		if err := rows.Scan(&row.PoolID, &row.Address, &row.PoolType, &row.SwapFee, &row.Amp, &row.TotalShares, &row.TokensList, &row.Tokens); err != nil {
			return nil, fmt.Errorf("scan pool: %w", err)
		}
		pool, err := decodePool(row)
		if err != nil {
			return nil, err
		}
		pools = append(pools, pool)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pools: %w", err)
	}
	return pools, nil
}

// UpsertRoutes stores cached pair routes.
func (s *Store) UpsertRoutes(ctx context.Context, records []model.RouteRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, record := range records {
		routes, err := json.Marshal(record.Routes)
		if err != nil {
			return fmt.Errorf("marshal routes %s>%s: %w", record.TakerToken, record.MakerToken, err)
		}
		batch.Queue(`
			INSERT INTO pair_routes (chain_id, taker_token, maker_token, expires_at, routes, updated_at)
			VALUES ($1, $2, $3, $4, $5, now())
			ON CONFLICT (chain_id, taker_token, maker_token)
			DO UPDATE SET
				expires_at = EXCLUDED.expires_at,
				routes = EXCLUDED.routes,
				updated_at = now()
		`,
			int64(record.ChainID),
			strings.ToLower(record.TakerToken),
			strings.ToLower(record.MakerToken),
			record.ExpiresAt,
			routes,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadRoutes returns the routes of a chain still valid at now.
func (s *Store) LoadRoutes(ctx context.Context, chainID uint64, now time.Time) ([]model.RouteRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT taker_token, maker_token, expires_at, routes
		FROM pair_routes
		WHERE chain_id = $1 AND expires_at > $2
	`, int64(chainID), now)
	if err != nil {
		return nil, fmt.Errorf("query routes: %w", err)
	}
	defer rows.Close()

	var records []model.RouteRecord
	for rows.Next() {
		record := model.RouteRecord{ChainID: chainID}
		var routes []byte
		if err := rows.Scan(&record.TakerToken, &record.MakerToken, &record.ExpiresAt, &routes); err != nil {
			return nil, fmt.Errorf("scan route: %w", err)
		}
		if err := json.Unmarshal(routes, &record.Routes); err != nil {
			return nil, fmt.Errorf("decode routes %s>%s: %w", record.TakerToken, record.MakerToken, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate routes: %w", err)
	}
	return records, nil
}

// DeleteExpiredRoutes drops routes that expired at or before now.
func (s *Store) DeleteExpiredRoutes(ctx context.Context, chainID uint64, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM pair_routes WHERE chain_id = $1 AND expires_at <= $2`, int64(chainID), now)
	if err != nil {
		return 0, fmt.Errorf("delete expired routes: %w", err)
	}
	return tag.RowsAffected(), nil
}
