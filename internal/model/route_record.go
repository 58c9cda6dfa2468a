package model

import "time"

// RouteRecord is the persisted form of a cached pair entry.
type RouteRecord struct {
	ChainID    uint64    `json:"chain_id"`
	TakerToken string    `json:"taker_token"`
	MakerToken string    `json:"maker_token"`
	ExpiresAt  time.Time `json:"expires_at"`
	Routes     []Route   `json:"routes"`
}
