// Package block caches ledger block metadata. The latest block number is
// cached for a short TTL to bound RPC load during refreshes; block timestamps
// are immutable once confirmed and can be cached indefinitely. Timestamps are
// the fallback for payment events whose record carries no explicit timestamp.
package block

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/openlease/lease-ledger/internal/adapter"
	"github.com/openlease/lease-ledger/internal/logger"
)

// headInfo is the cached latest block number and when it was observed
type headInfo struct {
	number     uint64
	observedAt time.Time
}

// timestampInfo is a cached block timestamp and when it was cached
type timestampInfo struct {
	timestamp time.Time
	cachedAt  time.Time
}

// Provider gives cached access to block metadata
//
//go:generate mockgen -source=block.go -destination=../mocks/block_provider.go -package=mocks -mock_names=Provider=MockBlockProvider,Fetcher=MockBlockFetcher
type Provider interface {
	// GetLatestBlock returns the latest block number, potentially from cache
	GetLatestBlock(ctx context.Context) (uint64, error)

	// GetBlockTimestamp returns the timestamp of a given block, potentially
	// from cache
	GetBlockTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error)
}

// Fetcher fetches block metadata from the ledger node
type Fetcher interface {
	FetchLatestBlock(ctx context.Context) (uint64, error)
	FetchBlockTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error)
}

// Config holds caching configuration for the Provider
type Config struct {
	// TTL is how long a fetched latest-block value stays fresh
	TTL time.Duration

	// StaleWindow is how long a stale cached value may still be served
	// when a fetch fails. Older than this, the fetch error propagates.
	StaleWindow time.Duration

	// TimestampTTL is how long block timestamps are cached.
	// 0 caches forever, which is safe for confirmed blocks.
	TimestampTTL time.Duration
}

type provider struct {
	fetcher Fetcher
	config  Config
	clock   adapter.Clock

	mu         sync.RWMutex
	head       *headInfo
	timestamps map[uint64]*timestampInfo
}

// NewProvider creates a caching block metadata provider
func NewProvider(fetcher Fetcher, config Config, clock adapter.Clock) Provider {
	return &provider{
		fetcher:    fetcher,
		config:     config,
		clock:      clock,
		timestamps: make(map[uint64]*timestampInfo),
	}
}

func (p *provider) GetLatestBlock(ctx context.Context) (uint64, error) {
	p.mu.RLock()
	cached := p.head
	p.mu.RUnlock()

	now := p.clock.Now()

	if cached != nil && now.Sub(cached.observedAt) < p.config.TTL {
		return cached.number, nil
	}

	number, err := p.fetcher.FetchLatestBlock(ctx)
	if err != nil {
		if cached != nil && now.Sub(cached.observedAt) < p.config.StaleWindow {
			logger.DebugCtx(ctx, "Serving stale block number after fetch failure",
				zap.Uint64("block_number", cached.number),
				zap.Error(err))
			return cached.number, nil
		}
		return 0, fmt.Errorf("failed to fetch latest block and no valid cache available: %w", err)
	}

	p.mu.Lock()
	p.head = &headInfo{number: number, observedAt: now}
	p.mu.Unlock()

	return number, nil
}

func (p *provider) GetBlockTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error) {
	p.mu.RLock()
	cached := p.timestamps[blockNumber]
	p.mu.RUnlock()

	now := p.clock.Now()

	if cached != nil && (p.config.TimestampTTL == 0 || now.Sub(cached.cachedAt) < p.config.TimestampTTL) {
		return cached.timestamp, nil
	}

	timestamp, err := p.fetcher.FetchBlockTimestamp(ctx, blockNumber)
	if err != nil {
		if cached != nil && now.Sub(cached.cachedAt) < p.config.StaleWindow {
			return cached.timestamp, nil
		}
		return time.Time{}, fmt.Errorf("failed to fetch timestamp for block %d: %w", blockNumber, err)
	}

	p.mu.Lock()
	p.timestamps[blockNumber] = &timestampInfo{timestamp: timestamp, cachedAt: now}
	p.mu.Unlock()

	return timestamp, nil
}
