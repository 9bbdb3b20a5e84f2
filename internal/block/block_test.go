package block_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlease/lease-ledger/internal/block"
	"github.com/openlease/lease-ledger/internal/logger"
	"github.com/openlease/lease-ledger/internal/mocks"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

func TestProvider_GetLatestBlock_CachesWithinTTL(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fetcher := mocks.NewMockBlockFetcher(ctrl)
	clock := mocks.NewMockClock(ctrl)
	provider := block.NewProvider(fetcher, block.Config{TTL: 12 * time.Second, StaleWindow: time.Minute}, clock)
	ctx := context.Background()

	start := time.Unix(1700000000, 0)

	clock.EXPECT().Now().Return(start)
	fetcher.EXPECT().FetchLatestBlock(ctx).Return(uint64(100), nil)

	got, err := provider.GetLatestBlock(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), got)

	// A second read within the TTL is served from cache, no fetch
	clock.EXPECT().Now().Return(start.Add(5 * time.Second))
	got, err = provider.GetLatestBlock(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), got)

	// Past the TTL the head is fetched again
	clock.EXPECT().Now().Return(start.Add(20 * time.Second))
	fetcher.EXPECT().FetchLatestBlock(ctx).Return(uint64(102), nil)
	got, err = provider.GetLatestBlock(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(102), got)
}

func TestProvider_GetLatestBlock_ServesStaleOnFetchFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fetcher := mocks.NewMockBlockFetcher(ctrl)
	clock := mocks.NewMockClock(ctrl)
	provider := block.NewProvider(fetcher, block.Config{TTL: 12 * time.Second, StaleWindow: time.Minute}, clock)
	ctx := context.Background()

	start := time.Unix(1700000000, 0)

	clock.EXPECT().Now().Return(start)
	fetcher.EXPECT().FetchLatestBlock(ctx).Return(uint64(100), nil)
	_, err := provider.GetLatestBlock(ctx)
	require.NoError(t, err)

	// Expired but within the stale window: the old value is still served
	clock.EXPECT().Now().Return(start.Add(30 * time.Second))
	fetcher.EXPECT().FetchLatestBlock(ctx).Return(uint64(0), errors.New("rpc down"))
	got, err := provider.GetLatestBlock(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), got)

	// Beyond the stale window the failure propagates
	clock.EXPECT().Now().Return(start.Add(5 * time.Minute))
	fetcher.EXPECT().FetchLatestBlock(ctx).Return(uint64(0), errors.New("rpc down"))
	_, err = provider.GetLatestBlock(ctx)
	assert.Error(t, err)
}

func TestProvider_GetBlockTimestamp_CachesForever(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fetcher := mocks.NewMockBlockFetcher(ctrl)
	clock := mocks.NewMockClock(ctrl)
	// TimestampTTL 0 caches confirmed block timestamps indefinitely
	provider := block.NewProvider(fetcher, block.Config{TTL: 12 * time.Second, StaleWindow: time.Minute}, clock)
	ctx := context.Background()

	start := time.Unix(1700000000, 0)
	blockTime := time.Unix(1699990000, 0)

	clock.EXPECT().Now().Return(start)
	fetcher.EXPECT().FetchBlockTimestamp(ctx, uint64(50)).Return(blockTime, nil)

	got, err := provider.GetBlockTimestamp(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, blockTime, got)

	// Much later, still served from cache
	clock.EXPECT().Now().Return(start.Add(24 * time.Hour))
	got, err = provider.GetBlockTimestamp(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, blockTime, got)
}

func TestProvider_GetBlockTimestamp_FetchFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fetcher := mocks.NewMockBlockFetcher(ctrl)
	clock := mocks.NewMockClock(ctrl)
	provider := block.NewProvider(fetcher, block.Config{TTL: 12 * time.Second, StaleWindow: time.Minute}, clock)
	ctx := context.Background()

	clock.EXPECT().Now().Return(time.Unix(1700000000, 0))
	fetcher.EXPECT().FetchBlockTimestamp(ctx, uint64(50)).Return(time.Time{}, errors.New("rpc down"))

	_, err := provider.GetBlockTimestamp(ctx, 50)
	assert.Error(t, err)
}
