package overlay_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlease/lease-ledger/internal/adapter"
	"github.com/openlease/lease-ledger/internal/logger"
	"github.com/openlease/lease-ledger/internal/mocks"
	"github.com/openlease/lease-ledger/internal/overlay"
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

func TestKVStore_PutAndGet(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := mocks.NewMockKeyValueStore(ctrl)
	store := overlay.NewKVStore(kv, adapter.NewJSON(), time.Hour)

	entry := overlay.Entry{Remaining: 12, SubmittedAt: 1700000000}

	kv.EXPECT().
		Set(gomock.Any(), "prepay_3", `{"remaining":12,"ts":1700000000}`, time.Hour).
		Return(nil)
	require.NoError(t, store.Put(context.Background(), 3, entry))

	kv.EXPECT().
		Get(gomock.Any(), "prepay_3").
		Return(`{"remaining":12,"ts":1700000000}`, nil)
	got, err := store.Get(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, entry, got)
}

func TestKVStore_GetAbsent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := mocks.NewMockKeyValueStore(ctrl)
	store := overlay.NewKVStore(kv, adapter.NewJSON(), time.Hour)

	kv.EXPECT().Get(gomock.Any(), "prepay_9").Return("", adapter.ErrKeyNotFound)

	_, err := store.Get(context.Background(), 9)
	assert.ErrorIs(t, err, overlay.ErrNotFound)
}

func TestKVStore_MalformedEntryDiscarded(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := mocks.NewMockKeyValueStore(ctrl)
	store := overlay.NewKVStore(kv, adapter.NewJSON(), time.Hour)

	// A corrupt entry is deleted and reported as absent, never as an error
	kv.EXPECT().Get(gomock.Any(), "prepay_3").Return("{not json", nil)
	kv.EXPECT().Delete(gomock.Any(), "prepay_3").Return(nil)

	_, err := store.Get(context.Background(), 3)
	assert.ErrorIs(t, err, overlay.ErrNotFound)
}

func TestKVStore_BackendFailurePropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := mocks.NewMockKeyValueStore(ctrl)
	store := overlay.NewKVStore(kv, adapter.NewJSON(), time.Hour)

	kv.EXPECT().Get(gomock.Any(), "prepay_3").Return("", errors.New("redis down"))

	_, err := store.Get(context.Background(), 3)
	require.Error(t, err)
	assert.NotErrorIs(t, err, overlay.ErrNotFound)
}

func TestKVStore_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := mocks.NewMockKeyValueStore(ctrl)
	store := overlay.NewKVStore(kv, adapter.NewJSON(), time.Hour)

	kv.EXPECT().Delete(gomock.Any(), "prepay_3").Return(nil)
	assert.NoError(t, store.Delete(context.Background(), 3))
}

func TestMemStore_PutReplaces(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clock := mocks.NewMockClock(ctrl)
	clock.EXPECT().Now().Return(time.Unix(1700000000, 0)).AnyTimes()

	store := overlay.NewMemStore(clock, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, 1, overlay.Entry{Remaining: 5, SubmittedAt: 100}))
	require.NoError(t, store.Put(ctx, 1, overlay.Entry{Remaining: 9, SubmittedAt: 200}))

	got, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, overlay.Entry{Remaining: 9, SubmittedAt: 200}, got)
}

func TestMemStore_TTLExpiry(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	start := time.Unix(1700000000, 0)
	clock := mocks.NewMockClock(ctrl)
	store := overlay.NewMemStore(clock, time.Hour)
	ctx := context.Background()

	clock.EXPECT().Now().Return(start)
	require.NoError(t, store.Put(ctx, 1, overlay.Entry{Remaining: 5, SubmittedAt: 100}))

	// Within the TTL the entry is live
	clock.EXPECT().Now().Return(start.Add(30 * time.Minute))
	_, err := store.Get(ctx, 1)
	require.NoError(t, err)

	// Past the TTL it is gone
	clock.EXPECT().Now().Return(start.Add(2 * time.Hour))
	_, err = store.Get(ctx, 1)
	assert.ErrorIs(t, err, overlay.ErrNotFound)
}

func TestMemStore_DeleteAbsentIsNoError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clock := mocks.NewMockClock(ctrl)
	store := overlay.NewMemStore(clock, time.Hour)

	assert.NoError(t, store.Delete(context.Background(), 42))
}
