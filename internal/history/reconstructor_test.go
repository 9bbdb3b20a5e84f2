package history_test

import (
	"context"
	"errors"
	"math/big"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlease/lease-ledger/internal/domain"
	"github.com/openlease/lease-ledger/internal/history"
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

type testReconstructorMocks struct {
	ctrl          *gomock.Controller
	gateway       *mocks.MockGateway
	blocks        *mocks.MockBlockProvider
	reconstructor *history.Reconstructor
}

func setupTestReconstructor(t *testing.T) *testReconstructorMocks {
	ctrl := gomock.NewController(t)

	tm := &testReconstructorMocks{
		ctrl:    ctrl,
		gateway: mocks.NewMockGateway(ctrl),
		blocks:  mocks.NewMockBlockProvider(ctrl),
	}
	tm.reconstructor = history.NewReconstructor(tm.gateway, tm.blocks)

	return tm
}

func paymentEvent(locationID, block, timestamp uint64) domain.PaymentEvent {
	return domain.PaymentEvent{
		LocationID:  locationID,
		Payer:       "0x1111111111111111111111111111111111111111",
		Amount:      big.NewInt(1e18),
		Timestamp:   timestamp,
		TxHash:      "0xtx",
		BlockNumber: block,
	}
}

func TestReconstructor_Rebuild(t *testing.T) {
	tm := setupTestReconstructor(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	events := []domain.PaymentEvent{
		paymentEvent(0, 100, 1700000000),
		paymentEvent(1, 105, 1700001000),
	}

	tm.gateway.EXPECT().GetPastPaymentEvents(ctx, uint64(50), uint64(0)).Return(events, nil)

	records, err := tm.reconstructor.Rebuild(ctx, 50)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 0, records[0].Index)
	assert.Equal(t, uint64(0), records[0].LocationID)
	assert.Equal(t, "1", records[0].Amount)
	assert.Equal(t, uint64(1700000000), records[0].PaidAt)
	assert.Equal(t, 1, records[1].Index)
}

func TestReconstructor_Rebuild_EmptyLedger(t *testing.T) {
	tm := setupTestReconstructor(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	tm.gateway.EXPECT().GetPastPaymentEvents(ctx, uint64(0), uint64(0)).Return(nil, nil)

	records, err := tm.reconstructor.Rebuild(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReconstructor_Rebuild_GatewayFailure(t *testing.T) {
	tm := setupTestReconstructor(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	tm.gateway.EXPECT().GetPastPaymentEvents(ctx, uint64(0), uint64(0)).Return(nil, errors.New("rpc down"))

	_, err := tm.reconstructor.Rebuild(ctx, 0)
	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)
}

func TestReconstructor_Rebuild_BlockTimestampFallback(t *testing.T) {
	tm := setupTestReconstructor(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	// Legacy encoding without a timestamp word
	events := []domain.PaymentEvent{paymentEvent(0, 100, 0)}

	tm.gateway.EXPECT().GetPastPaymentEvents(ctx, uint64(0), uint64(0)).Return(events, nil)
	tm.blocks.EXPECT().GetBlockTimestamp(ctx, uint64(100)).Return(time.Unix(1700000500, 0), nil)

	records, err := tm.reconstructor.Rebuild(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, uint64(1700000500), records[0].PaidAt)
}

func TestReconstructor_Rebuild_BlockTimestampFailureLeavesZero(t *testing.T) {
	tm := setupTestReconstructor(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	events := []domain.PaymentEvent{paymentEvent(0, 100, 0)}

	tm.gateway.EXPECT().GetPastPaymentEvents(ctx, uint64(0), uint64(0)).Return(events, nil)
	tm.blocks.EXPECT().GetBlockTimestamp(ctx, uint64(100)).Return(time.Time{}, errors.New("rpc down"))

	// The record is still produced; only the timestamp stays unknown
	records, err := tm.reconstructor.Rebuild(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, uint64(0), records[0].PaidAt)
}

func TestReconstructor_RebuildForLocation(t *testing.T) {
	tm := setupTestReconstructor(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	events := []domain.PaymentEvent{
		paymentEvent(0, 100, 1700000000),
		paymentEvent(1, 105, 1700001000),
		paymentEvent(0, 110, 1700002000),
	}

	tm.gateway.EXPECT().GetPastPaymentEvents(ctx, uint64(0), uint64(0)).Return(events, nil)

	records, err := tm.reconstructor.RebuildForLocation(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	// Indexes are positions within the filtered sequence
	assert.Equal(t, 0, records[0].Index)
	assert.Equal(t, uint64(100), records[0].BlockNumber)
	assert.Equal(t, 1, records[1].Index)
	assert.Equal(t, uint64(110), records[1].BlockNumber)
}

func TestReconstructor_LastPayment(t *testing.T) {
	tm := setupTestReconstructor(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	events := []domain.PaymentEvent{
		paymentEvent(0, 100, 1700000000),
		paymentEvent(1, 105, 1700001000),
	}

	tm.gateway.EXPECT().GetPastPaymentEvents(ctx, uint64(0), uint64(0)).Return(events, nil)

	record, found, err := tm.reconstructor.LastPayment(ctx, 0)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, uint64(105), record.BlockNumber)
}

func TestReconstructor_LastPayment_NeverPaid(t *testing.T) {
	tm := setupTestReconstructor(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	tm.gateway.EXPECT().GetPastPaymentEvents(ctx, uint64(0), uint64(0)).Return(nil, nil)

	// An empty history is a normal state, not an error
	_, found, err := tm.reconstructor.LastPayment(ctx, 0)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		name string
		wei  *big.Int
		want string
	}{
		{"nil", nil, "0"},
		{"zero", big.NewInt(0), "0"},
		{"one unit", big.NewInt(1e18), "1"},
		{"fraction trims zeros", big.NewInt(5e17), "0.5"},
		{"small remainder", big.NewInt(1), "0.000000000000000001"},
		{"mixed", new(big.Int).Add(new(big.Int).Mul(big.NewInt(2), big.NewInt(1e18)), big.NewInt(25e16)), "2.25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, history.FormatAmount(tt.wei))
		})
	}
}
