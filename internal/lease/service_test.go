package lease_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlease/lease-ledger/internal/domain"
	"github.com/openlease/lease-ledger/internal/lease"
	"github.com/openlease/lease-ledger/internal/ledger"
	"github.com/openlease/lease-ledger/internal/mocks"
	"github.com/openlease/lease-ledger/internal/overlay"
	"github.com/openlease/lease-ledger/internal/rent"
)

const (
	testTenant = "0xAbCd000000000000000000000000000000000001"
	testNow    = int64(1700000000)
	day        = uint64(domain.SECONDS_PER_DAY)
)

// testServiceMocks contains all the mocks needed for testing the service
type testServiceMocks struct {
	ctrl    *gomock.Controller
	gateway *mocks.MockGateway
	overlay *mocks.MockOverlayStore
	clock   *mocks.MockClock
	service *lease.Service
}

func setupTestService(t *testing.T) *testServiceMocks {
	ctrl := gomock.NewController(t)

	tm := &testServiceMocks{
		ctrl:    ctrl,
		gateway: mocks.NewMockGateway(ctrl),
		overlay: mocks.NewMockOverlayStore(ctrl),
		clock:   mocks.NewMockClock(ctrl),
	}

	store := lease.NewStore(tm.gateway, 1)
	engine := rent.NewEngine(tm.overlay, tm.clock)
	tm.service = lease.NewService(tm.gateway, store, tm.overlay, engine, tm.clock, 0)

	return tm
}

func payableLocation(lastPaid uint64) *domain.Location {
	return &domain.Location{
		ID:           3,
		Name:         "Unit A",
		MonthlyRent:  big.NewInt(1000),
		Tenant:       testTenant,
		OwnerSigned:  true,
		TenantSigned: true,
		LastPaid:     lastPaid,
		Active:       true,
	}
}

func TestService_Create(t *testing.T) {
	tm := setupTestService(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	conf := &ledger.Confirmation{TxRef: "0xabc", BlockNumber: 100, Timestamp: uint64(testNow)}

	tm.gateway.EXPECT().
		SubmitCreateLocation(ctx, "Unit A", big.NewInt(1000)).
		Return(ledger.TxRef("0xabc"), nil)
	tm.gateway.EXPECT().AwaitConfirmation(ctx, ledger.TxRef("0xabc")).Return(conf, nil)

	ref, got, err := tm.service.Create(ctx, "Unit A", big.NewInt(1000))
	require.NoError(t, err)
	assert.Equal(t, ledger.TxRef("0xabc"), ref)
	assert.Equal(t, conf, got)
}

func TestService_Create_Validation(t *testing.T) {
	tm := setupTestService(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()

	var precondition *domain.PreconditionError

	_, _, err := tm.service.Create(ctx, "", big.NewInt(1000))
	require.ErrorAs(t, err, &precondition)

	_, _, err = tm.service.Create(ctx, "Unit A", big.NewInt(0))
	require.ErrorAs(t, err, &precondition)

	_, _, err = tm.service.Create(ctx, "Unit A", nil)
	require.ErrorAs(t, err, &precondition)
}

func TestService_AssignTenant_InvalidIdentity(t *testing.T) {
	tm := setupTestService(t)
	defer tm.ctrl.Finish()

	var precondition *domain.PreconditionError
	_, _, err := tm.service.AssignTenant(context.Background(), 0, "not-an-address")
	require.ErrorAs(t, err, &precondition)
	assert.Equal(t, "invalid tenant identity", precondition.Reason)
}

func TestService_AssignTenant(t *testing.T) {
	tm := setupTestService(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	conf := &ledger.Confirmation{TxRef: "0xassign", BlockNumber: 100}

	// The existence check reads the ledger directly; the snapshot has never
	// been refreshed and must not be consulted.
	tm.gateway.EXPECT().GetLocation(ctx, uint64(3)).Return(payableLocation(0), nil)
	tm.gateway.EXPECT().
		SubmitAssignTenant(ctx, uint64(3), domain.NormalizeAddress(testTenant)).
		Return(ledger.TxRef("0xassign"), nil)
	tm.gateway.EXPECT().AwaitConfirmation(ctx, ledger.TxRef("0xassign")).Return(conf, nil)

	ref, got, err := tm.service.AssignTenant(ctx, 3, testTenant)
	require.NoError(t, err)
	assert.Equal(t, ledger.TxRef("0xassign"), ref)
	assert.Equal(t, conf, got)
}

func TestService_AssignTenant_UnknownLocation(t *testing.T) {
	tm := setupTestService(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	tm.gateway.EXPECT().GetLocation(ctx, uint64(42)).Return(nil, domain.ErrLocationNotFound)

	var precondition *domain.PreconditionError
	_, _, err := tm.service.AssignTenant(ctx, 42, testTenant)
	require.ErrorAs(t, err, &precondition)
	assert.Equal(t, "location does not exist", precondition.Reason)
}

func TestService_PayRent(t *testing.T) {
	tm := setupTestService(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	lastPaid := uint64(testNow) - 10*day // 20 days left
	conf := &ledger.Confirmation{TxRef: "0xpay", BlockNumber: 101, Timestamp: uint64(testNow)}

	tm.gateway.EXPECT().GetLocation(ctx, uint64(3)).Return(payableLocation(lastPaid), nil)
	tm.clock.EXPECT().Now().Return(time.Unix(testNow, 0))
	tm.gateway.EXPECT().
		SubmitPayRent(ctx, uint64(3), big.NewInt(1000)).
		Return(ledger.TxRef("0xpay"), nil)
	// The prediction captures the pre-payment state
	tm.overlay.EXPECT().
		Put(ctx, uint64(3), overlay.Entry{Remaining: 20, SubmittedAt: uint64(testNow)}).
		Return(nil)
	tm.gateway.EXPECT().AwaitConfirmation(ctx, ledger.TxRef("0xpay")).Return(conf, nil)

	ref, got, err := tm.service.PayRent(ctx, testTenant, 3, big.NewInt(1000))
	require.NoError(t, err)
	assert.Equal(t, ledger.TxRef("0xpay"), ref)
	assert.Equal(t, conf, got)
}

func TestService_PayRent_PreconditionFailures(t *testing.T) {
	tests := []struct {
		name     string
		location func() *domain.Location
		payer    string
		amount   *big.Int
		reason   string
	}{
		{
			name: "terminated lease",
			location: func() *domain.Location {
				loc := payableLocation(0)
				loc.Active = false
				return loc
			},
			payer:  testTenant,
			amount: big.NewInt(1000),
			reason: "lease has been terminated",
		},
		{
			name:     "payer is not the tenant",
			location: func() *domain.Location { return payableLocation(0) },
			payer:    "0x9999000000000000000000000000000000000000",
			amount:   big.NewInt(1000),
			reason:   "payer is not the assigned tenant",
		},
		{
			name: "owner has not signed",
			location: func() *domain.Location {
				loc := payableLocation(0)
				loc.OwnerSigned = false
				return loc
			},
			payer:  testTenant,
			amount: big.NewInt(1000),
			reason: "owner has not signed the lease",
		},
		{
			name:     "non-positive amount",
			location: func() *domain.Location { return payableLocation(0) },
			payer:    testTenant,
			amount:   big.NewInt(0),
			reason:   "amount must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := setupTestService(t)
			defer tm.ctrl.Finish()

			ctx := context.Background()
			tm.gateway.EXPECT().GetLocation(ctx, uint64(3)).Return(tt.location(), nil)

			// A rejected operation must leave no speculative entry behind:
			// no overlay.Put is expected on any of these paths.
			var precondition *domain.PreconditionError
			_, _, err := tm.service.PayRent(ctx, tt.payer, 3, tt.amount)
			require.ErrorAs(t, err, &precondition)
			assert.Equal(t, tt.reason, precondition.Reason)
		})
	}
}

func TestService_PayRent_LocationNotFound(t *testing.T) {
	tm := setupTestService(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	tm.gateway.EXPECT().GetLocation(ctx, uint64(3)).Return(nil, domain.ErrLocationNotFound)

	var precondition *domain.PreconditionError
	_, _, err := tm.service.PayRent(ctx, testTenant, 3, big.NewInt(1000))
	require.ErrorAs(t, err, &precondition)
	assert.Equal(t, "location does not exist", precondition.Reason)
}

func TestService_PayRent_GatewayReadFailure(t *testing.T) {
	tm := setupTestService(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	tm.gateway.EXPECT().GetLocation(ctx, uint64(3)).Return(nil, errors.New("rpc down"))

	_, _, err := tm.service.PayRent(ctx, testTenant, 3, big.NewInt(1000))
	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)
}

func TestService_PayRent_AutoSignsFirst(t *testing.T) {
	tm := setupTestService(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	loc := payableLocation(0)
	loc.TenantSigned = false

	signConf := &ledger.Confirmation{TxRef: "0xsign", BlockNumber: 100}
	payConf := &ledger.Confirmation{TxRef: "0xpay", BlockNumber: 101}

	tm.gateway.EXPECT().GetLocation(ctx, uint64(3)).Return(loc, nil)
	// Sign and payment are two independent confirmed submissions
	tm.gateway.EXPECT().SubmitTenantSign(ctx, uint64(3)).Return(ledger.TxRef("0xsign"), nil)
	tm.gateway.EXPECT().AwaitConfirmation(ctx, ledger.TxRef("0xsign")).Return(signConf, nil)
	tm.clock.EXPECT().Now().Return(time.Unix(testNow, 0))
	tm.gateway.EXPECT().SubmitPayRent(ctx, uint64(3), big.NewInt(1000)).Return(ledger.TxRef("0xpay"), nil)
	tm.overlay.EXPECT().
		Put(ctx, uint64(3), overlay.Entry{Remaining: 30, SubmittedAt: uint64(testNow)}).
		Return(nil)
	tm.gateway.EXPECT().AwaitConfirmation(ctx, ledger.TxRef("0xpay")).Return(payConf, nil)

	ref, got, err := tm.service.PayRent(ctx, testTenant, 3, big.NewInt(1000))
	require.NoError(t, err)
	assert.Equal(t, ledger.TxRef("0xpay"), ref)
	assert.Equal(t, payConf, got)
}

func TestService_PayRent_SubmissionFailure(t *testing.T) {
	tm := setupTestService(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()

	tm.gateway.EXPECT().GetLocation(ctx, uint64(3)).Return(payableLocation(0), nil)
	tm.clock.EXPECT().Now().Return(time.Unix(testNow, 0))
	tm.gateway.EXPECT().
		SubmitPayRent(ctx, uint64(3), big.NewInt(1000)).
		Return(ledger.TxRef(""), errors.New("nonce too low"))

	// No overlay entry when the submission itself failed
	var submission *domain.SubmissionError
	_, _, err := tm.service.PayRent(ctx, testTenant, 3, big.NewInt(1000))
	require.ErrorAs(t, err, &submission)
}

func TestService_PayRent_ConfirmationTimeoutKeepsEntry(t *testing.T) {
	tm := setupTestService(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	lastPaid := uint64(testNow) - 10*day

	tm.gateway.EXPECT().GetLocation(ctx, uint64(3)).Return(payableLocation(lastPaid), nil)
	tm.clock.EXPECT().Now().Return(time.Unix(testNow, 0))
	tm.gateway.EXPECT().SubmitPayRent(ctx, uint64(3), big.NewInt(1000)).Return(ledger.TxRef("0xpay"), nil)
	// The entry is recorded before the wait, so a timeout leaves it live
	tm.overlay.EXPECT().
		Put(ctx, uint64(3), overlay.Entry{Remaining: 20, SubmittedAt: uint64(testNow)}).
		Return(nil)
	tm.gateway.EXPECT().
		AwaitConfirmation(ctx, ledger.TxRef("0xpay")).
		Return(nil, domain.ErrConfirmationTimeout)

	ref, conf, err := tm.service.PayRent(ctx, testTenant, 3, big.NewInt(1000))
	assert.ErrorIs(t, err, domain.ErrConfirmationTimeout)
	assert.Equal(t, ledger.TxRef("0xpay"), ref)
	assert.Nil(t, conf)
}

func TestService_PayRent_OverlayFailureIsNonFatal(t *testing.T) {
	tm := setupTestService(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	conf := &ledger.Confirmation{TxRef: "0xpay", BlockNumber: 101}

	tm.gateway.EXPECT().GetLocation(ctx, uint64(3)).Return(payableLocation(0), nil)
	tm.clock.EXPECT().Now().Return(time.Unix(testNow, 0))
	tm.gateway.EXPECT().SubmitPayRent(ctx, uint64(3), big.NewInt(1000)).Return(ledger.TxRef("0xpay"), nil)
	tm.overlay.EXPECT().Put(ctx, uint64(3), gomock.Any()).Return(errors.New("redis down"))
	tm.gateway.EXPECT().AwaitConfirmation(ctx, ledger.TxRef("0xpay")).Return(conf, nil)

	// The payment is submitted and confirmed; overlay trouble must not fail it
	_, got, err := tm.service.PayRent(ctx, testTenant, 3, big.NewInt(1000))
	require.NoError(t, err)
	assert.Equal(t, conf, got)
}

func TestService_Terminate(t *testing.T) {
	tm := setupTestService(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	conf := &ledger.Confirmation{TxRef: "0xend", BlockNumber: 100}

	tm.gateway.EXPECT().GetLocation(ctx, uint64(3)).Return(payableLocation(0), nil)
	tm.gateway.EXPECT().SubmitTerminateLocation(ctx, uint64(3)).Return(ledger.TxRef("0xend"), nil)
	tm.gateway.EXPECT().AwaitConfirmation(ctx, ledger.TxRef("0xend")).Return(conf, nil)

	ref, got, err := tm.service.Terminate(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, ledger.TxRef("0xend"), ref)
	assert.Equal(t, conf, got)
}

func TestService_Terminate_UnknownLocation(t *testing.T) {
	tm := setupTestService(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	tm.gateway.EXPECT().GetLocation(ctx, uint64(42)).Return(nil, domain.ErrLocationNotFound)

	var precondition *domain.PreconditionError
	_, _, err := tm.service.Terminate(ctx, 42)
	require.ErrorAs(t, err, &precondition)
	assert.Equal(t, "location does not exist", precondition.Reason)
}

func TestService_Overview(t *testing.T) {
	tm := setupTestService(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	lastPaid := uint64(testNow) - 10*day

	tm.gateway.EXPECT().GetLocationCount(ctx).Return(uint64(1), nil)
	tm.gateway.EXPECT().GetLocation(gomock.Any(), uint64(0)).Return(payableLocation(lastPaid), nil)
	tm.clock.EXPECT().Now().Return(time.Unix(testNow, 0))
	tm.overlay.EXPECT().Get(ctx, uint64(3)).Return(overlay.Entry{}, overlay.ErrNotFound)

	views, err := tm.service.Overview(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, 20, views[0].DaysLeft)
}

func TestService_TenantLease_NotFound(t *testing.T) {
	tm := setupTestService(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	tm.gateway.EXPECT().GetLocationCount(ctx).Return(uint64(0), nil)

	_, err := tm.service.TenantLease(ctx, testTenant)
	assert.ErrorIs(t, err, domain.ErrNoLeaseForTenant)
}
