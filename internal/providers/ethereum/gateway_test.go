package ethereum_test

import (
	"context"
	"errors"
	"math/big"
	"os"
	"strings"
	"testing"
	"time"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlease/lease-ledger/internal/domain"
	"github.com/openlease/lease-ledger/internal/ledger"
	"github.com/openlease/lease-ledger/internal/logger"
	"github.com/openlease/lease-ledger/internal/mocks"
	"github.com/openlease/lease-ledger/internal/providers/ethereum"
)

const (
	testContract = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	testPayer    = "0x1111111111111111111111111111111111111111"
)

var rentPaidSignature = crypto.Keccak256Hash([]byte("RentPaid(address,uint256,uint256,uint256)"))

// locationOutputs mirrors the getLocation return tuple so tests can pack
// call results the way the contract encodes them.
const locationOutputsABI = `[
	{"constant":true,"inputs":[],"name":"getLocationCount","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"id","type":"uint256"}],"name":"getLocation","outputs":[{"name":"name","type":"string"},{"name":"monthlyRent","type":"uint256"},{"name":"tenant","type":"address"},{"name":"ownerSigned","type":"bool"},{"name":"tenantSigned","type":"bool"},{"name":"lastPaid","type":"uint256"},{"name":"active","type":"bool"}],"stateMutability":"view","type":"function"}
]`

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

type testGatewayMocks struct {
	ctrl      *gomock.Controller
	client    *mocks.MockEthClient
	submitter *mocks.MockTxSubmitter
	gateway   ledger.Gateway
}

func setupTestGateway(t *testing.T) *testGatewayMocks {
	ctrl := gomock.NewController(t)

	tm := &testGatewayMocks{
		ctrl:      ctrl,
		client:    mocks.NewMockEthClient(ctrl),
		submitter: mocks.NewMockTxSubmitter(ctrl),
	}

	gw, err := ethereum.NewGateway(tm.client, tm.submitter, ethereum.Config{
		ContractAddress:     testContract,
		ReceiptPollInterval: 10 * time.Millisecond,
	})
	require.NoError(t, err)
	tm.gateway = gw

	return tm
}

func word(v uint64) []byte {
	return common.LeftPadBytes(new(big.Int).SetUint64(v).Bytes(), 32)
}

func packOutputs(t *testing.T, method string, args ...interface{}) []byte {
	parsed, err := abi.JSON(strings.NewReader(locationOutputsABI))
	require.NoError(t, err)

	data, err := parsed.Methods[method].Outputs.Pack(args...)
	require.NoError(t, err)
	return data
}

func rentPaidLog(locationID, amount, timestamp uint64) types.Log {
	data := append(word(locationID), word(amount)...)
	if timestamp > 0 {
		data = append(data, word(timestamp)...)
	}
	return types.Log{
		Address:     common.HexToAddress(testContract),
		Topics:      []common.Hash{rentPaidSignature, common.HexToHash(testPayer)},
		Data:        data,
		BlockNumber: 120,
		TxHash:      common.HexToHash("0xdeadbeef"),
	}
}

func TestNewGateway_InvalidContractAddress(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, err := ethereum.NewGateway(mocks.NewMockEthClient(ctrl), nil, ethereum.Config{
		ContractAddress: "not-an-address",
	})
	assert.Error(t, err)
}

func TestParseRentPaidLog(t *testing.T) {
	event, err := ethereum.ParseRentPaidLog(rentPaidLog(3, 1000, 1700000000))
	require.NoError(t, err)

	assert.Equal(t, uint64(3), event.LocationID)
	assert.Equal(t, common.HexToAddress(testPayer).Hex(), event.Payer)
	assert.Equal(t, big.NewInt(1000), event.Amount)
	assert.Equal(t, uint64(1700000000), event.Timestamp)
	assert.Equal(t, uint64(120), event.BlockNumber)
}

func TestParseRentPaidLog_LegacyEncoding(t *testing.T) {
	// Older contract versions emit only (id, amount); the timestamp word is
	// absent and stays zero
	event, err := ethereum.ParseRentPaidLog(rentPaidLog(3, 1000, 0))
	require.NoError(t, err)

	assert.Equal(t, uint64(3), event.LocationID)
	assert.Equal(t, big.NewInt(1000), event.Amount)
	assert.Equal(t, uint64(0), event.Timestamp)
}

func TestParseRentPaidLog_Invalid(t *testing.T) {
	tests := []struct {
		name string
		log  types.Log
	}{
		{
			name: "missing payer topic",
			log: types.Log{
				Topics: []common.Hash{rentPaidSignature},
				Data:   append(word(1), word(2)...),
			},
		},
		{
			name: "wrong event signature",
			log: types.Log{
				Topics: []common.Hash{common.HexToHash("0x01"), common.HexToHash(testPayer)},
				Data:   append(word(1), word(2)...),
			},
		},
		{
			name: "truncated data",
			log: types.Log{
				Topics: []common.Hash{rentPaidSignature, common.HexToHash(testPayer)},
				Data:   word(1),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ethereum.ParseRentPaidLog(tt.log)
			assert.Error(t, err)
		})
	}
}

func TestGateway_GetLocationCount(t *testing.T) {
	tm := setupTestGateway(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	tm.client.EXPECT().
		CallContract(ctx, gomock.Any(), nil).
		DoAndReturn(func(_ context.Context, msg goethereum.CallMsg, _ *big.Int) ([]byte, error) {
			assert.Equal(t, common.HexToAddress(testContract), *msg.To)
			return packOutputs(t, "getLocationCount", big.NewInt(4)), nil
		})

	count, err := tm.gateway.GetLocationCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), count)
}

func TestGateway_GetLocation(t *testing.T) {
	tm := setupTestGateway(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	result := packOutputs(t, "getLocation",
		"Unit A", big.NewInt(1000), common.HexToAddress(testPayer),
		true, false, big.NewInt(1700000000), true)

	tm.client.EXPECT().CallContract(ctx, gomock.Any(), nil).Return(result, nil)

	loc, err := tm.gateway.GetLocation(ctx, 3)
	require.NoError(t, err)

	assert.Equal(t, uint64(3), loc.ID)
	assert.Equal(t, "Unit A", loc.Name)
	assert.Equal(t, big.NewInt(1000), loc.MonthlyRent)
	assert.Equal(t, common.HexToAddress(testPayer).Hex(), loc.Tenant)
	assert.True(t, loc.OwnerSigned)
	assert.False(t, loc.TenantSigned)
	assert.Equal(t, uint64(1700000000), loc.LastPaid)
	assert.True(t, loc.Active)
}

func TestGateway_GetLocation_OutOfRange(t *testing.T) {
	tm := setupTestGateway(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	tm.client.EXPECT().
		CallContract(ctx, gomock.Any(), nil).
		Return(nil, errors.New("execution reverted: location does not exist"))

	_, err := tm.gateway.GetLocation(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrLocationNotFound)
}

func TestGateway_GetLocation_EmptyResult(t *testing.T) {
	tm := setupTestGateway(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	tm.client.EXPECT().CallContract(ctx, gomock.Any(), nil).Return(nil, nil)

	_, err := tm.gateway.GetLocation(ctx, 0)
	assert.ErrorIs(t, err, domain.ErrLocationNotFound)
}

func TestGateway_GetPastPaymentEvents(t *testing.T) {
	tm := setupTestGateway(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	logs := []types.Log{
		rentPaidLog(0, 1000, 1700000000),
		// Unparseable logs are skipped, not fatal
		{Topics: []common.Hash{rentPaidSignature}, Data: word(1)},
		rentPaidLog(1, 2000, 1700001000),
	}

	tm.client.EXPECT().
		FilterLogs(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, query goethereum.FilterQuery) ([]types.Log, error) {
			assert.Equal(t, uint64(50), query.FromBlock.Uint64())
			assert.Equal(t, uint64(200), query.ToBlock.Uint64())
			assert.Equal(t, []common.Address{common.HexToAddress(testContract)}, query.Addresses)
			return logs, nil
		})

	events, err := tm.gateway.GetPastPaymentEvents(ctx, 50, 200)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, uint64(0), events[0].LocationID)
	assert.Equal(t, uint64(1), events[1].LocationID)
}

func TestGateway_GetPastPaymentEvents_OpenEndedUsesHead(t *testing.T) {
	tm := setupTestGateway(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	tm.client.EXPECT().
		HeaderByNumber(gomock.Any(), nil).
		Return(&types.Header{Number: big.NewInt(150)}, nil)
	tm.client.EXPECT().
		FilterLogs(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, query goethereum.FilterQuery) ([]types.Log, error) {
			assert.Equal(t, uint64(150), query.ToBlock.Uint64())
			return nil, nil
		})

	events, err := tm.gateway.GetPastPaymentEvents(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestGateway_GetPastPaymentEvents_NarrowsOnTooManyResults(t *testing.T) {
	tm := setupTestGateway(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()

	// The first full-range query overflows the provider limit; the retry
	// with a halved range succeeds
	first := tm.client.EXPECT().
		FilterLogs(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("query returned more than 10000 results"))
	tm.client.EXPECT().
		FilterLogs(gomock.Any(), gomock.Any()).
		Return([]types.Log{rentPaidLog(0, 1000, 1700000000)}, nil).
		After(first)
	tm.client.EXPECT().
		FilterLogs(gomock.Any(), gomock.Any()).
		Return(nil, nil).
		AnyTimes()

	events, err := tm.gateway.GetPastPaymentEvents(ctx, 0, 900000)
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestGateway_SubmitPayRent(t *testing.T) {
	tm := setupTestGateway(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	txHash := common.HexToHash("0xfeed")

	tm.submitter.EXPECT().
		Submit(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, msg goethereum.CallMsg) (common.Hash, error) {
			assert.Equal(t, common.HexToAddress(testContract), *msg.To)
			// The rent amount rides as the transaction value
			assert.Equal(t, big.NewInt(1000), msg.Value)
			assert.NotEmpty(t, msg.Data)
			return txHash, nil
		})

	ref, err := tm.gateway.SubmitPayRent(ctx, 3, big.NewInt(1000))
	require.NoError(t, err)
	assert.Equal(t, ledger.TxRef(txHash.Hex()), ref)
}

func TestGateway_SubmitCreateLocation_ReadOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gw, err := ethereum.NewGateway(mocks.NewMockEthClient(ctrl), nil, ethereum.Config{
		ContractAddress: testContract,
	})
	require.NoError(t, err)

	_, err = gw.SubmitCreateLocation(context.Background(), "Unit A", big.NewInt(1000))
	assert.ErrorContains(t, err, "read-only")
}

func TestGateway_SubmitCreateLocation_SubmitterFailure(t *testing.T) {
	tm := setupTestGateway(t)
	defer tm.ctrl.Finish()

	tm.submitter.EXPECT().
		Submit(gomock.Any(), gomock.Any()).
		Return(common.Hash{}, errors.New("nonce too low"))

	_, err := tm.gateway.SubmitCreateLocation(context.Background(), "Unit A", big.NewInt(1000))
	assert.ErrorContains(t, err, "failed to submit createLocation")
}

func TestGateway_AwaitConfirmation(t *testing.T) {
	tm := setupTestGateway(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	ref := ledger.TxRef("0x00000000000000000000000000000000000000000000000000000000000feed0")
	txHash := common.HexToHash(string(ref))

	// The receipt appears on the second poll
	tm.client.EXPECT().
		TransactionReceipt(ctx, txHash).
		Return(nil, goethereum.NotFound)
	tm.client.EXPECT().
		TransactionReceipt(ctx, txHash).
		Return(&types.Receipt{
			Status:      types.ReceiptStatusSuccessful,
			BlockNumber: big.NewInt(120),
		}, nil)
	tm.client.EXPECT().
		HeaderByNumber(ctx, big.NewInt(120)).
		Return(&types.Header{Number: big.NewInt(120), Time: 1700000100}, nil)

	conf, err := tm.gateway.AwaitConfirmation(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, ref, conf.TxRef)
	assert.Equal(t, uint64(120), conf.BlockNumber)
	assert.Equal(t, uint64(1700000100), conf.Timestamp)
}

func TestGateway_AwaitConfirmation_Timeout(t *testing.T) {
	tm := setupTestGateway(t)
	defer tm.ctrl.Finish()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	tm.client.EXPECT().
		TransactionReceipt(gomock.Any(), gomock.Any()).
		Return(nil, goethereum.NotFound).
		AnyTimes()

	_, err := tm.gateway.AwaitConfirmation(ctx, "0xfeed")
	assert.ErrorIs(t, err, domain.ErrConfirmationTimeout)
}

func TestGateway_AwaitConfirmation_Reverted(t *testing.T) {
	tm := setupTestGateway(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	tm.client.EXPECT().
		TransactionReceipt(ctx, gomock.Any()).
		Return(&types.Receipt{
			Status:      types.ReceiptStatusFailed,
			BlockNumber: big.NewInt(120),
		}, nil)

	_, err := tm.gateway.AwaitConfirmation(ctx, "0xfeed")
	assert.ErrorContains(t, err, "reverted")
}

func TestGateway_AwaitConfirmation_PermanentFailure(t *testing.T) {
	tm := setupTestGateway(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	tm.client.EXPECT().
		TransactionReceipt(ctx, gomock.Any()).
		Return(nil, errors.New("rpc down"))

	_, err := tm.gateway.AwaitConfirmation(ctx, "0xfeed")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrConfirmationTimeout)
}
