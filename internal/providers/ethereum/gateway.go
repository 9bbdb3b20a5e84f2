// Package ethereum implements the ledger gateway against an EVM rental
// ledger contract.
package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/openlease/lease-ledger/internal/adapter"
	"github.com/openlease/lease-ledger/internal/domain"
	"github.com/openlease/lease-ledger/internal/ledger"
	"github.com/openlease/lease-ledger/internal/logger"
)

// rentalLedgerABI covers the contract surface the engine uses. The
// getLocation return tuple is positional: (name, monthlyRent, tenant,
// ownerSigned, tenantSigned, lastPaid, active).
const rentalLedgerABI = `[
	{"constant":true,"inputs":[],"name":"getLocationCount","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"id","type":"uint256"}],"name":"getLocation","outputs":[{"name":"name","type":"string"},{"name":"monthlyRent","type":"uint256"},{"name":"tenant","type":"address"},{"name":"ownerSigned","type":"bool"},{"name":"tenantSigned","type":"bool"},{"name":"lastPaid","type":"uint256"},{"name":"active","type":"bool"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"name","type":"string"},{"name":"monthlyRent","type":"uint256"}],"name":"createLocation","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"name":"id","type":"uint256"},{"name":"tenant","type":"address"}],"name":"assignTenant","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"name":"id","type":"uint256"}],"name":"tenantSign","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"name":"id","type":"uint256"}],"name":"payRent","outputs":[],"stateMutability":"payable","type":"function"},
	{"inputs":[{"name":"id","type":"uint256"}],"name":"terminateLocation","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"tenant","type":"address"},{"indexed":false,"name":"id","type":"uint256"},{"indexed":false,"name":"amount","type":"uint256"},{"indexed":false,"name":"timestamp","type":"uint256"}],"name":"RentPaid","type":"event"}
]`

// RentPaid(address indexed tenant, uint256 id, uint256 amount, uint256 timestamp)
var rentPaidEventSignature = crypto.Keccak256Hash([]byte("RentPaid(address,uint256,uint256,uint256)"))

// Config holds the gateway configuration
type Config struct {
	ContractAddress string
	// ReceiptPollInterval is the base interval for confirmation polling
	ReceiptPollInterval time.Duration
}

type gateway struct {
	client    adapter.EthClient
	submitter adapter.TxSubmitter
	contract  common.Address
	abi       abi.ABI
	config    Config
}

// NewGateway creates a ledger gateway bound to the rental ledger contract.
// submitter may be nil for read-only deployments; Submit* calls then fail.
func NewGateway(client adapter.EthClient, submitter adapter.TxSubmitter, config Config) (ledger.Gateway, error) {
	parsed, err := abi.JSON(strings.NewReader(rentalLedgerABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ledger ABI: %w", err)
	}
	if !common.IsHexAddress(config.ContractAddress) {
		return nil, fmt.Errorf("invalid contract address: %s", config.ContractAddress)
	}
	if config.ReceiptPollInterval <= 0 {
		config.ReceiptPollInterval = 2 * time.Second
	}

	return &gateway{
		client:    client,
		submitter: submitter,
		contract:  common.HexToAddress(config.ContractAddress),
		abi:       parsed,
		config:    config,
	}, nil
}

// GetLocationCount returns the number of locations ever created
func (g *gateway) GetLocationCount(ctx context.Context) (uint64, error) {
	data, err := g.abi.Pack("getLocationCount")
	if err != nil {
		return 0, fmt.Errorf("failed to pack getLocationCount: %w", err)
	}

	result, err := g.client.CallContract(ctx, goethereum.CallMsg{To: &g.contract, Data: data}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to call getLocationCount: %w", err)
	}

	var count *big.Int
	if err := g.abi.UnpackIntoInterface(&count, "getLocationCount", result); err != nil {
		return 0, fmt.Errorf("failed to unpack getLocationCount result: %w", err)
	}

	return count.Uint64(), nil
}

// GetLocation returns the location record at the given index
func (g *gateway) GetLocation(ctx context.Context, id uint64) (*domain.Location, error) {
	data, err := g.abi.Pack("getLocation", new(big.Int).SetUint64(id))
	if err != nil {
		return nil, fmt.Errorf("failed to pack getLocation: %w", err)
	}

	result, err := g.client.CallContract(ctx, goethereum.CallMsg{To: &g.contract, Data: data}, nil)
	if err != nil {
		// The contract reverts on out-of-range ids
		if isRevertError(err) {
			return nil, domain.ErrLocationNotFound
		}
		return nil, fmt.Errorf("failed to call getLocation: %w", err)
	}
	if len(result) == 0 {
		return nil, domain.ErrLocationNotFound
	}

	vals, err := g.abi.Unpack("getLocation", result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack getLocation result: %w", err)
	}
	if len(vals) != 7 {
		return nil, fmt.Errorf("unexpected getLocation tuple size: %d", len(vals))
	}

	name, ok0 := vals[0].(string)
	rentAmount, ok1 := vals[1].(*big.Int)
	tenant, ok2 := vals[2].(common.Address)
	ownerSigned, ok3 := vals[3].(bool)
	tenantSigned, ok4 := vals[4].(bool)
	lastPaid, ok5 := vals[5].(*big.Int)
	active, ok6 := vals[6].(bool)
	if !(ok0 && ok1 && ok2 && ok3 && ok4 && ok5 && ok6) {
		return nil, fmt.Errorf("unexpected getLocation tuple types")
	}

	return &domain.Location{
		ID:           id,
		Name:         name,
		MonthlyRent:  rentAmount,
		Tenant:       tenant.Hex(),
		OwnerSigned:  ownerSigned,
		TenantSigned: tenantSigned,
		LastPaid:     lastPaid.Uint64(),
		Active:       active,
	}, nil
}

// GetPastPaymentEvents returns all RentPaid events in [fromBlock, toBlock]
// in emission order. toBlock == 0 means the latest block.
func (g *gateway) GetPastPaymentEvents(ctx context.Context, fromBlock, toBlock uint64) ([]domain.PaymentEvent, error) {
	query := goethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		Addresses: []common.Address{g.contract},
		Topics:    [][]common.Hash{{rentPaidEventSignature}},
	}
	if toBlock > 0 {
		query.ToBlock = new(big.Int).SetUint64(toBlock)
	}

	logs, err := filterLogsPaginated(ctx, g.client, query)
	if err != nil {
		return nil, fmt.Errorf("failed to filter RentPaid logs: %w", err)
	}

	events := make([]domain.PaymentEvent, 0, len(logs))
	for _, vLog := range logs {
		event, err := ParseRentPaidLog(vLog)
		if err != nil {
			logger.WarnCtx(ctx, "Skipping unparseable RentPaid log",
				zap.String("tx_hash", vLog.TxHash.Hex()),
				zap.Error(err))
			continue
		}
		events = append(events, *event)
	}

	return events, nil
}

// filterLogsPaginated splits a log query into bounded block ranges and
// halves the range on "too many results" responses, to stay within provider
// log limits. Shared by the gateway's past-event scan and the subscriber's
// catch-up replay.
func filterLogsPaginated(ctx context.Context, client adapter.EthClient, query goethereum.FilterQuery) ([]types.Log, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	fromBlock := big.NewInt(0)
	if query.FromBlock != nil {
		fromBlock = query.FromBlock
	}

	toBlock := query.ToBlock
	if toBlock == nil {
		header, err := client.HeaderByNumber(timeoutCtx, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to get latest block: %w", err)
		}
		toBlock = header.Number
	}

	var allLogs []types.Log
	currentFrom := new(big.Int).Set(fromBlock)
	stepSize := uint64(1000000)

	for currentFrom.Cmp(toBlock) <= 0 {
		currentTo := new(big.Int).Add(currentFrom, new(big.Int).SetUint64(stepSize-1))
		if currentTo.Cmp(toBlock) > 0 {
			currentTo.Set(toBlock)
		}

		rangeQuery := query
		rangeQuery.FromBlock = new(big.Int).Set(currentFrom)
		rangeQuery.ToBlock = new(big.Int).Set(currentTo)

		logs, err := client.FilterLogs(timeoutCtx, rangeQuery)
		if err != nil {
			if !isTooManyResultsError(err) {
				return nil, err
			}

			stepSize = stepSize / 2
			if stepSize == 0 {
				return nil, fmt.Errorf("log range %d-%d cannot be narrowed further: %w",
					currentFrom.Uint64(), currentTo.Uint64(), err)
			}
			logger.WarnCtx(ctx, "Too many results, reducing log query step size",
				zap.Uint64("new_step_size", stepSize),
				zap.Uint64("from_block", currentFrom.Uint64()))
			continue
		}

		allLogs = append(allLogs, logs...)
		currentFrom.SetUint64(currentTo.Uint64() + 1)
	}

	return allLogs, nil
}

// ParseRentPaidLog parses a RentPaid log into a payment event. Older contract
// versions emit only (id, amount) in the data; the missing timestamp is left
// as zero for the caller to derive from the confirming block.
func ParseRentPaidLog(vLog types.Log) (*domain.PaymentEvent, error) {
	if len(vLog.Topics) != 2 || vLog.Topics[0] != rentPaidEventSignature {
		return nil, fmt.Errorf("not a RentPaid log: %d topics", len(vLog.Topics))
	}
	if len(vLog.Data) < 64 {
		return nil, fmt.Errorf("invalid RentPaid log: %d data bytes", len(vLog.Data))
	}

	event := &domain.PaymentEvent{
		LocationID:  new(big.Int).SetBytes(vLog.Data[0:32]).Uint64(),
		Payer:       common.BytesToAddress(vLog.Topics[1].Bytes()).Hex(),
		Amount:      new(big.Int).SetBytes(vLog.Data[32:64]),
		TxHash:      vLog.TxHash.Hex(),
		BlockNumber: vLog.BlockNumber,
	}
	if len(vLog.Data) >= 96 {
		event.Timestamp = new(big.Int).SetBytes(vLog.Data[64:96]).Uint64()
	}

	return event, nil
}

// SubmitCreateLocation appends a new location at id = count
func (g *gateway) SubmitCreateLocation(ctx context.Context, name string, monthlyRent *big.Int) (ledger.TxRef, error) {
	return g.submit(ctx, nil, "createLocation", name, monthlyRent)
}

// SubmitAssignTenant sets the tenant of a location
func (g *gateway) SubmitAssignTenant(ctx context.Context, id uint64, tenant string) (ledger.TxRef, error) {
	return g.submit(ctx, nil, "assignTenant", new(big.Int).SetUint64(id), common.HexToAddress(tenant))
}

// SubmitTenantSign marks the lease as signed by the tenant
func (g *gateway) SubmitTenantSign(ctx context.Context, id uint64) (ledger.TxRef, error) {
	return g.submit(ctx, nil, "tenantSign", new(big.Int).SetUint64(id))
}

// SubmitPayRent pays the given amount of rent for a location. The amount
// rides as the transaction value; the contract credits it to the owner.
func (g *gateway) SubmitPayRent(ctx context.Context, id uint64, amount *big.Int) (ledger.TxRef, error) {
	return g.submit(ctx, amount, "payRent", new(big.Int).SetUint64(id))
}

// SubmitTerminateLocation deactivates a location
func (g *gateway) SubmitTerminateLocation(ctx context.Context, id uint64) (ledger.TxRef, error) {
	return g.submit(ctx, nil, "terminateLocation", new(big.Int).SetUint64(id))
}

func (g *gateway) submit(ctx context.Context, value *big.Int, method string, args ...interface{}) (ledger.TxRef, error) {
	if g.submitter == nil {
		return "", fmt.Errorf("gateway is read-only: no transaction submitter configured")
	}

	data, err := g.abi.Pack(method, args...)
	if err != nil {
		return "", fmt.Errorf("failed to pack %s: %w", method, err)
	}

	hash, err := g.submitter.Submit(ctx, goethereum.CallMsg{
		To:    &g.contract,
		Value: value,
		Data:  data,
	})
	if err != nil {
		return "", fmt.Errorf("failed to submit %s: %w", method, err)
	}

	logger.InfoCtx(ctx, "Submitted ledger transaction",
		zap.String("method", method),
		zap.String("tx_hash", hash.Hex()))
	return ledger.TxRef(hash.Hex()), nil
}

// AwaitConfirmation polls for the transaction receipt until the transaction
// is mined or ctx expires.
func (g *gateway) AwaitConfirmation(ctx context.Context, ref ledger.TxRef) (*ledger.Confirmation, error) {
	txHash := common.HexToHash(string(ref))

	policy := backoff.WithContext(backoff.NewConstantBackOff(g.config.ReceiptPollInterval), ctx)
	receipt, err := backoff.RetryWithData(func() (*types.Receipt, error) {
		r, err := g.client.TransactionReceipt(ctx, txHash)
		if err != nil {
			if errors.Is(err, goethereum.NotFound) {
				return nil, fmt.Errorf("transaction %s not yet mined", ref)
			}
			return nil, backoff.Permanent(fmt.Errorf("failed to fetch receipt: %w", err))
		}
		return r, nil
	}, policy)
	if err != nil {
		if ctx.Err() != nil {
			return nil, domain.ErrConfirmationTimeout
		}
		return nil, err
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("transaction %s reverted in block %d", ref, receipt.BlockNumber.Uint64())
	}

	header, err := g.client.HeaderByNumber(ctx, receipt.BlockNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get confirming block header: %w", err)
	}

	return &ledger.Confirmation{
		TxRef:       ref,
		BlockNumber: receipt.BlockNumber.Uint64(),
		Timestamp:   header.Time,
	}, nil
}

// Close closes the underlying connection
func (g *gateway) Close() {
	g.client.Close()
}

// isRevertError checks if a contract call failed with an EVM revert
func isRevertError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "execution reverted") ||
		strings.Contains(err.Error(), "revert")
}

// isTooManyResultsError checks if the error is related to too many results
func isTooManyResultsError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	return strings.Contains(errStr, "query returned more than 10000 results") ||
		strings.Contains(errStr, "query timeout exceeded") ||
		strings.Contains(errStr, "too many results") ||
		strings.Contains(errStr, "exceeded maximum")
}
