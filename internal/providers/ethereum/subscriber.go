package ethereum

import (
	"context"
	"fmt"
	"math/big"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/openlease/lease-ledger/internal/adapter"
	"github.com/openlease/lease-ledger/internal/logger"
	"github.com/openlease/lease-ledger/internal/messaging"
)

// SubscriberConfig holds the configuration for the payment event subscription
type SubscriberConfig struct {
	// WebSocketURL is the node endpoint (e.g. wss://mainnet.infura.io/ws/v3/KEY)
	WebSocketURL string
	// ContractAddress is the rental ledger contract
	ContractAddress string
}

type paymentSubscriber struct {
	client   adapter.EthClient
	contract common.Address
}

// NewSubscriber creates a subscriber that streams RentPaid events from the
// rental ledger contract over a WebSocket connection.
func NewSubscriber(client adapter.EthClient, cfg SubscriberConfig) (messaging.Subscriber, error) {
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid contract address: %s", cfg.ContractAddress)
	}
	return &paymentSubscriber{
		client:   client,
		contract: common.HexToAddress(cfg.ContractAddress),
	}, nil
}

// SubscribePayments subscribes to RentPaid events starting at fromBlock.
// A live log subscription only delivers newly mined logs, so events between
// fromBlock and the current head are replayed through the handler first.
func (s *paymentSubscriber) SubscribePayments(ctx context.Context, fromBlock uint64, handler messaging.PaymentHandler) error {
	query := goethereum.FilterQuery{
		Addresses: []common.Address{s.contract},
		Topics:    [][]common.Hash{{rentPaidEventSignature}},
	}

	if fromBlock > 0 {
		head, err := s.GetLatestBlock(ctx)
		if err != nil {
			return err
		}
		if fromBlock <= head {
			if err := s.replayPayments(ctx, fromBlock, head, handler); err != nil {
				return err
			}
		}
		// Blocks mined after the replay window come from the subscription
		query.FromBlock = new(big.Int).SetUint64(head + 1)
	}

	logs := make(chan types.Log)
	sub, err := s.client.SubscribeFilterLogs(ctx, query, logs)
	if err != nil {
		return fmt.Errorf("failed to subscribe to RentPaid logs: %w", err)
	}
	defer func() {
		logger.InfoCtx(ctx, "Unsubscribing from RentPaid logs")
		sub.Unsubscribe()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			return fmt.Errorf("subscription error: %w", err)
		case vLog := <-logs:
			event, err := ParseRentPaidLog(vLog)
			if err != nil {
				logger.WarnCtx(ctx, "Skipping unparseable RentPaid log",
					zap.String("tx_hash", vLog.TxHash.Hex()),
					zap.Error(err))
				continue
			}

			if err := handler(event); err != nil {
				logger.ErrorCtx(ctx, err, zap.String("message", "Error handling payment event"))
			}
		}
	}
}

// replayPayments feeds the handler every RentPaid event in [fromBlock, toBlock].
// A handler failure aborts the replay; the cursor has not advanced past the
// failed event, so the next run resumes from it.
func (s *paymentSubscriber) replayPayments(ctx context.Context, fromBlock, toBlock uint64, handler messaging.PaymentHandler) error {
	logger.InfoCtx(ctx, "Replaying missed RentPaid logs",
		zap.Uint64("from_block", fromBlock),
		zap.Uint64("to_block", toBlock))

	past, err := filterLogsPaginated(ctx, s.client, goethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{s.contract},
		Topics:    [][]common.Hash{{rentPaidEventSignature}},
	})
	if err != nil {
		return fmt.Errorf("failed to replay RentPaid logs: %w", err)
	}

	for _, vLog := range past {
		event, err := ParseRentPaidLog(vLog)
		if err != nil {
			logger.WarnCtx(ctx, "Skipping unparseable RentPaid log",
				zap.String("tx_hash", vLog.TxHash.Hex()),
				zap.Error(err))
			continue
		}
		if err := handler(event); err != nil {
			return fmt.Errorf("failed to handle replayed payment event: %w", err)
		}
	}

	return nil
}

// GetLatestBlock returns the latest block number
func (s *paymentSubscriber) GetLatestBlock(ctx context.Context) (uint64, error) {
	header, err := s.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block: %w", err)
	}
	return header.Number.Uint64(), nil
}

// Close closes the connection
func (s *paymentSubscriber) Close() {
	if s.client == nil {
		return
	}

	s.client.Close()
	logger.Info("Ledger WebSocket connection closed")
}
