// Package emitter streams confirmed RentPaid events from the ledger into the
// message broker, checkpointing its position so a restart resumes where the
// previous run stopped.
package emitter

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/openlease/lease-ledger/internal/adapter"
	"github.com/openlease/lease-ledger/internal/domain"
	"github.com/openlease/lease-ledger/internal/logger"
	"github.com/openlease/lease-ledger/internal/messaging"
	"github.com/openlease/lease-ledger/internal/store"
)

// Config holds the configuration for the payment event emitter
type Config struct {
	// LedgerName keys the block cursor in the store
	LedgerName string
	// StartBlock overrides the stored cursor when non-zero
	StartBlock uint64
	// CursorSaveFreq saves the cursor every N blocks
	CursorSaveFreq uint64
	// CursorSaveDelay saves the cursor at least every interval
	CursorSaveDelay time.Duration
}

// Emitter runs the payment event pipeline
//
//go:generate mockgen -source=emitter.go -destination=../mocks/emitter.go -package=mocks -mock_names=Emitter=MockEmitter
type Emitter interface {
	// Run starts the pipeline and blocks until it fails or ctx is canceled
	Run(ctx context.Context) error
	// Close closes the pipeline and cleans up resources
	Close()
}

type emitter struct {
	subscriber messaging.Subscriber
	publisher  messaging.Publisher
	cursors    store.CursorStore
	config     Config
	clock      adapter.Clock
}

// NewEmitter creates a payment event emitter
func NewEmitter(
	sub messaging.Subscriber,
	pub messaging.Publisher,
	cursors store.CursorStore,
	cfg Config,
	clock adapter.Clock,
) Emitter {
	return &emitter{
		subscriber: sub,
		publisher:  pub,
		cursors:    cursors,
		config:     cfg,
		clock:      clock,
	}
}

// Run starts the payment event pipeline
func (e *emitter) Run(ctx context.Context) error {
	startBlock, err := e.resolveStartBlock(ctx)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info("Starting payment event subscription",
			zap.String("ledger", e.config.LedgerName),
			zap.Uint64("from_block", startBlock))

		lastSavedBlock := uint64(0)
		lastSaveTime := e.clock.Now()

		handler := func(event *domain.PaymentEvent) error {
			if err := e.publisher.PublishPayment(ctx, event); err != nil {
				return fmt.Errorf("failed to publish payment %s: %w", event.TxHash, err)
			}

			// Checkpoint every N blocks or every save interval, whichever
			// comes first. Losing a checkpoint only causes re-publishing,
			// never loss, so failures are logged and skipped.
			shouldSave := event.BlockNumber-lastSavedBlock >= e.config.CursorSaveFreq ||
				e.clock.Since(lastSaveTime) >= e.config.CursorSaveDelay

			if shouldSave {
				if err := e.cursors.SetBlockCursor(ctx, e.config.LedgerName, event.BlockNumber); err != nil {
					logger.WarnCtx(ctx, "Failed to save block cursor", zap.Error(err))
				} else {
					lastSavedBlock = event.BlockNumber
					lastSaveTime = e.clock.Now()
				}
			}

			return nil
		}

		if err := e.subscriber.SubscribePayments(ctx, startBlock, handler); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// resolveStartBlock picks the first block to process: the configured override,
// the stored cursor plus one, or the current ledger head for a fresh start.
func (e *emitter) resolveStartBlock(ctx context.Context) (uint64, error) {
	if e.config.StartBlock > 0 {
		logger.Info("Starting from configured block",
			zap.String("ledger", e.config.LedgerName),
			zap.Uint64("block", e.config.StartBlock))
		return e.config.StartBlock, nil
	}

	lastBlock, err := e.cursors.GetBlockCursor(ctx, e.config.LedgerName)
	if err != nil {
		return 0, fmt.Errorf("failed to get block cursor: %w", err)
	}
	if lastBlock > 0 {
		logger.Info("Resuming from last processed block",
			zap.String("ledger", e.config.LedgerName),
			zap.Uint64("block", lastBlock+1))
		return lastBlock + 1, nil
	}

	latestBlock, err := e.subscriber.GetLatestBlock(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block number: %w", err)
	}
	logger.Info("Starting from latest block",
		zap.String("ledger", e.config.LedgerName),
		zap.Uint64("block", latestBlock))
	return latestBlock, nil
}

// Close closes the emitter and cleans up resources
func (e *emitter) Close() {
	e.subscriber.Close()
}
