// Package history rebuilds payment history from the ledger's RentPaid event
// log. History is derived, never stored: each rebuild scans the event range
// again, so the package holds no state beyond the block metadata cache it
// borrows for timestamp fallback.
package history

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"go.uber.org/zap"

	"github.com/openlease/lease-ledger/internal/block"
	"github.com/openlease/lease-ledger/internal/domain"
	"github.com/openlease/lease-ledger/internal/ledger"
	"github.com/openlease/lease-ledger/internal/logger"
)

// Record is one payment in presentation form, in ledger emission order
type Record struct {
	Index       int    `json:"index"` // position within the rebuilt sequence
	LocationID  uint64 `json:"location_id"`
	Payer       string `json:"payer"`
	Amount      string `json:"amount"` // display units, not wei
	PaidAt      uint64 `json:"paid_at"`
	TxHash      string `json:"tx_hash"`
	BlockNumber uint64 `json:"block_number"`
}

// Reconstructor derives payment records from the ledger event log
type Reconstructor struct {
	gateway ledger.Gateway
	blocks  block.Provider
}

// NewReconstructor creates a payment history reconstructor
func NewReconstructor(gw ledger.Gateway, blocks block.Provider) *Reconstructor {
	return &Reconstructor{gateway: gw, blocks: blocks}
}

// Rebuild scans RentPaid events from fromBlock to the latest block and
// returns them as presentation records in emission order. An empty ledger
// yields an empty slice, not an error.
func (r *Reconstructor) Rebuild(ctx context.Context, fromBlock uint64) ([]Record, error) {
	events, err := r.gateway.GetPastPaymentEvents(ctx, fromBlock, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to scan payment events: %v", domain.ErrGatewayUnavailable, err)
	}
	return r.toRecords(ctx, events), nil
}

// RebuildForLocation scans RentPaid events and keeps only those for the
// given location. Record indexes are positions within the filtered sequence.
func (r *Reconstructor) RebuildForLocation(ctx context.Context, locationID, fromBlock uint64) ([]Record, error) {
	events, err := r.gateway.GetPastPaymentEvents(ctx, fromBlock, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to scan payment events: %v", domain.ErrGatewayUnavailable, err)
	}

	filtered := make([]domain.PaymentEvent, 0, len(events))
	for _, ev := range events {
		if ev.LocationID == locationID {
			filtered = append(filtered, ev)
		}
	}
	return r.toRecords(ctx, filtered), nil
}

// LastPayment returns the most recent payment record, if any. The boolean is
// false when no payment has ever been made, which is a normal state and not
// an error.
func (r *Reconstructor) LastPayment(ctx context.Context, fromBlock uint64) (Record, bool, error) {
	records, err := r.Rebuild(ctx, fromBlock)
	if err != nil {
		return Record{}, false, err
	}
	if len(records) == 0 {
		return Record{}, false, nil
	}
	return records[len(records)-1], true, nil
}

func (r *Reconstructor) toRecords(ctx context.Context, events []domain.PaymentEvent) []Record {
	records := make([]Record, 0, len(events))
	for i, ev := range events {
		paidAt := ev.Timestamp
		if paidAt == 0 {
			// Older event encodings omit the timestamp word; the confirming
			// block's timestamp is the authoritative substitute.
			ts, err := r.blocks.GetBlockTimestamp(ctx, ev.BlockNumber)
			if err != nil {
				logger.WarnCtx(ctx, "Failed to resolve block timestamp for payment",
					zap.Uint64("block_number", ev.BlockNumber),
					zap.String("tx_hash", ev.TxHash),
					zap.Error(err))
			} else {
				paidAt = uint64(ts.Unix())
			}
		}

		records = append(records, Record{
			Index:       i,
			LocationID:  ev.LocationID,
			Payer:       ev.Payer,
			Amount:      FormatAmount(ev.Amount),
			PaidAt:      paidAt,
			TxHash:      ev.TxHash,
			BlockNumber: ev.BlockNumber,
		})
	}
	return records
}

// FormatAmount converts a wei amount into a decimal display string, with
// trailing zeros trimmed. A nil amount renders as "0".
func FormatAmount(wei *big.Int) string {
	if wei == nil || wei.Sign() == 0 {
		return "0"
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(domain.RENT_SCALE_DECIMALS), nil)
	s := new(big.Rat).SetFrac(wei, scale).FloatString(domain.RENT_SCALE_DECIMALS)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	return s
}
