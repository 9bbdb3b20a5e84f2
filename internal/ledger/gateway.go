// Package ledger defines the abstract capability surface of the external
// rental ledger: an append-only, eventually-observable record of lease state
// and payment events. Implementations live under internal/providers.
package ledger

import (
	"context"
	"math/big"

	"github.com/openlease/lease-ledger/internal/domain"
)

// TxRef identifies a submitted transaction for confirmation polling
type TxRef string

// Confirmation is the point at which a submitted operation's effect became
// visible to subsequent reads.
type Confirmation struct {
	TxRef       TxRef
	BlockNumber uint64
	Timestamp   uint64 // unix seconds of the confirming block
}

// Gateway exposes reads and writes against the rental ledger.
//
// Writes are split into submit and await: Submit* returns as soon as the
// operation has been accepted for inclusion, AwaitConfirmation blocks until
// the effect is observable or the context expires. The gateway never retries
// on its own; retry policy belongs to the caller.
//
//go:generate mockgen -source=gateway.go -destination=../mocks/gateway.go -package=mocks -mock_names=Gateway=MockGateway
type Gateway interface {
	// GetLocationCount returns the number of locations ever created
	GetLocationCount(ctx context.Context) (uint64, error)

	// GetLocation returns the location record at the given index.
	// Fails with domain.ErrLocationNotFound if id >= count.
	GetLocation(ctx context.Context, id uint64) (*domain.Location, error)

	// GetPastPaymentEvents returns all RentPaid events in [fromBlock, toBlock]
	// in ledger emission order. toBlock == 0 means the latest block.
	GetPastPaymentEvents(ctx context.Context, fromBlock, toBlock uint64) ([]domain.PaymentEvent, error)

	// SubmitCreateLocation appends a new location at id = count
	SubmitCreateLocation(ctx context.Context, name string, monthlyRent *big.Int) (TxRef, error)

	// SubmitAssignTenant sets the tenant of a location
	SubmitAssignTenant(ctx context.Context, id uint64, tenant string) (TxRef, error)

	// SubmitTenantSign marks the lease as signed by the tenant
	SubmitTenantSign(ctx context.Context, id uint64) (TxRef, error)

	// SubmitPayRent pays the given amount of rent for a location
	SubmitPayRent(ctx context.Context, id uint64, amount *big.Int) (TxRef, error)

	// SubmitTerminateLocation deactivates a location
	SubmitTerminateLocation(ctx context.Context, id uint64) (TxRef, error)

	// AwaitConfirmation blocks until the submitted transaction is confirmed
	// or ctx expires, in which case it returns domain.ErrConfirmationTimeout.
	AwaitConfirmation(ctx context.Context, ref TxRef) (*Confirmation, error)

	// Close closes the underlying connection
	Close()
}
