// Package messaging defines the interfaces between the payment event
// pipeline and its transports: a Subscriber that yields confirmed RentPaid
// events from the ledger and a Publisher that forwards them to the message
// broker.
package messaging

import (
	"context"

	"github.com/openlease/lease-ledger/internal/domain"
)

// PaymentHandler is called once per confirmed payment event, in emission order
type PaymentHandler func(event *domain.PaymentEvent) error

// Subscriber yields confirmed RentPaid events from the ledger
//
//go:generate mockgen -source=messaging.go -destination=../mocks/messaging.go -package=mocks -mock_names=Subscriber=MockSubscriber,Publisher=MockPublisher
type Subscriber interface {
	// SubscribePayments streams payment events starting at fromBlock
	// (0 = latest) and blocks until ctx is canceled or the stream fails
	SubscribePayments(ctx context.Context, fromBlock uint64, handler PaymentHandler) error

	// GetLatestBlock returns the latest ledger block number
	GetLatestBlock(ctx context.Context) (uint64, error)

	// Close closes the connection and cleans up resources
	Close()
}

// Publisher forwards payment events to the message broker
type Publisher interface {
	// PublishPayment publishes a payment event to the broker
	PublishPayment(ctx context.Context, event *domain.PaymentEvent) error

	// Close closes the connection
	Close()

	// CloseChan returns a channel that is closed when the publisher is closed
	CloseChan() <-chan struct{}
}
