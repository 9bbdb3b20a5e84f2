package lease

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/openlease/lease-ledger/internal/adapter"
	"github.com/openlease/lease-ledger/internal/domain"
	"github.com/openlease/lease-ledger/internal/ledger"
	"github.com/openlease/lease-ledger/internal/logger"
	"github.com/openlease/lease-ledger/internal/overlay"
	"github.com/openlease/lease-ledger/internal/rent"
)

// LocationView is a location record paired with its computed days-left value
type LocationView struct {
	domain.Location
	DaysLeft int `json:"days_left"`
}

// Service drives lease lifecycle transitions. Every operation is a
// submit-then-await action against the ledger gateway; submission failures
// (domain.SubmissionError, domain.PreconditionError) are reported distinctly
// from confirmation timeouts (domain.ErrConfirmationTimeout). The service
// never retries on its own.
type Service struct {
	gateway     ledger.Gateway
	store       *Store
	overlay     overlay.Store
	engine      *rent.Engine
	clock       adapter.Clock
	confirmWait time.Duration
}

// NewService creates a lease transition service. confirmWait bounds how long
// each operation waits for ledger confirmation; 0 waits until the caller's
// context expires.
func NewService(
	gw ledger.Gateway,
	store *Store,
	ov overlay.Store,
	engine *rent.Engine,
	clock adapter.Clock,
	confirmWait time.Duration,
) *Service {
	return &Service{
		gateway:     gw,
		store:       store,
		overlay:     ov,
		engine:      engine,
		clock:       clock,
		confirmWait: confirmWait,
	}
}

// Store returns the underlying lease store
func (s *Service) Store() *Store {
	return s.store
}

// Overview refreshes the store and returns every location with its computed
// days-left value. Fails with domain.ErrGatewayUnavailable rather than
// returning stale data.
func (s *Service) Overview(ctx context.Context) ([]LocationView, error) {
	if err := s.store.Refresh(ctx); err != nil {
		return nil, err
	}

	locations := s.store.Locations()
	views := make([]LocationView, 0, len(locations))
	for _, loc := range locations {
		views = append(views, LocationView{
			Location: loc,
			DaysLeft: s.engine.DaysLeftWithOverlay(ctx, loc.ID, loc.LastPaid),
		})
	}
	return views, nil
}

// Location refreshes the store and returns a single location with its
// computed days-left value. Fails with domain.ErrLocationNotFound for ids
// beyond the current count.
func (s *Service) Location(ctx context.Context, id uint64) (LocationView, error) {
	if err := s.store.Refresh(ctx); err != nil {
		return LocationView{}, err
	}

	loc, ok := s.store.Get(id)
	if !ok {
		return LocationView{}, domain.ErrLocationNotFound
	}

	return LocationView{
		Location: loc,
		DaysLeft: s.engine.DaysLeftWithOverlay(ctx, loc.ID, loc.LastPaid),
	}, nil
}

// TenantLease refreshes the store and returns the active lease assigned to
// the given identity, with its computed days-left value.
func (s *Service) TenantLease(ctx context.Context, identity string) (LocationView, error) {
	if err := s.store.Refresh(ctx); err != nil {
		return LocationView{}, err
	}

	loc, err := s.store.FindByTenant(identity)
	if err != nil {
		return LocationView{}, err
	}

	return LocationView{
		Location: loc,
		DaysLeft: s.engine.DaysLeftWithOverlay(ctx, loc.ID, loc.LastPaid),
	}, nil
}

// Create appends a new location to the ledger. The new id is count at the
// time of confirmation; locations are append-only so the caller can read it
// back as count-1 after the next refresh.
func (s *Service) Create(ctx context.Context, name string, monthlyRent *big.Int) (ledger.TxRef, *ledger.Confirmation, error) {
	if name == "" {
		return "", nil, &domain.PreconditionError{Op: "create", Reason: "name must not be empty"}
	}
	if monthlyRent == nil || monthlyRent.Sign() <= 0 {
		return "", nil, &domain.PreconditionError{Op: "create", Reason: "monthly rent must be positive"}
	}

	ref, err := s.gateway.SubmitCreateLocation(ctx, name, monthlyRent)
	if err != nil {
		return "", nil, &domain.SubmissionError{Op: "create", Err: err}
	}

	conf, err := s.awaitConfirmation(ctx, ref)
	return ref, conf, err
}

// AssignTenant sets the tenant of an existing location
func (s *Service) AssignTenant(ctx context.Context, id uint64, tenant string) (ledger.TxRef, *ledger.Confirmation, error) {
	if !common.IsHexAddress(tenant) {
		return "", nil, &domain.PreconditionError{Op: "assign", LocationID: id, Reason: "invalid tenant identity"}
	}
	if _, err := s.readLocation(ctx, "assign", id); err != nil {
		return "", nil, err
	}

	ref, err := s.gateway.SubmitAssignTenant(ctx, id, domain.NormalizeAddress(tenant))
	if err != nil {
		return "", nil, &domain.SubmissionError{Op: "assign", LocationID: id, Err: err}
	}

	conf, err := s.awaitConfirmation(ctx, ref)
	return ref, conf, err
}

// TenantSign marks the lease as signed by the tenant. Signing twice is not
// guaranteed idempotent by the ledger; callers should check TenantSigned on
// the current snapshot first.
func (s *Service) TenantSign(ctx context.Context, id uint64) (ledger.TxRef, *ledger.Confirmation, error) {
	ref, err := s.gateway.SubmitTenantSign(ctx, id)
	if err != nil {
		return "", nil, &domain.SubmissionError{Op: "sign", LocationID: id, Err: err}
	}

	conf, err := s.awaitConfirmation(ctx, ref)
	return ref, conf, err
}

// PayRent pays rent for a location on behalf of payer.
//
// Preconditions are checked against a fresh read of the location record:
// the lease must be active, owner-signed and assigned to the payer. If the
// tenant has not signed yet, a sign transaction is submitted and confirmed
// first; sign and payment are two independent submissions, not a
// transaction. A failure between them leaves the lease signed-but-unpaid
// and the next call resumes from the already-signed state.
//
// On successful payment submission a speculative overlay entry is recorded
// so the displayed days-left value never regresses to the pre-payment value
// while confirmation is pending. No entry is created when the operation is
// rejected before submission.
func (s *Service) PayRent(ctx context.Context, payer string, id uint64, amount *big.Int) (ledger.TxRef, *ledger.Confirmation, error) {
	loc, err := s.readLocation(ctx, "pay", id)
	if err != nil {
		return "", nil, err
	}

	if !loc.Active {
		return "", nil, &domain.PreconditionError{Op: "pay", LocationID: id, Reason: "lease has been terminated"}
	}
	if payer != "" && !loc.LeasedBy(payer) {
		return "", nil, &domain.PreconditionError{Op: "pay", LocationID: id, Reason: "payer is not the assigned tenant"}
	}
	if !loc.OwnerSigned {
		return "", nil, &domain.PreconditionError{Op: "pay", LocationID: id, Reason: "owner has not signed the lease"}
	}
	if amount == nil || amount.Sign() <= 0 {
		return "", nil, &domain.PreconditionError{Op: "pay", LocationID: id, Reason: "amount must be positive"}
	}

	if !loc.TenantSigned {
		if _, _, err := s.TenantSign(ctx, id); err != nil {
			return "", nil, fmt.Errorf("tenant sign before payment failed: %w", err)
		}
	}

	// Capture the prediction inputs before submitting so the early-payment
	// credit is measured against the pre-payment state.
	now := uint64(s.clock.Now().Unix())
	remaining := rent.DaysLeft(loc.LastPaid, now)

	ref, err := s.gateway.SubmitPayRent(ctx, id, amount)
	if err != nil {
		return "", nil, &domain.SubmissionError{Op: "pay", LocationID: id, Err: err}
	}

	if err := s.overlay.Put(ctx, id, overlay.Entry{Remaining: remaining, SubmittedAt: now}); err != nil {
		// The overlay is an optimization; the payment itself has been
		// submitted and must not be reported as failed.
		logger.WarnCtx(ctx, "Failed to record prepay prediction",
			zap.Uint64("location_id", id),
			zap.Error(err))
	}

	conf, err := s.awaitConfirmation(ctx, ref)
	return ref, conf, err
}

// Terminate deactivates a location
func (s *Service) Terminate(ctx context.Context, id uint64) (ledger.TxRef, *ledger.Confirmation, error) {
	if _, err := s.readLocation(ctx, "terminate", id); err != nil {
		return "", nil, err
	}

	ref, err := s.gateway.SubmitTerminateLocation(ctx, id)
	if err != nil {
		return "", nil, &domain.SubmissionError{Op: "terminate", LocationID: id, Err: err}
	}

	conf, err := s.awaitConfirmation(ctx, ref)
	return ref, conf, err
}

// readLocation fetches the current location record straight from the ledger.
// The in-memory snapshot only tracks read traffic and may lag behind writes,
// so existence checks before a transition never trust it.
func (s *Service) readLocation(ctx context.Context, op string, id uint64) (*domain.Location, error) {
	loc, err := s.gateway.GetLocation(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrLocationNotFound) {
			return nil, &domain.PreconditionError{Op: op, LocationID: id, Reason: "location does not exist"}
		}
		return nil, fmt.Errorf("%w: failed to read location %d: %v", domain.ErrGatewayUnavailable, id, err)
	}
	return loc, nil
}

func (s *Service) awaitConfirmation(ctx context.Context, ref ledger.TxRef) (*ledger.Confirmation, error) {
	if s.confirmWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.confirmWait)
		defer cancel()
	}
	return s.gateway.AwaitConfirmation(ctx, ref)
}
