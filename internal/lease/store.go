// Package lease maintains the in-memory projection of all location records
// and drives lease lifecycle transitions against the ledger gateway.
package lease

import (
	"context"
	"fmt"
	"sync"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/openlease/lease-ledger/internal/domain"
	"github.com/openlease/lease-ledger/internal/ledger"
	"github.com/openlease/lease-ledger/internal/logger"
)

const defaultFetchWorkers = 8

// Refresher re-derives the location set from the ledger. Abstracted so a
// push-based notification source can later replace polling without changing
// the accounting contract.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Store is the authoritative in-memory projection of all location records
// as last observed from the ledger gateway.
//
// Refresh replaces the entire snapshot atomically from the reader's
// perspective. Concurrent refreshes are not mutually excluded: the last one
// to complete wins, which is an accepted race since every refresh re-derives
// the full set from the ledger rather than mutating records in place.
type Store struct {
	gateway ledger.Gateway
	workers int

	mu       sync.RWMutex
	snapshot []domain.Location
}

// NewStore creates a lease store. workers bounds the concurrent per-index
// reads during a refresh; 0 selects the default.
func NewStore(gw ledger.Gateway, workers int) *Store {
	if workers <= 0 {
		workers = defaultFetchWorkers
	}
	return &Store{gateway: gw, workers: workers}
}

// Refresh re-reads every location from the gateway and swaps the snapshot
// in one step. On any read failure the previous snapshot is left untouched
// and the error wraps domain.ErrGatewayUnavailable: callers see "no data",
// never a half-updated set.
func (s *Store) Refresh(ctx context.Context) error {
	count, err := s.gateway.GetLocationCount(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to read location count: %v", domain.ErrGatewayUnavailable, err)
	}

	fresh := make([]domain.Location, count)

	pool := pond.NewPool(s.workers, pond.WithContext(ctx))
	group := pool.NewGroup()
	for i := uint64(0); i < count; i++ {
		group.SubmitErr(func() error {
			loc, err := s.gateway.GetLocation(ctx, i)
			if err != nil {
				return fmt.Errorf("failed to read location %d: %w", i, err)
			}
			fresh[i] = *loc
			return nil
		})
	}

	err = group.Wait()
	pool.StopAndWait()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}

	s.mu.Lock()
	s.snapshot = fresh
	s.mu.Unlock()

	logger.DebugCtx(ctx, "Refreshed lease store", zap.Uint64("locations", count))
	return nil
}

// Locations returns a copy of the current snapshot
func (s *Store) Locations() []domain.Location {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Location, len(s.snapshot))
	copy(out, s.snapshot)
	return out
}

// Get returns the location with the given id from the current snapshot
func (s *Store) Get(id uint64) (domain.Location, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id >= uint64(len(s.snapshot)) {
		return domain.Location{}, false
	}
	return s.snapshot[id], true
}

// FindByTenant returns the first active location assigned to the given
// identity (case-insensitive), or domain.ErrNoLeaseForTenant.
func (s *Store) FindByTenant(identity string) (domain.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, loc := range s.snapshot {
		if loc.Active && loc.LeasedBy(identity) {
			return loc, nil
		}
	}
	return domain.Location{}, domain.ErrNoLeaseForTenant
}
