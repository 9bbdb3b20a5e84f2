// Package rent computes the "days remaining before rent is due" value for a
// location, reconciling the authoritative lastPaid timestamp with any
// speculative prepay prediction still in flight.
package rent

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/openlease/lease-ledger/internal/adapter"
	"github.com/openlease/lease-ledger/internal/domain"
	"github.com/openlease/lease-ledger/internal/logger"
	"github.com/openlease/lease-ledger/internal/overlay"
)

// DaysLeft computes the days remaining before rent is due, given the last
// confirmed payment timestamp and the current time, both in unix seconds.
//
// A never-paid location (lastPaid == 0) is due in a full fresh period from
// now, not overdue. Otherwise the next due date is lastPaid + one period and
// the remainder is rounded up to whole days, floored at zero.
func DaysLeft(lastPaid, now uint64) int {
	if lastPaid == 0 {
		return domain.FULL_PERIOD_DAYS
	}

	nextDue := int64(lastPaid) + domain.PERIOD_SECONDS
	diff := nextDue - int64(now)
	if diff <= 0 {
		return 0
	}
	return int((diff + domain.SECONDS_PER_DAY - 1) / domain.SECONDS_PER_DAY)
}

// Engine combines the pure days-left computation with the speculative
// overlay. It owns overlay consumption: an entry is applied exactly once,
// the first time a read shows the predicted payment has been incorporated.
type Engine struct {
	overlay overlay.Store
	clock   adapter.Clock
}

// NewEngine creates a rent accounting engine
func NewEngine(ov overlay.Store, clock adapter.Clock) *Engine {
	return &Engine{overlay: ov, clock: clock}
}

// DaysLeft returns the plain days-left value for a location at the current time
func (e *Engine) DaysLeft(lastPaid uint64) int {
	return DaysLeft(lastPaid, uint64(e.clock.Now().Unix()))
}

// DaysLeftWithOverlay returns the days-left value for a location, adjusted
// by a live speculative entry when one exists.
//
// Three cases:
//  1. No live entry: plain computation.
//  2. Entry present and lastPaid >= entry.SubmittedAt (and lastPaid > 0):
//     the predicted payment has landed. Paying early adds to, rather than
//     resets, the remaining balance: the new value is the pre-payment
//     remaining days plus one full period, minus whole days elapsed since
//     confirmation, floored at zero. The entry is deleted so the credit is
//     applied exactly once.
//  3. Entry present but payment not yet visible: plain computation, entry
//     stays live for the next evaluation.
//
// Overlay read failures degrade to the plain computation; the displayed
// value must never depend on overlay availability.
func (e *Engine) DaysLeftWithOverlay(ctx context.Context, id uint64, lastPaid uint64) int {
	now := uint64(e.clock.Now().Unix())

	entry, err := e.overlay.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, overlay.ErrNotFound) {
			logger.WarnCtx(ctx, "Overlay read failed, using plain computation",
				zap.Uint64("location_id", id),
				zap.Error(err))
		}
		return DaysLeft(lastPaid, now)
	}

	if lastPaid == 0 || lastPaid < entry.SubmittedAt {
		// Payment not yet confirmed; keep the prediction live
		return DaysLeft(lastPaid, now)
	}

	elapsedDays := int((int64(now) - int64(lastPaid)) / domain.SECONDS_PER_DAY)
	total := entry.Remaining + domain.FULL_PERIOD_DAYS - elapsedDays
	if total < 0 {
		total = 0
	}

	// One-shot reconciliation: the next evaluation must take the plain path
	if err := e.overlay.Delete(ctx, id); err != nil {
		logger.WarnCtx(ctx, "Failed to clear consumed overlay entry",
			zap.Uint64("location_id", id),
			zap.Error(err))
	}

	return total
}
