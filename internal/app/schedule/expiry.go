package schedule

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"khidma/internal/app/commands"
	bookingapp "khidma/internal/app/handlers/booking"
	"khidma/internal/app/uow"
	domainbooking "khidma/internal/domain/booking"
)

var ErrExpiryNotConfigured = errors.New("schedule: expiry worker missing dependencies")

// ExpiryWorker sweeps bookings that sat unaccepted past the pending TTL and
// cancels them as the system actor. Cancellation goes through the regular
// command path so timeline entries and outbox events are produced the same
// way as for a manual cancellation.
type ExpiryWorker struct {
	UoWFactory uow.UoWFactory
	Bus        commands.Bus
	TTL        time.Duration
	Interval   time.Duration
	Logger     *slog.Logger
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	if w.UoWFactory == nil || w.Bus == nil {
		return ErrExpiryNotConfigured
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.sweepOnce(ctx); err != nil {
				w.log().Error("pending sweep failed", "error", err)
			}
		}
	}
}

func (w *ExpiryWorker) sweepOnce(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-w.ttl())
	expired, err := w.listExpired(ctx, cutoff)
	if err != nil {
		return err
	}
	for _, id := range expired {
		cmd := bookingapp.CancelBookingCommand{
			BookingID: id,
			Actor:     domainbooking.Actor{Role: domainbooking.RoleSystem},
			Reason:    "pending booking expired",
		}
		if _, err := w.Bus.Dispatch(ctx, cmd); err != nil {
			// A racing accept or cancel wins; the sweep just moves on.
			if errors.Is(err, domainbooking.ErrInvalidState) ||
				errors.Is(err, domainbooking.ErrConcurrentUpdate) ||
				errors.Is(err, domainbooking.ErrBookingNotFound) {
				continue
			}
			return err
		}
		w.log().Info("expired pending booking cancelled", "booking_id", id)
	}
	return nil
}

func (w *ExpiryWorker) listExpired(ctx context.Context, cutoff time.Time) ([]string, error) {
	unit, err := w.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer func() { _ = unit.Rollback(ctx) }()
	execCtx := ctx
	if injector, ok := unit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		execCtx = injector.InjectContext(ctx)
	}
	bookings, err := unit.Bookings().ListPendingBefore(execCtx, cutoff)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(bookings))
	for _, b := range bookings {
		ids = append(ids, string(b.ID))
	}
	return ids, nil
}

func (w *ExpiryWorker) interval() time.Duration {
	if w.Interval <= 0 {
		return time.Minute
	}
	return w.Interval
}

func (w *ExpiryWorker) ttl() time.Duration {
	if w.TTL <= 0 {
		return 30 * time.Minute
	}
	return w.TTL
}

func (w *ExpiryWorker) log() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}
