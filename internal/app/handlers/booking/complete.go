package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"khidma/internal/app/commands"
	"khidma/internal/app/dto"
	"khidma/internal/app/outbox"
	"khidma/internal/app/uow"
	domainbooking "khidma/internal/domain/booking"
	domainprovider "khidma/internal/domain/provider"
)

const completeBookingKey = "booking.complete"

type CompleteBookingCommand struct {
	BookingID  string
	ProviderID string
	Notes      string
}

func (c CompleteBookingCommand) Key() string { return completeBookingKey }

type CompleteBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

// Handle finishes the service, freezes the commission split, and credits the
// provider's earnings ledger in the same unit of work. The ledger is keyed by
// booking ID, so a replay after a partial failure cannot double-credit.
func (h *CompleteBookingHandler) Handle(ctx context.Context, cmd CompleteBookingCommand) (*dto.BookingView, error) {
	now := time.Now().UTC()
	var view *dto.BookingView
	err := withUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := unit.Bookings().ByID(ctx, domainbooking.ID(cmd.BookingID))
		if err != nil {
			return err
		}
		p, err := unit.Providers().ByID(ctx, domainprovider.ID(cmd.ProviderID))
		if err != nil {
			return err
		}

		entry, err := b.Complete(cmd.ProviderID, cmd.Notes, p.CommissionRatePercent, now)
		if err != nil {
			return err
		}

		credit, err := domainprovider.NewCredit(
			string(b.ID), p.ID,
			b.Settlement.ProviderEarnings, b.Settlement.PlatformCommission,
			now,
		)
		if err != nil {
			return err
		}
		if err := unit.Ledger().Credit(ctx, credit); err != nil && !errors.Is(err, domainprovider.ErrAlreadyCredited) {
			return err
		}

		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		if err := unit.Timeline().Append(ctx, entry); err != nil {
			return err
		}
		if err := drainEvents(ctx, h.Outbox, eventEncoder(h.Encoder), b); err != nil {
			return err
		}
		if h.Logger != nil {
			h.Logger.Info("booking completed", "booking_id", b.ID, "provider_id", p.ID,
				"earnings", b.Settlement.ProviderEarnings.Amount, "commission", b.Settlement.PlatformCommission.Amount)
		}
		v := dto.MapBooking(b)
		view = &v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

var _ commands.Handler[CompleteBookingCommand, *dto.BookingView] = (*CompleteBookingHandler)(nil)
