package booking

import (
	"context"
	"log/slog"
	"time"

	"khidma/internal/app/commands"
	"khidma/internal/app/dto"
	"khidma/internal/app/outbox"
	"khidma/internal/app/uow"
	domainbooking "khidma/internal/domain/booking"
	"khidma/internal/domain/shared/money"
)

const addChargeKey = "booking.add_charge"

// AddChargeCommand appends an extra charge before the service starts; after
// that point pricing is frozen.
type AddChargeCommand struct {
	BookingID string
	Amount    int64
	Note      string
	Actor     domainbooking.Actor
}

func (c AddChargeCommand) Key() string { return addChargeKey }

type AddChargeHandler struct {
	UoWFactory     uow.UoWFactory
	Outbox         outbox.Outbox
	Encoder        outbox.EventEncoder
	VATRatePercent int64
	Logger         *slog.Logger
}

func (h *AddChargeHandler) Handle(ctx context.Context, cmd AddChargeCommand) (*dto.BookingView, error) {
	now := time.Now().UTC()
	var view *dto.BookingView
	err := withUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := unit.Bookings().ByID(ctx, domainbooking.ID(cmd.BookingID))
		if err != nil {
			return err
		}
		charge := money.Money{Amount: cmd.Amount, Currency: b.Price.Total.Currency}
		entry, err := b.AddCharge(charge, h.VATRatePercent, cmd.Actor, cmd.Note, now)
		if err != nil {
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
			h.Logger.Info("charge added", "booking_id", b.ID, "amount", cmd.Amount, "new_total", b.Price.Total.Amount)
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

var _ commands.Handler[AddChargeCommand, *dto.BookingView] = (*AddChargeHandler)(nil)
