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
)

const cancelBookingKey = "booking.cancel"

type CancelBookingCommand struct {
	BookingID string
	Actor     domainbooking.Actor
	Reason    string
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

type CancelBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Schedule   domainbooking.RefundSchedule
	Logger     *slog.Logger
}

// Handle cancels from any non-terminal state. The refund schedule is applied
// on lead time alone; customers may only cancel their own bookings and
// providers only bookings assigned to them.
func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*dto.BookingView, error) {
	now := time.Now().UTC()
	var view *dto.BookingView
	err := withUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := unit.Bookings().ByID(ctx, domainbooking.ID(cmd.BookingID))
		if err != nil {
			return err
		}
		if err := authorizeCancel(b, cmd.Actor); err != nil {
			return err
		}
		entry, err := b.Cancel(cmd.Actor, cmd.Reason, h.Schedule, now)
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
			h.Logger.Info("booking cancelled", "booking_id", b.ID, "by", cmd.Actor.Role,
				"refund", b.RefundAmount.Amount, "fee", b.CancellationFee.Amount)
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

func authorizeCancel(b *domainbooking.Booking, actor domainbooking.Actor) error {
	switch actor.Role {
	case domainbooking.RoleAdmin, domainbooking.RoleSystem:
		return nil
	case domainbooking.RoleCustomer:
		if actor.ID != b.CustomerID {
			return domainbooking.ErrForbidden
		}
		return nil
	case domainbooking.RoleProvider:
		if b.ProviderID == "" || actor.ID != b.ProviderID {
			return domainbooking.ErrForbidden
		}
		return nil
	}
	return domainbooking.ErrForbidden
}

var _ commands.Handler[CancelBookingCommand, *dto.BookingView] = (*CancelBookingHandler)(nil)
