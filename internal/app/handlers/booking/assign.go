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
	domainprovider "khidma/internal/domain/provider"
)

const assignProviderKey = "booking.assign_provider"

// AssignProviderCommand is issued by the external matching collaborator; this
// core does not select providers.
type AssignProviderCommand struct {
	BookingID  string
	ProviderID string
	Actor      domainbooking.Actor
}

func (c AssignProviderCommand) Key() string { return assignProviderKey }

type AssignProviderHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *AssignProviderHandler) Handle(ctx context.Context, cmd AssignProviderCommand) (*dto.BookingView, error) {
	now := time.Now().UTC()
	var view *dto.BookingView
	err := withUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		p, err := unit.Providers().ByID(ctx, domainprovider.ID(cmd.ProviderID))
		if err != nil {
			return err
		}
		if !p.Active {
			return domainprovider.ErrProviderInactive
		}

		b, err := unit.Bookings().ByID(ctx, domainbooking.ID(cmd.BookingID))
		if err != nil {
			return err
		}
		entry, err := b.AssignProvider(cmd.ProviderID, cmd.Actor, now)
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
			h.Logger.Info("provider assigned", "booking_id", b.ID, "provider_id", cmd.ProviderID)
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

var _ commands.Handler[AssignProviderCommand, *dto.BookingView] = (*AssignProviderHandler)(nil)
