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

// Provider-driven transitions share one handler shape: load, ask the
// aggregate, persist booking + timeline entry + outbox records as one unit.

const (
	acceptBookingKey = "booking.accept"
	rejectBookingKey = "booking.reject"
	departKey        = "booking.depart"
	arriveKey        = "booking.arrive"
	startServiceKey  = "booking.start"
)

type AcceptBookingCommand struct {
	BookingID  string
	ProviderID string
}

func (c AcceptBookingCommand) Key() string { return acceptBookingKey }

type RejectBookingCommand struct {
	BookingID  string
	ProviderID string
	Reason     string
}

func (c RejectBookingCommand) Key() string { return rejectBookingKey }

type DepartCommand struct {
	BookingID  string
	ProviderID string
}

func (c DepartCommand) Key() string { return departKey }

type ArriveCommand struct {
	BookingID  string
	ProviderID string
}

func (c ArriveCommand) Key() string { return arriveKey }

type StartServiceCommand struct {
	BookingID  string
	ProviderID string
}

func (c StartServiceCommand) Key() string { return startServiceKey }

// TransitionHandler executes a single provider-driven lifecycle step.
type TransitionHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

type transitionFn func(b *domainbooking.Booking, now time.Time) (domainbooking.TimelineEntry, error)

func (h *TransitionHandler) apply(ctx context.Context, bookingID string, step string, fn transitionFn) (*dto.BookingView, error) {
	now := time.Now().UTC()
	var view *dto.BookingView
	err := withUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := unit.Bookings().ByID(ctx, domainbooking.ID(bookingID))
		if err != nil {
			return err
		}
		entry, err := fn(b, now)
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
			h.Logger.Info("booking transition", "booking_id", b.ID, "step", step, "from", entry.From, "to", entry.To)
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

func (h *TransitionHandler) HandleAccept(ctx context.Context, cmd AcceptBookingCommand) (*dto.BookingView, error) {
	return h.apply(ctx, cmd.BookingID, "accept", func(b *domainbooking.Booking, now time.Time) (domainbooking.TimelineEntry, error) {
		return b.Accept(cmd.ProviderID, now)
	})
}

func (h *TransitionHandler) HandleReject(ctx context.Context, cmd RejectBookingCommand) (*dto.BookingView, error) {
	return h.apply(ctx, cmd.BookingID, "reject", func(b *domainbooking.Booking, now time.Time) (domainbooking.TimelineEntry, error) {
		return b.Reject(cmd.ProviderID, cmd.Reason, now)
	})
}

func (h *TransitionHandler) HandleDepart(ctx context.Context, cmd DepartCommand) (*dto.BookingView, error) {
	return h.apply(ctx, cmd.BookingID, "depart", func(b *domainbooking.Booking, now time.Time) (domainbooking.TimelineEntry, error) {
		return b.Depart(cmd.ProviderID, now)
	})
}

func (h *TransitionHandler) HandleArrive(ctx context.Context, cmd ArriveCommand) (*dto.BookingView, error) {
	return h.apply(ctx, cmd.BookingID, "arrive", func(b *domainbooking.Booking, now time.Time) (domainbooking.TimelineEntry, error) {
		return b.Arrive(cmd.ProviderID, now)
	})
}

func (h *TransitionHandler) HandleStart(ctx context.Context, cmd StartServiceCommand) (*dto.BookingView, error) {
	return h.apply(ctx, cmd.BookingID, "start", func(b *domainbooking.Booking, now time.Time) (domainbooking.TimelineEntry, error) {
		return b.Start(cmd.ProviderID, now)
	})
}

// Register wires all five transition commands onto the bus.
func (h *TransitionHandler) Register(bus *commands.InMemoryBus) {
	commands.RegisterHandler(bus, acceptBookingKey, commands.HandlerFunc[AcceptBookingCommand, *dto.BookingView](h.HandleAccept))
	commands.RegisterHandler(bus, rejectBookingKey, commands.HandlerFunc[RejectBookingCommand, *dto.BookingView](h.HandleReject))
	commands.RegisterHandler(bus, departKey, commands.HandlerFunc[DepartCommand, *dto.BookingView](h.HandleDepart))
	commands.RegisterHandler(bus, arriveKey, commands.HandlerFunc[ArriveCommand, *dto.BookingView](h.HandleArrive))
	commands.RegisterHandler(bus, startServiceKey, commands.HandlerFunc[StartServiceCommand, *dto.BookingView](h.HandleStart))
}
