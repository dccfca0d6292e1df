package booking

import (
	"context"
	"log/slog"
	"time"

	"khidma/internal/app/commands"
	"khidma/internal/app/dto"
	"khidma/internal/app/middleware"
	"khidma/internal/app/outbox"
	"khidma/internal/app/uow"
	domainbooking "khidma/internal/domain/booking"
	domaincatalog "khidma/internal/domain/catalog"
	"khidma/internal/domain/pricing"
	"khidma/internal/domain/shared/money"
)

const createBookingKey = "booking.create"

type CreateBookingCommand struct {
	CommandID  string
	CustomerID string
	ServiceID  string
	// DiscountAmount comes precomputed from the promo collaborator; this
	// core does not look promo codes up.
	DiscountAmount  int64
	ScheduledAt     time.Time
	IdempotencyKeyV string
}

func (c CreateBookingCommand) Key() string { return createBookingKey }

func (c CreateBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateBookingCommand) ResultPrototype() any { return &dto.BookingView{} }

type CreateBookingHandler struct {
	UoWFactory     uow.UoWFactory
	Outbox         outbox.Outbox
	Encoder        outbox.EventEncoder
	VATRatePercent int64
	Currency       string
	Logger         *slog.Logger
}

func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*dto.BookingView, error) {
	now := time.Now().UTC()
	var view *dto.BookingView
	err := withUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		svc, err := unit.Catalog().ByID(ctx, domaincatalog.ServiceID(cmd.ServiceID))
		if err != nil {
			return err
		}
		basePrice, err := svc.ActivePrice()
		if err != nil {
			return err
		}

		discount := money.Money{Amount: cmd.DiscountAmount, Currency: basePrice.Currency}
		breakdown, err := pricing.Compute(basePrice, money.Zero(basePrice.Currency), discount, h.VATRatePercent)
		if err != nil {
			return err
		}

		b, entry, err := domainbooking.NewBooking(domainbooking.CreateParams{
			ID:          domainbooking.ID(cmd.CommandID),
			Number:      domainbooking.NewNumber(now),
			CustomerID:  cmd.CustomerID,
			ServiceID:   svc.ID,
			BasePrice:   basePrice,
			Price:       breakdown,
			ScheduledAt: cmd.ScheduledAt,
			Actor:       domainbooking.Actor{Role: domainbooking.RoleCustomer, ID: cmd.CustomerID},
			Now:         now,
		})
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
			h.Logger.Info("booking created", "booking_id", b.ID, "number", b.Number, "customer_id", b.CustomerID, "total", b.Price.Total.Amount)
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

var _ commands.Handler[CreateBookingCommand, *dto.BookingView] = (*CreateBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*CreateBookingCommand)(nil)
