package payment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"khidma/internal/app/commands"
	"khidma/internal/app/outbox"
	"khidma/internal/app/uow"
	domainbooking "khidma/internal/domain/booking"
)

const recordPaymentKey = "payment.record_status"

var ErrUnknownStatus = errors.New("payment: unknown payment status")

// RecordPaymentCommand applies an asynchronous gateway report. The gateway is
// an external collaborator; this core only stores the resulting flag and never
// touches the lifecycle status.
type RecordPaymentCommand struct {
	BookingID string
	Status    domainbooking.PaymentStatus
}

func (c RecordPaymentCommand) Key() string { return recordPaymentKey }

type RecordPaymentHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *RecordPaymentHandler) Handle(ctx context.Context, cmd RecordPaymentCommand) (any, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, uow.ErrUnitOfWorkMissing
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	now := time.Now().UTC()
	b, err := unit.Bookings().ByID(ctx, domainbooking.ID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	switch cmd.Status {
	case domainbooking.PaymentPaid:
		err = b.MarkPaid(now)
	case domainbooking.PaymentRefunded:
		err = b.MarkRefunded(now)
	default:
		return nil, ErrUnknownStatus
	}
	if err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	pending := b.PendingEvents()
	b.ClearEvents()
	encoder := h.Encoder
	if encoder == nil {
		encoder = outbox.JSONEventEncoder{}
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, encoder, pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	if h.Logger != nil {
		h.Logger.Info("payment status recorded", "booking_id", cmd.BookingID, "status", cmd.Status)
	}
	return nil, nil
}

var _ commands.Handler[RecordPaymentCommand, any] = (*RecordPaymentHandler)(nil)
