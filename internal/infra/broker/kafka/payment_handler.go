package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/IBM/sarama"

	"khidma/internal/app/commands"
	"khidma/internal/app/handlers/payment"
	domainbooking "khidma/internal/domain/booking"
)

// Inbox dedupes consumed events. Seen atomically records the event ID and
// reports whether it was already processed.
type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
}

// PaymentEventHandler consumes gateway events from the payment topic and
// translates them into payment status commands. Unknown event types are
// acknowledged and skipped so the gateway can evolve without breaking us.
type PaymentEventHandler struct {
	Bus    commands.Bus
	Inbox  Inbox
	Logger *slog.Logger
}

type cloudEventEnvelope struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type paymentEventData struct {
	BookingID string `json:"booking_id"`
}

func (h *PaymentEventHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var env cloudEventEnvelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		h.log().Warn("payment event undecodable, skipping", "error", err)
		return nil
	}

	status, ok := statusForEventType(env.Type)
	if !ok {
		return nil
	}

	var data paymentEventData
	if err := json.Unmarshal(env.Data, &data); err != nil || data.BookingID == "" {
		h.log().Warn("payment event missing booking id, skipping", "event_id", env.ID, "type", env.Type)
		return nil
	}

	if h.Inbox != nil && env.ID != "" {
		seen, err := h.Inbox.Seen(ctx, env.ID)
		if err != nil {
			return err
		}
		if seen {
			return nil
		}
	}

	_, err := h.Bus.Dispatch(ctx, payment.RecordPaymentCommand{
		BookingID: data.BookingID,
		Status:    status,
	})
	if err != nil {
		// Already-applied transitions are fine on redelivery.
		if errors.Is(err, domainbooking.ErrInvalidState) || errors.Is(err, domainbooking.ErrBookingNotFound) {
			h.log().Warn("payment event not applicable", "booking_id", data.BookingID, "type", env.Type, "error", err)
			return nil
		}
		return err
	}
	return nil
}

func statusForEventType(eventType string) (domainbooking.PaymentStatus, bool) {
	switch eventType {
	case "payment.captured.v1", "payment.captured":
		return domainbooking.PaymentPaid, true
	case "payment.refunded.v1", "payment.refunded":
		return domainbooking.PaymentRefunded, true
	default:
		return "", false
	}
}

func (h *PaymentEventHandler) log() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

var _ MessageHandler = (*PaymentEventHandler)(nil)
