package payment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "khidma/internal/domain/booking"
	"khidma/internal/domain/pricing"
	"khidma/internal/domain/shared/money"
	"khidma/internal/infra/storage/memory"
)

func newFactoryWithBooking(t *testing.T) (memory.Factory, *memory.BookingRepository) {
	t.Helper()
	bookings := memory.NewBookingRepository()
	factory := memory.Factory{
		BookingRepo:  bookings,
		TimelineRepo: memory.NewTimelineStore(),
		CatalogRepo:  memory.NewCatalogRepository(),
		ProviderRepo: memory.NewProviderRepository(),
		LedgerRepo:   memory.NewLedgerStore(),
	}

	now := time.Now().UTC()
	base := money.Must(35000, "SAR")
	breakdown, err := pricing.Compute(base, money.Zero("SAR"), money.Zero("SAR"), 15)
	require.NoError(t, err)
	b, _, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:          "bk-1",
		Number:      domainbooking.NewNumber(now),
		CustomerID:  "cust-1",
		ServiceID:   "svc-1",
		BasePrice:   base,
		Price:       breakdown,
		ScheduledAt: now.Add(6 * time.Hour),
		Now:         now,
	})
	require.NoError(t, err)
	b.ClearEvents()
	require.NoError(t, bookings.Save(context.Background(), b))
	return factory, bookings
}

func TestRecordPaymentTransitions(t *testing.T) {
	factory, bookings := newFactoryWithBooking(t)
	h := &RecordPaymentHandler{UoWFactory: factory}
	ctx := context.Background()

	_, err := h.Handle(ctx, RecordPaymentCommand{BookingID: "bk-1", Status: domainbooking.PaymentPaid})
	require.NoError(t, err)

	b, err := bookings.ByID(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.PaymentPaid, b.PaymentStatus)

	// redelivered capture report must not flip the status again
	_, err = h.Handle(ctx, RecordPaymentCommand{BookingID: "bk-1", Status: domainbooking.PaymentPaid})
	require.ErrorIs(t, err, domainbooking.ErrInvalidState)

	_, err = h.Handle(ctx, RecordPaymentCommand{BookingID: "bk-1", Status: domainbooking.PaymentRefunded})
	require.NoError(t, err)

	b, err = bookings.ByID(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, domainbooking.PaymentRefunded, b.PaymentStatus)
}

func TestRecordPaymentUnknownStatus(t *testing.T) {
	factory, _ := newFactoryWithBooking(t)
	h := &RecordPaymentHandler{UoWFactory: factory}

	_, err := h.Handle(context.Background(), RecordPaymentCommand{BookingID: "bk-1", Status: "VOIDED"})
	require.ErrorIs(t, err, ErrUnknownStatus)
}

func TestRecordPaymentUnknownBooking(t *testing.T) {
	factory, _ := newFactoryWithBooking(t)
	h := &RecordPaymentHandler{UoWFactory: factory}

	_, err := h.Handle(context.Background(), RecordPaymentCommand{BookingID: "missing", Status: domainbooking.PaymentPaid})
	require.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
}
