package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"khidma/internal/domain/pricing"
	"khidma/internal/domain/shared/money"
)

var testNow = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

func newTestBooking(t *testing.T) *Booking {
	t.Helper()
	base := money.Must(35000, "SAR")
	breakdown, err := pricing.Compute(base, money.Zero("SAR"), money.Zero("SAR"), 15)
	require.NoError(t, err)

	b, entry, err := NewBooking(CreateParams{
		ID:          "bk-1",
		Number:      NewNumber(testNow),
		CustomerID:  "cust-1",
		ServiceID:   "svc-cleaning",
		BasePrice:   base,
		Price:       breakdown,
		ScheduledAt: testNow.Add(6 * time.Hour),
		Actor:       Actor{Role: RoleCustomer, ID: "cust-1"},
		Now:         testNow,
	})
	require.NoError(t, err)
	require.Equal(t, StatusPending, b.Status)
	require.Equal(t, Status(""), entry.From)
	require.Equal(t, StatusPending, entry.To)
	b.ClearEvents()
	return b
}

func advanceTo(t *testing.T, b *Booking, target Status) {
	t.Helper()
	if target == StatusPending {
		return
	}
	_, err := b.AssignProvider("prov-1", Actor{Role: RoleAdmin, ID: "admin-1"}, testNow)
	require.NoError(t, err)
	steps := []struct {
		status Status
		do     func() error
	}{
		{StatusConfirmed, func() error { _, err := b.Accept("prov-1", testNow); return err }},
		{StatusEnRoute, func() error { _, err := b.Depart("prov-1", testNow); return err }},
		{StatusArrived, func() error { _, err := b.Arrive("prov-1", testNow); return err }},
		{StatusInProgress, func() error { _, err := b.Start("prov-1", testNow); return err }},
		{StatusCompleted, func() error { _, err := b.Complete("prov-1", "done", 20, testNow); return err }},
	}
	for _, step := range steps {
		require.NoError(t, step.do())
		if b.Status == target {
			return
		}
	}
	t.Fatalf("cannot advance to %s", target)
}

func TestNewBookingValidation(t *testing.T) {
	base := money.Must(35000, "SAR")
	breakdown, err := pricing.Compute(base, money.Zero("SAR"), money.Zero("SAR"), 15)
	require.NoError(t, err)
	params := CreateParams{
		ID:          "bk-1",
		Number:      "BK1",
		CustomerID:  "cust-1",
		ServiceID:   "svc-1",
		BasePrice:   base,
		Price:       breakdown,
		ScheduledAt: testNow.Add(time.Hour),
		Now:         testNow,
	}

	missingCustomer := params
	missingCustomer.CustomerID = ""
	_, _, err = NewBooking(missingCustomer)
	require.ErrorIs(t, err, ErrCustomerRequired)

	missingService := params
	missingService.ServiceID = ""
	_, _, err = NewBooking(missingService)
	require.ErrorIs(t, err, ErrServiceRequired)

	past := params
	past.ScheduledAt = testNow.Add(-time.Minute)
	_, _, err = NewBooking(past)
	require.ErrorIs(t, err, ErrPastSchedule)
}

func TestHappyPathTimestamps(t *testing.T) {
	b := newTestBooking(t)
	advanceTo(t, b, StatusCompleted)

	require.Equal(t, StatusCompleted, b.Status)
	assert.NotNil(t, b.Milestones.AssignedAt)
	assert.NotNil(t, b.Milestones.AcceptedAt)
	assert.NotNil(t, b.Milestones.EnRouteAt)
	assert.NotNil(t, b.Milestones.ArrivedAt)
	assert.NotNil(t, b.Milestones.StartedAt)
	assert.NotNil(t, b.Milestones.CompletedAt)
	assert.Nil(t, b.Milestones.CancelledAt)
}

func TestIllegalTransitions(t *testing.T) {
	cases := []struct {
		name string
		from Status
		do   func(b *Booking) error
	}{
		{"depart before accept", StatusPending, func(b *Booking) error { _, err := b.Depart("prov-1", testNow); return err }},
		{"start before arrive", StatusEnRoute, func(b *Booking) error { _, err := b.Start("prov-1", testNow); return err }},
		{"start from confirmed", StatusConfirmed, func(b *Booking) error { _, err := b.Start("prov-1", testNow); return err }},
		{"complete before start", StatusArrived, func(b *Booking) error { _, err := b.Complete("prov-1", "", 20, testNow); return err }},
		{"complete while pending", StatusPending, func(b *Booking) error { _, err := b.Complete("prov-1", "", 20, testNow); return err }},
		{"accept twice", StatusConfirmed, func(b *Booking) error { _, err := b.Accept("prov-1", testNow); return err }},
		{"reject after accept", StatusConfirmed, func(b *Booking) error { _, err := b.Reject("prov-1", "late", testNow); return err }},
		{"complete twice", StatusCompleted, func(b *Booking) error { _, err := b.Complete("prov-1", "", 20, testNow); return err }},
		{"cancel after complete", StatusCompleted, func(b *Booking) error {
			_, err := b.Cancel(Actor{Role: RoleAdmin}, "late", DefaultRefundSchedule(), testNow)
			return err
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := newTestBooking(t)
			if tc.from == StatusPending {
				_, err := b.AssignProvider("prov-1", Actor{Role: RoleAdmin}, testNow)
				require.NoError(t, err)
			} else {
				advanceTo(t, b, tc.from)
			}
			require.ErrorIs(t, tc.do(b), ErrInvalidState)
		})
	}
}

func TestAcceptRequiresAssignment(t *testing.T) {
	b := newTestBooking(t)
	_, err := b.Accept("prov-1", testNow)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestAcceptWrongProviderForbidden(t *testing.T) {
	b := newTestBooking(t)
	_, err := b.AssignProvider("prov-1", Actor{Role: RoleAdmin}, testNow)
	require.NoError(t, err)

	_, err = b.Accept("prov-2", testNow)
	require.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, StatusPending, b.Status)
}

func TestAssignTwiceRejected(t *testing.T) {
	b := newTestBooking(t)
	_, err := b.AssignProvider("prov-1", Actor{Role: RoleAdmin}, testNow)
	require.NoError(t, err)
	_, err = b.AssignProvider("prov-2", Actor{Role: RoleAdmin}, testNow)
	require.ErrorIs(t, err, ErrAlreadyAssigned)
	assert.Equal(t, "prov-1", b.ProviderID)
}

func TestArriveDirectlyFromConfirmed(t *testing.T) {
	b := newTestBooking(t)
	advanceTo(t, b, StatusConfirmed)

	entry, err := b.Arrive("prov-1", testNow)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, entry.From)
	assert.Equal(t, StatusArrived, entry.To)
	assert.Nil(t, b.Milestones.EnRouteAt)
}

func TestRejectIsTerminal(t *testing.T) {
	b := newTestBooking(t)
	_, err := b.AssignProvider("prov-1", Actor{Role: RoleAdmin}, testNow)
	require.NoError(t, err)

	entry, err := b.Reject("prov-1", "fully booked", testNow)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, b.Status)
	assert.Equal(t, "fully booked", b.RejectionReason)
	assert.Equal(t, "fully booked", entry.Note)
	assert.True(t, b.Status.Terminal())

	_, err = b.Accept("prov-1", testNow)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestCompleteFreezesSettlement(t *testing.T) {
	b := newTestBooking(t)
	advanceTo(t, b, StatusInProgress)

	_, err := b.Complete("prov-1", "all good", 20, testNow)
	require.NoError(t, err)

	total := b.Price.Total.Amount
	assert.Equal(t, total*20/100, b.Settlement.PlatformCommission.Amount)
	assert.Equal(t, total, b.Settlement.PlatformCommission.Amount+b.Settlement.ProviderEarnings.Amount)
	assert.Equal(t, "all good", b.CompletionNote)
}

func TestCancelComputesRefund(t *testing.T) {
	b := newTestBooking(t)
	advanceTo(t, b, StatusConfirmed)

	// scheduled 6h after creation; cancelling 3h before start hits the 50% tier
	cancelAt := b.ScheduledAt.Add(-3 * time.Hour)
	entry, err := b.Cancel(Actor{Role: RoleCustomer, ID: "cust-1"}, "changed plans", DefaultRefundSchedule(), cancelAt)
	require.NoError(t, err)

	assert.Equal(t, StatusCancelled, b.Status)
	assert.Equal(t, StatusConfirmed, entry.From)
	require.NotNil(t, b.Cancellation)
	assert.Equal(t, int64(50), b.Cancellation.RefundPercent)
	assert.Equal(t, b.Price.Total.Amount, b.RefundAmount.Amount+b.CancellationFee.Amount)
	assert.Equal(t, RoleCustomer, b.Cancellation.By.Role)
}

func TestCancelMidServiceUsesSameSchedule(t *testing.T) {
	b := newTestBooking(t)
	advanceTo(t, b, StatusInProgress)

	// in progress and past the scheduled start: 0% refund tier
	cancelAt := b.ScheduledAt.Add(30 * time.Minute)
	_, err := b.Cancel(Actor{Role: RoleAdmin, ID: "admin-1"}, "dispute", DefaultRefundSchedule(), cancelAt)
	require.NoError(t, err)
	assert.Equal(t, int64(0), b.RefundAmount.Amount)
	assert.Equal(t, b.Price.Total.Amount, b.CancellationFee.Amount)
}

func TestAddChargeBeforeStart(t *testing.T) {
	b := newTestBooking(t)
	advanceTo(t, b, StatusConfirmed)

	totalBefore := b.Price.Total.Amount
	_, err := b.AddCharge(money.Must(5000, "SAR"), 15, Actor{Role: RoleProvider, ID: "prov-1"}, "extra room", testNow)
	require.NoError(t, err)
	assert.Greater(t, b.Price.Total.Amount, totalBefore)
	assert.Equal(t, int64(5000), b.Price.AdditionalCharges.Amount)
}

func TestAddChargeFrozenOnceStarted(t *testing.T) {
	b := newTestBooking(t)
	advanceTo(t, b, StatusInProgress)

	_, err := b.AddCharge(money.Must(5000, "SAR"), 15, Actor{Role: RoleProvider, ID: "prov-1"}, "extra", testNow)
	require.ErrorIs(t, err, ErrPricingFrozen)
}

func TestPaymentStatusFlow(t *testing.T) {
	b := newTestBooking(t)

	require.ErrorIs(t, b.MarkRefunded(testNow), ErrInvalidState)
	require.NoError(t, b.MarkPaid(testNow))
	require.ErrorIs(t, b.MarkPaid(testNow), ErrInvalidState)
	require.NoError(t, b.MarkRefunded(testNow))
	assert.Equal(t, PaymentRefunded, b.PaymentStatus)
}

func TestTransitionsRecordEvents(t *testing.T) {
	b := newTestBooking(t)
	_, err := b.AssignProvider("prov-1", Actor{Role: RoleAdmin}, testNow)
	require.NoError(t, err)
	_, err = b.Accept("prov-1", testNow)
	require.NoError(t, err)

	pending := b.PendingEvents()
	require.Len(t, pending, 2)
	assert.Equal(t, "booking.provider_assigned", pending[0].EventName())
	assert.Equal(t, "booking.confirmed", pending[1].EventName())
	b.ClearEvents()
	assert.Empty(t, b.PendingEvents())
}

func TestTimelineEntryActorFlag(t *testing.T) {
	b := newTestBooking(t)
	advanceTo(t, b, StatusConfirmed)

	entry, err := b.Cancel(Actor{Role: RoleSystem}, "pending booking expired", DefaultRefundSchedule(), testNow)
	require.NoError(t, err)
	assert.True(t, entry.Automatic)
	assert.Equal(t, RoleSystem, entry.Actor.Role)
}
