package dto

import (
	"time"

	domainbooking "khidma/internal/domain/booking"
)

// BookingView is the external representation of the aggregate returned by
// every lifecycle operation.
type BookingView struct {
	ID            string  `json:"id"`
	Number        string  `json:"number"`
	CustomerID    string  `json:"customer_id"`
	ProviderID    string  `json:"provider_id,omitempty"`
	ServiceID     string  `json:"service_id"`
	Status        string  `json:"status"`
	PaymentStatus string  `json:"payment_status"`
	ScheduledAt   string  `json:"scheduled_at"`

	Currency          string `json:"currency"`
	ServicePrice      int64  `json:"service_price"`
	AdditionalCharges int64  `json:"additional_charges"`
	DiscountAmount    int64  `json:"discount_amount"`
	VATAmount         int64  `json:"vat_amount"`
	TotalAmount       int64  `json:"total_amount"`

	PlatformCommission int64 `json:"platform_commission,omitempty"`
	ProviderEarnings   int64 `json:"provider_earnings,omitempty"`
	CancellationFee    int64 `json:"cancellation_fee,omitempty"`
	RefundAmount       int64 `json:"refund_amount,omitempty"`

	CancellationReason string `json:"cancellation_reason,omitempty"`
	CancelledBy        string `json:"cancelled_by,omitempty"`
	RefundPercent      int64  `json:"refund_percent,omitempty"`

	Milestones MilestoneView `json:"milestones"`
	CreatedAt  string        `json:"created_at"`
	UpdatedAt  string        `json:"updated_at"`
}

type MilestoneView struct {
	AssignedAt  *string `json:"assigned_at,omitempty"`
	AcceptedAt  *string `json:"accepted_at,omitempty"`
	RejectedAt  *string `json:"rejected_at,omitempty"`
	EnRouteAt   *string `json:"en_route_at,omitempty"`
	ArrivedAt   *string `json:"arrived_at,omitempty"`
	StartedAt   *string `json:"started_at,omitempty"`
	CompletedAt *string `json:"completed_at,omitempty"`
	CancelledAt *string `json:"cancelled_at,omitempty"`
}

type TimelineEntryView struct {
	From      string `json:"from,omitempty"`
	To        string `json:"to"`
	ActorRole string `json:"actor_role"`
	ActorID   string `json:"actor_id,omitempty"`
	Note      string `json:"note,omitempty"`
	Automatic bool   `json:"automatic"`
	At        string `json:"at"`
}

type TimelineView struct {
	BookingID string              `json:"booking_id"`
	Entries   []TimelineEntryView `json:"entries"`
}

type BookingCollection struct {
	Items []BookingView `json:"items"`
}

func MapBooking(b *domainbooking.Booking) BookingView {
	view := BookingView{
		ID:                 string(b.ID),
		Number:             b.Number,
		CustomerID:         b.CustomerID,
		ProviderID:         b.ProviderID,
		ServiceID:          string(b.ServiceID),
		Status:             string(b.Status),
		PaymentStatus:      string(b.PaymentStatus),
		ScheduledAt:        formatTime(b.ScheduledAt),
		Currency:           b.Price.Total.Currency,
		ServicePrice:       b.Price.ServicePrice.Amount,
		AdditionalCharges:  b.Price.AdditionalCharges.Amount,
		DiscountAmount:     b.Price.DiscountAmount.Amount,
		VATAmount:          b.Price.VATAmount.Amount,
		TotalAmount:        b.Price.Total.Amount,
		PlatformCommission: b.Settlement.PlatformCommission.Amount,
		ProviderEarnings:   b.Settlement.ProviderEarnings.Amount,
		CancellationFee:    b.CancellationFee.Amount,
		RefundAmount:       b.RefundAmount.Amount,
		CreatedAt:          formatTime(b.CreatedAt),
		UpdatedAt:          formatTime(b.UpdatedAt),
		Milestones: MilestoneView{
			AssignedAt:  formatTimePtr(b.Milestones.AssignedAt),
			AcceptedAt:  formatTimePtr(b.Milestones.AcceptedAt),
			RejectedAt:  formatTimePtr(b.Milestones.RejectedAt),
			EnRouteAt:   formatTimePtr(b.Milestones.EnRouteAt),
			ArrivedAt:   formatTimePtr(b.Milestones.ArrivedAt),
			StartedAt:   formatTimePtr(b.Milestones.StartedAt),
			CompletedAt: formatTimePtr(b.Milestones.CompletedAt),
			CancelledAt: formatTimePtr(b.Milestones.CancelledAt),
		},
	}
	if b.Cancellation != nil {
		view.CancellationReason = b.Cancellation.Reason
		view.CancelledBy = string(b.Cancellation.By.Role)
		view.RefundPercent = b.Cancellation.RefundPercent
	}
	return view
}

func MapTimeline(bookingID domainbooking.ID, entries []domainbooking.TimelineEntry) TimelineView {
	out := TimelineView{BookingID: string(bookingID), Entries: make([]TimelineEntryView, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, TimelineEntryView{
			From:      string(e.From),
			To:        string(e.To),
			ActorRole: string(e.Actor.Role),
			ActorID:   e.Actor.ID,
			Note:      e.Note,
			Automatic: e.Automatic,
			At:        formatTime(e.At),
		})
	}
	return out
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}
