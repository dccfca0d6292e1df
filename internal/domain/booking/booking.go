package booking

import (
	"context"
	"errors"
	"time"

	"khidma/internal/domain/catalog"
	"khidma/internal/domain/pricing"
	"khidma/internal/domain/shared/events"
	"khidma/internal/domain/shared/money"
)

var (
	ErrInvalidState     = errors.New("booking: invalid state transition")
	ErrForbidden        = errors.New("booking: actor not authorized for this booking")
	ErrBookingNotFound  = errors.New("booking: not found")
	ErrCustomerRequired = errors.New("booking: customer id required")
	ErrServiceRequired  = errors.New("booking: service id required")
	ErrProviderRequired = errors.New("booking: provider id required")
	ErrPastSchedule     = errors.New("booking: scheduled time must be in the future")
	ErrAlreadyAssigned  = errors.New("booking: provider already assigned")
	ErrPricingFrozen    = errors.New("booking: pricing frozen after service start")
	// ErrConcurrentUpdate is surfaced by repositories when a version-checked
	// save loses a race.
	ErrConcurrentUpdate = errors.New("booking: concurrent update detected")
)

type ID string

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusEnRoute    Status = "PROVIDER_EN_ROUTE"
	StatusArrived    Status = "PROVIDER_ARRIVED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
	StatusRejected   Status = "REJECTED"
)

// Terminal reports whether no further lifecycle transition is legal.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

// PaymentStatus tracks payment capture separately from the lifecycle; the
// gateway reports asynchronously and capture may lag booking state.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// Milestones holds the role-specific timestamps, each set exactly once by the
// corresponding transition.
type Milestones struct {
	AssignedAt  *time.Time
	AcceptedAt  *time.Time
	RejectedAt  *time.Time
	EnRouteAt   *time.Time
	ArrivedAt   *time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
}

// Cancellation is populated only when a CANCELLED transition occurs.
type Cancellation struct {
	Reason        string
	By            Actor
	RefundPercent int64
}

type Booking struct {
	ID         ID
	Number     string
	CustomerID string
	ProviderID string // empty until assignment, immutable once accepted
	ServiceID  catalog.ServiceID
	// BasePrice snapshots the catalog price at creation so later catalog
	// edits never drift a live booking.
	BasePrice money.Money

	Status        Status
	PaymentStatus PaymentStatus
	ScheduledAt   time.Time
	Milestones    Milestones

	Price           pricing.Breakdown
	Settlement      pricing.Settlement
	CancellationFee money.Money
	RefundAmount    money.Money
	Cancellation    *Cancellation

	RejectionReason string
	CompletionNote  string

	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Booking, error)
	Save(ctx context.Context, b *Booking) error
	ListByCustomer(ctx context.Context, customerID string) ([]*Booking, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*Booking, error)
}

type CreateParams struct {
	ID          ID
	Number      string
	CustomerID  string
	ServiceID   catalog.ServiceID
	BasePrice   money.Money
	Price       pricing.Breakdown
	ScheduledAt time.Time
	Actor       Actor
	Now         time.Time
}

// NewBooking creates a PENDING booking and returns the aggregate together with
// its creation timeline entry. Provider assignment is a separate operation.
func NewBooking(params CreateParams) (*Booking, TimelineEntry, error) {
	if params.CustomerID == "" {
		return nil, TimelineEntry{}, ErrCustomerRequired
	}
	if params.ServiceID == "" {
		return nil, TimelineEntry{}, ErrServiceRequired
	}
	now := params.Now.UTC()
	if !params.ScheduledAt.After(now) {
		return nil, TimelineEntry{}, ErrPastSchedule
	}
	if params.Price.Total.IsNegative() {
		return nil, TimelineEntry{}, pricing.ErrNegativeComponent
	}
	b := &Booking{
		ID:              params.ID,
		Number:          params.Number,
		CustomerID:      params.CustomerID,
		ServiceID:       params.ServiceID,
		BasePrice:       params.BasePrice,
		Status:          StatusPending,
		PaymentStatus:   PaymentPending,
		ScheduledAt:     params.ScheduledAt.UTC(),
		Price:           params.Price,
		CancellationFee: money.Zero(params.Price.Total.Currency),
		RefundAmount:    money.Zero(params.Price.Total.Currency),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	b.Record(BookingCreated{
		BookingID:   b.ID,
		Number:      b.Number,
		CustomerID:  b.CustomerID,
		ServiceID:   string(b.ServiceID),
		Total:       b.Price.Total,
		ScheduledAt: b.ScheduledAt,
		Actor:       params.Actor,
		At:          now,
	})
	entry := newTimelineEntry(b, "", params.Actor, "booking created", now)
	return b, entry, nil
}

// AssignProvider attaches the provider chosen by the external matcher. Legal
// only while PENDING and unassigned; the status itself does not change.
func (b *Booking) AssignProvider(providerID string, actor Actor, now time.Time) (TimelineEntry, error) {
	if providerID == "" {
		return TimelineEntry{}, ErrProviderRequired
	}
	if b.Status != StatusPending {
		return TimelineEntry{}, ErrInvalidState
	}
	if b.ProviderID != "" {
		return TimelineEntry{}, ErrAlreadyAssigned
	}
	b.ProviderID = providerID
	b.touch(now)
	b.Milestones.AssignedAt = &b.UpdatedAt
	b.Record(ProviderAssigned{BookingID: b.ID, ProviderID: providerID, Actor: actor, At: b.UpdatedAt})
	return newTimelineEntry(b, b.Status, actor, "provider assigned", now), nil
}

// Accept confirms the booking. Only the assigned provider may accept, and only
// while PENDING.
func (b *Booking) Accept(providerID string, now time.Time) (TimelineEntry, error) {
	if err := b.ensureAssigned(providerID); err != nil {
		return TimelineEntry{}, err
	}
	if b.Status != StatusPending {
		return TimelineEntry{}, ErrInvalidState
	}
	from := b.Status
	b.Status = StatusConfirmed
	b.touch(now)
	b.Milestones.AcceptedAt = &b.UpdatedAt
	actor := Actor{Role: RoleProvider, ID: providerID}
	b.Record(BookingConfirmed{BookingID: b.ID, From: from, Actor: actor, At: b.UpdatedAt})
	return newTimelineEntry(b, from, actor, "provider accepted", now), nil
}

// Reject declines a PENDING booking. Terminal.
func (b *Booking) Reject(providerID, reason string, now time.Time) (TimelineEntry, error) {
	if err := b.ensureAssigned(providerID); err != nil {
		return TimelineEntry{}, err
	}
	if b.Status != StatusPending {
		return TimelineEntry{}, ErrInvalidState
	}
	from := b.Status
	b.Status = StatusRejected
	b.RejectionReason = reason
	b.touch(now)
	b.Milestones.RejectedAt = &b.UpdatedAt
	actor := Actor{Role: RoleProvider, ID: providerID}
	b.Record(BookingRejected{BookingID: b.ID, From: from, Reason: reason, Actor: actor, At: b.UpdatedAt})
	return newTimelineEntry(b, from, actor, reason, now), nil
}

// Depart marks the provider en route to the customer.
func (b *Booking) Depart(providerID string, now time.Time) (TimelineEntry, error) {
	if err := b.ensureAssigned(providerID); err != nil {
		return TimelineEntry{}, err
	}
	if b.Status != StatusConfirmed {
		return TimelineEntry{}, ErrInvalidState
	}
	from := b.Status
	b.Status = StatusEnRoute
	b.touch(now)
	b.Milestones.EnRouteAt = &b.UpdatedAt
	actor := Actor{Role: RoleProvider, ID: providerID}
	b.Record(ProviderEnRoute{BookingID: b.ID, From: from, Actor: actor, At: b.UpdatedAt})
	return newTimelineEntry(b, from, actor, "provider en route", now), nil
}

// Arrive marks arrival. Departure is optional, so CONFIRMED is also accepted.
func (b *Booking) Arrive(providerID string, now time.Time) (TimelineEntry, error) {
	if err := b.ensureAssigned(providerID); err != nil {
		return TimelineEntry{}, err
	}
	if b.Status != StatusConfirmed && b.Status != StatusEnRoute {
		return TimelineEntry{}, ErrInvalidState
	}
	from := b.Status
	b.Status = StatusArrived
	b.touch(now)
	b.Milestones.ArrivedAt = &b.UpdatedAt
	actor := Actor{Role: RoleProvider, ID: providerID}
	b.Record(ProviderArrived{BookingID: b.ID, From: from, Actor: actor, At: b.UpdatedAt})
	return newTimelineEntry(b, from, actor, "provider arrived", now), nil
}

// Start begins the service; the provider must have arrived first.
func (b *Booking) Start(providerID string, now time.Time) (TimelineEntry, error) {
	if err := b.ensureAssigned(providerID); err != nil {
		return TimelineEntry{}, err
	}
	if b.Status != StatusArrived {
		return TimelineEntry{}, ErrInvalidState
	}
	from := b.Status
	b.Status = StatusInProgress
	b.touch(now)
	b.Milestones.StartedAt = &b.UpdatedAt
	actor := Actor{Role: RoleProvider, ID: providerID}
	b.Record(ServiceStarted{BookingID: b.ID, From: from, Actor: actor, At: b.UpdatedAt})
	return newTimelineEntry(b, from, actor, "service started", now), nil
}

// Complete finishes the service and computes the commission split exactly
// once. A second call observes COMPLETED and fails, so there is never a double
// credit.
func (b *Booking) Complete(providerID, note string, commissionRatePercent int64, now time.Time) (TimelineEntry, error) {
	if err := b.ensureAssigned(providerID); err != nil {
		return TimelineEntry{}, err
	}
	if b.Status != StatusInProgress {
		return TimelineEntry{}, ErrInvalidState
	}
	settlement, err := pricing.Split(b.Price.Total, commissionRatePercent)
	if err != nil {
		return TimelineEntry{}, err
	}
	from := b.Status
	b.Status = StatusCompleted
	b.Settlement = settlement
	b.CompletionNote = note
	b.touch(now)
	b.Milestones.CompletedAt = &b.UpdatedAt
	actor := Actor{Role: RoleProvider, ID: providerID}
	b.Record(BookingCompleted{
		BookingID:  b.ID,
		From:       from,
		ProviderID: providerID,
		Total:      b.Price.Total,
		Commission: settlement.PlatformCommission,
		Earnings:   settlement.ProviderEarnings,
		Actor:      actor,
		At:         b.UpdatedAt,
	})
	return newTimelineEntry(b, from, actor, note, now), nil
}

// Cancel is legal from any non-terminal state. The refund schedule is applied
// on lead time alone, regardless of actor or progress stage.
func (b *Booking) Cancel(actor Actor, reason string, schedule RefundSchedule, now time.Time) (TimelineEntry, error) {
	if b.Status.Terminal() {
		return TimelineEntry{}, ErrInvalidState
	}
	refund, fee, percent, err := schedule.RefundFor(b.Price.Total, now.UTC(), b.ScheduledAt)
	if err != nil {
		return TimelineEntry{}, err
	}
	from := b.Status
	b.Status = StatusCancelled
	b.RefundAmount = refund
	b.CancellationFee = fee
	b.Cancellation = &Cancellation{Reason: reason, By: actor, RefundPercent: percent}
	b.touch(now)
	b.Milestones.CancelledAt = &b.UpdatedAt
	b.Record(BookingCancelled{
		BookingID:     b.ID,
		From:          from,
		Reason:        reason,
		RefundPercent: percent,
		Refund:        refund,
		Fee:           fee,
		Actor:         actor,
		At:            b.UpdatedAt,
	})
	return newTimelineEntry(b, from, actor, reason, now), nil
}

// AddCharge appends an extra charge before the service starts and recomputes
// the breakdown. It gets its own audit entry rather than a silent recompute.
func (b *Booking) AddCharge(charge money.Money, vatRatePercent int64, actor Actor, note string, now time.Time) (TimelineEntry, error) {
	switch b.Status {
	case StatusPending, StatusConfirmed:
	default:
		if b.Status.Terminal() {
			return TimelineEntry{}, ErrInvalidState
		}
		return TimelineEntry{}, ErrPricingFrozen
	}
	updated, err := b.Price.AddCharge(charge, vatRatePercent)
	if err != nil {
		return TimelineEntry{}, err
	}
	b.Price = updated
	b.touch(now)
	b.Record(ChargeAdded{BookingID: b.ID, Charge: charge, NewTotal: b.Price.Total, Actor: actor, At: b.UpdatedAt})
	return newTimelineEntry(b, b.Status, actor, note, now), nil
}

// MarkPaid records the gateway's asynchronous capture report.
func (b *Booking) MarkPaid(now time.Time) error {
	if b.PaymentStatus != PaymentPending {
		return ErrInvalidState
	}
	b.PaymentStatus = PaymentPaid
	b.touch(now)
	b.Record(PaymentRecorded{BookingID: b.ID, Status: PaymentPaid, At: b.UpdatedAt})
	return nil
}

// MarkRefunded records that the gateway returned the captured amount.
func (b *Booking) MarkRefunded(now time.Time) error {
	if b.PaymentStatus != PaymentPaid {
		return ErrInvalidState
	}
	b.PaymentStatus = PaymentRefunded
	b.touch(now)
	b.Record(PaymentRecorded{BookingID: b.ID, Status: PaymentRefunded, At: b.UpdatedAt})
	return nil
}

func (b *Booking) ensureAssigned(providerID string) error {
	if providerID == "" {
		return ErrProviderRequired
	}
	if b.ProviderID == "" {
		return ErrInvalidState
	}
	if b.ProviderID != providerID {
		return ErrForbidden
	}
	return nil
}

func (b *Booking) touch(now time.Time) {
	b.UpdatedAt = now.UTC()
}
