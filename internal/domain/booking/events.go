package booking

import (
	"time"

	"khidma/internal/domain/shared/money"
)

type BookingCreated struct {
	BookingID   ID
	Number      string
	CustomerID  string
	ServiceID   string
	Total       money.Money
	ScheduledAt time.Time
	Actor       Actor
	At          time.Time
}

func (e BookingCreated) EventName() string     { return "booking.created" }
func (e BookingCreated) AggregateID() string   { return string(e.BookingID) }
func (e BookingCreated) OccurredAt() time.Time { return e.At }

type ProviderAssigned struct {
	BookingID  ID
	ProviderID string
	Actor      Actor
	At         time.Time
}

func (e ProviderAssigned) EventName() string     { return "booking.provider_assigned" }
func (e ProviderAssigned) AggregateID() string   { return string(e.BookingID) }
func (e ProviderAssigned) OccurredAt() time.Time { return e.At }

type BookingConfirmed struct {
	BookingID ID
	From      Status
	Actor     Actor
	At        time.Time
}

func (e BookingConfirmed) EventName() string     { return "booking.confirmed" }
func (e BookingConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e BookingConfirmed) OccurredAt() time.Time { return e.At }

type BookingRejected struct {
	BookingID ID
	From      Status
	Reason    string
	Actor     Actor
	At        time.Time
}

func (e BookingRejected) EventName() string     { return "booking.rejected" }
func (e BookingRejected) AggregateID() string   { return string(e.BookingID) }
func (e BookingRejected) OccurredAt() time.Time { return e.At }

type ProviderEnRoute struct {
	BookingID ID
	From      Status
	Actor     Actor
	At        time.Time
}

func (e ProviderEnRoute) EventName() string     { return "booking.provider_en_route" }
func (e ProviderEnRoute) AggregateID() string   { return string(e.BookingID) }
func (e ProviderEnRoute) OccurredAt() time.Time { return e.At }

type ProviderArrived struct {
	BookingID ID
	From      Status
	Actor     Actor
	At        time.Time
}

func (e ProviderArrived) EventName() string     { return "booking.provider_arrived" }
func (e ProviderArrived) AggregateID() string   { return string(e.BookingID) }
func (e ProviderArrived) OccurredAt() time.Time { return e.At }

type ServiceStarted struct {
	BookingID ID
	From      Status
	Actor     Actor
	At        time.Time
}

func (e ServiceStarted) EventName() string     { return "booking.service_started" }
func (e ServiceStarted) AggregateID() string   { return string(e.BookingID) }
func (e ServiceStarted) OccurredAt() time.Time { return e.At }

type BookingCompleted struct {
	BookingID  ID
	From       Status
	ProviderID string
	Total      money.Money
	Commission money.Money
	Earnings   money.Money
	Actor      Actor
	At         time.Time
}

func (e BookingCompleted) EventName() string     { return "booking.completed" }
func (e BookingCompleted) AggregateID() string   { return string(e.BookingID) }
func (e BookingCompleted) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID     ID
	From          Status
	Reason        string
	RefundPercent int64
	Refund        money.Money
	Fee           money.Money
	Actor         Actor
	At            time.Time
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }

type ChargeAdded struct {
	BookingID ID
	Charge    money.Money
	NewTotal  money.Money
	Actor     Actor
	At        time.Time
}

func (e ChargeAdded) EventName() string     { return "booking.charge_added" }
func (e ChargeAdded) AggregateID() string   { return string(e.BookingID) }
func (e ChargeAdded) OccurredAt() time.Time { return e.At }

type PaymentRecorded struct {
	BookingID ID
	Status    PaymentStatus
	At        time.Time
}

func (e PaymentRecorded) EventName() string     { return "booking.payment_recorded" }
func (e PaymentRecorded) AggregateID() string   { return string(e.BookingID) }
func (e PaymentRecorded) OccurredAt() time.Time { return e.At }
