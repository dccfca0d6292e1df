package provider

import (
	"context"
	"errors"
	"time"

	"khidma/internal/domain/shared/money"
)

var (
	ErrProviderNotFound = errors.New("provider: not found")
	ErrProviderInactive = errors.New("provider: not active")
	ErrAlreadyCredited  = errors.New("provider: booking already credited")
	ErrInvalidCredit    = errors.New("provider: credit amounts must not be negative")
)

type ID string

// Provider is the party performing services. Running totals are not stored on
// the record; they are derived from the earnings ledger so concurrent
// completions cannot lose updates.
type Provider struct {
	ID                    ID
	Name                  string
	CommissionRatePercent int64
	Active                bool
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Provider, error)
	Save(ctx context.Context, p *Provider) error
}

// EarningsCredit is one immutable ledger row per completed booking. BookingID
// doubles as the idempotency key: a retried completion inserts the same row
// and the ledger rejects the duplicate.
type EarningsCredit struct {
	BookingID  string
	ProviderID ID
	Earnings   money.Money
	Commission money.Money
	At         time.Time
}

// Totals is the materialized view over a provider's ledger entries.
type Totals struct {
	CompletedBookings int64
	Earned            money.Money
	CommissionPaid    money.Money
}

type Ledger interface {
	// Credit appends the entry, returning ErrAlreadyCredited when the
	// booking was credited before.
	Credit(ctx context.Context, entry EarningsCredit) error
	TotalsFor(ctx context.Context, providerID ID) (Totals, error)
}

// NewCredit validates a ledger entry before it is appended.
func NewCredit(bookingID string, providerID ID, earnings, commission money.Money, at time.Time) (EarningsCredit, error) {
	if bookingID == "" || providerID == "" {
		return EarningsCredit{}, ErrInvalidCredit
	}
	if earnings.IsNegative() || commission.IsNegative() {
		return EarningsCredit{}, ErrInvalidCredit
	}
	return EarningsCredit{
		BookingID:  bookingID,
		ProviderID: providerID,
		Earnings:   earnings,
		Commission: commission,
		At:         at.UTC(),
	}, nil
}
