package pricing

import (
	"errors"

	"khidma/internal/domain/shared/money"
)

var (
	ErrNegativeComponent = errors.New("pricing: components cannot be negative")
	ErrCurrencyUnset     = errors.New("pricing: currency must be defined")
	ErrInvalidRate       = errors.New("pricing: rate out of range")
)

// Breakdown is the monetary snapshot carried by a booking. It is computed at
// creation, recomputed only when a charge is appended before the service
// starts, and frozen afterwards.
type Breakdown struct {
	ServicePrice      money.Money
	AdditionalCharges money.Money
	DiscountAmount    money.Money
	VATAmount         money.Money
	Total             money.Money
}

// Compute builds a Breakdown from the service base price. VAT applies to
// base + additional - discount. The effective discount is capped at the
// subtotal, so an oversized promo never yields negative tax and the stored
// breakdown always satisfies
// Total == ServicePrice + AdditionalCharges - DiscountAmount + VATAmount.
func Compute(base, additional, discount money.Money, vatRatePercent int64) (Breakdown, error) {
	if base.Currency == "" {
		return Breakdown{}, ErrCurrencyUnset
	}
	if vatRatePercent < 0 || vatRatePercent > 100 {
		return Breakdown{}, ErrInvalidRate
	}
	if additional.Currency == "" {
		additional = money.Zero(base.Currency)
	}
	if discount.Currency == "" {
		discount = money.Zero(base.Currency)
	}
	if base.IsNegative() || additional.IsNegative() || discount.IsNegative() {
		return Breakdown{}, ErrNegativeComponent
	}

	subtotal, err := base.Add(additional)
	if err != nil {
		return Breakdown{}, err
	}
	taxable, err := subtotal.Sub(discount)
	if err != nil {
		return Breakdown{}, err
	}
	if taxable.IsNegative() {
		discount = subtotal
		taxable = money.Zero(subtotal.Currency)
	}
	vat, err := taxable.Percent(vatRatePercent)
	if err != nil {
		return Breakdown{}, err
	}
	total, err := taxable.Add(vat)
	if err != nil {
		return Breakdown{}, err
	}

	return Breakdown{
		ServicePrice:      base,
		AdditionalCharges: additional,
		DiscountAmount:    discount,
		VATAmount:         vat,
		Total:             total,
	}, nil
}

// AddCharge returns a new Breakdown with the extra charge folded in and VAT
// and total recomputed under the same rate.
func (b Breakdown) AddCharge(charge money.Money, vatRatePercent int64) (Breakdown, error) {
	if charge.IsNegative() {
		return Breakdown{}, ErrNegativeComponent
	}
	additional, err := b.AdditionalCharges.Add(charge)
	if err != nil {
		return Breakdown{}, err
	}
	return Compute(b.ServicePrice, additional, b.DiscountAmount, vatRatePercent)
}

// Settlement is the commission split computed exactly once, on completion.
type Settlement struct {
	PlatformCommission money.Money
	ProviderEarnings   money.Money
}

// Split divides the booking total between the platform and the provider.
// Earnings are total minus commission, so the two always sum back to total
// regardless of truncation in the percentage.
func Split(total money.Money, commissionRatePercent int64) (Settlement, error) {
	if total.Currency == "" {
		return Settlement{}, ErrCurrencyUnset
	}
	if total.IsNegative() {
		return Settlement{}, ErrNegativeComponent
	}
	commission, err := total.Percent(commissionRatePercent)
	if err != nil {
		return Settlement{}, ErrInvalidRate
	}
	earnings, err := total.Sub(commission)
	if err != nil {
		return Settlement{}, err
	}
	return Settlement{PlatformCommission: commission, ProviderEarnings: earnings}, nil
}
