package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"khidma/internal/domain/shared/money"
)

func TestComputeAppliesVATToNetBase(t *testing.T) {
	base := money.Must(30000, "SAR")
	additional := money.Must(5000, "SAR")
	discount := money.Must(2000, "SAR")

	b, err := Compute(base, additional, discount, 15)
	require.NoError(t, err)

	// taxable = 30000 + 5000 - 2000 = 33000, vat = 4950, total = 37950
	assert.Equal(t, int64(4950), b.VATAmount.Amount)
	assert.Equal(t, int64(37950), b.Total.Amount)
	assert.Equal(t, base, b.ServicePrice)
}

func TestComputeCapsOversizedDiscount(t *testing.T) {
	base := money.Must(10000, "SAR")
	discount := money.Must(15000, "SAR")

	b, err := Compute(base, money.Zero("SAR"), discount, 15)
	require.NoError(t, err)

	// the stored discount is capped at the subtotal so the breakdown identity
	// still holds
	assert.Equal(t, int64(10000), b.DiscountAmount.Amount)
	assert.Equal(t, int64(0), b.VATAmount.Amount)
	assert.Equal(t, int64(0), b.Total.Amount)
	want := b.ServicePrice.Amount + b.AdditionalCharges.Amount - b.DiscountAmount.Amount + b.VATAmount.Amount
	assert.Equal(t, want, b.Total.Amount)
}

func TestComputeRejectsMismatchedDiscountCurrency(t *testing.T) {
	_, err := Compute(money.Must(10000, "SAR"), money.Zero("SAR"), money.Must(15000, "USD"), 15)
	require.ErrorIs(t, err, money.ErrCurrencyMismatch)
}

func TestComputeRejectsNegativeComponents(t *testing.T) {
	neg := money.Money{Amount: -100, Currency: "SAR"}
	_, err := Compute(neg, money.Zero("SAR"), money.Zero("SAR"), 15)
	require.ErrorIs(t, err, ErrNegativeComponent)

	_, err = Compute(money.Must(100, "SAR"), neg, money.Zero("SAR"), 15)
	require.ErrorIs(t, err, ErrNegativeComponent)
}

func TestComputeRejectsInvalidRate(t *testing.T) {
	_, err := Compute(money.Must(100, "SAR"), money.Zero("SAR"), money.Zero("SAR"), 101)
	require.ErrorIs(t, err, ErrInvalidRate)
}

func TestAddChargeRecomputesTotal(t *testing.T) {
	b, err := Compute(money.Must(30000, "SAR"), money.Zero("SAR"), money.Zero("SAR"), 15)
	require.NoError(t, err)

	updated, err := b.AddCharge(money.Must(10000, "SAR"), 15)
	require.NoError(t, err)

	assert.Equal(t, int64(10000), updated.AdditionalCharges.Amount)
	// taxable = 40000, vat = 6000, total = 46000
	assert.Equal(t, int64(6000), updated.VATAmount.Amount)
	assert.Equal(t, int64(46000), updated.Total.Amount)

	// original stays intact
	assert.Equal(t, int64(34500), b.Total.Amount)
}

func TestBreakdownInvariant(t *testing.T) {
	cases := []struct {
		name                       string
		base, additional, discount int64
		vat                        int64
	}{
		{"plain", 35000, 0, 0, 15},
		{"with extras", 25000, 7500, 1500, 15},
		{"zero vat", 15000, 0, 500, 0},
		{"odd amounts", 33333, 777, 55, 15},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := Compute(
				money.Must(tc.base, "SAR"),
				money.Must(tc.additional, "SAR"),
				money.Must(tc.discount, "SAR"),
				tc.vat,
			)
			require.NoError(t, err)
			want := tc.base + tc.additional - tc.discount + b.VATAmount.Amount
			assert.Equal(t, want, b.Total.Amount)
		})
	}
}

func TestSplitSumsBackToTotal(t *testing.T) {
	cases := []struct {
		name  string
		total int64
		rate  int64
	}{
		{"even", 40000, 20},
		{"truncating", 40250, 15},
		{"zero rate", 40250, 0},
		{"full rate", 40250, 100},
		{"odd total", 99999, 33},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Split(money.Must(tc.total, "SAR"), tc.rate)
			require.NoError(t, err)
			sum := s.PlatformCommission.Amount + s.ProviderEarnings.Amount
			assert.Equal(t, tc.total, sum)
			assert.Equal(t, tc.total*tc.rate/100, s.PlatformCommission.Amount)
			assert.False(t, s.ProviderEarnings.IsNegative())
		})
	}
}

func TestSplitRejectsBadInput(t *testing.T) {
	_, err := Split(money.Must(100, "SAR"), 101)
	require.ErrorIs(t, err, ErrInvalidRate)

	_, err = Split(money.Money{Amount: -1, Currency: "SAR"}, 10)
	require.ErrorIs(t, err, ErrNegativeComponent)

	_, err = Split(money.Money{Amount: 100}, 10)
	require.ErrorIs(t, err, ErrCurrencyUnset)
}
