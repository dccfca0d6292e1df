package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsEmptyCurrency(t *testing.T) {
	_, err := New(100, "")
	require.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestAddAndSub(t *testing.T) {
	a := Must(1500, "SAR")
	b := Must(500, "SAR")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), sum.Amount)

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), diff.Amount)
}

func TestCurrencyMismatch(t *testing.T) {
	a := Must(100, "SAR")
	b := Must(100, "USD")

	_, err := a.Add(b)
	require.ErrorIs(t, err, ErrCurrencyMismatch)
	_, err = a.Sub(b)
	require.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestPercentTruncates(t *testing.T) {
	total := Must(999, "SAR")

	half, err := total.Percent(50)
	require.NoError(t, err)
	assert.Equal(t, int64(499), half.Amount)

	full, err := total.Percent(100)
	require.NoError(t, err)
	assert.Equal(t, total.Amount, full.Amount)

	none, err := total.Percent(0)
	require.NoError(t, err)
	assert.True(t, none.IsZero())
}

func TestPercentRange(t *testing.T) {
	total := Must(100, "SAR")
	_, err := total.Percent(101)
	require.ErrorIs(t, err, ErrInvalidPercent)
	_, err = total.Percent(-1)
	require.ErrorIs(t, err, ErrInvalidPercent)
}

func TestStringKeepsSignOnSmallNegatives(t *testing.T) {
	cases := []struct {
		amount int64
		want   string
	}{
		{150, "1.50 SAR"},
		{5, "0.05 SAR"},
		{0, "0.00 SAR"},
		{-50, "-0.50 SAR"},
		{-12345, "-123.45 SAR"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Money{Amount: tc.amount, Currency: "SAR"}.String())
	}
}

func TestClampZero(t *testing.T) {
	neg := Money{Amount: -250, Currency: "SAR"}
	assert.Equal(t, int64(0), neg.ClampZero().Amount)

	pos := Must(250, "SAR")
	assert.Equal(t, int64(250), pos.ClampZero().Amount)
}
