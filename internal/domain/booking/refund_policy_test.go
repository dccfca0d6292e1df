package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"khidma/internal/domain/shared/money"
)

func TestRefundScheduleThresholds(t *testing.T) {
	schedule := DefaultRefundSchedule()
	scheduledAt := time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		lead    time.Duration
		percent int64
	}{
		{"five hours", 5 * time.Hour, 100},
		{"exactly four hours", 4 * time.Hour, 100},
		{"three hours", 3 * time.Hour, 50},
		{"exactly two hours", 2 * time.Hour, 50},
		{"one hour", time.Hour, 0},
		{"after start", -time.Hour, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cancelAt := scheduledAt.Add(-tc.lead)
			assert.Equal(t, tc.percent, schedule.Evaluate(cancelAt, scheduledAt))
		})
	}
}

func TestRefundForSplitsTotal(t *testing.T) {
	schedule := DefaultRefundSchedule()
	total := money.Must(40250, "SAR") // 402.50 SAR
	scheduledAt := time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC)

	refund, fee, percent, err := schedule.RefundFor(total, scheduledAt.Add(-5*time.Hour), scheduledAt)
	require.NoError(t, err)
	assert.Equal(t, int64(100), percent)
	assert.Equal(t, int64(40250), refund.Amount)
	assert.Equal(t, int64(0), fee.Amount)

	refund, fee, percent, err = schedule.RefundFor(total, scheduledAt.Add(-time.Hour), scheduledAt)
	require.NoError(t, err)
	assert.Equal(t, int64(0), percent)
	assert.Equal(t, int64(0), refund.Amount)
	assert.Equal(t, int64(40250), fee.Amount)

	refund, fee, percent, err = schedule.RefundFor(total, scheduledAt.Add(-3*time.Hour), scheduledAt)
	require.NoError(t, err)
	assert.Equal(t, int64(50), percent)
	assert.Equal(t, int64(20125), refund.Amount)
	assert.Equal(t, int64(20125), fee.Amount)
	assert.Equal(t, total.Amount, refund.Amount+fee.Amount)
}

func TestRefundMonotonicity(t *testing.T) {
	schedule := DefaultRefundSchedule()
	scheduledAt := time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC)

	previous := int64(100)
	for lead := 6 * time.Hour; lead >= 0; lead -= 30 * time.Minute {
		percent := schedule.Evaluate(scheduledAt.Add(-lead), scheduledAt)
		assert.LessOrEqual(t, percent, previous, "refund must not grow as lead time shrinks")
		previous = percent
	}
}

func TestNewRefundScheduleValidatesPercent(t *testing.T) {
	_, err := NewRefundSchedule([]RefundTier{{MinLead: time.Hour, Percent: 120}})
	require.ErrorIs(t, err, ErrInvalidRefundTier)
}

func TestNewRefundScheduleOrdersTiers(t *testing.T) {
	s, err := NewRefundSchedule([]RefundTier{
		{MinLead: 2 * time.Hour, Percent: 50},
		{MinLead: 4 * time.Hour, Percent: 100},
	})
	require.NoError(t, err)
	scheduledAt := time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC)
	assert.Equal(t, int64(100), s.Evaluate(scheduledAt.Add(-5*time.Hour), scheduledAt))
}
