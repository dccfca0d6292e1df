package booking

import (
	"errors"
	"sort"
	"time"

	"khidma/internal/domain/shared/money"
)

var ErrInvalidRefundTier = errors.New("booking: refund tier percent out of range")

// RefundTier grants a refund percentage when the cancellation happens at least
// MinLead before the scheduled start.
type RefundTier struct {
	MinLead time.Duration
	Percent int64
}

// RefundSchedule maps lead time before the scheduled start to a refund
// percentage. The thresholds are configuration, not constants; the default
// schedule is 100% at >=4h, 50% at >=2h, 0% below.
//
// The schedule deliberately ignores who cancels and how far the booking has
// progressed; see DESIGN.md for the recorded policy gap.
type RefundSchedule struct {
	tiers []RefundTier
}

// NewRefundSchedule validates tiers and orders them by descending lead time.
func NewRefundSchedule(tiers []RefundTier) (RefundSchedule, error) {
	ordered := make([]RefundTier, len(tiers))
	copy(ordered, tiers)
	for _, t := range ordered {
		if t.Percent < 0 || t.Percent > 100 {
			return RefundSchedule{}, ErrInvalidRefundTier
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].MinLead > ordered[j].MinLead })
	return RefundSchedule{tiers: ordered}, nil
}

// DefaultRefundSchedule returns the stock 4h/2h schedule.
func DefaultRefundSchedule() RefundSchedule {
	s, _ := NewRefundSchedule([]RefundTier{
		{MinLead: 4 * time.Hour, Percent: 100},
		{MinLead: 2 * time.Hour, Percent: 50},
	})
	return s
}

// Evaluate returns the refund percentage for cancelling at cancelAt a booking
// scheduled for scheduledAt. Deterministic given its two inputs.
func (s RefundSchedule) Evaluate(cancelAt, scheduledAt time.Time) int64 {
	lead := scheduledAt.Sub(cancelAt)
	for _, t := range s.tiers {
		if lead >= t.MinLead {
			return t.Percent
		}
	}
	return 0
}

// RefundFor computes the refund and the resulting cancellation fee for the
// given total. The two always sum back to the total.
func (s RefundSchedule) RefundFor(total money.Money, cancelAt, scheduledAt time.Time) (refund, fee money.Money, percent int64, err error) {
	percent = s.Evaluate(cancelAt, scheduledAt)
	refund, err = total.Percent(percent)
	if err != nil {
		return money.Money{}, money.Money{}, 0, err
	}
	fee, err = total.Sub(refund)
	if err != nil {
		return money.Money{}, money.Money{}, 0, err
	}
	return refund, fee, percent, nil
}
