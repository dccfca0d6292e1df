package provider

import (
	"context"

	handlersupport "khidma/internal/app/handlers/support"
	"khidma/internal/app/queries"
	"khidma/internal/app/uow"
	domainprovider "khidma/internal/domain/provider"
)

const getEarningsKey = "provider.earnings"

type GetEarningsQuery struct {
	ProviderID string
}

func (q GetEarningsQuery) Key() string { return getEarningsKey }

type EarningsView struct {
	ProviderID        string `json:"provider_id"`
	CompletedBookings int64  `json:"completed_bookings"`
	Currency          string `json:"currency"`
	Earned            int64  `json:"earned"`
	CommissionPaid    int64  `json:"commission_paid"`
}

type GetEarningsHandler struct {
	UoWFactory uow.UoWFactory
}

// Handle materializes the provider's running totals from the earnings ledger;
// nothing is stored on the provider record itself.
func (h *GetEarningsHandler) Handle(ctx context.Context, q GetEarningsQuery) (EarningsView, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return EarningsView{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	id := domainprovider.ID(q.ProviderID)
	if _, err := unit.Providers().ByID(execCtx, id); err != nil {
		return EarningsView{}, err
	}
	totals, err := unit.Ledger().TotalsFor(execCtx, id)
	if err != nil {
		return EarningsView{}, err
	}
	return EarningsView{
		ProviderID:        q.ProviderID,
		CompletedBookings: totals.CompletedBookings,
		Currency:          totals.Earned.Currency,
		Earned:            totals.Earned.Amount,
		CommissionPaid:    totals.CommissionPaid.Amount,
	}, nil
}

var _ queries.Handler[GetEarningsQuery, EarningsView] = (*GetEarningsHandler)(nil)
