package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "khidma/internal/domain/booking"
	domaincatalog "khidma/internal/domain/catalog"
	domainprovider "khidma/internal/domain/provider"
	"khidma/internal/domain/pricing"
	"khidma/internal/domain/shared/money"
)

var repoNow = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

func seedBooking(t *testing.T, id string) *domainbooking.Booking {
	t.Helper()
	base := money.Must(35000, "SAR")
	breakdown, err := pricing.Compute(base, money.Zero("SAR"), money.Zero("SAR"), 15)
	require.NoError(t, err)
	b, _, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:          domainbooking.ID(id),
		Number:      domainbooking.NewNumber(repoNow),
		CustomerID:  "cust-1",
		ServiceID:   "svc-1",
		BasePrice:   base,
		Price:       breakdown,
		ScheduledAt: repoNow.Add(6 * time.Hour),
		Actor:       domainbooking.Actor{Role: domainbooking.RoleCustomer, ID: "cust-1"},
		Now:         repoNow,
	})
	require.NoError(t, err)
	b.ClearEvents()
	return b
}

func TestBookingRepositoryRoundTrip(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()
	b := seedBooking(t, "bk-1")

	require.NoError(t, repo.Save(ctx, b))
	assert.Equal(t, int64(1), b.Version)

	loaded, err := repo.ByID(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, b.ID, loaded.ID)
	assert.Equal(t, b.Price.Total, loaded.Price.Total)
	assert.Empty(t, loaded.PendingEvents())

	_, err = repo.ByID(ctx, "missing")
	require.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
}

func TestBookingRepositoryVersionConflict(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, seedBooking(t, "bk-1")))

	first, err := repo.ByID(ctx, "bk-1")
	require.NoError(t, err)
	second, err := repo.ByID(ctx, "bk-1")
	require.NoError(t, err)

	_, err = first.AssignProvider("prov-1", domainbooking.Actor{Role: domainbooking.RoleAdmin}, repoNow)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, first))

	_, err = second.AssignProvider("prov-2", domainbooking.Actor{Role: domainbooking.RoleAdmin}, repoNow)
	require.NoError(t, err)
	require.ErrorIs(t, repo.Save(ctx, second), ErrConcurrentUpdate)

	winner, err := repo.ByID(ctx, "bk-1")
	require.NoError(t, err)
	assert.Equal(t, "prov-1", winner.ProviderID)
}

func TestBookingRepositoryRejectsStaleInsert(t *testing.T) {
	repo := NewBookingRepository()
	b := seedBooking(t, "bk-1")
	b.Version = 3
	require.ErrorIs(t, repo.Save(context.Background(), b), ErrConcurrentUpdate)
}

func TestBookingRepositoryListPendingBefore(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()

	old := seedBooking(t, "bk-old")
	old.CreatedAt = repoNow.Add(-2 * time.Hour)
	require.NoError(t, repo.Save(ctx, old))

	fresh := seedBooking(t, "bk-fresh")
	require.NoError(t, repo.Save(ctx, fresh))

	confirmed := seedBooking(t, "bk-confirmed")
	confirmed.CreatedAt = repoNow.Add(-2 * time.Hour)
	_, err := confirmed.AssignProvider("prov-1", domainbooking.Actor{Role: domainbooking.RoleAdmin}, repoNow)
	require.NoError(t, err)
	_, err = confirmed.Accept("prov-1", repoNow)
	require.NoError(t, err)
	confirmed.ClearEvents()
	require.NoError(t, repo.Save(ctx, confirmed))

	stale, err := repo.ListPendingBefore(ctx, repoNow.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, domainbooking.ID("bk-old"), stale[0].ID)
}

func TestTimelineStoreOrdering(t *testing.T) {
	store := NewTimelineStore()
	ctx := context.Background()

	entries := []domainbooking.TimelineEntry{
		{ID: "t2", BookingID: "bk-1", To: domainbooking.StatusConfirmed, At: repoNow.Add(time.Minute)},
		{ID: "t1", BookingID: "bk-1", To: domainbooking.StatusPending, At: repoNow},
		{ID: "t3", BookingID: "bk-1", To: domainbooking.StatusEnRoute, At: repoNow.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		require.NoError(t, store.Append(ctx, e))
	}

	history, err := store.History(ctx, "bk-1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "t1", history[0].ID)
	assert.Equal(t, "t2", history[1].ID)
	assert.Equal(t, "t3", history[2].ID)
}

func TestCatalogRepository(t *testing.T) {
	repo := NewCatalogRepository()
	ctx := context.Background()

	svc := &domaincatalog.Service{
		ID:        "svc-1",
		Name:      "AC Maintenance",
		Category:  "hvac",
		BasePrice: money.Must(25000, "SAR"),
		Active:    true,
	}
	require.NoError(t, repo.Save(ctx, svc))

	loaded, err := repo.ByID(ctx, "svc-1")
	require.NoError(t, err)
	assert.Equal(t, svc.BasePrice, loaded.BasePrice)

	_, err = repo.ByID(ctx, "missing")
	require.ErrorIs(t, err, domaincatalog.ErrServiceNotFound)
}

func TestLedgerStoreIdempotency(t *testing.T) {
	ledger := NewLedgerStore()
	ctx := context.Background()

	credit, err := domainprovider.NewCredit("bk-1", "prov-1", money.Must(32200, "SAR"), money.Must(8050, "SAR"), repoNow)
	require.NoError(t, err)
	require.NoError(t, ledger.Credit(ctx, credit))
	require.ErrorIs(t, ledger.Credit(ctx, credit), domainprovider.ErrAlreadyCredited)

	other, err := domainprovider.NewCredit("bk-2", "prov-1", money.Must(10000, "SAR"), money.Must(2500, "SAR"), repoNow)
	require.NoError(t, err)
	require.NoError(t, ledger.Credit(ctx, other))

	totals, err := ledger.TotalsFor(ctx, "prov-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), totals.CompletedBookings)
	assert.Equal(t, int64(42200), totals.Earned.Amount)
	assert.Equal(t, int64(10550), totals.CommissionPaid.Amount)

	empty, err := ledger.TotalsFor(ctx, "prov-unknown")
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.CompletedBookings)
}
