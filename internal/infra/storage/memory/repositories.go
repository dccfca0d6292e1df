package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainbooking "khidma/internal/domain/booking"
	domaincatalog "khidma/internal/domain/catalog"
	domainprovider "khidma/internal/domain/provider"
	"khidma/internal/domain/shared/events"
	"khidma/internal/domain/shared/money"
)

// ErrConcurrentUpdate is returned when a version-checked save loses a race.
var ErrConcurrentUpdate = domainbooking.ErrConcurrentUpdate

// BookingRepository is an in-memory store with the same optimistic-versioning
// contract as the Mongo implementation: Save matches on (id, version) and the
// loser of a race gets ErrConcurrentUpdate.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.ID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.ID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return cloneBooking(b), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, exists := r.items[b.ID]
	if exists && stored.Version != b.Version {
		return ErrConcurrentUpdate
	}
	if !exists && b.Version != 0 {
		return ErrConcurrentUpdate
	}
	b.Version++
	r.items[b.ID] = cloneBooking(b)
	return nil
}

func (r *BookingRepository) ListByCustomer(ctx context.Context, customerID string) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainbooking.Booking
	for _, b := range r.items {
		if b.CustomerID == customerID {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *BookingRepository) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainbooking.Booking
	for _, b := range r.items {
		if b.Status == domainbooking.StatusPending && b.CreatedAt.Before(cutoff) {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// cloneBooking detaches the stored aggregate from the caller's copy so racing
// handlers each mutate their own snapshot.
func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	clone := *b
	clone.Milestones = domainbooking.Milestones{
		AssignedAt:  copyTime(b.Milestones.AssignedAt),
		AcceptedAt:  copyTime(b.Milestones.AcceptedAt),
		RejectedAt:  copyTime(b.Milestones.RejectedAt),
		EnRouteAt:   copyTime(b.Milestones.EnRouteAt),
		ArrivedAt:   copyTime(b.Milestones.ArrivedAt),
		StartedAt:   copyTime(b.Milestones.StartedAt),
		CompletedAt: copyTime(b.Milestones.CompletedAt),
		CancelledAt: copyTime(b.Milestones.CancelledAt),
	}
	if b.Cancellation != nil {
		c := *b.Cancellation
		clone.Cancellation = &c
	}
	clone.EventRecorder = events.EventRecorder{}
	return &clone
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// TimelineStore is the append-only in-memory recorder. There is no update or
// delete path at all.
type TimelineStore struct {
	mu      sync.RWMutex
	entries map[domainbooking.ID][]domainbooking.TimelineEntry
}

func NewTimelineStore() *TimelineStore {
	return &TimelineStore{entries: make(map[domainbooking.ID][]domainbooking.TimelineEntry)}
}

func (s *TimelineStore) Append(ctx context.Context, entry domainbooking.TimelineEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.BookingID] = append(s.entries[entry.BookingID], entry)
	return nil
}

func (s *TimelineStore) History(ctx context.Context, bookingID domainbooking.ID) ([]domainbooking.TimelineEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.entries[bookingID]
	out := make([]domainbooking.TimelineEntry, len(stored))
	copy(out, stored)
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out, nil
}

// CatalogRepository holds catalog services.
type CatalogRepository struct {
	mu    sync.RWMutex
	items map[domaincatalog.ServiceID]*domaincatalog.Service
}

func NewCatalogRepository() *CatalogRepository {
	return &CatalogRepository{items: make(map[domaincatalog.ServiceID]*domaincatalog.Service)}
}

func (r *CatalogRepository) ByID(ctx context.Context, id domaincatalog.ServiceID) (*domaincatalog.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	svc, ok := r.items[id]
	if !ok {
		return nil, domaincatalog.ErrServiceNotFound
	}
	clone := *svc
	return &clone, nil
}

func (r *CatalogRepository) Save(ctx context.Context, svc *domaincatalog.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *svc
	r.items[svc.ID] = &clone
	return nil
}

// ProviderRepository holds provider records.
type ProviderRepository struct {
	mu    sync.RWMutex
	items map[domainprovider.ID]*domainprovider.Provider
}

func NewProviderRepository() *ProviderRepository {
	return &ProviderRepository{items: make(map[domainprovider.ID]*domainprovider.Provider)}
}

func (r *ProviderRepository) ByID(ctx context.Context, id domainprovider.ID) (*domainprovider.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return nil, domainprovider.ErrProviderNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *ProviderRepository) Save(ctx context.Context, p *domainprovider.Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *p
	r.items[p.ID] = &clone
	return nil
}

// LedgerStore keeps earnings credits keyed by booking ID so a replayed
// completion cannot double-credit.
type LedgerStore struct {
	mu      sync.RWMutex
	credits map[string]domainprovider.EarningsCredit
}

func NewLedgerStore() *LedgerStore {
	return &LedgerStore{credits: make(map[string]domainprovider.EarningsCredit)}
}

func (s *LedgerStore) Credit(ctx context.Context, entry domainprovider.EarningsCredit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.credits[entry.BookingID]; exists {
		return domainprovider.ErrAlreadyCredited
	}
	s.credits[entry.BookingID] = entry
	return nil
}

func (s *LedgerStore) TotalsFor(ctx context.Context, providerID domainprovider.ID) (domainprovider.Totals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	totals := domainprovider.Totals{}
	for _, c := range s.credits {
		if c.ProviderID != providerID {
			continue
		}
		if totals.CompletedBookings == 0 {
			totals.Earned = money.Zero(c.Earnings.Currency)
			totals.CommissionPaid = money.Zero(c.Commission.Currency)
		}
		totals.CompletedBookings++
		earned, err := totals.Earned.Add(c.Earnings)
		if err != nil {
			return domainprovider.Totals{}, err
		}
		paid, err := totals.CommissionPaid.Add(c.Commission)
		if err != nil {
			return domainprovider.Totals{}, err
		}
		totals.Earned = earned
		totals.CommissionPaid = paid
	}
	return totals, nil
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
var _ domainbooking.Timeline = (*TimelineStore)(nil)
var _ domaincatalog.Repository = (*CatalogRepository)(nil)
var _ domainprovider.Repository = (*ProviderRepository)(nil)
var _ domainprovider.Ledger = (*LedgerStore)(nil)
