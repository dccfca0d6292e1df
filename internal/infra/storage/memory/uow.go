package memory

import (
	"context"
	"errors"

	"khidma/internal/app/uow"
	domainbooking "khidma/internal/domain/booking"
	domaincatalog "khidma/internal/domain/catalog"
	domainprovider "khidma/internal/domain/provider"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	BookingRepo  domainbooking.Repository
	TimelineRepo domainbooking.Timeline
	CatalogRepo  domaincatalog.Repository
	ProviderRepo domainprovider.Repository
	LedgerRepo   domainprovider.Ledger
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin starts a lightweight transaction boundary. No isolation is provided
// but the abstraction matches the application ports; optimistic versioning on
// the booking repository still serializes racing writers.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.BookingRepo == nil || f.TimelineRepo == nil || f.CatalogRepo == nil || f.ProviderRepo == nil || f.LedgerRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		bookings: f.BookingRepo,
		timeline: f.TimelineRepo,
		catalog:  f.CatalogRepo,
		provider: f.ProviderRepo,
		ledger:   f.LedgerRepo,
	}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	bookings domainbooking.Repository
	timeline domainbooking.Timeline
	catalog  domaincatalog.Repository
	provider domainprovider.Repository
	ledger   domainprovider.Ledger
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.bookings
}

func (u *Unit) Timeline() domainbooking.Timeline {
	return u.timeline
}

func (u *Unit) Catalog() domaincatalog.Repository {
	return u.catalog
}

func (u *Unit) Providers() domainprovider.Repository {
	return u.provider
}

func (u *Unit) Ledger() domainprovider.Ledger {
	return u.ledger
}

func (u *Unit) Commit(ctx context.Context) error {
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	return nil
}
