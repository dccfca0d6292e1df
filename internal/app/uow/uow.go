package uow

import (
	"context"

	domainbooking "khidma/internal/domain/booking"
	domaincatalog "khidma/internal/domain/catalog"
	domainprovider "khidma/internal/domain/provider"
)

// UnitOfWork coordinates repositories inside a transaction boundary. A booking
// transition, its timeline entry, and any ledger credit commit as one unit or
// not at all.
type UnitOfWork interface {
	Bookings() domainbooking.Repository
	Timeline() domainbooking.Timeline
	Catalog() domaincatalog.Repository
	Providers() domainprovider.Repository
	Ledger() domainprovider.Ledger

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
