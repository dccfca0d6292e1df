package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"khidma/internal/app/uow"
	domainbooking "khidma/internal/domain/booking"
	domaincatalog "khidma/internal/domain/catalog"
	domainprovider "khidma/internal/domain/provider"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	BookingRepo  domainbooking.Repository
	TimelineRepo domainbooking.Timeline
	CatalogRepo  domaincatalog.Repository
	ProviderRepo domainprovider.Repository
	LedgerRepo   domainprovider.Ledger
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		db:       f.DB,
		session:  session,
		bookings: f.BookingRepo,
		timeline: f.TimelineRepo,
		catalog:  f.CatalogRepo,
		provider: f.ProviderRepo,
		ledger:   f.LedgerRepo,
	}, nil
}

type Unit struct {
	db      *mongo.Database
	session mongo.Session

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
	defer u.session.EndSession(ctx)
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures the Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var _ uow.UoWFactory = Factory{}
var _ uow.UnitOfWork = (*Unit)(nil)
