package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainprovider "khidma/internal/domain/provider"
	"khidma/internal/domain/shared/money"
)

type ProviderRepository struct {
	col *mongo.Collection
}

func NewProviderRepository(db *mongo.Database) *ProviderRepository {
	return &ProviderRepository{col: db.Collection("providers")}
}

func (r *ProviderRepository) ByID(ctx context.Context, id domainprovider.ID) (*domainprovider.Provider, error) {
	var doc providerDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainprovider.ErrProviderNotFound
		}
		return nil, err
	}
	return &domainprovider.Provider{
		ID:                    domainprovider.ID(doc.ID),
		Name:                  doc.Name,
		CommissionRatePercent: doc.CommissionRatePercent,
		Active:                doc.Active,
	}, nil
}

func (r *ProviderRepository) Save(ctx context.Context, p *domainprovider.Provider) error {
	doc := providerDocument{
		ID:                    string(p.ID),
		Name:                  p.Name,
		CommissionRatePercent: p.CommissionRatePercent,
		Active:                p.Active,
	}
	_, err := r.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	return err
}

type providerDocument struct {
	ID                    string `bson:"_id"`
	Name                  string `bson:"name"`
	CommissionRatePercent int64  `bson:"commission_rate_percent"`
	Active                bool   `bson:"active"`
}

// LedgerRepository stores one earnings row per completed booking. The unique
// index on booking_id makes a replayed completion a no-op insert.
type LedgerRepository struct {
	col *mongo.Collection
}

func NewLedgerRepository(db *mongo.Database) *LedgerRepository {
	col := db.Collection("provider_earnings")
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "booking_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "provider_id", Value: 1}},
	})
	return &LedgerRepository{col: col}
}

func (r *LedgerRepository) Credit(ctx context.Context, entry domainprovider.EarningsCredit) error {
	doc := creditDocument{
		BookingID:  entry.BookingID,
		ProviderID: string(entry.ProviderID),
		Earnings:   entry.Earnings.Amount,
		Commission: entry.Commission.Amount,
		Currency:   entry.Earnings.Currency,
		At:         entry.At.UnixMilli(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainprovider.ErrAlreadyCredited
		}
		return err
	}
	return nil
}

func (r *LedgerRepository) TotalsFor(ctx context.Context, providerID domainprovider.ID) (domainprovider.Totals, error) {
	cur, err := r.col.Find(ctx, bson.M{"provider_id": string(providerID)})
	if err != nil {
		return domainprovider.Totals{}, err
	}
	defer cur.Close(ctx)
	totals := domainprovider.Totals{}
	for cur.Next(ctx) {
		var doc creditDocument
		if err := cur.Decode(&doc); err != nil {
			return domainprovider.Totals{}, err
		}
		if totals.CompletedBookings == 0 {
			totals.Earned = money.Zero(doc.Currency)
			totals.CommissionPaid = money.Zero(doc.Currency)
		}
		totals.CompletedBookings++
		earned, err := totals.Earned.Add(money.Money{Amount: doc.Earnings, Currency: doc.Currency})
		if err != nil {
			return domainprovider.Totals{}, err
		}
		paid, err := totals.CommissionPaid.Add(money.Money{Amount: doc.Commission, Currency: doc.Currency})
		if err != nil {
			return domainprovider.Totals{}, err
		}
		totals.Earned = earned
		totals.CommissionPaid = paid
	}
	return totals, cur.Err()
}

type creditDocument struct {
	BookingID  string `bson:"booking_id"`
	ProviderID string `bson:"provider_id"`
	Earnings   int64  `bson:"earnings"`
	Commission int64  `bson:"commission"`
	Currency   string `bson:"currency"`
	At         int64  `bson:"at"`
}

var _ domainprovider.Repository = (*ProviderRepository)(nil)
var _ domainprovider.Ledger = (*LedgerRepository)(nil)
