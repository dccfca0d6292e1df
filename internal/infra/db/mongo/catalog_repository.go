package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domaincatalog "khidma/internal/domain/catalog"
	"khidma/internal/domain/shared/money"
)

type CatalogRepository struct {
	col *mongo.Collection
}

func NewCatalogRepository(db *mongo.Database) *CatalogRepository {
	return &CatalogRepository{col: db.Collection("catalog_services")}
}

func (r *CatalogRepository) ByID(ctx context.Context, id domaincatalog.ServiceID) (*domaincatalog.Service, error) {
	var doc serviceDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domaincatalog.ErrServiceNotFound
		}
		return nil, err
	}
	return doc.toService(), nil
}

func (r *CatalogRepository) Save(ctx context.Context, svc *domaincatalog.Service) error {
	doc := serviceDocument{
		ID:        string(svc.ID),
		Name:      svc.Name,
		Category:  svc.Category,
		BasePrice: svc.BasePrice.Amount,
		Currency:  svc.BasePrice.Currency,
		Active:    svc.Active,
	}
	_, err := r.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	return err
}

type serviceDocument struct {
	ID        string `bson:"_id"`
	Name      string `bson:"name"`
	Category  string `bson:"category"`
	BasePrice int64  `bson:"base_price"`
	Currency  string `bson:"currency"`
	Active    bool   `bson:"active"`
}

func (d serviceDocument) toService() *domaincatalog.Service {
	return &domaincatalog.Service{
		ID:        domaincatalog.ServiceID(d.ID),
		Name:      d.Name,
		Category:  d.Category,
		BasePrice: money.Money{Amount: d.BasePrice, Currency: d.Currency},
		Active:    d.Active,
	}
}

var _ domaincatalog.Repository = (*CatalogRepository)(nil)
