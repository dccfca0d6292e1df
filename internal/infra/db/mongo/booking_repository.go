package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "khidma/internal/domain/booking"
	domaincatalog "khidma/internal/domain/catalog"
	"khidma/internal/domain/pricing"
	"khidma/internal/domain/shared/money"
)

var ErrConcurrentUpdate = domainbooking.ErrConcurrentUpdate

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	col := db.Collection("agg_booking")
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "number", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "created_at", Value: 1}},
	})
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}},
	})
	return &BookingRepository{col: col}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save performs a version-checked upsert: the filter matches the version the
// aggregate was loaded at, so a racing writer loses with ErrConcurrentUpdate
// instead of silently overwriting.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListByCustomer(ctx context.Context, customerID string) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"customer_id": customerID}, opts)
	if err != nil {
		return nil, err
	}
	return decodeBookings(ctx, cur)
}

func (r *BookingRepository) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*domainbooking.Booking, error) {
	filter := bson.M{
		"status":     string(domainbooking.StatusPending),
		"created_at": bson.M{"$lt": cutoff.UnixMilli()},
	}
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return decodeBookings(ctx, cur)
}

func decodeBookings(ctx context.Context, cur *mongo.Cursor) ([]*domainbooking.Booking, error) {
	defer cur.Close(ctx)
	var out []*domainbooking.Booking
	for cur.Next(ctx) {
		var doc bookingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

type bookingDocument struct {
	ID         string `bson:"_id"`
	Number     string `bson:"number"`
	CustomerID string `bson:"customer_id"`
	ProviderID string `bson:"provider_id,omitempty"`
	ServiceID  string `bson:"service_id"`

	Status        string `bson:"status"`
	PaymentStatus string `bson:"payment_status"`
	ScheduledAt   int64  `bson:"scheduled_at"`

	Currency          string `bson:"currency"`
	BasePrice         int64  `bson:"base_price"`
	ServicePrice      int64  `bson:"service_price"`
	AdditionalCharges int64  `bson:"additional_charges"`
	DiscountAmount    int64  `bson:"discount_amount"`
	VATAmount         int64  `bson:"vat_amount"`
	TotalAmount       int64  `bson:"total_amount"`

	PlatformCommission int64 `bson:"platform_commission"`
	ProviderEarnings   int64 `bson:"provider_earnings"`
	CancellationFee    int64 `bson:"cancellation_fee"`
	RefundAmount       int64 `bson:"refund_amount"`

	CancellationReason string `bson:"cancellation_reason,omitempty"`
	CancelledByRole    string `bson:"cancelled_by_role,omitempty"`
	CancelledByID      string `bson:"cancelled_by_id,omitempty"`
	RefundPercent      int64  `bson:"refund_percent,omitempty"`

	RejectionReason string `bson:"rejection_reason,omitempty"`
	CompletionNote  string `bson:"completion_note,omitempty"`

	AssignedAt  *int64 `bson:"assigned_at,omitempty"`
	AcceptedAt  *int64 `bson:"accepted_at,omitempty"`
	RejectedAt  *int64 `bson:"rejected_at,omitempty"`
	EnRouteAt   *int64 `bson:"en_route_at,omitempty"`
	ArrivedAt   *int64 `bson:"arrived_at,omitempty"`
	StartedAt   *int64 `bson:"started_at,omitempty"`
	CompletedAt *int64 `bson:"completed_at,omitempty"`
	CancelledAt *int64 `bson:"cancelled_at,omitempty"`

	CreatedAt int64 `bson:"created_at"`
	UpdatedAt int64 `bson:"updated_at"`
	Version   int64 `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	doc := bookingDocument{
		ID:                 string(b.ID),
		Number:             b.Number,
		CustomerID:         b.CustomerID,
		ProviderID:         b.ProviderID,
		ServiceID:          string(b.ServiceID),
		Status:             string(b.Status),
		PaymentStatus:      string(b.PaymentStatus),
		ScheduledAt:        b.ScheduledAt.UnixMilli(),
		Currency:           b.Price.Total.Currency,
		BasePrice:          b.BasePrice.Amount,
		ServicePrice:       b.Price.ServicePrice.Amount,
		AdditionalCharges:  b.Price.AdditionalCharges.Amount,
		DiscountAmount:     b.Price.DiscountAmount.Amount,
		VATAmount:          b.Price.VATAmount.Amount,
		TotalAmount:        b.Price.Total.Amount,
		PlatformCommission: b.Settlement.PlatformCommission.Amount,
		ProviderEarnings:   b.Settlement.ProviderEarnings.Amount,
		CancellationFee:    b.CancellationFee.Amount,
		RefundAmount:       b.RefundAmount.Amount,
		RejectionReason:    b.RejectionReason,
		CompletionNote:     b.CompletionNote,
		AssignedAt:         timeToMillis(b.Milestones.AssignedAt),
		AcceptedAt:         timeToMillis(b.Milestones.AcceptedAt),
		RejectedAt:         timeToMillis(b.Milestones.RejectedAt),
		EnRouteAt:          timeToMillis(b.Milestones.EnRouteAt),
		ArrivedAt:          timeToMillis(b.Milestones.ArrivedAt),
		StartedAt:          timeToMillis(b.Milestones.StartedAt),
		CompletedAt:        timeToMillis(b.Milestones.CompletedAt),
		CancelledAt:        timeToMillis(b.Milestones.CancelledAt),
		CreatedAt:          b.CreatedAt.UnixMilli(),
		UpdatedAt:          b.UpdatedAt.UnixMilli(),
		Version:            b.Version,
	}
	if b.Cancellation != nil {
		doc.CancellationReason = b.Cancellation.Reason
		doc.CancelledByRole = string(b.Cancellation.By.Role)
		doc.CancelledByID = b.Cancellation.By.ID
		doc.RefundPercent = b.Cancellation.RefundPercent
	}
	return doc
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	cur := d.Currency
	b := &domainbooking.Booking{
		ID:         domainbooking.ID(d.ID),
		Number:     d.Number,
		CustomerID: d.CustomerID,
		ProviderID: d.ProviderID,
		ServiceID:  domaincatalog.ServiceID(d.ServiceID),
		BasePrice:  money.Money{Amount: d.BasePrice, Currency: cur},

		Status:        domainbooking.Status(d.Status),
		PaymentStatus: domainbooking.PaymentStatus(d.PaymentStatus),
		ScheduledAt:   millisToTime(d.ScheduledAt),

		Price: pricing.Breakdown{
			ServicePrice:      money.Money{Amount: d.ServicePrice, Currency: cur},
			AdditionalCharges: money.Money{Amount: d.AdditionalCharges, Currency: cur},
			DiscountAmount:    money.Money{Amount: d.DiscountAmount, Currency: cur},
			VATAmount:         money.Money{Amount: d.VATAmount, Currency: cur},
			Total:             money.Money{Amount: d.TotalAmount, Currency: cur},
		},
		Settlement: pricing.Settlement{
			PlatformCommission: money.Money{Amount: d.PlatformCommission, Currency: cur},
			ProviderEarnings:   money.Money{Amount: d.ProviderEarnings, Currency: cur},
		},
		CancellationFee: money.Money{Amount: d.CancellationFee, Currency: cur},
		RefundAmount:    money.Money{Amount: d.RefundAmount, Currency: cur},

		RejectionReason: d.RejectionReason,
		CompletionNote:  d.CompletionNote,

		Milestones: domainbooking.Milestones{
			AssignedAt:  millisToTimePtr(d.AssignedAt),
			AcceptedAt:  millisToTimePtr(d.AcceptedAt),
			RejectedAt:  millisToTimePtr(d.RejectedAt),
			EnRouteAt:   millisToTimePtr(d.EnRouteAt),
			ArrivedAt:   millisToTimePtr(d.ArrivedAt),
			StartedAt:   millisToTimePtr(d.StartedAt),
			CompletedAt: millisToTimePtr(d.CompletedAt),
			CancelledAt: millisToTimePtr(d.CancelledAt),
		},

		CreatedAt: millisToTime(d.CreatedAt),
		UpdatedAt: millisToTime(d.UpdatedAt),
		Version:   d.Version,
	}
	if d.CancellationReason != "" || d.CancelledByRole != "" {
		b.Cancellation = &domainbooking.Cancellation{
			Reason:        d.CancellationReason,
			By:            domainbooking.Actor{Role: domainbooking.Role(d.CancelledByRole), ID: d.CancelledByID},
			RefundPercent: d.RefundPercent,
		}
	}
	return b
}

func timeToMillis(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

func millisToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func millisToTimePtr(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := millisToTime(*ms)
	return &t
}
