package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "khidma/internal/domain/booking"
)

// TimelineRepository is insert-only: there is no update or delete method, and
// none must ever be added. The collection is the audit record for disputes.
type TimelineRepository struct {
	col *mongo.Collection
}

func NewTimelineRepository(db *mongo.Database) *TimelineRepository {
	col := db.Collection("booking_timeline")
	_, _ = col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "booking_id", Value: 1}, {Key: "at", Value: 1}},
	})
	return &TimelineRepository{col: col}
}

func (r *TimelineRepository) Append(ctx context.Context, entry domainbooking.TimelineEntry) error {
	doc := timelineDocument{
		ID:        entry.ID,
		BookingID: string(entry.BookingID),
		From:      string(entry.From),
		To:        string(entry.To),
		ActorRole: string(entry.Actor.Role),
		ActorID:   entry.Actor.ID,
		Note:      entry.Note,
		Automatic: entry.Automatic,
		At:        entry.At.UnixMilli(),
	}
	_, err := r.col.InsertOne(ctx, doc)
	return err
}

func (r *TimelineRepository) History(ctx context.Context, bookingID domainbooking.ID) ([]domainbooking.TimelineEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "at", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"booking_id": string(bookingID)}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []domainbooking.TimelineEntry
	for cur.Next(ctx) {
		var doc timelineDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, domainbooking.TimelineEntry{
			ID:        doc.ID,
			BookingID: domainbooking.ID(doc.BookingID),
			From:      domainbooking.Status(doc.From),
			To:        domainbooking.Status(doc.To),
			Actor:     domainbooking.Actor{Role: domainbooking.Role(doc.ActorRole), ID: doc.ActorID},
			Note:      doc.Note,
			Automatic: doc.Automatic,
			At:        millisToTime(doc.At),
		})
	}
	return out, cur.Err()
}

type timelineDocument struct {
	ID        string `bson:"_id"`
	BookingID string `bson:"booking_id"`
	From      string `bson:"from,omitempty"`
	To        string `bson:"to"`
	ActorRole string `bson:"actor_role"`
	ActorID   string `bson:"actor_id,omitempty"`
	Note      string `bson:"note,omitempty"`
	Automatic bool   `bson:"automatic"`
	At        int64  `bson:"at"`
}

var _ domainbooking.Timeline = (*TimelineRepository)(nil)
