package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role identifies which kind of actor drove a transition.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
	RoleSystem   Role = "system"
)

// Actor is the party performing an operation. System actors have no ID.
type Actor struct {
	Role Role
	ID   string
}

func (a Actor) IsSystem() bool {
	return a.Role == RoleSystem
}

// TimelineEntry is one immutable audit row per transition. The ordered
// sequence for a booking reconstructs its status history exactly; entries are
// never updated or deleted.
type TimelineEntry struct {
	ID        string
	BookingID ID
	From      Status
	To        Status
	Actor     Actor
	Note      string
	Automatic bool
	At        time.Time
}

// Timeline is the append-only recorder. There is deliberately no update or
// delete operation.
type Timeline interface {
	Append(ctx context.Context, entry TimelineEntry) error
	History(ctx context.Context, bookingID ID) ([]TimelineEntry, error)
}

func newTimelineEntry(b *Booking, from Status, actor Actor, note string, at time.Time) TimelineEntry {
	return TimelineEntry{
		ID:        uuid.NewString(),
		BookingID: b.ID,
		From:      from,
		To:        b.Status,
		Actor:     actor,
		Note:      note,
		Automatic: actor.IsSystem(),
		At:        at.UTC(),
	}
}
