package booking

import (
	"context"
	"strings"

	"khidma/internal/app/dto"
	handlersupport "khidma/internal/app/handlers/support"
	"khidma/internal/app/queries"
	"khidma/internal/app/uow"
	domainbooking "khidma/internal/domain/booking"
)

const (
	getBookingKey           = "booking.get"
	getTimelineKey          = "booking.timeline"
	listCustomerBookingsKey = "booking.list_by_customer"
)

type GetBookingQuery struct {
	BookingID string
}

func (q GetBookingQuery) Key() string { return getBookingKey }

type GetBookingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (*dto.BookingView, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	b, err := unit.Bookings().ByID(execCtx, domainbooking.ID(q.BookingID))
	if err != nil {
		return nil, err
	}
	view := dto.MapBooking(b)
	return &view, nil
}

type GetTimelineQuery struct {
	BookingID string
}

func (q GetTimelineQuery) Key() string { return getTimelineKey }

type GetTimelineHandler struct {
	UoWFactory uow.UoWFactory
}

// Handle returns the full ordered transition history, oldest first. Used both
// for track-my-booking views and as dispute evidence.
func (h *GetTimelineHandler) Handle(ctx context.Context, q GetTimelineQuery) (dto.TimelineView, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.TimelineView{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	id := domainbooking.ID(q.BookingID)
	if _, err := unit.Bookings().ByID(execCtx, id); err != nil {
		return dto.TimelineView{}, err
	}
	entries, err := unit.Timeline().History(execCtx, id)
	if err != nil {
		return dto.TimelineView{}, err
	}
	return dto.MapTimeline(id, entries), nil
}

type ListCustomerBookingsQuery struct {
	CustomerID string
}

func (q ListCustomerBookingsQuery) Key() string { return listCustomerBookingsKey }

type ListCustomerBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListCustomerBookingsHandler) Handle(ctx context.Context, q ListCustomerBookingsQuery) (dto.BookingCollection, error) {
	customerID := strings.TrimSpace(q.CustomerID)
	if customerID == "" {
		return dto.BookingCollection{}, domainbooking.ErrCustomerRequired
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	bookings, err := unit.Bookings().ListByCustomer(execCtx, customerID)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	items := make([]dto.BookingView, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, dto.MapBooking(b))
	}
	return dto.BookingCollection{Items: items}, nil
}

var _ queries.Handler[GetBookingQuery, *dto.BookingView] = (*GetBookingHandler)(nil)
var _ queries.Handler[GetTimelineQuery, dto.TimelineView] = (*GetTimelineHandler)(nil)
var _ queries.Handler[ListCustomerBookingsQuery, dto.BookingCollection] = (*ListCustomerBookingsHandler)(nil)
