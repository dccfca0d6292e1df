package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"khidma/internal/app/commands"
	"khidma/internal/app/dto"
	bookingapp "khidma/internal/app/handlers/booking"
	"khidma/internal/app/queries"
	domainbooking "khidma/internal/domain/booking"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type createBookingRequest struct {
	ServiceID      string    `json:"service_id"`
	ScheduledAt    time.Time `json:"scheduled_at"`
	DiscountAmount int64     `json:"discount_amount"`
}

func (h BookingHandler) Create(c *gin.Context) {
	user, ok := requireRole(c, domainbooking.RoleCustomer)
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := bookingapp.CreateBookingCommand{
		CommandID:       uuid.NewString(),
		CustomerID:      user.ID,
		ServiceID:       req.ServiceID,
		DiscountAmount:  req.DiscountAmount,
		ScheduledAt:     req.ScheduledAt,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	view, err := commands.Dispatch[bookingapp.CreateBookingCommand, *dto.BookingView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

type assignProviderRequest struct {
	ProviderID string `json:"provider_id"`
}

func (h BookingHandler) Assign(c *gin.Context) {
	user, ok := requireRole(c, domainbooking.RoleAdmin)
	if !ok {
		return
	}
	var req assignProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := bookingapp.AssignProviderCommand{
		BookingID:  c.Param("id"),
		ProviderID: req.ProviderID,
		Actor:      user.Actor(),
	}
	view, err := commands.Dispatch[bookingapp.AssignProviderCommand, *dto.BookingView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h BookingHandler) Accept(c *gin.Context) {
	user, ok := requireRole(c, domainbooking.RoleProvider)
	if !ok {
		return
	}
	h.dispatchTransition(c, bookingapp.AcceptBookingCommand{BookingID: c.Param("id"), ProviderID: user.ID})
}

type rejectBookingRequest struct {
	Reason string `json:"reason"`
}

func (h BookingHandler) Reject(c *gin.Context) {
	user, ok := requireRole(c, domainbooking.RoleProvider)
	if !ok {
		return
	}
	var req rejectBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.dispatchTransition(c, bookingapp.RejectBookingCommand{
		BookingID:  c.Param("id"),
		ProviderID: user.ID,
		Reason:     req.Reason,
	})
}

func (h BookingHandler) Depart(c *gin.Context) {
	user, ok := requireRole(c, domainbooking.RoleProvider)
	if !ok {
		return
	}
	h.dispatchTransition(c, bookingapp.DepartCommand{BookingID: c.Param("id"), ProviderID: user.ID})
}

func (h BookingHandler) Arrive(c *gin.Context) {
	user, ok := requireRole(c, domainbooking.RoleProvider)
	if !ok {
		return
	}
	h.dispatchTransition(c, bookingapp.ArriveCommand{BookingID: c.Param("id"), ProviderID: user.ID})
}

func (h BookingHandler) Start(c *gin.Context) {
	user, ok := requireRole(c, domainbooking.RoleProvider)
	if !ok {
		return
	}
	h.dispatchTransition(c, bookingapp.StartServiceCommand{BookingID: c.Param("id"), ProviderID: user.ID})
}

type completeBookingRequest struct {
	Notes string `json:"notes"`
}

func (h BookingHandler) Complete(c *gin.Context) {
	user, ok := requireRole(c, domainbooking.RoleProvider)
	if !ok {
		return
	}
	var req completeBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	cmd := bookingapp.CompleteBookingCommand{
		BookingID:  c.Param("id"),
		ProviderID: user.ID,
		Notes:      req.Notes,
	}
	view, err := commands.Dispatch[bookingapp.CompleteBookingCommand, *dto.BookingView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

func (h BookingHandler) Cancel(c *gin.Context) {
	user, ok := requireRole(c)
	if !ok {
		return
	}
	var req cancelBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	cmd := bookingapp.CancelBookingCommand{
		BookingID: c.Param("id"),
		Actor:     user.Actor(),
		Reason:    req.Reason,
	}
	view, err := commands.Dispatch[bookingapp.CancelBookingCommand, *dto.BookingView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type addChargeRequest struct {
	Amount int64  `json:"amount"`
	Note   string `json:"note"`
}

func (h BookingHandler) AddCharge(c *gin.Context) {
	user, ok := requireRole(c, domainbooking.RoleProvider)
	if !ok {
		return
	}
	var req addChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := bookingapp.AddChargeCommand{
		BookingID: c.Param("id"),
		Amount:    req.Amount,
		Note:      req.Note,
		Actor:     user.Actor(),
	}
	view, err := commands.Dispatch[bookingapp.AddChargeCommand, *dto.BookingView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h BookingHandler) Get(c *gin.Context) {
	if _, ok := requireRole(c); !ok {
		return
	}
	view, err := queries.Ask[bookingapp.GetBookingQuery, *dto.BookingView](c.Request.Context(), h.Queries, bookingapp.GetBookingQuery{BookingID: c.Param("id")})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h BookingHandler) Timeline(c *gin.Context) {
	if _, ok := requireRole(c); !ok {
		return
	}
	view, err := queries.Ask[bookingapp.GetTimelineQuery, dto.TimelineView](c.Request.Context(), h.Queries, bookingapp.GetTimelineQuery{BookingID: c.Param("id")})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h BookingHandler) ListMine(c *gin.Context) {
	user, ok := requireRole(c, domainbooking.RoleCustomer)
	if !ok {
		return
	}
	view, err := queries.Ask[bookingapp.ListCustomerBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, bookingapp.ListCustomerBookingsQuery{CustomerID: user.ID})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h BookingHandler) dispatchTransition(c *gin.Context, cmd commands.Command) {
	view, err := h.Commands.Dispatch(c.Request.Context(), cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
