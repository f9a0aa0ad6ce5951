package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/surajpaudel2/sports-ticketing/internal/booking"
	"github.com/surajpaudel2/sports-ticketing/internal/saga"
	"github.com/surajpaudel2/sports-ticketing/pkg/response"
)

// BookingHandler exposes the booking workflows over HTTP. All mutations
// run through the saga orchestrator; the handler is plumbing only.
type BookingHandler struct {
	orchestrator *saga.Orchestrator
	bookings     booking.Repository
}

// NewBookingHandler creates a booking handler
func NewBookingHandler(orchestrator *saga.Orchestrator, bookings booking.Repository) *BookingHandler {
	return &BookingHandler{orchestrator: orchestrator, bookings: bookings}
}

func (h *BookingHandler) Create(c *gin.Context) {
	var params saga.CreateBookingParams
	if err := c.ShouldBindJSON(&params); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	result, err := h.orchestrator.CreateBooking(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, result)
}

func (h *BookingHandler) Get(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid booking id")
		return
	}

	b, err := h.bookings.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, b)
}

func (h *BookingHandler) ListByUser(c *gin.Context) {
	userID, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	bookings, err := h.bookings.ListByUserID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, bookings)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid booking id")
		return
	}

	// body is optional, the reason defaults to empty
	var req cancelRequest
	_ = c.ShouldBindJSON(&req)

	result, err := h.orchestrator.CancelBooking(c.Request.Context(), id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *BookingHandler) RetryPayment(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid booking id")
		return
	}

	result, err := h.orchestrator.RetryPayment(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *BookingHandler) Rebook(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid booking id")
		return
	}

	result, err := h.orchestrator.Rebook(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, result)
}
