package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/surajpaudel2/sports-ticketing/internal/domain"
	"github.com/surajpaudel2/sports-ticketing/internal/payment"
	"github.com/surajpaudel2/sports-ticketing/pkg/response"
)

// PaymentHandler exposes the payment and refund ledger over HTTP
type PaymentHandler struct {
	payments *payment.Service
}

// NewPaymentHandler creates a payment handler
func NewPaymentHandler(payments *payment.Service) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type paymentView struct {
	*domain.Payment
	Transactions []*domain.Transaction `json:"transactions,omitempty"`
	Refunds      []*domain.Refund      `json:"refunds,omitempty"`
}

func (h *PaymentHandler) Get(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid payment id")
		return
	}
	ctx := c.Request.Context()

	p, err := h.payments.GetByID(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}

	view := paymentView{Payment: p}
	view.Transactions, _ = h.payments.ListTransactions(ctx, id)
	view.Refunds, _ = h.payments.ListRefunds(ctx, id)
	response.Success(c, view)
}

func (h *PaymentHandler) GetByBooking(c *gin.Context) {
	bookingID, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid booking id")
		return
	}

	p, err := h.payments.GetByBookingID(c.Request.Context(), bookingID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, p)
}

type refundRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
	Reason string  `json:"reason"`
}

func (h *PaymentHandler) Refund(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid payment id")
		return
	}

	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	refund, err := h.payments.Refund(c.Request.Context(), id, req.Amount, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, refund)
}
