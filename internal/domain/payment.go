package domain

import (
	"fmt"
	"strconv"
	"time"
)

// PaymentStatus is the state of a payment
type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "PENDING"
	PaymentSuccess           PaymentStatus = "SUCCESS"
	PaymentFailed            PaymentStatus = "FAILED"
	PaymentPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
	PaymentRefunded          PaymentStatus = "REFUNDED"
)

// TransactionStatus is the outcome of a single charge attempt
type TransactionStatus string

const (
	TransactionPending TransactionStatus = "PENDING"
	TransactionSuccess TransactionStatus = "SUCCESS"
	TransactionFailed  TransactionStatus = "FAILED"
)

// RefundStatus is the outcome of a refund attempt
type RefundStatus string

const (
	RefundPending RefundStatus = "PENDING"
	RefundSuccess RefundStatus = "SUCCESS"
	RefundFailed  RefundStatus = "FAILED"
)

// Payment is the ledger head for one booking's money. Charge attempts and
// refunds hang off it as append-only records.
type Payment struct {
	ID         int64         `json:"id"`
	BookingID  int64         `json:"booking_id"`
	EventID    int64         `json:"event_id"`
	UserID     int64         `json:"user_id"`
	Amount     float64       `json:"amount"`
	Method     string        `json:"method"`
	Status     PaymentStatus `json:"status"`
	ReceiptURL string        `json:"receipt_url,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Transaction is one charge attempt against a payment. The trail is
// append-only; attempts are never rewritten.
type Transaction struct {
	ID            int64             `json:"id"`
	PaymentID     int64             `json:"payment_id"`
	Amount        float64           `json:"amount"`
	Status        TransactionStatus `json:"status"`
	Reference     string            `json:"reference,omitempty"`
	FailureReason string            `json:"failure_reason,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// Refund is one refund attempt against a payment. It is written PENDING
// before the gateway is called, so in-flight money movement always has a
// ledger entry.
type Refund struct {
	ID            int64        `json:"id"`
	PaymentID     int64        `json:"payment_id"`
	Amount        float64      `json:"amount"`
	Reason        string       `json:"reason,omitempty"`
	Status        RefundStatus `json:"status"`
	Reference     string       `json:"reference,omitempty"`
	FailureReason string       `json:"failure_reason,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// NewRefund creates a PENDING refund attempt for the payment
func NewRefund(paymentID int64, amount float64, reason string) *Refund {
	return &Refund{
		PaymentID: paymentID,
		Amount:    amount,
		Reason:    reason,
		Status:    RefundPending,
		CreatedAt: time.Now(),
	}
}

// NewPayment creates a PENDING payment
func NewPayment(bookingID, eventID, userID int64, amount float64, method string) *Payment {
	now := time.Now()
	return &Payment{
		BookingID: bookingID,
		EventID:   eventID,
		UserID:    userID,
		Amount:    amount,
		Method:    method,
		Status:    PaymentPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTransaction creates a PENDING charge attempt for the payment
func NewTransaction(paymentID int64, amount float64) *Transaction {
	now := time.Now()
	return &Transaction{
		PaymentID: paymentID,
		Amount:    amount,
		Status:    TransactionPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ValidateRetry checks that re-charging this payment is legal
func (p *Payment) ValidateRetry() error {
	if p.Status != PaymentFailed && p.Status != PaymentPending {
		return fmt.Errorf("%w: Only FAILED or PENDING payments can be retried. Current status: %s", ErrPaymentNotRetryable, p.Status)
	}
	return nil
}

// ValidateRefund checks that refunding amount is legal given the refunds
// already granted. Only SUCCESS refunds count against the remaining total.
func (p *Payment) ValidateRefund(amount, alreadyRefunded float64) error {
	if p.Status != PaymentSuccess && p.Status != PaymentPartiallyRefunded {
		return fmt.Errorf("%w: Only SUCCESS or PARTIALLY_REFUNDED payments can be refunded. Current status: %s", ErrPaymentNotRefundable, p.Status)
	}
	if amount <= 0 {
		return fmt.Errorf("%w: refund amount must be positive", ErrRefundExceedsRemaining)
	}
	remaining := p.Amount - alreadyRefunded
	if amount > remaining {
		return fmt.Errorf("%w: Refund amount exceeds remaining refundable amount. Remaining: %s",
			ErrRefundExceedsRemaining, strconv.FormatFloat(remaining, 'f', -1, 64))
	}
	return nil
}

// ApplyRefund records a granted refund total and derives the payment status
func (p *Payment) ApplyRefund(totalRefunded float64) {
	if totalRefunded >= p.Amount {
		p.Status = PaymentRefunded
	} else {
		p.Status = PaymentPartiallyRefunded
	}
	p.UpdatedAt = time.Now()
}

// MarkSuccess records a successful charge with its receipt
func (p *Payment) MarkSuccess(receiptURL string) {
	p.Status = PaymentSuccess
	p.ReceiptURL = receiptURL
	p.UpdatedAt = time.Now()
}

// MarkFailed records a failed charge
func (p *Payment) MarkFailed() {
	p.Status = PaymentFailed
	p.UpdatedAt = time.Now()
}

// MarkPending moves the payment back to PENDING for a retry attempt
func (p *Payment) MarkPending() {
	p.Status = PaymentPending
	p.UpdatedAt = time.Now()
}
