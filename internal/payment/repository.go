package payment

import (
	"context"

	"github.com/surajpaudel2/sports-ticketing/internal/domain"
)

// Repository persists the payment ledger: payment heads, their append-only
// charge attempts, and refund records.
type Repository interface {
	CreatePayment(ctx context.Context, payment *domain.Payment) error
	GetPaymentByID(ctx context.Context, id int64) (*domain.Payment, error)
	GetPaymentByBookingID(ctx context.Context, bookingID int64) (*domain.Payment, error)
	UpdatePayment(ctx context.Context, payment *domain.Payment) error

	CreateTransaction(ctx context.Context, txn *domain.Transaction) error
	UpdateTransaction(ctx context.Context, txn *domain.Transaction) error
	ListTransactions(ctx context.Context, paymentID int64) ([]*domain.Transaction, error)

	CreateRefund(ctx context.Context, refund *domain.Refund) error
	UpdateRefund(ctx context.Context, refund *domain.Refund) error
	ListRefunds(ctx context.Context, paymentID int64) ([]*domain.Refund, error)
}
