package payment

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/surajpaudel2/sports-ticketing/internal/domain"
)

// MemoryRepository is an in-memory payment ledger guarded by a mutex
type MemoryRepository struct {
	mu           sync.Mutex
	payments     map[int64]*domain.Payment
	transactions map[int64]*domain.Transaction
	refunds      map[int64]*domain.Refund
	nextID       int64
}

// NewMemoryRepository creates an empty in-memory payment repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		payments:     make(map[int64]*domain.Payment),
		transactions: make(map[int64]*domain.Transaction),
		refunds:      make(map[int64]*domain.Refund),
		nextID:       1,
	}
}

func (r *MemoryRepository) id() int64 {
	id := r.nextID
	r.nextID++
	return id
}

func (r *MemoryRepository) CreatePayment(ctx context.Context, payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	payment.ID = r.id()
	clone := *payment
	r.payments[payment.ID] = &clone
	return nil
}

func (r *MemoryRepository) GetPaymentByID(ctx context.Context, id int64) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	payment, ok := r.payments[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", domain.ErrPaymentNotFound, id)
	}
	clone := *payment
	return &clone, nil
}

func (r *MemoryRepository) GetPaymentByBookingID(ctx context.Context, bookingID int64) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, payment := range r.payments {
		if payment.BookingID == bookingID {
			clone := *payment
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("%w: booking %d", domain.ErrPaymentNotFound, bookingID)
}

func (r *MemoryRepository) UpdatePayment(ctx context.Context, payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.payments[payment.ID]; !ok {
		return fmt.Errorf("%w: id %d", domain.ErrPaymentNotFound, payment.ID)
	}
	clone := *payment
	r.payments[payment.ID] = &clone
	return nil
}

func (r *MemoryRepository) CreateTransaction(ctx context.Context, txn *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	txn.ID = r.id()
	clone := *txn
	r.transactions[txn.ID] = &clone
	return nil
}

func (r *MemoryRepository) UpdateTransaction(ctx context.Context, txn *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.transactions[txn.ID]; !ok {
		return fmt.Errorf("transaction %d not found", txn.ID)
	}
	clone := *txn
	r.transactions[txn.ID] = &clone
	return nil
}

func (r *MemoryRepository) ListTransactions(ctx context.Context, paymentID int64) ([]*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var txns []*domain.Transaction
	for _, txn := range r.transactions {
		if txn.PaymentID == paymentID {
			clone := *txn
			txns = append(txns, &clone)
		}
	}
	sort.Slice(txns, func(i, j int) bool { return txns[i].ID < txns[j].ID })
	return txns, nil
}

func (r *MemoryRepository) CreateRefund(ctx context.Context, refund *domain.Refund) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	refund.ID = r.id()
	clone := *refund
	r.refunds[refund.ID] = &clone
	return nil
}

func (r *MemoryRepository) UpdateRefund(ctx context.Context, refund *domain.Refund) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.refunds[refund.ID]; !ok {
		return fmt.Errorf("refund %d not found", refund.ID)
	}
	clone := *refund
	r.refunds[refund.ID] = &clone
	return nil
}

func (r *MemoryRepository) ListRefunds(ctx context.Context, paymentID int64) ([]*domain.Refund, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var refunds []*domain.Refund
	for _, refund := range r.refunds {
		if refund.PaymentID == paymentID {
			clone := *refund
			refunds = append(refunds, &clone)
		}
	}
	sort.Slice(refunds, func(i, j int) bool { return refunds[i].ID < refunds[j].ID })
	return refunds, nil
}
