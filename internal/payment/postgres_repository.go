package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/surajpaudel2/sports-ticketing/internal/domain"
)

// PostgresRepository persists the payment ledger in PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a postgres-backed payment repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) CreatePayment(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (booking_id, event_id, user_id, amount, method, status, receipt_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		payment.BookingID, payment.EventID, payment.UserID,
		payment.Amount, payment.Method, payment.Status, payment.ReceiptURL,
		payment.CreatedAt, payment.UpdatedAt,
	).Scan(&payment.ID)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetPaymentByID(ctx context.Context, id int64) (*domain.Payment, error) {
	query := paymentSelect + ` WHERE id = $1`
	payment, err := scanPayment(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", domain.ErrPaymentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query payment: %w", err)
	}
	return payment, nil
}

func (r *PostgresRepository) GetPaymentByBookingID(ctx context.Context, bookingID int64) (*domain.Payment, error) {
	query := paymentSelect + ` WHERE booking_id = $1 ORDER BY id DESC LIMIT 1`
	payment, err := scanPayment(r.pool.QueryRow(ctx, query, bookingID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: booking %d", domain.ErrPaymentNotFound, bookingID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query payment: %w", err)
	}
	return payment, nil
}

func (r *PostgresRepository) UpdatePayment(ctx context.Context, payment *domain.Payment) error {
	query := `
		UPDATE payments
		SET status = $2, receipt_url = $3, updated_at = $4
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, payment.ID, payment.Status, payment.ReceiptURL, payment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", domain.ErrPaymentNotFound, payment.ID)
	}
	return nil
}

func (r *PostgresRepository) CreateTransaction(ctx context.Context, txn *domain.Transaction) error {
	query := `
		INSERT INTO transactions (payment_id, amount, status, reference, failure_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		txn.PaymentID, txn.Amount, txn.Status, txn.Reference, txn.FailureReason,
		txn.CreatedAt, txn.UpdatedAt,
	).Scan(&txn.ID)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateTransaction(ctx context.Context, txn *domain.Transaction) error {
	query := `
		UPDATE transactions
		SET status = $2, reference = $3, failure_reason = $4, updated_at = $5
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, txn.ID, txn.Status, txn.Reference, txn.FailureReason, txn.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %d not found", txn.ID)
	}
	return nil
}

func (r *PostgresRepository) ListTransactions(ctx context.Context, paymentID int64) ([]*domain.Transaction, error) {
	query := `
		SELECT id, payment_id, amount, status, reference, failure_reason, created_at, updated_at
		FROM transactions WHERE payment_id = $1 ORDER BY id`

	rows, err := r.pool.Query(ctx, query, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []*domain.Transaction
	for rows.Next() {
		var txn domain.Transaction
		if err := rows.Scan(
			&txn.ID, &txn.PaymentID, &txn.Amount, &txn.Status,
			&txn.Reference, &txn.FailureReason, &txn.CreatedAt, &txn.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, &txn)
	}
	return txns, rows.Err()
}

func (r *PostgresRepository) CreateRefund(ctx context.Context, refund *domain.Refund) error {
	query := `
		INSERT INTO refunds (payment_id, amount, reason, status, reference, failure_reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		refund.PaymentID, refund.Amount, refund.Reason, refund.Status,
		refund.Reference, refund.FailureReason, refund.CreatedAt,
	).Scan(&refund.ID)
	if err != nil {
		return fmt.Errorf("failed to insert refund: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateRefund(ctx context.Context, refund *domain.Refund) error {
	query := `
		UPDATE refunds
		SET status = $2, reference = $3, failure_reason = $4
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, refund.ID, refund.Status, refund.Reference, refund.FailureReason)
	if err != nil {
		return fmt.Errorf("failed to update refund: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("refund %d not found", refund.ID)
	}
	return nil
}

func (r *PostgresRepository) ListRefunds(ctx context.Context, paymentID int64) ([]*domain.Refund, error) {
	query := `
		SELECT id, payment_id, amount, reason, status, reference, failure_reason, created_at
		FROM refunds WHERE payment_id = $1 ORDER BY id`

	rows, err := r.pool.Query(ctx, query, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list refunds: %w", err)
	}
	defer rows.Close()

	var refunds []*domain.Refund
	for rows.Next() {
		var refund domain.Refund
		if err := rows.Scan(
			&refund.ID, &refund.PaymentID, &refund.Amount, &refund.Reason,
			&refund.Status, &refund.Reference, &refund.FailureReason, &refund.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan refund: %w", err)
		}
		refunds = append(refunds, &refund)
	}
	return refunds, rows.Err()
}

const paymentSelect = `
	SELECT id, booking_id, event_id, user_id, amount, method, status, receipt_url, created_at, updated_at
	FROM payments`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var payment domain.Payment
	err := row.Scan(
		&payment.ID, &payment.BookingID, &payment.EventID, &payment.UserID,
		&payment.Amount, &payment.Method, &payment.Status, &payment.ReceiptURL,
		&payment.CreatedAt, &payment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}
