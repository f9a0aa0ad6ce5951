package payment

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/surajpaudel2/sports-ticketing/internal/domain"
	"github.com/surajpaudel2/sports-ticketing/internal/payment/gateway"
	"github.com/surajpaudel2/sports-ticketing/pkg/logger"
)

// Service is the payment and refund ledger. Every charge attempt is a
// Transaction record; refunds are separate records whose SUCCESS sum may
// never exceed the payment amount.
type Service struct {
	repo          Repository
	gateway       gateway.PaymentGateway
	chargeTimeout time.Duration
	log           *logger.Logger
}

// NewService creates a payment service
func NewService(repo Repository, gw gateway.PaymentGateway, chargeTimeout time.Duration, log *logger.Logger) *Service {
	if chargeTimeout <= 0 {
		chargeTimeout = 10 * time.Second
	}
	return &Service{repo: repo, gateway: gw, chargeTimeout: chargeTimeout, log: log}
}

// Initiate creates a PENDING payment for the booking and runs one charge
// attempt. The returned payment carries the outcome in its status; a
// declined or timed-out charge is not an error.
func (s *Service) Initiate(ctx context.Context, bookingID, eventID, userID int64, amount float64, method string) (*domain.Payment, error) {
	payment := domain.NewPayment(bookingID, eventID, userID, amount, method)
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}
	if err := s.charge(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// Retry re-charges a FAILED or PENDING payment, appending a fresh
// transaction. Past attempts are never rewritten.
func (s *Service) Retry(ctx context.Context, paymentID int64) (*domain.Payment, error) {
	payment, err := s.repo.GetPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if err := payment.ValidateRetry(); err != nil {
		return nil, err
	}

	payment.MarkPending()
	if err := s.repo.UpdatePayment(ctx, payment); err != nil {
		return nil, err
	}
	if err := s.charge(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// charge runs one gateway charge under the configured timeout and records
// the outcome on the payment and a new transaction. A gateway timeout is a
// failed attempt with unknown outcome; it is never recorded as success.
func (s *Service) charge(ctx context.Context, payment *domain.Payment) error {
	txn := domain.NewTransaction(payment.ID, payment.Amount)
	if err := s.repo.CreateTransaction(ctx, txn); err != nil {
		return err
	}

	chargeCtx, cancel := context.WithTimeout(ctx, s.chargeTimeout)
	defer cancel()

	result, err := s.gateway.Charge(chargeCtx, gateway.ChargeRequest{
		Amount:    payment.Amount,
		Method:    payment.Method,
		Reference: txn.Reference,
	})

	now := time.Now()
	switch {
	case err != nil:
		reason := "gateway error: " + err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "gateway timeout, outcome unknown"
		}
		txn.Status = domain.TransactionFailed
		txn.FailureReason = reason
		payment.MarkFailed()
		s.log.Warn("charge attempt failed",
			zap.Int64("payment_id", payment.ID),
			zap.String("reason", reason))

	case result.Success:
		txn.Status = domain.TransactionSuccess
		txn.Reference = result.Reference
		payment.MarkSuccess(result.ReceiptURL)
		s.log.Info("charge succeeded",
			zap.Int64("payment_id", payment.ID),
			zap.String("reference", result.Reference))

	default:
		txn.Status = domain.TransactionFailed
		txn.FailureReason = result.FailureReason
		payment.MarkFailed()
		s.log.Info("charge declined",
			zap.Int64("payment_id", payment.ID),
			zap.String("reason", result.FailureReason))
	}
	txn.UpdatedAt = now

	if err := s.repo.UpdateTransaction(ctx, txn); err != nil {
		return err
	}
	return s.repo.UpdatePayment(ctx, payment)
}

// Refund refunds part or all of a successful payment. Only SUCCESS
// refunds count against the remaining refundable amount.
func (s *Service) Refund(ctx context.Context, paymentID int64, amount float64, reason string) (*domain.Refund, error) {
	payment, err := s.repo.GetPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	alreadyRefunded, err := s.refundedTotal(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if err := payment.ValidateRefund(amount, alreadyRefunded); err != nil {
		return nil, err
	}

	// The PENDING record goes to the ledger before any money moves, so a
	// crash mid-call still leaves a trace of the in-flight refund.
	refund := domain.NewRefund(paymentID, amount, reason)
	if err := s.repo.CreateRefund(ctx, refund); err != nil {
		return nil, err
	}

	refundCtx, cancel := context.WithTimeout(ctx, s.chargeTimeout)
	defer cancel()

	result, gwErr := s.gateway.Refund(refundCtx, s.chargeReference(ctx, paymentID), amount)

	if gwErr != nil || result == nil || !result.Success {
		refund.Status = domain.RefundFailed
		switch {
		case errors.Is(gwErr, context.DeadlineExceeded):
			refund.FailureReason = "gateway timeout, outcome unknown"
		case gwErr != nil:
			refund.FailureReason = "gateway error: " + gwErr.Error()
		case result != nil:
			refund.FailureReason = result.FailureReason
		}
		if err := s.repo.UpdateRefund(ctx, refund); err != nil {
			return nil, err
		}
		s.log.Warn("refund failed",
			zap.Int64("payment_id", paymentID),
			zap.Float64("amount", amount),
			zap.String("reason", refund.FailureReason),
			zap.Error(gwErr))
		return refund, nil
	}

	refund.Status = domain.RefundSuccess
	refund.Reference = result.Reference
	if err := s.repo.UpdateRefund(ctx, refund); err != nil {
		return nil, err
	}

	payment.ApplyRefund(alreadyRefunded + amount)
	if err := s.repo.UpdatePayment(ctx, payment); err != nil {
		return nil, err
	}

	s.log.Info("refund succeeded",
		zap.Int64("payment_id", paymentID),
		zap.Float64("amount", amount),
		zap.String("status", string(payment.Status)))
	return refund, nil
}

// GetByID returns a payment by id
func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	return s.repo.GetPaymentByID(ctx, id)
}

// GetByBookingID returns the payment for a booking
func (s *Service) GetByBookingID(ctx context.Context, bookingID int64) (*domain.Payment, error) {
	return s.repo.GetPaymentByBookingID(ctx, bookingID)
}

// ListTransactions returns the append-only charge attempt trail
func (s *Service) ListTransactions(ctx context.Context, paymentID int64) ([]*domain.Transaction, error) {
	return s.repo.ListTransactions(ctx, paymentID)
}

// ListRefunds returns the refund records for a payment
func (s *Service) ListRefunds(ctx context.Context, paymentID int64) ([]*domain.Refund, error) {
	return s.repo.ListRefunds(ctx, paymentID)
}

func (s *Service) refundedTotal(ctx context.Context, paymentID int64) (float64, error) {
	refunds, err := s.repo.ListRefunds(ctx, paymentID)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, refund := range refunds {
		if refund.Status == domain.RefundSuccess {
			total += refund.Amount
		}
	}
	return total, nil
}

// chargeReference finds the successful charge's gateway reference so the
// refund targets the right provider-side charge.
func (s *Service) chargeReference(ctx context.Context, paymentID int64) string {
	txns, err := s.repo.ListTransactions(ctx, paymentID)
	if err != nil {
		return ""
	}
	for i := len(txns) - 1; i >= 0; i-- {
		if txns[i].Status == domain.TransactionSuccess {
			return txns[i].Reference
		}
	}
	return ""
}
