package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/surajpaudel2/sports-ticketing/internal/booking"
	"github.com/surajpaudel2/sports-ticketing/internal/domain"
	"github.com/surajpaudel2/sports-ticketing/internal/inventory"
	"github.com/surajpaudel2/sports-ticketing/internal/metrics"
	"github.com/surajpaudel2/sports-ticketing/internal/payment"
	"github.com/surajpaudel2/sports-ticketing/pkg/logger"
	"github.com/surajpaudel2/sports-ticketing/pkg/retry"
)

// Notifier delivers user-facing notifications. Dispatch never blocks a
// workflow outcome: errors are handled inside the dispatcher.
type Notifier interface {
	Dispatch(ctx context.Context, n domain.Notification)
}

const notifyTimeout = 5 * time.Second

// Orchestrator runs the booking workflows. Forward steps cross service
// boundaries in a fixed order; when a later step fails, already-applied
// steps are reversed by compensations. Seats are the only resource that
// can leak, so every seat reservation is tied to a durable saga instance
// whose compensation token makes the release re-issuable.
type Orchestrator struct {
	inventory *inventory.Service
	bookings  booking.Repository
	payments  *payment.Service
	store     Store
	notifier  Notifier
	retrier   *retry.Retrier
	metrics   *metrics.Metrics
	log       *logger.Logger
}

// NewOrchestrator creates a saga orchestrator
func NewOrchestrator(
	inv *inventory.Service,
	bookings booking.Repository,
	payments *payment.Service,
	store Store,
	notifier Notifier,
	retrier *retry.Retrier,
	m *metrics.Metrics,
	log *logger.Logger,
) *Orchestrator {
	if retrier == nil {
		retrier = retry.New(nil)
	}
	return &Orchestrator{
		inventory: inv,
		bookings:  bookings,
		payments:  payments,
		store:     store,
		notifier:  notifier,
		retrier:   retrier,
		metrics:   m,
		log:       log,
	}
}

// CreateBookingParams are the inputs for the create-booking workflow. The
// amount is not an input: it is computed from the event's current price,
// snapshotted onto the booking.
type CreateBookingParams struct {
	UserID  int64  `json:"user_id"`
	EventID int64  `json:"event_id"`
	Seats   int    `json:"seats"`
	Method  string `json:"method"`
}

// BookingResult is the outcome of a workflow touching booking and payment
type BookingResult struct {
	Booking *domain.Booking `json:"booking"`
	Payment *domain.Payment `json:"payment,omitempty"`
}

// CreateBooking reserves seats, creates a PENDING booking, and charges the
// payment. Payment success confirms the booking; payment failure releases
// the seats and leaves the booking PENDING so the user can retry.
func (o *Orchestrator) CreateBooking(ctx context.Context, params CreateBookingParams) (*BookingResult, error) {
	start := time.Now()

	// Price snapshot before anything is committed. Later repricing of the
	// event does not change what this booking owes.
	event, err := o.inventory.GetEvent(ctx, params.EventID)
	if err != nil {
		return nil, err
	}

	inst := NewInstance(WorkflowCreateBooking, params.EventID, params.Seats)
	if err := o.store.Save(ctx, inst); err != nil {
		return nil, err
	}

	if _, err := o.inventory.CheckAndReserve(ctx, params.EventID, params.Seats); err != nil {
		inst.Record("reserve_seats", "FAILED", err.Error())
		inst.SetState(StateFailed)
		o.save(ctx, inst)
		o.observe(WorkflowCreateBooking, "rejected", start)
		return nil, err
	}
	inst.Record("reserve_seats", "SUCCESS", "")
	inst.SetState(StateSeatsReserved)
	o.save(ctx, inst)

	b, err := domain.NewBooking(params.UserID, params.EventID, params.Seats, event.PricePerSeat)
	if err != nil {
		o.compensateSeats(ctx, inst)
		o.observe(WorkflowCreateBooking, "rejected", start)
		return nil, err
	}
	if err := o.bookings.Create(ctx, b); err != nil {
		inst.Record("create_booking", "FAILED", err.Error())
		o.compensateSeats(ctx, inst)
		o.observe(WorkflowCreateBooking, "error", start)
		return nil, err
	}
	inst.BookingID = b.ID
	inst.Record("create_booking", "SUCCESS", "")
	o.save(ctx, inst)

	p, err := o.payments.Initiate(ctx, b.ID, params.EventID, params.UserID, b.TotalAmount, params.Method)
	if err != nil {
		inst.Record("charge_payment", "FAILED", err.Error())
		o.compensateSeats(ctx, inst)
		o.observe(WorkflowCreateBooking, "error", start)
		return nil, err
	}

	result := &BookingResult{Booking: b, Payment: p}
	if p.Status != domain.PaymentSuccess {
		inst.Record("charge_payment", "FAILED", "payment "+string(p.Status))
		o.compensateSeats(ctx, inst)
		o.metrics.PaymentsFailed.Inc()
		o.notify(domain.NotifyPaymentFailed, b, p)
		o.observe(WorkflowCreateBooking, "payment_failed", start)
		// booking stays PENDING with seats released; not a workflow error
		return result, nil
	}
	inst.Record("charge_payment", "SUCCESS", "")

	if err := o.confirmBooking(ctx, b, p.ID); err != nil {
		// seats stay with the confirmed-in-flight booking; surface the error
		inst.Record("confirm_booking", "FAILED", err.Error())
		o.save(ctx, inst)
		o.observe(WorkflowCreateBooking, "error", start)
		return nil, err
	}
	inst.Record("confirm_booking", "SUCCESS", "")
	inst.SetState(StateCompleted)
	o.save(ctx, inst)

	o.metrics.BookingsConfirmed.Inc()
	o.notify(domain.NotifyPaymentSucceeded, b, p)
	o.notify(domain.NotifyBookingConfirmed, b, p)
	o.observe(WorkflowCreateBooking, "confirmed", start)
	return result, nil
}

// CancelBooking cancels a booking. A CONFIRMED booking gets its seats
// restored and its payment refunded in full; a PENDING booking holds no
// seats, so cancelling it is just the state move.
func (o *Orchestrator) CancelBooking(ctx context.Context, bookingID int64, reason string) (*BookingResult, error) {
	start := time.Now()
	b, err := o.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	prior := b.Status
	if err := b.Cancel(reason); err != nil {
		return nil, err
	}

	inst := NewInstance(WorkflowCancelBooking, b.EventID, b.Seats)
	inst.BookingID = b.ID
	o.save(ctx, inst)

	// conditional on the status we read, so a concurrent cancel cannot
	// also win and double-credit the seats
	if err := o.bookings.UpdateIfStatus(ctx, b, prior); err != nil {
		inst.Record("cancel_booking", "FAILED", err.Error())
		inst.SetState(StateFailed)
		o.save(ctx, inst)
		return nil, err
	}
	inst.Record("cancel_booking", "SUCCESS", fmt.Sprintf("prior status %s", prior))

	result := &BookingResult{Booking: b}
	seatsRestored := true
	if prior == domain.BookingConfirmed {
		// The cancelled booking's seats are now held by nobody. Mark the
		// instance SEATS_RESERVED before releasing, so a failed release
		// leaves it where the sweeper looks.
		inst.SetState(StateSeatsReserved)
		o.save(ctx, inst)
		seatsRestored = o.restoreSeats(ctx, inst)

		p, err := o.payments.GetByBookingID(ctx, bookingID)
		if err == nil {
			refund, refundErr := o.payments.Refund(ctx, p.ID, p.Amount, "booking cancelled")
			switch {
			case refundErr != nil:
				inst.Record("refund_payment", "FAILED", refundErr.Error())
				o.log.Error("refund on cancel failed",
					zap.Int64("booking_id", bookingID), zap.Error(refundErr))
				o.notify(domain.NotifyRefundFailed, b, p)
			case refund.Status == domain.RefundSuccess:
				inst.Record("refund_payment", "SUCCESS", "")
				o.metrics.RefundsIssued.Inc()
				o.notify(domain.NotifyRefundSucceeded, b, p)
			default:
				inst.Record("refund_payment", "FAILED", "refund "+string(refund.Status))
				o.notify(domain.NotifyRefundFailed, b, p)
			}
			result.Payment, _ = o.payments.GetByID(ctx, p.ID)
		} else if !errors.Is(err, domain.ErrPaymentNotFound) {
			inst.Record("refund_payment", "FAILED", err.Error())
		}
	}

	if seatsRestored {
		inst.SetState(StateCompleted)
	}
	o.save(ctx, inst)

	o.metrics.BookingsCancelled.Inc()
	o.notify(domain.NotifyBookingCancelled, b, nil)
	o.observe(WorkflowCancelBooking, "cancelled", start)
	return result, nil
}

// RetryPayment re-runs the payment leg for a PENDING booking: seats are
// reserved again, then the existing payment is re-charged.
func (o *Orchestrator) RetryPayment(ctx context.Context, bookingID int64) (*BookingResult, error) {
	b, err := o.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := b.ValidateRetryPayment(); err != nil {
		return nil, err
	}
	return o.chargeWorkflow(ctx, WorkflowRetryPayment, b)
}

// Rebook resets a CANCELLED booking to PENDING and runs the payment leg
// with freshly reserved seats.
func (o *Orchestrator) Rebook(ctx context.Context, bookingID int64) (*BookingResult, error) {
	b, err := o.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := b.Rebook(); err != nil {
		return nil, err
	}
	if err := o.bookings.UpdateIfStatus(ctx, b, domain.BookingCancelled); err != nil {
		return nil, err
	}
	return o.chargeWorkflow(ctx, WorkflowRebook, b)
}

// chargeWorkflow is the shared reserve-seats-then-charge leg used by
// retry-payment and rebook. The booking is already PENDING.
func (o *Orchestrator) chargeWorkflow(ctx context.Context, workflow WorkflowType, b *domain.Booking) (*BookingResult, error) {
	start := time.Now()
	inst := NewInstance(workflow, b.EventID, b.Seats)
	inst.BookingID = b.ID
	if err := o.store.Save(ctx, inst); err != nil {
		return nil, err
	}

	if _, err := o.inventory.CheckAndReserve(ctx, b.EventID, b.Seats); err != nil {
		inst.Record("reserve_seats", "FAILED", err.Error())
		inst.SetState(StateFailed)
		o.save(ctx, inst)
		o.observe(workflow, "rejected", start)
		return nil, err
	}
	inst.Record("reserve_seats", "SUCCESS", "")
	inst.SetState(StateSeatsReserved)
	o.save(ctx, inst)

	p, err := o.chargeBooking(ctx, b)
	if err != nil {
		inst.Record("charge_payment", "FAILED", err.Error())
		o.compensateSeats(ctx, inst)
		o.observe(workflow, "error", start)
		return nil, err
	}
	result := &BookingResult{Booking: b, Payment: p}

	if p.Status != domain.PaymentSuccess {
		inst.Record("charge_payment", "FAILED", "payment "+string(p.Status))
		o.compensateSeats(ctx, inst)
		o.metrics.PaymentsFailed.Inc()
		o.notify(domain.NotifyPaymentFailed, b, p)
		o.observe(workflow, "payment_failed", start)
		return result, nil
	}
	inst.Record("charge_payment", "SUCCESS", "")

	if err := o.confirmBooking(ctx, b, p.ID); err != nil {
		inst.Record("confirm_booking", "FAILED", err.Error())
		o.save(ctx, inst)
		o.observe(workflow, "error", start)
		return nil, err
	}
	inst.Record("confirm_booking", "SUCCESS", "")
	inst.SetState(StateCompleted)
	o.save(ctx, inst)

	o.metrics.BookingsConfirmed.Inc()
	o.notify(domain.NotifyPaymentSucceeded, b, p)
	o.notify(domain.NotifyBookingConfirmed, b, p)
	o.observe(workflow, "confirmed", start)
	return result, nil
}

// chargeBooking re-charges the booking's existing payment, or initiates a
// fresh one when none is chargeable (first retry after a refunded rebook).
func (o *Orchestrator) chargeBooking(ctx context.Context, b *domain.Booking) (*domain.Payment, error) {
	p, err := o.payments.GetByBookingID(ctx, b.ID)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			return o.payments.Initiate(ctx, b.ID, b.EventID, b.UserID, b.TotalAmount, "CREDIT_CARD")
		}
		return nil, err
	}
	if err := p.ValidateRetry(); err != nil {
		// previous payment is settled (refunded after a cancel); start anew
		return o.payments.Initiate(ctx, b.ID, b.EventID, b.UserID, b.TotalAmount, p.Method)
	}
	return o.payments.Retry(ctx, p.ID)
}

func (o *Orchestrator) confirmBooking(ctx context.Context, b *domain.Booking, paymentID int64) error {
	if err := b.Confirm(paymentID); err != nil {
		return err
	}
	return o.bookings.Update(ctx, b)
}

// compensateSeats releases the instance's reserved seats with backoff. If
// the release keeps failing, the instance stays SEATS_RESERVED so the
// recovery sweeper picks it up later.
func (o *Orchestrator) compensateSeats(ctx context.Context, inst *Instance) {
	err := o.retrier.Do(ctx, func(ctx context.Context) error {
		restoreErr := o.inventory.Restore(ctx, inst.EventID, inst.Seats, inst.CompensationToken)
		if restoreErr != nil && domain.Classify(restoreErr) != domain.KindInternal {
			return retry.Permanent(restoreErr)
		}
		return restoreErr
	})
	if err != nil {
		inst.Record("release_seats", "FAILED", err.Error())
		o.save(ctx, inst)
		o.log.Error("seat compensation failed, leaving saga for sweeper",
			zap.String("saga_id", inst.ID),
			zap.Int64("event_id", inst.EventID),
			zap.Error(err))
		return
	}

	inst.Record("release_seats", "SUCCESS", "")
	inst.SetState(StateCompensated)
	o.save(ctx, inst)
	o.metrics.CompensationsIssued.Inc()
}

// restoreSeats returns seats on cancel. Same release path as compensation,
// same dedup token semantics. Reports whether the release landed; on false
// the caller must leave the instance SEATS_RESERVED so the sweeper
// re-issues it.
func (o *Orchestrator) restoreSeats(ctx context.Context, inst *Instance) bool {
	err := o.retrier.Do(ctx, func(ctx context.Context) error {
		return o.inventory.Restore(ctx, inst.EventID, inst.Seats, inst.CompensationToken)
	})
	if err != nil {
		inst.Record("restore_seats", "FAILED", err.Error())
		o.log.Error("seat restore on cancel failed, leaving saga for sweeper",
			zap.String("saga_id", inst.ID), zap.Error(err))
		return false
	}
	inst.Record("restore_seats", "SUCCESS", "")
	o.metrics.CompensationsIssued.Inc()
	return true
}

func (o *Orchestrator) notify(typ domain.NotificationType, b *domain.Booking, p *domain.Payment) {
	if o.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	n := domain.Notification{
		Type:      typ,
		Channel:   domain.ChannelEmail,
		UserID:    b.UserID,
		BookingID: b.ID,
		EventID:   b.EventID,
		Message:   notificationMessage(typ, b),
		CreatedAt: time.Now(),
	}
	if p != nil {
		n.PaymentID = p.ID
	}
	o.notifier.Dispatch(ctx, n)
}

func notificationMessage(typ domain.NotificationType, b *domain.Booking) string {
	switch typ {
	case domain.NotifyBookingConfirmed:
		return fmt.Sprintf("Your booking %d for %d seat(s) is confirmed.", b.ID, b.Seats)
	case domain.NotifyBookingCancelled:
		return fmt.Sprintf("Your booking %d has been cancelled.", b.ID)
	case domain.NotifyPaymentSucceeded:
		return fmt.Sprintf("Payment of %.2f for booking %d succeeded.", b.TotalAmount, b.ID)
	case domain.NotifyPaymentFailed:
		return fmt.Sprintf("Payment for booking %d failed. Your seats were released; you can retry.", b.ID)
	case domain.NotifyRefundSucceeded:
		return fmt.Sprintf("Your refund for booking %d has been processed.", b.ID)
	case domain.NotifyRefundFailed:
		return fmt.Sprintf("Your refund for booking %d could not be processed. Support has been notified.", b.ID)
	}
	return ""
}

func (o *Orchestrator) save(ctx context.Context, inst *Instance) {
	if err := o.store.Save(ctx, inst); err != nil {
		o.log.Error("failed to persist saga instance",
			zap.String("saga_id", inst.ID), zap.Error(err))
	}
}

func (o *Orchestrator) observe(workflow WorkflowType, outcome string, start time.Time) {
	o.metrics.WorkflowDuration.WithLabelValues(string(workflow), outcome).
		Observe(time.Since(start).Seconds())
}
