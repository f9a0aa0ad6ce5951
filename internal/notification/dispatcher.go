package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/surajpaudel2/sports-ticketing/internal/domain"
	"github.com/surajpaudel2/sports-ticketing/pkg/logger"
)

// Sender delivers a notification over one channel or transport
type Sender interface {
	Send(ctx context.Context, n domain.Notification) error
}

// Dispatcher routes notifications by type to the booking and payment
// senders. Delivery is best-effort: send errors are logged, never
// propagated to the workflow that triggered the notification.
type Dispatcher struct {
	bookingSender Sender
	paymentSender Sender
	log           *logger.Logger
}

// NewDispatcher creates a dispatcher with per-concern senders
func NewDispatcher(bookingSender, paymentSender Sender, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		bookingSender: bookingSender,
		paymentSender: paymentSender,
		log:           log,
	}
}

// Dispatch routes the notification. Unknown types are logged and dropped.
func (d *Dispatcher) Dispatch(ctx context.Context, n domain.Notification) {
	var sender Sender
	switch n.Type {
	case domain.NotifyBookingConfirmed, domain.NotifyBookingCancelled:
		sender = d.bookingSender
	case domain.NotifyPaymentSucceeded, domain.NotifyPaymentFailed,
		domain.NotifyRefundSucceeded, domain.NotifyRefundFailed:
		sender = d.paymentSender
	default:
		d.log.Warn("dropping notification of unknown type",
			zap.String("type", string(n.Type)),
			zap.Int64("user_id", n.UserID))
		return
	}

	if sender == nil {
		return
	}
	if err := sender.Send(ctx, n); err != nil {
		d.log.Error("notification send failed",
			zap.String("type", string(n.Type)),
			zap.Int64("user_id", n.UserID),
			zap.Error(err))
	}
}
