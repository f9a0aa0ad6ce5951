package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/surajpaudel2/sports-ticketing/internal/domain"
	"github.com/surajpaudel2/sports-ticketing/pkg/logger"
)

// LogSender writes notifications to the structured log. Default sender in
// development, and the fallback when Kafka is disabled.
type LogSender struct {
	log *logger.Logger
}

// NewLogSender creates a log-backed sender
func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, n domain.Notification) error {
	s.log.Info("notification",
		zap.String("type", string(n.Type)),
		zap.String("channel", string(n.Channel)),
		zap.Int64("user_id", n.UserID),
		zap.Int64("booking_id", n.BookingID),
		zap.Int64("payment_id", n.PaymentID),
		zap.String("message", n.Message))
	return nil
}
