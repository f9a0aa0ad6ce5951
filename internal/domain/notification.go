package domain

import "time"

// NotificationType identifies what happened
type NotificationType string

const (
	NotifyBookingConfirmed NotificationType = "BOOKING_CONFIRMED"
	NotifyBookingCancelled NotificationType = "BOOKING_CANCELLED"
	NotifyPaymentSucceeded NotificationType = "PAYMENT_SUCCEEDED"
	NotifyPaymentFailed    NotificationType = "PAYMENT_FAILED"
	NotifyRefundSucceeded  NotificationType = "REFUND_SUCCEEDED"
	NotifyRefundFailed     NotificationType = "REFUND_FAILED"
)

// NotificationChannel is the delivery channel
type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "EMAIL"
	ChannelSMS   NotificationChannel = "SMS"
)

// Notification is a user-facing message about a booking or payment outcome
type Notification struct {
	Type      NotificationType    `json:"type"`
	Channel   NotificationChannel `json:"channel"`
	UserID    int64               `json:"user_id"`
	BookingID int64               `json:"booking_id,omitempty"`
	PaymentID int64               `json:"payment_id,omitempty"`
	EventID   int64               `json:"event_id,omitempty"`
	Message   string              `json:"message"`
	CreatedAt time.Time           `json:"created_at"`
}
