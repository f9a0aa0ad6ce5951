package domain

import (
	"fmt"
	"time"
)

// BookingStatus is the state of a booking
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// Booking ties a user to reserved seats on an event. The entity validates
// and records state moves; it never calls other services. PricePerSeat is
// snapshotted at booking time, so later event repricing does not change
// what the user owes.
type Booking struct {
	ID                 int64         `json:"id"`
	UserID             int64         `json:"user_id"`
	EventID            int64         `json:"event_id"`
	Seats              int           `json:"seats"`
	PricePerSeat       float64       `json:"price_per_seat"`
	TotalAmount        float64       `json:"total_amount"`
	PaymentID          *int64        `json:"payment_id,omitempty"`
	Status             BookingStatus `json:"status"`
	CancellationReason *string       `json:"cancellation_reason,omitempty"`
	Deleted            bool          `json:"-"` // soft-delete flag, reserved
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// NewBooking creates a PENDING booking with the price snapshot taken now
func NewBooking(userID, eventID int64, seats int, pricePerSeat float64) (*Booking, error) {
	if seats <= 0 {
		return nil, fmt.Errorf("%w: seats must be positive", ErrInvalidSeatCount)
	}
	if pricePerSeat < 0 {
		return nil, fmt.Errorf("%w: price per seat cannot be negative", ErrInvalidPrice)
	}
	now := time.Now()
	return &Booking{
		UserID:       userID,
		EventID:      eventID,
		Seats:        seats,
		PricePerSeat: pricePerSeat,
		TotalAmount:  float64(seats) * pricePerSeat,
		Status:       BookingPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Confirm moves the booking to CONFIRMED after a successful payment
func (b *Booking) Confirm(paymentID int64) error {
	if b.Status != BookingPending {
		return fmt.Errorf("%w: only PENDING bookings can be confirmed. Current status: %s", ErrBookingNotPending, b.Status)
	}
	b.Status = BookingConfirmed
	b.PaymentID = &paymentID
	b.UpdatedAt = time.Now()
	return nil
}

// Cancel moves the booking to CANCELLED. Legal from PENDING and CONFIRMED.
func (b *Booking) Cancel(reason string) error {
	if b.Status == BookingCancelled {
		return fmt.Errorf("%w: Booking is already cancelled", ErrAlreadyCancelled)
	}
	b.Status = BookingCancelled
	if reason != "" {
		b.CancellationReason = &reason
	}
	b.UpdatedAt = time.Now()
	return nil
}

// ValidateRetryPayment checks that a payment retry is legal for this booking
func (b *Booking) ValidateRetryPayment() error {
	if b.Status != BookingPending {
		return fmt.Errorf("%w: Only PENDING bookings can retry payment. Current status: %s", ErrBookingNotPending, b.Status)
	}
	return nil
}

// Rebook resets a CANCELLED booking back to PENDING so payment can be
// attempted again with freshly reserved seats. The cancellation reason and
// payment link are cleared.
func (b *Booking) Rebook() error {
	if b.Status != BookingCancelled {
		return fmt.Errorf("%w: Only CANCELLED bookings can be re-booked. Current status: %s", ErrBookingNotCancelled, b.Status)
	}
	b.Status = BookingPending
	b.CancellationReason = nil
	b.PaymentID = nil
	b.UpdatedAt = time.Now()
	return nil
}
