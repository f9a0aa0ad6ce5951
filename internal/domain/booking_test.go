package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBooking(t *testing.T) {
	b, err := NewBooking(1, 2, 3, 150.0)
	require.NoError(t, err)
	assert.Equal(t, BookingPending, b.Status)
	assert.Equal(t, 3, b.Seats)
	assert.Equal(t, 450.0, b.TotalAmount)
	assert.Nil(t, b.PaymentID)

	_, err = NewBooking(1, 2, 0, 150.0)
	assert.ErrorIs(t, err, ErrInvalidSeatCount)
}

func TestBooking_Confirm(t *testing.T) {
	b, _ := NewBooking(1, 2, 3, 150.0)
	require.NoError(t, b.Confirm(42))
	assert.Equal(t, BookingConfirmed, b.Status)
	require.NotNil(t, b.PaymentID)
	assert.Equal(t, int64(42), *b.PaymentID)

	err := b.Confirm(43)
	assert.ErrorIs(t, err, ErrBookingNotPending)
}

func TestBooking_Cancel(t *testing.T) {
	b, _ := NewBooking(1, 2, 3, 150.0)

	require.NoError(t, b.Cancel("changed plans"))
	assert.Equal(t, BookingCancelled, b.Status)
	require.NotNil(t, b.CancellationReason)
	assert.Equal(t, "changed plans", *b.CancellationReason)

	err := b.Cancel("again")
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
	assert.Contains(t, err.Error(), "Booking is already cancelled")
}

func TestBooking_Cancel_FromConfirmed(t *testing.T) {
	b, _ := NewBooking(1, 2, 3, 150.0)
	require.NoError(t, b.Confirm(42))
	require.NoError(t, b.Cancel(""))
	assert.Equal(t, BookingCancelled, b.Status)
	assert.Nil(t, b.CancellationReason)
}

func TestBooking_ValidateRetryPayment(t *testing.T) {
	b, _ := NewBooking(1, 2, 3, 150.0)
	assert.NoError(t, b.ValidateRetryPayment())

	require.NoError(t, b.Confirm(42))
	err := b.ValidateRetryPayment()
	require.ErrorIs(t, err, ErrBookingNotPending)
	assert.Contains(t, err.Error(), "Only PENDING bookings can retry payment. Current status: CONFIRMED")
}

func TestBooking_Rebook(t *testing.T) {
	b, _ := NewBooking(1, 2, 3, 150.0)

	err := b.Rebook()
	require.ErrorIs(t, err, ErrBookingNotCancelled)
	assert.Contains(t, err.Error(), "Only CANCELLED bookings can be re-booked. Current status: PENDING")

	require.NoError(t, b.Confirm(42))
	require.NoError(t, b.Cancel("venue change"))
	require.NoError(t, b.Rebook())
	assert.Equal(t, BookingPending, b.Status)
	assert.Nil(t, b.CancellationReason)
	assert.Nil(t, b.PaymentID)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindInternal},
		{"event not found", ErrEventNotFound, KindNotFound},
		{"booking not found wrapped", errors.Join(errors.New("ctx"), ErrBookingNotFound), KindNotFound},
		{"insufficient seats", ErrInsufficientSeats, KindCapacityExceeded},
		{"refund exceeds", ErrRefundExceedsRemaining, KindCapacityExceeded},
		{"not bookable", ErrEventNotBookable, KindInvalidState},
		{"already cancelled", ErrAlreadyCancelled, KindInvalidState},
		{"state changed", ErrBookingStateChanged, KindInvalidState},
		{"gateway", ErrGatewayFailure, KindDownstreamFailure},
		{"unknown", errors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
