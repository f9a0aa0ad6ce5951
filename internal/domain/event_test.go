package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDate() time.Time {
	return time.Date(2026, 10, 1, 19, 0, 0, 0, time.UTC)
}

func TestNewEvent(t *testing.T) {
	e, err := NewEvent("Final", "National Stadium", testDate(), 100, 150.0)
	require.NoError(t, err)
	assert.Equal(t, EventUpcoming, e.Status)
	assert.Equal(t, 100, e.AvailableSeats)

	_, err = NewEvent("Final", "National Stadium", testDate(), 0, 150.0)
	assert.ErrorIs(t, err, ErrInvalidSeatCount)

	_, err = NewEvent("Final", "National Stadium", testDate(), 100, -1)
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestEvent_Reprice(t *testing.T) {
	e, _ := NewEvent("Final", "National Stadium", testDate(), 100, 150.0)

	require.NoError(t, e.Reprice(200.0))
	assert.Equal(t, 200.0, e.PricePerSeat)

	assert.ErrorIs(t, e.Reprice(-5), ErrInvalidPrice)
}

func TestEvent_IsBookable(t *testing.T) {
	e, _ := NewEvent("Final", "National Stadium", testDate(), 100, 150.0)
	assert.True(t, e.IsBookable())

	e.Status = EventOngoing
	assert.True(t, e.IsBookable())

	e.Status = EventCompleted
	assert.False(t, e.IsBookable())

	e.Status = EventCancelled
	assert.False(t, e.IsBookable())
}

func TestEvent_ValidateTransition(t *testing.T) {
	e, _ := NewEvent("Final", "National Stadium", testDate(), 100, 150.0)

	assert.NoError(t, e.ValidateTransition(EventOngoing))
	assert.NoError(t, e.ValidateTransition(EventCancelled))
	assert.ErrorIs(t, e.ValidateTransition(EventCompleted), ErrInvalidTransition)

	e.Status = EventOngoing
	assert.NoError(t, e.ValidateTransition(EventCompleted))
	assert.ErrorIs(t, e.ValidateTransition(EventUpcoming), ErrInvalidTransition)

	e.Status = EventCompleted
	assert.ErrorIs(t, e.ValidateTransition(EventCancelled), ErrInvalidTransition)

	e.Status = EventCancelled
	assert.ErrorIs(t, e.ValidateTransition(EventUpcoming), ErrInvalidTransition)
}

func TestEvent_Reschedule(t *testing.T) {
	e, _ := NewEvent("Final", "National Stadium", testDate(), 100, 150.0)
	newDate := testDate().AddDate(0, 0, 7)

	require.NoError(t, e.Reschedule(newDate))
	assert.Equal(t, newDate, e.Date)

	e.Status = EventOngoing
	assert.ErrorIs(t, e.Reschedule(testDate()), ErrInvalidTransition)
}

func TestEvent_Resize(t *testing.T) {
	e, _ := NewEvent("Final", "National Stadium", testDate(), 100, 150.0)
	e.AvailableSeats = 60 // 40 booked

	require.NoError(t, e.Resize(80))
	assert.Equal(t, 80, e.TotalSeats)
	assert.Equal(t, 40, e.AvailableSeats)

	err := e.Resize(30)
	assert.ErrorIs(t, err, ErrInvalidSeatCount)

	assert.ErrorIs(t, e.Resize(0), ErrInvalidSeatCount)
}
