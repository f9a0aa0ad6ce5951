package domain

import (
	"fmt"
	"time"
)

// EventStatus is the lifecycle state of an event
type EventStatus string

const (
	EventUpcoming  EventStatus = "UPCOMING"
	EventOngoing   EventStatus = "ONGOING"
	EventCompleted EventStatus = "COMPLETED"
	EventCancelled EventStatus = "CANCELLED"
)

// eventTransitions lists the legal lifecycle moves. COMPLETED and
// CANCELLED are terminal.
var eventTransitions = map[EventStatus][]EventStatus{
	EventUpcoming: {EventUpcoming, EventOngoing, EventCancelled},
	EventOngoing:  {EventOngoing, EventCompleted, EventCancelled},
}

// Event is a bookable happening with a seat inventory
type Event struct {
	ID             int64       `json:"id"`
	Name           string      `json:"name"`
	Venue          string      `json:"venue"`
	Date           time.Time   `json:"date"`
	TotalSeats     int         `json:"total_seats"`
	AvailableSeats int         `json:"available_seats"`
	PricePerSeat   float64     `json:"price_per_seat"`
	Status         EventStatus `json:"status"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// NewEvent creates an UPCOMING event with a full seat inventory
func NewEvent(name, venue string, date time.Time, totalSeats int, pricePerSeat float64) (*Event, error) {
	if totalSeats <= 0 {
		return nil, fmt.Errorf("%w: total seats must be positive", ErrInvalidSeatCount)
	}
	if pricePerSeat < 0 {
		return nil, fmt.Errorf("%w: price per seat cannot be negative", ErrInvalidPrice)
	}
	now := time.Now()
	return &Event{
		Name:           name,
		Venue:          venue,
		Date:           date,
		TotalSeats:     totalSeats,
		AvailableSeats: totalSeats,
		PricePerSeat:   pricePerSeat,
		Status:         EventUpcoming,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// IsBookable reports whether seats can currently be reserved
func (e *Event) IsBookable() bool {
	return e.Status == EventUpcoming || e.Status == EventOngoing
}

// BookedSeats is the number of seats currently held by bookings
func (e *Event) BookedSeats() int {
	return e.TotalSeats - e.AvailableSeats
}

// ValidateTransition checks whether the event may move to the target status
func (e *Event) ValidateTransition(target EventStatus) error {
	for _, allowed := range eventTransitions[e.Status] {
		if target == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: event cannot move from %s to %s", ErrInvalidTransition, e.Status, target)
}

// Reschedule changes the event date. The date is locked once the event
// has started.
func (e *Event) Reschedule(date time.Time) error {
	if e.Status != EventUpcoming {
		return fmt.Errorf("%w: event date is locked once the event is %s", ErrInvalidTransition, e.Status)
	}
	e.Date = date
	e.UpdatedAt = time.Now()
	return nil
}

// Reprice changes the per-seat price. Existing bookings keep the price
// snapshotted when they were created.
func (e *Event) Reprice(price float64) error {
	if price < 0 {
		return fmt.Errorf("%w: price per seat cannot be negative", ErrInvalidPrice)
	}
	e.PricePerSeat = price
	e.UpdatedAt = time.Now()
	return nil
}

// Resize changes total capacity, preserving seats already booked.
// Shrinking below the booked count is rejected.
func (e *Event) Resize(totalSeats int) error {
	if totalSeats <= 0 {
		return fmt.Errorf("%w: total seats must be positive", ErrInvalidSeatCount)
	}
	booked := e.BookedSeats()
	if totalSeats < booked {
		return fmt.Errorf("%w: %d seats already booked, cannot shrink to %d", ErrInvalidSeatCount, booked, totalSeats)
	}
	e.TotalSeats = totalSeats
	e.AvailableSeats = totalSeats - booked
	e.UpdatedAt = time.Now()
	return nil
}
