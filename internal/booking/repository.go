package booking

import (
	"context"

	"github.com/surajpaudel2/sports-ticketing/internal/domain"
)

// Repository persists bookings
type Repository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	Update(ctx context.Context, booking *domain.Booking) error

	// UpdateIfStatus persists the booking only while its stored status
	// still equals expected, so concurrent state transitions cannot both
	// win. Returns domain.ErrBookingStateChanged when the guard fails.
	UpdateIfStatus(ctx context.Context, booking *domain.Booking, expected domain.BookingStatus) error

	ListByUserID(ctx context.Context, userID int64) ([]*domain.Booking, error)
}
