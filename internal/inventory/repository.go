package inventory

import (
	"context"
	"time"

	"github.com/surajpaudel2/sports-ticketing/internal/domain"
)

// EventRepository persists events and performs the atomic seat operations.
// Reserve and Restore are the only mutations bookings may make to the
// inventory; both must be safe under concurrent callers.
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	GetByID(ctx context.Context, id int64) (*domain.Event, error)
	Update(ctx context.Context, event *domain.Event) error
	List(ctx context.Context) ([]*domain.Event, error)

	// FindByNameVenueDate returns the matching event or domain.ErrEventNotFound
	FindByNameVenueDate(ctx context.Context, name, venue string, date time.Time) (*domain.Event, error)

	// Reserve atomically checks and decrements available seats. Returns the
	// seats remaining after the decrement. Errors: domain.ErrEventNotFound,
	// domain.ErrEventNotBookable, domain.ErrInsufficientSeats.
	Reserve(ctx context.Context, eventID int64, seats int) (int, error)

	// Restore atomically increments available seats, clamped at total
	// capacity. Returns the seats available afterwards and whether the
	// increment was clamped.
	Restore(ctx context.Context, eventID int64, seats int) (available int, clamped bool, err error)
}

// TokenStore dedupes compensation requests. Consume returns true the first
// time a token is seen and false on every repeat. Release hands a consumed
// token back when the guarded effect did not land, so the compensation can
// be re-issued.
type TokenStore interface {
	Consume(ctx context.Context, token string) (bool, error)
	Release(ctx context.Context, token string) error
}
