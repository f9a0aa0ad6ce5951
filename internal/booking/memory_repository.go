package booking

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/surajpaudel2/sports-ticketing/internal/domain"
)

// MemoryRepository is an in-memory booking store guarded by a mutex
type MemoryRepository struct {
	mu       sync.Mutex
	bookings map[int64]*domain.Booking
	nextID   int64
}

// NewMemoryRepository creates an empty in-memory booking repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		bookings: make(map[int64]*domain.Booking),
		nextID:   1,
	}
}

func (r *MemoryRepository) Create(ctx context.Context, booking *domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	booking.ID = r.nextID
	r.nextID++

	clone := *booking
	r.bookings[booking.ID] = &clone
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	booking, ok := r.bookings[id]
	if !ok || booking.Deleted {
		return nil, fmt.Errorf("%w: id %d", domain.ErrBookingNotFound, id)
	}
	clone := *booking
	return &clone, nil
}

func (r *MemoryRepository) Update(ctx context.Context, booking *domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bookings[booking.ID]; !ok {
		return fmt.Errorf("%w: id %d", domain.ErrBookingNotFound, booking.ID)
	}
	clone := *booking
	r.bookings[booking.ID] = &clone
	return nil
}

func (r *MemoryRepository) UpdateIfStatus(ctx context.Context, booking *domain.Booking, expected domain.BookingStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.bookings[booking.ID]
	if !ok {
		return fmt.Errorf("%w: id %d", domain.ErrBookingNotFound, booking.ID)
	}
	if current.Status != expected {
		return fmt.Errorf("%w: booking %d is no longer %s", domain.ErrBookingStateChanged, booking.ID, expected)
	}
	clone := *booking
	r.bookings[booking.ID] = &clone
	return nil
}

func (r *MemoryRepository) ListByUserID(ctx context.Context, userID int64) ([]*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var bookings []*domain.Booking
	for _, booking := range r.bookings {
		if booking.UserID == userID && !booking.Deleted {
			clone := *booking
			bookings = append(bookings, &clone)
		}
	}
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].ID < bookings[j].ID })
	return bookings, nil
}
