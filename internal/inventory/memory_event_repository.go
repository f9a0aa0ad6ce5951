package inventory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/surajpaudel2/sports-ticketing/internal/domain"
)

// MemoryEventRepository is an in-memory EventRepository guarded by a mutex.
// Single process only; used by tests and dev mode.
type MemoryEventRepository struct {
	mu     sync.Mutex
	events map[int64]*domain.Event
	nextID int64
}

// NewMemoryEventRepository creates an empty in-memory event repository
func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{
		events: make(map[int64]*domain.Event),
		nextID: 1,
	}
}

func (r *MemoryEventRepository) Create(ctx context.Context, event *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	event.ID = r.nextID
	r.nextID++

	clone := *event
	r.events[event.ID] = &clone
	return nil
}

func (r *MemoryEventRepository) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, ok := r.events[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", domain.ErrEventNotFound, id)
	}
	clone := *event
	return &clone, nil
}

func (r *MemoryEventRepository) Update(ctx context.Context, event *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.events[event.ID]; !ok {
		return fmt.Errorf("%w: id %d", domain.ErrEventNotFound, event.ID)
	}
	clone := *event
	r.events[event.ID] = &clone
	return nil
}

func (r *MemoryEventRepository) List(ctx context.Context) ([]*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	events := make([]*domain.Event, 0, len(r.events))
	for _, event := range r.events {
		clone := *event
		events = append(events, &clone)
	}
	return events, nil
}

func (r *MemoryEventRepository) FindByNameVenueDate(ctx context.Context, name, venue string, date time.Time) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, event := range r.events {
		if event.Name == name && event.Venue == venue && event.Date.Equal(date) {
			clone := *event
			return &clone, nil
		}
	}
	return nil, domain.ErrEventNotFound
}

func (r *MemoryEventRepository) Reserve(ctx context.Context, eventID int64, seats int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, ok := r.events[eventID]
	if !ok {
		return 0, fmt.Errorf("%w: id %d", domain.ErrEventNotFound, eventID)
	}
	if !event.IsBookable() {
		return 0, fmt.Errorf("%w: event %d is %s", domain.ErrEventNotBookable, eventID, event.Status)
	}
	if event.AvailableSeats < seats {
		return 0, fmt.Errorf("%w: requested %d, available %d", domain.ErrInsufficientSeats, seats, event.AvailableSeats)
	}

	event.AvailableSeats -= seats
	event.UpdatedAt = time.Now()
	return event.AvailableSeats, nil
}

func (r *MemoryEventRepository) Restore(ctx context.Context, eventID int64, seats int) (int, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, ok := r.events[eventID]
	if !ok {
		return 0, false, fmt.Errorf("%w: id %d", domain.ErrEventNotFound, eventID)
	}

	restored := event.AvailableSeats + seats
	clamped := restored > event.TotalSeats
	if clamped {
		restored = event.TotalSeats
	}
	event.AvailableSeats = restored
	event.UpdatedAt = time.Now()
	return restored, clamped, nil
}
