package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/surajpaudel2/sports-ticketing/internal/domain"
	"github.com/surajpaudel2/sports-ticketing/pkg/logger"
)

// Service is the seat inventory ledger. It owns event lifecycle and the
// two seat operations the booking workflows use.
type Service struct {
	repo   EventRepository
	tokens TokenStore
	log    *logger.Logger
}

// NewService creates an inventory service
func NewService(repo EventRepository, tokens TokenStore, log *logger.Logger) *Service {
	return &Service{repo: repo, tokens: tokens, log: log}
}

// CreateEventParams are the inputs for creating an event
type CreateEventParams struct {
	Name         string    `json:"name"`
	Venue        string    `json:"venue"`
	Date         time.Time `json:"date"`
	TotalSeats   int       `json:"total_seats"`
	PricePerSeat float64   `json:"price_per_seat"`
}

// UpdateEventParams are the optional fields for updating an event
type UpdateEventParams struct {
	Name         *string             `json:"name,omitempty"`
	Venue        *string             `json:"venue,omitempty"`
	Date         *time.Time          `json:"date,omitempty"`
	TotalSeats   *int                `json:"total_seats,omitempty"`
	PricePerSeat *float64            `json:"price_per_seat,omitempty"`
	Status       *domain.EventStatus `json:"status,omitempty"`
}

// CreateEvent creates an UPCOMING event with a full inventory. An event
// with the same name, venue and date already existing is rejected.
func (s *Service) CreateEvent(ctx context.Context, params CreateEventParams) (*domain.Event, error) {
	if _, err := s.repo.FindByNameVenueDate(ctx, params.Name, params.Venue, params.Date); err == nil {
		return nil, fmt.Errorf("%w: %q at %q on %s", domain.ErrDuplicateEvent,
			params.Name, params.Venue, params.Date.Format(time.RFC3339))
	} else if !errors.Is(err, domain.ErrEventNotFound) {
		return nil, err
	}

	event, err := domain.NewEvent(params.Name, params.Venue, params.Date, params.TotalSeats, params.PricePerSeat)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}

	s.log.Info("event created",
		zap.Int64("event_id", event.ID),
		zap.String("name", event.Name),
		zap.Int("total_seats", event.TotalSeats))
	return event, nil
}

// GetEvent returns an event by id
func (s *Service) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	return s.repo.GetByID(ctx, id)
}

// ListEvents returns all events
func (s *Service) ListEvents(ctx context.Context) ([]*domain.Event, error) {
	return s.repo.List(ctx)
}

// UpdateEvent applies the given changes with lifecycle validation: status
// moves follow the transition table, the date is locked once the event has
// started, and capacity changes preserve booked seats.
func (s *Service) UpdateEvent(ctx context.Context, id int64, params UpdateEventParams) (*domain.Event, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Status != nil && *params.Status != event.Status {
		if err := event.ValidateTransition(*params.Status); err != nil {
			return nil, err
		}
		event.Status = *params.Status
	}
	if params.Date != nil && !params.Date.Equal(event.Date) {
		if err := event.Reschedule(*params.Date); err != nil {
			return nil, err
		}
	}
	if params.TotalSeats != nil && *params.TotalSeats != event.TotalSeats {
		if err := event.Resize(*params.TotalSeats); err != nil {
			return nil, err
		}
	}
	if params.PricePerSeat != nil && *params.PricePerSeat != event.PricePerSeat {
		// Repricing only affects future bookings, existing ones keep
		// their snapshot
		if err := event.Reprice(*params.PricePerSeat); err != nil {
			return nil, err
		}
	}
	if params.Name != nil {
		event.Name = *params.Name
	}
	if params.Venue != nil {
		event.Venue = *params.Venue
	}
	event.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, event); err != nil {
		return nil, err
	}

	s.log.Info("event updated", zap.Int64("event_id", event.ID), zap.String("status", string(event.Status)))
	return event, nil
}

// CheckAndReserve atomically reserves seats on a bookable event and
// returns the seats remaining afterwards.
func (s *Service) CheckAndReserve(ctx context.Context, eventID int64, seats int) (int, error) {
	if seats <= 0 {
		return 0, fmt.Errorf("%w: seats must be positive", domain.ErrInvalidSeatCount)
	}

	available, err := s.repo.Reserve(ctx, eventID, seats)
	if err != nil {
		return 0, err
	}

	s.log.Info("seats reserved",
		zap.Int64("event_id", eventID),
		zap.Int("seats", seats),
		zap.Int("available", available))
	return available, nil
}

// Restore returns seats to the inventory. The caller supplies a dedup
// token; a token seen before makes the call a no-op, so compensations can
// be re-issued safely. The increment is clamped at total capacity.
func (s *Service) Restore(ctx context.Context, eventID int64, seats int, token string) error {
	if seats <= 0 {
		return fmt.Errorf("%w: seats must be positive", domain.ErrInvalidSeatCount)
	}

	first, err := s.tokens.Consume(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to consume compensation token: %w", err)
	}
	if !first {
		s.log.Debug("duplicate seat restore skipped",
			zap.Int64("event_id", eventID),
			zap.String("token", token))
		return nil
	}

	available, clamped, err := s.repo.Restore(ctx, eventID, seats)
	if err != nil {
		// The seats were not returned, so the token must not stay
		// consumed; otherwise a re-issue would no-op and leak inventory.
		if relErr := s.tokens.Release(ctx, token); relErr != nil {
			s.log.Error("failed to release compensation token",
				zap.String("token", token),
				zap.Error(relErr))
		}
		return err
	}

	if clamped {
		s.log.Warn("seat restore clamped at capacity",
			zap.Int64("event_id", eventID),
			zap.Int("seats", seats),
			zap.Int("available", available))
	} else {
		s.log.Info("seats restored",
			zap.Int64("event_id", eventID),
			zap.Int("seats", seats),
			zap.Int("available", available))
	}
	return nil
}
