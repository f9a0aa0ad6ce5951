package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/surajpaudel2/sports-ticketing/internal/domain"
)

// PostgresEventRepository persists events in PostgreSQL. Seat math runs
// inside conditional UPDATEs so concurrent reservations serialize on the
// event row instead of in application code.
type PostgresEventRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresEventRepository creates a postgres-backed event repository
func NewPostgresEventRepository(pool *pgxpool.Pool) *PostgresEventRepository {
	return &PostgresEventRepository{pool: pool}
}

func (r *PostgresEventRepository) Create(ctx context.Context, event *domain.Event) error {
	query := `
		INSERT INTO events (name, venue, date, total_seats, available_seats, price_per_seat, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		event.Name, event.Venue, event.Date,
		event.TotalSeats, event.AvailableSeats, event.PricePerSeat, event.Status,
		event.CreatedAt, event.UpdatedAt,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

func (r *PostgresEventRepository) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	query := `
		SELECT id, name, venue, date, total_seats, available_seats, price_per_seat, status, created_at, updated_at
		FROM events WHERE id = $1`

	event, err := scanEvent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: id %d", domain.ErrEventNotFound, id)
		}
		return nil, fmt.Errorf("failed to query event: %w", err)
	}
	return event, nil
}

func (r *PostgresEventRepository) Update(ctx context.Context, event *domain.Event) error {
	query := `
		UPDATE events
		SET name = $2, venue = $3, date = $4, total_seats = $5,
		    available_seats = $6, price_per_seat = $7, status = $8, updated_at = $9
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query,
		event.ID, event.Name, event.Venue, event.Date,
		event.TotalSeats, event.AvailableSeats, event.PricePerSeat, event.Status, event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", domain.ErrEventNotFound, event.ID)
	}
	return nil
}

func (r *PostgresEventRepository) List(ctx context.Context) ([]*domain.Event, error) {
	query := `
		SELECT id, name, venue, date, total_seats, available_seats, price_per_seat, status, created_at, updated_at
		FROM events ORDER BY date`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *PostgresEventRepository) FindByNameVenueDate(ctx context.Context, name, venue string, date time.Time) (*domain.Event, error) {
	query := `
		SELECT id, name, venue, date, total_seats, available_seats, price_per_seat, status, created_at, updated_at
		FROM events WHERE name = $1 AND venue = $2 AND date = $3`

	event, err := scanEvent(r.pool.QueryRow(ctx, query, name, venue, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to query event: %w", err)
	}
	return event, nil
}

// Reserve decrements available seats in one conditional UPDATE. Zero rows
// affected means the event is missing, not bookable, or short on seats; a
// follow-up SELECT tells which.
func (r *PostgresEventRepository) Reserve(ctx context.Context, eventID int64, seats int) (int, error) {
	query := `
		UPDATE events
		SET available_seats = available_seats - $2, updated_at = NOW()
		WHERE id = $1
		  AND available_seats >= $2
		  AND status IN ('UPCOMING', 'ONGOING')
		RETURNING available_seats`

	var available int
	err := r.pool.QueryRow(ctx, query, eventID, seats).Scan(&available)
	if err == nil {
		return available, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("failed to reserve seats: %w", err)
	}

	var status domain.EventStatus
	err = r.pool.QueryRow(ctx, `SELECT status, available_seats FROM events WHERE id = $1`, eventID).
		Scan(&status, &available)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: id %d", domain.ErrEventNotFound, eventID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to classify reserve failure: %w", err)
	}

	if status != domain.EventUpcoming && status != domain.EventOngoing {
		return 0, fmt.Errorf("%w: event %d is %s", domain.ErrEventNotBookable, eventID, status)
	}
	return 0, fmt.Errorf("%w: requested %d, available %d", domain.ErrInsufficientSeats, seats, available)
}

// Restore increments available seats, clamped at total capacity
func (r *PostgresEventRepository) Restore(ctx context.Context, eventID int64, seats int) (int, bool, error) {
	query := `
		WITH prev AS (
			SELECT available_seats FROM events WHERE id = $1 FOR UPDATE
		)
		UPDATE events e
		SET available_seats = LEAST(e.available_seats + $2, e.total_seats), updated_at = NOW()
		FROM prev
		WHERE e.id = $1
		RETURNING e.available_seats, prev.available_seats`

	var available, before int
	err := r.pool.QueryRow(ctx, query, eventID, seats).Scan(&available, &before)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, fmt.Errorf("%w: id %d", domain.ErrEventNotFound, eventID)
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to restore seats: %w", err)
	}

	return available, available < before+seats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	var event domain.Event
	err := row.Scan(
		&event.ID, &event.Name, &event.Venue, &event.Date,
		&event.TotalSeats, &event.AvailableSeats, &event.PricePerSeat, &event.Status,
		&event.CreatedAt, &event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &event, nil
}
