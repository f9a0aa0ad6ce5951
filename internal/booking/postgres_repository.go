package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/surajpaudel2/sports-ticketing/internal/domain"
)

const bookingColumns = `id, user_id, event_id, seats, price_per_seat, total_amount,
	payment_id, status, cancellation_reason, deleted, created_at, updated_at`

// PostgresRepository persists bookings in PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a postgres-backed booking repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Create(ctx context.Context, booking *domain.Booking) error {
	query := `
		INSERT INTO bookings (user_id, event_id, seats, price_per_seat, total_amount,
			payment_id, status, cancellation_reason, deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		booking.UserID, booking.EventID, booking.Seats,
		booking.PricePerSeat, booking.TotalAmount,
		booking.PaymentID, booking.Status, booking.CancellationReason,
		booking.Deleted, booking.CreatedAt, booking.UpdatedAt,
	).Scan(&booking.ID)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 AND NOT deleted`

	booking, err := scanBooking(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", domain.ErrBookingNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query booking: %w", err)
	}
	return booking, nil
}

func (r *PostgresRepository) Update(ctx context.Context, booking *domain.Booking) error {
	query := `
		UPDATE bookings
		SET payment_id = $2, status = $3, cancellation_reason = $4, deleted = $5, updated_at = $6
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query,
		booking.ID, booking.PaymentID, booking.Status,
		booking.CancellationReason, booking.Deleted, booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", domain.ErrBookingNotFound, booking.ID)
	}
	return nil
}

func (r *PostgresRepository) UpdateIfStatus(ctx context.Context, booking *domain.Booking, expected domain.BookingStatus) error {
	query := `
		UPDATE bookings
		SET payment_id = $2, status = $3, cancellation_reason = $4, deleted = $5, updated_at = $6
		WHERE id = $1 AND status = $7`

	tag, err := r.pool.Exec(ctx, query,
		booking.ID, booking.PaymentID, booking.Status,
		booking.CancellationReason, booking.Deleted, booking.UpdatedAt,
		expected,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// distinguish a missing booking from a lost race
		if _, err := r.GetByID(ctx, booking.ID); err != nil {
			return err
		}
		return fmt.Errorf("%w: booking %d is no longer %s", domain.ErrBookingStateChanged, booking.ID, expected)
	}
	return nil
}

func (r *PostgresRepository) ListByUserID(ctx context.Context, userID int64) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = $1 AND NOT deleted ORDER BY id`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var booking domain.Booking
	err := row.Scan(
		&booking.ID, &booking.UserID, &booking.EventID, &booking.Seats,
		&booking.PricePerSeat, &booking.TotalAmount,
		&booking.PaymentID, &booking.Status, &booking.CancellationReason,
		&booking.Deleted, &booking.CreatedAt, &booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}
