package domain

import "errors"

// Sentinel errors. Call sites wrap these with fmt.Errorf("%w: ...") to add
// the human-readable reason, so errors.Is keeps working across layers.
var (
	ErrEventNotFound   = errors.New("event not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrPaymentNotFound = errors.New("payment not found")

	ErrInsufficientSeats = errors.New("insufficient seats")
	ErrInvalidSeatCount  = errors.New("invalid seat count")
	ErrInvalidPrice      = errors.New("invalid price")

	ErrEventNotBookable       = errors.New("event not bookable")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrDuplicateEvent         = errors.New("duplicate event")
	ErrBookingNotPending      = errors.New("booking not pending")
	ErrBookingNotCancelled    = errors.New("booking not cancelled")
	ErrAlreadyCancelled       = errors.New("booking already cancelled")
	ErrBookingStateChanged    = errors.New("booking state changed concurrently")
	ErrPaymentNotRetryable    = errors.New("payment not retryable")
	ErrPaymentNotRefundable   = errors.New("payment not refundable")
	ErrRefundExceedsRemaining = errors.New("refund exceeds remaining refundable amount")

	ErrGatewayFailure = errors.New("payment gateway failure")
)

// ErrorKind partitions errors for transport mapping
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindInvalidState
	KindCapacityExceeded
	KindDownstreamFailure
)

// Classify maps an error to its kind. Unknown errors are internal.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrEventNotFound),
		errors.Is(err, ErrBookingNotFound),
		errors.Is(err, ErrPaymentNotFound):
		return KindNotFound
	case errors.Is(err, ErrInsufficientSeats),
		errors.Is(err, ErrRefundExceedsRemaining):
		return KindCapacityExceeded
	case errors.Is(err, ErrEventNotBookable),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrDuplicateEvent),
		errors.Is(err, ErrInvalidSeatCount),
		errors.Is(err, ErrInvalidPrice),
		errors.Is(err, ErrBookingNotPending),
		errors.Is(err, ErrBookingNotCancelled),
		errors.Is(err, ErrAlreadyCancelled),
		errors.Is(err, ErrBookingStateChanged),
		errors.Is(err, ErrPaymentNotRetryable),
		errors.Is(err, ErrPaymentNotRefundable):
		return KindInvalidState
	case errors.Is(err, ErrGatewayFailure):
		return KindDownstreamFailure
	default:
		return KindInternal
	}
}
