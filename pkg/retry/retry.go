package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

var (
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
	ErrContextCanceled    = errors.New("context canceled during retry")
)

// Config contains retry configuration
type Config struct {
	// MaxRetries is the maximum number of retry attempts (0 = initial attempt only)
	MaxRetries int
	// InitialInterval is the initial backoff interval
	InitialInterval time.Duration
	// MaxInterval caps the backoff interval
	MaxInterval time.Duration
	// Multiplier grows the interval after each retry
	Multiplier float64
	// JitterFactor (0-1) randomizes the interval to avoid thundering herd
	JitterFactor float64
}

// DefaultConfig returns default retry configuration.
// Exponential backoff: 1s, 2s, 4s, 8s, 16s, 30s (capped).
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:      5,
		InitialInterval: 1 * time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.1,
	}
}

// Operation is the function to be retried
type Operation func(ctx context.Context) error

// PermanentError wraps an error indicating it should NOT be retried
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent marks an error as permanent (not retryable)
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// Retrier handles retry logic with exponential backoff
type Retrier struct {
	config *Config
}

// New creates a new Retrier with the given configuration
func New(config *Config) *Retrier {
	if config == nil {
		config = DefaultConfig()
	}

	if config.InitialInterval <= 0 {
		config.InitialInterval = 1 * time.Second
	}
	if config.MaxInterval <= 0 {
		config.MaxInterval = 30 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.JitterFactor < 0 {
		config.JitterFactor = 0
	}
	if config.JitterFactor > 1 {
		config.JitterFactor = 1
	}

	return &Retrier{config: config}
}

// Do executes the operation, retrying on error with exponential backoff.
// A PermanentError stops retrying immediately and the wrapped error is
// returned. When retries are exhausted the last error is returned wrapped
// in ErrMaxRetriesExceeded.
func (r *Retrier) Do(ctx context.Context, op Operation) error {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return errors.Join(ErrContextCanceled, lastErr)
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		var permErr *PermanentError
		if errors.As(err, &permErr) {
			return permErr.Err
		}

		if attempt == r.config.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return errors.Join(ErrContextCanceled, lastErr)
		case <-time.After(r.interval(attempt)):
		}
	}

	return errors.Join(ErrMaxRetriesExceeded, lastErr)
}

func (r *Retrier) interval(attempt int) time.Duration {
	interval := float64(r.config.InitialInterval) * math.Pow(r.config.Multiplier, float64(attempt))

	if r.config.JitterFactor > 0 {
		jitter := interval * r.config.JitterFactor
		interval = interval + (rand.Float64()*2-1)*jitter
	}

	if interval > float64(r.config.MaxInterval) {
		interval = float64(r.config.MaxInterval)
	}
	if interval < 0 {
		interval = float64(r.config.InitialInterval)
	}

	return time.Duration(interval)
}

// Do is a convenience function that creates a retrier and executes the operation
func Do(ctx context.Context, config *Config, op Operation) error {
	return New(config).Do(ctx, op)
}
