package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockGateway simulates a payment provider with a configurable success
// rate and processing delay. Tests can force the next outcomes with
// ForceNext.
type MockGateway struct {
	mu          sync.Mutex
	successRate float64
	delay       time.Duration
	forced      []bool
	rng         *rand.Rand
}

// NewMockGateway creates a mock gateway. successRate is the probability
// (0-1) that a charge or refund succeeds.
func NewMockGateway(successRate float64, delay time.Duration) *MockGateway {
	return &MockGateway{
		successRate: successRate,
		delay:       delay,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ForceNext queues outcomes for the next calls, bypassing the success rate
func (g *MockGateway) ForceNext(outcomes ...bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.forced = append(g.forced, outcomes...)
}

func (g *MockGateway) nextOutcome() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.forced) > 0 {
		outcome := g.forced[0]
		g.forced = g.forced[1:]
		return outcome
	}
	return g.rng.Float64() < g.successRate
}

func (g *MockGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}

	if !g.nextOutcome() {
		return &ChargeResult{
			Success:       false,
			FailureReason: "card declined",
		}, nil
	}

	ref := uuid.NewString()
	return &ChargeResult{
		Success:    true,
		Reference:  ref,
		ReceiptURL: fmt.Sprintf("https://receipts.mock-gateway.dev/%s", ref),
	}, nil
}

func (g *MockGateway) Refund(ctx context.Context, chargeReference string, amount float64) (*RefundResult, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}

	if !g.nextOutcome() {
		return &RefundResult{
			Success:       false,
			FailureReason: "refund rejected by provider",
		}, nil
	}

	return &RefundResult{
		Success:   true,
		Reference: uuid.NewString(),
	}, nil
}

func (g *MockGateway) wait(ctx context.Context) error {
	if g.delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(g.delay):
		return nil
	}
}
