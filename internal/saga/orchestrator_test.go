package saga

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surajpaudel2/sports-ticketing/internal/booking"
	"github.com/surajpaudel2/sports-ticketing/internal/domain"
	"github.com/surajpaudel2/sports-ticketing/internal/inventory"
	"github.com/surajpaudel2/sports-ticketing/internal/metrics"
	"github.com/surajpaudel2/sports-ticketing/internal/payment"
	"github.com/surajpaudel2/sports-ticketing/internal/payment/gateway"
	"github.com/surajpaudel2/sports-ticketing/pkg/logger"
	"github.com/surajpaudel2/sports-ticketing/pkg/retry"
)

type capturingNotifier struct {
	mu    sync.Mutex
	types []domain.NotificationType
}

func (n *capturingNotifier) Dispatch(ctx context.Context, notification domain.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.types = append(n.types, notification.Type)
}

func (n *capturingNotifier) sent() []domain.NotificationType {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.NotificationType(nil), n.types...)
}

type testEnv struct {
	orchestrator *Orchestrator
	inventory    *inventory.Service
	payments     *payment.Service
	gateway      *gateway.MockGateway
	store        *MemoryStore
	notifier     *capturingNotifier
	event        *domain.Event
}

func newTestEnv(t *testing.T, totalSeats int) *testEnv {
	t.Helper()
	log := logger.NewNop()

	inv := inventory.NewService(inventory.NewMemoryEventRepository(), inventory.NewMemoryTokenStore(), log)
	gw := gateway.NewMockGateway(1.0, 0)
	payments := payment.NewService(payment.NewMemoryRepository(), gw, time.Second, log)
	store := NewMemoryStore()
	notifier := &capturingNotifier{}

	retrier := retry.New(&retry.Config{
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2.0,
	})

	orch := NewOrchestrator(inv, booking.NewMemoryRepository(), payments, store, notifier, retrier, metrics.NewNop(), log)

	event, err := inv.CreateEvent(context.Background(), inventory.CreateEventParams{
		Name:         "Championship Final",
		Venue:        "National Stadium",
		Date:         time.Date(2026, 10, 1, 19, 0, 0, 0, time.UTC),
		TotalSeats:   totalSeats,
		PricePerSeat: 100,
	})
	require.NoError(t, err)

	return &testEnv{
		orchestrator: orch,
		inventory:    inv,
		payments:     payments,
		gateway:      gw,
		store:        store,
		notifier:     notifier,
		event:        event,
	}
}

func (e *testEnv) availableSeats(t *testing.T) int {
	t.Helper()
	event, err := e.inventory.GetEvent(context.Background(), e.event.ID)
	require.NoError(t, err)
	return event.AvailableSeats
}

func (e *testEnv) createParams(seats int) CreateBookingParams {
	return CreateBookingParams{
		UserID:  7,
		EventID: e.event.ID,
		Seats:   seats,
		Method:  "CREDIT_CARD",
	}
}

func TestCreateBooking_HappyPath(t *testing.T) {
	env := newTestEnv(t, 10)
	env.gateway.ForceNext(true)
	ctx := context.Background()

	result, err := env.orchestrator.CreateBooking(ctx, env.createParams(3))
	require.NoError(t, err)

	assert.Equal(t, domain.BookingConfirmed, result.Booking.Status)
	assert.Equal(t, domain.PaymentSuccess, result.Payment.Status)
	assert.Equal(t, 300.0, result.Booking.TotalAmount)
	require.NotNil(t, result.Booking.PaymentID)
	assert.Equal(t, result.Payment.ID, *result.Booking.PaymentID)
	assert.Equal(t, 7, env.availableSeats(t))

	inst, err := env.store.Get(ctx, instanceIDs(t, env.store)[0])
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, inst.State)

	assert.Contains(t, env.notifier.sent(), domain.NotifyBookingConfirmed)
	assert.Contains(t, env.notifier.sent(), domain.NotifyPaymentSucceeded)
}

// Payment failure releases the seats and leaves the booking PENDING so
// the user can retry; it is not a workflow error.
func TestCreateBooking_PaymentFailure(t *testing.T) {
	env := newTestEnv(t, 10)
	env.gateway.ForceNext(false)
	ctx := context.Background()

	result, err := env.orchestrator.CreateBooking(ctx, env.createParams(3))
	require.NoError(t, err)

	assert.Equal(t, domain.BookingPending, result.Booking.Status)
	assert.Equal(t, domain.PaymentFailed, result.Payment.Status)
	assert.Equal(t, 10, env.availableSeats(t))

	inst, err := env.store.Get(ctx, instanceIDs(t, env.store)[0])
	require.NoError(t, err)
	assert.Equal(t, StateCompensated, inst.State)

	assert.Contains(t, env.notifier.sent(), domain.NotifyPaymentFailed)
	assert.NotContains(t, env.notifier.sent(), domain.NotifyBookingConfirmed)
}

func TestCreateBooking_InsufficientSeats(t *testing.T) {
	env := newTestEnv(t, 2)
	ctx := context.Background()

	_, err := env.orchestrator.CreateBooking(ctx, env.createParams(3))
	require.ErrorIs(t, err, domain.ErrInsufficientSeats)
	assert.Equal(t, 2, env.availableSeats(t))
}

func TestCancelBooking_Confirmed_RestoresSeatsAndRefunds(t *testing.T) {
	env := newTestEnv(t, 10)
	env.gateway.ForceNext(true, true) // charge, refund
	ctx := context.Background()

	created, err := env.orchestrator.CreateBooking(ctx, env.createParams(3))
	require.NoError(t, err)
	require.Equal(t, 7, env.availableSeats(t))

	result, err := env.orchestrator.CancelBooking(ctx, created.Booking.ID, "changed plans")
	require.NoError(t, err)

	assert.Equal(t, domain.BookingCancelled, result.Booking.Status)
	require.NotNil(t, result.Booking.CancellationReason)
	assert.Equal(t, "changed plans", *result.Booking.CancellationReason)
	assert.Equal(t, 10, env.availableSeats(t))

	p, err := env.payments.GetByBookingID(ctx, created.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRefunded, p.Status)

	assert.Contains(t, env.notifier.sent(), domain.NotifyBookingCancelled)
	assert.Contains(t, env.notifier.sent(), domain.NotifyRefundSucceeded)
}

// A PENDING booking after a failed payment holds no seats and has no
// refundable payment; cancel is just the state move.
func TestCancelBooking_Pending_NoSeatChangeNoRefund(t *testing.T) {
	env := newTestEnv(t, 10)
	env.gateway.ForceNext(false)
	ctx := context.Background()

	created, err := env.orchestrator.CreateBooking(ctx, env.createParams(3))
	require.NoError(t, err)
	require.Equal(t, 10, env.availableSeats(t))

	result, err := env.orchestrator.CancelBooking(ctx, created.Booking.ID, "changed plans")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, result.Booking.Status)
	assert.Equal(t, 10, env.availableSeats(t))

	p, err := env.payments.GetByBookingID(ctx, created.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentFailed, p.Status)
	assert.NotContains(t, env.notifier.sent(), domain.NotifyRefundSucceeded)
}

func TestCancelBooking_AlreadyCancelled(t *testing.T) {
	env := newTestEnv(t, 10)
	env.gateway.ForceNext(true, true)
	ctx := context.Background()

	created, err := env.orchestrator.CreateBooking(ctx, env.createParams(3))
	require.NoError(t, err)

	_, err = env.orchestrator.CancelBooking(ctx, created.Booking.ID, "changed plans")
	require.NoError(t, err)

	_, err = env.orchestrator.CancelBooking(ctx, created.Booking.ID, "changed plans")
	require.ErrorIs(t, err, domain.ErrAlreadyCancelled)
}

func TestRetryPayment_SucceedsAfterFailure(t *testing.T) {
	env := newTestEnv(t, 10)
	env.gateway.ForceNext(false, true)
	ctx := context.Background()

	created, err := env.orchestrator.CreateBooking(ctx, env.createParams(3))
	require.NoError(t, err)
	require.Equal(t, domain.BookingPending, created.Booking.Status)
	require.Equal(t, 10, env.availableSeats(t))

	result, err := env.orchestrator.RetryPayment(ctx, created.Booking.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.BookingConfirmed, result.Booking.Status)
	assert.Equal(t, domain.PaymentSuccess, result.Payment.Status)
	assert.Equal(t, 7, env.availableSeats(t))

	// both attempts remain in the trail
	txns, err := env.payments.ListTransactions(ctx, result.Payment.ID)
	require.NoError(t, err)
	assert.Len(t, txns, 2)
}

func TestRetryPayment_FailsAgain_SeatsReleasedAgain(t *testing.T) {
	env := newTestEnv(t, 10)
	env.gateway.ForceNext(false, false)
	ctx := context.Background()

	created, err := env.orchestrator.CreateBooking(ctx, env.createParams(3))
	require.NoError(t, err)

	result, err := env.orchestrator.RetryPayment(ctx, created.Booking.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.BookingPending, result.Booking.Status)
	assert.Equal(t, domain.PaymentFailed, result.Payment.Status)
	assert.Equal(t, 10, env.availableSeats(t))
}

func TestRetryPayment_IllegalOnConfirmed(t *testing.T) {
	env := newTestEnv(t, 10)
	env.gateway.ForceNext(true)
	ctx := context.Background()

	created, err := env.orchestrator.CreateBooking(ctx, env.createParams(3))
	require.NoError(t, err)

	_, err = env.orchestrator.RetryPayment(ctx, created.Booking.ID)
	require.ErrorIs(t, err, domain.ErrBookingNotPending)
	assert.Contains(t, err.Error(), "Current status: CONFIRMED")
}

func TestRebook_AfterCancel(t *testing.T) {
	env := newTestEnv(t, 10)
	env.gateway.ForceNext(true, true, true) // charge, refund, re-charge
	ctx := context.Background()

	created, err := env.orchestrator.CreateBooking(ctx, env.createParams(3))
	require.NoError(t, err)

	_, err = env.orchestrator.CancelBooking(ctx, created.Booking.ID, "changed plans")
	require.NoError(t, err)
	require.Equal(t, 10, env.availableSeats(t))

	result, err := env.orchestrator.Rebook(ctx, created.Booking.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.BookingConfirmed, result.Booking.Status)
	assert.Equal(t, domain.PaymentSuccess, result.Payment.Status)
	assert.Equal(t, 7, env.availableSeats(t))
}

func TestRebook_IllegalOnPending(t *testing.T) {
	env := newTestEnv(t, 10)
	env.gateway.ForceNext(false)
	ctx := context.Background()

	created, err := env.orchestrator.CreateBooking(ctx, env.createParams(3))
	require.NoError(t, err)

	_, err = env.orchestrator.Rebook(ctx, created.Booking.ID)
	require.ErrorIs(t, err, domain.ErrBookingNotCancelled)
	assert.Contains(t, err.Error(), "Only CANCELLED bookings can be re-booked. Current status: PENDING")
}

// Repricing the event between booking and retry does not change what the
// booking owes; the snapshot taken at creation wins.
func TestRetryPayment_KeepsPriceSnapshot(t *testing.T) {
	env := newTestEnv(t, 10)
	env.gateway.ForceNext(false, true)
	ctx := context.Background()

	created, err := env.orchestrator.CreateBooking(ctx, env.createParams(3))
	require.NoError(t, err)
	require.Equal(t, 300.0, created.Booking.TotalAmount)

	newPrice := 250.0
	_, err = env.inventory.UpdateEvent(ctx, env.event.ID, inventory.UpdateEventParams{PricePerSeat: &newPrice})
	require.NoError(t, err)

	result, err := env.orchestrator.RetryPayment(ctx, created.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, 300.0, result.Payment.Amount)
}

// Concurrent create-booking requests against a small inventory: exactly
// min(N, S) bookings win seats, and the ledger never goes negative.
func TestCreateBooking_ConcurrentOversubscription(t *testing.T) {
	env := newTestEnv(t, 5)
	ctx := context.Background()

	const requests = 20
	var wg sync.WaitGroup
	errs := make(chan error, requests)

	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.orchestrator.CreateBooking(ctx, env.createParams(1))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, rejected int
	for err := range errs {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, domain.ErrInsufficientSeats)
			rejected++
		}
	}

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 15, rejected)
	assert.Equal(t, 0, env.availableSeats(t))
}

// Two racing cancels of the same CONFIRMED booking: exactly one wins the
// state transition, so the seats are credited back exactly once.
func TestCancelBooking_ConcurrentOnlyOneWins(t *testing.T) {
	env := newTestEnv(t, 10)
	env.gateway.ForceNext(true, true, true) // charge, then at most one refund
	ctx := context.Background()

	created, err := env.orchestrator.CreateBooking(ctx, env.createParams(3))
	require.NoError(t, err)
	require.Equal(t, 7, env.availableSeats(t))

	const racers = 2
	var wg sync.WaitGroup
	errs := make(chan error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.orchestrator.CancelBooking(ctx, created.Booking.ID, "changed plans")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var won, lost int
	for err := range errs {
		if err == nil {
			won++
			continue
		}
		lost++
		assert.True(t,
			errors.Is(err, domain.ErrBookingStateChanged) || errors.Is(err, domain.ErrAlreadyCancelled),
			"unexpected error: %v", err)
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, lost)
	assert.Equal(t, 10, env.availableSeats(t))
}

// A failed seat restore during cancel must not finalize the saga: the
// instance stays SEATS_RESERVED so the sweeper returns the seats later.
func TestCancelBooking_RestoreFailure_SweeperRecovers(t *testing.T) {
	log := logger.NewNop()
	repo := &blockedRestoreRepo{MemoryEventRepository: inventory.NewMemoryEventRepository()}
	inv := inventory.NewService(repo, inventory.NewMemoryTokenStore(), log)
	gw := gateway.NewMockGateway(1.0, 0)
	payments := payment.NewService(payment.NewMemoryRepository(), gw, time.Second, log)
	store := NewMemoryStore()
	retrier := retry.New(&retry.Config{
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2.0,
	})
	orch := NewOrchestrator(inv, booking.NewMemoryRepository(), payments, store, &capturingNotifier{}, retrier, metrics.NewNop(), log)
	ctx := context.Background()

	event, err := inv.CreateEvent(ctx, inventory.CreateEventParams{
		Name:         "Championship Final",
		Venue:        "National Stadium",
		Date:         time.Date(2026, 10, 1, 19, 0, 0, 0, time.UTC),
		TotalSeats:   10,
		PricePerSeat: 100,
	})
	require.NoError(t, err)

	gw.ForceNext(true, true) // charge, refund
	created, err := orch.CreateBooking(ctx, CreateBookingParams{
		UserID: 7, EventID: event.ID, Seats: 3, Method: "CREDIT_CARD",
	})
	require.NoError(t, err)
	require.Equal(t, domain.BookingConfirmed, created.Booking.Status)

	repo.setBlocked(true)
	result, err := orch.CancelBooking(ctx, created.Booking.ID, "changed plans")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, result.Booking.Status)

	// seats are still held and the cancel instance is recoverable
	ev, err := inv.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, ev.AvailableSeats)

	cancelInst := findInstance(t, store, WorkflowCancelBooking)
	require.Equal(t, StateSeatsReserved, cancelInst.State)

	// the store heals; the sweeper re-issues the release
	repo.setBlocked(false)
	cancelInst.UpdatedAt = time.Now().Add(-time.Minute)
	require.NoError(t, store.Save(ctx, cancelInst))

	sweeper := NewSweeper(store, inv, time.Second, 50*time.Millisecond, metrics.NewNop(), log)
	recovered, err := sweeper.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, recovered)

	ev, err = inv.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, ev.AvailableSeats)
}

type blockedRestoreRepo struct {
	*inventory.MemoryEventRepository
	mu      sync.Mutex
	blocked bool
}

func (r *blockedRestoreRepo) setBlocked(blocked bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blocked = blocked
}

func (r *blockedRestoreRepo) Restore(ctx context.Context, eventID int64, seats int) (int, bool, error) {
	r.mu.Lock()
	blocked := r.blocked
	r.mu.Unlock()
	if blocked {
		return 0, false, errors.New("connection reset")
	}
	return r.MemoryEventRepository.Restore(ctx, eventID, seats)
}

func findInstance(t *testing.T, store *MemoryStore, workflow WorkflowType) *Instance {
	t.Helper()
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, inst := range store.instances {
		if inst.Workflow == workflow {
			clone := *inst
			clone.Steps = append([]Step(nil), inst.Steps...)
			return &clone
		}
	}
	t.Fatalf("no %s instance found", workflow)
	return nil
}

func instanceIDs(t *testing.T, store *MemoryStore) []string {
	t.Helper()
	store.mu.Lock()
	defer store.mu.Unlock()
	ids := make([]string, 0, len(store.instances))
	for id := range store.instances {
		ids = append(ids, id)
	}
	require.NotEmpty(t, ids)
	return ids
}
