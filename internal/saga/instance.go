package saga

import (
	"time"

	"github.com/google/uuid"
)

// WorkflowType identifies which booking workflow an instance runs
type WorkflowType string

const (
	WorkflowCreateBooking WorkflowType = "CREATE_BOOKING"
	WorkflowCancelBooking WorkflowType = "CANCEL_BOOKING"
	WorkflowRetryPayment  WorkflowType = "RETRY_PAYMENT"
	WorkflowRebook        WorkflowType = "REBOOK"
)

// State is the durable progress marker of a saga instance. SEATS_RESERVED
// is the dangerous window: seats are held but no terminal outcome has been
// recorded yet, so a crash here leaks inventory until the sweeper acts.
type State string

const (
	StateStarted       State = "STARTED"
	StateSeatsReserved State = "SEATS_RESERVED"
	StateCompleted     State = "COMPLETED"
	StateCompensated   State = "COMPENSATED"
	StateFailed        State = "FAILED"
)

// Step is one recorded forward or compensation action
type Step struct {
	Name   string    `json:"name"`
	Status string    `json:"status"`
	Detail string    `json:"detail,omitempty"`
	At     time.Time `json:"at"`
}

// Instance is one durable saga execution. Workflows append step records as
// they go; the recovery sweeper reads instances back after a crash.
type Instance struct {
	ID       string       `json:"id"`
	Workflow WorkflowType `json:"workflow"`

	BookingID int64 `json:"booking_id"`
	EventID   int64 `json:"event_id"`
	Seats     int   `json:"seats"`

	State State  `json:"state"`
	Steps []Step `json:"steps"`

	// CompensationToken dedupes the seat release for this instance, so
	// the sweeper can re-issue it without double-crediting.
	CompensationToken string `json:"compensation_token"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewInstance creates a STARTED instance with a fresh compensation token
func NewInstance(workflow WorkflowType, eventID int64, seats int) *Instance {
	now := time.Now()
	return &Instance{
		ID:                uuid.NewString(),
		Workflow:          workflow,
		EventID:           eventID,
		Seats:             seats,
		State:             StateStarted,
		CompensationToken: uuid.NewString(),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Record appends a step and bumps the instance clock
func (i *Instance) Record(name, status, detail string) {
	i.Steps = append(i.Steps, Step{Name: name, Status: status, Detail: detail, At: time.Now()})
	i.UpdatedAt = time.Now()
}

// SetState moves the instance to the given state
func (i *Instance) SetState(state State) {
	i.State = state
	i.UpdatedAt = time.Now()
}

// Finished reports whether the instance reached a terminal state
func (i *Instance) Finished() bool {
	switch i.State {
	case StateCompleted, StateCompensated, StateFailed:
		return true
	}
	return false
}

// StaleSince reports whether the instance has been holding seats without a
// terminal outcome for longer than the given window.
func (i *Instance) StaleSince(window time.Duration, now time.Time) bool {
	return i.State == StateSeatsReserved && now.Sub(i.UpdatedAt) > window
}
