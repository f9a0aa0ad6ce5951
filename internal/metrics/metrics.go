package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prometheus collectors for the booking workflows
type Metrics struct {
	BookingsConfirmed  prometheus.Counter
	BookingsCancelled  prometheus.Counter
	PaymentsFailed     prometheus.Counter
	CompensationsIssued prometheus.Counter
	RefundsIssued      prometheus.Counter
	SweeperRecoveries  prometheus.Counter
	WorkflowDuration   *prometheus.HistogramVec
}

// New registers the collectors on the given registerer
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BookingsConfirmed: factory.NewCounter(prometheus.CounterOpts{
			Name: "ticketing_bookings_confirmed_total",
			Help: "Bookings confirmed after successful payment",
		}),
		BookingsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "ticketing_bookings_cancelled_total",
			Help: "Bookings cancelled by users",
		}),
		PaymentsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "ticketing_payments_failed_total",
			Help: "Charge attempts that ended in failure",
		}),
		CompensationsIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "ticketing_compensations_issued_total",
			Help: "Seat release compensations issued by workflows",
		}),
		RefundsIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "ticketing_refunds_issued_total",
			Help: "Refunds granted against payments",
		}),
		SweeperRecoveries: factory.NewCounter(prometheus.CounterOpts{
			Name: "ticketing_sweeper_recoveries_total",
			Help: "Stale sagas compensated by the recovery sweeper",
		}),
		WorkflowDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ticketing_workflow_duration_seconds",
			Help:    "End-to-end duration of booking workflows",
			Buckets: prometheus.DefBuckets,
		}, []string{"workflow", "outcome"}),
	}
}

// NewNop returns metrics on a throwaway registry for tests
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
