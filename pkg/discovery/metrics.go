package discovery

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for the attempts counter.
const (
	OutcomeSuccess         = "success"
	OutcomeTimeout         = "timeout"
	OutcomeInvalidResponse = "invalid_response"
	OutcomeCanceled        = "canceled"
	OutcomeError           = "error"
)

// Metrics holds the discovery collectors. A nil *Metrics records nothing.
type Metrics struct {
	attempts      *prometheus.CounterVec
	duration      prometheus.Histogram
	announcements prometheus.Counter
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg returns nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, nil
	}

	m := &Metrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "meter",
			Subsystem: "discovery",
			Name:      "attempts_total",
			Help:      "Meter discovery attempts by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "meter",
			Subsystem: "discovery",
			Name:      "duration_seconds",
			Help:      "Time from session creation to result.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 15, 30},
		}),
		announcements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "meter",
			Subsystem: "discovery",
			Name:      "announcements_total",
			Help:      "Service announcements delivered to the listener.",
		}),
	}

	for _, c := range []prometheus.Collector{m.attempts, m.duration, m.announcements} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *Metrics) announcement() {
	if m == nil {
		return
	}
	m.announcements.Inc()
}
