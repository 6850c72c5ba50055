package discovery

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSession delivers recs during Browse.
type stubSession struct {
	recs      []*ServiceRecord
	browseErr error
}

func (s *stubSession) Browse(_, _ string, l ServiceListener) error {
	if s.browseErr != nil {
		return s.browseErr
	}
	for _, r := range s.recs {
		l.AddService(r)
	}
	return nil
}

func (s *stubSession) Err() <-chan error { return nil }

func (s *stubSession) Close() error { return nil }

func TestNewMetricsNilRegistry(t *testing.T) {
	m, err := NewMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, m)

	// nil receivers are no-ops
	m.observe(OutcomeSuccess, time.Second)
	m.announcement()
}

func TestNewMetricsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)
	_, err = NewMetrics(reg)
	assert.Error(t, err)
}

func TestDiscoverRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	run := func(s Session) {
		d, err := NewDiscoverer(Config{
			Mode:       WaitFirstCapture,
			NewSession: func() (Session, error) { return s, nil },
			Clock:      clock.NewMock(),
			Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
			Metrics:    m,
		})
		require.NoError(t, err)
		_, _ = d.Discover(context.Background())
	}

	run(&stubSession{recs: []*ServiceRecord{record("192.0.2.10", 8080), record("192.0.2.11", 8081)}})
	run(&stubSession{recs: []*ServiceRecord{{Instance: "broken"}}})
	run(&stubSession{browseErr: errors.New("socket")})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.attempts.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.attempts.WithLabelValues(OutcomeInvalidResponse)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.attempts.WithLabelValues(OutcomeError)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.announcements))

	var pb dto.Metric
	require.NoError(t, m.duration.Write(&pb))
	assert.Equal(t, uint64(3), pb.GetHistogram().GetSampleCount())
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, OutcomeSuccess, outcomeOf(nil))
	assert.Equal(t, OutcomeTimeout, outcomeOf(ErrDiscoveryTimeout))
	assert.Equal(t, OutcomeInvalidResponse, outcomeOf(ErrInvalidMeterResponse))
	assert.Equal(t, OutcomeCanceled, outcomeOf(context.DeadlineExceeded))
	assert.Equal(t, OutcomeError, outcomeOf(errors.New("boom")))
}
