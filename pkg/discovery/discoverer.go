package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/benbjohnson/clock"

	tracelog "github.com/betkh/itron2mqtt2grafana/pkg/log"
)

// WaitMode selects how the Discoverer waits for announcements.
type WaitMode int

const (
	// WaitFullWindow always waits the whole window and then uses the most
	// recent announcement.
	WaitFullWindow WaitMode = iota

	// WaitFirstCapture returns as soon as the first announcement arrives,
	// or when the window expires.
	WaitFirstCapture
)

// String returns the wait mode name.
func (m WaitMode) String() string {
	switch m {
	case WaitFullWindow:
		return "full"
	case WaitFirstCapture:
		return "first"
	default:
		return "unknown"
	}
}

// ParseWaitMode parses "full" or "first". Empty means WaitFullWindow.
func ParseWaitMode(s string) (WaitMode, error) {
	switch strings.ToLower(s) {
	case "", "full":
		return WaitFullWindow, nil
	case "first":
		return WaitFirstCapture, nil
	default:
		return 0, fmt.Errorf("%w: %q (use: full, first)", ErrInvalidWaitMode, s)
	}
}

// Discovery states, as recorded in the trace.
const (
	StateIdle     = "IDLE"
	StateBrowsing = "BROWSING"
	StateCaptured = "CAPTURED"
	StateTimedOut = "TIMED_OUT"
	StateClosed   = "CLOSED"
)

// Config configures a Discoverer.
type Config struct {
	// ServiceType is the fully qualified DNS-SD type to browse.
	// Default: ServiceType.
	ServiceType string

	// Window is the wait window. Default: WaitWindow.
	Window time.Duration

	// Mode selects the wait policy. Default: WaitFullWindow.
	Mode WaitMode

	// NewSession creates the browse session. Default: zeroconf on all interfaces.
	NewSession SessionFactory

	// Clock is the time source. Default: the real clock.
	Clock clock.Clock

	// Logger receives operational logs. Default: slog.Default().
	Logger *slog.Logger

	// Trace receives resolution trace events. Default: discarded.
	Trace tracelog.Logger

	// Metrics records attempt outcomes. Nil disables metrics.
	Metrics *Metrics
}

// DefaultConfig returns the default discoverer configuration.
func DefaultConfig() Config {
	return Config{
		ServiceType: ServiceType,
		Window:      WaitWindow,
		Mode:        WaitFullWindow,
	}
}

// Discoverer runs one bounded mDNS browse per Discover call.
// Concurrent calls each get their own session; nothing is shared between them.
type Discoverer struct {
	config  Config
	service string
	domain  string
}

// NewDiscoverer validates config, fills defaults and returns a Discoverer.
func NewDiscoverer(config Config) (*Discoverer, error) {
	if config.ServiceType == "" {
		config.ServiceType = ServiceType
	}
	if config.Window == 0 {
		config.Window = WaitWindow
	}
	if config.Window < 0 {
		return nil, ErrNonPositiveWaitWindow
	}
	if config.Mode != WaitFullWindow && config.Mode != WaitFirstCapture {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWaitMode, config.Mode)
	}
	if config.NewSession == nil {
		config.NewSession = func() (Session, error) { return NewZeroconfSession(SessionConfig{}) }
	}
	if config.Clock == nil {
		config.Clock = clock.New()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	service, domain, err := SplitServiceType(config.ServiceType)
	if err != nil {
		return nil, err
	}

	return &Discoverer{config: config, service: service, domain: domain}, nil
}

// Discover browses for the meter and returns its address and port.
//
// The session is closed exactly once before Discover returns, whatever the
// outcome. Cancelling ctx ends the wait early with ctx.Err().
func (d *Discoverer) Discover(ctx context.Context) (*Result, error) {
	return d.DiscoverSession(ctx, tracelog.NewSessionID())
}

// DiscoverSession is Discover with an explicit trace session ID, so callers
// can correlate discovery events with their own.
func (d *Discoverer) DiscoverSession(ctx context.Context, sessionID string) (result *Result, err error) {
	cfg := d.config
	clk := cfg.Clock
	logger := cfg.Logger.With("session_id", sessionID, "service_type", cfg.ServiceType)
	tr := tracelog.NewTracer(cfg.Trace, sessionID, tracelog.StageDiscovery, clk.Now)
	start := clk.Now()

	defer func() {
		outcome := outcomeOf(err)
		cfg.Metrics.observe(outcome, clk.Since(start))
		if err != nil {
			tr.Error(outcome, err)
			logger.Warn("Meter discovery failed", "error", err)
			return
		}
		tr.Result(tracelog.ResultEvent{
			Address:  result.IPAddress,
			Port:     result.Port,
			Source:   "mdns",
			Duration: clk.Since(start),
		})
		logger.Info("Meter discovered", "ip", result.IPAddress, "port", result.Port)
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	session, err := cfg.NewSession()
	if err != nil {
		return nil, fmt.Errorf("create mdns session: %w", err)
	}
	state := StateIdle
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logger.Warn("Closing mdns session", "error", cerr)
		}
		tr.State(state, StateClosed, "")
	}()

	listener := NewListener()
	listener.OnCapture = func(rec *ServiceRecord) {
		cfg.Metrics.announcement()
		addrs := make([]string, 0, len(rec.Addresses))
		for _, ip := range rec.Addresses {
			addrs = append(addrs, ip.String())
		}
		tr.Capture(tracelog.CaptureEvent{
			Instance:  rec.Instance,
			HostName:  rec.HostName,
			Addresses: addrs,
			Port:      rec.Port,
		})
		logger.Debug("Service added", "record", rec.String())
	}
	defer listener.Close()

	// The window starts before browsing so nothing delivered during Browse
	// can extend it.
	timer := clk.Timer(cfg.Window)
	defer timer.Stop()

	if err := session.Browse(d.service, d.domain, listener); err != nil {
		return nil, fmt.Errorf("browse %s: %w", cfg.ServiceType, err)
	}
	tr.State(state, StateBrowsing, "")
	state = StateBrowsing
	logger.Debug("Browsing for meter", "window", cfg.Window, "mode", cfg.Mode.String())

	var captured <-chan struct{}
	if cfg.Mode == WaitFirstCapture {
		captured = listener.Captured()
	}

	select {
	case <-timer.C:
		next := StateTimedOut
		if listener.Count() > 0 {
			next = StateCaptured
		}
		tr.State(state, next, "window elapsed")
		state = next
	case <-captured:
		tr.State(state, StateCaptured, "first capture")
		state = StateCaptured
	case berr := <-session.Err():
		return nil, fmt.Errorf("browse %s: %w", cfg.ServiceType, berr)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	rec, ok := listener.Record()
	if !ok {
		return nil, ErrDiscoveryTimeout
	}
	return newResult(rec)
}

// outcomeOf maps a Discover error to a metrics/trace label.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrDiscoveryTimeout):
		return OutcomeTimeout
	case errors.Is(err, ErrInvalidMeterResponse):
		return OutcomeInvalidResponse
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	default:
		return OutcomeError
	}
}
