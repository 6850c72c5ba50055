// Package target resolves everything a meter client needs to connect: the
// credential pair and the meter's address and port.
//
// Credentials are resolved first since they are local and cheap. The
// address comes from a static override when both parts are configured,
// and from mDNS discovery otherwise.
package target

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strconv"

	"github.com/benbjohnson/clock"

	"github.com/betkh/itron2mqtt2grafana/pkg/credentials"
	"github.com/betkh/itron2mqtt2grafana/pkg/discovery"
	tracelog "github.com/betkh/itron2mqtt2grafana/pkg/log"
)

// ErrNoDiscoverer is returned when no static address is configured and no
// discoverer is available.
var ErrNoDiscoverer = errors.New("no static meter address and no discoverer configured")

// Source records where the meter address came from.
type Source string

const (
	SourceStatic Source = "static"
	SourceMDNS   Source = "mdns"
)

// Target is the connection tuple handed to the meter client.
type Target struct {
	IPAddress   string
	Port        int
	Credentials credentials.Pair
	Source      Source
}

// Address returns host:port for the meter.
func (t *Target) Address() string {
	return net.JoinHostPort(t.IPAddress, strconv.Itoa(t.Port))
}

// CredentialResolver is implemented by *credentials.Resolver.
type CredentialResolver interface {
	Resolve() (credentials.Pair, error)
}

// Discoverer is implemented by *discovery.Discoverer.
type Discoverer interface {
	DiscoverSession(ctx context.Context, sessionID string) (*discovery.Result, error)
}

// Config configures a Resolver.
type Config struct {
	// Credentials resolves the certificate and key. Required.
	Credentials CredentialResolver

	// StaticIP and StaticPort bypass discovery when both are set.
	StaticIP   string
	StaticPort int

	// Discoverer finds the meter when no static address is set.
	Discoverer Discoverer

	Clock  clock.Clock
	Logger *slog.Logger
	Trace  tracelog.Logger
}

// Resolver produces a Target.
type Resolver struct {
	config Config
}

// NewResolver creates a Resolver.
func NewResolver(config Config) (*Resolver, error) {
	if config.Credentials == nil {
		return nil, errors.New("target: credential resolver is required")
	}
	if config.Clock == nil {
		config.Clock = clock.New()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Resolver{config: config}, nil
}

// HasStatic reports whether the static override is in effect.
func (r *Resolver) HasStatic() bool {
	return r.config.StaticIP != "" && r.config.StaticPort > 0
}

// Resolve returns the connection target. Credential errors are returned
// before any network activity.
func (r *Resolver) Resolve(ctx context.Context) (*Target, error) {
	cfg := r.config
	clk := cfg.Clock
	sessionID := tracelog.NewSessionID()
	start := clk.Now()
	logger := cfg.Logger.With("session_id", sessionID)

	credTrace := tracelog.NewTracer(cfg.Trace, sessionID, tracelog.StageCredentials, clk.Now)
	pair, err := cfg.Credentials.Resolve()
	if err != nil {
		credTrace.Error("credentials_not_found", err)
		logger.Error("Credential lookup failed", "error", err)
		return nil, err
	}
	credTrace.Result(tracelog.ResultEvent{
		CertPath: pair.CertPath,
		KeyPath:  pair.KeyPath,
		Source:   pair.Source.String(),
	})
	logger.Debug("Credentials resolved", "cert", pair.CertPath, "key", pair.KeyPath, "source", pair.Source)

	t := &Target{Credentials: pair}
	tr := tracelog.NewTracer(cfg.Trace, sessionID, tracelog.StageTarget, clk.Now)

	switch {
	case r.HasStatic():
		t.IPAddress, t.Port, t.Source = cfg.StaticIP, cfg.StaticPort, SourceStatic
		logger.Info("Using static meter address", "ip", t.IPAddress, "port", t.Port)

	case cfg.Discoverer == nil:
		tr.Error("no_discoverer", ErrNoDiscoverer)
		return nil, ErrNoDiscoverer

	default:
		res, err := cfg.Discoverer.DiscoverSession(ctx, sessionID)
		if err != nil {
			tr.Error("discovery_failed", err)
			return nil, err
		}
		t.IPAddress, t.Port, t.Source = res.IPAddress, res.Port, SourceMDNS
	}

	tr.Result(tracelog.ResultEvent{
		Address:  t.IPAddress,
		Port:     t.Port,
		CertPath: pair.CertPath,
		KeyPath:  pair.KeyPath,
		Source:   string(t.Source),
		Duration: clk.Since(start),
	})
	return t, nil
}
