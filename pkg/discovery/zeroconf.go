package discovery

import (
	"context"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// ZeroconfSession implements Session using zeroconf.
type ZeroconfSession struct {
	config SessionConfig

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	closed  bool
	wg      sync.WaitGroup
	errc    chan error

	closeOnce    sync.Once
	closeErr     error
	closeTimeout time.Duration

	// browse runs zeroconf.Browse; replaced in tests.
	browse browseFunc
}

// NewZeroconfSession creates a zeroconf-backed session.
func NewZeroconfSession(config SessionConfig) (*ZeroconfSession, error) {
	ctx, cancel := context.WithCancel(context.Background())
	return &ZeroconfSession{
		config: config,
		ctx:    ctx,
		cancel: cancel,
		errc:   make(chan error, 1),
		browse: zeroconfBrowse,

		closeTimeout: SessionCloseTimeout,
	}, nil
}

type browseFunc func(ctx context.Context, service, domain string, entries, removed chan *zeroconf.ServiceEntry, opts ...zeroconf.ClientOption) error

func zeroconfBrowse(ctx context.Context, service, domain string, entries, removed chan *zeroconf.ServiceEntry, opts ...zeroconf.ClientOption) error {
	return zeroconf.Browse(ctx, service, domain, entries, removed, opts...)
}

// Browse starts browsing in the background and returns immediately.
func (s *ZeroconfSession) Browse(service, domain string, l ServiceListener) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.started {
		return ErrBrowseAlreadyStarted
	}

	opts, err := s.clientOptions()
	if err != nil {
		return err
	}
	s.started = true

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)
	browseDone := make(chan struct{})
	ctx := s.ctx

	// Deliver entries to the listener; removals are drained and ignored.
	// zeroconf sends without watching ctx, so both channels are drained
	// until it closes them or Browse has returned.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for entries != nil || removed != nil {
			select {
			case entry, ok := <-entries:
				if !ok {
					entries = nil
					continue
				}
				if entry != nil {
					l.AddService(entryToRecord(entry))
				}

			case _, ok := <-removed:
				if !ok {
					removed = nil
				}

			case <-browseDone:
				return
			}
		}
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(browseDone)
		err := s.browse(ctx, service, strings.TrimSuffix(domain, "."), entries, removed, opts...)
		if err != nil && ctx.Err() == nil {
			reportErr(s.errc, err)
		}
	}()

	return nil
}

// Err reports a failure of the background browse, such as a socket that
// could not be opened.
func (s *ZeroconfSession) Err() <-chan error {
	return s.errc
}

// Close cancels browsing and waits for the zeroconf goroutines to exit.
// If they are still running after the close timeout, Close returns
// ErrSessionCloseTimeout.
func (s *ZeroconfSession) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		s.cancel()
		s.closeErr = waitGroupTimeout(&s.wg, s.closeTimeout)
	})
	return s.closeErr
}

// clientOptions returns zeroconf client options based on config.
func (s *ZeroconfSession) clientOptions() ([]zeroconf.ClientOption, error) {
	var opts []zeroconf.ClientOption

	iface, err := lookupInterface(s.config.Interface)
	if err != nil {
		return nil, err
	}
	if iface != nil {
		opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
	}

	return opts, nil
}

// entryToRecord converts a zeroconf entry to a ServiceRecord.
func entryToRecord(entry *zeroconf.ServiceEntry) *ServiceRecord {
	return &ServiceRecord{
		Instance:  entry.Instance,
		HostName:  entry.HostName,
		Addresses: splitAddrs(entry.AddrIPv4, entry.AddrIPv6),
		Port:      entry.Port,
		Text:      entry.Text,
	}
}

var _ Session = (*ZeroconfSession)(nil)
