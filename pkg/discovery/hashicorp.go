package discovery

import (
	"context"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/mdns"
)

// HashicorpSession implements Session using hashicorp/mdns.
//
// hashicorp/mdns has no long-running browser, so the session repeats
// bounded queries until it is closed.
type HashicorpSession struct {
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

	// query runs mdns.QueryContext; replaced in tests.
	query func(ctx context.Context, params *mdns.QueryParam) error
}

// NewHashicorpSession creates a hashicorp/mdns-backed session.
func NewHashicorpSession(config SessionConfig) (*HashicorpSession, error) {
	ctx, cancel := context.WithCancel(context.Background())
	return &HashicorpSession{
		config: config,
		ctx:    ctx,
		cancel: cancel,
		errc:   make(chan error, 1),
		query:  mdns.QueryContext,

		closeTimeout: SessionCloseTimeout,
	}, nil
}

// Browse starts querying in the background and returns immediately.
func (s *HashicorpSession) Browse(service, domain string, l ServiceListener) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.started {
		return ErrBrowseAlreadyStarted
	}

	iface, err := lookupInterface(s.config.Interface)
	if err != nil {
		return err
	}
	s.started = true

	timeout := s.config.QueryTimeout
	if timeout <= 0 {
		timeout = WaitWindow
	}
	ctx := s.ctx
	domain = strings.TrimSuffix(domain, ".")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for ctx.Err() == nil {
			err := s.queryOnce(ctx, &mdns.QueryParam{
				Service:   service,
				Domain:    domain,
				Timeout:   timeout,
				Interface: iface,
			}, l)
			if err != nil && ctx.Err() == nil {
				reportErr(s.errc, err)
				return
			}
		}
	}()

	return nil
}

// queryOnce runs one query and forwards its entries to l.
func (s *HashicorpSession) queryOnce(ctx context.Context, params *mdns.QueryParam, l ServiceListener) error {
	// hashicorp/mdns drops entries when the channel is full.
	entries := make(chan *mdns.ServiceEntry, 16)
	params.Entries = entries

	done := make(chan struct{})
	go func() {
		defer close(done)
		for entry := range entries {
			if entry != nil {
				l.AddService(hashicorpEntryToRecord(entry))
			}
		}
	}()

	err := s.query(ctx, params)
	close(entries)
	<-done
	return err
}

// Err reports a failed query, such as a socket that could not be opened.
func (s *HashicorpSession) Err() <-chan error {
	return s.errc
}

// Close cancels querying and waits for the query goroutine. If it is still
// running after the close timeout, Close returns ErrSessionCloseTimeout.
func (s *HashicorpSession) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		s.cancel()
		s.closeErr = waitGroupTimeout(&s.wg, s.closeTimeout)
	})
	return s.closeErr
}

// hashicorpEntryToRecord converts a hashicorp/mdns entry to a ServiceRecord.
func hashicorpEntryToRecord(entry *mdns.ServiceEntry) *ServiceRecord {
	var v4, v6 []net.IP
	if entry.AddrV4 != nil {
		v4 = append(v4, entry.AddrV4)
	}
	if entry.AddrV6 != nil {
		v6 = append(v6, entry.AddrV6)
	}
	return &ServiceRecord{
		Instance:  entry.Name,
		HostName:  entry.Host,
		Addresses: splitAddrs(v4, v6),
		Port:      entry.Port,
		Text:      entry.InfoFields,
	}
}

var _ Session = (*HashicorpSession)(nil)
