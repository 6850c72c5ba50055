package discovery

import (
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

// Session is one short-lived mDNS browse session.
//
// Browse starts browsing for service in domain and returns immediately;
// announcements are delivered to l from the session's own goroutines until
// Close. Err delivers at most one error if browsing fails after Browse has
// returned. Close releases all network resources and must be safe to call
// more than once.
type Session interface {
	Browse(service, domain string, l ServiceListener) error
	Err() <-chan error
	Close() error
}

// SessionFactory creates a fresh Session for one discovery attempt.
type SessionFactory func() (Session, error)

// Backend names an mDNS implementation.
type Backend string

const (
	// BackendZeroconf browses with github.com/enbility/zeroconf/v3.
	BackendZeroconf Backend = "zeroconf"

	// BackendHashicorp browses with github.com/hashicorp/mdns.
	BackendHashicorp Backend = "hashicorp"
)

// ParseBackend parses a backend name. Empty means BackendZeroconf.
func ParseBackend(s string) (Backend, error) {
	switch Backend(strings.ToLower(s)) {
	case "", BackendZeroconf:
		return BackendZeroconf, nil
	case BackendHashicorp:
		return BackendHashicorp, nil
	default:
		return "", fmt.Errorf("%w: %q (use: zeroconf, hashicorp)", ErrUnknownBackend, s)
	}
}

// SessionConfig configures the built-in sessions.
type SessionConfig struct {
	// Backend selects the mDNS implementation.
	Backend Backend

	// Interface restricts browsing to one network interface.
	// Empty string means all interfaces.
	Interface string

	// QueryTimeout bounds a single hashicorp query. Zero uses WaitWindow.
	QueryTimeout time.Duration
}

// NewSessionFactory returns a factory for the configured backend.
func NewSessionFactory(cfg SessionConfig) (SessionFactory, error) {
	backend, err := ParseBackend(string(cfg.Backend))
	if err != nil {
		return nil, err
	}

	switch backend {
	case BackendHashicorp:
		return func() (Session, error) { return NewHashicorpSession(cfg) }, nil
	default:
		return func() (Session, error) { return NewZeroconfSession(cfg) }, nil
	}
}

// lookupInterface resolves an interface name. Empty name returns nil.
func lookupInterface(name string) (*net.Interface, error) {
	if name == "" {
		return nil, nil
	}
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, fmt.Errorf("interface %q: %w", name, err)
	}
	return iface, nil
}

// splitAddrs orders raw addresses IPv4 first, then IPv6, dropping nils.
func splitAddrs(v4, v6 []net.IP) []net.IP {
	out := make([]net.IP, 0, len(v4)+len(v6))
	for _, ip := range v4 {
		if ip == nil {
			continue
		}
		if ip4 := ip.To4(); ip4 != nil {
			ip = ip4
		}
		out = append(out, ip)
	}
	for _, ip := range v6 {
		if ip != nil {
			out = append(out, ip)
		}
	}
	return out
}

// reportErr records err on errc unless an error is already pending.
func reportErr(errc chan error, err error) {
	select {
	case errc <- err:
	default:
	}
}

// waitGroupTimeout waits for wg, giving up after timeout.
func waitGroupTimeout(wg *sync.WaitGroup, timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("%w after %s", ErrSessionCloseTimeout, timeout)
	}
}
