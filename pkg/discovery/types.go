package discovery

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// Service type constants for mDNS.
const (
	// ServiceType is the DNS-SD service type the meter announces.
	ServiceType = "_smartenergy._tcp.local."

	// Domain is the mDNS domain.
	Domain = "local."
)

// Timing constants.
const (
	// WaitWindow is how long a browse session listens for the meter.
	WaitWindow = 10 * time.Second

	// SessionCloseTimeout bounds how long Close waits for the mDNS library
	// goroutines to exit after cancellation before reporting an error.
	SessionCloseTimeout = 2 * time.Second
)

// Discovery errors.
var (
	ErrDiscoveryTimeout      = errors.New("waiting too long to get response from meter")
	ErrInvalidMeterResponse  = errors.New("invalid response from meter")
	ErrNoAddresses           = errors.New("meter announced no addresses")
	ErrPortAbsent            = errors.New("meter port is absent")
	ErrMalformedAddress      = errors.New("malformed meter address")
	ErrInvalidServiceType    = errors.New("invalid service type")
	ErrSessionClosed         = errors.New("session closed")
	ErrSessionCloseTimeout   = errors.New("mdns session did not stop")
	ErrBrowseAlreadyStarted  = errors.New("browse already started")
	ErrUnknownBackend        = errors.New("unknown mdns backend")
	ErrInvalidWaitMode       = errors.New("invalid wait mode")
	ErrNonPositiveWaitWindow = errors.New("wait window must be positive")
)

// ServiceRecord is the service information captured from one announcement.
type ServiceRecord struct {
	// Instance is the DNS-SD instance name.
	Instance string

	// HostName is the target host from the SRV record.
	HostName string

	// Addresses are the raw announced addresses, IPv4 first then IPv6.
	Addresses []net.IP

	// Port is the announced port. Zero means absent.
	Port int

	// Text holds the TXT record strings.
	Text []string
}

// Clone returns a deep copy of the record.
func (r *ServiceRecord) Clone() *ServiceRecord {
	if r == nil {
		return nil
	}
	c := &ServiceRecord{
		Instance: r.Instance,
		HostName: r.HostName,
		Port:     r.Port,
	}
	if r.Addresses != nil {
		c.Addresses = make([]net.IP, len(r.Addresses))
		for i, ip := range r.Addresses {
			c.Addresses[i] = append(net.IP(nil), ip...)
		}
	}
	if r.Text != nil {
		c.Text = append([]string(nil), r.Text...)
	}
	return c
}

// ParsedAddresses renders the raw addresses in order. An address that is
// neither 4 nor 16 bytes long is reported as ErrMalformedAddress.
func (r *ServiceRecord) ParsedAddresses() ([]string, error) {
	out := make([]string, 0, len(r.Addresses))
	for i, ip := range r.Addresses {
		if len(ip) != net.IPv4len && len(ip) != net.IPv6len {
			return nil, fmt.Errorf("%w: entry %d has %d bytes", ErrMalformedAddress, i, len(ip))
		}
		out = append(out, ip.String())
	}
	return out, nil
}

// String returns a short human-readable form for logs.
func (r *ServiceRecord) String() string {
	if r == nil {
		return "<nil>"
	}
	addrs := make([]string, 0, len(r.Addresses))
	for _, ip := range r.Addresses {
		addrs = append(addrs, ip.String())
	}
	return fmt.Sprintf("%s (%s) [%s]:%d", r.Instance, r.HostName, strings.Join(addrs, ","), r.Port)
}

// Result is the validated outcome of a discovery.
type Result struct {
	IPAddress string
	Port      int
}

// Address returns host:port, bracketing IPv6 literals.
func (r Result) Address() string {
	return net.JoinHostPort(r.IPAddress, fmt.Sprint(r.Port))
}

// newResult validates rec and builds a Result from its first parsed address.
// Every failure wraps ErrInvalidMeterResponse together with its cause.
func newResult(rec *ServiceRecord) (*Result, error) {
	if rec == nil {
		return nil, ErrDiscoveryTimeout
	}

	addrs, err := rec.ParsedAddresses()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMeterResponse, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMeterResponse, ErrNoAddresses)
	}
	if rec.Port <= 0 || rec.Port > 65535 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMeterResponse, ErrPortAbsent)
	}

	return &Result{IPAddress: addrs[0], Port: rec.Port}, nil
}

// SplitServiceType splits a fully qualified service type such as
// "_smartenergy._tcp.local." into the service ("_smartenergy._tcp") and
// domain ("local.") parts the mDNS libraries take.
func SplitServiceType(full string) (service, domain string, err error) {
	s := strings.TrimSuffix(full, ".")
	labels := strings.Split(s, ".")
	if len(labels) < 3 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidServiceType, full)
	}

	name, proto := labels[0], labels[1]
	if len(name) < 2 || name[0] != '_' || (proto != "_tcp" && proto != "_udp") {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidServiceType, full)
	}
	for _, l := range labels[2:] {
		if l == "" {
			return "", "", fmt.Errorf("%w: %q", ErrInvalidServiceType, full)
		}
	}

	return name + "." + proto, strings.Join(labels[2:], ".") + ".", nil
}
