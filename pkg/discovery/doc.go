// Package discovery finds the smart meter on the local network via mDNS/DNS-SD.
//
// The meter announces itself as _smartenergy._tcp.local. A Discoverer opens
// one browse Session, registers a Listener for that service type, waits a
// bounded window and then turns whatever the Listener captured into an
// address and port.
//
// # Wait Window
//
// By default the Discoverer waits the full window (10 seconds) even when an
// announcement arrives early, and then uses the most recent announcement.
// WaitFirstCapture returns as soon as the first announcement is seen.
//
// # Failures
//
//   - ErrDiscoveryTimeout: nothing was captured within the window.
//   - ErrInvalidMeterResponse: an announcement was captured but had no
//     address, no port, or a malformed address. The structural cause
//     (ErrNoAddresses, ErrPortAbsent, ErrMalformedAddress) is wrapped too.
//
// The session is closed exactly once before Discover returns, on every path.
//
// # Backends
//
// ZeroconfSession (default) uses github.com/enbility/zeroconf/v3.
// HashicorpSession uses github.com/hashicorp/mdns.
package discovery
