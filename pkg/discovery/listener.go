package discovery

import "sync"

// ServiceListener receives announcements from a browse session. Sessions
// call AddService from their own goroutines.
type ServiceListener interface {
	AddService(rec *ServiceRecord)
}

// Listener is a single-slot cell holding the most recent announcement.
//
// AddService may be called concurrently by the mDNS library; Record is
// read by the Discoverer once the wait is over. Later announcements
// replace earlier ones (no merging, no per-device deduplication).
type Listener struct {
	mu       sync.Mutex
	record   *ServiceRecord
	count    int
	closed   bool
	captured chan struct{}
	once     sync.Once

	// OnCapture, if set, is called with each accepted record outside the lock.
	OnCapture func(rec *ServiceRecord)
}

// NewListener creates an empty Listener.
func NewListener() *Listener {
	return &Listener{captured: make(chan struct{})}
}

// AddService stores a copy of rec, replacing any earlier record.
// Nil records and calls after Close are ignored.
func (l *Listener) AddService(rec *ServiceRecord) {
	if rec == nil {
		return
	}
	c := rec.Clone()

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.record = c
	l.count++
	hook := l.OnCapture
	l.mu.Unlock()

	l.once.Do(func() { close(l.captured) })

	if hook != nil {
		hook(c)
	}
}

// Record returns the most recent record and whether one was captured.
func (l *Listener) Record() (*ServiceRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.record, l.record != nil
}

// Count returns how many announcements were accepted.
func (l *Listener) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Captured is closed when the first record is stored.
func (l *Listener) Captured() <-chan struct{} {
	return l.captured
}

// Close stops accepting records. The stored record stays readable.
func (l *Listener) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}

var _ ServiceListener = (*Listener)(nil)
