package log

import "sync"

// MemoryLogger keeps events in memory. Intended for tests and for callers
// that want to inspect a single resolution without touching disk.
type MemoryLogger struct {
	mu     sync.Mutex
	events []Event
}

// Log appends the event.
func (m *MemoryLogger) Log(event Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

// Events returns a copy of the recorded events.
func (m *MemoryLogger) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// ByCategory returns recorded events of the given category.
func (m *MemoryLogger) ByCategory(cat Category) []Event {
	var out []Event
	for _, e := range m.Events() {
		if e.Category == cat {
			out = append(out, e)
		}
	}
	return out
}

var _ Logger = (*MemoryLogger)(nil)
