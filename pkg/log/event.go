package log

import "time"

// Event represents a resolution trace event.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies one resolution attempt (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Stage is the resolution step that emitted the event.
	Stage Stage `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// Type-specific payload (one of these will be set).
	StateChange *StateChangeEvent `cbor:"10,keyasint,omitempty"`
	Capture     *CaptureEvent     `cbor:"11,keyasint,omitempty"`
	Result      *ResultEvent      `cbor:"12,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"`
}

// Stage indicates which resolution step emitted the event.
type Stage uint8

const (
	// StageCredentials is the credential lookup.
	StageCredentials Stage = 0
	// StageDiscovery is the mDNS browse session.
	StageDiscovery Stage = 1
	// StageTarget is the composition of both into the final target.
	StageTarget Stage = 2
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageCredentials:
		return "CREDENTIALS"
	case StageDiscovery:
		return "DISCOVERY"
	case StageTarget:
		return "TARGET"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryState indicates a state change.
	CategoryState Category = 0
	// CategoryCapture indicates a service announcement was captured.
	CategoryCapture Category = 1
	// CategoryResult indicates a successful outcome.
	CategoryResult Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryState:
		return "STATE"
	case CategoryCapture:
		return "CAPTURE"
	case CategoryResult:
		return "RESULT"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures a discovery state machine transition.
type StateChangeEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// CaptureEvent records a service announcement delivered to the listener.
type CaptureEvent struct {
	Instance  string   `cbor:"1,keyasint,omitempty"`
	HostName  string   `cbor:"2,keyasint,omitempty"`
	Addresses []string `cbor:"3,keyasint,omitempty"`
	Port      int      `cbor:"4,keyasint,omitempty"`
}

// ResultEvent records the outcome of a stage.
type ResultEvent struct {
	// Address and Port are set by the discovery and target stages.
	Address string `cbor:"1,keyasint,omitempty"`
	Port    int    `cbor:"2,keyasint,omitempty"`

	// CertPath and KeyPath are set by the credentials and target stages.
	CertPath string `cbor:"3,keyasint,omitempty"`
	KeyPath  string `cbor:"4,keyasint,omitempty"`

	// Source names where the value came from (configured, default, static, mdns).
	Source string `cbor:"5,keyasint,omitempty"`

	// Duration is how long the stage took.
	Duration time.Duration `cbor:"6,keyasint,omitempty"`
}

// ErrorEventData captures a stage failure.
type ErrorEventData struct {
	// Kind is a stable short name for the failure (timeout, invalid_response, ...).
	Kind string `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`
}
