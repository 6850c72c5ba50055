package log

import (
	"time"

	"github.com/google/uuid"
)

// NewSessionID returns a fresh ID for one resolution attempt.
func NewSessionID() string {
	return uuid.NewString()
}

// Tracer stamps events for one stage of one session and forwards them to a
// Logger. A nil *Tracer discards everything.
type Tracer struct {
	logger    Logger
	sessionID string
	stage     Stage
	now       func() time.Time
}

// NewTracer creates a Tracer. A nil logger discards events; a nil now uses
// time.Now.
func NewTracer(logger Logger, sessionID string, stage Stage, now func() time.Time) *Tracer {
	if now == nil {
		now = time.Now
	}
	return &Tracer{
		logger:    OrNoop(logger),
		sessionID: sessionID,
		stage:     stage,
		now:       now,
	}
}

// SessionID returns the session the tracer stamps on events.
func (t *Tracer) SessionID() string {
	if t == nil {
		return ""
	}
	return t.sessionID
}

// State records a state transition.
func (t *Tracer) State(from, to, reason string) {
	t.emit(CategoryState, func(e *Event) {
		e.StateChange = &StateChangeEvent{OldState: from, NewState: to, Reason: reason}
	})
}

// Capture records a captured announcement.
func (t *Tracer) Capture(c CaptureEvent) {
	t.emit(CategoryCapture, func(e *Event) { e.Capture = &c })
}

// Result records a successful outcome.
func (t *Tracer) Result(r ResultEvent) {
	t.emit(CategoryResult, func(e *Event) { e.Result = &r })
}

// Error records a failure. kind should be a stable short name.
func (t *Tracer) Error(kind string, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	t.emit(CategoryError, func(e *Event) {
		e.Error = &ErrorEventData{Kind: kind, Message: msg}
	})
}

func (t *Tracer) emit(cat Category, fill func(*Event)) {
	if t == nil {
		return
	}
	e := Event{
		Timestamp: t.now(),
		SessionID: t.sessionID,
		Stage:     t.stage,
		Category:  cat,
	}
	fill(&e)
	t.logger.Log(e)
}
