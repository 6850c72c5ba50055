package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes trace events to an slog.Logger.
// Useful for development when you want to see the trace in the console.
type SlogAdapter struct {
	logger *slog.Logger
	level  slog.Level
}

// NewSlogAdapter creates a SlogAdapter that logs at Debug level.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger, level: slog.LevelDebug}
}

// WithLevel returns a copy of the adapter that logs at level.
func (a *SlogAdapter) WithLevel(level slog.Level) *SlogAdapter {
	return &SlogAdapter{logger: a.logger, level: level}
}

// Log writes the event to the slog logger.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("session_id", event.SessionID),
		slog.String("stage", event.Stage.String()),
		slog.String("category", event.Category.String()),
	}

	switch {
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Capture != nil:
		attrs = append(attrs,
			slog.String("instance", event.Capture.Instance),
			slog.String("host", event.Capture.HostName),
			slog.Any("addresses", event.Capture.Addresses),
			slog.Int("port", event.Capture.Port),
		)
	case event.Result != nil:
		if event.Result.Address != "" {
			attrs = append(attrs, slog.String("address", event.Result.Address), slog.Int("port", event.Result.Port))
		}
		if event.Result.CertPath != "" {
			attrs = append(attrs, slog.String("cert_path", event.Result.CertPath), slog.String("key_path", event.Result.KeyPath))
		}
		if event.Result.Source != "" {
			attrs = append(attrs, slog.String("source", event.Result.Source))
		}
		attrs = append(attrs, slog.Duration("duration", event.Result.Duration))
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_kind", event.Error.Kind),
			slog.String("error_msg", event.Error.Message),
		)
	}

	a.logger.LogAttrs(context.Background(), a.level, "trace", attrs...)
}

var _ Logger = (*SlogAdapter)(nil)
