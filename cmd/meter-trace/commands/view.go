// Package commands implements the meter-trace CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/betkh/itron2mqtt2grafana/pkg/log"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	SessionID string
	Stage     *log.Stage
	Category  *log.Category
}

func (f ViewFilter) logFilter() log.Filter {
	return log.Filter{SessionID: f.SessionID, Stage: f.Stage, Category: f.Category}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [session:id] STAGE Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	sessionID := shortenSessionID(event.SessionID)

	var typeLabel string
	switch {
	case event.StateChange != nil:
		typeLabel = "State"
	case event.Capture != nil:
		typeLabel = "Capture"
	case event.Result != nil:
		typeLabel = "Result"
	case event.Error != nil:
		typeLabel = "Error"
	default:
		typeLabel = "Unknown"
	}

	fmt.Fprintf(w, "%s [session:%s] %-11s %s\n", ts, sessionID, event.Stage.String(), typeLabel)

	switch {
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Capture != nil:
		formatCaptureDetails(w, event.Capture)
	case event.Result != nil:
		formatResultDetails(w, event.Result)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

// shortenSessionID returns the first 8 characters of the session ID.
func shortenSessionID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatCaptureDetails(w io.Writer, c *log.CaptureEvent) {
	if c.Instance != "" {
		fmt.Fprintf(w, "  Instance: %s\n", c.Instance)
	}
	if c.HostName != "" {
		fmt.Fprintf(w, "  Host: %s\n", c.HostName)
	}
	if len(c.Addresses) > 0 {
		fmt.Fprintf(w, "  Addresses: %s\n", strings.Join(c.Addresses, ", "))
	} else {
		fmt.Fprintln(w, "  Addresses: (none)")
	}
	if c.Port > 0 {
		fmt.Fprintf(w, "  Port: %d\n", c.Port)
	} else {
		fmt.Fprintln(w, "  Port: (absent)")
	}
}

func formatResultDetails(w io.Writer, r *log.ResultEvent) {
	if r.Address != "" {
		fmt.Fprintf(w, "  Meter: %s:%d\n", r.Address, r.Port)
	}
	if r.CertPath != "" || r.KeyPath != "" {
		fmt.Fprintf(w, "  Cert: %s\n", r.CertPath)
		fmt.Fprintf(w, "  Key: %s\n", r.KeyPath)
	}
	if r.Source != "" {
		fmt.Fprintf(w, "  Source: %s\n", r.Source)
	}
	if r.Duration > 0 {
		fmt.Fprintf(w, "  Duration: %s\n", formatDuration(r.Duration))
	}
}

func formatErrorDetails(w io.Writer, e *log.ErrorEventData) {
	fmt.Fprintf(w, "  Kind: %s\n", e.Kind)
	fmt.Fprintf(w, "  Message: %s\n", e.Message)
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// ParseStageFlag parses a stage string from command-line flag (case-insensitive).
func ParseStageFlag(s string) (log.Stage, error) {
	switch strings.ToLower(s) {
	case "credentials":
		return log.StageCredentials, nil
	case "discovery":
		return log.StageDiscovery, nil
	case "target":
		return log.StageTarget, nil
	default:
		return 0, fmt.Errorf("invalid stage: %s (must be credentials, discovery, or target)", s)
	}
}

// ParseCategoryFlag parses a category string from command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "state":
		return log.CategoryState, nil
	case "capture":
		return log.CategoryCapture, nil
	case "result":
		return log.CategoryResult, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be state, capture, result, or error)", s)
	}
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter.logFilter())
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}

	return nil
}
