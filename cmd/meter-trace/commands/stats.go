package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/betkh/itron2mqtt2grafana/pkg/log"
)

// Stats holds aggregate statistics about a trace file.
type Stats struct {
	TotalEvents      int
	EventsByStage    map[log.Stage]int
	EventsByCategory map[log.Category]int
	ErrorsByKind     map[string]int
	Sessions         map[string]*SessionStats
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// SessionStats holds statistics for a single resolution attempt.
type SessionStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	Captures  int

	// Outcome is the final target source (static, mdns) or the error kind.
	Outcome  string
	Address  string
	Duration time.Duration
}

// collectStats reads every event from reader.
func collectStats(reader *log.Reader) (*Stats, error) {
	stats := &Stats{
		EventsByStage:    make(map[log.Stage]int),
		EventsByCategory: make(map[log.Category]int),
		ErrorsByKind:     make(map[string]int),
		Sessions:         make(map[string]*SessionStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByStage[event.Stage]++
		stats.EventsByCategory[event.Category]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		sess, ok := stats.Sessions[event.SessionID]
		if !ok {
			sess = &SessionStats{FirstSeen: event.Timestamp, LastSeen: event.Timestamp}
			stats.Sessions[event.SessionID] = sess
		}
		sess.Events++
		if event.Timestamp.After(sess.LastSeen) {
			sess.LastSeen = event.Timestamp
		}

		switch {
		case event.Capture != nil:
			sess.Captures++
		case event.Error != nil:
			stats.ErrorsByKind[event.Error.Kind]++
			// the first error is the root cause; later stages only report it
			if sess.Outcome == "" {
				sess.Outcome = event.Error.Kind
			}
		case event.Result != nil && event.Stage == log.StageTarget:
			sess.Outcome = event.Result.Source
			sess.Address = fmt.Sprintf("%s:%d", event.Result.Address, event.Result.Port)
			sess.Duration = event.Result.Duration
		case event.Result != nil && event.Stage == log.StageDiscovery && sess.Outcome == "":
			sess.Outcome = "mdns"
			sess.Address = fmt.Sprintf("%s:%d", event.Result.Address, event.Result.Port)
			sess.Duration = event.Result.Duration
		}
	}

	return stats, nil
}

// RunStats analyzes the trace file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	stats, err := collectStats(reader)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Meter Resolution Trace Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Stage:")
	for _, s := range []log.Stage{log.StageCredentials, log.StageDiscovery, log.StageTarget} {
		if count := stats.EventsByStage[s]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", s.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, c := range []log.Category{log.CategoryState, log.CategoryCapture, log.CategoryResult, log.CategoryError} {
		if count := stats.EventsByCategory[c]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", c.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Sessions: %d\n", len(stats.Sessions))
	if len(stats.Sessions) > 0 {
		type sessInfo struct {
			id    string
			stats *SessionStats
		}
		sessions := make([]sessInfo, 0, len(stats.Sessions))
		for id, ss := range stats.Sessions {
			sessions = append(sessions, sessInfo{id, ss})
		}
		sort.Slice(sessions, func(i, j int) bool {
			return sessions[i].stats.FirstSeen.Before(sessions[j].stats.FirstSeen)
		})

		fmt.Fprintln(w)
		for _, s := range sessions {
			outcome := s.stats.Outcome
			if outcome == "" {
				outcome = "incomplete"
			}
			fmt.Fprintf(w, "  [%s] %d events, %d captures, %s\n",
				shortenSessionID(s.id), s.stats.Events, s.stats.Captures, outcome)
			if s.stats.Address != "" {
				fmt.Fprintf(w, "           Meter: %s (%s)\n", s.stats.Address, formatDuration(s.stats.Duration))
			}
		}
	}

	if len(stats.ErrorsByKind) > 0 {
		kinds := make([]string, 0, len(stats.ErrorsByKind))
		for k := range stats.ErrorsByKind {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)

		fmt.Fprintln(w)
		fmt.Fprintln(w, "Errors by Kind:")
		for _, k := range kinds {
			fmt.Fprintf(w, "  %-18s %d\n", k+":", stats.ErrorsByKind[k])
		}
	}
}
