package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/betkh/itron2mqtt2grafana/pkg/log"
)

// RunExport exports the trace file to the specified format.
func RunExport(path, format, output string, filter ViewFilter) error {
	reader, err := log.NewFilteredReader(path, filter.logFilter())
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	return export(reader, format, w)
}

func export(reader *log.Reader, format string, w io.Writer) error {
	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

// jsonEvent is the JSONL shape of an event, with names instead of the
// numeric stage and category codes.
type jsonEvent struct {
	Timestamp   string                `json:"timestamp"`
	SessionID   string                `json:"session_id"`
	Stage       string                `json:"stage"`
	Category    string                `json:"category"`
	StateChange *log.StateChangeEvent `json:"state_change,omitempty"`
	Capture     *log.CaptureEvent     `json:"capture,omitempty"`
	Result      *log.ResultEvent      `json:"result,omitempty"`
	Error       *log.ErrorEventData   `json:"error,omitempty"`
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		je := jsonEvent{
			Timestamp:   event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
			SessionID:   event.SessionID,
			Stage:       event.Stage.String(),
			Category:    event.Category.String(),
			StateChange: event.StateChange,
			Capture:     event.Capture,
			Result:      event.Result,
			Error:       event.Error,
		}
		if err := encoder.Encode(je); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"timestamp", "session_id", "stage", "category", "detail", "address", "port"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		var detail, addr, port string
		switch {
		case event.StateChange != nil:
			detail = event.StateChange.NewState
		case event.Capture != nil:
			detail = event.Capture.Instance
			addr = strings.Join(event.Capture.Addresses, " ")
			port = strconv.Itoa(event.Capture.Port)
		case event.Result != nil:
			detail = event.Result.Source
			addr = event.Result.Address
			if event.Result.Port > 0 {
				port = strconv.Itoa(event.Result.Port)
			}
		case event.Error != nil:
			detail = event.Error.Kind
		}

		row := []string{
			event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
			event.SessionID,
			event.Stage.String(),
			event.Category.String(),
			detail,
			addr,
			port,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}
