package observability

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Event represents a single wizard or publishing event.
type Event struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"` // INFO, WARN
	Type    string         `json:"type"`  // e.g. "wizard.step_changed", "quest.published"
	Message string         `json:"msg"`
	Data    map[string]any `json:"data,omitempty"`
}

// SessionID returns the wizard session that produced the event, if any.
func (e Event) SessionID() string {
	s, _ := e.Data["session_id"].(string)
	return s
}

// EventFilter specifies criteria for reading events.
type EventFilter struct {
	Since     *time.Time
	Until     *time.Time
	Type      string // exact type, or a "prefix." to match a family
	Level     string
	SessionID string
}

// EventLog defines the interface for writing and reading events.
type EventLog interface {
	Write(event Event) error
	LogEvent(eventType string, data map[string]any) error
	Read(filter EventFilter) ([]Event, error)
	Close() error
}

// eventMessages gives the human summary stored alongside each known type.
var eventMessages = map[string]string{
	"wizard.step_changed":      "wizard step changed",
	"wizard.validation_failed": "step validation failed",
	"draft.saved":              "draft saved",
	"draft.restored":           "draft restored",
	"draft.cleared":            "draft cleared",
	"draft.load_failed":        "saved draft unreadable",
	"quest.published":          "quest published",
}

// jsonlEventLog implements EventLog using an append-only JSONL file.
type jsonlEventLog struct {
	path string
	file *os.File
	mu   sync.Mutex
	now  func() time.Time
}

// NewJSONLEventLog opens (creating if needed) the JSONL file at path.
func NewJSONLEventLog(path string) (EventLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("opening event log: creating directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	return &jsonlEventLog{
		path: path,
		file: f,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

// Write appends a JSON-encoded event followed by a newline to the log file.
func (l *jsonlEventLog) Write(event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}
	data = append(data, '\n')

	if _, err := l.file.Write(data); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	return nil
}

// LogEvent records an event of the given type stamped with the current time.
// Types ending in "_failed" are logged at WARN.
func (l *jsonlEventLog) LogEvent(eventType string, data map[string]any) error {
	level := "INFO"
	if strings.HasSuffix(eventType, "_failed") {
		level = "WARN"
	}
	msg, ok := eventMessages[eventType]
	if !ok {
		msg = strings.ReplaceAll(eventType, ".", " ")
	}
	return l.Write(Event{
		Time:    l.now(),
		Level:   level,
		Type:    eventType,
		Message: msg,
		Data:    data,
	})
}

// Read scans the log file line by line and returns the events matching
// filter in write order. Malformed lines are skipped.
func (l *jsonlEventLog) Read(filter EventFilter) ([]Event, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening event log for reading: %w", err)
	}
	defer func() { _ = f.Close() }()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}

		if matchesEventFilter(event, filter) {
			events = append(events, event)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning event log: %w", err)
	}

	return events, nil
}

// Close closes the underlying log file.
func (l *jsonlEventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.file.Close(); err != nil {
		return fmt.Errorf("closing event log: %w", err)
	}
	return nil
}

func matchesEventFilter(event Event, filter EventFilter) bool {
	if filter.Since != nil && event.Time.Before(*filter.Since) {
		return false
	}
	if filter.Until != nil && event.Time.After(*filter.Until) {
		return false
	}
	if filter.Type != "" {
		if strings.HasSuffix(filter.Type, ".") {
			if !strings.HasPrefix(event.Type, filter.Type) {
				return false
			}
		} else if event.Type != filter.Type {
			return false
		}
	}
	if filter.Level != "" && !strings.EqualFold(event.Level, filter.Level) {
		return false
	}
	if filter.SessionID != "" && event.SessionID() != filter.SessionID {
		return false
	}
	return true
}
