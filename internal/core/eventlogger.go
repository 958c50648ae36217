package core

// EventLogger is the subset of the observability event log that the wizard
// and publisher need. Defining it here avoids importing the observability
// package. A nil EventLogger disables event logging.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}

// logEvent writes to l when it is non-nil. Event log failures never affect
// wizard behavior.
func logEvent(l EventLogger, eventType string, data map[string]any) {
	if l == nil {
		return
	}
	_ = l.LogEvent(eventType, data)
}
