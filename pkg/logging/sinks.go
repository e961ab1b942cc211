package logging

import (
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// Logger is the interface applications implement to receive protocol
// log events. Pass nil or NoopLogger to disable logging.
type Logger interface {
	// Log records a protocol event. Implementations must be
	// thread-safe. The event should be processed quickly or queued;
	// blocking affects the caller's performance.
	Log(event Event)
}

// NoopLogger discards all events. Use when logging is disabled.
// NoopLogger is safe for concurrent use and usable as a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

var _ Logger = NoopLogger{}

// FileLogger writes protocol events to a file in CBOR format. It is
// safe for concurrent use from multiple goroutines. A world process
// runs for days between restarts, so an unfiltered log grows without
// bound; FileLogger's Filter lets a caller keep only the events worth
// a permanent record (state transitions, errors) while still handing
// every event to a console sink via MultiLogger.
type FileLogger struct {
	file    *os.File
	encoder *cbor.Encoder
	filter  Filter
	mu      sync.Mutex
	closed  bool
}

// NewFileLogger creates a FileLogger that writes every event to path,
// appending if the file already exists.
func NewFileLogger(path string) (*FileLogger, error) {
	return NewFilteredFileLogger(path, Filter{})
}

// NewFilteredFileLogger creates a FileLogger that writes to path,
// appending if the file already exists, persisting only events
// matching filter. A zero Filter matches every event.
func NewFilteredFileLogger(path string, filter Filter) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &FileLogger{
		file:    f,
		encoder: NewEncoder(f),
		filter:  filter,
	}, nil
}

// Log writes an event to the log file if it matches the configured
// filter. Encoding errors are dropped: logging must not disrupt the
// application.
func (l *FileLogger) Log(event Event) {
	if !l.filter.matches(event) {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	_ = l.encoder.Encode(event)
}

// Close closes the log file. Safe to call multiple times; subsequent
// Log calls after Close are silently ignored.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	return l.file.Close()
}

var _ Logger = (*FileLogger)(nil)

// MultiLogger sends events to multiple loggers. Useful when both
// console output (ZerologAdapter) and file output (FileLogger) are
// wanted at the same time, typically with the file sink narrowed by
// a Filter and the console sink receiving everything.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a MultiLogger sending events to all of loggers.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

// Log sends the event to all configured loggers.
func (m *MultiLogger) Log(event Event) {
	for _, l := range m.loggers {
		l.Log(event)
	}
}

var _ Logger = (*MultiLogger)(nil)
