// package audit records skipped tracks and fatal errors for later review
package audit

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Recorder receives one audit line per skip or failure.
//
// Implementations must be safe for concurrent use and must never fail the caller.
type Recorder interface {
	Record(prefix, message string)
}

// Nop discards every record.
type Nop struct{}

func (Nop) Record(string, string) {}

// LogRecorder writes records through a [log.Logger] and, optionally, appends them to a file.
type LogRecorder struct {
	logger *log.Logger
	mu     sync.Mutex
	tee    io.Writer
	closer io.Closer
}

// NewLogRecorder creates a recorder over logger. A nil logger discards log output.
func NewLogRecorder(logger *log.Logger) *LogRecorder {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &LogRecorder{logger: logger}
}

// OpenLogRecorder creates a recorder that also appends "prefix: message" lines to path.
func OpenLogRecorder(logger *log.Logger, path string) (*LogRecorder, error) {
	r := NewLogRecorder(logger)
	if path == "" {
		return r, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit file: %w", err)
	}
	r.tee = f
	r.closer = f
	return r, nil
}

// WithWriter sets an additional writer that receives plain audit lines.
func (r *LogRecorder) WithWriter(w io.Writer) *LogRecorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tee = w
	return r
}

// Record logs message under prefix. Write errors on the tee are dropped.
func (r *LogRecorder) Record(prefix, message string) {
	r.logger.Warn(message, "prefix", prefix)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tee == nil {
		return
	}
	_, _ = fmt.Fprintf(r.tee, "%s %s: %s\n", time.Now().Format(time.RFC3339), prefix, message)
}

// Close releases the audit file, if one was opened.
func (r *LogRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	r.tee = nil
	return err
}

// Memory keeps records in memory. Useful for reports and tests.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
}

// Entry is a single recorded line.
type Entry struct {
	Prefix  string
	Message string
}

func (m *Memory) Record(prefix, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, Entry{Prefix: prefix, Message: message})
}

// Entries returns a copy of the recorded entries in arrival order.
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Multi fans a record out to every recorder.
type Multi []Recorder

func (m Multi) Record(prefix, message string) {
	for _, r := range m {
		if r != nil {
			r.Record(prefix, message)
		}
	}
}
