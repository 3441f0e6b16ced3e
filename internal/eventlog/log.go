package eventlog

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"

	"github.com/muurk/checkout/internal/logging"
)

// TimestampLayout is the layout used for entry timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// writeClipboard is swapped out in tests; CI machines have no clipboard.
var writeClipboard = clipboard.WriteAll

// Entry is a single line of the log.
type Entry struct {
	Timestamp string
	Text      string
}

// String renders the entry the way it is displayed and copied.
func (e Entry) String() string {
	return e.Timestamp + " " + e.Text
}

// Log is an append-only sequence of entries.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	now     func() time.Time
	updates chan struct{}
}

// Option configures a Log.
type Option func(*Log)

// WithNow overrides the time source used for timestamps.
func WithNow(now func() time.Time) Option {
	return func(l *Log) {
		l.now = now
	}
}

// New creates an empty log.
func New(opts ...Option) *Log {
	l := &Log{
		now:     time.Now,
		updates: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append adds an entry built from args joined by single spaces.
func (l *Log) Append(args ...any) Entry {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprint(a)
	}
	return l.add(strings.Join(parts, " "))
}

// Appendf adds a formatted entry.
func (l *Log) Appendf(format string, args ...any) Entry {
	return l.add(fmt.Sprintf(format, args...))
}

func (l *Log) add(text string) Entry {
	l.mu.Lock()
	entry := Entry{
		Timestamp: l.now().Format(TimestampLayout),
		Text:      text,
	}
	l.entries = append(l.entries, entry)
	l.mu.Unlock()

	logging.Debug("Event log", zap.String("text", text))
	l.signal()
	return entry
}

// Entries returns a copy of all entries in insertion order.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Clear empties the log.
func (l *Log) Clear() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()
	l.signal()
}

// Lines returns the rendered entries in insertion order.
func (l *Log) Lines() []string {
	entries := l.Entries()
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.String()
	}
	return lines
}

// String returns the entries joined by newlines. This is the copy format.
func (l *Log) String() string {
	return strings.Join(l.Lines(), "\n")
}

// CopyToClipboard writes the copy format to the system clipboard and
// returns what was written.
func (l *Log) CopyToClipboard() (string, error) {
	text := l.String()
	if err := writeClipboard(text); err != nil {
		return "", fmt.Errorf("failed to copy log to clipboard: %w", err)
	}
	return text, nil
}

// Updates returns a channel that receives a value after the log changes.
// Notifications coalesce: several appends may produce a single value.
func (l *Log) Updates() <-chan struct{} {
	return l.updates
}

func (l *Log) signal() {
	select {
	case l.updates <- struct{}{}:
	default:
	}
}
