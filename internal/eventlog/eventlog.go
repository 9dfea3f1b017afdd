// Package eventlog is the local stand-in for a CloudWatch log stream: an
// append-only text file of timestamped lines.
package eventlog

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// TimeFormat is the layout of the bracketed prefix on every line.
const TimeFormat = "2006-01-02 15:04:05.000000"

// Entry is one parsed log line.
type Entry struct {
	Time    time.Time
	Message string
}

// Sink receives processing events.
type Sink interface {
	Append(msg string) error
}

// FileLog appends timestamped lines to a file.
type FileLog struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

func New(path string) *FileLog {
	return &FileLog{path: path, now: time.Now}
}

func (l *FileLog) Path() string {
	return l.path
}

// Append writes "[timestamp] msg" and mirrors it to the structured logger.
func (l *FileLog) Append(msg string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.now().UTC()
	line := fmt.Sprintf("[%s] %s\n", ts.Format(TimeFormat), sanitize(msg))

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write event log: %w", err)
	}

	log.Debug().Str("event_log", l.path).Time("ts", ts).Msg(msg)
	return nil
}

// ReadAll returns the raw log contents; a missing file reads as empty.
func (l *FileLog) ReadAll() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read event log: %w", err)
	}
	return string(data), nil
}

// Entries parses the log back into entries, skipping lines without a valid prefix.
func (l *FileLog) Entries() ([]Entry, error) {
	raw, err := l.ReadAll()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0)
	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		if entry, ok := ParseLine(scanner.Text()); ok {
			entries = append(entries, entry)
		}
	}
	return entries, scanner.Err()
}

// ParseLine splits "[timestamp] message".
func ParseLine(line string) (Entry, bool) {
	if !strings.HasPrefix(line, "[") {
		return Entry{}, false
	}
	end := strings.Index(line, "] ")
	if end < 0 {
		return Entry{}, false
	}
	ts, err := time.Parse(TimeFormat, line[1:end])
	if err != nil {
		return Entry{}, false
	}
	return Entry{Time: ts, Message: line[end+2:]}, true
}

// one event per line
func sanitize(msg string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(msg)
}

var _ Sink = (*FileLog)(nil)
