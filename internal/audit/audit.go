// Package audit provides an append-only log of the mutations sent to stores.
package audit

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Entry is one line of the audit log.
type Entry struct {
	Timestamp  time.Time `json:"ts"`
	Store      string    `json:"store"`
	Resource   string    `json:"resource"`
	Verb       string    `json:"verb"`
	Operation  string    `json:"op"` // root field, e.g. productUpdate
	IDs        []string  `json:"ids,omitempty"`
	UserErrors int       `json:"user_errors,omitempty"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms,omitempty"`
}

// OK reports whether the mutation was accepted.
func (e Entry) OK() bool {
	return e.Error == "" && e.UserErrors == 0
}

// Logger appends entries to one file. A Logger with an empty path is a
// no-op.
type Logger struct {
	path string
	mu   sync.Mutex
}

// New returns a logger writing to path.
func New(path string) *Logger {
	return &Logger{path: path}
}

// Enabled reports whether entries are written.
func (l *Logger) Enabled() bool {
	return l != nil && l.path != ""
}

// Path returns the log file location.
func (l *Logger) Path() string {
	return l.path
}

// Log writes an entry to the audit log.
func (l *Logger) Log(entry Entry) error {
	if !l.Enabled() {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	return nil
}

// Read returns every entry, oldest first. Malformed lines are skipped.
func (l *Logger) Read() ([]Entry, error) {
	if !l.Enabled() {
		return nil, nil
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}

	var entries []Entry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, scanner.Err()
}

// ReadSince returns entries at or after since.
func (l *Logger) ReadSince(since time.Time) ([]Entry, error) {
	all, err := l.Read()
	if err != nil {
		return nil, err
	}

	var filtered []Entry
	for _, entry := range all {
		if !entry.Timestamp.Before(since) {
			filtered = append(filtered, entry)
		}
	}
	return filtered, nil
}

// ReadForID returns entries that touched id.
func (l *Logger) ReadForID(id string) ([]Entry, error) {
	all, err := l.Read()
	if err != nil {
		return nil, err
	}

	var filtered []Entry
	for _, entry := range all {
		for _, got := range entry.IDs {
			if got == id {
				filtered = append(filtered, entry)
				break
			}
		}
	}
	return filtered, nil
}
