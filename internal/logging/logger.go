// Package logging provides leveled logging and match tracing for ratingsim.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - A MatchLogger for structured JSONL match traces (matches.jsonl)
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nvandessel/ratingsim/internal/models"
)

// LevelTrace is a custom slog level below Debug for per-match logging.
// At this level every single rating update is written to the operational log.
const LevelTrace = slog.LevelDebug - 4

// MatchFile is the name of the JSONL match trace inside the trace directory.
const MatchFile = "matches.jsonl"

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Label the custom trace level
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 4}))
}

// MatchLogger appends one JSON line per match to a trace file.
// It is safe for concurrent use, so batch runs may share one. A nil
// MatchLogger is safe to use; all methods are no-ops on nil receiver.
type MatchLogger struct {
	mu   sync.Mutex
	file *os.File
}

// matchEntry is the on-disk shape of one trace line.
type matchEntry struct {
	Time string `json:"time"`
	Run  string `json:"run,omitempty"`
	models.Match
}

// NewMatchLogger creates a match logger writing to dir/matches.jsonl.
// At "info" level (the default), returns nil and no file is created.
// At "debug" or "trace" level, the file is opened for append.
// Returns nil if the file cannot be opened. All methods are nil-safe.
func NewMatchLogger(dir string, level string) *MatchLogger {
	lvl := ParseLevel(level)
	if lvl == slog.LevelInfo {
		return nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}

	path := filepath.Join(dir, MatchFile)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}

	return &MatchLogger{file: f}
}

// LogMatch writes m as a single JSONL line tagged with run.
// Safe to call on nil receiver.
func (ml *MatchLogger) LogMatch(run string, m models.Match) {
	if ml == nil {
		return
	}
	ml.write(matchEntry{
		Time:  time.Now().UTC().Format(time.RFC3339Nano),
		Run:   run,
		Match: m,
	})
}

// Log writes a free-form event (phase transitions, run summaries) as a
// single JSONL line. A "time" field is added automatically. The caller's map
// is not mutated. Safe to call on nil receiver.
func (ml *MatchLogger) Log(event map[string]any) {
	if ml == nil {
		return
	}

	// Copy to avoid mutating caller's map
	entry := make(map[string]any, len(event)+1)
	for k, v := range event {
		entry[k] = v
	}
	entry["time"] = time.Now().UTC().Format(time.RFC3339Nano)
	ml.write(entry)
}

func (ml *MatchLogger) write(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	data = append(data, '\n')

	ml.mu.Lock()
	defer ml.mu.Unlock()
	if ml.file == nil {
		return
	}
	_, _ = ml.file.Write(data)
}

// Close closes the underlying file. Safe to call on nil receiver.
func (ml *MatchLogger) Close() {
	if ml == nil {
		return
	}

	ml.mu.Lock()
	defer ml.mu.Unlock()

	if ml.file != nil {
		ml.file.Close()
		ml.file = nil
	}
}
