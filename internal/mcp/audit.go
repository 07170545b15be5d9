package mcp

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// AuditFile is the name of the tool audit log inside the audit directory.
const AuditFile = "audit.jsonl"

// AuditEntry records one tool invocation. Parameters are reduced to the
// values listed in auditParams.
type AuditEntry struct {
	Timestamp  time.Time         `json:"timestamp"`
	Tool       string            `json:"tool"`
	DurationMs int64             `json:"duration_ms"`
	Status     string            `json:"status"` // "success" or "error"
	Error      string            `json:"error,omitempty"`
	Params     map[string]string `json:"params,omitempty"`
}

// AuditLogger appends entries to a JSONL file. It is safe for concurrent
// use. A nil AuditLogger is valid; all methods are no-ops.
type AuditLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewAuditLogger opens dir/audit.jsonl for appending, creating dir. It
// returns nil and prints a warning when the file cannot be opened, so a
// broken audit log never stops the server.
func NewAuditLogger(dir string) *AuditLogger {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot create audit log directory %s: %v\n", dir, err)
		return nil
	}

	path := filepath.Join(dir, AuditFile)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot open audit log %s: %v\n", path, err)
		return nil
	}
	return &AuditLogger{file: f}
}

// Log appends one entry as a single line.
func (a *AuditLogger) Log(entry AuditEntry) {
	if a == nil {
		return
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return
	}
	_, _ = a.file.Write(data)
}

// Close closes the log file.
func (a *AuditLogger) Close() error {
	if a == nil {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}

// auditParams are the tool arguments whose values are recorded. Everything
// else is dropped; only the argument count is kept.
var auditParams = map[string]bool{
	"mode":            true,
	"agent_count":     true,
	"total_games":     true,
	"placement_games": true,
	"seed":            true,
	"trials":          true,
	"own_size":        true,
	"opponent_size":   true,
	"rating_delta":    true,
	"limit":           true,
	"run_count":       true,
}

// auditParamsOf keeps the recorded subset of params plus a "_param_count" key.
func auditParamsOf(params map[string]any) map[string]string {
	if params == nil {
		return nil
	}

	result := make(map[string]string)
	for key, val := range params {
		if auditParams[key] {
			result[key] = fmt.Sprintf("%v", val)
		}
	}
	result["_param_count"] = fmt.Sprintf("%d", len(params))
	return result
}

// auditTool logs a tool invocation that started at start.
func (s *Server) auditTool(tool string, start time.Time, err error, params map[string]any) {
	status := "success"
	errMsg := ""
	if err != nil {
		status = "error"
		errMsg = err.Error()
	}

	entry := AuditEntry{
		Timestamp:  start,
		Tool:       tool,
		DurationMs: time.Since(start).Milliseconds(),
		Status:     status,
		Error:      errMsg,
		Params:     auditParamsOf(params),
	}
	s.audit.Log(entry)

	if s.logger != nil {
		keys := make([]string, 0, len(entry.Params))
		for k := range entry.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		s.logger.Debug("tool call", "tool", tool, "status", status,
			"duration_ms", entry.DurationMs, "params", strings.Join(keys, ","))
	}
}
