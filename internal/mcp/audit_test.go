package mcp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func readAuditEntries(t *testing.T, dir string) []AuditEntry {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, AuditFile))
	if err != nil {
		t.Fatalf("reading audit log: %v", err)
	}
	var entries []AuditEntry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		var e AuditEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("parsing audit entry %q: %v", scanner.Text(), err)
		}
		entries = append(entries, e)
	}
	return entries
}

func TestAuditLogger_NilSafety(t *testing.T) {
	t.Run("nil logger Log is no-op", func(t *testing.T) {
		var logger *AuditLogger
		logger.Log(AuditEntry{Tool: "test"})
	})

	t.Run("nil logger Close is no-op", func(t *testing.T) {
		var logger *AuditLogger
		if err := logger.Close(); err != nil {
			t.Errorf("Close() on nil logger returned error: %v", err)
		}
	})

	t.Run("empty dir disables auditing", func(t *testing.T) {
		if logger := NewAuditLogger(""); logger != nil {
			t.Error("expected nil logger for empty dir")
		}
	})
}

func TestAuditLogger_WritesJSONL(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "audit")
	logger := NewAuditLogger(dir)
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	defer logger.Close()

	now := time.Now()
	logger.Log(AuditEntry{
		Timestamp:  now,
		Tool:       "simulate_ratings",
		DurationMs: 42,
		Status:     "success",
		Params:     map[string]string{"mode": "elo-hell"},
	})
	logger.Log(AuditEntry{Tool: "expected_score", Status: "error", Error: "ratings must be finite"})

	entries := readAuditEntries(t, dir)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Tool != "simulate_ratings" || entries[0].DurationMs != 42 || entries[0].Params["mode"] != "elo-hell" {
		t.Errorf("first entry = %+v", entries[0])
	}
	if entries[1].Status != "error" || entries[1].Error == "" {
		t.Errorf("second entry = %+v", entries[1])
	}
}

func TestAuditLogger_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	logger := NewAuditLogger(dir)
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	defer logger.Close()
	logger.Log(AuditEntry{Tool: "test"})

	info, err := os.Stat(filepath.Join(dir, AuditFile))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("permissions = %o, want 0600", perm)
	}
}

func TestAuditLogger_ConcurrentWrites(t *testing.T) {
	dir := t.TempDir()
	logger := NewAuditLogger(dir)
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	defer logger.Close()

	const goroutines = 10
	const entriesPerGoroutine = 5

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < entriesPerGoroutine; i++ {
				logger.Log(AuditEntry{
					Timestamp:  time.Now(),
					Tool:       "team_win_rate",
					DurationMs: int64(id*100 + i),
					Status:     "success",
				})
			}
		}(g)
	}
	wg.Wait()

	if got := len(readAuditEntries(t, dir)); got != goroutines*entriesPerGoroutine {
		t.Errorf("line count = %d, want %d", got, goroutines*entriesPerGoroutine)
	}
}

func TestAuditLogger_NilOnBadPath(t *testing.T) {
	dir := t.TempDir()
	blockPath := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blockPath, []byte("file"), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if logger := NewAuditLogger(blockPath); logger != nil {
		logger.Close()
		t.Fatal("expected nil logger when the directory cannot be created")
	}
}

func TestAuditLogger_LogAfterClose(t *testing.T) {
	dir := t.TempDir()
	logger := NewAuditLogger(dir)
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	logger.Log(AuditEntry{Tool: "late"})
	if err := logger.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if got := len(readAuditEntries(t, dir)); got != 0 {
		t.Errorf("got %d entries after close, want 0", got)
	}
}

func TestAuditParamsOf(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
		want   map[string]string
	}{
		{
			name:   "nil params",
			params: nil,
			want:   nil,
		},
		{
			name:   "recorded values",
			params: map[string]any{"mode": "elo-hell", "agent_count": 3, "seed": int64(7)},
			want:   map[string]string{"mode": "elo-hell", "agent_count": "3", "seed": "7", "_param_count": "3"},
		},
		{
			name:   "unlisted keys are dropped but counted",
			params: map[string]any{"save": true, "trials": 10},
			want:   map[string]string{"trials": "10", "_param_count": "2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := auditParamsOf(tt.params)
			if tt.want == nil {
				if got != nil {
					t.Errorf("auditParamsOf() = %v, want nil", got)
				}
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("auditParamsOf() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("auditParamsOf()[%q] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestAuditTool(t *testing.T) {
	dir := t.TempDir()
	s := &Server{audit: NewAuditLogger(dir)}
	defer s.audit.Close()

	start := time.Now()
	s.auditTool("simulate_ratings", start, nil, map[string]any{"mode": "standard"})
	s.auditTool("team_win_rate", start, errors.New("boom"), nil)

	entries := readAuditEntries(t, dir)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Status != "success" || entries[0].Params["mode"] != "standard" {
		t.Errorf("success entry = %+v", entries[0])
	}
	if entries[1].Status != "error" || entries[1].Error != "boom" || entries[1].Params != nil {
		t.Errorf("error entry = %+v", entries[1])
	}
}
