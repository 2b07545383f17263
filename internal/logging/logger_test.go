package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
)

// decodeLines parses every JSON line in data.
func decodeLines(t *testing.T, data []byte) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(data), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var e map[string]any
		if err := json.Unmarshal(line, &e); err != nil {
			t.Fatalf("log line is not JSON: %v\n%s", err, line)
		}
		entries = append(entries, e)
	}
	return entries
}

func messages(entries []map[string]any) []string {
	msgs := make([]string, 0, len(entries))
	for _, e := range entries {
		msgs = append(msgs, e["msg"].(string))
	}
	return msgs
}

func TestNewLogger_Destination(t *testing.T) {
	tests := []struct {
		name     string
		dir      func(t *testing.T) string
		wantFile bool
	}{
		{"empty dir writes to stderr", func(*testing.T) string { return "" }, false},
		{"existing dir", func(t *testing.T) string { return t.TempDir() }, true},
		{"missing nested dir is created", func(t *testing.T) string {
			return filepath.Join(t.TempDir(), "runs", "pingpong")
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := tt.dir(t)
			logger, err := NewLogger(dir, LevelDebug)
			if err != nil {
				t.Fatalf("NewLogger(%q) failed: %v", dir, err)
			}
			if got := logger.out != nil; got != tt.wantFile {
				t.Fatalf("owns file = %v, want %v", got, tt.wantFile)
			}
			logger.WithComponent("thread").Debug("spawning thread", "mailbox_id", 1)
			if err := logger.Close(); err != nil {
				t.Fatalf("Close failed: %v", err)
			}
			if !tt.wantFile {
				return
			}

			data, err := os.ReadFile(filepath.Join(dir, LogFileName))
			if err != nil {
				t.Fatalf("log file missing: %v", err)
			}
			entries := decodeLines(t, data)
			if len(entries) != 1 || entries[0]["component"] != "thread" {
				t.Errorf("file entries = %v, want one thread entry", entries)
			}
		})
	}
}

func TestNewLogger_AppendsAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	for _, run := range []string{"run-a", "run-b"} {
		logger, err := NewLogger(dir, LevelInfo)
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}
		logger.WithRun(run).Info("workload finished")
		_ = logger.Close()
	}

	data, _ := os.ReadFile(filepath.Join(dir, LogFileName))
	entries := decodeLines(t, data)
	if len(entries) != 2 || entries[0]["run_id"] != "run-a" || entries[1]["run_id"] != "run-b" {
		t.Errorf("entries = %v, want run-a then run-b", entries)
	}
}

func TestLogger_LevelThreshold(t *testing.T) {
	emit := func(l *Logger) {
		l.Debug("mutex acquired")
		l.Info("workload started")
		l.Warn("failed to destroy thread mailbox")
		l.Error("thread entry panicked")
	}
	tests := []struct {
		level string
		want  []string
	}{
		{LevelDebug, []string{"mutex acquired", "workload started", "failed to destroy thread mailbox", "thread entry panicked"}},
		{LevelInfo, []string{"workload started", "failed to destroy thread mailbox", "thread entry panicked"}},
		{LevelWarn, []string{"failed to destroy thread mailbox", "thread entry panicked"}},
		{LevelError, []string{"thread entry panicked"}},
		{"debug", []string{"mutex acquired", "workload started", "failed to destroy thread mailbox", "thread entry panicked"}},
		{"verbose", []string{"workload started", "failed to destroy thread mailbox", "thread entry panicked"}},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			emit(NewWriterLogger(&buf, tt.level))
			if got := messages(decodeLines(t, buf.Bytes())); !slices.Equal(got, tt.want) {
				t.Errorf("messages = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLogger_EnabledGuardsDebug(t *testing.T) {
	var buf bytes.Buffer
	if NewWriterLogger(&buf, LevelInfo).Enabled(LevelDebug) {
		t.Error("INFO logger reports DEBUG enabled")
	}
	if !NewWriterLogger(&buf, LevelDebug).WithComponent("mutex").Enabled(LevelDebug) {
		t.Error("DEBUG child logger reports DEBUG disabled")
	}
	if NopLogger().Enabled(LevelError) {
		t.Error("NopLogger reports ERROR enabled")
	}
}

func TestLogger_ChildAttributes(t *testing.T) {
	tests := []struct {
		name  string
		child func(*Logger) *Logger
		want  map[string]any
	}{
		{
			name:  "thread",
			child: func(l *Logger) *Logger { return l.WithComponent("thread").WithThread(7) },
			want:  map[string]any{"component": "thread", "thread_id": float64(7)},
		},
		{
			name:  "mailbox",
			child: func(l *Logger) *Logger { return l.WithComponent("mailbox").With("mailbox_id", 3) },
			want:  map[string]any{"component": "mailbox", "mailbox_id": float64(3)},
		},
		{
			name: "mailbox owned by a thread",
			child: func(l *Logger) *Logger {
				return l.WithComponent("thread").WithThread(7).WithComponent("mailbox").With("mailbox_id", 3)
			},
			want: map[string]any{"component": "mailbox", "thread_id": float64(7), "mailbox_id": float64(3)},
		},
		{
			name:  "rwlock backend",
			child: func(l *Logger) *Logger { return l.WithComponent("rwlock").With("backend", "emulated") },
			want:  map[string]any{"component": "rwlock", "backend": "emulated"},
		},
		{
			name:  "workload run",
			child: func(l *Logger) *Logger { return l.WithRun("3f2a").WithComponent("pingpong") },
			want:  map[string]any{"component": "pingpong", "run_id": "3f2a"},
		},
		{
			name:  "With skips non-string keys and a dangling key",
			child: func(l *Logger) *Logger { return l.With(42, "lost", "backend", "native", "dangling") },
			want:  map[string]any{"backend": "native"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.child(NewWriterLogger(&buf, LevelDebug)).Debug("state change")

			entries := decodeLines(t, buf.Bytes())
			if len(entries) != 1 {
				t.Fatalf("got %d entries, want 1", len(entries))
			}
			for k, v := range tt.want {
				if entries[0][k] != v {
					t.Errorf("%s = %v, want %v", k, entries[0][k], v)
				}
			}
			for _, k := range []string{"dangling", "lost"} {
				if _, ok := entries[0][k]; ok {
					t.Errorf("unexpected key %q in %v", k, entries[0])
				}
			}
		})
	}
}

func TestLogger_ChildDoesNotTouchParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewWriterLogger(&buf, LevelDebug).WithRun("run-1")
	_ = parent.WithThread(9).With("mailbox_id", 4)
	if same := parent.With(); same != parent {
		t.Error("With() without args should return the receiver")
	}

	parent.Info("workload started", "threads", 2)
	entries := decodeLines(t, buf.Bytes())
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e["run_id"] != "run-1" || e["threads"] != float64(2) {
		t.Errorf("entry = %v, want run_id and per-call threads", e)
	}
	if _, ok := e["thread_id"]; ok {
		t.Errorf("child attribute leaked into parent: %v", e)
	}
}

func TestLogger_ConcurrentThreads(t *testing.T) {
	const (
		threads = 8
		lines   = 50
	)
	dir := t.TempDir()
	logger, err := NewLogger(dir, LevelDebug)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	var wg sync.WaitGroup
	for id := range threads {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tl := logger.WithComponent("thread").WithThread(uint32(id + 1))
			for seq := range lines {
				tl.Debug("recv", "seq", seq)
			}
		}()
	}
	wg.Wait()
	_ = logger.Close()

	data, _ := os.ReadFile(filepath.Join(dir, LogFileName))
	perThread := make(map[float64]int)
	for _, e := range decodeLines(t, data) {
		perThread[e["thread_id"].(float64)]++
	}
	if len(perThread) != threads {
		t.Fatalf("saw %d thread ids, want %d", len(perThread), threads)
	}
	for id, n := range perThread {
		if n != lines {
			t.Errorf("thread %v logged %d lines, want %d", id, n, lines)
		}
	}
}

func TestLogger_Close(t *testing.T) {
	fileLogger, err := NewLogger(t.TempDir(), LevelInfo)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	var buf bytes.Buffer
	for name, l := range map[string]*Logger{
		"file":   fileLogger,
		"writer": NewWriterLogger(&buf, LevelInfo),
		"nop":    NopLogger(),
	} {
		for i := range 2 {
			if err := l.Close(); err != nil {
				t.Errorf("%s logger Close #%d = %v, want nil", name, i+1, err)
			}
		}
	}
}

func TestParseLevel(t *testing.T) {
	for _, level := range ValidLevels() {
		if got := ParseLevel(strings.ToLower(level)); got != level {
			t.Errorf("ParseLevel(%q) = %q, want %q", strings.ToLower(level), got, level)
		}
	}
	for _, unknown := range []string{"", "trace", "fatal"} {
		if got := ParseLevel(unknown); got != LevelInfo {
			t.Errorf("ParseLevel(%q) = %q, want %q", unknown, got, LevelInfo)
		}
	}
	if want := []string{LevelDebug, LevelInfo, LevelWarn, LevelError}; !slices.Equal(ValidLevels(), want) {
		t.Errorf("ValidLevels() = %v, want %v", ValidLevels(), want)
	}
}
