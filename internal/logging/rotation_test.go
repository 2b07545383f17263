package logging

import (
	"compress/gzip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// newTestRotatingWriter returns a writer that rotates past maxBytes instead
// of whole megabytes.
func newTestRotatingWriter(t *testing.T, maxBytes int64, backups int, compress bool) (*RotatingWriter, string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "test.log")
	rw, err := NewRotatingWriter(logPath, RotationConfig{MaxBackups: backups, Compress: compress})
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	rw.maxBytes = maxBytes
	return rw, logPath
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestNewRotatingWriter(t *testing.T) {
	t.Run("creates log file and parent directory", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "nested", "test.log")
		rw, err := NewRotatingWriter(logPath, DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewRotatingWriter failed: %v", err)
		}
		defer func() { _ = rw.Close() }()

		if !exists(logPath) {
			t.Errorf("log file was not created at %s", logPath)
		}
		if rw.Path() != logPath {
			t.Errorf("Path() = %q, want %q", rw.Path(), logPath)
		}
	})

	t.Run("appends to existing file", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "test.log")
		if err := os.WriteFile(logPath, []byte("existing\n"), 0644); err != nil {
			t.Fatal(err)
		}

		rw, err := NewRotatingWriter(logPath, DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewRotatingWriter failed: %v", err)
		}
		if rw.Size() != int64(len("existing\n")) {
			t.Errorf("Size() = %d, want %d", rw.Size(), len("existing\n"))
		}
		_, _ = rw.Write([]byte("new\n"))
		_ = rw.Close()

		data, _ := os.ReadFile(logPath)
		if string(data) != "existing\nnew\n" {
			t.Errorf("file contents = %q, want appended data", data)
		}
	})
}

func TestRotatingWriterRotation(t *testing.T) {
	t.Run("rotates when size exceeds max", func(t *testing.T) {
		rw, logPath := newTestRotatingWriter(t, 100, 3, false)
		for range 5 {
			_, _ = rw.Write([]byte("this is a test message that will trigger rotation\n"))
		}
		_ = rw.Close()

		if !exists(logPath + ".1") {
			t.Error("backup file .1 was not created")
		}
		if !exists(logPath) {
			t.Error("current log file does not exist after rotation")
		}
	})

	t.Run("keeps only MaxBackups files", func(t *testing.T) {
		rw, logPath := newTestRotatingWriter(t, 50, 2, false)
		for range 10 {
			_, _ = rw.Write([]byte("this message will trigger rotation\n"))
		}
		_ = rw.Close()

		if !exists(logPath+".1") || !exists(logPath+".2") {
			t.Error("backup files .1 and .2 should exist")
		}
		if exists(logPath + ".3") {
			t.Error("backup file .3 should not exist")
		}
	})

	t.Run("newest backup is .1", func(t *testing.T) {
		rw, logPath := newTestRotatingWriter(t, 10, 3, false)
		for _, line := range []string{"first-line\n", "second-line\n", "third-line\n"} {
			_, _ = rw.Write([]byte(line))
		}
		_ = rw.Close()

		for path, want := range map[string]string{
			logPath:        "third-line\n",
			logPath + ".1": "second-line\n",
			logPath + ".2": "first-line\n",
		} {
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("read %s: %v", path, err)
			}
			if string(data) != want {
				t.Errorf("%s = %q, want %q", filepath.Base(path), data, want)
			}
		}
	})

	t.Run("no rotation when MaxSizeMB is 0", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "test.log")
		rw, err := NewRotatingWriter(logPath, RotationConfig{MaxSizeMB: 0, MaxBackups: 3})
		if err != nil {
			t.Fatalf("NewRotatingWriter failed: %v", err)
		}
		for range 100 {
			_, _ = rw.Write([]byte("test message that would trigger rotation if enabled\n"))
		}
		_ = rw.Close()

		if exists(logPath + ".1") {
			t.Error("backup file should not exist when rotation is disabled")
		}
	})
}

func TestRotatingWriterCompression(t *testing.T) {
	rw, logPath := newTestRotatingWriter(t, 40, 3, true)
	_, _ = rw.Write([]byte("this line goes into the first backup file\n"))
	_, _ = rw.Write([]byte("and this one stays live\n"))
	if err := rw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if exists(logPath + ".1") {
		t.Error("uncompressed backup should be removed after compression")
	}
	f, err := os.Open(logPath + ".1.gz")
	if err != nil {
		t.Fatalf("compressed backup missing: %v", err)
	}
	defer func() { _ = f.Close() }()
	zr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip.NewReader: %v", err)
	}
	data, _ := io.ReadAll(zr)
	if !strings.Contains(string(data), "first backup file") {
		t.Errorf("compressed backup = %q, want the rotated line", data)
	}
}

func TestRotatingWriterRotationError(t *testing.T) {
	rw, logPath := newTestRotatingWriter(t, 10, 1, false)
	var reported []error
	rw.onError = func(err error) { reported = append(reported, err) }

	// A directory squatting on the backup name makes the rename fail.
	if err := os.Mkdir(logPath+".1", 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(logPath+".1", "keep"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	_, _ = rw.Write([]byte("first entry\n"))
	if _, err := rw.Write([]byte("second entry\n")); err != nil {
		t.Fatalf("Write should fall back to the live file, got %v", err)
	}
	_ = rw.Close()

	if len(reported) == 0 {
		t.Error("rotation failure should be reported")
	}
	data, _ := os.ReadFile(logPath)
	if !strings.Contains(string(data), "second entry") {
		t.Errorf("live file = %q, want the entry written after the failed rotation", data)
	}
}

func TestRotatingWriterConcurrency(t *testing.T) {
	rw, logPath := newTestRotatingWriter(t, 2000, 5, false)
	const (
		writers = 8
		lines   = 50
		line    = "concurrent log line\n"
	)

	var wg sync.WaitGroup
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range lines {
				_, _ = rw.Write([]byte(line))
			}
		}()
	}
	wg.Wait()
	_ = rw.Close()

	var total int
	for _, path := range []string{logPath, logPath + ".1", logPath + ".2", logPath + ".3", logPath + ".4", logPath + ".5"} {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		total += strings.Count(string(data), line)
	}
	// 8*50*20 = 8000 bytes fit in the live file plus 5 backups of 2000.
	if total != writers*lines {
		t.Errorf("found %d lines across files, want %d", total, writers*lines)
	}
}

func TestRotatingWriterClose(t *testing.T) {
	rw, _ := newTestRotatingWriter(t, 0, 0, false)
	if err := rw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := rw.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
	if _, err := rw.Write([]byte("late")); err == nil {
		t.Error("Write after Close should fail")
	}
	if err := rw.Sync(); err != nil {
		t.Errorf("Sync after Close should be a no-op, got %v", err)
	}
}

func TestNewLoggerWithRotation(t *testing.T) {
	t.Run("logs JSON to the rotating file", func(t *testing.T) {
		dir := t.TempDir()
		logger, err := NewLoggerWithRotation(dir, LevelDebug, DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewLoggerWithRotation failed: %v", err)
		}
		logger.WithComponent("mailbox").Info("send blocked", "capacity", 5)
		if err := logger.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}

		data, err := os.ReadFile(filepath.Join(dir, LogFileName))
		if err != nil {
			t.Fatalf("failed to read log file: %v", err)
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry); err != nil {
			t.Fatalf("log line is not JSON: %v\n%s", err, data)
		}
		if entry["msg"] != "send blocked" || entry["component"] != "mailbox" {
			t.Errorf("log entry = %v, want msg and component", entry)
		}
	})

	t.Run("empty dir logs to stderr", func(t *testing.T) {
		logger, err := NewLoggerWithRotation("", LevelInfo, DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewLoggerWithRotation failed: %v", err)
		}
		if logger.out != nil {
			t.Error("stderr logger should not own an output")
		}
		_ = logger.Close()
	})
}

func TestDefaultRotationConfig(t *testing.T) {
	cfg := DefaultRotationConfig()
	if cfg.MaxSizeMB != 10 || cfg.MaxBackups != 3 || cfg.Compress {
		t.Errorf("DefaultRotationConfig() = %+v, want {10 3 false}", cfg)
	}
}
