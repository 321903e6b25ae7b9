package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		baseDir   string
		sessionID string
	}{
		{name: "valid directory", baseDir: t.TempDir(), sessionID: "01HX-session"},
		{name: "creates nested directories", baseDir: filepath.Join(t.TempDir(), "nested", "logs"), sessionID: "s2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.baseDir, tt.sessionID)
			if err != nil {
				t.Fatalf("NewLogger() error = %v", err)
			}
			defer logger.Close()

			if logger.minLevel != LevelInfo {
				t.Errorf("minLevel = %v, want %v", logger.minLevel, LevelInfo)
			}
			if _, err := os.Stat(logger.SessionLogPath()); err != nil {
				t.Errorf("session log not created: %v", err)
			}
			if _, err := os.Stat(filepath.Join(tt.baseDir, "errors.jsonl")); err != nil {
				t.Errorf("errors.jsonl not created: %v", err)
			}
		})
	}
}

func TestNewLoggerInvalidDirectory(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "file-not-dir")
	if err := os.WriteFile(filePath, []byte("x"), 0o644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	if _, err := NewLogger(filePath, "s"); err == nil {
		t.Fatal("expected error when baseDir is a file")
	}
}

func TestLogFillsSessionAndSurface(t *testing.T) {
	logger, err := NewLogger(t.TempDir(), "sess-1")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer logger.Close()

	logger.SetSurfaceID("surf-9")
	if err := logger.Info(CategoryRebuild, "surface_attached", "attached", map[string]any{"keyboard": "custom"}); err != nil {
		t.Fatalf("Info: %v", err)
	}

	events, err := ReadRecentEvents(logger.SessionLogPath(), 10)
	if err != nil {
		t.Fatalf("ReadRecentEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.SessionID != "sess-1" || ev.SurfaceID != "surf-9" {
		t.Errorf("ids = %q/%q", ev.SessionID, ev.SurfaceID)
	}
	if ev.Category != CategoryRebuild || ev.EventType != "surface_attached" {
		t.Errorf("unexpected event %+v", ev)
	}
	if ev.Timestamp.IsZero() {
		t.Error("timestamp should be set")
	}
	if ev.Details["keyboard"] != "custom" {
		t.Errorf("details = %v", ev.Details)
	}
}

func TestMinLevelFilters(t *testing.T) {
	logger, err := NewLogger(t.TempDir(), "s")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer logger.Close()

	_ = logger.Debug(CategoryInput, "dropped", "", nil)
	logger.SetMinLevel(LevelDebug)
	_ = logger.Debug(CategoryInput, "dropped", "", nil)

	events, err := ReadRecentEvents(logger.SessionLogPath(), 0)
	if err != nil {
		t.Fatalf("ReadRecentEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected only the post-SetMinLevel debug event, got %d", len(events))
	}
}

func TestErrorsDuplicatedToErrorLog(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, "s")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	_ = logger.Warn(CategoryPrefs, "fallback", "bad orientation", nil)
	_ = logger.Error(CategoryEngine, "exit", "engine crashed", nil)
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	events, err := ReadRecentEvents(filepath.Join(dir, "errors.jsonl"), 0)
	if err != nil {
		t.Fatalf("ReadRecentEvents: %v", err)
	}
	if len(events) != 1 || events[0].EventType != "exit" {
		t.Fatalf("error log = %+v", events)
	}
}

func TestReadRecentEventsKeepsTail(t *testing.T) {
	logger, err := NewLogger(t.TempDir(), "s")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer logger.Close()
	for _, typ := range []string{"a", "b", "c"} {
		_ = logger.Info(CategorySession, typ, "", nil)
	}

	events, err := ReadRecentEvents(logger.SessionLogPath(), 2)
	if err != nil {
		t.Fatalf("ReadRecentEvents: %v", err)
	}
	if len(events) != 2 || events[0].EventType != "b" || events[1].EventType != "c" {
		t.Fatalf("tail = %+v", events)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var logger *Logger
	logger.SetMinLevel(LevelDebug)
	logger.SetSurfaceID("x")
	if err := logger.Info(CategorySession, "noop", "", nil); err != nil {
		t.Fatalf("nil logger returned error: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("nil Close: %v", err)
	}
	if logger.SessionLogPath() != "" {
		t.Error("nil logger should have no path")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{"DEBUG": LevelDebug, " warn ": LevelWarn, "error": LevelError, "": LevelInfo, "loud": LevelInfo}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
