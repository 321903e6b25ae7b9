package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/odvcencio/crawlterm/pkg/config"
	crerrors "github.com/odvcencio/crawlterm/pkg/errors"
)

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	if cfg.Engine.Rows != config.DefaultEngineRows || cfg.Engine.Cols != config.DefaultEngineCols {
		t.Fatalf("unexpected engine geometry: %+v", cfg.Engine)
	}
	if cfg.Bus.Kind != config.BusKindMemory {
		t.Fatalf("default bus should be memory, got %q", cfg.Bus.Kind)
	}
	if cfg.Prefs.Path == "" || cfg.Storage.Path == "" || cfg.Logging.Dir == "" {
		t.Fatalf("default paths should be populated: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadHierarchy(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	t.Setenv("HOME", home)

	userCfgDir := filepath.Join(home, ".crawlterm")
	if err := os.MkdirAll(userCfgDir, 0o755); err != nil {
		t.Fatalf("mkdir user config: %v", err)
	}
	userCfg := `
engine:
  rows: 30
  cols: 100
logging:
  level: debug
`
	if err := os.WriteFile(filepath.Join(userCfgDir, "config.yaml"), []byte(userCfg), 0o644); err != nil {
		t.Fatalf("write user config: %v", err)
	}

	projectCfgDir := filepath.Join(project, ".crawlterm")
	if err := os.MkdirAll(projectCfgDir, 0o755); err != nil {
		t.Fatalf("mkdir project config: %v", err)
	}
	projectCfg := `
engine:
  cols: 120
ui:
  tick_rate: 250ms
`
	if err := os.WriteFile(filepath.Join(projectCfgDir, "config.yaml"), []byte(projectCfg), 0o644); err != nil {
		t.Fatalf("write project config: %v", err)
	}

	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(oldWD)
	})
	if err := os.Chdir(project); err != nil {
		t.Fatalf("chdir project: %v", err)
	}

	t.Setenv("CRAWLTERM_LOG_LEVEL", "warn")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load returned error: %v", err)
	}

	if cfg.Engine.Rows != 30 {
		t.Fatalf("expected user rows, got %d", cfg.Engine.Rows)
	}
	if cfg.Engine.Cols != 120 {
		t.Fatalf("expected project cols override, got %d", cfg.Engine.Cols)
	}
	if cfg.UI.TickRate != 250*time.Millisecond {
		t.Fatalf("expected project tick rate, got %v", cfg.UI.TickRate)
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("expected env log level, got %q", cfg.Logging.Level)
	}
	if cfg.Prefs.Path != filepath.Join(home, ".crawlterm", "prefs.yaml") {
		t.Fatalf("prefs path should derive from HOME, got %q", cfg.Prefs.Path)
	}
}

func TestLoadFromPathParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("engine: [rows"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := config.LoadFromPath(path)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !crerrors.IsCode(err, crerrors.ErrCodeConfigLoad) {
		t.Fatalf("expected CONFIG_LOAD, got %v", err)
	}
}

func TestNATSURLEnvSelectsNATS(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("bus:\n  subject_prefix: dungeon\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CRAWLTERM_NATS_URL", "nats://example:4222")

	cfg, err := config.LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Bus.Kind != config.BusKindNATS || cfg.Bus.URL != "nats://example:4222" {
		t.Fatalf("bus = %+v", cfg.Bus)
	}
	if cfg.Bus.SubjectPrefix != "dungeon" {
		t.Fatalf("subject prefix = %q", cfg.Bus.SubjectPrefix)
	}
}

func TestDebugSectionFromFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("debug:\n  addr: 127.0.0.1:7070\n  spectators: false\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CRAWLTERM_TRACE_FILE", "/tmp/crawlterm-trace.jsonl")

	cfg, err := config.LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Debug.Addr != "127.0.0.1:7070" || cfg.Debug.Spectators {
		t.Fatalf("debug = %+v", cfg.Debug)
	}
	if cfg.Debug.TraceFile != "/tmp/crawlterm-trace.jsonl" {
		t.Fatalf("trace file = %q", cfg.Debug.TraceFile)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		ok     bool
	}{
		{name: "defaults", mutate: func(*config.Config) {}, ok: true},
		{name: "unknown bus", mutate: func(c *config.Config) { c.Bus.Kind = "kafka" }, ok: false},
		{name: "nats gets default url", mutate: func(c *config.Config) { c.Bus.Kind = config.BusKindNATS }, ok: true},
		{name: "zero rows", mutate: func(c *config.Config) { c.Engine.Rows = 0 }, ok: false},
		{name: "huge cols", mutate: func(c *config.Config) { c.Engine.Cols = 5000 }, ok: false},
		{name: "bad debug addr", mutate: func(c *config.Config) { c.Debug.Addr = "localhost" }, ok: false},
		{name: "good debug addr", mutate: func(c *config.Config) { c.Debug.Addr = "127.0.0.1:9130" }, ok: true},
		{name: "negative tick", mutate: func(c *config.Config) { c.UI.TickRate = -time.Second }, ok: false},
		{name: "empty prefs", mutate: func(c *config.Config) { c.Prefs.Path = "" }, ok: false},
		{name: "negative retention", mutate: func(c *config.Config) { c.Storage.Retention = -time.Hour }, ok: false},
		{name: "replay on memory bus", mutate: func(c *config.Config) { c.Bus.Replay = true }, ok: false},
		{name: "replay on nats", mutate: func(c *config.Config) { c.Bus.Kind = config.BusKindNATS; c.Bus.Replay = true }, ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok {
				if err == nil {
					t.Fatal("expected validation error")
				}
				if !crerrors.IsCode(err, crerrors.ErrCodeConfigInvalid) {
					t.Fatalf("expected CONFIG_INVALID, got %v", err)
				}
			}
		})
	}
}
