package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	crerrors "github.com/odvcencio/crawlterm/pkg/errors"
)

// Default configuration values exported for documentation and validation
const (
	DefaultLogLevel      = "info"
	DefaultBusKind       = BusKindMemory
	DefaultSubjectPrefix = "crawlterm"
	DefaultEngineRows    = 24
	DefaultEngineCols    = 80
	DefaultEventBuffer   = 128
	DefaultNATSURL       = "nats://127.0.0.1:4222"
	DefaultRetention     = 30 * 24 * time.Hour
	DefaultReplayMaxAge  = 24 * time.Hour

	maxEngineDimension = 1000
)

// Bus kinds.
const (
	BusKindMemory = "memory"
	BusKindNATS   = "nats"
)

// Config represents the complete crawlterm configuration
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Prefs   PrefsConfig   `yaml:"prefs"`
	Storage StorageConfig `yaml:"storage"`
	Bus     BusConfig     `yaml:"bus"`
	Debug   DebugConfig   `yaml:"debug"`
	Engine  EngineConfig  `yaml:"engine"`
	UI      UIConfig      `yaml:"ui"`
}

// LoggingConfig controls the JSONL session logs.
type LoggingConfig struct {
	Dir   string `yaml:"dir"`
	Level string `yaml:"level"`
}

// PrefsConfig locates the player preference file.
type PrefsConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// StorageConfig locates the session journal database.
type StorageConfig struct {
	Path string `yaml:"path"`
	// Retention prunes finished sessions older than this at startup.
	// Zero keeps everything.
	Retention time.Duration `yaml:"retention"`
}

// BusConfig selects where session events are mirrored.
type BusConfig struct {
	Kind          string `yaml:"kind"`
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
	// Replay keeps session subjects in a JetStream stream (nats only).
	Replay       bool          `yaml:"replay"`
	ReplayMaxAge time.Duration `yaml:"replay_max_age"`
}

// DebugConfig controls the optional HTTP endpoint (metrics, health,
// spectator websocket). An empty Addr disables it.
type DebugConfig struct {
	Addr       string `yaml:"addr"`
	Spectators bool   `yaml:"spectators"`
	// TraceFile receives rebuild and session spans as JSON lines.
	TraceFile string `yaml:"trace_file"`
}

// EngineConfig sets the engine terminal geometry.
type EngineConfig struct {
	Rows int `yaml:"rows"`
	Cols int `yaml:"cols"`
}

// UIConfig tunes the presentation loop.
type UIConfig struct {
	EventBuffer int           `yaml:"event_buffer"`
	TickRate    time.Duration `yaml:"tick_rate"`
}

// DefaultConfig returns a configuration rooted at ~/.crawlterm.
func DefaultConfig() *Config {
	base := defaultBaseDir()
	return &Config{
		Logging: LoggingConfig{
			Dir:   filepath.Join(base, "logs"),
			Level: DefaultLogLevel,
		},
		Prefs: PrefsConfig{
			Path:  filepath.Join(base, "prefs.yaml"),
			Watch: true,
		},
		Storage: StorageConfig{
			Path:      filepath.Join(base, "crawlterm.db"),
			Retention: DefaultRetention,
		},
		Bus: BusConfig{
			Kind:          DefaultBusKind,
			SubjectPrefix: DefaultSubjectPrefix,
			ReplayMaxAge:  DefaultReplayMaxAge,
		},
		Debug: DebugConfig{
			Spectators: true,
		},
		Engine: EngineConfig{
			Rows: DefaultEngineRows,
			Cols: DefaultEngineCols,
		},
		UI: UIConfig{
			EventBuffer: DefaultEventBuffer,
		},
	}
}

func defaultBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = os.Getenv("HOME")
	}
	if home == "" {
		return ".crawlterm"
	}
	return filepath.Join(home, ".crawlterm")
}

// Load loads configuration from default locations with proper precedence:
// defaults, user config, project config, environment.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	if home != "" {
		userConfigPath := filepath.Join(home, ".crawlterm", "config.yaml")
		if err := loadAndMerge(cfg, userConfigPath); err != nil && !os.IsNotExist(err) {
			return nil, crerrors.Wrap(err, crerrors.ErrCodeConfigLoad, "loading user config").
				WithContext("path", userConfigPath)
		}
	}

	projectConfigPath := filepath.Join(".", ".crawlterm", "config.yaml")
	if err := loadAndMerge(cfg, projectConfigPath); err != nil && !os.IsNotExist(err) {
		return nil, crerrors.Wrap(err, crerrors.ErrCodeConfigLoad, "loading project config").
			WithContext("path", projectConfigPath)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file path
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := loadAndMerge(cfg, path); err != nil {
		return nil, crerrors.Wrap(err, crerrors.ErrCodeConfigLoad, "loading config").
			WithContext("path", path)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies CRAWLTERM_* environment overrides
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CRAWLTERM_LOG_DIR"); v != "" {
		cfg.Logging.Dir = v
	}
	if v := os.Getenv("CRAWLTERM_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CRAWLTERM_PREFS"); v != "" {
		cfg.Prefs.Path = v
	}
	if val, ok := envBool("CRAWLTERM_PREFS_WATCH"); ok {
		cfg.Prefs.Watch = val
	}
	if v := os.Getenv("CRAWLTERM_DB"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("CRAWLTERM_BUS_KIND"); v != "" {
		cfg.Bus.Kind = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("CRAWLTERM_NATS_URL"); v != "" {
		cfg.Bus.URL = v
		if os.Getenv("CRAWLTERM_BUS_KIND") == "" {
			cfg.Bus.Kind = BusKindNATS
		}
	}
	if v := os.Getenv("CRAWLTERM_DEBUG_ADDR"); v != "" {
		cfg.Debug.Addr = v
	}
	if v := os.Getenv("CRAWLTERM_TRACE_FILE"); v != "" {
		cfg.Debug.TraceFile = v
	}
	if v, err := strconv.Atoi(os.Getenv("CRAWLTERM_ENGINE_ROWS")); err == nil {
		cfg.Engine.Rows = v
	}
	if v, err := strconv.Atoi(os.Getenv("CRAWLTERM_ENGINE_COLS")); err == nil {
		cfg.Engine.Cols = v
	}
}

func envBool(key string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return false, false
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}

// Validate checks the configuration for values the runtime cannot use.
func (c *Config) Validate() error {
	switch c.Bus.Kind {
	case BusKindMemory:
	case BusKindNATS:
		if strings.TrimSpace(c.Bus.URL) == "" {
			c.Bus.URL = DefaultNATSURL
		}
	default:
		return invalid("bus.kind must be memory or nats", "bus.kind", c.Bus.Kind)
	}
	if strings.TrimSpace(c.Bus.SubjectPrefix) == "" {
		return invalid("bus.subject_prefix cannot be empty", "bus.subject_prefix", c.Bus.SubjectPrefix)
	}
	if c.Engine.Rows <= 0 || c.Engine.Rows > maxEngineDimension {
		return invalid("engine.rows out of range", "engine.rows", c.Engine.Rows)
	}
	if c.Engine.Cols <= 0 || c.Engine.Cols > maxEngineDimension {
		return invalid("engine.cols out of range", "engine.cols", c.Engine.Cols)
	}
	if c.UI.EventBuffer <= 0 {
		return invalid("ui.event_buffer must be positive", "ui.event_buffer", c.UI.EventBuffer)
	}
	if c.UI.TickRate < 0 {
		return invalid("ui.tick_rate cannot be negative", "ui.tick_rate", c.UI.TickRate)
	}
	if addr := strings.TrimSpace(c.Debug.Addr); addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return invalid(fmt.Sprintf("debug.addr: %v", err), "debug.addr", addr)
		}
	}
	if c.Storage.Retention < 0 {
		return invalid("storage.retention cannot be negative", "storage.retention", c.Storage.Retention)
	}
	if c.Bus.Replay && c.Bus.Kind != BusKindNATS {
		return invalid("bus.replay requires the nats bus", "bus.replay", c.Bus.Kind)
	}
	if strings.TrimSpace(c.Prefs.Path) == "" {
		return invalid("prefs.path cannot be empty", "prefs.path", c.Prefs.Path)
	}
	return nil
}

func invalid(msg, field string, value any) error {
	return crerrors.New(crerrors.ErrCodeConfigInvalid, msg).
		WithContext("field", field).
		WithContext("value", value)
}
