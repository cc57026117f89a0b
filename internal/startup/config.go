package startup

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"media-helper/internal/logging"
)

// ConfigFileEnv names the variable holding the optional YAML config path.
const ConfigFileEnv = "MEDIA_HELPER_CONFIG"

// Config holds all application configuration. Values come from the
// optional YAML file first and are then overridden by environment
// variables.
type Config struct {
	DatabasePath   string        `yaml:"database_path"`
	MediaDir       string        `yaml:"media_dir"`
	IndexInterval  time.Duration `yaml:"index_interval"`
	ScanWorkers    int           `yaml:"scan_workers"`
	WorkerIdle     time.Duration `yaml:"worker_idle"`
	UpdateThrottle time.Duration `yaml:"update_throttle"`
	ClickInterval  time.Duration `yaml:"click_interval"`
	MetricsAddr    string        `yaml:"metrics_addr"`
	MetricsEnabled *bool         `yaml:"metrics_enabled"`
	LogLevel       string        `yaml:"log_level"`
}

// Metrics reports whether the metrics endpoint is enabled.
func (c *Config) Metrics() bool {
	return c.MetricsEnabled == nil || *c.MetricsEnabled
}

func (c *Config) applyDefaults() {
	if c.DatabasePath == "" {
		c.DatabasePath = "media-helper.db"
	}
	if c.IndexInterval == 0 {
		c.IndexInterval = 30 * time.Minute
	}
	if c.WorkerIdle == 0 {
		c.WorkerIdle = 10 * time.Second
	}
	if c.UpdateThrottle == 0 {
		c.UpdateThrottle = 100 * time.Millisecond
	}
	if c.ClickInterval == 0 {
		c.ClickInterval = 300 * time.Millisecond
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = ":9090"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) applyEnv() error {
	c.DatabasePath = getEnv("DATABASE_PATH", c.DatabasePath)
	c.MediaDir = getEnv("MEDIA_DIR", c.MediaDir)
	c.MetricsAddr = getEnv("METRICS_ADDR", c.MetricsAddr)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	if v := os.Getenv("SCAN_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SCAN_WORKERS %q: %w", v, err)
		}
		c.ScanWorkers = n
	}
	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		enabled := getEnvBool("METRICS_ENABLED", c.Metrics())
		c.MetricsEnabled = &enabled
	}

	var err error
	if c.UpdateThrottle, err = getEnvDuration("SCAN_UPDATE_THROTTLE", c.UpdateThrottle); err != nil {
		return err
	}
	if c.ClickInterval, err = getEnvDuration("CLICK_INTERVAL", c.ClickInterval); err != nil {
		return err
	}
	if c.IndexInterval, err = getEnvDuration("INDEX_INTERVAL", c.IndexInterval); err != nil {
		return err
	}
	if c.WorkerIdle, err = getEnvDuration("SCAN_WORKER_IDLE", c.WorkerIdle); err != nil {
		return err
	}
	return nil
}

func (c *Config) validate() error {
	var errs []error
	if c.ScanWorkers < 0 {
		errs = append(errs, fmt.Errorf("scan_workers must not be negative, got %d", c.ScanWorkers))
	}
	if c.UpdateThrottle < 0 {
		errs = append(errs, fmt.Errorf("update_throttle must not be negative, got %v", c.UpdateThrottle))
	}
	if c.ClickInterval <= 0 {
		errs = append(errs, fmt.Errorf("click_interval must be positive, got %v", c.ClickInterval))
	}
	if c.IndexInterval < 0 {
		errs = append(errs, fmt.Errorf("index_interval must not be negative, got %v", c.IndexInterval))
	}
	if c.WorkerIdle <= 0 {
		errs = append(errs, fmt.Errorf("worker_idle must be positive, got %v", c.WorkerIdle))
	}
	if _, ok := logging.ParseLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}
	return errors.Join(errs...)
}

// ReadConfigFile parses the YAML file at path. Unknown keys are rejected.
// A missing file yields an empty Config.
func ReadConfigFile(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		return &cfg, nil
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		logging.Warn("  Config file %s not found, using defaults", path)
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open config %q: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	return &cfg, nil
}

// LoadConfig loads configuration from the optional YAML file named by
// MEDIA_HELPER_CONFIG and the environment, applies the log level and makes
// sure the database directory is writable.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logging.Info("  DATABASE_PATH:        %s", cfg.DatabasePath)
	logging.Info("  MEDIA_DIR:            %s", valueOr(cfg.MediaDir, "(not set)"))
	logging.Info("  INDEX_INTERVAL:       %v", cfg.IndexInterval)
	logging.Info("  SCAN_WORKERS:         %s", valueOr(strconv.Itoa(cfg.ScanWorkers), "auto"))
	logging.Info("  SCAN_UPDATE_THROTTLE: %v", cfg.UpdateThrottle)
	logging.Info("  CLICK_INTERVAL:       %v", cfg.ClickInterval)
	logging.Info("  METRICS_ENABLED:      %v", cfg.Metrics())
	logging.Info("  METRICS_ADDR:         %s", cfg.MetricsAddr)
	logging.Info("  LOG_LEVEL:            %s", logging.GetLevel())

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	databaseDir := filepath.Dir(cfg.DatabasePath)
	if err := ensureDirectory(databaseDir, "database"); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}
	if err := testWriteAccess(databaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable (required for database): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	if cfg.MediaDir != "" {
		if err := ensureDirectory(cfg.MediaDir, "media"); err != nil {
			logging.Warn("  Media directory issue: %v", err)
		} else if logging.IsDebugEnabled() {
			logMediaSummary(cfg.MediaDir)
		}
	}

	return cfg, nil
}

// loadConfig builds the configuration without any banner output.
func loadConfig() (*Config, error) {
	cfg, err := ReadConfigFile(os.Getenv(ConfigFileEnv))
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// DEBUG=true keeps precedence over the configured level.
	if !getEnvBool("DEBUG", false) {
		level, _ := logging.ParseLevel(cfg.LogLevel)
		logging.SetLevel(level)
	}

	if abs, err := filepath.Abs(cfg.DatabasePath); err == nil {
		cfg.DatabasePath = abs
	}
	if cfg.MediaDir != "" {
		if abs, err := filepath.Abs(cfg.MediaDir); err == nil {
			cfg.MediaDir = abs
		}
	}
	return cfg, nil
}

func valueOr(v, fallback string) string {
	if v == "" || v == "0" {
		return fallback
	}
	return v
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}
