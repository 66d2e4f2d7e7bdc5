package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var GlobalConfig *Config

// ErrInvalidConfig a value was set but cannot be used
var ErrInvalidConfig = errors.New("invalid configuration")

const (
	DefaultConfigPath         = "config/config.yaml"
	DefaultStatusPath         = "data/model_service_status.json"
	DefaultWorkerLogPath      = "data/model_service.log"
	DefaultJournalDSN         = "data/supervisor.db"
	DefaultStalenessThreshold = 30 * time.Second
	DefaultLaunchGrace        = 3 * time.Second
	DefaultStopGrace          = 2 * time.Second
	DefaultRestartPause       = 1 * time.Second
	DefaultHTTPTimeout        = 2 * time.Second
	DefaultStatusListen       = "127.0.0.1:8011"
	DefaultRedisKey           = "model_service:status"
	DefaultHistoryLimit       = 20
	DefaultStopSignal         = "TERM"
)

// Config global configuration
type Config struct {
	Status     StatusConfig     `yaml:"status"`
	Worker     WorkerConfig     `yaml:"worker"`
	Supervisor SupervisorConfig `yaml:"supervisor"`
	Journal    JournalConfig    `yaml:"journal"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Logger     LoggerConfig     `yaml:"logger"`
}

// StatusConfig status store configuration
type StatusConfig struct {
	Backend            string        `yaml:"backend"`             // file, redis, http
	Path               string        `yaml:"path"`                // status file (file backend)
	StalenessThreshold time.Duration `yaml:"staleness_threshold"` // max heartbeat age
	Redis              RedisConfig   `yaml:"redis"`
	HTTP               HTTPConfig    `yaml:"http"`
}

// RedisConfig Redis configuration
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
}

// HTTPConfig worker status endpoint configuration
type HTTPConfig struct {
	URL     string        `yaml:"url"`    // e.g. http://127.0.0.1:8011
	Listen  string        `yaml:"listen"` // worker side bind address
	Token   string        `yaml:"token"`  // shared bearer token, empty disables auth
	Timeout time.Duration `yaml:"timeout"`
}

// WorkerConfig how to launch and identify the model worker
type WorkerConfig struct {
	Command      string   `yaml:"command"`       // full command line, shell-quoted
	WorkDir      string   `yaml:"work_dir"`      // working directory of the worker
	Env          []string `yaml:"env"`           // extra KEY=VALUE entries
	LogPath      string   `yaml:"log_path"`      // stdout/stderr of the worker
	MatchPattern string   `yaml:"match_pattern"` // command line substring used to find the worker
}

// SupervisorConfig grace periods of the lifecycle operations
type SupervisorConfig struct {
	LaunchGrace  time.Duration `yaml:"launch_grace"`
	StopGrace    time.Duration `yaml:"stop_grace"`
	RestartPause time.Duration `yaml:"restart_pause"`
	StopSignal   string        `yaml:"stop_signal"` // TERM, INT, KILL
}

// JournalConfig lifecycle journal configuration
type JournalConfig struct {
	Driver       string `yaml:"driver"` // sqlite, mysql, empty disables the journal
	DSN          string `yaml:"dsn"`
	HistoryLimit int    `yaml:"history_limit"`
}

// MetricsConfig metrics configuration
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path"` // node exporter textfile, empty disables
}

// LoggerConfig logger configuration
type LoggerConfig struct {
	Level  string           `yaml:"level"`  // debug, info, warn, error
	Output string           `yaml:"output"` // console, file, both
	File   LoggerFileConfig `yaml:"file"`
}

// LoggerFileConfig logger file configuration
type LoggerFileConfig struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	validateAndApplyDefaults(cfg)
	return cfg
}

// Init initializes configuration.
// path wins over CONFIG_PATH; a missing file yields the defaults.
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	GlobalConfig = cfg
	return nil
}

// Load reads configuration without touching GlobalConfig
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = DefaultConfigPath
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// run on defaults
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	validateAndApplyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MODELCTL_WORKER_COMMAND"); v != "" {
		cfg.Worker.Command = v
	}
	if v := os.Getenv("MODELCTL_STATUS_PATH"); v != "" {
		cfg.Status.Path = v
	}
	if v := os.Getenv("MODELCTL_STATUS_TOKEN"); v != "" {
		cfg.Status.HTTP.Token = v
	}
}

// validateAndApplyDefaults replaces missing or invalid values with defaults
func validateAndApplyDefaults(cfg *Config) {
	// an unknown backend is kept so validate can reject it
	cfg.Status.Backend = strings.ToLower(strings.TrimSpace(cfg.Status.Backend))
	if cfg.Status.Backend == "" {
		cfg.Status.Backend = "file"
	}
	if cfg.Status.Path == "" {
		cfg.Status.Path = DefaultStatusPath
	}
	if cfg.Status.StalenessThreshold <= 0 {
		cfg.Status.StalenessThreshold = DefaultStalenessThreshold
	}
	if cfg.Status.Redis.Addr == "" {
		cfg.Status.Redis.Addr = "127.0.0.1:6379"
	}
	if cfg.Status.Redis.Key == "" {
		cfg.Status.Redis.Key = DefaultRedisKey
	}
	if cfg.Status.HTTP.Listen == "" {
		cfg.Status.HTTP.Listen = DefaultStatusListen
	}
	if cfg.Status.HTTP.Timeout <= 0 {
		cfg.Status.HTTP.Timeout = DefaultHTTPTimeout
	}

	if cfg.Worker.LogPath == "" {
		cfg.Worker.LogPath = DefaultWorkerLogPath
	}
	if cfg.Worker.MatchPattern == "" {
		cfg.Worker.MatchPattern = cfg.Worker.Command
	}

	if cfg.Supervisor.LaunchGrace <= 0 {
		cfg.Supervisor.LaunchGrace = DefaultLaunchGrace
	}
	if cfg.Supervisor.StopGrace <= 0 {
		cfg.Supervisor.StopGrace = DefaultStopGrace
	}
	if cfg.Supervisor.RestartPause <= 0 {
		cfg.Supervisor.RestartPause = DefaultRestartPause
	}
	signal := strings.TrimPrefix(strings.ToUpper(cfg.Supervisor.StopSignal), "SIG")
	switch signal {
	case "TERM", "INT", "KILL":
		cfg.Supervisor.StopSignal = signal
	default:
		cfg.Supervisor.StopSignal = DefaultStopSignal
	}

	switch strings.ToLower(cfg.Journal.Driver) {
	case "sqlite", "mysql":
		cfg.Journal.Driver = strings.ToLower(cfg.Journal.Driver)
	default:
		cfg.Journal.Driver = ""
	}
	if cfg.Journal.Driver == "sqlite" && cfg.Journal.DSN == "" {
		cfg.Journal.DSN = DefaultJournalDSN
	}
	if cfg.Journal.HistoryLimit <= 0 {
		cfg.Journal.HistoryLimit = DefaultHistoryLimit
	}

	switch cfg.Logger.Level {
	case "debug", "info", "warn", "error":
	default:
		cfg.Logger.Level = "warn"
	}
	switch cfg.Logger.Output {
	case "console", "file", "both":
	default:
		cfg.Logger.Output = "console"
	}
	if cfg.Logger.File.Path == "" {
		cfg.Logger.File.Path = "logs/modelctl.log"
	}
	if cfg.Logger.File.MaxSizeMB <= 0 {
		cfg.Logger.File.MaxSizeMB = 50
	}
	if cfg.Logger.File.MaxBackups <= 0 {
		cfg.Logger.File.MaxBackups = 3
	}
	if cfg.Logger.File.MaxAgeDays <= 0 {
		cfg.Logger.File.MaxAgeDays = 14
	}
}

// validate rejects settings that must not be silently replaced.
// Reading the wrong status backend would make a running worker look absent.
func validate(cfg *Config) error {
	switch cfg.Status.Backend {
	case "file", "redis", "http":
		return nil
	default:
		return fmt.Errorf("%w: unsupported status.backend %q (want file, redis or http)", ErrInvalidConfig, cfg.Status.Backend)
	}
}
