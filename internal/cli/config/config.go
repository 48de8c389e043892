package config

import (
	"fmt"
	"os"
	"time"

	"gradedesk/pkg/utils/logger"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBackendURL  = "http://127.0.0.1:8080"
	DefaultTimeout     = 2 * time.Minute
	DefaultRunTimeout  = 30 * time.Second
	DefaultHistoryPath = "configs/.cli_history"
	DefaultPrefsPath   = "configs/cli_prefs.json"
	DefaultLogLevel    = "warn"
)

// Config holds CLI configuration.
type Config struct {
	BackendURL  string        `yaml:"backendURL"`
	Timeout     time.Duration `yaml:"timeout"`
	RunTimeout  time.Duration `yaml:"runTimeout"`
	HistoryPath string        `yaml:"historyPath"`
	PrefsPath   string        `yaml:"prefsPath"`
	Logger      logger.Config `yaml:"logger"`
}

// Load reads path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("read config file failed: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file failed: %w", err)
		}
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.BackendURL == "" {
		cfg.BackendURL = DefaultBackendURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RunTimeout == 0 {
		cfg.RunTimeout = DefaultRunTimeout
	}
	if cfg.HistoryPath == "" {
		cfg.HistoryPath = DefaultHistoryPath
	}
	if cfg.PrefsPath == "" {
		cfg.PrefsPath = DefaultPrefsPath
	}
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = DefaultLogLevel
	}
	if cfg.Logger.Format == "" {
		cfg.Logger.Format = "console"
	}
	if cfg.Logger.OutputPath == "" {
		cfg.Logger.OutputPath = "stderr"
	}
}
