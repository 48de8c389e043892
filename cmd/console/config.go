package main

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gradedesk/internal/console/controller"
	"gradedesk/internal/console/prefs"
	"gradedesk/internal/console/web"
	pkgerrors "gradedesk/pkg/errors"
	"gradedesk/pkg/utils/logger"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr        = "127.0.0.1:5000"
	defaultBackendURL      = "http://127.0.0.1:8080"
	defaultBackendTimeout  = 2 * time.Minute
	defaultReadTimeout     = 10 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultPrefsPath       = "configs/console_prefs.json"

	prefsBackendFile  = "file"
	prefsBackendRedis = "redis"
)

// BackendConfig points at the grading backend.
type BackendConfig struct {
	URL     string        `yaml:"url" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

// ControllerConfig holds controller timings.
type ControllerConfig struct {
	RunTimeout     time.Duration `yaml:"runTimeout" validate:"gte=0"`
	LayoutDelay    time.Duration `yaml:"layoutDelay" validate:"gte=0"`
	EditorLanguage string        `yaml:"editorLanguage"`
}

// PrefsConfig selects the preference store.
type PrefsConfig struct {
	Backend string            `yaml:"backend" validate:"oneof=file redis"`
	Path    string            `yaml:"path" validate:"required_if=Backend file"`
	Redis   prefs.RedisConfig `yaml:"redis"`
}

// AppConfig holds the console configuration.
type AppConfig struct {
	Server          web.Config       `yaml:"server"`
	Logger          logger.Config    `yaml:"logger"`
	Backend         BackendConfig    `yaml:"backend"`
	Controller      ControllerConfig `yaml:"controller"`
	Prefs           PrefsConfig      `yaml:"prefs"`
	ShutdownTimeout time.Duration    `yaml:"shutdownTimeout"`
}

func (c ControllerConfig) toController() controller.Config {
	return controller.Config{
		RunTimeout:     c.RunTimeout,
		LayoutDelay:    c.LayoutDelay,
		EditorLanguage: c.EditorLanguage,
	}
}

// loadAppConfig reads path, applies .env and environment overrides, fills
// defaults and validates the result. A missing file is not an error.
func loadAppConfig(path string) (*AppConfig, error) {
	cfg := &AppConfig{}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config file failed: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file failed: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env failed: %w", err)
	}
	applyEnv(cfg)
	applyDefaults(cfg)

	if err := validator.New().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if stderrors.As(err, &verrs) && len(verrs) > 0 {
			return nil, pkgerrors.ValidationError(verrs[0].Namespace(), verrs[0].Tag())
		}
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *AppConfig) {
	if v, ok := os.LookupEnv("GRADEDESK_BACKEND_URL"); ok {
		cfg.Backend.URL = v
	}
	if v, ok := os.LookupEnv("GRADEDESK_ADDR"); ok {
		cfg.Server.Addr = v
	}
	if v, ok := os.LookupEnv("GRADEDESK_PREFS_BACKEND"); ok {
		cfg.Prefs.Backend = strings.ToLower(v)
	}
	if v, ok := os.LookupEnv("GRADEDESK_REDIS_ADDR"); ok {
		cfg.Prefs.Redis.Addr = v
	}
	if v, ok := os.LookupEnv("GRADEDESK_LOG_LEVEL"); ok {
		cfg.Logger.Level = v
	}
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}
	if cfg.Backend.URL == "" {
		cfg.Backend.URL = defaultBackendURL
	}
	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = defaultBackendTimeout
	}
	if cfg.Prefs.Backend == "" {
		cfg.Prefs.Backend = prefsBackendFile
	}
	if cfg.Prefs.Path == "" {
		cfg.Prefs.Path = defaultPrefsPath
	}
	redisDefaults := prefs.DefaultRedisConfig()
	if cfg.Prefs.Redis.Key == "" {
		cfg.Prefs.Redis.Key = redisDefaults.Key
	}
	if cfg.Prefs.Redis.DialTimeout == 0 {
		cfg.Prefs.Redis.DialTimeout = redisDefaults.DialTimeout
	}
	if cfg.Prefs.Redis.ReadTimeout == 0 {
		cfg.Prefs.Redis.ReadTimeout = redisDefaults.ReadTimeout
	}
	if cfg.Prefs.Redis.WriteTimeout == 0 {
		cfg.Prefs.Redis.WriteTimeout = redisDefaults.WriteTimeout
	}
	if cfg.Prefs.Redis.PoolSize == 0 {
		cfg.Prefs.Redis.PoolSize = redisDefaults.PoolSize
	}
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	if cfg.Logger.Format == "" {
		cfg.Logger.Format = "console"
	}
	if cfg.Logger.OutputPath == "" {
		cfg.Logger.OutputPath = "stdout"
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
}
