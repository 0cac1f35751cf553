package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the configuration of the irrigation tracker service
type Config struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`

	Storage struct {
		Driver        string        `yaml:"driver"` // postgres | sqlite
		DSN           string        `yaml:"dsn"`
		SlowThreshold time.Duration `yaml:"slow_threshold"`
	} `yaml:"storage"`

	// Redis backs the once-per-day guard of the scheduler; empty Addr keeps it in memory
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Agro struct {
		BaseURL string        `yaml:"base_url"`
		APIKey  string        `yaml:"api_key"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"agro"`

	Scheduler struct {
		Enabled       bool          `yaml:"enabled"`
		Hour          int           `yaml:"hour"`
		WindowMinutes int           `yaml:"window_minutes"`
		Timezone      string        `yaml:"timezone"`
		UserTimeout   time.Duration `yaml:"user_timeout"`
	} `yaml:"scheduler"`

	Backup struct {
		Dir            string `yaml:"dir"`
		RestoreOnStart bool   `yaml:"restore_on_start"`
	} `yaml:"backup"`

	Auth struct {
		JWTSecret     string        `yaml:"jwt_secret"`
		TokenTTL      time.Duration `yaml:"token_ttl"`
		AdminUsername string        `yaml:"admin_username"`
	} `yaml:"auth"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = ":8080"
	cfg.Storage.Driver = "sqlite"
	cfg.Storage.DSN = "crop_irrigation.db"
	cfg.Storage.SlowThreshold = time.Second
	cfg.Agro.BaseURL = "http://api.agromonitoring.com"
	cfg.Agro.Timeout = 15 * time.Second
	cfg.Scheduler.Enabled = true
	cfg.Scheduler.Hour = 13
	cfg.Scheduler.WindowMinutes = 15
	cfg.Scheduler.UserTimeout = 30 * time.Second
	cfg.Backup.Dir = "data"
	cfg.Backup.RestoreOnStart = true
	cfg.Auth.TokenTTL = 24 * time.Hour
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	return cfg
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE, a .env file and finally the process environment.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	// a missing .env file is fine
	_ = godotenv.Load()

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.HTTP.Addr, "HTTP_ADDR")

	setString(&cfg.Storage.Driver, "STORAGE_DRIVER")
	setString(&cfg.Storage.DSN, "STORAGE_DSN")

	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")

	setString(&cfg.Agro.BaseURL, "AGROMONITORING_BASE_URL")
	setString(&cfg.Agro.APIKey, "AGROMONITORING_API_KEY")

	setString(&cfg.Scheduler.Timezone, "SCHEDULER_TIMEZONE")

	setString(&cfg.Backup.Dir, "BACKUP_DIR")

	setString(&cfg.Auth.JWTSecret, "JWT_SECRET_KEY")
	setString(&cfg.Auth.AdminUsername, "ADMIN_USERNAME")

	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")

	return errors.Join(
		setInt(&cfg.Redis.DB, "REDIS_DB"),
		setDuration(&cfg.Storage.SlowThreshold, "STORAGE_SLOW_THRESHOLD"),
		setDuration(&cfg.Agro.Timeout, "AGROMONITORING_TIMEOUT"),
		setBool(&cfg.Scheduler.Enabled, "SCHEDULER_ENABLED"),
		setInt(&cfg.Scheduler.Hour, "SCHEDULER_HOUR"),
		setInt(&cfg.Scheduler.WindowMinutes, "SCHEDULER_WINDOW_MINUTES"),
		setDuration(&cfg.Scheduler.UserTimeout, "SCHEDULER_USER_TIMEOUT"),
		setBool(&cfg.Backup.RestoreOnStart, "BACKUP_RESTORE_ON_START"),
		setDuration(&cfg.Auth.TokenTTL, "TOKEN_TTL"),
	)
}

// Validate rejects configurations the service cannot start with
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("STORAGE_DRIVER must be postgres or sqlite, got %q", c.Storage.Driver)
	}
	if c.Storage.DSN == "" {
		return errors.New("STORAGE_DSN is required")
	}
	if c.Scheduler.Hour < 0 || c.Scheduler.Hour > 23 {
		return fmt.Errorf("SCHEDULER_HOUR must be between 0 and 23, got %d", c.Scheduler.Hour)
	}
	if c.Scheduler.WindowMinutes <= 0 || c.Scheduler.WindowMinutes > 60 {
		return fmt.Errorf("SCHEDULER_WINDOW_MINUTES must be between 1 and 60, got %d", c.Scheduler.WindowMinutes)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET_KEY is required")
	}
	return nil
}

// Location returns the scheduler timezone, the server-local zone when unset
func (c *Config) Location() (*time.Location, error) {
	if c.Scheduler.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Scheduler.Timezone)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = i
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
