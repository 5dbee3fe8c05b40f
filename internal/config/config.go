package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/artisticvicky/mocktest-bot/internal/runner"
)

var ErrMissingEnvironmentVariables = errors.New("missing required environment variables")

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env              string   `mapstructure:"env"` // current application environment (local, dev, production)
	TelegramAPIToken string   `mapstructure:"-"`   // Telegram API token loaded from environment
	LogDir           string   `mapstructure:"log_dir"`
	Telegram         Telegram `mapstructure:"telegram"`
	DB               DB       `mapstructure:"database"`
	API              API      `mapstructure:"api"`
	Test             Test     `mapstructure:"test"`
	Sweep            Sweep    `mapstructure:"sweep"`
	HTTP             HTTP     `mapstructure:"http"`
	Attempts         Attempts `mapstructure:"attempts"`
}

type Telegram struct {
	TimerRefresh time.Duration `mapstructure:"timer_refresh"` // minimum gap between timer message edits
}

// DB contains database-related configuration parameters.
type DB struct {
	URL             string        `mapstructure:"-"`                 // database connection string loaded from environment
	MaxConnections  int32         `mapstructure:"max_connections"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // maximum lifetime of a single connection
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
}

// API is the learning platform the bot talks to.
type API struct {
	BaseURL       string        `mapstructure:"-"` // loaded from API_BASE_URL
	Timeout       time.Duration `mapstructure:"timeout"`
	RefreshLeeway time.Duration `mapstructure:"refresh_leeway"`
}

// Test holds the runner policy.
type Test struct {
	Duration         time.Duration `mapstructure:"duration"`
	SubmitTimeout    time.Duration `mapstructure:"submit_timeout"`
	ExitDebounce     time.Duration `mapstructure:"exit_debounce"`
	AllowEmptyForced bool          `mapstructure:"allow_empty_forced"` // submit an empty record on expiry or exit
}

// Policy converts the section into a runner policy.
func (t Test) Policy() runner.Policy {
	return runner.Policy{
		Duration:         t.Duration,
		SubmitTimeout:    t.SubmitTimeout,
		ExitDebounce:     t.ExitDebounce,
		AllowEmptyForced: t.AllowEmptyForced,
	}
}

// Sweep controls eviction of finished and abandoned runners.
type Sweep struct {
	Schedule  string        `mapstructure:"schedule"`  // cron spec
	Retention time.Duration `mapstructure:"retention"` // idle time before a runner is evicted
}

type HTTP struct {
	Addr string `mapstructure:"addr"` // ops server; empty disables it
}

type Attempts struct {
	WindowDays int `mapstructure:"window_days"` // default date range of /attempts
}

// DSN returns the database connection string if it is configured.
func (db DB) DSN() (string, error) {
	if db.URL == "" {
		return "", ErrMissingEnvironmentVariables
	}
	return db.URL, nil
}

// Load reads configuration from .env, config files and environment variables.
func Load() (*Config, error) {
	// A missing .env is fine, the environment may be set by the runtime.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // map nested keys to ENV style names
	v.AutomaticEnv()

	_ = v.BindEnv("telegram_api_token", "TELEGRAM_API_TOKEN")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("api_base_url", "API_BASE_URL")
	_ = v.BindEnv("env", "APP_ENV")

	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")
	v.SetDefault("log_dir", "logs")
	v.SetDefault("telegram.timer_refresh", "5s")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_conn_lifetime", "30m")
	v.SetDefault("database.connect_timeout", "5s")
	v.SetDefault("api.timeout", "20s")
	v.SetDefault("api.refresh_leeway", "1m")
	v.SetDefault("test.duration", "1h")
	v.SetDefault("test.submit_timeout", "30s")
	v.SetDefault("test.exit_debounce", "2s")
	v.SetDefault("test.allow_empty_forced", true)
	v.SetDefault("sweep.schedule", "@every 5m")
	v.SetDefault("sweep.retention", "30m")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("attempts.window_days", 10)
}

func fromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Sensitive values only come from the environment.
	cfg.TelegramAPIToken = v.GetString("telegram_api_token")
	cfg.DB.URL = v.GetString("database_url")
	cfg.API.BaseURL = v.GetString("api_base_url")

	var missing []string
	if cfg.TelegramAPIToken == "" {
		missing = append(missing, "TELEGRAM_API_TOKEN")
	}
	if cfg.DB.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if cfg.API.BaseURL == "" {
		missing = append(missing, "API_BASE_URL")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingEnvironmentVariables, strings.Join(missing, ", "))
	}

	if cfg.Test.Duration <= 0 {
		return nil, fmt.Errorf("test.duration must be positive, got %s", cfg.Test.Duration)
	}

	return &cfg, nil
}
