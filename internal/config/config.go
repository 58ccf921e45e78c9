package config

import (
	"fmt"
	"time"

	"github.com/cloo-solutions/molpanel/internal/domain"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	// Result population
	Strategy     string        `envconfig:"STRATEGY" default:"static"`
	FetchMode    string        `envconfig:"FETCH_MODE" default:"joint"`
	APIURL       string        `envconfig:"API_URL" default:"http://localhost:8000"`
	APITimeout   time.Duration `envconfig:"API_TIMEOUT" default:"30s"`
	MockDataFile string        `envconfig:"MOCK_DATA_FILE"`

	// Panel sessions
	SessionTTL      time.Duration `envconfig:"SESSION_TTL" default:"30m"`
	JanitorInterval time.Duration `envconfig:"JANITOR_INTERVAL" default:"1m"`

	// Optional retrieval log; LogRetention of zero keeps rows forever
	DatabaseURL  string        `envconfig:"DATABASE_URL"`
	LogRetention time.Duration `envconfig:"LOG_RETENTION" default:"720h"`

	// Editor page assets. EditorAssetsDir holds an unpacked Ketcher
	// standalone build and is served at /ketcher/ when it exists.
	EditorScriptURL string `envconfig:"EDITOR_SCRIPT_URL" default:"/static/ketcher-adapter.js"`
	EditorAppURL    string `envconfig:"EDITOR_APP_URL" default:"/ketcher/index.html"`
	EditorAssetsDir string `envconfig:"EDITOR_ASSETS_DIR" default:"ketcher"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("MOLPANEL", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects unknown strategies and fetch modes and non-positive durations.
func (c *Config) Validate() error {
	if _, err := domain.ParseStrategy(c.Strategy); err != nil {
		return err
	}
	if _, err := domain.ParseFetchMode(c.FetchMode); err != nil {
		return err
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.JanitorInterval <= 0 {
		return fmt.Errorf("JANITOR_INTERVAL must be positive, got %s", c.JanitorInterval)
	}
	if c.LogRetention < 0 {
		return fmt.Errorf("LOG_RETENTION must not be negative, got %s", c.LogRetention)
	}
	return nil
}

func (c *Config) ResultStrategy() domain.Strategy {
	return domain.Strategy(c.Strategy)
}

func (c *Config) ResultFetchMode() domain.FetchMode {
	return domain.FetchMode(c.FetchMode)
}

func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

func (c *Config) HasSentry() bool {
	return c.SentryDSN != ""
}
