package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the configuration for the campaign service.
// Environment variables are parsed from the AMPLINE_ prefix,
// e.g. AMPLINE_HTTP_PORT, AMPLINE_APP_SECRET.
type Config struct {
	// AppSecret signs chat capability tokens. Override in any real deployment.
	AppSecret string `envconfig:"APP_SECRET" default:"demo-secret-change-me"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8000"`

	// BaseURL is the externally reachable address embedded into AMP chat
	// endpoints and preview links.
	BaseURL string `envconfig:"BASE_URL" default:"http://127.0.0.1:8000"`

	// Storage
	DBDriver    string `envconfig:"DB_DRIVER" default:"sqlite"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"data/ampline.db"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// BrandConfigDir holds per-brand theme JSON files.
	BrandConfigDir string `envconfig:"BRAND_CONFIG_DIR" default:"config/brands"`

	// TemplateDir overrides the embedded email templates when set.
	TemplateDir string `envconfig:"TEMPLATE_DIR" default:""`

	// SMTP Configuration
	SMTPHost     string `envconfig:"SMTP_HOST" default:""`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME" default:""`
	SMTPPassword string `envconfig:"SMTP_PASSWORD" default:""`
	SMTPUseTLS   bool   `envconfig:"SMTP_USE_TLS" default:"true"`

	// Model provider (OpenRouter)
	OpenRouterAPIKey string `envconfig:"OPENROUTER_API_KEY" default:""`
	OpenRouterModel  string `envconfig:"OPENROUTER_MODEL" default:"openrouter/free"`
	OpenRouterURL    string `envconfig:"OPENROUTER_URL" default:"https://openrouter.ai/api/v1/chat/completions"`

	RequestTimeoutSeconds int `envconfig:"REQUEST_TIMEOUT_SEC" default:"20"`
	ProviderRetries       int `envconfig:"PROVIDER_RETRIES" default:"2"`
	MailerRetries         int `envconfig:"MAILER_RETRIES" default:"2"`

	ChatSystemPrompt string `envconfig:"CHAT_SYSTEM_PROMPT" default:"You are a helpful and concise customer support representative. Keep replies clear, safe, and practical."`
}

// ResolveDefaults validates driver selection and derived settings.
func (c *Config) ResolveDefaults() error {
	switch c.DBDriver {
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("AMPLINE_SQLITE_PATH must be set for the sqlite driver")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("AMPLINE_POSTGRES_DSN must be set for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}

	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.AppSecret == "" {
		return fmt.Errorf("AMPLINE_APP_SECRET must not be empty")
	}
	return nil
}

// ChatEndpoint returns the absolute URL AMP clients post chat messages to.
func (c *Config) ChatEndpoint() string {
	return c.BaseURL + "/api/v1/chat/message"
}

// New creates a new Config by parsing environment variables.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("AMPLINE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
