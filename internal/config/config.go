package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Google      GoogleConfig      `yaml:"google"`
	AI          AIConfig          `yaml:"ai"`
	Processing  ProcessingConfig  `yaml:"processing"`
	Unsubscribe UnsubscribeConfig `yaml:"unsubscribe"`
	Auth        AuthConfig        `yaml:"auth"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// In a container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig holds the optional Redis session store configuration.
// When Addr is empty the server falls back to in-memory sessions.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GoogleConfig holds Google OAuth and Gmail API configuration
type GoogleConfig struct {
	ClientID        string `yaml:"client_id"`
	ClientSecret    string `yaml:"client_secret"`
	CredentialsFile string `yaml:"credentials_file"`
	TokenFile       string `yaml:"token_file"`
}

// AIConfig holds Bedrock classification/summarization configuration.
// When disabled, keyword-based fallbacks are used.
type AIConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Region    string `yaml:"region"`
	ModelID   string `yaml:"model_id"`
	MaxTokens int    `yaml:"max_tokens"`
}

// ProcessingConfig holds mailbox ingestion configuration
type ProcessingConfig struct {
	IntervalMinutes int `yaml:"interval_minutes"`
	MaxPerBatch     int `yaml:"max_per_batch"`
}

// Interval returns the processing interval as a duration
func (c ProcessingConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// UnsubscribeConfig holds unsubscribe engine configuration
type UnsubscribeConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
	MaxRetries     int `yaml:"max_retries"`
	MaxLinkClicks  int `yaml:"max_link_clicks"`
}

// Timeout returns the per-request timeout as a duration
func (c UnsubscribeConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// AuthConfig holds cookie session configuration
type AuthConfig struct {
	Enabled       bool   `yaml:"enabled"`
	SessionSecret string `yaml:"session_secret"`
	CookieName    string `yaml:"cookie_name"`
	CookieMaxAge  int    `yaml:"cookie_max_age"`
}

// SessionTTL returns the session lifetime as a duration
func (c AuthConfig) SessionTTL() time.Duration {
	return time.Duration(c.CookieMaxAge) * time.Second
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Google.CredentialsFile == "" {
		cfg.Google.CredentialsFile = "credentials.json"
	}
	if cfg.Google.TokenFile == "" {
		cfg.Google.TokenFile = "token.json"
	}
	if cfg.AI.Region == "" {
		cfg.AI.Region = "us-east-1"
	}
	if cfg.AI.ModelID == "" {
		cfg.AI.ModelID = "anthropic.claude-3-sonnet-20240229-v1:0"
	}
	if cfg.AI.MaxTokens == 0 {
		cfg.AI.MaxTokens = 200
	}
	if cfg.Processing.IntervalMinutes == 0 {
		cfg.Processing.IntervalMinutes = 5
	}
	if cfg.Processing.MaxPerBatch == 0 {
		cfg.Processing.MaxPerBatch = 10
	}
	if cfg.Unsubscribe.TimeoutSeconds == 0 {
		cfg.Unsubscribe.TimeoutSeconds = 15
	}
	if cfg.Unsubscribe.MaxRetries == 0 {
		cfg.Unsubscribe.MaxRetries = 3
	}
	if cfg.Unsubscribe.MaxLinkClicks == 0 {
		cfg.Unsubscribe.MaxLinkClicks = 5
	}
	if cfg.Auth.CookieName == "" {
		cfg.Auth.CookieName = "session"
	}
	if cfg.Auth.CookieMaxAge == 0 {
		cfg.Auth.CookieMaxAge = 7 * 24 * 60 * 60
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in production.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		cfg.Google.ClientID = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		cfg.Google.ClientSecret = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		cfg.Auth.SessionSecret = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.AI.Region = v
	}
	if v := os.Getenv("BEDROCK_MODEL_ID"); v != "" {
		cfg.AI.ModelID = v
	}

	return cfg, nil
}
