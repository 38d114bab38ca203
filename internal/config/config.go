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
	Klaviyo     KlaviyoConfig     `yaml:"klaviyo"`
	TripleWhale TripleWhaleConfig `yaml:"triplewhale"`
	Attribution AttributionConfig `yaml:"attribution"`
	Scoring     ScoringConfig     `yaml:"scoring"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host. SERVER_HOST overrides the file
// value, so containers can listen on all interfaces without a
// config edit.
func (c ServerConfig) GetHost() string {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// KlaviyoConfig holds Klaviyo API configuration
type KlaviyoConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	Revision       string `yaml:"revision"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c KlaviyoConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// TripleWhaleConfig holds Triple Whale API configuration.
// Transport selects between the REST API ("api") and the local Moby
// subprocess ("moby"); both satisfy the same data source contract.
type TripleWhaleConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	Transport      string `yaml:"transport"`
	MobyCommand    string `yaml:"moby_command"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c TripleWhaleConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// AttributionConfig holds revenue attribution parameters.
// The window and channel marker are asserted business rules, kept
// configurable rather than hardcoded.
type AttributionConfig struct {
	WindowDays   int    `yaml:"window_days"`
	EmailChannel string `yaml:"email_channel"`
}

// Window returns the attribution window as a duration
func (c AttributionConfig) Window() time.Duration {
	return time.Duration(c.WindowDays) * 24 * time.Hour
}

// ScoringConfig holds score calculator threshold overrides.
// Zero values fall back to the scoring package defaults.
type ScoringConfig struct {
	ChurnRiskThreshold int `yaml:"churn_risk_threshold"`
}

// DatabaseConfig holds PostgreSQL snapshot store configuration
type DatabaseConfig struct {
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

// RedisConfig holds Redis response cache configuration
type RedisConfig struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLSeconds int    `yaml:"ttl_seconds"`
	Enabled    bool   `yaml:"enabled"`
}

// TTL returns the cache TTL as a duration
func (c RedisConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
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
	if cfg.Klaviyo.BaseURL == "" {
		cfg.Klaviyo.BaseURL = "https://a.klaviyo.com"
	}
	if cfg.Klaviyo.Revision == "" {
		cfg.Klaviyo.Revision = "2024-10-15"
	}
	if cfg.Klaviyo.TimeoutSeconds == 0 {
		cfg.Klaviyo.TimeoutSeconds = 30
	}
	if cfg.TripleWhale.BaseURL == "" {
		cfg.TripleWhale.BaseURL = "https://api.triplewhale.com"
	}
	if cfg.TripleWhale.Transport == "" {
		cfg.TripleWhale.Transport = "api"
	}
	if cfg.TripleWhale.TimeoutSeconds == 0 {
		cfg.TripleWhale.TimeoutSeconds = 30
	}
	if cfg.Attribution.WindowDays == 0 {
		cfg.Attribution.WindowDays = 7
	}
	if cfg.Attribution.EmailChannel == "" {
		cfg.Attribution.EmailChannel = "email"
	}
	if cfg.Scoring.ChurnRiskThreshold == 0 {
		cfg.Scoring.ChurnRiskThreshold = 70
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Redis.TTLSeconds == 0 {
		cfg.Redis.TTLSeconds = 300
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

	if apiKey := os.Getenv("KLAVIYO_API_KEY"); apiKey != "" {
		cfg.Klaviyo.APIKey = apiKey
	}
	if baseURL := os.Getenv("KLAVIYO_BASE_URL"); baseURL != "" {
		cfg.Klaviyo.BaseURL = baseURL
	}
	if apiKey := os.Getenv("TRIPLEWHALE_API_KEY"); apiKey != "" {
		cfg.TripleWhale.APIKey = apiKey
	}
	if baseURL := os.Getenv("TRIPLEWHALE_BASE_URL"); baseURL != "" {
		cfg.TripleWhale.BaseURL = baseURL
	}
	if transport := os.Getenv("TRIPLEWHALE_TRANSPORT"); transport != "" {
		cfg.TripleWhale.Transport = transport
	}

	// Database override (deployments set DATABASE_URL instead of editing the file)
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
		cfg.Database.Enabled = true
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
		cfg.Redis.Enabled = true
	}

	return cfg, nil
}
