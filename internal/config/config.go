// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// URL schemes for public access to mirrored images. Local targets an emulated
// MinIO reachable over plain HTTP at the configured endpoint; Hosted composes
// HTTPS URLs against the public base URL.
const (
	URLSchemeLocal  = "local"
	URLSchemeHosted = "hosted"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Mongo   MongoConfig   `mapstructure:"mongo"`
	Storage StorageConfig `mapstructure:"storage"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Email   EmailConfig   `mapstructure:"email"`
	Digest  DigestConfig  `mapstructure:"digest"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// MongoConfig controls access to the document database.
type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

// StorageConfig sets the blob storage backend for mirrored images.
type StorageConfig struct {
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	Secure        bool   `mapstructure:"secure"`
	Bucket        string `mapstructure:"bucket"`
	Prefix        string `mapstructure:"prefix"`
	URLScheme     string `mapstructure:"url_scheme"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// HTTPConfig configures the outbound HTTP client used for image and page fetches.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// EmailConfig holds credentials for the outbound email API.
type EmailConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	From    string `mapstructure:"from"`
	To      string `mapstructure:"to"`
}

// DigestConfig governs digest assembly.
type DigestConfig struct {
	Limit     int    `mapstructure:"limit"`
	Timeframe string `mapstructure:"timeframe"`
	Timezone  string `mapstructure:"timezone"`
	Subject   string `mapstructure:"subject"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("READLATER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "readlater")
	v.SetDefault("storage.endpoint", "127.0.0.1:9000")
	v.SetDefault("storage.access_key", "minioadmin")
	v.SetDefault("storage.secret_key", "minioadmin")
	v.SetDefault("storage.secure", false)
	v.SetDefault("storage.bucket", "article-images")
	v.SetDefault("storage.prefix", "images")
	v.SetDefault("storage.url_scheme", URLSchemeLocal)
	// Registered with empty defaults so env-only values are visible to
	// Unmarshal; AutomaticEnv alone does not surface unknown keys.
	v.SetDefault("storage.public_base_url", "")
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.user_agent", "readlater-bot/0.1")
	v.SetDefault("email.base_url", "https://api.resend.com")
	v.SetDefault("email.api_key", "")
	v.SetDefault("email.from", "")
	v.SetDefault("email.to", "")
	v.SetDefault("digest.limit", 10)
	v.SetDefault("digest.timeframe", "daily")
	v.SetDefault("digest.timezone", "America/Denver")
	v.SetDefault("digest.subject", "Your Reading Digest")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Mongo.URI == "" {
		return fmt.Errorf("mongo.uri must be set")
	}
	switch c.Storage.URLScheme {
	case URLSchemeLocal:
	case URLSchemeHosted:
		if c.Storage.PublicBaseURL == "" {
			return fmt.Errorf("storage.public_base_url must be set when storage.url_scheme is hosted")
		}
	default:
		return fmt.Errorf("storage.url_scheme must be %q or %q", URLSchemeLocal, URLSchemeHosted)
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Digest.Limit <= 0 {
		return fmt.Errorf("digest.limit must be > 0")
	}
	return nil
}

// FetchTimeout converts the HTTP timeout config into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}
