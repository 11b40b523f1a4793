// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	IndexNow  IndexNowConfig  `mapstructure:"indexnow"`
	Google    GoogleConfig    `mapstructure:"google"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// HTTPConfig configures outbound calls.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// IndexNowConfig points at the IndexNow ingestion endpoint.
type IndexNowConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

// GoogleConfig configures the Indexing API and the optional default credential.
type GoogleConfig struct {
	BatchEndpoint   string `mapstructure:"batch_endpoint"`
	TokenURL        string `mapstructure:"token_url"`
	Scope           string `mapstructure:"scope"`
	CredentialsJSON string `mapstructure:"credentials_json"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// RateLimitConfig throttles submissions per host.
type RateLimitConfig struct {
	PerHostRPS float64 `mapstructure:"per_host_rps"`
	Burst      int     `mapstructure:"burst"`
	MaxHosts   int     `mapstructure:"max_hosts"`
}

// AuditConfig selects where submission outcomes are recorded.
type AuditConfig struct {
	MemoryCapacity  int    `mapstructure:"memory_capacity"`
	GCSBucket       string `mapstructure:"gcs_bucket"`
	GCSPrefix       string `mapstructure:"gcs_prefix"`
	PubSubProjectID string `mapstructure:"pubsub_project_id"`
	PubSubTopic     string `mapstructure:"pubsub_topic"`
	PostgresDSN     string `mapstructure:"postgres_dsn"`
	PostgresTable   string `mapstructure:"postgres_table"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// TracingConfig controls OpenTelemetry export.
type TracingConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	ProjectID     string  `mapstructure:"project_id"`
	SampleRatio   float64 `mapstructure:"sample_ratio"`
	ExportMetrics bool    `mapstructure:"export_metrics"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("INDEXSUBMITTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Cloud Run injects PORT.
	if err := v.BindEnv("server.port", "INDEXSUBMITTER_SERVER_PORT", "PORT"); err != nil {
		return Config{}, fmt.Errorf("bind env: %w", err)
	}

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
	v.SetDefault("auth.enabled", false)
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("indexnow.endpoint", "https://api.indexnow.org/indexnow")
	v.SetDefault("google.batch_endpoint", "https://indexing.googleapis.com/batch")
	v.SetDefault("google.token_url", "https://oauth2.googleapis.com/token")
	v.SetDefault("google.scope", "https://www.googleapis.com/auth/indexing")
	v.SetDefault("google.credentials_json", "")
	v.SetDefault("google.credentials_file", "")
	v.SetDefault("ratelimit.per_host_rps", 0)
	v.SetDefault("ratelimit.burst", 5)
	v.SetDefault("ratelimit.max_hosts", 10000)
	v.SetDefault("audit.memory_capacity", 100)
	v.SetDefault("audit.gcs_bucket", "")
	v.SetDefault("audit.gcs_prefix", "submissions")
	v.SetDefault("audit.pubsub_project_id", "")
	v.SetDefault("audit.pubsub_topic", "")
	v.SetDefault("audit.postgres_dsn", "")
	v.SetDefault("audit.postgres_table", "submissions")
	v.SetDefault("logging.development", true)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.project_id", "")
	v.SetDefault("tracing.sample_ratio", 1.0)
	v.SetDefault("tracing.export_metrics", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.IndexNow.Endpoint == "" {
		return fmt.Errorf("indexnow.endpoint must be set")
	}
	if c.Google.BatchEndpoint == "" {
		return fmt.Errorf("google.batch_endpoint must be set")
	}
	if c.Google.TokenURL == "" {
		return fmt.Errorf("google.token_url must be set")
	}
	if c.Google.CredentialsJSON != "" && c.Google.CredentialsFile != "" {
		return fmt.Errorf("google.credentials_json and google.credentials_file are mutually exclusive")
	}
	if c.RateLimit.PerHostRPS < 0 {
		return fmt.Errorf("ratelimit.per_host_rps must be >= 0")
	}
	if c.RateLimit.MaxHosts < 0 {
		return fmt.Errorf("ratelimit.max_hosts must be >= 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	if (c.Audit.PubSubProjectID == "") != (c.Audit.PubSubTopic == "") {
		return fmt.Errorf("audit.pubsub_project_id and audit.pubsub_topic must be set together")
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be within [0, 1]")
	}
	return nil
}

// StepTimeout is the budget for each outbound call.
func (c Config) StepTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// DefaultCredential returns the server-side service-account JSON, or "" when none is configured.
func (c Config) DefaultCredential() (string, error) {
	if c.Google.CredentialsJSON != "" {
		return c.Google.CredentialsJSON, nil
	}
	if c.Google.CredentialsFile == "" {
		return "", nil
	}
	data, err := os.ReadFile(c.Google.CredentialsFile)
	if err != nil {
		return "", fmt.Errorf("read google.credentials_file: %w", err)
	}
	return string(data), nil
}
