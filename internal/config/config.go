package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port            string        `yaml:"port" env:"SERVER_PORT"`
		Mode            string        `yaml:"mode" env:"SERVER_MODE"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
		AllowedOrigins  []string      `yaml:"allowed_origins" env:"SERVER_ALLOWED_ORIGINS"`
	} `yaml:"server"`

	Database struct {
		URL             string        `yaml:"url" env:"DATABASE_URL"`
		Host            string        `yaml:"host" env:"DB_HOST"`
		Port            string        `yaml:"port" env:"DB_PORT"`
		User            string        `yaml:"user" env:"DB_USER"`
		Password        string        `yaml:"password" env:"DB_PASSWORD"`
		DBName          string        `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string        `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxConns        int           `yaml:"max_conns" env:"DB_MAX_CONNS"`
		MinConns        int           `yaml:"min_conns" env:"DB_MIN_CONNS"`
		ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		// RLSRole is the database role request-scoped transactions switch to
		RLSRole string `yaml:"rls_role" env:"DB_RLS_ROLE"`
	} `yaml:"database"`

	Auth struct {
		// JWTSecret verifies session tokens issued by the managed auth service
		JWTSecret string `yaml:"jwt_secret" env:"AUTH_JWT_SECRET"`
		Issuer    string `yaml:"issuer" env:"AUTH_ISSUER"`
		Audience  string `yaml:"audience" env:"AUTH_AUDIENCE"`
	} `yaml:"auth"`

	Messaging struct {
		Zones            []string `yaml:"zones" env:"MESSAGING_ZONES"`
		FeedChannel      string   `yaml:"feed_channel" env:"MESSAGING_FEED_CHANNEL"`
		SubscriberBuffer int      `yaml:"subscriber_buffer" env:"MESSAGING_SUBSCRIBER_BUFFER"`
		// ActivityChannel carries change notifications for the operational tables
		ActivityChannel string `yaml:"activity_channel" env:"MESSAGING_ACTIVITY_CHANNEL"`
		// ViewerRefresh is how often an open socket reloads its caller's role and zone
		ViewerRefresh time.Duration `yaml:"viewer_refresh" env:"MESSAGING_VIEWER_REFRESH"`
	} `yaml:"messaging"`

	Approval struct {
		Interval    time.Duration `yaml:"interval" env:"APPROVAL_INTERVAL"`
		MaxInterval time.Duration `yaml:"max_interval" env:"APPROVAL_MAX_INTERVAL"`
		MaxAttempts int           `yaml:"max_attempts" env:"APPROVAL_MAX_ATTEMPTS"`
	} `yaml:"approval"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" env:"METRICS_ENABLED"`
		Path    string `yaml:"path" env:"METRICS_PATH"`
	} `yaml:"metrics"`

	Bootstrap struct {
		// AdminEmails are promoted to approved admins at startup
		AdminEmails []string `yaml:"admin_emails" env:"BOOTSTRAP_ADMIN_EMAILS"`
	} `yaml:"bootstrap"`
}

// LoadConfig loads configuration from .env, a YAML file and environment variables,
// in increasing order of precedence.
func LoadConfig(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := processStructFields(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.ShutdownTimeout = 10 * time.Second

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "postgres"
	config.Database.SSLMode = "disable"
	config.Database.MaxConns = 20
	config.Database.MinConns = 2
	config.Database.ConnMaxLifetime = time.Hour
	config.Database.RLSRole = "authenticated"

	config.Auth.Audience = "authenticated"

	config.Messaging.FeedChannel = "messages_inserted"
	config.Messaging.SubscriberBuffer = 64
	config.Messaging.ActivityChannel = "activity"
	config.Messaging.ViewerRefresh = time.Minute

	config.Approval.Interval = 4 * time.Second
	config.Approval.MaxInterval = 30 * time.Second
	config.Approval.MaxAttempts = 30

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Metrics.Enabled = true
	config.Metrics.Path = "/metrics"
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.URL == "" && config.Database.Host == "" {
		return fmt.Errorf("database url or host is required")
	}
	if config.Auth.JWTSecret == "" {
		return fmt.Errorf("auth jwt secret is required")
	}
	if config.Messaging.FeedChannel == "" {
		return fmt.Errorf("messaging feed channel is required")
	}
	if config.Messaging.SubscriberBuffer <= 0 {
		return fmt.Errorf("messaging subscriber buffer must be positive")
	}
	if config.Messaging.ActivityChannel == "" || config.Messaging.ActivityChannel == config.Messaging.FeedChannel {
		return fmt.Errorf("messaging activity channel is required and must differ from the feed channel")
	}
	if config.Messaging.ViewerRefresh <= 0 {
		return fmt.Errorf("messaging viewer refresh must be positive")
	}
	if config.Approval.Interval <= 0 || config.Approval.MaxAttempts <= 0 {
		return fmt.Errorf("approval interval and max attempts must be positive")
	}
	if config.Approval.MaxInterval < config.Approval.Interval {
		return fmt.Errorf("approval max interval must not be below interval")
	}
	return nil
}

// GetPostgresConnectionString returns the postgres connection string.
// An explicit database url wins over the individual fields.
func (c *Config) GetPostgresConnectionString() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}

	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     c.Database.Host + ":" + c.Database.Port,
		Path:     "/" + c.Database.DBName,
		RawQuery: "sslmode=" + sslMode,
	}
	return u.String()
}

// IsProduction reports whether the server runs in release mode
func (c *Config) IsProduction() bool {
	mode := strings.ToLower(c.Server.Mode)
	return mode == "production" || mode == "release"
}
