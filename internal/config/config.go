package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Placeholder secrets used when none are configured. They are only accepted
// while the app is served from localhost.
const (
	DefaultJWTSecret  = "change-me-jwt-secret"
	DefaultCSRFSecret = "change-me-csrf-secret"
)

// ErrDefaultSecrets is returned by Validate for a public deployment still on placeholder secrets
var ErrDefaultSecrets = errors.New("placeholder secrets must be replaced before serving a non-local base URL")

// Config holds application configuration
type Config struct {
	ServerPort string `yaml:"server_port"`
	AppBaseURL string `yaml:"app_base_url"`

	DatabaseType   string `yaml:"database_type"`
	DatabasePath   string `yaml:"database_path"`
	DatabaseURL    string `yaml:"database_url"`
	MigrationsPath string `yaml:"migrations_path"`

	SessionDuration time.Duration `yaml:"session_duration"`
	JWTSecret       string        `yaml:"jwt_secret"`
	CSRFSecret      string        `yaml:"csrf_secret"`
	StaticFilesPath string        `yaml:"static_path"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	GoogleClientID       string `yaml:"google_client_id"`
	GoogleClientSecret   string `yaml:"google_client_secret"`
	OAuthRedirectBaseURL string `yaml:"oauth_redirect_base_url"`

	AWSRegion     string `yaml:"aws_region"`
	SESFromEmail  string `yaml:"ses_from_email"`
	SESFromName   string `yaml:"ses_from_name"`
	BackupBucket  string `yaml:"backup_bucket"`
	BackupPrefix  string `yaml:"backup_prefix"`
	EmailDebug    bool   `yaml:"email_debug"`
	LoginAttempts int    `yaml:"login_attempts"`
}

// defaults returns the configuration used when nothing else is set
func defaults() *Config {
	return &Config{
		ServerPort:      "8080",
		AppBaseURL:      "http://localhost:8080",
		DatabaseType:    "sqlite",
		DatabasePath:    "./churchadmin.db",
		SessionDuration: 24 * time.Hour,
		JWTSecret:       DefaultJWTSecret,
		CSRFSecret:      DefaultCSRFSecret,
		StaticFilesPath: "./static",
		LogLevel:        "info",
		LogFormat:       "json",
		AWSRegion:       "us-east-1",
		SESFromName:     "Parish Office",
		BackupPrefix:    "backups/",
		LoginAttempts:   10,
	}
}

// Load reads configuration from an optional .env file, an optional YAML file
// named by CONFIG_FILE and environment variables, in increasing precedence.
func Load() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnvOverrides()

	return cfg, nil
}

// DefaultSecrets names the environment variables whose secrets are still placeholders
func (c *Config) DefaultSecrets() []string {
	var names []string
	if c.JWTSecret == "" || c.JWTSecret == DefaultJWTSecret {
		names = append(names, "JWT_SECRET")
	}
	if c.CSRFSecret == "" || c.CSRFSecret == DefaultCSRFSecret {
		names = append(names, "CSRF_SECRET")
	}
	return names
}

// IsLocal reports whether AppBaseURL points at a loopback host
func (c *Config) IsLocal() bool {
	u, err := url.Parse(c.AppBaseURL)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Validate refuses placeholder secrets unless the app is only served locally
func (c *Config) Validate() error {
	if names := c.DefaultSecrets(); len(names) > 0 && !c.IsLocal() {
		return fmt.Errorf("%w: set %v for %s", ErrDefaultSecrets, names, c.AppBaseURL)
	}
	return nil
}

// loadYAML merges values from a YAML file into the config
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides replaces config values with any set environment variables
func (c *Config) applyEnvOverrides() {
	c.ServerPort = getEnv("PORT", c.ServerPort)
	c.AppBaseURL = getEnv("APP_BASE_URL", c.AppBaseURL)
	c.DatabaseType = getEnv("DATABASE_TYPE", c.DatabaseType)
	c.DatabasePath = getEnv("DB_PATH", c.DatabasePath)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.MigrationsPath = getEnv("MIGRATIONS_PATH", c.MigrationsPath)
	c.SessionDuration = getEnvDuration("SESSION_DURATION", c.SessionDuration)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.CSRFSecret = getEnv("CSRF_SECRET", c.CSRFSecret)
	c.StaticFilesPath = getEnv("STATIC_PATH", c.StaticFilesPath)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.GoogleClientID = getEnv("GOOGLE_CLIENT_ID", c.GoogleClientID)
	c.GoogleClientSecret = getEnv("GOOGLE_CLIENT_SECRET", c.GoogleClientSecret)
	c.OAuthRedirectBaseURL = getEnv("OAUTH_REDIRECT_BASE_URL", c.OAuthRedirectBaseURL)
	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.SESFromEmail = getEnv("SES_FROM_EMAIL", c.SESFromEmail)
	c.SESFromName = getEnv("SES_FROM_NAME", c.SESFromName)
	c.BackupBucket = getEnv("BACKUP_BUCKET", c.BackupBucket)
	c.BackupPrefix = getEnv("BACKUP_PREFIX", c.BackupPrefix)
	c.EmailDebug = getEnvBool("EMAIL_DEBUG", c.EmailDebug)
	c.LoginAttempts = getEnvInt("LOGIN_ATTEMPTS", c.LoginAttempts)
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
