// Package config handles loading and validation of storefront configuration.
// Supports development (env vars, .env, CONFIG_FILE) and production (Secret
// Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all storefront configuration.
// Environment determines whether client credentials load from env vars
// (development) or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	// GCP settings (required in production)
	GCPProject string
	SecretID   string // secret holding {"client_id","client_secret"}

	API     APIConfig
	Storage StorageConfig

	// MockFallback serves built-in store data when the backend is down.
	MockFallback bool
}

// APIConfig configures the outbound storefront API client.
type APIConfig struct {
	BaseURL      string        `json:"base_url" yaml:"base_url"`
	ClientID     string        `json:"client_id" yaml:"client_id"`
	ClientSecret string        `json:"client_secret" yaml:"client_secret"`
	Timeout      time.Duration `json:"-" yaml:"-"`
	ChromeTLS    bool          `json:"chrome_tls" yaml:"chrome_tls"`
	UserAgent    string        `json:"user_agent" yaml:"user_agent"`
	RateLimit    float64       `json:"rate_limit" yaml:"rate_limit"` // requests/second, 0 = unlimited
	RateBurst    int           `json:"rate_burst" yaml:"rate_burst"`
}

// StorageConfig selects where cart, session and tokens persist.
type StorageConfig struct {
	Driver    string `json:"driver" yaml:"driver"` // "file", "memory" or "redis"
	Dir       string `json:"dir" yaml:"dir"`
	RedisAddr string `json:"redis_addr" yaml:"redis_addr"`
	RedisDB   int    `json:"redis_db" yaml:"redis_db"`
	Prefix    string `json:"prefix" yaml:"prefix"`

	// TTL expires memory and redis entries, 0 = never. Read from
	// STORAGE_TTL or the file's storage_ttl.
	TTL time.Duration `json:"-" yaml:"-"`
}

const (
	defaultPort     = "8080"
	defaultTimeout  = 30 * time.Second
	defaultSecretID = "storefront-client"
)

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) → ENV vars / Secret Manager.
// In development a .env file in the working directory is loaded first;
// variables already set win.
func Load(ctx context.Context) (*Config, error) {
	if envOrDefault("ENVIRONMENT", "development") != "production" {
		_ = godotenv.Load()
	}

	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	cfg := &Config{
		Port:         envOrDefault("PORT", defaultPort),
		Environment:  envOrDefault("ENVIRONMENT", "development"),
		LogLevel:     envOrDefault("LOG_LEVEL", "info"),
		GCPProject:   os.Getenv("GCP_PROJECT"),
		SecretID:     envOrDefault("CLIENT_SECRET_ID", defaultSecretID),
		MockFallback: envBool("MOCK_FALLBACK"),
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}

	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		if err := cfg.loadFromSecretManager(ctx); err != nil {
			return nil, fmt.Errorf("loading client credentials: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fileConfig is the CONFIG_FILE layout, in JSON or YAML.
type fileConfig struct {
	Port         string        `json:"port" yaml:"port"`
	Environment  string        `json:"environment" yaml:"environment"`
	LogLevel     string        `json:"log_level" yaml:"log_level"`
	Timeout      string        `json:"timeout" yaml:"timeout"`
	StorageTTL   string        `json:"storage_ttl" yaml:"storage_ttl"`
	MockFallback bool          `json:"mock_fallback" yaml:"mock_fallback"`
	API          APIConfig     `json:"api" yaml:"api"`
	Storage      StorageConfig `json:"storage" yaml:"storage"`
}

// loadFromFile reads all configuration from a JSON or YAML file, chosen by
// extension. Used for local development to avoid multiple ENV vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &Config{
		Port:         withDefault(fc.Port, defaultPort),
		Environment:  withDefault(fc.Environment, "development"),
		LogLevel:     withDefault(fc.LogLevel, "info"),
		MockFallback: fc.MockFallback,
		API:          fc.API,
		Storage:      fc.Storage,
	}

	cfg.API.Timeout = defaultTimeout
	if fc.Timeout != "" {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parsing timeout: %w", err)
		}
		cfg.API.Timeout = d
	}
	if fc.StorageTTL != "" {
		d, err := time.ParseDuration(fc.StorageTTL)
		if err != nil {
			return nil, fmt.Errorf("parsing storage_ttl: %w", err)
		}
		cfg.Storage.TTL = d
	}
	cfg.Storage.Driver = withDefault(cfg.Storage.Driver, "file")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromSecretManager fetches client credentials from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{secret_id}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.SecretID)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	return c.applySecret(result.Payload.Data)
}

// applySecret overlays client credentials from a secret payload.
func (c *Config) applySecret(data []byte) error {
	var creds struct {
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
	}
	if err := json.Unmarshal(data, &creds); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}
	c.API.ClientID = withDefault(creds.ClientID, c.API.ClientID)
	c.API.ClientSecret = withDefault(creds.ClientSecret, c.API.ClientSecret)
	return nil
}

// loadFromEnv reads API and storage settings from environment variables.
func (c *Config) loadFromEnv() error {
	c.API = APIConfig{
		BaseURL:      os.Getenv("API_BASE_URL"),
		ClientID:     os.Getenv("API_CLIENT_ID"),
		ClientSecret: os.Getenv("API_CLIENT_SECRET"),
		Timeout:      defaultTimeout,
		ChromeTLS:    envBool("CHROME_TLS"),
		UserAgent:    os.Getenv("USER_AGENT"),
	}
	c.Storage = StorageConfig{
		Driver:    envOrDefault("STORAGE_DRIVER", "file"),
		Dir:       os.Getenv("STORAGE_DIR"),
		RedisAddr: os.Getenv("REDIS_ADDR"),
		Prefix:    os.Getenv("STORAGE_PREFIX"),
	}

	if v := os.Getenv("HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing HTTP_TIMEOUT: %w", err)
		}
		c.API.Timeout = d
	}
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parsing RATE_LIMIT: %w", err)
		}
		c.API.RateLimit = f
	}
	if v := os.Getenv("RATE_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing RATE_BURST: %w", err)
		}
		c.API.RateBurst = n
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing REDIS_DB: %w", err)
		}
		c.Storage.RedisDB = n
	}
	if v := os.Getenv("STORAGE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing STORAGE_TTL: %w", err)
		}
		c.Storage.TTL = d
	}
	return nil
}

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api base_url is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid api base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid api base_url: scheme must be http or https")
	}
	if c.API.ClientID == "" {
		return fmt.Errorf("api client_id is required")
	}
	if c.API.ClientSecret == "" {
		return fmt.Errorf("api client_secret is required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative")
	}

	if c.Storage.TTL < 0 {
		return fmt.Errorf("storage ttl must not be negative")
	}

	switch c.Storage.Driver {
	case "file", "memory":
	case "redis":
		if c.Storage.RedisAddr == "" {
			return fmt.Errorf("redis_addr is required for redis storage")
		}
	default:
		return fmt.Errorf("unknown storage driver %q (file, memory or redis)", c.Storage.Driver)
	}

	c.API.BaseURL = strings.TrimSuffix(c.API.BaseURL, "/")
	return nil
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func envBool(key string) bool {
	b, _ := strconv.ParseBool(os.Getenv(key))
	return b
}
