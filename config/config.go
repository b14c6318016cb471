// Package config provides application configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	LogLevel          string         `yaml:"log_level"`
	MaxClarifications int            `yaml:"max_clarifications"`
	Model             ModelConfig    `yaml:"model"`
	Research          ResearchConfig `yaml:"research"`
	Store             StoreConfig    `yaml:"store"`
	Server            ServerConfig   `yaml:"server"`
}

// ModelConfig selects the hosted model.
type ModelConfig struct {
	Provider    string        `yaml:"provider"` // openai, gemini or compatible
	Name        string        `yaml:"name"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"` // per call
}

// ResearchConfig controls the optional search-and-summarize step.
type ResearchConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Provider   string `yaml:"provider"` // tavily or brave
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	MaxResults int    `yaml:"max_results"`
}

// StoreConfig selects where sessions are kept.
type StoreConfig struct {
	Backend       string        `yaml:"backend"`
	SQLitePath    string        `yaml:"sqlite_path"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	RedisPrefix   string        `yaml:"redis_prefix"`
	TTL           time.Duration `yaml:"ttl"`
	PostgresDSN   string        `yaml:"postgres_dsn"`
}

// ServerConfig configures the HTTP transport.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:          "info",
		MaxClarifications: 5,
		Model: ModelConfig{
			Provider:    "openai",
			Temperature: 0,
			Timeout:     60 * time.Second,
		},
		Research: ResearchConfig{
			Provider:   "tavily",
			MaxResults: 5,
		},
		Store: StoreConfig{
			Backend:     StoreMemory,
			SQLitePath:  "./data/sessions.db",
			RedisAddr:   "localhost:6379",
			RedisPrefix: "scope:",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, a .env file in the working
// directory, the YAML file at path (optional) and the environment, in that order.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.LogLevel = getEnv("SCOPE_LOG_LEVEL", c.LogLevel)
	c.MaxClarifications = getEnvInt("SCOPE_MAX_CLARIFICATIONS", c.MaxClarifications)

	c.Model.Provider = getEnv("SCOPE_MODEL_PROVIDER", c.Model.Provider)
	c.Model.Name = getEnv("SCOPE_MODEL", c.Model.Name)
	c.Model.BaseURL = getEnv("SCOPE_MODEL_BASE_URL", c.Model.BaseURL)
	c.Model.APIKey = getEnv("SCOPE_MODEL_API_KEY", c.Model.APIKey)
	c.Model.Temperature = getEnvFloat("SCOPE_TEMPERATURE", c.Model.Temperature)
	c.Model.Timeout = getEnvDuration("SCOPE_CALL_TIMEOUT", c.Model.Timeout)
	if c.Model.APIKey == "" {
		switch strings.ToLower(c.Model.Provider) {
		case "gemini", "google", "googleai":
			c.Model.APIKey = firstEnv("GOOGLE_API_KEY", "GEMINI_API_KEY")
		default:
			c.Model.APIKey = firstEnv("OPENAI_API_KEY")
		}
	}

	c.Research.Enabled = getEnvBool("SCOPE_RESEARCH", c.Research.Enabled)
	c.Research.Provider = getEnv("SCOPE_SEARCH_PROVIDER", c.Research.Provider)
	c.Research.BaseURL = getEnv("SCOPE_SEARCH_BASE_URL", c.Research.BaseURL)
	c.Research.MaxResults = getEnvInt("SCOPE_SEARCH_MAX_RESULTS", c.Research.MaxResults)
	if c.Research.APIKey == "" {
		switch strings.ToLower(c.Research.Provider) {
		case "brave":
			c.Research.APIKey = firstEnv("BRAVE_API_KEY")
		default:
			c.Research.APIKey = firstEnv("TAVILY_API_KEY")
		}
	}

	c.Store.Backend = getEnv("SCOPE_STORE", c.Store.Backend)
	c.Store.SQLitePath = getEnv("SCOPE_SQLITE_PATH", c.Store.SQLitePath)
	c.Store.RedisAddr = getEnv("SCOPE_REDIS_ADDR", c.Store.RedisAddr)
	c.Store.RedisPassword = getEnv("SCOPE_REDIS_PASSWORD", c.Store.RedisPassword)
	c.Store.RedisDB = getEnvInt("SCOPE_REDIS_DB", c.Store.RedisDB)
	c.Store.TTL = getEnvDuration("SCOPE_SESSION_TTL", c.Store.TTL)
	c.Store.PostgresDSN = getEnv("SCOPE_POSTGRES_DSN", c.Store.PostgresDSN)

	c.Server.Addr = getEnv("SCOPE_ADDR", c.Server.Addr)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.MaxClarifications < 0 {
		return fmt.Errorf("SCOPE_MAX_CLARIFICATIONS must be >= 0")
	}
	if c.Model.Timeout <= 0 {
		return fmt.Errorf("SCOPE_CALL_TIMEOUT must be > 0")
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		return fmt.Errorf("SCOPE_TEMPERATURE must be between 0 and 2")
	}
	switch strings.ToLower(c.Model.Provider) {
	case "openai", "gemini", "google", "googleai":
	case "compatible":
		if c.Model.BaseURL == "" {
			return fmt.Errorf("SCOPE_MODEL_BASE_URL is required for the compatible provider")
		}
		if c.Model.Name == "" {
			return fmt.Errorf("SCOPE_MODEL is required for the compatible provider")
		}
	default:
		return fmt.Errorf("unknown model provider %q", c.Model.Provider)
	}

	if c.Research.Enabled {
		switch strings.ToLower(c.Research.Provider) {
		case "tavily", "brave":
		default:
			return fmt.Errorf("unknown search provider %q", c.Research.Provider)
		}
	}

	switch c.Store.Backend {
	case StoreMemory:
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("SCOPE_SQLITE_PATH cannot be empty")
		}
	case StoreRedis:
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("SCOPE_REDIS_ADDR cannot be empty")
		}
	case StorePostgres:
		if c.Store.PostgresDSN == "" {
			return fmt.Errorf("SCOPE_POSTGRES_DSN cannot be empty")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("SCOPE_ADDR cannot be empty")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
