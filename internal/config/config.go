package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Log        LogConfig        `yaml:"log"`
	Auth       AuthConfig       `yaml:"auth"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Sessions   SessionsConfig   `yaml:"sessions"`
	Board      BoardConfig      `yaml:"board"`
	Backend    BackendConfig    `yaml:"backend"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	Environment string `yaml:"environment"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Seed   bool   `yaml:"seed"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type AuthConfig struct {
	// JWTSecret enables bearer auth on manager routes when set.
	JWTSecret string `yaml:"jwt_secret"`
}

type ExtractionConfig struct {
	Provider               string        `yaml:"provider"`
	RemoteURL              string        `yaml:"remote_url"`
	Timeout                time.Duration `yaml:"timeout"`
	MaxUploadBytes         int64         `yaml:"max_upload_bytes"`
	AllowHEIC              bool          `yaml:"allow_heic"`
	LowConfidenceThreshold float64       `yaml:"low_confidence_threshold"`
	LLM                    LLMConfig     `yaml:"llm"`
}

type LLMConfig struct {
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	Token     string `yaml:"token"`
	MaxTokens int    `yaml:"max_tokens"`
}

type SessionsConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

type BoardConfig struct {
	DefaultCancelReason string `yaml:"default_cancel_reason"`
}

// BackendConfig points the board and the wizard at another hotelops
// instance instead of the local database.
type BackendConfig struct {
	URL     string        `yaml:"url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// Remote reports whether tasks and menu items live on a remote backend.
func (b BackendConfig) Remote() bool {
	return b.URL != ""
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8080, MetricsPort: 9090, Environment: "development"},
		Database: DatabaseConfig{Driver: "sqlite3", DSN: "hotelops.db", Seed: true},
		Log:      LogConfig{Level: "info"},
		Extraction: ExtractionConfig{
			Provider:               "remote",
			RemoteURL:              "http://localhost:8000",
			Timeout:                60 * time.Second,
			MaxUploadBytes:         10 << 20,
			LowConfidenceThreshold: 40,
			LLM:                    LLMConfig{Model: "gpt-4o-mini", MaxTokens: 4096},
		},
		Sessions: SessionsConfig{TTL: 30 * time.Minute},
		Board:    BoardConfig{DefaultCancelReason: "Cancelled by manager"},
		Backend:  BackendConfig{Timeout: 15 * time.Second},
	}
}

// Load reads .env, then the YAML file at path (if it exists), then HOTELOPS_*
// environment overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnvAsInt("HOTELOPS_PORT", cfg.Server.Port)
	cfg.Server.MetricsPort = getEnvAsInt("HOTELOPS_METRICS_PORT", cfg.Server.MetricsPort)
	cfg.Server.Environment = getEnv("HOTELOPS_ENV", cfg.Server.Environment)
	cfg.Database.Driver = getEnv("HOTELOPS_DB_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = getEnv("HOTELOPS_DB_DSN", cfg.Database.DSN)
	cfg.Log.Level = getEnv("HOTELOPS_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = getEnv("HOTELOPS_LOG_FILE", cfg.Log.File)
	cfg.Auth.JWTSecret = getEnv("HOTELOPS_JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Extraction.Provider = getEnv("HOTELOPS_EXTRACTION_PROVIDER", cfg.Extraction.Provider)
	cfg.Extraction.RemoteURL = getEnv("HOTELOPS_EXTRACTION_URL", cfg.Extraction.RemoteURL)
	cfg.Extraction.Timeout = getEnvAsDuration("HOTELOPS_EXTRACTION_TIMEOUT", cfg.Extraction.Timeout)
	cfg.Extraction.LLM.Model = getEnv("HOTELOPS_LLM_MODEL", cfg.Extraction.LLM.Model)
	cfg.Extraction.LLM.BaseURL = getEnv("HOTELOPS_LLM_BASE_URL", cfg.Extraction.LLM.BaseURL)
	cfg.Extraction.LLM.Token = getEnv("HOTELOPS_LLM_TOKEN", getEnv("OPENAI_API_KEY", cfg.Extraction.LLM.Token))
	cfg.Sessions.TTL = getEnvAsDuration("HOTELOPS_SESSION_TTL", cfg.Sessions.TTL)
	cfg.Backend.URL = getEnv("HOTELOPS_BACKEND_URL", cfg.Backend.URL)
	cfg.Backend.Token = getEnv("HOTELOPS_BACKEND_TOKEN", cfg.Backend.Token)
	cfg.Backend.Timeout = getEnvAsDuration("HOTELOPS_BACKEND_TIMEOUT", cfg.Backend.Timeout)
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var problems []string
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, "server.port must be between 1 and 65535")
	}
	if c.Server.MetricsPort < 0 || c.Server.MetricsPort > 65535 {
		problems = append(problems, "server.metrics_port must be between 0 and 65535")
	}
	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		problems = append(problems, "database.driver must be sqlite3 or postgres")
	}
	if c.Database.DSN == "" {
		problems = append(problems, "database.dsn is required")
	}
	switch c.Extraction.Provider {
	case "remote":
		if c.Extraction.RemoteURL == "" {
			problems = append(problems, "extraction.remote_url is required for the remote provider")
		}
	case "llm":
		if c.Extraction.LLM.Token == "" {
			problems = append(problems, "extraction.llm.token is required for the llm provider")
		}
	default:
		problems = append(problems, "extraction.provider must be remote or llm")
	}
	if c.Extraction.MaxUploadBytes <= 0 {
		problems = append(problems, "extraction.max_upload_bytes must be positive")
	}
	if c.Extraction.LowConfidenceThreshold < 0 || c.Extraction.LowConfidenceThreshold > 100 {
		problems = append(problems, "extraction.low_confidence_threshold must be between 0 and 100")
	}
	if c.Sessions.TTL <= 0 {
		problems = append(problems, "sessions.ttl must be positive")
	}
	if c.Backend.Remote() {
		if u, err := url.Parse(c.Backend.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			problems = append(problems, "backend.url must be an http or https URL")
		}
		if c.Backend.Timeout <= 0 {
			problems = append(problems, "backend.timeout must be positive")
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}
