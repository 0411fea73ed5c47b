package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Result store kinds accepted in RESULT_STORE.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

type Config struct {
	Port            string        `mapstructure:"PORT"`
	Env             string        `mapstructure:"ENV"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	APIBaseURL      string        `mapstructure:"API_BASE_URL"`
	APITimeout      time.Duration `mapstructure:"API_TIMEOUT"`
	CORSOrigins     []string      `mapstructure:"CORS_ORIGINS"`
	DefaultPageSize int           `mapstructure:"DEFAULT_PAGE_SIZE"`
	ResultStore     string        `mapstructure:"RESULT_STORE"`
	ResultStoreDir  string        `mapstructure:"RESULT_STORE_DIR"`
	ResultTTL       time.Duration `mapstructure:"RESULT_TTL"`
	RedisURL        string        `mapstructure:"REDIS_URL"`
	ScenariosFile   string        `mapstructure:"SCENARIOS_FILE"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	SessionTTL      time.Duration `mapstructure:"SESSION_TTL"`
	BodyLimit       string        `mapstructure:"BODY_LIMIT"`
	Timezone        string        `mapstructure:"TIMEZONE"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL", "API_BASE_URL", "API_TIMEOUT", "CORS_ORIGINS",
	"DEFAULT_PAGE_SIZE", "RESULT_STORE", "RESULT_STORE_DIR", "RESULT_TTL",
	"REDIS_URL", "SCENARIOS_FILE", "REQUEST_TIMEOUT", "SESSION_TTL",
	"BODY_LIMIT", "TIMEZONE",
}

// Load reads configuration from the environment and an optional .env file
// in the working directory. Environment variables win.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit .env path.
func LoadFile(envFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("API_BASE_URL", "http://127.0.0.1:5001")
	v.SetDefault("API_TIMEOUT", "10s")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("DEFAULT_PAGE_SIZE", 10)
	v.SetDefault("RESULT_STORE", StoreMemory)
	v.SetDefault("RESULT_STORE_DIR", "./results")
	v.SetDefault("RESULT_TTL", "0s")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("SESSION_TTL", "30m")
	v.SetDefault("BODY_LIMIT", "64K")

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// A missing .env is fine.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		cfg.CORSOrigins = strings.Split(cfg.CORSOrigins[0], ",")
	}
	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	cfg.ResultStore = strings.ToLower(strings.TrimSpace(cfg.ResultStore))

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the console is configured for production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Location returns the display timezone, falling back to the local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Validate checks that the configuration can start the console.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an absolute http(s) URL, got %q", c.APIBaseURL)
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("API_TIMEOUT must be positive, got %s", c.APITimeout)
	}
	if c.DefaultPageSize <= 0 || c.DefaultPageSize > 100 {
		return fmt.Errorf("DEFAULT_PAGE_SIZE must be between 1 and 100, got %d", c.DefaultPageSize)
	}
	switch c.ResultStore {
	case StoreMemory:
	case StoreFile:
		if c.ResultStoreDir == "" {
			return fmt.Errorf("RESULT_STORE_DIR is required when RESULT_STORE is %q", StoreFile)
		}
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when RESULT_STORE is %q", StoreRedis)
		}
	default:
		return fmt.Errorf("RESULT_STORE must be %q, %q or %q, got %q", StoreMemory, StoreFile, StoreRedis, c.ResultStore)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}
