// Package config loads the service configuration from an optional .env file,
// an optional config.yml and the environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port           string        `mapstructure:"PORT"`
	GinMode        string        `mapstructure:"GIN_MODE"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`

	StoreDriver       string `mapstructure:"STORE_DRIVER"`
	MongoURI          string `mapstructure:"MONGODB_URI"`
	MongoDatabase     string `mapstructure:"MONGODB_DATABASE"`
	MongoCollection   string `mapstructure:"MONGODB_COLLECTION"`
	MongoConnectTries int    `mapstructure:"MONGODB_CONNECT_TRIES"`

	RedisURL string        `mapstructure:"REDIS_URL"`
	CacheTTL time.Duration `mapstructure:"CACHE_TTL"`

	RateLimitPerMinute int    `mapstructure:"RATE_LIMIT_PER_MINUTE"`
	AllowedOrigins     string `mapstructure:"ALLOWED_ORIGINS"`

	LogLevel      string `mapstructure:"LOG_LEVEL"`
	LogPath       string `mapstructure:"LOG_PATH"`
	LogMaxSizeMB  int    `mapstructure:"LOG_MAX_SIZE_MB"`
	LogMaxBackups int    `mapstructure:"LOG_MAX_BACKUPS"`
	LogMaxAgeDays int    `mapstructure:"LOG_MAX_AGE_DAYS"`
	LogCompress   bool   `mapstructure:"LOG_COMPRESS"`
}

var defaults = map[string]any{
	"PORT":                  "8080",
	"GIN_MODE":              "debug",
	"REQUEST_TIMEOUT":       "10s",
	"STORE_DRIVER":          StoreMongo,
	"MONGODB_URI":           "mongodb://127.0.0.1:27017",
	"MONGODB_DATABASE":      "blog",
	"MONGODB_COLLECTION":    "posts",
	"MONGODB_CONNECT_TRIES": 3,
	"REDIS_URL":             "",
	"CACHE_TTL":             "1h",
	"RATE_LIMIT_PER_MINUTE": 120,
	"ALLOWED_ORIGINS":       "*",
	"LOG_LEVEL":             "info",
	"LOG_PATH":              "",
	"LOG_MAX_SIZE_MB":       100,
	"LOG_MAX_BACKUPS":       3,
	"LOG_MAX_AGE_DAYS":      7,
	"LOG_COMPRESS":          false,
}

// Load reads configuration using a fresh viper instance rooted at dir.
// A missing .env or config.yml is not an error.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = "."
	}
	// .env values never override variables already set in the environment.
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(err, &notFoundErr) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the combinations Load cannot express through defaults.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreMongo:
		if c.MongoURI == "" {
			return errors.New("MONGODB_URI must be set when STORE_DRIVER is mongo")
		}
		if c.MongoDatabase == "" || c.MongoCollection == "" {
			return errors.New("MONGODB_DATABASE and MONGODB_COLLECTION must not be empty")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (want %s or %s)", c.StoreDriver, StoreMongo, StoreMemory)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}
	if c.RateLimitPerMinute < 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE must not be negative")
	}
	return nil
}

// Origins splits ALLOWED_ORIGINS on commas, dropping blanks.
func (c *Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
