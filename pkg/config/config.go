package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	ImageStorageFile   = "file"
	ImageStorageInline = "inline"

	defaultServerPort = "3000"

	// a request normalizes two image slots, each of which may follow one Drive confirm page
	maxFetchesPerRequest = 4
)

// Config holds the application configuration.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`
	LogFile    string `mapstructure:"LOG_FILE"`
	APIKey     string `mapstructure:"API_KEY"`

	DBDriver   string `mapstructure:"DB_DRIVER"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBPath     string `mapstructure:"DB_PATH"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	ImageStorage             string `mapstructure:"IMAGE_STORAGE"`
	ImageDir                 string `mapstructure:"IMAGE_DIR"`
	ImageFetchTimeoutSeconds int    `mapstructure:"IMAGE_FETCH_TIMEOUT_SECONDS"`
	ImageCacheTTLMinutes     int    `mapstructure:"IMAGE_CACHE_TTL_MINUTES"`
	ImageMaxBytes            int64  `mapstructure:"IMAGE_MAX_BYTES"`
	MaxBodyBytes             int64  `mapstructure:"MAX_BODY_BYTES"`
}

// Load reads configuration from a .env file in the working directory and the environment.
func Load() (*Config, error) {
	return LoadFrom(".env")
}

// LoadFrom reads configuration from envFile, if present, and the environment.
// Environment variables take precedence over the file.
func LoadFrom(envFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Attempt to read the .env file, but don't fail if it's not present
	if err := v.ReadInConfig(); err != nil && !isMissingConfig(err) {
		return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
	}

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("API_KEY", "")
	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "root")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "VW")
	v.SetDefault("DB_PATH", "workdiary.db")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("IMAGE_STORAGE", ImageStorageFile)
	v.SetDefault("IMAGE_DIR", "public/images")
	v.SetDefault("IMAGE_FETCH_TIMEOUT_SECONDS", 30)
	v.SetDefault("IMAGE_CACHE_TTL_MINUTES", 60)
	v.SetDefault("IMAGE_MAX_BYTES", 20<<20)
	v.SetDefault("MAX_BODY_BYTES", 64<<20)

	// PORT is what most hosting platforms inject.
	if err := v.BindEnv("SERVER_PORT", "SERVER_PORT", "PORT"); err != nil {
		return nil, err
	}
	// PORT is honored from the .env file too, below an explicit SERVER_PORT.
	port := v.GetString("SERVER_PORT")
	if port == "" {
		port = v.GetString("PORT")
	}
	if port == "" {
		port = defaultServerPort
	}
	v.Set("SERVER_PORT", port)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func isMissingConfig(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.ImageStorage {
	case ImageStorageFile, ImageStorageInline:
	default:
		return fmt.Errorf("unsupported IMAGE_STORAGE %q", c.ImageStorage)
	}
	if c.ImageMaxBytes <= 0 {
		return fmt.Errorf("IMAGE_MAX_BYTES must be positive")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}
	return nil
}

// PostgresURL builds a pgx connection string from the DB_* settings.
func (c *Config) PostgresURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func (c *Config) ImageFetchTimeout() time.Duration {
	return time.Duration(c.ImageFetchTimeoutSeconds) * time.Second
}

// WriteTimeout bounds one HTTP response: every image fetch a request can make, plus slack for the insert.
func (c *Config) WriteTimeout() time.Duration {
	return maxFetchesPerRequest*c.ImageFetchTimeout() + 30*time.Second
}

func (c *Config) ImageCacheTTL() time.Duration {
	return time.Duration(c.ImageCacheTTLMinutes) * time.Minute
}

// CacheEnabled reports whether a Redis address was configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}
