// Package config loads the application configuration from the environment
// and an optional env file.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config groups the application configuration.
type Config struct {
	App   AppConfig
	Log   LogConfig
	DB    DBConfig
	HTTP  HTTPConfig
	JWT   JWTConfig
	API   APIConfig
	Stock StockConfig
}

// AppConfig is general application configuration.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	Timezone string // IANA name used to default movement dates and times
}

// Location resolves Timezone.
func (c AppConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// LogConfig configures the logger.
type LogConfig struct {
	Level string
}

// DBConfig selects the ledger database.
type DBConfig struct {
	Driver string // sqlite or postgres
	Path   string // sqlite file
	DSN    string // postgres connection string
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
}

// Addr returns the listen address (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// JWTConfig configures session and API tokens.
type JWTConfig struct {
	Secret     string // empty means a secret persisted in the database
	Expiration int    // minutes
}

// TTL returns the token lifetime.
func (c JWTConfig) TTL() time.Duration {
	return time.Duration(c.Expiration) * time.Minute
}

// APIConfig configures the REST API.
type APIConfig struct {
	RequireAuth bool
	PageSize    int
	MaxPageSize int
}

// StockConfig configures stock status labels.
type StockConfig struct {
	LowThreshold int64
}

// Load reads configuration from environment variables and, when present, a
// .env or config.env file. Environment variables win over the file. A
// non-empty path names an explicit env file that must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("env")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		v.SetConfigName(".env")
		v.AddConfigPath(".")
		_ = v.ReadInConfig()

		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		_ = v.MergeInConfig()
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "zaloga"),
			Timezone: getString(v, "APP_TIMEZONE", "UTC"),
		},
		Log: LogConfig{
			Level: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			Driver: getString(v, "DB_DRIVER", "sqlite"),
			Path:   getString(v, "DB_PATH", "zaloga.sqlite3"),
			DSN:    getString(v, "DB_DSN", ""),
		},
		HTTP: HTTPConfig{
			Host:            getString(v, "HTTP_HOST", "0.0.0.0"),
			Port:            getInt(v, "HTTP_PORT", 8080),
			ShutdownTimeout: getDuration(v, "HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 24*60),
		},
		API: APIConfig{
			RequireAuth: getBool(v, "API_REQUIRE_AUTH", false),
			PageSize:    getInt(v, "API_PAGE_SIZE", 10),
			MaxPageSize: getInt(v, "API_MAX_PAGE_SIZE", 100),
		},
		Stock: StockConfig{
			LowThreshold: int64(getInt(v, "LOW_STOCK_THRESHOLD", 10)),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DB.Driver {
	case "sqlite":
		if c.DB.Path == "" {
			return fmt.Errorf("DB_PATH is required for the sqlite driver")
		}
	case "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("DB_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.API.PageSize < 1 || c.API.MaxPageSize < c.API.PageSize {
		return fmt.Errorf("API_PAGE_SIZE must be between 1 and API_MAX_PAGE_SIZE")
	}
	if c.Stock.LowThreshold < 1 {
		return fmt.Errorf("LOW_STOCK_THRESHOLD must be at least 1")
	}
	if c.JWT.Expiration < 1 {
		return fmt.Errorf("JWT_EXPIRATION_MINUTES must be positive")
	}
	if _, err := c.App.Location(); err != nil {
		return err
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if !v.IsSet(key) {
		return def
	}
	switch v.Get(key).(type) {
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
		if err != nil {
			return def
		}
		return n
	default:
		return v.GetInt(key)
	}
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if !v.IsSet(key) {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return def
	}
	return b
}

func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if !v.IsSet(key) {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return def
	}
	return d
}
