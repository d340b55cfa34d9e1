// Package config loads kanban service configuration from defaults, an
// optional config.yaml and KANBAN_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/kandev/kanban/internal/common/logger"
)

// Config holds all configuration sections.
type Config struct {
	Server   ServerConfig         `mapstructure:"server"`
	Database DatabaseConfig       `mapstructure:"database"`
	NATS     NATSConfig           `mapstructure:"nats"`
	Redis    RedisConfig          `mapstructure:"redis"`
	Auth     AuthConfig           `mapstructure:"auth"`
	Logging  logger.LoggingConfig `mapstructure:"logging"`
	Tracing  TracingConfig        `mapstructure:"tracing"`
	Store    StoreConfig          `mapstructure:"store"`
	Roster   RosterConfig         `mapstructure:"roster"`
}

type ServerConfig struct {
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
	ReadTimeout  int      `mapstructure:"readTimeout"`  // seconds
	WriteTimeout int      `mapstructure:"writeTimeout"` // seconds
	AllowOrigins []string `mapstructure:"allowOrigins"`
}

// DatabaseConfig selects the storage backend. Driver "memory" keeps boards in
// process; "sqlite" uses Path; "postgres" uses the connection fields.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Path     string `mapstructure:"path"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbName"`
	SSLMode  string `mapstructure:"sslMode"`
	MaxConns int    `mapstructure:"maxConns"`
	MinConns int    `mapstructure:"minConns"`
}

// NATSConfig configures the event bus. An empty URL selects the in-memory bus.
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	ClientID      string `mapstructure:"clientId"`
	MaxReconnects int    `mapstructure:"maxReconnects"`
}

// RedisConfig enables the board tree cache when Addr is set.
type RedisConfig struct {
	Addr       string `mapstructure:"addr"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	TTLSeconds int    `mapstructure:"ttlSeconds"`
}

// AuthConfig controls bearer token validation. With Required false, requests
// without a token act as the anonymous owner.
type AuthConfig struct {
	Required       bool   `mapstructure:"required"`
	JWTSecret      string `mapstructure:"jwtSecret"`
	JWKSURL        string `mapstructure:"jwksUrl"`
	Audience       string `mapstructure:"audience"`
	Issuer         string `mapstructure:"issuer"`
	AnonymousOwner string `mapstructure:"anonymousOwner"`
}

type TracingConfig struct {
	Endpoint    string `mapstructure:"endpoint"`
	Insecure    bool   `mapstructure:"insecure"`
	ServiceName string `mapstructure:"serviceName"`
}

type StoreConfig struct {
	HistoryDepth int `mapstructure:"historyDepth"`
}

// RosterConfig points at an optional YAML file with members and labels.
type RosterConfig struct {
	File string `mapstructure:"file"`
}

func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// TTL returns the cache entry lifetime.
func (r *RedisConfig) TTL() time.Duration {
	return time.Duration(r.TTLSeconds) * time.Second
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.allowOrigins", []string{"*"})

	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.path", "./kanban.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "kanban")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbName", "kanban")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxConns", 25)
	v.SetDefault("database.minConns", 5)

	v.SetDefault("nats.url", "")
	v.SetDefault("nats.clientId", "kanban")
	v.SetDefault("nats.maxReconnects", 10)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttlSeconds", 300)

	v.SetDefault("auth.required", false)
	v.SetDefault("auth.anonymousOwner", "local")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", logger.DetectFormat())
	v.SetDefault("logging.outputPath", "stdout")

	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.serviceName", "kanban")

	v.SetDefault("store.historyDepth", 50)
	v.SetDefault("roster.file", "")
}

// Load reads configuration from the working directory and /etc/kanban.
func Load() (*Config, error) {
	return LoadWithPath("")
}

// LoadWithPath reads configuration, searching configPath first when set.
func LoadWithPath(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("KANBAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("database.driver", "KANBAN_DATABASE_DRIVER", "KANBAN_DB_DRIVER")
	_ = v.BindEnv("database.path", "KANBAN_DATABASE_PATH", "KANBAN_DB_PATH")
	_ = v.BindEnv("auth.jwksUrl", "KANBAN_AUTH_JWKS_URL")
	_ = v.BindEnv("tracing.endpoint", "KANBAN_TRACING_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/kanban/")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	var errs []string

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	switch strings.ToLower(cfg.Database.Driver) {
	case "memory":
	case "sqlite":
		if cfg.Database.Path == "" {
			errs = append(errs, "database.path is required for the sqlite driver")
		}
	case "postgres":
		if cfg.Database.Port <= 0 || cfg.Database.Port > 65535 {
			errs = append(errs, "database.port must be between 1 and 65535")
		}
		if cfg.Database.User == "" {
			errs = append(errs, "database.user is required for the postgres driver")
		}
		if cfg.Database.DBName == "" {
			errs = append(errs, "database.dbName is required for the postgres driver")
		}
	default:
		errs = append(errs, "database.driver must be one of: memory, sqlite, postgres")
	}

	if cfg.Redis.Addr != "" && cfg.Redis.TTLSeconds <= 0 {
		errs = append(errs, "redis.ttlSeconds must be positive")
	}

	if cfg.Auth.Required && cfg.Auth.JWTSecret == "" && cfg.Auth.JWKSURL == "" {
		errs = append(errs, "auth.jwtSecret or auth.jwksUrl is required when auth.required is set")
	}
	if !cfg.Auth.Required && cfg.Auth.AnonymousOwner == "" {
		errs = append(errs, "auth.anonymousOwner is required when auth is optional")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, "logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		errs = append(errs, "logging.format must be one of: json, text")
	}

	if cfg.Store.HistoryDepth < 0 {
		errs = append(errs, "store.historyDepth must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}
