// Package config loads application settings from defaults, an optional YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DevJWTSecret is used when JWT_SECRET is not configured.
const DevJWTSecret = "mafia-madness-dev-secret"

// Config holds every setting the server and CLI read.
type Config struct {
	AppPort string

	DBDriver      string
	DatabaseDSN   string
	RedisURL      string
	MongoURI      string
	MongoDatabase string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	BcryptCost      int

	RabbitMQURL string

	LogLevel  string
	LogFormat string
	LogFile   string

	StaticDir   string
	CORSOrigins string
}

var drivers = map[string]bool{
	"memory":   true,
	"sqlite":   true,
	"postgres": true,
	"redis":    true,
	"mongo":    true,
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8001")
	v.SetDefault("DB_DRIVER", "memory")
	v.SetDefault("DATABASE_DSN", "")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "mafia")
	v.SetDefault("JWT_SECRET", DevJWTSecret)
	v.SetDefault("ACCESS_TOKEN_TTL", "3h")
	v.SetDefault("REFRESH_TOKEN_TTL", "24h")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("STATIC_DIR", "")
	v.SetDefault("CORS_ORIGINS", "*")
}

// Load reads the configuration. When path is empty, config.yaml is looked up in ./config
// and the working directory and may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := &Config{
		AppPort:         v.GetString("APP_PORT"),
		DBDriver:        strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseDSN:     v.GetString("DATABASE_DSN"),
		RedisURL:        v.GetString("REDIS_URL"),
		MongoURI:        v.GetString("MONGO_URI"),
		MongoDatabase:   v.GetString("MONGO_DATABASE"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		AccessTokenTTL:  v.GetDuration("ACCESS_TOKEN_TTL"),
		RefreshTokenTTL: v.GetDuration("REFRESH_TOKEN_TTL"),
		BcryptCost:      v.GetInt("BCRYPT_COST"),
		RabbitMQURL:     v.GetString("RABBITMQ_URL"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		LogFormat:       v.GetString("LOG_FORMAT"),
		LogFile:         v.GetString("LOG_FILE"),
		StaticDir:       v.GetString("STATIC_DIR"),
		CORSOrigins:     v.GetString("CORS_ORIGINS"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if !drivers[c.DBDriver] {
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
	if c.DBDriver == "postgres" && c.DatabaseDSN == "" {
		return errors.New("DATABASE_DSN is required for postgres")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST %d out of range 4..31", c.BcryptCost)
	}
	return nil
}
