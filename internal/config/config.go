package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Auth     AuthConfig
	RabbitMQ RabbitMQConfig
	Catalog  CatalogConfig
}

type ServerConfig struct {
	Port        string
	Env         string
	LogLevel    string
	CORSOrigins string
}

type DatabaseConfig struct {
	Driver string
	DSN    string
}

type JWTConfig struct {
	Secret    string
	Algorithm string
	Expiry    time.Duration
}

// AuthConfig holds the single administrator allowed to log in.
type AuthConfig struct {
	AdminEmail        string
	AdminPasswordHash string
	BcryptCost        int
}

type RabbitMQConfig struct {
	URL      string
	Exchange string
}

type CatalogConfig struct {
	LowStockThreshold int
}

// IsDevelopment reports whether insecure development fallbacks are allowed.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == EnvDevelopment
}

// SetDefaults registers every known key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("ENVIRONMENT", EnvDevelopment)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "catalog.db")
	v.SetDefault("JWT_SECRET_KEY", "")
	v.SetDefault("JWT_ALGORITHM", "HS256")
	v.SetDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD_HASH", "")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_EXCHANGE", "catalog")
	v.SetDefault("LOW_STOCK_THRESHOLD", 10)
}

// Load reads an optional .env file from the working directory and then the
// process environment, which takes precedence.
func Load() (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        v.GetString("APP_PORT"),
			Env:         strings.ToLower(v.GetString("ENVIRONMENT")),
			LogLevel:    v.GetString("LOG_LEVEL"),
			CORSOrigins: v.GetString("CORS_ORIGINS"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(v.GetString("DATABASE_DRIVER")),
			DSN:    v.GetString("DATABASE_DSN"),
		},
		JWT: JWTConfig{
			Secret:    v.GetString("JWT_SECRET_KEY"),
			Algorithm: strings.ToUpper(v.GetString("JWT_ALGORITHM")),
			Expiry:    time.Duration(v.GetInt("ACCESS_TOKEN_EXPIRE_MINUTES")) * time.Minute,
		},
		Auth: AuthConfig{
			AdminEmail:        v.GetString("ADMIN_EMAIL"),
			AdminPasswordHash: v.GetString("ADMIN_PASSWORD_HASH"),
			BcryptCost:        v.GetInt("BCRYPT_COST"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      v.GetString("RABBITMQ_URL"),
			Exchange: v.GetString("RABBITMQ_EXCHANGE"),
		},
		Catalog: CatalogConfig{
			LowStockThreshold: v.GetInt("LOW_STOCK_THRESHOLD"),
		},
	}

	if cfg.JWT.Expiry <= 0 {
		return nil, fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	if cfg.Catalog.LowStockThreshold < 0 {
		return nil, fmt.Errorf("LOW_STOCK_THRESHOLD cannot be negative")
	}
	return cfg, nil
}
