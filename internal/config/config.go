package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application settings.
type Config struct {
	AppPort        string
	DatabaseDriver string // memory, sqlite or postgres
	DatabaseDSN    string
	RabbitMQURL    string // empty disables event publishing
	OrderExchange  string
	JWTSecret      string
	AuthRequired   bool
	TokenTTL       time.Duration
	LogLevel       string
	LogFormat      string // text or json
}

// Load reads the configuration from defaults, an optional file named by
// CONFIG_FILE and environment variables, in increasing precedence.
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DATABASE_DRIVER", "memory")
	v.SetDefault("DATABASE_DSN", "")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("ORDER_EXCHANGE", "orders")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("AUTH_REQUIRED", false)
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		AppPort:        v.GetString("APP_PORT"),
		DatabaseDriver: strings.ToLower(v.GetString("DATABASE_DRIVER")),
		DatabaseDSN:    v.GetString("DATABASE_DSN"),
		RabbitMQURL:    v.GetString("RABBITMQ_URL"),
		OrderExchange:  v.GetString("ORDER_EXCHANGE"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		AuthRequired:   v.GetBool("AUTH_REQUIRED"),
		TokenTTL:       v.GetDuration("TOKEN_TTL"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogFormat:      strings.ToLower(v.GetString("LOG_FORMAT")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case "memory":
	case "sqlite", "postgres":
		if strings.TrimSpace(c.DatabaseDSN) == "" {
			return fmt.Errorf("DATABASE_DSN is required for driver %s", c.DatabaseDriver)
		}
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.AuthRequired && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when AUTH_REQUIRED is enabled")
	}
	if c.RabbitMQURL != "" && c.OrderExchange == "" {
		return fmt.Errorf("ORDER_EXCHANGE is required when RABBITMQ_URL is set")
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("unsupported LOG_FORMAT %q", c.LogFormat)
	}
	return nil
}
