package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTP_PORT        string `env:"HTTP_PORT"`
	APP_ENV          string `env:"APP_ENV"`
	DB_STRING        string `env:"DB_STRING"`
	STORAGE_DRIVER   string `env:"STORAGE_DRIVER"`
	MIGRATE_ON_START bool   `env:"MIGRATE_ON_START"`

	KAFKA_BROKERS      string        `env:"KAFKA_BROKERS"`
	KAFKA_TOPIC        string        `env:"KAFKA_TOPIC"`
	KAFKA_GROUP_ID     string        `env:"KAFKA_GROUP_ID"`
	REFUND_RETRY_DELAY time.Duration `env:"REFUND_RETRY_DELAY"`

	REDIS_ADDR        string        `env:"REDIS_ADDR"`
	CATALOG_CACHE_TTL time.Duration `env:"CATALOG_CACHE_TTL"`

	JWT_SECRET string `env:"JWT_SECRET"`
	JWT_ISSUER string `env:"JWT_ISSUER"`

	PAYMENT_BASE_URL   string        `env:"PAYMENT_BASE_URL"`
	PAYMENT_KEY_ID     string        `env:"PAYMENT_KEY_ID"`
	PAYMENT_KEY_SECRET string        `env:"PAYMENT_KEY_SECRET"`
	PAYMENT_TIMEOUT    time.Duration `env:"PAYMENT_TIMEOUT"`
	PAYMENT_CURRENCY   string        `env:"PAYMENT_CURRENCY"`

	TAX_RATE             float64 `env:"TAX_RATE"`
	DEFAULT_DELIVERY_FEE float64 `env:"DEFAULT_DELIVERY_FEE"`
	PREP_MINUTES         int     `env:"PREP_MINUTES"`
	DELIVERY_MINUTES     int     `env:"DELIVERY_MINUTES"`
}

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

func (c *Config) Production() bool {
	return c.APP_ENV == "production"
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		HTTP_PORT:          getEnv("HTTP_PORT", "8080"),
		APP_ENV:            getEnv("APP_ENV", "development"),
		DB_STRING:          os.Getenv("DB_STRING"),
		STORAGE_DRIVER:     getEnv("STORAGE_DRIVER", StoragePostgres),
		KAFKA_BROKERS:      os.Getenv("KAFKA_BROKERS"),
		KAFKA_TOPIC:        getEnv("KAFKA_TOPIC", "order-events"),
		KAFKA_GROUP_ID:     getEnv("KAFKA_GROUP_ID", "order-refund-retry"),
		REDIS_ADDR:         os.Getenv("REDIS_ADDR"),
		JWT_SECRET:         os.Getenv("JWT_SECRET"),
		JWT_ISSUER:         os.Getenv("JWT_ISSUER"),
		PAYMENT_BASE_URL:   getEnv("PAYMENT_BASE_URL", "https://api.razorpay.com/v1"),
		PAYMENT_KEY_ID:     os.Getenv("PAYMENT_KEY_ID"),
		PAYMENT_KEY_SECRET: os.Getenv("PAYMENT_KEY_SECRET"),
		PAYMENT_CURRENCY:   getEnv("PAYMENT_CURRENCY", "INR"),
	}

	var err error
	if cfg.MIGRATE_ON_START, err = getBool("MIGRATE_ON_START", true); err != nil {
		return nil, err
	}
	if cfg.CATALOG_CACHE_TTL, err = getDuration("CATALOG_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.REFUND_RETRY_DELAY, err = getDuration("REFUND_RETRY_DELAY", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.PAYMENT_TIMEOUT, err = getDuration("PAYMENT_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.TAX_RATE, err = getFloat("TAX_RATE", 0.18); err != nil {
		return nil, err
	}
	if cfg.DEFAULT_DELIVERY_FEE, err = getFloat("DEFAULT_DELIVERY_FEE", 40); err != nil {
		return nil, err
	}
	if cfg.PREP_MINUTES, err = getInt("PREP_MINUTES", 30); err != nil {
		return nil, err
	}
	if cfg.DELIVERY_MINUTES, err = getInt("DELIVERY_MINUTES", 15); err != nil {
		return nil, err
	}

	if cfg.JWT_SECRET == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	switch cfg.STORAGE_DRIVER {
	case StoragePostgres:
		if cfg.DB_STRING == "" {
			return nil, errors.New("DB_STRING is required for postgres storage")
		}
	case StorageMemory:
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.STORAGE_DRIVER)
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
