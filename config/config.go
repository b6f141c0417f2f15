package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App           AppConfig
	HTTP          ServerConfig
	Log           LogConfig
	Upstream      UpstreamConfig
	Subscriptions SubscriptionConfig
}

type AppConfig struct {
	ServiceName string
	APIKey      string
}

type ServerConfig struct {
	Host string
	Port string
}

type LogConfig struct {
	Level string
}

type UpstreamConfig struct {
	CatalogBaseURL string
	BillingBaseURL string
	APIKey         string
	Timeout        time.Duration
}

const (
	CatalogSourceRemote  = "remote"
	CatalogSourceFixture = "fixture"
)

type SubscriptionConfig struct {
	// Cutoff is the protected window before the next billing timestamp in
	// which immediate self-service changes are disallowed. Zero disables the
	// gate entirely.
	Cutoff             time.Duration
	DaysPerMonth       int
	MaxAddOnQuantity   int
	DefaultTaxProvince string
	CatalogSource      string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	catalogSource := getEnv("CATALOG_SOURCE", CatalogSourceRemote)
	if catalogSource != CatalogSourceRemote && catalogSource != CatalogSourceFixture {
		return nil, fmt.Errorf("CATALOG_SOURCE must be %q or %q", CatalogSourceRemote, CatalogSourceFixture)
	}

	billingBaseURL := os.Getenv("BILLING_BASE_URL")
	if billingBaseURL == "" {
		return nil, errors.New("BILLING_BASE_URL environment variable is required")
	}

	cutoffHours := getIntEnv("SUBSCRIPTION_CUTOFF_HOURS", 24)
	if cutoffHours < 0 {
		return nil, errors.New("SUBSCRIPTION_CUTOFF_HOURS must be non-negative")
	}

	return &Config{
		App: AppConfig{
			ServiceName: getEnv("APP_SERVICE_NAME", "meal-subscriptions-service"),
			APIKey:      getEnv("APP_API_KEY", ""),
		},
		HTTP: ServerConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnv("HTTP_PORT", "8080"),
		},
		Log: LogConfig{Level: getEnv("LOG_LEVEL", "info")},
		Upstream: UpstreamConfig{
			CatalogBaseURL: getEnv("CATALOG_BASE_URL", billingBaseURL),
			BillingBaseURL: billingBaseURL,
			APIKey:         getEnv("UPSTREAM_API_KEY", ""),
			Timeout:        getDurationEnv("UPSTREAM_TIMEOUT_SECONDS", 10*time.Second, time.Second),
		},
		Subscriptions: SubscriptionConfig{
			Cutoff:             time.Duration(cutoffHours) * time.Hour,
			DaysPerMonth:       getIntEnv("DAYS_PER_MONTH", 30),
			MaxAddOnQuantity:   getIntEnv("MAX_ADDON_QUANTITY", 10),
			DefaultTaxProvince: getEnv("DEFAULT_TAX_PROVINCE", "ON"),
			CatalogSource:      catalogSource,
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration, unit time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return time.Duration(n) * unit
		}
	}
	return defaultValue
}
