package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	AppsScript AppsScriptConfig
	Gateway    GatewayConfig
	RateLimit  RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	BaseURL      string // public base URL, used to build the webhook callback
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// AppsScriptConfig points at the Google Apps Script web app that sends
// registration and receipt emails.
type AppsScriptConfig struct {
	URL   string
	Token string
}

type GatewayConfig struct {
	Mode       string // "test" or "live", selects the endpoint base
	MerchantID string
	APIKey     string
	APISecret  string
}

// RateLimitConfig sets the per-IP budgets. Payment routes get a tighter
// budget than the rest because they hit the gateway on every request.
type RateLimitConfig struct {
	Limit        int
	PaymentLimit int
	Window       time.Duration
}

func Load() *Config {
	_ = godotenv.Load()
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Env:          getEnv("APP_ENV", "development"),
			BaseURL:      getEnv("SERVER_BASE_URL", "http://localhost:8080"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             getEnv("DATABASE_DSN", "warsha:warsha@tcp(localhost:3306)/warsha?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: time.Hour,
		},
		AppsScript: AppsScriptConfig{
			URL:   os.Getenv("APPS_SCRIPT_URL"),
			Token: os.Getenv("APPS_SCRIPT_TOKEN"),
		},
		Gateway: GatewayConfig{
			Mode:       getEnv("GATEWAY_MODE", "test"),
			MerchantID: os.Getenv("GATEWAY_MERCHANT_ID"),
			APIKey:     os.Getenv("GATEWAY_API_KEY"),
			APISecret:  os.Getenv("GATEWAY_API_SECRET"),
		},
		RateLimit: RateLimitConfig{
			Limit:        getEnvInt("RATE_LIMIT", 100),
			PaymentLimit: getEnvInt("PAYMENT_RATE_LIMIT", 30),
			Window:       time.Duration(getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
