package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	PostgresURL string
	RedisHost   string
	RedisPort   int
	BarStream   string
	OrderStream string
	GatewayURL  string
	FeedURL     string
	LiveFeedURL string
	ParamsFile  string
	LogLevel    string
	LiveMode    bool
	DryRun      bool
}

func Load() *Config {
	return &Config{
		PostgresURL: getEnv("POSTGRES_URL", buildPostgresURL()),
		RedisHost:   getEnv("REDIS_HOST", "redis"),
		RedisPort:   getEnvInt("REDIS_PORT", 6379),
		BarStream:   getEnv("BAR_STREAM", "bar_events"),
		OrderStream: getEnv("ORDER_STREAM", "order_events"),
		GatewayURL:  getEnv("GATEWAY_URL", "http://broker-gateway:8000"),
		FeedURL:     getEnv("EARNINGS_FEED_URL", "https://www.dropbox.com/scl/fi/t8doznsqhmbby7cxenh0q/earnings_dates_eps.json?rlkey=yh6nhwm8vkby33mz396g0vl8y&dl=1"),
		LiveFeedURL: getEnv("EARNINGS_LIVE_FEED_URL", "https://raw.githubusercontent.com/deerfieldgreen/Post-Earnings-Announcement-Drift-Combined-with-Strong-Momentum/main/earnings_dates_eps_live.json"),
		ParamsFile:  getEnv("STRATEGY_PARAMS_FILE", ""),
		LogLevel:    getEnv("ENGINE_LOG_LEVEL", "info"),
		LiveMode:    getEnvBool("ENGINE_LIVE_MODE", false),
		DryRun:      getEnvBool("ENGINE_DRY_RUN", false),
	}
}

func buildPostgresURL() string {
	host := getEnv("POSTGRES_HOST", "postgres")
	db := getEnv("POSTGRES_DB", "pead_engine")
	user := getEnv("POSTGRES_USER", "trading")
	pass := getEnv("POSTGRES_PASSWORD", "changeme123")

	return fmt.Sprintf("postgres://%s:%s@%s:5432/%s?sslmode=disable", user, pass, host, db)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
