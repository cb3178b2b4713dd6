package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	LogLevel    string

	ServerPort int

	APIBaseURL  string
	LocationURL string
	HTTPTimeout time.Duration

	StorageDSN string
	Profile    string

	JWTSecret []byte

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	NotifyBackend string
	KafkaBrokers  []string
	KafkaTopic    string

	OrderPollInterval time.Duration
}

func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		slog.Debug("env_file_not_found", "error", err)
	}

	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "storefront"),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		ServerPort: EnvIntDefault("SERVER_PORT", 8080),

		APIBaseURL:  os.Getenv("API_BASE_URL"),
		LocationURL: EnvDefault("LOCATION_URL", "https://open.oapi.vn/location"),
		HTTPTimeout: EnvDurationDefault("HTTP_TIMEOUT", 5*time.Second),

		StorageDSN: EnvDefault("STORAGE_DSN", "storefront.db"),
		Profile:    EnvDefault("STOREFRONT_PROFILE", "default"),

		JWTSecret: []byte(os.Getenv("JWT_SECRET")),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       EnvIntDefault("REDIS_DB", 0),

		NotifyBackend: strings.ToLower(EnvDefault("NOTIFY_BACKEND", "none")),
		KafkaBrokers:  CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:    EnvDefault("KAFKA_TOPIC", "cart_events"),

		OrderPollInterval: EnvDurationDefault("ORDER_POLL_INTERVAL", 3*time.Second),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if os.Getenv(key) != "" {
		return os.Getenv(key)
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// EnvDurationDefault accepts Go duration strings ("3s") or a bare number of seconds.
func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}
