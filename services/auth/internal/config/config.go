package config

import (
	"os"
	"time"

	pkgconfig "github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/config"
)

type Config struct {
	ListenAddr  string
	LogLevel    string
	DatabaseURL string

	JWTSecret  []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	KafkaBrokers       []string
	SecurityEventTopic string
}

func Load() *Config {
	pkgconfig.LoadDotenv()

	cfg := &Config{
		ListenAddr:  pkgconfig.EnvDefault("AUTH_ADDR", ":8081"),
		LogLevel:    pkgconfig.EnvDefault("LOG_LEVEL", "info"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:  []byte(os.Getenv("JWT_HS256_SECRET")),
		AccessTTL:  pkgconfig.EnvMinutesDefault("ACCESS_TOKEN_TTL_MIN", 15*time.Minute),
		RefreshTTL: pkgconfig.EnvMinutesDefault("REFRESH_TOKEN_TTL_MIN", 7*24*time.Hour),

		KafkaBrokers:       pkgconfig.CSV(os.Getenv("KAFKA_BROKERS")),
		SecurityEventTopic: pkgconfig.EnvDefault("SECURITY_EVENT_TOPIC", "auth.security-events"),
	}

	pkgconfig.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	pkgconfig.MustNonEmptyBytes(cfg.JWTSecret, "JWT_HS256_SECRET")

	return cfg
}
