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

	JWTSecret []byte
	AccessTTL time.Duration

	ESURL        string
	ESUser       string
	ESPassword   string
	ExpenseIndex string
}

func Load() *Config {
	pkgconfig.LoadDotenv()

	cfg := &Config{
		ListenAddr:  pkgconfig.EnvDefault("BUDGET_ADDR", ":8082"),
		LogLevel:    pkgconfig.EnvDefault("LOG_LEVEL", "info"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret: []byte(os.Getenv("JWT_HS256_SECRET")),
		AccessTTL: pkgconfig.EnvMinutesDefault("ACCESS_TOKEN_TTL_MIN", 15*time.Minute),

		ESURL:        os.Getenv("ES_URL"),
		ESUser:       os.Getenv("ES_USER"),
		ESPassword:   os.Getenv("ES_PASSWORD"),
		ExpenseIndex: pkgconfig.EnvDefault("ES_EXPENSE_INDEX", "expenses"),
	}

	pkgconfig.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	pkgconfig.MustNonEmptyBytes(cfg.JWTSecret, "JWT_HS256_SECRET")

	return cfg
}
