package config

import (
	"os"

	pkgconfig "github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/config"
)

type Config struct {
	ListenAddr string
	LogLevel   string

	AuthURL   string
	BudgetURL string

	JWTSecret      []byte
	AllowedOrigins []string
}

func Load() *Config {
	pkgconfig.LoadDotenv()

	cfg := &Config{
		ListenAddr: pkgconfig.EnvDefault("GATEWAY_ADDR", ":8080"),
		LogLevel:   pkgconfig.EnvDefault("LOG_LEVEL", "info"),

		AuthURL:   os.Getenv("AUTH_URL"),
		BudgetURL: os.Getenv("BUDGET_URL"),

		JWTSecret:      []byte(os.Getenv("JWT_HS256_SECRET")),
		AllowedOrigins: pkgconfig.CSV(pkgconfig.EnvDefault("CORS_ORIGINS", "http://localhost:5173")),
	}

	pkgconfig.MustNonEmpty(cfg.AuthURL, "AUTH_URL")
	pkgconfig.MustNonEmpty(cfg.BudgetURL, "BUDGET_URL")
	pkgconfig.MustNonEmptyBytes(cfg.JWTSecret, "JWT_HS256_SECRET")

	return cfg
}
