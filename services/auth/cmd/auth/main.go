package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/db"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/events"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/logging"
	loggingmw "github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/middleware/logging"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/tokenhash"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/tokens"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/auth/internal/config"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/auth/internal/httpserver"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/auth/internal/models"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/auth/internal/repo"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/auth/internal/service"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Use(loggingmw.RequestLogger(logger))

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	database, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	if err := database.AutoMigrate(&models.User{}, &models.UserRole{}, &models.RefreshToken{}); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}

	gormRepo := &repo.GormRepo{
		DB:          database,
		TokenHasher: tokenhash.New(),
		RefreshTTL:  cfg.RefreshTTL,
	}

	producer := events.NewProducer(cfg.KafkaBrokers, cfg.SecurityEventTopic)
	defer producer.Close()

	authSvc := &service.AuthService{
		Repo:   gormRepo,
		Codec:  tokens.NewCodec(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL),
		Events: producer,
	}

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Svc: authSvc},
		Codec:       authSvc.Codec,
	})

	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go sweepExpiredTokens(sweeperCtx, authSvc, logger)

	go func() {
		if err := e.Start(cfg.ListenAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func sweepExpiredTokens(ctx context.Context, svc *service.AuthService, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("refresh token sweep failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("refresh token sweep", "purged", n)
			}
		}
	}
}
