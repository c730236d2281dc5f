package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/db"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/logging"
	loggingmw "github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/middleware/logging"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/pkg/tokens"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/budget/internal/config"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/budget/internal/httpserver"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/budget/internal/models"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/budget/internal/repo"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/budget/internal/search"
	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/budget/internal/service"
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
	if err := database.AutoMigrate(
		&models.Category{},
		&models.Expense{},
		&models.Income{},
		&models.CapitalRecord{},
	); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}

	searchClient, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword, cfg.ExpenseIndex)
	if err != nil {
		log.Fatalf("elasticsearch init error: %v", err)
	}
	if searchClient.Enabled() {
		logger.Info("expense search enabled", "index", cfg.ExpenseIndex)
	} else {
		logger.Warn("expense search disabled, ES_URL is not set")
	}

	budgetSvc := &service.BudgetService{
		Repo:   &repo.GormRepo{DB: database},
		Search: searchClient,
	}

	httpserver.Register(e, &httpserver.Deps{
		BudgetHandler: &httpserver.BudgetHTTP{Svc: budgetSvc},
		Codec:         tokens.NewCodec(cfg.JWTSecret, cfg.AccessTTL, 0),
	})

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
