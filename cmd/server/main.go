package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"

	"moodlog/internal/config"
	"moodlog/internal/handler"
	"moodlog/internal/logger"
	"moodlog/internal/middleware"
	"moodlog/internal/model"
	"moodlog/internal/service"
	"moodlog/internal/week"
)

func main() {
	configFile := flag.String("config", "", "config file path (e.g. etc/config-dev.yaml)")
	flag.Parse()

	cfg := config.Load(*configFile)
	accessLog := logger.Init(cfg.Log)

	readyDay, err := week.ParseWeekday(cfg.Report.ReadyDay)
	if err != nil {
		logger.Warn("config.invalid_ready_day", "value", cfg.Report.ReadyDay, "fallback", week.DefaultReadyDay)
		readyDay = week.DefaultReadyDay
	}
	if cfg.Auth.JWTSecret != "" {
		middleware.JWTSecret = []byte(cfg.Auth.JWTSecret)
	} else {
		logger.Warn("config.jwt_secret_missing", "hint", "set JWT_SECRET outside development")
	}
	middleware.TokenTTL = cfg.TokenTTL()

	db, err := cfg.OpenGormDB()
	if err != nil {
		logger.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	if err := model.AutoMigrate(db); err != nil {
		logger.Error("db migrate failed", "err", err)
		os.Exit(1)
	}

	var catalogSync *service.CatalogSync
	if cfg.MOI.DatabaseID != 0 {
		raw, err := cfg.NewRawClient()
		if err != nil {
			logger.Warn("sdk client init failed", "err", err)
		} else {
			catalogSync = service.NewCatalogSync(raw, cfg.MOI.DatabaseID, cfg.MOI.EntriesTableID, cfg.MOI.ReportsTableID)
			logger.Info("catalog sync enabled", "database_id", cfg.MOI.DatabaseID)
		}
	}

	aiSvc := service.NewAIService(cfg.MOI.BaseURL, cfg.MOI.APIKey, service.AIOptions{
		Model:   cfg.MOI.Model,
		Timeout: cfg.AITimeout(),
		Retries: cfg.Report.AIRetries,
		Backoff: cfg.AIRetryBackoff(),
	})
	journalSvc := service.NewJournalService(db, aiSvc, time.Now).WithCatalog(catalogSync)
	weeklySvc := service.NewWeeklyService(
		service.NewReportCache(db, time.Now),
		service.NewSynthesizer(db, aiSvc),
		readyDay,
		time.Now,
	).WithCatalog(catalogSync)

	gin.SetMode(gin.ReleaseMode)
	api := &handler.API{
		Auth:      handler.NewAuthHandler(service.NewAuthService(db)),
		Entries:   handler.NewEntryHandler(journalSvc),
		Reports:   handler.NewReportHandler(weeklySvc, cfg.Report.HistoryLimit),
		Insights:  handler.NewInsightHandler(journalSvc, time.Now),
		Origins:   cfg.Server.AllowOrigins,
		AccessLog: accessLog,
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", cfg.Addr(), "ready_day", readyDay.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), cfg.AITimeout()+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", "err", err)
	}
	logger.Info("server stopped")
}
