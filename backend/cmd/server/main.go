package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"literacy-hub/backend/config"
	"literacy-hub/backend/internal/api/handler"
	"literacy-hub/backend/internal/api/router"
	"literacy-hub/backend/internal/api/validator"
	"literacy-hub/backend/internal/repository"
	"literacy-hub/backend/internal/service"
	"literacy-hub/backend/pkg/database"
	"literacy-hub/backend/pkg/jwt"
	applogger "literacy-hub/backend/pkg/logger"
	"literacy-hub/backend/pkg/mail"
	"literacy-hub/backend/pkg/redis"
	"literacy-hub/backend/pkg/reporter"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	// 1. config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// 2. logging & error reporting
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	rep := reporter.New(&cfg.Log)
	defer rep.Close()

	logger.Info("starting literacy hub",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("environment", cfg.Log.Environment),
	)

	if err := validator.Register(); err != nil {
		logger.Fatal("register validators", zap.Error(err))
	}

	// 3. database
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	logger.Info("database connected")

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("get sql.DB", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	// 4. redis is optional; without it drafts are unavailable, logout does
	// not revoke tokens, rate limits are off and auto-assign runs unlocked
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, running degraded", zap.Error(err))
		rdb = nil
	}
	var cache service.Cache
	var store router.Store
	if rdb != nil {
		cache, store = rdb, rdb
	}

	// 5. wiring: repository → service → handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	mailer := mail.New(&cfg.Mail, logger)

	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, cache, mailer, logger)
	h := handler.NewHandler(svc)

	engine := router.Setup(cfg, h, jwtMgr, store, logger, rep)

	// 6. HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	if err := sqlDB.Close(); err != nil {
		logger.Error("close database", zap.Error(err))
	}

	if rdb != nil {
		rdb.Close()
	}

	logger.Info("server stopped")
}
