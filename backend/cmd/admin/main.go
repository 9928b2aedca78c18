// Command admin runs maintenance tasks against the literacy hub database.
package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"literacy-hub/backend/config"
	"literacy-hub/backend/internal/repository"
	"literacy-hub/backend/internal/service"
	"literacy-hub/backend/pkg/database"
	applogger "literacy-hub/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load(os.Getenv("LITERACY_HUB_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("get sql.DB", zap.Error(err))
	}
	defer sqlDB.Close()

	repo := repository.NewRepository(db)
	cli := commandLine{
		users:   repo.User,
		archive: service.NewArchiveService(&cfg.Archive, repo, logger),
		migrate: func() error { return database.RunMigrations(sqlDB, logger) },
		out:     os.Stdout,
	}

	if err := cli.run(context.Background(), os.Args); err != nil {
		if err != errHelp {
			logger.Error("admin command failed", zap.Error(err))
		}
		sqlDB.Close()
		os.Exit(1)
	}
}
