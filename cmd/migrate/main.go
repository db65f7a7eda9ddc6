package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"storal-pricer/internal/config"
	"storal-pricer/internal/storage"
	"storal-pricer/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: migrate [up|down|status]")
	}
	flag.Parse()

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	zapLogger, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	if !cfg.Database.Enabled() {
		zapLogger.Fatal("DB_HOST is not set")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pgStorage, err := storage.NewPostgresStorage(ctx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgStorage.Close()

	switch command {
	case "up":
		err = storage.RunMigrations(ctx, pgStorage.DB(), zapLogger)
	case "down":
		err = storage.RollbackMigration(ctx, pgStorage.DB(), zapLogger)
	case "status":
		err = storage.Status(ctx, pgStorage.DB(), zapLogger)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		zapLogger.Fatal("Migration failed", zap.String("command", command), zap.Error(err))
	}
}
