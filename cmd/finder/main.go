package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	finderapp "github.com/ahmadswalih/ip-finder-backend/internal/app/finder"
	"github.com/ahmadswalih/ip-finder-backend/internal/config"
	"github.com/ahmadswalih/ip-finder-backend/internal/infra/logger"
)

func main() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log, closer, err := logger.New(cfg.LogDir, "finder", cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()
	slog.SetDefault(log)

	log.Info("starting ip-finder",
		"version", config.Version,
		"build_time", config.BuildTime,
		"listen", cfg.Listen,
		"debug", cfg.Debug,
	)

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM,
	)
	defer cancel()

	app, err := finderapp.NewApplication(ctx, cfg, log)
	if err != nil {
		log.Error("failed to create application", "err", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}
