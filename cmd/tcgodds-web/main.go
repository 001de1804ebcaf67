package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/peterkuimelis/tcgodds/internal/config"
	"github.com/peterkuimelis/tcgodds/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Flags override the environment.
	port := flag.String("port", cfg.Port, "HTTP port to listen on")
	decksFile := flag.String("decks", cfg.Decks, "path to decks YAML file")
	workers := flag.Int("workers", cfg.Workers, "worker goroutines per run (0 for GOMAXPROCS)")
	flag.Parse()

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	srv := web.NewServer(web.Options{
		DecksFile:      *decksFile,
		Workers:        *workers,
		MaxSimulations: cfg.MaxTrials,
		Timeout:        cfg.Timeout,
		Logger:         logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("tcgodds API starting", zap.String("port", *port), zap.String("decks", *decksFile))
	if err := srv.ListenAndServe(ctx, ":"+*port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}
