package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/peterkuimelis/tcgodds/internal/api"
	"github.com/peterkuimelis/tcgodds/internal/config"
	oddsmcp "github.com/peterkuimelis/tcgodds/internal/mcp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	decks := flag.String("decks", cfg.Decks, "path to decks YAML file")
	flag.Parse()

	// stdout carries the MCP protocol; logs go to stderr.
	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	s := oddsmcp.NewServer(&oddsmcp.Tools{
		DecksFile:     *decks,
		DefaultTrials: cfg.DefaultTrials,
		Runner: &api.Runner{
			Workers:        cfg.Workers,
			MaxSimulations: cfg.MaxTrials,
			Logger:         logger,
		},
		Logger: logger,
	})

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
