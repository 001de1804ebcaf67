package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/peterkuimelis/tcgodds/internal/api"
	tlog "github.com/peterkuimelis/tcgodds/internal/log"
	"github.com/peterkuimelis/tcgodds/internal/sim"
)

type simulateOptions struct {
	decksFile string
	deck      int
	trials    int
	handSize  int
	seed      uint64
	workers   int
	trace     int
}

func newSimulateCmd() *cobra.Command {
	var opts simulateOptions
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Estimate the success rate of a deck",
		Long: `Runs a Monte Carlo simulation of opening hands for one deck of the decks file
and reports how many hands met at least one success condition.

With --trace N, plays out N hands step by step instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.decksFile = decksFile
			return runSimulate(cmd.Context(), cmd.OutOrStdout(), opts, logger)
		},
	}
	cmd.Flags().IntVarP(&opts.deck, "deck", "d", 1, "Deck number to simulate (from the decks file)")
	cmd.Flags().IntVarP(&opts.trials, "trials", "n", 0, "Number of hands (default: the deck's setting)")
	cmd.Flags().IntVar(&opts.handSize, "hand", -1, "Opening hand size (default: the deck's setting)")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "RNG seed for a reproducible run (0 for random)")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Worker goroutines (0 for GOMAXPROCS)")
	cmd.Flags().IntVar(&opts.trace, "trace", 0, "Trace N hands step by step instead of simulating")
	return cmd
}

func runSimulate(ctx context.Context, w io.Writer, opts simulateOptions, logger *zap.Logger) error {
	sc, err := sim.ScenarioByNumber(opts.decksFile, opts.deck)
	if err != nil {
		return err
	}
	if opts.trials > 0 {
		sc.Trials = &opts.trials
	}
	if opts.handSize >= 0 {
		sc.HandSize = &opts.handSize
	}

	if opts.trace > 0 {
		return runTrace(ctx, w, sc, opts, logger)
	}

	rn := &api.Runner{Workers: opts.workers, Logger: logger}
	fmt.Fprintf(w, "Deck: %s (%d cards, hand of %d)\n", sc.Name, sc.Config().DeckSize, sc.HandSizeOrDefault())

	resp, err := rn.SimulateScenario(ctx, sc, opts.seed, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Success: %d/%d (%.2f%%)\n", resp.SuccessCount, resp.Simulations, resp.SuccessRate)
	fmt.Fprintf(w, "Brick:   %d/%d (%.2f%%)\n", resp.BrickCount, resp.Simulations, resp.BrickRate)
	for _, n := range resp.Notes {
		fmt.Fprintf(w, "Note: %s\n", n)
	}
	for _, warn := range resp.Warnings {
		fmt.Fprintf(w, "Warning: %s\n", warn)
	}
	fmt.Fprintf(w, "Time: %s\n", time.Duration(resp.TimeTaken*float64(time.Second)).Round(time.Millisecond))
	return nil
}

func runTrace(ctx context.Context, w io.Writer, sc sim.Scenario, opts simulateOptions, logger *zap.Logger) error {
	cfg := sc.Config()
	cfg.Seed = opts.seed
	cfg.Logger = logger
	s, err := sim.NewSimulator(cfg)
	if err != nil {
		return err
	}
	rules, err := sc.BuildRules()
	if err != nil {
		return err
	}

	results, err := s.Trace(ctx, opts.trace, sc.HandSizeOrDefault(), rules, tlog.NewTextLogger(w))
	if err != nil {
		return err
	}
	successes := 0
	for _, r := range results {
		if r.Success {
			successes++
		}
	}
	fmt.Fprintf(w, "\n%d/%d traced hands succeeded\n", successes, len(results))
	return nil
}

func newDecksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decks",
		Short: "List the decks in the decks file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecks(cmd.OutOrStdout(), decksFile)
		},
	}
}

func runDecks(w io.Writer, path string) error {
	sf, err := sim.ParseScenarioFile(path)
	if err != nil {
		return err
	}
	for i, d := range sf.Decks {
		info := api.NewDeckInfo(i+1, d)
		fmt.Fprintf(w, "%2d. %s (%d cards, %d categories, %d effects, %d conditions)\n",
			info.Number, info.Name, info.Size, len(info.Cards), info.Effects, info.Rules)
	}
	return nil
}
