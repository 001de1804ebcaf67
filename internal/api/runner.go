package api

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/peterkuimelis/tcgodds/internal/sim"
)

// Runner executes simulate requests. The zero value is usable.
type Runner struct {
	Workers        int // 0 = GOMAXPROCS
	MaxSimulations int // 0 = MaxSimulations
	Logger         *zap.Logger
}

func (rn *Runner) logger() *zap.Logger {
	if rn.Logger == nil {
		return zap.NewNop()
	}
	return rn.Logger
}

// Simulate validates req, runs it and converts the result. progress may be nil.
func (rn *Runner) Simulate(ctx context.Context, req *SimulateRequest, progress func(ProgressView)) (*SimulateResponse, error) {
	limit := rn.MaxSimulations
	if limit == 0 {
		limit = MaxSimulations
	}
	if err := req.ValidateWithLimit(limit); err != nil {
		return nil, err
	}
	return rn.SimulateScenario(ctx, req.Scenario(), req.Seed, progress)
}

// SimulateScenario runs a scenario with its own trial count and hand size.
func (rn *Runner) SimulateScenario(ctx context.Context, sc sim.Scenario, seed uint64, progress func(ProgressView)) (*SimulateResponse, error) {
	runID := uuid.NewString()
	logger := rn.logger().With(zap.String("run_id", runID))

	cfg := sc.Config()
	cfg.Workers = rn.Workers
	cfg.Seed = seed
	cfg.Logger = logger
	if progress != nil {
		cfg.Progress = func(p sim.Progress) {
			progress(ProgressView{RunID: runID, Done: p.Done, Successes: p.Successes, Total: p.Total})
		}
	}

	s, err := sim.NewSimulator(cfg)
	if err != nil {
		return nil, err
	}
	rules, err := sc.BuildRules()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := s.Run(ctx, sc.TrialsOrDefault(), sc.HandSizeOrDefault(), rules)
	if err != nil {
		logger.Warn("simulation failed", zap.Error(err))
		return nil, err
	}
	res.Elapsed = time.Since(start)

	logger.Info("simulation complete",
		zap.String("scenario", sc.Name),
		zap.Int("trials", res.Trials),
		zap.Float64("success_rate", res.SuccessRate),
		zap.Duration("elapsed", res.Elapsed),
	)
	return NewSimulateResponse(runID, res), nil
}
