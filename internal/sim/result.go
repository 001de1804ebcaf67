package sim

import (
	"fmt"
	"time"
)

// SimulationResult summarizes one Run call.
type SimulationResult struct {
	Trials      int
	Successes   int
	Failures    int
	SuccessRate float64 // percent
	FailureRate float64 // percent

	// DepthExceeded counts trials whose resolution hit a depth limit. Resolution
	// is single pass, so this stays zero.
	DepthExceeded int
	Warnings      []string

	// Notes are informational, e.g. the pool growing past its nominal size.
	Notes []string

	// Elapsed is filled in by callers that time the run.
	Elapsed time.Duration
}

func newResult(trials, successes, depthExceeded int, notes []string) *SimulationResult {
	r := &SimulationResult{
		Trials:        trials,
		Successes:     successes,
		Failures:      trials - successes,
		DepthExceeded: depthExceeded,
		Notes:         append([]string(nil), notes...),
	}
	r.SuccessRate = float64(successes) / float64(trials) * 100
	r.FailureRate = 100 - r.SuccessRate
	if depthExceeded > 0 {
		r.Warnings = append(r.Warnings, fmt.Sprintf("effect resolution exceeded max depth in %d trials", depthExceeded))
	}
	return r
}

func (r *SimulationResult) String() string {
	return fmt.Sprintf("%d/%d successful (%.2f%%), %d bricks (%.2f%%)",
		r.Successes, r.Trials, r.SuccessRate, r.Failures, r.FailureRate)
}
