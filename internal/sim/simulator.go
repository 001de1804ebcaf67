package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/peterkuimelis/tcgodds/internal/log"
)

// DefaultBatchSize is the number of trials a worker runs between cancellation checks.
const DefaultBatchSize = 1000

// Progress is reported after each finished batch.
type Progress struct {
	Done      int
	Successes int
	Total     int
}

// Config holds everything needed to build a Simulator.
type Config struct {
	DeckSize int
	Contents []CountEntry
	Tags     map[string][]string
	Effects  []EffectDefinition

	Workers   int    // 0 = GOMAXPROCS
	BatchSize int    // 0 = DefaultBatchSize
	Seed      uint64 // RNG seed (0 for random)
	Progress  func(Progress)
	Logger    *zap.Logger
}

// Simulator estimates how often an opening hand satisfies a set of rules.
// It is read-only after construction and may run concurrently.
type Simulator struct {
	pool     *CardPool
	tags     *SubcategoryIndex
	effects  *EffectRegistry
	resolver *Resolver
	notes    []string

	workers   int
	batchSize int
	seed      uint64
	progress  func(Progress)
	logger    *zap.Logger
}

// NewSimulator validates cfg and builds the pool, tag index and effect registry.
func NewSimulator(cfg Config) (*Simulator, error) {
	pool, err := NewCardPool(cfg.DeckSize, cfg.Contents)
	if err != nil {
		return nil, err
	}
	effects, err := NewEffectRegistry(cfg.Effects)
	if err != nil {
		return nil, err
	}
	tags := NewSubcategoryIndex(cfg.Tags)

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	s := &Simulator{
		pool:      pool,
		tags:      tags,
		effects:   effects,
		resolver:  NewResolver(effects, tags),
		workers:   workers,
		batchSize: batchSize,
		seed:      cfg.Seed,
		progress:  cfg.Progress,
		logger:    logger,
	}
	s.notes = s.configNotes()
	return s, nil
}

func (s *Simulator) configNotes() []string {
	var notes []string
	if s.pool.Adjusted() {
		notes = append(notes, fmt.Sprintf("card counts exceed deck size %d; deck size raised to %d",
			s.pool.NominalSize(), s.pool.Size()))
	}
	for _, name := range s.tags.Collisions(s.pool.Contents()) {
		notes = append(notes, fmt.Sprintf("tag %q shares its name with a card; the tag count replaces the card count in rules", name))
	}
	for _, card := range s.effects.Categories() {
		eff, _ := s.effects.Lookup(card)
		if s.pool.Count(card) == 0 {
			notes = append(notes, fmt.Sprintf("effect card %q is not in the deck and never activates", card))
		}
		if eff.Kind == EffectConditionalDiscard && len(s.tags.Members(eff.DiscardFilter)) == 0 && eff.DiscardCount > 0 {
			notes = append(notes, fmt.Sprintf("discard filter %q of %q matches no cards; the effect always fails", eff.DiscardFilter, card))
		}
	}
	return notes
}

// Pool returns the card pool.
func (s *Simulator) Pool() *CardPool { return s.pool }

// Tags returns the subcategory index.
func (s *Simulator) Tags() *SubcategoryIndex { return s.tags }

// Effects returns the effect registry.
func (s *Simulator) Effects() *EffectRegistry { return s.effects }

// Notes returns informational messages about the configuration.
func (s *Simulator) Notes() []string { return append([]string(nil), s.notes...) }

// Evaluate reports whether hand, extended with tag counts, satisfies any rule.
func (s *Simulator) Evaluate(hand Hand, rules []*RuleNode) bool {
	return AnySatisfied(rules, s.tags.Aggregate(hand.Counts()))
}

func (s *Simulator) validateRun(trials, handSize int) error {
	if trials <= 0 {
		return configErrorf("simulations", "must be positive, got %d", trials)
	}
	if handSize < 0 {
		return configErrorf("hand_size", "must be non-negative, got %d", handSize)
	}
	if handSize > s.pool.Size() {
		return configErrorf("hand_size", "%d exceeds deck size %d", handSize, s.pool.Size())
	}
	return nil
}

func (s *Simulator) runSeed() uint64 {
	if s.seed != 0 {
		return s.seed
	}
	return rand.Uint64()
}

// Run simulates trials opening hands of handSize cards. A trial succeeds when any
// rule holds. Trials are split into batches spread over the worker pool; each
// batch draws from its own PCG stream keyed by (seed, batch index), so a seeded
// run gives the same result for any worker count. ctx is checked between batches.
func (s *Simulator) Run(ctx context.Context, trials, handSize int, rules []*RuleNode) (*SimulationResult, error) {
	if err := s.validateRun(trials, handSize); err != nil {
		return nil, err
	}

	notes := s.notes
	if len(rules) == 0 {
		notes = append(append([]string(nil), notes...), "no success conditions given; every hand counts as a brick")
	}

	batches := (trials + s.batchSize - 1) / s.batchSize
	workers := min(s.workers, batches)
	seed := s.runSeed()

	s.logger.Debug("simulation started",
		zap.Int("trials", trials),
		zap.Int("hand_size", handSize),
		zap.Int("deck_size", s.pool.Size()),
		zap.Int("effects", s.effects.Len()),
		zap.Int("workers", workers),
		zap.Uint64("seed", seed),
	)

	var (
		next      atomic.Int64
		mu        sync.Mutex
		done      int
		successes int
	)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			tr := s.newTrialRunner(handSize, rules)
			for {
				if err := gctx.Err(); err != nil {
					return err
				}
				b := int(next.Add(1) - 1)
				if b >= batches {
					return nil
				}
				n := min(s.batchSize, trials-b*s.batchSize)
				rng := rand.New(rand.NewPCG(seed, uint64(b)))

				hits := 0
				for i := 0; i < n; i++ {
					ok, err := tr.run(rng)
					if err != nil {
						return err
					}
					if ok {
						hits++
					}
				}

				mu.Lock()
				done += n
				successes += hits
				if s.progress != nil {
					s.progress(Progress{Done: done, Successes: successes, Total: trials})
				}
				mu.Unlock()
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}

	res := newResult(trials, successes, 0, notes)
	s.logger.Debug("simulation finished",
		zap.Int("successes", res.Successes),
		zap.Float64("success_rate", res.SuccessRate),
	)
	return res, nil
}

// trialRunner holds one worker's reusable buffers.
type trialRunner struct {
	s        *Simulator
	handSize int
	rules    []*RuleNode
	scratch  []string
	counts   Counts
}

func (s *Simulator) newTrialRunner(handSize int, rules []*RuleNode) *trialRunner {
	return &trialRunner{
		s:        s,
		handSize: handSize,
		rules:    rules,
		scratch:  make([]string, s.pool.Size()),
		counts:   make(Counts),
	}
}

func (tr *trialRunner) run(rng *rand.Rand) (bool, error) {
	hand, err := tr.s.pool.drawInto(rng, tr.scratch, tr.handSize)
	if err != nil {
		return false, err
	}
	if tr.s.effects.Len() > 0 {
		st := &handState{hand: hand, deck: tr.s.pool.Residual(hand)}
		hand = tr.s.resolver.resolve(rng, st, nil, nil, 0).Hand
	}
	return tr.evaluate(hand), nil
}

func (tr *trialRunner) evaluate(hand Hand) bool {
	clear(tr.counts)
	for _, c := range hand {
		tr.counts[c]++
	}
	tr.s.tags.Aggregate(tr.counts)
	return AnySatisfied(tr.rules, tr.counts)
}

// TraceResult describes one traced trial.
type TraceResult struct {
	Trial     int
	Opening   Hand
	Final     Hand
	Activated []string
	Success   bool
}

// Trace runs n trials one after another, logging every step to logger, and
// returns what happened in each. It uses its own RNG stream, separate from Run.
func (s *Simulator) Trace(ctx context.Context, n, handSize int, rules []*RuleNode, logger log.EventLogger) ([]TraceResult, error) {
	if err := s.validateRun(n, handSize); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewMemoryLogger()
	}

	rng := rand.New(rand.NewPCG(s.runSeed(), math.MaxUint64))
	scratch := make([]string, s.pool.Size())
	results := make([]TraceResult, 0, n)

	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		opening, err := s.pool.drawInto(rng, scratch, handSize)
		if err != nil {
			return nil, err
		}
		logger.Log(log.NewOpeningHandEvent(i, opening))

		tr := TraceResult{Trial: i, Opening: opening, Final: opening}
		if s.effects.Len() > 0 {
			st := &handState{hand: opening.Clone(), deck: s.pool.Residual(opening)}
			res := s.resolver.resolve(rng, st, nil, logger, i)
			tr.Final = res.Hand
			tr.Activated = res.Activated
		}
		logger.Log(log.NewFinalHandEvent(i, tr.Final))

		counts := s.tags.Aggregate(tr.Final.Counts())
		for _, rule := range rules {
			if rule.Eval(counts) {
				tr.Success = true
				logger.Log(log.NewSuccessEvent(i, rule.String()))
				break
			}
		}
		if !tr.Success {
			logger.Log(log.NewBrickEvent(i))
		}
		results = append(results, tr)
	}
	return results, nil
}
