package sim

import (
	"math/rand/v2"
	"sort"

	"github.com/peterkuimelis/tcgodds/internal/log"
)

// Resolver applies registered effects to one trial's opening hand.
type Resolver struct {
	effects *EffectRegistry
	tags    *SubcategoryIndex
}

// NewResolver returns a resolver over effects, filtering discards through tags.
func NewResolver(effects *EffectRegistry, tags *SubcategoryIndex) *Resolver {
	return &Resolver{effects: effects, tags: tags}
}

// Resolution is the outcome of resolving one trial.
type Resolution struct {
	Hand      Hand
	Deck      []string
	Activated []string // categories whose once-per-turn slot was consumed, in order
	Outcomes  []EffectOutcome

	// DepthExceeded is always false: resolution is a single pass and cards
	// drawn by effects never trigger.
	DepthExceeded bool
}

// Resolve runs the two-phase pass over hand and deck. used holds categories that
// have already activated this turn; it is updated in place and may be nil.
// hand and deck are not modified.
func (r *Resolver) Resolve(rng *rand.Rand, hand Hand, deck []string, used map[string]bool) Resolution {
	st := &handState{
		hand: hand.Clone(),
		deck: append([]string(nil), deck...),
	}
	return r.resolve(rng, st, used, nil, 0)
}

// eligibleTriggers returns the distinct categories in hand that have an effect,
// in lexicographic order. That order is the tie-break when two effects of the
// same phase compete for the last cards in the deck.
func (r *Resolver) eligibleTriggers(hand Hand) []string {
	seen := make(map[string]bool, len(hand))
	var out []string
	for _, card := range hand {
		if seen[card] {
			continue
		}
		seen[card] = true
		if _, ok := r.effects.Lookup(card); ok {
			out = append(out, card)
		}
	}
	sort.Strings(out)
	return out
}

// resolve is the shared implementation. trace may be nil; trial numbers events.
func (r *Resolver) resolve(rng *rand.Rand, st *handState, used map[string]bool, trace log.EventLogger, trial int) Resolution {
	if used == nil {
		used = make(map[string]bool)
	}
	res := Resolution{}

	// Only cards in the opening hand trigger; later draws never do.
	triggers := r.eligibleTriggers(st.hand)

	// Phase 1: every draw effect resolves before any discard filter looks at the hand.
	for _, card := range triggers {
		eff, _ := r.effects.Lookup(card)
		if eff.Kind != EffectDraw || used[card] {
			continue
		}
		r.activate(rng, st, card, eff, log.StageDraws, &res, trace, trial)
		used[card] = true
	}

	// Phase 2: the remaining effects see the post-draw hand.
	for _, card := range triggers {
		eff, _ := r.effects.Lookup(card)
		if eff.Kind == EffectDraw || used[card] {
			continue
		}
		r.activate(rng, st, card, eff, log.StageEffects, &res, trace, trial)
		used[card] = true
	}

	res.Hand = st.hand
	res.Deck = st.deck
	return res
}

func (r *Resolver) activate(rng *rand.Rand, st *handState, card string, eff Effect, stage string, res *Resolution, trace log.EventLogger, trial int) {
	res.Activated = append(res.Activated, card)

	if !eff.CanActivate(st.hand, st.deck) {
		res.Outcomes = append(res.Outcomes, EffectOutcome{Card: card, Kind: eff.Kind})
		if trace != nil {
			trace.Log(log.NewCannotActivateEvent(trial, stage, card, eff.DrawsNeeded(), len(st.deck)))
		}
		return
	}

	if trace != nil {
		trace.Log(log.NewActivateEvent(trial, stage, card))
	}
	out := eff.apply(rng, st, r.tags)
	out.Card = card
	res.Outcomes = append(res.Outcomes, out)

	if trace == nil {
		return
	}
	if out.Reverted {
		trace.Log(log.NewRevertEvent(trial, stage, card, eff.DiscardFilter, out.Matched, eff.DiscardCount))
		return
	}
	trace.Log(log.NewEffectDrawEvent(trial, stage, card, out.Drawn))
	for _, d := range out.Discarded {
		trace.Log(log.NewDiscardEvent(trial, stage, card, d))
	}
}
