package sim

import (
	"math/rand/v2"
	"strings"
)

// EffectKind identifies the variant held by an Effect.
type EffectKind int

const (
	EffectDraw               EffectKind = iota // draw N cards
	EffectConditionalDiscard                   // draw N, then discard M cards of a tag or undo the draw
)

func (k EffectKind) String() string {
	switch k {
	case EffectDraw:
		return "draw"
	case EffectConditionalDiscard:
		return "conditional_discard"
	default:
		return "unknown"
	}
}

// ParseEffectKind maps the wire name of an effect to its kind.
func ParseEffectKind(s string) (EffectKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "draw":
		return EffectDraw, nil
	case "conditional_discard":
		return EffectConditionalDiscard, nil
	default:
		return EffectDraw, configErrorf("effect_type", "unknown effect type %q", s)
	}
}

// Effect is a card ability that fires from the opening hand. All effects are
// once per turn: a category activates at most once per trial.
type Effect struct {
	Kind EffectKind

	// Draw
	Count int

	// ConditionalDiscard
	DrawCount     int
	DiscardFilter string // tag whose members may be discarded
	DiscardCount  int
}

// DrawEffect returns an effect that draws count cards.
func DrawEffect(count int) Effect {
	return Effect{Kind: EffectDraw, Count: count}
}

// ConditionalDiscardEffect returns an effect that draws drawCount cards and then
// must discard discardCount cards belonging to filter.
func ConditionalDiscardEffect(drawCount int, filter string, discardCount int) Effect {
	return Effect{Kind: EffectConditionalDiscard, DrawCount: drawCount, DiscardFilter: filter, DiscardCount: discardCount}
}

// Validate rejects negative parameters.
func (e Effect) Validate() error {
	switch e.Kind {
	case EffectDraw:
		if e.Count < 0 {
			return configErrorf("count", "must be non-negative, got %d", e.Count)
		}
	case EffectConditionalDiscard:
		if e.DrawCount < 0 {
			return configErrorf("draw_count", "must be non-negative, got %d", e.DrawCount)
		}
		if e.DiscardCount < 0 {
			return configErrorf("discard_count", "must be non-negative, got %d", e.DiscardCount)
		}
	default:
		return configErrorf("effect_type", "unknown effect kind %d", e.Kind)
	}
	return nil
}

// DrawsNeeded returns how many cards the effect takes from the deck.
func (e Effect) DrawsNeeded() int {
	if e.Kind == EffectConditionalDiscard {
		return e.DrawCount
	}
	return e.Count
}

// CanActivate checks whether the deck holds enough cards for the effect's draw.
func (e Effect) CanActivate(hand Hand, deck []string) bool {
	return len(deck) >= e.DrawsNeeded()
}

// EffectOutcome records what one application of an effect did.
type EffectOutcome struct {
	Card      string
	Kind      EffectKind
	Applied   bool // false when CanActivate failed or the discard condition was not met
	Drawn     []string
	Discarded []string
	Reverted  bool
	Matched   int // filter matches found in the post-draw hand
}

// handState is the hand and remaining deck shared by all effects of one trial.
// Drawn cards are swapped to the tail of deck and the slice shrinks, so the
// removed cards stay in the backing array until the next draw overwrites them.
type handState struct {
	hand Hand
	deck []string
}

// draw moves n uniformly random deck cards into the hand.
func (st *handState) draw(rng *rand.Rand, n int) []string {
	start := len(st.hand)
	for i := 0; i < n && len(st.deck) > 0; i++ {
		last := len(st.deck) - 1
		j := rng.IntN(len(st.deck))
		st.deck[j], st.deck[last] = st.deck[last], st.deck[j]
		st.hand = append(st.hand, st.deck[last])
		st.deck = st.deck[:last]
	}
	return st.hand[start:len(st.hand):len(st.hand)]
}

// apply runs the effect against st. Callers check CanActivate first.
func (e Effect) apply(rng *rand.Rand, st *handState, tags *SubcategoryIndex) EffectOutcome {
	out := EffectOutcome{Kind: e.Kind}
	switch e.Kind {
	case EffectDraw:
		if !e.CanActivate(st.hand, st.deck) {
			return out
		}
		out.Drawn = append([]string(nil), st.draw(rng, e.Count)...)
		out.Applied = true

	case EffectConditionalDiscard:
		if !e.CanActivate(st.hand, st.deck) {
			return out
		}
		handLen, deckLen := len(st.hand), len(st.deck)
		drawn := append([]string(nil), st.draw(rng, e.DrawCount)...)

		// First matches in hand order are discarded first.
		var picks []int
		for i, card := range st.hand {
			if len(picks) == e.DiscardCount {
				break
			}
			if tags.Contains(e.DiscardFilter, card) {
				picks = append(picks, i)
			}
		}

		out.Matched = len(picks)
		if len(picks) < e.DiscardCount {
			// Restore the state from entry to this effect. The deck slice regrows
			// over the cards just drawn, which are still in its backing array.
			st.hand = st.hand[:handLen]
			st.deck = st.deck[:deckLen]
			out.Reverted = true
			return out
		}

		kept := st.hand[:0:0]
		next := 0
		for i, card := range st.hand {
			if next < len(picks) && picks[next] == i {
				out.Discarded = append(out.Discarded, card)
				next++
				continue
			}
			kept = append(kept, card)
		}
		st.hand = kept
		out.Drawn = drawn
		out.Applied = true
	}
	return out
}
