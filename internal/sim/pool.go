package sim

import (
	"fmt"
	"math/rand/v2"
)

// FillerLabel names the anonymous cards that pad a pool up to its nominal size.
const FillerLabel = "_Generic_"

// CountEntry is one named category and how many copies of it the deck runs.
type CountEntry struct {
	Name  string
	Count int
}

// Hand is the ordered list of category labels held during one trial.
type Hand []string

// Counts tallies the hand by label.
func (h Hand) Counts() Counts {
	c := make(Counts, len(h))
	for _, name := range h {
		c[name]++
	}
	return c
}

// Clone returns an independent copy of the hand.
func (h Hand) Clone() Hand {
	out := make(Hand, len(h))
	copy(out, h)
	return out
}

// Counts maps a category or tag name to a count. Missing names read as zero.
type Counts map[string]int

// CardPool is the materialized multiset of cards a hand is drawn from.
// It is immutable once built and safe to share across goroutines.
type CardPool struct {
	nominalSize int
	contents    []CountEntry // declared categories, in declaration order
	entries     []CountEntry // contents plus the filler entry, if any
	cards       []string
	adjusted    bool
}

// NewCardPool builds a pool from category counts. If the counts add up to more than
// nominalSize the pool grows to hold them all; if they fall short the remainder is
// filled with FillerLabel copies.
func NewCardPool(nominalSize int, contents []CountEntry) (*CardPool, error) {
	if nominalSize < 0 {
		return nil, configErrorf("deck_size", "must be non-negative, got %d", nominalSize)
	}

	seen := make(map[string]int, len(contents))
	merged := make([]CountEntry, 0, len(contents))
	total := 0
	for _, e := range contents {
		if e.Count < 0 {
			return nil, configErrorf("deck_contents", "%q has negative count %d", e.Name, e.Count)
		}
		if e.Name == FillerLabel {
			return nil, configErrorf("deck_contents", "%q is reserved for filler cards", FillerLabel)
		}
		// Later duplicates add to the earlier entry so the order stays stable.
		if i, ok := seen[e.Name]; ok {
			merged[i].Count += e.Count
		} else {
			seen[e.Name] = len(merged)
			merged = append(merged, e)
		}
		total += e.Count
	}

	p := &CardPool{
		nominalSize: nominalSize,
		contents:    merged,
	}

	size := nominalSize
	if total > nominalSize {
		size = total
		p.adjusted = true
	}

	p.entries = append(p.entries, merged...)
	if filler := size - total; filler > 0 {
		p.entries = append(p.entries, CountEntry{Name: FillerLabel, Count: filler})
	}

	p.cards = make([]string, 0, size)
	for _, e := range p.entries {
		for i := 0; i < e.Count; i++ {
			p.cards = append(p.cards, e.Name)
		}
	}

	return p, nil
}

// Size returns the effective number of cards in the pool.
func (p *CardPool) Size() int {
	return len(p.cards)
}

// NominalSize returns the deck size that was requested.
func (p *CardPool) NominalSize() int {
	return p.nominalSize
}

// Adjusted reports whether declared counts exceeded the nominal size and the pool grew.
func (p *CardPool) Adjusted() bool {
	return p.adjusted
}

// Contents returns the declared categories in declaration order.
func (p *CardPool) Contents() []CountEntry {
	out := make([]CountEntry, len(p.contents))
	copy(out, p.contents)
	return out
}

// Count returns how many physical copies of name the pool holds, filler included.
func (p *CardPool) Count(name string) int {
	for _, e := range p.entries {
		if e.Name == name {
			return e.Count
		}
	}
	return 0
}

// Cards returns a copy of the materialized multiset.
func (p *CardPool) Cards() []string {
	out := make([]string, len(p.cards))
	copy(out, p.cards)
	return out
}

// DrawHand returns n cards sampled uniformly without replacement. Every physical
// card is equally likely, so labels with more copies come up proportionally more often.
func (p *CardPool) DrawHand(rng *rand.Rand, n int) (Hand, error) {
	scratch := make([]string, len(p.cards))
	return p.drawInto(rng, scratch, n)
}

// drawInto samples with a partial Fisher-Yates shuffle over scratch, which must
// have the pool's length. The returned hand aliases a fresh slice.
func (p *CardPool) drawInto(rng *rand.Rand, scratch []string, n int) (Hand, error) {
	if n < 0 || n > len(p.cards) {
		return nil, &SamplingError{Requested: n, Available: len(p.cards)}
	}
	copy(scratch, p.cards)
	for i := 0; i < n; i++ {
		j := i + rng.IntN(len(scratch)-i)
		scratch[i], scratch[j] = scratch[j], scratch[i]
	}
	hand := make(Hand, n)
	copy(hand, scratch[:n])
	return hand, nil
}

// Residual returns the cards left in the deck once hand has been drawn: for each
// category, its pool count minus its count in hand, clipped at zero.
func (p *CardPool) Residual(hand Hand) []string {
	inHand := hand.Counts()
	out := make([]string, 0, len(p.cards))
	for _, e := range p.entries {
		left := e.Count - inHand[e.Name]
		for i := 0; i < left; i++ {
			out = append(out, e.Name)
		}
	}
	return out
}

func (p *CardPool) String() string {
	return fmt.Sprintf("CardPool(%d cards, nominal %d, %d categories)", len(p.cards), p.nominalSize, len(p.contents))
}
