package sim

import (
	"errors"
	"testing"
)

// TestPoolPadsWithFiller: 15 named cards in a 20-card deck leave 5 filler copies.
func TestPoolPadsWithFiller(t *testing.T) {
	p, err := NewCardPool(20, entries("Starter", 10, "Extender", 5))
	if err != nil {
		t.Fatalf("NewCardPool: %v", err)
	}
	cards := p.Cards()
	if len(cards) != 20 {
		t.Fatalf("pool has %d cards, want 20", len(cards))
	}
	if got := countOf(cards, "Starter"); got != 10 {
		t.Errorf("Starter count = %d, want 10", got)
	}
	if got := countOf(cards, "Extender"); got != 5 {
		t.Errorf("Extender count = %d, want 5", got)
	}
	if got := countOf(cards, FillerLabel); got != 5 {
		t.Errorf("filler count = %d, want 5", got)
	}
	if p.Adjusted() {
		t.Error("pool should not be adjusted")
	}
}

// TestPoolGrowsPastNominalSize: 41 declared cards in a 40-card deck keep all 41.
func TestPoolGrowsPastNominalSize(t *testing.T) {
	p, err := NewCardPool(40, entries("Starter", 41))
	if err != nil {
		t.Fatalf("NewCardPool: %v", err)
	}
	if p.Size() != 41 {
		t.Errorf("Size() = %d, want 41", p.Size())
	}
	if p.NominalSize() != 40 {
		t.Errorf("NominalSize() = %d, want 40", p.NominalSize())
	}
	if !p.Adjusted() {
		t.Error("expected Adjusted() after growing")
	}
	if got := countOf(p.Cards(), FillerLabel); got != 0 {
		t.Errorf("filler count = %d, want 0", got)
	}
}

func TestPoolRejectsNegativeCount(t *testing.T) {
	_, err := NewCardPool(40, entries("Starter", 3, "Brick", -1))
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
	var ce *ConfigError
	if !errors.As(err, &ce) || ce.Field != "deck_contents" {
		t.Errorf("expected ConfigError on deck_contents, got %#v", err)
	}
}

func TestPoolRejectsReservedLabel(t *testing.T) {
	_, err := NewCardPool(40, entries(FillerLabel, 3))
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

// TestPoolMergesDuplicateCategories: repeated names add up in first-seen order.
func TestPoolMergesDuplicateCategories(t *testing.T) {
	p, err := NewCardPool(10, entries("A", 2, "B", 1, "A", 1))
	if err != nil {
		t.Fatalf("NewCardPool: %v", err)
	}
	got := p.Contents()
	if len(got) != 2 || got[0].Name != "A" || got[0].Count != 3 || got[1].Name != "B" {
		t.Errorf("Contents() = %v, want [{A 3} {B 1}]", got)
	}
}

func TestDrawHandSize(t *testing.T) {
	p, _ := NewCardPool(40, entries("Starter", 40))
	hand, err := p.DrawHand(seededRNG(1), 5)
	if err != nil {
		t.Fatalf("DrawHand: %v", err)
	}
	if len(hand) != 5 {
		t.Errorf("hand has %d cards, want 5", len(hand))
	}
}

func TestDrawHandTooLarge(t *testing.T) {
	p, _ := NewCardPool(10, nil)
	_, err := p.DrawHand(seededRNG(1), 11)
	if !errors.Is(err, ErrSampling) {
		t.Fatalf("expected ErrSampling, got %v", err)
	}
	var se *SamplingError
	if !errors.As(err, &se) || se.Requested != 11 || se.Available != 10 {
		t.Errorf("unexpected sampling error %#v", err)
	}
}

// TestDrawHandWholeDeck: drawing every card returns the pool as a permutation.
func TestDrawHandWholeDeck(t *testing.T) {
	p, _ := NewCardPool(6, entries("A", 2, "B", 3))
	hand, err := p.DrawHand(seededRNG(7), 6)
	if err != nil {
		t.Fatalf("DrawHand: %v", err)
	}
	c := hand.Counts()
	if c["A"] != 2 || c["B"] != 3 || c[FillerLabel] != 1 {
		t.Errorf("hand counts = %v", c)
	}
}

// TestDrawHandWeightsByCopies: a label with 3 of 4 cards shows up about 3/4 of
// the time as a single-card draw.
func TestDrawHandWeightsByCopies(t *testing.T) {
	p, _ := NewCardPool(4, entries("Common", 3, "Rare", 1))
	rng := seededRNG(99)
	common := 0
	const n = 40000
	for i := 0; i < n; i++ {
		hand, _ := p.DrawHand(rng, 1)
		if hand[0] == "Common" {
			common++
		}
	}
	assertRate(t, float64(common)/n*100, 75, 1.5)
}

// TestResidualSubtractsOnlyDrawnCopies: with 3 Pot of Greed and one in hand,
// two remain in the deck.
func TestResidualSubtractsOnlyDrawnCopies(t *testing.T) {
	p, _ := NewCardPool(40, entries("Pot of Greed", 3, "Other", 37))
	hand := Hand{"Pot of Greed", "Other", "Other", "Other", "Other"}
	rest := p.Residual(hand)
	if got := countOf(rest, "Pot of Greed"); got != 2 {
		t.Errorf("Pot of Greed remaining = %d, want 2", got)
	}
	if got := countOf(rest, "Other"); got != 33 {
		t.Errorf("Other remaining = %d, want 33", got)
	}
	if len(rest) != 35 {
		t.Errorf("residual has %d cards, want 35", len(rest))
	}
}

// TestResidualKeepsFillerAndClips: filler copies stay in the deck, and labels
// the pool does not hold never go negative.
func TestResidualKeepsFillerAndClips(t *testing.T) {
	p, _ := NewCardPool(10, entries("Starter", 2))
	hand := Hand{"Starter", "Starter", "Starter", FillerLabel, "Ghost"}
	rest := p.Residual(hand)
	if got := countOf(rest, "Starter"); got != 0 {
		t.Errorf("Starter remaining = %d, want 0", got)
	}
	if got := countOf(rest, FillerLabel); got != 7 {
		t.Errorf("filler remaining = %d, want 7", got)
	}
	if got := countOf(rest, "Ghost"); got != 0 {
		t.Errorf("unknown label should not appear, got %d", got)
	}
}
