package sim

import (
	"math"
	"math/rand/v2"
	"testing"
)

// --- Test builders ---

func seededRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0))
}

func entries(kv ...any) []CountEntry {
	var out []CountEntry
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, CountEntry{Name: kv[i].(string), Count: kv[i+1].(int)})
	}
	return out
}

func newTestSimulator(t *testing.T, cfg Config) *Simulator {
	t.Helper()
	if cfg.Seed == 0 {
		cfg.Seed = 20240601 // deterministic tests
	}
	s, err := NewSimulator(cfg)
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	return s
}

func atLeast(target string, n int) *RuleNode {
	return Leaf(target, n, AtLeast)
}

func exactly(target string, n int) *RuleNode {
	return Leaf(target, n, Exactly)
}

// residualOf computes the deck left after hand, the way the simulator does.
func residualOf(t *testing.T, s *Simulator, hand Hand) []string {
	t.Helper()
	return s.Pool().Residual(hand)
}

func countOf(cards []string, name string) int {
	n := 0
	for _, c := range cards {
		if c == name {
			n++
		}
	}
	return n
}

// binomial returns C(n, k) as a float.
func binomial(n, k int) float64 {
	if k < 0 || k > n {
		return 0
	}
	r := 1.0
	for i := 1; i <= k; i++ {
		r *= float64(n-k+i) / float64(i)
	}
	return r
}

// hypergeomAtLeastOne is P(at least one of k copies in an h-card hand from n).
func hypergeomAtLeastOne(n, k, h int) float64 {
	return 1 - binomial(n-k, h)/binomial(n, h)
}

func assertRate(t *testing.T, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("success rate %.2f%%, want %.2f%% ± %.2f", got, want, tol)
	}
}
