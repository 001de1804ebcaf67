package sim

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultHandSize = 5
	DefaultTrials   = 10000
)

// ScenarioFile represents the top-level YAML structure.
type ScenarioFile struct {
	Decks []Scenario `yaml:"decks"`
}

// Scenario is a deck plus the question asked about it.
type Scenario struct {
	Name     string               `yaml:"name"`
	Size     int                  `yaml:"size"` // 0 = sum of card counts
	HandSize *int                 `yaml:"hand_size"`
	Trials   *int                 `yaml:"trials"`
	Cards    []CardEntry          `yaml:"cards"`
	Tags     map[string][]string  `yaml:"tags"`
	Effects  []EffectEntry        `yaml:"effects"`
	Rules    [][]RequirementEntry `yaml:"rules"`
}

// CardEntry represents a card category, its count, and the tags it carries.
type CardEntry struct {
	Name  string   `yaml:"name"`
	Count int      `yaml:"count"`
	Tags  []string `yaml:"tags"`
}

// EffectEntry is the file form of an effect definition.
type EffectEntry struct {
	Card          string `yaml:"card"`
	Type          string `yaml:"type"`
	Count         *int   `yaml:"count"`
	DrawCount     *int   `yaml:"draw_count"`
	DiscardFilter string `yaml:"discard_filter"`
	DiscardCount  *int   `yaml:"discard_count"`
}

// RequirementEntry is the file form of one requirement. A nil Card with no
// Group is a null leaf and always holds.
type RequirementEntry struct {
	Card       *string            `yaml:"card"`
	Count      int                `yaml:"count"`
	Comparator string             `yaml:"comparator"`
	Operator   string             `yaml:"operator"`
	Group      []RequirementEntry `yaml:"group"`
}

// ParseScenarios decodes a scenario document. JSON is accepted as well.
func ParseScenarios(data []byte) (*ScenarioFile, error) {
	var sf ScenarioFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}
	return &sf, nil
}

// ParseScenarioFile reads and decodes the scenario file at path.
func ParseScenarioFile(path string) (*ScenarioFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenarios(data)
}

// ScenarioByNumber returns the Nth scenario (1-indexed) from the file at path.
func ScenarioByNumber(path string, n int) (Scenario, error) {
	sf, err := ParseScenarioFile(path)
	if err != nil {
		return Scenario{}, err
	}
	if n < 1 || n > len(sf.Decks) {
		return Scenario{}, fmt.Errorf("deck %d not found (have %d decks)", n, len(sf.Decks))
	}
	return sf.Decks[n-1], nil
}

// TotalCards returns the sum of the card counts.
func (sc Scenario) TotalCards() int {
	total := 0
	for _, c := range sc.Cards {
		total += c.Count
	}
	return total
}

// HandSizeOrDefault returns the configured hand size or DefaultHandSize.
func (sc Scenario) HandSizeOrDefault() int {
	if sc.HandSize == nil {
		return DefaultHandSize
	}
	return *sc.HandSize
}

// TrialsOrDefault returns the configured trial count or DefaultTrials.
func (sc Scenario) TrialsOrDefault() int {
	if sc.Trials == nil {
		return DefaultTrials
	}
	return *sc.Trials
}

// Config converts the scenario to a simulator config. Per-card tags are merged
// into the explicit tag map.
func (sc Scenario) Config() Config {
	size := sc.Size
	if size == 0 {
		size = sc.TotalCards()
	}

	cfg := Config{
		DeckSize: size,
		Contents: make([]CountEntry, 0, len(sc.Cards)),
		Tags:     make(map[string][]string, len(sc.Tags)),
	}
	for tag, members := range sc.Tags {
		cfg.Tags[tag] = append([]string(nil), members...)
	}
	for _, c := range sc.Cards {
		cfg.Contents = append(cfg.Contents, CountEntry{Name: c.Name, Count: c.Count})
		for _, tag := range c.Tags {
			cfg.Tags[tag] = append(cfg.Tags[tag], c.Name)
		}
	}
	for _, e := range sc.Effects {
		cfg.Effects = append(cfg.Effects, EffectDefinition{
			Trigger: e.Card,
			Kind:    e.Type,
			Parameters: EffectParams{
				Count:         e.Count,
				DrawCount:     e.DrawCount,
				DiscardFilter: e.DiscardFilter,
				DiscardCount:  e.DiscardCount,
			},
		})
	}
	return cfg
}

// Requirements converts file entries to requirements.
func Requirements(entries []RequirementEntry) ([]Requirement, error) {
	if entries == nil {
		return nil, nil
	}
	out := make([]Requirement, 0, len(entries))
	for i, e := range entries {
		cmp, err := ParseComparator(e.Comparator)
		if err != nil {
			return nil, fmt.Errorf("requirement %d: %w", i+1, err)
		}
		conn, err := ParseConnective(e.Operator)
		if err != nil {
			return nil, fmt.Errorf("requirement %d: %w", i+1, err)
		}
		r := Requirement{
			Target:     e.Card,
			Threshold:  e.Count,
			Comparator: cmp,
			Next:       conn,
		}
		if e.Group != nil {
			group, err := Requirements(e.Group)
			if err != nil {
				return nil, fmt.Errorf("requirement %d: %w", i+1, err)
			}
			r.Group = group
		}
		out = append(out, r)
	}
	return out, nil
}

// BuildRules builds one rule tree per condition list of the scenario.
func (sc Scenario) BuildRules() ([]*RuleNode, error) {
	conditions := make([][]Requirement, 0, len(sc.Rules))
	for i, entries := range sc.Rules {
		reqs, err := Requirements(entries)
		if err != nil {
			return nil, fmt.Errorf("condition %d: %w", i+1, err)
		}
		conditions = append(conditions, reqs)
	}
	return BuildRules(conditions), nil
}
