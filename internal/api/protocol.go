package api

import (
	"sort"

	"github.com/peterkuimelis/tcgodds/internal/sim"
)

// Message types for the JSON protocol shared by the HTTP, WebSocket and MCP surfaces.

// --- Client → Server ---

// SimulateRequest asks for one simulation run.
type SimulateRequest struct {
	DeckSize      int                 `json:"deck_size" validate:"gte=0"`
	DeckContents  map[string]int      `json:"deck_contents" validate:"dive,keys,required,endkeys,gte=0"`
	HandSize      int                 `json:"hand_size" validate:"gte=0"`
	Simulations   int                 `json:"simulations" validate:"gte=1"`
	Rules         [][]RuleItem        `json:"rules" validate:"dive,dive"`
	Subcategories map[string][]string `json:"subcategories,omitempty" validate:"dive,keys,required,endkeys,dive,required"`
	Effects       []EffectItem        `json:"effects,omitempty" validate:"dive"`
	Seed          uint64              `json:"seed,omitempty"`
}

// RuleItem is one entry of a condition list. A null card_name without a
// group always holds.
type RuleItem struct {
	CardName   *string    `json:"card_name"`
	MinCount   int        `json:"min_count" validate:"gte=0"`
	Comparator string     `json:"comparator,omitempty" validate:"omitempty,oneof=>= == = at_least exactly"`
	Operator   string     `json:"operator,omitempty" validate:"omitempty,oneof=AND OR and or"`
	Group      []RuleItem `json:"group,omitempty" validate:"omitempty,dive"`
}

// EffectItem binds an effect to the card that triggers it.
type EffectItem struct {
	CardName   string      `json:"card_name" validate:"required"`
	EffectType string      `json:"effect_type" validate:"required,oneof=draw conditional_discard"`
	Parameters EffectParam `json:"parameters"`
}

// EffectParam holds effect parameters. Omitted counts default to 1.
type EffectParam struct {
	Count         *int   `json:"count,omitempty" validate:"omitempty,gte=0"`
	DrawCount     *int   `json:"draw_count,omitempty" validate:"omitempty,gte=0"`
	DiscardFilter string `json:"discard_filter,omitempty"`
	DiscardCount  *int   `json:"discard_count,omitempty" validate:"omitempty,gte=0"`
}

// ClientMessage is the envelope for WebSocket client messages.
type ClientMessage struct {
	Type string `json:"type"` // "simulate"

	Request *SimulateRequest `json:"request,omitempty"`
}

// --- Server → Client ---

// SimulateResponse is the result of one run.
type SimulateResponse struct {
	RunID        string   `json:"run_id"`
	SuccessRate  float64  `json:"success_rate"`
	BrickRate    float64  `json:"brick_rate"`
	SuccessCount int      `json:"success_count"`
	BrickCount   int      `json:"brick_count"`
	Simulations  int      `json:"simulations"`
	TimeTaken    float64  `json:"time_taken"` // seconds
	Warnings     []string `json:"warnings,omitempty"`
	Notes        []string `json:"notes,omitempty"`
}

// ProgressView reports a partially finished run.
type ProgressView struct {
	RunID     string `json:"run_id"`
	Done      int    `json:"done"`
	Successes int    `json:"successes"`
	Total     int    `json:"total"`
}

// DeckInfo summarizes one scenario of a deck file.
type DeckInfo struct {
	Number   int      `json:"number"`
	Name     string   `json:"name"`
	Size     int      `json:"size"`
	HandSize int      `json:"hand_size"`
	Cards    []string `json:"cards"`
	Effects  int      `json:"effects"`
	Rules    int      `json:"rules"`
}

// ServerMessage is the envelope for WebSocket server messages.
type ServerMessage struct {
	Type string `json:"type"` // "progress", "result" or "error"

	// For "progress"
	Progress *ProgressView `json:"progress,omitempty"`

	// For "result"
	Result *SimulateResponse `json:"result,omitempty"`

	// For "error"
	Error string `json:"error,omitempty"`
	Field string `json:"field,omitempty"`
}

// --- Conversions ---

// Scenario converts the request to a scenario. Deck contents are ordered by
// name so the same request always builds the same pool.
func (r *SimulateRequest) Scenario() sim.Scenario {
	handSize, trials := r.HandSize, r.Simulations
	sc := sim.Scenario{
		Name:     "request",
		Size:     r.DeckSize,
		HandSize: &handSize,
		Trials:   &trials,
		Tags:     r.Subcategories,
	}

	names := make([]string, 0, len(r.DeckContents))
	for name := range r.DeckContents {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sc.Cards = append(sc.Cards, sim.CardEntry{Name: name, Count: r.DeckContents[name]})
	}

	for _, e := range r.Effects {
		sc.Effects = append(sc.Effects, sim.EffectEntry{
			Card:          e.CardName,
			Type:          e.EffectType,
			Count:         e.Parameters.Count,
			DrawCount:     e.Parameters.DrawCount,
			DiscardFilter: e.Parameters.DiscardFilter,
			DiscardCount:  e.Parameters.DiscardCount,
		})
	}
	for _, cond := range r.Rules {
		sc.Rules = append(sc.Rules, requirementEntries(cond))
	}
	return sc
}

func requirementEntries(items []RuleItem) []sim.RequirementEntry {
	if items == nil {
		return nil
	}
	out := make([]sim.RequirementEntry, 0, len(items))
	for _, it := range items {
		out = append(out, sim.RequirementEntry{
			Card:       it.CardName,
			Count:      it.MinCount,
			Comparator: it.Comparator,
			Operator:   it.Operator,
			Group:      requirementEntries(it.Group),
		})
	}
	return out
}

// NewSimulateResponse converts a finished run.
func NewSimulateResponse(runID string, res *sim.SimulationResult) *SimulateResponse {
	return &SimulateResponse{
		RunID:        runID,
		SuccessRate:  res.SuccessRate,
		BrickRate:    res.FailureRate,
		SuccessCount: res.Successes,
		BrickCount:   res.Failures,
		Simulations:  res.Trials,
		TimeTaken:    res.Elapsed.Seconds(),
		Warnings:     res.Warnings,
		Notes:        res.Notes,
	}
}

// NewDeckInfo summarizes scenario number n (1-indexed).
func NewDeckInfo(n int, sc sim.Scenario) DeckInfo {
	di := DeckInfo{
		Number:   n,
		Name:     sc.Name,
		Size:     sc.Config().DeckSize,
		HandSize: sc.HandSizeOrDefault(),
		Effects:  len(sc.Effects),
		Rules:    len(sc.Rules),
	}
	seen := make(map[string]bool)
	for _, c := range sc.Cards {
		if !seen[c.Name] {
			di.Cards = append(di.Cards, c.Name)
			seen[c.Name] = true
		}
	}
	return di
}
