package api

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/peterkuimelis/tcgodds/internal/sim"
)

const requestJSON = `{
  "deck_size": 40,
  "deck_contents": {"Ash Blossom": 3, "Pot of Greed": 2, "Called by the Grave": 2},
  "hand_size": 5,
  "simulations": 4000,
  "subcategories": {"Quick-Play": ["Called by the Grave"]},
  "effects": [
    {"card_name": "Pot of Greed", "effect_type": "draw", "parameters": {"count": 2}}
  ],
  "rules": [
    [{"card_name": "Ash Blossom", "min_count": 1, "operator": "OR"}, {"card_name": "Quick-Play", "min_count": 1}],
    [{"card_name": null}]
  ],
  "seed": 11
}`

func decodeRequest(t *testing.T, doc string) *SimulateRequest {
	t.Helper()
	var req SimulateRequest
	if err := json.Unmarshal([]byte(doc), &req); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	return &req
}

func TestRequestScenario(t *testing.T) {
	req := decodeRequest(t, requestJSON)
	if err := req.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	sc := req.Scenario()

	wantCards := []sim.CardEntry{
		{Name: "Ash Blossom", Count: 3},
		{Name: "Called by the Grave", Count: 2},
		{Name: "Pot of Greed", Count: 2},
	}
	if diff := cmp.Diff(wantCards, sc.Cards); diff != "" {
		t.Errorf("cards mismatch (-want +got):\n%s", diff)
	}
	if sc.HandSizeOrDefault() != 5 || sc.TrialsOrDefault() != 4000 || sc.Size != 40 {
		t.Errorf("unexpected scenario header %+v", sc)
	}

	rules, err := sc.BuildRules()
	if err != nil {
		t.Fatalf("BuildRules: %v", err)
	}
	if got := rules[0].String(); got != "(Ash Blossom >= 1 OR Quick-Play >= 1)" {
		t.Errorf("rule 0 = %q", got)
	}
	if rules[1].Kind != sim.NodeAlwaysTrue {
		t.Errorf("null card should build an always-true rule, got %s", rules[1])
	}
}

func TestValidateReportsJSONField(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		field string
	}{
		{"zero simulations", `{"deck_size": 40, "hand_size": 5, "simulations": 0}`, "simulations"},
		{"negative count", `{"deck_size": 40, "hand_size": 5, "simulations": 10, "deck_contents": {"A": -1}}`, "deck_contents[A]"},
		{"bad comparator", `{"deck_size": 40, "hand_size": 5, "simulations": 10, "rules": [[{"card_name": "A", "comparator": "<"}]]}`, "rules[0][0].comparator"},
		{"unknown effect", `{"deck_size": 40, "hand_size": 5, "simulations": 10, "effects": [{"card_name": "A", "effect_type": "banish"}]}`, "effects[0].effect_type"},
		{"missing trigger", `{"deck_size": 40, "hand_size": 5, "simulations": 10, "effects": [{"effect_type": "draw"}]}`, "effects[0].card_name"},
		{"too many", `{"deck_size": 40, "hand_size": 5, "simulations": 2000000}`, "simulations"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := decodeRequest(t, tt.doc).Validate()
			var ce *sim.ConfigError
			if !errors.As(err, &ce) || !errors.Is(err, sim.ErrConfig) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if ce.Field != tt.field {
				t.Errorf("Field = %q, want %q", ce.Field, tt.field)
			}
		})
	}
}

func TestRunnerSimulate(t *testing.T) {
	var last ProgressView
	rn := &Runner{Workers: 2}
	resp, err := rn.Simulate(context.Background(), decodeRequest(t, requestJSON), func(p ProgressView) { last = p })
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if _, err := uuid.Parse(resp.RunID); err != nil {
		t.Errorf("run_id %q is not a UUID: %v", resp.RunID, err)
	}
	// The second condition is always true.
	if resp.SuccessCount != 4000 || resp.BrickCount != 0 || resp.SuccessRate != 100 {
		t.Errorf("unexpected response %+v", resp)
	}
	if last.RunID != resp.RunID || last.Done != 4000 {
		t.Errorf("final progress %+v", last)
	}
}

func TestRunnerRejectsOversizedHand(t *testing.T) {
	rn := &Runner{}
	req := decodeRequest(t, `{"deck_size": 10, "hand_size": 11, "simulations": 10}`)
	_, err := rn.Simulate(context.Background(), req, nil)
	var ce *sim.ConfigError
	if !errors.As(err, &ce) || ce.Field != "hand_size" {
		t.Fatalf("expected hand_size ConfigError, got %v", err)
	}
}

func TestResponseJSONShape(t *testing.T) {
	resp := NewSimulateResponse("abc", &sim.SimulationResult{Trials: 10, Successes: 4, Failures: 6, SuccessRate: 40, FailureRate: 60})
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"run_id", "success_rate", "brick_rate", "success_count", "brick_count", "time_taken"} {
		if _, ok := m[key]; !ok {
			t.Errorf("response JSON missing %q: %s", key, data)
		}
	}
}
