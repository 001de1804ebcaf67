package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/peterkuimelis/tcgodds/internal/api"
)

const testDecks = `
decks:
  - name: Ash Check
    size: 40
    hand_size: 5
    trials: 3000
    cards:
      - name: Ash Blossom
        count: 3
    rules:
      - - card: Ash Blossom
          count: 1
  - name: Sure Thing
    size: 10
    cards:
      - name: A
        count: 10
    rules:
      - - card: A
          count: 1
`

const simulateBody = `{"deck_size": 40, "deck_contents": {"Starter": 12}, "hand_size": 5, "simulations": 2000,
"rules": [[{"card_name": "Starter", "min_count": 1}]], "seed": 5}`

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "decks.yaml")
	if err := os.WriteFile(path, []byte(testDecks), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewServer(Options{DecksFile: path, Workers: 2, MaxSimulations: 100000, Timeout: 30 * time.Second})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func post(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func TestListDecks(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/decks")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var decks []api.DeckInfo
	if err := json.NewDecoder(resp.Body).Decode(&decks); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decks) != 2 || decks[0].Name != "Ash Check" || decks[1].Number != 2 || decks[1].Size != 10 {
		t.Errorf("unexpected decks %+v", decks)
	}
}

func TestSimulateEndpoint(t *testing.T) {
	s, ts := newTestServer(t)
	resp, data := post(t, ts.URL+"/api/simulate", simulateBody)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, data)
	}
	var out api.SimulateResponse
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.SuccessCount+out.BrickCount != 2000 || out.RunID == "" {
		t.Errorf("unexpected response %+v", out)
	}
	if got := testutil.ToFloat64(s.metrics.runsTotal.WithLabelValues("http", "ok")); got != 1 {
		t.Errorf("runs_total{http,ok} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(s.metrics.trialsTotal); got != 2000 {
		t.Errorf("trials_total = %v, want 2000", got)
	}
}

func TestSimulateEndpointErrors(t *testing.T) {
	s, ts := newTestServer(t)
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"hand too large", `{"deck_size": 10, "hand_size": 11, "simulations": 10}`, "hand_size"},
		{"zero simulations", `{"deck_size": 40, "hand_size": 5, "simulations": 0}`, "simulations"},
		{"over server limit", `{"deck_size": 40, "hand_size": 5, "simulations": 100001}`, "simulations"},
		{"bad operator", `{"deck_size": 40, "hand_size": 5, "simulations": 10, "rules": [[{"card_name": "A", "operator": "XOR"}]]}`, "rules[0][0].operator"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := post(t, ts.URL+"/api/simulate", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status %d, want 400: %s", resp.StatusCode, data)
			}
			var body errorBody
			if err := json.Unmarshal(data, &body); err != nil {
				t.Fatal(err)
			}
			if body.Field != tt.field {
				t.Errorf("field = %q, want %q (%s)", body.Field, tt.field, body.Error)
			}
		})
	}

	resp, _ := post(t, ts.URL+"/api/simulate", `{"deck_size": `)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed JSON: status %d, want 400", resp.StatusCode)
	}
	if got := testutil.ToFloat64(s.metrics.runsTotal.WithLabelValues("http", "invalid")); got != 5 {
		t.Errorf("runs_total{http,invalid} = %v, want 5", got)
	}
}

func TestDeckSimulateEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	resp, data := post(t, ts.URL+"/api/decks/2/simulate?trials=500&seed=9", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, data)
	}
	var out api.SimulateResponse
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.SuccessCount != 500 || out.SuccessRate != 100 {
		t.Errorf("unexpected response %+v", out)
	}

	resp, _ = post(t, ts.URL+"/api/decks/7/simulate", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing deck: status %d, want 404", resp.StatusCode)
	}
	resp, _ = post(t, ts.URL+"/api/decks/1/simulate?seed=-1", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad seed: status %d, want 400", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	post(t, ts.URL+"/api/simulate", simulateBody)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	for _, name := range []string{"tcgodds_runs_total", "tcgodds_trials_total", "tcgodds_run_duration_seconds"} {
		if !strings.Contains(string(data), name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}

func TestWebSocketStreamsResult(t *testing.T) {
	_, ts := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	var req api.SimulateRequest
	if err := json.Unmarshal([]byte(simulateBody), &req); err != nil {
		t.Fatal(err)
	}
	if err := wsjson.Write(ctx, conn, api.ClientMessage{Type: "simulate", Request: &req}); err != nil {
		t.Fatalf("write: %v", err)
	}

	for {
		var msg api.ServerMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		switch msg.Type {
		case "progress":
			if msg.Progress == nil || msg.Progress.Total != 2000 {
				t.Errorf("bad progress message %+v", msg.Progress)
			}
		case "result":
			if msg.Result == nil || msg.Result.Simulations != 2000 {
				t.Fatalf("bad result %+v", msg.Result)
			}
			return
		default:
			t.Fatalf("unexpected message %+v", msg)
		}
	}
}

func TestWebSocketReportsConfigError(t *testing.T) {
	_, ts := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	req := api.SimulateRequest{DeckSize: 10, HandSize: 11, Simulations: 5}
	if err := wsjson.Write(ctx, conn, api.ClientMessage{Type: "simulate", Request: &req}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var msg api.ServerMessage
	if err := wsjson.Read(ctx, conn, &msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "error" || msg.Field != "hand_size" {
		t.Errorf("unexpected message %+v", msg)
	}
}

func TestErrorResponseMapping(t *testing.T) {
	if status, _ := errorResponse(context.DeadlineExceeded); status != http.StatusGatewayTimeout {
		t.Errorf("deadline: status %d", status)
	}
	if status, _ := errorResponse(io.ErrUnexpectedEOF); status != http.StatusInternalServerError {
		t.Errorf("other: status %d", status)
	}
}
