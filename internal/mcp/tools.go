package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/peterkuimelis/tcgodds/internal/api"
	tlog "github.com/peterkuimelis/tcgodds/internal/log"
	"github.com/peterkuimelis/tcgodds/internal/sim"
)

// maxTraceTrials bounds trace_deck output.
const maxTraceTrials = 20

// Tools serves the simulator over MCP.
type Tools struct {
	DecksFile     string
	DefaultTrials int
	Runner        *api.Runner
	Logger        *zap.Logger
}

// RegisterTools adds all simulator tools to the MCP server.
func (t *Tools) RegisterTools(s *server.MCPServer) {
	if t.Runner == nil {
		t.Runner = &api.Runner{Logger: t.Logger}
	}
	s.AddTool(listDecksTool(), t.handleListDecks)
	s.AddTool(simulateDeckTool(), t.handleSimulateDeck)
	s.AddTool(simulateTool(), t.handleSimulate)
	s.AddTool(traceDeckTool(), t.handleTraceDeck)
}

// NewServer builds an MCP server with the tools registered.
func NewServer(t *Tools) *server.MCPServer {
	s := server.NewMCPServer("tcgodds", "1.0.0")
	t.RegisterTools(s)
	return s
}

// --- Tool definitions ---

func listDecksTool() mcp.Tool {
	return mcp.NewTool("list_decks",
		mcp.WithDescription("List the deck scenarios in the decks file with their sizes, card names and number of success conditions. Read-only."),
	)
}

func simulateDeckTool() mcp.Tool {
	return mcp.NewTool("simulate_deck",
		mcp.WithDescription("Estimate how often a deck from the decks file opens with a hand that meets any of its success conditions. "+
			"Returns success and brick rates as percentages."),
		mcp.WithNumber("deck", mcp.Required(), mcp.Description("Deck number (1-indexed from decks.yaml)")),
		mcp.WithNumber("trials", mcp.Description("Number of simulated hands (defaults to the deck's own setting)")),
		mcp.WithNumber("hand_size", mcp.Description("Opening hand size (defaults to the deck's own setting)")),
		mcp.WithNumber("seed", mcp.Description("RNG seed for a reproducible run; 0 for random")),
	)
}

func simulateTool() mcp.Tool {
	return mcp.NewTool("simulate",
		mcp.WithDescription("Run a simulation from an inline JSON request with deck_size, deck_contents, hand_size, simulations, "+
			"rules (lists of {card_name, min_count, comparator, operator, group}), subcategories and effects."),
		mcp.WithString("request", mcp.Required(), mcp.Description("The simulation request as a JSON object")),
	)
}

func traceDeckTool() mcp.Tool {
	return mcp.NewTool("trace_deck",
		mcp.WithDescription("Play out a few opening hands of a deck step by step, showing draws, effect activations and which condition succeeded."),
		mcp.WithNumber("deck", mcp.Required(), mcp.Description("Deck number (1-indexed from decks.yaml)")),
		mcp.WithNumber("hands", mcp.Description(fmt.Sprintf("How many hands to trace (1-%d, default 3)", maxTraceTrials))),
		mcp.WithNumber("seed", mcp.Description("RNG seed; 0 for random")),
	)
}

// --- Tool handlers ---

func (t *Tools) handleListDecks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sf, err := sim.ParseScenarioFile(t.DecksFile)
	if err != nil {
		return mcp.NewToolResultErrorf("Could not load decks: %v", err), nil
	}
	decks := make([]api.DeckInfo, 0, len(sf.Decks))
	for i, d := range sf.Decks {
		decks = append(decks, api.NewDeckInfo(i+1, d))
	}
	return mcp.NewToolResultText(respondJSON(decks)), nil
}

func (t *Tools) handleSimulateDeck(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sc, res := t.scenario(request.GetInt("deck", 0))
	if res != nil {
		return res, nil
	}

	if trials := request.GetInt("trials", 0); trials != 0 {
		sc.Trials = &trials
	} else if sc.Trials == nil && t.DefaultTrials > 0 {
		def := t.DefaultTrials
		sc.Trials = &def
	}
	if hand := request.GetInt("hand_size", -1); hand >= 0 {
		sc.HandSize = &hand
	}
	if limit := t.Runner.MaxSimulations; limit > 0 && sc.TrialsOrDefault() > limit {
		return mcp.NewToolResultErrorf("trials must be at most %d, got %d", limit, sc.TrialsOrDefault()), nil
	}

	resp, err := t.Runner.SimulateScenario(ctx, sc, uint64(request.GetInt("seed", 0)), nil)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

func (t *Tools) handleSimulate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := request.GetString("request", "")
	var req api.SimulateRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return mcp.NewToolResultErrorf("request is not valid JSON: %v", err), nil
	}

	resp, err := t.Runner.Simulate(ctx, &req, nil)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

func (t *Tools) handleTraceDeck(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sc, res := t.scenario(request.GetInt("deck", 0))
	if res != nil {
		return res, nil
	}
	hands := request.GetInt("hands", 3)
	if hands < 1 || hands > maxTraceTrials {
		return mcp.NewToolResultErrorf("hands must be 1-%d, got %d", maxTraceTrials, hands), nil
	}

	cfg := sc.Config()
	cfg.Seed = uint64(request.GetInt("seed", 0))
	cfg.Logger = t.Logger
	s, err := sim.NewSimulator(cfg)
	if err != nil {
		return toolError(err), nil
	}
	rules, err := sc.BuildRules()
	if err != nil {
		return toolError(err), nil
	}

	logger := tlog.NewMemoryLogger()
	results, err := s.Trace(ctx, hands, sc.HandSizeOrDefault(), rules, logger)
	if err != nil {
		return toolError(err), nil
	}

	successes := 0
	for _, r := range results {
		if r.Success {
			successes++
		}
	}
	text := tlog.FormatAll(logger.Events()) + fmt.Sprintf("\n%d/%d traced hands succeeded\n", successes, len(results))
	return mcp.NewToolResultText(text), nil
}

// scenario loads deck n, or returns the tool error to send back.
func (t *Tools) scenario(n int) (sim.Scenario, *mcp.CallToolResult) {
	if n < 1 {
		return sim.Scenario{}, mcp.NewToolResultError("deck must be >= 1")
	}
	sc, err := sim.ScenarioByNumber(t.DecksFile, n)
	if err != nil {
		return sim.Scenario{}, mcp.NewToolResultErrorf("Could not load deck %d: %v", n, err)
	}
	return sc, nil
}

// toolError turns a run error into a tool result the model can act on.
func toolError(err error) *mcp.CallToolResult {
	var ce *sim.ConfigError
	if errors.As(err, &ce) && ce.Field != "" {
		return mcp.NewToolResultErrorf("Invalid %s: %s", ce.Field, ce.Reason)
	}
	return mcp.NewToolResultErrorf("Simulation failed: %v", err)
}

func respondJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"error": "marshal error: %v"}`, err)
	}
	return string(data)
}
