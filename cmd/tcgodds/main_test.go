package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

const testDecks = `
decks:
  - name: Always
    size: 10
    trials: 200
    cards:
      - name: A
        count: 10
    rules:
      - - card: A
          count: 1
  - name: Never
    size: 40
    cards:
      - name: B
        count: 1
    rules:
      - - card: B
          count: 2
`

func writeDecks(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "decks.yaml")
	if err := os.WriteFile(path, []byte(testDecks), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunSimulate(t *testing.T) {
	var out bytes.Buffer
	opts := simulateOptions{decksFile: writeDecks(t), deck: 1, handSize: -1, seed: 1}
	if err := runSimulate(context.Background(), &out, opts, zap.NewNop()); err != nil {
		t.Fatalf("runSimulate: %v", err)
	}
	if !strings.Contains(out.String(), "Success: 200/200 (100.00%)") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestRunSimulateOverrides(t *testing.T) {
	var out bytes.Buffer
	opts := simulateOptions{decksFile: writeDecks(t), deck: 2, trials: 300, handSize: 7, seed: 1}
	if err := runSimulate(context.Background(), &out, opts, zap.NewNop()); err != nil {
		t.Fatalf("runSimulate: %v", err)
	}
	for _, want := range []string{"hand of 7", "Success: 0/300", "Brick:   300/300"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunSimulateTrace(t *testing.T) {
	var out bytes.Buffer
	opts := simulateOptions{decksFile: writeDecks(t), deck: 1, handSize: -1, trace: 2, seed: 3}
	if err := runSimulate(context.Background(), &out, opts, zap.NewNop()); err != nil {
		t.Fatalf("runSimulate: %v", err)
	}
	if strings.Count(out.String(), "Opening hand") != 2 || !strings.Contains(out.String(), "2/2 traced hands succeeded") {
		t.Errorf("unexpected trace:\n%s", out.String())
	}
}

func TestRunSimulateMissingDeck(t *testing.T) {
	opts := simulateOptions{decksFile: writeDecks(t), deck: 5, handSize: -1}
	if err := runSimulate(context.Background(), &bytes.Buffer{}, opts, zap.NewNop()); err == nil {
		t.Fatal("expected error for missing deck")
	}
}

func TestRunDecks(t *testing.T) {
	var out bytes.Buffer
	if err := runDecks(&out, writeDecks(t)); err != nil {
		t.Fatalf("runDecks: %v", err)
	}
	if !strings.Contains(out.String(), " 1. Always (10 cards") || !strings.Contains(out.String(), " 2. Never (40 cards") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}
