package log

import (
	"fmt"
	"io"
	"strings"
)

// EventLogger is the interface for logging trial events.
type EventLogger interface {
	Log(event TrialEvent)
	Events() []TrialEvent
}

// --- MemoryLogger: stores events in memory for test assertions ---

type MemoryLogger struct {
	events []TrialEvent
	seq    int
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

func (l *MemoryLogger) Log(event TrialEvent) {
	l.seq++
	event.Seq = l.seq
	l.events = append(l.events, event)
}

func (l *MemoryLogger) Events() []TrialEvent {
	return l.events
}

// EventsOfType returns all events matching the given type.
func (l *MemoryLogger) EventsOfType(t EventType) []TrialEvent {
	var result []TrialEvent
	for _, e := range l.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// LastEvent returns the most recent event, or a zero event if none.
func (l *MemoryLogger) LastEvent() TrialEvent {
	if len(l.events) == 0 {
		return TrialEvent{}
	}
	return l.events[len(l.events)-1]
}

// --- TextLogger: writes human-readable lines to an io.Writer ---

type TextLogger struct {
	MemoryLogger
	w io.Writer
}

func NewTextLogger(w io.Writer) *TextLogger {
	return &TextLogger{w: w}
}

func (l *TextLogger) Log(event TrialEvent) {
	l.MemoryLogger.Log(event)
	fmt.Fprintln(l.w, FormatEvent(event))
}

// --- Formatting ---

// FormatEvent formats a single event as a human-readable line.
func FormatEvent(e TrialEvent) string {
	stage := e.Stage
	// Pad stage to 10 chars for alignment
	for len(stage) < 10 {
		stage += " "
	}
	return fmt.Sprintf("#%-4d %s| %s", e.Trial, stage, e.Details)
}

// FormatAll formats all events as a multi-line string.
func FormatAll(events []TrialEvent) string {
	var sb strings.Builder
	for _, e := range events {
		sb.WriteString(FormatEvent(e))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func cardList(cards []string) string {
	if len(cards) == 0 {
		return "nothing"
	}
	return strings.Join(cards, ", ")
}

// --- Helper constructors for common events ---

func NewOpeningHandEvent(trial int, hand []string) TrialEvent {
	return TrialEvent{
		Trial:   trial,
		Stage:   StageOpening,
		Type:    EventOpeningHand,
		Cards:   hand,
		Details: fmt.Sprintf("Opening hand (%d): %s", len(hand), cardList(hand)),
	}
}

func NewActivateEvent(trial int, stage string, cardName string) TrialEvent {
	return TrialEvent{
		Trial:   trial,
		Stage:   stage,
		Type:    EventActivate,
		Card:    cardName,
		Details: fmt.Sprintf("%s activates", cardName),
	}
}

func NewEffectDrawEvent(trial int, stage string, cardName string, drawn []string) TrialEvent {
	return TrialEvent{
		Trial:   trial,
		Stage:   stage,
		Type:    EventEffectDraw,
		Card:    cardName,
		Cards:   drawn,
		Details: fmt.Sprintf("%s draws %d: %s", cardName, len(drawn), cardList(drawn)),
	}
}

func NewDiscardEvent(trial int, stage string, cardName string, discarded string) TrialEvent {
	return TrialEvent{
		Trial:   trial,
		Stage:   stage,
		Type:    EventDiscard,
		Card:    cardName,
		Cards:   []string{discarded},
		Details: fmt.Sprintf("%s discards %s", cardName, discarded),
	}
}

func NewRevertEvent(trial int, stage string, cardName string, filter string, found, needed int) TrialEvent {
	return TrialEvent{
		Trial:   trial,
		Stage:   stage,
		Type:    EventRevert,
		Card:    cardName,
		Details: fmt.Sprintf("%s fails: %d/%d %s to discard, draw undone", cardName, found, needed, filter),
	}
}

func NewCannotActivateEvent(trial int, stage string, cardName string, need, left int) TrialEvent {
	return TrialEvent{
		Trial:   trial,
		Stage:   stage,
		Type:    EventCannotActivate,
		Card:    cardName,
		Details: fmt.Sprintf("%s cannot activate (needs %d, deck has %d)", cardName, need, left),
	}
}

func NewFinalHandEvent(trial int, hand []string) TrialEvent {
	return TrialEvent{
		Trial:   trial,
		Stage:   StageEvaluate,
		Type:    EventFinalHand,
		Cards:   hand,
		Details: fmt.Sprintf("Final hand (%d): %s", len(hand), cardList(hand)),
	}
}

func NewSuccessEvent(trial int, rule string) TrialEvent {
	return TrialEvent{
		Trial:   trial,
		Stage:   StageEvaluate,
		Type:    EventSuccess,
		Details: fmt.Sprintf("Success: %s", rule),
	}
}

func NewBrickEvent(trial int) TrialEvent {
	return TrialEvent{
		Trial:   trial,
		Stage:   StageEvaluate,
		Type:    EventBrick,
		Details: "Brick: no success condition met",
	}
}
