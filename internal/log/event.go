package log

// EventType enumerates the observable steps of a traced trial.
type EventType int

const (
	EventOpeningHand   EventType = iota
	EventActivate                // an effect's once-per-turn slot is consumed
	EventEffectDraw              // cards added to hand by an effect
	EventDiscard                 // a card removed from hand by an effect
	EventRevert                  // a conditional effect undid its own draw
	EventCannotActivate          // not enough cards left in the deck
	EventFinalHand
	EventSuccess
	EventBrick
)

func (e EventType) String() string {
	switch e {
	case EventOpeningHand:
		return "OpeningHand"
	case EventActivate:
		return "Activate"
	case EventEffectDraw:
		return "EffectDraw"
	case EventDiscard:
		return "Discard"
	case EventRevert:
		return "Revert"
	case EventCannotActivate:
		return "CannotActivate"
	case EventFinalHand:
		return "FinalHand"
	case EventSuccess:
		return "Success"
	case EventBrick:
		return "Brick"
	default:
		return "Unknown"
	}
}

// Resolution stages a trial passes through, used as TrialEvent.Stage.
const (
	StageOpening  = "Opening"
	StageDraws    = "Phase 1"
	StageEffects  = "Phase 2"
	StageEvaluate = "Evaluate"
)

// TrialEvent represents a single observable event in a traced trial.
type TrialEvent struct {
	Seq     int       // monotonic sequence number
	Trial   int       // which trial (1-based)
	Stage   string    // resolution stage (e.g. "Phase 1")
	Type    EventType // event type
	Card    string    // triggering or moved card (if applicable)
	Cards   []string  // cards drawn or the hand shown (if applicable)
	Details string    // human-readable detail string
}
