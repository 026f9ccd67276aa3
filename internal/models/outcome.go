package models

// ProcessingOutcome is the per-item result of the resolution policy.
type ProcessingOutcome int

const (
	OutcomeIgnored ProcessingOutcome = iota
	OutcomeMarkedTentative
	OutcomeDeletedAsCancellation
	OutcomeDeletedAsAlreadyResolved
)

func (o ProcessingOutcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeMarkedTentative:
		return "marked_tentative"
	case OutcomeDeletedAsCancellation:
		return "deleted_as_cancellation"
	case OutcomeDeletedAsAlreadyResolved:
		return "deleted_as_already_resolved"
	default:
		return "unknown"
	}
}

// ActionResult is what an operation on the shared calendar reports back.
// Not-found and already-in-target-state both map to ActionAlreadyDone.
type ActionResult int

const (
	ActionApplied ActionResult = iota
	ActionAlreadyDone
	ActionFailed
)

func (r ActionResult) String() string {
	switch r {
	case ActionApplied:
		return "applied"
	case ActionAlreadyDone:
		return "already_done"
	case ActionFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Succeeded reports whether the calendar is now in the requested state.
func (r ActionResult) Succeeded() bool {
	return r == ActionApplied || r == ActionAlreadyDone
}
