package cleaner

import "github.com/vdavid/invitesweep/internal/models"

// Tally counts what happened to the notifications of one or more sweeps.
// Every marked-tentative item is also counted as deleted.
type Tally struct {
	Ignored         int
	MarkedTentative int
	Deleted         int
	Exceptions      int
}

// Record counts one processed item.
func (t *Tally) Record(outcome models.ProcessingOutcome) {
	switch outcome {
	case models.OutcomeIgnored:
		t.Ignored++
	case models.OutcomeMarkedTentative:
		t.MarkedTentative++
		t.Deleted++
	case models.OutcomeDeletedAsCancellation, models.OutcomeDeletedAsAlreadyResolved:
		t.Deleted++
	}
}

// Add merges other into t.
func (t *Tally) Add(other Tally) {
	t.Ignored += other.Ignored
	t.MarkedTentative += other.MarkedTentative
	t.Deleted += other.Deleted
	t.Exceptions += other.Exceptions
}
