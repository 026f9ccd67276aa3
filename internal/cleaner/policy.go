package cleaner

import (
	"time"

	"github.com/vdavid/invitesweep/internal/models"
)

// StaleAfter is how long after its start a meeting still counts as current.
const StaleAfter = 24 * time.Hour

// Effect is the calendar side effect a decision requires before the notification is removed.
type Effect int

const (
	EffectNone Effect = iota
	EffectDeleteAppointment
	EffectRespondTentative
)

func (e Effect) String() string {
	switch e {
	case EffectNone:
		return "none"
	case EffectDeleteAppointment:
		return "delete_appointment"
	case EffectRespondTentative:
		return "respond_tentative"
	default:
		return "unknown"
	}
}

// AppointmentState is the part of an appointment the policy looks at first.
type AppointmentState int

const (
	StateAbsent AppointmentState = iota
	StateCanceled
	StateActive
)

// StateOf classifies a resolved appointment. A nil appointment is absent.
func StateOf(appt *models.Appointment) AppointmentState {
	switch {
	case appt == nil:
		return StateAbsent
	case appt.IsCanceled():
		return StateCanceled
	default:
		return StateActive
	}
}

// Decision is what to do with one meeting notification.
type Decision struct {
	Outcome models.ProcessingOutcome
	Remove  bool
	Effect  Effect
}

// IsStale reports whether a meeting starting at start ended its grace period before now.
func IsStale(start, now time.Time) bool {
	return start.UTC().Before(now.UTC().Add(-StaleAfter))
}

// Decide applies the resolution rules in order. It has no side effects.
func Decide(appt *models.Appointment, now time.Time) Decision {
	switch StateOf(appt) {
	case StateAbsent:
		return Decision{Outcome: models.OutcomeDeletedAsAlreadyResolved, Remove: true}
	case StateCanceled:
		return Decision{Outcome: models.OutcomeDeletedAsCancellation, Remove: true, Effect: EffectDeleteAppointment}
	}

	if !IsStale(appt.StartUTC, now) {
		return Decision{Outcome: models.OutcomeIgnored}
	}

	if appt.IsAnswered() {
		return Decision{Outcome: models.OutcomeDeletedAsAlreadyResolved, Remove: true}
	}

	return Decision{Outcome: models.OutcomeMarkedTentative, Remove: true, Effect: EffectRespondTentative}
}
