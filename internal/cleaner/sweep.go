package cleaner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/vdavid/invitesweep/internal/meeting"
	"github.com/vdavid/invitesweep/internal/models"
)

// ErrCalendarAction is returned when a calendar action fails without saying why.
var ErrCalendarAction = errors.New("calendar action failed")

// Sweeper processes the meeting notifications of one inbox at a time.
type Sweeper struct {
	classifier Classifier
	calendar   Calendar
	reporter   Reporter
	now        func() time.Time
}

// NewSweeper creates a Sweeper. A nil reporter discards progress.
func NewSweeper(classifier Classifier, calendar Calendar, reporter Reporter) *Sweeper {
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &Sweeper{
		classifier: classifier,
		calendar:   calendar,
		reporter:   reporter,
		now:        time.Now,
	}
}

// Sweep handles every meeting notification in folder. Failures are counted as
// exceptions and never stop the sweep.
func (s *Sweeper) Sweep(ctx context.Context, folder Folder) Tally {
	var tally Tally

	items, err := folder.MeetingItems(ctx)
	if err != nil {
		log.Printf("Warning: Failed to list meeting items in %s: %v", folder.Name(), err)
		s.reporter.Failure(0, err)
		tally.Exceptions++
		return tally
	}

	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		outcome, err := s.processItem(ctx, folder, item)
		if errors.Is(err, meeting.ErrNotMeeting) {
			continue
		}
		if err != nil {
			log.Printf("Warning: Failed to process UID %d in %s: %v", item.UID, folder.Name(), err)
			s.reporter.Failure(item.UID, err)
			tally.Exceptions++
			continue
		}
		tally.Record(outcome)
	}

	return tally
}

func (s *Sweeper) processItem(ctx context.Context, folder Folder, item models.InboxItem) (models.ProcessingOutcome, error) {
	notification, err := s.classifier.Classify(folder.StoreID(), item)
	if err != nil {
		return models.OutcomeIgnored, err
	}

	appt, err := s.classifier.ResolveAppointment(ctx, notification)
	if err != nil {
		return models.OutcomeIgnored, err
	}
	s.reporter.Notification(notification, appt)

	decision := Decide(appt, s.now())

	// The notification stays put if the calendar could not be brought in line.
	if err := s.apply(ctx, decision.Effect, appt); err != nil {
		return models.OutcomeIgnored, err
	}

	if decision.Remove {
		if err := folder.Remove(ctx, item.UID); err != nil {
			return models.OutcomeIgnored, fmt.Errorf("failed to remove notification UID %d: %w", item.UID, err)
		}
	}

	s.reporter.Outcome(decision.Outcome)
	return decision.Outcome, nil
}

func (s *Sweeper) apply(ctx context.Context, effect Effect, appt *models.Appointment) error {
	switch effect {
	case EffectDeleteAppointment:
		result, err := s.calendar.DeleteAppointment(ctx, appt)
		if !result.Succeeded() {
			return fmt.Errorf("failed to delete appointment %s: %w", appt.ICalUID, actionError(err))
		}
	case EffectRespondTentative:
		reply, result, err := s.calendar.RespondTentative(ctx, appt)
		if !result.Succeeded() {
			return fmt.Errorf("failed to respond tentative to %s: %w", appt.ICalUID, actionError(err))
		}
		// The reply is never sent.
		reply.Discard()
	}
	return nil
}

func actionError(err error) error {
	if err == nil {
		return ErrCalendarAction
	}
	return err
}
