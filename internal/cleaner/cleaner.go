// Package cleaner decides what to do with meeting notifications and sweeps inboxes
// until a full pass changes nothing.
package cleaner

import (
	"context"

	"github.com/vdavid/invitesweep/internal/meeting"
	"github.com/vdavid/invitesweep/internal/models"
)

// Folder is one inbox as seen by a sweep.
type Folder interface {
	// Name is the display path of the inbox, used in status lines.
	Name() string
	// StoreID identifies the mail store the inbox belongs to.
	StoreID() string
	// MeetingItems returns the items matching the meeting request and cancellation query.
	MeetingItems(ctx context.Context) ([]models.InboxItem, error)
	// Remove deletes a notification from the inbox. Removing a message that is
	// already gone is not an error.
	Remove(ctx context.Context, uid uint32) error
}

// Classifier recognizes meeting notifications and resolves their appointments.
type Classifier interface {
	Classify(storeID string, item models.InboxItem) (*models.MeetingNotification, error)
	ResolveAppointment(ctx context.Context, notification *models.MeetingNotification) (*models.Appointment, error)
}

// Calendar performs the side effects the policy asks for on the shared calendar.
type Calendar interface {
	DeleteAppointment(ctx context.Context, appt *models.Appointment) (models.ActionResult, error)
	RespondTentative(ctx context.Context, appt *models.Appointment) (*meeting.Reply, models.ActionResult, error)
}

// Reporter receives the human-readable progress of a run.
type Reporter interface {
	FolderStarted(name string)
	FolderFinished(name string)
	Notification(notification *models.MeetingNotification, appt *models.Appointment)
	Outcome(outcome models.ProcessingOutcome)
	Failure(uid uint32, err error)
}

// NopReporter discards all progress.
type NopReporter struct{}

func (NopReporter) FolderStarted(string)                                          {}
func (NopReporter) FolderFinished(string)                                         {}
func (NopReporter) Notification(*models.MeetingNotification, *models.Appointment) {}
func (NopReporter) Outcome(models.ProcessingOutcome)                              {}
func (NopReporter) Failure(uint32, error)                                         {}

var (
	_ Classifier = (*meeting.Classifier)(nil)
	_ Reporter   = NopReporter{}
)

// Reporters sends progress to every reporter in order.
type Reporters []Reporter

func (rs Reporters) FolderStarted(name string) {
	for _, r := range rs {
		r.FolderStarted(name)
	}
}

func (rs Reporters) FolderFinished(name string) {
	for _, r := range rs {
		r.FolderFinished(name)
	}
}

func (rs Reporters) Notification(notification *models.MeetingNotification, appt *models.Appointment) {
	for _, r := range rs {
		r.Notification(notification, appt)
	}
}

func (rs Reporters) Outcome(outcome models.ProcessingOutcome) {
	for _, r := range rs {
		r.Outcome(outcome)
	}
}

func (rs Reporters) Failure(uid uint32, err error) {
	for _, r := range rs {
		r.Failure(uid, err)
	}
}
