package cleaner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vdavid/invitesweep/internal/models"
)

func staticSource(folders ...Folder) (InboxSource, *int) {
	calls := 0
	return InboxSourceFunc(func(context.Context) []Folder {
		calls++
		return folders
	}), &calls
}

func TestLoopStopsAfterPassWithoutDeletions(t *testing.T) {
	calendar := newFakeCalendar(&models.Appointment{ICalUID: "future", StartUTC: testNow.Add(48 * time.Hour), MeetingStatus: models.MeetingNormal})
	classifier := &fakeClassifier{
		calendar:      calendar,
		notifications: map[uint32]models.MeetingNotification{1: request("future")},
	}
	source, calls := staticSource(&fakeFolder{name: "INBOX", items: items(1)})

	result := NewLoop(source, newTestSweeper(classifier, calendar, nil)).Run(context.Background())

	assert.Equal(t, 1, result.Passes)
	assert.Equal(t, Tally{Ignored: 1}, result.Tally)
	assert.Equal(t, 1, *calls)
}

func TestLoopWithNoInboxes(t *testing.T) {
	source, _ := staticSource()

	result := NewLoop(source, newTestSweeper(&fakeClassifier{}, newFakeCalendar(), nil)).Run(context.Background())

	assert.Equal(t, Result{Passes: 1}, result)
}

func TestLoopConvergesAcrossDependentNotifications(t *testing.T) {
	// The request is seen first while the meeting still looks active. Once the
	// cancellation deletes the appointment the request resolves to nothing.
	calendar := newFakeCalendar(&models.Appointment{ICalUID: "m1", StartUTC: testNow.Add(48 * time.Hour), MeetingStatus: models.MeetingNormal})
	classifier := &fakeClassifier{
		calendar: calendar,
		notifications: map[uint32]models.MeetingNotification{
			1: request("m1"),
			2: cancellation("m1"),
		},
	}
	folder := &fakeFolder{name: "INBOX", items: items(1, 2)}
	source, calls := staticSource(folder)
	reporter := &recordingReporter{}

	result := NewLoop(source, newTestSweeper(classifier, calendar, reporter)).Run(context.Background())

	assert.Equal(t, 3, result.Passes)
	assert.Equal(t, Tally{Ignored: 1, Deleted: 2}, result.Tally)
	assert.Empty(t, folder.items)
	assert.Equal(t, 3, *calls, "inboxes are listed again on every pass")
	assert.Equal(t, []string{"INBOX", "INBOX", "INBOX"}, reporter.folders)
}

func TestLoopSweepsEveryInbox(t *testing.T) {
	calendar := newFakeCalendar()
	classifier := &fakeClassifier{
		calendar:      calendar,
		notifications: map[uint32]models.MeetingNotification{1: request("gone"), 2: request("gone")},
	}
	alice := &fakeFolder{name: "Alice/INBOX", storeID: "alice", items: items(1)}
	bob := &fakeFolder{name: "Bob/INBOX", storeID: "bob", items: items(1, 2)}
	source, _ := staticSource(alice, bob)

	result := NewLoop(source, newTestSweeper(classifier, calendar, nil)).Run(context.Background())

	assert.Equal(t, 2, result.Passes)
	assert.Equal(t, Tally{Deleted: 3}, result.Tally)
	assert.Empty(t, alice.items)
	assert.Empty(t, bob.items)
}

func TestLoopRerunIsIdempotent(t *testing.T) {
	calendar := newFakeCalendar(
		&models.Appointment{ICalUID: "stale", StartUTC: testNow.Add(-72 * time.Hour), MeetingStatus: models.MeetingNormal},
		&models.Appointment{ICalUID: "future", StartUTC: testNow.Add(72 * time.Hour), MeetingStatus: models.MeetingNormal},
	)
	classifier := &fakeClassifier{
		calendar:      calendar,
		notifications: map[uint32]models.MeetingNotification{1: request("stale"), 2: request("future")},
	}
	folder := &fakeFolder{name: "INBOX", items: items(1, 2)}
	source, _ := staticSource(folder)
	loop := NewLoop(source, newTestSweeper(classifier, calendar, nil))

	first := loop.Run(context.Background())
	second := loop.Run(context.Background())

	assert.Equal(t, Tally{Ignored: 2, MarkedTentative: 1, Deleted: 1}, first.Tally)
	assert.Equal(t, Result{Tally: Tally{Ignored: 1}, Passes: 1}, second)
	assert.Equal(t, []uint32{2}, folder.uids())
}

func TestLoopTerminatesWithPersistentFailures(t *testing.T) {
	calendar := newFakeCalendar()
	classifier := &fakeClassifier{
		calendar:      calendar,
		notifications: map[uint32]models.MeetingNotification{1: request("gone")},
	}
	folder := &fakeFolder{
		name:      "INBOX",
		items:     items(1),
		removeErr: map[uint32]error{1: errors.New("permission denied")},
	}
	source, _ := staticSource(folder)

	result := NewLoop(source, newTestSweeper(classifier, calendar, nil)).Run(context.Background())

	assert.Equal(t, 1, result.Passes)
	assert.Equal(t, Tally{Exceptions: 1}, result.Tally)
}

func TestScenarios(t *testing.T) {
	calendar := newFakeCalendar(
		&models.Appointment{ICalUID: "A", StartUTC: testNow.Add(-48 * time.Hour), ResponseStatus: models.ResponseNone, MeetingStatus: models.MeetingNormal},
		&models.Appointment{ICalUID: "B", StartUTC: testNow.Add(-2 * time.Hour), ResponseStatus: models.ResponseNone, MeetingStatus: models.MeetingNormal},
		&models.Appointment{ICalUID: "C", StartUTC: testNow.Add(-100 * time.Hour), ResponseStatus: models.ResponseNone, MeetingStatus: models.MeetingCanceled},
	)
	classifier := &fakeClassifier{
		calendar: calendar,
		notifications: map[uint32]models.MeetingNotification{
			1: request("A"),
			2: request("B"),
			3: request("C"),
			4: request("D"),
		},
	}
	folder := &fakeFolder{name: "INBOX", items: items(1, 2, 3, 4)}
	reporter := &recordingReporter{}
	sweeper := newTestSweeper(classifier, calendar, reporter)

	tally := sweeper.Sweep(context.Background(), folder)

	assert.Equal(t, []models.ProcessingOutcome{
		models.OutcomeMarkedTentative,
		models.OutcomeIgnored,
		models.OutcomeDeletedAsCancellation,
		models.OutcomeDeletedAsAlreadyResolved,
	}, reporter.outcomes)
	assert.Equal(t, Tally{Ignored: 1, MarkedTentative: 1, Deleted: 3}, tally)
	assert.Equal(t, []uint32{2}, folder.uids(), "only B is retained")
	assert.Equal(t, models.ResponseTentative, calendar.find("A").ResponseStatus)
	assert.Nil(t, calendar.find("C"), "C is deleted from the calendar")
	assert.Empty(t, reporter.failures)

	t.Run("convergence after two passes", func(t *testing.T) {
		folder := &fakeFolder{name: "INBOX", items: items(1, 2, 3, 4)}
		calendar := newFakeCalendar(
			&models.Appointment{ICalUID: "A", StartUTC: testNow.Add(-48 * time.Hour), MeetingStatus: models.MeetingNormal},
			&models.Appointment{ICalUID: "B", StartUTC: testNow.Add(-2 * time.Hour), MeetingStatus: models.MeetingNormal},
			&models.Appointment{ICalUID: "C", StartUTC: testNow.Add(-100 * time.Hour), MeetingStatus: models.MeetingCanceled},
		)
		classifier.calendar = calendar
		source, _ := staticSource(folder)

		result := NewLoop(source, newTestSweeper(classifier, calendar, nil)).Run(context.Background())

		assert.Equal(t, 2, result.Passes)
		assert.Equal(t, 3, result.Tally.Deleted)
	})
}

func TestReportersFanOut(t *testing.T) {
	first := &recordingReporter{}
	second := &recordingReporter{}
	reporters := Reporters{first, second}

	reporters.FolderStarted("INBOX")
	reporters.Outcome(models.OutcomeIgnored)
	reporters.Failure(3, errors.New("boom"))

	for _, r := range []*recordingReporter{first, second} {
		assert.Equal(t, []string{"INBOX"}, r.folders)
		assert.Equal(t, []models.ProcessingOutcome{models.OutcomeIgnored}, r.outcomes)
		assert.Equal(t, []uint32{3}, r.failures)
	}
}
