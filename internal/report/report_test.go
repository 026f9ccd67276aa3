package report

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vdavid/invitesweep/internal/cleaner"
	"github.com/vdavid/invitesweep/internal/models"
)

func newTestConsole(now time.Time) (*Console, *bytes.Buffer) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	c.now = func() time.Time { return now }
	return c, &buf
}

func TestConsoleNotification(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("with appointment", func(t *testing.T) {
		c, buf := newTestConsole(now)
		c.Notification(&models.MeetingNotification{Subject: "Weekly sync"}, &models.Appointment{
			Subject:        "Weekly sync",
			Organizer:      "boss@example.com",
			StartUTC:       now.Add(-72 * time.Hour),
			EndUTC:         now.Add(-71 * time.Hour),
			ResponseStatus: models.ResponseNone,
			MeetingStatus:  models.MeetingNormal,
		})

		out := buf.String()
		assert.Contains(t, out, "📅 Weekly sync")
		assert.Contains(t, out, "Organizer: boss@example.com")
		assert.Contains(t, out, "3 days ago")
		assert.Contains(t, out, "Response:  none")
		assert.Contains(t, out, "Status:    normal")
	})

	t.Run("future meeting", func(t *testing.T) {
		c, buf := newTestConsole(now)
		c.Notification(&models.MeetingNotification{}, &models.Appointment{StartUTC: now.Add(2 * time.Hour), EndUTC: now.Add(3 * time.Hour)})

		assert.Contains(t, buf.String(), "2 hours from now")
	})

	t.Run("without appointment", func(t *testing.T) {
		c, buf := newTestConsole(now)
		c.Notification(&models.MeetingNotification{Subject: "Offsite", SenderAddress: "ceo@example.com"}, nil)

		out := buf.String()
		assert.Contains(t, out, "Offsite")
		assert.Contains(t, out, "From:      ceo@example.com")
		assert.Contains(t, out, "no matching appointment")
	})
}

func TestConsoleOutcomeAndFailure(t *testing.T) {
	c, buf := newTestConsole(time.Now())

	c.FolderStarted("Work/INBOX")
	c.Outcome(models.OutcomeMarkedTentative)
	c.Failure(42, errors.New("connection reset"))
	c.Failure(0, errors.New("search failed"))

	out := buf.String()
	assert.Contains(t, out, "📂 Work/INBOX")
	assert.Contains(t, out, "Marked tentative")
	assert.Contains(t, out, "❌ UID 42: connection reset")
	assert.Contains(t, out, "❌ search failed")
}

func TestDescribe(t *testing.T) {
	outcomes := []models.ProcessingOutcome{
		models.OutcomeIgnored,
		models.OutcomeMarkedTentative,
		models.OutcomeDeletedAsCancellation,
		models.OutcomeDeletedAsAlreadyResolved,
	}
	seen := make(map[string]bool)
	for _, outcome := range outcomes {
		line := Describe(outcome)
		assert.NotEmpty(t, line)
		assert.False(t, seen[line], "duplicate description %q", line)
		seen[line] = true
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer

	PrintSummary(&buf, cleaner.Result{
		Tally:  cleaner.Tally{Ignored: 2, MarkedTentative: 1, Deleted: 4, Exceptions: 3},
		Passes: 2,
	})

	out := buf.String()
	assert.Regexp(t, `Ignored\s+2`, out)
	assert.Regexp(t, `Marked tentative\s+1`, out)
	assert.Regexp(t, `Deleted\s+4`, out)
	assert.Regexp(t, `Exceptions\s+3`, out)
	assert.Regexp(t, `Passes\s+2`, out)
}

func TestPrintUsage(t *testing.T) {
	var buf bytes.Buffer

	PrintUsage(&buf, "invitesweep")

	out := buf.String()
	assert.Contains(t, out, "Usage: invitesweep")
	assert.Contains(t, out, "cancellation")
	assert.Contains(t, out, "tentatively")
	assert.Contains(t, out, "no longer exists")
}
