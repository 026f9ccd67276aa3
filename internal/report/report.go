// Package report prints the progress of a sweep and its summary for a human reader.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/cheynewallace/tabby"
	"github.com/dustin/go-humanize"
	"github.com/vdavid/invitesweep/internal/cleaner"
	"github.com/vdavid/invitesweep/internal/models"
)

const timeLayout = "Mon 2006-01-02 15:04 MST"

// Console writes one block of lines per meeting notification.
type Console struct {
	out io.Writer
	now func() time.Time
}

var _ cleaner.Reporter = (*Console)(nil)

// NewConsole creates a Console writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out, now: time.Now}
}

func (c *Console) FolderStarted(name string) {
	fmt.Fprintf(c.out, "\n📂 %s\n", name)
}

func (c *Console) FolderFinished(string) {}

// Notification prints what is known about the meeting before the policy acts on it.
func (c *Console) Notification(notification *models.MeetingNotification, appt *models.Appointment) {
	if appt == nil {
		fmt.Fprintf(c.out, "✉️  %s\n", notification.Subject)
		fmt.Fprintf(c.out, "    From:      %s\n", notification.SenderAddress)
		fmt.Fprintf(c.out, "    Calendar:  no matching appointment\n")
		return
	}

	start := appt.StartUTC.Local()
	fmt.Fprintf(c.out, "📅 %s\n", appt.Subject)
	fmt.Fprintf(c.out, "    Organizer: %s\n", appt.Organizer)
	fmt.Fprintf(c.out, "    Schedule:  %s to %s (%s)\n",
		start.Format(timeLayout),
		appt.EndUTC.Local().Format("15:04"),
		humanize.RelTime(appt.StartUTC, c.now(), "ago", "from now"))
	fmt.Fprintf(c.out, "    Response:  %s\n", appt.ResponseStatus)
	fmt.Fprintf(c.out, "    Status:    %s\n", appt.MeetingStatus)
}

// Outcome prints what was done with the notification.
func (c *Console) Outcome(outcome models.ProcessingOutcome) {
	fmt.Fprintf(c.out, "    %s\n", Describe(outcome))
}

func (c *Console) Failure(uid uint32, err error) {
	if uid == 0 {
		fmt.Fprintf(c.out, "❌ %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "❌ UID %d: %v\n", uid, err)
}

// Describe returns the status line for an outcome.
func Describe(outcome models.ProcessingOutcome) string {
	switch outcome {
	case models.OutcomeIgnored:
		return "⏳ Kept, the meeting is still current"
	case models.OutcomeMarkedTentative:
		return "❔ Marked tentative, notification deleted"
	case models.OutcomeDeletedAsCancellation:
		return "🗑️  Canceled, appointment and notification deleted"
	case models.OutcomeDeletedAsAlreadyResolved:
		return "✅ Already resolved, notification deleted"
	default:
		return outcome.String()
	}
}

// PrintSummary writes the run totals as a table.
func PrintSummary(out io.Writer, result cleaner.Result) {
	fmt.Fprintln(out)
	t := tabby.NewCustom(tabwriter.NewWriter(out, 0, 0, 2, ' ', 0))
	t.AddHeader("Result", "Count")
	t.AddLine("Ignored", result.Tally.Ignored)
	t.AddLine("Marked tentative", result.Tally.MarkedTentative)
	t.AddLine("Deleted", result.Tally.Deleted)
	t.AddLine("Exceptions", result.Tally.Exceptions)
	t.AddLine("Passes", result.Passes)
	t.Print()
}

// PrintUsage writes what the tool does.
func PrintUsage(out io.Writer, name string) {
	fmt.Fprintf(out, `Usage: %s

Sweeps the inbox of every personal mail store for meeting requests and cancellations:

  1. A cancellation, or a request for a meeting that has since been canceled,
     deletes the appointment from the calendar and the notification from the inbox.
  2. A request for a meeting that started more than a day ago is answered
     tentatively unless it was already accepted, and the notification is deleted.
  3. A request whose appointment no longer exists on the calendar is deleted.

Requests for meetings that are still current are left alone. Any argument
prints this text.
`, name)
}
