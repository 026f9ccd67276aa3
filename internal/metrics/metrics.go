// Package metrics counts what the sweeps did, for scraping through a node_exporter textfile.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vdavid/invitesweep/internal/cleaner"
	"github.com/vdavid/invitesweep/internal/models"
)

var (
	ItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invitesweep_items_total",
			Help: "Total number of meeting notifications processed, by outcome",
		},
		[]string{"outcome"},
	)

	ExceptionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "invitesweep_exceptions_total",
			Help: "Total number of notifications or inboxes that could not be processed",
		},
	)

	PassesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "invitesweep_passes_total",
			Help: "Total number of sweep passes over all inboxes",
		},
	)

	InboxesSweptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "invitesweep_inboxes_swept_total",
			Help: "Total number of inbox sweeps completed",
		},
	)
)

// Recorder counts sweep progress as it happens.
type Recorder struct{}

var _ cleaner.Reporter = Recorder{}

func (Recorder) FolderStarted(string) {}

func (Recorder) FolderFinished(string) {
	InboxesSweptTotal.Inc()
}

func (Recorder) Notification(*models.MeetingNotification, *models.Appointment) {}

func (Recorder) Outcome(outcome models.ProcessingOutcome) {
	ItemsTotal.WithLabelValues(outcome.String()).Inc()
}

func (Recorder) Failure(uint32, error) {
	ExceptionsTotal.Inc()
}

// RecordRun adds the passes of a finished run.
func RecordRun(result cleaner.Result) {
	PassesTotal.Add(float64(result.Passes))
}

// WriteToTextfile dumps every registered metric to path in the text exposition format.
// An empty path does nothing.
func WriteToTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
