// Package meeting recognizes meeting notifications in raw inbox messages and links
// them to their calendar appointments.
package meeting

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	ical "github.com/emersion/go-ical"
	"github.com/jhillyerd/enmime"
	"github.com/vdavid/invitesweep/internal/models"
)

var (
	// ErrNotMeeting is returned for messages that are neither a meeting request nor a cancellation.
	ErrNotMeeting = errors.New("not a meeting request or cancellation")
	// ErrNoCalendarPart is returned, wrapped in ErrNotMeeting, when a message has no text/calendar part.
	ErrNoCalendarPart = errors.New("message has no text/calendar part")
)

// AppointmentFinder looks up the appointment a notification refers to.
// A missing appointment is reported as nil with a nil error.
type AppointmentFinder interface {
	FindAppointment(ctx context.Context, storeID, icalUID string) (*models.Appointment, error)
}

// Classifier turns inbox items into meeting notifications and resolves their appointments.
type Classifier struct {
	finder AppointmentFinder
}

// NewClassifier creates a classifier that resolves appointments through finder.
func NewClassifier(finder AppointmentFinder) *Classifier {
	return &Classifier{finder: finder}
}

// Classify parses a raw inbox message. Messages that are not meeting requests or
// cancellations return an error wrapping ErrNotMeeting; any other error means the
// message looked like a meeting but could not be read.
func (c *Classifier) Classify(storeID string, item models.InboxItem) (*models.MeetingNotification, error) {
	envelope, err := enmime.ReadEnvelope(bytes.NewReader(item.Raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse message UID %d: %w", item.UID, err)
	}

	part := findCalendarPart(envelope.Root)
	if part == nil {
		return nil, fmt.Errorf("%w: %w", ErrNotMeeting, ErrNoCalendarPart)
	}

	cal, err := ical.NewDecoder(bytes.NewReader(part.Content)).Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode calendar in message UID %d: %w", item.UID, err)
	}

	class, err := messageClass(cal)
	if err != nil {
		return nil, err
	}

	events := cal.Events()
	if len(events) == 0 {
		return nil, fmt.Errorf("calendar in message UID %d has no VEVENT", item.UID)
	}
	event := events[0]

	uidProp := event.Props.Get(ical.PropUID)
	if uidProp == nil || strings.TrimSpace(uidProp.Value) == "" {
		return nil, fmt.Errorf("calendar in message UID %d has no UID", item.UID)
	}

	notification := &models.MeetingNotification{
		StoreID: storeID,
		IMAPUID: item.UID,
		Class:   class,
		ICalUID: strings.TrimSpace(uidProp.Value),
		Subject: envelope.GetHeader("Subject"),
	}

	if notification.Subject == "" {
		if summary, err := event.Props.Text(ical.PropSummary); err == nil {
			notification.Subject = summary
		}
	}

	if from, err := envelope.AddressList("From"); err == nil && len(from) > 0 {
		notification.SenderAddress = from[0].Address
	} else if organizer := event.Props.Get(ical.PropOrganizer); organizer != nil {
		notification.SenderAddress = stripMailto(organizer.Value)
	}

	return notification, nil
}

// ResolveAppointment returns the appointment the notification refers to, or nil when
// the user already deleted it. A received cancellation is reflected on the returned
// copy even if the calendar row has not caught up yet.
func (c *Classifier) ResolveAppointment(ctx context.Context, notification *models.MeetingNotification) (*models.Appointment, error) {
	appt, err := c.finder.FindAppointment(ctx, notification.StoreID, notification.ICalUID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve appointment %s: %w", notification.ICalUID, err)
	}

	if appt == nil {
		return nil, nil
	}

	if notification.IsCancellation() && !appt.IsCanceled() {
		received := *appt
		received.MeetingStatus = models.MeetingReceivedAndCanceled
		return &received, nil
	}

	return appt, nil
}

func messageClass(cal *ical.Calendar) (models.MessageClass, error) {
	method := cal.Props.Get(ical.PropMethod)
	if method == nil {
		return "", fmt.Errorf("%w: calendar has no METHOD", ErrNotMeeting)
	}

	switch strings.ToUpper(strings.TrimSpace(method.Value)) {
	case "REQUEST":
		return models.ClassMeetingRequest, nil
	case "CANCEL":
		return models.ClassMeetingCancellation, nil
	default:
		return "", fmt.Errorf("%w: METHOD %s", ErrNotMeeting, method.Value)
	}
}

// findCalendarPart walks the MIME tree depth-first and returns the first text/calendar part.
func findCalendarPart(part *enmime.Part) *enmime.Part {
	for p := part; p != nil; p = p.NextSibling {
		if strings.EqualFold(p.ContentType, "text/calendar") && len(p.Content) > 0 {
			return p
		}
		if found := findCalendarPart(p.FirstChild); found != nil {
			return found
		}
	}
	return nil
}

func stripMailto(value string) string {
	value = strings.TrimSpace(value)
	if len(value) >= len("mailto:") && strings.EqualFold(value[:len("mailto:")], "mailto:") {
		return value[len("mailto:"):]
	}
	return value
}
