package meeting

import (
	"bytes"
	"fmt"
	"time"

	ical "github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/vdavid/invitesweep/internal/models"
)

// Reply is the iTIP REPLY a response to a meeting would send to its organizer.
// This program never sends it; callers discard it right after the response is recorded.
type Reply struct {
	ID        string
	To        string
	Subject   string
	Body      []byte
	discarded bool
}

// NewReply builds the reply for answering appt as attendee. It returns nil without an
// error when the appointment has no organizer to reply to.
func NewReply(appt *models.Appointment, attendee string, response models.ResponseStatus, now time.Time) (*Reply, error) {
	if appt.Organizer == "" {
		return nil, nil
	}

	partStat, prefix, err := participationStatus(response)
	if err != nil {
		return nil, err
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//invitesweep//EN")
	cal.Props.SetText(ical.PropMethod, "REPLY")

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, appt.ICalUID)
	event.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, appt.StartUTC.UTC())
	event.Props.SetDateTime(ical.PropDateTimeEnd, appt.EndUTC.UTC())
	event.Props.SetText(ical.PropSummary, appt.Subject)
	event.Props.Set(&ical.Prop{
		Name:   ical.PropOrganizer,
		Value:  "mailto:" + appt.Organizer,
		Params: ical.Params{},
	})
	event.Props.Set(&ical.Prop{
		Name:   ical.PropAttendee,
		Value:  "mailto:" + attendee,
		Params: ical.Params{ical.ParamParticipationStatus: []string{partStat}},
	})
	cal.Children = append(cal.Children, event.Component)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("failed to encode reply for %s: %w", appt.ICalUID, err)
	}

	return &Reply{
		ID:      uuid.NewString(),
		To:      appt.Organizer,
		Subject: prefix + ": " + appt.Subject,
		Body:    buf.Bytes(),
	}, nil
}

// Discard drops the reply so nothing reaches the organizer. Safe on a nil reply.
func (r *Reply) Discard() {
	if r == nil {
		return
	}
	r.Body = nil
	r.discarded = true
}

// Discarded reports whether Discard has been called.
func (r *Reply) Discarded() bool {
	return r != nil && r.discarded
}

func participationStatus(response models.ResponseStatus) (string, string, error) {
	switch response {
	case models.ResponseTentative:
		return "TENTATIVE", "Tentative", nil
	case models.ResponseAccepted:
		return "ACCEPTED", "Accepted", nil
	case models.ResponseDeclined:
		return "DECLINED", "Declined", nil
	default:
		return "", "", fmt.Errorf("cannot reply with response status %s", response)
	}
}
