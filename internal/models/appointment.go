package models

import "time"

// ResponseStatus is the user's answer recorded on an appointment.
type ResponseStatus string

func (s ResponseStatus) String() string {
	return string(s)
}

const (
	ResponseNone      ResponseStatus = "none"
	ResponseTentative ResponseStatus = "tentative"
	ResponseAccepted  ResponseStatus = "accepted"
	ResponseDeclined  ResponseStatus = "declined"
	ResponseOrganized ResponseStatus = "organized"
)

// MeetingStatus is the organizer-side state of an appointment.
type MeetingStatus string

func (s MeetingStatus) String() string {
	return string(s)
}

const (
	MeetingNormal              MeetingStatus = "normal"
	MeetingCanceled            MeetingStatus = "canceled"
	MeetingReceivedAndCanceled MeetingStatus = "received_and_canceled"
)

// Appointment is the calendar-side event a meeting notification refers to.
// The user can change or delete it at any time outside this program.
type Appointment struct {
	ID             string         `json:"id"`
	StoreID        string         `json:"store_id"`
	ICalUID        string         `json:"ical_uid"`
	Subject        string         `json:"subject"`
	Organizer      string         `json:"organizer"`
	StartUTC       time.Time      `json:"start_utc"`
	EndUTC         time.Time      `json:"end_utc"`
	ResponseStatus ResponseStatus `json:"response_status"`
	MeetingStatus  MeetingStatus  `json:"meeting_status"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// IsCanceled reports whether the organizer has called the meeting off.
func (a *Appointment) IsCanceled() bool {
	return a.MeetingStatus == MeetingCanceled || a.MeetingStatus == MeetingReceivedAndCanceled
}

// IsAnswered reports whether the user accepted or owns the meeting.
func (a *Appointment) IsAnswered() bool {
	return a.ResponseStatus == ResponseAccepted || a.ResponseStatus == ResponseOrganized
}
