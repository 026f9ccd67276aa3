package testutil

import (
	"fmt"
	"strings"
	"time"
)

const invitationBoundary = "invitesweep-boundary-4f1c"

// Invitation describes a meeting request or cancellation email as a calendar server sends it.
type Invitation struct {
	UID       string
	Method    string // REQUEST or CANCEL; REQUEST when empty
	Subject   string
	Organizer string
	Attendee  string
	Start     time.Time
	Duration  time.Duration
	// ContentClass adds the Exchange calendarmessage Content-Class header.
	ContentClass bool
}

// MessageID returns the Message-ID header value of the invitation email.
func (inv Invitation) MessageID() string {
	return fmt.Sprintf("<%s.%s@invitesweep.test>", strings.ToLower(inv.method()), inv.UID)
}

func (inv Invitation) method() string {
	if inv.Method == "" {
		return "REQUEST"
	}
	return inv.Method
}

// Bytes renders the invitation as a multipart/alternative RFC 822 message with CRLF line endings.
func (inv Invitation) Bytes() []byte {
	duration := inv.Duration
	if duration == 0 {
		duration = time.Hour
	}

	status := "CONFIRMED"
	if inv.method() == "CANCEL" {
		status = "CANCELLED"
	}

	calendar := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//invitesweep tests//EN",
		"METHOD:" + inv.method(),
		"BEGIN:VEVENT",
		"UID:" + inv.UID,
		"DTSTAMP:" + formatICalTime(inv.Start.Add(-7*24*time.Hour)),
		"DTSTART:" + formatICalTime(inv.Start),
		"DTEND:" + formatICalTime(inv.Start.Add(duration)),
		"SUMMARY:" + inv.Subject,
		"ORGANIZER:mailto:" + inv.Organizer,
		"ATTENDEE;PARTSTAT=NEEDS-ACTION;RSVP=TRUE:mailto:" + inv.Attendee,
		"STATUS:" + status,
		"END:VEVENT",
		"END:VCALENDAR",
	}

	headers := []string{
		"Message-ID: " + inv.MessageID(),
		"Date: " + inv.Start.Add(-7*24*time.Hour).Format(time.RFC1123Z),
		"From: " + inv.Organizer,
		"To: " + inv.Attendee,
		"Subject: " + inv.Subject,
		"MIME-Version: 1.0",
	}
	if inv.ContentClass {
		headers = append(headers, "Content-Class: urn:content-classes:calendarmessage")
	}
	headers = append(headers, `Content-Type: multipart/alternative; boundary="`+invitationBoundary+`"`)

	lines := append(headers,
		"",
		"--"+invitationBoundary,
		"Content-Type: text/plain; charset=utf-8",
		"",
		inv.Subject+" at "+inv.Start.UTC().Format(time.RFC1123),
		"--"+invitationBoundary,
		"Content-Type: text/calendar; charset=utf-8; method="+inv.method(),
		"",
	)
	lines = append(lines, calendar...)
	lines = append(lines, "--"+invitationBoundary+"--", "")

	return []byte(strings.Join(lines, "\r\n"))
}

func formatICalTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}
