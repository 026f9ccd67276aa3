package imap

import (
	"fmt"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

const (
	// calendarContentClass is the Content-Class value Exchange puts on meeting messages.
	calendarContentClass = "calendarmessage"
	// calendarBodyMarker finds invitations from senders that do not set Content-Class.
	calendarBodyMarker = "BEGIN:VCALENDAR"
)

// meetingSearchCriteria matches messages that are not flagged for deletion and either
// carry the calendar message Content-Class or contain an iCalendar object.
func meetingSearchCriteria() *imap.SearchCriteria {
	byHeader := imap.NewSearchCriteria()
	byHeader.Header.Add("Content-Class", calendarContentClass)

	byBody := imap.NewSearchCriteria()
	byBody.Body = []string{calendarBodyMarker}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.DeletedFlag}
	criteria.Or = [][2]*imap.SearchCriteria{{byHeader, byBody}}
	return criteria
}

// SearchMeetingMessages returns the UIDs of candidate meeting notifications in the
// selected mailbox. The classifier has the final word on each candidate.
func SearchMeetingMessages(c *client.Client) ([]uint32, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}

	uids, err := c.UidSearch(meetingSearchCriteria())
	if err != nil {
		return nil, fmt.Errorf("failed to search IMAP: %w", err)
	}

	return uids, nil
}
