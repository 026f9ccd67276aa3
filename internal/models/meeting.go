package models

// MessageClass identifies the kind of meeting notification.
type MessageClass string

func (c MessageClass) String() string {
	return string(c)
}

const (
	ClassMeetingRequest      MessageClass = "IPM.Schedule.Meeting.Request"
	ClassMeetingCancellation MessageClass = "IPM.Schedule.Meeting.Canceled"
)

// InboxItem is a raw message returned by an inbox's meeting query.
type InboxItem struct {
	UID uint32
	Raw []byte
}

// MeetingNotification is an inbox message announcing a meeting or its cancellation.
type MeetingNotification struct {
	StoreID       string
	IMAPUID       uint32
	Class         MessageClass
	ICalUID       string
	Subject       string
	SenderAddress string
}

// IsCancellation reports whether the notification cancels a meeting.
func (n *MeetingNotification) IsCancellation() bool {
	return n.Class == ClassMeetingCancellation
}
