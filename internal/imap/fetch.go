package imap

import (
	"fmt"
	"io"
	"log"
	"sort"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/vdavid/invitesweep/internal/models"
)

// FetchRawMessages fetches the full RFC 822 source of the given UIDs without
// setting the \Seen flag. Items come back in ascending UID order.
func FetchRawMessages(c *client.Client, uids []uint32) ([]models.InboxItem, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}

	if len(uids) == 0 {
		return []models.InboxItem{}, nil
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{section.FetchItem(), imap.FetchUid}

	messages := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)

	go func() {
		done <- c.UidFetch(seqSet, items, messages)
	}()

	result := make([]models.InboxItem, 0, len(uids))
	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil {
			log.Printf("Warning: Server returned no body for UID %d, skipping", msg.Uid)
			continue
		}
		raw, err := io.ReadAll(body)
		if err != nil {
			log.Printf("Warning: Failed to read body of UID %d: %v", msg.Uid, err)
			continue
		}
		result = append(result, models.InboxItem{UID: msg.Uid, Raw: raw})
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].UID < result[j].UID })
	return result, nil
}
