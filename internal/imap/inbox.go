package imap

import (
	"context"
	"fmt"

	"github.com/emersion/go-imap/client"
	"github.com/vdavid/invitesweep/internal/cleaner"
	"github.com/vdavid/invitesweep/internal/models"
)

// Inbox is the inbox folder of one mail store, reached through the shared connection pool.
type Inbox struct {
	store    *models.MailStore
	password string
	pool     *Pool
}

var _ cleaner.Folder = (*Inbox)(nil)

// Name returns the store's display name and inbox folder, e.g. "Work/INBOX".
func (i *Inbox) Name() string {
	return i.store.DisplayName + "/" + i.store.InboxFolderName
}

// StoreID returns the ID of the mail store the inbox belongs to.
func (i *Inbox) StoreID() string {
	return i.store.ID
}

// MeetingItems returns the raw source of every candidate meeting notification in the inbox.
func (i *Inbox) MeetingItems(ctx context.Context) ([]models.InboxItem, error) {
	var items []models.InboxItem
	err := i.withFolder(ctx, func(c *client.Client) error {
		uids, err := SearchMeetingMessages(c)
		if err != nil {
			return err
		}
		items, err = FetchRawMessages(c, uids)
		return err
	})
	return items, err
}

// Remove deletes a notification from the inbox.
func (i *Inbox) Remove(ctx context.Context, uid uint32) error {
	return i.withFolder(ctx, func(c *client.Client) error {
		return DeleteMessage(c, uid)
	})
}

// withFolder runs fn with the inbox selected. A failed command drops the cached
// connection so the next call starts from a fresh one.
func (i *Inbox) withFolder(ctx context.Context, fn func(c *client.Client) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	conn, release, err := i.pool.getClient(i.store.ID, i.store.IMAPServerHostname, i.store.IMAPUsername, i.password)
	if err != nil {
		return fmt.Errorf("failed to get IMAP client: %w", err)
	}

	c := conn.client
	if _, err := c.Select(i.store.InboxFolderName, false); err != nil {
		release()
		i.pool.RemoveClient(i.store.ID)
		return fmt.Errorf("failed to select folder %s: %w", i.store.InboxFolderName, err)
	}

	if err := fn(c); err != nil {
		release()
		i.pool.RemoveClient(i.store.ID)
		return err
	}

	release()
	return nil
}
