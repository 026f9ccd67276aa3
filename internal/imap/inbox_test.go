package imap

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vdavid/invitesweep/internal/models"
	"github.com/vdavid/invitesweep/internal/testutil"
)

func newTestInbox(server *testutil.TestIMAPServer, pool *Pool, folder string) *Inbox {
	return &Inbox{
		store: &models.MailStore{
			ID:                 "store-1",
			DisplayName:        "Work",
			StoreType:          models.StorePersonal,
			IMAPServerHostname: server.Address,
			IMAPUsername:       server.Username(),
			InboxFolderName:    folder,
		},
		password: server.Password(),
		pool:     pool,
	}
}

func TestInbox(t *testing.T) {
	server := testutil.NewTestIMAPServer(t)
	defer server.Close()
	server.EnsureINBOX(t)

	ctx := context.Background()
	invitation := server.AddInvitation(t, "INBOX", testutil.Invitation{
		UID: "inbox-1", Subject: "Kickoff", Organizer: "boss@example.com", Attendee: "username@example.com",
		Start: time.Now().Add(-96 * time.Hour), ContentClass: true,
	})
	plain := server.AddMessage(t, "INBOX", "<plain-inbox@example.com>", "Hi", "a@example.com", "b@example.com", time.Now())

	pool := NewPool(false)
	defer pool.Close()
	inbox := newTestInbox(server, pool, "INBOX")

	assert.Equal(t, "Work/INBOX", inbox.Name())
	assert.Equal(t, "store-1", inbox.StoreID())

	items, err := inbox.MeetingItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, invitation, items[0].UID)

	require.NoError(t, inbox.Remove(ctx, invitation))

	uids := server.UIDs(t, "INBOX")
	assert.NotContains(t, uids, invitation)
	assert.Contains(t, uids, plain)

	items, err = inbox.MeetingItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 1, pool.size(), "the connection is reused across calls")
}

func TestInboxMissingFolder(t *testing.T) {
	server := testutil.NewTestIMAPServer(t)
	defer server.Close()

	pool := NewPool(false)
	defer pool.Close()
	inbox := newTestInbox(server, pool, "Does-Not-Exist")

	_, err := inbox.MeetingItems(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to select folder")
	assert.Equal(t, 0, pool.size(), "a failed connection is dropped")
}

func TestInboxCanceledContext(t *testing.T) {
	server := testutil.NewTestIMAPServer(t)
	defer server.Close()

	pool := NewPool(false)
	defer pool.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newTestInbox(server, pool, "INBOX").Remove(ctx, 1)

	assert.ErrorIs(t, err, context.Canceled)
}
