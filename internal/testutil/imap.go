package testutil

import (
	"bytes"
	"fmt"
	"log"
	"net"
	"testing"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/backend/memory"
	imapclient "github.com/emersion/go-imap/client"
	"github.com/emersion/go-imap/server"
)

// TestIMAPServer represents a test IMAP server instance.
type TestIMAPServer struct {
	Server   *server.Server
	Address  string
	Backend  *memory.Backend
	cleanup  func()
	username string
	password string
}

// StartIMAPServer starts an IMAP server with an in-memory backend on a random loopback port.
// The memory backend creates a default user with username "username" and password "password".
func StartIMAPServer() (*TestIMAPServer, error) {
	be := memory.New()

	s := server.New(be)
	s.AllowInsecureAuth = true

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	go func() {
		if err := s.Serve(listener); err != nil {
			log.Printf("IMAP server stopped: %v", err)
		}
	}()

	// Give server time to start
	time.Sleep(100 * time.Millisecond)

	return &TestIMAPServer{
		Server:   s,
		Address:  listener.Addr().String(),
		Backend:  be,
		cleanup:  func() { _ = s.Close() },
		username: "username",
		password: "password",
	}, nil
}

// NewTestIMAPServer creates a new test IMAP server with an in-memory backend.
func NewTestIMAPServer(t *testing.T) *TestIMAPServer {
	t.Helper()

	s, err := StartIMAPServer()
	if err != nil {
		t.Fatalf("Failed to start IMAP server: %v", err)
	}
	return s
}

// Close shuts down the test IMAP server.
func (s *TestIMAPServer) Close() {
	if s.cleanup != nil {
		s.cleanup()
	}
}

// Username returns the default test username.
func (s *TestIMAPServer) Username() string {
	return s.username
}

// Password returns the default test password.
func (s *TestIMAPServer) Password() string {
	return s.password
}

// Dial opens a logged-in client connection to the server.
func (s *TestIMAPServer) Dial() (*imapclient.Client, error) {
	client, err := imapclient.Dial(s.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test server: %w", err)
	}

	if err := client.Login(s.username, s.password); err != nil {
		_ = client.Logout()
		return nil, fmt.Errorf("failed to login: %w", err)
	}

	return client, nil
}

// Connect creates a new IMAP client connection to the test server.
func (s *TestIMAPServer) Connect(t *testing.T) (*imapclient.Client, func()) {
	t.Helper()

	client, err := s.Dial()
	if err != nil {
		t.Fatalf("%v", err)
	}

	return client, func() { _ = client.Logout() }
}

// EnsureINBOX ensures the INBOX folder exists for the default user.
func (s *TestIMAPServer) EnsureINBOX(t *testing.T) {
	t.Helper()

	if err := s.EnsureFolder("INBOX"); err != nil {
		t.Fatalf("%v", err)
	}
}

// EnsureFolder creates a folder unless it already exists.
func (s *TestIMAPServer) EnsureFolder(folderName string) error {
	client, err := s.Dial()
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout() }()

	if _, err := client.Select(folderName, true); err == nil {
		return nil
	}
	if err := client.Create(folderName); err != nil {
		return fmt.Errorf("failed to create %s: %w", folderName, err)
	}
	return nil
}

// AddMessage adds a plain text message to the specified folder and returns its UID.
func (s *TestIMAPServer) AddMessage(t *testing.T, folderName, messageID, subject, from, to string, sentAt time.Time) uint32 {
	t.Helper()

	messageBody := fmt.Sprintf("Message-ID: %s\r\n"+
		"Date: %s\r\n"+
		"From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"Content-Type: text/plain; charset=utf-8\r\n"+
		"\r\n"+
		"Test message body.\r\n", messageID, sentAt.Format(time.RFC1123Z), from, to, subject)

	uid, err := s.AppendMessage(folderName, messageID, []byte(messageBody))
	if err != nil {
		t.Fatalf("%v", err)
	}
	return uid
}

// AddInvitation adds a meeting invitation or cancellation to the folder and returns its UID.
func (s *TestIMAPServer) AddInvitation(t *testing.T, folderName string, invitation Invitation) uint32 {
	t.Helper()

	uid, err := s.AppendMessage(folderName, invitation.MessageID(), invitation.Bytes())
	if err != nil {
		t.Fatalf("%v", err)
	}
	return uid
}

// AppendMessage appends raw RFC 822 bytes to the folder and returns the UID of the
// message with the given Message-ID.
func (s *TestIMAPServer) AppendMessage(folderName, messageID string, raw []byte) (uint32, error) {
	client, err := s.Dial()
	if err != nil {
		return 0, err
	}
	defer func() { _ = client.Logout() }()

	if err := client.Append(folderName, nil, time.Now(), bytes.NewReader(raw)); err != nil {
		return 0, fmt.Errorf("failed to append message: %w", err)
	}

	if _, err := client.Select(folderName, true); err != nil {
		return 0, fmt.Errorf("failed to select folder: %w", err)
	}

	// Search for the message we just added to get its UID
	criteria := imap.NewSearchCriteria()
	criteria.Header.Add("Message-ID", messageID)
	uids, err := client.UidSearch(criteria)
	if err != nil {
		return 0, fmt.Errorf("failed to search for message: %w", err)
	}

	if len(uids) == 0 {
		return 0, fmt.Errorf("message %s not found after append", messageID)
	}

	return uids[len(uids)-1], nil
}

// UIDs returns the UIDs of all messages in the folder that are not flagged as deleted.
func (s *TestIMAPServer) UIDs(t *testing.T, folderName string) []uint32 {
	t.Helper()

	client, cleanup := s.Connect(t)
	defer cleanup()

	if _, err := client.Select(folderName, true); err != nil {
		t.Fatalf("Failed to select folder: %v", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.DeletedFlag}
	uids, err := client.UidSearch(criteria)
	if err != nil {
		t.Fatalf("Failed to search folder: %v", err)
	}
	return uids
}

// Flags returns the flags of a message.
func (s *TestIMAPServer) Flags(t *testing.T, folderName string, uid uint32) []string {
	t.Helper()

	client, cleanup := s.Connect(t)
	defer cleanup()

	if _, err := client.Select(folderName, true); err != nil {
		t.Fatalf("Failed to select folder: %v", err)
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)
	messages := make(chan *imap.Message, 1)
	if err := client.UidFetch(seqSet, []imap.FetchItem{imap.FetchFlags, imap.FetchUid}, messages); err != nil {
		t.Fatalf("Failed to fetch flags: %v", err)
	}
	msg := <-messages
	if msg == nil {
		t.Fatalf("Message UID %d not found", uid)
	}
	return msg.Flags
}
