package models

import "time"

// StoreType tells personal mailboxes apart from shared and public ones.
type StoreType string

const (
	StorePersonal StoreType = "personal"
	StoreShared   StoreType = "shared"
	StorePublic   StoreType = "public"
)

// MailStore is a registered mailbox account whose inbox gets swept.
type MailStore struct {
	ID                    string    `json:"id"`
	DisplayName           string    `json:"display_name"`
	StoreType             StoreType `json:"store_type"`
	IMAPServerHostname    string    `json:"imap_server_hostname"`
	IMAPUsername          string    `json:"imap_username"`
	EncryptedIMAPPassword []byte    `json:"-"`
	InboxFolderName       string    `json:"inbox_folder_name"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// IsPersonal reports whether the store holds the user's own inbox.
func (s *MailStore) IsPersonal() bool {
	return s.StoreType == StorePersonal
}
