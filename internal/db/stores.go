package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vdavid/invitesweep/internal/models"
)

// ErrMailStoreNotFound is returned when a mail store cannot be found.
var ErrMailStoreNotFound = errors.New("mail store not found")

const mailStoreColumns = `
	id,
	display_name,
	store_type,
	imap_server_hostname,
	imap_username,
	encrypted_imap_password,
	inbox_folder_name,
	created_at,
	updated_at`

func scanMailStore(row pgx.Row) (*models.MailStore, error) {
	var store models.MailStore
	var storeType string

	err := row.Scan(
		&store.ID,
		&store.DisplayName,
		&storeType,
		&store.IMAPServerHostname,
		&store.IMAPUsername,
		&store.EncryptedIMAPPassword,
		&store.InboxFolderName,
		&store.CreatedAt,
		&store.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	store.StoreType = models.StoreType(storeType)
	return &store, nil
}

// ListMailStores returns every registered mail store, personal or not, in a stable order.
// Filtering out shared and public stores is left to the caller so it can log what it skips.
func ListMailStores(ctx context.Context, pool *pgxpool.Pool) ([]*models.MailStore, error) {
	rows, err := pool.Query(ctx, `SELECT `+mailStoreColumns+` FROM mail_stores ORDER BY display_name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query mail stores: %w", err)
	}
	defer rows.Close()

	var stores []*models.MailStore
	for rows.Next() {
		store, err := scanMailStore(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mail store: %w", err)
		}
		stores = append(stores, store)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mail stores: %w", err)
	}

	return stores, nil
}

// GetMailStore returns the mail store with the given ID.
func GetMailStore(ctx context.Context, pool *pgxpool.Pool, storeID string) (*models.MailStore, error) {
	store, err := scanMailStore(pool.QueryRow(ctx, `SELECT `+mailStoreColumns+` FROM mail_stores WHERE id = $1`, storeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMailStoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mail store: %w", err)
	}

	return store, nil
}

// SaveMailStore inserts or updates a mail store. The caller must set store.ID,
// because the password ciphertext is bound to it.
func SaveMailStore(ctx context.Context, pool *pgxpool.Pool, store *models.MailStore) error {
	if store.ID == "" {
		return fmt.Errorf("mail store ID is required")
	}

	if store.StoreType == "" {
		store.StoreType = models.StorePersonal
	}

	if store.InboxFolderName == "" {
		store.InboxFolderName = "INBOX"
	}

	_, err := pool.Exec(ctx, `
		INSERT INTO mail_stores (
			id,
			display_name,
			store_type,
			imap_server_hostname,
			imap_username,
			encrypted_imap_password,
			inbox_folder_name
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			store_type = EXCLUDED.store_type,
			imap_server_hostname = EXCLUDED.imap_server_hostname,
			imap_username = EXCLUDED.imap_username,
			encrypted_imap_password = EXCLUDED.encrypted_imap_password,
			inbox_folder_name = EXCLUDED.inbox_folder_name,
			updated_at = NOW()
	`,
		store.ID,
		store.DisplayName,
		string(store.StoreType),
		store.IMAPServerHostname,
		store.IMAPUsername,
		store.EncryptedIMAPPassword,
		store.InboxFolderName,
	)
	if err != nil {
		return fmt.Errorf("failed to save mail store: %w", err)
	}

	return nil
}
