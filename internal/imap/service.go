package imap

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vdavid/invitesweep/internal/cleaner"
	"github.com/vdavid/invitesweep/internal/crypto"
	"github.com/vdavid/invitesweep/internal/db"
)

// Bridge is the local mail bridge the IMAP connections go through.
type Bridge interface {
	// Running reports whether the bridge accepts connections.
	Running(ctx context.Context) bool
	// EnsureRunning starts the bridge if needed and waits for it once.
	EnsureRunning(ctx context.Context) error
}

// Service lists the inboxes of registered mail stores.
type Service struct {
	pool       *pgxpool.Pool
	clientPool *Pool
	encryptor  *crypto.Encryptor
	bridge     Bridge
}

// NewService creates a new IMAP service. A nil bridge means stores are reached directly.
func NewService(pool *pgxpool.Pool, encryptor *crypto.Encryptor, bridge Bridge, useTLS bool) *Service {
	return &Service{
		pool:       pool,
		clientPool: NewPool(useTLS),
		encryptor:  encryptor,
		bridge:     bridge,
	}
}

// ListInboxes returns the inbox of every personal mail store. Shared and public
// stores are skipped. A store that cannot be read is logged and skipped.
// If the bridge is unavailable the result is empty.
func (s *Service) ListInboxes(ctx context.Context, autoLaunch bool) []cleaner.Folder {
	if !s.bridgeAvailable(ctx, autoLaunch) {
		return nil
	}

	stores, err := db.ListMailStores(ctx, s.pool)
	if err != nil {
		log.Printf("Warning: Failed to list mail stores: %v", err)
		return nil
	}

	var inboxes []cleaner.Folder
	for _, store := range stores {
		if !store.IsPersonal() {
			log.Printf("Skipping %s store %s", store.StoreType, store.DisplayName)
			continue
		}

		password, err := s.encryptor.DecryptPassword(store.ID, store.EncryptedIMAPPassword)
		if err != nil {
			log.Printf("Warning: Failed to decrypt IMAP password for store %s: %v", store.DisplayName, err)
			continue
		}

		inboxes = append(inboxes, &Inbox{
			store:    store,
			password: password,
			pool:     s.clientPool,
		})
	}

	return inboxes
}

func (s *Service) bridgeAvailable(ctx context.Context, autoLaunch bool) bool {
	if s.bridge == nil {
		return true
	}

	if autoLaunch {
		if err := s.bridge.EnsureRunning(ctx); err != nil {
			log.Printf("Warning: Mail bridge is not available: %v", err)
			return false
		}
		return true
	}

	if !s.bridge.Running(ctx) {
		log.Printf("Warning: Mail bridge is not running and auto-launch is off, nothing to sweep")
		return false
	}
	return true
}

// Close closes the service and cleans up connections.
func (s *Service) Close() {
	s.clientPool.Close()
}
