package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/vdavid/invitesweep/internal/config"
	"github.com/vdavid/invitesweep/internal/crypto"
	"github.com/vdavid/invitesweep/internal/db"
	"github.com/vdavid/invitesweep/internal/models"
	"github.com/vdavid/invitesweep/internal/testutil"
)

// testEncryptionKey is a fixed 32-byte key so the printed environment stays valid across restarts.
const testEncryptionKey = "dGVzdC1rZXktMTIzNDU2Nzg5MDEyMzQ1Njc4OTAxMjM="

func main() {
	ctx := context.Background()

	// Start Postgres database
	postgresContainer, cfg, err := startPostgres(ctx)
	if err != nil {
		log.Fatalf("Failed to start Postgres: %v", err)
	}
	defer func() {
		if err := postgresContainer.Terminate(ctx); err != nil {
			log.Printf("Failed to terminate Postgres container: %v", err)
		}
	}()

	// Start test mail server
	log.Println("Starting test IMAP server...")
	imapServer, err := testutil.StartIMAPServer()
	if err != nil {
		log.Fatalf("Failed to start test IMAP server: %v", err)
	}
	defer imapServer.Close()
	log.Printf("Test IMAP server started on %s", imapServer.Address)

	pool, err := setupDatabase(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to setup database: %v", err)
	}
	defer db.CloseConnection(pool)

	if err := seedTestData(ctx, pool, imapServer, time.Now()); err != nil {
		log.Fatalf("Failed to seed test data: %v", err)
	}

	printEnvironment(cfg)
	log.Println("Test server ready. Press Ctrl+C to stop.")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Printf("Received signal %v, shutting down...", sig)
}

// startPostgres starts a test Postgres database and returns a config pointing at it.
func startPostgres(ctx context.Context) (*postgres.PostgresContainer, *config.Config, error) {
	log.Println("Starting test Postgres database...")
	container, err := testutil.StartPostgres(ctx)
	if err != nil {
		return nil, nil, err
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, nil, fmt.Errorf("failed to get container port: %w", err)
	}

	cfg := &config.Config{
		Environment:         "test",
		EncryptionKeyBase64: testEncryptionKey,
		DBHost:              host,
		DBPort:              port.Port(),
		DBUsername:          testutil.PostgresUser,
		DBPassword:          testutil.PostgresPassword,
		DBName:              testutil.PostgresDatabase,
		DBSSLMode:           "disable",
		BridgeLaunchWait:    15 * time.Second,
		IMAPUseTLS:          false,
	}

	log.Println("Test Postgres database started")
	return container, cfg, nil
}

// setupDatabase creates a database connection pool and runs migrations.
func setupDatabase(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := db.NewConnection(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx, pool); err != nil {
		db.CloseConnection(pool)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("Successfully connected to database and ran migrations")
	return pool, nil
}

// seedTestData registers the mail stores and fills calendar and inbox with one
// meeting per outcome: A goes tentative, B stays, C is a cancellation, D is already resolved.
func seedTestData(ctx context.Context, pool *pgxpool.Pool, imapServer *testutil.TestIMAPServer, now time.Time) error {
	encryptor, err := crypto.NewEncryptor(testEncryptionKey)
	if err != nil {
		return fmt.Errorf("failed to create encryptor: %w", err)
	}

	stores := []*models.MailStore{
		{ID: "test", DisplayName: "Test User", StoreType: models.StorePersonal},
		{ID: "public", DisplayName: "Public Folders", StoreType: models.StorePublic},
	}
	for _, store := range stores {
		sealed, err := encryptor.EncryptPassword(store.ID, imapServer.Password())
		if err != nil {
			return fmt.Errorf("failed to encrypt IMAP password: %w", err)
		}
		store.IMAPServerHostname = imapServer.Address
		store.IMAPUsername = imapServer.Username()
		store.EncryptedIMAPPassword = sealed
		if err := db.SaveMailStore(ctx, pool, store); err != nil {
			return err
		}
	}

	appointments := []*models.Appointment{
		{ICalUID: "A", Subject: "Quarterly planning", StartUTC: now.Add(-48 * time.Hour), MeetingStatus: models.MeetingNormal},
		{ICalUID: "B", Subject: "Team standup", StartUTC: now.Add(-2 * time.Hour), MeetingStatus: models.MeetingNormal},
		{ICalUID: "C", Subject: "Offsite", StartUTC: now.Add(-100 * time.Hour), MeetingStatus: models.MeetingCanceled},
	}
	for _, appt := range appointments {
		appt.StoreID = "test"
		appt.Organizer = "organizer@example.com"
		appt.EndUTC = appt.StartUTC.Add(time.Hour)
		appt.ResponseStatus = models.ResponseNone
		if err := db.SaveAppointment(ctx, pool, appt); err != nil {
			return err
		}
	}
	log.Printf("Seeded %d appointments", len(appointments))

	if err := imapServer.EnsureFolder("INBOX"); err != nil {
		return err
	}

	invitations := []testutil.Invitation{
		{UID: "A", Subject: "Quarterly planning", Start: now.Add(-48 * time.Hour)},
		{UID: "B", Subject: "Team standup", Start: now.Add(-2 * time.Hour)},
		{UID: "C", Subject: "Offsite", Start: now.Add(-100 * time.Hour), Method: "CANCEL"},
		{UID: "D", Subject: "Retro", Start: now.Add(-72 * time.Hour)},
	}
	for _, invitation := range invitations {
		invitation.Organizer = "organizer@example.com"
		invitation.Attendee = imapServer.Username()
		invitation.ContentClass = true
		if _, err := imapServer.AppendMessage("INBOX", invitation.MessageID(), invitation.Bytes()); err != nil {
			return fmt.Errorf("failed to add invitation %s: %w", invitation.UID, err)
		}
	}
	log.Printf("Seeded %d invitations", len(invitations))

	return nil
}

func printEnvironment(cfg *config.Config) {
	fmt.Println("Run invitesweep against this server with:")
	fmt.Println()
	fmt.Printf("export INVITESWEEP_ENV=test\n")
	fmt.Printf("export INVITESWEEP_ENCRYPTION_KEY_BASE64=%s\n", cfg.EncryptionKeyBase64)
	fmt.Printf("export INVITESWEEP_DB_HOST=%s\n", cfg.DBHost)
	fmt.Printf("export INVITESWEEP_DB_PORT=%s\n", cfg.DBPort)
	fmt.Printf("export INVITESWEEP_DB_USER=%s\n", cfg.DBUsername)
	fmt.Printf("export INVITESWEEP_DB_PASSWORD=%s\n", cfg.DBPassword)
	fmt.Printf("export INVITESWEEP_DB_NAME=%s\n", cfg.DBName)
	fmt.Printf("export INVITESWEEP_IMAP_TLS=false\n")
	fmt.Println()
}
