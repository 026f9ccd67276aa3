package main

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli"
	"github.com/vdavid/invitesweep/internal/bridge"
	"github.com/vdavid/invitesweep/internal/cleaner"
	"github.com/vdavid/invitesweep/internal/config"
	"github.com/vdavid/invitesweep/internal/crypto"
	"github.com/vdavid/invitesweep/internal/db"
	"github.com/vdavid/invitesweep/internal/imap"
	"github.com/vdavid/invitesweep/internal/meeting"
	"github.com/vdavid/invitesweep/internal/metrics"
	"github.com/vdavid/invitesweep/internal/report"
)

const appName = "invitesweep"

func main() {
	app := newApp(os.Stdout, sweep)
	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}
}

// newApp builds the CLI. Without arguments it runs action; any argument,
// flag-like or not, prints usage and succeeds.
func newApp(out io.Writer, action func(ctx context.Context, out io.Writer) error) *cli.App {
	app := cli.NewApp()
	app.Name = appName
	app.Usage = "removes stale meeting invitations from your inboxes"
	app.HideHelp = true
	app.HideVersion = true
	app.Writer = out
	app.ErrWriter = out
	app.OnUsageError = func(c *cli.Context, err error, _ bool) error {
		report.PrintUsage(out, appName)
		return nil
	}
	app.Action = func(c *cli.Context) error {
		if c.NArg() > 0 {
			report.PrintUsage(out, appName)
			return nil
		}
		return action(context.Background(), out)
	}
	return app
}

// sweep loads the configuration and runs one sweep. Configuration problems are
// fatal before any inbox is touched; everything after that only logs.
func sweep(ctx context.Context, out io.Writer) error {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	encryptor, err := crypto.NewEncryptor(cfg.EncryptionKeyBase64)
	if err != nil {
		log.Fatalf("Failed to create encryptor: %v", err)
	}

	pool, err := db.NewConnection(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.CloseConnection(pool)

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	run(ctx, cfg, pool, encryptor, out)
	return nil
}

// run sweeps every available inbox until a pass deletes nothing, then prints the summary.
func run(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, encryptor *crypto.Encryptor, out io.Writer) cleaner.Result {
	launcher := bridge.NewLauncher(cfg.BridgeAddress, cfg.BridgeCommand, cfg.BridgeLaunchWait)
	service := imap.NewService(pool, encryptor, launcher, cfg.IMAPUseTLS)
	defer service.Close()

	calendar := db.NewCalendar(pool)
	sweeper := cleaner.NewSweeper(
		meeting.NewClassifier(calendar),
		calendar,
		cleaner.Reporters{report.NewConsole(out), metrics.Recorder{}},
	)

	source := cleaner.InboxSourceFunc(func(ctx context.Context) []cleaner.Folder {
		return service.ListInboxes(ctx, cfg.AutoLaunch)
	})

	result := cleaner.NewLoop(source, sweeper).Run(ctx)

	report.PrintSummary(out, result)
	metrics.RecordRun(result)
	if err := metrics.WriteToTextfile(cfg.MetricsTextfile); err != nil {
		log.Printf("Warning: Failed to write metrics: %v", err)
	}

	return result
}
