package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/residentbot/core/config"
	coredatabase "github.com/m3rciful/residentbot/core/database"
	"github.com/m3rciful/residentbot/core/directory"
	"github.com/m3rciful/residentbot/core/dispatch"
	"github.com/m3rciful/residentbot/core/gate"
	"github.com/m3rciful/residentbot/core/ledger"
	"github.com/m3rciful/residentbot/core/logger"
	"github.com/m3rciful/residentbot/core/telegram"
	"github.com/m3rciful/residentbot/core/telegram/commands"
	"github.com/m3rciful/residentbot/core/webhook"
)

// Options control the bootstrap pipeline. Nil funcs and collaborators fall
// back to the production implementations.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	LoadAWS    func(context.Context, coreconfig.AWSConfig) (aws.Config, error)
	Connect    func(coreconfig.DatabaseConfig) (*sqlx.DB, error)
	Migrate    func(coreconfig.DatabaseConfig) error

	// Overrides for tests and local runs.
	Store   directory.ObjectStore
	Ledger  ledger.Ledger
	Gateway telegram.Gateway
}

// App is the per-process context built once at start and read-only afterwards.
type App struct {
	Config    *coreconfig.Config
	Snapshot  *directory.Snapshot
	Catalogue *commands.Catalogue
	Gateway   telegram.Gateway
	Handler   *webhook.Handler

	closers []func() error
}

// Build initializes logging, storage, the ledger and the Telegram gateway,
// loads the directory snapshot and wires the webhook handler.
func Build(ctx context.Context, opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}
	cfg := opts.Config
	start := time.Now()

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(cfg); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	app := &App{Config: cfg, Catalogue: commands.Default()}

	var awsCfg *aws.Config
	awsConfig := func() (aws.Config, error) {
		if awsCfg != nil {
			return *awsCfg, nil
		}
		load := opts.LoadAWS
		if load == nil {
			load = LoadAWSConfig
		}
		c, err := load(ctx, cfg.AWS)
		if err != nil {
			return aws.Config{}, fmt.Errorf("bootstrap: aws config: %w", err)
		}
		awsCfg = &c
		return c, nil
	}

	store := opts.Store
	if store == nil {
		c, err := awsConfig()
		if err != nil {
			return nil, err
		}
		s3Store, err := directory.NewS3Store(NewS3Client(c), cfg.Storage.Bucket)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		store = s3Store
	}

	l := opts.Ledger
	if l == nil {
		var err error
		l, err = app.buildLedger(opts, awsConfig)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
	}

	gw := opts.Gateway
	if gw == nil {
		bot, err := telegram.NewBot(cfg.Telegram)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		gw = bot
	}
	app.Gateway = gw

	app.Snapshot = directory.NewLoader(store, cfg.Storage.ScratchDir,
		cfg.Storage.AllowedUsersKey, cfg.Storage.ContactsKey).Load(ctx)

	g := gate.New(l, app.Snapshot)
	d := dispatch.New(dispatch.Config{
		Catalogue:   app.Catalogue,
		Directory:   app.Snapshot,
		Store:       store,
		ScratchDir:  cfg.Storage.ScratchDir,
		DocumentKey: cfg.Storage.DocumentKey,
	})
	app.Handler = webhook.NewHandler(g, d, gw)

	logger.L.With("component", "app").Info("app ready",
		slog.String("event", "ready"),
		slog.String("ledger", cfg.Ledger.Driver),
		slog.Int("allowed", app.Snapshot.AllowedCount()),
		slog.Int("count", app.Snapshot.ContactCount()),
		slog.Duration("startup_duration", logger.RoundMS(time.Since(start))),
	)
	return app, nil
}

func (a *App) buildLedger(opts Options, awsConfig func() (aws.Config, error)) (ledger.Ledger, error) {
	cfg := opts.Config
	switch cfg.Ledger.Driver {
	case coreconfig.LedgerMemory:
		return ledger.NewMemoryLedger(), nil
	case coreconfig.LedgerPostgres:
		connect := opts.Connect
		if connect == nil {
			connect = coredatabase.Connect
		}
		db, err := connect(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
		}
		a.closers = append(a.closers, db.Close)

		migrate := opts.Migrate
		if migrate == nil {
			migrate = coredatabase.RunMigrations
		}
		if err := migrate(cfg.Database); err != nil {
			return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
		}
		return ledger.NewPostgresLedger(db)
	default:
		c, err := awsConfig()
		if err != nil {
			return nil, err
		}
		return ledger.NewDynamoLedger(NewDynamoClient(c), cfg.Ledger.Table)
	}
}

// Close releases resources opened by Build.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
