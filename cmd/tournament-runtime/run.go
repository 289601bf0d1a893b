package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getpup/pupsourcing/es/adapters/postgres"
	"github.com/getpup/tournament-runtime"
	"github.com/getpup/tournament-runtime/config"
	"github.com/getpup/tournament-runtime/engine"
	"github.com/getpup/tournament-runtime/engine/points"
	"github.com/getpup/tournament-runtime/feed"
	"github.com/getpup/tournament-runtime/feed/esfeed"
	"github.com/getpup/tournament-runtime/feed/redisfeed"
	"github.com/getpup/tournament-runtime/identity"
	"github.com/getpup/tournament-runtime/leaderboard/redisboard"
	"github.com/getpup/tournament-runtime/logging"
	"github.com/getpup/tournament-runtime/metrics"
	"github.com/getpup/tournament-runtime/orchestrator"
	"github.com/getpup/tournament-runtime/pkg/migrations"
	"github.com/getpup/tournament-runtime/report"
	"github.com/getpup/tournament-runtime/store/gormstore"
	"github.com/getpup/tournament-runtime/store/sqlstore"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

// run wires the production collaborators, drives the tournament and returns
// its exit code. Errors are only returned for failures before the
// orchestrator exists.
func run(ctx context.Context, cfg *config.Config) (int, error) {
	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return 1, err
	}
	logger = logger.With("service", "tournament-runtime")

	db, dialect, err := openDatabase(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return 1, err
	}
	defer db.Close()
	tournaments := sqlstore.New(db, dialect)

	gameDB, err := gormstore.Open(cfg.GameDSN())
	if err != nil {
		return 1, err
	}
	games := gormstore.New(gameDB)

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return 1, fmt.Errorf("invalid redis url: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	feeds, closeFeeds, err := newFeeds(cfg, db, redisClient, logger)
	if err != nil {
		return 1, err
	}
	defer closeFeeds()

	engines := engine.NewRegistry()
	engines.MustRegister(points.GameType, points.New)

	reporter, err := newReporter(ctx, cfg.Report)
	if err != nil {
		return 1, err
	}

	o, err := orchestrator.New(orchestrator.Config{
		TournamentID:  cfg.TournamentID,
		Tournaments:   tournaments,
		Games:         games,
		Identity:      identity.NewVerifier(tournaments, taskSource(cfg)),
		Feeds:         feeds,
		Engines:       engines,
		Leaderboard:   redisboard.New(redisClient, logger),
		CompleteDelay: cfg.CompleteDelay,
		Reporter:      reporter,
		Logger:        logger,
	})
	if err != nil {
		return 1, err
	}

	if cfg.MetricsAddr != "" {
		server := metrics.NewServer(cfg.MetricsAddr, o.Status)
		server.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Error(ctx, "metrics server shutdown failed", "error", err)
			}
		}()
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	go func() {
		select {
		case sig := <-signals:
			logger.Info(ctx, "received signal, cancelling tournament", "signal", sig.String())
			o.Cancel(ctx)
		case <-o.Done():
		}
	}()

	if err := initTournament(ctx, o); err != nil {
		logger.Error(ctx, "tournament init failed", "tournamentID", cfg.TournamentID, "error", err)
	}

	<-o.Done()
	term := o.Termination()
	if err := o.Close(); err != nil {
		logger.Error(ctx, "failed to stop scheduler", "error", err)
	}

	logger.Info(ctx, "tournament runtime exiting",
		"tournamentID", cfg.TournamentID,
		"code", term.Code,
		"reason", term.Reason,
		"forced", term.Forced)
	return term.Code, nil
}

// migrate creates the tournament tables through pkg/migrations and the game
// table through gorm.
func migrate(ctx context.Context, cfg *config.Config) error {
	if cfg.DatabaseURL == "" {
		return errors.New("database_url is required")
	}

	db, dialect, err := openDatabase(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := sqlstore.New(db, dialect).Migrate(ctx, migrations.DefaultConfig()); err != nil {
		return err
	}

	if cfg.FeedDriver == config.FeedEventStore {
		if err := migrateEventStore(ctx, cfg); err != nil {
			return err
		}
	}

	if cfg.DatabaseDriver != string(sqlstore.DialectPostgres) && cfg.GameDatabaseURL == "" {
		return nil
	}
	gameDB, err := gormstore.Open(cfg.GameDSN())
	if err != nil {
		return err
	}
	return gormstore.New(gameDB).Migrate(ctx)
}

func migrateEventStore(ctx context.Context, cfg *config.Config) error {
	db, err := sql.Open("postgres", cfg.EventStoreDSN())
	if err != nil {
		return fmt.Errorf("failed to open event store: %w", err)
	}
	defer db.Close()
	return esfeed.Migrate(ctx, db)
}

// newFeeds builds the provisioner selected by feed_driver. The returned
// func releases any connection opened for it.
func newFeeds(cfg *config.Config, db *sql.DB, redisClient redis.UniversalClient, logger tournament.Logger) (feed.Provisioner, func(), error) {
	switch cfg.FeedDriver {
	case config.FeedEventStore:
		esDB := db
		closeDB := func() {}
		if cfg.EventStoreDSN() != cfg.DatabaseURL || cfg.DatabaseDriver != "postgres" {
			var err error
			esDB, err = sql.Open("postgres", cfg.EventStoreDSN())
			if err != nil {
				return nil, nil, fmt.Errorf("failed to open event store: %w", err)
			}
			closeDB = func() { _ = esDB.Close() }
		}
		return esfeed.NewProvisioner(esfeed.Config{
			DB:         esDB,
			EventStore: postgres.NewStore(postgres.DefaultStoreConfig()),
			Logger:     logger,
		}), closeDB, nil
	case config.FeedRedis:
		return redisfeed.NewProvisioner(redisfeed.Config{Client: redisClient, Logger: logger}), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported feed driver %q", cfg.FeedDriver)
	}
}

// openDatabase opens the tournament database. MySQL DSNs need
// multiStatements=true for migrate.
func openDatabase(driver, dsn string) (*sql.DB, sqlstore.Dialect, error) {
	name, dialect, err := sqlDriver(driver)
	if err != nil {
		return nil, "", err
	}

	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	return db, dialect, nil
}

func sqlDriver(driver string) (string, sqlstore.Dialect, error) {
	switch driver {
	case "postgres":
		return "postgres", sqlstore.DialectPostgres, nil
	case "mysql":
		return "mysql", sqlstore.DialectMySQL, nil
	case "sqlite":
		return "sqlite3", sqlstore.DialectSQLite, nil
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

func taskSource(cfg *config.Config) identity.Source {
	if cfg.TaskID != "" {
		return identity.Static(cfg.TaskID)
	}
	return identity.NewECSMetadata(cfg.ECSMetadataURI)
}

func newReporter(ctx context.Context, cfg config.ReportConfig) (report.Reporter, error) {
	if cfg.Bucket == "" {
		return nil, nil
	}

	client, err := report.NewS3Client(ctx, report.S3Config{
		Bucket:          cfg.Bucket,
		Prefix:          cfg.Prefix,
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
	})
	if err != nil {
		return nil, err
	}
	return report.NewS3Reporter(client, cfg.Bucket, cfg.Prefix)
}

// initTournament runs Init and turns a panic escaping it into a failure so
// that Done is always closed.
func initTournament(ctx context.Context, o *orchestrator.Orchestrator) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("init panicked: %v", recovered)
			o.Fail(ctx, err)
		}
	}()
	return o.Init(ctx)
}
