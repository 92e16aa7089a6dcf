package di

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/tradedeck/tradedeck/internal/charts"
	"github.com/tradedeck/tradedeck/internal/clients/backend"
	"github.com/tradedeck/tradedeck/internal/config"
	"github.com/tradedeck/tradedeck/internal/database"
	"github.com/tradedeck/tradedeck/internal/domain"
	"github.com/tradedeck/tradedeck/internal/modules/connections"
	"github.com/tradedeck/tradedeck/internal/modules/copytrade"
	"github.com/tradedeck/tradedeck/internal/modules/markets"
	"github.com/tradedeck/tradedeck/internal/modules/session"
	"github.com/tradedeck/tradedeck/internal/modules/strategies"
	"github.com/tradedeck/tradedeck/internal/reliability"
	"github.com/tradedeck/tradedeck/internal/snapshot"
)

// Wire initializes all dependencies and returns a fully configured
// container plus the background jobs.
// Order of operations:
//  1. Open and migrate the snapshot database
//  2. Construct the backend client and stores
//  3. Restore the persisted session and store slices
//  4. Build jobs and optional services (price stream, backups)
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, *Jobs, error) {
	db, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "snapshots.db"),
		Profile: database.ProfileCache,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to migrate snapshot database: %w", err)
	}
	log.Info().Str("path", db.Path()).Msg("Snapshot database ready")

	repo := snapshot.NewRepository(db.Conn())
	client := backend.NewClient(cfg.BackendBaseURL, log)

	sessionStore := session.NewStore(client, repo, log)
	currentUser := sessionStore.CurrentUserID

	c := &Container{
		SnapshotDB:   db,
		SnapshotRepo: repo,
		Backend:      client,
		Session:      sessionStore,
		Strategies:   strategies.NewStore(client, log),
		Symbols:      markets.NewSymbolStore(client, log),
		Balances:     markets.NewBalanceStore(client, log),
		CopyTrade:    copytrade.NewStore(client, currentUser, log),
		Connections:  connections.NewStore(client, currentUser, log),
		Series:       charts.NewSeriesStore(log),
	}

	restoreState(c, log)

	if cfg.PriceStreamURL != "" {
		c.PriceStream = charts.NewPriceStream(cfg.PriceStreamURL, c.Series, log)
	}

	jobs := &Jobs{
		SymbolRefresh:    markets.NewRefreshJob(c.Symbols, log),
		SnapshotAutosave: snapshot.NewAutosaveJob(repo, autosaveSources(c), log),
		SnapshotCleanup:  snapshot.NewCleanupJob(repo, log),
	}

	if cfg.Backup.Enabled() {
		storage, err := reliability.NewS3Client(context.Background(), reliability.S3Config{
			Bucket:    cfg.Backup.Bucket,
			Endpoint:  cfg.Backup.Endpoint,
			Region:    cfg.Backup.Region,
			AccessKey: cfg.Backup.AccessKey,
			SecretKey: cfg.Backup.SecretKey,
		}, log)
		if err != nil {
			c.Close()
			return nil, nil, fmt.Errorf("failed to create backup storage client: %w", err)
		}

		c.BackupService = reliability.NewBackupService(db.Conn(), storage, cfg.DataDir, log)
		jobs.Backup = reliability.NewBackupJob(c.BackupService, log)
	}

	log.Info().Msg("Dependency injection wiring completed")
	return c, jobs, nil
}

// restoreState loads the persisted session and store slices so the
// dashboard renders cached data immediately. Failures here only cost
// the warm start; everything refetches from the backend anyway.
func restoreState(c *Container, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := c.Session.Restore(ctx); err != nil {
		log.Warn().Err(err).Msg("Session restore failed")
	}

	var strategySlice []domain.Strategy
	if ok, err := c.SnapshotRepo.LoadSlice(snapshot.SliceStrategies, &strategySlice); err == nil && ok {
		c.Strategies.Replace(strategySlice)
	}

	var universe domain.SymbolUniverse
	if ok, err := c.SnapshotRepo.LoadSlice(snapshot.SliceSymbols, &universe); err == nil && ok {
		c.Symbols.Replace(universe)
	}

	var published []domain.PublishedStrategy
	var subs []domain.Subscription
	okPub, errPub := c.SnapshotRepo.LoadSlice(snapshot.SlicePublished, &published)
	okSub, errSub := c.SnapshotRepo.LoadSlice(snapshot.SliceSubscriptions, &subs)
	if errPub == nil && errSub == nil && (okPub || okSub) {
		c.CopyTrade.Replace(published, subs)
	}

	var creds []domain.Credential
	if ok, err := c.SnapshotRepo.LoadSlice(snapshot.SliceCredentials, &creds); err == nil && ok {
		c.Connections.Replace(creds)
	}
}

// autosaveSources registers every store slice the autosave job persists
func autosaveSources(c *Container) []snapshot.Source {
	return []snapshot.Source{
		{Name: snapshot.SliceStrategies, TTL: snapshot.TTLStrategies, Value: func() interface{} {
			return c.Strategies.Strategies()
		}},
		{Name: snapshot.SliceSymbols, TTL: snapshot.TTLSymbols, Value: func() interface{} {
			return c.Symbols.Universe()
		}},
		{Name: snapshot.SlicePublished, TTL: snapshot.TTLPublished, Value: func() interface{} {
			return c.CopyTrade.Published()
		}},
		{Name: snapshot.SliceSubscriptions, TTL: snapshot.TTLSubscriptions, Value: func() interface{} {
			return c.CopyTrade.Subscriptions()
		}},
		{Name: snapshot.SliceCredentials, TTL: snapshot.TTLCredentials, Value: func() interface{} {
			return c.Connections.Credentials()
		}},
	}
}
