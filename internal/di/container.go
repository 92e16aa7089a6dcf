// Package di provides dependency injection wiring for the gateway.
// The Container is the single source of truth for all service
// instances and is passed to the server for access to stores.
package di

import (
	"github.com/tradedeck/tradedeck/internal/charts"
	"github.com/tradedeck/tradedeck/internal/clients/backend"
	"github.com/tradedeck/tradedeck/internal/database"
	"github.com/tradedeck/tradedeck/internal/modules/connections"
	"github.com/tradedeck/tradedeck/internal/modules/copytrade"
	"github.com/tradedeck/tradedeck/internal/modules/markets"
	"github.com/tradedeck/tradedeck/internal/modules/session"
	"github.com/tradedeck/tradedeck/internal/modules/strategies"
	"github.com/tradedeck/tradedeck/internal/reliability"
	"github.com/tradedeck/tradedeck/internal/snapshot"
)

// Container holds all application dependencies
type Container struct {
	// Persistence
	SnapshotDB   *database.DB
	SnapshotRepo *snapshot.Repository

	// Upstream API
	Backend *backend.Client

	// Stores - cached views over the backend, one per dashboard area
	Session     *session.Store
	Strategies  *strategies.Store
	Symbols     *markets.SymbolStore
	Balances    *markets.BalanceStore
	CopyTrade   *copytrade.Store
	Connections *connections.Store

	// Live charts
	Series      *charts.SeriesStore
	PriceStream *charts.PriceStream // nil when no stream URL is configured

	// Backups (nil when backups are not configured)
	BackupService *reliability.BackupService
}

// Jobs holds the background job instances for scheduling and manual
// triggering.
type Jobs struct {
	SymbolRefresh    *markets.RefreshJob
	SnapshotAutosave *snapshot.AutosaveJob
	SnapshotCleanup  *snapshot.CleanupJob
	Backup           *reliability.BackupJob // nil when backups are not configured
}

// Close releases the container's resources
func (c *Container) Close() error {
	if c.PriceStream != nil {
		_ = c.PriceStream.Stop()
	}
	if c.SnapshotDB != nil {
		return c.SnapshotDB.Close()
	}
	return nil
}
