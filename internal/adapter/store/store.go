// Package store persists station metadata and unified observations in a
// relational database. SQLite covers the laptop workflow; PostgreSQL is for
// the shared thesis database.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mbouzas/arousa-etl/internal/domain"
)

// Store is the persistence contract shared by both drivers.
type Store interface {
	// CreateSchema creates all tables if they do not exist yet.
	CreateSchema(ctx context.Context) error

	// UpsertStations inserts or refreshes gauging-station metadata.
	UpsertStations(ctx context.Context, stations []domain.Station) error

	// Stations returns all known gauging stations ordered by id.
	Stations(ctx context.Context) ([]domain.Station, error)

	// InsertObservations writes records in long format, one row per
	// (station, time, variable). Re-inserting the same observation is a
	// no-op, so loads are idempotent. Returns the number of new rows.
	InsertObservations(ctx context.Context, recs []domain.Record, columns []string) (int, error)

	Close() error
}

// Open returns a Store for the given driver name.
func Open(driver, dsn string, logger *slog.Logger) (Store, error) {
	switch driver {
	case "sqlite3":
		return OpenSQLite(dsn, logger)
	case "postgres":
		return OpenPostgres(dsn, logger)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
}

// observationID derives a stable primary key for one value of one record.
func observationID(rec domain.Record, variable string) string {
	return rec.ID() + ":" + variable
}
