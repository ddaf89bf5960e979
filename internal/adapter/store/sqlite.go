package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mbouzas/arousa-etl/internal/domain"
)

// SQLiteStore keeps everything in a single local file.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func OpenSQLite(dsn string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite corrupts under concurrent writers from one process.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA foreign_keys=ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}
	return &SQLiteStore{db: db, logger: logger}, nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS gauge_station_meta (
		id_estacion INTEGER PRIMARY KEY,
		nombre      TEXT,
		rio         TEXT,
		lat         REAL,
		lon         REAL,
		concello    TEXT,
		provincia   TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS gauge_data (
		fecha       TIMESTAMP NOT NULL,
		id_estacion INTEGER NOT NULL,
		caudal      REAL,
		nivel       REAL,
		estado      TEXT,
		PRIMARY KEY (fecha, id_estacion),
		FOREIGN KEY (id_estacion) REFERENCES gauge_station_meta(id_estacion)
	)`,
	`CREATE TABLE IF NOT EXISTS meteo_meta (
		id_estacion INTEGER PRIMARY KEY,
		nombre      TEXT,
		lat         REAL,
		lon         REAL,
		altitud     REAL
	)`,
	`CREATE TABLE IF NOT EXISTS meteo_data (
		fecha         TIMESTAMP NOT NULL,
		id_estacion   INTEGER NOT NULL,
		precipitacion REAL,
		temperatura   REAL,
		PRIMARY KEY (fecha, id_estacion),
		FOREIGN KEY (id_estacion) REFERENCES meteo_meta(id_estacion)
	)`,
	`CREATE TABLE IF NOT EXISTS observations (
		id       TEXT PRIMARY KEY,
		station  TEXT NOT NULL,
		ts       TIMESTAMP NOT NULL,
		variable TEXT NOT NULL,
		value    REAL NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_observations_station_ts
		ON observations (station, ts)`,
}

func (s *SQLiteStore) CreateSchema(ctx context.Context) error {
	for _, stmt := range sqliteSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	s.logger.Info("database schema ready", "driver", "sqlite3")
	return nil
}

func (s *SQLiteStore) UpsertStations(ctx context.Context, stations []domain.Station) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO gauge_station_meta (id_estacion, nombre, rio, lat, lon, concello, provincia)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id_estacion) DO UPDATE SET
			nombre = excluded.nombre,
			rio = excluded.rio,
			lat = excluded.lat,
			lon = excluded.lon,
			concello = excluded.concello,
			provincia = excluded.provincia`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, st := range stations {
		if _, err := stmt.ExecContext(ctx, st.ID, st.Name, st.River, st.Lat, st.Lon, st.Concello, st.Provincia); err != nil {
			return fmt.Errorf("upsert station %d: %w", st.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Stations(ctx context.Context) ([]domain.Station, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id_estacion, nombre, rio, lat, lon, concello, provincia
		FROM gauge_station_meta ORDER BY id_estacion`)
	if err != nil {
		return nil, fmt.Errorf("query stations: %w", err)
	}
	defer rows.Close()

	var out []domain.Station
	for rows.Next() {
		var st domain.Station
		if err := rows.Scan(&st.ID, &st.Name, &st.River, &st.Lat, &st.Lon, &st.Concello, &st.Provincia); err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) InsertObservations(ctx context.Context, recs []domain.Record, columns []string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO observations (id, station, ts, variable, value)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, rec := range recs {
		for _, col := range columns {
			v, ok := rec.Field(col)
			if !ok {
				continue
			}
			res, err := stmt.ExecContext(ctx, observationID(rec, col), rec.StationID, rec.Time.UTC(), col, v)
			if err != nil {
				return inserted, fmt.Errorf("insert observation: %w", err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				inserted++
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
