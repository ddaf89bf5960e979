package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/mbouzas/arousa-etl/internal/domain"
)

// PostgresStore targets the shared thesis database.
type PostgresStore struct {
	conn   *sql.DB
	logger *slog.Logger
}

func OpenPostgres(dsn string, logger *slog.Logger) (*PostgresStore, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	conn.SetMaxOpenConns(10)
	conn.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresStore{conn: conn, logger: logger}, nil
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS gauge_station_meta (
		id_estacion INT PRIMARY KEY,
		nombre      VARCHAR(100),
		rio         VARCHAR(100),
		lat         DOUBLE PRECISION,
		lon         DOUBLE PRECISION,
		concello    VARCHAR(100),
		provincia   VARCHAR(50)
	)`,
	`CREATE TABLE IF NOT EXISTS gauge_data (
		fecha       TIMESTAMP NOT NULL,
		id_estacion INT NOT NULL,
		caudal      DOUBLE PRECISION,
		nivel       DOUBLE PRECISION,
		estado      VARCHAR(20),
		PRIMARY KEY (fecha, id_estacion),
		FOREIGN KEY (id_estacion) REFERENCES gauge_station_meta(id_estacion)
	)`,
	`CREATE TABLE IF NOT EXISTS meteo_meta (
		id_estacion INT PRIMARY KEY,
		nombre      VARCHAR(100),
		lat         DOUBLE PRECISION,
		lon         DOUBLE PRECISION,
		altitud     DOUBLE PRECISION
	)`,
	`CREATE TABLE IF NOT EXISTS meteo_data (
		fecha         TIMESTAMP NOT NULL,
		id_estacion   INT NOT NULL,
		precipitacion DOUBLE PRECISION,
		temperatura   DOUBLE PRECISION,
		PRIMARY KEY (fecha, id_estacion),
		FOREIGN KEY (id_estacion) REFERENCES meteo_meta(id_estacion)
	)`,
	`CREATE TABLE IF NOT EXISTS observations (
		id       TEXT PRIMARY KEY,
		station  TEXT NOT NULL,
		ts       TIMESTAMP NOT NULL,
		variable TEXT NOT NULL,
		value    DOUBLE PRECISION NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_observations_station_ts
		ON observations (station, ts)`,
}

func (s *PostgresStore) CreateSchema(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	s.logger.Info("database schema ready", "driver", "postgres")
	return nil
}

func (s *PostgresStore) UpsertStations(ctx context.Context, stations []domain.Station) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO gauge_station_meta (id_estacion, nombre, rio, lat, lon, concello, provincia)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id_estacion) DO UPDATE SET
			nombre = EXCLUDED.nombre,
			rio = EXCLUDED.rio,
			lat = EXCLUDED.lat,
			lon = EXCLUDED.lon,
			concello = EXCLUDED.concello,
			provincia = EXCLUDED.provincia`)
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

func (s *PostgresStore) Stations(ctx context.Context) ([]domain.Station, error) {
	rows, err := s.conn.QueryContext(ctx, `
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

func (s *PostgresStore) InsertObservations(ctx context.Context, recs []domain.Record, columns []string) (int, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO observations (id, station, ts, variable, value)
		VALUES ($1, $2, $3, $4, $5)
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

func (s *PostgresStore) Close() error { return s.conn.Close() }
