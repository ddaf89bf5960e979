package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/mbouzas/arousa-etl/internal/domain"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "arousa.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.CreateSchema(context.Background()))
	return s
}

func TestOpenUnsupportedDriver(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := Open("mysql", "dsn", logger)
	require.ErrorContains(t, err, "unsupported db driver")
}

func TestUpsertStations(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	stations := []domain.Station{
		{ID: 140440, Name: "umia_caldas", River: "Umia", Lat: 42.6029, Lon: -8.64249, Concello: "Caldas de Reis"},
		{ID: 140545, Name: "ulla_padron", River: "ulla", Lat: 42.7313, Lon: -8.62795, Concello: "Padron"},
	}
	require.NoError(t, s.UpsertStations(ctx, stations))

	// Upserting again with changed metadata overwrites, not duplicates.
	stations[0].Concello = "Caldas"
	require.NoError(t, s.UpsertStations(ctx, stations[:1]))

	got, err := s.Stations(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "Caldas", got[0].Concello)
	if diff := cmp.Diff(stations[1], got[1]); diff != "" {
		t.Errorf("station mismatch (-want +got):\n%s", diff)
	}
}

func TestInsertObservationsIdempotent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	ts := time.Date(2022, 3, 1, 12, 0, 0, 0, time.UTC)
	recs := []domain.Record{
		{
			StationID: "ribeira",
			Time:      ts,
			Fields: map[string]float64{
				"salinity_1_5m":    35.2,
				"temperature_1_5m": 14.0,
			},
		},
		{
			StationID: "cortegada",
			Time:      ts,
			Fields:    map[string]float64{"salinity_1_5m": 30.1},
		},
	}
	columns := []string{"salinity_1_5m", "temperature_1_5m"}

	n, err := s.InsertObservations(ctx, recs, columns)
	require.NoError(t, err)
	require.Equal(t, 3, n, "one row per present field")

	// A second load of the same records inserts nothing.
	n, err = s.InsertObservations(ctx, recs, columns)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestLoader(t *testing.T) {
	s := testStore(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	l := NewLoader(s, logger)

	require.Equal(t, "db", l.Name())
	recs := []domain.Record{{
		StationID: "ribeira",
		Time:      time.Date(2022, 3, 1, 12, 0, 0, 0, time.UTC),
		Fields:    map[string]float64{"salinity_1_5m": 35.2},
	}}
	require.NoError(t, l.Load(context.Background(), recs, []string{"salinity_1_5m"}))
}
