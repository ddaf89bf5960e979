package csvfile

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/mbouzas/arousa-etl/internal/domain"
)

func TestReadUnifiedRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unified.csv")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ts := time.Date(2022, 3, 1, 12, 30, 0, 0, time.UTC)
	want := []domain.Record{
		{
			StationID:   "ribeira",
			StationName: "ribeira",
			Lat:         42.551633,
			Lon:         -8.946442,
			HasCoords:   true,
			Time:        ts,
			Fields:      map[string]float64{"salinity_1_5m": 35.2, "temperature_1_5m": 14},
			SourceFile:  "ribeira.csv",
			ProcessedAt: ts.Add(time.Hour),
		},
		{
			StationID:  "ZZ",
			Time:       ts.Add(2 * time.Hour),
			Fields:     map[string]float64{"temperature_1_5m": 13.5},
			SourceFile: "zz.csv",
		},
	}
	columns := []string{"salinity_1_5m", "temperature_1_5m"}

	w := NewWriter(path, logger)
	require.NoError(t, w.Load(context.Background(), want, columns))

	got, gotCols, err := ReadUnified(path)
	require.NoError(t, err)
	require.Equal(t, columns, gotCols)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

// A malformed row must fail the whole read; truncating silently would let
// the database loader insert a partial table.
func TestReadUnifiedMalformedRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unified.csv")
	content := "station_id;station_name;lat;lon;time;salinity_1_5m;source_file;processed_at\n" +
		"ribeira;ribeira;;;2022-03-01 12:30:00;35.2;a.csv;2022-03-01T13:30:00Z\n" +
		"cortegada;corte\"gada;;;2022-03-01 13:30:00;34.0;b.csv;2022-03-01T14:30:00Z\n" +
		"ribeira;ribeira;;;2022-03-01 14:30:00;35.0;a.csv;2022-03-01T15:30:00Z\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, _, err := ReadUnified(path)
	require.ErrorContains(t, err, "read unified table")
}

func TestReadUnifiedRejectsForeignCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.csv")
	require.NoError(t, os.WriteFile(path, []byte("a;b;c\n1;2;3\n"), 0o644))

	_, _, err := ReadUnified(path)
	require.ErrorContains(t, err, "not a unified observation table")
}
