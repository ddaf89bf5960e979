package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mbouzas/arousa-etl/internal/domain"
	"github.com/mbouzas/arousa-etl/internal/fetch"
)

func sampleReport() *domain.QualityReport {
	return &domain.QualityReport{
		TotalRecords:   100,
		Start:          time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC),
		End:            time.Date(2022, 3, 31, 23, 0, 0, 0, time.UTC),
		Duplicates:     4,
		FilesProcessed: 3,
		FilesFailed:    1,
		Stations: map[string]domain.StationQuality{
			"ribeira":   {Records: 60, Completeness: map[string]float64{"salinity_1_5m": 95.0, "temperature_1_5m": 100.0}},
			"cortegada": {Records: 40, Completeness: map[string]float64{"salinity_3m": 80.0}},
		},
		OutOfRange:  map[string]int{"salinity_1_5m": 2},
		GeneratedAt: time.Date(2022, 4, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "quality.json")
	require.NoError(t, WriteJSON(path, sampleReport()))

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	var got domain.QualityReport
	require.NoError(t, json.Unmarshal(b, &got))
	require.Equal(t, 100, got.TotalRecords)
	require.Equal(t, 2, got.OutOfRange["salinity_1_5m"])
}

func TestRenderQuality(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderQuality(&buf, sampleReport()))

	out := buf.String()
	require.Contains(t, out, "records: 100")
	require.Contains(t, out, "ribeira")
	require.Contains(t, out, "cortegada")
	require.Contains(t, out, "salinity_1_5m")
	require.Contains(t, out, "80.0%")
}

// Completeness arrives from the quality report already on a 0-100 scale; a
// fully complete column must render as 100%, not be scaled up again.
func TestRenderQualityFullyComplete(t *testing.T) {
	rep := &domain.QualityReport{
		TotalRecords: 1,
		Stations: map[string]domain.StationQuality{
			"ribeira": {Records: 1, Completeness: map[string]float64{"salinity_1_5m": 100.0}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderQuality(&buf, rep))
	require.Contains(t, buf.String(), "100.0%")
	require.NotContains(t, buf.String(), "10000.0%")
}

func TestRenderStations(t *testing.T) {
	var buf bytes.Buffer
	stations := []domain.Station{
		{ID: 140545, Name: "ulla_padron", River: "ulla", Lat: 42.7313, Lon: -8.62795, Concello: "Padron"},
	}
	require.NoError(t, RenderStations(&buf, stations))
	require.Contains(t, buf.String(), "140545")
	require.Contains(t, buf.String(), "ulla_padron")
}

func TestRenderDownloadStats(t *testing.T) {
	var buf bytes.Buffer
	stats := fetch.DownloadStats{Existing: 5, Downloaded: 10, Unavailable: 2, Errors: 1, Repaired: 1}
	require.NoError(t, RenderDownloadStats(&buf, stats))
	require.Contains(t, buf.String(), "downloaded")
	require.Contains(t, buf.String(), "total days: 18")
}

func TestWorstField(t *testing.T) {
	field, pct := worstField(map[string]float64{"a": 90.0, "b": 40.0, "c": 70.0})
	require.Equal(t, "b", field)
	require.InDelta(t, 40.0, pct, 1e-9)

	field, pct = worstField(nil)
	require.Empty(t, field)
	require.InDelta(t, 100.0, pct, 1e-9)
}
