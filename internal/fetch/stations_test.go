package fetch

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/mbouzas/arousa-etl/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const aforosJSON = `{
	"listUltimosAforos": [
		{"idEstacion": 140545, "nomeEstacion": "Ulla en Padron", "lat": 42.74, "lon": -8.66, "concello": "Padron", "provincia": "A Coruna"},
		{"idEstacion": 140440, "nomeEstacion": "Umia en Caldas", "lat": 42.60, "lon": -8.64, "concello": "Caldas de Reis", "provincia": "Pontevedra"},
		{"idEstacion": 140440, "nomeEstacion": "Umia en Caldas", "lat": 42.60, "lon": -8.64, "concello": "Caldas de Reis", "provincia": "Pontevedra"},
		{"idEstacion": 999999, "nomeEstacion": "Mino en Lugo", "lat": 43.0, "lon": -7.55, "concello": "Lugo", "provincia": "Lugo"}
	]
}`

func TestStationsFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, aforosJSON)
	}))
	defer srv.Close()

	c := NewStationsClient(srv.URL, 5*time.Second, discardLogger())
	stations, err := c.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, stations, 3, "duplicate station rows collapse to one")
	require.Equal(t, 140440, stations[0].ID, "sorted by station id")
}

func TestStationsFetchLegacyKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"listaAforos": [{"idEstacion": 1, "nomeEstacion": "Test"}]}`)
	}))
	defer srv.Close()

	c := NewStationsClient(srv.URL, 5*time.Second, discardLogger())
	stations, err := c.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, stations, 1)
}

func TestStationsFetchEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"listaAforos": []}`)
	}))
	defer srv.Close()

	c := NewStationsClient(srv.URL, 5*time.Second, discardLogger())
	_, err := c.Fetch(context.Background())
	require.ErrorContains(t, err, "keys seen: listaAforos")
}

// When the feed renames its list key again, the error should reveal the keys
// actually present so the decoder can be updated by inspection.
func TestStationsFetchUnknownKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"listAforosV2": [{"idEstacion": 1}], "timestamp": "2022-03-01"}`)
	}))
	defer srv.Close()

	c := NewStationsClient(srv.URL, 5*time.Second, discardLogger())
	_, err := c.Fetch(context.Background())
	require.ErrorContains(t, err, "keys seen: listAforosV2, timestamp")
}

func TestStationsFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewStationsClient(srv.URL, 5*time.Second, discardLogger())
	_, err := c.Fetch(context.Background())
	require.ErrorContains(t, err, "status 500")
}

func TestFilterByKeywords(t *testing.T) {
	stations := []domain.Station{
		{ID: 1, Name: "Ulla en Padron", Concello: "Padron"},
		{ID: 2, Name: "Mino en Lugo", Concello: "Lugo"},
		{ID: 3, Name: "Rio do Con", Concello: "Vilagarcia de Arousa"},
		{ID: 4, Name: "Sar en Bertamirans", Concello: "Ames"},
	}

	got := FilterByKeywords(stations, []string{"Ulla", "Sar", "Con"})
	want := []domain.Station{stations[0], stations[2], stations[3]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("filter mismatch (-want +got):\n%s", diff)
	}

	require.Empty(t, FilterByKeywords(stations, []string{"Navia"}))
	require.Empty(t, FilterByKeywords(stations, nil))
}

func TestWriteStationsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta", "aforos_meta_raw.csv")
	stations := []domain.Station{
		{ID: 140545, Name: "Ulla en Padrón", River: "ULLA", Lat: 42.74, Lon: -8.66, Concello: "Padrón", Provincia: "A Coruña"},
	}
	require.NoError(t, WriteStationsCSV(path, stations))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, len(b) > 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF, "file starts with UTF-8 BOM")
	require.Contains(t, string(b), "140545;Ulla en Padrón;ULLA;42.74;-8.66;Padrón;A Coruña")
}
