// Package fetch talks to the MeteoGalicia services: the live gauging-station
// feed and the THREDDS archive that serves the WRF precipitation grids.
package fetch

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mbouzas/arousa-etl/internal/domain"
)

// StationsClient reads the latest gauging-station observations feed, which
// doubles as the station catalogue.
type StationsClient struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

func NewStationsClient(baseURL string, timeout time.Duration, logger *slog.Logger) *StationsClient {
	return &StationsClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		logger:     logger,
	}
}

// The feed has renamed its list key more than once; accept the variants seen
// so far and take whichever is populated.
type aforosResponse struct {
	ListaAforos       []aforo `json:"listaAforos"`
	ListUltimosAforos []aforo `json:"listUltimosAforos"`
}

type aforo struct {
	ID        int     `json:"idEstacion"`
	Name      string  `json:"nomeEstacion"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Concello  string  `json:"concello"`
	Provincia string  `json:"provincia"`
}

// Fetch returns every active station in the feed.
func (c *StationsClient) Fetch(ctx context.Context) ([]domain.Station, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stations request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("stations feed: status %d: %s", resp.StatusCode, body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read stations feed: %w", err)
	}

	var payload aforosResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode stations feed: %w", err)
	}

	list := payload.ListaAforos
	if len(payload.ListUltimosAforos) > 0 {
		list = payload.ListUltimosAforos
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("stations feed returned no stations (keys seen: %s)", feedKeys(body))
	}

	seen := make(map[int]bool, len(list))
	stations := make([]domain.Station, 0, len(list))
	for _, a := range list {
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		stations = append(stations, domain.Station{
			ID:        a.ID,
			Name:      a.Name,
			Lat:       a.Lat,
			Lon:       a.Lon,
			Concello:  a.Concello,
			Provincia: a.Provincia,
		})
	}

	sort.Slice(stations, func(i, j int) bool { return stations[i].ID < stations[j].ID })
	c.logger.Info("station catalogue fetched", "stations", len(stations))
	return stations, nil
}

// feedKeys lists the top-level JSON keys of a feed response, so an empty
// result points at the key the feed renamed to this time.
func feedKeys(body []byte) string {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || len(raw) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}

// FilterByKeywords keeps stations whose name or concello mentions any of the
// basin keywords. Matching is case-insensitive.
func FilterByKeywords(stations []domain.Station, keywords []string) []domain.Station {
	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}

	var out []domain.Station
	for _, st := range stations {
		name := strings.ToLower(st.Name)
		concello := strings.ToLower(st.Concello)
		for _, k := range lowered {
			if k == "" {
				continue
			}
			if strings.Contains(name, k) || strings.Contains(concello, k) {
				out = append(out, st)
				break
			}
		}
	}
	return out
}

// WriteStationsCSV dumps station metadata as semicolon-separated CSV with a
// UTF-8 BOM so spreadsheet tools in es_ES locales open it correctly.
func WriteStationsCSV(path string, stations []domain.Station) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create stations file: %w", err)
	}

	if _, err := f.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		f.Close()
		return fmt.Errorf("write BOM: %w", err)
	}

	w := csv.NewWriter(f)
	w.Comma = ';'
	if err := w.Write([]string{"idEstacion", "nomeEstacion", "rio", "lat", "lon", "concello", "provincia"}); err != nil {
		f.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, st := range stations {
		row := []string{
			strconv.Itoa(st.ID),
			st.Name,
			st.River,
			strconv.FormatFloat(st.Lat, 'f', -1, 64),
			strconv.FormatFloat(st.Lon, 'f', -1, 64),
			st.Concello,
			st.Provincia,
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("write station row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush stations file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close stations file: %w", err)
	}
	return nil
}
