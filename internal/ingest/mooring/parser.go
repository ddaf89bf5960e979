// Package mooring parses INTECMAR continuous-mooring CSV exports into unified
// observation records.
package mooring

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/mbouzas/arousa-etl/internal/domain"
)

// ErrUnknownStation marks files whose name matches no known mooring station.
// The unification job skips these with a warning rather than failing.
var ErrUnknownStation = errors.New("mooring: file matches no known station")

// StationInfo holds a mooring's WGS-84 position and deployed sensor depths.
type StationInfo struct {
	Lat    float64
	Lon    float64
	Depths []string
}

// Stations are the moorings covered by the study. Files are attributed to a
// station by substring match on the file name.
var Stations = map[string]StationInfo{
	"ribeira":   {Lat: 42.551633, Lon: -8.946442, Depths: []string{"1_5m"}},
	"cortegada": {Lat: 42.627583, Lon: -8.782314, Depths: []string{"1_5m", "3m"}},
}

// Parser reads one mooring CSV export per call. Exports are semicolon
// separated, comma decimal, Latin-1 encoded.
type Parser struct {
	logger *slog.Logger
}

func NewParser(logger *slog.Logger) *Parser {
	return &Parser{logger: logger}
}

// Parse reads a single mooring export into records. Rows with unparseable
// timestamps are dropped. Returns ErrUnknownStation for files that do not
// belong to a known mooring.
func (p *Parser) Parse(ctx context.Context, path string) ([]domain.Record, error) {
	station, ok := detectStation(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStation, filepath.Base(path))
	}
	info := Stations[station]

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mooring file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(transform.NewReader(f, charmap.ISO8859_1.NewDecoder()))
	r.Comma = ';'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", filepath.Base(path), err)
	}
	mapped := domain.NormalizeHeader(header)

	timeIdx := -1
	for i, name := range mapped {
		if name == domain.TimeColumn {
			timeIdx = i
			break
		}
	}
	if timeIdx < 0 {
		return nil, fmt.Errorf("no timestamp column in %s (header: %v)", filepath.Base(path), header)
	}

	var (
		recs    []domain.Record
		dropped int
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}

		if timeIdx >= len(row) {
			dropped++
			continue
		}
		ts, ok := domain.ParseMooringTime(row[timeIdx])
		if !ok {
			dropped++
			continue
		}

		rec := domain.Record{
			StationID:   station,
			Lat:         info.Lat,
			Lon:         info.Lon,
			HasCoords:   true,
			Time:        ts,
			SourceFile:  filepath.Base(path),
			ProcessedAt: domain.Now(),
		}
		for i, name := range mapped {
			if name == domain.TimeColumn || i >= len(row) {
				continue
			}
			if v, ok := domain.ParseDecimal(row[i]); ok {
				rec.SetField(name, v)
			}
		}
		recs = append(recs, rec)
	}

	if dropped > 0 {
		p.logger.Warn("dropped rows with invalid timestamps",
			"file", filepath.Base(path), "station", station, "dropped", dropped)
	}
	p.logger.Info("parsed mooring file",
		"file", filepath.Base(path), "station", station, "rows", len(recs))

	return recs, nil
}

// Columns reports the unified schema this parser feeds.
func (p *Parser) Columns() []string { return domain.MooringColumns }

// Ranges reports the physical validation ranges for this source.
func (p *Parser) Ranges() map[string]domain.Range { return domain.MooringRanges }

func detectStation(path string) (string, bool) {
	name := strings.ToLower(filepath.Base(path))
	for station := range Stations {
		if strings.Contains(name, station) {
			return station, true
		}
	}
	return "", false
}
