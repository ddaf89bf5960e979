// Package ctd parses INTECMAR CTD cast exports into unified observation
// records. Exports are tab-separated TXT files with a free-form preamble and
// comma decimals; cast positions are not in the files and are joined from a
// coordinates table by station id.
package ctd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mbouzas/arousa-etl/internal/domain"
)

// Parser reads one CTD cast export per call.
type Parser struct {
	coords map[string]Coord
	logger *slog.Logger
}

func NewParser(coords map[string]Coord, logger *slog.Logger) *Parser {
	return &Parser{coords: coords, logger: logger}
}

// Parse reads a single CTD export into records. Rows with unparseable
// timestamps are dropped; stations missing from the coordinates table keep
// their readings but carry no position.
func (p *Parser) Parse(ctx context.Context, path string) ([]domain.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ctd file: %w", err)
	}

	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	headerIdx := DetectHeaderLine(lines)
	if headerIdx < 0 {
		return nil, fmt.Errorf("no header line found in %s", filepath.Base(path))
	}

	columns := make(map[int]string)
	for i, tok := range strings.Split(lines[headerIdx], "\t") {
		if name, ok := domain.CTDColumnName(tok); ok {
			columns[i] = name
		}
	}

	stationIdx, nameIdx, timeIdx := -1, -1, -1
	for i, name := range columns {
		switch name {
		case "station_id":
			stationIdx = i
		case "station_name":
			nameIdx = i
		case domain.TimeColumn:
			timeIdx = i
		}
	}
	if timeIdx < 0 {
		return nil, fmt.Errorf("no timestamp column in %s", filepath.Base(path))
	}
	if stationIdx < 0 {
		p.logger.Warn("no station id column, records will carry no position",
			"file", filepath.Base(path))
	}

	var (
		recs     []domain.Record
		dropped  int
		noCoords = make(map[string]struct{})
	)
	for _, line := range lines[headerIdx+1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		row := strings.Split(line, "\t")

		if timeIdx >= len(row) {
			dropped++
			continue
		}
		ts, ok := domain.ParseCTDTime(row[timeIdx])
		if !ok {
			dropped++
			continue
		}

		rec := domain.Record{
			Time:        ts,
			SourceFile:  filepath.Base(path),
			ProcessedAt: domain.Now(),
		}
		if stationIdx >= 0 && stationIdx < len(row) {
			rec.StationID = strings.ToUpper(strings.TrimSpace(row[stationIdx]))
		}
		if nameIdx >= 0 && nameIdx < len(row) {
			rec.StationName = strings.TrimSpace(row[nameIdx])
		}

		if c, ok := p.coords[rec.StationID]; ok {
			rec.Lat, rec.Lon = c.Lat, c.Lon
			rec.HasCoords = true
		} else if rec.StationID != "" {
			noCoords[rec.StationID] = struct{}{}
		}

		for i, name := range columns {
			if i == stationIdx || i == nameIdx || i == timeIdx || i >= len(row) {
				continue
			}
			if v, ok := domain.ParseDecimal(row[i]); ok {
				rec.SetField(name, v)
			}
		}
		recs = append(recs, rec)
	}

	if len(noCoords) > 0 {
		ids := make([]string, 0, len(noCoords))
		for id := range noCoords {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		p.logger.Warn("stations without coordinates", "file", filepath.Base(path), "stations", ids)
	}
	if dropped > 0 {
		p.logger.Warn("dropped rows with invalid timestamps",
			"file", filepath.Base(path), "dropped", dropped)
	}
	p.logger.Info("parsed ctd file", "file", filepath.Base(path), "rows", len(recs))

	return recs, nil
}

// Columns reports the unified schema this parser feeds.
func (p *Parser) Columns() []string {
	return append(append([]string{}, domain.CTDColumns...), domain.CTDExtraColumns...)
}

// Ranges reports the physical validation ranges for this source.
func (p *Parser) Ranges() map[string]domain.Range { return domain.CTDRanges }
