package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/mbouzas/arousa-etl/internal/domain"
)

// ReadUnified loads a table previously written by Writer. It returns the
// records and the value column names in file order.
func ReadUnified(path string) ([]domain.Record, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open unified table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = ';'
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 7 || header[0] != "station_id" || header[len(header)-2] != "source_file" {
		return nil, nil, fmt.Errorf("%s is not a unified observation table", path)
	}
	columns := header[5 : len(header)-2]

	var recs []domain.Record
	line := 1
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read unified table: %w", err)
		}
		line++
		if len(row) != len(header) {
			return nil, nil, fmt.Errorf("line %d: expected %d fields, got %d", line, len(header), len(row))
		}

		ts, err := time.Parse(timeLayout, row[4])
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: bad timestamp %q: %w", line, row[4], err)
		}

		rec := domain.Record{
			StationID:   row[0],
			StationName: row[1],
			Time:        ts.UTC(),
			Fields:      make(map[string]float64, len(columns)),
			SourceFile:  row[len(row)-2],
		}
		if row[2] != "" && row[3] != "" {
			lat, latErr := strconv.ParseFloat(row[2], 64)
			lon, lonErr := strconv.ParseFloat(row[3], 64)
			if latErr == nil && lonErr == nil {
				rec.Lat, rec.Lon, rec.HasCoords = lat, lon, true
			}
		}
		for i, col := range columns {
			cell := row[5+i]
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("line %d: bad value %q for %s: %w", line, cell, col, err)
			}
			rec.Fields[col] = v
		}
		if at, err := time.Parse(time.RFC3339, row[len(row)-1]); err == nil {
			rec.ProcessedAt = at
		}
		recs = append(recs, rec)
	}
	return recs, columns, nil
}
