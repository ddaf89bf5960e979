// Package csvfile writes unified observation tables as semicolon-separated
// CSV, the inspection format the rest of the thesis tooling expects.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mbouzas/arousa-etl/internal/domain"
)

const timeLayout = "2006-01-02 15:04:05"

// Writer persists records to a single CSV file. It implements pipeline.Loader.
type Writer struct {
	path   string
	logger *slog.Logger
}

func NewWriter(path string, logger *slog.Logger) *Writer {
	return &Writer{path: path, logger: logger}
}

func (w *Writer) Name() string { return "csv:" + filepath.Base(w.path) }

// Load writes all records. The file is written to a temp name and renamed so
// a crash never leaves a half-written table behind.
func (w *Writer) Load(ctx context.Context, recs []domain.Record, columns []string) error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp := w.path + ".partial"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer os.Remove(tmp)

	cw := csv.NewWriter(f)
	cw.Comma = ';'

	header := append([]string{"station_id", "station_name", "lat", "lon", "time"}, columns...)
	header = append(header, "source_file", "processed_at")
	if err := cw.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("write header: %w", err)
	}

	for i, rec := range recs {
		if i%1000 == 0 && ctx.Err() != nil {
			f.Close()
			return ctx.Err()
		}
		if err := cw.Write(row(rec, columns)); err != nil {
			f.Close()
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush output: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Rename(tmp, w.path); err != nil {
		return fmt.Errorf("finalize output: %w", err)
	}

	w.logger.Info("unified table written", "path", w.path, "rows", len(recs))
	return nil
}

func row(rec domain.Record, columns []string) []string {
	out := make([]string, 0, len(columns)+7)
	out = append(out, rec.StationID, rec.StationName)
	if rec.HasCoords {
		out = append(out, formatFloat(rec.Lat), formatFloat(rec.Lon))
	} else {
		out = append(out, "", "")
	}
	out = append(out, rec.Time.Format(timeLayout))
	for _, col := range columns {
		if v, ok := rec.Field(col); ok {
			out = append(out, formatFloat(v))
		} else {
			out = append(out, "")
		}
	}
	out = append(out, rec.SourceFile, rec.ProcessedAt.Format(time.RFC3339))
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
