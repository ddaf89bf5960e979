// Package report renders run summaries for the terminal and persists the
// data quality report next to the processed tables.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/mbouzas/arousa-etl/internal/domain"
	"github.com/mbouzas/arousa-etl/internal/fetch"
)

// WriteJSON persists a quality report, creating parent directories.
func WriteJSON(path string, rep *domain.QualityReport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// RenderQuality prints the per-station quality summary as a table.
func RenderQuality(w io.Writer, rep *domain.QualityReport) error {
	fmt.Fprintf(w, "records: %d  duplicates removed: %d  files: %d ok / %d failed\n",
		rep.TotalRecords, rep.Duplicates, rep.FilesProcessed, rep.FilesFailed)
	if !rep.Start.IsZero() {
		fmt.Fprintf(w, "window: %s .. %s\n",
			rep.Start.Format("2006-01-02 15:04"), rep.End.Format("2006-01-02 15:04"))
	}

	names := make([]string, 0, len(rep.Stations))
	for name := range rep.Stations {
		names = append(names, name)
	}
	sort.Strings(names)

	table := tablewriter.NewWriter(w)
	table.Header("Station", "Records", "Worst field", "Completeness")
	for _, name := range names {
		sq := rep.Stations[name]
		field, pct := worstField(sq.Completeness)
		table.Append(name, strconv.Itoa(sq.Records), field, fmt.Sprintf("%.1f%%", pct))
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render quality table: %w", err)
	}

	if len(rep.OutOfRange) > 0 {
		fields := make([]string, 0, len(rep.OutOfRange))
		for f := range rep.OutOfRange {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		fmt.Fprintln(w, "out-of-range values (kept, flagged):")
		for _, f := range fields {
			fmt.Fprintf(w, "  %-24s %d\n", f, rep.OutOfRange[f])
		}
	}
	return nil
}

// worstField returns the least complete column and its percentage (0-100).
func worstField(completeness map[string]float64) (string, float64) {
	worst := ""
	pct := 100.0
	fields := make([]string, 0, len(completeness))
	for f := range completeness {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		if worst == "" || completeness[f] < pct {
			worst = f
			pct = completeness[f]
		}
	}
	return worst, pct
}

// RenderStations prints station metadata as a table.
func RenderStations(w io.Writer, stations []domain.Station) error {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Name", "River", "Lat", "Lon", "Concello")
	for _, st := range stations {
		table.Append(
			strconv.Itoa(st.ID),
			st.Name,
			st.River,
			strconv.FormatFloat(st.Lat, 'f', 5, 64),
			strconv.FormatFloat(st.Lon, 'f', 5, 64),
			st.Concello,
		)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render stations table: %w", err)
	}
	return nil
}

// RenderDownloadStats prints the outcome buckets of a bulk archive run.
func RenderDownloadStats(w io.Writer, stats fetch.DownloadStats) error {
	table := tablewriter.NewWriter(w)
	table.Header("Outcome", "Days")
	table.Append("already present", strconv.Itoa(stats.Existing))
	table.Append("downloaded", strconv.Itoa(stats.Downloaded))
	table.Append("not published", strconv.Itoa(stats.Unavailable))
	table.Append("errors", strconv.Itoa(stats.Errors))
	table.Append("corrupt replaced", strconv.Itoa(stats.Repaired))
	if err := table.Render(); err != nil {
		return fmt.Errorf("render download table: %w", err)
	}
	fmt.Fprintf(w, "total days: %d\n", stats.Total())
	return nil
}
