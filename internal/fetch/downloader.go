package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mbouzas/arousa-etl/internal/observability"
)

// DownloaderConfig holds the tunables for a bulk archive run.
type DownloaderConfig struct {
	BaseURL      string
	OutputDir    string
	Start        time.Time
	End          time.Time
	RequestDelay time.Duration
	MinFileSize  int64
	Retry        RetryConfig
	HTTPTimeout  time.Duration
}

// DownloadStats summarizes a bulk run. One day maps to exactly one bucket.
type DownloadStats struct {
	Existing    int `json:"existing"`
	Downloaded  int `json:"downloaded"`
	Unavailable int `json:"unavailable"`
	Errors      int `json:"errors"`
	Repaired    int `json:"repaired"`
}

func (s DownloadStats) Total() int {
	return s.Existing + s.Downloaded + s.Unavailable + s.Errors
}

// Downloader fetches one WRF precipitation grid per day from the THREDDS
// archive. Runs are resumable: files already on disk are validated and
// skipped, corrupt ones are re-downloaded.
type Downloader struct {
	cfg        DownloaderConfig
	httpClient *http.Client
	validate   func(path string) error
	logger     *slog.Logger
	metrics    *observability.Metrics
	clock      clockwork.Clock
	ready      atomic.Bool

	mu    sync.Mutex
	stats DownloadStats
}

// NewDownloader creates a bulk downloader. validate is called on every file
// already present and on every fresh download before it is accepted.
func NewDownloader(cfg DownloaderConfig, validate func(string) error, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Downloader {
	return &Downloader{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		validate:   validate,
		logger:     logger,
		metrics:    metrics,
		clock:      clock,
	}
}

// Ready reports whether the downloader has finished at least one run.
func (d *Downloader) Ready() bool { return d.ready.Load() }

// Stats returns a snapshot of the running (or last) run.
func (d *Downloader) Stats() DownloadStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Run walks every day in the configured window. A cancelled context stops the
// walk cleanly and returns the stats accumulated so far.
func (d *Downloader) Run(ctx context.Context) (DownloadStats, error) {
	var stats DownloadStats
	start := d.clock.Now()
	d.metrics.DownloadRunning.Inc()
	defer func() {
		d.metrics.DownloadRunning.Dec()
		d.metrics.DownloadDuration.Observe(d.clock.Since(start).Seconds())
	}()

	d.logger.Info("bulk download starting",
		"start", d.cfg.Start.Format("2006-01-02"),
		"end", d.cfg.End.Format("2006-01-02"),
		"output_dir", d.cfg.OutputDir)

	for day := d.cfg.Start; !day.After(d.cfg.End); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			d.logger.Warn("bulk download interrupted", "stats", stats)
			return stats, err
		}

		outcome := d.fetchDay(ctx, day, &stats)
		d.metrics.DownloadOutcomes.WithLabelValues(outcome).Inc()
		d.mu.Lock()
		d.stats = stats
		d.mu.Unlock()

		if outcome == "downloaded" || outcome == "error" {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			case <-d.clock.After(d.cfg.RequestDelay):
			}
		}
	}

	d.ready.Store(true)
	d.logger.Info("bulk download finished",
		"existing", stats.Existing,
		"downloaded", stats.Downloaded,
		"unavailable", stats.Unavailable,
		"errors", stats.Errors,
		"repaired", stats.Repaired)
	return stats, nil
}

func (d *Downloader) fetchDay(ctx context.Context, day time.Time, stats *DownloadStats) string {
	dateStr := day.Format("20060102")
	dir := filepath.Join(d.cfg.OutputDir, day.Format("2006"))
	path := filepath.Join(dir, fmt.Sprintf("WRF_1km_prec_%s.nc", dateStr))

	if ok, repaired := d.checkExisting(path); ok {
		stats.Existing++
		return "existing"
	} else if repaired {
		stats.Repaired++
	}

	url := fmt.Sprintf("%s/%s/wrf_arw_det_history_d02_%s_0000.nc4", d.cfg.BaseURL, dateStr, dateStr)

	switch d.remoteExists(ctx, url) {
	case remoteMissing:
		stats.Unavailable++
		d.logger.Debug("remote file not published", "date", dateStr)
		return "unavailable"
	case remoteUnknown:
		stats.Errors++
		d.logger.Warn("existence check failed", "date", dateStr)
		return "error"
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		stats.Errors++
		d.logger.Error("create year dir", "dir", dir, "error", err)
		return "error"
	}

	err := retryDo(ctx, d.clock, d.cfg.Retry, func() error {
		return d.download(ctx, url, path)
	})
	if err != nil {
		stats.Errors++
		d.logger.Error("download failed", "date", dateStr, "error", err)
		return "error"
	}

	stats.Downloaded++
	return "downloaded"
}

// checkExisting reports whether path already holds a valid grid. The second
// return is true when a corrupt or truncated file was removed.
func (d *Downloader) checkExisting(path string) (ok, removed bool) {
	info, err := os.Stat(path)
	if err != nil {
		return false, false
	}

	if info.Size() < d.cfg.MinFileSize {
		d.logger.Warn("truncated file removed", "path", path, "size", info.Size())
		os.Remove(path)
		return false, true
	}
	if err := d.validate(path); err != nil {
		d.logger.Warn("corrupt file removed", "path", path, "error", err)
		os.Remove(path)
		return false, true
	}
	return true, false
}

type remoteState int

const (
	remoteOK remoteState = iota
	remoteMissing
	remoteUnknown
)

// remoteExists probes the archive with a HEAD request. The catalogue URL uses
// the OPeNDAP prefix; plain HTTP lives under fileServer, so swap before
// probing.
func (d *Downloader) remoteExists(ctx context.Context, url string) remoteState {
	checkURL := strings.Replace(url, "/dodsC/", "/fileServer/", 1)

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, checkURL, nil)
	if err != nil {
		return remoteUnknown
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return remoteUnknown
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return remoteOK
	case http.StatusNotFound:
		return remoteMissing
	default:
		d.logger.Warn("unexpected status on existence check", "url", checkURL, "status", resp.StatusCode)
		return remoteUnknown
	}
}

func (d *Downloader) download(ctx context.Context, url, path string) error {
	fetchURL := strings.Replace(url, "/dodsC/", "/fileServer/", 1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download: status %d", resp.StatusCode)
	}

	tmp := path + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write file: %w", err)
	}
	if n < d.cfg.MinFileSize {
		os.Remove(tmp)
		return fmt.Errorf("download truncated: %d bytes", n)
	}

	if err := d.validate(tmp); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("validate download: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("finalize file: %w", err)
	}

	d.logger.Info("grid downloaded", "path", path, "bytes", n)
	return nil
}
