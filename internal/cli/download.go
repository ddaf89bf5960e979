package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	httpadapter "github.com/mbouzas/arousa-etl/internal/adapter/http"
	"github.com/mbouzas/arousa-etl/internal/fetch"
	"github.com/mbouzas/arousa-etl/internal/ncdf"
	"github.com/mbouzas/arousa-etl/internal/report"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Bulk-download the WRF precipitation grids",
	Long: `Walk the configured date window and download one precipitation grid per
day from the MeteoGalicia THREDDS archive. Runs are resumable: valid files on
disk are skipped, truncated or corrupt ones are replaced. While the run lasts,
an HTTP server exposes /healthz, /readyz, /stats, and /metrics.`,
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)
}

// downloadReadiness gates /readyz on the first completed run.
type downloadReadiness struct{ d *fetch.Downloader }

func (r downloadReadiness) CheckReadiness(context.Context) error {
	if !r.d.Ready() {
		return errors.New("no completed download run yet")
	}
	return nil
}

func runDownload(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	metrics := processMetrics()

	dlCfg := fetch.DownloaderConfig{
		BaseURL:      cfg.WRFBaseURL,
		OutputDir:    cfg.WRFDir,
		Start:        cfg.StartDate,
		End:          cfg.EndDate,
		RequestDelay: cfg.RequestDelay,
		MinFileSize:  cfg.MinFileSize,
		Retry: fetch.RetryConfig{
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  cfg.RetryBaseDelay,
			MaxDelay:   16 * cfg.RetryBaseDelay,
		},
		HTTPTimeout: cfg.HTTPTimeout,
	}
	dl := fetch.NewDownloader(dlCfg, ncdf.ValidateFile, logger, metrics, clockwork.NewRealClock())

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := httpadapter.NewServer(cfg.HTTPAddr, downloadReadiness{dl}, func() any { return dl.Stats() }, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	stats, runErr := dl.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	if jsonOutput() {
		return printJSON(stats)
	}
	return report.RenderDownloadStats(os.Stdout, stats)
}
