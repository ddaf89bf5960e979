package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mbouzas/arousa-etl/internal/adapter/store"
	"github.com/mbouzas/arousa-etl/internal/config"
	"github.com/mbouzas/arousa-etl/internal/domain"
	"github.com/mbouzas/arousa-etl/internal/fetch"
	"github.com/mbouzas/arousa-etl/internal/report"
	"github.com/mbouzas/arousa-etl/internal/stations"
)

var stationsToDB bool

var stationsCmd = &cobra.Command{
	Use:   "stations",
	Short: "Manage the gauging-station catalogue",
}

var stationsFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch the live station catalogue and keep the basin stations",
	Long: `Fetch the MeteoGalicia live gauging feed, filter it down to the Arousa
basin by the configured keywords, and write the station metadata CSV. When the
filter matches nothing, the full catalogue is dumped to a debug CSV so the
keywords can be fixed by inspection.`,
	RunE: runStationsFetch,
}

var stationsSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the curated station list",
	Long: `Write the hand-checked station list for the basin. Used when the live
feed is down or has dropped stations.`,
	RunE: runStationsSeed,
}

func init() {
	stationsSeedCmd.Flags().BoolVar(&stationsToDB, "db", false, "also upsert stations into the database")
	stationsFetchCmd.Flags().BoolVar(&stationsToDB, "db", false, "also upsert stations into the database")
	stationsCmd.AddCommand(stationsFetchCmd, stationsSeedCmd)
	rootCmd.AddCommand(stationsCmd)
}

func runStationsFetch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	client := fetch.NewStationsClient(cfg.StationsURL, cfg.HTTPTimeout, logger)
	all, err := client.Fetch(cmd.Context())
	if err != nil {
		return err
	}

	basin := fetch.FilterByKeywords(all, cfg.BasinKeywords)
	if len(basin) == 0 {
		debugPath := filepath.Join(cfg.RawDir, "aforos_TODAS_debug.csv")
		if err := fetch.WriteStationsCSV(debugPath, all); err != nil {
			return err
		}
		return fmt.Errorf("no stations matched keywords %v; full catalogue dumped to %s", cfg.BasinKeywords, debugPath)
	}

	outPath := filepath.Join(cfg.RawDir, "aforos_meta_raw.csv")
	if err := fetch.WriteStationsCSV(outPath, basin); err != nil {
		return err
	}
	logger.Info("basin stations written", "path", outPath, "stations", len(basin))

	if stationsToDB {
		if err := upsertStations(cmd, cfg, basin); err != nil {
			return err
		}
	}

	if jsonOutput() {
		return printJSON(basin)
	}
	return renderStationsTable(basin)
}

func runStationsSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	seed := stations.Seed()
	outPath := filepath.Join(cfg.RawDir, "aforos_meta_raw.csv")
	if err := fetch.WriteStationsCSV(outPath, seed); err != nil {
		return err
	}
	logger.Info("curated stations written", "path", outPath, "stations", len(seed))

	if stationsToDB {
		if err := upsertStations(cmd, cfg, seed); err != nil {
			return err
		}
	}

	if jsonOutput() {
		return printJSON(seed)
	}
	return renderStationsTable(seed)
}

func upsertStations(cmd *cobra.Command, cfg *config.Config, sts []domain.Station) error {
	logger := newLogger(cfg)
	st, err := store.Open(cfg.DBDriver, cfg.DBDSN, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.CreateSchema(cmd.Context()); err != nil {
		return err
	}
	if err := st.UpsertStations(cmd.Context(), sts); err != nil {
		return err
	}
	logger.Info("stations upserted", "stations", len(sts), "driver", cfg.DBDriver)
	return nil
}

func renderStationsTable(sts []domain.Station) error {
	return report.RenderStations(os.Stdout, sts)
}
