package cli

import (
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/spf13/cobra"

	"github.com/mbouzas/arousa-etl/internal/adapter/store"
	"github.com/mbouzas/arousa-etl/internal/config"
	"github.com/mbouzas/arousa-etl/internal/domain"
	"github.com/mbouzas/arousa-etl/internal/geo"
	"github.com/mbouzas/arousa-etl/internal/stations"
)

var coverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Render the station coverage map",
	Long: `Render the filtered river network with the gauging stations on top, to
check visually that the station set covers the basin. Stations come from the
database when present, otherwise from the curated list.`,
	RunE: runCoverage,
}

func init() {
	rootCmd.AddCommand(coverageCmd)
}

func runCoverage(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	riversPath := filepath.Join(cfg.ProcessedDir, "red_fluvial_arousa.geojson")
	fc, err := geo.ReadGeoJSON(riversPath)
	if err != nil {
		return err
	}

	sts := coverageStations(cmd, cfg)
	bbox := orb.Bound{
		Min: orb.Point{cfg.BboxMinLon, cfg.BboxMinLat},
		Max: orb.Point{cfg.BboxMaxLon, cfg.BboxMaxLat},
	}

	outPath := filepath.Join(cfg.ProcessedDir, "maps", "coverage_map.png")
	if err := geo.CoverageMap(fc, sts, bbox, outPath, logger); err != nil {
		return err
	}

	if jsonOutput() {
		return printJSON(map[string]any{"path": outPath, "stations": len(sts)})
	}
	return nil
}

// coverageStations prefers the database catalogue and falls back to the
// curated list.
func coverageStations(cmd *cobra.Command, cfg *config.Config) []domain.Station {
	logger := newLogger(cfg)
	st, err := store.Open(cfg.DBDriver, cfg.DBDSN, logger)
	if err == nil {
		defer st.Close()
		if sts, err := st.Stations(cmd.Context()); err == nil && len(sts) > 0 {
			return sts
		}
	}
	logger.Info("no stations in database, using curated list")
	return stations.Seed()
}
