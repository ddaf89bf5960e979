package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mbouzas/arousa-etl/internal/geo"
)

var riversShapefile string

var riversCmd = &cobra.Command{
	Use:   "rivers",
	Short: "Extract the basin river network from the hydrography shapefile",
	Long: `Find the regional hydrography shapefile, keep the segments whose name
matches the configured river keywords, reproject to WGS84, and write the
filtered network as GeoJSON for the coverage map.`,
	RunE: runRivers,
}

func init() {
	riversCmd.Flags().StringVar(&riversShapefile, "shapefile", "", "path to the river shapefile (default: search under <raw_dir>/hidrografia)")
	rootCmd.AddCommand(riversCmd)
}

func runRivers(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	shpPath := riversShapefile
	if shpPath == "" {
		shpPath, err = geo.FindShapefile(filepath.Join(cfg.RawDir, "hidrografia"))
		if err != nil {
			return err
		}
	}
	logger.Info("processing shapefile", "path", shpPath)

	fc, err := geo.ExtractRivers(shpPath, cfg.RiverKeywords, logger)
	if err != nil {
		return err
	}

	outPath := filepath.Join(cfg.ProcessedDir, "red_fluvial_arousa.geojson")
	if err := geo.WriteGeoJSON(outPath, fc); err != nil {
		return err
	}
	logger.Info("river network written", "path", outPath, "segments", len(fc.Features))

	if jsonOutput() {
		return printJSON(map[string]any{"path": outPath, "segments": len(fc.Features)})
	}
	return nil
}
