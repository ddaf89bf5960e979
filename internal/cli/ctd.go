package cli

import (
	"github.com/spf13/cobra"

	"github.com/mbouzas/arousa-etl/internal/ingest/ctd"
)

var ctdCmd = &cobra.Command{
	Use:   "ctd",
	Short: "Unify the CTD cast exports",
	Long: `Parse the INTECMAR CTD casts, detect the header line among the export
variants, map the VAR_n columns to physical names, join station coordinates,
and write the unified table plus a quality report.`,
	RunE: runCTD,
}

func init() {
	ctdCmd.Flags().BoolVar(&unifyToDB, "db", false, "also load observations into the database")
	rootCmd.AddCommand(ctdCmd)
}

func runCTD(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	coords, err := ctd.LoadCoords(cfg.CoordsFile, logger)
	if err != nil {
		return err
	}
	parser := ctd.NewParser(coords, logger)
	return runUnify(cmd.Context(), cfg, parser, cfg.CTDDir, "ctd", nil)
}
