package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/mbouzas/arousa-etl/internal/ingest/mooring"
)

var mooringCmd = &cobra.Command{
	Use:   "mooring",
	Short: "Unify the mooring buoy exports",
	Long: `Parse the INTECMAR mooring exports (Latin-1, semicolon-separated, comma
decimals), normalize columns and depth labels, deduplicate, and write the
unified table plus a quality report. Files for stations not in the mooring
catalogue are skipped with a warning.`,
	RunE: runMooring,
}

func init() {
	mooringCmd.Flags().BoolVar(&unifyToDB, "db", false, "also load observations into the database")
	rootCmd.AddCommand(mooringCmd)
}

func runMooring(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	parser := mooring.NewParser(newLogger(cfg))
	skippable := func(err error) bool { return errors.Is(err, mooring.ErrUnknownStation) }
	return runUnify(cmd.Context(), cfg, parser, cfg.MooringDir, "mooring", skippable)
}
