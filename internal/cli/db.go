package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mbouzas/arousa-etl/internal/adapter/csvfile"
	"github.com/mbouzas/arousa-etl/internal/adapter/store"
)

var loadTable string

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create the database schema",
	Long:  `Create all tables in the configured database if they do not exist yet.`,
	RunE:  runSchema,
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load a unified table into the database",
	Long: `Read a previously written unified observation table and insert it into
the observations table. Re-loading the same file is a no-op.`,
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().StringVar(&loadTable, "table", "", "unified CSV to load (default: every *_unified.csv under processed_dir)")
	rootCmd.AddCommand(schemaCmd, loadCmd)
}

func runSchema(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	st, err := store.Open(cfg.DBDriver, cfg.DBDSN, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	return st.CreateSchema(cmd.Context())
}

func runLoad(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	tables := []string{loadTable}
	if loadTable == "" {
		tables, err = filepath.Glob(filepath.Join(cfg.ProcessedDir, "*_unified.csv"))
		if err != nil {
			return err
		}
		if len(tables) == 0 {
			return fmt.Errorf("no unified tables under %s", cfg.ProcessedDir)
		}
	}

	st, err := store.Open(cfg.DBDriver, cfg.DBDSN, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.CreateSchema(cmd.Context()); err != nil {
		return err
	}

	totals := make(map[string]int, len(tables))
	for _, table := range tables {
		recs, columns, err := csvfile.ReadUnified(table)
		if err != nil {
			return err
		}
		inserted, err := st.InsertObservations(cmd.Context(), recs, columns)
		if err != nil {
			return err
		}
		logger.Info("table loaded", "table", table, "records", len(recs), "new_rows", inserted)
		totals[filepath.Base(table)] = inserted
	}

	if jsonOutput() {
		return printJSON(totals)
	}
	for name, n := range totals {
		fmt.Printf("%s: %d new rows\n", name, n)
	}
	return nil
}
