package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mbouzas/arousa-etl/internal/adapter/csvfile"
	"github.com/mbouzas/arousa-etl/internal/adapter/kafka"
	"github.com/mbouzas/arousa-etl/internal/adapter/store"
	"github.com/mbouzas/arousa-etl/internal/config"
	"github.com/mbouzas/arousa-etl/internal/pipeline"
	"github.com/mbouzas/arousa-etl/internal/report"
)

var unifyToDB bool

// collectFiles walks dir and returns every data file, sorted so later edits of
// the same station come last and win deduplication.
func collectFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".csv", ".txt", ".dat":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// runUnify drives one parser over a raw directory and writes the unified
// table, the quality report, and the optional database and Kafka sinks.
func runUnify(ctx context.Context, cfg *config.Config, parser pipeline.Parser, rawDir, name string, skippable func(error) bool) error {
	logger := newLogger(cfg)
	metrics := processMetrics()

	files, err := collectFiles(rawDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no raw files under %s", rawDir)
	}

	outPath := filepath.Join(cfg.ProcessedDir, name+"_unified.csv")
	loaders := []pipeline.Loader{csvfile.NewWriter(outPath, logger)}

	if unifyToDB {
		st, err := store.Open(cfg.DBDriver, cfg.DBDSN, logger)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.CreateSchema(ctx); err != nil {
			return err
		}
		loaders = append(loaders, store.NewLoader(st, logger))
	}

	if cfg.KafkaEnabled {
		w := kafka.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger, metrics)
		defer w.Close()
		loaders = append(loaders, w)
	}

	job := pipeline.NewJob(parser, loaders, logger, metrics, cfg.Workers)
	if skippable != nil {
		job.SetSkippable(skippable)
	}

	rep, err := job.Run(ctx, files)
	if err != nil {
		return err
	}

	reportPath := filepath.Join(cfg.ProcessedDir, "reports", name+"_quality.json")
	if err := report.WriteJSON(reportPath, rep); err != nil {
		return err
	}
	logger.Info("quality report written", "path", reportPath)

	if jsonOutput() {
		return printJSON(rep)
	}
	return report.RenderQuality(os.Stdout, rep)
}
