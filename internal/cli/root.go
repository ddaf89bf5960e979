// Package cli wires the arousa subcommands: station catalogue management,
// sensor unification, the bulk grid download, geodata extraction, and the
// database loaders.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mbouzas/arousa-etl/internal/config"
	"github.com/mbouzas/arousa-etl/internal/observability"
)

var (
	cfgFile      string
	outputFormat string
	logLevel     string
	logFormat    string
)

var rootCmd = &cobra.Command{
	Use:   "arousa",
	Short: "Research data pipeline for the Ría de Arousa basin",
	Long: `arousa manages the observational datasets behind the Arousa estuary study:
river gauge metadata from MeteoGalicia, INTECMAR mooring and CTD casts,
WRF precipitation grids, and the basin river network.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

var (
	metricsOnce sync.Once
	procMetrics *observability.Metrics
)

// processMetrics returns the shared metrics set. The default Prometheus
// registry rejects a second registration, and watch mode runs unification
// jobs repeatedly in one process, so the set is created exactly once.
func processMetrics() *observability.Metrics {
	metricsOnce.Do(func() { procMetrics = observability.NewMetrics() })
	return procMetrics
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./arousa.yaml)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "table", "output format: table or json")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format override (json, text)")
}

// loadConfig layers the optional YAML config file under AROUSA_* environment
// variables and the logging flag overrides.
func loadConfig() (*config.Config, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("arousa")
		v.SetConfigType("yaml")
		var nf viper.ConfigFileNotFoundError
		if err := v.ReadInConfig(); err != nil && !errors.As(err, &nf) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	return observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
}

func jsonOutput() bool { return outputFormat == "json" }

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
