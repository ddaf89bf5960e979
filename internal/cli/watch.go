package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/mbouzas/arousa-etl/internal/config"
	"github.com/mbouzas/arousa-etl/internal/ingest/ctd"
	"github.com/mbouzas/arousa-etl/internal/ingest/mooring"
	"github.com/mbouzas/arousa-etl/internal/watch"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run unification when raw files change",
	Long: `Watch the mooring and CTD raw directories and re-run both unifications
after new files settle. Runs until interrupted.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 2*time.Second, "quiet period before a run fires")
	watchCmd.Flags().BoolVar(&unifyToDB, "db", false, "also load observations into the database")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := watch.New(
		[]string{cfg.MooringDir, cfg.CTDDir},
		watchDebounce,
		func(ctx context.Context) error { return unifyAll(ctx, cfg) },
		logger,
		clockwork.NewRealClock(),
	)

	err = w.Watch(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("watch stopped")
		return nil
	}
	return err
}

// unifyAll runs both unifications; a failure in one does not stop the other.
func unifyAll(ctx context.Context, cfg *config.Config) error {
	logger := newLogger(cfg)

	mooringParser := mooring.NewParser(logger)
	skippable := func(err error) bool { return errors.Is(err, mooring.ErrUnknownStation) }
	mErr := runUnify(ctx, cfg, mooringParser, cfg.MooringDir, "mooring", skippable)
	if mErr != nil {
		logger.Error("mooring unification failed", "error", mErr)
	}

	coords, cErr := ctd.LoadCoords(cfg.CoordsFile, logger)
	if cErr == nil {
		cErr = runUnify(ctx, cfg, ctd.NewParser(coords, logger), cfg.CTDDir, "ctd", nil)
	}
	if cErr != nil {
		logger.Error("ctd unification failed", "error", cErr)
	}

	if mErr != nil && cErr != nil {
		return errors.Join(mErr, cErr)
	}
	return nil
}
