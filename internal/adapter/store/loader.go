package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mbouzas/arousa-etl/internal/domain"
)

// Loader feeds pipeline output into a Store. It implements pipeline.Loader.
type Loader struct {
	st     Store
	logger *slog.Logger
}

func NewLoader(st Store, logger *slog.Logger) *Loader {
	return &Loader{st: st, logger: logger}
}

func (l *Loader) Name() string { return "db" }

func (l *Loader) Load(ctx context.Context, recs []domain.Record, columns []string) error {
	inserted, err := l.st.InsertObservations(ctx, recs, columns)
	if err != nil {
		return fmt.Errorf("insert observations: %w", err)
	}
	l.logger.Info("observations stored", "records", len(recs), "new_rows", inserted)
	return nil
}
