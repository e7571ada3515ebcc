package journal

import (
	"context"
	"log/slog"
	"time"
)

// Pruner deletes events older than a cutoff.
type Pruner interface {
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

// RetentionWorker periodically deletes old journal events.
type RetentionWorker struct {
	store     Pruner
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewRetentionWorker creates a worker keeping retentionDays of events. It
// prunes once on start and then daily.
func NewRetentionWorker(store Pruner, retentionDays int, logger *slog.Logger) *RetentionWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetentionWorker{
		store:     store,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		interval:  24 * time.Hour,
		logger:    logger,
		now:       time.Now,
	}
}

// Run prunes until ctx is cancelled.
func (w *RetentionWorker) Run(ctx context.Context) {
	if w.store == nil || w.retention <= 0 {
		w.logger.Info("journal retention worker disabled",
			"hasStore", w.store != nil,
			"retentionDays", int(w.retention.Hours()/24))
		return
	}

	w.Prune()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("journal retention worker stopped")
			return
		case <-ticker.C:
			w.Prune()
		}
	}
}

// Prune performs a single retention pass and returns the number of deleted events.
func (w *RetentionWorker) Prune() int64 {
	if w.store == nil || w.retention <= 0 {
		return 0
	}
	cutoff := w.now().Add(-w.retention)
	deleted, err := w.store.DeleteOlderThan(cutoff)
	if err != nil {
		w.logger.Error("journal retention cleanup failed", "error", err)
		return 0
	}
	if deleted > 0 {
		w.logger.Info("journal retention cleanup completed",
			"deleted", deleted,
			"cutoff", cutoff.Format(time.RFC3339))
	}
	return deleted
}
