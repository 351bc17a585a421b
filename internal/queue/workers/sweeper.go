package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// StaleFailer is the slice of the generation store the sweeper needs.
type StaleFailer interface {
	FailStalePending(ctx context.Context, olderThan time.Duration) (int64, error)
}

// SweepWorker moves generations abandoned in pending (a crash or a
// dropped connection mid-call) to failed so no record stays pending
// forever.
type SweepWorker struct {
	store     StaleFailer
	olderThan time.Duration
}

func NewSweepWorker(store StaleFailer, olderThan time.Duration) *SweepWorker {
	return &SweepWorker{store: store, olderThan: olderThan}
}

func (w *SweepWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	n, err := w.store.FailStalePending(ctx, w.olderThan)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Info("swept stale pending generations", "count", n, "older_than", w.olderThan)
	}
	return nil
}
