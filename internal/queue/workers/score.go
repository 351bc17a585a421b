package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/gundersenerik/dice/internal/langfuse"
	"github.com/gundersenerik/dice/internal/queue"
)

// ScoreWorker delivers user-rating scores to Langfuse. Errors bubble
// up so asynq retries the task.
type ScoreWorker struct {
	lf *langfuse.Client
}

func NewScoreWorker(lf *langfuse.Client) *ScoreWorker {
	return &ScoreWorker{lf: lf}
}

func (w *ScoreWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p queue.ScoreForwardPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal score payload: %w", err)
	}

	w.lf.AddScore(langfuse.Score{
		TraceID: p.TraceID,
		Name:    "user-rating",
		Value:   float64(p.Rating),
		Comment: p.Comment,
	})
	if err := w.lf.Flush(ctx); err != nil {
		return fmt.Errorf("deliver score for trace %s: %w", p.TraceID, err)
	}

	slog.Info("delivered user-rating score", "trace_id", p.TraceID, "rating", p.Rating)
	return nil
}
