package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/gundersenerik/dice/internal/config"
)

type Client struct {
	client *asynq.Client
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// ForwardRating queues a user-rating score for delivery to the tracing
// service. Delivery is retried by the worker; losing a score never
// loses the stored rating.
func (c *Client) ForwardRating(traceID string, rating int, comment string) error {
	return c.enqueue(TypeScoreForward, ScoreForwardPayload{
		TraceID: traceID,
		Rating:  rating,
		Comment: comment,
	}, asynq.MaxRetry(3), asynq.Timeout(30*time.Second))
}

func (c *Client) enqueue(taskType string, payload interface{}, opts ...asynq.Option) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(taskType, data)
	_, err = c.client.Enqueue(task, opts...)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}
