package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/gundersenerik/dice/internal/config"
	"github.com/gundersenerik/dice/internal/database"
	"github.com/gundersenerik/dice/internal/generation"
	"github.com/gundersenerik/dice/internal/langfuse"
	"github.com/gundersenerik/dice/internal/queue"
	"github.com/gundersenerik/dice/internal/queue/workers"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	langfuse.Configure(langfuse.Config{
		SecretKey: cfg.Langfuse.SecretKey,
		PublicKey: cfg.Langfuse.PublicKey,
		BaseURL:   cfg.Langfuse.BaseURL,
	})

	db, err := database.NewPool(context.Background(), cfg.Database)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			"default": 1,
		},
	})

	store := generation.NewStore(db)

	mux := asynq.NewServeMux()
	mux.Handle(queue.TypeScoreForward, asynq.HandlerFunc(workers.NewScoreWorker(langfuse.Default()).ProcessTask))
	mux.Handle(queue.TypeStaleSweep, asynq.HandlerFunc(workers.NewSweepWorker(store, cfg.Sweeper.StalePendingAfter).ProcessTask))

	scheduler := asynq.NewScheduler(redisOpt, nil)
	if _, err := scheduler.Register("@every 10m", asynq.NewTask(queue.TypeStaleSweep, nil)); err != nil {
		slog.Error("failed to register sweep schedule", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := scheduler.Run(); err != nil {
			slog.Error("scheduler error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("starting worker", "concurrency", 10)
	if err := srv.Run(mux); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
