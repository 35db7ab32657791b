package asynqserver

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/property-listing-api/internal/config"
	"github.com/property-listing-api/internal/queue/processor"
	"github.com/property-listing-api/internal/queue/task"
	"go.uber.org/zap"
)

func New(cfg config.Redis, notifier processor.Notifier, log *zap.Logger) (*asynq.Server, *asynq.ServeMux) {
	mux, queues := getQueues(notifier, log)
	srv := asynq.NewServer(
		RedisOptions(cfg),
		asynq.Config{
			Concurrency: 4,
			LogLevel:    asynq.WarnLevel,
			Logger:      log.Named("asynq").Sugar(),
			Queues:      queues,
			ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, t *asynq.Task, err error) {
				log.Warn("queued task failed", zap.String("task", t.Type()), zap.Error(err))
			}),
		},
	)

	return srv, mux
}

func RedisOptions(cfg config.Redis) asynq.RedisConnOpt {
	return asynq.RedisClientOpt{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
}

func getQueues(notifier processor.Notifier, log *zap.Logger) (*asynq.ServeMux, map[string]int) {
	mux := asynq.NewServeMux()
	mux.Handle(task.ListingCreatedTaskName, processor.NewListingCreatedProcessor(notifier, log))
	queues := map[string]int{
		task.ListingCreatedQueueName: 1,
	}
	return mux, queues
}
