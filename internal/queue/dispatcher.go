// Package queue moves new-listing fan-out off the request path, either onto
// an asynq queue or onto a tracked goroutine.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/property-listing-api/internal/domain"
	"github.com/property-listing-api/internal/queue/processor"
	"github.com/property-listing-api/internal/queue/task"
	"go.uber.org/zap"
)

type enqueuer interface {
	EnqueueContext(ctx context.Context, t *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqDispatcher enqueues listing events for the asynq worker.
type AsynqDispatcher struct {
	client enqueuer
}

func NewAsynqDispatcher(client enqueuer) *AsynqDispatcher {
	return &AsynqDispatcher{client: client}
}

func (d *AsynqDispatcher) ListingCreated(ctx context.Context, ev domain.ListingEvent) error {
	t, err := task.NewListingCreatedTask(ev)
	if err != nil {
		return err
	}
	if _, err := d.client.EnqueueContext(ctx, t); err != nil {
		return fmt.Errorf("enqueue listing created: %w", err)
	}
	return nil
}

// GoDispatcher runs fan-out on a goroutine per event. Wait blocks until
// in-flight deliveries finish so shutdown does not cut them off.
type GoDispatcher struct {
	notifier processor.Notifier
	timeout  time.Duration
	log      *zap.Logger
	wg       sync.WaitGroup
}

func NewGoDispatcher(n processor.Notifier, timeout time.Duration, log *zap.Logger) *GoDispatcher {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &GoDispatcher{notifier: n, timeout: timeout, log: log}
}

func (d *GoDispatcher) ListingCreated(ctx context.Context, ev domain.ListingEvent) error {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		if _, err := d.notifier.NotifyListing(ctx, ev); err != nil {
			d.log.Warn("listing fan-out failed", zap.String("record_id", ev.RecordID), zap.Error(err))
		}
	}()
	return nil
}

// Wait blocks until queued deliveries finish or ctx is done.
func (d *GoDispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
