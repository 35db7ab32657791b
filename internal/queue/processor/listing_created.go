package processor

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/property-listing-api/internal/domain"
	"github.com/property-listing-api/internal/queue/task"
	"go.uber.org/zap"
)

// Notifier delivers a listing event to subscribers.
type Notifier interface {
	NotifyListing(ctx context.Context, ev domain.ListingEvent) (int, error)
}

type listingCreatedProcessor struct {
	notifier Notifier
	log      *zap.Logger
}

func NewListingCreatedProcessor(n Notifier, log *zap.Logger) *listingCreatedProcessor {
	return &listingCreatedProcessor{notifier: n, log: log}
}

func (p *listingCreatedProcessor) ProcessTask(ctx context.Context, t *asynq.Task) error {
	ev, err := task.ParseListingCreated(t)
	if err != nil {
		return fmt.Errorf("process listing created task: %w", err)
	}
	sent, err := p.notifier.NotifyListing(ctx, ev)
	if err != nil {
		return fmt.Errorf("notify listing %s failed: %w", ev.RecordID, err)
	}
	p.log.Debug("listing fan-out processed", zap.String("record_id", ev.RecordID), zap.Int("recipients", sent))
	return nil
}
