package task

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/property-listing-api/internal/domain"
)

const (
	ListingCreatedTaskName  = "listingCreatedTask"
	ListingCreatedQueueName = "listingFanOutQueue"
)

// NewListingCreatedTask wraps a listing event for subscriber fan-out. Fan-out
// is best effort, so failed tasks are not retried.
func NewListingCreatedTask(ev domain.ListingEvent) (*asynq.Task, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("json data marshal failed: %w", err)
	}

	return asynq.NewTask(
		ListingCreatedTaskName,
		payload,
		asynq.MaxRetry(0),
		asynq.Queue(ListingCreatedQueueName),
	), nil
}

// ParseListingCreated decodes a task payload built by NewListingCreatedTask.
func ParseListingCreated(t *asynq.Task) (domain.ListingEvent, error) {
	var ev domain.ListingEvent
	if err := json.Unmarshal(t.Payload(), &ev); err != nil {
		return ev, fmt.Errorf("listing created task json unmarshal failed: %w", err)
	}
	return ev, nil
}
