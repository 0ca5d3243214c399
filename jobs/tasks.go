package jobs

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskImageCleanup removes images of hard-deleted variants from storage.
	TaskImageCleanup = "catalog:image_cleanup"
	// TaskAggregateInvalidate drops cached product aggregates.
	TaskAggregateInvalidate = "catalog:aggregate_invalidate"
	// TaskOrphanScan counts option values no variant references anymore.
	TaskOrphanScan = "catalog:orphan_scan"
)

// ImageCleanupPayload lists the image URLs to remove after variants were
// deleted by reconciliation.
type ImageCleanupPayload struct {
	JobID     string   `json:"job_id"`
	ProductID int64    `json:"product_id"`
	URLs      []string `json:"urls"`
}

// NewImageCleanupTask constructs an Asynq task for image cleanup.
func NewImageCleanupTask(productID int64, urls []string) (*asynq.Task, error) {
	body, err := json.Marshal(ImageCleanupPayload{
		JobID:     uuid.NewString(),
		ProductID: productID,
		URLs:      urls,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskImageCleanup, body, asynq.Queue(QueueDefault)), nil
}

// AggregateInvalidatePayload carries the products whose cached aggregates
// are stale.
type AggregateInvalidatePayload struct {
	ProductIDs []int64 `json:"product_ids"`
}

// NewAggregateInvalidateTask constructs an Asynq task for cache invalidation.
func NewAggregateInvalidateTask(productIDs []int64) (*asynq.Task, error) {
	body, err := json.Marshal(AggregateInvalidatePayload{ProductIDs: productIDs})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAggregateInvalidate, body, asynq.Queue(QueueDefault)), nil
}

// OrphanScanPayload carries scheduling metadata for the nightly scan.
type OrphanScanPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewOrphanScanTask constructs an Asynq task for the orphan scan.
func NewOrphanScanTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(OrphanScanPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrphanScan, body, asynq.Queue(QueueDefault)), nil
}
