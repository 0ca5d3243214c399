package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Client enqueues background tasks in response to domain events. All
// methods are fire-and-forget; enqueue failures are logged, never
// surfaced to the caller.
type Client struct {
	inner  *asynq.Client
	logger *slog.Logger
}

func NewClient(inner *asynq.Client, logger *slog.Logger) *Client {
	return &Client{inner: inner, logger: logger}
}

// VariantsDeleted schedules cleanup of photo files that no longer have
// a variant row pointing at them.
func (c *Client) VariantsDeleted(ctx context.Context, productID int64, photoURLs []string) {
	if c == nil || c.inner == nil || len(photoURLs) == 0 {
		return
	}
	task, err := NewImageCleanupTask(productID, photoURLs)
	if err != nil {
		c.logger.Warn("jobs: build image cleanup task", "product_id", productID, "error", err)
		return
	}
	if _, err := c.inner.EnqueueContext(ctx, task); err != nil {
		c.logger.Warn("jobs: enqueue image cleanup", "product_id", productID, "error", err)
	}
}

// AggregateChanged schedules invalidation of the cached product
// aggregate.
func (c *Client) AggregateChanged(ctx context.Context, productID int64) {
	if c == nil || c.inner == nil {
		return
	}
	task, err := NewAggregateInvalidateTask([]int64{productID})
	if err != nil {
		c.logger.Warn("jobs: build aggregate invalidate task", "product_id", productID, "error", err)
		return
	}
	if _, err := c.inner.EnqueueContext(ctx, task); err != nil {
		c.logger.Warn("jobs: enqueue aggregate invalidate", "product_id", productID, "error", err)
	}
}

// StockChanged invalidates the cached aggregates of every product whose
// availability figures moved. Satisfies the notification ports of the
// receiving and orders services.
func (c *Client) StockChanged(ctx context.Context, productIDs []int64) {
	if c == nil || c.inner == nil || len(productIDs) == 0 {
		return
	}
	task, err := NewAggregateInvalidateTask(productIDs)
	if err != nil {
		c.logger.Warn("jobs: build aggregate invalidate task", "error", err)
		return
	}
	if _, err := c.inner.EnqueueContext(ctx, task); err != nil {
		c.logger.Warn("jobs: enqueue aggregate invalidate", "error", err)
	}
}

// Close releases the underlying asynq client connection.
func (c *Client) Close() error {
	if c == nil || c.inner == nil {
		return nil
	}
	return c.inner.Close()
}
