package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velomart-erp/velomart-erp/internal/catalog"
	jobmetrics "github.com/velomart-erp/velomart-erp/internal/jobs"
)

// ImageDeleter removes stored images. Implemented by the external file
// storage integration.
type ImageDeleter interface {
	Delete(ctx context.Context, url string) error
}

// Handlers bundles the dependencies of the catalog task handlers.
type Handlers struct {
	Logger  *slog.Logger
	Images  ImageDeleter
	Cache   *catalog.AggregateCache
	Pool    *pgxpool.Pool
	Metrics *jobmetrics.Metrics
}

// HandleImageCleanup deletes the payload's image URLs one by one.
// Individual failures are logged and retried with the task.
func (h *Handlers) HandleImageCleanup(ctx context.Context, t *asynq.Task) (err error) {
	defer func() { err = h.Metrics.Track(TaskImageCleanup).End(err) }()
	var payload ImageCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if h.Images == nil {
		h.Logger.Warn("image deleter not configured, dropping cleanup",
			slog.String("job_id", payload.JobID), slog.Int("urls", len(payload.URLs)))
		return nil
	}
	for _, url := range payload.URLs {
		if err := h.Images.Delete(ctx, url); err != nil {
			h.Logger.Error("delete image", slog.String("url", url), slog.Any("error", err))
			return err
		}
	}
	h.Logger.Info("image cleanup done",
		slog.String("job_id", payload.JobID),
		slog.Int64("product_id", payload.ProductID),
		slog.Int("urls", len(payload.URLs)))
	return nil
}

// HandleAggregateInvalidate drops cached product aggregates.
func (h *Handlers) HandleAggregateInvalidate(ctx context.Context, t *asynq.Task) (err error) {
	defer func() { err = h.Metrics.Track(TaskAggregateInvalidate).End(err) }()
	var payload AggregateInvalidatePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if h.Cache == nil {
		return nil
	}
	for _, id := range payload.ProductIDs {
		h.Cache.Invalidate(ctx, id)
	}
	return nil
}

// HandleOrphanScan counts option values with no variant link left. The
// engine never deletes option values, so the scan only reports.
func (h *Handlers) HandleOrphanScan(ctx context.Context, t *asynq.Task) (err error) {
	defer func() { err = h.Metrics.Track(TaskOrphanScan).End(err) }()
	var payload OrphanScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if h.Pool == nil {
		return nil
	}
	var orphans int64
	err = h.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM option_values ov
		 WHERE NOT EXISTS (SELECT 1 FROM variant_option_values vov WHERE vov.option_value_id = ov.id)`).
		Scan(&orphans)
	if err != nil {
		return err
	}
	h.Metrics.SetOrphanedOptionValues(orphans)
	h.Logger.Info("orphan option value scan", slog.Int64("orphans", orphans))
	return nil
}
