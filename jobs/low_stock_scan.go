package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stockroom-app/stockroom/internal/products"
)

// LowStockLister returns products at or below their reorder point.
type LowStockLister interface {
	ListLowStock(ctx context.Context, threshold int64) ([]products.Product, error)
}

// LowStockScanJob reports products whose quantity fell below their minimum.
type LowStockScanJob struct {
	Products LowStockLister
	Logger   *slog.Logger
}

// NewLowStockScanJob initialises the low-stock scan handler.
func NewLowStockScanJob(lister LowStockLister, logger *slog.Logger) *LowStockScanJob {
	return &LowStockScanJob{Products: lister, Logger: logger}
}

// Handle executes the scan.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Products == nil {
		return errors.New("low-stock scan: handler not configured")
	}
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	logger := j.logger().With(slog.Int64("threshold", payload.Threshold))
	logger.Info("starting low-stock scan")
	start := time.Now()

	low, err := j.Products.ListLowStock(ctx, payload.Threshold)
	if err != nil {
		logger.Error("scan failed", slog.Any("error", err))
		return err
	}

	for _, p := range low {
		logger.Warn("product below minimum stock",
			slog.Int64("product_id", p.ID),
			slog.String("sku", p.SKU),
			slog.Int64("quantity", p.Quantity),
			slog.Int64("min_threshold", p.MinThreshold),
		)
	}

	logger.Info("completed low-stock scan",
		slog.Int("low_products", len(low)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *LowStockScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskLowStockScan))
	}
	return slog.Default().With(slog.String("job", TaskLowStockScan))
}
