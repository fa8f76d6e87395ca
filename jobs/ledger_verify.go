package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/stockroom-app/stockroom/internal/ledger"
	"github.com/stockroom-app/stockroom/internal/products"
)

// ActiveProductLister returns every active product with its current quantity.
type ActiveProductLister interface {
	ListActive(ctx context.Context) ([]products.Product, error)
}

// ReplayVerifier checks that a product's ledger sums to its stored quantity.
type ReplayVerifier interface {
	VerifyReplay(ctx context.Context, productID, currentQuantity int64) error
}

// LedgerVerifyJob sweeps active products and flags ledger drift.
type LedgerVerifyJob struct {
	Products ActiveProductLister
	Verifier ReplayVerifier
	Logger   *slog.Logger
}

// NewLedgerVerifyJob initialises the replay verification handler.
func NewLedgerVerifyJob(lister ActiveProductLister, verifier ReplayVerifier, logger *slog.Logger) *LedgerVerifyJob {
	return &LedgerVerifyJob{Products: lister, Verifier: verifier, Logger: logger}
}

// Handle executes the sweep. Drifted products are logged and counted; the
// task itself fails only on infrastructure errors so a single bad product
// does not starve the rest of the sweep.
func (j *LedgerVerifyJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Products == nil || j.Verifier == nil {
		return errors.New("ledger verify: handler not configured")
	}
	var payload LedgerVerifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Concurrency <= 0 {
		payload.Concurrency = 8
	}

	logger := j.logger()
	logger.Info("starting ledger verification", slog.Int("concurrency", payload.Concurrency))
	start := time.Now()

	items, err := j.Products.ListActive(ctx)
	if err != nil {
		logger.Error("list products failed", slog.Any("error", err))
		return err
	}

	var drifted int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(payload.Concurrency)
	results := make(chan int64, len(items))
	for _, p := range items {
		p := p
		g.Go(func() error {
			err := j.Verifier.VerifyReplay(gctx, p.ID, p.Quantity)
			if err == nil {
				return nil
			}
			var mismatch *ledger.ReplayMismatchError
			if errors.As(err, &mismatch) {
				logger.Error("ledger drift detected",
					slog.Int64("product_id", p.ID),
					slog.String("sku", p.SKU),
					slog.Int64("quantity", mismatch.Quantity),
					slog.Int64("ledger_sum", mismatch.LedgerSum),
				)
				results <- p.ID
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("verification sweep failed", slog.Any("error", err))
		return err
	}
	close(results)
	for range results {
		drifted++
	}

	logger.Info("completed ledger verification",
		slog.Int("products", len(items)),
		slog.Int64("drifted", drifted),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *LedgerVerifyJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskLedgerVerify))
	}
	return slog.Default().With(slog.String("job", TaskLedgerVerify))
}
