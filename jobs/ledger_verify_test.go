package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stockroom-app/stockroom/internal/ledger"
	"github.com/stockroom-app/stockroom/internal/products"
	_ "github.com/stockroom-app/stockroom/testing"
)

type fakeLister struct {
	items []products.Product
	err   error
}

func (f *fakeLister) ListActive(ctx context.Context) ([]products.Product, error) {
	return f.items, f.err
}

type fakeVerifier struct {
	mu      sync.Mutex
	checked []int64
	drift   map[int64]*ledger.ReplayMismatchError
	err     error
}

func (f *fakeVerifier) VerifyReplay(ctx context.Context, productID, currentQuantity int64) error {
	f.mu.Lock()
	f.checked = append(f.checked, productID)
	f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if mismatch, ok := f.drift[productID]; ok {
		return mismatch
	}
	return nil
}

func TestLedgerVerifySweepsAllProducts(t *testing.T) {
	lister := &fakeLister{items: []products.Product{
		{ID: 1, SKU: "A-1", Quantity: 5},
		{ID: 2, SKU: "B-2", Quantity: 0},
		{ID: 3, SKU: "C-3", Quantity: 12},
	}}
	verifier := &fakeVerifier{}
	job := NewLedgerVerifyJob(lister, verifier, nil)

	task, err := NewLedgerVerifyTask(2, time.Now())
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, verifier.checked, 3)
}

func TestLedgerVerifyToleratesDrift(t *testing.T) {
	lister := &fakeLister{items: []products.Product{
		{ID: 1, SKU: "A-1", Quantity: 5},
		{ID: 2, SKU: "B-2", Quantity: 9},
	}}
	verifier := &fakeVerifier{drift: map[int64]*ledger.ReplayMismatchError{
		2: {ProductID: 2, LedgerSum: 7, Quantity: 9},
	}}
	job := NewLedgerVerifyJob(lister, verifier, nil)

	task, err := NewLedgerVerifyTask(2, time.Now())
	require.NoError(t, err)
	// Drift is reported, not fatal: the sweep still succeeds.
	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, verifier.checked, 2)
}

func TestLedgerVerifySurfacesInfrastructureErrors(t *testing.T) {
	lister := &fakeLister{items: []products.Product{{ID: 1, Quantity: 5}}}
	verifier := &fakeVerifier{err: errors.New("connection refused")}
	job := NewLedgerVerifyJob(lister, verifier, nil)

	task, err := NewLedgerVerifyTask(1, time.Now())
	require.NoError(t, err)
	require.Error(t, job.Handle(context.Background(), task))
}

func TestLowStockScanReportsLowProducts(t *testing.T) {
	lister := &lowStockFake{items: []products.Product{
		{ID: 1, SKU: "A-1", Quantity: 2, MinThreshold: 10},
	}}
	job := NewLowStockScanJob(lister, nil)

	task, err := NewLowStockScanTask(0, time.Now())
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, int64(0), lister.gotThreshold)
}

type lowStockFake struct {
	items        []products.Product
	gotThreshold int64
}

func (f *lowStockFake) ListLowStock(ctx context.Context, threshold int64) ([]products.Product, error) {
	f.gotThreshold = threshold
	return f.items, nil
}
