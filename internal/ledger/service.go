package ledger

import (
	"context"
	"errors"
)

// MetricsPort abstracts the movement counters so the service stays decoupled
// from the prometheus registry.
type MetricsPort interface {
	MovementCommitted(changeType string)
	AdjustmentRejected()
}

// Service is the stock ledger: it validates quantity deltas, commits them
// atomically together with their audit entry, and serves ledger history.
type Service struct {
	repo    RepositoryPort
	metrics MetricsPort
}

// maxAttempts bounds automatic retries on contended writes before the
// conflict is surfaced to the caller.
const maxAttempts = 3

// NewService builds Service. metrics may be nil.
func NewService(repo RepositoryPort, metrics MetricsPort) *Service {
	return &Service{repo: repo, metrics: metrics}
}

// ApplyDelta applies a signed quantity change to a product. The quantity
// update and the ledger append share one transaction: either both are durable
// or neither is. A delta that would drive the quantity negative is rejected
// with ErrInsufficientStock and leaves no trace in the ledger.
func (s *Service) ApplyDelta(ctx context.Context, input AdjustmentInput) (Result, error) {
	if input.Delta == 0 {
		return Result{}, ErrInvalidDelta
	}
	if !input.Type.Valid() {
		return Result{}, ErrInvalidChangeType
	}
	if input.ProductID <= 0 {
		return Result{}, ErrProductNotFound
	}

	var result Result
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			previous, err := tx.GetQuantityForUpdate(ctx, input.ProductID)
			if err != nil {
				return err
			}
			next := previous + input.Delta
			if next < 0 {
				return ErrInsufficientStock
			}
			if err := tx.SetQuantity(ctx, input.ProductID, next); err != nil {
				return err
			}
			if _, err := tx.AppendEntry(ctx, Entry{
				ProductID:        input.ProductID,
				Type:             input.Type,
				Delta:            input.Delta,
				PreviousQuantity: previous,
				NewQuantity:      next,
				OrderRef:         input.OrderRef,
				ActorID:          input.ActorID,
				Note:             input.Note,
			}); err != nil {
				return err
			}
			result = Result{PreviousQuantity: previous, NewQuantity: next}
			return nil
		})
		if err == nil {
			s.movementCommitted(input.Type)
			return result, nil
		}
		if !IsRetryableTxError(err) {
			break
		}
	}
	if errors.Is(err, ErrInsufficientStock) {
		s.adjustmentRejected()
		return Result{}, err
	}
	if IsRetryableTxError(err) {
		return Result{}, ErrConflict
	}
	return Result{}, err
}

// History returns ledger entries for a product, newest first, paged by page
// number. Paging is LIMIT/OFFSET over the id ordering, so entries appended
// while a caller walks pages can shift rows across page boundaries; the
// since filter pins a window when a stable cut matters.
func (s *Service) History(ctx context.Context, productID int64, filter HistoryFilter) (HistoryPage, error) {
	if productID <= 0 {
		return HistoryPage{}, ErrProductNotFound
	}
	exists, err := s.repo.ProductExists(ctx, productID)
	if err != nil {
		return HistoryPage{}, err
	}
	if !exists {
		return HistoryPage{}, ErrProductNotFound
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	// Fetch one extra row to detect whether a next page exists.
	entries, err := s.repo.ListEntries(ctx, productID, HistoryFilter{
		Since:    filter.Since,
		Type:     filter.Type,
		PageSize: pageSize + 1,
		Offset:   (page - 1) * pageSize,
	})
	if err != nil {
		return HistoryPage{}, err
	}

	hasNext := len(entries) > pageSize
	if hasNext {
		entries = entries[:pageSize]
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return HistoryPage{Entries: entries, Paging: paging}, nil
}

// VerifyReplay checks the ledger invariant for one product: the sum of all
// recorded deltas must equal the current quantity. Products are created with
// an opening correction entry, so replay starts from zero.
func (s *Service) VerifyReplay(ctx context.Context, productID, currentQuantity int64) error {
	sum, err := s.repo.SumDeltas(ctx, productID)
	if err != nil {
		return err
	}
	if sum != currentQuantity {
		return &ReplayMismatchError{ProductID: productID, LedgerSum: sum, Quantity: currentQuantity}
	}
	return nil
}

func (s *Service) movementCommitted(changeType ChangeType) {
	if s.metrics != nil {
		s.metrics.MovementCommitted(string(changeType))
	}
}

func (s *Service) adjustmentRejected() {
	if s.metrics != nil {
		s.metrics.AdjustmentRejected()
	}
}
