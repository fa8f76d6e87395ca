package ledger

import (
	"errors"
	"fmt"
	"time"
)

// ChangeType enumerates the reasons a product quantity may change.
type ChangeType string

const (
	// ChangeRestock records incoming stock from a supplier.
	ChangeRestock ChangeType = "restock"
	// ChangeSale records stock leaving through order fulfillment.
	ChangeSale ChangeType = "sale"
	// ChangeAdjustment records a manual stock correction by staff.
	ChangeAdjustment ChangeType = "adjustment"
	// ChangeReturn records stock coming back from a customer return.
	ChangeReturn ChangeType = "return"
	// ChangeCorrection records reconciliation fixes, including opening balances.
	ChangeCorrection ChangeType = "correction"
)

// Valid reports whether the change type belongs to the closed enumeration.
func (c ChangeType) Valid() bool {
	switch c {
	case ChangeRestock, ChangeSale, ChangeAdjustment, ChangeReturn, ChangeCorrection:
		return true
	}
	return false
}

// Entry is one immutable audit record of a quantity change. Entries are only
// ever appended, in the same transaction that commits the quantity they
// describe, so their ids are commit-ordered per product.
type Entry struct {
	ID               int64      `json:"id"`
	ProductID        int64      `json:"product_id"`
	Type             ChangeType `json:"change_type"`
	Delta            int64      `json:"delta"`
	PreviousQuantity int64      `json:"previous_quantity"`
	NewQuantity      int64      `json:"new_quantity"`
	OrderRef         string     `json:"order_ref,omitempty"`
	ActorID          int64      `json:"actor_id"`
	Note             string     `json:"note,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// AdjustmentInput describes a requested quantity change.
type AdjustmentInput struct {
	ProductID int64
	Delta     int64
	Type      ChangeType
	ActorID   int64
	Note      string
	OrderRef  string
}

// Result reports the committed quantity transition.
type Result struct {
	PreviousQuantity int64 `json:"previous_quantity"`
	NewQuantity      int64 `json:"new_quantity"`
}

// HistoryFilter narrows ledger history reads. Page is interpreted by the
// service; the repository reads PageSize and Offset as LIMIT/OFFSET.
type HistoryFilter struct {
	Since    time.Time
	Type     ChangeType
	Page     int
	PageSize int
	Offset   int
}

// PagingInfo carries simple pagination metadata for history pages.
type PagingInfo struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasNext  bool `json:"has_next"`
	PrevPage int  `json:"prev_page,omitempty"`
	NextPage int  `json:"next_page,omitempty"`
}

// HistoryPage is one page of ledger entries, newest first.
type HistoryPage struct {
	Entries []Entry    `json:"entries"`
	Paging  PagingInfo `json:"paging"`
}

// ErrProductNotFound indicates an unknown product id.
var ErrProductNotFound = errors.New("ledger: product not found")

// ErrInsufficientStock triggered when a delta would drive quantity negative.
var ErrInsufficientStock = errors.New("ledger: insufficient stock")

// ErrInvalidDelta indicates a zero delta.
var ErrInvalidDelta = errors.New("ledger: delta must be a non-zero integer")

// ErrInvalidChangeType indicates a change type outside the enumeration.
var ErrInvalidChangeType = errors.New("ledger: unknown change type")

// ErrConflict indicates a contended write that kept failing after retries.
var ErrConflict = errors.New("ledger: concurrent update conflict")

// ReplayMismatchError reports a product whose ledger no longer sums to its
// current quantity.
type ReplayMismatchError struct {
	ProductID int64
	LedgerSum int64
	Quantity  int64
}

func (e *ReplayMismatchError) Error() string {
	return fmt.Sprintf("ledger: replay mismatch for product %d: ledger sum %d, quantity %d", e.ProductID, e.LedgerSum, e.Quantity)
}
