package ledger

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockroom-app/stockroom/internal/platform/db"
)

// TxRepository exposes the operations that must share one transaction: the
// row-locked quantity read, the quantity write, and the ledger append.
type TxRepository interface {
	GetQuantityForUpdate(ctx context.Context, productID int64) (int64, error)
	SetQuantity(ctx context.Context, productID, quantity int64) error
	AppendEntry(ctx context.Context, entry Entry) (Entry, error)
}

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ProductExists(ctx context.Context, productID int64) (bool, error)
	ListEntries(ctx context.Context, productID int64, filter HistoryFilter) ([]Entry, error)
	SumDeltas(ctx context.Context, productID int64) (int64, error)
}

// Repository persists ledger data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

func (r *txRepo) GetQuantityForUpdate(ctx context.Context, productID int64) (int64, error) {
	var quantity int64
	err := r.tx.QueryRow(ctx, `SELECT quantity FROM products WHERE id = $1 FOR UPDATE`, productID).Scan(&quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrProductNotFound
		}
		return 0, err
	}
	return quantity, nil
}

func (r *txRepo) SetQuantity(ctx context.Context, productID, quantity int64) error {
	tag, err := r.tx.Exec(ctx, `UPDATE products SET quantity = $1, updated_at = NOW() WHERE id = $2`, quantity, productID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *txRepo) AppendEntry(ctx context.Context, entry Entry) (Entry, error) {
	row := r.tx.QueryRow(ctx, `
		INSERT INTO stock_ledger (product_id, change_type, delta, previous_quantity, new_quantity, order_ref, actor_id, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		entry.ProductID,
		string(entry.Type),
		entry.Delta,
		entry.PreviousQuantity,
		entry.NewQuantity,
		optionalText(entry.OrderRef),
		entry.ActorID,
		entry.Note,
	)
	var created pgtype.Timestamptz
	if err := row.Scan(&entry.ID, &created); err != nil {
		return Entry{}, err
	}
	entry.CreatedAt = created.Time
	return entry, nil
}

// ProductExists reports whether a product row exists, active or not.
func (r *Repository) ProductExists(ctx context.Context, productID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists)
	return exists, err
}

// ListEntries returns ledger entries for a product, newest first.
func (r *Repository) ListEntries(ctx context.Context, productID int64, filter HistoryFilter) ([]Entry, error) {
	query := `SELECT id, product_id, change_type, delta, previous_quantity, new_quantity, order_ref, actor_id, note, created_at
		FROM stock_ledger WHERE product_id = $1`
	args := []any{productID}
	argCount := 1

	if !filter.Since.IsZero() {
		argCount++
		query += ` AND created_at >= $` + strconv.Itoa(argCount)
		args = append(args, filter.Since)
	}
	if filter.Type != "" {
		argCount++
		query += ` AND change_type = $` + strconv.Itoa(argCount)
		args = append(args, string(filter.Type))
	}

	query += ` ORDER BY id DESC`

	if filter.PageSize > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filter.PageSize)

		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var changeType string
		var orderRef pgtype.Text
		var created pgtype.Timestamptz
		if err := rows.Scan(&e.ID, &e.ProductID, &changeType, &e.Delta, &e.PreviousQuantity, &e.NewQuantity, &orderRef, &e.ActorID, &e.Note, &created); err != nil {
			return nil, err
		}
		e.Type = ChangeType(changeType)
		e.OrderRef = orderRef.String
		e.CreatedAt = created.Time
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SumDeltas totals every ledger delta recorded for a product.
func (r *Repository) SumDeltas(ctx context.Context, productID int64) (int64, error) {
	var sum int64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(delta), 0) FROM stock_ledger WHERE product_id = $1`, productID).Scan(&sum)
	return sum, err
}

// IsRetryableTxError reports whether postgres asked us to retry the
// transaction: serialization failure (40001) or deadlock detected (40P01).
func IsRetryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

func optionalText(value string) pgtype.Text {
	if value == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: value, Valid: true}
}
