package products

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockroom-app/stockroom/internal/ledger"
	"github.com/stockroom-app/stockroom/internal/platform/db"
	"github.com/stockroom-app/stockroom/internal/shared"
)

// ListFilters narrows product listings.
type ListFilters struct {
	Search   string
	Category string
	IsActive *bool
	LowStock bool
	Page     int
	PerPage  int
}

// Repository defines persistence operations for products.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Product, int, error)
	ListActive(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, product Product, actorID int64) (Product, error)
	Update(ctx context.Context, id int64, product Product) error
	Deactivate(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const productColumns = `id, sku, name, description, category, cost_price, selling_price, quantity, min_threshold, unit, supplier, is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.Category, &p.CostPrice, &p.SellingPrice,
		&p.Quantity, &p.MinThreshold, &p.Unit, &p.Supplier, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Product, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		ph := strconv.Itoa(argCount)
		where += ` AND (name ILIKE $` + ph + ` OR sku ILIKE $` + ph + `)`
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.Category != "" {
		argCount++
		where += ` AND category = $` + strconv.Itoa(argCount)
		args = append(args, filters.Category)
	}
	if filters.IsActive != nil {
		argCount++
		where += ` AND is_active = $` + strconv.Itoa(argCount)
		args = append(args, *filters.IsActive)
	}
	if filters.LowStock {
		where += ` AND quantity < min_threshold`
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + productColumns + ` FROM products` + where + ` ORDER BY name ASC`
	if filters.PerPage > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.PerPage)

		offset := (filters.Page - 1) * filters.PerPage
		if offset < 0 {
			offset = 0
		}
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *repository) ListActive(ctx context.Context) ([]Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products WHERE is_active ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, shared.ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

// Create inserts the product and, when it starts with stock on hand, the
// opening ledger entry in the same transaction so the ledger replays to the
// current quantity from the very first row.
func (r *repository) Create(ctx context.Context, product Product, actorID int64) (Product, error) {
	now := time.Now().UTC()
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO products (sku, name, description, category, cost_price, selling_price, quantity, min_threshold, unit, supplier, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
			RETURNING id`,
			product.SKU, product.Name, product.Description, product.Category,
			product.CostPrice, product.SellingPrice, product.Quantity, product.MinThreshold,
			product.Unit, product.Supplier, product.IsActive, now,
		).Scan(&product.ID)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return shared.ErrDuplicateSKU
			}
			return err
		}

		if product.Quantity != 0 {
			_, err = tx.Exec(ctx, `
				INSERT INTO stock_ledger (product_id, change_type, delta, previous_quantity, new_quantity, actor_id, note)
				VALUES ($1, $2, $3, 0, $3, $4, 'opening balance')`,
				product.ID, string(ledger.ChangeCorrection), product.Quantity, actorID)
		}
		return err
	})
	if err != nil {
		return Product{}, err
	}
	product.CreatedAt = now
	product.UpdatedAt = now
	return product, nil
}

// Update writes the mutable attributes. SKU, quantity and is_active are
// deliberately not part of the statement: SKU is immutable, quantity belongs
// to the ledger, and the active flag is only toggled through Deactivate so an
// attribute edit cannot resurrect a soft-deleted product.
func (r *repository) Update(ctx context.Context, id int64, product Product) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE products
		SET name = $1, description = $2, category = $3, cost_price = $4, selling_price = $5,
		    min_threshold = $6, unit = $7, supplier = $8, updated_at = NOW()
		WHERE id = $9`,
		product.Name, product.Description, product.Category, product.CostPrice, product.SellingPrice,
		product.MinThreshold, product.Unit, product.Supplier, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Deactivate soft-deletes a product. Rows are never removed so ledger
// entries keep a valid product reference.
func (r *repository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE products SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
