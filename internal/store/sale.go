package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/barklazza/projeto-vendas/types"
)

const saleColumns = `id, user_id, product_code, client_name, type, value, payment_method, payment_date, created_at, updated_at`

// SaleRepository handles persistence for sales.
type SaleRepository struct {
	db *sql.DB
}

func NewSaleRepository(db *sql.DB) *SaleRepository {
	return &SaleRepository{db: db}
}

func (r *SaleRepository) Create(ctx context.Context, sale types.Sale) (types.Sale, error) {
	if err := available(r.db); err != nil {
		return types.Sale{}, err
	}

	now := time.Now()
	sale.CreatedAt = now
	sale.UpdatedAt = now

	const query = `
		INSERT INTO sales (user_id, product_code, client_name, type, value, payment_method, payment_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		sale.UserID,
		sale.ProductCode,
		sale.ClientName,
		sale.Type,
		sale.Value,
		sale.PaymentMethod,
		sale.PaymentDate,
		sale.CreatedAt,
		sale.UpdatedAt,
	).Scan(&sale.ID); err != nil {
		return types.Sale{}, err
	}
	return sale, nil
}

// ListByOwner returns the owner's sales, newest payment date first.
func (r *SaleRepository) ListByOwner(ctx context.Context, ownerID int) ([]types.Sale, error) {
	const query = `
		SELECT ` + saleColumns + `
		FROM sales
		WHERE user_id = $1
		ORDER BY payment_date DESC, id DESC`
	return r.list(ctx, query, ownerID)
}

// ListAll returns every user's sales, newest payment date first.
func (r *SaleRepository) ListAll(ctx context.Context) ([]types.Sale, error) {
	const query = `
		SELECT ` + saleColumns + `
		FROM sales
		ORDER BY payment_date DESC, id DESC`
	return r.list(ctx, query)
}

// Update applies patch to the sale only when ownerID owns it.
func (r *SaleRepository) Update(ctx context.Context, id, ownerID int, patch types.SalePatch) error {
	return r.update(ctx, id, &ownerID, patch)
}

// UpdateAny applies patch regardless of owner.
func (r *SaleRepository) UpdateAny(ctx context.Context, id int, patch types.SalePatch) error {
	return r.update(ctx, id, nil, patch)
}

// Delete removes the sale only when ownerID owns it.
func (r *SaleRepository) Delete(ctx context.Context, id, ownerID int) error {
	if err := available(r.db); err != nil {
		return err
	}

	const query = `DELETE FROM sales WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// DeleteAny removes the sale regardless of owner.
func (r *SaleRepository) DeleteAny(ctx context.Context, id int) error {
	if err := available(r.db); err != nil {
		return err
	}

	const query = `DELETE FROM sales WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func (r *SaleRepository) list(ctx context.Context, query string, args ...any) ([]types.Sale, error) {
	if err := available(r.db); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]types.Sale, 0)
	for rows.Next() {
		var sale types.Sale
		if err := rows.Scan(
			&sale.ID,
			&sale.UserID,
			&sale.ProductCode,
			&sale.ClientName,
			&sale.Type,
			&sale.Value,
			&sale.PaymentMethod,
			&sale.PaymentDate,
			&sale.CreatedAt,
			&sale.UpdatedAt,
		); err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sales, nil
}

func (r *SaleRepository) update(ctx context.Context, id int, ownerID *int, patch types.SalePatch) error {
	if err := available(r.db); err != nil {
		return err
	}
	if patch.IsEmpty() {
		return ErrEmptyPatch
	}

	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.ProductCode != nil {
		set("product_code", *patch.ProductCode)
	}
	if patch.ClientName != nil {
		set("client_name", *patch.ClientName)
	}
	if patch.Type != nil {
		set("type", *patch.Type)
	}
	if patch.Value != nil {
		set("value", *patch.Value)
	}
	if patch.PaymentMethod != nil {
		set("payment_method", *patch.PaymentMethod)
	}
	if patch.PaymentDate != nil {
		set("payment_date", *patch.PaymentDate)
	}
	set("updated_at", time.Now())

	args = append(args, id)
	query := fmt.Sprintf("UPDATE sales SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	if ownerID != nil {
		args = append(args, *ownerID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return checkAffected(result)
}
