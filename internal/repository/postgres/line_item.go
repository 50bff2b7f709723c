package postgres

import (
	"context"

	"github.com/lib/pq"

	"backoffice-ledger/internal/domain"
	"backoffice-ledger/internal/repository"
)

const lineItemColumns = `id, account_id, description, unit_price, quantity, vat_rate, price_excl_vat, vat_amount, line_total,
	quote_id, invoice_id, created_at, updated_at`

type lineItemRepository struct {
	db DBTX
}

func NewLineItemRepository(db DBTX) repository.LineItemRepository {
	return &lineItemRepository{db: db}
}

func scanLineItem(row rowScanner) (*domain.LineItem, error) {
	var li domain.LineItem
	err := row.Scan(&li.ID, &li.AccountID, &li.Description, &li.UnitPrice, &li.Quantity, &li.VATRate,
		&li.PriceExclVAT, &li.VATAmount, &li.LineTotal, &li.QuoteID, &li.InvoiceID, &li.CreatedAt, &li.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &li, nil
}

func (r *lineItemRepository) Create(ctx context.Context, li *domain.LineItem) error {
	query := `INSERT INTO line_items (account_id, description, unit_price, quantity, vat_rate, price_excl_vat, vat_amount, line_total, quote_id, invoice_id)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, li.AccountID, li.Description, li.UnitPrice, li.Quantity, li.VATRate,
		li.PriceExclVAT, li.VATAmount, li.LineTotal, li.QuoteID, li.InvoiceID).Scan(&li.ID, &li.CreatedAt, &li.UpdatedAt)
	return mapError(err, domain.ErrLineItemNotFound)
}

func (r *lineItemRepository) GetByID(ctx context.Context, id int64) (*domain.LineItem, error) {
	li, err := scanLineItem(r.db.QueryRowContext(ctx, `SELECT `+lineItemColumns+` FROM line_items WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err, domain.ErrLineItemNotFound)
	}
	return li, nil
}

func (r *lineItemRepository) GetByIDsForUpdate(ctx context.Context, ids []int64) ([]domain.LineItem, error) {
	return r.list(ctx, `SELECT `+lineItemColumns+` FROM line_items WHERE id = ANY($1) ORDER BY id FOR UPDATE`, pq.Array(ids))
}

func (r *lineItemRepository) ListByQuote(ctx context.Context, quoteID int64) ([]domain.LineItem, error) {
	return r.list(ctx, `SELECT `+lineItemColumns+` FROM line_items WHERE quote_id = $1 ORDER BY id`, quoteID)
}

func (r *lineItemRepository) ListByInvoice(ctx context.Context, invoiceID int64) ([]domain.LineItem, error) {
	return r.list(ctx, `SELECT `+lineItemColumns+` FROM line_items WHERE invoice_id = $1 ORDER BY id`, invoiceID)
}

func (r *lineItemRepository) list(ctx context.Context, query string, args ...any) ([]domain.LineItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.LineItem
	for rows.Next() {
		li, err := scanLineItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *li)
	}
	return items, rows.Err()
}

func (r *lineItemRepository) Update(ctx context.Context, li *domain.LineItem) error {
	query := `UPDATE line_items SET description = $2, unit_price = $3, quantity = $4, vat_rate = $5,
	          price_excl_vat = $6, vat_amount = $7, line_total = $8, quote_id = $9, invoice_id = $10, updated_at = now()
	          WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, li.ID, li.Description, li.UnitPrice, li.Quantity, li.VATRate,
		li.PriceExclVAT, li.VATAmount, li.LineTotal, li.QuoteID, li.InvoiceID)
	if err != nil {
		return mapError(err, domain.ErrLineItemNotFound)
	}
	return expectOneRow(res, domain.ErrLineItemNotFound)
}

// AttachToQuote only touches rows that are still free, so two quotes racing for
// the same item cannot both win.
func (r *lineItemRepository) AttachToQuote(ctx context.Context, ids []int64, quoteID int64) error {
	query := `UPDATE line_items SET quote_id = $2, updated_at = now()
	          WHERE id = ANY($1) AND quote_id IS NULL AND invoice_id IS NULL`
	res, err := r.db.ExecContext(ctx, query, pq.Array(ids), quoteID)
	if err != nil {
		return mapError(err, domain.ErrLineItemNotFound)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != int64(len(ids)) {
		return domain.Errorf(domain.ErrLineItemAttached, "%d of %d line items are already attached", int64(len(ids))-n, len(ids))
	}
	return nil
}
