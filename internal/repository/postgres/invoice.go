package postgres

import (
	"context"
	"time"

	"github.com/lib/pq"

	"backoffice-ledger/internal/domain"
	"backoffice-ledger/internal/repository"
)

const invoiceColumns = `id, account_id, client_id, quote_id, invoice_number, invoice_date, service_date, payment_deadline,
	price_excl_vat, vat_at_6, vat_at_21, total, status, reminder_level, type, linked_invoice_id, is_vat_included,
	created_at, updated_at`

// unique constraints with a dedicated domain error
const (
	constraintInvoiceQuote  = "invoices_quote_id_key"
	constraintInvoiceLinked = "invoices_linked_invoice_id_key"
	constraintInvoiceNumber = "invoices_account_id_invoice_number_key"
)

type invoiceRepository struct {
	db DBTX
}

func NewInvoiceRepository(db DBTX) repository.InvoiceRepository {
	return &invoiceRepository{db: db}
}

func scanInvoice(row rowScanner) (*domain.Invoice, error) {
	var i domain.Invoice
	err := row.Scan(&i.ID, &i.AccountID, &i.ClientID, &i.QuoteID, &i.InvoiceNumber, &i.InvoiceDate, &i.ServiceDate,
		&i.PaymentDeadline, &i.PriceExclVAT, &i.VATAt6, &i.VATAt21, &i.Total, &i.Status, &i.ReminderLevel, &i.Type,
		&i.LinkedInvoiceID, &i.IsVATIncluded, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func mapInvoiceError(err error, i *domain.Invoice) error {
	switch constraintOf(err) {
	case constraintInvoiceQuote:
		return domain.Errorf(domain.ErrInvoiceAlreadyExists, "quote has already been invoiced")
	case constraintInvoiceLinked:
		return domain.Errorf(domain.ErrInvoiceAlreadyCredited, "invoice %d already has a credit note", i.ID)
	case constraintInvoiceNumber:
		return domain.Errorf(domain.ErrConflict, "invoice number %d already issued on account %d", i.InvoiceNumber, i.AccountID)
	}
	return mapError(err, domain.ErrInvoiceNotFound)
}

func (r *invoiceRepository) Create(ctx context.Context, i *domain.Invoice) error {
	query := `INSERT INTO invoices (account_id, client_id, quote_id, invoice_number, invoice_date, service_date, payment_deadline,
	          price_excl_vat, vat_at_6, vat_at_21, total, status, reminder_level, type, linked_invoice_id, is_vat_included)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16) RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, i.AccountID, i.ClientID, i.QuoteID, i.InvoiceNumber, i.InvoiceDate, i.ServiceDate,
		i.PaymentDeadline, i.PriceExclVAT, i.VATAt6, i.VATAt21, i.Total, i.Status, i.ReminderLevel, i.Type,
		i.LinkedInvoiceID, i.IsVATIncluded).Scan(&i.ID, &i.CreatedAt, &i.UpdatedAt)
	return mapInvoiceError(err, i)
}

func (r *invoiceRepository) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	i, err := scanInvoice(r.db.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err, domain.ErrInvoiceNotFound)
	}
	return i, nil
}

func (r *invoiceRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Invoice, error) {
	i, err := scanInvoice(r.db.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, mapError(err, domain.ErrInvoiceNotFound)
	}
	return i, nil
}

func (r *invoiceRepository) GetByLinkedInvoiceID(ctx context.Context, creditNoteID int64) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE linked_invoice_id = $1 FOR UPDATE`
	i, err := scanInvoice(r.db.QueryRowContext(ctx, query, creditNoteID))
	if err != nil {
		return nil, mapError(err, domain.ErrInvoiceNotFound)
	}
	return i, nil
}

func (r *invoiceRepository) Update(ctx context.Context, i *domain.Invoice) error {
	query := `UPDATE invoices SET status = $2, reminder_level = $3, linked_invoice_id = $4, updated_at = now() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, i.ID, i.Status, i.ReminderLevel, i.LinkedInvoiceID)
	if err != nil {
		return mapInvoiceError(err, i)
	}
	return expectOneRow(res, domain.ErrInvoiceNotFound)
}

func (r *invoiceRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return mapError(err, domain.ErrInvoiceNotFound)
	}
	return expectOneRow(res, domain.ErrInvoiceNotFound)
}

func (r *invoiceRepository) ListOverdue(ctx context.Context, now time.Time) ([]domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices
	          WHERE type = $1 AND status = ANY($2) AND payment_deadline < $3
	          ORDER BY payment_deadline, id`
	rows, err := r.db.QueryContext(ctx, query, domain.InvoiceTypeInvoice, pq.Array(stringsOf(domain.UnpaidInvoiceStatuses)), now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []domain.Invoice
	for rows.Next() {
		i, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *i)
	}
	return invoices, rows.Err()
}

func (r *invoiceRepository) ClaimReminder(ctx context.Context, id int64, level int, status domain.InvoiceStatus) (bool, error) {
	query := `UPDATE invoices SET reminder_level = $2, status = $3, updated_at = now()
	          WHERE id = $1 AND reminder_level < $2 AND status = ANY($4)`
	res, err := r.db.ExecContext(ctx, query, id, level, status, pq.Array(stringsOf(domain.UnpaidInvoiceStatuses)))
	if err != nil {
		return false, mapError(err, domain.ErrInvoiceNotFound)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *invoiceRepository) ReleaseReminder(ctx context.Context, id int64, claimedLevel, previousLevel int, previousStatus domain.InvoiceStatus) error {
	query := `UPDATE invoices SET reminder_level = $3, status = $4, updated_at = now()
	          WHERE id = $1 AND reminder_level = $2 AND status = ANY($5)`
	_, err := r.db.ExecContext(ctx, query, id, claimedLevel, previousLevel, previousStatus, pq.Array(stringsOf(domain.UnpaidInvoiceStatuses)))
	return mapError(err, domain.ErrInvoiceNotFound)
}
