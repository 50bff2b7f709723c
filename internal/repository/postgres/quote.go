package postgres

import (
	"context"
	"time"

	"backoffice-ledger/internal/domain"
	"backoffice-ledger/internal/repository"
)

const quoteColumns = `id, account_id, client_id, quote_number, quote_date, service_date, payment_deadline_days,
	validation_deadline, price_excl_vat, vat_at_6, vat_at_21, total, status, group_acceptance,
	order_giver_acceptance, invoice_id, created_at, updated_at`

type quoteRepository struct {
	db DBTX
}

func NewQuoteRepository(db DBTX) repository.QuoteRepository {
	return &quoteRepository{db: db}
}

func scanQuote(row rowScanner) (*domain.Quote, error) {
	var q domain.Quote
	err := row.Scan(&q.ID, &q.AccountID, &q.ClientID, &q.QuoteNumber, &q.QuoteDate, &q.ServiceDate, &q.PaymentDeadlineDays,
		&q.ValidationDeadline, &q.PriceExclVAT, &q.VATAt6, &q.VATAt21, &q.Total, &q.Status, &q.GroupAcceptance,
		&q.OrderGiverAcceptance, &q.InvoiceID, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *quoteRepository) Create(ctx context.Context, q *domain.Quote) error {
	query := `INSERT INTO quotes (account_id, client_id, quote_number, quote_date, service_date, payment_deadline_days,
	          validation_deadline, price_excl_vat, vat_at_6, vat_at_21, total, status, group_acceptance, order_giver_acceptance)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14) RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, q.AccountID, q.ClientID, q.QuoteNumber, q.QuoteDate, q.ServiceDate,
		q.PaymentDeadlineDays, q.ValidationDeadline, q.PriceExclVAT, q.VATAt6, q.VATAt21, q.Total, q.Status,
		q.GroupAcceptance, q.OrderGiverAcceptance).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
	return mapError(err, domain.ErrQuoteNotFound)
}

func (r *quoteRepository) GetByID(ctx context.Context, id int64) (*domain.Quote, error) {
	q, err := scanQuote(r.db.QueryRowContext(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err, domain.ErrQuoteNotFound)
	}
	return q, nil
}

func (r *quoteRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Quote, error) {
	q, err := scanQuote(r.db.QueryRowContext(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, mapError(err, domain.ErrQuoteNotFound)
	}
	return q, nil
}

func (r *quoteRepository) Update(ctx context.Context, q *domain.Quote) error {
	query := `UPDATE quotes SET status = $2, group_acceptance = $3, order_giver_acceptance = $4, invoice_id = $5, updated_at = now()
	          WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, q.ID, q.Status, q.GroupAcceptance, q.OrderGiverAcceptance, q.InvoiceID)
	if err != nil {
		return mapError(err, domain.ErrQuoteNotFound)
	}
	return expectOneRow(res, domain.ErrQuoteNotFound)
}

func (r *quoteRepository) ListAcceptedWithServiceBefore(ctx context.Context, cutoff time.Time) ([]domain.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes
	          WHERE status = $1 AND invoice_id IS NULL AND service_date <= $2
	          ORDER BY service_date, id`
	rows, err := r.db.QueryContext(ctx, query, domain.QuoteStatusAccepted, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quotes []domain.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, *q)
	}
	return quotes, rows.Err()
}
