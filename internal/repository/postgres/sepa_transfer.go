package postgres

import (
	"context"

	"backoffice-ledger/internal/domain"
	"backoffice-ledger/internal/repository"
)

const sepaColumns = `id, account_id, account_owner, iban, amount_excl_vat, amount_vat, amount_total, communication,
	status, rejection_reason, attachment_key, created_by, created_at, updated_at`

type sepaTransferRepository struct {
	db DBTX
}

func NewSepaTransferRepository(db DBTX) repository.SepaTransferRepository {
	return &sepaTransferRepository{db: db}
}

func scanSepaTransfer(row rowScanner) (*domain.SepaTransfer, error) {
	var t domain.SepaTransfer
	err := row.Scan(&t.ID, &t.AccountID, &t.AccountOwner, &t.IBAN, &t.AmountExclVAT, &t.AmountVAT, &t.AmountTotal,
		&t.Communication, &t.Status, &t.RejectionReason, &t.AttachmentKey, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *sepaTransferRepository) Create(ctx context.Context, t *domain.SepaTransfer) error {
	query := `INSERT INTO sepa_transfers (account_id, account_owner, iban, amount_excl_vat, amount_vat, amount_total,
	          communication, status, created_by)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, t.AccountID, t.AccountOwner, t.IBAN, t.AmountExclVAT, t.AmountVAT, t.AmountTotal,
		t.Communication, t.Status, t.CreatedBy).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	return mapError(err, domain.ErrAccountNotFound)
}

func (r *sepaTransferRepository) GetByID(ctx context.Context, id int64) (*domain.SepaTransfer, error) {
	t, err := scanSepaTransfer(r.db.QueryRowContext(ctx, `SELECT `+sepaColumns+` FROM sepa_transfers WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err, domain.ErrSepaTransferNotFound)
	}
	return t, nil
}

func (r *sepaTransferRepository) GetForUpdate(ctx context.Context, id int64) (*domain.SepaTransfer, error) {
	t, err := scanSepaTransfer(r.db.QueryRowContext(ctx, `SELECT `+sepaColumns+` FROM sepa_transfers WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, mapError(err, domain.ErrSepaTransferNotFound)
	}
	return t, nil
}

func (r *sepaTransferRepository) Update(ctx context.Context, t *domain.SepaTransfer) error {
	query := `UPDATE sepa_transfers SET status = $2, rejection_reason = $3, attachment_key = $4, updated_at = now() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, t.ID, t.Status, t.RejectionReason, t.AttachmentKey)
	if err != nil {
		return mapError(err, domain.ErrSepaTransferNotFound)
	}
	return expectOneRow(res, domain.ErrSepaTransferNotFound)
}

func (r *sepaTransferRepository) ListByStatus(ctx context.Context, status domain.SepaStatus) ([]domain.SepaTransfer, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+sepaColumns+` FROM sepa_transfers WHERE status = $1 ORDER BY id`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transfers []domain.SepaTransfer
	for rows.Next() {
		t, err := scanSepaTransfer(rows)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, *t)
	}
	return transfers, rows.Err()
}
