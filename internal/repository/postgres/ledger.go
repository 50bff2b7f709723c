package postgres

import (
	"context"

	"github.com/lib/pq"

	"backoffice-ledger/internal/domain"
	"backoffice-ledger/internal/repository"
)

type transactionRepository struct {
	db DBTX
}

func NewTransactionRepository(db DBTX) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	query := `INSERT INTO transactions (amount, communication, sender_account_id) VALUES ($1, $2, $3) RETURNING id, created_at`
	if err := r.db.QueryRowContext(ctx, query, tx.Amount, tx.Communication, tx.SenderAccountID).Scan(&tx.ID, &tx.CreatedAt); err != nil {
		return mapError(err, domain.ErrAccountNotFound)
	}
	if len(tx.RecipientAccountIDs) == 0 {
		return nil
	}

	recipients := `INSERT INTO transaction_recipients (transaction_id, account_id, seq)
	               SELECT $1, r.account_id, r.seq FROM unnest($2::bigint[]) WITH ORDINALITY AS r(account_id, seq)`
	_, err := r.db.ExecContext(ctx, recipients, tx.ID, pq.Array(tx.RecipientAccountIDs))
	return mapError(err, domain.ErrAccountNotFound)
}

func (r *transactionRepository) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	query := `SELECT t.id, t.amount, t.communication, t.sender_account_id, t.created_at,
	          ARRAY(SELECT account_id FROM transaction_recipients WHERE transaction_id = t.id ORDER BY seq)
	          FROM transactions t WHERE t.id = $1`
	var tx domain.Transaction
	var recipients pq.Int64Array
	err := r.db.QueryRowContext(ctx, query, id).Scan(&tx.ID, &tx.Amount, &tx.Communication, &tx.SenderAccountID, &tx.CreatedAt, &recipients)
	if err != nil {
		return nil, mapError(err, domain.NewError(domain.KindNotFound, "TRANSACTION_NOT_FOUND", "transaction not found"))
	}
	tx.RecipientAccountIDs = []int64(recipients)
	return &tx, nil
}
