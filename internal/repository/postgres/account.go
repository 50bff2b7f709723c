package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"backoffice-ledger/internal/domain"
	"backoffice-ledger/internal/logger"
	"backoffice-ledger/internal/repository"
)

const accountColumns = `id, kind, name, email, balance, next_invoice_number, next_quote_number, created_at, updated_at`

type accountRepository struct {
	db DBTX
}

func NewAccountRepository(db DBTX) repository.AccountRepository {
	return &accountRepository{db: db}
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(&a.ID, &a.Kind, &a.Name, &a.Email, &a.Balance, &a.NextInvoiceNumber, &a.NextQuoteNumber, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *accountRepository) Create(ctx context.Context, a *domain.Account) error {
	query := `INSERT INTO accounts (kind, name, email, balance, next_invoice_number, next_quote_number)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, a.Kind, a.Name, a.Email, a.Balance, a.NextInvoiceNumber, a.NextQuoteNumber).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if constraintOf(err) != "" {
		return domain.Errorf(domain.ErrDuplicateAccountName, "account name %q already in use", a.Name)
	}
	return mapError(err, domain.ErrAccountNotFound)
}

func (r *accountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	a, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, domain.ErrAccountNotFound)
	}
	return a, nil
}

func (r *accountRepository) GetByName(ctx context.Context, name string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE name = $1`
	a, err := scanAccount(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		return nil, mapError(err, domain.ErrAccountNotFound)
	}
	return a, nil
}

func (r *accountRepository) List(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

// Debit subtracts amount only if the balance covers it. The UPDATE's row lock
// serializes concurrent writers of the same account.
func (r *accountRepository) Debit(ctx context.Context, accountID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	var balance decimal.Decimal
	query := `UPDATE accounts SET balance = balance - $2, updated_at = now()
	          WHERE id = $1 AND balance >= $2 RETURNING balance`
	logger.DatabaseCall("accounts.Debit", query, "accountID", accountID, "amount", amount)
	err := r.db.QueryRowContext(ctx, query, accountID, amount).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, mapError(err, domain.ErrAccountNotFound)
	}

	// distinguish a missing account from a short balance
	var current decimal.Decimal
	err = r.db.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&current)
	if err != nil {
		return decimal.Zero, mapError(err, domain.ErrAccountNotFound)
	}
	return decimal.Zero, domain.Errorf(domain.ErrInsufficientFunds,
		"insufficient balance on account %d: %s available, %s requested", accountID, current.StringFixed(2), amount.StringFixed(2))
}

func (r *accountRepository) Credit(ctx context.Context, accountID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	var balance decimal.Decimal
	query := `UPDATE accounts SET balance = balance + $2, updated_at = now() WHERE id = $1 RETURNING balance`
	logger.DatabaseCall("accounts.Credit", query, "accountID", accountID, "amount", amount)
	if err := r.db.QueryRowContext(ctx, query, accountID, amount).Scan(&balance); err != nil {
		return decimal.Zero, mapError(err, domain.ErrAccountNotFound)
	}
	return balance, nil
}

func (r *accountRepository) AllocateInvoiceNumber(ctx context.Context, accountID int64) (int64, error) {
	query := `UPDATE accounts SET next_invoice_number = next_invoice_number + 1, updated_at = now()
	          WHERE id = $1 RETURNING next_invoice_number - 1`
	return r.allocate(ctx, query, accountID)
}

func (r *accountRepository) AllocateQuoteNumber(ctx context.Context, accountID int64) (int64, error) {
	query := `UPDATE accounts SET next_quote_number = next_quote_number + 1, updated_at = now()
	          WHERE id = $1 RETURNING next_quote_number - 1`
	return r.allocate(ctx, query, accountID)
}

func (r *accountRepository) allocate(ctx context.Context, query string, accountID int64) (int64, error) {
	var number int64
	if err := r.db.QueryRowContext(ctx, query, accountID).Scan(&number); err != nil {
		return 0, mapError(err, domain.ErrAccountNotFound)
	}
	return number, nil
}
