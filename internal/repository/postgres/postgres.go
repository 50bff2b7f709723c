package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"backoffice-ledger/internal/logger"
	"backoffice-ledger/internal/repository"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// repos binds every repository to one handle
type repos struct {
	db DBTX
}

func (r repos) Accounts() repository.AccountRepository {
	return NewAccountRepository(r.db)
}

func (r repos) Users() repository.UserRepository {
	return NewUserRepository(r.db)
}

func (r repos) Clients() repository.ClientRepository {
	return NewClientRepository(r.db)
}

func (r repos) LineItems() repository.LineItemRepository {
	return NewLineItemRepository(r.db)
}

func (r repos) Quotes() repository.QuoteRepository {
	return NewQuoteRepository(r.db)
}

func (r repos) Invoices() repository.InvoiceRepository {
	return NewInvoiceRepository(r.db)
}

func (r repos) Transactions() repository.TransactionRepository {
	return NewTransactionRepository(r.db)
}

func (r repos) SepaTransfers() repository.SepaTransferRepository {
	return NewSepaTransferRepository(r.db)
}

type Store struct {
	db *sql.DB
	repos
}

var _ repository.Store = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:    db,
		repos: repos{db: db},
	}
}

// DB returns the underlying pool
func (s *Store) DB() *sql.DB {
	return s.db
}

// Do runs fn inside a database transaction. fn's repositories share the transaction;
// row locks taken through them are held until commit or rollback.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, repos{db: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			logger.Error("Failed to roll back transaction", "error", rbErr, "cause", err)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
