package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"backoffice-ledger/internal/domain"
)

// AccountReader is the read side of the ledger account store
type AccountReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	GetByName(ctx context.Context, name string) (*domain.Account, error)
	List(ctx context.Context) ([]domain.Account, error)
}

// NumberAllocator hands out per-account document numbers. Each call returns the
// current counter and increments it in one statement, so concurrent callers never share a number.
type NumberAllocator interface {
	AllocateInvoiceNumber(ctx context.Context, accountID int64) (int64, error)
	AllocateQuoteNumber(ctx context.Context, accountID int64) (int64, error)
}

// AccountWriter mutates balances and counters. Debit fails closed with ErrInsufficientFunds.
type AccountWriter interface {
	Create(ctx context.Context, account *domain.Account) error
	Debit(ctx context.Context, accountID int64, amount decimal.Decimal) (decimal.Decimal, error)
	Credit(ctx context.Context, accountID int64, amount decimal.Decimal) (decimal.Decimal, error)
	NumberAllocator
}

type AccountRepository interface {
	AccountReader
	AccountWriter
}

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	// GetMemberRole returns ErrNotFound when the user is not a member of the account
	GetMemberRole(ctx context.Context, userID, accountID int64) (domain.MemberRole, error)
	AddMember(ctx context.Context, member *domain.AccountMember) error
}

type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) error
	GetByID(ctx context.Context, id int64) (*domain.Client, error)
}

type LineItemRepository interface {
	Create(ctx context.Context, item *domain.LineItem) error
	GetByID(ctx context.Context, id int64) (*domain.LineItem, error)
	// GetByIDsForUpdate locks the rows until the surrounding transaction ends
	GetByIDsForUpdate(ctx context.Context, ids []int64) ([]domain.LineItem, error)
	Update(ctx context.Context, item *domain.LineItem) error
	// AttachToQuote claims unattached items for a quote; ErrLineItemAttached if any was taken
	AttachToQuote(ctx context.Context, ids []int64, quoteID int64) error
	ListByQuote(ctx context.Context, quoteID int64) ([]domain.LineItem, error)
	ListByInvoice(ctx context.Context, invoiceID int64) ([]domain.LineItem, error)
}

type QuoteRepository interface {
	Create(ctx context.Context, quote *domain.Quote) error
	GetByID(ctx context.Context, id int64) (*domain.Quote, error)
	// GetForUpdate locks the row until the surrounding transaction ends
	GetForUpdate(ctx context.Context, id int64) (*domain.Quote, error)
	Update(ctx context.Context, quote *domain.Quote) error
	ListAcceptedWithServiceBefore(ctx context.Context, cutoff time.Time) ([]domain.Quote, error)
}

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *domain.Invoice) error
	GetByID(ctx context.Context, id int64) (*domain.Invoice, error)
	GetForUpdate(ctx context.Context, id int64) (*domain.Invoice, error)
	// GetByLinkedInvoiceID finds the invoice a credit note reverses
	GetByLinkedInvoiceID(ctx context.Context, creditNoteID int64) (*domain.Invoice, error)
	Update(ctx context.Context, invoice *domain.Invoice) error
	Delete(ctx context.Context, id int64) error
	ListOverdue(ctx context.Context, now time.Time) ([]domain.Invoice, error)
	// ClaimReminder raises the reminder level only if it is still below level; false means another run got there first
	ClaimReminder(ctx context.Context, id int64, level int, status domain.InvoiceStatus) (bool, error)
	// ReleaseReminder undoes a claim whose notification could not be sent
	ReleaseReminder(ctx context.Context, id int64, claimedLevel, previousLevel int, previousStatus domain.InvoiceStatus) error
}

type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	GetByID(ctx context.Context, id int64) (*domain.Transaction, error)
}

type SepaTransferRepository interface {
	Create(ctx context.Context, transfer *domain.SepaTransfer) error
	GetByID(ctx context.Context, id int64) (*domain.SepaTransfer, error)
	GetForUpdate(ctx context.Context, id int64) (*domain.SepaTransfer, error)
	Update(ctx context.Context, transfer *domain.SepaTransfer) error
	ListByStatus(ctx context.Context, status domain.SepaStatus) ([]domain.SepaTransfer, error)
}

// Tx exposes repositories bound to one database transaction, or to the pool outside of one
type Tx interface {
	Accounts() AccountRepository
	Users() UserRepository
	Clients() ClientRepository
	LineItems() LineItemRepository
	Quotes() QuoteRepository
	Invoices() InvoiceRepository
	Transactions() TransactionRepository
	SepaTransfers() SepaTransferRepository
}

// UnitOfWork runs fn in one transaction: committed when fn returns nil, rolled back otherwise
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Store is the pool-bound repository set plus the unit of work
type Store interface {
	Tx
	UnitOfWork
}
