package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountKind string

const (
	AccountKindPrincipal AccountKind = "PRINCIPAL"
	AccountKindGroup     AccountKind = "GROUP"
)

func (k AccountKind) IsValid() bool {
	return k == AccountKindPrincipal || k == AccountKindGroup
}

// Account is a balance-holding ledger account owned by a principal or a group.
// Balance is never negative once a debit has completed.
type Account struct {
	ID                int64           `json:"id"`
	Kind              AccountKind     `json:"kind"`
	Name              string          `json:"name"`
	Email             string          `json:"email"` // owner contact for notifications
	Balance           decimal.Decimal `json:"balance"`
	NextInvoiceNumber int64           `json:"next_invoice_number"`
	NextQuoteNumber   int64           `json:"next_quote_number"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// NewAccount validates and builds an account with fresh counters
func NewAccount(kind AccountKind, name, email string, openingBalance decimal.Decimal) (*Account, error) {
	if !kind.IsValid() {
		return nil, Errorf(ErrValidation, "invalid account kind: %s", kind)
	}
	if name == "" {
		return nil, Errorf(ErrValidation, "account name is required")
	}
	if openingBalance.IsNegative() {
		return nil, Errorf(ErrValidation, "opening balance cannot be negative")
	}
	return &Account{
		Kind:              kind,
		Name:              name,
		Email:             email,
		Balance:           RoundMoney(openingBalance),
		NextInvoiceNumber: 1,
		NextQuoteNumber:   1,
	}, nil
}
