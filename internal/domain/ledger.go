package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction records one internal money movement: amount to each recipient,
// debited from the optional sender once per recipient. Immutable after creation.
type Transaction struct {
	ID                  int64           `json:"id"`
	Amount              decimal.Decimal `json:"amount"`
	Communication       string          `json:"communication"`
	SenderAccountID     *int64          `json:"sender_account_id,omitempty"`
	RecipientAccountIDs []int64         `json:"recipient_account_ids"`
	CreatedAt           time.Time       `json:"created_at"`
}

// SenderDebit is the amount taken from the sender: amount × recipients
func (t *Transaction) SenderDebit() decimal.Decimal {
	return t.Amount.Mul(decimal.NewFromInt(int64(len(t.RecipientAccountIDs))))
}
