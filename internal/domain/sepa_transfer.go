package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type SepaStatus string

const (
	SepaStatusPending  SepaStatus = "PENDING"
	SepaStatusAccepted SepaStatus = "ACCEPTED"
	SepaStatusRejected SepaStatus = "REJECTED"
	SepaStatusPaid     SepaStatus = "PAID"
)

var sepaTransitions = map[SepaStatus][]SepaStatus{
	SepaStatusPending:  {SepaStatusAccepted, SepaStatusRejected},
	SepaStatusAccepted: {SepaStatusPaid},
}

// CanTransitionTo reports whether next is reachable from s in one step
func (s SepaStatus) CanTransitionTo(next SepaStatus) bool {
	for _, allowed := range sepaTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SepaTransfer is an outgoing bank payment. AmountExclVAT is reserved on the account at creation.
type SepaTransfer struct {
	ID              int64           `json:"id"`
	AccountID       int64           `json:"account_id"`
	AccountOwner    string          `json:"account_owner"`
	IBAN            string          `json:"iban"`
	AmountExclVAT   decimal.Decimal `json:"amount_excl_vat"`
	AmountVAT       decimal.Decimal `json:"amount_vat"`
	AmountTotal     decimal.Decimal `json:"amount_total"`
	Communication   string          `json:"communication"`
	Status          SepaStatus      `json:"status"`
	RejectionReason *string         `json:"rejection_reason,omitempty"`
	AttachmentKey   string          `json:"attachment_key,omitempty"`
	CreatedBy       int64           `json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// NewSepaTransfer validates the request and returns a PENDING transfer
func NewSepaTransfer(accountID int64, owner, iban string, amountExclVAT, amountVAT decimal.Decimal, communication string, createdBy int64) (*SepaTransfer, error) {
	if owner == "" {
		return nil, Errorf(ErrValidation, "account owner is required")
	}
	normalized, err := ValidateIBAN(iban)
	if err != nil {
		return nil, err
	}
	if !amountExclVAT.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if amountVAT.IsNegative() {
		return nil, Errorf(ErrValidation, "vat amount cannot be negative")
	}
	net := RoundMoney(amountExclVAT)
	vat := RoundMoney(amountVAT)
	return &SepaTransfer{
		AccountID:     accountID,
		AccountOwner:  owner,
		IBAN:          normalized,
		AmountExclVAT: net,
		AmountVAT:     vat,
		AmountTotal:   net.Add(vat),
		Communication: communication,
		Status:        SepaStatusPending,
		CreatedBy:     createdBy,
	}, nil
}

// Transition moves the transfer to next. Rejecting requires a reason.
// It reports whether the reserved amount must be refunded.
func (t *SepaTransfer) Transition(next SepaStatus, reason string) (refund bool, err error) {
	if !t.Status.CanTransitionTo(next) {
		return false, Errorf(ErrInvalidTransition, "sepa transfer %d cannot go from %s to %s", t.ID, t.Status, next)
	}
	if next == SepaStatusRejected {
		if reason == "" {
			return false, Errorf(ErrValidation, "rejection reason is required")
		}
		t.RejectionReason = &reason
		refund = true
	}
	t.Status = next
	return refund, nil
}
