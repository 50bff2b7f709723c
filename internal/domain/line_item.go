package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is a priced row owned by at most one quote or one invoice.
// PriceExclVAT, VATAmount and LineTotal are derived; call Recompute after changing inputs.
type LineItem struct {
	ID           int64           `json:"id"`
	AccountID    int64           `json:"account_id"`
	Description  string          `json:"description"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     decimal.Decimal `json:"quantity"`
	VATRate      decimal.Decimal `json:"vat_rate"`
	PriceExclVAT decimal.Decimal `json:"price_excl_vat"`
	VATAmount    decimal.Decimal `json:"vat_amount"`
	LineTotal    decimal.Decimal `json:"line_total"`
	QuoteID      *int64          `json:"quote_id,omitempty"`
	InvoiceID    *int64          `json:"invoice_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewLineItem validates the inputs and derives the amounts from a VAT-exclusive unit price
func NewLineItem(accountID int64, description string, unitPrice, quantity, vatRate decimal.Decimal) (*LineItem, error) {
	li := &LineItem{
		AccountID:   accountID,
		Description: description,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
		VATRate:     vatRate,
	}
	if err := li.Validate(); err != nil {
		return nil, err
	}
	li.Recompute(false)
	return li, nil
}

func (li *LineItem) Validate() error {
	if li.Description == "" {
		return Errorf(ErrValidation, "line item description is required")
	}
	if li.UnitPrice.IsNegative() {
		return Errorf(ErrValidation, "unit price cannot be negative")
	}
	if !li.Quantity.IsPositive() {
		return Errorf(ErrValidation, "quantity must be positive")
	}
	if !IsValidVATRate(li.VATRate) {
		return ErrInvalidVATRate
	}
	return nil
}

// IsAttached reports whether the item already belongs to a quote or an invoice
func (li *LineItem) IsAttached() bool {
	return li.QuoteID != nil || li.InvoiceID != nil
}

// Recompute derives the net, VAT and gross amounts.
// With vatIncluded, unit price × quantity is treated as gross and the net is backed out of it.
func (li *LineItem) Recompute(vatIncluded bool) {
	li.PriceExclVAT, li.VATAmount, li.LineTotal = ComputeAmounts(li.UnitPrice.Mul(li.Quantity), li.VATRate, vatIncluded)
}

// Negate flips the sign of the derived amounts; credit note lines are stored negative
func (li *LineItem) Negate() {
	li.PriceExclVAT = li.PriceExclVAT.Neg()
	li.VATAmount = li.VATAmount.Neg()
	li.LineTotal = li.LineTotal.Neg()
}

// CopyForInvoice returns an unsaved copy of the item owned by no quote
func (li *LineItem) CopyForInvoice() LineItem {
	cp := *li
	cp.ID = 0
	cp.QuoteID = nil
	cp.InvoiceID = nil
	return cp
}

// ComputeAmounts returns net, vat and gross for amount at rate, each rounded to cents
func ComputeAmounts(amount, rate decimal.Decimal, vatIncluded bool) (net, vat, gross decimal.Decimal) {
	if vatIncluded {
		gross = RoundMoney(amount)
		net = RoundMoney(gross.Div(decimal.NewFromInt(1).Add(rate)))
		vat = gross.Sub(net)
		return net, vat, gross
	}
	net = RoundMoney(amount)
	vat = RoundMoney(net.Mul(rate))
	gross = net.Add(vat)
	return net, vat, gross
}
