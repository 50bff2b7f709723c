package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceType string

const (
	InvoiceTypeInvoice    InvoiceType = "invoice"
	InvoiceTypeCreditNote InvoiceType = "credit_note"
)

type InvoiceStatus string

const (
	InvoiceStatusPaymentPending     InvoiceStatus = "payment_pending"
	InvoiceStatusFirstReminderSent  InvoiceStatus = "first_reminder_sent"
	InvoiceStatusSecondReminderSent InvoiceStatus = "second_reminder_sent"
	InvoiceStatusFinalNoticeSent    InvoiceStatus = "final_notice_sent"
	InvoiceStatusPaid               InvoiceStatus = "paid"
	InvoiceStatusCredited           InvoiceStatus = "credited"
	InvoiceStatusIssued             InvoiceStatus = "issued" // credit notes
)

// UnpaidInvoiceStatuses are the statuses the reminder ladder walks
var UnpaidInvoiceStatuses = []InvoiceStatus{
	InvoiceStatusPaymentPending,
	InvoiceStatusFirstReminderSent,
	InvoiceStatusSecondReminderSent,
	InvoiceStatusFinalNoticeSent,
}

// Invoice is either a regular invoice or a credit note.
// LinkedInvoiceID on a regular invoice points forward to its credit note.
type Invoice struct {
	ID              int64         `json:"id"`
	AccountID       int64         `json:"account_id"`
	ClientID        int64         `json:"client_id"`
	QuoteID         *int64        `json:"quote_id,omitempty"`
	InvoiceNumber   int64         `json:"invoice_number"`
	InvoiceDate     time.Time     `json:"invoice_date"`
	ServiceDate     time.Time     `json:"service_date"`
	PaymentDeadline time.Time     `json:"payment_deadline"`
	Status          InvoiceStatus `json:"status"`
	ReminderLevel   int           `json:"reminder_level"`
	Type            InvoiceType   `json:"type"`
	LinkedInvoiceID *int64        `json:"linked_invoice_id,omitempty"`
	IsVATIncluded   bool          `json:"is_vat_included"`
	LineItems       []LineItem    `json:"line_items,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	Totals
}

// NewInvoiceFromQuote builds the invoice for an accepted quote. Line items are copied, not moved.
func NewInvoiceFromQuote(q *Quote, number int64, now time.Time) *Invoice {
	quoteID := q.ID
	items := make([]LineItem, 0, len(q.LineItems))
	for i := range q.LineItems {
		items = append(items, q.LineItems[i].CopyForInvoice())
	}
	return &Invoice{
		AccountID:       q.AccountID,
		ClientID:        q.ClientID,
		QuoteID:         &quoteID,
		InvoiceNumber:   number,
		InvoiceDate:     now,
		ServiceDate:     q.ServiceDate,
		PaymentDeadline: now.AddDate(0, 0, q.PaymentDeadlineDays),
		Status:          InvoiceStatusPaymentPending,
		Type:            InvoiceTypeInvoice,
		LineItems:       items,
		Totals:          SumTotals(items),
	}
}

// Reference is the printed document number, e.g. 2026-0042
func (i *Invoice) Reference() string {
	return fmt.Sprintf("%d-%04d", i.InvoiceDate.Year(), i.InvoiceNumber)
}

func (i *Invoice) IsCreditNote() bool {
	return i.Type == InvoiceTypeCreditNote
}

// IsUnpaid reports whether the invoice still expects a payment
func (i *Invoice) IsUnpaid() bool {
	if i.Type != InvoiceTypeInvoice {
		return false
	}
	for _, s := range UnpaidInvoiceStatuses {
		if i.Status == s {
			return true
		}
	}
	return false
}

// MarkPaid stops the reminder ladder
func (i *Invoice) MarkPaid() error {
	if !i.IsUnpaid() {
		return Errorf(ErrInvalidTransition, "invoice %d cannot be paid from status %s", i.ID, i.Status)
	}
	i.Status = InvoiceStatusPaid
	return nil
}

// CheckCreditable rejects invoices that cannot receive a credit note
func (i *Invoice) CheckCreditable() error {
	if i.IsCreditNote() {
		return Errorf(ErrValidation, "invoice %d is itself a credit note", i.ID)
	}
	if i.LinkedInvoiceID != nil {
		return Errorf(ErrInvoiceAlreadyCredited, "invoice %d already has credit note %d", i.ID, *i.LinkedInvoiceID)
	}
	return nil
}

// CheckCreditAmount bounds a (negative) credit note amount by the invoice total.
// It reports whether the credit note fully reverses the invoice.
func (i *Invoice) CheckCreditAmount(creditNoteAmount decimal.Decimal) (full bool, err error) {
	abs := creditNoteAmount.Abs()
	if abs.GreaterThan(i.Total) {
		return false, Errorf(ErrCreditExceedsInvoice, "credit note amount %s exceeds invoice total %s", abs.StringFixed(2), i.Total.StringFixed(2))
	}
	return abs.Equal(i.Total), nil
}
