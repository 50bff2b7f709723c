package domain

import "time"

type QuoteStatus string

const (
	QuoteStatusPending             QuoteStatus = "pending"
	QuoteStatusAccepted            QuoteStatus = "accepted"
	QuoteStatusRefused             QuoteStatus = "refused"
	QuoteStatusInvoiced            QuoteStatus = "invoiced"
	QuoteStatusCancelled           QuoteStatus = "cancelled"
	QuoteStatusPendingCancellation QuoteStatus = "pending_cancellation"
)

type Acceptance string

const (
	AcceptancePending  Acceptance = "pending"
	AcceptanceAccepted Acceptance = "accepted"
	AcceptanceRefused  Acceptance = "refused"
)

// Party identifies which side of a quote is answering
type Party string

const (
	PartyGroup      Party = "group"
	PartyOrderGiver Party = "order_giver"
)

type Quote struct {
	ID                   int64       `json:"id"`
	AccountID            int64       `json:"account_id"`
	ClientID             int64       `json:"client_id"`
	QuoteNumber          int64       `json:"quote_number"`
	QuoteDate            time.Time   `json:"quote_date"`
	ServiceDate          time.Time   `json:"service_date"`
	PaymentDeadlineDays  int         `json:"payment_deadline_days"`
	ValidationDeadline   time.Time   `json:"validation_deadline"`
	Status               QuoteStatus `json:"status"`
	GroupAcceptance      Acceptance  `json:"group_acceptance"`
	OrderGiverAcceptance Acceptance  `json:"order_giver_acceptance"`
	InvoiceID            *int64      `json:"invoice_id,omitempty"`
	LineItems            []LineItem  `json:"line_items,omitempty"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
	Totals
}

// DeriveQuoteStatus is the acceptance gate: refused if either side refused, accepted only when both accepted
func DeriveQuoteStatus(group, orderGiver Acceptance) QuoteStatus {
	switch {
	case group == AcceptanceRefused || orderGiver == AcceptanceRefused:
		return QuoteStatusRefused
	case group == AcceptanceAccepted && orderGiver == AcceptanceAccepted:
		return QuoteStatusAccepted
	default:
		return QuoteStatusPending
	}
}

// IsOpen reports whether acceptance answers may still change the quote
func (q *Quote) IsOpen() bool {
	switch q.Status {
	case QuoteStatusPending, QuoteStatusAccepted, QuoteStatusRefused:
		return true
	}
	return false
}

// RecordAnswer sets one party's answer and re-derives the status from both fields
func (q *Quote) RecordAnswer(party Party, answer Acceptance) error {
	if !q.IsOpen() {
		return Errorf(ErrQuoteImmutable, "quote %d is %s", q.ID, q.Status)
	}
	switch party {
	case PartyGroup:
		q.GroupAcceptance = answer
	case PartyOrderGiver:
		q.OrderGiverAcceptance = answer
	default:
		return Errorf(ErrValidation, "unknown party: %s", party)
	}
	q.Status = DeriveQuoteStatus(q.GroupAcceptance, q.OrderGiverAcceptance)
	return nil
}

// Cancel is the administrative cancellation. An invoiced quote waits for a credit note.
func (q *Quote) Cancel() error {
	switch q.Status {
	case QuoteStatusPending, QuoteStatusAccepted, QuoteStatusRefused:
		q.Status = QuoteStatusCancelled
	case QuoteStatusInvoiced:
		q.Status = QuoteStatusPendingCancellation
	default:
		return Errorf(ErrInvalidTransition, "quote %d is already %s", q.ID, q.Status)
	}
	return nil
}

// CheckInvoiceable rejects quotes that cannot become an invoice
func (q *Quote) CheckInvoiceable() error {
	if q.InvoiceID != nil || q.Status == QuoteStatusInvoiced {
		return Errorf(ErrInvoiceAlreadyExists, "quote %d has already been invoiced", q.ID)
	}
	if q.Status != QuoteStatusAccepted {
		return Errorf(ErrConflict, "quote %d is %s, not accepted", q.ID, q.Status)
	}
	return nil
}
