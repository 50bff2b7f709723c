package http

import (
	"time"

	"github.com/shopspring/decimal"

	"backoffice-ledger/internal/service"
)

type createAccountRequest struct {
	Kind           string          `json:"kind" validate:"required,oneof=PRINCIPAL GROUP"`
	Name           string          `json:"name" validate:"required,max=200"`
	Email          string          `json:"email" validate:"omitempty,email"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type transferRequest struct {
	Amount                decimal.Decimal `json:"amount"`
	Communication         string          `json:"communication" validate:"max=500"`
	SenderAccountID       *int64          `json:"sender_account_id" validate:"omitempty,gt=0"`
	RecipientGroupIDs     []int64         `json:"recipient_group_ids" validate:"dive,gt=0"`
	RecipientPrincipalIDs []int64         `json:"recipient_principal_ids" validate:"dive,gt=0"`
}

func (r transferRequest) toInput() service.TransferRequest {
	return service.TransferRequest{
		Amount:                r.Amount,
		Communication:         r.Communication,
		SenderAccountID:       r.SenderAccountID,
		RecipientGroupIDs:     r.RecipientGroupIDs,
		RecipientPrincipalIDs: r.RecipientPrincipalIDs,
	}
}

type createClientRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Email       string `json:"email" validate:"omitempty,email"`
	CompanyName string `json:"company_name"`
	VATNumber   string `json:"vat_number"`
	Address     string `json:"address"`
}

type lineItemRequest struct {
	AccountID   int64           `json:"account_id" validate:"required,gt=0"`
	Description string          `json:"description" validate:"required,max=500"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    decimal.Decimal `json:"quantity"`
	VATRate     decimal.Decimal `json:"vat_rate"`
}

func (r lineItemRequest) toInput() service.LineItemInput {
	return service.LineItemInput{
		AccountID:   r.AccountID,
		Description: r.Description,
		UnitPrice:   r.UnitPrice,
		Quantity:    r.Quantity,
		VATRate:     r.VATRate,
	}
}

type createQuoteRequest struct {
	AccountID           int64      `json:"account_id" validate:"required,gt=0"`
	ClientID            int64      `json:"client_id" validate:"required,gt=0"`
	LineItemIDs         []int64    `json:"line_item_ids" validate:"required,min=1,dive,gt=0"`
	ServiceDate         time.Time  `json:"service_date"`
	PaymentDeadlineDays int        `json:"payment_deadline_days" validate:"gte=0"`
	ValidationDeadline  *time.Time `json:"validation_deadline"`
}

func (r createQuoteRequest) toInput() service.CreateQuoteInput {
	return service.CreateQuoteInput{
		AccountID:           r.AccountID,
		ClientID:            r.ClientID,
		LineItemIDs:         r.LineItemIDs,
		ServiceDate:         r.ServiceDate,
		PaymentDeadlineDays: r.PaymentDeadlineDays,
		ValidationDeadline:  r.ValidationDeadline,
	}
}

type invoiceQuoteRequest struct {
	AccountID int64 `json:"account_id" validate:"required,gt=0"`
}

type creditNoteRequest struct {
	AccountID         int64   `json:"account_id" validate:"required,gt=0"`
	OriginalInvoiceID *int64  `json:"original_invoice_id" validate:"omitempty,gt=0"`
	ClientID          int64   `json:"client_id" validate:"required_without=OriginalInvoiceID,gte=0"`
	LineItemIDs       []int64 `json:"line_item_ids" validate:"required,min=1,dive,gt=0"`
	IsVATIncluded     bool    `json:"is_vat_included"`
}

func (r creditNoteRequest) toInput() service.CreditNoteInput {
	return service.CreditNoteInput{
		AccountID:         r.AccountID,
		OriginalInvoiceID: r.OriginalInvoiceID,
		ClientID:          r.ClientID,
		LineItemIDs:       r.LineItemIDs,
		IsVATIncluded:     r.IsVATIncluded,
	}
}

// Attachment travels base64-encoded in JSON
type sepaTransferRequest struct {
	AccountID      int64           `json:"account_id" validate:"required,gt=0"`
	AccountOwner   string          `json:"account_owner" validate:"required,max=200"`
	IBAN           string          `json:"iban" validate:"required"`
	AmountExclVAT  decimal.Decimal `json:"amount_excl_vat"`
	AmountVAT      decimal.Decimal `json:"amount_vat"`
	Communication  string          `json:"communication" validate:"max=500"`
	Attachment     []byte          `json:"attachment"`
	AttachmentName string          `json:"attachment_name"`
}

func (r sepaTransferRequest) toInput() service.SepaTransferInput {
	return service.SepaTransferInput{
		AccountID:      r.AccountID,
		AccountOwner:   r.AccountOwner,
		IBAN:           r.IBAN,
		AmountExclVAT:  r.AmountExclVAT,
		AmountVAT:      r.AmountVAT,
		Communication:  r.Communication,
		Attachment:     r.Attachment,
		AttachmentName: r.AttachmentName,
	}
}

type sepaStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ACCEPTED REJECTED PAID"`
	Reason string `json:"reason" validate:"required_if=Status REJECTED"`
}
