package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"backoffice-ledger/internal/config"
	"backoffice-ledger/internal/domain"
)

type AccountService interface {
	CreateAccount(ctx context.Context, userID int64, kind domain.AccountKind, name, email string, openingBalance decimal.Decimal) (*domain.Account, error)
	GetAccount(ctx context.Context, userID, accountID int64) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	Debit(ctx context.Context, userID, accountID int64, amount decimal.Decimal) (*domain.Account, error)
	Credit(ctx context.Context, userID, accountID int64, amount decimal.Decimal) (*domain.Account, error)
}

// DocumentNumberingService issues per-account document numbers that are never reused
type DocumentNumberingService interface {
	NextInvoiceNumber(ctx context.Context, accountID int64) (int64, error)
	NextQuoteNumber(ctx context.Context, accountID int64) (int64, error)
}

type MoneyTransferService interface {
	Transfer(ctx context.Context, userID int64, req TransferRequest) (*domain.Transaction, error)
}

type ClientDirectory interface {
	CreateClient(ctx context.Context, client *domain.Client) error
	FindClient(ctx context.Context, id int64) (*domain.Client, error)
}

type LineItemService interface {
	CreateLineItem(ctx context.Context, userID int64, in LineItemInput) (*domain.LineItem, error)
	UpdateLineItem(ctx context.Context, userID, lineItemID int64, in LineItemInput) (*domain.LineItem, error)
}

type QuoteService interface {
	CreateQuote(ctx context.Context, userID int64, in CreateQuoteInput) (*QuoteResult, error)
	GetQuote(ctx context.Context, quoteID int64) (*domain.Quote, error)
	RecordGroupAcceptance(ctx context.Context, userID, quoteID int64) (*domain.Quote, error)
	RecordOrderGiverAcceptance(ctx context.Context, userID, quoteID int64) (*domain.Quote, error)
	RecordGroupRejection(ctx context.Context, userID, quoteID int64) (*domain.Quote, error)
	RecordOrderGiverRejection(ctx context.Context, userID, quoteID int64) (*domain.Quote, error)
	CancelQuote(ctx context.Context, userID, quoteID int64) (*domain.Quote, error)
}

type InvoiceService interface {
	CreateFromQuote(ctx context.Context, userID, quoteID, accountID int64) (*DocumentResult, error)
	GetInvoice(ctx context.Context, invoiceID int64) (*domain.Invoice, error)
	MarkInvoicePaid(ctx context.Context, userID, invoiceID int64) (*domain.Invoice, error)
	DeleteInvoice(ctx context.Context, userID, invoiceID int64) error
	// AutoInvoicePastDue invoices every accepted quote whose service date is past the grace period
	AutoInvoicePastDue(ctx context.Context) (*BatchReport, error)
}

type CreditNoteService interface {
	CreateCreditNote(ctx context.Context, userID int64, in CreditNoteInput) (*DocumentResult, error)
}

type SepaTransferService interface {
	CreateSepaTransfer(ctx context.Context, userID int64, in SepaTransferInput) (*SepaTransferResult, error)
	UpdateSepaTransferStatus(ctx context.Context, userID, transferID int64, status domain.SepaStatus, reason string) (*domain.SepaTransfer, error)
	GetSepaTransfer(ctx context.Context, transferID int64) (*domain.SepaTransfer, error)
	// InitiateValidatedTransfers sends every ACCEPTED transfer to the bank contact and marks it PAID
	InitiateValidatedTransfers(ctx context.Context) (*BatchReport, error)
}

type ReminderService interface {
	// SendPaymentReminders walks overdue invoices up the reminder ladder
	SendPaymentReminders(ctx context.Context) (*BatchReport, error)
}

type PermissionService interface {
	HasBillingAdminRole(ctx context.Context, userID, accountID int64) (bool, error)
	RequireBillingAdmin(ctx context.Context, userID, accountID int64) error
	RequireMember(ctx context.Context, userID, accountID int64) error
	RequireSystemAdmin(ctx context.Context, userID int64) error
}

type TransferRequest struct {
	Amount                decimal.Decimal
	Communication         string
	SenderAccountID       *int64
	RecipientGroupIDs     []int64
	RecipientPrincipalIDs []int64
}

type LineItemInput struct {
	AccountID   int64
	Description string
	UnitPrice   decimal.Decimal
	Quantity    decimal.Decimal
	VATRate     decimal.Decimal
}

type CreateQuoteInput struct {
	AccountID           int64
	ClientID            int64
	LineItemIDs         []int64
	ServiceDate         time.Time
	PaymentDeadlineDays int
	ValidationDeadline  *time.Time
}

type CreditNoteInput struct {
	AccountID         int64
	OriginalInvoiceID *int64
	// ClientID is required for a standalone credit note; otherwise the original invoice's client is used
	ClientID      int64
	LineItemIDs   []int64
	IsVATIncluded bool
}

type SepaTransferInput struct {
	AccountID      int64
	AccountOwner   string
	IBAN           string
	AmountExclVAT  decimal.Decimal
	AmountVAT      decimal.Decimal
	Communication  string
	Attachment     []byte
	AttachmentName string
}

// QuoteResult carries notification warnings next to the persisted quote
type QuoteResult struct {
	Quote    *domain.Quote `json:"quote"`
	Warnings []string      `json:"warnings,omitempty"`
}

// DocumentResult is returned once an invoice or credit note is committed.
// Warnings list side effects (render, store, mail) that failed afterwards.
type DocumentResult struct {
	Invoice     *domain.Invoice `json:"invoice"`
	DocumentKey string          `json:"document_key,omitempty"`
	Warnings    []string        `json:"warnings,omitempty"`
}

type SepaTransferResult struct {
	Transfer *domain.SepaTransfer `json:"transfer"`
	Warnings []string             `json:"warnings,omitempty"`
}

// BatchReport summarizes one batch run
type BatchReport struct {
	Processed int
	Succeeded int
	Skipped   int
	Failed    int
}

// BillingSettings are the tunables of the document lifecycle
type BillingSettings struct {
	QuoteValidationMonths int
	AutoInvoiceGraceDays  int
	Ladder                domain.ReminderLadder
	TransferNoticeEmail   string
}

func NewBillingSettings(cfg config.BillingConfig) BillingSettings {
	return BillingSettings{
		QuoteValidationMonths: cfg.QuoteValidationMonths,
		AutoInvoiceGraceDays:  cfg.AutoInvoiceGraceDays,
		Ladder:                domain.NewReminderLadder(cfg.ReminderDays.First, cfg.ReminderDays.Second, cfg.ReminderDays.Final),
		TransferNoticeEmail:   cfg.TransferNoticeEmail,
	}
}
