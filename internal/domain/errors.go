package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures for callers that map them to a response
type ErrorKind string

const (
	KindValidation        ErrorKind = "VALIDATION"
	KindInsufficientFunds ErrorKind = "INSUFFICIENT_FUNDS"
	KindNotFound          ErrorKind = "NOT_FOUND"
	KindConflict          ErrorKind = "CONFLICT"
	KindPermission        ErrorKind = "PERMISSION"
	KindExternalService   ErrorKind = "EXTERNAL_SERVICE"
)

// Error is a domain-level error. Two errors match with errors.Is when their codes match.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target is a domain error with the same code
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewError creates a new domain error
func NewError(kind ErrorKind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Errorf creates a domain error reusing the kind and code of base with a formatted message
func Errorf(base *Error, format string, args ...any) *Error {
	return &Error{Kind: base.Kind, Code: base.Code, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first domain error in err's chain, or "" for unclassified errors
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

var (
	ErrValidation        = NewError(KindValidation, "INVALID_INPUT", "invalid input provided")
	ErrInsufficientFunds = NewError(KindInsufficientFunds, "INSUFFICIENT_FUNDS", "insufficient balance")
	ErrNotFound          = NewError(KindNotFound, "NOT_FOUND", "resource not found")
	ErrConflict          = NewError(KindConflict, "CONFLICT", "resource state conflict")
	ErrPermission        = NewError(KindPermission, "PERMISSION_DENIED", "not authorized to perform this action")
	ErrExternalService   = NewError(KindExternalService, "EXTERNAL_SERVICE", "external service failure")

	ErrAccountNotFound      = NewError(KindNotFound, "ACCOUNT_NOT_FOUND", "account not found")
	ErrClientNotFound       = NewError(KindNotFound, "CLIENT_NOT_FOUND", "client not found")
	ErrQuoteNotFound        = NewError(KindNotFound, "QUOTE_NOT_FOUND", "quote not found")
	ErrInvoiceNotFound      = NewError(KindNotFound, "INVOICE_NOT_FOUND", "invoice not found")
	ErrLineItemNotFound     = NewError(KindNotFound, "LINE_ITEM_NOT_FOUND", "line item not found")
	ErrSepaTransferNotFound = NewError(KindNotFound, "SEPA_TRANSFER_NOT_FOUND", "sepa transfer not found")
	ErrUserNotFound         = NewError(KindNotFound, "USER_NOT_FOUND", "user not found")

	ErrDuplicateAccountName   = NewError(KindConflict, "DUPLICATE_ACCOUNT_NAME", "account name already in use")
	ErrInvoiceAlreadyExists   = NewError(KindConflict, "INVOICE_ALREADY_EXISTS", "quote has already been invoiced")
	ErrInvoiceAlreadyCredited = NewError(KindConflict, "INVOICE_ALREADY_CREDITED", "invoice already has a credit note")
	ErrQuoteImmutable         = NewError(KindConflict, "QUOTE_IMMUTABLE", "quote can no longer change")
	ErrLineItemAttached       = NewError(KindConflict, "LINE_ITEM_ATTACHED", "line item already belongs to a document")
	ErrInvalidTransition      = NewError(KindConflict, "INVALID_TRANSITION", "status transition not allowed")

	ErrCreditExceedsInvoice = NewError(KindValidation, "CREDIT_EXCEEDS_INVOICE", "credit note amount exceeds invoice total")
	ErrInvalidAmount        = NewError(KindValidation, "INVALID_AMOUNT", "amount must be positive")
	ErrInvalidVATRate       = NewError(KindValidation, "INVALID_VAT_RATE", "vat rate must be 0.00, 0.06 or 0.21")
	ErrInvalidIBAN          = NewError(KindValidation, "INVALID_IBAN", "invalid IBAN")
)
