package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice-ledger/internal/domain"
)

func TestNewInvoiceFromQuote(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	qid := int64(4)
	item, err := domain.NewLineItem(2, "Show", dec("100"), dec("1"), domain.VATRate21)
	require.NoError(t, err)
	item.ID = 77
	item.QuoteID = &qid

	q := &domain.Quote{
		ID:                  qid,
		AccountID:           2,
		ClientID:            5,
		ServiceDate:         now.AddDate(0, 0, -3),
		PaymentDeadlineDays: 30,
		Status:              domain.QuoteStatusAccepted,
		LineItems:           []domain.LineItem{*item},
	}

	inv := domain.NewInvoiceFromQuote(q, 42, now)

	assert.Equal(t, int64(42), inv.InvoiceNumber)
	assert.Equal(t, domain.InvoiceStatusPaymentPending, inv.Status)
	assert.Equal(t, domain.InvoiceTypeInvoice, inv.Type)
	assert.Equal(t, now.AddDate(0, 0, 30), inv.PaymentDeadline)
	assert.Equal(t, q.ServiceDate, inv.ServiceDate)
	assert.Equal(t, "2026-0042", inv.Reference())
	require.Len(t, inv.LineItems, 1)
	assert.Zero(t, inv.LineItems[0].ID)
	assert.Nil(t, inv.LineItems[0].QuoteID)
	assert.True(t, dec("121").Equal(inv.Total))
}

func TestInvoice_CheckCreditAmount(t *testing.T) {
	inv := &domain.Invoice{ID: 1, Type: domain.InvoiceTypeInvoice, Totals: domain.Totals{Total: dec("200")}}

	_, err := inv.CheckCreditAmount(dec("-250"))
	assert.ErrorIs(t, err, domain.ErrCreditExceedsInvoice)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	full, err := inv.CheckCreditAmount(dec("-150"))
	assert.NoError(t, err)
	assert.False(t, full)

	full, err = inv.CheckCreditAmount(dec("-200"))
	assert.NoError(t, err)
	assert.True(t, full)
}

func TestInvoice_CheckCreditable(t *testing.T) {
	inv := &domain.Invoice{ID: 1, Type: domain.InvoiceTypeInvoice}
	assert.NoError(t, inv.CheckCreditable())

	cn := int64(2)
	inv.LinkedInvoiceID = &cn
	assert.ErrorIs(t, inv.CheckCreditable(), domain.ErrInvoiceAlreadyCredited)

	credit := &domain.Invoice{ID: 2, Type: domain.InvoiceTypeCreditNote}
	assert.Equal(t, domain.KindValidation, domain.KindOf(credit.CheckCreditable()))
}

func TestInvoice_MarkPaid(t *testing.T) {
	inv := &domain.Invoice{Type: domain.InvoiceTypeInvoice, Status: domain.InvoiceStatusSecondReminderSent}
	assert.NoError(t, inv.MarkPaid())
	assert.Equal(t, domain.InvoiceStatusPaid, inv.Status)
	assert.ErrorIs(t, inv.MarkPaid(), domain.ErrInvalidTransition)
}
