package render

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice-ledger/internal/domain"
)

func TestRenderInvoice(t *testing.T) {
	r, err := NewHTMLRenderer()
	require.NoError(t, err)

	item, err := domain.NewLineItem(1, "Festival <headline>", decimal.NewFromInt(100), decimal.NewFromInt(1), domain.VATRate21)
	require.NoError(t, err)
	inv := &domain.Invoice{
		InvoiceNumber: 7,
		InvoiceDate:   time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC),
		Type:          domain.InvoiceTypeInvoice,
		LineItems:     []domain.LineItem{*item},
		Totals:        domain.SumTotals([]domain.LineItem{*item}),
	}

	out, err := r.RenderInvoice(inv, &domain.Client{Name: "Jo", CompanyName: "Venue BV"}, &domain.Account{Name: "The Band"})
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "Invoice 2026-0007")
	assert.Contains(t, html, "Venue BV")
	assert.Contains(t, html, "Festival &lt;headline&gt;")
	assert.Contains(t, html, "21%")
	assert.Contains(t, html, "Total: 121.00")
	assert.Contains(t, html, "Payment due")
}

func TestRenderTransferNotice(t *testing.T) {
	r, err := NewHTMLRenderer()
	require.NoError(t, err)

	out, err := r.RenderTransferNotice([]domain.SepaTransfer{
		{AccountOwner: "A", IBAN: "BE68539007547034", AmountTotal: decimal.RequireFromString("10.50")},
		{AccountOwner: "B", IBAN: "DE89370400440532013000", AmountTotal: decimal.RequireFromString("4.50")},
	})
	require.NoError(t, err)
	assert.Contains(t, string(out), "Total: 15.00")
	assert.Contains(t, string(out), "DE89370400440532013000")
}
