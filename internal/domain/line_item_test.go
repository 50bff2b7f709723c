package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice-ledger/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSumTotals_SplitsVATByRate(t *testing.T) {
	a, err := domain.NewLineItem(1, "Concert fee", dec("100"), dec("1"), domain.VATRate21)
	require.NoError(t, err)
	b, err := domain.NewLineItem(1, "Merchandise", dec("25"), dec("2"), domain.VATRate6)
	require.NoError(t, err)

	totals := domain.SumTotals([]domain.LineItem{*a, *b})

	assert.True(t, dec("150").Equal(totals.PriceExclVAT), totals.PriceExclVAT.String())
	assert.True(t, dec("21").Equal(totals.VATAt21), totals.VATAt21.String())
	assert.True(t, dec("3").Equal(totals.VATAt6), totals.VATAt6.String())
	assert.True(t, dec("174").Equal(totals.Total), totals.Total.String())
}

func TestSumTotals_ZeroRateOnlyAddsNet(t *testing.T) {
	li, err := domain.NewLineItem(1, "Royalty share", dec("80"), dec("1"), domain.VATRateZero)
	require.NoError(t, err)

	totals := domain.SumTotals([]domain.LineItem{*li})
	assert.True(t, dec("80").Equal(totals.Total))
	assert.True(t, totals.VATAt6.IsZero())
	assert.True(t, totals.VATAt21.IsZero())
}

func TestComputeAmounts(t *testing.T) {
	tests := []struct {
		name        string
		amount      string
		rate        decimal.Decimal
		vatIncluded bool
		net, vat    string
		gross       string
	}{
		{"exclusive 21", "100", domain.VATRate21, false, "100", "21", "121"},
		{"inclusive 21", "121", domain.VATRate21, true, "100", "21", "121"},
		{"inclusive 6", "53", domain.VATRate6, true, "50", "3", "53"},
		{"rounds half away from zero", "10.005", domain.VATRateZero, false, "10.01", "0", "10.01"},
		{"inclusive with remainder", "10", domain.VATRate21, true, "8.26", "1.74", "10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net, vat, gross := domain.ComputeAmounts(dec(tt.amount), tt.rate, tt.vatIncluded)
			assert.True(t, dec(tt.net).Equal(net), "net %s", net)
			assert.True(t, dec(tt.vat).Equal(vat), "vat %s", vat)
			assert.True(t, dec(tt.gross).Equal(gross), "gross %s", gross)
		})
	}
}

func TestNewLineItem_Validation(t *testing.T) {
	_, err := domain.NewLineItem(1, "x", dec("10"), dec("1"), dec("0.19"))
	assert.ErrorIs(t, err, domain.ErrInvalidVATRate)

	_, err = domain.NewLineItem(1, "x", dec("10"), dec("0"), domain.VATRate21)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = domain.NewLineItem(1, "", dec("10"), dec("1"), domain.VATRate21)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestLineItem_NegateForCreditNote(t *testing.T) {
	li, err := domain.NewLineItem(1, "Refund", dec("121"), dec("1"), domain.VATRate21)
	require.NoError(t, err)
	li.Recompute(true)
	li.Negate()

	assert.True(t, dec("-100").Equal(li.PriceExclVAT))
	assert.True(t, dec("-21").Equal(li.VATAmount))
	assert.True(t, dec("-121").Equal(li.LineTotal))
}
