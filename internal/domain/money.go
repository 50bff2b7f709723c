package domain

import "github.com/shopspring/decimal"

// Supported VAT rates
var (
	VATRateZero = decimal.Zero
	VATRate6    = decimal.RequireFromString("0.06")
	VATRate21   = decimal.RequireFromString("0.21")
)

// IsValidVATRate reports whether rate is one of the supported rates
func IsValidVATRate(rate decimal.Decimal) bool {
	return rate.Equal(VATRateZero) || rate.Equal(VATRate6) || rate.Equal(VATRate21)
}

// RoundMoney rounds to cents, half away from zero
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Totals is the VAT split shared by quotes and invoices
type Totals struct {
	PriceExclVAT decimal.Decimal `json:"price_excl_vat"`
	VATAt6       decimal.Decimal `json:"vat_at_6"`
	VATAt21      decimal.Decimal `json:"vat_at_21"`
	Total        decimal.Decimal `json:"total"`
}

// SumTotals aggregates the derived amounts of items. Total is always the sum of the three parts.
func SumTotals(items []LineItem) Totals {
	t := Totals{PriceExclVAT: decimal.Zero, VATAt6: decimal.Zero, VATAt21: decimal.Zero}
	for _, li := range items {
		t.PriceExclVAT = t.PriceExclVAT.Add(li.PriceExclVAT)
		switch {
		case li.VATRate.Equal(VATRate6):
			t.VATAt6 = t.VATAt6.Add(li.VATAmount)
		case li.VATRate.Equal(VATRate21):
			t.VATAt21 = t.VATAt21.Add(li.VATAmount)
		}
	}
	t.Total = t.PriceExclVAT.Add(t.VATAt6).Add(t.VATAt21)
	return t
}
