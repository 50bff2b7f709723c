package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
)

// EndpointSecurityConfig maps HTTP route names to their required security level.
// Routes that are not listed require an access token.
var EndpointSecurityConfig = map[string]SecurityLevel{
	"Healthz": SecurityPublic,

	// Accounts
	"CreateAccount":  SecurityAccess,
	"ListAccounts":   SecurityAccess,
	"GetAccount":     SecurityAccess,
	"DebitAccount":   SecurityAccess,
	"CreditAccount":  SecurityAccess,
	"CreateTransfer": SecurityAccess,
	"CreateClient":   SecurityAccess,

	// Documents
	"CreateLineItem":            SecurityAccess,
	"UpdateLineItem":            SecurityAccess,
	"CreateQuote":               SecurityAccess,
	"GetQuote":                  SecurityAccess,
	"QuoteGroupAcceptance":      SecurityAccess,
	"QuoteOrderGiverAcceptance": SecurityAccess,
	"QuoteGroupRejection":       SecurityAccess,
	"QuoteOrderGiverRejection":  SecurityAccess,
	"CancelQuote":               SecurityAccess,
	"InvoiceQuote":              SecurityAccess,
	"GetInvoice":                SecurityAccess,
	"MarkInvoicePaid":           SecurityAccess,
	"DeleteInvoice":             SecurityAccess,
	"CreateCreditNote":          SecurityAccess,

	// SEPA
	"CreateSepaTransfer":      SecurityAccess,
	"GetSepaTransfer":         SecurityAccess,
	"UpdateSepaTransferState": SecurityAccess,
}

// GetSecurityLevel returns the security level for a route name
func GetSecurityLevel(route string) SecurityLevel {
	if level, ok := EndpointSecurityConfig[route]; ok {
		return level
	}
	return SecurityAccess
}
