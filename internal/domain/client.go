package domain

import "time"

// Client is the billed party of a quote or invoice
type Client struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	CompanyName string    `json:"company_name"`
	VATNumber   string    `json:"vat_number"`
	Address     string    `json:"address"`
	CreatedAt   time.Time `json:"created_at"`
}

// DisplayName prefers the company name
func (c *Client) DisplayName() string {
	if c.CompanyName != "" {
		return c.CompanyName
	}
	return c.Name
}
