package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"

	"backoffice-ledger/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// DocumentRenderer turns documents into printable bytes. Output depends only on the inputs.
type DocumentRenderer interface {
	RenderInvoice(inv *domain.Invoice, client *domain.Client, account *domain.Account) ([]byte, error)
	RenderCreditNote(note *domain.Invoice, client *domain.Client, account *domain.Account) ([]byte, error)
	RenderTransferNotice(transfers []domain.SepaTransfer) ([]byte, error)
}

type htmlRenderer struct {
	tmpl *template.Template
}

var funcs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"date":  func(t time.Time) string { return t.Format("02/01/2006") },
	"percent": func(d decimal.Decimal) string {
		return d.Mul(decimal.NewFromInt(100)).StringFixed(0) + "%"
	},
}

// NewHTMLRenderer parses the embedded templates
func NewHTMLRenderer() (DocumentRenderer, error) {
	tmpl, err := template.New("documents").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse document templates: %w", err)
	}
	return &htmlRenderer{tmpl: tmpl}, nil
}

type documentView struct {
	Title    string
	Document *domain.Invoice
	Client   *domain.Client
	Account  *domain.Account
}

func (r *htmlRenderer) RenderInvoice(inv *domain.Invoice, client *domain.Client, account *domain.Account) ([]byte, error) {
	return r.execute("invoice.html", documentView{Title: "Invoice " + inv.Reference(), Document: inv, Client: client, Account: account})
}

func (r *htmlRenderer) RenderCreditNote(note *domain.Invoice, client *domain.Client, account *domain.Account) ([]byte, error) {
	return r.execute("invoice.html", documentView{Title: "Credit note " + note.Reference(), Document: note, Client: client, Account: account})
}

func (r *htmlRenderer) RenderTransferNotice(transfers []domain.SepaTransfer) ([]byte, error) {
	total := decimal.Zero
	for _, t := range transfers {
		total = total.Add(t.AmountTotal)
	}
	return r.execute("transfers.html", struct {
		Transfers []domain.SepaTransfer
		Total     decimal.Decimal
	}{transfers, total})
}

func (r *htmlRenderer) execute(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.Errorf(domain.ErrExternalService, "render %s failed", name), err)
	}
	return buf.Bytes(), nil
}
