package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"gopkg.in/gomail.v2"

	"backoffice-ledger/internal/config"
	"backoffice-ledger/internal/domain"
	"backoffice-ledger/internal/logger"
)

// Attachment is a file sent along with a message
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Recipient is one addressee
type Recipient struct {
	Email string
	Name  string
}

// Message is a provider-neutral email
type Message struct {
	To          Recipient
	Subject     string
	Body        string
	Attachments []Attachment
}

// MailTransport delivers a message through one provider
type MailTransport interface {
	Send(ctx context.Context, msg Message) error
}

// Mailer sends the documents and notices of the ledger
type Mailer interface {
	SendQuote(ctx context.Context, to Recipient, quote *domain.Quote, accountName string) error
	SendInvoice(ctx context.Context, to Recipient, inv *domain.Invoice, accountName string, doc *Attachment) error
	SendReminder(ctx context.Context, to Recipient, inv *domain.Invoice, level int, doc *Attachment) error
	SendVirementNotice(ctx context.Context, to Recipient, transfer *domain.SepaTransfer, docs []Attachment) error
}

type mailer struct {
	transport MailTransport
}

func NewMailer(transport MailTransport) Mailer {
	return &mailer{transport: transport}
}

// NewMailTransport returns the transport selected by cfg.Provider
func NewMailTransport(cfg config.MailConfig) (MailTransport, error) {
	switch cfg.Provider {
	case "sendgrid":
		return NewSendGridTransport(cfg.SendGridAPIKey, cfg.From, cfg.FromName), nil
	case "smtp", "":
		return NewSMTPTransport(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.From), nil
	default:
		return nil, fmt.Errorf("unknown mail provider: %s", cfg.Provider)
	}
}

func (m *mailer) send(ctx context.Context, operation string, msg Message) error {
	if msg.To.Email == "" {
		return domain.Errorf(domain.ErrValidation, "%s: recipient has no email address", operation)
	}
	logger.ExternalServiceCall("mailer", operation, "to", msg.To.Email)
	err := m.transport.Send(ctx, msg)
	logger.ExternalServiceResult("mailer", operation, err, "to", msg.To.Email)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.Errorf(domain.ErrExternalService, "%s to %s failed", operation, msg.To.Email), err)
	}
	return nil
}

func (m *mailer) SendQuote(ctx context.Context, to Recipient, q *domain.Quote, accountName string) error {
	body := fmt.Sprintf("Hello %s,\n\n%s has issued quote #%d for a total of %s EUR (service date %s).\n"+
		"Please review and answer it before %s.\n\nBest regards,\n%s",
		to.Name, accountName, q.QuoteNumber, q.Total.StringFixed(2), q.ServiceDate.Format("02/01/2006"),
		q.ValidationDeadline.Format("02/01/2006"), accountName)
	return m.send(ctx, "SendQuote", Message{
		To:      to,
		Subject: fmt.Sprintf("Quote #%d from %s", q.QuoteNumber, accountName),
		Body:    body,
	})
}

func (m *mailer) SendInvoice(ctx context.Context, to Recipient, inv *domain.Invoice, accountName string, doc *Attachment) error {
	kind := "Invoice"
	if inv.IsCreditNote() {
		kind = "Credit note"
	}
	body := fmt.Sprintf("Hello %s,\n\nPlease find attached %s %s from %s for a total of %s EUR.\n",
		to.Name, strings.ToLower(kind), inv.Reference(), accountName, inv.Total.StringFixed(2))
	if !inv.IsCreditNote() {
		body += fmt.Sprintf("Payment is due by %s.\n", inv.PaymentDeadline.Format("02/01/2006"))
	}
	body += "\nBest regards,\n" + accountName
	return m.send(ctx, "SendInvoice", Message{
		To:          to,
		Subject:     fmt.Sprintf("%s %s from %s", kind, inv.Reference(), accountName),
		Body:        body,
		Attachments: attachments(doc),
	})
}

func (m *mailer) SendReminder(ctx context.Context, to Recipient, inv *domain.Invoice, level int, doc *Attachment) error {
	subject := fmt.Sprintf("Payment reminder: invoice %s", inv.Reference())
	if level >= domain.MaxReminderLevel {
		subject = fmt.Sprintf("Final notice: invoice %s", inv.Reference())
	}
	body := fmt.Sprintf("Hello %s,\n\nOur records show that invoice %s (%s EUR) was due on %s and remains unpaid.\n"+
		"Please settle it at your earliest convenience.\n\nBest regards",
		to.Name, inv.Reference(), inv.Total.StringFixed(2), inv.PaymentDeadline.Format("02/01/2006"))
	return m.send(ctx, "SendReminder", Message{
		To:          to,
		Subject:     subject,
		Body:        body,
		Attachments: attachments(doc),
	})
}

func (m *mailer) SendVirementNotice(ctx context.Context, to Recipient, t *domain.SepaTransfer, docs []Attachment) error {
	body := fmt.Sprintf("Please execute the following transfer:\n\nBeneficiary: %s\nIBAN: %s\nAmount: %s EUR (excl. VAT %s, VAT %s)\nCommunication: %s\n",
		t.AccountOwner, t.IBAN, t.AmountTotal.StringFixed(2), t.AmountExclVAT.StringFixed(2), t.AmountVAT.StringFixed(2), t.Communication)
	return m.send(ctx, "SendVirementNotice", Message{
		To:          to,
		Subject:     fmt.Sprintf("SEPA transfer #%d to %s", t.ID, t.AccountOwner),
		Body:        body,
		Attachments: docs,
	})
}

func attachments(doc *Attachment) []Attachment {
	if doc == nil {
		return nil
	}
	return []Attachment{*doc}
}

type smtpTransport struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPTransport sends through an SMTP relay
func NewSMTPTransport(host string, port int, username, password, from string) MailTransport {
	return &smtpTransport{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (s *smtpTransport) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetAddressHeader("To", msg.To.Email, msg.To.Name)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
	for _, a := range msg.Attachments {
		data := a.Data
		m.Attach(a.Name,
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
			gomail.SetHeader(map[string][]string{"Content-Type": {a.ContentType}}),
		)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email via gomail: %w", err)
	}
	return nil
}

type sendGridTransport struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

// NewSendGridTransport sends through the SendGrid v3 API
func NewSendGridTransport(apiKey, fromEmail, fromName string) MailTransport {
	return &sendGridTransport{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *sendGridTransport) Send(ctx context.Context, msg Message) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(msg.To.Name, msg.To.Email)
	message := mail.NewV3MailInit(from, msg.Subject, to, mail.NewContent("text/plain", msg.Body))
	for _, a := range msg.Attachments {
		att := mail.NewAttachment()
		att.SetContent(base64.StdEncoding.EncodeToString(a.Data))
		att.SetType(a.ContentType)
		att.SetFilename(a.Name)
		att.SetDisposition("attachment")
		message.AddAttachment(att)
	}

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	return nil
}
