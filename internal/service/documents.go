package service

import (
	"context"
	"fmt"
	"strconv"

	"backoffice-ledger/internal/domain"
	"backoffice-ledger/internal/logger"
	"backoffice-ledger/internal/render"
	"backoffice-ledger/internal/repository"
	"backoffice-ledger/internal/storage"
)

const (
	invoiceFolder    = "invoices"
	creditNoteFolder = "credit-notes"
	htmlContentType  = "text/html; charset=utf-8"
)

// documentPublisher renders a committed invoice or credit note, stores it and mails it to the client.
// Nothing here can fail the document itself: every failure becomes a warning.
type documentPublisher struct {
	store    repository.Tx
	mailer   Mailer
	renderer render.DocumentRenderer
	objects  storage.ObjectStore
}

func (p *documentPublisher) publish(ctx context.Context, inv *domain.Invoice) (string, []string) {
	var warnings []string
	warn := func(step string, err error) {
		logger.Error("Document side effect failed", "invoiceID", inv.ID, "step", step, "error", err)
		warnings = append(warnings, fmt.Sprintf("%s: %v", step, err))
	}

	client, err := p.store.Clients().GetByID(ctx, inv.ClientID)
	if err != nil {
		warn("load client", err)
		return "", warnings
	}
	account, err := p.store.Accounts().GetByID(ctx, inv.AccountID)
	if err != nil {
		warn("load account", err)
		return "", warnings
	}

	var (
		doc    []byte
		folder = invoiceFolder
	)
	if inv.IsCreditNote() {
		folder = creditNoteFolder
		doc, err = p.renderer.RenderCreditNote(inv, client, account)
	} else {
		doc, err = p.renderer.RenderInvoice(inv, client, account)
	}
	if err != nil {
		warn("render", err)
	}

	var (
		key        string
		attachment *Attachment
	)
	if doc != nil {
		attachment = &Attachment{Name: inv.Reference() + ".html", ContentType: htmlContentType, Data: doc}
		if key, err = p.objects.Put(ctx, doc, folder, strconv.FormatInt(inv.ID, 10)); err != nil {
			warn("store", err)
		}
	}

	to := Recipient{Email: client.Email, Name: client.DisplayName()}
	if err := p.mailer.SendInvoice(ctx, to, inv, account.Name, attachment); err != nil {
		warn("mail", err)
	}
	return key, warnings
}
