package service

import (
	"context"

	"backoffice-ledger/internal/clock"
	"backoffice-ledger/internal/domain"
	"backoffice-ledger/internal/logger"
	"backoffice-ledger/internal/render"
	"backoffice-ledger/internal/repository"
	"backoffice-ledger/internal/storage"
)

type creditNoteService struct {
	store     repository.Store
	perms     PermissionService
	clock     clock.Clock
	publisher *documentPublisher
}

func NewCreditNoteService(store repository.Store, perms PermissionService, clk clock.Clock,
	mailer Mailer, renderer render.DocumentRenderer, objects storage.ObjectStore) CreditNoteService {
	return &creditNoteService{
		store:     store,
		perms:     perms,
		clock:     clk,
		publisher: &documentPublisher{store: store, mailer: mailer, renderer: renderer, objects: objects},
	}
}

// CreateCreditNote issues a negative document from free line items. Against an original invoice
// the amount is bounded by its total and the invoice is linked to the new credit note.
func (s *creditNoteService) CreateCreditNote(ctx context.Context, userID int64, in CreditNoteInput) (*DocumentResult, error) {
	logger.EnterMethod("creditNoteService.CreateCreditNote", "userID", userID, "accountID", in.AccountID)

	ids := uniqueIDs(in.LineItemIDs)
	if len(ids) == 0 {
		err := domain.Errorf(domain.ErrValidation, "a credit note needs at least one line item")
		logger.ExitMethodWithError("creditNoteService.CreateCreditNote", err, "accountID", in.AccountID)
		return nil, err
	}
	if err := s.perms.RequireMember(ctx, userID, in.AccountID); err != nil {
		logger.ExitMethodWithError("creditNoteService.CreateCreditNote", err, "accountID", in.AccountID)
		return nil, err
	}

	now := s.clock.Now()
	var note *domain.Invoice
	err := s.store.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		var (
			original *domain.Invoice
			clientID = in.ClientID
			err      error
		)
		if in.OriginalInvoiceID != nil {
			if original, err = tx.Invoices().GetForUpdate(ctx, *in.OriginalInvoiceID); err != nil {
				return err
			}
			if original.AccountID != in.AccountID {
				return domain.Errorf(domain.ErrValidation, "invoice %d was not issued by account %d", original.ID, in.AccountID)
			}
			if err := original.CheckCreditable(); err != nil {
				return err
			}
			clientID = original.ClientID
		} else if _, err := tx.Clients().GetByID(ctx, clientID); err != nil {
			return err
		}

		items, err := loadFreeLineItems(ctx, tx, in.AccountID, ids)
		if err != nil {
			return err
		}
		for i := range items {
			items[i].Recompute(in.IsVATIncluded)
			items[i].Negate()
		}
		totals := domain.SumTotals(items)
		if totals.Total.IsZero() {
			return domain.Errorf(domain.ErrValidation, "credit note amount cannot be zero")
		}

		full := false
		if original != nil {
			if full, err = original.CheckCreditAmount(totals.Total); err != nil {
				return err
			}
		}

		number, err := NewDocumentNumberingService(tx.Accounts()).NextInvoiceNumber(ctx, in.AccountID)
		if err != nil {
			return err
		}
		note = &domain.Invoice{
			AccountID:       in.AccountID,
			ClientID:        clientID,
			InvoiceNumber:   number,
			InvoiceDate:     now,
			ServiceDate:     now,
			PaymentDeadline: now,
			Status:          domain.InvoiceStatusIssued,
			Type:            domain.InvoiceTypeCreditNote,
			IsVATIncluded:   in.IsVATIncluded,
			Totals:          totals,
		}
		if original != nil {
			note.ServiceDate = original.ServiceDate
		}
		if err := tx.Invoices().Create(ctx, note); err != nil {
			return err
		}
		for i := range items {
			items[i].InvoiceID = &note.ID
			if err := tx.LineItems().Update(ctx, &items[i]); err != nil {
				return err
			}
		}
		note.LineItems = items

		if original == nil {
			return nil
		}
		return s.linkOriginal(ctx, tx, original, note.ID, full)
	})
	if err != nil {
		logger.ExitMethodWithError("creditNoteService.CreateCreditNote", err, "accountID", in.AccountID)
		return nil, err
	}

	key, warnings := s.publisher.publish(ctx, note)

	logger.ExitMethod("creditNoteService.CreateCreditNote", "creditNoteID", note.ID, "amount", note.Total.StringFixed(2), "warnings", len(warnings))
	return &DocumentResult{Invoice: note, DocumentKey: key, Warnings: warnings}, nil
}

// linkOriginal points the invoice at its credit note. A full reversal closes the invoice and
// completes a cancellation waiting on its quote.
func (s *creditNoteService) linkOriginal(ctx context.Context, tx repository.Tx, original *domain.Invoice, creditNoteID int64, full bool) error {
	original.LinkedInvoiceID = &creditNoteID
	if full {
		original.Status = domain.InvoiceStatusCredited
	}
	if err := tx.Invoices().Update(ctx, original); err != nil {
		return err
	}
	if !full || original.QuoteID == nil {
		return nil
	}

	quote, err := tx.Quotes().GetForUpdate(ctx, *original.QuoteID)
	if err != nil {
		return err
	}
	if quote.Status != domain.QuoteStatusPendingCancellation {
		return nil
	}
	quote.Status = domain.QuoteStatusCancelled
	return tx.Quotes().Update(ctx, quote)
}
