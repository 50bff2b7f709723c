package service

import (
	"context"
	"errors"
	"time"

	"backoffice-ledger/internal/clock"
	"backoffice-ledger/internal/domain"
	"backoffice-ledger/internal/logger"
	"backoffice-ledger/internal/render"
	"backoffice-ledger/internal/repository"
	"backoffice-ledger/internal/storage"
)

type invoiceService struct {
	store     repository.Store
	perms     PermissionService
	clock     clock.Clock
	settings  BillingSettings
	publisher *documentPublisher
}

func NewInvoiceService(store repository.Store, perms PermissionService, clk clock.Clock, settings BillingSettings,
	mailer Mailer, renderer render.DocumentRenderer, objects storage.ObjectStore) InvoiceService {
	return &invoiceService{
		store:     store,
		perms:     perms,
		clock:     clk,
		settings:  settings,
		publisher: &documentPublisher{store: store, mailer: mailer, renderer: renderer, objects: objects},
	}
}

// CreateFromQuote issues the invoice of an accepted quote on behalf of accountID
func (s *invoiceService) CreateFromQuote(ctx context.Context, userID, quoteID, accountID int64) (*DocumentResult, error) {
	logger.EnterMethod("invoiceService.CreateFromQuote", "userID", userID, "quoteID", quoteID, "accountID", accountID)

	if err := s.perms.RequireMember(ctx, userID, accountID); err != nil {
		logger.ExitMethodWithError("invoiceService.CreateFromQuote", err, "quoteID", quoteID)
		return nil, err
	}

	inv, err := s.createFromQuote(ctx, quoteID, accountID, s.clock.Now())
	if err != nil {
		logger.ExitMethodWithError("invoiceService.CreateFromQuote", err, "quoteID", quoteID)
		return nil, err
	}

	key, warnings := s.publisher.publish(ctx, inv)

	logger.ExitMethod("invoiceService.CreateFromQuote", "invoiceID", inv.ID, "invoiceNumber", inv.InvoiceNumber, "warnings", len(warnings))
	return &DocumentResult{Invoice: inv, DocumentKey: key, Warnings: warnings}, nil
}

// createFromQuote commits the invoice, its copied line items, the number allocation and the
// quote's move to invoiced as one unit
func (s *invoiceService) createFromQuote(ctx context.Context, quoteID, accountID int64, now time.Time) (*domain.Invoice, error) {
	var inv *domain.Invoice
	err := s.store.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		quote, err := tx.Quotes().GetForUpdate(ctx, quoteID)
		if err != nil {
			return err
		}
		if err := quote.CheckInvoiceable(); err != nil {
			return err
		}
		if quote.AccountID != accountID {
			return domain.Errorf(domain.ErrValidation, "quote %d was not issued by account %d", quoteID, accountID)
		}
		if quote.LineItems, err = tx.LineItems().ListByQuote(ctx, quoteID); err != nil {
			return err
		}

		number, err := NewDocumentNumberingService(tx.Accounts()).NextInvoiceNumber(ctx, accountID)
		if err != nil {
			return err
		}
		inv = domain.NewInvoiceFromQuote(quote, number, now)
		if err := tx.Invoices().Create(ctx, inv); err != nil {
			return err
		}
		for i := range inv.LineItems {
			inv.LineItems[i].InvoiceID = &inv.ID
			if err := tx.LineItems().Create(ctx, &inv.LineItems[i]); err != nil {
				return err
			}
		}

		quote.Status = domain.QuoteStatusInvoiced
		quote.InvoiceID = &inv.ID
		return tx.Quotes().Update(ctx, quote)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// AutoInvoicePastDue invoices accepted quotes whose service date is older than the grace period.
// Quotes invoiced meanwhile are skipped, so a re-run never double-invoices.
func (s *invoiceService) AutoInvoicePastDue(ctx context.Context) (*BatchReport, error) {
	logger.EnterMethod("invoiceService.AutoInvoicePastDue")

	now := s.clock.Now()
	cutoff := now.AddDate(0, 0, -s.settings.AutoInvoiceGraceDays)
	quotes, err := s.store.Quotes().ListAcceptedWithServiceBefore(ctx, cutoff)
	if err != nil {
		logger.ExitMethodWithError("invoiceService.AutoInvoicePastDue", err)
		return nil, err
	}

	report := &BatchReport{}
	for _, q := range quotes {
		if err := ctx.Err(); err != nil {
			break
		}
		report.Processed++

		inv, err := s.createFromQuote(ctx, q.ID, q.AccountID, now)
		switch {
		case err == nil:
			report.Succeeded++
			if _, warnings := s.publisher.publish(ctx, inv); len(warnings) > 0 {
				logger.Warn("Auto invoice issued with warnings", "invoiceID", inv.ID, "warnings", warnings)
			}
		case errors.Is(err, domain.ErrInvoiceAlreadyExists) || errors.Is(err, domain.ErrConflict):
			report.Skipped++
			logger.Info("Quote no longer invoiceable, skipping", "quoteID", q.ID, "reason", err)
		default:
			report.Failed++
			logger.Error("Failed to auto invoice quote", "quoteID", q.ID, "error", err)
		}
	}

	logger.ExitMethod("invoiceService.AutoInvoicePastDue", "processed", report.Processed, "succeeded", report.Succeeded,
		"skipped", report.Skipped, "failed", report.Failed)
	return report, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, invoiceID int64) (*domain.Invoice, error) {
	inv, err := s.store.Invoices().GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.LineItems, err = s.store.LineItems().ListByInvoice(ctx, invoiceID); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *invoiceService) MarkInvoicePaid(ctx context.Context, userID, invoiceID int64) (*domain.Invoice, error) {
	logger.EnterMethod("invoiceService.MarkInvoicePaid", "userID", userID, "invoiceID", invoiceID)

	var inv *domain.Invoice
	err := s.store.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		if inv, err = tx.Invoices().GetForUpdate(ctx, invoiceID); err != nil {
			return err
		}
		if err := permsWithin(s.perms, tx).RequireBillingAdmin(ctx, userID, inv.AccountID); err != nil {
			return err
		}
		if err := inv.MarkPaid(); err != nil {
			return err
		}
		return tx.Invoices().Update(ctx, inv)
	})
	if err != nil {
		logger.ExitMethodWithError("invoiceService.MarkInvoicePaid", err, "invoiceID", invoiceID)
		return nil, err
	}

	logger.ExitMethod("invoiceService.MarkInvoicePaid", "invoiceID", invoiceID)
	return inv, nil
}

// DeleteInvoice removes an invoice or credit note. Numbers are never handed out again.
// Deleting an invoice never reopens its quote for billing; deleting a credit note frees the invoice it reversed.
func (s *invoiceService) DeleteInvoice(ctx context.Context, userID, invoiceID int64) error {
	logger.EnterMethod("invoiceService.DeleteInvoice", "userID", userID, "invoiceID", invoiceID)

	if err := s.perms.RequireSystemAdmin(ctx, userID); err != nil {
		logger.ExitMethodWithError("invoiceService.DeleteInvoice", err, "invoiceID", invoiceID)
		return err
	}

	err := s.store.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		inv, err := tx.Invoices().GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}

		if inv.IsCreditNote() {
			if err := releaseCreditedInvoice(ctx, tx, inv.ID); err != nil {
				return err
			}
		} else if inv.QuoteID != nil {
			if err := releaseInvoicedQuote(ctx, tx, *inv.QuoteID); err != nil {
				return err
			}
		}
		return tx.Invoices().Delete(ctx, invoiceID)
	})
	if err != nil {
		logger.ExitMethodWithError("invoiceService.DeleteInvoice", err, "invoiceID", invoiceID)
		return err
	}

	logger.ExitMethod("invoiceService.DeleteInvoice", "invoiceID", invoiceID)
	return nil
}

func releaseCreditedInvoice(ctx context.Context, tx repository.Tx, creditNoteID int64) error {
	original, err := tx.Invoices().GetByLinkedInvoiceID(ctx, creditNoteID)
	if errors.Is(err, domain.ErrInvoiceNotFound) {
		// standalone credit note
		return nil
	}
	if err != nil {
		return err
	}
	original.LinkedInvoiceID = nil
	if original.Status == domain.InvoiceStatusCredited {
		original.Status = domain.InvoiceStatusPaymentPending
	}
	return tx.Invoices().Update(ctx, original)
}

func releaseInvoicedQuote(ctx context.Context, tx repository.Tx, quoteID int64) error {
	quote, err := tx.Quotes().GetForUpdate(ctx, quoteID)
	if err != nil {
		return err
	}
	// the quote stays invoiced so it cannot be billed a second time
	quote.InvoiceID = nil
	if quote.Status == domain.QuoteStatusPendingCancellation {
		quote.Status = domain.QuoteStatusCancelled
	}
	return tx.Quotes().Update(ctx, quote)
}
