package service

import (
	"context"

	"backoffice-ledger/internal/clock"
	"backoffice-ledger/internal/domain"
	"backoffice-ledger/internal/logger"
	"backoffice-ledger/internal/render"
	"backoffice-ledger/internal/repository"
)

type reminderService struct {
	store    repository.Store
	clock    clock.Clock
	settings BillingSettings
	mailer   Mailer
	renderer render.DocumentRenderer
}

func NewReminderService(store repository.Store, clk clock.Clock, settings BillingSettings, mailer Mailer, renderer render.DocumentRenderer) ReminderService {
	return &reminderService{store: store, clock: clk, settings: settings, mailer: mailer, renderer: renderer}
}

// SendPaymentReminders escalates every overdue invoice by at most one rung per run.
// A level is claimed before sending and released again if the client could not be reached.
func (s *reminderService) SendPaymentReminders(ctx context.Context) (*BatchReport, error) {
	logger.EnterMethod("reminderService.SendPaymentReminders")

	now := s.clock.Now()
	invoices, err := s.store.Invoices().ListOverdue(ctx, now)
	if err != nil {
		logger.ExitMethodWithError("reminderService.SendPaymentReminders", err)
		return nil, err
	}

	report := &BatchReport{}
	for i := range invoices {
		if err := ctx.Err(); err != nil {
			break
		}
		inv := &invoices[i]
		report.Processed++

		step, due := s.settings.Ladder.Next(domain.DaysOverdue(inv.PaymentDeadline, now), inv.ReminderLevel)
		if !due {
			report.Skipped++
			continue
		}

		sent, err := s.remind(ctx, inv, step)
		switch {
		case err != nil:
			report.Failed++
			logger.Error("Failed to send payment reminder", "invoiceID", inv.ID, "level", step.Level, "error", err)
		case !sent:
			report.Skipped++
		default:
			report.Succeeded++
		}
	}

	logger.ExitMethod("reminderService.SendPaymentReminders", "processed", report.Processed,
		"succeeded", report.Succeeded, "skipped", report.Skipped, "failed", report.Failed)
	return report, nil
}

func (s *reminderService) remind(ctx context.Context, inv *domain.Invoice, step domain.ReminderStep) (bool, error) {
	previousLevel, previousStatus := inv.ReminderLevel, inv.Status

	claimed, err := s.store.Invoices().ClaimReminder(ctx, inv.ID, step.Level, step.Status)
	if err != nil {
		return false, err
	}
	if !claimed {
		logger.Info("Reminder already claimed, skipping", "invoiceID", inv.ID, "level", step.Level)
		return false, nil
	}

	if err := s.notify(ctx, inv, step.Level); err != nil {
		if releaseErr := s.store.Invoices().ReleaseReminder(ctx, inv.ID, step.Level, previousLevel, previousStatus); releaseErr != nil {
			logger.Error("Failed to release reminder claim", "invoiceID", inv.ID, "level", step.Level, "error", releaseErr)
		}
		return false, err
	}

	inv.ReminderLevel, inv.Status = step.Level, step.Status
	return true, nil
}

// notify reminds the client and sends the account owner a copy at the same time.
// Only the client's delivery decides the outcome.
func (s *reminderService) notify(ctx context.Context, inv *domain.Invoice, level int) error {
	client, err := s.store.Clients().GetByID(ctx, inv.ClientID)
	if err != nil {
		return err
	}
	account, err := s.store.Accounts().GetByID(ctx, inv.AccountID)
	if err != nil {
		return err
	}

	var doc *Attachment
	if inv.LineItems, err = s.store.LineItems().ListByInvoice(ctx, inv.ID); err != nil {
		logger.Warn("Reminder sent without invoice lines", "invoiceID", inv.ID, "error", err)
	}
	if data, err := s.renderer.RenderInvoice(inv, client, account); err != nil {
		logger.Warn("Reminder sent without invoice document", "invoiceID", inv.ID, "error", err)
	} else {
		doc = &Attachment{Name: inv.Reference() + ".html", ContentType: htmlContentType, Data: data}
	}

	notes := []notification{
		{name: "reminder to client", send: func(ctx context.Context) error {
			return s.mailer.SendReminder(ctx, Recipient{Email: client.Email, Name: client.DisplayName()}, inv, level, doc)
		}},
		{name: "reminder copy to account owner", send: func(ctx context.Context) error {
			return s.mailer.SendReminder(ctx, Recipient{Email: account.Email, Name: account.Name}, inv, level, doc)
		}},
	}
	errs := fanOut(ctx, notes...)
	if errs[1] != nil {
		logger.Warn("Reminder copy to account owner failed", "invoiceID", inv.ID, "error", errs[1])
	}
	return errs[0]
}
