package service

import (
	"context"
	"errors"
	"strings"

	"backoffice-ledger/internal/clock"
	"backoffice-ledger/internal/domain"
	"backoffice-ledger/internal/logger"
	"backoffice-ledger/internal/repository"
)

type quoteService struct {
	store    repository.Store
	perms    PermissionService
	clock    clock.Clock
	settings BillingSettings
	mailer   Mailer
}

func NewQuoteService(store repository.Store, perms PermissionService, clk clock.Clock, settings BillingSettings, mailer Mailer) QuoteService {
	return &quoteService{store: store, perms: perms, clock: clk, settings: settings, mailer: mailer}
}

// CreateQuote prices the given line items, numbers the quote and claims the items for it.
// The client and the account owner are notified once the quote is committed.
func (s *quoteService) CreateQuote(ctx context.Context, userID int64, in CreateQuoteInput) (*QuoteResult, error) {
	logger.EnterMethod("quoteService.CreateQuote", "userID", userID, "accountID", in.AccountID, "clientID", in.ClientID)

	ids := uniqueIDs(in.LineItemIDs)
	if err := s.validateCreate(in, ids); err != nil {
		logger.ExitMethodWithError("quoteService.CreateQuote", err, "accountID", in.AccountID)
		return nil, err
	}
	if err := s.perms.RequireMember(ctx, userID, in.AccountID); err != nil {
		logger.ExitMethodWithError("quoteService.CreateQuote", err, "accountID", in.AccountID)
		return nil, err
	}

	now := s.clock.Now()
	var (
		quote   *domain.Quote
		client  *domain.Client
		account *domain.Account
	)
	err := s.store.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		if client, err = tx.Clients().GetByID(ctx, in.ClientID); err != nil {
			return err
		}
		if account, err = tx.Accounts().GetByID(ctx, in.AccountID); err != nil {
			return err
		}
		items, err := loadFreeLineItems(ctx, tx, in.AccountID, ids)
		if err != nil {
			return err
		}

		number, err := NewDocumentNumberingService(tx.Accounts()).NextQuoteNumber(ctx, in.AccountID)
		if err != nil {
			return err
		}

		validUntil := now.AddDate(0, s.settings.QuoteValidationMonths, 0)
		if in.ValidationDeadline != nil {
			validUntil = *in.ValidationDeadline
		}
		quote = &domain.Quote{
			AccountID:            in.AccountID,
			ClientID:             in.ClientID,
			QuoteNumber:          number,
			QuoteDate:            now,
			ServiceDate:          in.ServiceDate,
			PaymentDeadlineDays:  in.PaymentDeadlineDays,
			ValidationDeadline:   validUntil,
			Status:               domain.QuoteStatusPending,
			GroupAcceptance:      domain.AcceptancePending,
			OrderGiverAcceptance: domain.AcceptancePending,
			Totals:               domain.SumTotals(items),
		}
		if err := tx.Quotes().Create(ctx, quote); err != nil {
			return err
		}
		if err := tx.LineItems().AttachToQuote(ctx, ids, quote.ID); err != nil {
			return err
		}
		for i := range items {
			items[i].QuoteID = &quote.ID
		}
		quote.LineItems = items
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("quoteService.CreateQuote", err, "accountID", in.AccountID)
		return nil, err
	}

	notes := []notification{
		{name: "quote to client", send: func(ctx context.Context) error {
			return s.mailer.SendQuote(ctx, Recipient{Email: client.Email, Name: client.DisplayName()}, quote, account.Name)
		}},
		{name: "quote to account owner", send: func(ctx context.Context) error {
			return s.mailer.SendQuote(ctx, Recipient{Email: account.Email, Name: account.Name}, quote, account.Name)
		}},
	}
	errs := fanOut(ctx, notes...)
	for i, err := range errs {
		if err != nil {
			logger.Error("Quote notification failed", "quoteID", quote.ID, "notification", notes[i].name, "error", err)
		}
	}

	logger.ExitMethod("quoteService.CreateQuote", "quoteID", quote.ID, "quoteNumber", quote.QuoteNumber)
	return &QuoteResult{Quote: quote, Warnings: warningsFrom(notes, errs)}, nil
}

func (s *quoteService) validateCreate(in CreateQuoteInput, ids []int64) error {
	if len(ids) == 0 {
		return domain.Errorf(domain.ErrValidation, "a quote needs at least one line item")
	}
	if in.ServiceDate.IsZero() {
		return domain.Errorf(domain.ErrValidation, "service date is required")
	}
	if in.PaymentDeadlineDays < 0 {
		return domain.Errorf(domain.ErrValidation, "payment deadline days cannot be negative")
	}
	return nil
}

// loadFreeLineItems locks the items and checks they all exist, belong to the account and are unattached
func loadFreeLineItems(ctx context.Context, tx repository.Tx, accountID int64, ids []int64) ([]domain.LineItem, error) {
	items, err := tx.LineItems().GetByIDsForUpdate(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(items) != len(ids) {
		return nil, domain.Errorf(domain.ErrLineItemNotFound, "%d of %d line items not found", len(ids)-len(items), len(ids))
	}
	for i := range items {
		if items[i].AccountID != accountID {
			return nil, domain.Errorf(domain.ErrValidation, "line item %d belongs to another account", items[i].ID)
		}
		if items[i].IsAttached() {
			return nil, domain.Errorf(domain.ErrLineItemAttached, "line item %d is already attached", items[i].ID)
		}
	}
	return items, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func (s *quoteService) GetQuote(ctx context.Context, quoteID int64) (*domain.Quote, error) {
	quote, err := s.store.Quotes().GetByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if quote.LineItems, err = s.store.LineItems().ListByQuote(ctx, quoteID); err != nil {
		return nil, err
	}
	return quote, nil
}

func (s *quoteService) RecordGroupAcceptance(ctx context.Context, userID, quoteID int64) (*domain.Quote, error) {
	return s.answer(ctx, "quoteService.RecordGroupAcceptance", userID, quoteID, domain.PartyGroup, domain.AcceptanceAccepted)
}

func (s *quoteService) RecordOrderGiverAcceptance(ctx context.Context, userID, quoteID int64) (*domain.Quote, error) {
	return s.answer(ctx, "quoteService.RecordOrderGiverAcceptance", userID, quoteID, domain.PartyOrderGiver, domain.AcceptanceAccepted)
}

func (s *quoteService) RecordGroupRejection(ctx context.Context, userID, quoteID int64) (*domain.Quote, error) {
	return s.answer(ctx, "quoteService.RecordGroupRejection", userID, quoteID, domain.PartyGroup, domain.AcceptanceRefused)
}

func (s *quoteService) RecordOrderGiverRejection(ctx context.Context, userID, quoteID int64) (*domain.Quote, error) {
	return s.answer(ctx, "quoteService.RecordOrderGiverRejection", userID, quoteID, domain.PartyOrderGiver, domain.AcceptanceRefused)
}

// answer records one party's decision with the quote row locked, so two answers
// arriving together are applied one after the other and the status always reflects both.
// The group answers through a member of the issuing account. The order giver answers as the
// user whose e-mail matches the quote's client, or through a billing admin recording it for them.
func (s *quoteService) answer(ctx context.Context, method string, userID, quoteID int64, party domain.Party, answer domain.Acceptance) (*domain.Quote, error) {
	logger.EnterMethod(method, "userID", userID, "quoteID", quoteID)

	var quote *domain.Quote
	err := s.store.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		if quote, err = tx.Quotes().GetForUpdate(ctx, quoteID); err != nil {
			return err
		}
		perms := permsWithin(s.perms, tx)
		if party == domain.PartyGroup {
			err = perms.RequireMember(ctx, userID, quote.AccountID)
		} else {
			err = requireOrderGiver(ctx, tx, perms, userID, quote)
		}
		if err != nil {
			return err
		}
		if err := quote.RecordAnswer(party, answer); err != nil {
			return err
		}
		return tx.Quotes().Update(ctx, quote)
	})
	if err != nil {
		logger.ExitMethodWithError(method, err, "quoteID", quoteID)
		return nil, err
	}

	logger.ExitMethod(method, "quoteID", quoteID, "status", quote.Status)
	return quote, nil
}

// CancelQuote withdraws a quote. An invoiced quote stays pending cancellation until its invoice is credited.
func (s *quoteService) CancelQuote(ctx context.Context, userID, quoteID int64) (*domain.Quote, error) {
	logger.EnterMethod("quoteService.CancelQuote", "userID", userID, "quoteID", quoteID)

	var quote *domain.Quote
	err := s.store.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		if quote, err = tx.Quotes().GetForUpdate(ctx, quoteID); err != nil {
			return err
		}
		if err := permsWithin(s.perms, tx).RequireBillingAdmin(ctx, userID, quote.AccountID); err != nil {
			return err
		}
		if err := quote.Cancel(); err != nil {
			return err
		}
		return tx.Quotes().Update(ctx, quote)
	})
	if err != nil {
		logger.ExitMethodWithError("quoteService.CancelQuote", err, "quoteID", quoteID)
		return nil, err
	}

	logger.ExitMethod("quoteService.CancelQuote", "quoteID", quoteID, "status", quote.Status)
	return quote, nil
}

func requireOrderGiver(ctx context.Context, tx repository.Tx, perms PermissionService, userID int64, quote *domain.Quote) error {
	user, err := tx.Users().GetByID(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.Errorf(domain.ErrPermission, "unknown user %d", userID)
	}
	if err != nil {
		return err
	}
	client, err := tx.Clients().GetByID(ctx, quote.ClientID)
	if err != nil {
		return err
	}
	if client.Email != "" && strings.EqualFold(strings.TrimSpace(user.Email), strings.TrimSpace(client.Email)) {
		return nil
	}
	err = perms.RequireBillingAdmin(ctx, userID, quote.AccountID)
	if errors.Is(err, domain.ErrPermission) {
		return domain.Errorf(domain.ErrPermission, "user %d is not the order giver of quote %d", userID, quote.ID)
	}
	return err
}
