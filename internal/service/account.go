package service

import (
	"context"

	"github.com/shopspring/decimal"

	"backoffice-ledger/internal/domain"
	"backoffice-ledger/internal/logger"
	"backoffice-ledger/internal/repository"
)

type accountService struct {
	store repository.Store
	perms PermissionService
}

func NewAccountService(store repository.Store, perms PermissionService) AccountService {
	return &accountService{store: store, perms: perms}
}

// CreateAccount opens a ledger account; the creator becomes its billing admin
func (s *accountService) CreateAccount(ctx context.Context, userID int64, kind domain.AccountKind, name, email string, openingBalance decimal.Decimal) (*domain.Account, error) {
	logger.EnterMethod("accountService.CreateAccount", "userID", userID, "name", name)

	account, err := domain.NewAccount(kind, name, email, openingBalance)
	if err != nil {
		logger.ExitMethodWithError("accountService.CreateAccount", err, "name", name)
		return nil, err
	}

	err = s.store.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := tx.Accounts().Create(ctx, account); err != nil {
			return err
		}
		return tx.Users().AddMember(ctx, &domain.AccountMember{
			UserID:    userID,
			AccountID: account.ID,
			Role:      domain.MemberRoleBillingAdmin,
		})
	})
	if err != nil {
		logger.ExitMethodWithError("accountService.CreateAccount", err, "name", name)
		return nil, err
	}

	logger.ExitMethod("accountService.CreateAccount", "accountID", account.ID)
	return account, nil
}

func (s *accountService) GetAccount(ctx context.Context, userID, accountID int64) (*domain.Account, error) {
	if err := s.perms.RequireMember(ctx, userID, accountID); err != nil {
		return nil, err
	}
	return s.store.Accounts().GetByID(ctx, accountID)
}

func (s *accountService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	return s.store.Accounts().List(ctx)
}

// Debit is an administrative adjustment
func (s *accountService) Debit(ctx context.Context, userID, accountID int64, amount decimal.Decimal) (*domain.Account, error) {
	return s.adjust(ctx, "accountService.Debit", userID, accountID, func(ctx context.Context, accounts repository.AccountWriter) error {
		_, err := accounts.Debit(ctx, accountID, domain.RoundMoney(amount))
		return err
	})
}

// Credit is an administrative adjustment
func (s *accountService) Credit(ctx context.Context, userID, accountID int64, amount decimal.Decimal) (*domain.Account, error) {
	return s.adjust(ctx, "accountService.Credit", userID, accountID, func(ctx context.Context, accounts repository.AccountWriter) error {
		_, err := accounts.Credit(ctx, accountID, domain.RoundMoney(amount))
		return err
	})
}

func (s *accountService) adjust(ctx context.Context, method string, userID, accountID int64, apply func(context.Context, repository.AccountWriter) error) (*domain.Account, error) {
	logger.EnterMethod(method, "userID", userID, "accountID", accountID)

	if err := s.perms.RequireSystemAdmin(ctx, userID); err != nil {
		logger.ExitMethodWithError(method, err, "accountID", accountID)
		return nil, err
	}

	var account *domain.Account
	err := s.store.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		if err := apply(ctx, tx.Accounts()); err != nil {
			return err
		}
		var err error
		account, err = tx.Accounts().GetByID(ctx, accountID)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError(method, err, "accountID", accountID)
		return nil, err
	}

	logger.ExitMethod(method, "accountID", accountID, "balance", account.Balance.StringFixed(2))
	return account, nil
}
