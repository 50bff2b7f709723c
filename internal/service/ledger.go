package service

import (
	"context"
	"slices"

	"backoffice-ledger/internal/domain"
	"backoffice-ledger/internal/logger"
	"backoffice-ledger/internal/repository"
)

type moneyTransferService struct {
	store repository.Store
	perms PermissionService
}

func NewMoneyTransferService(store repository.Store, perms PermissionService) MoneyTransferService {
	return &moneyTransferService{store: store, perms: perms}
}

// Transfer pays amount to every recipient. With a sender, amount × recipients is
// debited from it in the same transaction; without one the credit is minted and
// needs a system administrator.
func (s *moneyTransferService) Transfer(ctx context.Context, userID int64, req TransferRequest) (*domain.Transaction, error) {
	logger.EnterMethod("moneyTransferService.Transfer", "userID", userID, "amount", req.Amount.String())

	txn, err := s.transfer(ctx, userID, req)
	if err != nil {
		logger.ExitMethodWithError("moneyTransferService.Transfer", err, "userID", userID)
		return nil, err
	}

	logger.ExitMethod("moneyTransferService.Transfer", "transactionID", txn.ID, "recipients", len(txn.RecipientAccountIDs))
	return txn, nil
}

func (s *moneyTransferService) transfer(ctx context.Context, userID int64, req TransferRequest) (*domain.Transaction, error) {
	amount := domain.RoundMoney(req.Amount)
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	recipients := make([]int64, 0, len(req.RecipientGroupIDs)+len(req.RecipientPrincipalIDs))
	recipients = append(recipients, req.RecipientGroupIDs...)
	recipients = append(recipients, req.RecipientPrincipalIDs...)
	seen := make(map[int64]bool, len(recipients))
	for _, id := range recipients {
		if seen[id] {
			return nil, domain.Errorf(domain.ErrValidation, "account %d listed twice as recipient", id)
		}
		if req.SenderAccountID != nil && id == *req.SenderAccountID {
			return nil, domain.Errorf(domain.ErrValidation, "sender account %d cannot also be a recipient", id)
		}
		seen[id] = true
	}

	if req.SenderAccountID != nil {
		if err := s.perms.RequireBillingAdmin(ctx, userID, *req.SenderAccountID); err != nil {
			return nil, err
		}
		if len(recipients) == 0 {
			logger.Warn("Transfer has a sender but no recipients; recording a transaction with no balance effect",
				"senderAccountID", *req.SenderAccountID)
		}
	} else if err := s.perms.RequireSystemAdmin(ctx, userID); err != nil {
		return nil, err
	}

	txn := &domain.Transaction{
		Amount:              amount,
		Communication:       req.Communication,
		SenderAccountID:     req.SenderAccountID,
		RecipientAccountIDs: recipients,
	}

	err := s.store.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		accounts := tx.Accounts()
		if err := checkKinds(ctx, accounts, req.RecipientGroupIDs, domain.AccountKindGroup); err != nil {
			return err
		}
		if err := checkKinds(ctx, accounts, req.RecipientPrincipalIDs, domain.AccountKindPrincipal); err != nil {
			return err
		}
		if req.SenderAccountID != nil {
			if _, err := accounts.GetByID(ctx, *req.SenderAccountID); err != nil {
				return err
			}
		}

		// account rows are locked in id order so concurrent transfers cannot deadlock
		ordered := slices.Clone(recipients)
		if req.SenderAccountID != nil && len(recipients) > 0 {
			ordered = append(ordered, *req.SenderAccountID)
		}
		slices.Sort(ordered)
		for _, id := range ordered {
			var err error
			if req.SenderAccountID != nil && id == *req.SenderAccountID {
				_, err = accounts.Debit(ctx, id, txn.SenderDebit())
			} else {
				_, err = accounts.Credit(ctx, id, amount)
			}
			if err != nil {
				return err
			}
		}

		return tx.Transactions().Create(ctx, txn)
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func checkKinds(ctx context.Context, accounts repository.AccountReader, ids []int64, kind domain.AccountKind) error {
	for _, id := range ids {
		acc, err := accounts.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if acc.Kind != kind {
			return domain.Errorf(domain.ErrValidation, "account %d is a %s, expected %s", id, acc.Kind, kind)
		}
	}
	return nil
}
