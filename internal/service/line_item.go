package service

import (
	"context"

	"backoffice-ledger/internal/domain"
	"backoffice-ledger/internal/logger"
	"backoffice-ledger/internal/repository"
)

type lineItemService struct {
	store repository.Store
	perms PermissionService
}

func NewLineItemService(store repository.Store, perms PermissionService) LineItemService {
	return &lineItemService{store: store, perms: perms}
}

func (s *lineItemService) CreateLineItem(ctx context.Context, userID int64, in LineItemInput) (*domain.LineItem, error) {
	logger.EnterMethod("lineItemService.CreateLineItem", "userID", userID, "accountID", in.AccountID)

	if err := s.perms.RequireMember(ctx, userID, in.AccountID); err != nil {
		logger.ExitMethodWithError("lineItemService.CreateLineItem", err, "accountID", in.AccountID)
		return nil, err
	}

	item, err := domain.NewLineItem(in.AccountID, in.Description, in.UnitPrice, in.Quantity, in.VATRate)
	if err != nil {
		logger.ExitMethodWithError("lineItemService.CreateLineItem", err, "accountID", in.AccountID)
		return nil, err
	}
	if err := s.store.LineItems().Create(ctx, item); err != nil {
		logger.ExitMethodWithError("lineItemService.CreateLineItem", err, "accountID", in.AccountID)
		return nil, err
	}

	logger.ExitMethod("lineItemService.CreateLineItem", "lineItemID", item.ID)
	return item, nil
}

// UpdateLineItem rewrites an item that no quote or invoice owns yet
func (s *lineItemService) UpdateLineItem(ctx context.Context, userID, lineItemID int64, in LineItemInput) (*domain.LineItem, error) {
	logger.EnterMethod("lineItemService.UpdateLineItem", "userID", userID, "lineItemID", lineItemID)

	var item *domain.LineItem
	err := s.store.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		items, err := tx.LineItems().GetByIDsForUpdate(ctx, []int64{lineItemID})
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return domain.Errorf(domain.ErrLineItemNotFound, "line item %d not found", lineItemID)
		}
		item = &items[0]

		if err := permsWithin(s.perms, tx).RequireMember(ctx, userID, item.AccountID); err != nil {
			return err
		}
		if item.IsAttached() {
			return domain.Errorf(domain.ErrLineItemAttached, "line item %d is already attached", lineItemID)
		}

		item.Description = in.Description
		item.UnitPrice = in.UnitPrice
		item.Quantity = in.Quantity
		item.VATRate = in.VATRate
		if err := item.Validate(); err != nil {
			return err
		}
		item.Recompute(false)
		return tx.LineItems().Update(ctx, item)
	})
	if err != nil {
		logger.ExitMethodWithError("lineItemService.UpdateLineItem", err, "lineItemID", lineItemID)
		return nil, err
	}

	logger.ExitMethod("lineItemService.UpdateLineItem", "lineItemID", lineItemID)
	return item, nil
}
