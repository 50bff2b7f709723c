package service

import (
	"context"
	"errors"

	"backoffice-ledger/internal/domain"
	"backoffice-ledger/internal/repository"
)

type permissionService struct {
	users repository.UserRepository
}

// NewPermissionService checks account roles. System administrators pass every check.
func NewPermissionService(users repository.UserRepository) PermissionService {
	return &permissionService{users: users}
}

// permsWithin rebinds the database-backed checks to tx so they read memberships
// in the same transaction that holds the row locks. Other implementations pass through.
func permsWithin(perms PermissionService, tx repository.Tx) PermissionService {
	if _, ok := perms.(*permissionService); ok {
		return &permissionService{users: tx.Users()}
	}
	return perms
}

func (s *permissionService) role(ctx context.Context, userID, accountID int64) (domain.MemberRole, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.Errorf(domain.ErrPermission, "unknown user %d", userID)
		}
		return "", err
	}
	if user.IsSystemAdmin {
		return domain.MemberRoleBillingAdmin, nil
	}
	role, err := s.users.GetMemberRole(ctx, userID, accountID)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return role, nil
}

func (s *permissionService) HasBillingAdminRole(ctx context.Context, userID, accountID int64) (bool, error) {
	role, err := s.role(ctx, userID, accountID)
	if err != nil {
		return false, err
	}
	return role == domain.MemberRoleBillingAdmin, nil
}

func (s *permissionService) RequireBillingAdmin(ctx context.Context, userID, accountID int64) error {
	ok, err := s.HasBillingAdminRole(ctx, userID, accountID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.Errorf(domain.ErrPermission, "user %d is not a billing admin of account %d", userID, accountID)
	}
	return nil
}

func (s *permissionService) RequireMember(ctx context.Context, userID, accountID int64) error {
	role, err := s.role(ctx, userID, accountID)
	if err != nil {
		return err
	}
	if role == "" {
		return domain.Errorf(domain.ErrPermission, "user %d is not a member of account %d", userID, accountID)
	}
	return nil
}

func (s *permissionService) RequireSystemAdmin(ctx context.Context, userID int64) error {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.Errorf(domain.ErrPermission, "unknown user %d", userID)
	}
	if err != nil {
		return err
	}
	if !user.IsSystemAdmin {
		return domain.Errorf(domain.ErrPermission, "user %d is not a system administrator", userID)
	}
	return nil
}
