package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice-ledger/internal/domain"
	"backoffice-ledger/internal/service"
)

func TestPermissionService(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepo)
	perms := service.NewPermissionService(users)

	users.On("GetByID", ctxAny, int64(1)).Return(&domain.User{ID: 1, IsSystemAdmin: true}, nil)
	users.On("GetByID", ctxAny, int64(2)).Return(&domain.User{ID: 2}, nil)
	users.On("GetByID", ctxAny, int64(3)).Return(&domain.User{ID: 3}, nil)
	users.On("GetByID", ctxAny, int64(4)).Return(&domain.User{ID: 4}, nil)
	users.On("GetByID", ctxAny, int64(99)).Return(nil, domain.ErrUserNotFound)
	users.On("GetMemberRole", ctxAny, int64(2), int64(10)).Return(domain.MemberRoleBillingAdmin, nil)
	users.On("GetMemberRole", ctxAny, int64(3), int64(10)).Return(domain.MemberRoleMember, nil)
	users.On("GetMemberRole", ctxAny, int64(4), int64(10)).Return(domain.MemberRole(""), domain.ErrNotFound)

	t.Run("SystemAdminPassesEverything", func(t *testing.T) {
		ok, err := perms.HasBillingAdminRole(ctx, 1, 10)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, perms.RequireMember(ctx, 1, 10))
		assert.NoError(t, perms.RequireSystemAdmin(ctx, 1))
	})

	t.Run("BillingAdmin", func(t *testing.T) {
		assert.NoError(t, perms.RequireBillingAdmin(ctx, 2, 10))
		assert.NoError(t, perms.RequireMember(ctx, 2, 10))
		assert.ErrorIs(t, perms.RequireSystemAdmin(ctx, 2), domain.ErrPermission)
	})

	t.Run("PlainMember", func(t *testing.T) {
		assert.NoError(t, perms.RequireMember(ctx, 3, 10))
		assert.ErrorIs(t, perms.RequireBillingAdmin(ctx, 3, 10), domain.ErrPermission)
	})

	t.Run("Outsider", func(t *testing.T) {
		ok, err := perms.HasBillingAdminRole(ctx, 4, 10)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.ErrorIs(t, perms.RequireMember(ctx, 4, 10), domain.ErrPermission)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		assert.ErrorIs(t, perms.RequireMember(ctx, 99, 10), domain.ErrPermission)
		assert.ErrorIs(t, perms.RequireSystemAdmin(ctx, 99), domain.ErrPermission)
	})

	t.Run("RepositoryFailurePropagates", func(t *testing.T) {
		broken := new(MockUserRepo)
		broken.On("GetByID", ctxAny, int64(5)).Return(nil, errors.New("connection reset"))

		err := service.NewPermissionService(broken).RequireMember(ctx, 5, 10)
		require.Error(t, err)
		assert.NotEqual(t, domain.KindPermission, domain.KindOf(err))
	})
}
