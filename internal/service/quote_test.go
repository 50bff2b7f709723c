package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"backoffice-ledger/internal/clock"
	"backoffice-ledger/internal/domain"
	"backoffice-ledger/internal/service"
)

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func testSettings() service.BillingSettings {
	return service.BillingSettings{
		QuoteValidationMonths: 1,
		AutoInvoiceGraceDays:  1,
		Ladder:                domain.DefaultReminderLadder(),
		TransferNoticeEmail:   "bank@backoffice.test",
	}
}

func lineItem(id, accountID int64, unitPrice, qty, rate string) domain.LineItem {
	li, err := domain.NewLineItem(accountID, "performance", dec(unitPrice), dec(qty), dec(rate))
	if err != nil {
		panic(err)
	}
	li.ID = id
	return *li
}

func testClient() *domain.Client {
	return &domain.Client{ID: 7, Name: "Jan", CompanyName: "Venue", Email: "booker@venue.test"}
}

func testAccount() *domain.Account {
	return &domain.Account{ID: 1, Kind: domain.AccountKindGroup, Name: "The Band", Email: "band@backoffice.test"}
}

func TestQuoteService_CreateQuote(t *testing.T) {
	ctx := context.Background()
	input := service.CreateQuoteInput{
		AccountID:           1,
		ClientID:            7,
		LineItemIDs:         []int64{10, 11, 10},
		ServiceDate:         now.AddDate(0, 0, 14),
		PaymentDeadlineDays: 30,
	}

	t.Run("TotalsAndNumbering", func(t *testing.T) {
		store := newMockStore()
		perms := new(MockPerms)
		mailer := new(MockMailer)
		svc := service.NewQuoteService(store, perms, clock.NewFixed(now), testSettings(), mailer)

		perms.On("RequireMember", ctxAny, int64(9), int64(1)).Return(nil)
		store.clients.On("GetByID", ctxAny, int64(7)).Return(testClient(), nil)
		store.accounts.On("GetByID", ctxAny, int64(1)).Return(testAccount(), nil)
		store.lineItems.On("GetByIDsForUpdate", ctxAny, []int64{10, 11}).Return([]domain.LineItem{
			lineItem(10, 1, "100", "1", "0.21"),
			lineItem(11, 1, "25", "2", "0.06"),
		}, nil)
		store.accounts.On("AllocateQuoteNumber", ctxAny, int64(1)).Return(int64(4), nil)
		store.quotes.On("Create", ctxAny, mock.AnythingOfType("*domain.Quote")).
			Run(func(args mock.Arguments) { args.Get(1).(*domain.Quote).ID = 100 }).
			Return(nil)
		store.lineItems.On("AttachToQuote", ctxAny, []int64{10, 11}, int64(100)).Return(nil)
		mailer.On("SendQuote", ctxAny, service.Recipient{Email: "booker@venue.test", Name: "Venue"}, mock.Anything, "The Band").Return(nil)
		mailer.On("SendQuote", ctxAny, service.Recipient{Email: "band@backoffice.test", Name: "The Band"}, mock.Anything, "The Band").
			Return(errors.New("smtp down"))

		res, err := svc.CreateQuote(ctx, 9, input)
		require.NoError(t, err)

		q := res.Quote
		assert.Equal(t, int64(4), q.QuoteNumber)
		assert.Equal(t, domain.QuoteStatusPending, q.Status)
		assert.True(t, q.PriceExclVAT.Equal(dec("150")))
		assert.True(t, q.VATAt21.Equal(dec("21")))
		assert.True(t, q.VATAt6.Equal(dec("3")))
		assert.True(t, q.Total.Equal(dec("174")))
		assert.Equal(t, now.AddDate(0, 1, 0), q.ValidationDeadline)
		for _, li := range q.LineItems {
			require.NotNil(t, li.QuoteID)
			assert.Equal(t, int64(100), *li.QuoteID)
		}
		require.Len(t, res.Warnings, 1)
		assert.Contains(t, res.Warnings[0], "account owner")
		mailer.AssertNumberOfCalls(t, "SendQuote", 2)
	})

	t.Run("AttachedItemRejected", func(t *testing.T) {
		store := newMockStore()
		perms := new(MockPerms)
		svc := service.NewQuoteService(store, perms, clock.NewFixed(now), testSettings(), new(MockMailer))

		taken := lineItem(11, 1, "25", "2", "0.06")
		other := int64(55)
		taken.QuoteID = &other

		perms.On("RequireMember", ctxAny, int64(9), int64(1)).Return(nil)
		store.clients.On("GetByID", ctxAny, int64(7)).Return(testClient(), nil)
		store.accounts.On("GetByID", ctxAny, int64(1)).Return(testAccount(), nil)
		store.lineItems.On("GetByIDsForUpdate", ctxAny, []int64{10, 11}).
			Return([]domain.LineItem{lineItem(10, 1, "100", "1", "0.21"), taken}, nil)

		_, err := svc.CreateQuote(ctx, 9, input)
		assert.ErrorIs(t, err, domain.ErrLineItemAttached)
		store.accounts.AssertNotCalled(t, "AllocateQuoteNumber", mock.Anything, mock.Anything)
	})

	t.Run("MissingItem", func(t *testing.T) {
		store := newMockStore()
		perms := new(MockPerms)
		svc := service.NewQuoteService(store, perms, clock.NewFixed(now), testSettings(), new(MockMailer))

		perms.On("RequireMember", ctxAny, int64(9), int64(1)).Return(nil)
		store.clients.On("GetByID", ctxAny, int64(7)).Return(testClient(), nil)
		store.accounts.On("GetByID", ctxAny, int64(1)).Return(testAccount(), nil)
		store.lineItems.On("GetByIDsForUpdate", ctxAny, []int64{10, 11}).
			Return([]domain.LineItem{lineItem(10, 1, "100", "1", "0.21")}, nil)

		_, err := svc.CreateQuote(ctx, 9, input)
		assert.ErrorIs(t, err, domain.ErrLineItemNotFound)
	})

	t.Run("NoItems", func(t *testing.T) {
		svc := service.NewQuoteService(newMockStore(), new(MockPerms), clock.NewFixed(now), testSettings(), new(MockMailer))
		_, err := svc.CreateQuote(ctx, 9, service.CreateQuoteInput{AccountID: 1, ClientID: 7, ServiceDate: now})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func pendingQuote() *domain.Quote {
	return &domain.Quote{
		ID:                   100,
		AccountID:            1,
		ClientID:             7,
		Status:               domain.QuoteStatusPending,
		GroupAcceptance:      domain.AcceptancePending,
		OrderGiverAcceptance: domain.AcceptancePending,
	}
}

func TestQuoteService_Acceptance(t *testing.T) {
	ctx := context.Background()

	t.Run("BothSidesAccept", func(t *testing.T) {
		store := newMockStore()
		perms := new(MockPerms)
		svc := service.NewQuoteService(store, perms, clock.NewFixed(now), testSettings(), new(MockMailer))

		q := pendingQuote()
		store.quotes.On("GetForUpdate", ctxAny, int64(100)).Return(q, nil)
		store.quotes.On("Update", ctxAny, q).Return(nil)
		perms.On("RequireMember", ctxAny, int64(9), int64(1)).Return(nil)
		expectOrderGiver(store)

		got, err := svc.RecordGroupAcceptance(ctx, 9, 100)
		require.NoError(t, err)
		assert.Equal(t, domain.QuoteStatusPending, got.Status)

		got, err = svc.RecordOrderGiverAcceptance(ctx, 42, 100)
		require.NoError(t, err)
		assert.Equal(t, domain.QuoteStatusAccepted, got.Status)
		perms.AssertNumberOfCalls(t, "RequireMember", 1)
	})

	t.Run("OneRefusalRefuses", func(t *testing.T) {
		store := newMockStore()
		svc := service.NewQuoteService(store, new(MockPerms), clock.NewFixed(now), testSettings(), new(MockMailer))

		q := pendingQuote()
		q.GroupAcceptance = domain.AcceptanceAccepted
		store.quotes.On("GetForUpdate", ctxAny, int64(100)).Return(q, nil)
		store.quotes.On("Update", ctxAny, q).Return(nil)
		expectOrderGiver(store)

		got, err := svc.RecordOrderGiverRejection(ctx, 42, 100)
		require.NoError(t, err)
		assert.Equal(t, domain.QuoteStatusRefused, got.Status)
	})

	t.Run("InvoicedQuoteIsImmutable", func(t *testing.T) {
		store := newMockStore()
		svc := service.NewQuoteService(store, new(MockPerms), clock.NewFixed(now), testSettings(), new(MockMailer))

		q := pendingQuote()
		q.Status = domain.QuoteStatusInvoiced
		store.quotes.On("GetForUpdate", ctxAny, int64(100)).Return(q, nil)
		expectOrderGiver(store)

		_, err := svc.RecordOrderGiverRejection(ctx, 42, 100)
		assert.ErrorIs(t, err, domain.ErrQuoteImmutable)
		store.quotes.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("GroupAnswerNeedsMembership", func(t *testing.T) {
		store := newMockStore()
		perms := new(MockPerms)
		svc := service.NewQuoteService(store, perms, clock.NewFixed(now), testSettings(), new(MockMailer))

		store.quotes.On("GetForUpdate", ctxAny, int64(100)).Return(pendingQuote(), nil)
		perms.On("RequireMember", ctxAny, int64(42), int64(1)).Return(domain.ErrPermission)

		_, err := svc.RecordGroupAcceptance(ctx, 42, 100)
		assert.ErrorIs(t, err, domain.ErrPermission)
	})

	t.Run("OrderGiverMustBeTheClient", func(t *testing.T) {
		store := newMockStore()
		perms := new(MockPerms)
		svc := service.NewQuoteService(store, perms, clock.NewFixed(now), testSettings(), new(MockMailer))

		store.quotes.On("GetForUpdate", ctxAny, int64(100)).Return(pendingQuote(), nil)
		store.users.On("GetByID", ctxAny, int64(55)).Return(&domain.User{ID: 55, Email: "someone@elsewhere.test"}, nil)
		store.clients.On("GetByID", ctxAny, int64(7)).Return(testClient(), nil)
		perms.On("RequireBillingAdmin", ctxAny, int64(55), int64(1)).Return(domain.ErrPermission)

		_, err := svc.RecordOrderGiverAcceptance(ctx, 55, 100)
		assert.ErrorIs(t, err, domain.ErrPermission)
		store.quotes.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("BillingAdminRecordsOrderGiverAnswer", func(t *testing.T) {
		store := newMockStore()
		perms := new(MockPerms)
		svc := service.NewQuoteService(store, perms, clock.NewFixed(now), testSettings(), new(MockMailer))

		q := pendingQuote()
		store.quotes.On("GetForUpdate", ctxAny, int64(100)).Return(q, nil)
		store.quotes.On("Update", ctxAny, q).Return(nil)
		store.users.On("GetByID", ctxAny, int64(9)).Return(&domain.User{ID: 9, Email: "admin@backoffice.test"}, nil)
		store.clients.On("GetByID", ctxAny, int64(7)).Return(testClient(), nil)
		perms.On("RequireBillingAdmin", ctxAny, int64(9), int64(1)).Return(nil)

		got, err := svc.RecordOrderGiverAcceptance(ctx, 9, 100)
		require.NoError(t, err)
		assert.Equal(t, domain.AcceptanceAccepted, got.OrderGiverAcceptance)
	})

	t.Run("UnknownOrderGiver", func(t *testing.T) {
		store := newMockStore()
		svc := service.NewQuoteService(store, new(MockPerms), clock.NewFixed(now), testSettings(), new(MockMailer))

		store.quotes.On("GetForUpdate", ctxAny, int64(100)).Return(pendingQuote(), nil)
		store.users.On("GetByID", ctxAny, int64(77)).Return(nil, domain.ErrUserNotFound)

		_, err := svc.RecordOrderGiverRejection(ctx, 77, 100)
		assert.ErrorIs(t, err, domain.ErrPermission)
	})
}

// expectOrderGiver makes user 42 the client of quote 100
func expectOrderGiver(store *mockStore) {
	store.users.On("GetByID", ctxAny, int64(42)).Return(&domain.User{ID: 42, Email: "Booker@Venue.test"}, nil)
	store.clients.On("GetByID", ctxAny, int64(7)).Return(testClient(), nil)
}

func TestQuoteService_CancelQuoteReadsRolesInTransaction(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	pool := new(MockUserRepo)
	svc := service.NewQuoteService(store, service.NewPermissionService(pool), clock.NewFixed(now), testSettings(), new(MockMailer))

	q := pendingQuote()
	store.quotes.On("GetForUpdate", ctxAny, int64(100)).Return(q, nil)
	store.quotes.On("Update", ctxAny, q).Return(nil)
	store.users.On("GetByID", ctxAny, int64(9)).Return(&domain.User{ID: 9, IsSystemAdmin: true}, nil)

	got, err := svc.CancelQuote(ctx, 9, 100)
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteStatusCancelled, got.Status)
	pool.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestQuoteService_CancelQuote(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		from domain.QuoteStatus
		want domain.QuoteStatus
	}{
		{"Pending", domain.QuoteStatusPending, domain.QuoteStatusCancelled},
		{"Accepted", domain.QuoteStatusAccepted, domain.QuoteStatusCancelled},
		{"Invoiced", domain.QuoteStatusInvoiced, domain.QuoteStatusPendingCancellation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockStore()
			perms := new(MockPerms)
			svc := service.NewQuoteService(store, perms, clock.NewFixed(now), testSettings(), new(MockMailer))

			q := pendingQuote()
			q.Status = tt.from
			store.quotes.On("GetForUpdate", ctxAny, int64(100)).Return(q, nil)
			store.quotes.On("Update", ctxAny, q).Return(nil)
			perms.On("RequireBillingAdmin", ctxAny, int64(9), int64(1)).Return(nil)

			got, err := svc.CancelQuote(ctx, 9, 100)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Status)
		})
	}
}
