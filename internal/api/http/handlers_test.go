package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"backoffice-ledger/internal/domain"
	"backoffice-ledger/internal/security"
	"backoffice-ledger/internal/service"
)

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

type MockAccountService struct {
	service.AccountService
	mock.Mock
}

func (m *MockAccountService) Debit(ctx context.Context, userID, accountID int64, amount decimal.Decimal) (*domain.Account, error) {
	args := m.Called(ctx, userID, accountID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

type MockQuoteService struct {
	service.QuoteService
	mock.Mock
}

func (m *MockQuoteService) CreateQuote(ctx context.Context, userID int64, in service.CreateQuoteInput) (*service.QuoteResult, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.QuoteResult), args.Error(1)
}

func (m *MockQuoteService) GetQuote(ctx context.Context, quoteID int64) (*domain.Quote, error) {
	args := m.Called(ctx, quoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quote), args.Error(1)
}

func (m *MockQuoteService) RecordGroupAcceptance(ctx context.Context, userID, quoteID int64) (*domain.Quote, error) {
	args := m.Called(ctx, userID, quoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quote), args.Error(1)
}

type MockSepaService struct {
	service.SepaTransferService
	mock.Mock
}

func (m *MockSepaService) UpdateSepaTransferStatus(ctx context.Context, userID, transferID int64, status domain.SepaStatus, reason string) (*domain.SepaTransfer, error) {
	args := m.Called(ctx, userID, transferID, status, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SepaTransfer), args.Error(1)
}

type MockPerms struct {
	service.PermissionService
	mock.Mock
}

func (m *MockPerms) RequireMember(ctx context.Context, userID, accountID int64) error {
	return m.Called(ctx, userID, accountID).Error(0)
}

func (m *MockPerms) RequireSystemAdmin(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}

const testSecret = "0123456789abcdef0123456789abcdef"

type apiFixture struct {
	router   http.Handler
	accounts *MockAccountService
	quotes   *MockQuoteService
	sepa     *MockSepaService
	perms    *MockPerms
	token    string
}

func newAPIFixture(t *testing.T, db Pinger) *apiFixture {
	t.Helper()
	f := &apiFixture{
		accounts: new(MockAccountService),
		quotes:   new(MockQuoteService),
		sepa:     new(MockSepaService),
		perms:    new(MockPerms),
	}
	tm := security.NewTokenManager(testSecret, time.Hour)
	token, err := tm.GenerateAccessToken(9, "member@backoffice.test")
	require.NoError(t, err)
	f.token = token

	h := NewHandler(Services{Accounts: f.accounts, Quotes: f.quotes, Sepa: f.sepa, Perms: f.perms}, db)
	f.router = NewRouter(h, NewAuthMiddleware(tm))
	return f
}

func (f *apiFixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+f.token)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var body errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

func TestHealthz(t *testing.T) {
	t.Run("PublicAndHealthy", func(t *testing.T) {
		f := newAPIFixture(t, fakePinger{})
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("DatabaseDown", func(t *testing.T) {
		f := newAPIFixture(t, fakePinger{err: errors.New("refused")})
		rec := f.do(http.MethodGet, "/healthz", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestAuthMiddleware(t *testing.T) {
	f := newAPIFixture(t, fakePinger{})

	t.Run("MissingToken", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes/1", nil)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		f.quotes.AssertNotCalled(t, "GetQuote", mock.Anything, mock.Anything)
	})

	t.Run("ForgedToken", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes/1", nil)
		req.Header.Set("Authorization", "Bearer forged")
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestCreateQuote(t *testing.T) {
	f := newAPIFixture(t, fakePinger{})
	serviceDate := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	f.quotes.On("CreateQuote", mock.Anything, int64(9), service.CreateQuoteInput{
		AccountID:           1,
		ClientID:            7,
		LineItemIDs:         []int64{10, 11},
		ServiceDate:         serviceDate,
		PaymentDeadlineDays: 30,
	}).Return(&service.QuoteResult{
		Quote:    &domain.Quote{ID: 100, AccountID: 1, Status: domain.QuoteStatusPending, Totals: domain.Totals{Total: decimal.RequireFromString("174")}},
		Warnings: []string{"account owner: mailbox full"},
	}, nil)

	rec := f.do(http.MethodPost, "/api/v1/quotes", map[string]any{
		"account_id":            1,
		"client_id":             7,
		"line_item_ids":         []int64{10, 11},
		"service_date":          serviceDate,
		"payment_deadline_days": 30,
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var res service.QuoteResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, int64(100), res.Quote.ID)
	assert.True(t, res.Quote.Total.Equal(decimal.RequireFromString("174")))
	assert.Equal(t, []string{"account owner: mailbox full"}, res.Warnings)
}

func TestCreateQuote_ValidationFailure(t *testing.T) {
	f := newAPIFixture(t, fakePinger{})

	rec := f.do(http.MethodPost, "/api/v1/quotes", map[string]any{"account_id": 1, "client_id": 7, "line_item_ids": []int64{}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	assert.Equal(t, domain.ErrValidation.Code, payload.Code)
	require.NotEmpty(t, payload.Details)
	assert.Equal(t, "line_item_ids", payload.Details[0].Field)
	f.quotes.AssertNotCalled(t, "CreateQuote", mock.Anything, mock.Anything, mock.Anything)
}

func TestErrorKindsMapToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"InsufficientFunds", domain.ErrInsufficientFunds, http.StatusUnprocessableEntity},
		{"NotFound", domain.ErrAccountNotFound, http.StatusNotFound},
		{"Permission", domain.ErrPermission, http.StatusForbidden},
		{"Conflict", domain.ErrInvoiceAlreadyExists, http.StatusConflict},
		{"Validation", domain.ErrInvalidAmount, http.StatusBadRequest},
		{"External", domain.ErrExternalService, http.StatusBadGateway},
		{"Unclassified", errors.New("driver: bad connection"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAPIFixture(t, fakePinger{})
			f.accounts.On("Debit", mock.Anything, int64(9), int64(1), mock.Anything).Return(nil, tt.err)

			rec := f.do(http.MethodPost, "/api/v1/accounts/1/debit", map[string]string{"amount": "70"})
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestGetQuote_RequiresMembership(t *testing.T) {
	f := newAPIFixture(t, fakePinger{})
	f.quotes.On("GetQuote", mock.Anything, int64(100)).Return(&domain.Quote{ID: 100, AccountID: 3}, nil)
	f.perms.On("RequireMember", mock.Anything, int64(9), int64(3)).Return(domain.ErrPermission)

	rec := f.do(http.MethodGet, "/api/v1/quotes/100", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, domain.ErrPermission.Code, decodeError(t, rec).Code)
}

func TestQuoteAcceptanceRoute(t *testing.T) {
	f := newAPIFixture(t, fakePinger{})
	f.quotes.On("RecordGroupAcceptance", mock.Anything, int64(9), int64(100)).
		Return(&domain.Quote{ID: 100, Status: domain.QuoteStatusAccepted}, nil)

	rec := f.do(http.MethodPost, "/api/v1/quotes/100/group-acceptance", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var quote domain.Quote
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&quote))
	assert.Equal(t, domain.QuoteStatusAccepted, quote.Status)
}

func TestUpdateSepaTransferState(t *testing.T) {
	t.Run("RejectNeedsReason", func(t *testing.T) {
		f := newAPIFixture(t, fakePinger{})
		rec := f.do(http.MethodPatch, "/api/v1/sepa-transfers/70", map[string]string{"status": "REJECTED"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		f.sepa.AssertNotCalled(t, "UpdateSepaTransferStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Reject", func(t *testing.T) {
		f := newAPIFixture(t, fakePinger{})
		f.sepa.On("UpdateSepaTransferStatus", mock.Anything, int64(9), int64(70), domain.SepaStatusRejected, "duplicate invoice").
			Return(&domain.SepaTransfer{ID: 70, Status: domain.SepaStatusRejected}, nil)

		rec := f.do(http.MethodPatch, "/api/v1/sepa-transfers/70", map[string]string{"status": "REJECTED", "reason": "duplicate invoice"})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("BadID", func(t *testing.T) {
		f := newAPIFixture(t, fakePinger{})
		rec := f.do(http.MethodPatch, "/api/v1/sepa-transfers/abc", map[string]string{"status": "PAID"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListAccounts(t *testing.T) {
	t.Run("SystemAdmin", func(t *testing.T) {
		f := newAPIFixture(t, fakePinger{})
		f.perms.On("RequireSystemAdmin", mock.Anything, int64(9)).Return(nil)
		f.accounts.On("ListAccounts", mock.Anything).Return([]domain.Account{{ID: 1, Name: "Studio"}, {ID: 2, Name: "Quartet"}}, nil)

		rec := f.do(http.MethodGet, "/api/v1/accounts", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var accounts []domain.Account
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&accounts))
		assert.Len(t, accounts, 2)
	})

	t.Run("Member", func(t *testing.T) {
		f := newAPIFixture(t, fakePinger{})
		f.perms.On("RequireSystemAdmin", mock.Anything, int64(9)).Return(domain.ErrPermission)

		rec := f.do(http.MethodGet, "/api/v1/accounts", nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		f.accounts.AssertNotCalled(t, "ListAccounts", mock.Anything)
	})
}
