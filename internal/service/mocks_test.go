package service_test

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"backoffice-ledger/internal/domain"
	"backoffice-ledger/internal/repository"
	"backoffice-ledger/internal/service"
)

// MockAccountRepo
type MockAccountRepo struct {
	mock.Mock
}

func (m *MockAccountRepo) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}
func (m *MockAccountRepo) GetByName(ctx context.Context, name string) (*domain.Account, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}
func (m *MockAccountRepo) List(ctx context.Context) ([]domain.Account, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Account), args.Error(1)
}
func (m *MockAccountRepo) Create(ctx context.Context, account *domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}
func (m *MockAccountRepo) Debit(ctx context.Context, accountID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, accountID, amount)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}
func (m *MockAccountRepo) Credit(ctx context.Context, accountID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, accountID, amount)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}
func (m *MockAccountRepo) AllocateInvoiceNumber(ctx context.Context, accountID int64) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockAccountRepo) AllocateQuoteNumber(ctx context.Context, accountID int64) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

// MockUserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *MockUserRepo) GetMemberRole(ctx context.Context, userID, accountID int64) (domain.MemberRole, error) {
	args := m.Called(ctx, userID, accountID)
	return args.Get(0).(domain.MemberRole), args.Error(1)
}
func (m *MockUserRepo) AddMember(ctx context.Context, member *domain.AccountMember) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

// MockClientRepo
type MockClientRepo struct {
	mock.Mock
}

func (m *MockClientRepo) Create(ctx context.Context, client *domain.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}
func (m *MockClientRepo) GetByID(ctx context.Context, id int64) (*domain.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Client), args.Error(1)
}

// MockLineItemRepo
type MockLineItemRepo struct {
	mock.Mock
}

func (m *MockLineItemRepo) Create(ctx context.Context, item *domain.LineItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}
func (m *MockLineItemRepo) GetByID(ctx context.Context, id int64) (*domain.LineItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LineItem), args.Error(1)
}
func (m *MockLineItemRepo) GetByIDsForUpdate(ctx context.Context, ids []int64) ([]domain.LineItem, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LineItem), args.Error(1)
}
func (m *MockLineItemRepo) Update(ctx context.Context, item *domain.LineItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}
func (m *MockLineItemRepo) AttachToQuote(ctx context.Context, ids []int64, quoteID int64) error {
	args := m.Called(ctx, ids, quoteID)
	return args.Error(0)
}
func (m *MockLineItemRepo) ListByQuote(ctx context.Context, quoteID int64) ([]domain.LineItem, error) {
	args := m.Called(ctx, quoteID)
	return args.Get(0).([]domain.LineItem), args.Error(1)
}
func (m *MockLineItemRepo) ListByInvoice(ctx context.Context, invoiceID int64) ([]domain.LineItem, error) {
	args := m.Called(ctx, invoiceID)
	return args.Get(0).([]domain.LineItem), args.Error(1)
}

// MockQuoteRepo
type MockQuoteRepo struct {
	mock.Mock
}

func (m *MockQuoteRepo) Create(ctx context.Context, quote *domain.Quote) error {
	args := m.Called(ctx, quote)
	return args.Error(0)
}
func (m *MockQuoteRepo) GetByID(ctx context.Context, id int64) (*domain.Quote, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quote), args.Error(1)
}
func (m *MockQuoteRepo) GetForUpdate(ctx context.Context, id int64) (*domain.Quote, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quote), args.Error(1)
}
func (m *MockQuoteRepo) Update(ctx context.Context, quote *domain.Quote) error {
	args := m.Called(ctx, quote)
	return args.Error(0)
}
func (m *MockQuoteRepo) ListAcceptedWithServiceBefore(ctx context.Context, cutoff time.Time) ([]domain.Quote, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).([]domain.Quote), args.Error(1)
}

// MockInvoiceRepo
type MockInvoiceRepo struct {
	mock.Mock
}

func (m *MockInvoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}
func (m *MockInvoiceRepo) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}
func (m *MockInvoiceRepo) GetForUpdate(ctx context.Context, id int64) (*domain.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}
func (m *MockInvoiceRepo) GetByLinkedInvoiceID(ctx context.Context, creditNoteID int64) (*domain.Invoice, error) {
	args := m.Called(ctx, creditNoteID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}
func (m *MockInvoiceRepo) Update(ctx context.Context, inv *domain.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}
func (m *MockInvoiceRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockInvoiceRepo) ListOverdue(ctx context.Context, now time.Time) ([]domain.Invoice, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]domain.Invoice), args.Error(1)
}
func (m *MockInvoiceRepo) ClaimReminder(ctx context.Context, id int64, level int, status domain.InvoiceStatus) (bool, error) {
	args := m.Called(ctx, id, level, status)
	return args.Bool(0), args.Error(1)
}
func (m *MockInvoiceRepo) ReleaseReminder(ctx context.Context, id int64, claimedLevel, previousLevel int, previousStatus domain.InvoiceStatus) error {
	args := m.Called(ctx, id, claimedLevel, previousLevel, previousStatus)
	return args.Error(0)
}

// MockTransactionRepo
type MockTransactionRepo struct {
	mock.Mock
}

func (m *MockTransactionRepo) Create(ctx context.Context, tx *domain.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}
func (m *MockTransactionRepo) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

// MockSepaTransferRepo
type MockSepaTransferRepo struct {
	mock.Mock
}

func (m *MockSepaTransferRepo) Create(ctx context.Context, t *domain.SepaTransfer) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}
func (m *MockSepaTransferRepo) GetByID(ctx context.Context, id int64) (*domain.SepaTransfer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SepaTransfer), args.Error(1)
}
func (m *MockSepaTransferRepo) GetForUpdate(ctx context.Context, id int64) (*domain.SepaTransfer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SepaTransfer), args.Error(1)
}
func (m *MockSepaTransferRepo) Update(ctx context.Context, t *domain.SepaTransfer) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}
func (m *MockSepaTransferRepo) ListByStatus(ctx context.Context, status domain.SepaStatus) ([]domain.SepaTransfer, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]domain.SepaTransfer), args.Error(1)
}

// mockStore hands out the same mocks inside and outside a unit of work.
// Do runs fn directly and counts the units of work that returned an error.
type mockStore struct {
	accounts     *MockAccountRepo
	users        *MockUserRepo
	clients      *MockClientRepo
	lineItems    *MockLineItemRepo
	quotes       *MockQuoteRepo
	invoices     *MockInvoiceRepo
	transactions *MockTransactionRepo
	sepa         *MockSepaTransferRepo
	rollbacks    int
}

func newMockStore() *mockStore {
	return &mockStore{
		accounts:     new(MockAccountRepo),
		users:        new(MockUserRepo),
		clients:      new(MockClientRepo),
		lineItems:    new(MockLineItemRepo),
		quotes:       new(MockQuoteRepo),
		invoices:     new(MockInvoiceRepo),
		transactions: new(MockTransactionRepo),
		sepa:         new(MockSepaTransferRepo),
	}
}

func (s *mockStore) Accounts() repository.AccountRepository           { return s.accounts }
func (s *mockStore) Users() repository.UserRepository                 { return s.users }
func (s *mockStore) Clients() repository.ClientRepository             { return s.clients }
func (s *mockStore) LineItems() repository.LineItemRepository         { return s.lineItems }
func (s *mockStore) Quotes() repository.QuoteRepository               { return s.quotes }
func (s *mockStore) Invoices() repository.InvoiceRepository           { return s.invoices }
func (s *mockStore) Transactions() repository.TransactionRepository   { return s.transactions }
func (s *mockStore) SepaTransfers() repository.SepaTransferRepository { return s.sepa }

func (s *mockStore) Do(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	err := fn(ctx, s)
	if err != nil {
		s.rollbacks++
	}
	return err
}

// MockPerms
type MockPerms struct {
	mock.Mock
}

func (m *MockPerms) HasBillingAdminRole(ctx context.Context, userID, accountID int64) (bool, error) {
	args := m.Called(ctx, userID, accountID)
	return args.Bool(0), args.Error(1)
}
func (m *MockPerms) RequireBillingAdmin(ctx context.Context, userID, accountID int64) error {
	args := m.Called(ctx, userID, accountID)
	return args.Error(0)
}
func (m *MockPerms) RequireMember(ctx context.Context, userID, accountID int64) error {
	args := m.Called(ctx, userID, accountID)
	return args.Error(0)
}
func (m *MockPerms) RequireSystemAdmin(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockMailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendQuote(ctx context.Context, to service.Recipient, quote *domain.Quote, accountName string) error {
	args := m.Called(ctx, to, quote, accountName)
	return args.Error(0)
}
func (m *MockMailer) SendInvoice(ctx context.Context, to service.Recipient, inv *domain.Invoice, accountName string, doc *service.Attachment) error {
	args := m.Called(ctx, to, inv, accountName, doc)
	return args.Error(0)
}
func (m *MockMailer) SendReminder(ctx context.Context, to service.Recipient, inv *domain.Invoice, level int, doc *service.Attachment) error {
	args := m.Called(ctx, to, inv, level, doc)
	return args.Error(0)
}
func (m *MockMailer) SendVirementNotice(ctx context.Context, to service.Recipient, transfer *domain.SepaTransfer, docs []service.Attachment) error {
	args := m.Called(ctx, to, transfer, docs)
	return args.Error(0)
}

// MockRenderer
type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) RenderInvoice(inv *domain.Invoice, client *domain.Client, account *domain.Account) ([]byte, error) {
	args := m.Called(inv, client, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
func (m *MockRenderer) RenderCreditNote(note *domain.Invoice, client *domain.Client, account *domain.Account) ([]byte, error) {
	args := m.Called(note, client, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
func (m *MockRenderer) RenderTransferNotice(transfers []domain.SepaTransfer) ([]byte, error) {
	args := m.Called(transfers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockObjectStore
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Put(ctx context.Context, data []byte, folder, id string) (string, error) {
	args := m.Called(ctx, data, folder, id)
	return args.String(0), args.Error(1)
}
func (m *MockObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
func (m *MockObjectStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// decEq matches a decimal argument by value, ignoring its exponent
func decEq(s string) any {
	want := dec(s)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(want) })
}

var ctxAny = mock.Anything
