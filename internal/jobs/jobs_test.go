package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"backoffice-ledger/internal/service"
)

type mockInvoices struct {
	service.InvoiceService
	mock.Mock
}

func (m *mockInvoices) AutoInvoicePastDue(ctx context.Context) (*service.BatchReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BatchReport), args.Error(1)
}

type mockReminders struct {
	mock.Mock
}

func (m *mockReminders) SendPaymentReminders(ctx context.Context) (*service.BatchReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BatchReport), args.Error(1)
}

type mockSepa struct {
	service.SepaTransferService
	mock.Mock
}

func (m *mockSepa) InitiateValidatedTransfers(ctx context.Context) (*service.BatchReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BatchReport), args.Error(1)
}

func newRunner(locker Locker) (*JobRunner, *mockInvoices, *mockReminders, *mockSepa) {
	inv, rem, sepa := new(mockInvoices), new(mockReminders), new(mockSepa)
	runner := NewJobRunner(&Services{Invoices: inv, Reminders: rem, Sepa: sepa}, locker, time.Minute)
	return runner, inv, rem, sepa
}

func TestJobRunner_RunWithRecovery(t *testing.T) {
	t.Run("ReturnsReport", func(t *testing.T) {
		runner, inv, _, _ := newRunner(NewLocalLocker())
		inv.On("AutoInvoicePastDue", mock.Anything).Return(&service.BatchReport{Processed: 2, Succeeded: 2}, nil)

		report := runner.runWithRecovery(JobAutoInvoicePastDue, inv.AutoInvoicePastDue)
		require.NotNil(t, report)
		assert.Equal(t, 2, report.Succeeded)
	})

	t.Run("PanicIsRecovered", func(t *testing.T) {
		runner, _, _, _ := newRunner(NewLocalLocker())

		assert.NotPanics(t, func() {
			report := runner.runWithRecovery("exploding", func(context.Context) (*service.BatchReport, error) {
				panic("boom")
			})
			assert.Nil(t, report)
		})
	})

	t.Run("PanicReleasesLock", func(t *testing.T) {
		locker := NewLocalLocker()
		runner, _, _, _ := newRunner(locker)
		runner.runWithRecovery("exploding", func(context.Context) (*service.BatchReport, error) { panic("boom") })

		_, acquired, err := locker.TryLock(context.Background(), "exploding", time.Minute)
		require.NoError(t, err)
		assert.True(t, acquired)
	})

	t.Run("OverlappingRunIsSkipped", func(t *testing.T) {
		locker := NewLocalLocker()
		runner, _, rem, _ := newRunner(locker)

		_, acquired, err := locker.TryLock(context.Background(), JobSendPaymentReminders, time.Minute)
		require.NoError(t, err)
		require.True(t, acquired)

		runner.SendPaymentReminders()
		rem.AssertNotCalled(t, "SendPaymentReminders", mock.Anything)
	})

	t.Run("JobErrorIsLogged", func(t *testing.T) {
		runner, _, _, sepa := newRunner(NewLocalLocker())
		sepa.On("InitiateValidatedTransfers", mock.Anything).Return(nil, errors.New("db down"))

		report := runner.runWithRecovery(JobInitiateValidatedTransfers, sepa.InitiateValidatedTransfers)
		assert.Nil(t, report)
		sepa.AssertExpectations(t)
	})
}

func TestJobRunner_Run(t *testing.T) {
	runner, inv, rem, sepa := newRunner(NewLocalLocker())
	inv.On("AutoInvoicePastDue", mock.Anything).Return(&service.BatchReport{}, nil)
	rem.On("SendPaymentReminders", mock.Anything).Return(&service.BatchReport{}, nil)
	sepa.On("InitiateValidatedTransfers", mock.Anything).Return(&service.BatchReport{}, nil)

	assert.True(t, runner.Run("all"))
	assert.False(t, runner.Run("rebuild-universe"))

	inv.AssertNumberOfCalls(t, "AutoInvoicePastDue", 1)
	rem.AssertNumberOfCalls(t, "SendPaymentReminders", 1)
	sepa.AssertNumberOfCalls(t, "InitiateValidatedTransfers", 1)
}

func TestLocalLocker(t *testing.T) {
	ctx := context.Background()
	current := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	locker := NewLocalLocker()
	locker.now = func() time.Time { return current }

	unlock, acquired, err := locker.TryLock(ctx, "job", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	_, acquired, _ = locker.TryLock(ctx, "job", time.Minute)
	assert.False(t, acquired, "held lock must not be granted twice")

	_, acquired, _ = locker.TryLock(ctx, "other", time.Minute)
	assert.True(t, acquired, "names are independent")

	// the first holder overruns its ttl and a second run takes over
	current = current.Add(2 * time.Minute)
	_, acquired, _ = locker.TryLock(ctx, "job", time.Minute)
	require.True(t, acquired)

	// the stale unlock must not free the new holder's lock
	require.NoError(t, unlock(ctx))
	_, acquired, _ = locker.TryLock(ctx, "job", time.Minute)
	assert.False(t, acquired)
}
