package jobs

import (
	"context"
	"time"

	"backoffice-ledger/internal/logger"
	"backoffice-ledger/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	locker   Locker
	lockTTL  time.Duration
}

// Services holds the service dependencies needed by jobs
type Services struct {
	Invoices  service.InvoiceService
	Reminders service.ReminderService
	Sepa      service.SepaTransferService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(services *Services, locker Locker, lockTTL time.Duration) *JobRunner {
	return &JobRunner{
		services: services,
		locker:   locker,
		lockTTL:  lockTTL,
	}
}

type batchJob func(ctx context.Context) (*service.BatchReport, error)

// runWithRecovery runs a job under its named lock. A run that finds the lock
// held is skipped; panics are logged and swallowed.
func (jr *JobRunner) runWithRecovery(jobName string, job batchJob) (report *service.BatchReport) {
	log := logger.WithJob(jobName)
	defer func() {
		if r := recover(); r != nil {
			log.Error("Job panicked", "panic", r)
			report = nil
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jr.lockTTL)
	defer cancel()

	unlock, acquired, err := jr.locker.TryLock(ctx, jobName, jr.lockTTL)
	if err != nil {
		log.Error("Failed to acquire job lock", "error", err)
		return nil
	}
	if !acquired {
		log.Info("Job already running elsewhere, skipping")
		return nil
	}
	defer func() {
		if err := unlock(context.Background()); err != nil {
			log.Warn("Failed to release job lock", "error", err)
		}
	}()

	log.Info("Starting job")
	start := time.Now()

	report, err = job(ctx)
	if err != nil {
		log.Error("Job failed", "error", err, "duration", time.Since(start))
		return nil
	}

	log.Info("Job completed",
		"processed", report.Processed,
		"succeeded", report.Succeeded,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"duration", time.Since(start))
	return report
}

// RunAll runs every batch job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.AutoInvoicePastDue()
	jr.SendPaymentReminders()
	jr.InitiateValidatedTransfers()
}
