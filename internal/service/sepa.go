package service

import (
	"context"
	"fmt"
	"strconv"

	"backoffice-ledger/internal/domain"
	"backoffice-ledger/internal/logger"
	"backoffice-ledger/internal/render"
	"backoffice-ledger/internal/repository"
	"backoffice-ledger/internal/storage"
)

const sepaAttachmentFolder = "sepa-transfers"

type sepaTransferService struct {
	store    repository.Store
	perms    PermissionService
	settings BillingSettings
	mailer   Mailer
	renderer render.DocumentRenderer
	objects  storage.ObjectStore
}

func NewSepaTransferService(store repository.Store, perms PermissionService, settings BillingSettings,
	mailer Mailer, renderer render.DocumentRenderer, objects storage.ObjectStore) SepaTransferService {
	return &sepaTransferService{
		store:    store,
		perms:    perms,
		settings: settings,
		mailer:   mailer,
		renderer: renderer,
		objects:  objects,
	}
}

// CreateSepaTransfer reserves the net amount on the account and records a PENDING transfer.
// The optional attachment is uploaded afterwards; a failed upload only produces a warning.
func (s *sepaTransferService) CreateSepaTransfer(ctx context.Context, userID int64, in SepaTransferInput) (*SepaTransferResult, error) {
	logger.EnterMethod("sepaTransferService.CreateSepaTransfer", "userID", userID, "accountID", in.AccountID)

	transfer, err := domain.NewSepaTransfer(in.AccountID, in.AccountOwner, in.IBAN, in.AmountExclVAT, in.AmountVAT, in.Communication, userID)
	if err != nil {
		logger.ExitMethodWithError("sepaTransferService.CreateSepaTransfer", err, "accountID", in.AccountID)
		return nil, err
	}
	if err := s.perms.RequireBillingAdmin(ctx, userID, in.AccountID); err != nil {
		logger.ExitMethodWithError("sepaTransferService.CreateSepaTransfer", err, "accountID", in.AccountID)
		return nil, err
	}

	err = s.store.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := tx.Accounts().Debit(ctx, in.AccountID, transfer.AmountExclVAT); err != nil {
			return err
		}
		return tx.SepaTransfers().Create(ctx, transfer)
	})
	if err != nil {
		logger.ExitMethodWithError("sepaTransferService.CreateSepaTransfer", err, "accountID", in.AccountID)
		return nil, err
	}

	result := &SepaTransferResult{Transfer: transfer}
	if len(in.Attachment) > 0 {
		if err := s.storeAttachment(ctx, transfer, in.Attachment); err != nil {
			logger.Error("Failed to store sepa transfer attachment", "transferID", transfer.ID, "error", err)
			result.Warnings = append(result.Warnings, fmt.Sprintf("attachment: %v", err))
		}
	}

	logger.ExitMethod("sepaTransferService.CreateSepaTransfer", "transferID", transfer.ID, "amount", transfer.AmountExclVAT.StringFixed(2))
	return result, nil
}

func (s *sepaTransferService) storeAttachment(ctx context.Context, transfer *domain.SepaTransfer, data []byte) error {
	key, err := s.objects.Put(ctx, data, sepaAttachmentFolder, strconv.FormatInt(transfer.ID, 10))
	if err != nil {
		return err
	}
	err = s.store.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		current, err := tx.SepaTransfers().GetForUpdate(ctx, transfer.ID)
		if err != nil {
			return err
		}
		current.AttachmentKey = key
		return tx.SepaTransfers().Update(ctx, current)
	})
	if err != nil {
		return err
	}
	transfer.AttachmentKey = key
	return nil
}

// UpdateSepaTransferStatus applies one state machine step. Rejection refunds the reserved amount
// in the same unit of work.
func (s *sepaTransferService) UpdateSepaTransferStatus(ctx context.Context, userID, transferID int64, status domain.SepaStatus, reason string) (*domain.SepaTransfer, error) {
	logger.EnterMethod("sepaTransferService.UpdateSepaTransferStatus", "userID", userID, "transferID", transferID, "status", status)

	var transfer *domain.SepaTransfer
	err := s.store.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		if transfer, err = tx.SepaTransfers().GetForUpdate(ctx, transferID); err != nil {
			return err
		}
		if err := permsWithin(s.perms, tx).RequireBillingAdmin(ctx, userID, transfer.AccountID); err != nil {
			return err
		}
		refund, err := transfer.Transition(status, reason)
		if err != nil {
			return err
		}
		if refund {
			if _, err := tx.Accounts().Credit(ctx, transfer.AccountID, transfer.AmountExclVAT); err != nil {
				return err
			}
		}
		return tx.SepaTransfers().Update(ctx, transfer)
	})
	if err != nil {
		logger.ExitMethodWithError("sepaTransferService.UpdateSepaTransferStatus", err, "transferID", transferID)
		return nil, err
	}

	logger.ExitMethod("sepaTransferService.UpdateSepaTransferStatus", "transferID", transferID, "status", transfer.Status)
	return transfer, nil
}

func (s *sepaTransferService) GetSepaTransfer(ctx context.Context, transferID int64) (*domain.SepaTransfer, error) {
	return s.store.SepaTransfers().GetByID(ctx, transferID)
}

// InitiateValidatedTransfers mails one notice per ACCEPTED transfer and marks it PAID.
// A transfer whose notice could not be sent stays ACCEPTED for the next run.
func (s *sepaTransferService) InitiateValidatedTransfers(ctx context.Context) (*BatchReport, error) {
	logger.EnterMethod("sepaTransferService.InitiateValidatedTransfers")

	transfers, err := s.store.SepaTransfers().ListByStatus(ctx, domain.SepaStatusAccepted)
	if err != nil {
		logger.ExitMethodWithError("sepaTransferService.InitiateValidatedTransfers", err)
		return nil, err
	}

	report := &BatchReport{}
	for i := range transfers {
		if err := ctx.Err(); err != nil {
			break
		}
		report.Processed++

		paid, err := s.initiate(ctx, &transfers[i])
		switch {
		case err != nil:
			report.Failed++
			logger.Error("Failed to initiate sepa transfer", "transferID", transfers[i].ID, "error", err)
		case !paid:
			report.Skipped++
		default:
			report.Succeeded++
		}
	}

	logger.ExitMethod("sepaTransferService.InitiateValidatedTransfers", "processed", report.Processed,
		"succeeded", report.Succeeded, "skipped", report.Skipped, "failed", report.Failed)
	return report, nil
}

func (s *sepaTransferService) initiate(ctx context.Context, transfer *domain.SepaTransfer) (bool, error) {
	notice, err := s.renderer.RenderTransferNotice([]domain.SepaTransfer{*transfer})
	if err != nil {
		return false, err
	}
	docs := []Attachment{{
		Name:        fmt.Sprintf("transfer-%d.html", transfer.ID),
		ContentType: htmlContentType,
		Data:        notice,
	}}
	if transfer.AttachmentKey != "" {
		data, err := s.objects.Get(ctx, transfer.AttachmentKey)
		if err != nil {
			logger.Warn("Sending transfer notice without its attachment", "transferID", transfer.ID, "error", err)
		} else {
			docs = append(docs, Attachment{Name: fmt.Sprintf("transfer-%d-attachment", transfer.ID), ContentType: "application/octet-stream", Data: data})
		}
	}

	to := Recipient{Email: s.settings.TransferNoticeEmail}
	if err := s.mailer.SendVirementNotice(ctx, to, transfer, docs); err != nil {
		return false, err
	}

	paid := false
	err = s.store.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		current, err := tx.SepaTransfers().GetForUpdate(ctx, transfer.ID)
		if err != nil {
			return err
		}
		if current.Status != domain.SepaStatusAccepted {
			logger.Info("Sepa transfer changed state during run, skipping", "transferID", transfer.ID, "status", current.Status)
			return nil
		}
		if _, err := current.Transition(domain.SepaStatusPaid, ""); err != nil {
			return err
		}
		if err := tx.SepaTransfers().Update(ctx, current); err != nil {
			return err
		}
		paid = true
		return nil
	})
	return paid, err
}
