package service

import (
	"context"

	"backoffice-ledger/internal/repository"
)

type documentNumberingService struct {
	alloc repository.NumberAllocator
}

// NewDocumentNumberingService wraps the account counters. Bind it to a
// transaction's account repository so the number is rolled back with the document.
func NewDocumentNumberingService(alloc repository.NumberAllocator) DocumentNumberingService {
	return &documentNumberingService{alloc: alloc}
}

func (s *documentNumberingService) NextInvoiceNumber(ctx context.Context, accountID int64) (int64, error) {
	return s.alloc.AllocateInvoiceNumber(ctx, accountID)
}

func (s *documentNumberingService) NextQuoteNumber(ctx context.Context, accountID int64) (int64, error) {
	return s.alloc.AllocateQuoteNumber(ctx, accountID)
}
