package storage

import (
	"context"
	"fmt"
	"path"

	"github.com/google/uuid"

	"backoffice-ledger/internal/domain"
)

// ObjectStore keeps rendered documents and attachments.
// Failures are reported as ExternalService errors; callers treat them as non-fatal.
type ObjectStore interface {
	// Put stores data under folder and returns the generated key
	Put(ctx context.Context, data []byte, folder, id string) (string, error)
	// Get reads back the object stored under key
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// newKey builds folder/id-<uuid> so repeated uploads for one document never overwrite each other
func newKey(folder, id string) string {
	return path.Join(folder, fmt.Sprintf("%s-%s", id, uuid.NewString()))
}

func storageError(op, key string, err error) error {
	return fmt.Errorf("%w: %v", domain.Errorf(domain.ErrExternalService, "storage %s %s failed", op, key), err)
}
