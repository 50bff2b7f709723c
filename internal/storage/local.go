package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"backoffice-ledger/internal/domain"
)

// LocalStore keeps objects on the local filesystem under a root directory
type LocalStore struct {
	root string
}

// NewLocalStore creates the root directory if needed
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (l *LocalStore) path(key string) (string, error) {
	if !filepath.IsLocal(key) {
		return "", domain.Errorf(domain.ErrValidation, "invalid storage key: %s", key)
	}
	return filepath.Join(l.root, filepath.FromSlash(key)), nil
}

func (l *LocalStore) Put(ctx context.Context, data []byte, folder, id string) (string, error) {
	key := newKey(folder, id)
	fullPath, err := l.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", storageError("put", key, err)
	}
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return "", storageError("put", key, err)
	}
	return key, nil
}

func (l *LocalStore) Get(ctx context.Context, key string) ([]byte, error) {
	fullPath, err := l.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fullPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.Errorf(domain.ErrNotFound, "object %s not found", key)
	}
	if err != nil {
		return nil, storageError("get", key, err)
	}
	return data, nil
}

func (l *LocalStore) Delete(ctx context.Context, key string) error {
	fullPath, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return storageError("delete", key, err)
	}
	return nil
}
