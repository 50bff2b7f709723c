package service

import (
	"context"

	"backoffice-ledger/internal/domain"
	"backoffice-ledger/internal/repository"
)

type clientDirectory struct {
	clients repository.ClientRepository
}

func NewClientDirectory(clients repository.ClientRepository) ClientDirectory {
	return &clientDirectory{clients: clients}
}

func (d *clientDirectory) CreateClient(ctx context.Context, c *domain.Client) error {
	if c.Name == "" {
		return domain.Errorf(domain.ErrValidation, "client name is required")
	}
	return d.clients.Create(ctx, c)
}

func (d *clientDirectory) FindClient(ctx context.Context, id int64) (*domain.Client, error) {
	return d.clients.GetByID(ctx, id)
}
