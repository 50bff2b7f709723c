package postgres

import (
	"context"

	"backoffice-ledger/internal/domain"
	"backoffice-ledger/internal/repository"
)

type clientRepository struct {
	db DBTX
}

func NewClientRepository(db DBTX) repository.ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) Create(ctx context.Context, c *domain.Client) error {
	query := `INSERT INTO clients (name, email, company_name, vat_number, address)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, c.Name, c.Email, c.CompanyName, c.VATNumber, c.Address).Scan(&c.ID, &c.CreatedAt)
	return mapError(err, domain.ErrClientNotFound)
}

func (r *clientRepository) GetByID(ctx context.Context, id int64) (*domain.Client, error) {
	var c domain.Client
	query := `SELECT id, name, email, company_name, vat_number, address, created_at FROM clients WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.Email, &c.CompanyName, &c.VATNumber, &c.Address, &c.CreatedAt)
	if err != nil {
		return nil, mapError(err, domain.ErrClientNotFound)
	}
	return &c, nil
}
