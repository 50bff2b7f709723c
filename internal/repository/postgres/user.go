package postgres

import (
	"context"

	"backoffice-ledger/internal/domain"
	"backoffice-ledger/internal/repository"
)

type userRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (email, name, is_system_admin) VALUES ($1, $2, $3) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, u.Email, u.Name, u.IsSystemAdmin).Scan(&u.ID)
	return mapError(err, domain.ErrUserNotFound)
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	query := `SELECT id, email, name, is_system_admin FROM users WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Email, &u.Name, &u.IsSystemAdmin)
	if err != nil {
		return nil, mapError(err, domain.ErrUserNotFound)
	}
	return &u, nil
}

func (r *userRepository) GetMemberRole(ctx context.Context, userID, accountID int64) (domain.MemberRole, error) {
	var role domain.MemberRole
	query := `SELECT role FROM account_members WHERE user_id = $1 AND account_id = $2`
	if err := r.db.QueryRowContext(ctx, query, userID, accountID).Scan(&role); err != nil {
		return "", mapError(err, domain.ErrNotFound)
	}
	return role, nil
}

func (r *userRepository) AddMember(ctx context.Context, m *domain.AccountMember) error {
	query := `INSERT INTO account_members (user_id, account_id, role) VALUES ($1, $2, $3)
	          ON CONFLICT (user_id, account_id) DO UPDATE SET role = EXCLUDED.role`
	_, err := r.db.ExecContext(ctx, query, m.UserID, m.AccountID, m.Role)
	return mapError(err, domain.ErrNotFound)
}
