package postgres

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"backoffice-ledger/internal/domain"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
)

// mapError translates driver errors into the domain taxonomy. notFound is returned for sql.ErrNoRows.
func mapError(err error, notFound *domain.Error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return domain.Errorf(domain.ErrConflict, "duplicate value violates %s", pqErr.Constraint)
		case pqForeignKeyViolation:
			return domain.Errorf(domain.ErrNotFound, "referenced row missing (%s)", pqErr.Constraint)
		case pqCheckViolation:
			return domain.Errorf(domain.ErrValidation, "value violates %s", pqErr.Constraint)
		}
	}
	return err
}

// constraintOf returns the violated constraint name for unique violations, or ""
func constraintOf(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return pqErr.Constraint
	}
	return ""
}

func expectOneRow(res sql.Result, notFound *domain.Error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func stringsOf[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
