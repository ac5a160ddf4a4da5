package postgres

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/geocoder89/marketplace/internal/observability"
)

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func constraintOf(err error) string {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

// store is embedded by every repo: the pool plus DB metrics.
type store struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func (s store) observe(op string, fn func() error) error {
	return s.prom.ObserveDB(op, fn)
}
