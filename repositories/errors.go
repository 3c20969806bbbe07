package repositories

import (
	"github.com/cockroachdb/errors"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hypercheck/hypercheck-backend/models"
)

// wrapDbError maps Postgres constraint violations onto the domain sentinel
// errors so callers can errors.Is against them.
func wrapDbError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return errors.Wrap(models.ConflictError, pgErr.Detail)
		case pgerrcode.ForeignKeyViolation:
			return errors.Wrap(models.BadParameterError, pgErr.Detail)
		}
	}
	return err
}
