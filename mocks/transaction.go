package mocks

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

// Transaction doubles as an Executor in tests; the query methods are only
// stubbed when a test genuinely exercises SQL, which most usecase tests do
// not because they mock the repository layer instead.
type Transaction struct {
	mock.Mock
}

func (t *Transaction) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	arguments := t.Called(ctx, sql, args)
	return arguments.Get(0).(pgconn.CommandTag), arguments.Error(1)
}

func (t *Transaction) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	arguments := t.Called(ctx, sql, args)
	return arguments.Get(0).(pgx.Rows), arguments.Error(1)
}

func (t *Transaction) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	arguments := t.Called(ctx, sql, args)
	return arguments.Get(0).(pgx.Row)
}

func (t *Transaction) RawTx() pgx.Tx {
	args := t.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(pgx.Tx)
}
