package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"

	"github.com/hypercheck/hypercheck-backend/models"
)

func NewQueryBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func ExecBuilder(ctx context.Context, exec Executor, builder squirrel.Sqlizer) (rowsAffected int64, err error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "can't build sql query")
	}

	tag, err := exec.Exec(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrap(err, fmt.Sprintf("error executing sql query: %s", query))
	}
	return tag.RowsAffected(), nil
}

func ForEachRow(ctx context.Context, exec Executor, query squirrel.Sqlizer, fn func(row pgx.CollectableRow) error) error {
	sql, args, err := query.ToSql()
	if err != nil {
		return errors.Wrap(err, "can't build sql query")
	}

	rows, err := exec.Query(ctx, sql, args...)
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("error executing sql query: %s", sql))
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return errors.Wrap(rows.Err(), "error iterating over rows")
}

func SqlToListOfRow[Model any](ctx context.Context, exec Executor, query squirrel.Sqlizer,
	adapter func(row pgx.CollectableRow) (Model, error),
) ([]Model, error) {
	out := make([]Model, 0)
	err := ForEachRow(ctx, exec, query, func(row pgx.CollectableRow) error {
		model, err := adapter(row)
		if err == nil {
			out = append(out, model)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func SqlToOptionalRow[Model any](ctx context.Context, exec Executor, s squirrel.Sqlizer,
	adapter func(row pgx.CollectableRow) (Model, error),
) (*Model, error) {
	rows, err := SqlToListOfRow(ctx, exec, s, adapter)
	if err != nil {
		return nil, err
	}

	switch len(rows) {
	case 0:
		return nil, nil
	case 1:
		return &rows[0], nil
	default:
		return nil, errors.Newf("expected 1 or 0 %T, got %d rows", rows[0], len(rows))
	}
}

func SqlToRow[Model any](ctx context.Context, exec Executor, s squirrel.Sqlizer,
	adapter func(row pgx.CollectableRow) (Model, error),
) (Model, error) {
	model, err := SqlToOptionalRow(ctx, exec, s, adapter)
	var zeroModel Model
	if err != nil {
		return zeroModel, err
	}
	if model == nil {
		return zeroModel, errors.Wrap(models.NotFoundError, fmt.Sprintf("found no object of type %T", zeroModel))
	}
	return *model, nil
}
