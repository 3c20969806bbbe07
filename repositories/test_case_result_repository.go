package repositories

import (
	"context"
	"encoding/json"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"

	"github.com/hypercheck/hypercheck-backend/models"
	"github.com/hypercheck/hypercheck-backend/repositories/dbmodels"
)

func adaptTestCaseResultRow(row pgx.CollectableRow) (models.TestCaseResult, error) {
	db, err := pgx.RowToStructByName[dbmodels.DBTestCaseResult](row)
	if err != nil {
		return models.TestCaseResult{}, err
	}
	return dbmodels.AdaptTestCaseResult(db)
}

func (repo *HypercheckDbRepository) CreateTestCaseResult(ctx context.Context, exec Executor,
	newResultId string, input models.CreateTestCaseResultInput,
) error {
	logs, err := json.Marshal(input.Logs)
	if err != nil {
		return errors.Wrap(err, "marshalling case result logs")
	}

	_, err = ExecBuilder(
		ctx,
		exec,
		NewQueryBuilder().Insert(dbmodels.TABLE_TEST_CASE_RESULTS).
			Columns(
				"id",
				"test_run_id",
				"idx",
				"category",
				"name",
				"status",
				"duration_ms",
				"message",
				"logs",
			).
			Values(
				newResultId,
				input.TestRunId,
				input.Index,
				input.Category,
				input.Name,
				input.Status.String(),
				input.Duration.Milliseconds(),
				input.Message,
				logs,
			),
	)
	return wrapDbError(err)
}

// ListTestCaseResults returns the results of a run in execution order.
func (repo *HypercheckDbRepository) ListTestCaseResults(ctx context.Context, exec Executor,
	testRunId string,
) ([]models.TestCaseResult, error) {
	return SqlToListOfRow(
		ctx,
		exec,
		NewQueryBuilder().
			Select(dbmodels.SelectTestCaseResultColumns...).
			From(dbmodels.TABLE_TEST_CASE_RESULTS).
			Where(squirrel.Eq{"test_run_id": testRunId}).
			OrderBy("idx ASC"),
		adaptTestCaseResultRow,
	)
}
