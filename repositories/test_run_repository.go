package repositories

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"

	"github.com/hypercheck/hypercheck-backend/models"
	"github.com/hypercheck/hypercheck-backend/repositories/dbmodels"
)

func selectTestRuns() squirrel.SelectBuilder {
	return NewQueryBuilder().
		Select(dbmodels.SelectTestRunColumns...).
		From(dbmodels.TABLE_TEST_RUNS)
}

func adaptTestRunRow(row pgx.CollectableRow) (models.TestRun, error) {
	db, err := pgx.RowToStructByName[dbmodels.DBTestRun](row)
	if err != nil {
		return models.TestRun{}, err
	}
	return dbmodels.AdaptTestRun(db)
}

func (repo *HypercheckDbRepository) CreateTestRun(ctx context.Context, tx Transaction,
	newTestRunId string, input models.CreateTestRunInput,
) error {
	snapshot, err := json.Marshal(input.ConfigSnapshot)
	if err != nil {
		return errors.Wrap(err, "marshalling config snapshot")
	}

	_, err = ExecBuilder(
		ctx,
		tx,
		NewQueryBuilder().Insert(dbmodels.TABLE_TEST_RUNS).
			Columns(
				"id",
				"configuration_id",
				"config_snapshot",
				"trigger_origin",
				"status",
			).
			Values(
				newTestRunId,
				input.ConfigurationId,
				snapshot,
				input.TriggerOrigin.String(),
				models.TestRunQueued.String(),
			),
	)
	return wrapDbError(err)
}

func (repo *HypercheckDbRepository) GetTestRunById(ctx context.Context, exec Executor, testRunId string) (models.TestRun, error) {
	return SqlToRow(
		ctx,
		exec,
		selectTestRuns().Where(squirrel.Eq{"id": testRunId}),
		adaptTestRunRow,
	)
}

func (repo *HypercheckDbRepository) ListTestRuns(ctx context.Context, exec Executor,
	filters models.ListTestRunsFilters,
) ([]models.TestRun, error) {
	query := selectTestRuns().OrderBy("created_at DESC")

	if filters.ConfigurationId != "" {
		query = query.Where(squirrel.Eq{"configuration_id": filters.ConfigurationId})
	}
	if len(filters.Status) > 0 {
		statuses := make([]string, len(filters.Status))
		for i, status := range filters.Status {
			statuses[i] = status.String()
		}
		query = query.Where(squirrel.Eq{"status": statuses})
	}
	if filters.TriggerOrigin != nil {
		query = query.Where(squirrel.Eq{"trigger_origin": filters.TriggerOrigin.String()})
	}

	return SqlToListOfRow(ctx, exec, query, adaptTestRunRow)
}

// UpdateTestRunStatus applies a status transition guarded by the expected
// current status. The returned executed flag is false when another writer won
// the race (or the run was already terminal).
func (repo *HypercheckDbRepository) UpdateTestRunStatus(ctx context.Context, exec Executor,
	input models.UpdateTestRunStatusInput,
) (executed bool, err error) {
	if !input.CurrentStatusCondition.CanTransitionTo(input.Status) {
		return false, errors.Wrapf(models.ErrTransitionNotAllowed,
			"%s -> %s", input.CurrentStatusCondition, input.Status)
	}

	query := NewQueryBuilder().Update(dbmodels.TABLE_TEST_RUNS).
		Set("status", input.Status.String()).
		Where(squirrel.Eq{
			"id":     input.Id,
			"status": input.CurrentStatusCondition.String(),
		})

	if input.Status == models.TestRunRunning {
		query = query.Set("started_at", time.Now())
	}
	if input.Status.IsTerminal() {
		query = query.Set("finished_at", time.Now())
	}
	if input.Counters != nil {
		query = query.
			Set("passed", input.Counters.Passed).
			Set("failed", input.Counters.Failed).
			Set("skipped", input.Counters.Skipped).
			Set("errored", input.Counters.Errored)
	}
	if input.ErrorMessage != nil {
		query = query.Set("error_message", *input.ErrorMessage)
	}

	rowsAffected, err := ExecBuilder(ctx, exec, query)
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

// FailOrphanedTestRuns force-fails every run still marked RUNNING. A run only
// stays RUNNING without a live job when the worker holding it crashed, so this
// is called on worker startup before any new job is fetched.
func (repo *HypercheckDbRepository) FailOrphanedTestRuns(ctx context.Context, exec Executor,
	errorMessage string,
) (int64, error) {
	return ExecBuilder(
		ctx,
		exec,
		NewQueryBuilder().Update(dbmodels.TABLE_TEST_RUNS).
			Set("status", models.TestRunFailed.String()).
			Set("error_message", errorMessage).
			Set("finished_at", time.Now()).
			Where(squirrel.Eq{"status": models.TestRunRunning.String()}),
	)
}

func (repo *HypercheckDbRepository) UpdateTestRunCounters(ctx context.Context, exec Executor,
	testRunId string, counters models.RunCounters,
) error {
	_, err := ExecBuilder(
		ctx,
		exec,
		NewQueryBuilder().Update(dbmodels.TABLE_TEST_RUNS).
			Set("passed", counters.Passed).
			Set("failed", counters.Failed).
			Set("skipped", counters.Skipped).
			Set("errored", counters.Errored).
			Where(squirrel.Eq{"id": testRunId}),
	)
	return err
}

// RequestTestRunCancellation sets the cooperative cancellation flag. Returns
// false when the run is already terminal.
func (repo *HypercheckDbRepository) RequestTestRunCancellation(ctx context.Context, exec Executor,
	testRunId string,
) (bool, error) {
	terminal := make([]string, 0, 4)
	for _, s := range []models.TestRunStatus{
		models.TestRunCompleted, models.TestRunCompletedWithErrors,
		models.TestRunFailed, models.TestRunCancelled,
	} {
		terminal = append(terminal, s.String())
	}

	rowsAffected, err := ExecBuilder(
		ctx,
		exec,
		NewQueryBuilder().Update(dbmodels.TABLE_TEST_RUNS).
			Set("cancel_requested", true).
			Where(squirrel.Eq{"id": testRunId}).
			Where(squirrel.NotEq{"status": terminal}),
	)
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

// HasActiveTestRunsForConfiguration reports whether a queued or running run
// still references the configuration. Used as the deletion guard; terminal
// runs do not block deletion.
func (repo *HypercheckDbRepository) HasActiveTestRunsForConfiguration(ctx context.Context, exec Executor,
	configurationId string,
) (bool, error) {
	return repo.existsTestRun(ctx, exec, squirrel.Eq{
		"configuration_id": configurationId,
		"status": []string{
			models.TestRunQueued.String(),
			models.TestRunRunning.String(),
		},
	})
}

// HasPendingScheduledRun reports whether a scheduled run of the configuration
// is still queued or running. The scheduler skips a due tick in that case.
func (repo *HypercheckDbRepository) HasPendingScheduledRun(ctx context.Context, exec Executor,
	configurationId string,
) (bool, error) {
	return repo.existsTestRun(ctx, exec, squirrel.Eq{
		"configuration_id": configurationId,
		"trigger_origin":   models.TriggerOriginScheduled.String(),
		"status": []string{
			models.TestRunQueued.String(),
			models.TestRunRunning.String(),
		},
	})
}

func (repo *HypercheckDbRepository) existsTestRun(ctx context.Context, exec Executor,
	condition squirrel.Eq,
) (bool, error) {
	subQuery, args, err := NewQueryBuilder().
		Select("1").
		From(dbmodels.TABLE_TEST_RUNS).
		Where(condition).
		ToSql()
	if err != nil {
		return false, errors.Wrap(err, "can't build sql query")
	}

	var exists bool
	err = exec.QueryRow(ctx, "SELECT EXISTS ("+subQuery+")", args...).Scan(&exists)
	return exists, err
}

func (repo *HypercheckDbRepository) IsCancelRequested(ctx context.Context, exec Executor,
	testRunId string,
) (bool, error) {
	query := NewQueryBuilder().
		Select("cancel_requested").
		From(dbmodels.TABLE_TEST_RUNS).
		Where(squirrel.Eq{"id": testRunId})

	sql, args, err := query.ToSql()
	if err != nil {
		return false, errors.Wrap(err, "can't build sql query")
	}

	var cancelRequested bool
	if err := exec.QueryRow(ctx, sql, args...).Scan(&cancelRequested); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, errors.Wrapf(models.NotFoundError, "test run %s", testRunId)
		}
		return false, err
	}
	return cancelRequested, nil
}
