package repositories

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/hypercheck/hypercheck-backend/models"
	"github.com/hypercheck/hypercheck-backend/repositories/dbmodels"
)

func adaptScheduleEntryRow(row pgx.CollectableRow) (models.ScheduleEntry, error) {
	db, err := pgx.RowToStructByName[dbmodels.DBScheduleEntry](row)
	if err != nil {
		return models.ScheduleEntry{}, err
	}
	return dbmodels.AdaptScheduleEntry(db)
}

// UpsertScheduleEntry installs or replaces the schedule entry of a
// configuration. Replacing the rule resets the last-fired timestamp so the new
// rule is evaluated from its anchor.
func (repo *HypercheckDbRepository) UpsertScheduleEntry(ctx context.Context, exec Executor,
	configurationId string, rule models.RecurrenceRule,
) error {
	_, err := ExecBuilder(
		ctx,
		exec,
		NewQueryBuilder().Insert(dbmodels.TABLE_SCHEDULE_ENTRIES).
			Columns("configuration_id", "cron_expr", "anchor_at", "last_fired_at").
			Values(configurationId, rule.CronExpr, rule.AnchorAt, nil).
			Suffix(`ON CONFLICT (configuration_id) DO UPDATE
				SET cron_expr = EXCLUDED.cron_expr,
					anchor_at = EXCLUDED.anchor_at,
					last_fired_at = NULL`),
	)
	return wrapDbError(err)
}

func (repo *HypercheckDbRepository) DeleteScheduleEntry(ctx context.Context, exec Executor,
	configurationId string,
) error {
	_, err := ExecBuilder(
		ctx,
		exec,
		NewQueryBuilder().Delete(dbmodels.TABLE_SCHEDULE_ENTRIES).
			Where(squirrel.Eq{"configuration_id": configurationId}),
	)
	return wrapDbError(err)
}

func (repo *HypercheckDbRepository) ListScheduleEntries(ctx context.Context, exec Executor,
) ([]models.ScheduleEntry, error) {
	return SqlToListOfRow(
		ctx,
		exec,
		NewQueryBuilder().
			Select(dbmodels.SelectScheduleEntryColumns...).
			From(dbmodels.TABLE_SCHEDULE_ENTRIES).
			OrderBy("configuration_id"),
		adaptScheduleEntryRow,
	)
}

func (repo *HypercheckDbRepository) UpdateScheduleEntryLastFired(ctx context.Context, exec Executor,
	configurationId string, firedAt time.Time,
) error {
	_, err := ExecBuilder(
		ctx,
		exec,
		NewQueryBuilder().Update(dbmodels.TABLE_SCHEDULE_ENTRIES).
			Set("last_fired_at", firedAt).
			Where(squirrel.Eq{"configuration_id": configurationId}),
	)
	return wrapDbError(err)
}
