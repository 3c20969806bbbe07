package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/hypercheck/hypercheck-backend/models"
	"github.com/hypercheck/hypercheck-backend/repositories/dbmodels"
)

func adaptResourceLedgerRow(row pgx.CollectableRow) (models.ResourceLedgerEntry, error) {
	db, err := pgx.RowToStructByName[dbmodels.DBResourceLedgerEntry](row)
	if err != nil {
		return models.ResourceLedgerEntry{}, err
	}
	return dbmodels.AdaptResourceLedgerEntry(db)
}

// CreateLedgerEntry registers an intent row before the remote resource exists.
// The seq is allocated from the run's current maximum so that cleanup can walk
// entries in reverse creation order.
func (repo *HypercheckDbRepository) CreateLedgerEntry(ctx context.Context, exec Executor,
	newEntryId string, input models.CreateLedgerEntryInput,
) error {
	_, err := ExecBuilder(
		ctx,
		exec,
		NewQueryBuilder().Insert(dbmodels.TABLE_RESOURCE_LEDGER).
			Columns(
				"id",
				"test_run_id",
				"seq",
				"kind",
				"node",
				"remote_id",
				"confirmed",
				"cleanup_state",
			).
			Values(
				newEntryId,
				input.TestRunId,
				squirrel.Expr(
					"(SELECT COALESCE(max(seq), 0) + 1 FROM "+dbmodels.TABLE_RESOURCE_LEDGER+" WHERE test_run_id = ?)",
					input.TestRunId,
				),
				string(input.Kind),
				input.Node,
				input.RemoteId,
				false,
				models.CleanupPending.String(),
			),
	)
	return wrapDbError(err)
}

// ConfirmLedgerEntry marks the remote resource as actually created and records
// its definitive remote identifier.
func (repo *HypercheckDbRepository) ConfirmLedgerEntry(ctx context.Context, exec Executor,
	entryId string, remoteId string,
) error {
	_, err := ExecBuilder(
		ctx,
		exec,
		NewQueryBuilder().Update(dbmodels.TABLE_RESOURCE_LEDGER).
			Set("confirmed", true).
			Set("remote_id", remoteId).
			Where(squirrel.Eq{"id": entryId}),
	)
	return wrapDbError(err)
}

// DeleteLedgerEntry removes an intent row after a failed provisioning that is
// known not to have created anything remotely.
func (repo *HypercheckDbRepository) DeleteLedgerEntry(ctx context.Context, exec Executor,
	entryId string,
) error {
	_, err := ExecBuilder(
		ctx,
		exec,
		NewQueryBuilder().Delete(dbmodels.TABLE_RESOURCE_LEDGER).
			Where(squirrel.Eq{"id": entryId}),
	)
	return wrapDbError(err)
}

func (repo *HypercheckDbRepository) UpdateLedgerEntryCleanupState(ctx context.Context, exec Executor,
	entryId string, state models.CleanupState, cleanupError *string,
) error {
	_, err := ExecBuilder(
		ctx,
		exec,
		NewQueryBuilder().Update(dbmodels.TABLE_RESOURCE_LEDGER).
			Set("cleanup_state", state.String()).
			Set("cleanup_error", cleanupError).
			Where(squirrel.Eq{"id": entryId}),
	)
	return wrapDbError(err)
}

// ListLedgerEntries returns the ledger of a run in creation order.
func (repo *HypercheckDbRepository) ListLedgerEntries(ctx context.Context, exec Executor,
	testRunId string,
) ([]models.ResourceLedgerEntry, error) {
	return SqlToListOfRow(
		ctx,
		exec,
		NewQueryBuilder().
			Select(dbmodels.SelectResourceLedgerColumns...).
			From(dbmodels.TABLE_RESOURCE_LEDGER).
			Where(squirrel.Eq{"test_run_id": testRunId}).
			OrderBy("seq ASC"),
		adaptResourceLedgerRow,
	)
}
