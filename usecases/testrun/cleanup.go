package testrun

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/hypercheck/hypercheck-backend/models"
	"github.com/hypercheck/hypercheck-backend/platform"
	"github.com/hypercheck/hypercheck-backend/repositories"
	"github.com/hypercheck/hypercheck-backend/utils"
)

const cleanupAttempts = 3

// cleanupRunResources tears down every tracked resource of a run, newest
// first so dependents (snapshots, backups) go before the guests behind them.
// A resource that cannot be deleted is marked cleanup_failed and left for
// manual intervention; cleanup failures never fail the run.
func cleanupRunResources(
	ctx context.Context,
	exec repositories.Executor,
	repository ledgerRepository,
	session platform.Session,
	testRunId string,
) error {
	logger := utils.LoggerFromContext(ctx)

	entries, err := repository.ListLedgerEntries(ctx, exec, testRunId)
	if err != nil {
		return err
	}

	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		if entry.CleanupState == models.CleanupDone {
			continue
		}

		// An unconfirmed entry without a remote id never made it onto the
		// platform; there is nothing to delete.
		if !entry.Confirmed && entry.RemoteId == "" {
			if err := repository.UpdateLedgerEntryCleanupState(ctx, exec,
				entry.Id, models.CleanupDone, nil); err != nil {
				return err
			}
			continue
		}

		deleteErr := retry.Do(
			func() error {
				return session.DeleteResource(ctx, entry.Kind, entry.Node, entry.RemoteId)
			},
			retry.Attempts(cleanupAttempts),
			retry.LastErrorOnly(true),
			retry.Delay(500*time.Millisecond),
			retry.DelayType(retry.BackOffDelay),
			retry.Context(ctx),
		)
		if deleteErr != nil {
			logger.WarnContext(ctx, "failed to clean up resource",
				"test_run_id", testRunId,
				"kind", entry.Kind,
				"remote_id", entry.RemoteId,
				"error", deleteErr.Error())
			message := deleteErr.Error()
			if err := repository.UpdateLedgerEntryCleanupState(ctx, exec,
				entry.Id, models.CleanupFailed, &message); err != nil {
				return err
			}
			continue
		}

		if err := repository.UpdateLedgerEntryCleanupState(ctx, exec,
			entry.Id, models.CleanupDone, nil); err != nil {
			return err
		}
	}
	return nil
}
