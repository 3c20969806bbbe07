package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"

	"github.com/hypercheck/hypercheck-backend/models"
	"github.com/hypercheck/hypercheck-backend/utils"
)

const (
	// A run is never retried by the queue: a crashed worker leaves the run in
	// RUNNING and the status transition guard rejects a second claim anyway.
	nbAttemptsTestRun = 1
	priorityTestRun   = 2 // nb: higher number is lower priority (between 1 and 4)
)

type TaskQueueRepository interface {
	EnqueueTestRunTask(
		ctx context.Context,
		tx Transaction,
		testRunId string,
	) error
}

type riverRepository struct {
	client *river.Client[pgx.Tx]
}

func NewTaskQueueRepository(client *river.Client[pgx.Tx]) TaskQueueRepository {
	return riverRepository{client: client}
}

// EnqueueTestRunTask enqueues the execution of a run in the same transaction
// that created its row, so a run can never exist without its job or the other
// way around.
func (r riverRepository) EnqueueTestRunTask(
	ctx context.Context,
	tx Transaction,
	testRunId string,
) error {
	res, err := r.client.InsertTx(ctx, tx.RawTx(), models.TestRunArgs{
		TestRunId: testRunId,
	}, &river.InsertOpts{
		MaxAttempts: nbAttemptsTestRun,
		Priority:    priorityTestRun,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
		},
	})
	if err != nil {
		return err
	}

	if res.UniqueSkippedAsDuplicate {
		utils.LoggerFromContext(ctx).DebugContext(ctx,
			"test run task skipped as duplicate", "test_run_id", testRunId)
	}
	return nil
}
