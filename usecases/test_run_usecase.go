package usecases

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/mohae/deepcopy"

	"github.com/hypercheck/hypercheck-backend/models"
	"github.com/hypercheck/hypercheck-backend/repositories"
	"github.com/hypercheck/hypercheck-backend/usecases/executor_factory"
	"github.com/hypercheck/hypercheck-backend/utils"
)

type testRunUsecaseRepository interface {
	CreateTestRun(ctx context.Context, tx repositories.Transaction,
		newTestRunId string, input models.CreateTestRunInput) error
	GetTestRunById(ctx context.Context, exec repositories.Executor,
		testRunId string) (models.TestRun, error)
	ListTestRuns(ctx context.Context, exec repositories.Executor,
		filters models.ListTestRunsFilters) ([]models.TestRun, error)
	RequestTestRunCancellation(ctx context.Context, exec repositories.Executor,
		testRunId string) (bool, error)
	GetTestConfigurationById(ctx context.Context, exec repositories.Executor,
		configurationId string) (models.TestConfiguration, error)
	ListTestCaseResults(ctx context.Context, exec repositories.Executor,
		testRunId string) ([]models.TestCaseResult, error)
	ListLedgerEntries(ctx context.Context, exec repositories.Executor,
		testRunId string) ([]models.ResourceLedgerEntry, error)
	FailOrphanedTestRuns(ctx context.Context, exec repositories.Executor,
		errorMessage string) (int64, error)
}

type TestRunUsecase struct {
	executorFactory    executor_factory.ExecutorFactory
	transactionFactory executor_factory.TransactionFactory
	repository         testRunUsecaseRepository
	taskQueue          repositories.TaskQueueRepository
}

func NewTestRunUsecase(
	executorFactory executor_factory.ExecutorFactory,
	transactionFactory executor_factory.TransactionFactory,
	repository testRunUsecaseRepository,
	taskQueue repositories.TaskQueueRepository,
) TestRunUsecase {
	return TestRunUsecase{
		executorFactory:    executorFactory,
		transactionFactory: transactionFactory,
		repository:         repository,
		taskQueue:          taskQueue,
	}
}

// SubmitTestRun creates a queued run from the configuration's current state
// and enqueues its execution, atomically. The run executes against the
// snapshot taken here even if the configuration changes afterwards.
func (uc TestRunUsecase) SubmitTestRun(ctx context.Context, configurationId string,
	origin models.TriggerOrigin,
) (models.TestRun, error) {
	exec := uc.executorFactory.NewExecutor()
	config, err := uc.repository.GetTestConfigurationById(ctx, exec, configurationId)
	if err != nil {
		return models.TestRun{}, err
	}

	snapshot := deepcopy.Copy(config).(models.TestConfiguration)
	newTestRunId := uuid.NewString()

	err = uc.transactionFactory.Transaction(ctx, func(tx repositories.Transaction) error {
		if err := uc.repository.CreateTestRun(ctx, tx, newTestRunId, models.CreateTestRunInput{
			ConfigurationId: config.Id,
			ConfigSnapshot:  snapshot,
			TriggerOrigin:   origin,
		}); err != nil {
			return err
		}
		return uc.taskQueue.EnqueueTestRunTask(ctx, tx, newTestRunId)
	})
	if err != nil {
		return models.TestRun{}, err
	}

	return uc.repository.GetTestRunById(ctx, exec, newTestRunId)
}

func (uc TestRunUsecase) GetTestRun(ctx context.Context, testRunId string) (models.TestRun, error) {
	return uc.repository.GetTestRunById(ctx, uc.executorFactory.NewExecutor(), testRunId)
}

func (uc TestRunUsecase) ListTestRuns(ctx context.Context,
	filters models.ListTestRunsFilters,
) ([]models.TestRun, error) {
	return uc.repository.ListTestRuns(ctx, uc.executorFactory.NewExecutor(), filters)
}

// CancelTestRun flags the run for cooperative cancellation. A queued run is
// cancelled before it starts; a running one stops after its current case.
func (uc TestRunUsecase) CancelTestRun(ctx context.Context, testRunId string) error {
	exec := uc.executorFactory.NewExecutor()

	flagged, err := uc.repository.RequestTestRunCancellation(ctx, exec, testRunId)
	if err != nil {
		return err
	}
	if !flagged {
		// Either the run does not exist or it already reached a terminal
		// status. Disambiguate for the caller.
		if _, err := uc.repository.GetTestRunById(ctx, exec, testRunId); err != nil {
			return err
		}
		return errors.Wrapf(models.ErrRunNotPending, "test run %s", testRunId)
	}
	return nil
}

// RecoverOrphanedRuns fails every run left in RUNNING by a previous worker
// process. Their jobs died with the worker, so nothing else will ever
// finalize them.
func (uc TestRunUsecase) RecoverOrphanedRuns(ctx context.Context) (int64, error) {
	count, err := uc.repository.FailOrphanedTestRuns(ctx, uc.executorFactory.NewExecutor(),
		"run was orphaned by a worker restart")
	if err != nil {
		return 0, err
	}
	if count > 0 {
		utils.LoggerFromContext(ctx).WarnContext(ctx,
			"failed orphaned test runs left over from a previous worker", "count", count)
	}
	return count, nil
}

// GetRunReport assembles the full report of a run: the run itself, its case
// results in execution order, and the resource ledger with cleanup outcomes.
func (uc TestRunUsecase) GetRunReport(ctx context.Context, testRunId string) (models.RunReport, error) {
	exec := uc.executorFactory.NewExecutor()

	run, err := uc.repository.GetTestRunById(ctx, exec, testRunId)
	if err != nil {
		return models.RunReport{}, err
	}
	cases, err := uc.repository.ListTestCaseResults(ctx, exec, testRunId)
	if err != nil {
		return models.RunReport{}, err
	}
	ledger, err := uc.repository.ListLedgerEntries(ctx, exec, testRunId)
	if err != nil {
		return models.RunReport{}, err
	}

	return models.BuildRunReport(run, cases, ledger), nil
}
