package testrun

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/hypercheck/hypercheck-backend/models"
	"github.com/hypercheck/hypercheck-backend/platform"
	"github.com/hypercheck/hypercheck-backend/repositories"
	"github.com/hypercheck/hypercheck-backend/usecases/executor_factory"
	"github.com/hypercheck/hypercheck-backend/utils"
)

type runWorkerRepository interface {
	ledgerRepository

	GetTestRunById(ctx context.Context, exec repositories.Executor,
		testRunId string) (models.TestRun, error)
	UpdateTestRunStatus(ctx context.Context, exec repositories.Executor,
		input models.UpdateTestRunStatusInput) (executed bool, err error)
	UpdateTestRunCounters(ctx context.Context, exec repositories.Executor,
		testRunId string, counters models.RunCounters) error
	IsCancelRequested(ctx context.Context, exec repositories.Executor,
		testRunId string) (bool, error)
	CreateTestCaseResult(ctx context.Context, exec repositories.Executor,
		newResultId string, input models.CreateTestCaseResultInput) error
}

// TestRunWorker drives one whole test run per job: claim, execute the
// selected cases in catalog order, clean up, finalize.
type TestRunWorker struct {
	river.WorkerDefaults[models.TestRunArgs]

	executorFactory executor_factory.ExecutorFactory
	repository      runWorkerRepository
	adapter         platform.Adapter
	caseTimeout     time.Duration
}

func NewTestRunWorker(
	executorFactory executor_factory.ExecutorFactory,
	repository runWorkerRepository,
	adapter platform.Adapter,
	caseTimeout time.Duration,
) TestRunWorker {
	return TestRunWorker{
		executorFactory: executorFactory,
		repository:      repository,
		adapter:         adapter,
		caseTimeout:     caseTimeout,
	}
}

func (w *TestRunWorker) Timeout(job *river.Job[models.TestRunArgs]) time.Duration {
	// A run may chain many slow lifecycle cases; the per-case timeout is the
	// real guard.
	return 4 * time.Hour
}

func (w *TestRunWorker) Work(ctx context.Context, job *river.Job[models.TestRunArgs]) error {
	exec := w.executorFactory.NewExecutor()
	logger := utils.LoggerFromContext(ctx).With("test_run_id", job.Args.TestRunId)
	ctx = utils.StoreLoggerInContext(ctx, logger)

	run, err := w.repository.GetTestRunById(ctx, exec, job.Args.TestRunId)
	if err != nil {
		return err
	}

	claimed, err := w.claimRun(ctx, exec, run)
	if err != nil || !claimed {
		return err
	}

	session, err := w.adapter.Connect(ctx, platform.Target{
		Profile: run.ConfigSnapshot.ConnectionProfile,
		Node:    run.ConfigSnapshot.TargetNode,
	})
	if err != nil {
		logger.ErrorContext(ctx, "could not open platform session", "error", err.Error())
		return w.finalizeRun(ctx, exec, run.Id, models.UpdateTestRunStatusInput{
			Id:                     run.Id,
			Status:                 models.TestRunFailed,
			CurrentStatusCondition: models.TestRunRunning,
			ErrorMessage:           utils.Ptr("platform session failed: " + err.Error()),
		})
	}
	defer session.Close()

	counters, cancelled, err := w.executeCases(ctx, exec, run, session)
	if err != nil {
		// Infrastructure failure (own database unreachable, ledger writes
		// failing). The run cannot produce a trustworthy report, but resources
		// already confirmed on the platform still get a best-effort teardown
		// while the session is open.
		logger.ErrorContext(ctx, "test run aborted", "error", err.Error())
		if run.ConfigSnapshot.CleanupOnCompletion {
			if cleanupErr := cleanupRunResources(ctx, exec, w.repository, session, run.Id); cleanupErr != nil {
				logger.ErrorContext(ctx, "cleanup phase aborted", "error", cleanupErr.Error())
			}
		}
		return w.finalizeRun(ctx, exec, run.Id, models.UpdateTestRunStatusInput{
			Id:                     run.Id,
			Status:                 models.TestRunFailed,
			CurrentStatusCondition: models.TestRunRunning,
			Counters:               &counters,
			ErrorMessage:           utils.Ptr(err.Error()),
		})
	}

	if run.ConfigSnapshot.CleanupOnCompletion {
		if err := cleanupRunResources(ctx, exec, w.repository, session, run.Id); err != nil {
			logger.ErrorContext(ctx, "cleanup phase aborted", "error", err.Error())
		}
	}

	finalStatus := models.FinalRunStatus(cancelled, counters)
	logger.InfoContext(ctx, "test run finished",
		"status", finalStatus.String(),
		"passed", counters.Passed,
		"failed", counters.Failed,
		"skipped", counters.Skipped,
		"errored", counters.Errored)

	return w.finalizeRun(ctx, exec, run.Id, models.UpdateTestRunStatusInput{
		Id:                     run.Id,
		Status:                 finalStatus,
		CurrentStatusCondition: models.TestRunRunning,
		Counters:               &counters,
	})
}

// claimRun moves the run from QUEUED to RUNNING, or to CANCELLED when the
// cancellation flag was raised before any case ran. Returns false when the
// run is not claimable (already picked up, or terminal).
func (w *TestRunWorker) claimRun(ctx context.Context, exec repositories.Executor,
	run models.TestRun,
) (bool, error) {
	if run.Status != models.TestRunQueued {
		utils.LoggerFromContext(ctx).InfoContext(ctx,
			"test run is not queued, skipping", "status", run.Status.String())
		return false, nil
	}

	if run.CancelRequested {
		_, err := w.repository.UpdateTestRunStatus(ctx, exec, models.UpdateTestRunStatusInput{
			Id:                     run.Id,
			Status:                 models.TestRunCancelled,
			CurrentStatusCondition: models.TestRunQueued,
		})
		return false, err
	}

	executed, err := w.repository.UpdateTestRunStatus(ctx, exec, models.UpdateTestRunStatusInput{
		Id:                     run.Id,
		Status:                 models.TestRunRunning,
		CurrentStatusCondition: models.TestRunQueued,
	})
	if err != nil {
		return false, err
	}
	return executed, nil
}

func (w *TestRunWorker) executeCases(ctx context.Context, exec repositories.Executor,
	run models.TestRun, session platform.Session,
) (counters models.RunCounters, cancelled bool, err error) {
	snapshot := run.ConfigSnapshot
	runner := caseRunner{
		session: session,
		scope: runLedgerScope{
			exec:       exec,
			repository: w.repository,
			testRunId:  run.Id,
			snapshot:   snapshot,
		},
		caseTimeout: w.caseTimeout,
	}

	for i, def := range models.SelectCases(snapshot.SelectedCases) {
		// The cancellation flag is only observed between cases; the case in
		// flight always finishes and records its verdict.
		cancelRequested, err := w.repository.IsCancelRequested(ctx, exec, run.Id)
		if err != nil {
			return counters, false, err
		}
		if cancelRequested {
			return counters, true, nil
		}

		started := time.Now()
		var outcome platform.CaseOutcome
		if def.Destructive && !snapshot.DestructiveAllowed {
			outcome = skippedOutcome("destructive cases are disabled in this configuration")
		} else {
			outcome = runner.run(ctx, def)
		}

		switch outcome.Status {
		case models.CasePass:
			counters.Passed++
		case models.CaseFail:
			counters.Failed++
		case models.CaseSkip:
			counters.Skipped++
		case models.CaseError:
			counters.Errored++
		}

		if err := w.repository.CreateTestCaseResult(ctx, exec, uuid.NewString(),
			models.CreateTestCaseResultInput{
				TestRunId: run.Id,
				Index:     i,
				Category:  def.Category,
				Name:      def.Name,
				Status:    outcome.Status,
				Duration:  time.Since(started),
				Message:   outcome.Message,
				Logs:      outcome.Logs,
			}); err != nil {
			return counters, false, err
		}
		// Progress is visible to status polls while the run is going.
		if err := w.repository.UpdateTestRunCounters(ctx, exec, run.Id, counters); err != nil {
			return counters, false, err
		}
	}
	return counters, false, nil
}

func (w *TestRunWorker) finalizeRun(ctx context.Context, exec repositories.Executor,
	testRunId string, input models.UpdateTestRunStatusInput,
) error {
	executed, err := w.repository.UpdateTestRunStatus(ctx, exec, input)
	if err != nil {
		return err
	}
	if !executed {
		utils.LoggerFromContext(ctx).WarnContext(ctx,
			"test run status was changed by another writer during finalization",
			"wanted_status", input.Status.String())
	}
	return nil
}
