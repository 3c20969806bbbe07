package testrun

import (
	"context"
	"time"

	"github.com/hypercheck/hypercheck-backend/models"
	"github.com/hypercheck/hypercheck-backend/repositories"
	"github.com/hypercheck/hypercheck-backend/usecases/executor_factory"
	"github.com/hypercheck/hypercheck-backend/utils"
)

type scheduleRepository interface {
	ListScheduleEntries(ctx context.Context, exec repositories.Executor,
	) ([]models.ScheduleEntry, error)
	UpdateScheduleEntryLastFired(ctx context.Context, exec repositories.Executor,
		configurationId string, firedAt time.Time) error
	HasPendingScheduledRun(ctx context.Context, exec repositories.Executor,
		configurationId string) (bool, error)
}

type runSubmitter interface {
	SubmitTestRun(ctx context.Context, configurationId string,
		origin models.TriggerOrigin) (models.TestRun, error)
}

// ScheduleRunsUsecase fires scheduled runs for configurations whose cron rule
// is due. Due-ness is recomputed from the durably stored last fire time, so a
// scheduler that was down over several ticks fires exactly one catch-up run.
type ScheduleRunsUsecase struct {
	executorFactory executor_factory.ExecutorFactory
	repository      scheduleRepository
	runs            runSubmitter
}

func NewScheduleRunsUsecase(
	executorFactory executor_factory.ExecutorFactory,
	repository scheduleRepository,
	runs runSubmitter,
) ScheduleRunsUsecase {
	return ScheduleRunsUsecase{
		executorFactory: executorFactory,
		repository:      repository,
		runs:            runs,
	}
}

// ScheduleDueRuns walks every schedule entry once. Failures on one entry do
// not stop the others.
func (uc ScheduleRunsUsecase) ScheduleDueRuns(ctx context.Context) error {
	exec := uc.executorFactory.NewExecutor()
	logger := utils.LoggerFromContext(ctx)

	entries, err := uc.repository.ListScheduleEntries(ctx, exec)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, entry := range entries {
		if err := uc.scheduleIfDue(ctx, exec, entry, now); err != nil {
			logger.ErrorContext(ctx, "failed to schedule configuration",
				"configuration_id", entry.ConfigurationId,
				"error", err.Error())
		}
	}
	return nil
}

func (uc ScheduleRunsUsecase) scheduleIfDue(ctx context.Context,
	exec repositories.Executor, entry models.ScheduleEntry, now time.Time,
) error {
	due, err := models.EntryIsDueNow(entry, now)
	if err != nil {
		return err
	}
	if !due {
		return nil
	}

	// A previous scheduled run still queued or running absorbs the tick. The
	// fire time advances regardless, so the backlog never piles up.
	pending, err := uc.repository.HasPendingScheduledRun(ctx, exec, entry.ConfigurationId)
	if err != nil {
		return err
	}
	if !pending {
		run, err := uc.runs.SubmitTestRun(ctx, entry.ConfigurationId, models.TriggerOriginScheduled)
		if err != nil {
			return err
		}
		utils.LoggerFromContext(ctx).InfoContext(ctx, "scheduled test run submitted",
			"configuration_id", entry.ConfigurationId,
			"test_run_id", run.Id)
	}

	return uc.repository.UpdateScheduleEntryLastFired(ctx, exec, entry.ConfigurationId, now)
}
