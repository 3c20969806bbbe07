// Package usecases wires repositories, the platform adapter and the task
// queue into the engine's operations.
package usecases

import (
	"time"

	"github.com/hypercheck/hypercheck-backend/platform"
	"github.com/hypercheck/hypercheck-backend/repositories"
	"github.com/hypercheck/hypercheck-backend/usecases/executor_factory"
	"github.com/hypercheck/hypercheck-backend/usecases/testrun"
)

type Usecases struct {
	executorGetter  repositories.ExecutorGetter
	repository      *repositories.HypercheckDbRepository
	taskQueue       repositories.TaskQueueRepository
	platformAdapter platform.Adapter
	caseTimeout     time.Duration
}

type Option func(*Usecases)

func WithCaseTimeout(timeout time.Duration) Option {
	return func(u *Usecases) {
		u.caseTimeout = timeout
	}
}

func NewUsecases(
	executorGetter repositories.ExecutorGetter,
	repository *repositories.HypercheckDbRepository,
	taskQueue repositories.TaskQueueRepository,
	platformAdapter platform.Adapter,
	options ...Option,
) Usecases {
	usecases := Usecases{
		executorGetter:  executorGetter,
		repository:      repository,
		taskQueue:       taskQueue,
		platformAdapter: platformAdapter,
	}
	for _, option := range options {
		option(&usecases)
	}
	return usecases
}

func (u Usecases) NewExecutorFactory() executor_factory.DbExecutorFactory {
	return executor_factory.NewDbExecutorFactory(u.executorGetter)
}

func (u Usecases) NewTestRunUsecase() TestRunUsecase {
	return NewTestRunUsecase(
		u.NewExecutorFactory(),
		u.NewExecutorFactory(),
		u.repository,
		u.taskQueue,
	)
}

func (u Usecases) NewTestConfigurationUsecase() TestConfigurationUsecase {
	return NewTestConfigurationUsecase(
		u.NewExecutorFactory(),
		u.NewExecutorFactory(),
		u.repository,
	)
}

func (u Usecases) NewTestRunWorker() testrun.TestRunWorker {
	return testrun.NewTestRunWorker(
		u.NewExecutorFactory(),
		u.repository,
		u.platformAdapter,
		u.caseTimeout,
	)
}

func (u Usecases) NewScheduleRunsUsecase() testrun.ScheduleRunsUsecase {
	return testrun.NewScheduleRunsUsecase(
		u.NewExecutorFactory(),
		u.repository,
		u.NewTestRunUsecase(),
	)
}
