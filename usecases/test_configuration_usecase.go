package usecases

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/hypercheck/hypercheck-backend/models"
	"github.com/hypercheck/hypercheck-backend/repositories"
	"github.com/hypercheck/hypercheck-backend/usecases/executor_factory"
)

type testConfigurationUsecaseRepository interface {
	CreateTestConfiguration(ctx context.Context, exec repositories.Executor,
		config models.TestConfiguration) error
	GetTestConfigurationById(ctx context.Context, exec repositories.Executor,
		configurationId string) (models.TestConfiguration, error)
	ListTestConfigurations(ctx context.Context, exec repositories.Executor,
	) ([]models.TestConfiguration, error)
	UpdateTestConfiguration(ctx context.Context, exec repositories.Executor,
		input models.UpdateTestConfigurationInput) error
	DeleteTestConfiguration(ctx context.Context, exec repositories.Executor,
		configurationId string) error
	UpsertScheduleEntry(ctx context.Context, exec repositories.Executor,
		configurationId string, rule models.RecurrenceRule) error
	DeleteScheduleEntry(ctx context.Context, exec repositories.Executor,
		configurationId string) error
	HasActiveTestRunsForConfiguration(ctx context.Context, exec repositories.Executor,
		configurationId string) (bool, error)
}

type TestConfigurationUsecase struct {
	executorFactory    executor_factory.ExecutorFactory
	transactionFactory executor_factory.TransactionFactory
	repository         testConfigurationUsecaseRepository
}

func NewTestConfigurationUsecase(
	executorFactory executor_factory.ExecutorFactory,
	transactionFactory executor_factory.TransactionFactory,
	repository testConfigurationUsecaseRepository,
) TestConfigurationUsecase {
	return TestConfigurationUsecase{
		executorFactory:    executorFactory,
		transactionFactory: transactionFactory,
		repository:         repository,
	}
}

func (uc TestConfigurationUsecase) CreateConfiguration(ctx context.Context,
	config models.TestConfiguration,
) (models.TestConfiguration, error) {
	if err := config.Validate(); err != nil {
		return models.TestConfiguration{}, err
	}
	config.Id = uuid.NewString()

	err := uc.transactionFactory.Transaction(ctx, func(tx repositories.Transaction) error {
		if err := uc.repository.CreateTestConfiguration(ctx, tx, config); err != nil {
			return err
		}
		if config.Recurrence != nil {
			return uc.repository.UpsertScheduleEntry(ctx, tx, config.Id, *config.Recurrence)
		}
		return nil
	})
	if err != nil {
		return models.TestConfiguration{}, err
	}

	return uc.repository.GetTestConfigurationById(ctx, uc.executorFactory.NewExecutor(), config.Id)
}

func (uc TestConfigurationUsecase) GetConfiguration(ctx context.Context,
	configurationId string,
) (models.TestConfiguration, error) {
	return uc.repository.GetTestConfigurationById(ctx,
		uc.executorFactory.NewExecutor(), configurationId)
}

func (uc TestConfigurationUsecase) ListConfigurations(ctx context.Context,
) ([]models.TestConfiguration, error) {
	return uc.repository.ListTestConfigurations(ctx, uc.executorFactory.NewExecutor())
}

// UpdateConfiguration applies a partial update and keeps the schedule entry in
// sync with the recurrence rule. The whole post-update state is validated, so
// an update can not leave a saved configuration invalid.
func (uc TestConfigurationUsecase) UpdateConfiguration(ctx context.Context,
	input models.UpdateTestConfigurationInput,
) (models.TestConfiguration, error) {
	err := uc.transactionFactory.Transaction(ctx, func(tx repositories.Transaction) error {
		config, err := uc.repository.GetTestConfigurationById(ctx, tx, input.Id)
		if err != nil {
			return err
		}

		updated := applyConfigurationUpdate(config, input)
		if err := updated.Validate(); err != nil {
			return err
		}
		if err := uc.repository.UpdateTestConfiguration(ctx, tx, input); err != nil {
			return err
		}

		switch {
		case input.SetRecurrence != nil:
			return uc.repository.UpsertScheduleEntry(ctx, tx, input.Id, *input.SetRecurrence)
		case input.ClearRecurrence:
			return uc.repository.DeleteScheduleEntry(ctx, tx, input.Id)
		}
		return nil
	})
	if err != nil {
		return models.TestConfiguration{}, err
	}

	return uc.repository.GetTestConfigurationById(ctx, uc.executorFactory.NewExecutor(), input.Id)
}

// DeleteConfiguration refuses to delete a configuration while runs are still
// queued or running against it. Terminal runs are removed along with the
// configuration; they carry their own snapshot and are not consulted again.
func (uc TestConfigurationUsecase) DeleteConfiguration(ctx context.Context,
	configurationId string,
) error {
	return uc.transactionFactory.Transaction(ctx, func(tx repositories.Transaction) error {
		if _, err := uc.repository.GetTestConfigurationById(ctx, tx, configurationId); err != nil {
			return err
		}
		hasActiveRuns, err := uc.repository.HasActiveTestRunsForConfiguration(ctx, tx, configurationId)
		if err != nil {
			return err
		}
		if hasActiveRuns {
			return errors.Wrapf(models.ErrConfigurationHasRuns, "configuration %s", configurationId)
		}

		if err := uc.repository.DeleteScheduleEntry(ctx, tx, configurationId); err != nil {
			return err
		}
		return uc.repository.DeleteTestConfiguration(ctx, tx, configurationId)
	})
}

func applyConfigurationUpdate(config models.TestConfiguration,
	input models.UpdateTestConfigurationInput,
) models.TestConfiguration {
	if input.Name != nil {
		config.Name = *input.Name
	}
	if input.Description != nil {
		config.Description = *input.Description
	}
	if input.SelectedCases != nil {
		config.SelectedCases = input.SelectedCases
	}
	if input.DestructiveAllowed != nil {
		config.DestructiveAllowed = *input.DestructiveAllowed
	}
	if input.CleanupOnCompletion != nil {
		config.CleanupOnCompletion = *input.CleanupOnCompletion
	}
	if input.SetRecurrence != nil {
		config.Recurrence = input.SetRecurrence
	} else if input.ClearRecurrence {
		config.Recurrence = nil
	}
	return config
}
