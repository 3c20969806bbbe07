package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/hypercheck/hypercheck-backend/models"
	"github.com/hypercheck/hypercheck-backend/repositories"
)

type TestConfigurationRepository struct {
	mock.Mock
}

func (m *TestConfigurationRepository) CreateTestConfiguration(ctx context.Context, exec repositories.Executor,
	config models.TestConfiguration,
) error {
	args := m.Called(ctx, exec, config)
	return args.Error(0)
}

func (m *TestConfigurationRepository) GetTestConfigurationById(ctx context.Context, exec repositories.Executor,
	configurationId string,
) (models.TestConfiguration, error) {
	args := m.Called(ctx, exec, configurationId)
	return args.Get(0).(models.TestConfiguration), args.Error(1)
}

func (m *TestConfigurationRepository) ListTestConfigurations(ctx context.Context, exec repositories.Executor,
) ([]models.TestConfiguration, error) {
	args := m.Called(ctx, exec)
	return args.Get(0).([]models.TestConfiguration), args.Error(1)
}

func (m *TestConfigurationRepository) UpdateTestConfiguration(ctx context.Context, exec repositories.Executor,
	input models.UpdateTestConfigurationInput,
) error {
	args := m.Called(ctx, exec, input)
	return args.Error(0)
}

func (m *TestConfigurationRepository) DeleteTestConfiguration(ctx context.Context, exec repositories.Executor,
	configurationId string,
) error {
	args := m.Called(ctx, exec, configurationId)
	return args.Error(0)
}

func (m *TestConfigurationRepository) UpsertScheduleEntry(ctx context.Context, exec repositories.Executor,
	configurationId string, rule models.RecurrenceRule,
) error {
	args := m.Called(ctx, exec, configurationId, rule)
	return args.Error(0)
}

func (m *TestConfigurationRepository) DeleteScheduleEntry(ctx context.Context, exec repositories.Executor,
	configurationId string,
) error {
	args := m.Called(ctx, exec, configurationId)
	return args.Error(0)
}

func (m *TestConfigurationRepository) HasActiveTestRunsForConfiguration(ctx context.Context, exec repositories.Executor,
	configurationId string,
) (bool, error) {
	args := m.Called(ctx, exec, configurationId)
	return args.Bool(0), args.Error(1)
}
