package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/hypercheck/hypercheck-backend/models"
	"github.com/hypercheck/hypercheck-backend/repositories"
)

type ScheduleEntryRepository struct {
	mock.Mock
}

func (m *ScheduleEntryRepository) ListScheduleEntries(ctx context.Context, exec repositories.Executor,
) ([]models.ScheduleEntry, error) {
	args := m.Called(ctx, exec)
	return args.Get(0).([]models.ScheduleEntry), args.Error(1)
}

func (m *ScheduleEntryRepository) UpdateScheduleEntryLastFired(ctx context.Context, exec repositories.Executor,
	configurationId string, firedAt time.Time,
) error {
	args := m.Called(ctx, exec, configurationId, firedAt)
	return args.Error(0)
}

func (m *ScheduleEntryRepository) HasPendingScheduledRun(ctx context.Context, exec repositories.Executor,
	configurationId string,
) (bool, error) {
	args := m.Called(ctx, exec, configurationId)
	return args.Bool(0), args.Error(1)
}

type RunSubmitter struct {
	mock.Mock
}

func (m *RunSubmitter) SubmitTestRun(ctx context.Context, configurationId string,
	origin models.TriggerOrigin,
) (models.TestRun, error) {
	args := m.Called(ctx, configurationId, origin)
	return args.Get(0).(models.TestRun), args.Error(1)
}
