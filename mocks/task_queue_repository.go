package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/hypercheck/hypercheck-backend/repositories"
)

type TaskQueueRepository struct {
	mock.Mock
}

func (m *TaskQueueRepository) EnqueueTestRunTask(
	ctx context.Context,
	tx repositories.Transaction,
	testRunId string,
) error {
	args := m.Called(ctx, tx, testRunId)
	return args.Error(0)
}
