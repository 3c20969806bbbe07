package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/hypercheck/hypercheck-backend/models"
	"github.com/hypercheck/hypercheck-backend/repositories"
)

type TestRunRepository struct {
	mock.Mock
}

func (m *TestRunRepository) CreateTestRun(ctx context.Context, tx repositories.Transaction,
	newTestRunId string, input models.CreateTestRunInput,
) error {
	args := m.Called(ctx, tx, newTestRunId, input)
	return args.Error(0)
}

func (m *TestRunRepository) GetTestRunById(ctx context.Context, exec repositories.Executor,
	testRunId string,
) (models.TestRun, error) {
	args := m.Called(ctx, exec, testRunId)
	return args.Get(0).(models.TestRun), args.Error(1)
}

func (m *TestRunRepository) ListTestRuns(ctx context.Context, exec repositories.Executor,
	filters models.ListTestRunsFilters,
) ([]models.TestRun, error) {
	args := m.Called(ctx, exec, filters)
	return args.Get(0).([]models.TestRun), args.Error(1)
}

func (m *TestRunRepository) RequestTestRunCancellation(ctx context.Context, exec repositories.Executor,
	testRunId string,
) (bool, error) {
	args := m.Called(ctx, exec, testRunId)
	return args.Bool(0), args.Error(1)
}

func (m *TestRunRepository) UpdateTestRunStatus(ctx context.Context, exec repositories.Executor,
	input models.UpdateTestRunStatusInput,
) (bool, error) {
	args := m.Called(ctx, exec, input)
	return args.Bool(0), args.Error(1)
}

func (m *TestRunRepository) FailOrphanedTestRuns(ctx context.Context, exec repositories.Executor,
	errorMessage string,
) (int64, error) {
	args := m.Called(ctx, exec, errorMessage)
	return args.Get(0).(int64), args.Error(1)
}

func (m *TestRunRepository) UpdateTestRunCounters(ctx context.Context, exec repositories.Executor,
	testRunId string, counters models.RunCounters,
) error {
	args := m.Called(ctx, exec, testRunId, counters)
	return args.Error(0)
}

func (m *TestRunRepository) IsCancelRequested(ctx context.Context, exec repositories.Executor,
	testRunId string,
) (bool, error) {
	args := m.Called(ctx, exec, testRunId)
	return args.Bool(0), args.Error(1)
}

func (m *TestRunRepository) GetTestConfigurationById(ctx context.Context, exec repositories.Executor,
	configurationId string,
) (models.TestConfiguration, error) {
	args := m.Called(ctx, exec, configurationId)
	return args.Get(0).(models.TestConfiguration), args.Error(1)
}

func (m *TestRunRepository) CreateTestCaseResult(ctx context.Context, exec repositories.Executor,
	newResultId string, input models.CreateTestCaseResultInput,
) error {
	args := m.Called(ctx, exec, newResultId, input)
	return args.Error(0)
}

func (m *TestRunRepository) ListTestCaseResults(ctx context.Context, exec repositories.Executor,
	testRunId string,
) ([]models.TestCaseResult, error) {
	args := m.Called(ctx, exec, testRunId)
	return args.Get(0).([]models.TestCaseResult), args.Error(1)
}

func (m *TestRunRepository) CreateLedgerEntry(ctx context.Context, exec repositories.Executor,
	newEntryId string, input models.CreateLedgerEntryInput,
) error {
	args := m.Called(ctx, exec, newEntryId, input)
	return args.Error(0)
}

func (m *TestRunRepository) ConfirmLedgerEntry(ctx context.Context, exec repositories.Executor,
	entryId string, remoteId string,
) error {
	args := m.Called(ctx, exec, entryId, remoteId)
	return args.Error(0)
}

func (m *TestRunRepository) DeleteLedgerEntry(ctx context.Context, exec repositories.Executor,
	entryId string,
) error {
	args := m.Called(ctx, exec, entryId)
	return args.Error(0)
}

func (m *TestRunRepository) UpdateLedgerEntryCleanupState(ctx context.Context, exec repositories.Executor,
	entryId string, state models.CleanupState, cleanupError *string,
) error {
	args := m.Called(ctx, exec, entryId, state, cleanupError)
	return args.Error(0)
}

func (m *TestRunRepository) ListLedgerEntries(ctx context.Context, exec repositories.Executor,
	testRunId string,
) ([]models.ResourceLedgerEntry, error) {
	args := m.Called(ctx, exec, testRunId)
	return args.Get(0).([]models.ResourceLedgerEntry), args.Error(1)
}
