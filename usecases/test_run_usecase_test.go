package usecases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/hypercheck/hypercheck-backend/mocks"
	"github.com/hypercheck/hypercheck-backend/models"
	"github.com/hypercheck/hypercheck-backend/usecases/executor_factory"
)

type TestRunUsecaseTestSuite struct {
	suite.Suite
	repository         *mocks.TestRunRepository
	taskQueue          *mocks.TaskQueueRepository
	transactionFactory *mocks.TransactionFactory

	configurationId string
	testRunId       string
	configuration   models.TestConfiguration
}

func (suite *TestRunUsecaseTestSuite) SetupTest() {
	suite.repository = new(mocks.TestRunRepository)
	suite.taskQueue = new(mocks.TaskQueueRepository)
	suite.transactionFactory = &mocks.TransactionFactory{TxMock: new(mocks.Transaction)}

	suite.configurationId = "77c65f0a-2129-4d5e-b97f-61a159ab0dd9"
	suite.testRunId = "c1d6c596-fe77-4c53-9674-9e4301e1bb44"
	suite.configuration = models.TestConfiguration{
		Id:            suite.configurationId,
		Name:          "weekly full",
		TargetNode:    "pve1",
		SelectedCases: []string{"cluster.list_nodes"},
	}
}

func (suite *TestRunUsecaseTestSuite) makeUsecase() TestRunUsecase {
	return NewTestRunUsecase(
		executor_factory.NewExecutorFactoryStub(),
		suite.transactionFactory,
		suite.repository,
		suite.taskQueue,
	)
}

func (suite *TestRunUsecaseTestSuite) AssertExpectations() {
	t := suite.T()
	suite.repository.AssertExpectations(t)
	suite.taskQueue.AssertExpectations(t)
	suite.transactionFactory.AssertExpectations(t)
}

func (suite *TestRunUsecaseTestSuite) Test_SubmitTestRun_nominal() {
	ctx := context.Background()

	suite.repository.On("GetTestConfigurationById", ctx, mock.Anything, suite.configurationId).
		Return(suite.configuration, nil)
	suite.transactionFactory.On("Transaction", ctx, mock.Anything).Return(nil)
	suite.repository.On("CreateTestRun", ctx, suite.transactionFactory.TxMock, mock.Anything,
		mock.MatchedBy(func(input models.CreateTestRunInput) bool {
			return input.ConfigurationId == suite.configurationId &&
				input.TriggerOrigin == models.TriggerOriginManual &&
				input.ConfigSnapshot.Name == "weekly full"
		})).Return(nil)
	suite.taskQueue.On("EnqueueTestRunTask", ctx, suite.transactionFactory.TxMock, mock.Anything).
		Return(nil)
	suite.repository.On("GetTestRunById", ctx, mock.Anything, mock.Anything).
		Return(models.TestRun{Id: suite.testRunId, Status: models.TestRunQueued}, nil)

	run, err := suite.makeUsecase().SubmitTestRun(ctx, suite.configurationId, models.TriggerOriginManual)

	suite.NoError(err)
	suite.Equal(suite.testRunId, run.Id)
	suite.Equal(models.TestRunQueued, run.Status)
	suite.AssertExpectations()
}

func (suite *TestRunUsecaseTestSuite) Test_SubmitTestRun_configuration_not_found() {
	ctx := context.Background()

	suite.repository.On("GetTestConfigurationById", ctx, mock.Anything, suite.configurationId).
		Return(models.TestConfiguration{}, models.NotFoundError)

	_, err := suite.makeUsecase().SubmitTestRun(ctx, suite.configurationId, models.TriggerOriginManual)

	suite.ErrorIs(err, models.NotFoundError)
	suite.taskQueue.AssertNotCalled(suite.T(), "EnqueueTestRunTask",
		mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TestRunUsecaseTestSuite) Test_CancelTestRun_nominal() {
	ctx := context.Background()

	suite.repository.On("RequestTestRunCancellation", ctx, mock.Anything, suite.testRunId).
		Return(true, nil)

	err := suite.makeUsecase().CancelTestRun(ctx, suite.testRunId)

	suite.NoError(err)
	suite.AssertExpectations()
}

func (suite *TestRunUsecaseTestSuite) Test_CancelTestRun_terminal_run() {
	ctx := context.Background()

	suite.repository.On("RequestTestRunCancellation", ctx, mock.Anything, suite.testRunId).
		Return(false, nil)
	suite.repository.On("GetTestRunById", ctx, mock.Anything, suite.testRunId).
		Return(models.TestRun{Id: suite.testRunId, Status: models.TestRunCompleted}, nil)

	err := suite.makeUsecase().CancelTestRun(ctx, suite.testRunId)

	suite.ErrorIs(err, models.ErrRunNotPending)
	suite.AssertExpectations()
}

func (suite *TestRunUsecaseTestSuite) Test_CancelTestRun_unknown_run() {
	ctx := context.Background()

	suite.repository.On("RequestTestRunCancellation", ctx, mock.Anything, suite.testRunId).
		Return(false, nil)
	suite.repository.On("GetTestRunById", ctx, mock.Anything, suite.testRunId).
		Return(models.TestRun{}, models.NotFoundError)

	err := suite.makeUsecase().CancelTestRun(ctx, suite.testRunId)

	suite.ErrorIs(err, models.NotFoundError)
	suite.AssertExpectations()
}

func (suite *TestRunUsecaseTestSuite) Test_GetRunReport_nominal() {
	ctx := context.Background()

	suite.repository.On("GetTestRunById", ctx, mock.Anything, suite.testRunId).
		Return(models.TestRun{Id: suite.testRunId, Status: models.TestRunCompleted}, nil)
	suite.repository.On("ListTestCaseResults", ctx, mock.Anything, suite.testRunId).
		Return([]models.TestCaseResult{
			{Index: 0, Status: models.CasePass},
			{Index: 1, Status: models.CaseFail},
		}, nil)
	suite.repository.On("ListLedgerEntries", ctx, mock.Anything, suite.testRunId).
		Return([]models.ResourceLedgerEntry{
			{Seq: 1, CleanupState: models.CleanupDone},
		}, nil)

	report, err := suite.makeUsecase().GetRunReport(ctx, suite.testRunId)

	suite.NoError(err)
	suite.Equal(2, report.Totals.Total)
	suite.Equal(1, report.Totals.Passed)
	suite.Equal(50.0, report.Totals.PassPercentage)
	suite.Equal(1, report.CleanupSummary.Cleaned)
	suite.AssertExpectations()
}

func (suite *TestRunUsecaseTestSuite) Test_RecoverOrphanedRuns() {
	ctx := context.Background()

	suite.repository.On("FailOrphanedTestRuns", ctx, mock.Anything,
		"run was orphaned by a worker restart").Return(int64(1), nil).Once()

	count, err := suite.makeUsecase().RecoverOrphanedRuns(ctx)

	suite.NoError(err)
	suite.Equal(int64(1), count)
	suite.AssertExpectations()
}

func TestTestRunUsecaseTestSuite(t *testing.T) {
	suite.Run(t, new(TestRunUsecaseTestSuite))
}
