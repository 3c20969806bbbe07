package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/hypercheck/hypercheck-backend/mocks"
	"github.com/hypercheck/hypercheck-backend/models"
	"github.com/hypercheck/hypercheck-backend/usecases/executor_factory"
	"github.com/hypercheck/hypercheck-backend/utils"
)

type TestConfigurationUsecaseTestSuite struct {
	suite.Suite
	repository         *mocks.TestConfigurationRepository
	transactionFactory *mocks.TransactionFactory

	configurationId string
	configuration   models.TestConfiguration
	recurrence      models.RecurrenceRule
}

func (suite *TestConfigurationUsecaseTestSuite) SetupTest() {
	suite.repository = new(mocks.TestConfigurationRepository)
	suite.transactionFactory = &mocks.TransactionFactory{TxMock: new(mocks.Transaction)}

	suite.configurationId = "e19b1b78-26b0-4b0e-a578-d2d6e6ac2b00"
	suite.recurrence = models.RecurrenceRule{
		CronExpr: "0 3 * * *",
		AnchorAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	suite.configuration = models.TestConfiguration{
		Id:            suite.configurationId,
		Name:          "nightly smoke",
		TargetNode:    "pve1",
		SelectedCases: []string{"cluster.list_nodes", "storage.list_pools"},
	}
}

func (suite *TestConfigurationUsecaseTestSuite) makeUsecase() TestConfigurationUsecase {
	return NewTestConfigurationUsecase(
		executor_factory.NewExecutorFactoryStub(),
		suite.transactionFactory,
		suite.repository,
	)
}

func (suite *TestConfigurationUsecaseTestSuite) AssertExpectations() {
	t := suite.T()
	suite.repository.AssertExpectations(t)
	suite.transactionFactory.AssertExpectations(t)
}

func (suite *TestConfigurationUsecaseTestSuite) Test_CreateConfiguration_nominal() {
	ctx := context.Background()
	config := suite.configuration
	config.Id = ""

	suite.transactionFactory.On("Transaction", ctx, mock.Anything).Return(nil)
	suite.repository.On("CreateTestConfiguration", ctx, suite.transactionFactory.TxMock,
		mock.MatchedBy(func(created models.TestConfiguration) bool {
			return created.Id != "" && created.Name == "nightly smoke"
		})).Return(nil)
	suite.repository.On("GetTestConfigurationById", ctx, mock.Anything, mock.Anything).
		Return(suite.configuration, nil)

	created, err := suite.makeUsecase().CreateConfiguration(ctx, config)

	suite.NoError(err)
	suite.Equal("nightly smoke", created.Name)
	suite.repository.AssertNotCalled(suite.T(), "UpsertScheduleEntry",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.AssertExpectations()
}

func (suite *TestConfigurationUsecaseTestSuite) Test_CreateConfiguration_with_recurrence() {
	ctx := context.Background()
	config := suite.configuration
	config.Id = ""
	config.Recurrence = &suite.recurrence

	suite.transactionFactory.On("Transaction", ctx, mock.Anything).Return(nil)
	suite.repository.On("CreateTestConfiguration", ctx, suite.transactionFactory.TxMock,
		mock.Anything).Return(nil)
	suite.repository.On("UpsertScheduleEntry", ctx, suite.transactionFactory.TxMock,
		mock.Anything, suite.recurrence).Return(nil)
	suite.repository.On("GetTestConfigurationById", ctx, mock.Anything, mock.Anything).
		Return(config, nil)

	_, err := suite.makeUsecase().CreateConfiguration(ctx, config)

	suite.NoError(err)
	suite.AssertExpectations()
}

func (suite *TestConfigurationUsecaseTestSuite) Test_CreateConfiguration_invalid() {
	ctx := context.Background()
	config := suite.configuration
	config.SelectedCases = nil

	_, err := suite.makeUsecase().CreateConfiguration(ctx, config)

	suite.ErrorIs(err, models.ErrEmptyCaseSelection)
	suite.repository.AssertNotCalled(suite.T(), "CreateTestConfiguration",
		mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TestConfigurationUsecaseTestSuite) Test_UpdateConfiguration_sets_recurrence() {
	ctx := context.Background()
	input := models.UpdateTestConfigurationInput{
		Id:            suite.configurationId,
		Name:          utils.Ptr("renamed"),
		SetRecurrence: &suite.recurrence,
	}

	suite.transactionFactory.On("Transaction", ctx, mock.Anything).Return(nil)
	suite.repository.On("GetTestConfigurationById", ctx, mock.Anything, suite.configurationId).
		Return(suite.configuration, nil)
	suite.repository.On("UpdateTestConfiguration", ctx, suite.transactionFactory.TxMock, input).
		Return(nil)
	suite.repository.On("UpsertScheduleEntry", ctx, suite.transactionFactory.TxMock,
		suite.configurationId, suite.recurrence).Return(nil)

	_, err := suite.makeUsecase().UpdateConfiguration(ctx, input)

	suite.NoError(err)
	suite.AssertExpectations()
}

func (suite *TestConfigurationUsecaseTestSuite) Test_UpdateConfiguration_clears_recurrence() {
	ctx := context.Background()
	input := models.UpdateTestConfigurationInput{
		Id:              suite.configurationId,
		ClearRecurrence: true,
	}
	config := suite.configuration
	config.Recurrence = &suite.recurrence

	suite.transactionFactory.On("Transaction", ctx, mock.Anything).Return(nil)
	suite.repository.On("GetTestConfigurationById", ctx, mock.Anything, suite.configurationId).
		Return(config, nil)
	suite.repository.On("UpdateTestConfiguration", ctx, suite.transactionFactory.TxMock, input).
		Return(nil)
	suite.repository.On("DeleteScheduleEntry", ctx, suite.transactionFactory.TxMock,
		suite.configurationId).Return(nil)

	_, err := suite.makeUsecase().UpdateConfiguration(ctx, input)

	suite.NoError(err)
	suite.AssertExpectations()
}

func (suite *TestConfigurationUsecaseTestSuite) Test_UpdateConfiguration_rejects_invalid_result() {
	ctx := context.Background()
	input := models.UpdateTestConfigurationInput{
		Id:            suite.configurationId,
		SelectedCases: []string{},
	}

	suite.transactionFactory.On("Transaction", ctx, mock.Anything).Return(nil)
	suite.repository.On("GetTestConfigurationById", ctx, mock.Anything, suite.configurationId).
		Return(suite.configuration, nil)

	_, err := suite.makeUsecase().UpdateConfiguration(ctx, input)

	suite.ErrorIs(err, models.ErrEmptyCaseSelection)
	suite.repository.AssertNotCalled(suite.T(), "UpdateTestConfiguration",
		mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TestConfigurationUsecaseTestSuite) Test_DeleteConfiguration_nominal() {
	ctx := context.Background()

	suite.transactionFactory.On("Transaction", ctx, mock.Anything).Return(nil)
	suite.repository.On("GetTestConfigurationById", ctx, mock.Anything, suite.configurationId).
		Return(suite.configuration, nil)
	suite.repository.On("HasActiveTestRunsForConfiguration", ctx, suite.transactionFactory.TxMock,
		suite.configurationId).Return(false, nil)
	suite.repository.On("DeleteScheduleEntry", ctx, suite.transactionFactory.TxMock,
		suite.configurationId).Return(nil)
	suite.repository.On("DeleteTestConfiguration", ctx, suite.transactionFactory.TxMock,
		suite.configurationId).Return(nil)

	err := suite.makeUsecase().DeleteConfiguration(ctx, suite.configurationId)

	suite.NoError(err)
	suite.AssertExpectations()
}

func (suite *TestConfigurationUsecaseTestSuite) Test_DeleteConfiguration_refused_while_runs_are_active() {
	ctx := context.Background()

	suite.transactionFactory.On("Transaction", ctx, mock.Anything).Return(nil)
	suite.repository.On("GetTestConfigurationById", ctx, mock.Anything, suite.configurationId).
		Return(suite.configuration, nil)
	suite.repository.On("HasActiveTestRunsForConfiguration", ctx, suite.transactionFactory.TxMock,
		suite.configurationId).Return(true, nil)

	err := suite.makeUsecase().DeleteConfiguration(ctx, suite.configurationId)

	suite.ErrorIs(err, models.ErrConfigurationHasRuns)
	suite.repository.AssertNotCalled(suite.T(), "DeleteTestConfiguration",
		mock.Anything, mock.Anything, mock.Anything)
}

func TestTestConfigurationUsecaseTestSuite(t *testing.T) {
	suite.Run(t, new(TestConfigurationUsecaseTestSuite))
}
