package testrun

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/riverqueue/river"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/hypercheck/hypercheck-backend/mocks"
	"github.com/hypercheck/hypercheck-backend/models"
	"github.com/hypercheck/hypercheck-backend/platform"
	"github.com/hypercheck/hypercheck-backend/usecases/executor_factory"
)

type TestRunWorkerTestSuite struct {
	suite.Suite
	repository *mocks.TestRunRepository
	adapter    *platform.FakeAdapter

	testRunId string
}

func (suite *TestRunWorkerTestSuite) SetupTest() {
	suite.repository = new(mocks.TestRunRepository)
	suite.adapter = platform.NewFakeAdapter()
	suite.testRunId = "7c2ed87e-602c-4b22-a6b1-8e3815cf52b3"
}

func (suite *TestRunWorkerTestSuite) makeWorker() TestRunWorker {
	return NewTestRunWorker(
		executor_factory.NewExecutorFactoryStub(),
		suite.repository,
		suite.adapter,
		0,
	)
}

func (suite *TestRunWorkerTestSuite) makeRun(selectedCases []string) models.TestRun {
	return models.TestRun{
		Id:              suite.testRunId,
		ConfigurationId: "2d0c3ed1-436c-4b2a-9c77-3e15a59e8420",
		Status:          models.TestRunQueued,
		ConfigSnapshot: models.TestConfiguration{
			TargetNode:         "pve1",
			SelectedCases:      selectedCases,
			DestructiveAllowed: true,
			VmDefaults:         models.GuestDefaults{IdRangeStart: 9000, IdRangeEnd: 9099},
			LxcDefaults:        models.GuestDefaults{IdRangeStart: 9100, IdRangeEnd: 9199},
		},
	}
}

func (suite *TestRunWorkerTestSuite) makeJob() *river.Job[models.TestRunArgs] {
	return &river.Job[models.TestRunArgs]{Args: models.TestRunArgs{TestRunId: suite.testRunId}}
}

func (suite *TestRunWorkerTestSuite) expectClaim() {
	suite.repository.On("UpdateTestRunStatus", mock.Anything, mock.Anything,
		models.UpdateTestRunStatusInput{
			Id:                     suite.testRunId,
			Status:                 models.TestRunRunning,
			CurrentStatusCondition: models.TestRunQueued,
		}).Return(true, nil).Once()
}

func (suite *TestRunWorkerTestSuite) expectCaseResults() {
	suite.repository.On("CreateTestCaseResult", mock.Anything, mock.Anything,
		mock.Anything, mock.Anything).Return(nil)
	suite.repository.On("UpdateTestRunCounters", mock.Anything, mock.Anything,
		suite.testRunId, mock.Anything).Return(nil)
}

func (suite *TestRunWorkerTestSuite) AssertExpectations() {
	suite.repository.AssertExpectations(suite.T())
}

func (suite *TestRunWorkerTestSuite) Test_Work_nominal() {
	run := suite.makeRun([]string{"cluster.list_nodes", "storage.list_pools"})

	suite.repository.On("GetTestRunById", mock.Anything, mock.Anything, suite.testRunId).
		Return(run, nil)
	suite.expectClaim()
	suite.repository.On("IsCancelRequested", mock.Anything, mock.Anything, suite.testRunId).
		Return(false, nil)
	suite.expectCaseResults()
	suite.repository.On("UpdateTestRunStatus", mock.Anything, mock.Anything,
		models.UpdateTestRunStatusInput{
			Id:                     suite.testRunId,
			Status:                 models.TestRunCompleted,
			CurrentStatusCondition: models.TestRunRunning,
			Counters:               &models.RunCounters{Passed: 2},
		}).Return(true, nil).Once()

	worker := suite.makeWorker()
	err := worker.Work(suite.T().Context(), suite.makeJob())

	suite.NoError(err)
	suite.AssertExpectations()
}

func (suite *TestRunWorkerTestSuite) Test_Work_destructive_case_with_cleanup() {
	run := suite.makeRun([]string{"cluster.list_nodes", "vm.create"})
	run.ConfigSnapshot.CleanupOnCompletion = true

	suite.repository.On("GetTestRunById", mock.Anything, mock.Anything, suite.testRunId).
		Return(run, nil)
	suite.expectClaim()
	suite.repository.On("IsCancelRequested", mock.Anything, mock.Anything, suite.testRunId).
		Return(false, nil)
	suite.expectCaseResults()

	// vm.create registers an intent row, then confirms it with the remote id.
	suite.repository.On("CreateLedgerEntry", mock.Anything, mock.Anything, mock.Anything,
		mock.MatchedBy(func(input models.CreateLedgerEntryInput) bool {
			return input.TestRunId == suite.testRunId && input.Kind == models.ResourceVm
		})).Return(nil).Once()
	suite.repository.On("ConfirmLedgerEntry", mock.Anything, mock.Anything, mock.Anything, "101").
		Return(nil).Once()

	suite.repository.On("ListLedgerEntries", mock.Anything, mock.Anything, suite.testRunId).
		Return([]models.ResourceLedgerEntry{
			{Id: "entry-1", TestRunId: suite.testRunId, Seq: 1, Kind: models.ResourceVm,
				Node: "pve1", RemoteId: "101", Confirmed: true},
		}, nil)
	suite.repository.On("UpdateLedgerEntryCleanupState", mock.Anything, mock.Anything,
		"entry-1", models.CleanupDone, (*string)(nil)).Return(nil).Once()

	suite.repository.On("UpdateTestRunStatus", mock.Anything, mock.Anything,
		models.UpdateTestRunStatusInput{
			Id:                     suite.testRunId,
			Status:                 models.TestRunCompleted,
			CurrentStatusCondition: models.TestRunRunning,
			Counters:               &models.RunCounters{Passed: 2},
		}).Return(true, nil).Once()

	worker := suite.makeWorker()
	err := worker.Work(suite.T().Context(), suite.makeJob())

	suite.NoError(err)
	suite.Equal([]string{"101"}, suite.adapter.DeletedResources())
	suite.AssertExpectations()
}

func (suite *TestRunWorkerTestSuite) Test_Work_skips_destructive_cases_when_not_allowed() {
	run := suite.makeRun([]string{"cluster.list_nodes", "vm.create"})
	run.ConfigSnapshot.DestructiveAllowed = false

	suite.repository.On("GetTestRunById", mock.Anything, mock.Anything, suite.testRunId).
		Return(run, nil)
	suite.expectClaim()
	suite.repository.On("IsCancelRequested", mock.Anything, mock.Anything, suite.testRunId).
		Return(false, nil)
	suite.repository.On("CreateTestCaseResult", mock.Anything, mock.Anything, mock.Anything,
		mock.MatchedBy(func(input models.CreateTestCaseResultInput) bool {
			return input.Index == 1 && input.Status == models.CaseSkip
		})).Return(nil).Once()
	suite.repository.On("CreateTestCaseResult", mock.Anything, mock.Anything, mock.Anything,
		mock.MatchedBy(func(input models.CreateTestCaseResultInput) bool {
			return input.Index == 0 && input.Status == models.CasePass
		})).Return(nil).Once()
	suite.repository.On("UpdateTestRunCounters", mock.Anything, mock.Anything,
		suite.testRunId, mock.Anything).Return(nil)
	suite.repository.On("UpdateTestRunStatus", mock.Anything, mock.Anything,
		models.UpdateTestRunStatusInput{
			Id:                     suite.testRunId,
			Status:                 models.TestRunCompleted,
			CurrentStatusCondition: models.TestRunRunning,
			Counters:               &models.RunCounters{Passed: 1, Skipped: 1},
		}).Return(true, nil).Once()

	worker := suite.makeWorker()
	err := worker.Work(suite.T().Context(), suite.makeJob())

	suite.NoError(err)
	suite.AssertExpectations()
}

func (suite *TestRunWorkerTestSuite) Test_Work_adapter_error_is_isolated_to_the_case() {
	run := suite.makeRun([]string{"cluster.list_nodes", "cluster.node_status"})
	suite.adapter.InvokeErrors["cluster.node_status"] = errors.New("api returned 500")

	suite.repository.On("GetTestRunById", mock.Anything, mock.Anything, suite.testRunId).
		Return(run, nil)
	suite.expectClaim()
	suite.repository.On("IsCancelRequested", mock.Anything, mock.Anything, suite.testRunId).
		Return(false, nil)
	suite.expectCaseResults()
	suite.repository.On("UpdateTestRunStatus", mock.Anything, mock.Anything,
		models.UpdateTestRunStatusInput{
			Id:                     suite.testRunId,
			Status:                 models.TestRunCompletedWithErrors,
			CurrentStatusCondition: models.TestRunRunning,
			Counters:               &models.RunCounters{Passed: 1, Errored: 1},
		}).Return(true, nil).Once()

	worker := suite.makeWorker()
	err := worker.Work(suite.T().Context(), suite.makeJob())

	suite.NoError(err)
	suite.AssertExpectations()
}

func (suite *TestRunWorkerTestSuite) Test_Work_cancellation_between_cases() {
	run := suite.makeRun([]string{"cluster.list_nodes", "storage.list_pools"})

	suite.repository.On("GetTestRunById", mock.Anything, mock.Anything, suite.testRunId).
		Return(run, nil)
	suite.expectClaim()
	suite.repository.On("IsCancelRequested", mock.Anything, mock.Anything, suite.testRunId).
		Return(false, nil).Once()
	suite.repository.On("IsCancelRequested", mock.Anything, mock.Anything, suite.testRunId).
		Return(true, nil).Once()
	suite.expectCaseResults()
	suite.repository.On("UpdateTestRunStatus", mock.Anything, mock.Anything,
		models.UpdateTestRunStatusInput{
			Id:                     suite.testRunId,
			Status:                 models.TestRunCancelled,
			CurrentStatusCondition: models.TestRunRunning,
			Counters:               &models.RunCounters{Passed: 1},
		}).Return(true, nil).Once()

	worker := suite.makeWorker()
	err := worker.Work(suite.T().Context(), suite.makeJob())

	suite.NoError(err)
	suite.AssertExpectations()
}

func (suite *TestRunWorkerTestSuite) Test_Work_connect_failure_fails_the_run() {
	run := suite.makeRun([]string{"cluster.list_nodes"})
	suite.adapter.ConnectError = errors.New("connection refused")

	suite.repository.On("GetTestRunById", mock.Anything, mock.Anything, suite.testRunId).
		Return(run, nil)
	suite.expectClaim()
	suite.repository.On("UpdateTestRunStatus", mock.Anything, mock.Anything,
		mock.MatchedBy(func(input models.UpdateTestRunStatusInput) bool {
			return input.Status == models.TestRunFailed &&
				input.ErrorMessage != nil
		})).Return(true, nil).Once()

	worker := suite.makeWorker()
	err := worker.Work(suite.T().Context(), suite.makeJob())

	suite.NoError(err)
	suite.AssertExpectations()
}

func (suite *TestRunWorkerTestSuite) Test_Work_skips_non_queued_run() {
	run := suite.makeRun([]string{"cluster.list_nodes"})
	run.Status = models.TestRunRunning

	suite.repository.On("GetTestRunById", mock.Anything, mock.Anything, suite.testRunId).
		Return(run, nil)

	worker := suite.makeWorker()
	err := worker.Work(suite.T().Context(), suite.makeJob())

	suite.NoError(err)
	suite.AssertExpectations()
}

func (suite *TestRunWorkerTestSuite) Test_Work_cancel_requested_before_claim() {
	run := suite.makeRun([]string{"cluster.list_nodes"})
	run.CancelRequested = true

	suite.repository.On("GetTestRunById", mock.Anything, mock.Anything, suite.testRunId).
		Return(run, nil)
	suite.repository.On("UpdateTestRunStatus", mock.Anything, mock.Anything,
		models.UpdateTestRunStatusInput{
			Id:                     suite.testRunId,
			Status:                 models.TestRunCancelled,
			CurrentStatusCondition: models.TestRunQueued,
		}).Return(true, nil).Once()

	worker := suite.makeWorker()
	err := worker.Work(suite.T().Context(), suite.makeJob())

	suite.NoError(err)
	suite.AssertExpectations()
}

func (suite *TestRunWorkerTestSuite) Test_Work_provision_failure_discards_the_intent_row() {
	run := suite.makeRun([]string{"vm.create"})
	suite.adapter.ProvisionFailures["vm.create"] = errors.New("no free guest id")

	suite.repository.On("GetTestRunById", mock.Anything, mock.Anything, suite.testRunId).
		Return(run, nil)
	suite.expectClaim()
	suite.repository.On("IsCancelRequested", mock.Anything, mock.Anything, suite.testRunId).
		Return(false, nil)
	suite.repository.On("CreateLedgerEntry", mock.Anything, mock.Anything, mock.Anything,
		mock.Anything).Return(nil).Once()
	suite.repository.On("DeleteLedgerEntry", mock.Anything, mock.Anything, mock.Anything).
		Return(nil).Once()
	suite.repository.On("CreateTestCaseResult", mock.Anything, mock.Anything, mock.Anything,
		mock.MatchedBy(func(input models.CreateTestCaseResultInput) bool {
			return input.Status == models.CaseError
		})).Return(nil).Once()
	suite.repository.On("UpdateTestRunCounters", mock.Anything, mock.Anything,
		suite.testRunId, mock.Anything).Return(nil)
	suite.repository.On("UpdateTestRunStatus", mock.Anything, mock.Anything,
		models.UpdateTestRunStatusInput{
			Id:                     suite.testRunId,
			Status:                 models.TestRunCompletedWithErrors,
			CurrentStatusCondition: models.TestRunRunning,
			Counters:               &models.RunCounters{Errored: 1},
		}).Return(true, nil).Once()

	worker := suite.makeWorker()
	err := worker.Work(suite.T().Context(), suite.makeJob())

	suite.NoError(err)
	suite.AssertExpectations()
}

func (suite *TestRunWorkerTestSuite) Test_Work_panicking_case_does_not_abort_the_run() {
	run := suite.makeRun([]string{"cluster.list_nodes", "storage.list_pools"})

	session := scriptedSession{invoke: func(ctx context.Context, caseId string,
		scope platform.ResourceScope,
	) (platform.CaseOutcome, error) {
		if caseId == "cluster.list_nodes" {
			panic("nil node status")
		}
		return platform.CaseOutcome{Status: models.CasePass}, nil
	}}

	suite.repository.On("GetTestRunById", mock.Anything, mock.Anything, suite.testRunId).
		Return(run, nil)
	suite.expectClaim()
	suite.repository.On("IsCancelRequested", mock.Anything, mock.Anything, suite.testRunId).
		Return(false, nil)
	suite.expectCaseResults()
	suite.repository.On("UpdateTestRunStatus", mock.Anything, mock.Anything,
		models.UpdateTestRunStatusInput{
			Id:                     suite.testRunId,
			Status:                 models.TestRunCompletedWithErrors,
			CurrentStatusCondition: models.TestRunRunning,
			Counters:               &models.RunCounters{Passed: 1, Errored: 1},
		}).Return(true, nil).Once()

	worker := NewTestRunWorker(executor_factory.NewExecutorFactoryStub(),
		suite.repository, scriptedAdapter{session: session}, 0)
	err := worker.Work(suite.T().Context(), suite.makeJob())

	suite.NoError(err)
	suite.AssertExpectations()
}

func (suite *TestRunWorkerTestSuite) Test_Work_infrastructure_failure_still_cleans_up() {
	run := suite.makeRun([]string{"vm.create"})
	run.ConfigSnapshot.CleanupOnCompletion = true

	suite.repository.On("GetTestRunById", mock.Anything, mock.Anything, suite.testRunId).
		Return(run, nil)
	suite.expectClaim()
	suite.repository.On("IsCancelRequested", mock.Anything, mock.Anything, suite.testRunId).
		Return(false, nil)
	suite.repository.On("CreateLedgerEntry", mock.Anything, mock.Anything, mock.Anything,
		mock.Anything).Return(nil).Once()
	suite.repository.On("ConfirmLedgerEntry", mock.Anything, mock.Anything, mock.Anything, "101").
		Return(nil).Once()
	// persisting the verdict fails, aborting the run
	suite.repository.On("CreateTestCaseResult", mock.Anything, mock.Anything, mock.Anything,
		mock.Anything).Return(errors.New("database is gone")).Once()

	suite.repository.On("ListLedgerEntries", mock.Anything, mock.Anything, suite.testRunId).
		Return([]models.ResourceLedgerEntry{
			{Id: "entry-1", TestRunId: suite.testRunId, Seq: 1, Kind: models.ResourceVm,
				Node: "pve1", RemoteId: "101", Confirmed: true},
		}, nil)
	suite.repository.On("UpdateLedgerEntryCleanupState", mock.Anything, mock.Anything,
		"entry-1", models.CleanupDone, (*string)(nil)).Return(nil).Once()

	suite.repository.On("UpdateTestRunStatus", mock.Anything, mock.Anything,
		mock.MatchedBy(func(input models.UpdateTestRunStatusInput) bool {
			return input.Status == models.TestRunFailed && input.ErrorMessage != nil
		})).Return(true, nil).Once()

	worker := suite.makeWorker()
	err := worker.Work(suite.T().Context(), suite.makeJob())

	suite.NoError(err)
	suite.Equal([]string{"101"}, suite.adapter.DeletedResources())
	suite.AssertExpectations()
}

func TestTestRunWorkerTestSuite(t *testing.T) {
	suite.Run(t, new(TestRunWorkerTestSuite))
}
