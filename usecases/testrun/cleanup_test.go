package testrun

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hypercheck/hypercheck-backend/mocks"
	"github.com/hypercheck/hypercheck-backend/models"
	"github.com/hypercheck/hypercheck-backend/platform"
)

const cleanupTestRunId = "9f19c3a5-5f61-47b5-a4ee-02b0a9f39b77"

func makeFakeSession(t *testing.T, adapter *platform.FakeAdapter) platform.Session {
	session, err := adapter.Connect(context.Background(), platform.Target{Node: "pve1"})
	require.NoError(t, err)
	return session
}

func TestCleanupRunResourcesReverseOrder(t *testing.T) {
	repository := new(mocks.TestRunRepository)
	adapter := platform.NewFakeAdapter()
	session := makeFakeSession(t, adapter)

	repository.On("ListLedgerEntries", mock.Anything, mock.Anything, cleanupTestRunId).
		Return([]models.ResourceLedgerEntry{
			{Id: "e1", Seq: 1, Kind: models.ResourceVm, Node: "pve1", RemoteId: "9001", Confirmed: true},
			{Id: "e2", Seq: 2, Kind: models.ResourceSnapshot, Node: "pve1", RemoteId: "9001@snap", Confirmed: true},
			{Id: "e3", Seq: 3, Kind: models.ResourceBackup, Node: "pve1", RemoteId: "local:backup/vzdump-1.vma", Confirmed: true},
		}, nil)
	repository.On("UpdateLedgerEntryCleanupState", mock.Anything, mock.Anything,
		mock.Anything, models.CleanupDone, (*string)(nil)).Return(nil).Times(3)

	err := cleanupRunResources(context.Background(), nil, repository, session, cleanupTestRunId)

	assert.NoError(t, err)
	// newest first: the snapshot and backup go before the guest behind them
	assert.Equal(t, []string{"local:backup/vzdump-1.vma", "9001@snap", "9001"},
		adapter.DeletedResources())
	repository.AssertExpectations(t)
}

func TestCleanupRunResourcesSkipsAlreadyCleanedEntries(t *testing.T) {
	repository := new(mocks.TestRunRepository)
	adapter := platform.NewFakeAdapter()
	session := makeFakeSession(t, adapter)

	repository.On("ListLedgerEntries", mock.Anything, mock.Anything, cleanupTestRunId).
		Return([]models.ResourceLedgerEntry{
			{Id: "e1", Seq: 1, Kind: models.ResourceVm, RemoteId: "9001",
				Confirmed: true, CleanupState: models.CleanupDone},
			{Id: "e2", Seq: 2, Kind: models.ResourceVm, RemoteId: "9002", Confirmed: true},
		}, nil)
	repository.On("UpdateLedgerEntryCleanupState", mock.Anything, mock.Anything,
		"e2", models.CleanupDone, (*string)(nil)).Return(nil).Once()

	err := cleanupRunResources(context.Background(), nil, repository, session, cleanupTestRunId)

	assert.NoError(t, err)
	assert.Equal(t, []string{"9002"}, adapter.DeletedResources())
	repository.AssertExpectations(t)
}

func TestCleanupRunResourcesDiscardsUnconfirmedEntriesWithoutRemoteId(t *testing.T) {
	repository := new(mocks.TestRunRepository)
	adapter := platform.NewFakeAdapter()
	session := makeFakeSession(t, adapter)

	repository.On("ListLedgerEntries", mock.Anything, mock.Anything, cleanupTestRunId).
		Return([]models.ResourceLedgerEntry{
			{Id: "e1", Seq: 1, Kind: models.ResourceVm, Confirmed: false},
		}, nil)
	repository.On("UpdateLedgerEntryCleanupState", mock.Anything, mock.Anything,
		"e1", models.CleanupDone, (*string)(nil)).Return(nil).Once()

	err := cleanupRunResources(context.Background(), nil, repository, session, cleanupTestRunId)

	assert.NoError(t, err)
	assert.Empty(t, adapter.DeletedResources())
	repository.AssertExpectations(t)
}

func TestCleanupRunResourcesRetriesTransientFailures(t *testing.T) {
	repository := new(mocks.TestRunRepository)
	adapter := platform.NewFakeAdapter()
	adapter.DeleteFailuresBeforeSuccess["9001"] = 2
	session := makeFakeSession(t, adapter)

	repository.On("ListLedgerEntries", mock.Anything, mock.Anything, cleanupTestRunId).
		Return([]models.ResourceLedgerEntry{
			{Id: "e1", Seq: 1, Kind: models.ResourceVm, RemoteId: "9001", Confirmed: true},
		}, nil)
	repository.On("UpdateLedgerEntryCleanupState", mock.Anything, mock.Anything,
		"e1", models.CleanupDone, (*string)(nil)).Return(nil).Once()

	err := cleanupRunResources(context.Background(), nil, repository, session, cleanupTestRunId)

	assert.NoError(t, err)
	assert.Equal(t, []string{"9001"}, adapter.DeletedResources())
	repository.AssertExpectations(t)
}

func TestCleanupRunResourcesMarksPermanentFailuresAndContinues(t *testing.T) {
	repository := new(mocks.TestRunRepository)
	adapter := platform.NewFakeAdapter()
	adapter.DeleteErrors["9002"] = errors.New("storage is locked")
	session := makeFakeSession(t, adapter)

	repository.On("ListLedgerEntries", mock.Anything, mock.Anything, cleanupTestRunId).
		Return([]models.ResourceLedgerEntry{
			{Id: "e1", Seq: 1, Kind: models.ResourceVm, RemoteId: "9001", Confirmed: true},
			{Id: "e2", Seq: 2, Kind: models.ResourceBackup, RemoteId: "9002", Confirmed: true},
		}, nil)
	repository.On("UpdateLedgerEntryCleanupState", mock.Anything, mock.Anything,
		"e2", models.CleanupFailed,
		mock.MatchedBy(func(message *string) bool {
			return message != nil && *message == "storage is locked"
		})).Return(nil).Once()
	repository.On("UpdateLedgerEntryCleanupState", mock.Anything, mock.Anything,
		"e1", models.CleanupDone, (*string)(nil)).Return(nil).Once()

	err := cleanupRunResources(context.Background(), nil, repository, session, cleanupTestRunId)

	assert.NoError(t, err)
	// the failed backup does not stop the vm behind it from being cleaned
	assert.Equal(t, []string{"9001"}, adapter.DeletedResources())
	repository.AssertExpectations(t)
}
