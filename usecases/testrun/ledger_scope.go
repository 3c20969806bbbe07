package testrun

import (
	"context"

	"github.com/google/uuid"

	"github.com/hypercheck/hypercheck-backend/models"
	"github.com/hypercheck/hypercheck-backend/platform"
	"github.com/hypercheck/hypercheck-backend/repositories"
)

type ledgerRepository interface {
	CreateLedgerEntry(ctx context.Context, exec repositories.Executor,
		newEntryId string, input models.CreateLedgerEntryInput) error
	ConfirmLedgerEntry(ctx context.Context, exec repositories.Executor,
		entryId string, remoteId string) error
	DeleteLedgerEntry(ctx context.Context, exec repositories.Executor,
		entryId string) error
	UpdateLedgerEntryCleanupState(ctx context.Context, exec repositories.Executor,
		entryId string, state models.CleanupState, cleanupError *string) error
	ListLedgerEntries(ctx context.Context, exec repositories.Executor,
		testRunId string) ([]models.ResourceLedgerEntry, error)
}

// runLedgerScope is the ResourceScope handed to cases. Intent rows are written
// outside any run-level transaction: the ledger must already know about a
// resource when the process dies mid-provisioning.
type runLedgerScope struct {
	exec       repositories.Executor
	repository ledgerRepository
	testRunId  string
	snapshot   models.TestConfiguration
}

func (s runLedgerScope) RegisterResource(ctx context.Context,
	kind models.ResourceKind, node string,
) (string, error) {
	entryId := uuid.NewString()
	err := s.repository.CreateLedgerEntry(ctx, s.exec, entryId, models.CreateLedgerEntryInput{
		TestRunId: s.testRunId,
		Kind:      kind,
		Node:      node,
	})
	if err != nil {
		return "", err
	}
	return entryId, nil
}

func (s runLedgerScope) ConfirmResource(ctx context.Context, entryId string, remoteId string) error {
	return s.repository.ConfirmLedgerEntry(ctx, s.exec, entryId, remoteId)
}

func (s runLedgerScope) DiscardResource(ctx context.Context, entryId string) error {
	return s.repository.DeleteLedgerEntry(ctx, s.exec, entryId)
}

func (s runLedgerScope) Defaults(kind models.ResourceKind) models.GuestDefaults {
	if kind == models.ResourceLxc {
		return s.snapshot.LxcDefaults
	}
	return s.snapshot.VmDefaults
}

var _ platform.ResourceScope = runLedgerScope{}
