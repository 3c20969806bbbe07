package platform

import (
	"context"
	"fmt"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/hypercheck/hypercheck-backend/models"
)

// FakeAdapter simulates a platform in memory. It backs the test suite and the
// local dev mode where no real cluster is reachable.
type FakeAdapter struct {
	mu sync.Mutex

	// Outcomes overrides the verdict of specific case ids. Cases without an
	// override pass.
	Outcomes map[string]CaseOutcome
	// InvokeErrors makes InvokeCase fail outright for specific case ids.
	InvokeErrors map[string]error
	// ConnectError makes every Connect attempt fail.
	ConnectError error
	// ProvisionFailures makes resource creation fail for specific case ids,
	// after the intent was registered.
	ProvisionFailures map[string]error
	// DeleteErrors makes DeleteResource fail for specific remote ids. A
	// positive DeleteFailuresBeforeSuccess makes that many attempts fail
	// first, then succeed.
	DeleteErrors                map[string]error
	DeleteFailuresBeforeSuccess map[string]int

	nextRemoteId int
	deleted      []string
	deleteTries  map[string]int
}

func NewFakeAdapter() *FakeAdapter {
	return &FakeAdapter{
		Outcomes:                    map[string]CaseOutcome{},
		InvokeErrors:                map[string]error{},
		ProvisionFailures:           map[string]error{},
		DeleteErrors:                map[string]error{},
		DeleteFailuresBeforeSuccess: map[string]int{},
		nextRemoteId:                100,
		deleteTries:                 map[string]int{},
	}
}

// DeletedResources returns the remote ids successfully deleted, in call order.
func (f *FakeAdapter) DeletedResources() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.deleted))
	copy(out, f.deleted)
	return out
}

func (f *FakeAdapter) Connect(ctx context.Context, target Target) (Session, error) {
	if f.ConnectError != nil {
		return nil, f.ConnectError
	}
	return &fakeSession{adapter: f, target: target}, nil
}

type fakeSession struct {
	adapter *FakeAdapter
	target  Target
	closed  bool
}

func (s *fakeSession) InvokeCase(ctx context.Context, caseId string, scope ResourceScope) (CaseOutcome, error) {
	if s.closed {
		return CaseOutcome{}, errors.New("session is closed")
	}
	if err := ctx.Err(); err != nil {
		return CaseOutcome{}, err
	}

	def, ok := models.CaseDefinitionById(caseId)
	if !ok {
		return CaseOutcome{}, errors.Wrapf(models.ErrUnknownTestCase, "%q", caseId)
	}

	if invokeErr, ok := s.adapter.InvokeErrors[caseId]; ok {
		return CaseOutcome{}, invokeErr
	}

	// Destructive cases go through the ledger like the real adapter would.
	if def.Destructive {
		if err := s.provision(ctx, def, scope); err != nil {
			return CaseOutcome{}, err
		}
	}

	if outcome, ok := s.adapter.Outcomes[caseId]; ok {
		return outcome, nil
	}
	return CaseOutcome{
		Status:  models.CasePass,
		Message: "ok",
		Logs:    map[string]any{"node": s.target.Node},
	}, nil
}

func (s *fakeSession) provision(ctx context.Context, def models.CaseDefinition, scope ResourceScope) error {
	kind := resourceKindForCategory(def.Category)
	entryId, err := scope.RegisterResource(ctx, kind, s.target.Node)
	if err != nil {
		return err
	}

	if provisionErr, ok := s.adapter.ProvisionFailures[def.Id]; ok {
		if discardErr := scope.DiscardResource(ctx, entryId); discardErr != nil {
			return discardErr
		}
		return provisionErr
	}

	s.adapter.mu.Lock()
	s.adapter.nextRemoteId++
	remoteId := fmt.Sprintf("%d", s.adapter.nextRemoteId)
	s.adapter.mu.Unlock()

	return scope.ConfirmResource(ctx, entryId, remoteId)
}

func resourceKindForCategory(category string) models.ResourceKind {
	switch category {
	case models.CategoryLxcLifecycle:
		return models.ResourceLxc
	case models.CategorySnapshot:
		return models.ResourceSnapshot
	case models.CategoryBackup:
		return models.ResourceBackup
	case models.CategoryUser:
		return models.ResourceUser
	default:
		return models.ResourceVm
	}
}

func (s *fakeSession) DeleteResource(ctx context.Context, kind models.ResourceKind, node string, remoteId string) error {
	s.adapter.mu.Lock()
	defer s.adapter.mu.Unlock()

	s.adapter.deleteTries[remoteId]++
	if remaining := s.adapter.DeleteFailuresBeforeSuccess[remoteId]; s.adapter.deleteTries[remoteId] <= remaining {
		return errors.Newf("transient delete failure for %s %s", kind, remoteId)
	}
	if err, ok := s.adapter.DeleteErrors[remoteId]; ok {
		return err
	}

	s.adapter.deleted = append(s.adapter.deleted, remoteId)
	return nil
}

func (s *fakeSession) Close() {
	s.closed = true
}
