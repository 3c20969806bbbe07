package testrun

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypercheck/hypercheck-backend/models"
	"github.com/hypercheck/hypercheck-backend/platform"
)

// scriptedSession lets a test control each case invocation directly.
type scriptedSession struct {
	invoke func(ctx context.Context, caseId string, scope platform.ResourceScope) (platform.CaseOutcome, error)
}

func (s scriptedSession) InvokeCase(ctx context.Context, caseId string,
	scope platform.ResourceScope,
) (platform.CaseOutcome, error) {
	return s.invoke(ctx, caseId, scope)
}

func (s scriptedSession) DeleteResource(ctx context.Context, kind models.ResourceKind,
	node string, remoteId string,
) error {
	return nil
}

func (s scriptedSession) Close() {}

type scriptedAdapter struct {
	session platform.Session
}

func (a scriptedAdapter) Connect(ctx context.Context, target platform.Target) (platform.Session, error) {
	return a.session, nil
}

func mustCaseDefinition(t *testing.T, caseId string) models.CaseDefinition {
	def, ok := models.CaseDefinitionById(caseId)
	require.True(t, ok)
	return def
}

func TestCaseRunnerMapsTimeoutToError(t *testing.T) {
	runner := caseRunner{
		session: scriptedSession{invoke: func(ctx context.Context, caseId string,
			scope platform.ResourceScope,
		) (platform.CaseOutcome, error) {
			<-ctx.Done()
			return platform.CaseOutcome{}, ctx.Err()
		}},
		caseTimeout: 20 * time.Millisecond,
	}

	outcome := runner.run(context.Background(), mustCaseDefinition(t, "cluster.list_nodes"))

	assert.Equal(t, models.CaseError, outcome.Status)
	assert.Contains(t, outcome.Message, "timed out")
}

func TestCaseRunnerRecoversPanicToError(t *testing.T) {
	runner := caseRunner{
		session: scriptedSession{invoke: func(ctx context.Context, caseId string,
			scope platform.ResourceScope,
		) (platform.CaseOutcome, error) {
			panic("nil node status")
		}},
	}

	outcome := runner.run(context.Background(), mustCaseDefinition(t, "cluster.node_status"))

	assert.Equal(t, models.CaseError, outcome.Status)
	assert.Contains(t, outcome.Message, "nil node status")
}

func TestCaseRunnerForwardsVerdicts(t *testing.T) {
	runner := caseRunner{
		session: scriptedSession{invoke: func(ctx context.Context, caseId string,
			scope platform.ResourceScope,
		) (platform.CaseOutcome, error) {
			return platform.CaseOutcome{Status: models.CaseFail, Message: "pool missing"}, nil
		}},
	}

	outcome := runner.run(context.Background(), mustCaseDefinition(t, "storage.list_pools"))

	assert.Equal(t, models.CaseFail, outcome.Status)
	assert.Equal(t, "pool missing", outcome.Message)
}
