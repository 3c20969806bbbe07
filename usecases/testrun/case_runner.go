package testrun

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/hypercheck/hypercheck-backend/models"
	"github.com/hypercheck/hypercheck-backend/platform"
	"github.com/hypercheck/hypercheck-backend/utils"
)

const (
	defaultCaseTimeout = 2 * time.Minute
	// Slow cases cover guest lifecycles and backups, which routinely take
	// minutes on loaded clusters.
	slowCaseMultiplier = 5
)

type caseRunner struct {
	session     platform.Session
	scope       platform.ResourceScope
	caseTimeout time.Duration
}

// run executes one catalog case and always produces an outcome. A case that
// cannot be driven (adapter error, timeout, panic) yields an ERROR verdict
// instead of aborting the run.
func (r caseRunner) run(ctx context.Context, def models.CaseDefinition) (outcome platform.CaseOutcome) {
	timeout := r.caseTimeout
	if timeout == 0 {
		timeout = defaultCaseTimeout
	}
	if def.Slow {
		timeout *= slowCaseMultiplier
	}
	caseCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			utils.LoggerFromContext(ctx).ErrorContext(ctx, "test case panicked",
				"case_id", def.Id, "panic", fmt.Sprint(p), "stack", string(debug.Stack()))
			outcome = platform.CaseOutcome{
				Status:  models.CaseError,
				Message: fmt.Sprintf("case panicked: %v", p),
			}
		}
	}()

	outcome, err := r.session.InvokeCase(caseCtx, def.Id, r.scope)
	if err != nil {
		message := err.Error()
		if caseCtx.Err() != nil && ctx.Err() == nil {
			message = fmt.Sprintf("case timed out after %s", timeout)
		}
		return platform.CaseOutcome{Status: models.CaseError, Message: message}
	}
	return outcome
}

func skippedOutcome(reason string) platform.CaseOutcome {
	return platform.CaseOutcome{Status: models.CaseSkip, Message: reason}
}
