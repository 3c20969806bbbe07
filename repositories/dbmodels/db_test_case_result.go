package dbmodels

import (
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/hypercheck/hypercheck-backend/models"
	"github.com/hypercheck/hypercheck-backend/utils"
)

type DBTestCaseResult struct {
	Id         string    `db:"id"`
	TestRunId  string    `db:"test_run_id"`
	Idx        int       `db:"idx"`
	Category   string    `db:"category"`
	Name       string    `db:"name"`
	Status     string    `db:"status"`
	DurationMs int64     `db:"duration_ms"`
	Message    string    `db:"message"`
	Logs       []byte    `db:"logs"`
	CreatedAt  time.Time `db:"created_at"`
}

const TABLE_TEST_CASE_RESULTS = "test_case_results"

var SelectTestCaseResultColumns = utils.ColumnList[DBTestCaseResult]()

func AdaptTestCaseResult(db DBTestCaseResult) (models.TestCaseResult, error) {
	var logs map[string]any
	if len(db.Logs) > 0 {
		if err := json.Unmarshal(db.Logs, &logs); err != nil {
			return models.TestCaseResult{}, errors.Wrapf(err, "unmarshalling logs of case result %s", db.Id)
		}
	}

	return models.TestCaseResult{
		Id:        db.Id,
		TestRunId: db.TestRunId,
		Index:     db.Idx,
		Category:  db.Category,
		Name:      db.Name,
		Status:    models.CaseStatusFrom(db.Status),
		Duration:  time.Duration(db.DurationMs) * time.Millisecond,
		Message:   db.Message,
		Logs:      logs,
		CreatedAt: db.CreatedAt,
	}, nil
}
