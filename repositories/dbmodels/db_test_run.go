package dbmodels

import (
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/hypercheck/hypercheck-backend/models"
	"github.com/hypercheck/hypercheck-backend/utils"
)

type DBTestRun struct {
	Id              string     `db:"id"`
	ConfigurationId string     `db:"configuration_id"`
	ConfigSnapshot  []byte     `db:"config_snapshot"`
	TriggerOrigin   string     `db:"trigger_origin"`
	Status          string     `db:"status"`
	CancelRequested bool       `db:"cancel_requested"`
	Passed          int        `db:"passed"`
	Failed          int        `db:"failed"`
	Skipped         int        `db:"skipped"`
	Errored         int        `db:"errored"`
	ErrorMessage    *string    `db:"error_message"`
	CreatedAt       time.Time  `db:"created_at"`
	StartedAt       *time.Time `db:"started_at"`
	FinishedAt      *time.Time `db:"finished_at"`
}

const TABLE_TEST_RUNS = "test_runs"

var SelectTestRunColumns = utils.ColumnList[DBTestRun]()

func AdaptTestRun(db DBTestRun) (models.TestRun, error) {
	var snapshot models.TestConfiguration
	if err := json.Unmarshal(db.ConfigSnapshot, &snapshot); err != nil {
		return models.TestRun{}, errors.Wrapf(err, "unmarshalling config snapshot of test run %s", db.Id)
	}

	run := models.TestRun{
		Id:              db.Id,
		ConfigurationId: db.ConfigurationId,
		ConfigSnapshot:  snapshot,
		TriggerOrigin:   models.TriggerOriginFrom(db.TriggerOrigin),
		Status:          models.TestRunStatusFrom(db.Status),
		CancelRequested: db.CancelRequested,
		Counters: models.RunCounters{
			Passed:  db.Passed,
			Failed:  db.Failed,
			Skipped: db.Skipped,
			Errored: db.Errored,
		},
		CreatedAt:  db.CreatedAt,
		StartedAt:  db.StartedAt,
		FinishedAt: db.FinishedAt,
	}
	if db.ErrorMessage != nil {
		run.ErrorMessage = *db.ErrorMessage
	}
	return run, nil
}
