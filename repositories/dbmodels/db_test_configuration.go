package dbmodels

import (
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/hypercheck/hypercheck-backend/models"
	"github.com/hypercheck/hypercheck-backend/utils"
)

type DBTestConfiguration struct {
	Id                  string    `db:"id"`
	Name                string    `db:"name"`
	Description         string    `db:"description"`
	ConnectionProfile   []byte    `db:"connection_profile"`
	TargetNode          string    `db:"target_node"`
	VmDefaults          []byte    `db:"vm_defaults"`
	LxcDefaults         []byte    `db:"lxc_defaults"`
	SelectedCases       []string  `db:"selected_cases"`
	DestructiveAllowed  bool      `db:"destructive_allowed"`
	CleanupOnCompletion bool      `db:"cleanup_on_completion"`
	Recurrence          []byte    `db:"recurrence"`
	CreatedAt           time.Time `db:"created_at"`
	UpdatedAt           time.Time `db:"updated_at"`
}

const TABLE_TEST_CONFIGURATIONS = "test_configurations"

var SelectTestConfigurationColumns = utils.ColumnList[DBTestConfiguration]()

func AdaptTestConfiguration(db DBTestConfiguration) (models.TestConfiguration, error) {
	config := models.TestConfiguration{
		Id:                  db.Id,
		Name:                db.Name,
		Description:         db.Description,
		TargetNode:          db.TargetNode,
		SelectedCases:       db.SelectedCases,
		DestructiveAllowed:  db.DestructiveAllowed,
		CleanupOnCompletion: db.CleanupOnCompletion,
		CreatedAt:           db.CreatedAt,
		UpdatedAt:           db.UpdatedAt,
	}

	if err := json.Unmarshal(db.ConnectionProfile, &config.ConnectionProfile); err != nil {
		return models.TestConfiguration{}, errors.Wrapf(err, "unmarshalling connection profile of configuration %s", db.Id)
	}
	if err := json.Unmarshal(db.VmDefaults, &config.VmDefaults); err != nil {
		return models.TestConfiguration{}, errors.Wrapf(err, "unmarshalling vm defaults of configuration %s", db.Id)
	}
	if err := json.Unmarshal(db.LxcDefaults, &config.LxcDefaults); err != nil {
		return models.TestConfiguration{}, errors.Wrapf(err, "unmarshalling lxc defaults of configuration %s", db.Id)
	}
	if len(db.Recurrence) > 0 {
		var rule models.RecurrenceRule
		if err := json.Unmarshal(db.Recurrence, &rule); err != nil {
			return models.TestConfiguration{}, errors.Wrapf(err, "unmarshalling recurrence of configuration %s", db.Id)
		}
		config.Recurrence = &rule
	}
	return config, nil
}
