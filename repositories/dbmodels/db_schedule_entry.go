package dbmodels

import (
	"time"

	"github.com/hypercheck/hypercheck-backend/models"
	"github.com/hypercheck/hypercheck-backend/utils"
)

type DBScheduleEntry struct {
	ConfigurationId string     `db:"configuration_id"`
	CronExpr        string     `db:"cron_expr"`
	AnchorAt        time.Time  `db:"anchor_at"`
	LastFiredAt     *time.Time `db:"last_fired_at"`
	CreatedAt       time.Time  `db:"created_at"`
}

const TABLE_SCHEDULE_ENTRIES = "schedule_entries"

var SelectScheduleEntryColumns = utils.ColumnList[DBScheduleEntry]()

func AdaptScheduleEntry(db DBScheduleEntry) (models.ScheduleEntry, error) {
	return models.ScheduleEntry{
		ConfigurationId: db.ConfigurationId,
		CronExpr:        db.CronExpr,
		AnchorAt:        db.AnchorAt,
		LastFiredAt:     db.LastFiredAt,
		CreatedAt:       db.CreatedAt,
	}, nil
}
