package models

import (
	"time"

	"github.com/adhocore/gronx"
	"github.com/cockroachdb/errors"
)

// ScheduleEntry is the durable scheduling state of one recurring
// configuration. Due-ness is always recomputed from the cron rule and the
// last durable fire timestamp, never from in-memory state, so restarts can
// neither double-fire nor lose a schedule.
type ScheduleEntry struct {
	ConfigurationId string
	CronExpr        string
	AnchorAt        time.Time
	LastFiredAt     *time.Time
	CreatedAt       time.Time
}

// EntryIsDueNow reports whether the entry's next fire time, computed from the
// last fire (or the anchor before the first fire), has elapsed at now. A
// process that was down across several fire windows sees a single elapsed
// tick here, which yields exactly one catch-up run.
func EntryIsDueNow(entry ScheduleEntry, now time.Time) (bool, error) {
	referenceTime := entry.AnchorAt
	if entry.LastFiredAt != nil {
		referenceTime = *entry.LastFiredAt
	}

	nextTick, err := gronx.NextTickAfter(entry.CronExpr, referenceTime, false)
	if err != nil {
		return false, errors.Wrapf(err, "computing next tick for configuration %s", entry.ConfigurationId)
	}
	return !nextTick.After(now), nil
}
