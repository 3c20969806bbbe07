package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hypercheck/hypercheck-backend/utils"
)

func TestEntryIsDueNow(t *testing.T) {
	anchor := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	daily := ScheduleEntry{
		ConfigurationId: "6e2f4f8e-7f28-4e05-8c6e-2a3ce2cfbd01",
		CronExpr:        "0 3 * * *",
		AnchorAt:        anchor,
	}

	t.Run("not due before the first tick", func(t *testing.T) {
		due, err := EntryIsDueNow(daily, anchor.Add(2*time.Hour))
		assert.NoError(t, err)
		assert.False(t, due)
	})

	t.Run("due once the tick has elapsed", func(t *testing.T) {
		due, err := EntryIsDueNow(daily, anchor.Add(4*time.Hour))
		assert.NoError(t, err)
		assert.True(t, due)
	})

	t.Run("not due again right after firing", func(t *testing.T) {
		fired := daily
		fired.LastFiredAt = utils.Ptr(anchor.Add(3 * time.Hour))
		due, err := EntryIsDueNow(fired, anchor.Add(4*time.Hour))
		assert.NoError(t, err)
		assert.False(t, due)
	})

	t.Run("several missed windows still read as a single due tick", func(t *testing.T) {
		fired := daily
		fired.LastFiredAt = utils.Ptr(anchor.Add(3 * time.Hour))
		// three days later: three windows elapsed, one catch-up fire
		due, err := EntryIsDueNow(fired, anchor.Add(75*time.Hour))
		assert.NoError(t, err)
		assert.True(t, due)
	})

	t.Run("invalid cron expression", func(t *testing.T) {
		broken := daily
		broken.CronExpr = "whenever"
		_, err := EntryIsDueNow(broken, anchor)
		assert.Error(t, err)
	})
}
