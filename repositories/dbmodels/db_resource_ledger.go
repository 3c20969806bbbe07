package dbmodels

import (
	"time"

	"github.com/hypercheck/hypercheck-backend/models"
	"github.com/hypercheck/hypercheck-backend/utils"
)

type DBResourceLedgerEntry struct {
	Id           string    `db:"id"`
	TestRunId    string    `db:"test_run_id"`
	Seq          int       `db:"seq"`
	Kind         string    `db:"kind"`
	Node         string    `db:"node"`
	RemoteId     string    `db:"remote_id"`
	Confirmed    bool      `db:"confirmed"`
	CleanupState string    `db:"cleanup_state"`
	CleanupError *string   `db:"cleanup_error"`
	CreatedAt    time.Time `db:"created_at"`
}

const TABLE_RESOURCE_LEDGER = "resource_ledger_entries"

var SelectResourceLedgerColumns = utils.ColumnList[DBResourceLedgerEntry]()

func AdaptResourceLedgerEntry(db DBResourceLedgerEntry) (models.ResourceLedgerEntry, error) {
	entry := models.ResourceLedgerEntry{
		Id:           db.Id,
		TestRunId:    db.TestRunId,
		Seq:          db.Seq,
		Kind:         models.ResourceKind(db.Kind),
		Node:         db.Node,
		RemoteId:     db.RemoteId,
		Confirmed:    db.Confirmed,
		CleanupState: models.CleanupStateFrom(db.CleanupState),
		CreatedAt:    db.CreatedAt,
	}
	if db.CleanupError != nil {
		entry.CleanupError = *db.CleanupError
	}
	return entry, nil
}
