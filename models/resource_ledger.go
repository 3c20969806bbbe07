package models

import (
	"time"
)

// ResourceLedgerEntry records one remote resource created during a run so the
// cleanup phase can tear it down afterwards. Entries are owned exclusively by
// the run that created them and cleaned up in reverse Seq order.
type ResourceLedgerEntry struct {
	Id        string
	TestRunId string
	// Seq is the creation order within the run.
	Seq          int
	Kind         ResourceKind
	Node         string
	RemoteId     string
	Confirmed    bool
	CleanupState CleanupState
	CleanupError string
	CreatedAt    time.Time
}

type ResourceKind string

const (
	ResourceVm       ResourceKind = "vm"
	ResourceLxc      ResourceKind = "lxc"
	ResourceSnapshot ResourceKind = "snapshot"
	ResourceBackup   ResourceKind = "backup"
	ResourceUser     ResourceKind = "user"
)

type CleanupState int

const (
	CleanupPending CleanupState = iota
	CleanupDone
	CleanupFailed
)

func (s CleanupState) String() string {
	switch s {
	case CleanupPending:
		return "pending"
	case CleanupDone:
		return "cleaned"
	case CleanupFailed:
		return "cleanup_failed"
	}
	return "pending"
}

func CleanupStateFrom(s string) CleanupState {
	switch s {
	case "pending":
		return CleanupPending
	case "cleaned":
		return CleanupDone
	case "cleanup_failed":
		return CleanupFailed
	}
	return CleanupPending
}

type CreateLedgerEntryInput struct {
	TestRunId string
	Kind      ResourceKind
	Node      string
	// RemoteId may be empty at intent time and set on confirmation.
	RemoteId string
}
