// Package platform defines the contract between the run engine and the remote
// virtualization platform under test. The engine only ever talks to a Session;
// how the session reaches the platform (HTTP API, fixtures) is an
// implementation detail of the adapter.
package platform

import (
	"context"

	"github.com/hypercheck/hypercheck-backend/models"
)

// Target identifies the platform endpoint and node a session operates on.
type Target struct {
	Profile models.ConnectionProfile
	Node    string
}

// CaseOutcome is the verdict of a single test case execution.
type CaseOutcome struct {
	Status  models.CaseStatus
	Message string
	// Logs carries structured evidence about the exchanges with the platform.
	Logs map[string]any
}

// ResourceScope is handed to each case so that everything it provisions goes
// through the resource ledger.
type ResourceScope interface {
	// RegisterResource records the intent to create a resource and returns the
	// ledger entry id to confirm or discard against.
	RegisterResource(ctx context.Context, kind models.ResourceKind, node string) (entryId string, err error)
	// ConfirmResource marks the resource as created on the platform.
	ConfirmResource(ctx context.Context, entryId string, remoteId string) error
	// DiscardResource drops an intent whose provisioning failed before
	// anything existed remotely.
	DiscardResource(ctx context.Context, entryId string) error
	// Defaults exposes the guest creation defaults of the run's snapshot.
	Defaults(kind models.ResourceKind) models.GuestDefaults
}

// Adapter opens sessions against a platform target.
type Adapter interface {
	Connect(ctx context.Context, target Target) (Session, error)
}

// Session is a live, authenticated connection to the platform. Sessions are
// owned by a single run and are not safe for concurrent use.
type Session interface {
	// InvokeCase executes one catalog case. An error return means the case
	// could not be driven at all; a failing verdict is a CaseOutcome, not an
	// error.
	InvokeCase(ctx context.Context, caseId string, scope ResourceScope) (CaseOutcome, error)
	// DeleteResource tears down a previously created resource. Used by the
	// cleanup phase; deleting an already absent resource must succeed.
	DeleteResource(ctx context.Context, kind models.ResourceKind, node string, remoteId string) error
	Close()
}
