package models

import (
	"time"

	"github.com/adhocore/gronx"
	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-set/v2"
)

// TestConfiguration is the declarative definition of a test suite against one
// target node. Runs reference a configuration but execute against a snapshot
// of it taken at submission time.
type TestConfiguration struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`

	ConnectionProfile ConnectionProfile `json:"connection_profile"`
	TargetNode        string            `json:"target_node"`

	VmDefaults  GuestDefaults `json:"vm_defaults"`
	LxcDefaults GuestDefaults `json:"lxc_defaults"`

	// Selected case ids, validated against the case catalog at save time.
	SelectedCases []string `json:"selected_cases"`

	DestructiveAllowed  bool `json:"destructive_allowed"`
	CleanupOnCompletion bool `json:"cleanup_on_completion"`

	Recurrence *RecurrenceRule `json:"recurrence,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConnectionProfile locates the remote platform API. Secret material lives in
// the (external) profile store, keyed by ProfileId.
type ConnectionProfile struct {
	ProfileId string `json:"profile_id"`
	Host      string `json:"host"`
	Port      int    `json:"port"`
	User      string `json:"user"`
	Realm     string `json:"realm"`
	VerifySsl bool   `json:"verify_ssl"`
}

// GuestDefaults are the resource-creation defaults for one guest type (VM or
// LXC container).
type GuestDefaults struct {
	IdRangeStart  int    `json:"id_range_start"`
	IdRangeEnd    int    `json:"id_range_end"`
	Image         string `json:"image,omitempty"`
	RamMb         int    `json:"ram_mb"`
	CpuCores      int    `json:"cpu_cores"`
	DiskGb        int    `json:"disk_gb"`
	StoragePool   string `json:"storage_pool,omitempty"`
	NetworkBridge string `json:"network_bridge,omitempty"`
	VlanTag       *int   `json:"vlan_tag,omitempty"`
	Unprivileged  bool   `json:"unprivileged,omitempty"`
}

type RecurrenceRule struct {
	// CronExpr is a standard 5-field cron expression.
	CronExpr string `json:"cron_expr"`
	// AnchorAt is the reference time used before the first fire.
	AnchorAt time.Time `json:"anchor_at"`
}

// Validate checks a configuration at save time: the case selection must be
// non-empty and resolve entirely against the catalog, resource defaults must
// be coherent, and the recurrence rule (if any) must be a valid cron
// expression.
func (c TestConfiguration) Validate() error {
	if len(c.SelectedCases) == 0 {
		return ErrEmptyCaseSelection
	}

	known := set.From(KnownCaseIds())
	selected := set.From(c.SelectedCases)
	if unknown := selected.Difference(known); !unknown.Empty() {
		return errors.Wrapf(ErrUnknownTestCase, "unknown: %v", unknown.Slice())
	}

	if c.TargetNode == "" {
		return errors.Wrap(BadParameterError, "target node is required")
	}
	if c.VmDefaults.IdRangeStart > c.VmDefaults.IdRangeEnd {
		return errors.Wrap(ErrInvalidResourceDefault, "vm id range start is after its end")
	}
	if c.LxcDefaults.IdRangeStart > c.LxcDefaults.IdRangeEnd {
		return errors.Wrap(ErrInvalidResourceDefault, "lxc id range start is after its end")
	}

	if c.Recurrence != nil {
		gron := gronx.New()
		if !gron.IsValid(c.Recurrence.CronExpr) {
			return errors.Wrapf(ErrInvalidRecurrenceRule, "%q", c.Recurrence.CronExpr)
		}
	}
	return nil
}

type UpdateTestConfigurationInput struct {
	Id                  string
	Name                *string
	Description         *string
	SelectedCases       []string
	DestructiveAllowed  *bool
	CleanupOnCompletion *bool
	// Recurrence updates: Set replaces the rule, Clear removes it.
	SetRecurrence   *RecurrenceRule
	ClearRecurrence bool
}
