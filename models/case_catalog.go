package models

// CaseDefinition describes one known test case. The catalog is the fixed
// registry of cases the engine knows how to dispatch; configurations are
// validated against it at save time, not at run time.
type CaseDefinition struct {
	Id          string
	Category    string
	Name        string
	Description string
	Destructive bool
	// Slow cases (lifecycle, backup) get an extended timeout budget.
	Slow bool
}

const (
	CategoryCluster      = "cluster"
	CategoryStorage      = "storage"
	CategoryNetwork      = "network"
	CategoryVmLifecycle  = "vm_lifecycle"
	CategoryLxcLifecycle = "lxc_lifecycle"
	CategorySnapshot     = "snapshot"
	CategoryBackup       = "backup"
	CategoryUser         = "user_management"
	CategoryMonitoring   = "monitoring"
	CategoryTasks        = "tasks"
)

// CaseCatalog lists every known case in execution order: read-only platform
// checks first, then resource lifecycles, snapshots, backups, user management
// and finally task/monitoring queries against whatever the run produced.
var CaseCatalog = []CaseDefinition{
	{Id: "cluster.list_nodes", Category: CategoryCluster, Name: "List cluster nodes", Description: "Enumerates nodes and checks the target node is online."},
	{Id: "cluster.node_status", Category: CategoryCluster, Name: "Read node status", Description: "Reads CPU, memory and uptime of the target node."},
	{Id: "storage.list_pools", Category: CategoryStorage, Name: "List storage pools", Description: "Enumerates storage pools visible from the target node."},
	{Id: "storage.pool_capacity", Category: CategoryStorage, Name: "Check pool capacity", Description: "Verifies the configured storage pool reports free capacity."},
	{Id: "network.list_bridges", Category: CategoryNetwork, Name: "List network bridges", Description: "Enumerates bridges and checks the configured bridge exists."},
	{Id: "vm.create", Category: CategoryVmLifecycle, Name: "Create VM", Destructive: true, Slow: true, Description: "Creates a VM from the configured defaults."},
	{Id: "vm.start_stop", Category: CategoryVmLifecycle, Name: "Start and stop VM", Destructive: true, Slow: true, Description: "Boots and shuts down the VM created by vm.create."},
	{Id: "vm.delete", Category: CategoryVmLifecycle, Name: "Delete VM", Destructive: true, Description: "Deletes the VM created by vm.create."},
	{Id: "lxc.create", Category: CategoryLxcLifecycle, Name: "Create container", Destructive: true, Slow: true, Description: "Creates an LXC container from the configured template."},
	{Id: "lxc.delete", Category: CategoryLxcLifecycle, Name: "Delete container", Destructive: true, Description: "Deletes the container created by lxc.create."},
	{Id: "snapshot.create", Category: CategorySnapshot, Name: "Create snapshot", Destructive: true, Description: "Snapshots a created guest."},
	{Id: "snapshot.rollback", Category: CategorySnapshot, Name: "Rollback snapshot", Destructive: true, Slow: true, Description: "Rolls a guest back to its snapshot."},
	{Id: "backup.create", Category: CategoryBackup, Name: "Create backup", Destructive: true, Slow: true, Description: "Backs a created guest up to the configured storage."},
	{Id: "user.create_delete", Category: CategoryUser, Name: "Create and delete user", Destructive: true, Description: "Creates a throwaway user and removes it again."},
	{Id: "monitoring.node_metrics", Category: CategoryMonitoring, Name: "Read node metrics", Description: "Reads rrd metrics for the target node."},
	{Id: "tasks.list_recent", Category: CategoryTasks, Name: "List recent tasks", Description: "Lists recent tasks and checks terminal task states parse."},
}

// KnownCaseIds returns the catalog ids in catalog order.
func KnownCaseIds() []string {
	ids := make([]string, len(CaseCatalog))
	for i, def := range CaseCatalog {
		ids[i] = def.Id
	}
	return ids
}

// CaseDefinitionById returns the definition for the given id, or false when
// the id is not part of the catalog.
func CaseDefinitionById(id string) (CaseDefinition, bool) {
	for _, def := range CaseCatalog {
		if def.Id == id {
			return def, true
		}
	}
	return CaseDefinition{}, false
}

// SelectCases resolves a selection of case ids into catalog definitions, in
// catalog order. Unknown ids are ignored; selection validation happens at
// configuration save time.
func SelectCases(selected []string) []CaseDefinition {
	wanted := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		wanted[id] = struct{}{}
	}
	out := make([]CaseDefinition, 0, len(selected))
	for _, def := range CaseCatalog {
		if _, ok := wanted[def.Id]; ok {
			out = append(out, def)
		}
	}
	return out
}
