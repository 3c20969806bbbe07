package platform

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/hypercheck/hypercheck-backend/models"
)

// ApiAdapter drives a real platform cluster over its JSON API.
type ApiAdapter struct {
	credentials CredentialsProvider
}

func NewApiAdapter(credentials CredentialsProvider) *ApiAdapter {
	return &ApiAdapter{credentials: credentials}
}

func (a *ApiAdapter) Connect(ctx context.Context, target Target) (Session, error) {
	token, err := a.credentials.TokenFor(ctx, target.Profile.ProfileId)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving credentials for profile %s", target.Profile.ProfileId)
	}

	client := newApiClient(target.Profile.Host, target.Profile.Port, target.Profile.VerifySsl, token)

	// A version probe both checks reachability and validates the token.
	var version struct {
		Version string `json:"version"`
	}
	if err := client.get(ctx, "/version", &version); err != nil {
		return nil, errors.Wrap(err, "platform is not reachable")
	}

	return &apiSession{client: client, node: target.Node}, nil
}

// apiSession executes catalog cases against one node. Lifecycle cases share
// state: vm.start_stop operates on the guest vm.create made earlier in the
// same run.
type apiSession struct {
	client *apiClient
	node   string

	createdVmId  string
	createdLxcId string
	snapshotName string
}

func (s *apiSession) Close() {}

func (s *apiSession) InvokeCase(ctx context.Context, caseId string, scope ResourceScope) (CaseOutcome, error) {
	switch caseId {
	case "cluster.list_nodes":
		return s.caseListNodes(ctx)
	case "cluster.node_status":
		return s.caseNodeStatus(ctx)
	case "storage.list_pools":
		return s.caseListPools(ctx)
	case "storage.pool_capacity":
		return s.casePoolCapacity(ctx, scope)
	case "network.list_bridges":
		return s.caseListBridges(ctx, scope)
	case "vm.create":
		return s.caseVmCreate(ctx, scope)
	case "vm.start_stop":
		return s.caseVmStartStop(ctx)
	case "vm.delete":
		return s.caseVmDelete(ctx)
	case "lxc.create":
		return s.caseLxcCreate(ctx, scope)
	case "lxc.delete":
		return s.caseLxcDelete(ctx)
	case "snapshot.create":
		return s.caseSnapshotCreate(ctx, scope)
	case "snapshot.rollback":
		return s.caseSnapshotRollback(ctx)
	case "backup.create":
		return s.caseBackupCreate(ctx, scope)
	case "user.create_delete":
		return s.caseUserCreateDelete(ctx, scope)
	case "monitoring.node_metrics":
		return s.caseNodeMetrics(ctx)
	case "tasks.list_recent":
		return s.caseListRecentTasks(ctx)
	}
	return CaseOutcome{}, errors.Wrapf(models.ErrUnknownTestCase, "%q", caseId)
}

func pass(message string, logs map[string]any) CaseOutcome {
	return CaseOutcome{Status: models.CasePass, Message: message, Logs: logs}
}

func fail(message string, logs map[string]any) CaseOutcome {
	return CaseOutcome{Status: models.CaseFail, Message: message, Logs: logs}
}

func (s *apiSession) caseListNodes(ctx context.Context) (CaseOutcome, error) {
	var nodes []struct {
		Node   string `json:"node"`
		Status string `json:"status"`
	}
	if err := s.client.get(ctx, "/nodes", &nodes); err != nil {
		return CaseOutcome{}, err
	}

	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.Node
		if n.Node == s.node {
			if n.Status != "online" {
				return fail(fmt.Sprintf("node %s is %s", s.node, n.Status),
					map[string]any{"nodes": names[:i+1]}), nil
			}
			return pass(fmt.Sprintf("%d nodes, %s online", len(nodes), s.node),
				map[string]any{"nodes": names}), nil
		}
	}
	return fail(fmt.Sprintf("target node %s not in cluster", s.node),
		map[string]any{"nodes": names}), nil
}

func (s *apiSession) caseNodeStatus(ctx context.Context) (CaseOutcome, error) {
	var status struct {
		Uptime int64 `json:"uptime"`
		Memory struct {
			Total int64 `json:"total"`
			Used  int64 `json:"used"`
		} `json:"memory"`
		Cpu float64 `json:"cpu"`
	}
	if err := s.client.get(ctx, "/nodes/"+s.node+"/status", &status); err != nil {
		return CaseOutcome{}, err
	}
	if status.Uptime <= 0 || status.Memory.Total <= 0 {
		return fail("node status reports no uptime or memory", map[string]any{
			"uptime": status.Uptime, "memory_total": status.Memory.Total,
		}), nil
	}
	return pass(fmt.Sprintf("uptime %ds", status.Uptime), map[string]any{
		"uptime": status.Uptime, "cpu": status.Cpu,
		"memory_used": status.Memory.Used, "memory_total": status.Memory.Total,
	}), nil
}

type storagePool struct {
	Storage string `json:"storage"`
	Active  int    `json:"active"`
	Total   int64  `json:"total"`
	Avail   int64  `json:"avail"`
}

func (s *apiSession) listPools(ctx context.Context) ([]storagePool, error) {
	var pools []storagePool
	err := s.client.get(ctx, "/nodes/"+s.node+"/storage", &pools)
	return pools, err
}

func (s *apiSession) caseListPools(ctx context.Context) (CaseOutcome, error) {
	pools, err := s.listPools(ctx)
	if err != nil {
		return CaseOutcome{}, err
	}
	if len(pools) == 0 {
		return fail("no storage pools visible from node", nil), nil
	}
	names := make([]string, len(pools))
	for i, p := range pools {
		names[i] = p.Storage
	}
	return pass(fmt.Sprintf("%d pools", len(pools)), map[string]any{"pools": names}), nil
}

func (s *apiSession) casePoolCapacity(ctx context.Context, scope ResourceScope) (CaseOutcome, error) {
	pools, err := s.listPools(ctx)
	if err != nil {
		return CaseOutcome{}, err
	}

	wanted := scope.Defaults(models.ResourceVm).StoragePool
	for _, p := range pools {
		if wanted != "" && p.Storage != wanted {
			continue
		}
		logs := map[string]any{"pool": p.Storage, "avail": p.Avail, "total": p.Total}
		if p.Active != 1 {
			return fail(fmt.Sprintf("pool %s is inactive", p.Storage), logs), nil
		}
		if p.Avail <= 0 {
			return fail(fmt.Sprintf("pool %s has no free capacity", p.Storage), logs), nil
		}
		return pass(fmt.Sprintf("pool %s has %d bytes free", p.Storage, p.Avail), logs), nil
	}
	return fail(fmt.Sprintf("configured pool %q not found", wanted), nil), nil
}

func (s *apiSession) caseListBridges(ctx context.Context, scope ResourceScope) (CaseOutcome, error) {
	var ifaces []struct {
		Iface string `json:"iface"`
	}
	if err := s.client.get(ctx, "/nodes/"+s.node+"/network?type=bridge", &ifaces); err != nil {
		return CaseOutcome{}, err
	}

	names := make([]string, len(ifaces))
	for i, iface := range ifaces {
		names[i] = iface.Iface
	}
	logs := map[string]any{"bridges": names}

	wanted := scope.Defaults(models.ResourceVm).NetworkBridge
	if wanted == "" {
		return pass(fmt.Sprintf("%d bridges", len(names)), logs), nil
	}
	for _, name := range names {
		if name == wanted {
			return pass(fmt.Sprintf("bridge %s present", wanted), logs), nil
		}
	}
	return fail(fmt.Sprintf("configured bridge %q not found", wanted), logs), nil
}

// nextFreeGuestId walks the configured id range and returns the first id not
// used by any guest in the cluster.
func (s *apiSession) nextFreeGuestId(ctx context.Context, defaults models.GuestDefaults) (int, error) {
	var resources []struct {
		VmId int `json:"vmid"`
	}
	if err := s.client.get(ctx, "/cluster/resources?type=vm", &resources); err != nil {
		return 0, err
	}
	used := make(map[int]bool, len(resources))
	for _, r := range resources {
		used[r.VmId] = true
	}
	for id := defaults.IdRangeStart; id <= defaults.IdRangeEnd; id++ {
		if !used[id] {
			return id, nil
		}
	}
	return 0, errors.Newf("no free guest id in range %d-%d", defaults.IdRangeStart, defaults.IdRangeEnd)
}

func (s *apiSession) caseVmCreate(ctx context.Context, scope ResourceScope) (CaseOutcome, error) {
	defaults := scope.Defaults(models.ResourceVm)
	vmId, err := s.nextFreeGuestId(ctx, defaults)
	if err != nil {
		return CaseOutcome{}, err
	}

	entryId, err := scope.RegisterResource(ctx, models.ResourceVm, s.node)
	if err != nil {
		return CaseOutcome{}, err
	}

	form := url.Values{}
	form.Set("vmid", strconv.Itoa(vmId))
	form.Set("name", fmt.Sprintf("hypercheck-%d", vmId))
	form.Set("memory", strconv.Itoa(defaults.RamMb))
	form.Set("cores", strconv.Itoa(defaults.CpuCores))
	if defaults.StoragePool != "" {
		form.Set("scsi0", fmt.Sprintf("%s:%d", defaults.StoragePool, defaults.DiskGb))
	}
	net := "virtio,bridge=" + defaults.NetworkBridge
	if defaults.VlanTag != nil {
		net += ",tag=" + strconv.Itoa(*defaults.VlanTag)
	}
	form.Set("net0", net)

	var upid string
	if err := s.client.post(ctx, "/nodes/"+s.node+"/qemu", form, &upid); err != nil {
		if discardErr := scope.DiscardResource(ctx, entryId); discardErr != nil {
			return CaseOutcome{}, discardErr
		}
		return CaseOutcome{}, err
	}
	if err := scope.ConfirmResource(ctx, entryId, strconv.Itoa(vmId)); err != nil {
		return CaseOutcome{}, err
	}
	if err := s.client.waitForTask(ctx, s.node, upid); err != nil {
		return fail("vm creation task failed: "+err.Error(), map[string]any{"vmid": vmId}), nil
	}

	s.createdVmId = strconv.Itoa(vmId)
	return pass(fmt.Sprintf("created vm %d", vmId), map[string]any{"vmid": vmId, "upid": upid}), nil
}

func (s *apiSession) caseVmStartStop(ctx context.Context) (CaseOutcome, error) {
	if s.createdVmId == "" {
		return fail("no vm was created earlier in this run", nil), nil
	}
	base := "/nodes/" + s.node + "/qemu/" + s.createdVmId + "/status"

	var upid string
	if err := s.client.post(ctx, base+"/start", url.Values{}, &upid); err != nil {
		return CaseOutcome{}, err
	}
	if err := s.client.waitForTask(ctx, s.node, upid); err != nil {
		return fail("vm start task failed: "+err.Error(), map[string]any{"vmid": s.createdVmId}), nil
	}

	var current struct {
		Status string `json:"status"`
	}
	if err := s.client.get(ctx, base+"/current", &current); err != nil {
		return CaseOutcome{}, err
	}
	if current.Status != "running" {
		return fail(fmt.Sprintf("vm is %s after start", current.Status),
			map[string]any{"vmid": s.createdVmId}), nil
	}

	if err := s.client.post(ctx, base+"/stop", url.Values{}, &upid); err != nil {
		return CaseOutcome{}, err
	}
	if err := s.client.waitForTask(ctx, s.node, upid); err != nil {
		return fail("vm stop task failed: "+err.Error(), map[string]any{"vmid": s.createdVmId}), nil
	}
	return pass("vm booted and shut down", map[string]any{"vmid": s.createdVmId}), nil
}

func (s *apiSession) caseVmDelete(ctx context.Context) (CaseOutcome, error) {
	if s.createdVmId == "" {
		return fail("no vm was created earlier in this run", nil), nil
	}
	if err := s.DeleteResource(ctx, models.ResourceVm, s.node, s.createdVmId); err != nil {
		return CaseOutcome{}, err
	}
	vmId := s.createdVmId
	s.createdVmId = ""
	s.snapshotName = ""
	return pass("deleted vm "+vmId, map[string]any{"vmid": vmId}), nil
}

func (s *apiSession) caseLxcCreate(ctx context.Context, scope ResourceScope) (CaseOutcome, error) {
	defaults := scope.Defaults(models.ResourceLxc)
	if defaults.Image == "" {
		return fail("no container template configured", nil), nil
	}
	ctId, err := s.nextFreeGuestId(ctx, defaults)
	if err != nil {
		return CaseOutcome{}, err
	}

	entryId, err := scope.RegisterResource(ctx, models.ResourceLxc, s.node)
	if err != nil {
		return CaseOutcome{}, err
	}

	form := url.Values{}
	form.Set("vmid", strconv.Itoa(ctId))
	form.Set("hostname", fmt.Sprintf("hypercheck-%d", ctId))
	form.Set("ostemplate", defaults.Image)
	form.Set("memory", strconv.Itoa(defaults.RamMb))
	form.Set("cores", strconv.Itoa(defaults.CpuCores))
	if defaults.StoragePool != "" {
		form.Set("rootfs", fmt.Sprintf("%s:%d", defaults.StoragePool, defaults.DiskGb))
	}
	if defaults.Unprivileged {
		form.Set("unprivileged", "1")
	}
	net := "name=eth0,bridge=" + defaults.NetworkBridge
	if defaults.VlanTag != nil {
		net += ",tag=" + strconv.Itoa(*defaults.VlanTag)
	}
	form.Set("net0", net)

	var upid string
	if err := s.client.post(ctx, "/nodes/"+s.node+"/lxc", form, &upid); err != nil {
		if discardErr := scope.DiscardResource(ctx, entryId); discardErr != nil {
			return CaseOutcome{}, discardErr
		}
		return CaseOutcome{}, err
	}
	if err := scope.ConfirmResource(ctx, entryId, strconv.Itoa(ctId)); err != nil {
		return CaseOutcome{}, err
	}
	if err := s.client.waitForTask(ctx, s.node, upid); err != nil {
		return fail("container creation task failed: "+err.Error(), map[string]any{"vmid": ctId}), nil
	}

	s.createdLxcId = strconv.Itoa(ctId)
	return pass(fmt.Sprintf("created container %d", ctId), map[string]any{"vmid": ctId, "upid": upid}), nil
}

func (s *apiSession) caseLxcDelete(ctx context.Context) (CaseOutcome, error) {
	if s.createdLxcId == "" {
		return fail("no container was created earlier in this run", nil), nil
	}
	if err := s.DeleteResource(ctx, models.ResourceLxc, s.node, s.createdLxcId); err != nil {
		return CaseOutcome{}, err
	}
	ctId := s.createdLxcId
	s.createdLxcId = ""
	return pass("deleted container "+ctId, map[string]any{"vmid": ctId}), nil
}

func (s *apiSession) caseSnapshotCreate(ctx context.Context, scope ResourceScope) (CaseOutcome, error) {
	if s.createdVmId == "" {
		return fail("no vm available to snapshot", nil), nil
	}
	name := fmt.Sprintf("hypercheck%d", time.Now().Unix())

	entryId, err := scope.RegisterResource(ctx, models.ResourceSnapshot, s.node)
	if err != nil {
		return CaseOutcome{}, err
	}

	form := url.Values{}
	form.Set("snapname", name)
	var upid string
	if err := s.client.post(ctx, "/nodes/"+s.node+"/qemu/"+s.createdVmId+"/snapshot", form, &upid); err != nil {
		if discardErr := scope.DiscardResource(ctx, entryId); discardErr != nil {
			return CaseOutcome{}, discardErr
		}
		return CaseOutcome{}, err
	}
	if err := scope.ConfirmResource(ctx, entryId, s.createdVmId+"@"+name); err != nil {
		return CaseOutcome{}, err
	}
	if err := s.client.waitForTask(ctx, s.node, upid); err != nil {
		return fail("snapshot task failed: "+err.Error(), map[string]any{"snapshot": name}), nil
	}

	s.snapshotName = name
	return pass("created snapshot "+name, map[string]any{"vmid": s.createdVmId, "snapshot": name}), nil
}

func (s *apiSession) caseSnapshotRollback(ctx context.Context) (CaseOutcome, error) {
	if s.createdVmId == "" || s.snapshotName == "" {
		return fail("no snapshot available to roll back to", nil), nil
	}

	var upid string
	path := "/nodes/" + s.node + "/qemu/" + s.createdVmId + "/snapshot/" + s.snapshotName + "/rollback"
	if err := s.client.post(ctx, path, url.Values{}, &upid); err != nil {
		return CaseOutcome{}, err
	}
	if err := s.client.waitForTask(ctx, s.node, upid); err != nil {
		return fail("rollback task failed: "+err.Error(),
			map[string]any{"snapshot": s.snapshotName}), nil
	}
	return pass("rolled back to "+s.snapshotName,
		map[string]any{"vmid": s.createdVmId, "snapshot": s.snapshotName}), nil
}

func (s *apiSession) caseBackupCreate(ctx context.Context, scope ResourceScope) (CaseOutcome, error) {
	guestId := s.createdVmId
	if guestId == "" {
		guestId = s.createdLxcId
	}
	if guestId == "" {
		return fail("no guest available to back up", nil), nil
	}
	pool := scope.Defaults(models.ResourceVm).StoragePool
	if pool == "" {
		return fail("no storage pool configured for backups", nil), nil
	}

	entryId, err := scope.RegisterResource(ctx, models.ResourceBackup, s.node)
	if err != nil {
		return CaseOutcome{}, err
	}

	form := url.Values{}
	form.Set("vmid", guestId)
	form.Set("storage", pool)
	form.Set("mode", "snapshot")
	var upid string
	if err := s.client.post(ctx, "/nodes/"+s.node+"/vzdump", form, &upid); err != nil {
		if discardErr := scope.DiscardResource(ctx, entryId); discardErr != nil {
			return CaseOutcome{}, discardErr
		}
		return CaseOutcome{}, err
	}
	if err := s.client.waitForTask(ctx, s.node, upid); err != nil {
		if discardErr := scope.DiscardResource(ctx, entryId); discardErr != nil {
			return CaseOutcome{}, discardErr
		}
		return fail("backup task failed: "+err.Error(), map[string]any{"vmid": guestId}), nil
	}

	volId, err := s.latestBackupVolume(ctx, pool, guestId)
	if err != nil {
		return CaseOutcome{}, err
	}
	if err := scope.ConfirmResource(ctx, entryId, volId); err != nil {
		return CaseOutcome{}, err
	}
	return pass("created backup "+volId, map[string]any{"vmid": guestId, "volid": volId}), nil
}

func (s *apiSession) latestBackupVolume(ctx context.Context, pool, guestId string) (string, error) {
	var content []struct {
		VolId    string `json:"volid"`
		CreateAt int64  `json:"ctime"`
	}
	path := "/nodes/" + s.node + "/storage/" + pool + "/content?content=backup&vmid=" + guestId
	if err := s.client.get(ctx, path, &content); err != nil {
		return "", err
	}
	if len(content) == 0 {
		return "", errors.Newf("backup of guest %s not found on %s", guestId, pool)
	}
	latest := content[0]
	for _, c := range content[1:] {
		if c.CreateAt > latest.CreateAt {
			latest = c
		}
	}
	return latest.VolId, nil
}

func (s *apiSession) caseUserCreateDelete(ctx context.Context, scope ResourceScope) (CaseOutcome, error) {
	userId := fmt.Sprintf("hypercheck-%d@pve", time.Now().Unix())

	entryId, err := scope.RegisterResource(ctx, models.ResourceUser, s.node)
	if err != nil {
		return CaseOutcome{}, err
	}

	form := url.Values{}
	form.Set("userid", userId)
	form.Set("comment", "hypercheck throwaway user")
	if err := s.client.post(ctx, "/access/users", form, nil); err != nil {
		if discardErr := scope.DiscardResource(ctx, entryId); discardErr != nil {
			return CaseOutcome{}, discardErr
		}
		return CaseOutcome{}, err
	}
	if err := scope.ConfirmResource(ctx, entryId, userId); err != nil {
		return CaseOutcome{}, err
	}

	if err := s.client.delete(ctx, "/access/users/"+url.PathEscape(userId)); err != nil {
		return fail("user created but deletion failed: "+err.Error(),
			map[string]any{"userid": userId}), nil
	}
	return pass("user created and deleted", map[string]any{"userid": userId}), nil
}

func (s *apiSession) caseNodeMetrics(ctx context.Context) (CaseOutcome, error) {
	var points []map[string]any
	if err := s.client.get(ctx, "/nodes/"+s.node+"/rrddata?timeframe=hour", &points); err != nil {
		return CaseOutcome{}, err
	}
	if len(points) == 0 {
		return fail("node returned no metric points", nil), nil
	}
	return pass(fmt.Sprintf("%d metric points over the last hour", len(points)),
		map[string]any{"points": len(points)}), nil
}

func (s *apiSession) caseListRecentTasks(ctx context.Context) (CaseOutcome, error) {
	var tasks []struct {
		Upid   string `json:"upid"`
		Status string `json:"status"`
	}
	if err := s.client.get(ctx, "/nodes/"+s.node+"/tasks?limit=20", &tasks); err != nil {
		return CaseOutcome{}, err
	}
	for _, t := range tasks {
		if t.Status == "" {
			return fail("task "+t.Upid+" has no parseable status", nil), nil
		}
	}
	return pass(fmt.Sprintf("%d recent tasks", len(tasks)), map[string]any{"tasks": len(tasks)}), nil
}

func (s *apiSession) DeleteResource(ctx context.Context, kind models.ResourceKind, node string, remoteId string) error {
	switch kind {
	case models.ResourceVm, models.ResourceLxc:
		guestType := "qemu"
		if kind == models.ResourceLxc {
			guestType = "lxc"
		}
		var upid string
		err := s.client.do(ctx, "DELETE",
			fmt.Sprintf("/nodes/%s/%s/%s?purge=1", node, guestType, remoteId), nil, &upid)
		if err != nil {
			if isNotFound(err) {
				return nil
			}
			return err
		}
		return s.client.waitForTask(ctx, node, upid)

	case models.ResourceSnapshot:
		guestId, name, ok := strings.Cut(remoteId, "@")
		if !ok {
			return errors.Newf("malformed snapshot id %q", remoteId)
		}
		var upid string
		err := s.client.do(ctx, "DELETE",
			fmt.Sprintf("/nodes/%s/qemu/%s/snapshot/%s", node, guestId, name), nil, &upid)
		if err != nil {
			if isNotFound(err) {
				return nil
			}
			return err
		}
		return s.client.waitForTask(ctx, node, upid)

	case models.ResourceBackup:
		pool, _, ok := strings.Cut(remoteId, ":")
		if !ok {
			return errors.Newf("malformed backup volume id %q", remoteId)
		}
		err := s.client.delete(ctx,
			fmt.Sprintf("/nodes/%s/storage/%s/content/%s", node, pool, url.PathEscape(remoteId)))
		if isNotFound(err) {
			return nil
		}
		return err

	case models.ResourceUser:
		err := s.client.delete(ctx, "/access/users/"+url.PathEscape(remoteId))
		if isNotFound(err) {
			return nil
		}
		return err
	}
	return errors.Newf("unknown resource kind %q", kind)
}
