package cutover

import (
	"math"
	"strconv"

	"github.com/cutoverd/bluegreen-deploy/internal/marathon"
	"github.com/cutoverd/bluegreen-deploy/internal/proxystats"
)

// GateResult captures why a reconciliation step did or didn't clear every
// gate, for logging and for the audit trail.
type GateResult struct {
	ProxyQuiescent   bool // Gate A: no proxy instance has a reload in flight
	BothAppsObserved bool // Gate B: proxy sees as many backends as both apps' instance counts combined
	NewAppAtTarget   bool // Gate C: the backend's UP rows (either app) have reached the new app's target instance count
	HasDraining      bool // Gate D: at least one old-app backend is in MAINT (draining)
	DrainingSettled  bool // Gate E: every draining backend has qcur==0 and scur==0
}

func (g GateResult) AllClear() bool {
	return g.ProxyQuiescent && g.BothAppsObserved && g.NewAppAtTarget && g.HasDraining && g.DrainingSettled
}

// evaluateGates checks Gates B–E against a stats snapshot that has already
// cleared Gate A (the aggregator only returns a snapshot once every proxy
// instance answered with exactly one live pid). The snapshot holds one row
// per (task, proxy instance), so every count is normalized by the fleet's
// instance count. oldInstances and newInstances are both apps' current
// (not target) instance counts; target is the new app's
// HAPROXY_DEPLOYMENT_TARGET_INSTANCES.
func evaluateGates(snap proxystats.Snapshot, oldInstances, newInstances, target int) GateResult {
	result := GateResult{ProxyQuiescent: true}

	h := snap.InstanceCount
	if h == 0 {
		return result
	}

	// Gate B: every proxy must list exactly as many backends as both apps'
	// current instance counts combined — otherwise the fleet hasn't
	// finished reconciling its own config yet.
	result.BothAppsObserved = len(snap.Backends) == h*(oldInstances+newInstances)

	// Gate C: every UP row of the backend counts, whichever app it belongs
	// to; the per-instance UP count must reach the target instance count.
	result.NewAppAtTarget = snap.CountByStatus("UP") >= h*target

	draining := snap.CountByStatus("MAINT")
	result.HasDraining = draining >= h

	settled := true
	for _, b := range snap.Backends {
		if b.Status == "MAINT" && (b.Qcur != 0 || b.Scur != 0) {
			settled = false
			break
		}
	}
	result.DrainingSettled = settled

	return result
}

// killEligibleTasks derives the set of old-app tasks that are draining at
// every proxy instance and therefore safe to kill. A task only qualifies
// once every proxy in the fleet reports its synthetic backend name as
// MAINT with no queued or active sessions — a backend draining on only
// some proxies may still be taking traffic through the rest, and killing
// on a partial view would sever live connections.
func killEligibleTasks(snap proxystats.Snapshot, oldApp marathon.AppDef) []string {
	counts := make(map[string]int)
	drained := make(map[string]struct{})
	for _, b := range snap.Backends {
		if b.Status != "MAINT" || b.Qcur != 0 || b.Scur != 0 {
			continue
		}
		counts[b.SvName]++
		// Drained on every instance in the fleet, not just some.
		if counts[b.SvName] == snap.InstanceCount {
			drained[hostPortKey(b.Host, b.Port)] = struct{}{}
		}
	}

	var ids []string
	for _, task := range oldApp.Tasks {
		for _, port := range task.Ports {
			if _, ok := drained[hostPortKey(task.Host, port)]; ok {
				ids = append(ids, task.ID)
				break
			}
		}
	}
	return ids
}

func hostPortKey(host string, port int) string {
	return host + ":" + strconv.Itoa(port)
}

// nextScale computes the next instance count for the new app: roughly
// 1.5x its current count, rounded down, capped at the target.
func nextScale(current, target int) int {
	scaled := int(math.Floor(float64(current) + (float64(current)+1)/2))
	if scaled > target {
		return target
	}
	if scaled < current {
		return current
	}
	return scaled
}
