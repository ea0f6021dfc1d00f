package cutover

import (
	"testing"

	"github.com/cutoverd/bluegreen-deploy/internal/marathon"
	"github.com/cutoverd/bluegreen-deploy/internal/proxystats"
	"github.com/stretchr/testify/require"
)

func row(svname, host string, port int, status string, qcur, scur int) proxystats.Backend {
	return proxystats.Backend{SvName: svname, Host: host, Port: port, Status: status, Qcur: qcur, Scur: scur}
}

// repeat duplicates a row n times, one per proxy instance reporting it.
func repeat(b proxystats.Backend, n int) []proxystats.Backend {
	out := make([]proxystats.Backend, n)
	for i := range out {
		out[i] = b
	}
	return out
}

func TestEvaluateGatesAllClear(t *testing.T) {
	snap := proxystats.Snapshot{
		InstanceCount: 2,
		Backends: append(
			repeat(row("10_0_0_1_5000", "10.0.0.1", 5000, "UP", 0, 0), 2),
			repeat(row("10_0_0_2_5001", "10.0.0.2", 5001, "MAINT", 0, 0), 2)...,
		),
	}

	result := evaluateGates(snap, 1, 1, 1)
	require.True(t, result.ProxyQuiescent)
	require.True(t, result.BothAppsObserved)
	require.True(t, result.NewAppAtTarget)
	require.True(t, result.HasDraining)
	require.True(t, result.DrainingSettled)
	require.True(t, result.AllClear())
}

func TestEvaluateGatesNotBothObservedWithPartialView(t *testing.T) {
	// Two proxy instances, but only one of them lists the backend yet.
	snap := proxystats.Snapshot{
		InstanceCount: 2,
		Backends:      []proxystats.Backend{row("10_0_0_1_5000", "10.0.0.1", 5000, "UP", 0, 0)},
	}

	result := evaluateGates(snap, 0, 1, 1)
	require.False(t, result.BothAppsObserved)
	require.False(t, result.AllClear())
}

func TestEvaluateGatesNotAtTargetUntilEnoughUpRows(t *testing.T) {
	// Three proxies, target 2: needs 6 UP rows, has only 3.
	snap := proxystats.Snapshot{
		InstanceCount: 3,
		Backends: append(
			repeat(row("10_0_0_1_5000", "10.0.0.1", 5000, "UP", 0, 0), 3),
			repeat(row("10_0_0_2_5001", "10.0.0.2", 5001, "MAINT", 0, 0), 3)...,
		),
	}

	result := evaluateGates(snap, 1, 1, 2)
	require.True(t, result.BothAppsObserved)
	require.False(t, result.NewAppAtTarget)
	require.False(t, result.AllClear())
}

func TestEvaluateGatesDrainingNotSettled(t *testing.T) {
	snap := proxystats.Snapshot{
		InstanceCount: 1,
		Backends: []proxystats.Backend{
			row("10_0_0_1_5000", "10.0.0.1", 5000, "UP", 0, 0),
			row("10_0_0_2_5001", "10.0.0.2", 5001, "MAINT", 2, 0),
		},
	}

	result := evaluateGates(snap, 1, 1, 1)
	require.True(t, result.HasDraining)
	require.False(t, result.DrainingSettled)
	require.False(t, result.AllClear())
}

func TestEvaluateGatesNoDrainingInstances(t *testing.T) {
	snap := proxystats.Snapshot{
		InstanceCount: 1,
		Backends:      []proxystats.Backend{row("10_0_0_1_5000", "10.0.0.1", 5000, "UP", 0, 0)},
	}

	result := evaluateGates(snap, 0, 1, 1)
	require.False(t, result.HasDraining)
	require.False(t, result.AllClear())
}

func TestKillEligibleTasksRequiresDrainOnEveryInstance(t *testing.T) {
	oldApp := marathon.AppDef{
		Tasks: []marathon.Task{
			{ID: "task-1", Host: "10.0.0.1", Ports: []int{5000}},
			{ID: "task-2", Host: "10.0.0.2", Ports: []int{5001}},
			{ID: "task-3", Host: "10.0.0.3", Ports: []int{5002}},
		},
	}

	snap := proxystats.Snapshot{
		InstanceCount: 3,
		Backends: append(append(
			// Drained on all 3 proxies: eligible.
			repeat(row("10_0_0_1_5000", "10.0.0.1", 5000, "MAINT", 0, 0), 3),
			// MAINT everywhere but still holding a queued request on one.
			row("10_0_0_2_5001", "10.0.0.2", 5001, "MAINT", 1, 0),
			row("10_0_0_2_5001", "10.0.0.2", 5001, "MAINT", 0, 0),
			row("10_0_0_2_5001", "10.0.0.2", 5001, "MAINT", 0, 0)),
			// Draining on only 2 of 3 proxies: not eligible.
			repeat(row("10_0_0_3_5002", "10.0.0.3", 5002, "MAINT", 0, 0), 2)...,
		),
	}

	killed := killEligibleTasks(snap, oldApp)
	require.Equal(t, []string{"task-1"}, killed)
}

func TestKillEligibleTasksMatchesAnyTaskPort(t *testing.T) {
	oldApp := marathon.AppDef{
		Tasks: []marathon.Task{{ID: "task-1", Host: "10.0.0.1", Ports: []int{4000, 5000}}},
	}
	snap := proxystats.Snapshot{
		InstanceCount: 1,
		Backends:      []proxystats.Backend{row("10_0_0_1_5000", "10.0.0.1", 5000, "MAINT", 0, 0)},
	}

	require.Equal(t, []string{"task-1"}, killEligibleTasks(snap, oldApp))
}

func TestNextScaleFollowsOneAndAHalfXCappedAtTarget(t *testing.T) {
	require.Equal(t, 2, nextScale(1, 10))
	require.Equal(t, 3, nextScale(2, 10))
	require.Equal(t, 5, nextScale(3, 10))
	require.Equal(t, 8, nextScale(5, 10))
	require.Equal(t, 10, nextScale(8, 10))
	require.Equal(t, 10, nextScale(10, 10))
}

func TestNextScaleNeverDecreases(t *testing.T) {
	require.Equal(t, 4, nextScale(4, 3))
}
