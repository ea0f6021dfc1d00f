package ui

import (
	"fmt"
	"strings"

	"github.com/cutoverd/bluegreen-deploy/internal/cutover"
)

// TerminalRecorder implements cutover.Recorder by printing a one-line,
// colour-coded summary of each reconciliation step, alongside whatever
// structured log line the same iteration also produced through the
// controller's logger.
type TerminalRecorder struct {
	OldApp string
	NewApp string
	Target int
}

func (t TerminalRecorder) RecordIteration(iteration int, result cutover.GateResult, killed []string, newInstances int) {
	DisplayIteration(iteration, t.OldApp, t.NewApp, result, killed, newInstances, t.Target)
}

// DisplayIteration renders one cutover reconciliation step for an operator
// watching the terminal, alongside whatever structured log line the
// iteration also produced. Every gate state is shown, not just the ones
// that failed, so a stalled cutover can be diagnosed from the transcript
// alone.
func DisplayIteration(iteration int, oldApp, newApp string, result cutover.GateResult, killed []string, newInstances, target int) {
	gates := []struct {
		label string
		ok    bool
	}{
		{"proxy quiescent", result.ProxyQuiescent},
		{"both apps observed", result.BothAppsObserved},
		{"new app at target", result.NewAppAtTarget},
		{"draining present", result.HasDraining},
		{"draining settled", result.DrainingSettled},
	}

	parts := make([]string, len(gates))
	for i, g := range gates {
		mark := "x"
		if g.ok {
			mark = "."
		}
		parts[i] = fmt.Sprintf("%s[%s]", g.label, mark)
	}

	message := fmt.Sprintf("iteration %d: %s -> %s (%d/%d instances) %s", iteration, oldApp, newApp, newInstances, target, strings.Join(parts, " "))

	if len(killed) > 0 {
		message = fmt.Sprintf("%s killing %d task(s)", message, len(killed))
	}

	if result.AllClear() {
		Success("%s", message)
		return
	}
	Info("%s", message)
}
