package planner

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cutoverd/bluegreen-deploy/internal/marathon"
	"github.com/jinzhu/copier"
)

// Derive matches deploymentGroup against the scheduler's current app list
// and produces the colour, internal listener port, and prior live app (if
// any) the new deployment must take on. Only apps carrying both the
// deployment-group and colour labels count as matches — anything else in
// the group's namespace is not a generation this tool manages.
//
// Zero matches: first-ever deployment of this group, coloured blue,
// listening on altPort.
//
// One match: the group has exactly one live app. The new deployment takes
// the opposite colour, and the two generations swap between the group's
// two port slots: altPort unless the live app already occupies it, in
// which case the live app's recorded service port (its HAPROXY_0_PORT
// label) is taken instead.
//
// Two matches: a cutover for this group is already in flight. Without
// resume this is rejected outright; with resume, the two apps are ordered
// by their recorded start time and the newer one is treated as the
// in-progress new app (its colour and port are reused, not recomputed).
//
// More than two matches can't happen under normal operation and is always
// rejected.
func Derive(apps []marathon.AppDef, deploymentGroup string, altPort int, resume bool) (Plan, error) {
	var matches []marathon.AppDef
	for _, app := range apps {
		if app.Labels[marathon.LabelDeploymentGroup] == deploymentGroup &&
			app.Labels[marathon.LabelDeploymentColour] != "" {
			matches = append(matches, app)
		}
	}

	switch len(matches) {
	case 0:
		return Plan{Colour: marathon.ColourBlue, Port: altPort}, nil

	case 1:
		existing := matches[0]
		newPort, err := nextPort(existing, altPort)
		if err != nil {
			return Plan{}, err
		}

		colour := marathon.OtherColour(existing.Labels[marathon.LabelDeploymentColour])
		return Plan{Colour: colour, Port: newPort, ExistingApp: &existing}, nil

	case 2:
		if !resume {
			return Plan{}, &ConcurrentDeploymentError{DeploymentGroup: deploymentGroup, MatchCount: 2}
		}

		newApp, oldApp := orderByStartedAt(matches[0], matches[1])
		port, err := listenPort(newApp)
		if err != nil {
			return Plan{}, fmt.Errorf("resumed app %s: %w", newApp.ID, err)
		}

		return Plan{
			Colour:       newApp.Labels[marathon.LabelDeploymentColour],
			Port:         port,
			ExistingApp:  &oldApp,
			Resuming:     true,
			NewAppExists: true,
		}, nil

	default:
		return Plan{}, &ConcurrentDeploymentError{DeploymentGroup: deploymentGroup, MatchCount: len(matches)}
	}
}

// nextPort picks the internal listener port for the next generation: the
// group's alternate port, unless existing already listens there, in which
// case the slot existing vacated — recorded in its HAPROXY_0_PORT label —
// is reused.
func nextPort(existing marathon.AppDef, altPort int) (int, error) {
	prevPort, err := listenPort(existing)
	if err != nil {
		return 0, fmt.Errorf("existing app %s: %w", existing.ID, err)
	}
	if prevPort != altPort {
		return altPort, nil
	}
	port, err := strconv.Atoi(existing.Labels[marathon.LabelPort0])
	if err != nil {
		return 0, fmt.Errorf("existing app %s has no valid %s label", existing.ID, marathon.LabelPort0)
	}
	return port, nil
}

// listenPort reads an app's current internal listener port.
func listenPort(app marathon.AppDef) (int, error) {
	if len(app.Ports) > 0 {
		return app.Ports[0], nil
	}
	return app.ServicePort()
}

// orderByStartedAt returns (newer, older) by comparing each app's recorded
// HAPROXY_DEPLOYMENT_STARTED_AT label. Apps missing the label sort as
// oldest.
func orderByStartedAt(a, b marathon.AppDef) (newer, older marathon.AppDef) {
	if a.Labels[marathon.LabelDeploymentStartedAt] > b.Labels[marathon.LabelDeploymentStartedAt] {
		return a, b
	}
	return b, a
}

// BuildNewApp derives the outgoing application definition from the
// caller's input and a resolved Plan. It deep-copies input so the caller's
// own value is never mutated by planning.
func BuildNewApp(input marathon.AppDef, plan Plan, initialInstances int, startedAt time.Time) (marathon.AppDef, error) {
	var out marathon.AppDef
	if err := copier.CopyWithOption(&out, &input, copier.Option{DeepCopy: true}); err != nil {
		return marathon.AppDef{}, fmt.Errorf("copy input app definition: %w", err)
	}

	if out.Labels == nil {
		out.Labels = make(map[string]string)
	}

	// The stable, routed service port is captured before the listener port
	// rewrite below replaces it.
	servicePort, err := input.ServicePort()
	if err != nil {
		return marathon.AppDef{}, err
	}

	out.Labels[marathon.LabelAppID] = input.ID
	out.ID = input.ID + "-" + plan.Colour
	if out.ID[0] != '/' {
		out.ID = "/" + out.ID
	}

	out.Labels[marathon.LabelDeploymentColour] = plan.Colour
	out.Labels[marathon.LabelDeploymentStartedAt] = startedAt.Format(time.RFC3339Nano)
	out.Labels[marathon.LabelPort0] = strconv.Itoa(servicePort)

	// Target instances tracks the old app's size at the moment it was
	// observed, not whatever instance count the caller happened to put in
	// the input definition — the new app is replacing the old one at
	// parity, not at some arbitrary requested size. Only a first-ever
	// deployment (no old app to match) falls back to the input's own
	// instances.
	target := input.Instances
	if plan.ExistingApp != nil {
		target = plan.ExistingApp.Instances
		out.Instances = initialInstances
	}
	out.Labels[marathon.LabelDeploymentTargetInst] = strconv.Itoa(target)

	if err := out.SetServicePort(plan.Port); err != nil {
		return marathon.AppDef{}, fmt.Errorf("set listener port: %w", err)
	}

	return out, nil
}
