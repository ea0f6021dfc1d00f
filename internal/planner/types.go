// Package planner derives a deployment's colour, internal listener port,
// and prior live app (if any) from the scheduler's current app list, and
// builds the outgoing application definition to submit.
package planner

import "github.com/cutoverd/bluegreen-deploy/internal/marathon"

// Plan is the outcome of matching an incoming app definition's deployment
// group against the scheduler's current app list.
type Plan struct {
	Colour string
	// Port is the internal listener port the new generation binds. Each
	// group has two port slots the generations alternate between; the
	// externally routed service port stays the same across both.
	Port         int
	ExistingApp  *marathon.AppDef // nil if this is the group's first deployment
	Resuming     bool             // true if the new app is already present and this run is continuing it
	NewAppExists bool
}
