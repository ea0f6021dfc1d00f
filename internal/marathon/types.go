// Package marathon implements the scheduler-facing REST client: listing,
// creating, scaling, and killing-and-scaling application tasks against a
// Marathon-style orchestrator API.
package marathon

// An app definition is an open document: operators submit whatever fields
// their scheduler understands (cpus, mem, cmd, env, health checks, ...)
// and only a handful matter to a cutover. Each type below therefore
// models just the fields this tool reads or rewrites and carries the rest
// in an Extra map, re-emitted on encode, so the definition that reaches
// the scheduler is the operator's own document with only the cutover
// fields touched.

// DockerContainer mirrors the subset of a Marathon app's container.docker
// block this tool needs to rewrite the service port.
type DockerContainer struct {
	PortMappings []PortMapping  `json:"portMappings,omitempty"`
	Extra        map[string]any `json:"-"` // image, network, parameters, ...
}

type PortMapping struct {
	ServicePort int            `json:"servicePort"`
	Extra       map[string]any `json:"-"` // containerPort, hostPort, protocol, ...
}

type Container struct {
	Docker *DockerContainer `json:"docker,omitempty"`
	Extra  map[string]any   `json:"-"` // type, volumes, ...
}

// AppDef is an application definition as stored and returned by the
// scheduler's /v2/apps endpoint.
type AppDef struct {
	ID        string            `json:"id"`
	Instances int               `json:"instances"`
	Ports     []int             `json:"ports,omitempty"`
	Container *Container        `json:"container,omitempty"`
	Labels    map[string]string `json:"labels,omitempty"`
	Tasks     []Task            `json:"tasks,omitempty"`
	Extra     map[string]any    `json:"-"` // cpus, mem, cmd, env, ...
}

// Task is one running instance of an app, as reported by the scheduler.
type Task struct {
	ID    string `json:"id"`
	Host  string `json:"host"`
	Ports []int  `json:"ports"`
}

// Label keys the cutover path reads and writes on an app definition.
const (
	LabelDeploymentGroup      = "HAPROXY_DEPLOYMENT_GROUP"
	LabelDeploymentColour     = "HAPROXY_DEPLOYMENT_COLOUR"
	LabelDeploymentAltPort    = "HAPROXY_DEPLOYMENT_ALT_PORT"
	LabelDeploymentStartedAt  = "HAPROXY_DEPLOYMENT_STARTED_AT"
	LabelDeploymentTargetInst = "HAPROXY_DEPLOYMENT_TARGET_INSTANCES"
	LabelAppID                = "HAPROXY_APP_ID"
	LabelPort0                = "HAPROXY_0_PORT"
)

// Colour alternation: each deployment group has exactly two live colours.
const (
	ColourBlue  = "blue"
	ColourGreen = "green"
)

// OtherColour returns the alternate colour for c, defaulting to blue for
// any unrecognized value (matching a first-ever deployment with no prior
// colour to read).
func OtherColour(c string) string {
	if c == ColourBlue {
		return ColourGreen
	}
	return ColourBlue
}
