package marathon

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

const submittedApp = `{
	"id": "/web",
	"cmd": "./run --port $PORT0",
	"cpus": 0.5,
	"mem": 256,
	"instances": 3,
	"env": {"MODE": "production"},
	"labels": {"HAPROXY_DEPLOYMENT_GROUP": "web"},
	"container": {
		"type": "DOCKER",
		"volumes": [{"containerPath": "/data", "hostPath": "/srv/data", "mode": "RW"}],
		"docker": {
			"image": "example/web:1.4",
			"network": "BRIDGE",
			"portMappings": [{"containerPort": 8080, "hostPort": 0, "servicePort": 80, "protocol": "tcp"}]
		}
	}
}`

func TestAppDefRoundTripsUnmodeledFields(t *testing.T) {
	var app AppDef
	require.NoError(t, json.Unmarshal([]byte(submittedApp), &app))

	require.Equal(t, "/web", app.ID)
	require.Equal(t, 3, app.Instances)
	require.Equal(t, 80, app.Container.Docker.PortMappings[0].ServicePort)
	require.Equal(t, "./run --port $PORT0", app.Extra["cmd"])
	require.Equal(t, 0.5, app.Extra["cpus"])

	// The cutover only ever touches the listener port and labels; the rest
	// of the operator's document must come back out intact.
	require.NoError(t, app.SetServicePort(10001))
	app.Labels[LabelDeploymentColour] = ColourBlue

	encoded, err := json.Marshal(app)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(encoded, &out))
	require.Equal(t, "./run --port $PORT0", out["cmd"])
	require.Equal(t, 0.5, out["cpus"])
	require.Equal(t, float64(256), out["mem"])
	require.Equal(t, map[string]any{"MODE": "production"}, out["env"])

	container := out["container"].(map[string]any)
	require.Equal(t, "DOCKER", container["type"])
	require.Len(t, container["volumes"], 1)

	docker := container["docker"].(map[string]any)
	require.Equal(t, "example/web:1.4", docker["image"])
	require.Equal(t, "BRIDGE", docker["network"])

	mapping := docker["portMappings"].([]any)[0].(map[string]any)
	require.Equal(t, float64(10001), mapping["servicePort"], "only the rewritten port changes")
	require.Equal(t, float64(8080), mapping["containerPort"])
	require.Equal(t, "tcp", mapping["protocol"])
}

func TestAppDefModeledFieldsWinOverStaleExtra(t *testing.T) {
	app := AppDef{ID: "/web", Instances: 2, Extra: map[string]any{"id": "/stale", "cpus": 1.0}}

	encoded, err := json.Marshal(app)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(encoded, &out))
	require.Equal(t, "/web", out["id"])
	require.Equal(t, 1.0, out["cpus"])
}
