package marathon

import "testing"

func TestServicePortDockerContainer(t *testing.T) {
	a := &AppDef{Container: &Container{Docker: &DockerContainer{PortMappings: []PortMapping{{ServicePort: 10001}}}}}
	port, err := a.ServicePort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if port != 10001 {
		t.Fatalf("got port %d, want 10001", port)
	}
}

func TestServicePortTopLevelPorts(t *testing.T) {
	a := &AppDef{Ports: []int{10002, 10003}}
	port, err := a.ServicePort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if port != 10002 {
		t.Fatalf("got port %d, want 10002", port)
	}
}

// Both branches must end up with the argument's value; it is easy for a
// rewrite helper like this to accidentally write back a port read off the
// app instead of the one passed in.
func TestSetServicePortUsesPassedPortInBothBranches(t *testing.T) {
	docker := &AppDef{Container: &Container{Docker: &DockerContainer{PortMappings: []PortMapping{{ServicePort: 1}}}}}
	if err := docker.SetServicePort(9999); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := docker.Container.Docker.PortMappings[0].ServicePort; got != 9999 {
		t.Fatalf("docker branch: got %d, want 9999", got)
	}

	plain := &AppDef{Ports: []int{1}}
	if err := plain.SetServicePort(8888); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := plain.Ports[0]; got != 8888 {
		t.Fatalf("plain branch: got %d, want 8888", got)
	}
}

func TestSetServicePortInitializesEmptyFields(t *testing.T) {
	a := &AppDef{}
	if err := a.SetServicePort(7777); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a.Ports) != 1 || a.Ports[0] != 7777 {
		t.Fatalf("got ports %v, want [7777]", a.Ports)
	}
}
