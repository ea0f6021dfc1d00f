package marathon

import "fmt"

// ServicePort returns the app's externally-routed service port: the first
// docker port mapping's servicePort if the app uses the docker container
// type, otherwise the first entry of the top-level ports list.
func (a *AppDef) ServicePort() (int, error) {
	if a.Container != nil && a.Container.Docker != nil {
		if len(a.Container.Docker.PortMappings) == 0 {
			return 0, fmt.Errorf("app %s: docker container has no port mappings", a.ID)
		}
		return a.Container.Docker.PortMappings[0].ServicePort, nil
	}

	if len(a.Ports) == 0 {
		return 0, fmt.Errorf("app %s: no ports defined", a.ID)
	}
	return a.Ports[0], nil
}

// SetServicePort rewrites the app's externally-routed service port in
// whichever location ServicePort reads it from. Both branches use the
// port passed in here, not a value read back off the app.
func (a *AppDef) SetServicePort(port int) error {
	if a.Container != nil && a.Container.Docker != nil {
		if len(a.Container.Docker.PortMappings) == 0 {
			a.Container.Docker.PortMappings = []PortMapping{{ServicePort: port}}
			return nil
		}
		a.Container.Docker.PortMappings[0].ServicePort = port
		return nil
	}

	if len(a.Ports) == 0 {
		a.Ports = []int{port}
		return nil
	}
	a.Ports[0] = port
	return nil
}
