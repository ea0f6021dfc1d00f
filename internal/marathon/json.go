package marathon

import "encoding/json"

// The (un)marshalers below give every app-definition type open-document
// semantics: decoding captures any field the struct doesn't model into
// its Extra map, and encoding folds Extra back in underneath the modeled
// fields (which win on collision). Each type aliases itself to reach the
// stock struct codec without recursing into its own methods.

// extraFields decodes data as a generic object and strips the modeled
// keys, leaving only what the struct has no field for.
func extraFields(data []byte, known ...string) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(raw, k)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return raw, nil
}

// mergeExtra encodes v and folds extra back into the resulting object.
func mergeExtra(v any, extra map[string]any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 {
		return b, nil
	}
	var merged map[string]any
	if err := json.Unmarshal(b, &merged); err != nil {
		return nil, err
	}
	for k, val := range extra {
		if _, ok := merged[k]; !ok {
			merged[k] = val
		}
	}
	return json.Marshal(merged)
}

type appDefAlias AppDef

func (a *AppDef) UnmarshalJSON(data []byte) error {
	var tmp appDefAlias
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	extra, err := extraFields(data, "id", "instances", "ports", "container", "labels", "tasks")
	if err != nil {
		return err
	}
	tmp.Extra = extra
	*a = AppDef(tmp)
	return nil
}

func (a AppDef) MarshalJSON() ([]byte, error) {
	return mergeExtra(appDefAlias(a), a.Extra)
}

type containerAlias Container

func (c *Container) UnmarshalJSON(data []byte) error {
	var tmp containerAlias
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	extra, err := extraFields(data, "docker")
	if err != nil {
		return err
	}
	tmp.Extra = extra
	*c = Container(tmp)
	return nil
}

func (c Container) MarshalJSON() ([]byte, error) {
	return mergeExtra(containerAlias(c), c.Extra)
}

type dockerContainerAlias DockerContainer

func (d *DockerContainer) UnmarshalJSON(data []byte) error {
	var tmp dockerContainerAlias
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	extra, err := extraFields(data, "portMappings")
	if err != nil {
		return err
	}
	tmp.Extra = extra
	*d = DockerContainer(tmp)
	return nil
}

func (d DockerContainer) MarshalJSON() ([]byte, error) {
	return mergeExtra(dockerContainerAlias(d), d.Extra)
}

type portMappingAlias PortMapping

func (p *PortMapping) UnmarshalJSON(data []byte) error {
	var tmp portMappingAlias
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	extra, err := extraFields(data, "servicePort")
	if err != nil {
		return err
	}
	tmp.Extra = extra
	*p = PortMapping(tmp)
	return nil
}

func (p PortMapping) MarshalJSON() ([]byte, error) {
	return mergeExtra(portMappingAlias(p), p.Extra)
}
