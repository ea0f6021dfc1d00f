package entry

import (
	"fmt"

	"github.com/cutoverd/bluegreen-deploy/internal/marathon"
)

// ValidationError reports that the input app definition is unusable for a
// blue/green cutover.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid app definition: %s", e.Reason)
}

// validate checks the minimum an input app definition must carry before
// it can be planned and deployed: an ID, a deployment group label, an
// alternate port label, a positive instance count, and a readable service
// port.
func validate(app marathon.AppDef) error {
	if app.ID == "" {
		return &ValidationError{Reason: "missing id"}
	}
	if app.Labels[marathon.LabelDeploymentGroup] == "" {
		return &ValidationError{Reason: fmt.Sprintf("missing %s label", marathon.LabelDeploymentGroup)}
	}
	if app.Labels[marathon.LabelDeploymentAltPort] == "" {
		return &ValidationError{Reason: fmt.Sprintf("missing %s label", marathon.LabelDeploymentAltPort)}
	}
	if app.Instances <= 0 {
		return &ValidationError{Reason: "instances must be positive"}
	}
	if _, err := app.ServicePort(); err != nil {
		return &ValidationError{Reason: err.Error()}
	}
	return nil
}
