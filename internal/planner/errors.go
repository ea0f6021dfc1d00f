package planner

import "fmt"

// ConcurrentDeploymentError reports that the scheduler already has a
// deployment of this group in flight and --resume was not given, or that
// more than two apps share the group label (a state the cutover model has
// no way to interpret).
type ConcurrentDeploymentError struct {
	DeploymentGroup string
	MatchCount      int
}

func (e *ConcurrentDeploymentError) Error() string {
	return fmt.Sprintf("deployment group %s has %d apps already; pass --resume to continue an in-flight cutover", e.DeploymentGroup, e.MatchCount)
}
