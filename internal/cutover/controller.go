// Package cutover implements the gated reconciliation loop that drains an
// old application's tasks out of the proxy fleet while scaling a new one
// up to take its place, and deletes the old application once the cutover
// completes.
package cutover

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/cutoverd/bluegreen-deploy/internal/marathon"
	"github.com/cutoverd/bluegreen-deploy/internal/proxystats"
)

// scheduler is the subset of the scheduler client the controller needs,
// narrowed to an interface so tests can exercise the loop without an HTTP
// server.
type scheduler interface {
	GetApp(ctx context.Context, id string) (*marathon.AppDef, error)
	ScaleApp(ctx context.Context, id string, instances int) error
	KillAndScale(ctx context.Context, taskIDs []string, scale bool) error
	DeleteApp(ctx context.Context, id string) error
}

// statsFetcher is the subset of proxystats.Aggregator the controller needs.
type statsFetcher interface {
	Fetch(ctx context.Context, host string, backendName string) (proxystats.Snapshot, error)
}

// Confirmer asks the operator to approve a mutating step. The controller
// consults it before deleting the old app and before each scale pair,
// unless Options.Force is set.
type Confirmer interface {
	Confirm(prompt string, defaultYes bool) (bool, error)
}

// Recorder observes each reconciliation iteration that obtained a proxy
// stats snapshot (an iteration whose fetch failed is not recorded).
// Implementations may log, persist to an audit trail, or both; New
// substitutes NopRecorder when given a nil Recorder.
type Recorder interface {
	RecordIteration(iteration int, result GateResult, killed []string, newInstances int)
}

type NopRecorder struct{}

func (NopRecorder) RecordIteration(int, GateResult, []string, int) {}

// MultiRecorder fans one iteration out to every recorder in the slice, so
// a run can be both displayed to an operator and written to an audit
// trail without the controller knowing about either concern directly.
type MultiRecorder []Recorder

func (m MultiRecorder) RecordIteration(iteration int, result GateResult, killed []string, newInstances int) {
	for _, r := range m {
		r.RecordIteration(iteration, result, killed, newInstances)
	}
}

// Options configures a cutover Run.
type Options struct {
	ProxyHost   string // the proxy fleet's DNS name
	BackendName string // haproxy backend name, "<deployment group>_<service port>"
	StepDelay   time.Duration
	Force       bool      // mutate without consulting Confirmer
	Confirmer   Confirmer // may be nil when Force is set
}

// Controller drains NewApp's predecessor out of the proxy fleet while
// scaling NewApp up to its target instance count, deleting the old app
// once the cutover completes.
type Controller struct {
	scheduler scheduler
	stats     statsFetcher
	recorder  Recorder
	logger    *slog.Logger
	opts      Options
}

func New(sched scheduler, stats statsFetcher, recorder Recorder, logger *slog.Logger, opts Options) *Controller {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Controller{scheduler: sched, stats: stats, recorder: recorder, logger: logger, opts: opts}
}

// ErrDeclined is returned by Run when the operator answers no at a
// confirmation checkpoint. It is an orderly stop, not a failure: the
// deployment stays where it is and can be resumed later.
var ErrDeclined = errors.New("cutover declined by operator")

// Run reconciles newApp against oldApp until the old app is fully drained
// and deleted, or ctx is canceled. It is an explicit loop: a cutover can
// run for many hours against a slow-draining application, so the loop
// must hold nothing across iterations beyond its counters.
func (c *Controller) Run(ctx context.Context, newAppID string, oldApp marathon.AppDef) error {
	firstApp, err := c.scheduler.GetApp(ctx, newAppID)
	if err != nil {
		return fmt.Errorf("read target instance count: %w", err)
	}
	target, err := strconv.Atoi(firstApp.Labels[marathon.LabelDeploymentTargetInst])
	if err != nil {
		return fmt.Errorf("app %s has no valid %s label", newAppID, marathon.LabelDeploymentTargetInst)
	}

	for iteration := 1; ; iteration++ {
		if err := marathon.WaitForSettle(ctx, c.opts.StepDelay); err != nil {
			return c.wrapCancellation(err)
		}

		newApp, err := c.scheduler.GetApp(ctx, newAppID)
		if err != nil {
			return fmt.Errorf("iteration %d: refresh new app: %w", iteration, err)
		}
		currentOld, err := c.scheduler.GetApp(ctx, oldApp.ID)
		if err != nil {
			return fmt.Errorf("iteration %d: refresh old app: %w", iteration, err)
		}

		c.logger.Info("apps refreshed",
			"old_app", currentOld.ID, "old_instances", currentOld.Instances,
			"new_app", newApp.ID, "new_instances", newApp.Instances,
			"target", target)

		snap, err := c.stats.Fetch(ctx, c.opts.ProxyHost, c.opts.BackendName)
		if err != nil {
			c.logger.Warn("proxy fleet not settled, retrying", "iteration", iteration, "error", err)
			continue
		}

		result := evaluateGates(snap, currentOld.Instances, newApp.Instances, target)
		killed := killEligibleTasks(snap, *currentOld)
		c.recorder.RecordIteration(iteration, result, killed, newApp.Instances)

		c.logger.Info("cutover iteration",
			"iteration", iteration,
			"backends", len(snap.Backends),
			"haproxy_instances", snap.InstanceCount,
			"gate_proxy_quiescent", result.ProxyQuiescent,
			"gate_both_observed", result.BothAppsObserved,
			"gate_new_at_target", result.NewAppAtTarget,
			"gate_has_draining", result.HasDraining,
			"gate_draining_settled", result.DrainingSettled,
			"kill_eligible", len(killed),
		)

		if !result.AllClear() {
			continue
		}

		c.logger.Info("drained tasks ready to kill and scale",
			"count", len(killed), "tasks", strings.Join(killed, ", "))

		if newApp.Instances == target && len(killed) == currentOld.Instances {
			c.logger.Info("old app fully drained, deleting", "old_app", currentOld.ID)
			if ok, err := c.confirm(); err != nil {
				return err
			} else if !ok {
				return ErrDeclined
			}
			if err := c.scheduler.DeleteApp(ctx, currentOld.ID); err != nil {
				return fmt.Errorf("iteration %d: delete old app: %w", iteration, err)
			}
			return nil
		}

		if ok, err := c.confirm(); err != nil {
			return err
		} else if !ok {
			return ErrDeclined
		}

		// The scale-up must have been accepted by the scheduler before any
		// old task is killed, or there would be a window with fewer live
		// instances than either app alone provides.
		nextInstances := nextScale(newApp.Instances, target)
		c.logger.Info("scaling new app up", "new_app", newApp.ID, "from", newApp.Instances, "to", nextInstances)
		if err := c.scheduler.ScaleApp(ctx, newApp.ID, nextInstances); err != nil {
			return fmt.Errorf("iteration %d: scale new app: %w", iteration, err)
		}

		c.logger.Info("scaling old app down", "old_app", currentOld.ID, "by", len(killed))
		if err := c.scheduler.KillAndScale(ctx, killed, true); err != nil {
			return fmt.Errorf("iteration %d: kill drained tasks: %w", iteration, err)
		}
	}
}

func (c *Controller) confirm() (bool, error) {
	if c.opts.Force || c.opts.Confirmer == nil {
		return true, nil
	}
	ok, err := c.opts.Confirmer.Confirm("Continue?", true)
	if err != nil {
		return false, fmt.Errorf("confirmation prompt: %w", err)
	}
	return ok, nil
}

func (c *Controller) wrapCancellation(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("cutover deadline exceeded: %w", err)
	}
	if errors.Is(err, context.Canceled) {
		c.logger.Warn("cutover canceled", "error", err)
		return fmt.Errorf("cutover canceled: %w", err)
	}
	return err
}
