// Package entry wires the scheduler client, proxy stats aggregator,
// planner, and cutover controller into the single operation a deployment
// invocation performs: validate the input app definition, derive and
// rewrite its listener port, submit it, and drain its predecessor out of
// the proxy fleet.
package entry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/cutoverd/bluegreen-deploy/internal/cutover"
	"github.com/cutoverd/bluegreen-deploy/internal/marathon"
	"github.com/cutoverd/bluegreen-deploy/internal/planner"
	"github.com/cutoverd/bluegreen-deploy/internal/proxystats"
	"github.com/cutoverd/bluegreen-deploy/internal/ui"
)

// scheduler is the subset of marathon.Client this package needs. It is a
// strict superset of cutover's own scheduler interface, so a *marathon.Client
// (or a fake satisfying both) can be passed straight through to
// cutover.New.
type scheduler interface {
	ListApps(ctx context.Context) ([]marathon.AppDef, error)
	GetApp(ctx context.Context, id string) (*marathon.AppDef, error)
	CreateApp(ctx context.Context, app marathon.AppDef) error
	ScaleApp(ctx context.Context, id string, instances int) error
	KillAndScale(ctx context.Context, taskIDs []string, scale bool) error
	DeleteApp(ctx context.Context, id string) error
}

// statsFetcher is the subset of proxystats.Aggregator this package needs.
type statsFetcher interface {
	Fetch(ctx context.Context, host, backendName string) (proxystats.Snapshot, error)
}

// Confirmer asks an operator to approve a deployment step before it
// proceeds. defaultYes controls which answer a bare Enter keypress
// selects.
type Confirmer interface {
	Confirm(prompt string, defaultYes bool) (bool, error)
}

// Options configures one deployment invocation.
type Options struct {
	InitialInstances int
	Resume           bool
	DryRun           bool
	Force            bool // skip every confirmation prompt
	PrintJSON        bool
	StepDelay        time.Duration
	ProxyHost        string // marathon-lb fleet's DNS name
}

// Deploy runs one full cutover invocation against input and returns the
// rewritten application definition that was (or, under --dry-run, would
// have been) submitted to the scheduler. auditRecorder is consulted in
// addition to the terminal display this package always attaches to the
// cutover loop; pass nil when no audit trail is wanted.
func Deploy(ctx context.Context, sched scheduler, stats statsFetcher, auditRecorder cutover.Recorder, logger *slog.Logger, confirmer Confirmer, input marathon.AppDef, opts Options) (marathon.AppDef, error) {
	if err := validate(input); err != nil {
		return marathon.AppDef{}, err
	}

	deploymentGroup := input.Labels[marathon.LabelDeploymentGroup]
	altPort, err := strconv.Atoi(input.Labels[marathon.LabelDeploymentAltPort])
	if err != nil {
		return marathon.AppDef{}, &ValidationError{Reason: fmt.Sprintf("%s must be an integer: %v", marathon.LabelDeploymentAltPort, err)}
	}

	apps, err := sched.ListApps(ctx)
	if err != nil {
		return marathon.AppDef{}, fmt.Errorf("list apps: %w", err)
	}

	plan, err := planner.Derive(apps, deploymentGroup, altPort, opts.Resume)
	if err != nil {
		return marathon.AppDef{}, err
	}

	newApp, err := planner.BuildNewApp(input, plan, opts.InitialInstances, time.Now())
	if err != nil {
		return marathon.AppDef{}, fmt.Errorf("build new app: %w", err)
	}

	if err := printDefinition(newApp, opts.PrintJSON); err != nil {
		logger.Warn("failed to print app definition", "error", err)
	}

	if opts.DryRun {
		logger.Info("dry run, not submitting", "app", newApp.ID)
		return newApp, nil
	}

	if !opts.Force {
		ok, err := confirmer.Confirm("Continue with deployment?", true)
		if err != nil {
			return marathon.AppDef{}, fmt.Errorf("confirmation prompt: %w", err)
		}
		if !ok {
			return marathon.AppDef{}, ErrAborted
		}
	}

	if plan.Resuming {
		logger.Info("resuming in-flight deployment", "app", newApp.ID)
	} else {
		if err := sched.CreateApp(ctx, newApp); err != nil {
			return marathon.AppDef{}, fmt.Errorf("create app %s: %w", newApp.ID, err)
		}
		logger.Info("submitted new app", "app", newApp.ID, "colour", plan.Colour, "port", plan.Port)
	}

	if plan.ExistingApp == nil {
		logger.Info("first deployment for group, nothing to cut over", "group", deploymentGroup)
		return newApp, nil
	}

	target, _ := strconv.Atoi(newApp.Labels[marathon.LabelDeploymentTargetInst])
	recorder := cutover.MultiRecorder{ui.TerminalRecorder{OldApp: plan.ExistingApp.ID, NewApp: newApp.ID, Target: target}}
	if auditRecorder != nil {
		recorder = append(recorder, auditRecorder)
	}

	ctrl := cutover.New(sched, stats, recorder, logger, cutover.Options{
		ProxyHost: opts.ProxyHost,
		// The haproxy backend is named after the group and the stable
		// service port, which BuildNewApp records in the HAPROXY_0_PORT
		// label — not after the per-generation listener port.
		BackendName: deploymentGroup + "_" + newApp.Labels[marathon.LabelPort0],
		StepDelay:   opts.StepDelay,
		Force:       opts.Force,
		Confirmer:   confirmer,
	})

	if err := ctrl.Run(ctx, newApp.ID, *plan.ExistingApp); err != nil {
		if errors.Is(err, cutover.ErrDeclined) {
			return newApp, ErrAborted
		}
		return newApp, fmt.Errorf("cutover %s -> %s: %w", plan.ExistingApp.ID, newApp.ID, err)
	}

	return newApp, nil
}

// printDefinition writes the rewritten app definition to stdout, in JSON
// when asJSON is set.
func printDefinition(app marathon.AppDef, asJSON bool) error {
	if !asJSON {
		fmt.Printf("%s (%s, port %d, %d instances)\n", app.ID, app.Labels[marathon.LabelDeploymentColour], firstPort(app), app.Instances)
		return nil
	}
	b, err := json.MarshalIndent(app, "", "  ")
	if err != nil {
		return fmt.Errorf("encode app definition: %w", err)
	}
	fmt.Println(string(b))
	return nil
}

func firstPort(app marathon.AppDef) int {
	port, _ := app.ServicePort()
	return port
}
