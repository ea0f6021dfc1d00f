// Package cli wires the cobra root command: flag parsing, ambient
// configuration/credential loading, and dispatch into the entry package's
// single deploy operation.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cutoverd/bluegreen-deploy/internal/audit"
	"github.com/cutoverd/bluegreen-deploy/internal/config"
	"github.com/cutoverd/bluegreen-deploy/internal/cutover"
	"github.com/cutoverd/bluegreen-deploy/internal/entry"
	"github.com/cutoverd/bluegreen-deploy/internal/helpers"
	"github.com/cutoverd/bluegreen-deploy/internal/logging"
	"github.com/cutoverd/bluegreen-deploy/internal/marathon"
	"github.com/cutoverd/bluegreen-deploy/internal/proxystats"
	"github.com/cutoverd/bluegreen-deploy/internal/ui"
	"github.com/spf13/cobra"
)

const longHelp = `bluegreen-deploy performs a zero-downtime blue/green deployment against a
Marathon-style scheduler fronted by a marathon-lb style proxy fleet.

It submits a new, differently-coloured instance group alongside whatever
is already running for the same HAPROXY_DEPLOYMENT_GROUP, then drains the
old group out of the proxy fleet instance by instance while scaling the
new group up, deleting the old group once the cutover completes.

The input app definition must carry the HAPROXY_DEPLOYMENT_GROUP and
HAPROXY_DEPLOYMENT_ALT_PORT labels; everything else the cutover needs
(colour, start time, target instance count, the stable service port) is
derived and written back as labels on the deployed app, so an interrupted
cutover can be picked up again with --resume.

Configuration is read, in increasing order of precedence, from
<config dir>/config.{json,yaml,toml}, BLUEGREEN_DEPLOY_* environment
variables, and the flags below. Scheduler and proxy credentials come from
a sops-encrypted credentials.env in the config directory, or from
MARATHON_USER/MARATHON_PASS and MARATHONLB_USER/MARATHONLB_PASS.`

type flags struct {
	marathon         string
	marathonLB       string
	jsonPath         string
	dryRun           bool
	force            bool
	resume           bool
	stepDelaySecs    int
	initialInstances int
	debug            bool
	logFormat        string
	syslogSocket     string
	auditPath        string
	longHelp         bool
}

// NewRootCmd builds the bluegreen-deploy command.
func NewRootCmd() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:           "bluegreen-deploy",
		Short:         "Blue/green deploys an app definition against a Marathon-style scheduler",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.longHelp {
				fmt.Fprintln(cmd.OutOrStdout(), longHelp)
				if example, err := config.RenderExample("yaml"); err == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "\nExample config.yaml:\n\n%s", example)
				}
				return nil
			}
			return run(cmd, f)
		},
	}

	cmd.Flags().StringVarP(&f.marathon, "marathon", "m", "", "Marathon endpoint, e.g. -m http://marathon1:8080")
	cmd.Flags().StringVarP(&f.marathonLB, "marathon-lb", "l", "", "Marathon-lb stats endpoint, e.g. -l http://marathon-lb.marathon.mesos:9090")
	cmd.Flags().StringVarP(&f.jsonPath, "json", "j", "", "Path to the app definition JSON")
	cmd.Flags().BoolVarP(&f.dryRun, "dry-run", "d", false, "Perform a dry run")
	cmd.Flags().BoolVarP(&f.force, "force", "f", false, "Perform deployment un-prompted")
	cmd.Flags().IntVarP(&f.stepDelaySecs, "step-delay", "s", 5, "Delay between each successive deployment step, in seconds")
	cmd.Flags().IntVarP(&f.initialInstances, "initial-instances", "i", 1, "Initial number of app instances to launch")
	cmd.Flags().BoolVarP(&f.resume, "resume", "r", false, "Resume from a previous deployment")
	cmd.Flags().BoolVar(&f.debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&f.logFormat, "log-format", "text", "Log output format: text or json")
	cmd.Flags().StringVar(&f.syslogSocket, "syslog-socket", "", "Unix socket to send logs to (disables stderr logging)")
	cmd.Flags().StringVar(&f.auditPath, "audit-db", "", "Path to the sqlite audit log (default: <config dir>/audit.db)")
	cmd.Flags().BoolVar(&f.longHelp, "longhelp", false, "Print out configuration details")

	return cmd
}

func run(cmd *cobra.Command, f *flags) error {
	config.LoadEnvFiles(nil)

	defaults, err := config.Load()
	if err != nil {
		return err
	}
	applyDefaults(f, cmd, defaults)

	if f.marathon == "" {
		return fmt.Errorf("--marathon/-m is required")
	}
	if f.marathonLB == "" {
		return fmt.Errorf("--marathon-lb/-l is required")
	}
	if f.jsonPath == "" {
		return fmt.Errorf("--json/-j is required")
	}

	logger, err := logging.New(logging.Options{Format: logging.Format(f.logFormat), Debug: f.debug, SyslogSocket: f.syslogSocket})
	if err != nil {
		return err
	}

	dir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("resolve config directory: %w", err)
	}
	schedCreds, proxyCreds, err := config.LoadCredentials(dir)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(f.jsonPath)
	if err != nil {
		return fmt.Errorf("read app definition %s: %w", f.jsonPath, err)
	}
	var input marathon.AppDef
	if err := json.Unmarshal(raw, &input); err != nil {
		return fmt.Errorf("parse app definition %s: %w", f.jsonPath, err)
	}

	marathonURL, err := normalizeSchedulerEndpoint(f.marathon)
	if err != nil {
		return err
	}
	lbHost, lbPort, err := splitProxyEndpoint(f.marathonLB)
	if err != nil {
		return err
	}

	sched := marathon.NewClient(marathonURL, schedCreds, logger)
	aggregator := proxystats.NewAggregator(proxystats.NewNetResolver(), proxystats.NewHTTPFetcher(lbPort, 10*time.Second, proxyCreds))

	auditPath := f.auditPath
	if auditPath == "" {
		auditPath = dir + "/audit.db"
	}
	db, err := audit.Open(auditPath)
	if err != nil {
		logger.Warn("continuing without an audit trail", "error", err)
	}
	var auditRecorder cutover.Recorder
	if db != nil {
		defer db.Close()
		auditRecorder = audit.NewRecorder(db, audit.NewRunID(), logger)
	}

	ctx := cmd.Context()
	app, err := entry.Deploy(ctx, sched, aggregator, auditRecorder, logger, YesNoPrompt{In: cmd.InOrStdin(), Out: cmd.OutOrStdout()}, input, entry.Options{
		InitialInstances: f.initialInstances,
		Resume:           f.resume,
		DryRun:           f.dryRun,
		Force:            f.force,
		StepDelay:        time.Duration(f.stepDelaySecs) * time.Second,
		ProxyHost:        lbHost,
	})
	if errors.Is(err, entry.ErrAborted) {
		// A declined prompt is an orderly stop, not a failure.
		ui.Warn("deployment aborted")
		return nil
	}
	if err != nil {
		return err
	}

	ui.Success("deployment complete: %s", app.ID)
	return nil
}

// normalizeSchedulerEndpoint ensures the --marathon flag carries a
// scheme. An explicit scheme is kept as given; a bare host[:port] gets
// HTTP for local schedulers and HTTPS everywhere else.
func normalizeSchedulerEndpoint(raw string) (string, error) {
	if strings.Contains(raw, "://") {
		return raw, nil
	}
	normalized, err := helpers.NormalizeServerURL(raw)
	if err != nil {
		return "", fmt.Errorf("parse --marathon %s: %w", raw, err)
	}
	return helpers.BuildServerURL(normalized), nil
}

// splitProxyEndpoint turns the --marathon-lb flag into the fleet's DNS
// name and stats port, defaulting the port to marathon-lb's usual 9090.
func splitProxyEndpoint(raw string) (host string, port int, err error) {
	normalized, err := helpers.NormalizeServerURL(raw)
	if err != nil {
		return "", 0, fmt.Errorf("parse --marathon-lb %s: %w", raw, err)
	}

	host = normalized
	port = 9090
	if h, p, splitErr := net.SplitHostPort(normalized); splitErr == nil {
		host = h
		if n, convErr := strconv.Atoi(p); convErr == nil {
			port = n
		}
	}
	return host, port, nil
}

// applyDefaults fills in any flag the operator left at its zero value from
// the config-file/environment defaults, without overriding a value the
// operator actually passed on the command line.
func applyDefaults(f *flags, cmd *cobra.Command, d config.Defaults) {
	if f.marathon == "" {
		f.marathon = d.Marathon
	}
	if f.marathonLB == "" {
		f.marathonLB = d.MarathonLB
	}
	if !cmd.Flags().Changed("step-delay") && d.StepDelay > 0 {
		f.stepDelaySecs = int(d.StepDelay.Seconds())
	}
	if !cmd.Flags().Changed("initial-instances") && d.InitialInstances > 0 {
		f.initialInstances = d.InitialInstances
	}
}
