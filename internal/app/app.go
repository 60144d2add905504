// Package app runs the interactive deployment workflow: discovery, prompts,
// validation, confirmation and the deployment itself.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jbweber/kiln/internal/cloudinit"
	"github.com/jbweber/kiln/internal/config"
	"github.com/jbweber/kiln/internal/logstream"
	"github.com/jbweber/kiln/internal/output"
	"github.com/jbweber/kiln/internal/prerequisites"
	"github.com/jbweber/kiln/internal/proxmox"
	"github.com/jbweber/kiln/internal/status"
	"github.com/jbweber/kiln/internal/ui"
	"github.com/jbweber/kiln/internal/vm"
)

// Prompter collects choices from the user.
//
// In production, this is satisfied by *ui.Forms.
type Prompter interface {
	SelectTemplate(ctx context.Context, templates []proxmox.Template) (int, error)
	SelectNetwork(ctx context.Context, vnets []proxmox.VNet) (string, error)
	Collect(ctx context.Context, in *config.FormInput) error
	Confirm(ctx context.Context, summary string) (bool, error)
	Alert(ctx context.Context, title, text string) error
}

// Cluster lists the resources offered for selection.
//
// In production, this is satisfied by *proxmox.Client.
type Cluster interface {
	Templates(ctx context.Context) ([]proxmox.Template, error)
	VNets(ctx context.Context) ([]proxmox.VNet, error)
}

// Viewer presents the deployment while it runs.
//
// In production, this is satisfied by *ui.TUIViewer or *ui.PlainViewer.
type Viewer interface {
	Watch(ctx context.Context, lines <-chan string, tracker *status.Tracker, work ui.Work) error
}

// Deps holds the collaborators of Run.
type Deps struct {
	// CheckTools verifies the host tools. Nil skips the check.
	CheckTools func() *prerequisites.CheckResults

	Prompter Prompter
	Cluster  Cluster
	Viewer   Viewer

	// NewHypervisor returns the hypervisor for the deployment, writing
	// command output to out.
	NewHypervisor func(out io.Writer, logger *zap.Logger) vm.Hypervisor

	// Out receives the final report.
	Out io.Writer

	// TempDir holds the log and key files. Empty uses the system default.
	TempDir string

	LogLevel     zapcore.Level
	ReportFormat output.Format

	// Formatter renders the report. Nil uses the formatter for ReportFormat.
	Formatter output.Formatter

	// LockPollInterval and LockTimeout override the clone lock wait.
	// Zero uses the defaults in config.
	LockPollInterval time.Duration
	LockTimeout      time.Duration
}

// Run executes one interactive deployment.
//
// Nothing on the cluster is modified until the user confirms the summary.
func Run(ctx context.Context, d Deps) error {
	if d.CheckTools != nil {
		if res := d.CheckTools(); res.HasErrors() {
			return fmt.Errorf("%w: %w", ErrEnvironment, res.Error())
		}
	}

	formatter := d.Formatter
	if formatter == nil {
		f, err := output.NewFormatter(d.reportFormat())
		if err != nil {
			return err
		}
		formatter = f
	}

	req, fingerprint, err := collect(ctx, d)
	if err != nil {
		return err
	}

	proceed, err := d.Prompter.Confirm(ctx, output.Summary(req, fingerprint))
	if err != nil {
		return err
	}
	if !proceed {
		return ui.ErrCancelled
	}

	report, err := deploy(ctx, d, req, formatter)
	if report != nil {
		text, ferr := formatter.FormatReport(report)
		if ferr != nil {
			return errors.Join(err, fmt.Errorf("failed to render deployment report: %w", ferr))
		}
		_, _ = fmt.Fprint(d.Out, text)
	}
	return err
}

// collect runs discovery and the prompts, returning a validated request.
func collect(ctx context.Context, d Deps) (*config.DeploymentRequest, string, error) {
	templates, err := d.Cluster.Templates(ctx)
	if err != nil {
		return nil, "", discoveryFailed(ctx, d, "No Templates", err)
	}
	templateID, err := d.Prompter.SelectTemplate(ctx, templates)
	if err != nil {
		return nil, "", err
	}

	vnets, err := d.Cluster.VNets(ctx)
	if err != nil {
		return nil, "", discoveryFailed(ctx, d, "No Networks", err)
	}
	vnet, err := d.Prompter.SelectNetwork(ctx, vnets)
	if err != nil {
		return nil, "", err
	}

	in := config.NewFormInput()
	if err := d.Prompter.Collect(ctx, &in); err != nil {
		return nil, "", err
	}

	req, err := config.NewDeploymentRequest(templateID, vnet, in)
	if err != nil {
		_ = d.Prompter.Alert(ctx, "Invalid Input", validationMessage(err))
		return nil, "", fmt.Errorf("%w: %w", ErrValidation, err)
	}

	fingerprint := ""
	if material, ok, err := cloudinit.ResolveSSHKey(req.SSHKey); err == nil && ok {
		fingerprint = cloudinit.Fingerprint(material)
	}
	return req, fingerprint, nil
}

func discoveryFailed(ctx context.Context, d Deps, title string, err error) error {
	text := err.Error()
	switch {
	case errors.Is(err, proxmox.ErrNoTemplates):
		text = "No VM templates were found on the cluster. Convert a Cloud-Init image to a template first."
	case errors.Is(err, proxmox.ErrNoVNets):
		text = "No SDN VNets were found on the cluster. Create a VNet under Datacenter > SDN first."
	}
	_ = d.Prompter.Alert(ctx, title, text)
	return fmt.Errorf("%w: %w", ErrDiscovery, err)
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, config.ErrMissingField):
		return "Please fill in all required fields: " + err.Error()
	case errors.Is(err, config.ErrInvalidNumber):
		return "VM ID, CPU cores, memory and disk size must be whole numbers: " + err.Error()
	default:
		return err.Error()
	}
}

// deploy runs the deployment behind the viewer and returns its report.
func deploy(ctx context.Context, d Deps, req *config.DeploymentRequest, formatter output.Formatter) (*output.Report, error) {
	stream, err := logstream.New(d.TempDir)
	if err != nil {
		return nil, err
	}
	defer func() { _ = stream.Close() }()

	runID := uuid.NewString()
	logger := newLogger(stream, d.LogLevel, runID)
	hv := d.NewHypervisor(stream, logger)
	tracker := status.NewTracker()

	interval, timeout := d.LockPollInterval, d.LockTimeout
	if interval <= 0 {
		interval = config.LockPollInterval
	}
	if timeout <= 0 {
		timeout = config.LockWaitTimeout
	}

	opts := []vm.Option{
		vm.WithLogger(logger),
		vm.WithTracker(tracker),
		vm.WithRunID(runID),
		vm.WithKeyDir(d.TempDir),
		vm.WithLockWait(interval, timeout),
		vm.WithReportFormatter(formatter),
	}

	var report *output.Report
	work := func(ctx context.Context) error {
		defer func() { _ = stream.Close() }()

		var deployErr error
		report, deployErr = vm.Deploy(ctx, req, hv, opts...)
		_ = logger.Sync()
		return deployErr
	}

	err = d.Viewer.Watch(ctx, stream.Lines(), tracker, work)
	return report, err
}

func (d Deps) reportFormat() output.Format {
	if d.ReportFormat == "" {
		return output.FormatTable
	}
	return d.ReportFormat
}
