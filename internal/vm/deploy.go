package vm

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jbweber/kiln/internal/cloudinit"
	"github.com/jbweber/kiln/internal/config"
	"github.com/jbweber/kiln/internal/naming"
	"github.com/jbweber/kiln/internal/output"
	"github.com/jbweber/kiln/internal/proxmox"
	"github.com/jbweber/kiln/internal/status"
)

// Option configures Deploy.
type Option func(*deployer)

// WithLogger sets the logger receiving progress and diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(d *deployer) {
		d.logger = l
	}
}

// WithTracker sets the tracker receiving step transitions.
func WithTracker(t *status.Tracker) Option {
	return func(d *deployer) {
		d.tracker = t
	}
}

// WithLockWait overrides the clone lock poll interval and deadline.
func WithLockWait(interval, timeout time.Duration) Option {
	return func(d *deployer) {
		d.lockInterval = interval
		d.lockTimeout = timeout
	}
}

// WithKeyDir sets the directory for the temporary SSH key file.
func WithKeyDir(dir string) Option {
	return func(d *deployer) {
		d.keyDir = dir
	}
}

// WithRunID sets the identifier recorded in the report.
func WithRunID(id string) Option {
	return func(d *deployer) {
		d.runID = id
	}
}

// WithReportFormatter sets the formatter for the completion report logged
// at the end of the run.
func WithReportFormatter(f output.Formatter) Option {
	return func(d *deployer) {
		d.formatter = f
	}
}

type deployer struct {
	req     *config.DeploymentRequest
	hv      Hypervisor
	logger  *zap.Logger
	tracker *status.Tracker

	lockInterval time.Duration
	lockTimeout  time.Duration
	keyDir       string
	runID        string
	formatter    output.Formatter

	keyFingerprint string
	failedStep     status.Step
	failure        error
}

// Deploy clones and configures a VM according to req, then starts it.
//
// It stops at the first failing step and returns a *StepError. The returned
// report is never nil and reflects how far the run got.
func Deploy(ctx context.Context, req *config.DeploymentRequest, hv Hypervisor, opts ...Option) (*output.Report, error) {
	d := &deployer{
		req:          req,
		hv:           hv,
		logger:       zap.NewNop(),
		lockInterval: config.LockPollInterval,
		lockTimeout:  config.LockWaitTimeout,
		keyDir:       os.TempDir(),
		formatter:    &output.YAMLFormatter{},
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.tracker == nil {
		d.tracker = status.NewTracker()
	}
	if d.runID == "" {
		d.runID = uuid.NewString()
	}
	d.logger = d.logger.With(zap.Int("vmid", req.VMID))

	report := &output.Report{
		RunID:     d.runID,
		Request:   req,
		StartedAt: time.Now(),
	}
	defer func() {
		report.FinishedAt = time.Now()
		report.Steps = d.stepResults()
	}()

	d.logger.Info("starting deployment",
		zap.String("name", req.Name),
		zap.Int("template", req.TemplateID),
		zap.String("bridge", req.Bridge))

	steps := []struct {
		step status.Step
		run  func(context.Context) error
	}{
		{status.Clone, d.clone},
		{status.AwaitLockRelease, d.awaitLock},
		{status.ConfigureHardware, d.configureHardware},
		{status.ResizeDisk, d.resizeDisk},
		{status.ConfigureNetwork, d.configureNetwork},
		{status.ConfigureCloudInitUser, d.configureUser},
		{status.InjectSSHKey, d.injectSSHKey},
		{status.Start, d.start},
		{status.Complete, func(context.Context) error { return d.complete(report) }},
	}

	for _, s := range steps {
		if s.step == status.InjectSSHKey && !req.HasSSHKey() {
			d.logger.Info("no SSH key supplied, skipping key injection")
			if err := d.tracker.Skip(s.step); err != nil {
				return report, err
			}
			continue
		}

		if err := d.tracker.Begin(s.step); err != nil {
			return report, err
		}
		d.logger.Info(s.step.Title(), zap.Stringer("step", s.step))

		if err := s.run(ctx); err != nil {
			_ = d.tracker.Fail(s.step, err)
			d.failedStep, d.failure = s.step, err
			d.logger.Error(diagnostic(s.step, req), zap.Stringer("step", s.step), zap.Error(err))
			return report, &StepError{Step: s.step, Err: err}
		}

		if err := d.tracker.Finish(s.step); err != nil {
			return report, err
		}
	}

	report.Succeeded = true
	report.FinishedAt = time.Now()
	report.Steps = d.stepResults()
	if out, err := d.formatter.FormatReport(report); err != nil {
		d.logger.Warn("failed to render deployment report", zap.Error(err))
	} else {
		d.logger.Info("deployment report\n" + out)
	}
	return report, nil
}

func (d *deployer) clone(ctx context.Context) error {
	return d.hv.Clone(ctx, d.req.TemplateID, d.req.VMID, d.req.Name, d.req.StoragePool)
}

func (d *deployer) awaitLock(ctx context.Context) error {
	return awaitUnlocked(ctx, d.hv, d.req.VMID, d.lockInterval, d.lockTimeout, d.logger)
}

func (d *deployer) configureHardware(ctx context.Context) error {
	if err := d.hv.Set(ctx, d.req.VMID, proxmox.Opt("cores", strconv.Itoa(d.req.Cores))); err != nil {
		return fmt.Errorf("failed to set CPU cores: %w", err)
	}
	if err := d.hv.Set(ctx, d.req.VMID, proxmox.Opt("memory", strconv.Itoa(d.req.MemoryMiB()))); err != nil {
		return fmt.Errorf("failed to set memory: %w", err)
	}
	return nil
}

func (d *deployer) resizeDisk(ctx context.Context) error {
	return d.hv.Resize(ctx, d.req.VMID, config.DiskID, d.req.DiskGrow())
}

func (d *deployer) configureNetwork(ctx context.Context) error {
	for _, opt := range cloudinit.NetworkOptions(d.req) {
		if err := d.hv.Set(ctx, d.req.VMID, opt); err != nil {
			return fmt.Errorf("failed to set %s: %w", opt.Key, err)
		}
	}
	return nil
}

func (d *deployer) configureUser(ctx context.Context) error {
	return d.hv.Set(ctx, d.req.VMID, cloudinit.UserOptions(d.req)...)
}

func (d *deployer) injectSSHKey(ctx context.Context) error {
	material, ok, err := cloudinit.ResolveSSHKey(d.req.SSHKey)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("SSH key field is empty")
	}
	d.keyFingerprint = cloudinit.Fingerprint(material)

	path, cleanup, err := cloudinit.WriteKeyFile(d.keyDir, material)
	if err != nil {
		return err
	}
	defer cleanup()

	d.logger.Info("injecting SSH key",
		zap.String("fingerprint", d.keyFingerprint),
		zap.Int("keys", cloudinit.KeyCount(material)))
	return d.hv.Set(ctx, d.req.VMID, cloudinit.SSHKeyOption(path))
}

func (d *deployer) start(ctx context.Context) error {
	return d.hv.Start(ctx, d.req.VMID)
}

func (d *deployer) complete(report *output.Report) error {
	hint := naming.SSHHint(d.req.User, d.req.IPv4)
	report.Connect = hint
	report.SSHKey = d.keyFingerprint

	d.logger.Info("VM deployed",
		zap.String("name", d.req.Name),
		zap.Int("cores", d.req.Cores),
		zap.Int("memory_mib", d.req.MemoryMiB()),
		zap.String("ipconfig", d.req.IPConfig()))
	d.logger.Info("connect with: " + hint)
	return nil
}

func (d *deployer) stepResults() []output.StepResult {
	states := d.tracker.Snapshot()
	results := make([]output.StepResult, 0, len(states))
	for i, st := range states {
		r := output.StepResult{
			Step:  status.Step(i).String(),
			State: st.String(),
		}
		if st == status.Failed && d.failure != nil && d.failedStep == status.Step(i) {
			r.Error = d.failure.Error()
		}
		results = append(results, r)
	}
	return results
}

// diagnostic returns the log message explaining a step failure.
func diagnostic(step status.Step, req *config.DeploymentRequest) string {
	switch step {
	case status.Clone:
		return fmt.Sprintf("CLONE FAILED: could not clone template %d to VM %d", req.TemplateID, req.VMID)
	case status.AwaitLockRelease:
		return "VM did not become ready after cloning"
	case status.ResizeDisk:
		return fmt.Sprintf("disk resize failed: the template may not have a %s disk", config.DiskID)
	case status.InjectSSHKey:
		return "SSH key injection failed: check that the key is in OpenSSH public key format"
	case status.Start:
		return "VM START FAILED"
	default:
		return step.Title() + " failed"
	}
}
