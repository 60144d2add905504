package proxmox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Tool binaries.
const (
	PveshBinary = "pvesh"
	QMBinary    = "qm"
)

// Template is a cluster VM flagged as a template.
type Template struct {
	VMID     int    `json:"vmid"`
	Name     string `json:"name"`
	Node     string `json:"node"`
	Type     string `json:"type"`
	Template int    `json:"template"`
}

// Label returns the display text for selection lists.
func (t Template) Label() string {
	name := t.Name
	if name == "" {
		name = "(unnamed)"
	}
	if t.Node == "" {
		return fmt.Sprintf("%d  %s", t.VMID, name)
	}
	return fmt.Sprintf("%d  %s  [%s]", t.VMID, name, t.Node)
}

// VNet is a software-defined virtual network.
type VNet struct {
	Name  string `json:"vnet"`
	Zone  string `json:"zone"`
	Alias string `json:"alias,omitempty"`
	Tag   int    `json:"tag,omitempty"`
}

// Label returns the display text for selection lists.
func (v VNet) Label() string {
	label := v.Name
	if v.Alias != "" {
		label += " - " + v.Alias
	}
	if v.Zone != "" {
		label += fmt.Sprintf("  [zone %s]", v.Zone)
	}
	return label
}

// Option is a single qm set flag and value.
type Option struct {
	Key   string
	Value string
}

// Opt creates an Option. key is given without the leading dashes.
func Opt(key, value string) Option {
	return Option{Key: key, Value: value}
}

// Client issues pvesh and qm commands through a Runner.
type Client struct {
	runner Runner
	out    io.Writer
	logger *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithOutput sets the writer receiving output of mutating commands.
func WithOutput(w io.Writer) ClientOption {
	return func(c *Client) {
		c.out = w
	}
}

// WithLogger sets the logger used for command tracing.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a Client. Without WithOutput, command output is discarded.
func NewClient(runner Runner, opts ...ClientOption) *Client {
	c := &Client{
		runner: runner,
		out:    io.Discard,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// With returns a copy of the client with additional options applied.
func (c *Client) With(opts ...ClientOption) *Client {
	clone := *c
	for _, opt := range opts {
		opt(&clone)
	}
	return &clone
}

// Templates lists VMs flagged as templates, sorted by VMID.
// Returns ErrNoTemplates when there are none.
func (c *Client) Templates(ctx context.Context) ([]Template, error) {
	var resources []Template
	if err := c.query(ctx, &resources, "get", "/cluster/resources", "--type", "vm", "--output-format", "json"); err != nil {
		return nil, fmt.Errorf("failed to list cluster resources: %w", err)
	}

	var templates []Template
	for _, r := range resources {
		if r.Template == 1 {
			templates = append(templates, r)
		}
	}
	if len(templates) == 0 {
		return nil, ErrNoTemplates
	}

	sort.Slice(templates, func(i, j int) bool {
		return templates[i].VMID < templates[j].VMID
	})
	return templates, nil
}

// VNets lists the SDN virtual networks, sorted by name.
// Returns ErrNoVNets when there are none.
func (c *Client) VNets(ctx context.Context) ([]VNet, error) {
	var vnets []VNet
	if err := c.query(ctx, &vnets, "get", "/cluster/sdn/vnets", "--output-format", "json"); err != nil {
		return nil, fmt.Errorf("failed to list SDN VNets: %w", err)
	}

	// Entries without a name cannot be bound to an interface.
	named := vnets[:0]
	for _, v := range vnets {
		if v.Name != "" {
			named = append(named, v)
		}
	}
	if len(named) == 0 {
		return nil, ErrNoVNets
	}

	sort.Slice(named, func(i, j int) bool {
		return named[i].Name < named[j].Name
	})
	return named, nil
}

// Clone creates a named full clone of a template on the given storage.
func (c *Client) Clone(ctx context.Context, templateID, vmID int, name, storage string) error {
	return c.qm(ctx, "clone", strconv.Itoa(templateID), strconv.Itoa(vmID),
		"--name", name, "--full", "1", "--storage", storage)
}

// Config returns the VM configuration as printed by qm config.
// The output is captured and not written to the command output.
func (c *Client) Config(ctx context.Context, vmID int) (string, error) {
	args := []string{"config", strconv.Itoa(vmID)}
	res, err := RunAndCapture(ctx, c.runner, QMBinary, args...)
	if err != nil || res.ExitCode != 0 {
		return "", &CommandError{
			Command:  CommandString(QMBinary, args),
			ExitCode: res.ExitCode,
			Stderr:   strings.TrimSpace(res.Stderr),
			Err:      err,
		}
	}
	return res.Stdout, nil
}

// Set applies configuration options to a VM in a single qm set call.
func (c *Client) Set(ctx context.Context, vmID int, opts ...Option) error {
	if len(opts) == 0 {
		return fmt.Errorf("qm set %d: no options given", vmID)
	}
	args := []string{"set", strconv.Itoa(vmID)}
	for _, o := range opts {
		args = append(args, "--"+o.Key, o.Value)
	}
	return c.qm(ctx, args...)
}

// Resize changes the size of a VM disk. size is passed verbatim, e.g. "+20G".
func (c *Client) Resize(ctx context.Context, vmID int, disk, size string) error {
	return c.qm(ctx, "resize", strconv.Itoa(vmID), disk, size)
}

// Start starts a VM.
func (c *Client) Start(ctx context.Context, vmID int) error {
	return c.qm(ctx, "start", strconv.Itoa(vmID))
}

// qm runs a mutating qm command, streaming its output.
func (c *Client) qm(ctx context.Context, args ...string) error {
	cmdStr := CommandString(QMBinary, args)
	c.logger.Info("running", zap.String("cmd", cmdStr))

	exitCode, err := c.runner.Run(ctx, c.out, c.out, QMBinary, args...)
	if err != nil || exitCode != 0 {
		return &CommandError{Command: cmdStr, ExitCode: exitCode, Err: err}
	}
	return nil
}

// query runs a pvesh command and decodes its JSON output into v.
func (c *Client) query(ctx context.Context, v any, args ...string) error {
	res, err := RunAndCapture(ctx, c.runner, PveshBinary, args...)
	if err != nil || res.ExitCode != 0 {
		return &CommandError{
			Command:  CommandString(PveshBinary, args),
			ExitCode: res.ExitCode,
			Stderr:   strings.TrimSpace(res.Stderr),
			Err:      err,
		}
	}

	// pvesh prints nothing for an empty collection.
	if strings.TrimSpace(res.Stdout) == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(res.Stdout), v); err != nil {
		return fmt.Errorf("failed to parse %s output: %w", PveshBinary, err)
	}
	return nil
}
