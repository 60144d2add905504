package app

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jbweber/kiln/internal/config"
	"github.com/jbweber/kiln/internal/proxmox"
	"github.com/jbweber/kiln/internal/vm"
)

// mockPrompter is a mock implementation of the Prompter interface for testing.
type mockPrompter struct {
	selectTemplateFunc func(templates []proxmox.Template) (int, error)
	selectNetworkFunc  func(vnets []proxmox.VNet) (string, error)
	collectFunc        func(in *config.FormInput) error
	confirmFunc        func(summary string) (bool, error)

	// Call tracking
	alerts    []string
	summaries []string
}

// newMockPrompter creates a prompter that picks the first template and
// network and submits the web1 parameters.
func newMockPrompter() *mockPrompter {
	return &mockPrompter{
		selectTemplateFunc: func(templates []proxmox.Template) (int, error) { return templates[0].VMID, nil },
		selectNetworkFunc:  func(vnets []proxmox.VNet) (string, error) { return vnets[0].Name, nil },
		collectFunc: func(in *config.FormInput) error {
			in.VMID = "150"
			in.Name = "web1"
			in.Password = "secret"
			in.IPv4 = "10.0.0.50/24"
			in.GatewayV4 = "10.0.0.1"
			in.DNS = "1.1.1.1"
			return nil
		},
		confirmFunc: func(string) (bool, error) { return true, nil },
	}
}

func (m *mockPrompter) SelectTemplate(_ context.Context, templates []proxmox.Template) (int, error) {
	return m.selectTemplateFunc(templates)
}

func (m *mockPrompter) SelectNetwork(_ context.Context, vnets []proxmox.VNet) (string, error) {
	return m.selectNetworkFunc(vnets)
}

func (m *mockPrompter) Collect(_ context.Context, in *config.FormInput) error {
	return m.collectFunc(in)
}

func (m *mockPrompter) Confirm(_ context.Context, summary string) (bool, error) {
	m.summaries = append(m.summaries, summary)
	return m.confirmFunc(summary)
}

func (m *mockPrompter) Alert(_ context.Context, title, text string) error {
	m.alerts = append(m.alerts, title+": "+text)
	return nil
}

// mockCluster is a mock implementation of the Cluster interface for testing.
type mockCluster struct {
	templates    []proxmox.Template
	vnets        []proxmox.VNet
	templatesErr error
	vnetsErr     error
}

func newMockCluster() *mockCluster {
	return &mockCluster{
		templates: []proxmox.Template{{VMID: 9000, Name: "ubuntu-24.04", Node: "pve1", Template: 1}},
		vnets:     []proxmox.VNet{{Name: "vnet10", Zone: "lab"}},
	}
}

func (m *mockCluster) Templates(context.Context) ([]proxmox.Template, error) {
	return m.templates, m.templatesErr
}

func (m *mockCluster) VNets(context.Context) ([]proxmox.VNet, error) {
	return m.vnets, m.vnetsErr
}

// recordingHypervisor records every call as a redacted command line and
// writes it to the command output like the real client does.
type recordingHypervisor struct {
	mu  sync.Mutex
	out io.Writer

	calls    []string
	failStep string // Call prefix that fails
}

func (h *recordingHypervisor) record(args ...string) error {
	call := proxmox.CommandString(proxmox.QMBinary, args)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, call)
	if h.out != nil {
		_, _ = fmt.Fprintln(h.out, call)
	}
	if h.failStep != "" && strings.HasPrefix(call, h.failStep) {
		return fmt.Errorf("%s: command exited with code 255", call)
	}
	return nil
}

func (h *recordingHypervisor) Clone(_ context.Context, templateID, vmID int, name, storage string) error {
	return h.record("clone", strconv.Itoa(templateID), strconv.Itoa(vmID), "--name", name, "--full", "1", "--storage", storage)
}

func (h *recordingHypervisor) Config(context.Context, int) (string, error) {
	return "cores: 2\n", nil
}

func (h *recordingHypervisor) Set(_ context.Context, vmID int, opts ...proxmox.Option) error {
	args := []string{"set", strconv.Itoa(vmID)}
	for _, o := range opts {
		args = append(args, "--"+o.Key, o.Value)
	}
	return h.record(args...)
}

func (h *recordingHypervisor) Resize(_ context.Context, vmID int, disk, size string) error {
	return h.record("resize", strconv.Itoa(vmID), disk, size)
}

func (h *recordingHypervisor) Start(_ context.Context, vmID int) error {
	return h.record("start", strconv.Itoa(vmID))
}

func (h *recordingHypervisor) factory() func(io.Writer, *zap.Logger) vm.Hypervisor {
	return func(out io.Writer, _ *zap.Logger) vm.Hypervisor {
		h.out = out
		return h
	}
}
