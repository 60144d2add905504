package vm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/jbweber/kiln/internal/proxmox"
)

// mockHypervisor is a mock implementation of the Hypervisor interface for testing.
type mockHypervisor struct {
	mu sync.Mutex

	// Configurable behavior
	cloneFunc  func(templateID, vmID int, name, storage string) error
	configFunc func(vmID int) (string, error)
	setFunc    func(vmID int, opts ...proxmox.Option) error
	resizeFunc func(vmID int, disk, size string) error
	startFunc  func(vmID int) error

	// Call tracking, rendered as qm command lines
	calls []string

	// Contents of each --sshkeys file at the time of the call
	sshKeyFiles map[string]string
}

// newMockHypervisor creates a new mock hypervisor where every call succeeds
// and the VM is never locked.
func newMockHypervisor() *mockHypervisor {
	m := &mockHypervisor{sshKeyFiles: make(map[string]string)}

	m.cloneFunc = func(int, int, string, string) error { return nil }
	m.configFunc = func(int) (string, error) { return "cores: 1\nmemory: 2048\n", nil }
	m.setFunc = func(int, ...proxmox.Option) error { return nil }
	m.resizeFunc = func(int, string, string) error { return nil }
	m.startFunc = func(int) error { return nil }

	return m
}

func (m *mockHypervisor) record(format string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, fmt.Sprintf(format, args...))
}

func (m *mockHypervisor) Clone(_ context.Context, templateID, vmID int, name, storage string) error {
	m.record("qm clone %d %d --name %s --full 1 --storage %s", templateID, vmID, name, storage)
	return m.cloneFunc(templateID, vmID, name, storage)
}

func (m *mockHypervisor) Config(_ context.Context, vmID int) (string, error) {
	m.record("qm config %d", vmID)
	return m.configFunc(vmID)
}

func (m *mockHypervisor) Set(_ context.Context, vmID int, opts ...proxmox.Option) error {
	parts := make([]string, 0, len(opts))
	for _, o := range opts {
		parts = append(parts, "--"+o.Key+" "+o.Value)
		if o.Key == "sshkeys" {
			data, err := os.ReadFile(o.Value)
			m.mu.Lock()
			if err == nil {
				m.sshKeyFiles[o.Value] = string(data)
			}
			m.mu.Unlock()
		}
	}
	m.record("qm set %d %s", vmID, strings.Join(parts, " "))
	return m.setFunc(vmID, opts...)
}

func (m *mockHypervisor) Resize(_ context.Context, vmID int, disk, size string) error {
	m.record("qm resize %d %s %s", vmID, disk, size)
	return m.resizeFunc(vmID, disk, size)
}

func (m *mockHypervisor) Start(_ context.Context, vmID int) error {
	m.record("qm start %d", vmID)
	return m.startFunc(vmID)
}

// mutatingCalls returns the recorded calls except qm config polls.
func (m *mockHypervisor) mutatingCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, c := range m.calls {
		if !strings.HasPrefix(c, "qm config") {
			out = append(out, c)
		}
	}
	return out
}

// configCalls returns the number of qm config polls.
func (m *mockHypervisor) configCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if strings.HasPrefix(c, "qm config") {
			n++
		}
	}
	return n
}
