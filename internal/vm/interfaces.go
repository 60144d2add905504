package vm

import (
	"context"

	"github.com/jbweber/kiln/internal/proxmox"
)

// Hypervisor defines the VM lifecycle operations a deployment needs.
//
// In production, this is satisfied by *proxmox.Client.
// In tests, this is satisfied by mock implementations.
type Hypervisor interface {
	// Clone creates a full clone of a template
	Clone(ctx context.Context, templateID, vmID int, name, storage string) error

	// Config returns the raw VM configuration
	Config(ctx context.Context, vmID int) (string, error)

	// Set applies configuration options in one call
	Set(ctx context.Context, vmID int, opts ...proxmox.Option) error

	// Resize grows a VM disk
	Resize(ctx context.Context, vmID int, disk, size string) error

	// Start powers on a VM
	Start(ctx context.Context, vmID int) error
}

var _ Hypervisor = (*proxmox.Client)(nil)
