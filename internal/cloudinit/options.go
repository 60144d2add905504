// Package cloudinit turns a deployment request into the Proxmox Cloud-Init
// settings applied to a freshly cloned VM, and prepares the SSH key file
// consumed by qm set --sshkeys.
//
// Proxmox renders these settings into a NoCloud drive attached to the VM.
//
// See https://pve.proxmox.com/wiki/Cloud-Init_Support
package cloudinit

import (
	"fmt"

	"github.com/jbweber/kiln/internal/config"
	"github.com/jbweber/kiln/internal/proxmox"
)

// NetworkOptions returns the qm set options binding the VM to its VNet and
// configuring static addressing and DNS, in the order they are applied.
func NetworkOptions(req *config.DeploymentRequest) []proxmox.Option {
	return []proxmox.Option{
		proxmox.Opt("net0", fmt.Sprintf("virtio,bridge=%s", req.Bridge)),
		proxmox.Opt("ipconfig0", req.IPConfig()),
		proxmox.Opt("nameserver", req.Nameserver()),
		proxmox.Opt("searchdomain", req.SearchDomain),
	}
}

// UserOptions returns the qm set options for the Cloud-Init default user.
func UserOptions(req *config.DeploymentRequest) []proxmox.Option {
	return []proxmox.Option{
		proxmox.Opt("ciuser", req.User),
		proxmox.Opt("cipassword", req.Password),
	}
}

// SSHKeyOption returns the qm set option pointing at a resolved key file.
func SSHKeyOption(path string) proxmox.Option {
	return proxmox.Opt("sshkeys", path)
}
