// Package proxmox provides a client wrapper for the Proxmox VE command-line
// tools.
//
// This package shells out to the tools installed on every cluster node:
//   - pvesh: read-only cluster queries (templates, SDN VNets)
//   - qm: VM lifecycle operations (clone, config, set, resize, start)
//
// Command Execution:
//
// All invocations go through the Runner interface. Exec is the production
// implementation backed by os/exec; tests substitute a scripted fake so the
// deployment sequence can be exercised without a hypervisor:
//
//	client := proxmox.NewClient(proxmox.NewExec(logger))
//
//	templates, err := client.Templates(ctx)
//	if err != nil {
//	    return err
//	}
//
//	if err := client.Clone(ctx, 9000, 150, "web1", "local-lvm"); err != nil {
//	    return err
//	}
//
// Output:
//
// Mutating qm commands stream their combined stdout and stderr to the
// writer configured with WithOutput, normally the live deployment log.
// Queries capture their output and never write to it.
//
// Consumer-Side Interfaces:
//
// This package does not define a hypervisor interface. Consumers (internal/vm,
// internal/app) declare the operations they need and *Client satisfies them
// implicitly.
package proxmox
