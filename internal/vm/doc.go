// Package vm deploys a virtual machine from a Proxmox template.
//
// Deploy runs a fixed, linear sequence of steps against a Hypervisor:
//   - Clone: full clone of the template onto the configured storage
//   - AwaitLockRelease: poll until the clone lock is released
//   - ConfigureHardware: CPU cores, then memory
//   - ResizeDisk: grow the boot disk
//   - ConfigureNetwork: bridge, IP configuration, DNS and search domain
//   - ConfigureCloudInitUser: login user and password
//   - InjectSSHKey: authorized key (skipped when none was supplied)
//   - Start: power on the VM
//   - Complete: log the summary and connection hint
//
// Error Handling:
//
// Every hypervisor call is checked. The first failure aborts the sequence and
// is returned as a *StepError naming the step. Nothing is rolled back: a VM
// that failed after Clone stays on the cluster in a partially configured
// state.
//
// Context Support:
//
// Deploy accepts a context.Context. Cancellation stops the lock wait and is
// passed to every command.
package vm
