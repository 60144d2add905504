package proxmox

import (
	"errors"
	"fmt"
)

var (
	// ErrNoTemplates is returned when the cluster has no VM flagged as template.
	ErrNoTemplates = errors.New("no VM templates found in cluster")

	// ErrNoVNets is returned when no SDN VNet is defined.
	ErrNoVNets = errors.New("no SDN VNets found in cluster")
)

// CommandError describes a tool invocation that did not exit cleanly.
type CommandError struct {
	// Command is the command line with secrets redacted.
	Command string

	// ExitCode is the process exit status, or -1 if it never ran.
	ExitCode int

	// Stderr holds captured error output for queries. Empty for streamed commands.
	Stderr string

	Err error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Command, e.ExitCode)
	if e.ExitCode < 0 && e.Err != nil {
		msg = fmt.Sprintf("%s failed to run: %v", e.Command, e.Err)
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
