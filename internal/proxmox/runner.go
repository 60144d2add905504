package proxmox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Runner executes a named tool with arguments.
// Implementations return the exit code; a non-zero exit is also reported
// through err. exitCode is -1 when the process could not be started.
type Runner interface {
	Run(ctx context.Context, stdout, stderr io.Writer, name string, args ...string) (exitCode int, err error)
}

// Exec runs commands on the local host with os/exec.
type Exec struct {
	logger *zap.Logger
}

// NewExec creates an Exec. A nil logger disables debug logging.
func NewExec(logger *zap.Logger) *Exec {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exec{logger: logger}
}

// Run implements Runner.
func (e *Exec) Run(ctx context.Context, stdout, stderr io.Writer, name string, args ...string) (int, error) {
	cmdStr := CommandString(name, args)
	e.logger.Debug("executing command", zap.String("cmd", cmdStr))

	// #nosec G204 - name is one of the fixed Proxmox tools, args are passed without a shell
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode := exitErr.ExitCode()
			e.logger.Debug("command failed", zap.String("cmd", cmdStr), zap.Int("exit_code", exitCode))
			return exitCode, fmt.Errorf("command exited with code %d: %w", exitCode, err)
		}

		e.logger.Debug("command execution error", zap.String("cmd", cmdStr), zap.Error(err))
		return -1, fmt.Errorf("command execution failed: %w", err)
	}

	return 0, nil
}

// Result holds the captured output of a command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// RunAndCapture runs a command and captures stdout and stderr separately.
func RunAndCapture(ctx context.Context, r Runner, name string, args ...string) (*Result, error) {
	var outBuf, errBuf bytes.Buffer

	exitCode, err := r.Run(ctx, &outBuf, &errBuf, name, args...)

	return &Result{
		ExitCode: exitCode,
		Stdout:   outBuf.String(),
		Stderr:   errBuf.String(),
	}, err
}

// secretFlags lists flags whose value must never appear in logs.
var secretFlags = map[string]bool{
	"--cipassword": true,
}

// CommandString renders a command line for logging with secret values masked.
func CommandString(name string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, name)
	for i, arg := range args {
		if i > 0 && secretFlags[args[i-1]] {
			parts = append(parts, "********")
			continue
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}
