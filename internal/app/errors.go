package app

import "errors"

// Error kinds returned by Run. Cancellation is reported as ui.ErrCancelled
// and step failures as *vm.StepError.
var (
	// ErrEnvironment means the host cannot run deployments.
	ErrEnvironment = errors.New("environment check failed")

	// ErrDiscovery means templates or networks could not be listed.
	ErrDiscovery = errors.New("cluster discovery failed")

	// ErrValidation means the submitted parameters were rejected.
	ErrValidation = errors.New("invalid deployment parameters")
)
