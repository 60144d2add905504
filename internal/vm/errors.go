package vm

import (
	"errors"
	"fmt"

	"github.com/jbweber/kiln/internal/status"
)

// ErrLockTimeout is returned when the clone lock is not released in time.
var ErrLockTimeout = errors.New("timed out waiting for VM lock to be released")

// StepError reports the step at which a deployment stopped.
type StepError struct {
	Step status.Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
