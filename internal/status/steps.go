// Package status tracks the progress of a deployment through its fixed
// sequence of steps.
package status

import "fmt"

// Step identifies one stage of the deployment sequence.
type Step int

// Steps in execution order.
const (
	Clone Step = iota
	AwaitLockRelease
	ConfigureHardware
	ResizeDisk
	ConfigureNetwork
	ConfigureCloudInitUser
	InjectSSHKey
	Start
	Complete
)

var stepNames = [...]string{
	Clone:                  "Clone",
	AwaitLockRelease:       "AwaitLockRelease",
	ConfigureHardware:      "ConfigureHardware",
	ResizeDisk:             "ResizeDisk",
	ConfigureNetwork:       "ConfigureNetwork",
	ConfigureCloudInitUser: "ConfigureCloudInitUser",
	InjectSSHKey:           "InjectSSHKey",
	Start:                  "Start",
	Complete:               "Complete",
}

var stepTitles = [...]string{
	Clone:                  "Clone template",
	AwaitLockRelease:       "Wait for clone lock",
	ConfigureHardware:      "Configure CPU and memory",
	ResizeDisk:             "Resize disk",
	ConfigureNetwork:       "Configure network",
	ConfigureCloudInitUser: "Configure Cloud-Init user",
	InjectSSHKey:           "Inject SSH key",
	Start:                  "Start VM",
	Complete:               "Complete",
}

// Steps returns all steps in execution order.
func Steps() []Step {
	steps := make([]Step, len(stepNames))
	for i := range stepNames {
		steps[i] = Step(i)
	}
	return steps
}

func (s Step) valid() bool {
	return s >= 0 && int(s) < len(stepNames)
}

func (s Step) String() string {
	if !s.valid() {
		return fmt.Sprintf("Step(%d)", int(s))
	}
	return stepNames[s]
}

// Title returns a human-readable description for checklists.
func (s Step) Title() string {
	if !s.valid() {
		return s.String()
	}
	return stepTitles[s]
}

// State is the progress of a single step.
type State int

const (
	Pending State = iota
	Active
	Done
	Failed
	Skipped
)

func (s State) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Active:
		return "Active"
	case Done:
		return "Done"
	case Failed:
		return "Failed"
	case Skipped:
		return "Skipped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// IsTerminal returns true if the step will not change state again.
func (s State) IsTerminal() bool {
	return s == Done || s == Failed || s == Skipped
}
