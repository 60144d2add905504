package output

import (
	"time"

	"github.com/jbweber/kiln/internal/config"
)

// Report describes the outcome of one deployment run.
// Secrets are never included: the request omits the password and the key
// appears only as its fingerprint.
type Report struct {
	RunID      string                    `yaml:"run_id" json:"run_id"`
	Succeeded  bool                      `yaml:"succeeded" json:"succeeded"`
	Request    *config.DeploymentRequest `yaml:"request" json:"request"`
	SSHKey     string                    `yaml:"ssh_key,omitempty" json:"ssh_key,omitempty"`
	Connect    string                    `yaml:"connect,omitempty" json:"connect,omitempty"`
	Steps      []StepResult              `yaml:"steps" json:"steps"`
	StartedAt  time.Time                 `yaml:"started_at" json:"started_at"`
	FinishedAt time.Time                 `yaml:"finished_at" json:"finished_at"`
}

// StepResult is the final state of one deployment step.
type StepResult struct {
	Step  string `yaml:"step" json:"step"`
	State string `yaml:"state" json:"state"`
	Error string `yaml:"error,omitempty" json:"error,omitempty"`
}

// Duration returns how long the run took.
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
