// Package prerequisites checks that the Proxmox VE command-line tools the
// deployment workflow shells out to are installed.
package prerequisites

import (
	"fmt"
	"os/exec"
	"strings"
)

// Tool represents a command-line tool the workflow runs.
type Tool struct {
	// Name is the binary name to look for in PATH.
	Name string

	// Required indicates if this tool is mandatory.
	Required bool

	// Description explains what the tool is used for.
	Description string
}

// DefaultTools returns the tools every deployment needs.
// Both ship with pve-manager and are only present on a cluster node.
func DefaultTools() []Tool {
	return []Tool{
		{
			Name:        "pvesh",
			Required:    true,
			Description: "Queries cluster resources and SDN VNets",
		},
		{
			Name:        "qm",
			Required:    true,
			Description: "Clones, configures and starts QEMU VMs",
		},
	}
}

// CheckResult contains the result of checking a single tool.
type CheckResult struct {
	Tool  Tool
	Found bool
	Path  string
}

// CheckResults contains the results of checking multiple tools.
type CheckResults struct {
	Results []CheckResult
	Missing []Tool
}

// HasErrors returns true if any required tools are missing.
func (r *CheckResults) HasErrors() bool {
	for _, tool := range r.Missing {
		if tool.Required {
			return true
		}
	}
	return false
}

// Error returns an error if any required tools are missing.
func (r *CheckResults) Error() error {
	var missing []string
	for _, tool := range r.Missing {
		if tool.Required {
			missing = append(missing, fmt.Sprintf("%s (%s)", tool.Name, tool.Description))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing required tools: %s; run kiln on a Proxmox VE node", strings.Join(missing, ", "))
}

// Check verifies that the specified tools are available in PATH.
func Check(tools []Tool) *CheckResults {
	return check(tools, exec.LookPath)
}

// CheckDefault checks the default required tools.
func CheckDefault() *CheckResults {
	return Check(DefaultTools())
}

func check(tools []Tool, lookPath func(string) (string, error)) *CheckResults {
	results := &CheckResults{}

	for _, tool := range tools {
		result := CheckResult{Tool: tool}

		path, err := lookPath(tool.Name)
		if err == nil {
			result.Found = true
			result.Path = path
		} else {
			results.Missing = append(results.Missing, tool)
		}

		results.Results = append(results.Results, result)
	}

	return results
}
