package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/jbweber/kiln/internal/config"
)

// Summary renders the deployment request as a two-column table for the
// confirmation prompt. keyFingerprint is shown in place of the key itself;
// pass "" when no key was supplied.
func Summary(req *config.DeploymentRequest, keyFingerprint string) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	sshKey := "(none)"
	if keyFingerprint != "" {
		sshKey = keyFingerprint
	}

	rows := [][2]string{
		{"Template", fmt.Sprintf("%d", req.TemplateID)},
		{"VM ID", fmt.Sprintf("%d", req.VMID)},
		{"Name", req.Name},
		{"CPU cores", fmt.Sprintf("%d", req.Cores)},
		{"Memory", fmt.Sprintf("%d GiB (%d MiB)", req.MemoryGiB, req.MemoryMiB())},
		{"Disk grow", fmt.Sprintf("%s on %s", req.DiskGrow(), config.DiskID)},
		{"User", req.User},
		{"SSH key", sshKey},
		{"Network", req.Bridge},
		{"IP config", req.IPConfig()},
		{"DNS", req.Nameserver()},
		{"Search domain", req.SearchDomain},
		{"Storage", req.StoragePool},
	}
	for _, r := range rows {
		_, _ = fmt.Fprintf(w, "%s:\t%s\n", r[0], r[1])
	}

	_ = w.Flush()
	return buf.String()
}

// TableFormatter formats reports as human-readable tables.
type TableFormatter struct{}

// FormatReport formats a report as a header block followed by a step table.
func (f *TableFormatter) FormatReport(r *Report) (string, error) {
	var buf bytes.Buffer

	result := "failed"
	if r.Succeeded {
		result = "succeeded"
	}
	name := "-"
	vmid := "-"
	if r.Request != nil {
		name = r.Request.Name
		vmid = fmt.Sprintf("%d", r.Request.VMID)
	}

	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Run:\t%s\n", r.RunID)
	_, _ = fmt.Fprintf(w, "VM:\t%s (%s)\n", name, vmid)
	_, _ = fmt.Fprintf(w, "Result:\t%s in %s\n", result, formatDuration(r.Duration()))
	if r.Connect != "" {
		_, _ = fmt.Fprintf(w, "Connect:\t%s\n", r.Connect)
	}
	_ = w.Flush()

	if len(r.Steps) == 0 {
		return buf.String(), nil
	}

	buf.WriteString("\n")
	w = tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STEP\tSTATE\tERROR")
	for _, s := range r.Steps {
		errText := s.Error
		if errText == "" {
			errText = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", s.Step, s.State, errText)
	}
	_ = w.Flush()

	return buf.String(), nil
}

// formatDuration formats a duration with precision suited to the magnitude.
// Examples: "850ms", "12.4s", "3m12s"
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	case d < time.Minute:
		return d.Round(100 * time.Millisecond).String()
	default:
		return d.Round(time.Second).String()
	}
}
