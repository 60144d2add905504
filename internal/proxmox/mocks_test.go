package proxmox

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// fakeResponse is a scripted reply for a command.
type fakeResponse struct {
	stdout   string
	stderr   string
	exitCode int
	err      error
}

// fakeRunner is a scripted Runner that records every invocation.
type fakeRunner struct {
	mu sync.Mutex

	// responses maps a command prefix (e.g. "qm clone") to its reply.
	// The longest matching prefix wins; unmatched commands succeed silently.
	responses map[string]fakeResponse

	// Call tracking, one rendered command line per call
	calls []string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{responses: map[string]fakeResponse{}}
}

func (f *fakeRunner) Run(_ context.Context, stdout, stderr io.Writer, name string, args ...string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	line := strings.TrimSpace(name + " " + strings.Join(args, " "))
	f.calls = append(f.calls, line)

	var (
		best    fakeResponse
		bestLen = -1
	)
	for prefix, resp := range f.responses {
		if strings.HasPrefix(line, prefix) && len(prefix) > bestLen {
			best = resp
			bestLen = len(prefix)
		}
	}

	if best.stdout != "" {
		_, _ = io.WriteString(stdout, best.stdout)
	}
	if best.stderr != "" {
		_, _ = io.WriteString(stderr, best.stderr)
	}
	if best.err != nil {
		return best.exitCode, best.err
	}
	if best.exitCode != 0 {
		return best.exitCode, fmt.Errorf("command exited with code %d", best.exitCode)
	}
	return 0, nil
}
