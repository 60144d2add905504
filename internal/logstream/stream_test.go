package logstream

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// drain collects lines until the channel closes or the timeout expires.
func drain(t *testing.T, ch <-chan string) []string {
	t.Helper()
	var lines []string
	timeout := time.After(5 * time.Second)
	for {
		select {
		case line, ok := <-ch:
			if !ok {
				return lines
			}
			lines = append(lines, line)
		case <-timeout:
			t.Fatalf("timed out waiting for lines, got %v", lines)
			return nil
		}
	}
}

func TestNew(t *testing.T) {
	dir := t.TempDir()

	s, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = s.Close() }()

	if filepath.Dir(s.Path()) != dir {
		t.Errorf("expected log file in %s, got %s", dir, s.Path())
	}
	if !strings.HasPrefix(filepath.Base(s.Path()), "kiln-deploy-") {
		t.Errorf("unexpected log file name %s", filepath.Base(s.Path()))
	}
}

func TestStream_PublishesLines(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	// Lines split across writes are joined, several lines in one write are split
	fmt.Fprint(s, "running qm clone")
	fmt.Fprint(s, " 9000 150\ncreate full clone\r\n")
	fmt.Fprint(s, "transferred 20 GiB\n")
	fmt.Fprint(s, "no newline")

	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "transferred 20 GiB\n") {
		t.Errorf("log file missing content: %q", string(data))
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	got := drain(t, s.Lines())
	want := []string{
		"running qm clone 9000 150",
		"create full clone",
		"transferred 20 GiB",
		"no newline",
	}
	if len(got) != len(want) {
		t.Fatalf("got lines %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestStream_WriteDoesNotWaitForReader(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = s.Close() }()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10000; i++ {
			fmt.Fprintf(s, "line %d\n", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("writer blocked with no reader")
	}
}

func TestStream_Close(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := s.Path()

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected log file to be removed, stat err = %v", err)
	}

	// Second close is a no-op
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if _, err := s.Write([]byte("late\n")); !errors.Is(err, ErrClosed) {
		t.Errorf("Write after Close error = %v, want ErrClosed", err)
	}
	if err := s.Sync(); err != nil {
		t.Errorf("Sync after Close error = %v", err)
	}
}

func TestNew_BadDir(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for nonexistent directory")
	}
}
