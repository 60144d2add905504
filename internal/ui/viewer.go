package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jbweber/kiln/internal/status"
)

// Default timings for the live view after the deployment returns.
const (
	DefaultGrace     = time.Second
	DefaultKillAfter = 2 * time.Second
)

// Work is the operation shown by a viewer. It must close the lines channel
// passed to Watch before returning.
type Work func(ctx context.Context) error

// TUIViewer shows the step checklist and a scrolling tail of the
// deployment log while work runs.
type TUIViewer struct {
	title     string
	grace     time.Duration
	killAfter time.Duration
	opts      []tea.ProgramOption

	// build creates the program model; cancel stops the running work.
	build func(cancel context.CancelFunc) tea.Model
}

// TUIOption configures a TUIViewer.
type TUIOption func(*TUIViewer)

// WithGrace sets how long the final view stays up after work returns.
func WithGrace(d time.Duration) TUIOption {
	return func(v *TUIViewer) {
		v.grace = d
	}
}

// WithKillAfter sets how long to wait past the grace period before the
// program is killed.
func WithKillAfter(d time.Duration) TUIOption {
	return func(v *TUIViewer) {
		v.killAfter = d
	}
}

// WithProgramOptions passes options through to tea.NewProgram.
func WithProgramOptions(opts ...tea.ProgramOption) TUIOption {
	return func(v *TUIViewer) {
		v.opts = append(v.opts, opts...)
	}
}

// NewTUIViewer creates a TUIViewer with the given header title.
func NewTUIViewer(title string, opts ...TUIOption) *TUIViewer {
	v := &TUIViewer{
		title:     title,
		grace:     DefaultGrace,
		killAfter: DefaultKillAfter,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.build = func(cancel context.CancelFunc) tea.Model {
		return newModel(v.title, v.grace, cancel)
	}
	return v
}

// Watch runs work while rendering lines and tracker events. It returns the
// error from work. Ctrl+C in the view cancels the context passed to work.
func (v *TUIViewer) Watch(ctx context.Context, lines <-chan string, tracker *status.Tracker, work Work) error {
	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Signals are handled by the caller's context.
	opts := append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithoutSignalHandler()}, v.opts...)
	p := tea.NewProgram(v.build(cancel), opts...)

	tracker.Subscribe(func(ev status.Event) {
		p.Send(stepMsg(ev))
	})

	pumped := make(chan struct{})
	go func() {
		defer close(pumped)
		for line := range lines {
			p.Send(logLineMsg(line))
		}
	}()

	exited := make(chan struct{})
	result := make(chan error, 1)
	go func() {
		err := work(workCtx)
		<-pumped
		result <- err
		p.Send(doneMsg{Err: err})

		// The model quits itself after the grace period.
		timer := time.NewTimer(v.grace + v.killAfter)
		defer timer.Stop()
		select {
		case <-timer.C:
			p.Kill()
		case <-exited:
		}
	}()

	_, runErr := p.Run()
	close(exited)

	workErr := <-result
	if workErr != nil {
		return workErr
	}
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", runErr)
	}
	return nil
}

// PlainViewer copies log lines to a writer. It is used when stdout is not
// a terminal.
type PlainViewer struct {
	out io.Writer
}

// NewPlainViewer creates a PlainViewer writing to out.
func NewPlainViewer(out io.Writer) *PlainViewer {
	return &PlainViewer{out: out}
}

// Watch runs work and writes every line until lines is closed.
func (v *PlainViewer) Watch(ctx context.Context, lines <-chan string, _ *status.Tracker, work Work) error {
	pumped := make(chan struct{})
	go func() {
		defer close(pumped)
		for line := range lines {
			_, _ = fmt.Fprintln(v.out, line)
		}
	}()

	err := work(ctx)
	<-pumped
	return err
}
