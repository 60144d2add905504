package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jbweber/kiln/internal/status"
)

// maxLogLines bounds the lines kept for the viewport.
const maxLogLines = 2000

// checklistHeight is the number of rows above the log viewport: title,
// section header with margin, one row per step and the log box border.
var checklistHeight = 4 + len(status.Steps()) + 2

// model is the Bubble Tea model for the live deployment view.
type model struct {
	title  string
	states []status.State
	errs   map[status.Step]error

	lines    []string
	viewport viewport.Model
	ready    bool

	width  int
	height int

	grace       time.Duration
	cancel      context.CancelFunc
	interrupted bool
	done        bool
	err         error
}

func newModel(title string, grace time.Duration, cancel context.CancelFunc) model {
	return model{
		title:  title,
		states: make([]status.State, len(status.Steps())),
		errs:   make(map[status.Step]error),
		grace:  grace,
		cancel: cancel,
	}
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			// Stop the running command; the deployment reports back via doneMsg.
			if !m.done && !m.interrupted {
				m.interrupted = true
				if m.cancel != nil {
					m.cancel()
				}
			}
			return m, nil
		case "q":
			if m.done {
				return m, tea.Quit
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case logLineMsg:
		m.appendLine(string(msg))

	case stepMsg:
		if int(msg.Step) >= 0 && int(msg.Step) < len(m.states) {
			m.states[msg.Step] = msg.State
			if msg.Err != nil {
				m.errs[msg.Step] = msg.Err
			}
		}

	case doneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Tick(m.grace, func(time.Time) tea.Msg { return quitMsg{} })

	case quitMsg:
		return m, tea.Quit
	}

	if m.ready {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *model) resize() {
	h := m.height - checklistHeight
	if h < 3 {
		h = 3
	}
	w := m.width - 2
	if w < 20 {
		w = 20
	}

	if !m.ready {
		m.viewport = viewport.New(w, h)
		m.ready = true
	} else {
		m.viewport.Width = w
		m.viewport.Height = h
	}
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

func (m *model) appendLine(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > maxLogLines {
		m.lines = m.lines[len(m.lines)-maxLogLines:]
	}
	if m.ready {
		// Follow the tail unless the user scrolled up.
		follow := m.viewport.AtBottom()
		m.viewport.SetContent(strings.Join(m.lines, "\n"))
		if follow {
			m.viewport.GotoBottom()
		}
	}
}

// View implements tea.Model.
func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title))
	b.WriteString(" ")
	switch {
	case m.done && m.err != nil:
		b.WriteString(failedStyle.Render("Failed"))
	case m.done:
		b.WriteString(doneStyle.Render("Deployed"))
	case m.interrupted:
		b.WriteString(warningStyle.Render("Interrupting..."))
	default:
		b.WriteString(dimStyle.Render("Deploying..."))
	}
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("  Steps"))
	b.WriteString("\n")
	for _, step := range status.Steps() {
		b.WriteString(renderStep(step, m.states[step], m.errs[step]))
		b.WriteString("\n")
	}

	if m.ready {
		b.WriteString(logBoxStyle.Render(m.viewport.View()))
		b.WriteString("\n")
	} else if n := len(m.lines); n > 0 {
		b.WriteString(dimStyle.Render("  " + m.lines[n-1]))
		b.WriteString("\n")
	}

	return b.String()
}

func renderStep(step status.Step, state status.State, err error) string {
	switch state {
	case status.Done:
		return doneStyle.Render("  ✓ ") + step.Title()
	case status.Active:
		return activeStyle.Render("  ● " + step.Title())
	case status.Failed:
		line := failedStyle.Render("  ✗ " + step.Title())
		if err != nil {
			line += dimStyle.Render(fmt.Sprintf("  %v", err))
		}
		return line
	case status.Skipped:
		return dimStyle.Render("  - " + step.Title() + " (skipped)")
	default:
		return dimStyle.Render("  ○ " + step.Title())
	}
}
