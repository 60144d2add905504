package ui

import "github.com/jbweber/kiln/internal/status"

// logLineMsg carries one line from the deployment log.
type logLineMsg string

// stepMsg reports a step transition.
type stepMsg status.Event

// doneMsg signals that the deployment has returned.
type doneMsg struct{ Err error }

// quitMsg is sent once the grace period after doneMsg expires.
type quitMsg struct{}
