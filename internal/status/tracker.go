package status

import (
	"fmt"
	"sync"
)

// Event reports a step state change.
type Event struct {
	Step  Step
	State State
	Err   error // Set when State is Failed
}

// Tracker records step transitions and notifies subscribers.
// Steps must progress in order: a step can only begin or be skipped once
// every earlier step is Done or Skipped.
type Tracker struct {
	mu          sync.Mutex
	states      []State
	subscribers []func(Event)
}

// NewTracker creates a Tracker with every step Pending.
func NewTracker() *Tracker {
	return &Tracker{states: make([]State, len(stepNames))}
}

// Subscribe registers fn to receive every subsequent event.
// fn is called synchronously from the goroutine that made the transition.
func (t *Tracker) Subscribe(fn func(Event)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subscribers = append(t.subscribers, fn)
}

// Begin transitions a step from Pending to Active.
func (t *Tracker) Begin(step Step) error {
	return t.transition(step, Active, nil, func(cur State) error {
		if cur != Pending {
			return fmt.Errorf("cannot begin %s from state %s", step, cur)
		}
		return t.checkPredecessors(step)
	})
}

// Finish transitions a step from Active to Done.
func (t *Tracker) Finish(step Step) error {
	return t.transition(step, Done, nil, requireActive(step, "finish"))
}

// Fail transitions a step from Active to Failed.
func (t *Tracker) Fail(step Step, err error) error {
	return t.transition(step, Failed, err, requireActive(step, "fail"))
}

// Skip transitions a step from Pending to Skipped.
func (t *Tracker) Skip(step Step) error {
	return t.transition(step, Skipped, nil, func(cur State) error {
		if cur != Pending {
			return fmt.Errorf("cannot skip %s from state %s", step, cur)
		}
		return t.checkPredecessors(step)
	})
}

// State returns the current state of a step.
func (t *Tracker) State(step Step) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !step.valid() {
		return Pending
	}
	return t.states[step]
}

// Snapshot returns the state of every step in order.
func (t *Tracker) Snapshot() []State {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]State, len(t.states))
	copy(out, t.states)
	return out
}

func requireActive(step Step, verb string) func(State) error {
	return func(cur State) error {
		if cur != Active {
			return fmt.Errorf("cannot %s %s from state %s", verb, step, cur)
		}
		return nil
	}
}

// checkPredecessors must be called with t.mu held.
func (t *Tracker) checkPredecessors(step Step) error {
	for prev := Step(0); prev < step; prev++ {
		if s := t.states[prev]; s != Done && s != Skipped {
			return fmt.Errorf("cannot start %s: %s is %s", step, prev, s)
		}
	}
	return nil
}

func (t *Tracker) transition(step Step, to State, cause error, check func(State) error) error {
	t.mu.Lock()
	if !step.valid() {
		t.mu.Unlock()
		return fmt.Errorf("unknown step %s", step)
	}
	if err := check(t.states[step]); err != nil {
		t.mu.Unlock()
		return err
	}
	t.states[step] = to
	subs := make([]func(Event), len(t.subscribers))
	copy(subs, t.subscribers)
	t.mu.Unlock()

	ev := Event{Step: step, State: to, Err: cause}
	for _, fn := range subs {
		fn(ev)
	}
	return nil
}
